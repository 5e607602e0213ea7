package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LJTian/NewsSpectrum/internal/catalog"
	"github.com/LJTian/NewsSpectrum/internal/config"
	"github.com/LJTian/NewsSpectrum/internal/model"
	"github.com/LJTian/NewsSpectrum/internal/quota"
)

func TestLimits(t *testing.T) {
	cat := catalog.New([]catalog.Source{
		{ID: "a", Kind: model.KindRSS},
		{ID: "b", Kind: model.KindRSS, ItemCap: 5},
	})

	l := Limits(&config.Config{}, cat)
	assert.Equal(t, quota.DefaultSourceCap, l.DefaultSourceCap)
	assert.Equal(t, quota.DefaultBiasCap, l.BiasCap)
	assert.Equal(t, map[string]int{"b": 5}, l.SourceCaps)

	l = Limits(&config.Config{SourceItemCap: 12, BiasItemCap: 40}, cat)
	assert.Equal(t, 12, l.DefaultSourceCap)
	assert.Equal(t, 40, l.BiasCap)
	assert.Equal(t, 5, l.SourceCaps["b"])
}

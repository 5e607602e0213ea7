package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/NewsSpectrum/internal/model"
	"github.com/LJTian/NewsSpectrum/internal/quota"
)

func TestSchedulerRunsFirstCycleAfterDelay(t *testing.T) {
	sources := stubSources{&stubFetcher{src: feedSource("a", model.BiasCentrist), items: rssItems("a", 1)}}
	o := newTestOrchestrator(sources, quota.DefaultLimits(nil), nil)

	s, err := New("@every 1h", o, nil)
	require.NoError(t, err)
	s.startupDelay = 10 * time.Millisecond
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return o.Last() != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, model.CategoryAll, o.Last().Category)
}

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New("not a cron spec", nil, nil)
	assert.Error(t, err)
}

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/NewsSpectrum/internal/model"
)

func TestForCategoryPartitionsFeedsAndKeepsAPIs(t *testing.T) {
	c := Default()

	politics := c.ForCategory(model.CategoryPolitics)
	require.NotEmpty(t, politics)

	apis := 0
	for _, s := range politics {
		if s.IsFeed() {
			assert.Equal(t, model.CategoryPolitics, s.Category, "feed %s leaked into politics subset", s.ID)
		} else {
			apis++
		}
	}
	assert.Equal(t, 3, apis)
}

func TestForCategoryAllIsUnion(t *testing.T) {
	c := Default()
	assert.Len(t, c.ForCategory(model.CategoryAll), len(c.All()))
}

func TestForCategoryUnknownYieldsNoFeeds(t *testing.T) {
	c := Default()
	for _, s := range c.ForCategory(model.Category("gardening")) {
		assert.False(t, s.IsFeed(), "unexpected feed %s", s.ID)
	}
}

func TestDefaultIDsUniqueAndComplete(t *testing.T) {
	c := Default()
	seen := make(map[string]bool)
	for _, s := range c.All() {
		require.NotEmpty(t, s.ID)
		require.NotEmpty(t, s.Name)
		require.NotEmpty(t, s.Endpoint)
		assert.False(t, seen[s.ID], "duplicate id %s", s.ID)
		seen[s.ID] = true
	}
}

func TestNewKeepsFirstDuplicate(t *testing.T) {
	c := New([]Source{
		{ID: "a", Name: "first"},
		{ID: "a", Name: "second"},
	})
	s, ok := c.ByID("a")
	require.True(t, ok)
	assert.Equal(t, "first", s.Name)
	assert.Len(t, c.All(), 1)
}

func TestItemCaps(t *testing.T) {
	caps := Default().ItemCaps()
	assert.Equal(t, floodingSourceCap, caps["deadspin"])
	_, ok := caps["bbc-world"]
	assert.False(t, ok)
}

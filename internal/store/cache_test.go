package store

import (
	"testing"

	"github.com/mmcdole/favlive/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(dir, "https://api.twitch.tv/kraken/")
	require.NoError(t, err)

	page := domain.Page{Channels: channels("1", "2"), Total: 3}
	page.Channels[0].UpdatePending = true
	require.NoError(t, c.SavePage("Viewer", 0, page))
	require.NoError(t, c.SaveStatus("ch1", domain.StatusOnline))
	require.NoError(t, c.Close())

	c, err = NewCache(dir, "https://API.twitch.tv/kraken")
	require.NoError(t, err)
	defer c.Close()

	got, ok := c.Page("viewer", 0, 25)
	require.True(t, ok)
	assert.True(t, got.FromCache)
	assert.Equal(t, 3, got.Total)
	require.Len(t, got.Channels, 2)
	assert.Equal(t, domain.StatusOnline, got.Channels[0].Status)
	assert.False(t, got.Channels[0].UpdatePending)
	assert.Equal(t, domain.StatusUnknown, got.Channels[1].Status)
}

func TestCacheSplicesPages(t *testing.T) {
	c, err := NewCache("", "")
	require.NoError(t, err)

	require.NoError(t, c.SavePage("u", 0, domain.Page{Channels: channels("1", "2"), Total: 4}))
	require.NoError(t, c.SavePage("u", 2, domain.Page{Channels: channels("3", "4"), Total: 4}))
	require.NoError(t, c.SavePage("u", 9, domain.Page{Channels: channels("x"), Total: 4}))

	page, ok := c.Page("u", 2, 25)
	require.True(t, ok)
	assert.Equal(t, []domain.Channel{channel("3"), channel("4")}, page.Channels)

	_, ok = c.Page("u", 4, 25)
	assert.False(t, ok)

	require.NoError(t, c.SavePage("u", 0, domain.Page{Channels: channels("9"), Total: 1}))
	page, ok = c.Page("u", 0, 25)
	require.True(t, ok)
	assert.Len(t, page.Channels, 1)
}

func TestCacheIgnoresUnknownStatusAndCachedPages(t *testing.T) {
	c, err := NewCache("", "")
	require.NoError(t, err)

	require.NoError(t, c.SaveStatus("a", domain.StatusUnknown))
	_, ok := c.Status("a")
	assert.False(t, ok)

	require.NoError(t, c.SavePage("u", 0, domain.Page{Channels: channels("1"), FromCache: true}))
	_, ok = c.Page("u", 0, 25)
	assert.False(t, ok)
}

func TestCacheInvalidate(t *testing.T) {
	c, err := NewCache(t.TempDir(), "")
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SavePage("u", 0, domain.Page{Channels: channels("1"), Total: 1}))
	require.NoError(t, c.Invalidate("u"))

	_, ok := c.Page("u", 0, 25)
	assert.False(t, ok)
}

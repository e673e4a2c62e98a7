package app

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mmcdole/favlive/internal/config"
	"github.com/mmcdole/favlive/internal/domain"
	"github.com/mmcdole/favlive/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSource struct {
	follows []domain.Channel
	live    map[string]bool
	pageErr error
}

func newMemSource(n int) *memSource {
	s := &memSource{live: make(map[string]bool)}
	for i := range n {
		s.follows = append(s.follows, domain.Channel{
			ID:    fmt.Sprint(i),
			Name:  fmt.Sprintf("streamer%02d", i),
			Title: fmt.Sprintf("Streamer %02d", i),
		})
	}
	return s
}

func (s *memSource) FetchPage(_ context.Context, _ string, offset, limit int) (domain.Page, error) {
	if s.pageErr != nil {
		return domain.Page{}, s.pageErr
	}
	end := min(offset+limit, len(s.follows))
	return domain.Page{Channels: append([]domain.Channel(nil), s.follows[offset:end]...), Total: len(s.follows)}, nil
}

func (s *memSource) FetchStatus(_ context.Context, name string) (domain.Status, error) {
	if s.live[name] {
		return domain.StatusOnline, nil
	}
	return domain.StatusOffline, nil
}

func runCollect(t *testing.T, src domain.ChannelSource, user string, opts ListOptions) ([]domain.Channel, error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	loop := task.NewLoop()
	go loop.Run(ctx)
	post, changed := Signal(loop)

	cfg := config.DefaultConfig()
	cfg.Follows.PageSize = 10
	rt := &Runtime{
		Config:     cfg,
		Source:     src,
		Settings:   config.NewSettings(config.NewLoader(t.TempDir()), user),
		Dispatcher: task.New(post, task.Options{MaxWorkers: 4}),
	}
	t.Cleanup(func() { _ = rt.Close() })

	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	return Collect(ctx, rt, loop, changed, opts)
}

func TestCollectFirstPage(t *testing.T) {
	src := newMemSource(25)
	src.live["streamer03"] = true

	channels, err := runCollect(t, src, "alice", ListOptions{})
	require.NoError(t, err)
	require.Len(t, channels, 10)
	assert.Equal(t, domain.StatusOnline, channels[3].Status)
	for _, ch := range channels {
		assert.NotEqual(t, domain.StatusUnknown, ch.Status, ch.Name)
	}
}

func TestCollectAllPages(t *testing.T) {
	channels, err := runCollect(t, newMemSource(25), "alice", ListOptions{All: true})
	require.NoError(t, err)
	require.Len(t, channels, 25)
	assert.Equal(t, "streamer24", channels[24].Name)
}

func TestCollectLiveOnly(t *testing.T) {
	src := newMemSource(5)
	src.live["streamer01"] = true
	src.live["streamer04"] = true

	channels, err := runCollect(t, src, "alice", ListOptions{LiveOnly: true})
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, "streamer01", channels[0].Name)
	assert.Equal(t, "streamer04", channels[1].Name)
}

func TestCollectNoUsername(t *testing.T) {
	_, err := runCollect(t, newMemSource(3), "", ListOptions{})
	assert.ErrorIs(t, err, domain.ErrNoCriterion)
}

func TestCollectPageFailure(t *testing.T) {
	src := newMemSource(3)
	src.pageErr = fmt.Errorf("%w: connection refused", domain.ErrTransport)

	_, err := runCollect(t, src, "alice", ListOptions{})
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestFilterMatch(t *testing.T) {
	channels := []domain.Channel{
		{ID: "1", Name: "speedrunner", Title: "Any% attempts"},
		{ID: "2", Name: "chess_club", Title: "Blitz"},
		{ID: "3", Name: "cozy_gamer", Title: "Chill stream"},
	}

	got := Filter(channels, ListOptions{Match: "chess"})
	require.Len(t, got, 1)
	assert.Equal(t, "chess_club", got[0].Name)

	assert.Len(t, Filter(channels, ListOptions{Match: "  "}), 3)
	assert.Empty(t, Filter(channels, ListOptions{Match: "zzz"}))
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, []domain.Channel{
		{Name: "speedrunner", Title: "Any% attempts", Status: domain.StatusOnline},
	}, "https://www.twitch.tv/")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "CHANNEL")
	assert.Contains(t, out, "speedrunner")
	assert.Contains(t, out, "https://www.twitch.tv/speedrunner")
}

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/favlive/internal/domain"
	"github.com/mmcdole/favlive/internal/favorites"
	"github.com/mmcdole/favlive/internal/player"
	"github.com/mmcdole/favlive/internal/task"
	"github.com/mmcdole/favlive/internal/tui/styles"
)

// ListOptions controls a headless listing
type ListOptions struct {
	All      bool   // Page through every follow, not just the first page
	Match    string // Fuzzy filter on channel name and title
	LiveOnly bool
	Timeout  time.Duration
}

// Signal wraps a loop so that every delivery also wakes the waiter
func Signal(loop *task.Loop) (task.Poster, <-chan struct{}) {
	changed := make(chan struct{}, 1)
	return task.PosterFunc(func(fn func()) {
		loop.Post(func() {
			fn()
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}), changed
}

// Collect loads the follows and their statuses on loop, which must be the
// interaction context rt's dispatcher delivers to. changed is signalled
// after each delivery.
func Collect(ctx context.Context, rt *Runtime, loop *task.Loop, changed <-chan struct{}, opts ListOptions) ([]domain.Channel, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	r, err := favorites.New(favorites.Config{
		Source:     rt.Source,
		Settings:   rt.Settings,
		Dispatcher: rt.Dispatcher,
		Logger:     rt.Logger,
		PageSize:   rt.Config.Follows.PageSize,
	})
	if err != nil {
		return nil, err
	}

	var loadErr error
	if err := loop.Do(ctx, func() { loadErr = r.Load() }); err != nil {
		return nil, err
	}
	if errors.Is(loadErr, domain.ErrNoCriterion) {
		return nil, fmt.Errorf("%w: pass --user or set follows.username", loadErr)
	}
	if loadErr != nil {
		return nil, loadErr
	}

	for {
		select {
		case <-changed:
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for follows: %w", ctx.Err())
		}

		var (
			done     bool
			channels []domain.Channel
			failure  error
		)
		err := loop.Do(ctx, func() {
			if failure = r.Err(); failure != nil {
				done = true
				return
			}
			if opts.All && r.FrontierReached() {
				return
			}
			if r.Settled() {
				done = true
				channels = r.Store().Snapshot()
			}
		})
		if err != nil {
			return nil, err
		}
		if failure != nil {
			return nil, failure
		}
		if done {
			return Filter(channels, opts), nil
		}
	}
}

// Filter applies the live and match options, keeping follow order unless
// a match ranks the results
func Filter(channels []domain.Channel, opts ListOptions) []domain.Channel {
	if opts.LiveOnly {
		live := channels[:0:0]
		for _, ch := range channels {
			if ch.Status == domain.StatusOnline {
				live = append(live, ch)
			}
		}
		channels = live
	}

	query := strings.TrimSpace(opts.Match)
	if query == "" {
		return channels
	}

	targets := make([]string, len(channels))
	for i, ch := range channels {
		targets[i] = ch.Name + " " + ch.Title
	}
	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.Stable(ranks)

	matched := make([]domain.Channel, 0, len(ranks))
	for _, rank := range ranks {
		matched = append(matched, channels[rank.OriginalIndex])
	}
	return matched
}

// Render writes channels as a table
func Render(w io.Writer, channels []domain.Channel, webURL string) error {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("", "CHANNEL", "TITLE", "URL").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.DimStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, ch := range channels {
		t.Row(statusMark(ch.Status), ch.Name, ch.Title, player.ChannelURL(webURL, ch.Name))
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func statusMark(s domain.Status) string {
	switch s {
	case domain.StatusOnline:
		return styles.SuccessStyle.Render(styles.OnlineChar)
	case domain.StatusOffline:
		return styles.DimStyle.Render(styles.OfflineChar)
	}
	return "?"
}

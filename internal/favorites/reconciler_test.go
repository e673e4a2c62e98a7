package favorites

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/mmcdole/favlive/internal/domain"
	"github.com/mmcdole/favlive/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageCall struct {
	criterion string
	offset    int
	limit     int
}

type fakeSource struct {
	mu          sync.Mutex
	follows     map[string][]domain.Channel
	totals      map[string]int // Overrides len(follows) when set
	live        map[string]bool
	pageErr     error
	statusErr   map[string]error
	pageCalls   []pageCall
	statusCalls []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		follows:   make(map[string][]domain.Channel),
		totals:    make(map[string]int),
		live:      make(map[string]bool),
		statusErr: make(map[string]error),
	}
}

func (f *fakeSource) addFollows(criterion string, n int) {
	for i := range n {
		f.follows[criterion] = append(f.follows[criterion], domain.Channel{
			ID:    fmt.Sprintf("%s-%02d", criterion, i),
			Name:  fmt.Sprintf("%s_ch%02d", criterion, i),
			Title: fmt.Sprintf("Channel %02d", i),
		})
	}
}

func (f *fakeSource) FetchPage(_ context.Context, criterion string, offset, limit int) (domain.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageCalls = append(f.pageCalls, pageCall{criterion, offset, limit})
	if f.pageErr != nil {
		return domain.Page{}, f.pageErr
	}

	all := f.follows[criterion]
	total, ok := f.totals[criterion]
	if !ok {
		total = len(all)
	}
	end := min(offset+limit, len(all))
	if offset > end {
		offset = end
	}
	return domain.Page{Channels: slices.Clone(all[offset:end]), Total: total}, nil
}

func (f *fakeSource) FetchStatus(_ context.Context, name string) (domain.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, name)
	if err := f.statusErr[name]; err != nil {
		return domain.StatusUnknown, err
	}
	if f.live[name] {
		return domain.StatusOnline, nil
	}
	return domain.StatusOffline, nil
}

func (f *fakeSource) pages() []pageCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.pageCalls)
}

func (f *fakeSource) statusCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.statusCalls)
}

type fakeSettings struct{ criterion string }

func (s *fakeSettings) Criterion() string { return s.criterion }

type harness struct {
	source   *fakeSource
	settings *fakeSettings
	queue    *task.Queue
	disp     *task.Dispatcher
	r        *Reconciler
	live     bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		source:   newFakeSource(),
		settings: &fakeSettings{criterion: "alice"},
		queue:    task.NewQueue(),
		live:     true,
	}
	h.disp = task.New(h.queue, task.Options{MaxWorkers: 4})
	t.Cleanup(h.disp.Close)

	r, err := New(Config{
		Source:     h.source,
		Settings:   h.settings,
		Dispatcher: h.disp,
		Owner:      task.GuardFunc(func() bool { return h.live }),
	})
	require.NoError(t, err)
	h.r = r
	return h
}

// step waits for outstanding work and delivers what arrived, in order
func (h *harness) step() int {
	h.disp.Wait()
	return h.queue.Drain()
}

// settle delivers until no more work is produced
func (h *harness) settle() {
	for h.step() > 0 {
	}
}

func (h *harness) statuses() map[string]domain.Status {
	out := make(map[string]domain.Status)
	for _, ch := range h.r.Store().Snapshot() {
		out[ch.ID] = ch.Status
	}
	return out
}

func (h *harness) pendingCount() int {
	var n int
	for _, ch := range h.r.Store().Snapshot() {
		if ch.UpdatePending {
			n++
		}
	}
	return n
}

func TestLoadPopulatesAndFansOut(t *testing.T) {
	h := newHarness(t)
	h.source.addFollows("alice", 50)
	h.source.live["alice_ch03"] = true

	require.NoError(t, h.r.Load())
	assert.Equal(t, StateLoading, h.r.State())

	h.step()
	s := h.r.Store()
	assert.Equal(t, StatePopulated, h.r.State())
	assert.Equal(t, 25, s.Count())
	assert.Equal(t, 50, s.Total())
	assert.Equal(t, 25, h.pendingCount(), "every loaded channel awaits its status")
	assert.Equal(t, 25, h.r.Pending())
	assert.False(t, h.r.Settled())

	h.settle()
	assert.Equal(t, 0, h.pendingCount())
	assert.True(t, h.r.Settled())
	assert.Equal(t, 25, h.source.statusCount())
	ch, _ := s.Get("alice-03")
	assert.Equal(t, domain.StatusOnline, ch.Status)
	ch, _ = s.Get("alice-04")
	assert.Equal(t, domain.StatusOffline, ch.Status)
	assert.False(t, h.r.RefreshedAt().IsZero())
}

func TestFanOutOrderDoesNotMatter(t *testing.T) {
	run := func(reverse bool) map[string]domain.Status {
		h := newHarness(t)
		h.source.addFollows("alice", 10)
		for i := 0; i < 10; i += 3 {
			h.source.live[fmt.Sprintf("alice_ch%02d", i)] = true
		}

		require.NoError(t, h.r.Load())
		h.step()
		h.disp.Wait()
		deliveries := h.queue.Flush()
		require.Len(t, deliveries, 10)
		if reverse {
			slices.Reverse(deliveries)
		}
		for _, deliver := range deliveries {
			deliver()
		}
		assert.Equal(t, 0, h.pendingCount())
		return h.statuses()
	}

	assert.Equal(t, run(false), run(true))
}

func TestFrontierFetchesNextPageOnce(t *testing.T) {
	h := newHarness(t)
	h.source.addFollows("alice", 50)

	require.NoError(t, h.r.Load())
	h.settle()
	assert.True(t, h.r.HasMore())

	assert.True(t, h.r.FrontierReached())
	assert.False(t, h.r.FrontierReached(), "ignored while loading more")
	assert.Equal(t, StateLoadingMore, h.r.State())

	h.settle()
	assert.Equal(t, []pageCall{{"alice", 0, 25}, {"alice", 25, 25}}, h.source.pages())
	assert.Equal(t, 50, h.r.Store().Count())
	assert.Equal(t, 50, h.source.statusCount(), "only the appended channels are checked again")
	assert.False(t, h.r.HasMore())
	assert.False(t, h.r.FrontierReached())
	assert.Len(t, h.source.pages(), 2)
}

func TestFrontierIgnoredWhileLoading(t *testing.T) {
	h := newHarness(t)
	h.source.addFollows("alice", 50)

	require.NoError(t, h.r.Load())
	assert.False(t, h.r.FrontierReached())
	h.settle()
	assert.Len(t, h.source.pages(), 1)
}

func TestFrontierStopsOnInconsistentTotal(t *testing.T) {
	tests := []struct {
		name  string
		total int
	}{
		{"zero total", 0},
		{"total below loaded", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.source.addFollows("alice", 30)
			h.source.totals["alice"] = tt.total

			require.NoError(t, h.r.Load())
			h.settle()

			assert.False(t, h.r.FrontierReached())
			assert.False(t, h.r.HasMore())
			assert.Len(t, h.source.pages(), 1)
		})
	}
}

func TestFrontierStopsWhenPageAddsNothing(t *testing.T) {
	h := newHarness(t)
	h.source.addFollows("alice", 25)
	h.source.totals["alice"] = 40 // source claims more than it serves

	require.NoError(t, h.r.Load())
	h.settle()
	require.True(t, h.r.FrontierReached())
	h.settle()

	assert.Equal(t, 25, h.r.Store().Count())
	assert.False(t, h.r.FrontierReached())
	assert.Len(t, h.source.pages(), 2)
}

func TestCriterionChangeDropsInFlightPage(t *testing.T) {
	h := newHarness(t)
	h.source.addFollows("alice", 5)
	h.source.addFollows("bob", 3)

	require.NoError(t, h.r.Load())
	h.disp.Wait() // alice's page is fetched but not delivered

	h.settings.criterion = "bob"
	require.NoError(t, h.r.Refresh())
	h.settle()

	assert.Equal(t, "bob", h.r.Criterion())
	assert.Equal(t, []string{"bob-00", "bob-01", "bob-02"}, h.r.Store().IDs())
	assert.Equal(t, 0, h.pendingCount())
}

func TestCriterionChangeClearsAndDropsStatuses(t *testing.T) {
	h := newHarness(t)
	h.source.addFollows("alice", 5)
	h.source.addFollows("bob", 2)

	require.NoError(t, h.r.Load())
	h.step()
	h.disp.Wait() // alice's statuses are fetched but not delivered

	var notified int
	h.r.Store().OnChange(func() { notified++ })
	h.settings.criterion = "bob"
	require.NoError(t, h.r.Refresh())
	assert.Equal(t, 0, h.r.Store().Count(), "store cleared before the new load")
	assert.Positive(t, notified)

	h.settle()
	assert.Equal(t, []string{"bob-00", "bob-01"}, h.r.Store().IDs())
	for id := range h.statuses() {
		assert.NotContains(t, id, "alice")
	}
}

func TestRefreshRechecksAllStatuses(t *testing.T) {
	h := newHarness(t)
	h.source.addFollows("alice", 4)

	require.NoError(t, h.r.Load())
	h.settle()
	require.Equal(t, 4, h.source.statusCount())

	h.source.mu.Lock()
	h.source.live["alice_ch01"] = true
	h.source.mu.Unlock()

	require.NoError(t, h.r.Refresh())
	assert.Equal(t, 4, h.pendingCount())
	require.NoError(t, h.r.Refresh(), "second refresh while pending issues nothing new")
	h.settle()

	assert.Equal(t, 8, h.source.statusCount())
	assert.Len(t, h.source.pages(), 1, "refresh without a criterion change does not reload")
	ch, _ := h.r.Store().Get("alice-01")
	assert.Equal(t, domain.StatusOnline, ch.Status)
}

func TestPageFailureKeepsLastGoodContent(t *testing.T) {
	h := newHarness(t)
	h.source.addFollows("alice", 30)

	require.NoError(t, h.r.Load())
	h.settle()
	before := h.r.Store().Snapshot()

	h.source.mu.Lock()
	h.source.pageErr = fmt.Errorf("%w: connection reset", domain.ErrTransport)
	h.source.mu.Unlock()

	require.True(t, h.r.FrontierReached())
	h.settle()

	assert.ErrorIs(t, h.r.Err(), domain.ErrTransport)
	assert.Equal(t, StatePopulated, h.r.State())
	assert.Equal(t, before, h.r.Store().Snapshot())

	h.source.mu.Lock()
	h.source.pageErr = nil
	h.source.mu.Unlock()

	require.True(t, h.r.FrontierReached(), "paging is retryable")
	h.settle()
	assert.NoError(t, h.r.Err())
	assert.Equal(t, 30, h.r.Store().Count())
}

func TestFirstPageFailureReturnsToIdle(t *testing.T) {
	h := newHarness(t)
	h.source.pageErr = fmt.Errorf("%w: bad json", domain.ErrDecode)

	require.NoError(t, h.r.Load())
	h.settle()

	assert.Equal(t, StateIdle, h.r.State())
	assert.ErrorIs(t, h.r.Err(), domain.ErrDecode)
	assert.Equal(t, 0, h.r.Store().Count())
}

func TestStatusFailureKeepsLastStatus(t *testing.T) {
	h := newHarness(t)
	h.source.addFollows("alice", 3)
	h.source.live["alice_ch00"] = true

	require.NoError(t, h.r.Load())
	h.settle()

	h.source.mu.Lock()
	h.source.statusErr["alice_ch00"] = domain.ErrTransport
	h.source.mu.Unlock()

	require.NoError(t, h.r.Refresh())
	h.settle()

	ch, _ := h.r.Store().Get("alice-00")
	assert.Equal(t, domain.StatusOnline, ch.Status)
	assert.False(t, ch.UpdatePending)
	assert.NoError(t, h.r.Err(), "status failures are not page failures")
}

func TestOwnerGoneDropsEverything(t *testing.T) {
	h := newHarness(t)
	h.source.addFollows("alice", 3)

	require.NoError(t, h.r.Load())
	h.live = false
	h.settle()

	assert.Equal(t, 0, h.r.Store().Count())
	assert.Equal(t, 0, h.disp.InFlight())
}

func TestOwnerGoneDropsStatusDeliveries(t *testing.T) {
	h := newHarness(t)
	h.source.addFollows("alice", 4)
	h.source.live["alice_ch02"] = true

	require.NoError(t, h.r.Load())
	h.step()
	require.Equal(t, StatePopulated, h.r.State())
	require.Equal(t, 4, h.r.Pending())
	before := h.statuses()

	var notified int
	h.r.Store().OnChange(func() { notified++ })
	h.live = false
	h.settle()

	assert.Equal(t, 0, notified, "dropped deliveries must not touch the store")
	assert.Equal(t, before, h.statuses())
	assert.Equal(t, 4, h.source.statusCount(), "checks ran, their results were dropped")
	assert.Equal(t, 0, h.disp.InFlight())
}

func TestReloadKeepsKnownStatuses(t *testing.T) {
	h := newHarness(t)
	h.source.addFollows("alice", 3)
	h.source.live["alice_ch01"] = true

	require.NoError(t, h.r.Load())
	h.settle()

	require.NoError(t, h.r.Reload())
	h.step() // new first page applied, status checks in flight

	assert.Equal(t, 3, h.pendingCount())
	assert.Equal(t, map[string]domain.Status{
		"alice-00": domain.StatusOffline,
		"alice-01": domain.StatusOnline,
		"alice-02": domain.StatusOffline,
	}, h.statuses())

	h.settle()
	assert.True(t, h.r.Settled())
}

func TestMissingCriterionClearsPreviousList(t *testing.T) {
	h := newHarness(t)
	h.source.addFollows("alice", 3)

	require.NoError(t, h.r.Load())
	h.settle()
	require.Equal(t, 3, h.r.Store().Count())

	h.settings.criterion = ""
	assert.ErrorIs(t, h.r.Reload(), domain.ErrNoCriterion)
	assert.Equal(t, 0, h.r.Store().Count())
	assert.Equal(t, StateIdle, h.r.State())
	assert.Empty(t, h.r.Criterion())
}

func TestClosedDispatcherLeavesNothingPending(t *testing.T) {
	h := newHarness(t)
	h.source.addFollows("alice", 40)

	require.NoError(t, h.r.Load())
	h.settle()
	require.Equal(t, 25, h.r.Store().Count())
	require.True(t, h.r.HasMore())

	h.disp.Close()

	require.NoError(t, h.r.Refresh())
	assert.Equal(t, 0, h.r.Pending())
	assert.Equal(t, 0, h.pendingCount())
	assert.True(t, h.r.Settled())

	assert.False(t, h.r.FrontierReached())
	assert.Equal(t, StatePopulated, h.r.State())

	assert.ErrorIs(t, h.r.Reload(), task.ErrClosed)
	assert.Equal(t, StatePopulated, h.r.State())
	assert.Equal(t, 25, h.r.Store().Count())
	assert.True(t, h.r.Settled())
}

func TestReloadKeepsContentUntilReplaced(t *testing.T) {
	h := newHarness(t)
	h.source.addFollows("alice", 3)

	require.NoError(t, h.r.Load())
	h.step()
	h.disp.Wait() // statuses fetched, not delivered

	require.NoError(t, h.r.Reload())
	assert.Equal(t, 3, h.r.Store().Count())
	assert.Equal(t, 0, h.pendingCount(), "abandoned status checks release their pending flag")

	h.settle()
	assert.Equal(t, 3, h.r.Store().Count())
	assert.Len(t, h.source.pages(), 2)
	assert.True(t, h.r.Settled())
}

func TestLoadWithoutCriterion(t *testing.T) {
	h := newHarness(t)
	h.settings.criterion = ""

	err := h.r.Load()
	assert.ErrorIs(t, err, domain.ErrNoCriterion)
	assert.Equal(t, StateIdle, h.r.State())
	assert.Empty(t, h.source.pages())
	assert.True(t, errors.Is(h.r.Err(), domain.ErrNoCriterion))
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

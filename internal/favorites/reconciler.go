// Package favorites keeps a paginated list of followed channels and their
// live status in step with the channel source.
//
// A Reconciler owns one ChannelStore. It loads the first page, fans out one
// status check per channel, pages further on demand, and refreshes either
// by fanning out again or, when the criterion changed, by starting over.
// All methods must be called on the interaction context the Dispatcher
// delivers to.
package favorites

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/favlive/internal/domain"
	"github.com/mmcdole/favlive/internal/store"
	"github.com/mmcdole/favlive/internal/task"
)

// DefaultPageSize is the number of follows requested per page
const DefaultPageSize = 25

// Config wires a Reconciler to its collaborators
type Config struct {
	Source     domain.ChannelSource
	Settings   domain.Settings
	Dispatcher *task.Dispatcher
	Store      *store.ChannelStore // Optional; a new store is created when nil
	Owner      task.Guard          // Optional; results are dropped once it reports false
	Logger     *slog.Logger
	PageSize   int
}

type Reconciler struct {
	source   domain.ChannelSource
	settings domain.Settings
	dispatch *task.Dispatcher
	store    *store.ChannelStore
	owner    task.Guard
	logger   *slog.Logger
	pageSize int

	state     State
	criterion string
	exhausted bool
	err       error
	stale     bool
	refreshed time.Time

	// gen identifies the current page sequence; units from older
	// generations are no longer live.
	gen      uint64
	page     task.Handle
	statuses map[string]task.Handle
}

func New(cfg Config) (*Reconciler, error) {
	if cfg.Source == nil || cfg.Settings == nil || cfg.Dispatcher == nil {
		return nil, errors.New("favorites: source, settings and dispatcher are required")
	}
	if cfg.Store == nil {
		cfg.Store = store.NewChannelStore()
	}
	if cfg.Owner == nil {
		cfg.Owner = task.Always
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	return &Reconciler{
		source:   cfg.Source,
		settings: cfg.Settings,
		dispatch: cfg.Dispatcher,
		store:    cfg.Store,
		owner:    cfg.Owner,
		logger:   cfg.Logger,
		pageSize: cfg.PageSize,
		statuses: make(map[string]task.Handle),
	}, nil
}

func (r *Reconciler) Store() *store.ChannelStore { return r.store }
func (r *Reconciler) State() State               { return r.state }

// Criterion is the username the current content was loaded for
func (r *Reconciler) Criterion() string { return r.criterion }

// Err is the last page-fetch failure, cleared by the next successful page.
// The store keeps its last good content while it is set.
func (r *Reconciler) Err() error { return r.err }

// Stale reports whether the last page came from the offline cache
func (r *Reconciler) Stale() bool { return r.stale }

// RefreshedAt is when the last status result was applied
func (r *Reconciler) RefreshedAt() time.Time { return r.refreshed }

// HasMore reports whether FrontierReached would fetch another page
func (r *Reconciler) HasMore() bool {
	loaded, total := r.store.Count(), r.store.Total()
	return !r.exhausted && total > 0 && loaded < total
}

// Settled reports whether no page or status check is in flight
func (r *Reconciler) Settled() bool {
	return (r.state == StateIdle || r.state == StatePopulated) && len(r.statuses) == 0
}

// Pending is the number of status checks in flight
func (r *Reconciler) Pending() int { return len(r.statuses) }

// guard ties a unit to the current generation and the owner's liveness
func (r *Reconciler) guard() task.Guard {
	gen := r.gen
	return task.GuardFunc(func() bool {
		return r.gen == gen && r.owner.IsLive()
	})
}

// newGeneration invalidates every unit issued so far
func (r *Reconciler) newGeneration() {
	r.gen++
	r.page.Cancel()
	r.page = task.Handle{}
	for id, h := range r.statuses {
		h.Cancel()
		if ch, ok := r.store.Get(id); ok && ch.UpdatePending {
			ch.UpdatePending = false
			r.store.Merge(ch)
		}
	}
	clear(r.statuses)
}

// Load reads the criterion and fetches the first page. It returns
// domain.ErrNoCriterion when no username is configured and does nothing
// while a first page is already in flight.
func (r *Reconciler) Load() error {
	if r.state == StateLoading {
		return nil
	}

	criterion := r.settings.Criterion()
	if criterion == "" {
		if r.store.Count() > 0 {
			r.Reset()
		}
		r.criterion = ""
		r.err = domain.ErrNoCriterion
		return domain.ErrNoCriterion
	}
	if criterion != r.criterion && r.store.Count() > 0 {
		r.Reset()
	}

	r.newGeneration()
	r.criterion = criterion
	r.exhausted = false
	r.logger.Debug("loading follows", "criterion", criterion, "limit", r.pageSize)
	h := task.Submit[domain.Page](r.dispatch, &pageUnit{
		Guard:     r.guard(),
		r:         r,
		criterion: criterion,
		offset:    0,
		limit:     r.pageSize,
	})
	if h.Rejected() {
		if r.store.Count() > 0 {
			r.state = StatePopulated
		} else {
			r.state = StateIdle
		}
		return task.ErrClosed
	}
	r.page = h
	r.state = StateLoading
	return nil
}

// Reload fetches the first page again for the same criterion. The store
// keeps its content until the new page replaces it.
func (r *Reconciler) Reload() error {
	r.state = StateIdle
	return r.Load()
}

// Reset drops all content and invalidates every in-flight unit
func (r *Reconciler) Reset() {
	r.newGeneration()
	r.store.Clear()
	r.state = StateIdle
	r.exhausted = false
	r.err = nil
	r.stale = false
}

// Refresh brings the list up to date. If the criterion changed the list
// is cleared and reloaded; otherwise every channel's status is rechecked.
func (r *Reconciler) Refresh() error {
	if r.settings.Criterion() != r.criterion {
		r.Reset()
		return r.Load()
	}

	switch r.state {
	case StateIdle:
		return r.Load()
	case StatePopulated:
		r.fanOut(r.store.IDs())
	default:
		r.logger.Debug("refresh ignored while loading", "state", r.state)
	}
	return nil
}

// FrontierReached requests the next page when the end of the loaded list
// becomes visible. It reports whether a fetch was issued.
func (r *Reconciler) FrontierReached() bool {
	if r.state != StatePopulated || r.exhausted {
		return false
	}

	loaded, total := r.store.Count(), r.store.Total()
	if total <= 0 || total < loaded {
		r.logger.Warn("inconsistent follows total, paging stopped", "loaded", loaded, "total", total)
		r.exhausted = true
		return false
	}
	if loaded >= total {
		return false
	}

	r.logger.Debug("loading more follows", "criterion", r.criterion, "offset", loaded)
	h := task.Submit[domain.Page](r.dispatch, &pageUnit{
		Guard:     r.guard(),
		r:         r,
		criterion: r.criterion,
		offset:    loaded,
		limit:     r.pageSize,
	})
	if h.Rejected() {
		return false
	}
	r.page = h
	r.state = StateLoadingMore
	return true
}

// fanOut issues one status check per channel that has none in flight
func (r *Reconciler) fanOut(ids []string) {
	for _, id := range ids {
		ch, ok := r.store.Get(id)
		if !ok || ch.UpdatePending {
			continue
		}
		h := task.Submit[domain.Status](r.dispatch, &statusUnit{
			Guard: r.guard(),
			r:     r,
			id:    id,
			name:  ch.Name,
		})
		if h.Rejected() {
			continue
		}
		r.statuses[id] = h
		r.store.MarkPending(id)
	}
}

func (r *Reconciler) pageLoaded(u *pageUnit, page domain.Page) {
	r.page = task.Handle{}
	r.err = nil
	r.stale = page.FromCache

	var fresh []string
	if r.state == StateLoading {
		r.store.ReplaceAll(r.carryStatus(page.Channels), page.Total)
		fresh = r.store.IDs()
	} else {
		fresh = r.store.Append(page.Channels, page.Total)
		if len(fresh) == 0 {
			r.logger.Warn("page added no new channels, paging stopped", "offset", u.offset, "total", page.Total)
			r.exhausted = true
		}
	}
	r.state = StatePopulated

	if page.Total <= 0 || page.Total < r.store.Count() {
		r.exhausted = true
	}

	r.logger.Debug("follows page applied",
		"offset", u.offset, "received", len(page.Channels), "new", len(fresh),
		"loaded", r.store.Count(), "total", page.Total, "cached", page.FromCache)
	r.fanOut(fresh)
}

// carryStatus keeps the last known status of channels that are already
// listed, so a reloaded first page does not blank them while the new
// checks run
func (r *Reconciler) carryStatus(channels []domain.Channel) []domain.Channel {
	out := make([]domain.Channel, len(channels))
	for i, ch := range channels {
		if prev, ok := r.store.Get(ch.ID); ok && ch.Status == domain.StatusUnknown {
			ch.Status = prev.Status
		}
		out[i] = ch
	}
	return out
}

func (r *Reconciler) pageFailed(u *pageUnit, err error) {
	r.page = task.Handle{}
	r.err = fmt.Errorf("loading follows of %s: %w", u.criterion, err)
	if r.store.Count() > 0 {
		r.state = StatePopulated
	} else {
		r.state = StateIdle
	}
	r.logger.Warn("follows page failed", "criterion", u.criterion, "offset", u.offset, "error", err)
}

func (r *Reconciler) statusLoaded(id string, status domain.Status) {
	delete(r.statuses, id)
	r.refreshed = time.Now()
	r.store.Merge(domain.Channel{ID: id, Status: status})
}

// statusFailed clears the pending flag and keeps the last known status
func (r *Reconciler) statusFailed(id, name string, err error) {
	delete(r.statuses, id)
	r.logger.Warn("status check failed", "channel", name, "error", err)
	if ch, ok := r.store.Get(id); ok {
		ch.UpdatePending = false
		r.store.Merge(ch)
	}
}

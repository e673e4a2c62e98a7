package favorites

import (
	"context"
	"fmt"

	"github.com/mmcdole/favlive/internal/domain"
	"github.com/mmcdole/favlive/internal/task"
)

// pageUnit fetches one page of follows for the generation that issued it
type pageUnit struct {
	task.Guard
	r         *Reconciler
	criterion string
	offset    int
	limit     int
}

func (u *pageUnit) UnitName() string {
	return fmt.Sprintf("page(%s@%d)", u.criterion, u.offset)
}

func (u *pageUnit) Start(ctx context.Context) (domain.Page, error) {
	return u.r.source.FetchPage(ctx, u.criterion, u.offset, u.limit)
}

func (u *pageUnit) OnResponse(page domain.Page) { u.r.pageLoaded(u, page) }
func (u *pageUnit) OnFailure(err error)         { u.r.pageFailed(u, err) }

// statusUnit refreshes the live status of a single channel
type statusUnit struct {
	task.Guard
	r    *Reconciler
	id   string
	name string
}

func (u *statusUnit) UnitName() string { return "status(" + u.name + ")" }

func (u *statusUnit) Start(ctx context.Context) (domain.Status, error) {
	return u.r.source.FetchStatus(ctx, u.name)
}

func (u *statusUnit) OnResponse(status domain.Status) { u.r.statusLoaded(u.id, status) }
func (u *statusUnit) OnFailure(err error)             { u.r.statusFailed(u.id, u.name, err) }

package domain

// ChannelCache persists follows listings and statuses between runs so the
// list can be shown while the source is unreachable.
type ChannelCache interface {
	// Page returns the cached slice [offset, offset+limit) of criterion's
	// follows, with last known statuses applied.
	Page(criterion string, offset, limit int) (Page, bool)
	SavePage(criterion string, offset int, page Page) error

	Status(name string) (Status, bool)
	SaveStatus(name string, status Status) error

	// Invalidate drops everything cached for criterion
	Invalidate(criterion string) error

	Close() error
}

package domain

import (
	"context"
)

// ChannelSource provides the followed channels of a user and their live status
type ChannelSource interface {
	// FetchPage returns one page of the channels followed by criterion.
	// Page.Total carries the size of the whole listing.
	FetchPage(ctx context.Context, criterion string, offset, limit int) (Page, error)

	// FetchStatus returns whether the named channel is currently live
	FetchStatus(ctx context.Context, name string) (Status, error)
}

// Settings exposes the user-controlled selection criterion.
// Reads are synchronous and cheap; callers read it each time they need it.
type Settings interface {
	Criterion() string
}

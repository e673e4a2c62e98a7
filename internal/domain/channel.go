package domain

import "maps"

// Status is the live state of a channel
type Status int

const (
	StatusUnknown Status = iota
	StatusOnline
	StatusOffline
)

// String returns the display form of the status
func (s Status) String() string {
	switch s {
	case StatusOnline:
		return "online"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// LogoSize selects one of the logo renditions a channel carries
type LogoSize int

const (
	LogoSmall LogoSize = iota
	LogoMedium
	LogoLarge
)

// Channel is a followed channel as shown in the favorites list
type Channel struct {
	ID    string // Stable identifier assigned by the source
	Name  string // Login name, used for status lookups and the channel URL
	Title string // Display name

	Logos map[LogoSize]string

	Status Status

	// UpdatePending is set while a status check for this channel is in flight
	UpdatePending bool
}

// Logo returns the logo URL for the given size, falling back to any
// available rendition.
func (c Channel) Logo(size LogoSize) string {
	if url, ok := c.Logos[size]; ok {
		return url
	}
	for _, s := range []LogoSize{LogoMedium, LogoLarge, LogoSmall} {
		if url, ok := c.Logos[s]; ok {
			return url
		}
	}
	return ""
}

// DisplayName returns the title, or the login name when the title is empty
func (c Channel) DisplayName() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Name
}

// Clone returns a copy that shares no maps with c
func (c Channel) Clone() Channel {
	c.Logos = maps.Clone(c.Logos)
	return c
}

// Page is one slice of a paginated follows listing
type Page struct {
	Channels []Channel
	Total    int // Total number of follows reported by the source

	// FromCache is set when the page was served from the offline cache
	FromCache bool
}

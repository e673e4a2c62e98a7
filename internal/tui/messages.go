package tui

import "github.com/mmcdole/favlive/internal/domain"

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// LoadRequestedMsg asks Update to load the first page
type LoadRequestedMsg struct{}

// RefreshTickMsg fires the periodic status refresh
type RefreshTickMsg struct{}

// LaunchedMsg signals that a player was started for a channel
type LaunchedMsg struct {
	Channel domain.Channel
}

// StatusMsg displays a transient message in the footer
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the footer message
type ClearStatusMsg struct{}

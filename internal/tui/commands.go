package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/favlive/internal/domain"
	"github.com/mmcdole/favlive/internal/player"
)

// Launcher opens a channel URL in a player
type Launcher interface {
	Launch(url string) error
}

// LoadCmd asks Update to start loading
func LoadCmd() tea.Cmd {
	return func() tea.Msg {
		return LoadRequestedMsg{}
	}
}

// RefreshTickCmd schedules the next periodic refresh
func RefreshTickCmd(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return RefreshTickMsg{}
	})
}

// ClearStatusCmd clears the footer message after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

// LaunchCmd opens ch in the player off the Update loop
func LaunchCmd(l Launcher, webURL string, ch domain.Channel) tea.Cmd {
	return func() tea.Msg {
		if err := l.Launch(player.ChannelURL(webURL, ch.Name)); err != nil {
			return ErrMsg{Err: err, Context: "opening " + ch.DisplayName()}
		}
		return LaunchedMsg{Channel: ch}
	}
}

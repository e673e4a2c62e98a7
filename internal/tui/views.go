package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mmcdole/favlive/internal/domain"
	"github.com/mmcdole/favlive/internal/favorites"
	"github.com/mmcdole/favlive/internal/tui/styles"
)

func (m Model) View() string {
	if m.Width == 0 {
		return "Loading..."
	}

	bodyHeight := max(m.Height-ChromeHeight, 0)
	var body string
	if m.InputModal.IsVisible() {
		body = lipgloss.Place(m.Width, bodyHeight,
			lipgloss.Center, lipgloss.Center,
			m.InputModal.View())
	} else {
		body = m.List.View(m.Spinner.View(), m.emptyMessage())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	r := m.Reconciler
	left := styles.TitleStyle.Render("favlive")
	if c := r.Criterion(); c != "" {
		left += styles.DimStyle.Render(" · ") + styles.AccentStyle.Render(c)
	}

	var right string
	if total := r.Store().Total(); total > 0 {
		right = styles.DimStyle.Render(fmt.Sprintf("%s live · %s/%s",
			humanize.Comma(int64(countLive(r.Store().Snapshot()))),
			humanize.Comma(int64(r.Store().Count())),
			humanize.Comma(int64(total))))
	}
	switch r.State() {
	case favorites.StateLoading, favorites.StateLoadingMore:
		right = m.Spinner.View() + " " + right
	}

	return spread(left, right, m.Width)
}

func (m Model) renderFooter() string {
	r := m.Reconciler

	var left string
	switch {
	case m.StatusMsg != "" && m.StatusIsErr:
		left = styles.ErrorStyle.Render(m.StatusMsg)
	case m.StatusMsg != "":
		left = styles.DimStyle.Render(m.StatusMsg)
	case r.Err() != nil && !errors.Is(r.Err(), domain.ErrNoCriterion):
		left = styles.ErrorStyle.Render("! "+describeErr(r.Err())) +
			styles.DimStyle.Render(" (r to retry)")
	case !r.RefreshedAt().IsZero():
		left = styles.DimStyle.Render("refreshed " + humanize.Time(r.RefreshedAt()))
	}
	if r.Stale() {
		left = styles.DimBadgeStyle.Render("cached") + " " + left
	}

	help := make([]string, 0, len(helpBindings()))
	for _, b := range helpBindings() {
		h := b.Help()
		help = append(help, styles.HelpKeyStyle.Render(h.Key)+" "+styles.HelpDescStyle.Render(h.Desc))
	}

	return spread(left, strings.Join(help, "  "), m.Width)
}

func (m Model) emptyMessage() string {
	r := m.Reconciler
	switch {
	case r.State() == favorites.StateLoading:
		return "Loading follows..."
	case r.Criterion() == "":
		return "No username set, press u"
	case r.Err() != nil:
		return "Could not load follows"
	default:
		return "No followed channels"
	}
}

// describeErr shortens known failures for the footer
func describeErr(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return "user not found"
	case errors.Is(err, domain.ErrAuthFailed):
		return "authentication failed"
	case errors.Is(err, domain.ErrTransport):
		return "network error"
	case errors.Is(err, domain.ErrDecode):
		return "unexpected response"
	}
	return err.Error()
}

func countLive(channels []domain.Channel) int {
	var n int
	for _, ch := range channels {
		if ch.Status == domain.StatusOnline {
			n++
		}
	}
	return n
}

// spread places left and right at opposite ends of a line of width
func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return styles.Truncate(left, width)
	}
	return left + strings.Repeat(" ", gap) + right
}

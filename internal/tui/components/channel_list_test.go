package components

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/favlive/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceRows []domain.Channel

func (r sliceRows) Count() int { return len(r) }

func (r sliceRows) At(pos int) (domain.Channel, bool) {
	if pos < 0 || pos >= len(r) {
		return domain.Channel{}, false
	}
	return r[pos], true
}

func makeRows(titles ...string) *sliceRows {
	rows := make(sliceRows, len(titles))
	for i, title := range titles {
		rows[i] = domain.Channel{ID: fmt.Sprint(i), Name: title, Title: title}
	}
	return &rows
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNavigationClampsToRows(t *testing.T) {
	rows := makeRows("a", "b", "c")
	l := NewChannelList(rows)
	l.SetSize(40, 20)

	moved, _ := l.Update(keyMsg("k"))
	assert.False(t, moved)

	l.Update(keyMsg("G"))
	assert.Equal(t, 2, l.Cursor())
	moved, _ = l.Update(keyMsg("j"))
	assert.False(t, moved)

	ch, ok := l.Selected()
	require.True(t, ok)
	assert.Equal(t, "c", ch.Title)
}

func TestLastVisibleTracksViewport(t *testing.T) {
	titles := make([]string, 30)
	for i := range titles {
		titles[i] = fmt.Sprintf("channel %02d", i)
	}
	l := NewChannelList(makeRows(titles...))
	l.SetSize(40, 15) // 10 visible rows

	assert.False(t, l.LastVisible())
	l.Update(keyMsg("G"))
	assert.True(t, l.LastVisible())

	small := NewChannelList(makeRows("a", "b"))
	small.SetSize(40, 15)
	assert.True(t, small.LastVisible(), "a list shorter than the viewport shows its end")
}

func TestFilterNarrowsAndInvalidateReapplies(t *testing.T) {
	rows := makeRows("LIRIK", "Dallas", "summit1g")
	l := NewChannelList(rows)
	l.SetSize(40, 20)

	l.ToggleFilter()
	for _, r := range "li" {
		l.Update(keyMsg(string(r)))
	}
	assert.Equal(t, 1, l.ItemCount())
	assert.False(t, l.LastVisible(), "paging is suspended while filtering")
	ch, _ := l.Selected()
	assert.Equal(t, "LIRIK", ch.Title)

	*rows = append(*rows, domain.Channel{ID: "9", Name: "lilypichu", Title: "LilyPichu"})
	l.Invalidate()
	assert.Equal(t, 2, l.ItemCount())

	l.Update(keyMsg("esc"))
	assert.False(t, l.IsFiltering())
	assert.Equal(t, 4, l.ItemCount())
}

func TestInvalidateClampsAfterClear(t *testing.T) {
	rows := makeRows("a", "b", "c")
	l := NewChannelList(rows)
	l.SetSize(40, 20)
	l.Update(keyMsg("G"))

	*rows = (*rows)[:0]
	l.Invalidate()

	assert.Equal(t, 0, l.Cursor())
	_, ok := l.Selected()
	assert.False(t, ok)
}

func TestStatusIndicator(t *testing.T) {
	_, _, label := statusIndicator(domain.Channel{Status: domain.StatusOnline}, "*")
	assert.Equal(t, "live", label)

	ind, _, label := statusIndicator(domain.Channel{Status: domain.StatusOnline, UpdatePending: true}, "*")
	assert.Equal(t, "*", ind)
	assert.Empty(t, label)

	ind, _, _ = statusIndicator(domain.Channel{}, "*")
	assert.Equal(t, "*", ind)
}

func TestHighlightSplitsRuns(t *testing.T) {
	parts := highlight("lirik", []int{0, 1})
	require.Len(t, parts, 2)
	assert.Equal(t, "li", parts[0].Text)
	assert.NotNil(t, parts[0].Foreground)
	assert.Equal(t, "rik", parts[1].Text)
	assert.Nil(t, parts[1].Foreground)
}

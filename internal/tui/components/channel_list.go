package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/favlive/internal/domain"
	"github.com/mmcdole/favlive/internal/tui/styles"
	"github.com/sahilm/fuzzy"
)

// Layout constants for the list
const (
	// Border adds 1 char on each side
	BorderWidth  = 2
	BorderHeight = 2

	// Scroll indicators ("↑ more" and "↓ more") each take 1 line
	ScrollIndicatorLines = 2
)

// Rows is the read side of the channel store
type Rows interface {
	Count() int
	At(pos int) (domain.Channel, bool)
}

// ChannelList is a scrollable, filterable view over Rows
type ChannelList struct {
	rows Rows

	cursor     int
	offset     int
	maxVisible int

	width  int
	height int
	title  string

	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
	filteredIdx  []int         // positions into rows
	matched      map[int][]int // position -> matched byte offsets
}

func NewChannelList(rows Rows) *ChannelList {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return &ChannelList{
		rows:        rows,
		title:       "Favorites",
		filterInput: ti,
	}
}

// Invalidate re-reads the rows after the underlying data changed
func (c *ChannelList) Invalidate() {
	if c.filterActive && c.filterQuery != "" {
		c.refilter()
	}
	c.clampCursor()
}

// Update handles key input. It reports whether the cursor moved.
func (c *ChannelList) Update(msg tea.KeyMsg) (bool, tea.Cmd) {
	if c.filterActive && c.filterInput.Focused() {
		switch msg.String() {
		case "esc":
			c.clearFilter()
			return true, nil
		case "enter":
			// Accept filter, blur input to allow navigation
			c.filterInput.Blur()
			return false, nil
		case "backspace":
			if c.filterInput.Value() == "" {
				c.clearFilter()
				return true, nil
			}
		}

		var cmd tea.Cmd
		c.filterInput, cmd = c.filterInput.Update(msg)
		c.applyFilter()
		return true, cmd
	}

	if c.filterActive {
		switch msg.String() {
		case "esc":
			c.clearFilter()
			return true, nil
		case "/":
			c.filterInput.Focus()
			return false, nil
		}
	}

	count := c.ItemCount()
	if count == 0 {
		return false, nil
	}

	before := c.cursor
	switch msg.String() {
	case "j", "down":
		c.cursor++
	case "k", "up":
		c.cursor--
	case "g", "home":
		c.cursor = 0
	case "G", "end":
		c.cursor = count - 1
	case "ctrl+d":
		c.cursor += max(c.maxVisible/2, 1)
	case "ctrl+u":
		c.cursor -= max(c.maxVisible/2, 1)
	case "pgdown":
		c.cursor += c.maxVisible
	case "pgup":
		c.cursor -= c.maxVisible
	}
	c.clampCursor()
	return c.cursor != before, nil
}

func (c *ChannelList) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.recalcMaxVisible()
	c.ensureVisible()
}

// SetTitle sets the heading shown above the rows
func (c *ChannelList) SetTitle(title string) {
	c.title = title
}

// ItemCount is the number of rows currently shown, after filtering
func (c *ChannelList) ItemCount() int {
	if c.filteredIdx != nil {
		return len(c.filteredIdx)
	}
	return c.rows.Count()
}

// Selected returns the channel under the cursor
func (c *ChannelList) Selected() (domain.Channel, bool) {
	if c.ItemCount() == 0 {
		return domain.Channel{}, false
	}
	return c.rows.At(c.mapIndex(c.cursor))
}

func (c *ChannelList) Cursor() int { return c.cursor }

// LastVisible reports whether the last loaded row is on screen. It is
// false while a filter narrows the list.
func (c *ChannelList) LastVisible() bool {
	if c.filterActive && c.filterQuery != "" {
		return false
	}
	count := c.rows.Count()
	if count == 0 {
		return false
	}
	return c.offset+c.maxVisible >= count
}

// ToggleFilter activates the filter input
func (c *ChannelList) ToggleFilter() {
	c.filterActive = true
	c.filterInput.Focus()
	c.recalcMaxVisible()
}

func (c *ChannelList) IsFiltering() bool {
	return c.filterActive
}

// IsFilterTyping returns true if the filter is active and its input focused
func (c *ChannelList) IsFilterTyping() bool {
	return c.filterActive && c.filterInput.Focused()
}

func (c *ChannelList) recalcMaxVisible() {
	// Interior height less the title line and scroll indicators
	c.maxVisible = c.height - BorderHeight - ScrollIndicatorLines - 1
	if c.filterActive {
		c.maxVisible--
	}
	if c.maxVisible < 1 {
		c.maxVisible = 1
	}
}

func (c *ChannelList) clampCursor() {
	count := c.ItemCount()
	if c.cursor >= count {
		c.cursor = count - 1
	}
	if c.cursor < 0 {
		c.cursor = 0
	}
	c.ensureVisible()
}

func (c *ChannelList) ensureVisible() {
	if c.maxVisible <= 0 {
		return
	}
	if c.cursor < c.offset {
		c.offset = c.cursor
	}
	if c.cursor >= c.offset+c.maxVisible {
		c.offset = c.cursor - c.maxVisible + 1
	}
	if c.offset < 0 {
		c.offset = 0
	}
}

func (c *ChannelList) clearFilter() {
	c.filterActive = false
	c.filterQuery = ""
	c.filteredIdx = nil
	c.matched = nil
	c.filterInput.SetValue("")
	c.filterInput.Blur()
	c.recalcMaxVisible()
	c.clampCursor()
}

func (c *ChannelList) applyFilter() {
	c.refilter()
	c.cursor = 0
	c.offset = 0
}

// titleSource adapts Rows to fuzzy.Source, matching on display names
type titleSource struct{ rows Rows }

func (s titleSource) String(i int) string {
	ch, _ := s.rows.At(i)
	return strings.ToLower(ch.DisplayName())
}

func (s titleSource) Len() int { return s.rows.Count() }

func (c *ChannelList) refilter() {
	c.filterQuery = c.filterInput.Value()
	if c.filterQuery == "" {
		c.filteredIdx = nil
		c.matched = nil
		return
	}

	matches := fuzzy.FindFrom(strings.ToLower(c.filterQuery), titleSource{c.rows})
	c.filteredIdx = make([]int, len(matches))
	c.matched = make(map[int][]int, len(matches))
	for i, match := range matches {
		c.filteredIdx[i] = match.Index
		c.matched[match.Index] = match.MatchedIndexes
	}
}

func (c *ChannelList) mapIndex(i int) int {
	if c.filteredIdx != nil && i < len(c.filteredIdx) {
		return c.filteredIdx[i]
	}
	return i
}

// View renders the list; spinner is the current frame for pending rows
func (c *ChannelList) View(spinner string, empty string) string {
	// The rows lose focus to the filter input while it is being typed in
	style := styles.ActiveBorder
	if c.IsFilterTyping() {
		style = styles.InactiveBorder
	}
	frameW, frameH := style.GetFrameSize()

	return style.
		Width(c.width - frameW).
		Height(c.height - frameH).
		Render(c.renderContent(spinner, empty))
}

func (c *ChannelList) renderContent(spinner, empty string) string {
	itemWidth := max(c.width-BorderWidth, 10)
	titleLine := styles.AccentStyle.Render(styles.Truncate(c.title, itemWidth))

	count := c.ItemCount()
	if count == 0 {
		msg := empty
		if c.filterActive && c.filterQuery != "" {
			msg = "No matches"
		}
		content := titleLine + "\n \n" + styles.DimStyle.Render(msg) + "\n "
		if c.filterActive {
			content += "\n" + c.renderFilterBar()
		}
		return content
	}

	end := min(c.offset+c.maxVisible, count)
	lines := make([]string, 0, end-c.offset)
	for i := c.offset; i < end; i++ {
		pos := c.mapIndex(i)
		ch, ok := c.rows.At(pos)
		if !ok {
			continue
		}
		lines = append(lines, c.renderChannel(ch, c.matched[pos], i == c.cursor, spinner, itemWidth))
	}

	// Header and footer lines are always reserved to prevent layout shifts
	header := " "
	if c.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	footer := " "
	if end < count {
		footer = styles.DimStyle.Render("↓ more")
	}

	content := titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer
	if c.filterActive {
		content += "\n" + c.renderFilterBar()
	}
	return content
}

func statusIndicator(ch domain.Channel, spinner string) (string, *lipgloss.Color, string) {
	if ch.UpdatePending || ch.Status == domain.StatusUnknown {
		return spinner, &styles.TwitchPurple, ""
	}
	if ch.Status == domain.StatusOnline {
		return styles.OnlineChar, &styles.Green, "live"
	}
	return styles.OfflineChar, &styles.DimGray, "offline"
}

func (c *ChannelList) renderChannel(ch domain.Channel, matched []int, selected bool, spinner string, width int) string {
	indicator, color, label := statusIndicator(ch, spinner)

	// indicator + space + title + gap + label, inside the row margins
	titleWidth := max(width-2-lipgloss.Width(indicator)-1-len(label)-1, 1)
	title := styles.Truncate(ch.DisplayName(), titleWidth)

	parts := []styles.RowPart{{Text: indicator, Foreground: color}, {Text: " "}}
	parts = append(parts, highlight(title, matched)...)

	gap := titleWidth - lipgloss.Width(title) + 1
	parts = append(parts, styles.RowPart{Text: strings.Repeat(" ", max(gap, 1))})
	if label != "" {
		parts = append(parts, styles.RowPart{Text: label, Foreground: color})
	}

	return styles.RenderListRow(parts, selected, width)
}

// highlight splits title into parts, coloring the fuzzy-matched runes
func highlight(title string, matched []int) []styles.RowPart {
	if len(matched) == 0 {
		return []styles.RowPart{{Text: title}}
	}

	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}

	var parts []styles.RowPart
	var run strings.Builder
	runHit := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		part := styles.RowPart{Text: run.String()}
		if runHit {
			part.Foreground = &styles.TwitchPurple
		}
		parts = append(parts, part)
		run.Reset()
	}

	// MatchedIndexes are byte offsets into the lowercased title
	for i, r := range title {
		if hit[i] != runHit {
			flush()
			runHit = hit[i]
		}
		run.WriteRune(r)
	}
	flush()
	return parts
}

func (c *ChannelList) renderFilterBar() string {
	input := c.filterInput.View()
	if c.filterQuery == "" {
		return input
	}
	return input + styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", c.ItemCount(), c.rows.Count()))
}

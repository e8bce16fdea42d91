package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/tabrail/tabrail/internal/panel"
	"github.com/tabrail/tabrail/internal/tabs"
)

// maxSwitcherRows caps how many matches the overlay lists at once.
const maxSwitcherRows = 8

// SwitcherItem is one pickable tab in the switcher.
type SwitcherItem struct {
	Handle tabs.Handle
	Label  string
}

type switcherSource []SwitcherItem

func (s switcherSource) String(i int) string { return s[i].Label }
func (s switcherSource) Len() int            { return len(s) }

// Switcher is the fuzzy tab picker overlay: a query input over the ordered
// tab list, filtered as the query changes.
type Switcher struct {
	input   textinput.Model
	items   []SwitcherItem
	matches []fuzzy.Match
	cursor  int
	open    bool
}

func NewSwitcher() *Switcher {
	ti := textinput.New()
	ti.Placeholder = "jump to tab"
	ti.Prompt = "> "
	ti.CharLimit = 64
	return &Switcher{input: ti}
}

// Show opens the overlay over items, with an empty query and the cursor on
// the first entry.
func (s *Switcher) Show(items []SwitcherItem) tea.Cmd {
	s.items = items
	s.input.SetValue("")
	s.cursor = 0
	s.open = true
	s.filter()
	return s.input.Focus()
}

func (s *Switcher) Hide() {
	s.open = false
	s.input.Blur()
}

func (s *Switcher) IsOpen() bool {
	return s.open
}

// Selected returns the item under the cursor.
func (s *Switcher) Selected() (SwitcherItem, bool) {
	if s.cursor < 0 || s.cursor >= len(s.matches) {
		return SwitcherItem{}, false
	}
	return s.items[s.matches[s.cursor].Index], true
}

// HandleKey routes one key into the overlay. The returned handle is valid
// only when picked is true; any key that closes the overlay also blurs the
// input.
func (s *Switcher) HandleKey(msg tea.KeyMsg) (picked tabs.Handle, ok bool, cmd tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+p":
		s.Hide()
		return tabs.Handle{}, false, nil
	case "enter":
		item, found := s.Selected()
		s.Hide()
		if !found {
			return tabs.Handle{}, false, nil
		}
		return item.Handle, true, nil
	case "up", "ctrl+k":
		s.moveCursor(-1)
		return tabs.Handle{}, false, nil
	case "down", "ctrl+j", "tab":
		s.moveCursor(1)
		return tabs.Handle{}, false, nil
	}

	s.input, cmd = s.input.Update(msg)
	s.filter()
	return tabs.Handle{}, false, cmd
}

func (s *Switcher) moveCursor(delta int) {
	if len(s.matches) == 0 {
		s.cursor = 0
		return
	}
	s.cursor += delta
	if s.cursor < 0 {
		s.cursor = len(s.matches) - 1
	}
	if s.cursor >= len(s.matches) {
		s.cursor = 0
	}
}

// filter recomputes the match list. An empty query lists every tab in
// order, so the overlay doubles as a plain tab list.
func (s *Switcher) filter() {
	query := s.input.Value()
	if query == "" {
		s.matches = make([]fuzzy.Match, len(s.items))
		for i, item := range s.items {
			s.matches[i] = fuzzy.Match{Str: item.Label, Index: i}
		}
	} else {
		s.matches = fuzzy.FindFrom(query, switcherSource(s.items))
	}
	if s.cursor >= len(s.matches) {
		s.cursor = 0
	}
}

// View renders the overlay as lines no wider than width: the query line, a
// rule, then the visible window of matches with matched runes highlighted.
func (s *Switcher) View(styles styleSet, width int) []string {
	if !s.open || width <= 0 {
		return nil
	}

	lines := []string{
		styles.switcherBox.Render(panel.TruncateToColumns(s.input.View(), width)),
		styles.border.Render(strings.Repeat("─", width)),
	}

	start := 0
	if s.cursor >= maxSwitcherRows {
		start = s.cursor - maxSwitcherRows + 1
	}
	end := start + maxSwitcherRows
	if end > len(s.matches) {
		end = len(s.matches)
	}

	for i := start; i < end; i++ {
		lines = append(lines, s.renderMatch(styles, s.matches[i], i == s.cursor, width))
	}
	if len(s.matches) == 0 {
		lines = append(lines, styles.contentDim.Render("no matching tabs"))
	}
	return lines
}

func (s *Switcher) renderMatch(styles styleSet, m fuzzy.Match, selected bool, width int) string {
	marker := "  "
	if selected {
		marker = "> "
	}

	label := panel.TruncateToColumns(m.Str, width-len(marker))
	matched := make(map[int]bool, len(m.MatchedIndexes))
	for _, idx := range m.MatchedIndexes {
		matched[idx] = true
	}

	base := styles.switcherBox
	if selected {
		base = styles.switcherSel
	}

	var b strings.Builder
	b.WriteString(base.Render(marker))
	for byteIdx, r := range label {
		if matched[byteIdx] {
			b.WriteString(styles.matchedRune.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}
	return b.String()
}

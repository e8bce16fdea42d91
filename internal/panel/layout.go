package panel

import (
	"math"
	"strconv"

	"github.com/mattn/go-runewidth"

	"github.com/tabrail/tabrail/internal/tabs"
)

// minViewportColumns is the floor the terminal viewport keeps for itself;
// the panel may only take what is left beyond it.
const minViewportColumns = 2

// Metrics fixes the pixel geometry of the panel for one frame: how wide a
// cell is, how tall a panel row is, where the first row starts, and how many
// rows fit.
type Metrics struct {
	CellWidth float64
	RowHeight float64
	Top       float64
	MaxLines  int
}

// Dimensions is the resolved panel size, in whole columns and in pixels.
type Dimensions struct {
	Columns int
	Width   float64
}

// ComputeDimensions fits the requested panel width into the viewport. The
// panel never shrinks the terminal below its minimum column count; when not
// even one panel column fits, the zero Dimensions disables the panel.
func ComputeDimensions(enabled bool, requestedWidth, cellWidth, viewportWidth, paddingX, scaleFactor float64) Dimensions {
	if !enabled || cellWidth <= 0 {
		return Dimensions{}
	}

	availableCols := int(math.Floor((viewportWidth - 2*paddingX) / cellWidth))
	maxPanelCols := availableCols - minViewportColumns
	if maxPanelCols <= 0 {
		return Dimensions{}
	}

	requested := requestedWidth * scaleFactor
	maxWidth := float64(maxPanelCols) * cellWidth
	width := math.Min(requested, maxWidth)
	columns := int(math.Min(math.Floor(width/cellWidth), float64(maxPanelCols)))
	if columns <= 0 {
		return Dimensions{}
	}

	return Dimensions{Columns: columns, Width: width}
}

// ItemKind names what a layout row holds.
type ItemKind string

const (
	ItemGroupHeader      ItemKind = "group_header"
	ItemGhostGroupHeader ItemKind = "ghost_group_header"
	ItemTab              ItemKind = "tab"
)

// Item is one occupied row of the panel. Rows the walker skips over stay
// blank and produce no item. Ghost items only appear in drag previews.
type Item struct {
	Line       int
	Kind       ItemKind
	Ghost      bool
	GroupIndex int
	Label      string
	Tab        tabs.PanelTab
}

// Layout walks the groups top to bottom: one header row per group, one row
// per tab, one blank row between groups, stopping at the row limit.
func (p *Panel) Layout(m Metrics) []Item {
	var items []Item
	line := 0

	for groupIndex, group := range p.groups {
		if line >= m.MaxLines {
			break
		}

		items = append(items, Item{Line: line, Kind: ItemGroupHeader, GroupIndex: groupIndex})
		line++

		for _, tab := range group.Tabs {
			if line >= m.MaxLines {
				break
			}
			items = append(items, Item{Line: line, Kind: ItemTab, GroupIndex: groupIndex, Tab: tab})
			line++
		}

		if line < m.MaxLines {
			line++
		}
	}

	return items
}

// RenderLayout is Layout plus drag feedback: while a drag is live the
// dragged tab is lifted out and a ghost copy marks where release would put
// it, either inside an existing group or under a ghost header for a group
// that does not exist yet.
func (p *Panel) RenderLayout(m Metrics) []Item {
	if p.drag != nil && p.drag.dragging {
		if p.dropTarget != nil {
			if tab, groupIndex, tabIndex, ok := p.findTab(p.drag.tab); ok {
				return p.previewLayout(m, tab, groupIndex, tabIndex, *p.dropTarget)
			}
		}
		if p.lastMouse != nil && p.isInsidePanel(*p.lastMouse) {
			if tab, _, _, ok := p.findTab(p.drag.tab); ok {
				return p.previewNewGroupLayout(m, tab)
			}
		}
	}

	return p.Layout(m)
}

func (p *Panel) previewLayout(m Metrics, dragTab tabs.PanelTab, dragGroupIndex, dragTabIndex int, target DropTarget) []Item {
	var items []Item
	line := 0

	targetIndex := target.Index
	if target.GroupIndex == dragGroupIndex && target.Index > dragTabIndex {
		targetIndex--
	}

	for groupIndex, group := range p.groups {
		if line >= m.MaxLines {
			break
		}

		items = append(items, Item{Line: line, Kind: ItemGroupHeader, GroupIndex: groupIndex})
		line++

		if line >= m.MaxLines {
			break
		}

		insertHere := groupIndex == target.GroupIndex
		maxIndex := len(group.Tabs)
		if groupIndex == dragGroupIndex {
			maxIndex--
		}
		localTarget := targetIndex
		if localTarget > maxIndex {
			localTarget = maxIndex
		}
		inserted := false
		visibleTabs := 0

		for _, tab := range group.Tabs {
			if line >= m.MaxLines {
				break
			}
			if tab.Handle == dragTab.Handle {
				continue
			}

			if insertHere && !inserted && visibleTabs == localTarget {
				items = append(items, Item{Line: line, Kind: ItemTab, Ghost: true, GroupIndex: groupIndex, Tab: dragTab})
				line++
				inserted = true
				if line >= m.MaxLines {
					break
				}
			}

			items = append(items, Item{Line: line, Kind: ItemTab, GroupIndex: groupIndex, Tab: tab})
			line++
			visibleTabs++
		}

		if line >= m.MaxLines {
			break
		}

		if insertHere && !inserted && visibleTabs == localTarget {
			items = append(items, Item{Line: line, Kind: ItemTab, Ghost: true, GroupIndex: groupIndex, Tab: dragTab})
			line++
		}

		if line < m.MaxLines {
			line++
		}
	}

	return items
}

// previewGroupID is the id shown on the ghost header for a drop past the
// last group. The registry supplies the real next id; without one the
// preview falls back to one past the highest id on screen.
func (p *Panel) previewGroupID() int {
	if p.newGroupID != nil {
		return *p.newGroupID
	}
	max := 0
	for _, group := range p.groups {
		if group.ID > max {
			max = group.ID
		}
	}
	return max + 1
}

func (p *Panel) previewNewGroupLayout(m Metrics, dragTab tabs.PanelTab) []Item {
	var items []Item
	line := 0
	newGroupID := p.previewGroupID()

	for groupIndex, group := range p.groups {
		if line >= m.MaxLines {
			break
		}

		hasTabs := false
		for _, tab := range group.Tabs {
			if tab.Handle != dragTab.Handle {
				hasTabs = true
				break
			}
		}
		if !hasTabs {
			continue
		}

		items = append(items, Item{Line: line, Kind: ItemGroupHeader, GroupIndex: groupIndex})
		line++

		for _, tab := range group.Tabs {
			if line >= m.MaxLines {
				break
			}
			if tab.Handle == dragTab.Handle {
				continue
			}
			items = append(items, Item{Line: line, Kind: ItemTab, GroupIndex: groupIndex, Tab: tab})
			line++
		}

		if line < m.MaxLines {
			line++
		}
	}

	if line < m.MaxLines {
		items = append(items, Item{Line: line, Kind: ItemGhostGroupHeader, Ghost: true, Label: strconv.Itoa(newGroupID)})
		line++
	}
	if line < m.MaxLines {
		items = append(items, Item{Line: line, Kind: ItemTab, Ghost: true, Tab: dragTab})
	}

	return items
}

func (p *Panel) findTab(h tabs.Handle) (tabs.PanelTab, int, int, bool) {
	for groupIndex, group := range p.groups {
		for tabIndex, tab := range group.Tabs {
			if tab.Handle == h {
				return tab, groupIndex, tabIndex, true
			}
		}
	}
	return tabs.PanelTab{}, 0, 0, false
}

// computeDropTarget maps a pointer position to the group and tab index a
// release would move the dragged tab to. Rows below the last group, and
// positions outside the panel, mean no target; the caller treats that as a
// drop into a fresh group.
func (p *Panel) computeDropTarget(pos Position, m Metrics) *DropTarget {
	if !p.isInsidePanel(pos) {
		return nil
	}
	if pos.Y < m.Top {
		return nil
	}
	if m.MaxLines == 0 {
		return nil
	}

	line := int(math.Floor((pos.Y - m.Top) / m.RowHeight))
	if line >= m.MaxLines {
		line = m.MaxLines - 1
	}

	currentLine := 0
	for groupIndex, group := range p.groups {
		if currentLine >= m.MaxLines {
			break
		}

		headerLine := currentLine
		remainingLines := m.MaxLines - headerLine - 1
		if remainingLines < 0 {
			remainingLines = 0
		}
		visibleTabs := len(group.Tabs)
		if visibleTabs > remainingLines {
			visibleTabs = remainingLines
		}
		tabsStart := headerLine + 1
		tabsEnd := headerLine + visibleTabs
		groupEnd := tabsEnd
		if visibleTabs < remainingLines {
			groupEnd = tabsEnd + 1
		}

		if line >= headerLine && line <= groupEnd {
			index := visibleTabs
			if line == headerLine {
				index = 0
			} else if line >= tabsStart && line <= tabsEnd && visibleTabs > 0 {
				index = line - tabsStart
			}
			return &DropTarget{GroupIndex: groupIndex, GroupID: group.ID, Index: index}
		}

		currentLine = groupEnd + 1
	}

	return nil
}

// HitKind names what the pointer is over.
type HitKind string

const (
	HitGroup HitKind = "group"
	HitTab   HitKind = "tab"
)

// Hit is the row element under the pointer.
type Hit struct {
	Kind       HitKind
	Tab        tabs.Handle
	GroupIndex int
}

func (p *Panel) hitTest(pos Position, m Metrics) *Hit {
	if !p.isInsidePanel(pos) {
		return nil
	}
	if pos.Y < m.Top {
		return nil
	}

	line := int(math.Floor((pos.Y - m.Top) / m.RowHeight))
	for _, item := range p.Layout(m) {
		if item.Line != line {
			continue
		}
		switch item.Kind {
		case ItemGroupHeader:
			return &Hit{Kind: HitGroup, GroupIndex: item.GroupIndex}
		case ItemTab:
			return &Hit{Kind: HitTab, Tab: item.Tab.Handle}
		}
	}
	return nil
}

// TruncateToColumns cuts text to at most maxCols display columns, counting
// wide runes as two.
func TruncateToColumns(text string, maxCols int) string {
	if maxCols <= 0 {
		return ""
	}

	width := 0
	out := make([]rune, 0, len(text))
	for _, ch := range text {
		w := runewidth.RuneWidth(ch)
		if width+w > maxCols {
			break
		}
		width += w
		out = append(out, ch)
	}
	return string(out)
}

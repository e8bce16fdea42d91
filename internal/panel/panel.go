package panel

import (
	"math"

	"github.com/tabrail/tabrail/internal/tabs"
)

const (
	// DragThresholdPx is how far the pointer must travel from the press
	// before a click becomes a drag.
	DragThresholdPx = 4.0

	// ResizeHandleWidthPx extends the grab zone this many pixels to each
	// side of the panel edge.
	ResizeHandleWidthPx = 6.0
)

// Position is a pointer position in pixels, relative to the panel origin.
type Position struct {
	X float64
	Y float64
}

// Cursor is the pointer shape the host should show. Empty means leave it
// alone.
type Cursor string

const (
	CursorDefault Cursor = "default"
	CursorPointer Cursor = "pointer"
	CursorResize  Cursor = "ew-resize"
)

// Button identifies a mouse button.
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

// ButtonState is the press phase of a mouse button event.
type ButtonState string

const (
	ButtonPressed  ButtonState = "pressed"
	ButtonReleased ButtonState = "released"
)

// Command is an action the panel asks its owner to perform. The panel never
// mutates tab state itself.
type Command interface{ isCommand() }

// FocusTab activates the clicked tab.
type FocusTab struct{ Tab tabs.Handle }

// CloseTab closes the tab whose close glyph was clicked.
type CloseTab struct{ Tab tabs.Handle }

// MoveTab re-homes a dragged tab. Nil TargetGroup means open a new group.
type MoveTab struct {
	Tab         tabs.Handle
	TargetGroup *int
	TargetIndex *int
}

// MoveGroup reorders a whole group.
type MoveGroup struct {
	Group       int
	TargetIndex int
}

// RenameTab starts an inline rename of the tab.
type RenameTab struct{ Tab tabs.Handle }

// RenameGroup starts an inline rename of the group.
type RenameGroup struct{ Group int }

func (FocusTab) isCommand()    {}
func (CloseTab) isCommand()    {}
func (MoveTab) isCommand()     {}
func (MoveGroup) isCommand()   {}
func (RenameTab) isCommand()   {}
func (RenameGroup) isCommand() {}

// CursorUpdate is the outcome of a pointer move.
type CursorUpdate struct {
	Capture     bool
	NeedsRedraw bool
	Cursor      Cursor
	ResizeWidth *float64
}

// MouseUpdate is the outcome of a button event.
type MouseUpdate struct {
	Capture     bool
	NeedsRedraw bool
	Command     Command
}

// DropTarget is where a drag would land: the group as it sits on screen,
// its id, and the tab index within it.
type DropTarget struct {
	GroupIndex int
	GroupID    int
	Index      int
}

type hoverState struct {
	tab *tabs.Handle
}

type dragState struct {
	tab      tabs.Handle
	start    Position
	dragging bool
}

type resizeState struct {
	offset float64
}

func (r resizeState) width(pos Position) float64 {
	return math.Max(pos.X+r.offset, 0)
}

// Panel tracks everything the tab panel needs between events: the projected
// groups, hover and drag state, an in-flight resize, and an inline edit.
type Panel struct {
	enabled    bool
	widthCols  int
	widthPx    float64
	groups     []tabs.PanelGroup
	newGroupID *int
	edit       *editState
	hover      hoverState
	drag       *dragState
	resize     *resizeState
	dropTarget *DropTarget
	lastMouse  *Position
}

func New() *Panel {
	return &Panel{}
}

func (p *Panel) SetEnabled(enabled bool) {
	p.enabled = enabled
}

func (p *Panel) SetDimensions(d Dimensions) {
	p.widthCols = d.Columns
	p.widthPx = d.Width
}

// Width is the panel width in pixels.
func (p *Panel) Width() float64 {
	return p.widthPx
}

// WidthCols is the panel width in whole columns.
func (p *Panel) WidthCols() int {
	return p.widthCols
}

// IsEnabled reports whether the panel is on and wide enough to draw.
func (p *Panel) IsEnabled() bool {
	return p.enabled && p.widthCols > 0
}

// SetGroups replaces the projected groups and the id a new group would
// take, reporting whether anything differed. A live edit whose target
// vanished from the new projection is dropped.
func (p *Panel) SetGroups(groups []tabs.PanelGroup, newGroupID *int) bool {
	changed := false

	if !panelGroupsEqual(p.groups, groups) {
		p.groups = groups
		p.validateEditTarget()
		changed = true
	}
	if !intPtrEqual(p.newGroupID, newGroupID) {
		p.newGroupID = cloneIntPtr(newGroupID)
		changed = true
	}
	return changed
}

// Groups exposes the current projection for rendering.
func (p *Panel) Groups() []tabs.PanelGroup {
	return p.groups
}

// HoveredTab reports the tab under the pointer, if any.
func (p *Panel) HoveredTab() (tabs.Handle, bool) {
	if p.hover.tab == nil {
		return tabs.Handle{}, false
	}
	return *p.hover.tab, true
}

// Dragging reports whether a drag has crossed the threshold.
func (p *Panel) Dragging() bool {
	return p.drag != nil && p.drag.dragging
}

// ShouldCapture reports whether the panel owns pointer input at pos. A live
// drag or resize always captures, regardless of where the pointer sits.
func (p *Panel) ShouldCapture(pos *Position) bool {
	if !p.IsEnabled() {
		return false
	}
	if p.drag != nil || p.resize != nil {
		return true
	}
	return pos != nil && (p.isInsidePanel(*pos) || p.isOnResizeHandle(*pos))
}

// ShouldCaptureLast applies ShouldCapture to the last seen position.
func (p *Panel) ShouldCaptureLast() bool {
	return p.ShouldCapture(p.lastMouse)
}

// CursorMoved folds a pointer move into the panel state: it tracks an
// active resize, promotes a pressed tab to a drag past the threshold, and
// keeps hover and drop target current.
func (p *Panel) CursorMoved(pos Position, m Metrics) CursorUpdate {
	last := pos
	p.lastMouse = &last

	resizing := p.resize != nil
	resizeHit := p.drag == nil && p.isOnResizeHandle(pos)
	capture := p.ShouldCapture(&pos)

	if resizing {
		width := p.resize.width(pos)
		return CursorUpdate{Capture: true, NeedsRedraw: true, Cursor: CursorResize, ResizeWidth: &width}
	}

	if !capture {
		needsRedraw := p.hover.tab != nil || p.dropTarget != nil
		p.hover = hoverState{}
		p.dropTarget = nil
		return CursorUpdate{NeedsRedraw: needsRedraw}
	}

	var hit *Hit
	if !resizeHit {
		hit = p.hitTest(pos, m)
	}
	nextHover := hoverFromHit(hit)
	dragStarted := p.updateDrag(pos)
	needsRedraw := dragStarted || !hoverEqual(nextHover, p.hover) || p.updateDropTarget(pos, m)
	p.hover = nextHover

	cursor := CursorDefault
	if resizeHit {
		cursor = CursorResize
	} else if hit != nil && hit.Kind == HitTab {
		cursor = CursorPointer
	}

	return CursorUpdate{Capture: true, NeedsRedraw: needsRedraw, Cursor: cursor}
}

// MouseInput folds a button event into the panel state and reports the
// command it implies, if any. Events before any pointer move are ignored.
func (p *Panel) MouseInput(state ButtonState, button Button, m Metrics) MouseUpdate {
	if p.lastMouse == nil {
		return MouseUpdate{}
	}
	pos := *p.lastMouse

	capture := p.ShouldCapture(&pos)
	if !capture {
		return MouseUpdate{}
	}

	if button == ButtonRight {
		if state != ButtonReleased {
			return MouseUpdate{Capture: capture}
		}

		var command Command
		if hit := p.hitTest(pos, m); hit != nil {
			switch hit.Kind {
			case HitTab:
				command = RenameTab{Tab: hit.Tab}
			case HitGroup:
				if hit.GroupIndex < len(p.groups) {
					command = RenameGroup{Group: p.groups[hit.GroupIndex].ID}
				}
			}
		}
		return MouseUpdate{Capture: capture, NeedsRedraw: command != nil, Command: command}
	}

	if button != ButtonLeft {
		return MouseUpdate{Capture: capture}
	}

	if state == ButtonPressed && p.isOnResizeHandle(pos) {
		p.resize = &resizeState{offset: p.widthPx - pos.X}
		return MouseUpdate{Capture: true, NeedsRedraw: true}
	}
	if state == ButtonReleased && p.resize != nil {
		p.resize = nil
		return MouseUpdate{Capture: true, NeedsRedraw: true}
	}

	hit := p.hitTest(pos, m)
	needsRedraw := false
	var command Command

	switch state {
	case ButtonPressed:
		if hit != nil && hit.Kind == HitTab && !p.isCloseHit(pos, m) {
			p.drag = &dragState{tab: hit.Tab, start: pos}
			needsRedraw = true
		}
	case ButtonReleased:
		if p.drag != nil {
			drag := p.drag
			p.drag = nil

			if drag.dragging {
				if target := p.computeDropTarget(pos, m); target != nil {
					group := target.GroupID
					index := target.Index
					command = MoveTab{Tab: drag.tab, TargetGroup: &group, TargetIndex: &index}
				} else if p.isInsidePanel(pos) {
					command = MoveTab{Tab: drag.tab}
				}
			} else if hit != nil && hit.Kind == HitTab {
				command = p.clickCommand(hit.Tab, pos, m)
			}

			p.dropTarget = nil
			needsRedraw = true
		} else if hit != nil && hit.Kind == HitTab {
			command = p.clickCommand(hit.Tab, pos, m)
			needsRedraw = true
		}
	}

	return MouseUpdate{Capture: capture, NeedsRedraw: needsRedraw, Command: command}
}

// clickCommand resolves a plain release on a tab row: close when it lands
// on the close glyph of the hovered tab, focus otherwise.
func (p *Panel) clickCommand(tab tabs.Handle, pos Position, m Metrics) Command {
	if p.isCloseHit(pos, m) && p.hover.tab != nil && *p.hover.tab == tab {
		return CloseTab{Tab: tab}
	}
	return FocusTab{Tab: tab}
}

func (p *Panel) updateDrag(pos Position) bool {
	if p.drag == nil || p.drag.dragging {
		return false
	}

	dx := pos.X - p.drag.start.X
	dy := pos.Y - p.drag.start.Y
	if math.Hypot(dx, dy) > DragThresholdPx {
		p.drag.dragging = true
		return true
	}
	return false
}

func (p *Panel) updateDropTarget(pos Position, m Metrics) bool {
	if !p.Dragging() {
		if p.dropTarget != nil {
			p.dropTarget = nil
			return true
		}
		return false
	}

	next := p.computeDropTarget(pos, m)
	if !dropTargetEqual(next, p.dropTarget) {
		p.dropTarget = next
		return true
	}
	return false
}

// isCloseHit reports whether pos sits in the rightmost column, where the
// close glyph draws. Panels too narrow to fit one never report close hits.
func (p *Panel) isCloseHit(pos Position, m Metrics) bool {
	if p.widthCols == 0 || m.CellWidth <= 0 {
		return false
	}
	closeCol := p.widthCols - 1
	if closeCol <= 1 {
		return false
	}
	return int(math.Floor(pos.X/m.CellWidth)) == closeCol
}

func (p *Panel) isInsidePanel(pos Position) bool {
	return pos.X >= 0 && pos.X < p.widthPx
}

func (p *Panel) isOnResizeHandle(pos Position) bool {
	if !p.IsEnabled() {
		return false
	}
	left := math.Max(p.widthPx-ResizeHandleWidthPx, 0)
	right := p.widthPx + ResizeHandleWidthPx
	return pos.X >= left && pos.X <= right
}

func hoverFromHit(hit *Hit) hoverState {
	if hit != nil && hit.Kind == HitTab {
		tab := hit.Tab
		return hoverState{tab: &tab}
	}
	return hoverState{}
}

func hoverEqual(a, b hoverState) bool {
	if a.tab == nil || b.tab == nil {
		return a.tab == nil && b.tab == nil
	}
	return *a.tab == *b.tab
}

func dropTargetEqual(a, b *DropTarget) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func panelGroupsEqual(a, b []tabs.PanelGroup) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Label != b[i].Label || len(a[i].Tabs) != len(b[i].Tabs) {
			return false
		}
		for j := range a[i].Tabs {
			if !panelTabEqual(a[i].Tabs[j], b[i].Tabs[j]) {
				return false
			}
		}
	}
	return true
}

func panelTabEqual(a, b tabs.PanelTab) bool {
	if a.Handle != b.Handle || a.Label != b.Label || a.Kind != b.Kind || a.IsActive != b.IsActive {
		return false
	}
	if a.Activity == nil || b.Activity == nil {
		return a.Activity == nil && b.Activity == nil
	}
	return a.Activity.LastOutput.Equal(b.Activity.LastOutput) && a.Activity.HasUnseen == b.Activity.HasUnseen
}

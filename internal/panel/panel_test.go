package panel

import (
	"testing"

	"github.com/tabrail/tabrail/internal/tabs"
)

func TestShouldCapture(t *testing.T) {
	p := newTestPanel(2)

	inside := Position{X: 50, Y: 20}
	onHandle := Position{X: 304, Y: 20}
	outside := Position{X: 400, Y: 20}

	if !p.ShouldCapture(&inside) {
		t.Fatal("expected capture inside the panel")
	}
	if !p.ShouldCapture(&onHandle) {
		t.Fatal("expected capture on the resize handle")
	}
	if p.ShouldCapture(&outside) {
		t.Fatal("expected no capture outside the panel")
	}
	if p.ShouldCapture(nil) {
		t.Fatal("expected no capture without a position")
	}

	p.SetEnabled(false)
	if p.ShouldCapture(&inside) {
		t.Fatal("expected no capture while disabled")
	}
	p.SetEnabled(true)

	// A live drag captures everywhere.
	startDrag(t, p, p.groups[0].Tabs[0].Handle, Position{X: 50, Y: 20})
	if !p.ShouldCapture(&outside) {
		t.Fatal("expected capture during a drag")
	}
}

func TestCursorMovedHoverAndCursorShape(t *testing.T) {
	p := newTestPanel(2)

	update := p.CursorMoved(Position{X: 50, Y: 20}, testMetrics)
	if !update.Capture || !update.NeedsRedraw {
		t.Fatal("expected capture and redraw entering a tab row")
	}
	if update.Cursor != CursorPointer {
		t.Fatalf("expected pointer cursor, got %s", update.Cursor)
	}
	hovered, ok := p.HoveredTab()
	if !ok || hovered != p.groups[0].Tabs[0].Handle {
		t.Fatal("expected first tab hovered")
	}

	// Same row again: nothing changed, no redraw.
	update = p.CursorMoved(Position{X: 60, Y: 22}, testMetrics)
	if update.NeedsRedraw {
		t.Fatal("expected no redraw without a hover change")
	}

	// Header rows hover nothing and show the default cursor.
	update = p.CursorMoved(Position{X: 50, Y: 4}, testMetrics)
	if update.Cursor != CursorDefault {
		t.Fatalf("expected default cursor on header, got %s", update.Cursor)
	}
	if _, ok := p.HoveredTab(); ok {
		t.Fatal("expected no hovered tab on header")
	}

	// Leaving the panel clears hover and releases capture.
	p.CursorMoved(Position{X: 50, Y: 20}, testMetrics)
	update = p.CursorMoved(Position{X: 400, Y: 20}, testMetrics)
	if update.Capture {
		t.Fatal("expected capture released outside")
	}
	if !update.NeedsRedraw {
		t.Fatal("expected redraw clearing the hover")
	}
	if _, ok := p.HoveredTab(); ok {
		t.Fatal("expected hover cleared outside")
	}
}

func TestCursorMovedOnResizeHandle(t *testing.T) {
	p := newTestPanel(2)

	update := p.CursorMoved(Position{X: 298, Y: 20}, testMetrics)
	if update.Cursor != CursorResize {
		t.Fatalf("expected resize cursor on the handle, got %s", update.Cursor)
	}
}

func TestDragThreshold(t *testing.T) {
	p := newTestPanel(2)

	p.CursorMoved(Position{X: 50, Y: 20}, testMetrics)
	p.MouseInput(ButtonPressed, ButtonLeft, testMetrics)
	if p.drag == nil {
		t.Fatal("expected press to arm a drag")
	}

	// Exactly at the threshold: still a click.
	p.CursorMoved(Position{X: 54, Y: 20}, testMetrics)
	if p.Dragging() {
		t.Fatal("expected no drag exactly at the threshold")
	}

	// A diagonal hop whose distance crosses it: a drag.
	update := p.CursorMoved(Position{X: 53, Y: 24}, testMetrics)
	if !p.Dragging() {
		t.Fatal("expected drag past the threshold")
	}
	if !update.NeedsRedraw {
		t.Fatal("expected redraw when the drag starts")
	}
}

func TestClickFocusesTab(t *testing.T) {
	p := newTestPanel(2)
	tab := p.groups[0].Tabs[0].Handle

	p.CursorMoved(Position{X: 50, Y: 20}, testMetrics)
	p.MouseInput(ButtonPressed, ButtonLeft, testMetrics)
	update := p.MouseInput(ButtonReleased, ButtonLeft, testMetrics)

	focus, ok := update.Command.(FocusTab)
	if !ok {
		t.Fatalf("expected FocusTab, got %T", update.Command)
	}
	if focus.Tab != tab {
		t.Fatal("expected the clicked tab")
	}
	if p.drag != nil {
		t.Fatal("expected drag state cleared after release")
	}
}

func TestClickOnCloseGlyph(t *testing.T) {
	p := newTestPanel(2)
	tab := p.groups[0].Tabs[0].Handle

	// The rightmost column of a tab row is the close glyph.
	closeX := float64(36*8) + 4
	p.CursorMoved(Position{X: closeX, Y: 20}, testMetrics)
	p.MouseInput(ButtonPressed, ButtonLeft, testMetrics)
	if p.drag != nil {
		t.Fatal("expected no drag armed on the close glyph")
	}

	update := p.MouseInput(ButtonReleased, ButtonLeft, testMetrics)
	closeCmd, ok := update.Command.(CloseTab)
	if !ok {
		t.Fatalf("expected CloseTab, got %T", update.Command)
	}
	if closeCmd.Tab != tab {
		t.Fatal("expected the hovered tab to close")
	}
}

func TestCloseHitNeedsWidth(t *testing.T) {
	p := newTestPanel(2)
	p.SetDimensions(Dimensions{Columns: 2, Width: 16})

	if p.isCloseHit(Position{X: 12, Y: 20}, testMetrics) {
		t.Fatal("expected no close hit on a two column panel")
	}
}

func TestRightClickRenames(t *testing.T) {
	p := newTestPanel(2)
	tab := p.groups[0].Tabs[1].Handle

	p.CursorMoved(Position{X: 50, Y: 36}, testMetrics)
	update := p.MouseInput(ButtonPressed, ButtonRight, testMetrics)
	if update.Command != nil {
		t.Fatal("expected no command on right press")
	}

	update = p.MouseInput(ButtonReleased, ButtonRight, testMetrics)
	rename, ok := update.Command.(RenameTab)
	if !ok {
		t.Fatalf("expected RenameTab, got %T", update.Command)
	}
	if rename.Tab != tab {
		t.Fatal("expected the tab under the pointer")
	}

	p.CursorMoved(Position{X: 50, Y: 4}, testMetrics)
	update = p.MouseInput(ButtonReleased, ButtonRight, testMetrics)
	group, ok := update.Command.(RenameGroup)
	if !ok {
		t.Fatalf("expected RenameGroup, got %T", update.Command)
	}
	if group.Group != 1 {
		t.Fatalf("expected group 1, got %d", group.Group)
	}

	p.CursorMoved(Position{X: 50, Y: 52}, testMetrics)
	update = p.MouseInput(ButtonReleased, ButtonRight, testMetrics)
	if update.Command != nil {
		t.Fatal("expected no rename on a blank row")
	}
}

func TestMiddleButtonIgnored(t *testing.T) {
	p := newTestPanel(2)

	p.CursorMoved(Position{X: 50, Y: 20}, testMetrics)
	update := p.MouseInput(ButtonPressed, ButtonMiddle, testMetrics)
	if update.Command != nil || !update.Capture {
		t.Fatal("expected captured no-op for middle button")
	}
}

func TestMouseInputBeforeAnyMove(t *testing.T) {
	p := newTestPanel(2)

	update := p.MouseInput(ButtonPressed, ButtonLeft, testMetrics)
	if update.Capture || update.Command != nil {
		t.Fatal("expected default update before any pointer position")
	}
}

func TestDragReleaseOnDropTarget(t *testing.T) {
	p := newTestPanel(2, 1)
	tab := p.groups[0].Tabs[0].Handle

	startDrag(t, p, tab, Position{X: 50, Y: 20})
	// Onto the second group's tab row.
	p.CursorMoved(Position{X: 50, Y: 84}, testMetrics)

	update := p.MouseInput(ButtonReleased, ButtonLeft, testMetrics)
	move, ok := update.Command.(MoveTab)
	if !ok {
		t.Fatalf("expected MoveTab, got %T", update.Command)
	}
	if move.Tab != tab {
		t.Fatal("expected the dragged tab")
	}
	if move.TargetGroup == nil || *move.TargetGroup != 2 {
		t.Fatalf("expected target group 2, got %v", move.TargetGroup)
	}
	if move.TargetIndex == nil || *move.TargetIndex != 0 {
		t.Fatalf("expected target index 0, got %v", move.TargetIndex)
	}
	if p.dropTarget != nil || p.drag != nil {
		t.Fatal("expected drag state cleared after release")
	}
}

func TestDragReleaseBelowGroupsOpensNewGroup(t *testing.T) {
	p := newTestPanel(2)
	tab := p.groups[0].Tabs[0].Handle

	startDrag(t, p, tab, Position{X: 50, Y: 20})
	p.CursorMoved(Position{X: 50, Y: 200}, testMetrics)

	update := p.MouseInput(ButtonReleased, ButtonLeft, testMetrics)
	move, ok := update.Command.(MoveTab)
	if !ok {
		t.Fatalf("expected MoveTab, got %T", update.Command)
	}
	if move.TargetGroup != nil || move.TargetIndex != nil {
		t.Fatal("expected open-new-group move with no target")
	}
}

func TestDragReleaseOutsidePanelDoesNothing(t *testing.T) {
	p := newTestPanel(2)
	tab := p.groups[0].Tabs[0].Handle

	startDrag(t, p, tab, Position{X: 50, Y: 20})
	p.CursorMoved(Position{X: 400, Y: 20}, testMetrics)

	update := p.MouseInput(ButtonReleased, ButtonLeft, testMetrics)
	if update.Command != nil {
		t.Fatalf("expected no command, got %T", update.Command)
	}
	if p.drag != nil {
		t.Fatal("expected drag cleared")
	}
}

func TestResizeFlow(t *testing.T) {
	p := newTestPanel(2)
	p.SetDimensions(Dimensions{Columns: 25, Width: 200})

	// Press at x=194 on the 200px edge: the drag keeps the 6px offset.
	p.CursorMoved(Position{X: 194, Y: 20}, testMetrics)
	update := p.MouseInput(ButtonPressed, ButtonLeft, testMetrics)
	if p.resize == nil {
		t.Fatal("expected press on the handle to start a resize")
	}
	if !update.NeedsRedraw {
		t.Fatal("expected redraw starting the resize")
	}

	update2 := p.CursorMoved(Position{X: 300, Y: 20}, testMetrics)
	if update2.ResizeWidth == nil {
		t.Fatal("expected a width while resizing")
	}
	if *update2.ResizeWidth != 306 {
		t.Fatalf("expected width 306, got %v", *update2.ResizeWidth)
	}
	if update2.Cursor != CursorResize {
		t.Fatalf("expected resize cursor, got %s", update2.Cursor)
	}

	// Dragging the handle far left never reports a negative width.
	update2 = p.CursorMoved(Position{X: -50, Y: 20}, testMetrics)
	if *update2.ResizeWidth != 0 {
		t.Fatalf("expected width floored at 0, got %v", *update2.ResizeWidth)
	}

	update = p.MouseInput(ButtonReleased, ButtonLeft, testMetrics)
	if p.resize != nil {
		t.Fatal("expected release to end the resize")
	}
	if update.Command != nil {
		t.Fatal("expected no command from a resize")
	}
}

func TestSetGroupsChangeDetection(t *testing.T) {
	p := New()
	p.SetEnabled(true)
	p.SetDimensions(Dimensions{Columns: 37, Width: 300})

	groups := []tabs.PanelGroup{{ID: 1, Label: "group 1", Tabs: []tabs.PanelTab{
		{Handle: tabs.Handle{Slot: 0}, Label: "shell", Kind: tabs.KindTerminal},
	}}}

	if !p.SetGroups(groups, nil) {
		t.Fatal("expected first set to report a change")
	}
	same := []tabs.PanelGroup{{ID: 1, Label: "group 1", Tabs: []tabs.PanelTab{
		{Handle: tabs.Handle{Slot: 0}, Label: "shell", Kind: tabs.KindTerminal},
	}}}
	if p.SetGroups(same, nil) {
		t.Fatal("expected identical groups to report no change")
	}

	next := 2
	if !p.SetGroups(same, &next) {
		t.Fatal("expected new group id change to be reported")
	}

	renamed := []tabs.PanelGroup{{ID: 1, Label: "work", Tabs: same[0].Tabs}}
	if !p.SetGroups(renamed, &next) {
		t.Fatal("expected label change to be reported")
	}
}

func TestSetGroupsDropsOrphanedEdit(t *testing.T) {
	p := newTestPanel(2)
	tab := p.groups[0].Tabs[0].Handle

	p.BeginEditTab(tab, "shell")
	if !p.IsEditing() {
		t.Fatal("expected edit to start")
	}

	// The edited tab disappears from the projection.
	remaining := []tabs.PanelGroup{{ID: 1, Label: "group 1", Tabs: p.groups[0].Tabs[1:]}}
	p.SetGroups(remaining, nil)
	if p.IsEditing() {
		t.Fatal("expected edit dropped with its target")
	}

	// A group edit survives as long as the group id exists.
	p.BeginEditGroup(1, "work")
	p.SetGroups([]tabs.PanelGroup{{ID: 1, Label: "work", Tabs: remaining[0].Tabs}}, nil)
	if !p.IsEditing() {
		t.Fatal("expected group edit to survive")
	}
	p.SetGroups([]tabs.PanelGroup{{ID: 2, Label: "other", Tabs: remaining[0].Tabs}}, nil)
	if p.IsEditing() {
		t.Fatal("expected group edit dropped with its group")
	}
}

func TestBeginEditResetsPointerState(t *testing.T) {
	p := newTestPanel(2)
	tab := p.groups[0].Tabs[0].Handle

	startDrag(t, p, tab, Position{X: 50, Y: 20})
	p.BeginEditTab(tab, "shell")

	if p.drag != nil || p.resize != nil || p.dropTarget != nil {
		t.Fatal("expected edit to cancel drag and resize state")
	}
}

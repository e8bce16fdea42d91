package ui

import (
	"log"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/tabrail/tabrail/internal/config"
	"github.com/tabrail/tabrail/internal/panel"
	"github.com/tabrail/tabrail/internal/tabs"
)

// Version is set by main for the status bar.
var Version = "0.0.0"

// SetVersion sets the version string shown in the status bar.
func SetVersion(v string) {
	Version = v
}

const (
	// cellWidthPx and rowHeightPx fix the pixel grid the panel reasons in.
	// The host quantizes terminal cells onto it: one column is one cell
	// wide, one panel row is one terminal row tall.
	cellWidthPx = 8.0
	rowHeightPx = 16.0

	// tickInterval drives the redraw that lets recent-output indicators
	// decay once their window passes.
	tickInterval = 500 * time.Millisecond

	// activityIndicatorCols is how many columns a tab row reserves for the
	// output indicator, just left of the close glyph.
	activityIndicatorCols = 2
)

type tickMsg time.Time

// ConfigReloadedMsg carries a fresh config into the update loop after the
// file changed on disk.
type ConfigReloadedMsg struct {
	Config config.Config
}

// FeedOpenMsg opens a tab on behalf of the demo feed.
type FeedOpenMsg struct {
	Kind    tabs.Kind
	Title   string
	Program string
	URL     string
}

// FeedTitleMsg retitles the nth feed-opened tab.
type FeedTitleMsg struct {
	Tab   int
	Title string
}

// FeedProgramMsg updates the foreground program of the nth feed-opened tab.
type FeedProgramMsg struct {
	Tab     int
	Program string
}

// FeedOutputMsg records terminal output on the nth feed-opened tab.
type FeedOutputMsg struct {
	Tab int
}

// App is the host shell: it owns the registry and the panel, folds mouse,
// key, and feed events into them, and draws the result. All mutation
// happens on the update loop; goroutines reach it only through messages.
type App struct {
	registry *tabs.Registry
	panel    *panel.Panel
	switcher *Switcher

	configPath string
	cfg        config.Config
	theme      Theme
	styles     styleSet

	width   int
	height  int
	metrics panel.Metrics

	panelVisible bool
	resizeWidth  *float64
	feedTabs     []tabs.Handle

	lastTitle string
	debug     bool

	viewBuilder strings.Builder

	// Injection points for tests.
	now       func() time.Time
	setTitleF func(string)
}

// NewApp builds the model around a fresh registry holding one shell tab.
func NewApp(cfg config.Config, configPath string, debug bool) *App {
	registry := tabs.NewRegistry()
	registry.Open(tabs.Tab{Title: "shell", Kind: tabs.KindTerminal})

	a := &App{
		registry:     registry,
		panel:        panel.New(),
		switcher:     NewSwitcher(),
		configPath:   configPath,
		cfg:          cfg,
		theme:        ResolveTheme(cfg.Theme),
		panelVisible: true,
		debug:        debug,
		now:          time.Now,
		setTitleF:    termenv.SetWindowTitle,
	}
	a.styles = newStyles(a.theme)
	a.panel.SetEnabled(true)
	a.refreshPanel()
	return a
}

func (a *App) Init() tea.Cmd {
	return a.tick()
}

func (a *App) tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		rows := msg.Height - 1
		if rows < 0 {
			rows = 0
		}
		a.metrics = panel.Metrics{CellWidth: cellWidthPx, RowHeight: rowHeightPx, MaxLines: rows}
		a.applyPanelWidth(float64(a.cfg.Panel.WidthCols) * cellWidthPx)
		a.syncWindowTitle()
		return a, nil

	case tickMsg:
		return a, a.tick()

	case ConfigReloadedMsg:
		a.cfg = msg.Config
		a.setTheme(ResolveTheme(msg.Config.Theme))
		a.applyPanelWidth(float64(msg.Config.Panel.WidthCols) * cellWidthPx)
		if a.debug {
			log.Printf("[UI] config reloaded: theme=%s width=%d", msg.Config.Theme, msg.Config.Panel.WidthCols)
		}
		return a, nil

	case FeedOpenMsg:
		h := a.registry.Open(tabs.Tab{
			Title:       msg.Title,
			ProgramName: msg.Program,
			Kind:        msg.Kind,
			URL:         msg.URL,
		})
		a.feedTabs = append(a.feedTabs, h)
		a.refreshPanel()
		return a, nil

	case FeedTitleMsg:
		if h, ok := a.feedTab(msg.Tab); ok {
			a.registry.SetTitle(h, msg.Title)
			a.refreshPanel()
		}
		return a, nil

	case FeedProgramMsg:
		if h, ok := a.feedTab(msg.Tab); ok {
			a.registry.SetProgramName(h, msg.Program)
			a.refreshPanel()
		}
		return a, nil

	case FeedOutputMsg:
		if h, ok := a.feedTab(msg.Tab); ok {
			a.registry.NoteOutput(h, a.now())
			a.refreshPanel()
		}
		return a, nil

	case tea.MouseMsg:
		return a.handleMouse(msg)

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a *App) feedTab(i int) (tabs.Handle, bool) {
	if i < 0 || i >= len(a.feedTabs) {
		return tabs.Handle{}, false
	}
	h := a.feedTabs[i]
	if _, ok := a.registry.Get(h); !ok {
		return tabs.Handle{}, false
	}
	return h, true
}

func (a *App) setTheme(t Theme) {
	if t.Name == a.theme.Name {
		return
	}
	a.theme = t
	a.styles = newStyles(t)
}

// applyPanelWidth fits the requested pixel width into the current viewport
// and pushes the result to the panel. Requests below one cell clamp up, so
// a resize drag can never collapse the panel away.
func (a *App) applyPanelWidth(px float64) {
	if px < cellWidthPx {
		px = cellWidthPx
	}
	dims := panel.ComputeDimensions(a.panelVisible, px, cellWidthPx, float64(a.width)*cellWidthPx, 0, 1)
	a.panel.SetEnabled(a.panelVisible)
	a.panel.SetDimensions(dims)
}

// commitResize snaps the released drag width to columns, applies it, and
// persists it so the next start comes up at the same width.
func (a *App) commitResize(px float64) {
	if px < cellWidthPx {
		px = cellWidthPx
	}
	dims := panel.ComputeDimensions(a.panelVisible, px, cellWidthPx, float64(a.width)*cellWidthPx, 0, 1)
	if dims.Columns == 0 {
		return
	}
	a.panel.SetDimensions(dims)

	cfg, err := config.SetPanelWidthCols(a.configPath, dims.Columns)
	if err != nil {
		log.Printf("[UI] persisting panel width failed: %v", err)
		a.cfg.Panel.WidthCols = dims.Columns
		return
	}
	a.cfg = cfg
}

// refreshPanel re-projects the registry into the panel and keeps the
// terminal window title on the active tab.
func (a *App) refreshPanel() {
	next := a.registry.NextGroupID()
	a.panel.SetGroups(a.registry.PanelGroups(), &next)
	a.syncWindowTitle()
}

func (a *App) syncWindowTitle() {
	if a.width == 0 {
		return
	}
	title := "tabrail"
	if h, ok := a.registry.Active(); ok {
		if tab, ok := a.registry.Get(h); ok && tab.Label() != "" {
			title = tab.Label() + " - tabrail"
		}
	}
	if title != a.lastTitle {
		a.lastTitle = title
		a.setTitleF(title)
	}
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.panel.IsEditing() {
		return a.handleEditKey(msg)
	}

	if a.switcher.IsOpen() {
		switch msg.String() {
		case "ctrl+c", "ctrl+q":
			return a, tea.Quit
		}
		picked, ok, cmd := a.switcher.HandleKey(msg)
		if ok {
			a.registry.FocusTab(picked)
			a.refreshPanel()
		}
		return a, cmd
	}

	switch msg.String() {
	case "ctrl+c", "ctrl+q":
		return a, tea.Quit

	case "ctrl+t":
		h := a.registry.Open(tabs.Tab{Title: "shell", Kind: tabs.KindTerminal})
		a.registry.FocusTab(h)
		a.refreshPanel()
		return a, nil

	case "ctrl+w":
		if h, ok := a.registry.Active(); ok {
			a.registry.CloseTab(h)
			if a.registry.Len() == 0 {
				return a, tea.Quit
			}
			a.refreshPanel()
		}
		return a, nil

	case "ctrl+p":
		return a, a.switcher.Show(a.switcherItems())

	case "ctrl+b":
		a.panelVisible = !a.panelVisible
		a.applyPanelWidth(float64(a.cfg.Panel.WidthCols) * cellWidthPx)
		return a, nil

	case "alt+right":
		a.focusSelection(a.registry.SelectNext())
		return a, nil

	case "alt+left":
		a.focusSelection(a.registry.SelectPrevious())
		return a, nil

	case "alt+0":
		a.focusSelection(a.registry.SelectLast())
		return a, nil
	}

	if key := msg.String(); strings.HasPrefix(key, "alt+") {
		if n, err := strconv.Atoi(strings.TrimPrefix(key, "alt+")); err == nil && n >= 1 && n <= 9 {
			a.focusSelection(a.registry.SelectByIndex(n - 1))
		}
	}
	return a, nil
}

func (a *App) focusSelection(h tabs.Handle, ok bool) {
	if !ok {
		return
	}
	a.registry.FocusTab(h)
	a.refreshPanel()
}

func (a *App) switcherItems() []SwitcherItem {
	ordered := a.registry.OrderedTabs()
	items := make([]SwitcherItem, 0, len(ordered))
	for _, h := range ordered {
		if tab, ok := a.registry.Get(h); ok {
			items = append(items, SwitcherItem{Handle: h, Label: tab.Label()})
		}
	}
	return items
}

func (a *App) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	key, ok := editKey(msg)
	if !ok {
		return a, nil
	}

	outcome := a.panel.HandleKey(key)
	if outcome.Kind == panel.EditCommitted && outcome.Commit != nil {
		a.applyEditCommit(*outcome.Commit)
	}
	return a, nil
}

// editKey translates a terminal key event into the panel's edit alphabet.
// Keys with no translation are dropped rather than typed.
func editKey(msg tea.KeyMsg) (panel.Key, bool) {
	switch msg.Type {
	case tea.KeyEscape:
		return panel.Key{Name: panel.KeyEscape}, true
	case tea.KeyEnter:
		return panel.Key{Name: panel.KeyEnter}, true
	case tea.KeyBackspace:
		return panel.Key{Name: panel.KeyBackspace}, true
	case tea.KeyDelete:
		return panel.Key{Name: panel.KeyDelete}, true
	case tea.KeyLeft:
		return panel.Key{Name: panel.KeyLeft}, true
	case tea.KeyRight:
		return panel.Key{Name: panel.KeyRight}, true
	case tea.KeyHome:
		return panel.Key{Name: panel.KeyHome}, true
	case tea.KeyEnd:
		return panel.Key{Name: panel.KeyEnd}, true
	case tea.KeyTab:
		return panel.Key{Name: panel.KeyTab}, true
	case tea.KeySpace:
		return panel.Key{Text: " "}, true
	case tea.KeyRunes:
		if msg.Alt {
			return panel.Key{}, false
		}
		return panel.Key{Text: string(msg.Runes)}, true
	}
	return panel.Key{}, false
}

func (a *App) applyEditCommit(commit panel.EditCommit) {
	text := strings.TrimSpace(commit.Text)
	var name *string
	if text != "" {
		name = &text
	}

	switch commit.Target.Kind {
	case panel.EditTargetTab:
		a.registry.SetCustomTitle(commit.Target.Tab, name)
	case panel.EditTargetGroup:
		a.registry.SetGroupName(commit.Target.Group, name)
	}
	a.refreshPanel()
}

func (a *App) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if a.switcher.IsOpen() {
		return a, nil
	}

	pos := panel.Position{X: float64(msg.X) * cellWidthPx, Y: float64(msg.Y) * rowHeightPx}

	switch msg.Action {
	case tea.MouseActionMotion:
		update := a.panel.CursorMoved(pos, a.metrics)
		if update.ResizeWidth != nil {
			a.resizeWidth = update.ResizeWidth
			a.applyPanelWidth(*update.ResizeWidth)
		}
		return a, nil

	case tea.MouseActionPress:
		button, ok := mouseButton(msg.Button)
		if !ok {
			return a, nil
		}
		a.panel.CursorMoved(pos, a.metrics)
		a.panel.MouseInput(panel.ButtonPressed, button, a.metrics)
		return a, nil

	case tea.MouseActionRelease:
		button, ok := mouseButton(msg.Button)
		if !ok {
			return a, nil
		}
		if moved := a.panel.CursorMoved(pos, a.metrics); moved.ResizeWidth != nil {
			a.resizeWidth = moved.ResizeWidth
		}
		update := a.panel.MouseInput(panel.ButtonReleased, button, a.metrics)

		if a.resizeWidth != nil {
			a.commitResize(*a.resizeWidth)
			a.resizeWidth = nil
		}
		if update.Command != nil {
			return a, a.executeCommand(update.Command)
		}
		return a, nil
	}

	return a, nil
}

// mouseButton maps the terminal button onto the panel's. Wheel and extra
// buttons report false; legacy releases that arrive without a button are
// treated as left, the only button with press state worth finishing.
func mouseButton(b tea.MouseButton) (panel.Button, bool) {
	switch b {
	case tea.MouseButtonLeft, tea.MouseButtonNone:
		return panel.ButtonLeft, true
	case tea.MouseButtonRight:
		return panel.ButtonRight, true
	case tea.MouseButtonMiddle:
		return panel.ButtonMiddle, true
	}
	return "", false
}

func (a *App) executeCommand(command panel.Command) tea.Cmd {
	switch command := command.(type) {
	case panel.FocusTab:
		a.registry.FocusTab(command.Tab)

	case panel.CloseTab:
		a.registry.CloseTab(command.Tab)
		if a.registry.Len() == 0 {
			return tea.Quit
		}

	case panel.MoveTab:
		a.registry.MoveTab(command.Tab, command.TargetGroup, command.TargetIndex)

	case panel.MoveGroup:
		a.registry.MoveGroup(command.Group, command.TargetIndex)

	case panel.RenameTab:
		if tab, ok := a.registry.Get(command.Tab); ok {
			a.panel.BeginEditTab(command.Tab, tab.Label())
		}

	case panel.RenameGroup:
		name, _ := a.registry.GroupName(command.Group)
		a.panel.BeginEditGroup(command.Group, name)
	}

	a.refreshPanel()
	return nil
}

func (a *App) View() string {
	if a.width == 0 || a.height == 0 {
		return ""
	}

	rows := a.height - 1
	if rows < 0 {
		rows = 0
	}

	panelCols := 0
	if a.panel.IsEnabled() {
		panelCols = a.panel.WidthCols()
	}
	contentCols := a.width - panelCols
	if panelCols > 0 {
		contentCols--
	}
	if contentCols < 0 {
		contentCols = 0
	}

	var panelLines []string
	if panelCols > 0 {
		panelLines = a.renderPanel(a.panel.RenderLayout(a.metrics), panelCols, rows)
	}
	contentLines := a.renderContent(contentCols, rows)

	a.viewBuilder.Reset()
	for row := 0; row < rows; row++ {
		if panelCols > 0 {
			a.viewBuilder.WriteString(panelLines[row])
			a.viewBuilder.WriteString(a.styles.border.Render("│"))
		}
		a.viewBuilder.WriteString(contentLines[row])
		a.viewBuilder.WriteByte('\n')
	}
	a.viewBuilder.WriteString(a.renderStatus())
	return a.viewBuilder.String()
}

func (a *App) renderPanel(items []panel.Item, cols, rows int) []string {
	lines := make([]string, rows)
	blank := strings.Repeat(" ", cols)
	for i := range lines {
		lines[i] = blank
	}

	groups := a.panel.Groups()
	hovered, hasHover := a.panel.HoveredTab()
	dragging := a.panel.Dragging()
	now := a.now()
	editTarget, editText, editCursor, editing := a.panel.ActiveEdit()

	for _, item := range items {
		if item.Line < 0 || item.Line >= rows {
			continue
		}

		switch item.Kind {
		case panel.ItemGroupHeader:
			if item.GroupIndex >= len(groups) {
				continue
			}
			group := groups[item.GroupIndex]
			if editing && editTarget.Kind == panel.EditTargetGroup && editTarget.Group == group.ID {
				text := strconv.Itoa(group.ID) + " " + panel.RenderEditText(editText, editCursor)
				lines[item.Line] = a.styles.editText.Render(padToColumns(text, cols))
				continue
			}
			lines[item.Line] = a.styles.groupHeader.Render(padToColumns(group.Label+":", cols))

		case panel.ItemGhostGroupHeader:
			lines[item.Line] = a.styles.ghostHeader.Render(padToColumns("group "+item.Label+":", cols))

		case panel.ItemTab:
			if editing && !item.Ghost && editTarget.Kind == panel.EditTargetTab && editTarget.Tab == item.Tab.Handle {
				text := " " + panel.RenderEditText(editText, editCursor)
				lines[item.Line] = a.styles.editText.Render(padToColumns(text, cols))
				continue
			}
			lines[item.Line] = a.renderTabRow(item, cols, hovered, hasHover, dragging, now)
		}
	}
	return lines
}

// renderTabRow lays one tab line out as indent, label, indicator zone, and
// close column. Indicator and close are shed first as the panel narrows.
func (a *App) renderTabRow(item panel.Item, cols int, hovered tabs.Handle, hasHover, dragging bool, now time.Time) string {
	closeVisible := cols >= 3
	indicatorVisible := cols >= 3+activityIndicatorCols

	labelCols := cols - 1
	if closeVisible {
		labelCols--
	}
	if indicatorVisible {
		labelCols -= activityIndicatorCols
	}

	style := a.styles.tab
	isHovered := hasHover && hovered == item.Tab.Handle
	switch {
	case item.Ghost:
		style = a.styles.tabGhost
	case item.Tab.IsActive:
		style = a.styles.tabActive
	case isHovered:
		style = a.styles.tabHover
	}

	var b strings.Builder
	b.WriteString(style.Render(padToColumns(" "+item.Tab.Label, labelCols+1)))

	if indicatorVisible {
		glyph, glyphStyle := a.activityGlyph(item.Tab, now)
		b.WriteString(" ")
		b.WriteString(glyphStyle.Render(glyph))
	}
	if closeVisible {
		if isHovered && !dragging && !item.Ghost {
			b.WriteString(a.styles.closeGlyph.Render("×"))
		} else {
			b.WriteString(" ")
		}
	}
	return b.String()
}

// activityGlyph picks the output indicator: a filled dot while a background
// tab holds unseen output, a hollow dot while the last output is fresh,
// nothing otherwise. Web tabs never show one.
func (a *App) activityGlyph(tab tabs.PanelTab, now time.Time) (string, lipgloss.Style) {
	if tab.Activity == nil {
		return " ", a.styles.tab
	}
	if tab.Activity.HasUnseen {
		return "●", a.styles.unseen
	}
	if tab.Activity.Active(now) {
		return "○", a.styles.recent
	}
	return " ", a.styles.tab
}

func (a *App) renderContent(cols, rows int) []string {
	lines := make([]string, rows)
	for i := range lines {
		lines[i] = ""
	}
	if cols <= 2 || rows == 0 {
		return lines
	}

	if a.switcher.IsOpen() {
		overlay := a.switcher.View(a.styles, cols-4)
		for i, line := range overlay {
			row := i + 1
			if row >= rows {
				break
			}
			lines[row] = "  " + line
		}
		return lines
	}

	h, ok := a.registry.Active()
	if !ok {
		if rows > 1 {
			lines[1] = "  " + a.styles.contentDim.Render("no open tabs")
		}
		return lines
	}
	tab, ok := a.registry.Get(h)
	if !ok {
		return lines
	}

	if rows > 1 {
		lines[1] = "  " + a.styles.contentText.Render(panel.TruncateToColumns(tab.Label(), cols-2))
	}
	if rows > 2 {
		detail := string(tab.Kind)
		if tab.Kind == tabs.KindWeb && tab.URL != "" {
			detail += "  " + tab.URL
		} else if tab.ProgramName != "" {
			detail += "  " + tab.ProgramName
		}
		lines[2] = "  " + a.styles.contentDim.Render(panel.TruncateToColumns(detail, cols-2))
	}
	return lines
}

func (a *App) renderStatus() string {
	status := " tabrail v" + Version +
		"  ctrl+t new  ctrl+w close  ctrl+p jump  ctrl+b panel  ctrl+q quit"
	return a.styles.statusBar.Render(panel.TruncateToColumns(status, a.width))
}

// padToColumns truncates text to cols display columns and pads the rest
// with spaces, so styled runs keep the panel grid aligned.
func padToColumns(text string, cols int) string {
	if cols <= 0 {
		return ""
	}
	text = panel.TruncateToColumns(text, cols)
	if pad := cols - runewidth.StringWidth(text); pad > 0 {
		text += strings.Repeat(" ", pad)
	}
	return text
}

package control

import (
	"time"

	"github.com/google/uuid"

	"github.com/tabrail/tabrail/internal/tabs"
)

// Adapter exposes a registry to control clients as typed requests and
// responses. It owns no transport; callers frame and deliver the payloads.
type Adapter struct {
	registry   *tabs.Registry
	instanceID string
	now        func() time.Time
}

// NewAdapter wraps registry and mints a fresh instance id.
func NewAdapter(registry *tabs.Registry) *Adapter {
	return &Adapter{
		registry:   registry,
		instanceID: uuid.NewString(),
		now:        time.Now,
	}
}

// InstanceID identifies this adapter's process to control clients.
func (a *Adapter) InstanceID() string {
	return a.instanceID
}

// ListTabs snapshots every group and tab in display order.
func (a *Adapter) ListTabs() ListResponse {
	now := a.now()
	resp := ListResponse{InstanceID: a.instanceID}
	for _, group := range a.registry.Groups() {
		tg := TabGroup{ID: group.ID, Name: copyString(group.Name)}
		for i, h := range group.Tabs {
			tab, ok := a.registry.Get(h)
			if !ok {
				continue
			}
			tg.Tabs = append(tg.Tabs, a.tabState(tab, group.ID, i, now))
		}
		resp.Groups = append(resp.Groups, tg)
	}
	return resp
}

// GetTabState projects a single tab.
func (a *Adapter) GetTabState(id TabID) (TabState, error) {
	h := id.handle()
	tab, ok := a.registry.Get(h)
	if !ok {
		return TabState{}, newError(CodeNotFound, "tab not found")
	}
	groupID, index, _ := a.registry.GroupForTab(h)
	return a.tabState(tab, groupID, index, a.now()), nil
}

// NewTab opens a tab and returns its id. Web tabs must carry a url.
func (a *Adapter) NewTab(req NewTabRequest) (TabID, error) {
	tab := tabs.Tab{
		Title:       req.Title,
		ProgramName: req.ProgramName,
		URL:         req.URL,
	}
	switch req.Kind {
	case "", string(tabs.KindTerminal):
		tab.Kind = tabs.KindTerminal
	case string(tabs.KindWeb):
		if req.URL == "" {
			return TabID{}, newError(CodeInvalidRequest, "web tab needs a url")
		}
		tab.Kind = tabs.KindWeb
	default:
		return TabID{}, newError(CodeInvalidRequest, "unknown tab kind %q", req.Kind)
	}
	return idFor(a.registry.Open(tab)), nil
}

// CloseTab closes the tab, the active one when id is nil. It reports
// whether the registry emptied, which tells the host it may quit.
func (a *Adapter) CloseTab(id *TabID) (bool, error) {
	h, err := a.resolve(id)
	if err != nil {
		return false, err
	}
	if _, ok := a.registry.CloseTab(h); !ok {
		return false, newError(CodeNotFound, "tab not found")
	}
	return a.registry.Len() == 0, nil
}

// SelectTab moves focus per the selection. Selecting the tab that is
// already active succeeds without effect.
func (a *Adapter) SelectTab(sel TabSelection) error {
	var (
		h  tabs.Handle
		ok bool
	)
	switch sel.Type {
	case SelectActive:
		return nil
	case SelectNext:
		h, ok = a.registry.SelectNext()
	case SelectPrevious:
		h, ok = a.registry.SelectPrevious()
	case SelectLast:
		h, ok = a.registry.SelectLast()
	case SelectByIndex:
		h, ok = a.registry.SelectByIndex(sel.Index)
	case SelectByID:
		if sel.TabID == nil {
			return newError(CodeInvalidRequest, "by_id selection needs tab_id")
		}
		h = sel.TabID.handle()
		_, ok = a.registry.Get(h)
	default:
		return newError(CodeInvalidRequest, "unknown selection type %q", sel.Type)
	}
	if !ok {
		return newError(CodeNotFound, "tab not found")
	}
	a.registry.FocusTab(h)
	return nil
}

// MoveTab applies the same placement rules as a panel drop: nil group opens
// a new group, nil index appends, ids read as they were before the move.
func (a *Adapter) MoveTab(id TabID, targetGroup, targetIndex *int) error {
	if targetGroup != nil && *targetGroup < 0 {
		return newError(CodeInvalidRequest, "group id must not be negative")
	}
	if targetIndex != nil && *targetIndex < 0 {
		return newError(CodeInvalidRequest, "index must not be negative")
	}
	h := id.handle()
	if a.registry.MoveTab(h, targetGroup, targetIndex) {
		return nil
	}
	// The only rejected move of a live tab is into its own single-tab
	// group, where it already sits at the requested spot.
	if gid, _, ok := a.registry.GroupForTab(h); ok && targetGroup != nil && *targetGroup == gid {
		return nil
	}
	return newError(CodeNotFound, "tab not found")
}

// MoveGroup reorders a whole group. Asking for the position it already
// holds succeeds without effect.
func (a *Adapter) MoveGroup(groupID, targetIndex int) error {
	if targetIndex < 0 {
		return newError(CodeInvalidRequest, "index must not be negative")
	}
	if !a.groupKnown(groupID) {
		return newError(CodeNotFound, "group %d not found", groupID)
	}
	a.registry.MoveGroup(groupID, targetIndex)
	return nil
}

// RenameTab sets or clears the custom title, the active tab's when id is
// nil. Repeating an applied rename succeeds.
func (a *Adapter) RenameTab(id *TabID, title *string) error {
	h, err := a.resolve(id)
	if err != nil {
		return err
	}
	if _, ok := a.registry.Get(h); !ok {
		return newError(CodeNotFound, "tab not found")
	}
	a.registry.SetCustomTitle(h, title)
	return nil
}

// RenameGroup sets or clears a group's name.
func (a *Adapter) RenameGroup(groupID int, name *string) error {
	if !a.groupKnown(groupID) {
		return newError(CodeNotFound, "group %d not found", groupID)
	}
	a.registry.SetGroupName(groupID, name)
	return nil
}

// SetTitle replaces the reported title, the active tab's when id is nil.
// Custom titles are untouched.
func (a *Adapter) SetTitle(id *TabID, title string) error {
	h, err := a.resolve(id)
	if err != nil {
		return err
	}
	if _, ok := a.registry.Get(h); !ok {
		return newError(CodeNotFound, "tab not found")
	}
	a.registry.SetTitle(h, title)
	return nil
}

// resolve maps a nil id onto the active tab.
func (a *Adapter) resolve(id *TabID) (tabs.Handle, error) {
	if id != nil {
		return id.handle(), nil
	}
	h, ok := a.registry.Active()
	if !ok {
		return tabs.Handle{}, newError(CodeNotFound, "no active tab")
	}
	return h, nil
}

func (a *Adapter) groupKnown(id int) bool {
	for _, group := range a.registry.Groups() {
		if group.ID == id {
			return true
		}
	}
	return false
}

func (a *Adapter) tabState(tab *tabs.Tab, groupID, index int, now time.Time) TabState {
	state := TabState{
		TabID:       idFor(tab.Handle),
		GroupID:     groupID,
		Index:       index,
		IsActive:    tab.IsActive,
		Title:       tab.Title,
		CustomTitle: copyString(tab.CustomTitle),
		ProgramName: tab.ProgramName,
		Kind:        tab.Kind,
		URL:         tab.URL,
	}
	if tab.Kind != tabs.KindWeb {
		activity := TabActivity{HasUnseenOutput: tab.Activity.HasUnseen}
		if !tab.Activity.LastOutput.IsZero() {
			since := now.Sub(tab.Activity.LastOutput)
			if since < 0 {
				since = 0
			}
			ms := uint64(since / time.Millisecond)
			activity.LastOutputMSAgo = &ms
		}
		state.Activity = &activity
	}
	return state
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

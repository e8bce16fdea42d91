package tabs

import (
	"strconv"
	"time"
)

// Group is an ordered run of tabs shown under one header in the panel.
// Group ids are 1-based and contiguous: pruning an emptied group renumbers
// the rest so id always equals position+1.
type Group struct {
	ID   int
	Name *string
	Tabs []Handle
}

// Registry owns every open tab and the grouping the panel renders. All
// mutation goes through it so the group list, the active handle, and the
// arena never disagree.
type Registry struct {
	arena       arena
	groups      []*Group
	active      *Handle
	nextGroupID int
}

func NewRegistry() *Registry {
	return &Registry{nextGroupID: 1}
}

// Open stores tab, places it after the active tab's group mates, and returns
// the new handle. The first tab opened creates a group and becomes active.
func (r *Registry) Open(tab Tab) Handle {
	h := r.arena.allocate()
	tab.Handle = h
	tab.Title = sanitizeTitle(tab.Title)

	if len(r.groups) == 0 {
		r.groups = append(r.groups, r.newGroup())
	}
	group := r.groups[0]
	if r.active != nil {
		if origin, _, ok := r.groupForTab(*r.active); ok {
			group = origin
		}
	}
	group.Tabs = append(group.Tabs, h)

	if r.active == nil {
		tab.IsActive = true
		active := h
		r.active = &active
	}
	r.arena.insert(h, tab)
	return h
}

// Get resolves a handle to its tab. Stale handles resolve to nothing.
func (r *Registry) Get(h Handle) (*Tab, bool) {
	return r.arena.get(h)
}

// Len reports how many tabs are open.
func (r *Registry) Len() int {
	return r.arena.len()
}

// Active returns the handle of the active tab, if any.
func (r *Registry) Active() (Handle, bool) {
	if r.active == nil {
		return Handle{}, false
	}
	return *r.active, true
}

// CloseTab removes the tab from the arena and from its group, pruning the
// group if it empties. Closing the active tab moves activation to the first
// remaining tab in group order. The removed tab is returned so the caller
// can tear down whatever it was running.
func (r *Registry) CloseTab(h Handle) (Tab, bool) {
	tab, ok := r.arena.remove(h)
	if !ok {
		return Tab{}, false
	}
	for _, group := range r.groups {
		group.Tabs = removeHandle(group.Tabs, h)
	}
	r.pruneGroups()

	if r.active != nil && *r.active == h {
		r.active = nil
		if ordered := r.OrderedTabs(); len(ordered) > 0 {
			r.FocusTab(ordered[0])
		}
	}
	return tab, true
}

// FocusTab makes h the active tab and marks its output seen. It reports
// false when h is stale or already active.
func (r *Registry) FocusTab(h Handle) bool {
	tab, ok := r.arena.get(h)
	if !ok {
		return false
	}
	if r.active != nil && *r.active == h {
		return false
	}
	if r.active != nil {
		if old, ok := r.arena.get(*r.active); ok {
			old.IsActive = false
		}
	}
	tab.IsActive = true
	if tab.Kind != KindWeb {
		tab.Activity.HasUnseen = false
	}
	active := h
	r.active = &active
	return true
}

// MoveTab places h at targetIndex within the group numbered targetGroup.
// A nil or unknown group id opens a new group at the end of the list.
// Callers pass group ids as they looked before the move; when the origin
// group empties and disappears, ids past it are shifted down to keep
// pointing at the same groups. Moving the only tab of a group into that
// same group is rejected. A nil index, or one past the end, appends.
func (r *Registry) MoveTab(h Handle, targetGroup, targetIndex *int) bool {
	if _, ok := r.arena.get(h); !ok {
		return false
	}

	origin, originIndex, ok := r.groupForTab(h)
	if !ok {
		return false
	}
	originLen := len(origin.Tabs)
	if targetGroup != nil && *targetGroup == origin.ID && originLen <= 1 {
		return false
	}

	originRemoved := originLen == 1 && (targetGroup == nil || *targetGroup != origin.ID)
	if originRemoved && targetGroup != nil && *targetGroup > origin.ID {
		shifted := *targetGroup - 1
		targetGroup = &shifted
	}

	for _, group := range r.groups {
		group.Tabs = removeHandle(group.Tabs, h)
	}
	r.pruneGroups()

	var dest *Group
	if targetGroup != nil {
		dest = r.groupByID(*targetGroup)
	}
	if dest == nil {
		dest = r.newGroup()
		r.groups = append(r.groups, dest)
	}

	index := targetIndex
	if dest == origin && index != nil && *index > originIndex {
		shifted := *index - 1
		index = &shifted
	}

	insert := len(dest.Tabs)
	if index != nil && *index < insert {
		insert = *index
	}
	if insert < 0 {
		insert = 0
	}
	dest.Tabs = append(dest.Tabs, Handle{})
	copy(dest.Tabs[insert+1:], dest.Tabs[insert:])
	dest.Tabs[insert] = h
	return true
}

// MoveGroup reorders the group numbered id to sit at targetIndex in the
// pre-move list. It reports false for unknown ids and for moves that would
// leave the order unchanged.
func (r *Registry) MoveGroup(id, targetIndex int) bool {
	from := -1
	for i, group := range r.groups {
		if group.ID == id {
			from = i
			break
		}
	}
	if from < 0 {
		return false
	}

	if targetIndex < 0 {
		targetIndex = 0
	}
	if targetIndex > len(r.groups) {
		targetIndex = len(r.groups)
	}
	insert := targetIndex
	if targetIndex > from {
		insert = targetIndex - 1
	}
	if insert == from {
		return false
	}

	group := r.groups[from]
	r.groups = append(r.groups[:from], r.groups[from+1:]...)
	r.groups = append(r.groups, nil)
	copy(r.groups[insert+1:], r.groups[insert:])
	r.groups[insert] = group
	return true
}

// SetTitle replaces the tab's reported title, reporting whether it changed.
// Escape sequences and control characters are stripped first.
func (r *Registry) SetTitle(h Handle, title string) bool {
	tab, ok := r.arena.get(h)
	if !ok {
		return false
	}
	title = sanitizeTitle(title)
	if tab.Title == title {
		return false
	}
	tab.Title = title
	return true
}

// SetCustomTitle sets or clears the user-assigned title.
func (r *Registry) SetCustomTitle(h Handle, title *string) bool {
	tab, ok := r.arena.get(h)
	if !ok {
		return false
	}
	if equalOptional(tab.CustomTitle, title) {
		return false
	}
	tab.CustomTitle = cloneOptional(title)
	return true
}

// SetProgramName records the foreground program for label fallback.
func (r *Registry) SetProgramName(h Handle, name string) bool {
	tab, ok := r.arena.get(h)
	if !ok {
		return false
	}
	if tab.ProgramName == name {
		return false
	}
	tab.ProgramName = name
	return true
}

// SetGroupName sets or clears a group's display name.
func (r *Registry) SetGroupName(id int, name *string) bool {
	group := r.groupByID(id)
	if group == nil {
		return false
	}
	if equalOptional(group.Name, name) {
		return false
	}
	group.Name = cloneOptional(name)
	return true
}

// GroupName returns the group's assigned name, if it has one.
func (r *Registry) GroupName(id int) (string, bool) {
	group := r.groupByID(id)
	if group == nil || group.Name == nil {
		return "", false
	}
	return *group.Name, true
}

// GroupForTab reports which group holds h and at what position.
func (r *Registry) GroupForTab(h Handle) (groupID, index int, ok bool) {
	group, index, ok := r.groupForTab(h)
	if !ok {
		return 0, 0, false
	}
	return group.ID, index, true
}

// NoteOutput records terminal output on h at now. Output on a tab that is
// not active marks it unseen until the tab is next focused. Web tabs carry
// no activity and are ignored.
func (r *Registry) NoteOutput(h Handle, now time.Time) {
	tab, ok := r.arena.get(h)
	if !ok || tab.Kind == KindWeb {
		return
	}
	tab.Activity.LastOutput = now
	tab.Activity.HasUnseen = !tab.IsActive
}

// HasActiveOutput reports whether any terminal tab produced output within
// the activity window ending at now.
func (r *Registry) HasActiveOutput(now time.Time) bool {
	for _, group := range r.groups {
		for _, h := range group.Tabs {
			tab, ok := r.arena.get(h)
			if ok && tab.Kind != KindWeb && tab.Activity.Active(now) {
				return true
			}
		}
	}
	return false
}

// OrderedTabs flattens the groups into one slice, group order first, tab
// order within each group second. Stale handles are skipped.
func (r *Registry) OrderedTabs() []Handle {
	var ordered []Handle
	for _, group := range r.groups {
		for _, h := range group.Tabs {
			if _, ok := r.arena.get(h); ok {
				ordered = append(ordered, h)
			}
		}
	}
	return ordered
}

// SelectNext returns the tab after the active one in global order, wrapping
// at the end. It does not change focus.
func (r *Registry) SelectNext() (Handle, bool) {
	ordered := r.OrderedTabs()
	pos, ok := r.activePosition(ordered)
	if !ok {
		return Handle{}, false
	}
	return ordered[(pos+1)%len(ordered)], true
}

// SelectPrevious returns the tab before the active one, wrapping at the
// start. It does not change focus.
func (r *Registry) SelectPrevious() (Handle, bool) {
	ordered := r.OrderedTabs()
	pos, ok := r.activePosition(ordered)
	if !ok {
		return Handle{}, false
	}
	if pos == 0 {
		pos = len(ordered)
	}
	return ordered[pos-1], true
}

// SelectLast returns the final tab in global order.
func (r *Registry) SelectLast() (Handle, bool) {
	ordered := r.OrderedTabs()
	if len(ordered) == 0 {
		return Handle{}, false
	}
	return ordered[len(ordered)-1], true
}

// SelectByIndex returns the tab at position index in global order.
func (r *Registry) SelectByIndex(index int) (Handle, bool) {
	ordered := r.OrderedTabs()
	if index < 0 || index >= len(ordered) {
		return Handle{}, false
	}
	return ordered[index], true
}

// PanelGroup is the renderable projection of one group.
type PanelGroup struct {
	ID    int
	Label string
	Tabs  []PanelTab
}

// PanelTab is the renderable projection of one tab. Activity is nil for web
// tabs, which never show an indicator.
type PanelTab struct {
	Handle   Handle
	Label    string
	Kind     Kind
	IsActive bool
	Activity *Activity
}

// PanelGroups projects the registry into what the panel draws. Unnamed
// groups are labeled "group {id}". Stale handles are dropped.
func (r *Registry) PanelGroups() []PanelGroup {
	groups := make([]PanelGroup, 0, len(r.groups))
	for _, group := range r.groups {
		pg := PanelGroup{ID: group.ID, Label: group.Label()}
		for _, h := range group.Tabs {
			tab, ok := r.arena.get(h)
			if !ok {
				continue
			}
			pt := PanelTab{
				Handle:   h,
				Label:    tab.Label(),
				Kind:     tab.Kind,
				IsActive: r.active != nil && *r.active == h,
			}
			if tab.Kind != KindWeb {
				activity := tab.Activity
				pt.Activity = &activity
			}
			pg.Tabs = append(pg.Tabs, pt)
		}
		groups = append(groups, pg)
	}
	return groups
}

// Groups exposes the live group list for read-only walks.
func (r *Registry) Groups() []*Group {
	return r.groups
}

// NextGroupID reports the id the next created group will take.
func (r *Registry) NextGroupID() int {
	return r.nextGroupID
}

// Label resolves the display label, falling back to "group {id}" when the
// group has no non-empty name.
func (g *Group) Label() string {
	if g.Name != nil && *g.Name != "" {
		return *g.Name
	}
	return "group " + strconv.Itoa(g.ID)
}

func (r *Registry) newGroup() *Group {
	group := &Group{ID: r.nextGroupID}
	r.nextGroupID++
	return group
}

func (r *Registry) groupByID(id int) *Group {
	for _, group := range r.groups {
		if group.ID == id {
			return group
		}
	}
	return nil
}

func (r *Registry) groupForTab(h Handle) (*Group, int, bool) {
	for _, group := range r.groups {
		for i, tab := range group.Tabs {
			if tab == h {
				return group, i, true
			}
		}
	}
	return nil, 0, false
}

// pruneGroups drops empty groups and renumbers the survivors so ids stay
// contiguous from 1.
func (r *Registry) pruneGroups() {
	kept := r.groups[:0]
	for _, group := range r.groups {
		if len(group.Tabs) > 0 {
			kept = append(kept, group)
		}
	}
	for i := len(kept); i < len(r.groups); i++ {
		r.groups[i] = nil
	}
	r.groups = kept
	for i, group := range r.groups {
		group.ID = i + 1
	}
	r.nextGroupID = len(r.groups) + 1
}

func (r *Registry) activePosition(ordered []Handle) (int, bool) {
	if r.active == nil || len(ordered) == 0 {
		return 0, false
	}
	for i, h := range ordered {
		if h == *r.active {
			return i, true
		}
	}
	return 0, false
}

func removeHandle(tabs []Handle, h Handle) []Handle {
	kept := tabs[:0]
	for _, tab := range tabs {
		if tab != h {
			kept = append(kept, tab)
		}
	}
	return kept
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}


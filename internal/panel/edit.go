package panel

import (
	"unicode"

	"github.com/tabrail/tabrail/internal/tabs"
)

// EditTargetKind says whether an inline edit renames a tab or a group.
type EditTargetKind string

const (
	EditTargetTab   EditTargetKind = "tab"
	EditTargetGroup EditTargetKind = "group"
)

// EditTarget names what an inline edit applies to.
type EditTarget struct {
	Kind  EditTargetKind
	Tab   tabs.Handle
	Group int
}

// EditCommit carries the finished edit back to the owner.
type EditCommit struct {
	Target EditTarget
	Text   string
}

// EditOutcomeKind classifies what a key did to the edit.
type EditOutcomeKind string

const (
	EditNone      EditOutcomeKind = "none"
	EditChanged   EditOutcomeKind = "changed"
	EditCommitted EditOutcomeKind = "committed"
	EditCancelled EditOutcomeKind = "cancelled"
)

// EditOutcome is the result of feeding a key to a live edit. Commit is set
// only when Kind is EditCommitted.
type EditOutcome struct {
	Kind   EditOutcomeKind
	Commit *EditCommit
}

// KeyName identifies the named keys the edit reacts to. The empty name
// means plain text input carried in Key.Text.
type KeyName string

const (
	KeyEscape    KeyName = "escape"
	KeyEnter     KeyName = "enter"
	KeyBackspace KeyName = "backspace"
	KeyDelete    KeyName = "delete"
	KeyLeft      KeyName = "left"
	KeyRight     KeyName = "right"
	KeyHome      KeyName = "home"
	KeyEnd       KeyName = "end"
	KeyTab       KeyName = "tab"
)

// Key is one key event forwarded to the edit.
type Key struct {
	Name KeyName
	Text string
}

type editState struct {
	target EditTarget
	text   []rune
	cursor int
}

// IsEditing reports whether an inline edit is live.
func (p *Panel) IsEditing() bool {
	return p.edit != nil
}

// BeginEditTab starts renaming a tab, seeded with its current title.
func (p *Panel) BeginEditTab(tab tabs.Handle, title string) bool {
	return p.beginEdit(EditTarget{Kind: EditTargetTab, Tab: tab}, title)
}

// BeginEditGroup starts renaming a group, seeded with its current name.
func (p *Panel) BeginEditGroup(group int, name string) bool {
	return p.beginEdit(EditTarget{Kind: EditTargetGroup, Group: group}, name)
}

// CancelEdit drops the live edit, reporting whether there was one.
func (p *Panel) CancelEdit() bool {
	if p.edit == nil {
		return false
	}
	p.edit = nil
	return true
}

// ActiveEdit exposes the live edit for rendering: its target, text, and
// cursor position in runes.
func (p *Panel) ActiveEdit() (EditTarget, string, int, bool) {
	if p.edit == nil {
		return EditTarget{}, "", 0, false
	}
	return p.edit.target, string(p.edit.text), p.edit.cursor, true
}

func (p *Panel) beginEdit(target EditTarget, text string) bool {
	runes := []rune(text)
	next := &editState{target: target, text: runes, cursor: len(runes)}
	changed := p.edit == nil || !p.edit.equal(next)
	p.edit = next
	p.drag = nil
	p.resize = nil
	p.dropTarget = nil
	return changed
}

func (p *Panel) validateEditTarget() {
	if p.edit == nil {
		return
	}

	valid := false
	switch p.edit.target.Kind {
	case EditTargetTab:
		for _, group := range p.groups {
			for _, tab := range group.Tabs {
				if tab.Handle == p.edit.target.Tab {
					valid = true
				}
			}
		}
	case EditTargetGroup:
		for _, group := range p.groups {
			if group.ID == p.edit.target.Group {
				valid = true
			}
		}
	}

	if !valid {
		p.edit = nil
	}
}

func (p *Panel) takeEditCommit() EditCommit {
	edit := p.edit
	p.edit = nil
	return EditCommit{Target: edit.target, Text: string(edit.text)}
}

// HandleKey feeds one key to the live edit. Without a live edit every key
// reports EditNone and is left for the owner to route elsewhere.
func (p *Panel) HandleKey(key Key) EditOutcome {
	if p.edit == nil {
		return EditOutcome{Kind: EditNone}
	}

	switch key.Name {
	case KeyEscape:
		p.edit = nil
		return EditOutcome{Kind: EditCancelled}
	case KeyEnter:
		commit := p.takeEditCommit()
		return EditOutcome{Kind: EditCommitted, Commit: &commit}
	case KeyBackspace:
		if p.edit.backspace() {
			return EditOutcome{Kind: EditChanged}
		}
		return EditOutcome{Kind: EditNone}
	case KeyDelete:
		if p.edit.deleteForward() {
			return EditOutcome{Kind: EditChanged}
		}
		return EditOutcome{Kind: EditNone}
	case KeyLeft:
		if p.edit.moveLeft() {
			return EditOutcome{Kind: EditChanged}
		}
		return EditOutcome{Kind: EditNone}
	case KeyRight:
		if p.edit.moveRight() {
			return EditOutcome{Kind: EditChanged}
		}
		return EditOutcome{Kind: EditNone}
	case KeyHome:
		if p.edit.moveHome() {
			return EditOutcome{Kind: EditChanged}
		}
		return EditOutcome{Kind: EditNone}
	case KeyEnd:
		if p.edit.moveEnd() {
			return EditOutcome{Kind: EditChanged}
		}
		return EditOutcome{Kind: EditNone}
	case KeyTab:
		return EditOutcome{Kind: EditNone}
	}

	if p.edit.insertText(key.Text) {
		return EditOutcome{Kind: EditChanged}
	}
	return EditOutcome{Kind: EditNone}
}

// HandleIME feeds composed IME text to the live edit.
func (p *Panel) HandleIME(text string) EditOutcome {
	if p.edit == nil {
		return EditOutcome{Kind: EditNone}
	}
	if p.edit.insertText(text) {
		return EditOutcome{Kind: EditChanged}
	}
	return EditOutcome{Kind: EditNone}
}

func (e *editState) equal(other *editState) bool {
	if e.target != other.target || e.cursor != other.cursor || len(e.text) != len(other.text) {
		return false
	}
	for i := range e.text {
		if e.text[i] != other.text[i] {
			return false
		}
	}
	return true
}

func (e *editState) moveLeft() bool {
	if e.cursor == 0 {
		return false
	}
	e.cursor--
	return true
}

func (e *editState) moveRight() bool {
	if e.cursor >= len(e.text) {
		return false
	}
	e.cursor++
	return true
}

func (e *editState) moveHome() bool {
	if e.cursor == 0 {
		return false
	}
	e.cursor = 0
	return true
}

func (e *editState) moveEnd() bool {
	if e.cursor == len(e.text) {
		return false
	}
	e.cursor = len(e.text)
	return true
}

func (e *editState) backspace() bool {
	if e.cursor == 0 {
		return false
	}
	e.text = append(e.text[:e.cursor-1], e.text[e.cursor:]...)
	e.cursor--
	return true
}

func (e *editState) deleteForward() bool {
	if e.cursor >= len(e.text) {
		return false
	}
	e.text = append(e.text[:e.cursor], e.text[e.cursor+1:]...)
	return true
}

func (e *editState) insertText(text string) bool {
	filtered := make([]rune, 0, len(text))
	for _, ch := range text {
		if !unicode.IsControl(ch) {
			filtered = append(filtered, ch)
		}
	}
	if len(filtered) == 0 {
		return false
	}

	next := make([]rune, 0, len(e.text)+len(filtered))
	next = append(next, e.text[:e.cursor]...)
	next = append(next, filtered...)
	next = append(next, e.text[e.cursor:]...)
	e.text = next
	e.cursor += len(filtered)
	return true
}

// RenderEditText splices the cursor bar into the text at the rune position,
// clamped to the text length.
func RenderEditText(text string, cursor int) string {
	runes := []rune(text)
	if cursor > len(runes) {
		cursor = len(runes)
	}
	if cursor < 0 {
		cursor = 0
	}

	out := make([]rune, 0, len(runes)+1)
	out = append(out, runes[:cursor]...)
	out = append(out, '|')
	out = append(out, runes[cursor:]...)
	return string(out)
}

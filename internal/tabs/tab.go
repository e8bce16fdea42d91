package tabs

import (
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// activeOutputWindow is how long after the last output a tab still counts as
// actively producing output.
const activeOutputWindow = 3000 * time.Millisecond

// Kind identifies what a tab hosts.
type Kind string

const (
	KindTerminal Kind = "terminal"
	KindWeb      Kind = "web"
)

// Activity tracks terminal output for a tab. Web tabs carry none.
type Activity struct {
	LastOutput time.Time
	HasUnseen  bool
}

// Active reports whether output arrived within the active window.
func (a Activity) Active(now time.Time) bool {
	return !a.LastOutput.IsZero() && now.Sub(a.LastOutput) <= activeOutputWindow
}

// Tab is the payload owned by an arena slot.
type Tab struct {
	Handle      Handle
	Title       string
	CustomTitle *string
	ProgramName string
	Kind        Kind
	URL         string
	Activity    Activity
	IsActive    bool
}

// Label resolves the display title: a custom title wins, then the program
// name for terminal tabs, then the raw title. Web tabs ignore the program
// name.
func (t *Tab) Label() string {
	if t.CustomTitle != nil && *t.CustomTitle != "" {
		return *t.CustomTitle
	}

	if t.Kind != KindWeb && t.ProgramName != "" {
		return t.ProgramName
	}

	return t.Title
}

// sanitizeTitle strips ANSI escapes and control runes from titles arriving
// off the backend before they are stored.
func sanitizeTitle(s string) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

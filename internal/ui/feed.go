package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/tabrail/tabrail/internal/tabs"
)

// feedInterval paces the demo feed to roughly one event per second, slow
// enough to watch the indicators come and go.
const feedInterval = 900 * time.Millisecond

// Feed fabricates the backend traffic a real host would deliver: it opens a
// few tabs, retitles them as programs come and go, and keeps emitting
// output notifications. It spawns nothing; every event is staged.
type Feed struct {
	limiter *rate.Limiter
}

func NewFeed() *Feed {
	return &Feed{limiter: rate.NewLimiter(rate.Every(feedInterval), 1)}
}

// script is the fixed opening sequence. Tab ordinals count feed-opened
// tabs, so 0 is the editor, 1 the build terminal, 2 the docs page.
func (f *Feed) script() []tea.Msg {
	return []tea.Msg{
		FeedOpenMsg{Kind: tabs.KindTerminal, Title: "~", Program: "vim"},
		FeedOpenMsg{Kind: tabs.KindTerminal, Title: "make all"},
		FeedOpenMsg{Kind: tabs.KindWeb, Title: "Go Packages", URL: "https://pkg.go.dev"},
		FeedTitleMsg{Tab: 0, Title: "notes.md"},
		FeedOutputMsg{Tab: 1},
		FeedProgramMsg{Tab: 1, Program: "make"},
		FeedOutputMsg{Tab: 0},
		FeedTitleMsg{Tab: 1, Title: "make test"},
	}
}

// Run plays the script, then cycles output across the terminal tabs until
// ctx ends. send is safe to call from this goroutine; tea.Program.Send fits.
func (f *Feed) Run(ctx context.Context, send func(tea.Msg)) error {
	for _, msg := range f.script() {
		if err := f.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		send(msg)
	}

	terminals := []int{0, 1}
	next := 0
	for {
		if err := f.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		send(FeedOutputMsg{Tab: terminals[next]})
		next = (next + 1) % len(terminals)
	}
}

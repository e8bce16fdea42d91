package ui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/tabrail/tabrail/internal/tabs"
)

// collectFeed runs the feed until count messages arrived, then cancels it
// and waits for Run to return.
func collectFeed(t *testing.T, f *Feed, count int) []tea.Msg {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs := make(chan tea.Msg, count)
	done := make(chan error, 1)
	go func() {
		done <- f.Run(ctx, func(msg tea.Msg) {
			select {
			case msgs <- msg:
			case <-ctx.Done():
			}
		})
	}()

	got := make([]tea.Msg, 0, count)
	for len(got) < count {
		select {
		case msg := <-msgs:
			got = append(got, msg)
		case <-time.After(2 * time.Second):
			t.Fatalf("Timeout waiting for feed message %d", len(got))
		}
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for feed to stop after cancel")
	}
	return got
}

func TestFeedOpensTabsBeforeTouchingThem(t *testing.T) {
	f := &Feed{limiter: rate.NewLimiter(rate.Inf, 1)}

	got := collectFeed(t, f, 8)

	for i := 0; i < 3; i++ {
		open, ok := got[i].(FeedOpenMsg)
		require.True(t, ok, "message %d should open a tab", i)
		if i == 2 {
			assert.Equal(t, tabs.KindWeb, open.Kind)
			assert.NotEmpty(t, open.URL)
		} else {
			assert.Equal(t, tabs.KindTerminal, open.Kind)
		}
	}

	for i, msg := range got[3:] {
		ordinal := -1
		switch msg := msg.(type) {
		case FeedTitleMsg:
			ordinal = msg.Tab
		case FeedProgramMsg:
			ordinal = msg.Tab
		case FeedOutputMsg:
			ordinal = msg.Tab
		default:
			t.Fatalf("message %d has unexpected type %T", i+3, msg)
		}
		assert.GreaterOrEqual(t, ordinal, 0)
		assert.Less(t, ordinal, 3, "message %d references a tab the feed never opened", i+3)
	}
}

func TestFeedKeepsEmittingOutputAfterScript(t *testing.T) {
	f := &Feed{limiter: rate.NewLimiter(rate.Inf, 1)}

	got := collectFeed(t, f, 12)

	tail := got[8:]
	seen := map[int]bool{}
	for i, msg := range tail {
		output, ok := msg.(FeedOutputMsg)
		require.True(t, ok, "post-script message %d should be an output notification", i)
		seen[output.Tab] = true
	}
	assert.True(t, seen[0] && seen[1], "output should rotate across both terminal tabs")
}

func TestFeedReturnsNilWhenContextAlreadyCancelled(t *testing.T) {
	f := NewFeed()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sent := false
	err := f.Run(ctx, func(tea.Msg) { sent = true })

	require.NoError(t, err)
	assert.False(t, sent, "a cancelled feed should not deliver messages")
}

func TestFeedStopsWhileWaitingForNextEvent(t *testing.T) {
	f := &Feed{limiter: rate.NewLimiter(rate.Every(time.Hour), 1)}
	ctx, cancel := context.WithCancel(context.Background())

	msgs := make(chan tea.Msg, 1)
	done := make(chan error, 1)
	go func() {
		done <- f.Run(ctx, func(msg tea.Msg) {
			select {
			case msgs <- msg:
			default:
			}
		})
	}()

	select {
	case <-msgs:
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for the first feed message")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for feed to stop mid-wait")
	}
}

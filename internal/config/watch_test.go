package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, path string) (*Watcher, context.CancelFunc, chan error) {
	t.Helper()

	w, err := NewWatcher(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// Give the watch loop a moment to come up.
	time.Sleep(100 * time.Millisecond)
	return w, cancel, done
}

func TestWatcherDeliversReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, Save(path, Default()))

	w, cancel, done := startWatcher(t, path)

	next := Default()
	next.Theme = ThemeDark
	require.NoError(t, Save(path, next))

	select {
	case cfg := <-w.Updates():
		assert.Equal(t, ThemeDark, cfg.Theme)
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for config reload")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherCoalescesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, Save(path, Default()))

	w, cancel, done := startWatcher(t, path)

	// Ten rapid writes, all inside one debounce window.
	for i := 0; i < 10; i++ {
		cfg := Default()
		cfg.Panel.WidthCols = 20 + i
		require.NoError(t, Save(path, cfg))
		time.Sleep(5 * time.Millisecond)
	}

	count := 0
	deadline := time.After(600 * time.Millisecond)
Loop:
	for {
		select {
		case <-w.Updates():
			count++
		case <-deadline:
			break Loop
		}
	}

	assert.GreaterOrEqual(t, count, 1, "Expected at least one reload")
	assert.LessOrEqual(t, count, 2, "Expected reloads to be coalesced")

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherKeepsRunningAfterBrokenEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, Save(path, Default()))

	w, cancel, done := startWatcher(t, path)

	// A half-finished edit must not surface as an update.
	require.NoError(t, os.WriteFile(path, []byte("theme = ["), 0o644))

	select {
	case cfg := <-w.Updates():
		t.Fatalf("unexpected update for broken file: %+v", cfg)
	case <-time.After(300 * time.Millisecond):
	}

	next := Default()
	next.Theme = ThemeLight
	require.NoError(t, Save(path, next))

	select {
	case cfg := <-w.Updates():
		assert.Equal(t, ThemeLight, cfg.Theme)
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for config reload")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, Save(path, Default()))

	w, cancel, done := startWatcher(t, path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("scratch"), 0o644))

	select {
	case cfg := <-w.Updates():
		t.Fatalf("unexpected update for sibling file: %+v", cfg)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}

func TestNewWatcherCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh", "config.toml")

	w, err := NewWatcher(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

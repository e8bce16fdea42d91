package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("theme = \"dark\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, cfg.Theme)
	assert.Equal(t, Default().Panel.WidthCols, cfg.Panel.WidthCols)
	assert.False(t, cfg.Log.Debug)
}

func TestLoadNormalizesInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	raw := "theme = \"neon\"\n[panel]\nwidth_cols = -3\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ThemeAuto, cfg.Theme)
	assert.Equal(t, Default().Panel.WidthCols, cfg.Panel.WidthCols)
}

func TestLoadBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("theme = ["), 0o644))

	cfg, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.Equal(t, Default(), cfg)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	want := Config{
		Theme: ThemeLight,
		Panel: PanelConfig{WidthCols: 31},
		Log:   LogConfig{File: "/tmp/tabrail.log", Debug: true},
	}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, Save(path, Default()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "config.toml", entries[0].Name())
}

func TestSetPanelWidthColsKeepsOtherFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	seed := Default()
	seed.Theme = ThemeDark
	require.NoError(t, Save(path, seed))

	cfg, err := SetPanelWidthCols(path, 31)
	require.NoError(t, err)
	assert.Equal(t, 31, cfg.Panel.WidthCols)
	assert.Equal(t, ThemeDark, cfg.Theme)

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)
}

func TestSetPanelWidthColsFloorsAtOne(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := SetPanelWidthCols(path, -10)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Panel.WidthCols)
}

func TestLogPath(t *testing.T) {
	configPath := "/home/u/.config/tabrail/config.toml"

	cfg := Default()
	assert.Equal(t, "/home/u/.config/tabrail/tabrail.log", cfg.LogPath(configPath))

	cfg.Log.File = "/var/log/tabrail.log"
	assert.Equal(t, "/var/log/tabrail.log", cfg.LogPath(configPath))
}

func TestDirHonorsXDGConfigHome(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	assert.Equal(t, filepath.Join(base, "tabrail"), Dir())
	assert.True(t, strings.HasSuffix(DefaultPath(), filepath.Join("tabrail", "config.toml")))
}

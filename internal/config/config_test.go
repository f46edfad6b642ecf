package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesSomeKeys(t *testing.T) {
	path := writeConfig(t, `
confirmations: false
zoom:
  max: 4
  step: 2
persist:
  debounce_wait: 50ms
  max_wait: 1s
user:
  uid: u-42
  name: Grace
pick_radius: 3
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Confirmations)
	assert.Equal(t, 4.0, cfg.Zoom.Max)
	assert.Equal(t, 2.0, cfg.Zoom.Step)
	assert.Equal(t, 0.1, cfg.Zoom.Min, "unset keys keep defaults")
	assert.Equal(t, 50*time.Millisecond, cfg.Persist.DebounceWait)
	assert.Equal(t, time.Second, cfg.Persist.MaxWait)
	assert.Equal(t, User{UID: "u-42", Name: "Grace"}, cfg.User)
	assert.Equal(t, 3.0, cfg.PickRadius)
	assert.Equal(t, 2048.0, cfg.GridExtent)
}

func TestMalformedFileIsAnError(t *testing.T) {
	_, err := Load(writeConfig(t, "zoom: [1, 2"))
	assert.Error(t, err)
}

func TestInvalidValues(t *testing.T) {
	tests := map[string]string{
		"zero min":       "zoom: {min: 0}",
		"max below min":  "zoom: {min: 2, max: 1}",
		"step too small": "zoom: {step: 1}",
		"max wait":       "persist: {debounce_wait: 2s, max_wait: 1s}",
		"negative pick":  "pick_radius: -1",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestSaveDirectoryExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfg, err := Load(writeConfig(t, "save_directory: ~/diagrams\ncatalog: ~/parts.yaml\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "diagrams"), cfg.SaveDirectory)
	assert.Equal(t, filepath.Join(home, "parts.yaml"), cfg.Catalog)
	assert.Equal(t, cfg.SaveDirectory, cfg.DocumentDir())
}

func TestGetSavePath(t *testing.T) {
	cfg := Default()
	got, err := cfg.GetSavePath("out.png")
	require.NoError(t, err)
	assert.Equal(t, "out.png", got)

	cfg.SaveDirectory = filepath.Join(t.TempDir(), "nested", "dir")
	got, err = cfg.GetSavePath("out.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.SaveDirectory, "out.png"), got)
	assert.DirExists(t, cfg.SaveDirectory)

	got, err = cfg.GetSavePath("/abs/out.png")
	require.NoError(t, err)
	assert.Equal(t, "/abs/out.png", got)
}

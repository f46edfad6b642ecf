// Package config loads the editor settings file, ~/.wiredraw.yaml by default.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultFileName = ".wiredraw.yaml"

type Zoom struct {
	Min                float64 `yaml:"min"`
	Max                float64 `yaml:"max"`
	Step               float64 `yaml:"step"`
	FitPadding         float64 `yaml:"fit_padding"`
	MinContentFraction float64 `yaml:"min_content_fraction"`
	Bleed              float64 `yaml:"bleed"`
	PanStep            float64 `yaml:"pan_step"`
}

type Persist struct {
	DebounceWait time.Duration `yaml:"debounce_wait"`
	MaxWait      time.Duration `yaml:"max_wait"`
	Timeout      time.Duration `yaml:"timeout"`
}

type User struct {
	UID  string `yaml:"uid"`
	Name string `yaml:"name"`
}

type Config struct {
	SaveDirectory string `yaml:"save_directory"`
	Confirmations bool   `yaml:"confirmations"`
	// Catalog is an optional parts file merged over the built-in library.
	Catalog      string  `yaml:"catalog"`
	User         User    `yaml:"user"`
	Zoom         Zoom    `yaml:"zoom"`
	Persist      Persist `yaml:"persist"`
	PickRadius   float64 `yaml:"pick_radius"`
	GridExtent   float64 `yaml:"grid_extent"`
	HistoryDepth int     `yaml:"history_depth"`
}

func Default() *Config {
	return &Config{
		Confirmations: true,
		User:          User{UID: "local", Name: os.Getenv("USER")},
		Zoom: Zoom{
			Min:                0.1,
			Max:                10,
			Step:               1.25,
			FitPadding:         0.1,
			MinContentFraction: 0.05,
			Bleed:              0.8,
			PanStep:            40,
		},
		Persist: Persist{
			DebounceWait: 300 * time.Millisecond,
			MaxWait:      2 * time.Second,
			Timeout:      10 * time.Second,
		},
		PickRadius:   6,
		GridExtent:   2048,
		HistoryDepth: 100,
	}
}

// DefaultPath is the settings file in the user's home directory.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, DefaultFileName), nil
}

// Load reads the settings file at path, or DefaultPath when path is empty.
// A missing file yields the defaults; a malformed one is an error. Keys
// left out of the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}
	data, err := os.ReadFile(expandHome(path))
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	if c.SaveDirectory != "" {
		value := expandHome(c.SaveDirectory)
		if !filepath.IsAbs(value) {
			if absPath, err := filepath.Abs(value); err == nil {
				value = absPath
			}
		}
		c.SaveDirectory = value
	}
	if c.Catalog != "" {
		c.Catalog = expandHome(c.Catalog)
	}
	switch {
	case c.Zoom.Min <= 0:
		return errors.New("zoom.min must be positive")
	case c.Zoom.Max < c.Zoom.Min:
		return errors.New("zoom.max must not be below zoom.min")
	case c.Zoom.Step <= 1:
		return errors.New("zoom.step must be greater than 1")
	case c.Persist.DebounceWait <= 0:
		return errors.New("persist.debounce_wait must be positive")
	case c.Persist.MaxWait < c.Persist.DebounceWait:
		return errors.New("persist.max_wait must not be below persist.debounce_wait")
	case c.PickRadius < 0:
		return errors.New("pick_radius must not be negative")
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}

// GetSavePath places filename in the save directory, creating it if
// needed. Without a save directory the name is returned unchanged.
func (c *Config) GetSavePath(filename string) (string, error) {
	if c.SaveDirectory == "" || filepath.IsAbs(filename) {
		return filename, nil
	}
	if err := os.MkdirAll(c.SaveDirectory, 0o755); err != nil {
		return "", fmt.Errorf("config: create %s: %w", c.SaveDirectory, err)
	}
	return filepath.Join(c.SaveDirectory, filename), nil
}

// DocumentDir is where documents are stored: the save directory, or
// ~/.wiredraw when none is set.
func (c *Config) DocumentDir() string {
	if c.SaveDirectory != "" {
		return c.SaveDirectory
	}
	return expandHome("~/.wiredraw")
}

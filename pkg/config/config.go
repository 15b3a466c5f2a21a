// Package config loads and persists statcompass settings from the
// .statcompass/ directory of a project.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/statcompass/statcompass/pkg/layout"
)

// DirName is the per-project settings directory.
const DirName = ".statcompass"

// FileName is the settings file inside DirName.
const FileName = "config.yaml"

// Config holds user-tunable settings. Zero values fall back to defaults at
// load time so a partial config file is fine.
type Config struct {
	// Layout controls node geometry and spacing in every rendering surface.
	Layout layout.Config `yaml:"layout"`

	// Theme selects the color palette ("dark" or "light").
	Theme string `yaml:"theme"`

	// DataFile is an explicit tree data file; empty means discovery.
	DataFile string `yaml:"data_file,omitempty"`

	// ExportDir receives generated SVG/PNG/HTML/markdown files.
	ExportDir string `yaml:"export_dir"`
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	return Config{
		Layout:    layout.DefaultConfig(),
		Theme:     "dark",
		ExportDir: "exports",
	}
}

// Load reads the config file under root's settings directory. A missing file
// returns defaults without error; a malformed file is an error because
// silently ignoring user settings is worse than failing.
func Load(root string) (Config, error) {
	cfg := Default()
	path := filepath.Join(root, DirName, FileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Default(), fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config file, creating the settings directory if needed.
func Save(root string, cfg Config) error {
	dir := filepath.Join(root, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Layout.NodeWidth <= 0 {
		c.Layout.NodeWidth = def.Layout.NodeWidth
	}
	if c.Layout.NodeHeight <= 0 {
		c.Layout.NodeHeight = def.Layout.NodeHeight
	}
	if c.Layout.LevelGap <= 0 {
		c.Layout.LevelGap = def.Layout.LevelGap
	}
	if c.Layout.SiblingGap <= 0 {
		c.Layout.SiblingGap = def.Layout.SiblingGap
	}
	if c.Theme == "" {
		c.Theme = def.Theme
	}
	if c.ExportDir == "" {
		c.ExportDir = def.ExportDir
	}
}

// FindRoot walks up from dir looking for a .statcompass/ directory and
// returns the directory containing it. The walk stops at the user's home
// directory or the filesystem root.
func FindRoot(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		settings := filepath.Join(dir, DirName)
		if info, err := os.Stat(settings); err == nil && info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}

// DetectRoot finds the project root starting from the current directory.
// When no settings directory exists anywhere above, the current directory
// itself is the root.
func DetectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	if root, ok := FindRoot(dir); ok {
		return root
	}
	return dir
}

// dataFileCandidates are probed in order by DiscoverDataFile.
var dataFileCandidates = []string{
	filepath.Join(DirName, "tree.json"),
	filepath.Join(DirName, "tree.yaml"),
	filepath.Join(DirName, "tree.yml"),
	"tree.json",
	"tree.yaml",
	"tree.yml",
}

// DiscoverDataFile returns the tree data file for root. An explicit
// cfg.DataFile wins; otherwise well-known locations are probed. Returns
// ("", false) when nothing is found, in which case callers fall back to the
// built-in tree.
func DiscoverDataFile(root string, cfg Config) (string, bool) {
	if cfg.DataFile != "" {
		path := cfg.DataFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
		return "", false
	}
	for _, candidate := range dataFileCandidates {
		path := filepath.Join(root, candidate)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	projectConfigRelPath = ".claude/hooks.yaml"
	userConfigRelPath    = ".claude/hooks.yaml"
)

// Load resolves the effective configuration for cwd: walk upward from cwd
// looking for .claude/hooks.yaml, then fall back to ~/.claude/hooks.yaml,
// then the built-in empty defaults. The first file found wins; config
// merging across levels is not performed.
//
// fsys and homeDir are injected so the resolution walk is testable against
// an in-memory filesystem.
func Load(fsys afero.Fs, cwd, homeDir string) (*Config, string, error) {
	if path, ok := findProjectConfig(fsys, cwd); ok {
		cfg, err := parseFile(fsys, path)
		if err != nil {
			return nil, "", fmt.Errorf("config: loading project config %s: %w", path, err)
		}
		return cfg, path, nil
	}

	if homeDir != "" {
		userPath := filepath.Join(homeDir, userConfigRelPath)
		if exists(fsys, userPath) {
			cfg, err := parseFile(fsys, userPath)
			if err != nil {
				return nil, "", fmt.Errorf("config: loading user config %s: %w", userPath, err)
			}
			return cfg, userPath, nil
		}
	}

	return Default(), "", nil
}

func findProjectConfig(fsys afero.Fs, cwd string) (string, bool) {
	dir := cwd
	for {
		candidate := filepath.Join(dir, projectConfigRelPath)
		if exists(fsys, candidate) {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func exists(fsys afero.Fs, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && !info.IsDir()
}

func parseFile(fsys afero.Fs, path string) (*Config, error) {
	raw, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	cfg.SourcePath = path
	if cfg.Version == "" {
		cfg.Version = "1.0"
	}
	applySettingsDefaults(&cfg.Settings)
	return cfg, nil
}

// ApplySettingsDefaults fills any zero-valued Settings field with its
// documented default. Exported so callers loading a config file directly
// (bypassing the hierarchical Load resolution, e.g. `--config path`) can
// apply the same defaulting parseFile does.
func ApplySettingsDefaults(s *Settings) {
	applySettingsDefaults(s)
}

func applySettingsDefaults(s *Settings) {
	d := DefaultSettings()
	if s.LogLevel == "" {
		s.LogLevel = d.LogLevel
	}
	if s.LogPath == "" {
		s.LogPath = d.LogPath
	}
	if s.ScriptTimeout == 0 {
		s.ScriptTimeout = d.ScriptTimeout
	}
	if s.MaxContextSize == 0 {
		s.MaxContextSize = d.MaxContextSize
	}
	if s.ExpressionCost == 0 {
		s.ExpressionCost = d.ExpressionCost
	}
}

// ExpandLogPath expands a leading "~" in a log path to homeDir.
func ExpandLogPath(path, homeDir string) string {
	if path == "" || homeDir == "" {
		return path
	}
	if path == "~" {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// HomeDir returns the current user's home directory, or "" if undetermined.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

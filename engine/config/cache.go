package config

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// resolvedSource is the cached outcome of one hierarchy walk: the winning
// file's path (empty when the built-in defaults won) and its raw bytes.
type resolvedSource struct {
	path string
	raw  []byte
}

// sourceCache holds the last 64 resolved (cwd, homeDir) lookups for the
// lifetime of the process. It is a process-wide cache, not a per-call one:
// repeated resolutions for the same working directory within one run (the
// `rulez` CLI commonly loads the same config twice, once to validate and
// once to act on it) skip the upward directory walk and file read.
var sourceCache, _ = lru.New[string, resolvedSource](64)

// LoadCached resolves and parses configuration exactly like Load, but
// memoizes the winning path and its raw bytes so repeated calls for the same
// (cwd, homeDir) pair avoid re-walking the filesystem. The YAML is re-parsed
// on every call regardless of cache hit, so each caller gets its own
// unshared *Config to mutate (SourcePath, the compiled-pattern arena)
// without aliasing another caller's.
func LoadCached(fsys afero.Fs, cwd, homeDir string) (*Config, string, error) {
	key := cwd + "\x00" + homeDir
	if src, ok := sourceCache.Get(key); ok {
		return parseCached(src)
	}

	cfg, path, err := Load(fsys, cwd, homeDir)
	if err != nil {
		return nil, "", err
	}

	var raw []byte
	if path != "" {
		raw, err = afero.ReadFile(fsys, path)
		if err != nil {
			return nil, "", err
		}
	}
	sourceCache.Add(key, resolvedSource{path: path, raw: raw})
	return cfg, path, nil
}

// InvalidateCache drops any cached resolution for (cwd, homeDir), forcing
// the next LoadCached call to re-walk the filesystem. Callers that write a
// config file mid-process (tests, `rulez` future watch-mode) use this to
// avoid serving a stale hit.
func InvalidateCache(cwd, homeDir string) {
	sourceCache.Remove(cwd + "\x00" + homeDir)
}

func parseCached(src resolvedSource) (*Config, string, error) {
	if src.path == "" {
		return Default(), "", nil
	}
	cfg := Default()
	if err := yaml.Unmarshal(src.raw, cfg); err != nil {
		return nil, "", fmt.Errorf("parsing cached yaml for %s: %w", src.path, err)
	}
	cfg.SourcePath = src.path
	if cfg.Version == "" {
		cfg.Version = "1.0"
	}
	applySettingsDefaults(&cfg.Settings)
	return cfg, src.path, nil
}

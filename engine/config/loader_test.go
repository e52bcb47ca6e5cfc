package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
version: "1.0"
settings:
  log_level: debug
rules:
  - name: block-force-push
    matchers:
      tools: [Bash]
      command_patterns: ["git push .*--force"]
    actions:
      block: true
`

func TestLoad(t *testing.T) {
	t.Run("Should load the nearest project config walking upward from cwd", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fsys, "/repo/.claude/hooks.yaml", []byte(sampleYAML), 0o644))

		cfg, path, err := Load(fsys, "/repo/sub/dir", "")
		require.NoError(t, err)
		assert.Equal(t, "/repo/.claude/hooks.yaml", path)
		require.Len(t, cfg.Rules, 1)
		assert.Equal(t, "block-force-push", cfg.Rules[0].Name)
		assert.Equal(t, "debug", cfg.Settings.LogLevel)
	})

	t.Run("Should fall back to the user config when no project config exists", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fsys, "/home/user/.claude/hooks.yaml", []byte(sampleYAML), 0o644))

		cfg, path, err := Load(fsys, "/repo", "/home/user")
		require.NoError(t, err)
		assert.Equal(t, "/home/user/.claude/hooks.yaml", path)
		require.Len(t, cfg.Rules, 1)
	})

	t.Run("Should fall back to built-in empty defaults when nothing is found", func(t *testing.T) {
		fsys := afero.NewMemMapFs()

		cfg, path, err := Load(fsys, "/repo", "/home/user")
		require.NoError(t, err)
		assert.Empty(t, path)
		assert.Empty(t, cfg.Rules)
		assert.Equal(t, DefaultSettings(), cfg.Settings)
	})

	t.Run("Should never merge project and user configs", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fsys, "/repo/.claude/hooks.yaml", []byte(sampleYAML), 0o644))
		require.NoError(t, afero.WriteFile(fsys, "/home/user/.claude/hooks.yaml", []byte(`
version: "1.0"
rules:
  - name: user-only-rule
`), 0o644))

		cfg, _, err := Load(fsys, "/repo", "/home/user")
		require.NoError(t, err)
		require.Len(t, cfg.Rules, 1)
		assert.Equal(t, "block-force-push", cfg.Rules[0].Name)
	})
}

func TestExpandLogPath(t *testing.T) {
	t.Run("Should expand a leading tilde to the home directory", func(t *testing.T) {
		assert.Equal(t, "/home/user/logs/rulez.log", ExpandLogPath("~/logs/rulez.log", "/home/user"))
	})

	t.Run("Should leave absolute paths unchanged", func(t *testing.T) {
		assert.Equal(t, "/var/log/rulez.log", ExpandLogPath("/var/log/rulez.log", "/home/user"))
	})
}

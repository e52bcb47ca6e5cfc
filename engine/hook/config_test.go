package hook

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulez-engine/rulez/pkg/logger"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Should load a project config and build its evaluator/audit logger", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		cwd := "/repo"
		logPath := filepath.Join(t.TempDir(), "rulez.log")
		yaml := `
version: "1.0"
settings:
  log_path: ` + logPath + `
rules:
  - name: block-force-push
    matchers:
      tools: [Bash]
      command_patterns: ["git push .*--force"]
    actions:
      block: true
`
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(cwd, ".claude/hooks.yaml"), []byte(yaml), 0o644))

		loaded, err := LoadConfig(fsys, cwd, "/home/user", "", logger.NewLogger(logger.TestConfig()))
		require.NoError(t, err)
		assert.Len(t, loaded.Config.Rules, 1)
		assert.NotNil(t, loaded.Eval)
		assert.NotNil(t, loaded.Audit)
	})

	t.Run("Should surface validation errors as a load failure", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		cwd := "/repo"
		yaml := `
rules:
  - name: dup
    actions: { block: true }
  - name: dup
    actions: { block: true }
`
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(cwd, ".claude/hooks.yaml"), []byte(yaml), 0o644))

		_, err := LoadConfig(fsys, cwd, "/home/user", "", logger.NewLogger(logger.TestConfig()))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate rule name")
	})
}

package hook

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulez-engine/rulez/engine/adapter"
	"github.com/rulez-engine/rulez/engine/adapter/claudecode"
	"github.com/rulez-engine/rulez/engine/adapter/gemini"
	"github.com/rulez-engine/rulez/engine/audit"
	"github.com/rulez-engine/rulez/engine/config"
	"github.com/rulez-engine/rulez/engine/core"
	"github.com/rulez-engine/rulez/engine/expr"
	"github.com/rulez-engine/rulez/pkg/logger"
)

func testEngine(t *testing.T, cfg *config.Config) *Engine {
	t.Helper()
	require.NoError(t, cfg.Compile())
	eval, err := expr.New()
	require.NoError(t, err)
	reg := adapter.NewRegistry()
	reg.Register(claudecode.Adapter)
	reg.Register(gemini.Adapter)
	logPath := filepath.Join(t.TempDir(), "rulez.log")
	auditLog, err := audit.New(logPath)
	require.NoError(t, err)
	return New(cfg, reg, eval, auditLog, logger.NewLogger(logger.TestConfig()))
}

func TestScenarios(t *testing.T) {
	t.Run("Should block on force-push", func(t *testing.T) {
		cfg := &config.Config{Settings: config.DefaultSettings(), Rules: []config.Rule{{
			Name:     "block-force-push",
			Matchers: config.Matchers{Tools: []string{"Bash"}, CommandPatterns: []string{`git push .*--force`}},
			Actions:  config.Actions{Block: true},
			Metadata: config.Metadata{Reason: "force push forbidden"},
		}}}
		e := testEngine(t, cfg)

		raw := []byte(`{"hook_event_name":"PreToolUse","session_id":"s1","tool_name":"Bash","tool_input":{"command":"git push --force origin main"}}`)
		out, err := e.ProcessEvent(context.Background(), "claude-code", raw, false)
		require.NoError(t, err)

		assert.Equal(t, 2, out.ExitCode)
		assert.False(t, out.Response.Continue)
		assert.Contains(t, out.Response.Reason, "force push")
		assert.Equal(t, core.DecisionBlocked, out.Response.Decision)
		require.Len(t, out.LogEntries, 1)
		assert.Equal(t, []string{"block-force-push"}, out.LogEntries[0].RulesMatched)
		assert.Equal(t, core.OutcomeBlock, out.LogEntries[0].Outcome)
	})

	t.Run("Should inject inline content on TypeScript edit", func(t *testing.T) {
		cfg := &config.Config{Settings: config.DefaultSettings(), Rules: []config.Rule{{
			Name:     "ts-prod-warning",
			Matchers: config.Matchers{Tools: []string{"Write", "Edit"}, Extensions: []string{".ts"}},
			Actions:  config.Actions{InjectInline: "## Production Warning\nBe careful."},
		}}}
		e := testEngine(t, cfg)

		raw := []byte(`{"hook_event_name":"PreToolUse","session_id":"s1","tool_name":"Edit","tool_input":{"file_path":"src/app.ts"}}`)
		out, err := e.ProcessEvent(context.Background(), "claude-code", raw, false)
		require.NoError(t, err)

		assert.Equal(t, 0, out.ExitCode)
		assert.True(t, out.Response.Continue)
		assert.Equal(t, "## Production Warning\nBe careful.", out.Response.Context)
		assert.Equal(t, core.DecisionAllowed, out.Response.Decision)
	})

	t.Run("Should block on validator script timeout", func(t *testing.T) {
		dir := t.TempDir()
		script := filepath.Join(dir, "slow.sh")
		require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 5\n"), 0o700))

		cfg := &config.Config{Settings: config.DefaultSettings(), Rules: []config.Rule{{
			Name:     "slow-validator",
			Matchers: config.Matchers{Tools: []string{"Bash"}},
			Actions:  config.Actions{Run: script},
			Metadata: config.Metadata{Timeout: config.Duration(time.Second)},
		}}}
		e := testEngine(t, cfg)

		raw := []byte(`{"hook_event_name":"PreToolUse","session_id":"s1","tool_name":"Bash","tool_input":{"command":"echo hi"}}`)
		out, err := e.ProcessEvent(context.Background(), "claude-code", raw, false)
		require.NoError(t, err)

		assert.Equal(t, 2, out.ExitCode)
		assert.False(t, out.Response.Continue)
		require.Len(t, out.LogEntries, 1)
		assert.Contains(t, out.LogEntries[0].Metadata.ValidatorOutput, "timeout")
	})

	t.Run("Should fail closed on missing required field without blocking the response", func(t *testing.T) {
		cfg := &config.Config{Settings: config.DefaultSettings(), Rules: []config.Rule{{
			Name:     "needs-file-path",
			Matchers: config.Matchers{RequireFields: []string{"file_path"}},
			Actions:  config.Actions{Block: true},
		}}}
		e := testEngine(t, cfg)

		raw := []byte(`{"hook_event_name":"PreToolUse","session_id":"s1","tool_name":"Bash","tool_input":{}}`)
		out, err := e.ProcessEvent(context.Background(), "claude-code", raw, false)
		require.NoError(t, err)

		assert.Equal(t, 0, out.ExitCode)
		assert.True(t, out.Response.Continue)
		assert.Empty(t, out.Matched)
		require.Len(t, out.LogEntries, 1)
		require.Len(t, out.LogEntries[0].Metadata.Warnings, 1)
		assert.Contains(t, out.LogEntries[0].Metadata.Warnings[0], "needs-file-path")
		assert.Contains(t, out.LogEntries[0].Metadata.Warnings[0], "file_path=missing")
	})

	t.Run("Should warn without blocking in warn mode", func(t *testing.T) {
		cfg := &config.Config{Settings: config.DefaultSettings(), Rules: []config.Rule{{
			Name:     "would-block",
			Mode:     config.ModeWarn,
			Matchers: config.Matchers{Tools: []string{"Bash"}},
			Actions:  config.Actions{Block: true},
			Metadata: config.Metadata{Reason: "dangerous command"},
		}}}
		e := testEngine(t, cfg)

		raw := []byte(`{"hook_event_name":"PreToolUse","session_id":"s1","tool_name":"Bash","tool_input":{"command":"rm -rf /tmp/x"}}`)
		out, err := e.ProcessEvent(context.Background(), "claude-code", raw, false)
		require.NoError(t, err)

		assert.Equal(t, 0, out.ExitCode)
		assert.True(t, out.Response.Continue)
		assert.Equal(t, core.DecisionWarned, out.Response.Decision)
		assert.Contains(t, out.Response.Context, "dangerous command")
	})

	t.Run("Should deny via dual-fire adapter mapping", func(t *testing.T) {
		cfg := &config.Config{Settings: config.DefaultSettings(), Rules: []config.Rule{{
			Name:     "block-prompt-submit",
			Matchers: config.Matchers{Events: []core.EventType{core.UserPromptSubmit}},
			Actions:  config.Actions{Block: true},
			Metadata: config.Metadata{Reason: "prompt blocked"},
		}}}
		e := testEngine(t, cfg)

		raw := []byte(`{"event":"beforeAgent","sessionId":"s1","prompt":"do something"}`)
		out, err := e.ProcessEvent(context.Background(), "gemini", raw, false)
		require.NoError(t, err)

		assert.Equal(t, 2, out.ExitCode)
		assert.False(t, out.Response.Continue)
		require.Len(t, out.Events, 2)
		require.Len(t, out.LogEntries, 2)

		var totalMatched int
		for _, l := range out.LogEntries {
			totalMatched += len(l.RulesMatched)
		}
		assert.Equal(t, 1, totalMatched)
	})
}

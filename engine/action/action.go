// Package action executes the ordered action pipeline for a matched rule:
// validation gate, block, block_if_match, inject_inline, inject_command,
// inject, run — each step either returns a terminal Response or
// accumulates into the one that follows.
package action

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/shlex"

	"github.com/rulez-engine/rulez/engine/config"
	"github.com/rulez-engine/rulez/engine/core"
	"github.com/rulez-engine/rulez/pkg/logger"
)

// Expressions evaluates validate_expr/enabled_when expressions. Satisfied
// by engine/expr.Evaluator; declared here so action depends only on the
// narrow capability it needs.
type Expressions interface {
	Evaluate(ctx context.Context, expr string, data map[string]any) (bool, error)
}

// Result is a Response plus the provenance the audit logger attaches to the
// invocation's LogEntry.
type Result struct {
	Response core.Response
	Meta     core.LogMetadata
}

// Execute runs the seven-step action pipeline from spec §4.4 against rule,
// in enforce mode: the validation gate and block/block_if_match/run steps
// are fail-closed.
func Execute(ctx context.Context, ev *core.Event, rule *config.Rule, cfg *config.Config, exprs Expressions, log logger.Logger) Result {
	return execute(ctx, ev, rule, cfg, exprs, log, config.ModeEnforce)
}

// ExecuteWarn runs the same pipeline but never returns a block: a
// would-have-blocked outcome becomes an inject response announcing the
// rationale.
func ExecuteWarn(ctx context.Context, ev *core.Event, rule *config.Rule, cfg *config.Config, exprs Expressions, log logger.Logger) Result {
	return execute(ctx, ev, rule, cfg, exprs, log, config.ModeWarn)
}

// ExecuteAudit runs no side-effecting action and always allows; the rule is
// recorded in the log only.
func ExecuteAudit(_ context.Context, _ *core.Event, _ *config.Rule, _ *config.Config, _ Expressions, _ logger.Logger) Result {
	return Result{Response: core.Audited()}
}

func execute(ctx context.Context, ev *core.Event, rule *config.Rule, cfg *config.Config, exprs Expressions, log logger.Logger, mode config.Mode) Result {
	a := rule.Actions
	meta := core.LogMetadata{}

	if blocked, reason, ok := validationGate(ctx, ev, rule, cfg, exprs, &meta); ok {
		return terminal(mode, reason, blocked)
	}

	if a.Block {
		return terminal(mode, blockReason(rule), true)
	}

	if a.BlockIfMatch != nil && ev.Command() != "" && cfg.MatchAny(a.BlockIfMatch.CompiledRefs(), ev.Command()) {
		return terminal(mode, blockReason(rule), true)
	}

	if a.InjectInline != "" {
		return Result{Response: core.Inject(a.InjectInline, mode == config.ModeWarn), Meta: meta}
	}

	if a.InjectCommand != "" {
		if out, err := runInjectCommand(ctx, a.InjectCommand, ev, effectiveTimeout(rule, cfg)); err == nil {
			return Result{Response: core.Inject(out, mode == config.ModeWarn), Meta: meta}
		} else {
			log.Warn("inject_command failed", "rule", rule.Name, "error", core.RedactError(err))
		}
	}

	if a.Inject != "" {
		if content, err := readInjectFile(ev, a.Inject); err == nil {
			meta.InjectedFiles = append(meta.InjectedFiles, a.Inject)
			return Result{Response: core.Inject(content, mode == config.ModeWarn), Meta: meta}
		} else {
			log.Warn("inject failed", "rule", rule.Name, "error", core.RedactError(err))
		}
	}

	if a.Run != "" {
		ok, output, err := runValidatorScript(ctx, "", a.Run, ev, effectiveTimeout(rule, cfg), true)
		meta.ValidatorOutput = output
		if err != nil || !ok {
			return terminal(mode, validatorFailReason(rule, err), true)
		}
	}

	return Result{Response: core.Allow(), Meta: meta}
}

func terminal(mode config.Mode, reason string, wouldBlock bool) Result {
	if !wouldBlock {
		return Result{Response: core.Allow()}
	}
	switch mode {
	case config.ModeWarn:
		return Result{Response: core.Inject(fmt.Sprintf("Warning: rule would have blocked — %s", reason), true)}
	case config.ModeAudit:
		return Result{Response: core.Audited()}
	default:
		return Result{Response: core.Block(reason)}
	}
}

func blockReason(rule *config.Rule) string {
	if rule.Metadata.Reason != "" {
		return rule.Metadata.Reason
	}
	return fmt.Sprintf("Blocked by policy: rule %q", rule.Name)
}

func validatorFailReason(rule *config.Rule, err error) string {
	if err != nil {
		return fmt.Sprintf("Validator failed for rule %q", rule.Name)
	}
	return fmt.Sprintf("Validator rejected the request for rule %q", rule.Name)
}

// validationGate runs the validate_expr or inline_script gate, if present.
// ok is true when the gate ran and produced a blocking verdict.
func validationGate(ctx context.Context, ev *core.Event, rule *config.Rule, cfg *config.Config, exprs Expressions, meta *core.LogMetadata) (blocked bool, reason string, ok bool) {
	switch {
	case rule.Actions.ValidateExpr != "":
		data := exprData(ev)
		passed, err := exprs.Evaluate(ctx, rule.Actions.ValidateExpr, data)
		if err != nil {
			return true, fmt.Sprintf("Validation failed for rule %q: %s", rule.Name, core.RedactError(err)), true
		}
		if !passed {
			return true, fmt.Sprintf("Validation failed for rule %q: expression %q returned false", rule.Name, rule.Actions.ValidateExpr), true
		}
		return false, "", false

	case rule.Actions.InlineScript != "":
		passed, output, err := runValidatorScript(ctx, rule.Actions.InlineScript, "", ev, effectiveTimeout(rule, cfg), false)
		meta.ValidatorOutput = output
		if err != nil || !passed {
			return true, fmt.Sprintf("Inline script failed for rule %q", rule.Name), true
		}
		return false, "", false
	}
	return false, "", false
}

func exprData(ev *core.Event) map[string]any {
	raw, _ := ev.RawToolInput()
	return map[string]any{
		"hook_event_name": string(ev.HookEventName),
		"tool_name":       ev.ToolName,
		"cwd":             ev.CWD,
		"prompt":          ev.Prompt,
		"command":         ev.Command(),
		"file_path":       ev.FilePath(),
		"tool_input":      raw,
	}
}

func effectiveTimeout(rule *config.Rule, cfg *config.Config) time.Duration {
	if rule.Metadata.Timeout != 0 {
		return rule.Metadata.Timeout.Duration(cfg.Settings.ScriptTimeoutDuration())
	}
	return cfg.Settings.ScriptTimeoutDuration()
}

func readInjectFile(ev *core.Event, path string) (string, error) {
	resolved := resolvePath(ev, path)
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func resolvePath(ev *core.Event, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	base := ev.CWD
	if base == "" {
		base, _ = os.Getwd()
	}
	return filepath.Join(base, path)
}

// runInjectCommand executes command via `sh -c`, piping the event JSON on
// stdin, and returns captured stdout. Advisory: callers log and proceed
// without context on any error.
func runInjectCommand(ctx context.Context, command string, ev *core.Event, timeout time.Duration) (string, error) {
	// Tokenize only to validate the command is well-formed shell syntax
	// before handing it to sh -c; the actual execution still goes through
	// the shell so the user's own metacharacters keep working.
	if _, err := shlex.Split(command); err != nil {
		return "", fmt.Errorf("inject_command: invalid shell syntax: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdin = bytes.NewReader(eventJSON(ev))
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return stdout.String(), nil
}

// runValidatorScript realizes both `run` (script path) and `inline_script`
// (inline body). When body is non-empty, it is written to a unique temp
// file first. Returns the pass/fail verdict and captured stdout+stderr for
// log attachment.
func runValidatorScript(ctx context.Context, body, path string, ev *core.Event, timeout time.Duration, isPathScript bool) (pass bool, output string, err error) {
	scriptPath := path
	if body != "" {
		tmp, werr := writeTempScript(body)
		if werr != nil {
			return false, "", werr
		}
		defer os.Remove(tmp)
		scriptPath = tmp
	} else if isPathScript {
		scriptPath = resolvePath(ev, path)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", scriptPath)
	cmd.Stdin = bytes.NewReader(eventJSON(ev))
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	runErr := cmd.Run()
	output = combined.String()
	if ctx.Err() != nil {
		return false, output + "\n[timeout]", fmt.Errorf("validator timed out: %w", ctx.Err())
	}
	if runErr != nil {
		return false, output, nil
	}
	return true, output, nil
}

func writeTempScript(body string) (string, error) {
	name := filepath.Join(os.TempDir(), fmt.Sprintf("rulez-%d-%d.sh", os.Getpid(), time.Now().UnixNano()))
	if err := os.WriteFile(name, []byte(body), 0o700); err != nil {
		return "", err
	}
	return name, nil
}

func eventJSON(ev *core.Event) []byte {
	data, err := json.Marshal(ev)
	if err != nil {
		return []byte("{}")
	}
	return data
}

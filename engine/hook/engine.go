// Package hook is the thin orchestrator tying configuration, matching,
// expression evaluation, action execution, policy resolution, audit logging,
// and adapters into the single entry point a CLI or embedder calls per
// event: Received -> Canonicalized -> Evaluated -> ActionsExecuted ->
// Responded -> Logged -> Exited.
package hook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rulez-engine/rulez/engine/action"
	"github.com/rulez-engine/rulez/engine/adapter"
	"github.com/rulez-engine/rulez/engine/audit"
	"github.com/rulez-engine/rulez/engine/config"
	"github.com/rulez-engine/rulez/engine/core"
	"github.com/rulez-engine/rulez/engine/expr"
	"github.com/rulez-engine/rulez/engine/match"
	"github.com/rulez-engine/rulez/engine/policy"
	"github.com/rulez-engine/rulez/pkg/logger"
)

// Engine bundles the loaded, validated config and the stateless services the
// pipeline needs for one invocation. One Engine is built per process
// lifetime; ProcessEvent carries no state across calls.
type Engine struct {
	Config   *config.Config
	Registry adapter.Registry
	Eval     *expr.Evaluator
	Audit    *audit.Logger
	Log      logger.Logger
}

// New wires an Engine from its already-constructed parts. auditLog may be
// nil, in which case logging is skipped (used by `rulez debug`, which never
// writes to the audit trail).
func New(cfg *config.Config, registry adapter.Registry, eval *expr.Evaluator, auditLog *audit.Logger, log logger.Logger) *Engine {
	if log == nil {
		log = logger.FromContext(nil)
	}
	return &Engine{Config: cfg, Registry: registry, Eval: eval, Audit: auditLog, Log: log}
}

// Outcome is the full result of one ProcessEvent call, carrying enough to
// serve both the `hook` hot path (ResponseJSON/ExitCode) and `debug`
// (Traces/Matched).
type Outcome struct {
	ResponseJSON []byte
	ExitCode     int
	Response     core.Response
	Events       []core.Event
	Matched      []policy.Matched
	Traces       map[string]*match.Trace
	LogEntries   []core.LogEntry
}

// ProcessEvent runs the full state machine for one native event payload,
// ingested through the adapter named adapterName: canonicalize (possibly
// into more than one Event, per an adapter's dual-fire mapping), evaluate
// every enabled rule's matchers, run the matched rules' action pipelines,
// resolve the final Response, emit it in the adapter's native shape, and
// append one audit LogEntry per canonical Event. withTrace requests the
// per-matcher Trace be retained on Outcome (used by `debug`, skipped on the
// `hook` hot path for speed).
func (e *Engine) ProcessEvent(ctx context.Context, adapterName string, nativeEventJSON []byte, withTrace bool) (Outcome, error) {
	a, ok := e.Registry[adapterName]
	if !ok {
		ingestErr := core.NewError(fmt.Errorf("unknown adapter %q", adapterName), core.CodeEvent, nil)
		return e.rejectEvent(a, ingestErr, "Unknown adapter"), ingestErr
	}

	events, err := a.Ingest(nativeEventJSON)
	if err != nil {
		ingestErr := core.NewError(fmt.Errorf("invalid event JSON: %w", err), core.CodeEvent, map[string]any{"adapter": adapterName})
		return e.rejectEvent(a, ingestErr, "Invalid event JSON"), ingestErr
	}

	out := Outcome{Events: events, Traces: map[string]*match.Trace{}}
	var finalResp core.Response

	for _, ev := range events {
		start := time.Now()
		matched, metas, warnings, traces := e.evaluateRules(ctx, &ev, withTrace)
		resp := policy.Resolve(matched, e.Config.Settings.MaxContextSize)

		out.Matched = append(out.Matched, matched...)
		for name, tr := range traces {
			out.Traces[name] = tr
		}

		entry := e.buildLogEntry(&ev, matched, metas, warnings, resp, time.Since(start))
		out.LogEntries = append(out.LogEntries, entry)
		if e.Audit != nil {
			if err := e.Audit.Append(entry); err != nil {
				e.Log.Error("audit append failed", "error", core.RedactError(err))
			}
		}

		finalResp = mergeResponse(finalResp, resp)
	}

	raw, exitCode, err := a.Emit(finalResp)
	if err != nil {
		emitErr := core.NewError(err, core.CodeEvent, map[string]any{"adapter": adapterName})
		out.Response = finalResp
		out.ResponseJSON, out.ExitCode = fallbackEmit(finalResp)
		return out, emitErr
	}
	out.Response = finalResp
	out.ResponseJSON = raw
	out.ExitCode = exitCode
	return out, nil
}

// rejectEvent builds the minimal block Outcome spec.md §4.8 mandates for a
// Received-stage failure (unknown adapter, malformed event JSON): a blocked
// Response, one audit LogEntry carrying the failure as a warning (never a
// stack trace), and exit code 2. a may be the registry's zero value when the
// adapter name itself was unrecognized; fallbackEmit tolerates a nil Emit.
func (e *Engine) rejectEvent(a adapter.Adapter, cause *core.Error, reason string) Outcome {
	resp := core.Block(reason)
	entry := core.LogEntry{
		ID:           core.MustNewID(),
		Timestamp:    time.Now(),
		Outcome:      core.OutcomeError,
		RulesMatched: []string{},
		Decision:     resp.Decision,
		Metadata:     core.LogMetadata{Warnings: []string{core.RedactError(cause)}},
		Response:     core.ResponseSummary{Continue: resp.Continue, Reason: resp.Reason},
	}
	if e.Audit != nil {
		if err := e.Audit.Append(entry); err != nil {
			e.Log.Error("audit append failed", "error", core.RedactError(err))
		}
	}

	raw, exitCode := fallbackEmitVia(a, resp)
	return Outcome{
		Response:     resp,
		ResponseJSON: raw,
		ExitCode:     exitCode,
		LogEntries:   []core.LogEntry{entry},
	}
}

// fallbackEmitVia renders resp through a's own Emit when the adapter is
// known and well-behaved, falling back to the canonical JSON shape
// otherwise, so a rejected event always produces a response the caller's
// native agent can parse as "stop".
func fallbackEmitVia(a adapter.Adapter, resp core.Response) ([]byte, int) {
	if a.Emit != nil {
		if raw, exitCode, err := a.Emit(resp); err == nil {
			return raw, exitCode
		}
	}
	return fallbackEmit(resp)
}

// fallbackEmit marshals resp in its own canonical shape. Used when no
// adapter-native rendering is available or the adapter's own Emit failed.
func fallbackEmit(resp core.Response) ([]byte, int) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return []byte(`{"continue":false,"decision":"blocked"}`), resp.ExitCode()
	}
	return raw, resp.ExitCode()
}

// evaluateRules matches every enabled rule against ev and runs the action
// pipeline for each one that matches, in rule-definition order. It also
// returns the per-match action metadata (injected files, validator output)
// and any field-validation warnings so the caller can fold both into the
// invocation's LogEntry.
func (e *Engine) evaluateRules(
	ctx context.Context,
	ev *core.Event,
	withTrace bool,
) ([]policy.Matched, []core.LogMetadata, []string, map[string]*match.Trace) {
	var matched []policy.Matched
	var metas []core.LogMetadata
	var warnings []string
	var traces map[string]*match.Trace
	if withTrace {
		traces = map[string]*match.Trace{}
	}

	for i := range e.Config.Rules {
		rule := &e.Config.Rules[i]
		if !rule.IsEnabled() {
			continue
		}
		if rule.EnabledWhen != "" && e.Eval != nil {
			ok, err := e.Eval.Evaluate(ctx, rule.EnabledWhen, map[string]any{
				"hook_event_name": string(ev.HookEventName),
				"tool_name":       ev.ToolName,
				"cwd":             ev.CWD,
				"prompt":          ev.Prompt,
			})
			if err != nil || !ok {
				continue
			}
		}

		var trace *match.Trace
		if withTrace {
			trace = &match.Trace{Present: map[string]bool{}}
		}
		ok, fieldFailures := match.Evaluate(rule, e.Config, ev, trace)
		if len(fieldFailures) > 0 {
			warning := formatFieldFailures(rule.Name, fieldFailures)
			warnings = append(warnings, warning)
			e.Log.Warn("field validation failed", "rule", rule.Name, "failures", fieldFailureStrings(fieldFailures))
		}
		if !ok {
			if withTrace {
				traces[rule.Name] = trace
			}
			continue
		}
		if withTrace {
			traces[rule.Name] = trace
		}

		result := runAction(ctx, ev, rule, e.Config, e.Eval, e.Log)
		matched = append(matched, policy.Matched{Rule: rule, Response: result.Response})
		metas = append(metas, result.Meta)
	}
	return matched, metas, warnings, traces
}

// formatFieldFailures renders one rule's field-validation failures into the
// single warning string spec.md §4.2.1 mandates: every failing path and its
// failure kind, never the value that failed.
func formatFieldFailures(ruleName string, failures []match.FieldFailure) string {
	return fmt.Sprintf("rule %q: field validation failed: %s", ruleName, strings.Join(fieldFailureStrings(failures), ", "))
}

func fieldFailureStrings(failures []match.FieldFailure) []string {
	out := make([]string, len(failures))
	for i, f := range failures {
		out[i] = fmt.Sprintf("%s=%s", f.Path, f.Reason)
	}
	return out
}

func runAction(ctx context.Context, ev *core.Event, rule *config.Rule, cfg *config.Config, eval *expr.Evaluator, log logger.Logger) action.Result {
	switch rule.EffectiveMode() {
	case config.ModeWarn:
		return action.ExecuteWarn(ctx, ev, rule, cfg, eval, log)
	case config.ModeAudit:
		return action.ExecuteAudit(ctx, ev, rule, cfg, eval, log)
	default:
		return action.Execute(ctx, ev, rule, cfg, eval, log)
	}
}

func (e *Engine) buildLogEntry(
	ev *core.Event,
	matched []policy.Matched,
	metas []core.LogMetadata,
	warnings []string,
	resp core.Response,
	elapsed time.Duration,
) core.LogEntry {
	names := make([]string, 0, len(matched))
	for _, m := range matched {
		names = append(names, m.Rule.Name)
	}

	outcome := core.OutcomeAllow
	var mode string
	priority := 0
	switch resp.Decision {
	case core.DecisionBlocked:
		outcome = core.OutcomeBlock
	case core.DecisionWarned:
		outcome = core.OutcomeInject
	case core.DecisionAllowed:
		if resp.Context != "" {
			outcome = core.OutcomeInject
		}
	}
	if len(matched) > 0 {
		mode = string(matched[0].Rule.EffectiveMode())
		priority = matched[0].Rule.Priority
	}

	meta := mergeLogMetadata(metas, warnings)

	return core.LogEntry{
		ID:           core.MustNewID(),
		Timestamp:    time.Now(),
		EventType:    ev.HookEventName,
		SessionID:    ev.SessionID,
		ToolName:     ev.ToolName,
		RulesMatched: names,
		Outcome:      outcome,
		Timing:       core.Timing{ProcessingMS: float64(elapsed.Microseconds()) / 1000.0, RulesEvaluated: len(e.Config.Rules)},
		Decision:     resp.Decision,
		Mode:         mode,
		Priority:     priority,
		Metadata:     meta,
		EventDetails: core.EventDetails{ToolType: ev.ToolName, Command: ev.Command(), FilePath: ev.FilePath()},
		Response:     core.ResponseSummary{Continue: resp.Continue, Reason: resp.Reason, ContextLength: len(resp.Context)},
	}
}

// mergeLogMetadata folds one LogEntry's worth of action metadata out of the
// per-matched-rule results: injected file paths accumulate, the last
// non-empty validator output wins (normally only one rule in a match set
// carries a validator), and any field-validation warnings collected across
// every evaluated rule (matched or not) are carried verbatim.
func mergeLogMetadata(metas []core.LogMetadata, warnings []string) core.LogMetadata {
	var merged core.LogMetadata
	for _, m := range metas {
		merged.InjectedFiles = append(merged.InjectedFiles, m.InjectedFiles...)
		if m.ValidatorOutput != "" {
			merged.ValidatorOutput = m.ValidatorOutput
		}
	}
	merged.Warnings = warnings
	return merged
}

// mergeResponse combines per-event responses when an adapter dual-fires more
// than one canonical Event for a single native payload (gemini's
// beforeAgent): a block from either event wins outright; otherwise contexts
// concatenate and a warn/audit decision from either side is preserved.
func mergeResponse(acc, next core.Response) core.Response {
	if acc.Decision == "" {
		return next
	}
	if !acc.Continue {
		return acc
	}
	if !next.Continue {
		return next
	}
	if next.Context == "" {
		return acc
	}
	if acc.Context == "" {
		return next
	}
	merged := acc
	merged.Context = acc.Context + "\n" + next.Context
	if next.Decision == core.DecisionWarned {
		merged.Decision = core.DecisionWarned
	}
	return merged
}

// Package match implements the matcher engine: for each enabled rule,
// evaluate every configured matcher kind in a fixed, cheapest-first order
// and report whether the rule matched, with an optional per-matcher trace.
package match

import (
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/rulez-engine/rulez/engine/config"
	"github.com/rulez-engine/rulez/engine/core"
	"github.com/rulez-engine/rulez/engine/fieldpath"
)

// Trace names each matcher kind present on a rule and the boolean it
// produced. Populated only when requested, backing `explain`/`debug`.
type Trace struct {
	Events, Tools, Extensions, Directories bool
	CommandPatterns, PromptMatch           bool
	FieldValidation                        bool
	Present                                map[string]bool
}

func newTrace() *Trace {
	return &Trace{Present: map[string]bool{}}
}

func (t *Trace) record(kind string, result bool) {
	if t == nil {
		return
	}
	t.Present[kind] = result
}

// FieldFailure names one require_fields/field_types check that did not hold.
// Reason is the kind of failure, never the offending value — per spec.md
// §4.2.1, a field-validation warning lists failures by type, not content.
type FieldFailure struct {
	Path   string
	Reason FieldFailureReason
}

// FieldFailureReason enumerates the ways a single field check can fail.
type FieldFailureReason string

const (
	FieldMissing   FieldFailureReason = "missing"
	FieldWrongType FieldFailureReason = "wrong_type"
)

// Evaluate reports whether rule matches ev, in the context of cfg (for the
// compiled-pattern arena). trace is optional; pass nil outside debug mode.
// The second return value is populated only when require_fields/field_types
// checking ran and found failures, regardless of trace — callers use it to
// emit the mandated field-validation warning log entry even outside debug
// mode.
func Evaluate(rule *config.Rule, cfg *config.Config, ev *core.Event, trace *Trace) (bool, []FieldFailure) {
	m := &rule.Matchers

	if len(m.Events) > 0 {
		ok := eventIn(m.Events, ev.HookEventName)
		trace.record("events", ok)
		if !ok {
			return false, nil
		}
	}

	if len(m.Tools) > 0 {
		ok := ev.ToolName != "" && stringIn(m.Tools, ev.ToolName)
		trace.record("tools", ok)
		if !ok {
			return false, nil
		}
	}

	if len(m.Extensions) > 0 {
		ok := matchExtension(m.Extensions, ev.FilePath())
		trace.record("extensions", ok)
		if !ok {
			return false, nil
		}
	}

	if len(m.Directories) > 0 {
		ok := matchDirectories(m.Directories, ev)
		trace.record("directories", ok)
		if !ok {
			return false, nil
		}
	}

	if len(m.CommandPatterns) > 0 {
		ok := ev.Command() != "" && cfg.MatchAny(m.CommandPatternRefs(), ev.Command())
		trace.record("command_patterns", ok)
		if !ok {
			return false, nil
		}
	}

	if m.PromptMatch != nil {
		ok := matchPrompt(m.PromptMatch, cfg, ev.Prompt)
		trace.record("prompt_match", ok)
		if !ok {
			return false, nil
		}
	}

	if len(m.RequireFields) > 0 || len(m.FieldTypes) > 0 {
		ok, failures := matchFields(m, ev)
		trace.record("field_validation", ok)
		if !ok {
			return false, failures
		}
	}

	return true, nil
}

func eventIn(set []core.EventType, v core.EventType) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func stringIn(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func matchExtension(set []string, filePath string) bool {
	if filePath == "" {
		return false
	}
	ext := filepath.Ext(filePath)
	caseInsensitive := runtime.GOOS == "windows"
	for _, want := range set {
		if caseInsensitive {
			if strings.EqualFold(ext, want) {
				return true
			}
		} else if ext == want {
			return true
		}
	}
	return false
}

func matchDirectories(patterns []string, ev *core.Event) bool {
	target := ev.FilePath()
	if target == "" {
		target = ev.CWD
	}
	if target == "" {
		return false
	}
	target = filepath.ToSlash(target)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, target); ok {
			return true
		}
		if strings.HasPrefix(target, strings.TrimSuffix(pattern, "/**")) {
			return true
		}
	}
	return false
}

func matchPrompt(pm *config.PromptMatch, cfg *config.Config, prompt string) bool {
	if prompt == "" {
		return false
	}
	refs := pm.CompiledRefs()
	if pm.Mode == "all" {
		return cfg.MatchAll(refs, prompt)
	}
	return cfg.MatchAny(refs, prompt)
}

// matchFields evaluates require_fields/field_types together (§4.2.1):
// tool_input missing or not an object fails closed immediately; otherwise
// every configured path is checked and all failures are accumulated before
// returning, so a single warning can list them all.
func matchFields(m *config.Matchers, ev *core.Event) (bool, []FieldFailure) {
	raw, err := ev.RawToolInput()
	if err != nil || raw == nil {
		paths := append(append([]string{}, m.RequireFields...), fieldTypeKeys(m.FieldTypes)...)
		failures := make([]FieldFailure, 0, len(paths))
		for _, p := range paths {
			failures = append(failures, FieldFailure{Path: p, Reason: FieldMissing})
		}
		sortFailures(failures)
		return false, failures
	}

	paths := map[string]struct{}{}
	for _, p := range m.RequireFields {
		paths[p] = struct{}{}
	}
	for p := range m.FieldTypes {
		paths[p] = struct{}{}
	}

	ok := true
	var failures []FieldFailure
	for p := range paths {
		value, present := fieldpath.Resolve(raw, p)
		if !present {
			ok = false
			failures = append(failures, FieldFailure{Path: p, Reason: FieldMissing})
			continue
		}
		if want, hasType := m.FieldTypes[p]; hasType {
			if want != string(fieldpath.KindAny) && fieldpath.KindOf(value) != fieldpath.Kind(want) {
				ok = false
				failures = append(failures, FieldFailure{Path: p, Reason: FieldWrongType})
			}
		}
	}
	sortFailures(failures)
	return ok, failures
}

func fieldTypeKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func sortFailures(failures []FieldFailure) {
	sort.Slice(failures, func(i, j int) bool { return failures[i].Path < failures[j].Path })
}

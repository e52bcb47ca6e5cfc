package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rulez-engine/rulez/engine/fieldpath"
	"github.com/rulez-engine/rulez/pkg/logger"
)

// structValidator runs the struct-tag checks declared on Config/Rule
// (required fields, enum membership) ahead of the hand-written semantic
// checks below, which cover invariants no struct tag can express (arena
// compilation, cross-field mutual exclusion, field-path grammar).
var structValidator = validator.New(validator.WithRequiredStructEnabled())

// ExpressionValidator compiles an expression without evaluating it,
// surfacing a syntax/type error. Implemented by engine/expr.Evaluator;
// declared here so config never imports the CEL stack directly.
type ExpressionValidator interface {
	ValidateExpression(expr string) error
}

// Validate runs every eager check described for the config loader: rule
// name uniqueness, regex/expression compilability, field-path grammar, field
// type vocabulary, and action mutual exclusion. It also populates the
// compiled-pattern arena (§9 "compiled rules and arena ownership").
//
// Any error returned here is fatal: the engine refuses to start processing
// events against an invalid config, by design.
func Validate(c *Config, exprValidator ExpressionValidator, log logger.Logger) error {
	if log == nil {
		log = logger.FromContext(nil)
	}
	var errs []error

	if err := structValidator.Struct(c); err != nil {
		errs = append(errs, fmt.Errorf("struct validation: %w", err))
	}
	if err := checkUniqueNames(c); err != nil {
		errs = append(errs, err)
	}
	if err := c.compile(); err != nil {
		errs = append(errs, err)
	}
	if err := checkFieldPaths(c); err != nil {
		errs = append(errs, err)
	}
	if err := checkFieldTypes(c); err != nil {
		errs = append(errs, err)
	}
	if err := checkActionExclusivity(c); err != nil {
		errs = append(errs, err)
	}
	if err := checkInjectNonEmpty(c); err != nil {
		errs = append(errs, err)
	}
	if exprValidator != nil {
		if err := checkExpressions(c, exprValidator); err != nil {
			errs = append(errs, err)
		}
	}

	emitWarnings(c, log)

	return errors.Join(errs...)
}

func checkUniqueNames(c *Config) error {
	seen := map[string]struct{}{}
	for _, r := range c.Rules {
		if r.Name == "" {
			return fmt.Errorf("rule at index %d: name is required", r.index)
		}
		if _, ok := seen[r.Name]; ok {
			return fmt.Errorf("duplicate rule name %q", r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return nil
}

func checkFieldPaths(c *Config) error {
	for _, r := range c.Rules {
		for _, p := range r.Matchers.RequireFields {
			if err := fieldpath.ValidatePath(p); err != nil {
				return fmt.Errorf("rule %q: require_fields: %w", r.Name, err)
			}
		}
		for p := range r.Matchers.FieldTypes {
			if err := fieldpath.ValidatePath(p); err != nil {
				return fmt.Errorf("rule %q: field_types: %w", r.Name, err)
			}
		}
	}
	return nil
}

func checkFieldTypes(c *Config) error {
	for _, r := range c.Rules {
		for p, t := range r.Matchers.FieldTypes {
			if !fieldpath.ValidKind(t) {
				return fmt.Errorf("rule %q: field_types[%s]: unknown type %q", r.Name, p, t)
			}
		}
	}
	return nil
}

func checkActionExclusivity(c *Config) error {
	for _, r := range c.Rules {
		if r.Actions.ValidateExpr != "" && r.Actions.InlineScript != "" {
			return fmt.Errorf("rule %q: validate_expr and inline_script are mutually exclusive", r.Name)
		}
	}
	return nil
}

// checkInjectNonEmpty rejects inject_inline/inline_script values that are
// present but blank (whitespace-only): a rule that sets one of these keys
// clearly means to carry text, and an all-whitespace value is almost always
// a stray YAML block scalar left with no content.
func checkInjectNonEmpty(c *Config) error {
	for _, r := range c.Rules {
		a := r.Actions
		if a.InjectInline != "" && strings.TrimSpace(a.InjectInline) == "" {
			return fmt.Errorf("rule %q: inject_inline must be non-empty", r.Name)
		}
		if a.InlineScript != "" && strings.TrimSpace(a.InlineScript) == "" {
			return fmt.Errorf("rule %q: inline_script must be non-empty", r.Name)
		}
	}
	return nil
}

func checkExpressions(c *Config, v ExpressionValidator) error {
	for _, r := range c.Rules {
		if r.EnabledWhen != "" {
			if err := v.ValidateExpression(r.EnabledWhen); err != nil {
				return fmt.Errorf("rule %q: enabled_when: %w", r.Name, err)
			}
		}
		if r.Actions.ValidateExpr != "" {
			if err := v.ValidateExpression(r.Actions.ValidateExpr); err != nil {
				return fmt.Errorf("rule %q: validate_expr: %w", r.Name, err)
			}
		}
	}
	return nil
}

const maxScriptWarnSize = 10 * 1024

func emitWarnings(c *Config, log logger.Logger) {
	for _, r := range c.Rules {
		if r.Actions.InlineScript != "" {
			if len(r.Actions.InlineScript) > maxScriptWarnSize {
				log.Warn("inline_script exceeds recommended size", "rule", r.Name, "bytes", len(r.Actions.InlineScript))
			}
			if !hasShebang(r.Actions.InlineScript) {
				log.Warn("inline_script is missing a shebang", "rule", r.Name)
			}
		}
		if r.IsEnabled() && isEmptyMatchers(r.Matchers) {
			log.Warn("rule is enabled with no matchers and will match every event", "rule", r.Name)
		}
	}
}

func hasShebang(script string) bool {
	return len(script) >= 2 && script[0] == '#' && script[1] == '!'
}

func isEmptyMatchers(m Matchers) bool {
	return len(m.Events) == 0 && len(m.Tools) == 0 && len(m.Extensions) == 0 &&
		len(m.Directories) == 0 && len(m.CommandPatterns) == 0 && m.PromptMatch == nil &&
		len(m.RequireFields) == 0 && len(m.FieldTypes) == 0
}

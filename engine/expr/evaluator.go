// Package expr wraps google/cel-go into the small boolean expression
// language used for rule.enabled_when and actions.validate_expr, with a
// ristretto-backed compiled-program cache and custom get_field/has_field
// functions bound against tool_input.
package expr

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/rulez-engine/rulez/engine/fieldpath"
)

// Evaluator compiles and evaluates boolean CEL expressions against event
// data, enforcing a per-evaluation cost limit.
type Evaluator struct {
	env       *cel.Env
	costLimit uint64
	cache     *ristretto.Cache[string, cel.Program]
}

// Option configures an Evaluator at construction time.
type Option func(*options)

type options struct {
	costLimit uint64
	cacheSize int64
}

// WithCostLimit overrides the default CEL evaluation cost limit (1000).
func WithCostLimit(limit uint64) Option {
	return func(o *options) { o.costLimit = limit }
}

// WithCacheSize overrides the default compiled-program cache capacity.
func WithCacheSize(size int) Option {
	return func(o *options) { o.cacheSize = int64(size) }
}

// eventVars names the scalar variables bound from core.Event for every
// evaluation.
var eventVars = []string{"hook_event_name", "tool_name", "cwd", "prompt", "command", "file_path"}

// New builds an Evaluator with get_field/has_field registered and the
// documented event-variable bindings declared.
func New(opts ...Option) (*Evaluator, error) {
	o := options{costLimit: 1000, cacheSize: 256}
	for _, fn := range opts {
		fn(&o)
	}

	decls := make([]cel.EnvOption, 0, len(eventVars)+2)
	for _, v := range eventVars {
		decls = append(decls, cel.Variable(v, cel.StringType))
	}
	decls = append(decls,
		cel.Function("get_field",
			cel.Overload("get_field_string", []*cel.Type{cel.StringType}, cel.DynType,
				cel.UnaryBinding(getFieldImpl))),
		cel.Function("has_field",
			cel.Overload("has_field_string", []*cel.Type{cel.StringType}, cel.BoolType,
				cel.UnaryBinding(hasFieldImpl))),
	)

	env, err := cel.NewEnv(decls...)
	if err != nil {
		return nil, fmt.Errorf("expr: building CEL environment: %w", err)
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, cel.Program]{
		NumCounters: int64(o.cacheSize) * 10,
		MaxCost:     int64(o.cacheSize),
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("expr: building program cache: %w", err)
	}

	return &Evaluator{env: env, costLimit: o.costLimit, cache: cache}, nil
}

// Evaluate compiles (or reuses a cached compilation of) expr, binds data as
// top-level CEL variables plus the current tool_input for get_field/
// has_field, and requires a boolean result.
//
// get_field/has_field resolve against a package-level tool_input slot rather
// than a CEL argument, matching the single-process-single-request model
// (§5): one Evaluate call runs to completion before the next begins, so
// there is no concurrent evaluation to race with.
func (e *Evaluator) Evaluate(ctx context.Context, expression string, data map[string]any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	prg, err := e.compile(expression)
	if err != nil {
		return false, err
	}

	vars := map[string]any{}
	for _, v := range eventVars {
		if val, ok := data[v]; ok {
			vars[v] = fmt.Sprintf("%v", val)
		} else {
			vars[v] = ""
		}
	}

	activeToolInput, _ = data["tool_input"].([]byte)
	defer func() { activeToolInput = nil }()

	out, _, err := prg.ContextEval(ctx, vars)
	if err != nil {
		if costExceeded(err) {
			return false, fmt.Errorf("expr: expression %q exceeded cost limit: %w", expression, err)
		}
		return false, fmt.Errorf("expr: evaluating %q: %w", expression, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expr: expression %q must evaluate to a boolean, got %T", expression, out.Value())
	}
	return b, nil
}

// ValidateExpression compiles expr without evaluating it, surfacing any
// syntax/type error. Used by the config validator at load time.
func (e *Evaluator) ValidateExpression(expression string) error {
	_, err := e.compile(expression)
	return err
}

func (e *Evaluator) compile(expression string) (cel.Program, error) {
	if prg, ok := e.cache.Get(expression); ok {
		return prg, nil
	}
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("expr: compilation of %q failed: %w", expression, issues.Err())
	}
	prg, err := e.env.Program(ast, cel.CostLimit(e.costLimit))
	if err != nil {
		return nil, fmt.Errorf("expr: compilation of %q failed: %w", expression, err)
	}
	e.cache.Set(expression, prg, 1)
	e.cache.Wait()
	return prg, nil
}

func costExceeded(err error) bool {
	return err != nil && (containsFold(err.Error(), "actual cost limit exceeded") ||
		containsFold(err.Error(), "operation cancelled"))
}

func containsFold(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if foldEqual(s[i:i+len(substr)], substr) {
				return true
			}
		}
		return false
	})()
}

func foldEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func getFieldImpl(arg ref.Val) ref.Val {
	path, ok := arg.Value().(string)
	if !ok {
		return types.String("")
	}
	return types.DefaultTypeAdapter.NativeToValue(resolveDyn(path))
}

func hasFieldImpl(arg ref.Val) ref.Val {
	path, ok := arg.Value().(string)
	if !ok {
		return types.Bool(false)
	}
	_, present := resolveField(path)
	return types.Bool(present)
}

// resolveDyn resolves path against the current tool_input and coerces it to
// the string/number/bool get_field contract; unsupported kinds return "".
func resolveDyn(path string) any {
	value, present := resolveField(path)
	if !present {
		return ""
	}
	switch fieldpath.KindOf(value) {
	case fieldpath.KindString, fieldpath.KindNumber, fieldpath.KindBoolean:
		return value
	default:
		return ""
	}
}

// rawToolInputLookup is set per-evaluation by Evaluate via context; CEL
// unary function bindings have no context parameter, so the active
// evaluation's raw tool_input is threaded through a package-level slot
// guarded by the fact that one Evaluate call runs to completion before the
// next begins in this single-request-per-process engine.
var activeToolInput []byte

func resolveField(path string) (any, bool) {
	return fieldpath.Resolve(activeToolInput, path)
}

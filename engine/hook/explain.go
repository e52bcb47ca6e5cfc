package hook

import (
	"fmt"

	"github.com/rulez-engine/rulez/engine/config"
	"github.com/rulez-engine/rulez/engine/core"
	"github.com/rulez-engine/rulez/engine/match"
)

// ExplainReport is the result of running one named rule's matchers against
// a sample Event and reporting, per-matcher-kind, whether it matched —
// the implementation behind `rulez explain`.
type ExplainReport struct {
	RuleName      string
	Found         bool
	Enabled       bool
	Matched       bool
	Trace         *match.Trace
	FieldFailures []match.FieldFailure
}

// ExplainRule locates ruleName in cfg, evaluates its matchers against ev
// with tracing enabled, and reports the per-matcher breakdown.
func ExplainRule(cfg *config.Config, ruleName string, ev *core.Event) (ExplainReport, error) {
	for i := range cfg.Rules {
		r := &cfg.Rules[i]
		if r.Name != ruleName {
			continue
		}
		trace := &match.Trace{Present: map[string]bool{}}
		matched, failures := match.Evaluate(r, cfg, ev, trace)
		return ExplainReport{
			RuleName:      ruleName,
			Found:         true,
			Enabled:       r.IsEnabled(),
			Matched:       matched,
			Trace:         trace,
			FieldFailures: failures,
		}, nil
	}
	return ExplainReport{RuleName: ruleName, Found: false}, fmt.Errorf("hook: no rule named %q", ruleName)
}

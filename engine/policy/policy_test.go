package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rulez-engine/rulez/engine/config"
	"github.com/rulez-engine/rulez/engine/core"
)

func rule(name string, priority int, mode config.Mode) *config.Rule {
	return &config.Rule{Name: name, Priority: priority, Mode: mode}
}

func TestResolve(t *testing.T) {
	t.Run("Should allow with no context when nothing matched", func(t *testing.T) {
		res := Resolve(nil, 0)
		assert.True(t, res.Continue)
		assert.Equal(t, core.DecisionAllowed, res.Decision)
	})

	t.Run("Should block on any enforce block, highest priority winning", func(t *testing.T) {
		low := rule("low", 1, config.ModeEnforce)
		high := rule("high", 10, config.ModeEnforce)
		res := Resolve([]Matched{
			{Rule: low, Response: core.Block("low reason")},
			{Rule: high, Response: core.Block("high reason")},
		}, 0)
		assert.False(t, res.Continue)
		assert.Equal(t, "high reason", res.Reason)
	})

	t.Run("Should never let a warn rule block", func(t *testing.T) {
		warn := rule("warn", 0, config.ModeWarn)
		res := Resolve([]Matched{{Rule: warn, Response: core.Inject("would block", true)}}, 0)
		assert.True(t, res.Continue)
		assert.Equal(t, core.DecisionWarned, res.Decision)
	})

	t.Run("Should report audited when only audit rules matched", func(t *testing.T) {
		a := rule("audit", 0, config.ModeAudit)
		res := Resolve([]Matched{{Rule: a, Response: core.Audited()}}, 0)
		assert.True(t, res.Continue)
		assert.Equal(t, core.DecisionAudited, res.Decision)
	})

	t.Run("Should concatenate injected contexts in priority then file order", func(t *testing.T) {
		first := rule("first", 5, config.ModeEnforce)
		second := rule("second", 5, config.ModeEnforce)
		second.Priority = 5
		first.Priority = 5
		// file order tiebreak relies on Rule.index, set via Config.compile;
		// simulate by constructing through a Config so indices are assigned.
		cfg := &config.Config{Rules: []config.Rule{*first, *second}}
		require := assert.New(t)
		require.NoError(cfg.Compile())
		res := Resolve([]Matched{
			{Rule: &cfg.Rules[0], Response: core.Inject("A", false)},
			{Rule: &cfg.Rules[1], Response: core.Inject("B", false)},
		}, 0)
		assert.Equal("AB", res.Context)
	})

	t.Run("Should truncate once context exceeds max_context_size", func(t *testing.T) {
		r := rule("big", 0, config.ModeEnforce)
		res := Resolve([]Matched{{Rule: r, Response: core.Inject("0123456789", false)}}, 5)
		assert.Contains(t, res.Context, "truncated")
		assert.True(t, len(res.Context) <= 5+len(truncationMarker))
	})
}

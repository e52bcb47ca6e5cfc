package config

import (
	"fmt"
	"regexp"
)

// Compile exposes compile for callers (tests, tooling) that only need the
// pattern arena populated without running full semantic validation.
func (c *Config) Compile() error {
	return c.compile()
}

// compile walks every rule's patterns, compiles each regex exactly once,
// appends it to the shared arena, and records the resulting index on the
// owning matcher/struct. Called once by Validate during load.
func (c *Config) compile() error {
	c.CompiledPatterns = nil
	for i := range c.Rules {
		r := &c.Rules[i]
		r.index = i

		refs, err := c.compilePatterns(r.Matchers.CommandPatterns, false, "")
		if err != nil {
			return fmt.Errorf("rule %q: command_patterns: %w", r.Name, err)
		}
		r.Matchers.compiledCommandPatterns = refs

		if r.Matchers.PromptMatch != nil {
			pm := r.Matchers.PromptMatch
			refs, err := c.compilePatterns(pm.Patterns, pm.CaseInsensitive, string(pm.Anchor))
			if err != nil {
				return fmt.Errorf("rule %q: prompt_match: %w", r.Name, err)
			}
			pm.compiled = refs
		}

		if r.Actions.BlockIfMatch != nil {
			bim := r.Actions.BlockIfMatch
			refs, err := c.compilePatterns(bim.Patterns, false, "")
			if err != nil {
				return fmt.Errorf("rule %q: block_if_match: %w", r.Name, err)
			}
			bim.compiled = refs
		}
	}
	return nil
}

func (c *Config) compilePatterns(patterns []string, caseInsensitive bool, anchor string) ([]CompiledPatternRef, error) {
	refs := make([]CompiledPatternRef, 0, len(patterns))
	for _, p := range patterns {
		source := p
		expr := p
		switch anchor {
		case string(AnchorStart):
			expr = "^" + expr
		case string(AnchorEnd):
			expr += "$"
		}
		if caseInsensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", source, err)
		}
		c.CompiledPatterns = append(c.CompiledPatterns, &CompiledPattern{Source: source, Regexp: re})
		refs = append(refs, CompiledPatternRef(len(c.CompiledPatterns)-1))
	}
	return refs, nil
}

// MatchAny reports whether any compiled pattern in refs matches s.
func (c *Config) MatchAny(refs []CompiledPatternRef, s string) bool {
	for _, ref := range refs {
		if int(ref) < 0 || int(ref) >= len(c.CompiledPatterns) {
			continue
		}
		if c.CompiledPatterns[ref].Regexp.MatchString(s) {
			return true
		}
	}
	return false
}

// MatchAll reports whether every compiled pattern in refs matches s.
func (c *Config) MatchAll(refs []CompiledPatternRef, s string) bool {
	if len(refs) == 0 {
		return false
	}
	for _, ref := range refs {
		if int(ref) < 0 || int(ref) >= len(c.CompiledPatterns) {
			return false
		}
		if !c.CompiledPatterns[ref].Regexp.MatchString(s) {
			return false
		}
	}
	return true
}

// CommandPatternRefs exposes the compiled command_patterns indices for m.
func (m *Matchers) CommandPatternRefs() []CompiledPatternRef {
	return m.compiledCommandPatterns
}

// CompiledRefs exposes the compiled pattern indices for a PromptMatch.
func (p *PromptMatch) CompiledRefs() []CompiledPatternRef {
	return p.compiled
}

// CompiledRefs exposes the compiled pattern indices for a StringOrList.
func (s *StringOrList) CompiledRefs() []CompiledPatternRef {
	return s.compiled
}

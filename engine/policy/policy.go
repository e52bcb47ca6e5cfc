// Package policy resolves the set of matched rules and their per-rule
// responses into a single final decision, per the priority/mode algorithm
// of spec §4.5.
package policy

import (
	"sort"
	"strings"

	"github.com/rulez-engine/rulez/engine/config"
	"github.com/rulez-engine/rulez/engine/core"
)

// Matched pairs a rule with the Response its action pipeline produced.
type Matched struct {
	Rule     *config.Rule
	Response core.Response
}

const truncationMarker = "\n\n[... truncated, context size limit reached ...]\n"

// Resolve collapses matched rules by priority and mode into the final
// Response, per spec §4.5:
//  1. partition by mode
//  2. any enforce block wins, highest priority, file order breaking ties
//  3. else concatenate inject contexts from enforce+warn matches
//  4. else, if only audit rules matched, allow/audited
//  5. else, if nothing matched, allow
func Resolve(matches []Matched, maxContextSize int) core.Response {
	if len(matches) == 0 {
		return core.Allow()
	}

	sorted := make([]Matched, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rule.Priority != sorted[j].Rule.Priority {
			return sorted[i].Rule.Priority > sorted[j].Rule.Priority
		}
		return sorted[i].Rule.Index() < sorted[j].Rule.Index()
	})

	var blocks, injects []Matched
	var anyWarn bool
	allAudit := true

	for _, m := range sorted {
		switch m.Rule.EffectiveMode() {
		case config.ModeEnforce:
			allAudit = false
			if !m.Response.Continue {
				blocks = append(blocks, m)
			} else if m.Response.Context != "" {
				injects = append(injects, m)
			}
		case config.ModeWarn:
			allAudit = false
			anyWarn = true
			if m.Response.Context != "" {
				injects = append(injects, m)
			}
		case config.ModeAudit:
			// audit rules never contribute a block or context
		}
	}

	if len(blocks) > 0 {
		return core.Block(blocks[0].Response.Reason)
	}

	if len(injects) > 0 {
		return core.Inject(concatContexts(injects, maxContextSize), anyWarn)
	}

	if allAudit {
		return core.Audited()
	}

	return core.Allow()
}

func concatContexts(injects []Matched, maxContextSize int) string {
	if maxContextSize <= 0 {
		maxContextSize = DefaultMaxContextSize
	}
	var b strings.Builder
	for _, m := range injects {
		remaining := maxContextSize - b.Len()
		if remaining <= 0 {
			b.WriteString(truncationMarker)
			break
		}
		chunk := m.Response.Context
		if len(chunk) > remaining {
			chunk = chunk[:remaining]
			b.WriteString(chunk)
			b.WriteString(truncationMarker)
			break
		}
		b.WriteString(chunk)
	}
	return b.String()
}

// DefaultMaxContextSize mirrors the documented settings.max_context_size
// default (1 MiB) when a Config omits it.
const DefaultMaxContextSize = 1048576

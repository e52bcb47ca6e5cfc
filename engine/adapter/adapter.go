// Package adapter declares the per-agent translation contract and a
// name-keyed registry. Adapters are the sole place native agent vocabulary
// appears; the matcher and action engines operate exclusively on canonical
// values.
package adapter

import "github.com/rulez-engine/rulez/engine/core"

// Adapter is a set of three pure functions translating between one agent's
// native event/response shapes and the canonical ones, per spec §4.6.
// Dispatch is a struct of fields, not an interface hierarchy, matching the
// "small modules" design note.
type Adapter struct {
	// Name is the adapter's registry key (the CLI's `hook <name>` argument).
	Name string

	// Ingest translates one native event JSON payload into one or more
	// canonical Events. Most adapters return exactly one; adapters with a
	// dual-fire mapping (§4.6) return two.
	Ingest func(nativeJSON []byte) ([]core.Event, error)

	// Emit renders the canonical Response (the result of running the rule
	// engine against every Event Ingest produced, merged by the caller) into
	// the agent's native response JSON, plus the process exit code the
	// native contract expects.
	Emit func(resp core.Response) (nativeJSON []byte, exitCode int, err error)
}

// Registry maps an adapter name (the `hook <name>` CLI argument) to its
// Adapter. Populated by each subpackage's RegisterInto during cmd/rulez
// initialization.
type Registry map[string]Adapter

// NewRegistry returns an empty Registry.
func NewRegistry() Registry {
	return Registry{}
}

// Register adds a to the registry, keyed by a.Name.
func (r Registry) Register(a Adapter) {
	r[a.Name] = a
}

// ApplyToolMapping maps a native tool name to its canonical form via
// mapping; unmapped names pass through unchanged, with original set so the
// caller can preserve it as tool_input.platform_tool_name per spec §4.6.
func ApplyToolMapping(toolName string, mapping map[string]string) (canonical string, original string) {
	if mapped, ok := mapping[toolName]; ok {
		return mapped, toolName
	}
	return toolName, ""
}

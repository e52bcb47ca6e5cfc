// Package opencode adapts OpenCode's native event/response shape, which is
// the closest of the supported agents to the canonical Response itself
// ({continue, context}).
package opencode

import (
	"encoding/json"
	"fmt"

	"github.com/rulez-engine/rulez/engine/adapter"
	"github.com/rulez-engine/rulez/engine/core"
)

var toolMapping = map[string]string{
	"bash":  core.ToolBash,
	"write": core.ToolWrite,
	"edit":  core.ToolEdit,
	"read":  core.ToolRead,
	"glob":  core.ToolGlob,
	"grep":  core.ToolGrep,
	"fetch": core.ToolWebFetch,
}

type nativeEvent struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id"`
	Tool      string         `json:"tool"`
	Input     map[string]any `json:"input"`
	Prompt    string         `json:"prompt"`
	CWD       string         `json:"cwd"`
}

type nativeResponse struct {
	Continue bool   `json:"continue"`
	Context  string `json:"context,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Adapter is the registry entry for OpenCode.
var Adapter = adapter.Adapter{
	Name:   "opencode",
	Ingest: ingest,
	Emit:   emit,
}

func ingest(raw []byte) ([]core.Event, error) {
	var n nativeEvent
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("opencode: invalid event JSON: %w", err)
	}

	toolName, original := adapter.ApplyToolMapping(n.Tool, toolMapping)
	toolInput := n.Input
	if original != "" {
		if toolInput == nil {
			toolInput = map[string]any{}
		}
		toolInput["platform_tool_name"] = original
	}

	return []core.Event{{
		HookEventName: core.EventType(n.Type),
		SessionID:     n.SessionID,
		ToolName:      toolName,
		ToolInput:     toolInput,
		Prompt:        n.Prompt,
		CWD:           n.CWD,
	}}, nil
}

func emit(resp core.Response) ([]byte, int, error) {
	native := nativeResponse{Continue: resp.Continue, Context: resp.Context, Reason: resp.Reason}
	raw, err := json.Marshal(native)
	if err != nil {
		return nil, 1, fmt.Errorf("opencode: marshaling response: %w", err)
	}
	return raw, resp.ExitCode(), nil
}

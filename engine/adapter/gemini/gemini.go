// Package gemini adapts Gemini CLI's native event shape, including its
// dual-fire beforeAgent -> {BeforeAgent, UserPromptSubmit} mapping.
package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/rulez-engine/rulez/engine/adapter"
	"github.com/rulez-engine/rulez/engine/core"
)

// toolMapping translates Gemini's native tool vocabulary to canonical names.
var toolMapping = map[string]string{
	"run_shell_command": core.ToolBash,
	"write_file":        core.ToolWrite,
	"edit_file":         core.ToolEdit,
	"read_file":         core.ToolRead,
	"glob":              core.ToolGlob,
	"search_text":       core.ToolGrep,
	"web_fetch":         core.ToolWebFetch,
}

// eventMapping translates Gemini's native event name to canonical, for the
// events that map 1:1 (beforeAgent dual-fires and is handled separately).
var eventMapping = map[string]core.EventType{
	"beforeModel":        core.BeforeModel,
	"afterModel":         core.AfterModel,
	"beforeToolSelection": core.BeforeToolSelection,
	"sessionStart":        core.SessionStart,
	"sessionEnd":          core.SessionEnd,
}

type nativeEvent struct {
	Event     string         `json:"event"`
	SessionID string         `json:"sessionId"`
	Tool      string         `json:"tool"`
	ToolArgs  map[string]any `json:"toolArgs"`
	Prompt    string         `json:"prompt"`
	CWD       string         `json:"cwd"`
}

type nativeResponse struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
	Context  string `json:"context,omitempty"`
}

// Adapter is the registry entry for Gemini CLI.
var Adapter = adapter.Adapter{
	Name:   "gemini",
	Ingest: ingest,
	Emit:   emit,
}

func ingest(raw []byte) ([]core.Event, error) {
	var n nativeEvent
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("gemini: invalid event JSON: %w", err)
	}

	toolName, original := adapter.ApplyToolMapping(n.Tool, toolMapping)
	toolInput := n.ToolArgs
	if original != "" {
		if toolInput == nil {
			toolInput = map[string]any{}
		}
		toolInput["platform_tool_name"] = original
	}

	base := core.Event{
		SessionID: n.SessionID,
		ToolName:  toolName,
		ToolInput: toolInput,
		Prompt:    n.Prompt,
		CWD:       n.CWD,
	}

	if n.Event == "beforeAgent" {
		before := base
		before.HookEventName = core.BeforeAgent
		submit := base
		submit.HookEventName = core.UserPromptSubmit
		return []core.Event{before, submit}, nil
	}

	eventType, ok := eventMapping[n.Event]
	if !ok {
		eventType = core.EventType(n.Event)
	}
	base.HookEventName = eventType
	return []core.Event{base}, nil
}

func emit(resp core.Response) ([]byte, int, error) {
	decision := "allow"
	if !resp.Continue {
		decision = "deny"
	}
	native := nativeResponse{Decision: decision, Reason: resp.Reason, Context: resp.Context}
	raw, err := json.Marshal(native)
	if err != nil {
		return nil, 1, fmt.Errorf("gemini: marshaling response: %w", err)
	}
	return raw, resp.ExitCode(), nil
}

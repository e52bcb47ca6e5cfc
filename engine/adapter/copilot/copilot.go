// Package copilot adapts GitHub Copilot's native camelCase event/response
// shape, including its permissionDecision response field.
package copilot

import (
	"encoding/json"
	"fmt"

	"github.com/rulez-engine/rulez/engine/adapter"
	"github.com/rulez-engine/rulez/engine/core"
)

var toolMapping = map[string]string{
	"shell":      core.ToolBash,
	"createFile": core.ToolWrite,
	"editFile":   core.ToolEdit,
	"readFile":   core.ToolRead,
	"findFiles":  core.ToolGlob,
	"grepSearch": core.ToolGrep,
}

var eventMapping = map[string]core.EventType{
	"preToolUse":   core.PreToolUse,
	"postToolUse":  core.PostToolUse,
	"promptSubmit": core.UserPromptSubmit,
	"sessionStart": core.SessionStart,
	"sessionEnd":   core.SessionEnd,
}

type nativeEvent struct {
	EventName string         `json:"eventName"`
	SessionID string         `json:"sessionId"`
	ToolName  string         `json:"toolName"`
	ToolInput map[string]any `json:"toolInput"`
	Prompt    string         `json:"prompt"`
	Cwd       string         `json:"cwd"`
}

type nativeResponse struct {
	PermissionDecision string `json:"permissionDecision"`
	Reason             string `json:"reason,omitempty"`
	Context            string `json:"context,omitempty"`
}

// Adapter is the registry entry for GitHub Copilot.
var Adapter = adapter.Adapter{
	Name:   "copilot",
	Ingest: ingest,
	Emit:   emit,
}

func ingest(raw []byte) ([]core.Event, error) {
	var n nativeEvent
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("copilot: invalid event JSON: %w", err)
	}

	toolName, original := adapter.ApplyToolMapping(n.ToolName, toolMapping)
	toolInput := n.ToolInput
	if original != "" {
		if toolInput == nil {
			toolInput = map[string]any{}
		}
		toolInput["platform_tool_name"] = original
	}

	eventType, ok := eventMapping[n.EventName]
	if !ok {
		eventType = core.EventType(n.EventName)
	}

	return []core.Event{{
		HookEventName: eventType,
		SessionID:     n.SessionID,
		ToolName:      toolName,
		ToolInput:     toolInput,
		Prompt:        n.Prompt,
		CWD:           n.Cwd,
	}}, nil
}

func emit(resp core.Response) ([]byte, int, error) {
	decision := "allow"
	if !resp.Continue {
		decision = "deny"
	}
	native := nativeResponse{PermissionDecision: decision, Reason: resp.Reason, Context: resp.Context}
	raw, err := json.Marshal(native)
	if err != nil {
		return nil, 1, fmt.Errorf("copilot: marshaling response: %w", err)
	}
	return raw, resp.ExitCode(), nil
}

// Package claudecode adapts Claude Code's native hook event/response shape,
// which is already close to the canonical form (§6.2 models it directly).
package claudecode

import (
	"encoding/json"
	"fmt"

	"github.com/rulez-engine/rulez/engine/adapter"
	"github.com/rulez-engine/rulez/engine/core"
)

// nativeEvent mirrors Claude Code's own hook payload field names, which are
// already the canonical ones.
type nativeEvent struct {
	HookEventName  string         `json:"hook_event_name"`
	SessionID      string         `json:"session_id"`
	ToolName       string         `json:"tool_name"`
	ToolInput      map[string]any `json:"tool_input"`
	Prompt         string         `json:"prompt"`
	CWD            string         `json:"cwd"`
	TranscriptPath string         `json:"transcript_path"`
}

type nativeResponse struct {
	Continue bool   `json:"continue"`
	Reason   string `json:"reason,omitempty"`
	Context  string `json:"context,omitempty"`
	Decision string `json:"decision"`
}

// Adapter is the registry entry for Claude Code.
var Adapter = adapter.Adapter{
	Name:   "claude-code",
	Ingest: ingest,
	Emit:   emit,
}

func ingest(raw []byte) ([]core.Event, error) {
	var n nativeEvent
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("claudecode: invalid event JSON: %w", err)
	}
	return []core.Event{{
		HookEventName:  core.EventType(n.HookEventName),
		SessionID:      n.SessionID,
		ToolName:       n.ToolName,
		ToolInput:      n.ToolInput,
		Prompt:         n.Prompt,
		CWD:            n.CWD,
		TranscriptPath: n.TranscriptPath,
	}}, nil
}

func emit(resp core.Response) ([]byte, int, error) {
	native := nativeResponse{
		Continue: resp.Continue,
		Reason:   resp.Reason,
		Context:  resp.Context,
		Decision: string(resp.Decision),
	}
	raw, err := json.Marshal(native)
	if err != nil {
		return nil, 1, fmt.Errorf("claudecode: marshaling response: %w", err)
	}
	return raw, resp.ExitCode(), nil
}

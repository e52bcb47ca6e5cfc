package core

import "encoding/json"

// EventType is a canonical hook lifecycle event name.
type EventType string

const (
	PreToolUse          EventType = "PreToolUse"
	PostToolUse         EventType = "PostToolUse"
	PostToolUseFailure  EventType = "PostToolUseFailure"
	PermissionRequest   EventType = "PermissionRequest"
	UserPromptSubmit    EventType = "UserPromptSubmit"
	SessionStart        EventType = "SessionStart"
	SessionEnd          EventType = "SessionEnd"
	Stop                EventType = "Stop"
	SubagentStop        EventType = "SubagentStop"
	Notification        EventType = "Notification"
	PreCompact          EventType = "PreCompact"
	Setup               EventType = "Setup"
	TeammateIdle        EventType = "TeammateIdle"
	TaskCompleted       EventType = "TaskCompleted"
	BeforeAgent         EventType = "BeforeAgent"
	AfterAgent          EventType = "AfterAgent"
	BeforeModel         EventType = "BeforeModel"
	AfterModel          EventType = "AfterModel"
	BeforeToolSelection EventType = "BeforeToolSelection"
)

// Canonical tool names.
const (
	ToolBash      = "Bash"
	ToolWrite     = "Write"
	ToolEdit      = "Edit"
	ToolRead      = "Read"
	ToolGlob      = "Glob"
	ToolGrep      = "Grep"
	ToolWebFetch  = "WebFetch"
	ToolTask      = "Task"
	ToolTodoRead  = "TodoRead"
	ToolTodoWrite = "TodoWrite"
)

// Event is the canonical, adapter-agnostic description of one agent
// lifecycle occurrence. It is built once by an adapter's Ingest function and
// never mutated afterward.
type Event struct {
	HookEventName  EventType      `json:"hook_event_name"`
	SessionID      string         `json:"session_id"`
	ToolName       string         `json:"tool_name,omitempty"`
	ToolInput      map[string]any `json:"tool_input,omitempty"`
	Prompt         string         `json:"prompt,omitempty"`
	CWD            string         `json:"cwd,omitempty"`
	TranscriptPath string         `json:"transcript_path,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`

	// rawToolInput caches the JSON-marshaled form of ToolInput for repeated
	// gjson-backed field-path lookups within a single evaluation.
	rawToolInput []byte
}

// Command returns the tool_input.command convenience scalar, or "".
func (e *Event) Command() string {
	return e.stringField("command")
}

// FilePath returns the tool_input.file_path convenience scalar, or "".
func (e *Event) FilePath() string {
	return e.stringField("file_path")
}

// RawToolInput returns the JSON-marshaled ToolInput, memoized on the Event
// so repeated field-path resolutions within one rule evaluation avoid
// re-marshaling.
func (e *Event) RawToolInput() ([]byte, error) {
	if e == nil {
		return nil, nil
	}
	if e.rawToolInput != nil {
		return e.rawToolInput, nil
	}
	if e.ToolInput == nil {
		return nil, nil
	}
	raw, err := json.Marshal(e.ToolInput)
	if err != nil {
		return nil, err
	}
	e.rawToolInput = raw
	return raw, nil
}

func (e *Event) stringField(key string) string {
	if e == nil || e.ToolInput == nil {
		return ""
	}
	v, ok := e.ToolInput[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

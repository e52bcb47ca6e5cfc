package core

import "errors"

// Error is the engine's one error type: every failure surfaced across a
// package boundary (config load, match, action, adapter) carries one of the
// Code constants in codes.go so a caller two layers up — ultimately
// cmd/rulez's exit-code mapping — can branch on failure kind without
// string-matching a message.
type Error struct {
	Message string         `json:"message,omitempty"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	cause   error
}

// NewError wraps err under code, attaching details for the audit log's
// error-outcome record (SPEC_FULL.md §5.9). details should never carry
// tool_input values verbatim — callers pass only field names, paths, or
// already-redacted strings.
func NewError(err error, code string, details map[string]any) *Error {
	var message string
	if err != nil {
		message = err.Error()
	} else {
		message = "unknown error"
	}
	return &Error{
		Message: message,
		Code:    code,
		Details: details,
		cause:   err,
	}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap lets errors.As/errors.Is see through fmt.Errorf("...: %w", err)
// wrapping to recover the originating *Error and its Code.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// AsMap renders the error for embedding in a LogEntry's error-outcome
// record; nil when the error carries nothing worth logging.
func (e *Error) AsMap() map[string]any {
	if e == nil {
		return nil
	}

	// Return nil if the error has no meaningful content
	if e.Message == "" && e.Code == "" && e.Details == nil {
		return nil
	}

	return map[string]any{
		"message": e.Message,
		"code":    e.Code,
		"details": e.Details,
	}
}

// CodeOf unwraps err looking for an *Error and returns its Code, or "" if
// err is nil or carries no *Error in its chain. Used at the process
// boundary (cmd/rulez) to pick an exit code without re-deriving the
// errors.As boilerplate at every call site.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

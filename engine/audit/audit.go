// Package audit implements the append-only JSON-Lines decision log and its
// filtered query API.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/rulez-engine/rulez/engine/core"
)

// Logger appends LogEntry records to a single JSONL file, guarded by an
// advisory file lock so concurrent invocations never interleave a partial
// line.
type Logger struct {
	path string
}

// New returns a Logger writing to path, creating parent directories if
// necessary.
func New(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("audit: creating log directory: %w", err)
	}
	return &Logger{path: path}, nil
}

// Append serializes entry and appends it as one newline-terminated line.
// Logging errors are the engine's one default fail-open case: callers
// should report the error to stderr and continue emitting the decision
// rather than propagate it as a request failure.
func (l *Logger) Append(entry core.LogEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: marshaling log entry: %w", err)
	}
	line = append(line, '\n')

	lock := flock.New(l.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("audit: acquiring lock: %w", err)
	}
	defer lock.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("audit: opening log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("audit: writing log entry: %w", err)
	}
	return f.Sync()
}

// SiblingRotationHint reports whether numbered rotation siblings
// (path.1, path.2, ...) exist, exposing the hook point an external rotator
// may use without the engine performing rotation itself.
func (l *Logger) SiblingRotationHint() ([]string, bool) {
	matches, _ := filepath.Glob(l.path + ".*")
	return matches, len(matches) > 0
}

// QueryFilters narrows Query's result set. Zero values mean "no filter".
type QueryFilters struct {
	SessionID string
	ToolName  string
	RuleName  string
	Outcome   core.Outcome
	Mode      string
	Decision  core.Decision
	Since     time.Time
	Until     time.Time
	Limit     int
}

// Query streams entries from the log file, newest first, skipping malformed
// lines, applying filters, and honoring Limit.
func Query(path string, filters QueryFilters) ([]core.LogEntry, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("audit: opening log file: %w", err)
	}
	defer f.Close()

	var all []core.LogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry core.LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if matches(entry, filters) {
			all = append(all, entry)
		}
	}

	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}

	if filters.Limit > 0 && len(all) > filters.Limit {
		all = all[:filters.Limit]
	}
	return all, nil
}

func matches(e core.LogEntry, f QueryFilters) bool {
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if f.ToolName != "" && e.ToolName != f.ToolName {
		return false
	}
	if f.RuleName != "" && !containsRule(e.RulesMatched, f.RuleName) {
		return false
	}
	if f.Outcome != "" && e.Outcome != f.Outcome {
		return false
	}
	if f.Mode != "" && e.Mode != f.Mode {
		return false
	}
	if f.Decision != "" && e.Decision != f.Decision {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
		return false
	}
	return true
}

func containsRule(rules []string, name string) bool {
	for _, r := range rules {
		if r == name {
			return true
		}
	}
	return false
}

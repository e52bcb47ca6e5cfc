package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulez-engine/rulez/engine/core"
)

func TestLogger_Append(t *testing.T) {
	t.Run("Should append one newline-terminated JSON record per call", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rulez.log")
		l, err := New(path)
		require.NoError(t, err)

		require.NoError(t, l.Append(core.LogEntry{SessionID: "s1", Timestamp: time.Now(), Outcome: core.OutcomeAllow}))
		require.NoError(t, l.Append(core.LogEntry{SessionID: "s2", Timestamp: time.Now(), Outcome: core.OutcomeBlock}))

		entries, err := Query(path, QueryFilters{})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "s2", entries[0].SessionID, "newest first")
	})
}

func TestQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rulez.log")
	l, err := New(path)
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, l.Append(core.LogEntry{SessionID: "s1", ToolName: "Bash", Outcome: core.OutcomeBlock, Timestamp: now}))
	require.NoError(t, l.Append(core.LogEntry{SessionID: "s2", ToolName: "Edit", Outcome: core.OutcomeAllow, Timestamp: now.Add(time.Second)}))

	t.Run("Should filter by tool_name", func(t *testing.T) {
		entries, err := Query(path, QueryFilters{ToolName: "Bash"})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "s1", entries[0].SessionID)
	})

	t.Run("Should honor limit", func(t *testing.T) {
		entries, err := Query(path, QueryFilters{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("Should skip malformed lines without failing", func(t *testing.T) {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		require.NoError(t, err)
		_, err = f.WriteString("not json\n")
		require.NoError(t, err)
		require.NoError(t, f.Close())

		entries, err := Query(path, QueryFilters{})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("Should return empty results when the log file does not exist", func(t *testing.T) {
		entries, err := Query(filepath.Join(t.TempDir(), "missing.log"), QueryFilters{})
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

package hook

import (
	"github.com/rulez-engine/rulez/engine/audit"
	"github.com/rulez-engine/rulez/engine/core"
)

// QueryLog delegates to engine/audit.Query — the implementation behind
// `rulez logs`.
func QueryLog(logPath string, filters audit.QueryFilters) ([]core.LogEntry, error) {
	return audit.Query(logPath, filters)
}

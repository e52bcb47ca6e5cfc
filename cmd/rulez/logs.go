package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rulez-engine/rulez/engine/audit"
	"github.com/rulez-engine/rulez/engine/config"
	"github.com/rulez-engine/rulez/engine/hook"
)

func newLogsCmd() *cobra.Command {
	var sessionID, toolName, ruleName, since, until string
	var limit int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Query the audit log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := loadFromFlags(cmd)
			if err != nil {
				return fmt.Errorf("logs: %w", err)
			}
			logPath := config.ExpandLogPath(loaded.Config.Settings.LogPath, config.HomeDir())

			filters := audit.QueryFilters{
				SessionID: sessionID,
				ToolName:  toolName,
				RuleName:  ruleName,
				Limit:     limit,
			}
			if since != "" {
				t, err := time.Parse(time.RFC3339, since)
				if err != nil {
					return fmt.Errorf("logs: --since: %w", err)
				}
				filters.Since = t
			}
			if until != "" {
				t, err := time.Parse(time.RFC3339, until)
				if err != nil {
					return fmt.Errorf("logs: --until: %w", err)
				}
				filters.Until = t
			}

			entries, err := hook.QueryLog(logPath, filters)
			if err != nil {
				return fmt.Errorf("logs: %w", err)
			}
			for _, e := range entries {
				out, _ := json.Marshal(e)
				fmt.Println(string(out))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session-id", "", "Filter by session_id")
	cmd.Flags().StringVar(&toolName, "tool", "", "Filter by tool_name")
	cmd.Flags().StringVar(&ruleName, "rule", "", "Filter by matched rule name")
	cmd.Flags().StringVar(&since, "since", "", "Filter to entries at or after this RFC3339 timestamp")
	cmd.Flags().StringVar(&until, "until", "", "Filter to entries at or before this RFC3339 timestamp")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of entries to print (0 = unlimited)")
	return cmd
}

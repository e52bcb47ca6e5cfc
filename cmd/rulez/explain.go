package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rulez-engine/rulez/engine/core"
	"github.com/rulez-engine/rulez/engine/hook"
)

func newExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <rule-name>",
		Short: "Explain why a rule would or would not match a sample event read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadFromFlags(cmd)
			if err != nil {
				return fmt.Errorf("explain: %w", err)
			}

			raw, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("explain: reading event from stdin: %w", err)
			}
			var ev core.Event
			if err := json.Unmarshal(raw, &ev); err != nil {
				return fmt.Errorf("explain: parsing event: %w", err)
			}

			report, err := hook.ExplainRule(loaded.Config, args[0], &ev)
			if err != nil {
				return fmt.Errorf("explain: %w", err)
			}

			out, _ := json.MarshalIndent(report, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
}

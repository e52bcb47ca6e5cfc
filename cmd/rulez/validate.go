package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the effective hooks configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := loadFromFlags(cmd)
			if err != nil {
				return fmt.Errorf("validate: %w", err)
			}
			src := loaded.Config.SourcePath
			if src == "" {
				src = "(built-in defaults)"
			}
			fmt.Printf("config OK: %s (%d rules)\n", src, len(loaded.Config.Rules))
			return nil
		},
	}
}

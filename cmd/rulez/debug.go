package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rulez-engine/rulez/engine/hook"
)

func newDebugCmd() *cobra.Command {
	var adapterName string
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Run one event (read from stdin) through the engine with per-matcher tracing enabled",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := loadFromFlags(cmd)
			if err != nil {
				return fmt.Errorf("debug: %w", err)
			}
			raw, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("debug: reading event from stdin: %w", err)
			}

			eng := hook.New(loaded.Config, registry, loaded.Eval, loaded.Audit, nil)
			out, err := eng.ProcessEvent(context.Background(), adapterName, raw, true)
			if err != nil {
				return fmt.Errorf("debug: %w", err)
			}

			report := struct {
				ExitCode int            `json:"exit_code"`
				Response any            `json:"response"`
				Traces   map[string]any `json:"traces"`
			}{ExitCode: out.ExitCode, Response: out.Response}
			report.Traces = map[string]any{}
			for name, tr := range out.Traces {
				report.Traces[name] = tr
			}

			encoded, _ := json.MarshalIndent(report, "", "  ")
			fmt.Println(string(encoded))
			return nil
		},
	}
	cmd.Flags().StringVar(&adapterName, "adapter", "claude-code", "Agent adapter to ingest the event through")
	return cmd
}

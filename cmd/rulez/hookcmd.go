package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rulez-engine/rulez/engine/core"
	"github.com/rulez-engine/rulez/engine/hook"
)

// newHookCmd wires the hot path: `rulez hook <adapter-name>` reads one
// native event off stdin, runs it through the engine, and writes the
// adapter's native response JSON to stdout with the matching exit code.
//
// Every failure path still writes a response to stdout before exiting:
// spec.md §4.8 requires a block response on a Received-stage parse failure
// (exit 2) and on a config-load failure (exit 1) — a caller that only reads
// stdout must never see an empty pipe.
func newHookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hook <adapter-name>",
		Short: "Process one event from stdin through the named adapter and emit the decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapterName := args[0]

			loaded, err := loadFromFlags(cmd)
			if err != nil {
				logrus.Error(fmt.Errorf("hook: loading config: %w", err))
				writeBlockedAndExit(adapterName, "Configuration error", 1)
				return nil
			}

			raw, err := io.ReadAll(os.Stdin)
			if err != nil {
				logrus.Error(fmt.Errorf("hook: reading event from stdin: %w", err))
				writeBlockedAndExit(adapterName, "Invalid event JSON", 2)
				return nil
			}

			eng := hook.New(loaded.Config, registry, loaded.Eval, loaded.Audit, nil)
			out, err := eng.ProcessEvent(context.Background(), adapterName, raw, false)
			if err != nil {
				logrus.Error(fmt.Errorf("hook: %w", err))
			}

			os.Stdout.Write(out.ResponseJSON)
			os.Stdout.Write([]byte("\n"))
			os.Exit(out.ExitCode)
			return nil
		},
	}
}

// writeBlockedAndExit renders a block Response through adapterName's own
// native Emit when the adapter is registered, falling back to the
// canonical JSON shape otherwise, then exits with code regardless of what
// Response.ExitCode would compute — spec.md distinguishes a config-load
// failure (exit 1) from a malformed-event parse failure (exit 2) even
// though both produce a blocked response.
func writeBlockedAndExit(adapterName, reason string, code int) {
	resp := core.Block(reason)
	raw := emitNative(adapterName, resp)
	os.Stdout.Write(raw)
	os.Stdout.Write([]byte("\n"))
	os.Exit(code)
}

func emitNative(adapterName string, resp core.Response) []byte {
	if a, ok := registry[adapterName]; ok && a.Emit != nil {
		if raw, _, err := a.Emit(resp); err == nil {
			return raw
		}
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return []byte(`{"continue":false,"decision":"blocked"}`)
	}
	return raw
}

// Command rulez is the engine's CLI surface: load/validate the effective
// config, run one event through the full matcher/action/policy pipeline,
// explain why a rule did or didn't match, and query the audit log.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rulez-engine/rulez/engine/adapter"
	"github.com/rulez-engine/rulez/engine/adapter/claudecode"
	"github.com/rulez-engine/rulez/engine/adapter/copilot"
	"github.com/rulez-engine/rulez/engine/adapter/gemini"
	"github.com/rulez-engine/rulez/engine/adapter/opencode"
	"github.com/rulez-engine/rulez/engine/core"
)

// registry is populated once at startup with every supported agent adapter.
var registry = buildRegistry()

func buildRegistry() adapter.Registry {
	r := adapter.NewRegistry()
	r.Register(claudecode.Adapter)
	r.Register(gemini.Adapter)
	r.Register(copilot.Adapter)
	r.Register(opencode.Adapter)
	return r
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetOutput(os.Stderr)

	root := &cobra.Command{
		Use:   "rulez",
		Short: "A local-first deterministic policy engine for AI coding agent hooks",
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.WarnLevel)
			}
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "Path to an explicit hooks.yaml, bypassing hierarchical resolution")
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging on stderr")

	root.AddCommand(
		newValidateCmd(),
		newExplainCmd(),
		newLogsCmd(),
		newDebugCmd(),
		newHookCmd(),
	)

	if err := root.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a top-level command error to the engine's conventional
// exit codes: an event-ingest failure (malformed JSON, unknown adapter)
// exits 2, matching the blocked response the `hook` subcommand already
// wrote to stdout on that path; every other failure (config, validation,
// usage) exits 1, the plain cobra-error convention.
func exitCodeFor(err error) int {
	if core.CodeOf(err) == core.CodeEvent {
		return 2
	}
	return 1
}

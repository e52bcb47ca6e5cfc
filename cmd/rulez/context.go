package main

import (
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/rulez-engine/rulez/engine/config"
	"github.com/rulez-engine/rulez/engine/hook"
	"github.com/rulez-engine/rulez/pkg/logger"
)

// loadFromFlags resolves the effective configuration for the invoking
// process, honoring the global --config override.
func loadFromFlags(cmd *cobra.Command) (*hook.LoadedConfig, error) {
	overridePath, _ := cmd.Flags().GetString("config")
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	log := logger.NewLogger(nil)
	return hook.LoadConfig(afero.NewOsFs(), cwd, config.HomeDir(), overridePath, log)
}

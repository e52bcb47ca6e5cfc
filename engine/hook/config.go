package hook

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/rulez-engine/rulez/engine/audit"
	"github.com/rulez-engine/rulez/engine/config"
	"github.com/rulez-engine/rulez/engine/expr"
	"github.com/rulez-engine/rulez/pkg/logger"
)

// LoadedConfig is the result of resolving and validating one effective
// configuration, plus the evaluator and audit logger built from its
// settings — everything a CLI command needs to construct an Engine.
type LoadedConfig struct {
	Config *config.Config
	Eval   *expr.Evaluator
	Audit  *audit.Logger
}

// LoadConfig resolves the hierarchical configuration for cwd (project ->
// user -> built-in defaults), eagerly validates it (regex compilation,
// expression syntax, field-path grammar), and constructs the expression
// evaluator and audit logger the rest of the engine needs. overridePath, if
// non-empty, is read directly instead of walking the hierarchy — the
// `--config` flag's escape hatch.
func LoadConfig(fsys afero.Fs, cwd, homeDir, overridePath string, log logger.Logger) (*LoadedConfig, error) {
	if log == nil {
		log = logger.FromContext(nil)
	}

	var cfg *config.Config
	var sourcePath string
	var err error

	if overridePath != "" {
		cfg, err = loadExplicit(fsys, overridePath)
		sourcePath = overridePath
	} else {
		cfg, sourcePath, err = config.LoadCached(fsys, cwd, homeDir)
	}
	if err != nil {
		return nil, fmt.Errorf("hook: loading config: %w", err)
	}
	cfg.SourcePath = sourcePath

	eval, err := expr.New(expr.WithCostLimit(cfg.Settings.ExpressionCost))
	if err != nil {
		return nil, fmt.Errorf("hook: building expression evaluator: %w", err)
	}

	if err := config.Validate(cfg, eval, log); err != nil {
		return nil, fmt.Errorf("hook: invalid config: %w", err)
	}

	logPath := config.ExpandLogPath(cfg.Settings.LogPath, homeDir)
	auditLog, err := audit.New(logPath)
	if err != nil {
		return nil, fmt.Errorf("hook: opening audit log: %w", err)
	}

	return &LoadedConfig{Config: cfg, Eval: eval, Audit: auditLog}, nil
}

// ValidateConfig re-runs the eager validation pass against an already loaded
// Config and returns the aggregated error, if any — the implementation
// behind `rulez validate`.
func ValidateConfig(cfg *config.Config, eval *expr.Evaluator, log logger.Logger) error {
	return config.Validate(cfg, eval, log)
}

func loadExplicit(fsys afero.Fs, path string) (*config.Config, error) {
	raw, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	cfg := config.Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = "1.0"
	}
	config.ApplySettingsDefaults(&cfg.Settings)
	return cfg, nil
}

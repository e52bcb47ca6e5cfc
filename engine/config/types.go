// Package config loads, validates, and holds the effective policy: the
// hierarchical YAML resolution, eager regex/expression/path validation, and
// the compiled-pattern arena rules borrow from during matching.
package config

import (
	"time"

	"github.com/rulez-engine/rulez/engine/core"
)

// Settings are the engine-wide knobs under the `settings` YAML key.
type Settings struct {
	LogLevel        string `yaml:"log_level"`
	LogPath         string `yaml:"log_path"`
	ScriptTimeout   int    `yaml:"script_timeout"`
	FailOpen        bool   `yaml:"fail_open"`
	MaxContextSize  int    `yaml:"max_context_size"`
	ExpressionCost  uint64 `yaml:"expression_cost_limit"`
}

// DefaultSettings mirrors the YAML defaults documented in the config format.
func DefaultSettings() Settings {
	return Settings{
		LogLevel:       "info",
		LogPath:        "~/.claude/logs/rulez.log",
		ScriptTimeout:  5,
		FailOpen:       false,
		MaxContextSize: 1048576,
		ExpressionCost: 1000,
	}
}

// ScriptTimeoutDuration returns Settings.ScriptTimeout as a time.Duration.
func (s Settings) ScriptTimeoutDuration() time.Duration {
	if s.ScriptTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.ScriptTimeout) * time.Second
}

// Anchor names where prompt_match regexes are anchored.
type Anchor string

const (
	AnchorStart    Anchor = "start"
	AnchorEnd      Anchor = "end"
	AnchorAnywhere Anchor = "anywhere"
)

// Mode names a rule's enforcement stance.
type Mode string

const (
	ModeEnforce Mode = "enforce"
	ModeWarn    Mode = "warn"
	ModeAudit   Mode = "audit"
)

// PromptMatch is `prompt_match`, accepted either as a bare regex string or as
// a structured object. See UnmarshalYAML in yaml.go.
type PromptMatch struct {
	Patterns        []string
	Mode            string // any|all
	CaseInsensitive bool
	Anchor          Anchor

	compiled []CompiledPatternRef
}

// Matchers is the conjunctive predicate set evaluated for one Rule.
type Matchers struct {
	Events          []core.EventType  `yaml:"events,omitempty"`
	Tools           []string          `yaml:"tools,omitempty"`
	Extensions      []string          `yaml:"extensions,omitempty"`
	Directories     []string          `yaml:"directories,omitempty"`
	CommandPatterns []string          `yaml:"command_patterns,omitempty"`
	PromptMatch     *PromptMatch      `yaml:"prompt_match,omitempty"`
	RequireFields   []string          `yaml:"require_fields,omitempty"`
	FieldTypes      map[string]string `yaml:"field_types,omitempty"`

	// compiledCommandPatterns indexes into Config.CompiledPatterns, populated
	// by Config.compile(). Rules never own *regexp.Regexp directly.
	compiledCommandPatterns []CompiledPatternRef
}

// CompiledPatternRef points at one entry in Config.CompiledPatterns.
type CompiledPatternRef int

// StringOrList is `block_if_match`: a single regex or a list of regexes, any
// of which matching blocks.
type StringOrList struct {
	Patterns []string

	compiled []CompiledPatternRef
}

// Actions is the set of effects realized when a Rule matches.
type Actions struct {
	Block         bool          `yaml:"block,omitempty"`
	BlockIfMatch  *StringOrList `yaml:"block_if_match,omitempty"`
	Inject        string        `yaml:"inject,omitempty"`
	InjectInline  string        `yaml:"inject_inline,omitempty"`
	InjectCommand string        `yaml:"inject_command,omitempty"`
	Run           string        `yaml:"run,omitempty"`
	ValidateExpr  string        `yaml:"validate_expr,omitempty"`
	InlineScript  string        `yaml:"inline_script,omitempty"`
}

// HasValidationGate reports whether this rule carries a validate_expr or
// inline_script gate. The config validator enforces these are mutually
// exclusive; once validated, callers may treat at most one as set.
func (a Actions) HasValidationGate() bool {
	return a.ValidateExpr != "" || a.InlineScript != ""
}

// Metadata is the optional governance block on a Rule.
type Metadata struct {
	Author       string   `yaml:"author,omitempty"`
	Reason       string   `yaml:"reason,omitempty"`
	Confidence   string   `yaml:"confidence,omitempty"`
	Ticket       string   `yaml:"ticket,omitempty"`
	Tags         []string `yaml:"tags,omitempty"`
	LastReviewed string   `yaml:"last_reviewed,omitempty"`
	Timeout      Duration `yaml:"timeout,omitempty"`
}

// Rule is one matcher/action pair with governance metadata.
type Rule struct {
	Name        string   `yaml:"name"         validate:"required"`
	Description string   `yaml:"description,omitempty"`
	Enabled     *bool    `yaml:"enabled,omitempty"`
	EnabledWhen string   `yaml:"enabled_when,omitempty"`
	Priority    int      `yaml:"priority,omitempty"`
	Mode        Mode     `yaml:"mode,omitempty" validate:"omitempty,oneof=enforce warn audit"`
	Matchers    Matchers `yaml:"matchers,omitempty"`
	Actions     Actions  `yaml:"actions,omitempty"`
	Metadata    Metadata `yaml:"metadata,omitempty"`

	// index is this rule's position in Config.Rules, used as the file-order
	// tiebreaker for equal-priority matches.
	index int
}

// IsEnabled reports whether the rule defaults to enabled (enabled: true is
// the zero-value default per the spec).
func (r *Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// EffectiveMode returns the rule's mode, defaulting to enforce.
func (r *Rule) EffectiveMode() Mode {
	if r.Mode == "" {
		return ModeEnforce
	}
	return r.Mode
}

// Index returns the rule's position in its owning Config.Rules.
func (r *Rule) Index() int { return r.index }

// Config is the effective, validated policy.
type Config struct {
	Version  string   `yaml:"version"`
	Settings Settings `yaml:"settings"`
	Rules    []Rule   `yaml:"rules" validate:"dive"`

	// CompiledPatterns is the flat regex arena: rules carry
	// CompiledPatternRef indices into this slice rather than owning
	// *regexp.Regexp directly, per the arena-ownership design.
	CompiledPatterns []*CompiledPattern

	// SourcePath is the file this Config was loaded from (empty for
	// built-in defaults).
	SourcePath string
}

// CompiledPattern pairs a regexp with the source text it was compiled from,
// so validation errors and debug traces can name the offending pattern.
type CompiledPattern struct {
	Source string
	Regexp patternMatcher
}

// patternMatcher is satisfied by *regexp.Regexp; indirection keeps this file
// free of the regexp import so compile.go owns compilation exclusively.
type patternMatcher interface {
	MatchString(string) bool
}

// Default returns the built-in empty configuration: no rules, default
// settings. Used when no project or user config file is found.
func Default() *Config {
	return &Config{
		Version:  "1.0",
		Settings: DefaultSettings(),
		Rules:    nil,
	}
}

// Package config loads server configuration from .codenav.kdl (preferred)
// or .codenav.toml, falling back to defaults when neither exists.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Config is the full server configuration.
type Config struct {
	Project Project
	Budget  Budget
	Scoring Scoring
	Tree    Tree
	Log     Log
}

// Project identifies the workspace the server fronts.
type Project struct {
	Root string
	Name string
}

// Budget tunes the response reduction engine.
type Budget struct {
	DefaultTokenLimit int // limit used when the caller declares none
	ResourceEntries   int // cap on stored full payloads
}

// Scoring tunes the priority scorers.
type Scoring struct {
	// GeneratedGlobs are low-signal path patterns penalized during
	// ranking (generated code, designer files, migrations).
	GeneratedGlobs []string
}

// Tree tunes hierarchical reduction.
type Tree struct {
	MaxFanout int  // siblings kept per grouping per level
	Parallel  bool // reduce sibling subtrees concurrently
}

// Log controls diagnostic logging.
type Log struct {
	Dir   string // empty = system temp
	Level string // debug, info, warn, error
}

// Default returns the baseline configuration.
func Default() *Config {
	root, err := os.Getwd()
	if err != nil {
		root = "."
	}
	return &Config{
		Project: Project{Root: root},
		Budget: Budget{
			DefaultTokenLimit: 10000,
			ResourceEntries:   64,
		},
		Scoring: Scoring{
			GeneratedGlobs: []string{
				"**/*.generated.cs",
				"**/*.Designer.cs",
				"**/*.g.cs",
				"**/obj/**",
				"**/bin/**",
				"**/node_modules/**",
				"**/*.d.ts",
			},
		},
		Tree: Tree{
			MaxFanout: 3,
			Parallel:  runtime.NumCPU() > 1,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads configuration from projectRoot, preferring .codenav.kdl and
// accepting .codenav.toml as an alternative. A missing file is not an
// error; defaults are returned.
func Load(projectRoot string) (*Config, error) {
	if projectRoot == "" {
		projectRoot = "."
	}
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	cfg, err := LoadKDL(absRoot)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg, err = LoadTOML(absRoot)
		if err != nil {
			return nil, err
		}
	}
	if cfg == nil {
		cfg = Default()
		cfg.Project.Root = absRoot
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for out-of-range values.
func (c *Config) Validate() error {
	if c.Budget.DefaultTokenLimit < 100 {
		return fmt.Errorf("budget.default_token_limit must be at least 100, got %d", c.Budget.DefaultTokenLimit)
	}
	if c.Budget.ResourceEntries < 1 {
		return fmt.Errorf("budget.resource_entries must be positive, got %d", c.Budget.ResourceEntries)
	}
	if c.Tree.MaxFanout < 1 {
		return fmt.Errorf("tree.max_fanout must be positive, got %d", c.Tree.MaxFanout)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

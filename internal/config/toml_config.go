package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// tomlConfig mirrors Config with TOML tags; only the fields present in
// the file override the defaults.
type tomlConfig struct {
	Project struct {
		Root string `toml:"root"`
		Name string `toml:"name"`
	} `toml:"project"`
	Budget struct {
		DefaultTokenLimit *int `toml:"default_token_limit"`
		ResourceEntries   *int `toml:"resource_entries"`
	} `toml:"budget"`
	Scoring struct {
		GeneratedGlobs []string `toml:"generated_globs"`
	} `toml:"scoring"`
	Tree struct {
		MaxFanout *int  `toml:"max_fanout"`
		Parallel  *bool `toml:"parallel"`
	} `toml:"tree"`
	Log struct {
		Dir   string `toml:"dir"`
		Level string `toml:"level"`
	} `toml:"log"`
}

// LoadTOML attempts to load configuration from a .codenav.toml file in
// projectRoot. Returns (nil, nil) when the file does not exist.
func LoadTOML(projectRoot string) (*Config, error) {
	tomlPath := filepath.Join(projectRoot, ".codenav.toml")

	if _, err := os.Stat(tomlPath); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(tomlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .codenav.toml: %w", err)
	}

	var raw tomlConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	cfg := Default()
	cfg.Project.Root = ""
	if raw.Project.Root != "" {
		cfg.Project.Root = raw.Project.Root
	}
	if raw.Project.Name != "" {
		cfg.Project.Name = raw.Project.Name
	}
	if raw.Budget.DefaultTokenLimit != nil {
		cfg.Budget.DefaultTokenLimit = *raw.Budget.DefaultTokenLimit
	}
	if raw.Budget.ResourceEntries != nil {
		cfg.Budget.ResourceEntries = *raw.Budget.ResourceEntries
	}
	if len(raw.Scoring.GeneratedGlobs) > 0 {
		cfg.Scoring.GeneratedGlobs = raw.Scoring.GeneratedGlobs
	}
	if raw.Tree.MaxFanout != nil {
		cfg.Tree.MaxFanout = *raw.Tree.MaxFanout
	}
	if raw.Tree.Parallel != nil {
		cfg.Tree.Parallel = *raw.Tree.Parallel
	}
	if raw.Log.Dir != "" {
		cfg.Log.Dir = raw.Log.Dir
	}
	if raw.Log.Level != "" {
		cfg.Log.Level = raw.Log.Level
	}

	resolveRoot(cfg, projectRoot)
	return cfg, nil
}

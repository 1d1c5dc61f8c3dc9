package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	return dir
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10000, cfg.Budget.DefaultTokenLimit)
	assert.Equal(t, 64, cfg.Budget.ResourceEntries)
	assert.Equal(t, 3, cfg.Tree.MaxFanout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.Scoring.GeneratedGlobs)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Project.Root)
	assert.Equal(t, 10000, cfg.Budget.DefaultTokenLimit)
}

func TestLoad_KDL(t *testing.T) {
	dir := writeConfig(t, ".codenav.kdl", `
project {
    name "billing"
}
budget {
    default_token_limit 25000
    resource_entries 16
}
scoring {
    generated_globs "**/*.g.cs" "**/obj/**"
}
tree {
    max_fanout 5
    parallel false
}
log {
    level "debug"
}
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "billing", cfg.Project.Name)
	assert.Equal(t, dir, cfg.Project.Root, "unset root resolves to the config directory")
	assert.Equal(t, 25000, cfg.Budget.DefaultTokenLimit)
	assert.Equal(t, 16, cfg.Budget.ResourceEntries)
	assert.Equal(t, []string{"**/*.g.cs", "**/obj/**"}, cfg.Scoring.GeneratedGlobs)
	assert.Equal(t, 5, cfg.Tree.MaxFanout)
	assert.False(t, cfg.Tree.Parallel)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_KDLPartialKeepsDefaults(t *testing.T) {
	dir := writeConfig(t, ".codenav.kdl", `
budget {
    default_token_limit 5000
}
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Budget.DefaultTokenLimit)
	assert.Equal(t, 64, cfg.Budget.ResourceEntries)
	assert.Equal(t, 3, cfg.Tree.MaxFanout)
}

func TestLoad_TOML(t *testing.T) {
	dir := writeConfig(t, ".codenav.toml", `
[project]
name = "billing"

[budget]
default_token_limit = 25000

[scoring]
generated_globs = ["**/*.g.cs"]

[tree]
max_fanout = 4
parallel = false

[log]
level = "warn"
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "billing", cfg.Project.Name)
	assert.Equal(t, dir, cfg.Project.Root)
	assert.Equal(t, 25000, cfg.Budget.DefaultTokenLimit)
	assert.Equal(t, []string{"**/*.g.cs"}, cfg.Scoring.GeneratedGlobs)
	assert.Equal(t, 4, cfg.Tree.MaxFanout)
	assert.False(t, cfg.Tree.Parallel)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_KDLPreferredOverTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codenav.kdl"),
		[]byte("budget {\n    default_token_limit 1111\n}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codenav.toml"),
		[]byte("[budget]\ndefault_token_limit = 2222\n"), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 1111, cfg.Budget.DefaultTokenLimit)
}

func TestLoad_RelativeRootResolved(t *testing.T) {
	dir := writeConfig(t, ".codenav.kdl", `
project {
    root "src"
}
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src"), cfg.Project.Root)
}

func TestLoad_MalformedKDL(t *testing.T) {
	dir := writeConfig(t, ".codenav.kdl", `budget { default_token_limit`)

	_, err := Load(dir)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"tiny limit", func(c *Config) { c.Budget.DefaultTokenLimit = 50 }, false},
		{"zero entries", func(c *Config) { c.Budget.ResourceEntries = 0 }, false},
		{"zero fanout", func(c *Config) { c.Tree.MaxFanout = 0 }, false},
		{"bad level", func(c *Config) { c.Log.Level = "verbose" }, false},
		{"empty level", func(c *Config) { c.Log.Level = "" }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

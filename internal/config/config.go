// Package config provides configuration loading and management.
package config

import "github.com/bundlekit/cli/internal/bundle"

// Config represents the bkit CLI configuration.
// Loaded from ~/.bkit/config.yaml with BKIT_* environment overrides.
type Config struct {
	// DefaultScope is the install scope used when --scope is omitted.
	// Env: BKIT_DEFAULT_SCOPE, Default: "repository"
	DefaultScope string `json:"defaultScope,omitempty" mapstructure:"defaultScope"`

	// DefaultCommitMode is the commit mode for repository installs when
	// --mode is omitted.
	// Env: BKIT_DEFAULT_COMMIT_MODE, Default: "commit"
	DefaultCommitMode string `json:"defaultCommitMode,omitempty" mapstructure:"defaultCommitMode"`

	// CacheDir overrides the bundle cache location.
	// Env: BKIT_CACHE_DIR, Default: ~/.bkit/cache
	CacheDir string `json:"cacheDir,omitempty" mapstructure:"cacheDir"`

	// StoreDir overrides the per-user bundle store location.
	// Env: BKIT_STORE_DIR, Default: ~/.bkit/store
	StoreDir string `json:"storeDir,omitempty" mapstructure:"storeDir"`
}

// DefaultConfig returns a Config with all default values populated.
// Used by `bkit config init` to generate the initial config file.
func DefaultConfig() *Config {
	return &Config{
		DefaultScope:      string(bundle.ScopeRepository),
		DefaultCommitMode: string(bundle.ModeCommit),
	}
}

// WithDefaults fills unset fields with defaults and returns the config.
func (c *Config) WithDefaults() *Config {
	if c.DefaultScope == "" {
		c.DefaultScope = string(bundle.ScopeRepository)
	}
	if c.DefaultCommitMode == "" {
		c.DefaultCommitMode = string(bundle.ModeCommit)
	}
	return c
}

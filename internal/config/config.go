// Package config provides YAML-based configuration for fileurl.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Config is the top-level configuration struct for fileurl.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Remote     RemoteConfig     `mapstructure:"remote"`
	Hosts      []string         `mapstructure:"hosts"`
	Submodules SubmodulesConfig `mapstructure:"submodules"`
	Branch     BranchConfig     `mapstructure:"branch"`
	Output     OutputConfig     `mapstructure:"output"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Log        LogConfig        `mapstructure:"log"`
}

// RemoteConfig holds remote selection settings.
type RemoteConfig struct {
	// Default is used when the branch section names no remote.
	Default string `mapstructure:"default"`
}

// SubmodulesConfig holds sub-repository matching settings.
type SubmodulesConfig struct {
	// Match is "first" or "longest".
	Match string `mapstructure:"match"`
}

// BranchConfig holds branch resolution settings.
type BranchConfig struct {
	// Resolver is "gogit" or "libgit2".
	Resolver string `mapstructure:"resolver"`
}

// OutputConfig holds CLI output settings.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Simple bool   `mapstructure:"simple"`
	Copy   bool   `mapstructure:"copy"`
}

// CacheConfig bounds the per-run cache of parsed git config files.
type CacheConfig struct {
	// Entries caps the number of cached files. Zero disables the cache.
	Entries int `mapstructure:"entries"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Output formats.
const (
	FormatMarkdown = "markdown"
	FormatPlain    = "plain"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatTable    = "table"
)

// Formats lists every supported output format.
var Formats = []string{FormatMarkdown, FormatPlain, FormatJSON, FormatYAML, FormatTable}

var (
	matchStrategies = []string{"first", "longest"}
	branchResolvers = []string{"gogit", "libgit2"}
	logLevels       = []string{"debug", "info", "warn", "error"}
)

// Sentinel errors for configuration validation.
var (
	// ErrEmptyDefaultRemote indicates remote.default is blank.
	ErrEmptyDefaultRemote = errors.New("remote.default must not be empty")
	// ErrInvalidHost indicates a hosts entry is blank or carries a scheme or path.
	ErrInvalidHost = errors.New("hosts entries must be bare host names")
	// ErrInvalidMatch indicates an unsupported submodules.match value.
	ErrInvalidMatch = errors.New("submodules.match must be first or longest")
	// ErrInvalidResolver indicates an unsupported branch.resolver value.
	ErrInvalidResolver = errors.New("branch.resolver must be gogit or libgit2")
	// ErrInvalidFormat indicates an unsupported output.format value.
	ErrInvalidFormat = errors.New("output.format must be markdown, plain, json, yaml or table")
	// ErrInvalidCache indicates a negative cache setting.
	ErrInvalidCache = errors.New("cache.entries must not be negative")
	// ErrInvalidLogLevel indicates an unsupported log.level value.
	ErrInvalidLogLevel = errors.New("log.level must be debug, info, warn or error")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Remote.Default) == "" {
		return ErrEmptyDefaultRemote
	}

	for _, host := range c.Hosts {
		if host == "" || strings.ContainsAny(host, "/:@ ") {
			return fmt.Errorf("%w: %q", ErrInvalidHost, host)
		}
	}

	if !slices.Contains(matchStrategies, strings.ToLower(c.Submodules.Match)) {
		return fmt.Errorf("%w: %q", ErrInvalidMatch, c.Submodules.Match)
	}

	if !slices.Contains(branchResolvers, strings.ToLower(c.Branch.Resolver)) {
		return fmt.Errorf("%w: %q", ErrInvalidResolver, c.Branch.Resolver)
	}

	if !slices.Contains(Formats, strings.ToLower(c.Output.Format)) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}

	if c.Cache.Entries < 0 {
		return ErrInvalidCache
	}

	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}

	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".fileurl"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for fileurl settings.
const envPrefix = "FILEURL"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Defaults.
const (
	DefaultRemote         = "origin"
	DefaultMatch          = "first"
	DefaultBranchResolver = "gogit"
	DefaultFormat         = FormatMarkdown
	DefaultLogLevel       = "info"
	DefaultCacheEntries   = 512
)

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		Remote:     RemoteConfig{Default: DefaultRemote},
		Hosts:      []string{},
		Submodules: SubmodulesConfig{Match: DefaultMatch},
		Branch:     BranchConfig{Resolver: DefaultBranchResolver},
		Output:     OutputConfig{Format: DefaultFormat},
		Cache:      CacheConfig{Entries: DefaultCacheEntries},
		Log:        LogConfig{Level: DefaultLogLevel},
	}
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("remote.default", DefaultRemote)
	viperCfg.SetDefault("hosts", []string{})

	viperCfg.SetDefault("submodules.match", DefaultMatch)
	viperCfg.SetDefault("branch.resolver", DefaultBranchResolver)

	viperCfg.SetDefault("output.format", DefaultFormat)
	viperCfg.SetDefault("output.simple", false)
	viperCfg.SetDefault("output.copy", false)

	viperCfg.SetDefault("cache.entries", DefaultCacheEntries)

	viperCfg.SetDefault("log.level", DefaultLogLevel)
	viperCfg.SetDefault("log.json", false)
}

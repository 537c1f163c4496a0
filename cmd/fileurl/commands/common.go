// Package commands implements CLI command handlers for fileurl.
package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/fileurl/internal/cache"
	"github.com/Sumatoshi-tech/fileurl/internal/config"
	"github.com/Sumatoshi-tech/fileurl/internal/observability"
	"github.com/Sumatoshi-tech/fileurl/pkg/branch"
	"github.com/Sumatoshi-tech/fileurl/pkg/fileurl"
	"github.com/Sumatoshi-tech/fileurl/pkg/gitconfig"
	"github.com/Sumatoshi-tech/fileurl/pkg/locator"
	"github.com/Sumatoshi-tech/fileurl/pkg/version"
	"github.com/Sumatoshi-tech/fileurl/pkg/weburl"
)

// Persistent flag names shared by every subcommand.
const (
	flagConfig  = "config"
	flagVerbose = "verbose"
	flagQuiet   = "quiet"
)

// observabilityInit matches observability.Init so tests can inject providers.
type observabilityInit func(observability.Config) (observability.Providers, error)

// RegisterGlobalFlags adds the persistent flags every subcommand understands.
func RegisterGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().String(flagConfig, "", "config file (default: ./.fileurl.yaml or ~/.fileurl.yaml)")
	root.PersistentFlags().BoolP(flagVerbose, "v", false, "verbose output")
	root.PersistentFlags().BoolP(flagQuiet, "q", false, "suppress warnings")
}

// stringFlag reads a possibly inherited flag, returning "" when it is not registered.
func stringFlag(cmd *cobra.Command, name string) string {
	if cmd.Flags().Lookup(name) == nil {
		return ""
	}

	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}

	return value
}

func boolFlag(cmd *cobra.Command, name string) bool {
	if cmd.Flags().Lookup(name) == nil {
		return false
	}

	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}

	return value
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(stringFlag(cmd, flagConfig))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// observabilityConfig derives the telemetry settings for one invocation.
func observabilityConfig(cfg *config.Config, mode observability.AppMode, debug bool) (observability.Config, error) {
	obsCfg := observability.ConfigFromEnv(observability.DefaultConfig())
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.LogJSON = cfg.Log.JSON

	level, err := observability.ParseLevel(cfg.Log.Level)
	if err != nil {
		return obsCfg, err
	}

	obsCfg.LogLevel = level

	if debug {
		obsCfg.LogLevel = slog.LevelDebug
	}

	return obsCfg, nil
}

// composerSettings are the per-invocation overrides on top of the config file.
type composerSettings struct {
	branch string
	remote string
	// reader overrides the plain on-disk config reader. Servers leave it nil so
	// every tool call sees the files as they are on disk.
	reader locator.ConfigReader
}

func buildComposer(
	cfg *config.Config, settings composerSettings, logger *slog.Logger, tracer trace.Tracer,
) (*fileurl.Composer, error) {
	match, err := fileurl.ParseMatchStrategy(cfg.Submodules.Match)
	if err != nil {
		return nil, err
	}

	var branches branch.Resolver

	if settings.branch != "" {
		branches = branch.Static(settings.branch)
	} else {
		branches, err = branch.New(strings.ToLower(cfg.Branch.Resolver))
		if err != nil {
			return nil, err
		}
	}

	reader := settings.reader
	if reader == nil {
		reader = gitconfig.NewReader()
	}

	remote := cfg.Remote.Default
	if settings.remote != "" {
		remote = settings.remote
	}

	return fileurl.New(fileurl.Options{
		Locator:       locator.New(reader, logger),
		Branches:      branches,
		Rewriter:      weburl.NewRewriter(cfg.Hosts...),
		DefaultRemote: remote,
		Match:         match,
		Logger:        logger,
		Tracer:        tracer,
	}), nil
}

// runConfigReader reads git config files from disk, memoized for one run. The
// cached reader is nil when the cache is disabled.
func runConfigReader(cfg config.CacheConfig) (locator.ConfigReader, *cache.Reader) {
	reader := gitconfig.NewReader()
	if cfg.Entries == 0 {
		return reader, nil
	}

	cached := cache.NewReader(reader, cache.NewRecordCache(cfg.Entries))

	return cached, cached
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/fileurl/internal/batch"
	"github.com/Sumatoshi-tech/fileurl/internal/clipboard"
	"github.com/Sumatoshi-tech/fileurl/internal/config"
	"github.com/Sumatoshi-tech/fileurl/internal/observability"
	"github.com/Sumatoshi-tech/fileurl/pkg/fileurl"
)

const (
	flagLines     = "lines"
	flagSimple    = "simple"
	flagCopy      = "copy"
	flagFormat    = "format"
	flagWorkspace = "workspace"
	flagBranch    = "branch"
	flagRemote    = "remote"
	flagWorkers   = "workers"
	flagNoColor   = "no-color"

	urlSpanName = "fileurl.url"
)

// ErrNoLinks is returned when none of the given files produced a link.
var ErrNoLinks = errors.New("no links generated")

// urlDeps are the collaborators the url command reaches outside the process for.
type urlDeps struct {
	obsInit   observabilityInit
	clipboard clipboard.Writer
	fs        afero.Fs
	stdout    io.Writer
	stderr    io.Writer
}

// URLCommand holds flag values for the url command.
type URLCommand struct {
	lines     string
	simple    bool
	copy      bool
	format    string
	workspace string
	branch    string
	remote    string
	workers   int
	noColor   bool

	deps urlDeps
}

// NewURLCommand creates the url command.
func NewURLCommand() *cobra.Command {
	return newURLCommandWithDeps(urlDeps{
		obsInit:   observability.Init,
		clipboard: clipboard.NewSystem(),
	})
}

func newURLCommandWithDeps(deps urlDeps) *cobra.Command {
	uc := &URLCommand{deps: deps}

	cmd := &cobra.Command{
		Use:   "url <file>...",
		Short: "Print GitHub links for local files",
		Long: `Print a GitHub link for every given file on the current branch.

Files inside submodules link to the submodule's own repository. A line range
(--lines 10-20) adds a #L10-L20 anchor. Missing files are skipped with a
warning when several files are given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: uc.run,
	}

	cmd.Flags().StringVarP(&uc.lines, flagLines, "l", "", "line range to anchor, e.g. 10 or 10-20")
	cmd.Flags().BoolVarP(&uc.simple, flagSimple, "s", false, "print bare urls instead of markdown links")
	cmd.Flags().BoolVarP(&uc.copy, flagCopy, "c", false, "copy the links to the system clipboard")
	cmd.Flags().StringVarP(&uc.format, flagFormat, "f", "", "output format: "+strings.Join(config.Formats, ", "))
	cmd.Flags().StringVar(&uc.workspace, flagWorkspace, "", "workspace root shown in diagnostics (default: current directory)")
	cmd.Flags().StringVar(&uc.branch, flagBranch, "", "use this branch instead of reading HEAD")
	cmd.Flags().StringVar(&uc.remote, flagRemote, "", "remote used when the branch tracks none (default: from config)")
	cmd.Flags().IntVar(&uc.workers, flagWorkers, 0, "concurrent resolutions (0 = CPU count)")
	cmd.Flags().BoolVar(&uc.noColor, flagNoColor, false, "disable colored diagnostics")

	return cmd
}

func (uc *URLCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	uc.applyConfig(cmd, cfg)

	lines, err := fileurl.ParseLineRange(uc.lines)
	if err != nil {
		return err
	}

	if !isKnownFormat(uc.format) {
		return fmt.Errorf("%w: %q", config.ErrInvalidFormat, uc.format)
	}

	obsCfg, err := observabilityConfig(cfg, observability.ModeCLI, boolFlag(cmd, flagVerbose))
	if err != nil {
		return err
	}

	providers, err := uc.deps.obsInit(obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil && providers.Logger != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	logger := providers.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tracer := providers.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}

	ctx, span := tracer.Start(cmd.Context(), urlSpanName,
		trace.WithAttributes(attribute.Int("fileurl.files", len(args))))
	defer span.End()

	runErr := uc.resolve(ctx, cmd, cfg, args, lines, logger, tracer)

	span.SetAttributes(attribute.Bool("error", runErr != nil))

	if runErr != nil {
		span.SetStatus(codes.Error, runErr.Error())
	}

	return runErr
}

// applyConfig fills flags the user did not set from the config file.
func (uc *URLCommand) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed(flagFormat) {
		uc.format = cfg.Output.Format
	}

	if !cmd.Flags().Changed(flagSimple) {
		uc.simple = cfg.Output.Simple
	}

	if !cmd.Flags().Changed(flagCopy) {
		uc.copy = cfg.Output.Copy
	}

	uc.format = strings.ToLower(uc.format)
}

func (uc *URLCommand) resolve(
	ctx context.Context, cmd *cobra.Command, cfg *config.Config,
	args []string, lines fileurl.LineRange, logger *slog.Logger, tracer trace.Tracer,
) error {
	reader, cached := runConfigReader(cfg.Cache)

	composer, err := buildComposer(cfg, composerSettings{branch: uc.branch, remote: uc.remote, reader: reader}, logger, tracer)
	if err != nil {
		return err
	}

	workspace, err := uc.workspaceRoot()
	if err != nil {
		return err
	}

	files := make([]string, 0, len(args))
	for _, arg := range args {
		files = append(files, absPath(workspace, arg))
	}

	report, err := batch.Run(ctx, composer, files, lines, batch.Options{
		Fs:        uc.deps.fs,
		Workspace: workspace,
		Workers:   uc.workers,
	})
	if err != nil {
		return err
	}

	if cached != nil {
		stats := cached.Stats()
		logger.DebugContext(ctx, "config cache",
			"hits", stats.Hits, "misses", stats.Misses, "hit_rate", stats.HitRate())
	}

	stdout, stderr := uc.writers(cmd)

	uc.printDiagnostics(stderr, report, boolFlag(cmd, flagQuiet))

	if report.Failed() {
		diagErr := report.Diagnostic()
		if diagErr != nil {
			return diagErr
		}

		return ErrNoLinks
	}

	renderErr := render(stdout, uc.format, report, uc.simple)
	if renderErr != nil {
		return renderErr
	}

	if uc.copy {
		uc.copyLinks(stderr, report, logger)
	}

	return nil
}

func (uc *URLCommand) workspaceRoot() (string, error) {
	if uc.workspace != "" {
		return filepath.Abs(uc.workspace)
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("working directory: %w", err)
	}

	return wd, nil
}

func (uc *URLCommand) writers(cmd *cobra.Command) (stdout, stderr io.Writer) {
	stdout, stderr = uc.deps.stdout, uc.deps.stderr
	if stdout == nil {
		stdout = cmd.OutOrStdout()
	}

	if stderr == nil {
		stderr = cmd.ErrOrStderr()
	}

	return stdout, stderr
}

func (uc *URLCommand) printDiagnostics(w io.Writer, report batch.Report, quiet bool) {
	warn := color.New(color.FgYellow)
	fail := color.New(color.FgRed)

	if uc.noColor {
		warn.DisableColor()
		fail.DisableColor()
	}

	if summary := report.WarningSummary(); summary != "" && !quiet {
		warn.Fprintln(w, summary)
	}

	if summary := report.ErrorSummary(); summary != "" {
		fail.Fprintln(w, summary)
	}
}

func (uc *URLCommand) copyLinks(w io.Writer, report batch.Report, logger *slog.Logger) {
	text := strings.Join(report.Links(uc.simple), "\n")

	err := uc.deps.clipboard.WriteText(text)
	if err != nil {
		logger.Warn("copy to clipboard failed", "error", err)
		color.New(color.FgYellow).Fprintf(w, "could not copy to clipboard: %v\n", err)

		return
	}

	logger.Debug("copied links to clipboard", "count", len(report.Successes()))
}

func absPath(workspace, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}

	return filepath.Join(workspace, p)
}

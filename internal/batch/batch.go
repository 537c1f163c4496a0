// Package batch resolves many files at once, collecting per-file failures
// and missing-file warnings instead of aborting.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/fileurl/pkg/fileurl"
)

// renderedExt marks editor preview buffers that never exist on disk.
const renderedExt = ".rendered"

// ErrNoFiles is returned when Run is called without any file.
var ErrNoFiles = errors.New("no files given")

// ErrNothingResolved is reported when no file produced a link and nothing explains why.
var ErrNothingResolved = errors.New("no url was generated, is this a GitHub repository?")

// Composer resolves a single file. *fileurl.Composer satisfies it.
type Composer interface {
	Compose(ctx context.Context, filePath string, lines fileurl.LineRange) (fileurl.Result, error)
}

// Options tunes a batch run.
type Options struct {
	// Fs is used for existence checks. Nil means the OS filesystem.
	Fs afero.Fs
	// Workspace is the caller's working root. It only appears in diagnostics.
	Workspace string
	// Workers bounds concurrent compositions. Zero means GOMAXPROCS.
	Workers int
}

// Entry is the outcome for one input file.
type Entry struct {
	Path   string
	Result fileurl.Result
	Err    error
}

// OK reports whether the entry produced a link.
func (e Entry) OK() bool {
	return e.Err == nil
}

// Report aggregates a batch run. Entries keeps input order (after de-duplication);
// skipped files have no entry.
type Report struct {
	Entries   []Entry
	Warnings  []string
	Workspace string
}

// Run resolves every unique file in files. The same line range applies to each.
func Run(ctx context.Context, composer Composer, files []string, lines fileurl.LineRange, opts Options) (Report, error) {
	if len(files) == 0 {
		return Report{}, ErrNoFiles
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	report := Report{Workspace: opts.Workspace}

	unique := dedupe(files)
	multi := len(unique) > 1

	var paths []string

	for _, path := range unique {
		exists, err := afero.Exists(fs, path)
		if err == nil && exists {
			paths = append(paths, path)

			continue
		}

		if multi && strings.EqualFold(filepath.Ext(path), renderedExt) {
			continue
		}

		report.Warnings = append(report.Warnings, missingMessage(path))

		if !multi {
			paths = append(paths, path)
		}
	}

	report.Entries = make([]Entry, len(paths))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for idx, path := range paths {
		g.Go(func() error {
			res, err := composer.Compose(gctx, path, lines)
			report.Entries[idx] = Entry{Path: path, Result: res, Err: err}

			return nil
		})
	}

	waitErr := g.Wait()
	if waitErr != nil {
		return report, fmt.Errorf("resolve files: %w", waitErr)
	}

	return report, nil
}

func dedupe(files []string) []string {
	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))

	for _, f := range files {
		if _, ok := seen[f]; ok {
			continue
		}

		seen[f] = struct{}{}
		out = append(out, f)
	}

	return out
}

func missingMessage(path string) string {
	return fmt.Sprintf("The file '%s' does not exist locally.", path)
}

// Successes returns the entries that produced a link, in input order.
func (r Report) Successes() []Entry {
	var out []Entry

	for _, e := range r.Entries {
		if e.OK() {
			out = append(out, e)
		}
	}

	return out
}

// Errors returns the per-file failures, in input order.
func (r Report) Errors() []error {
	var out []error

	for _, e := range r.Entries {
		if !e.OK() {
			out = append(out, e.Err)
		}
	}

	return out
}

// Links formats every success as a markdown link, or as the bare URL when simple is set.
func (r Report) Links(simple bool) []string {
	successes := r.Successes()
	out := make([]string, 0, len(successes))

	for _, e := range successes {
		out = append(out, e.Result.Link(simple))
	}

	return out
}

// Failed reports whether no file produced a link.
func (r Report) Failed() bool {
	return len(r.Successes()) == 0
}

// ErrorSummary renders the failures as one block, or "" when there are none.
func (r Report) ErrorSummary() string {
	return summarize("errors", messages(r.Errors()))
}

// WarningSummary renders the warnings as one block, or "" when there are none.
func (r Report) WarningSummary() string {
	return summarize("warnings", r.Warnings)
}

// Diagnostic explains an empty result that carries neither errors nor warnings.
func (r Report) Diagnostic() error {
	if !r.Failed() || len(r.Errors()) > 0 || len(r.Warnings) > 0 {
		return nil
	}

	return fmt.Errorf("%w (workspace root: %s)", ErrNothingResolved, r.Workspace)
}

func messages(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}

	return out
}

func summarize(noun string, items []string) string {
	if len(items) == 0 {
		return ""
	}

	if len(items) == 1 {
		noun = strings.TrimSuffix(noun, "s")
	}

	return fmt.Sprintf("The following %d %s occurred:\n\n%s", len(items), noun, strings.Join(items, "\n\n"))
}

// Package fileurl turns a local file path into a browsable web URL on the file's hosting provider.
package fileurl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/fileurl/pkg/branch"
	"github.com/Sumatoshi-tech/fileurl/pkg/locator"
	"github.com/Sumatoshi-tech/fileurl/pkg/weburl"
)

// DefaultRemote is used when the branch section names no remote.
const DefaultRemote = "origin"

const (
	tracerName    = "fileurl"
	composeSpan   = "fileurl.compose"
	branchSection = "branch"
	remoteSection = "remote"
	remoteKey     = "remote"
	urlKey        = "url"
	blobSegment   = "/blob/"
)

// MatchStrategy selects which sub-repository wins when several contain the file.
type MatchStrategy string

// Match strategies.
const (
	// MatchFirst picks the first matching entry in walk order.
	MatchFirst MatchStrategy = "first"
	// MatchLongest picks the most specific (deepest) matching entry.
	MatchLongest MatchStrategy = "longest"
)

// ErrUnknownMatchStrategy is returned by ParseMatchStrategy.
var ErrUnknownMatchStrategy = errors.New("unknown submodule match strategy")

// ParseMatchStrategy maps a configuration value to a MatchStrategy. Empty means MatchFirst.
func ParseMatchStrategy(s string) (MatchStrategy, error) {
	switch MatchStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchFirst:
		return MatchFirst, nil
	case MatchLongest:
		return MatchLongest, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMatchStrategy, s)
	}
}

// RepoLocator finds the repository owning a path.
type RepoLocator interface {
	Locate(startPath string) (locator.Location, error)
}

// WebRooter rewrites a remote url into its browsable web root.
type WebRooter interface {
	ToWebRoot(remote string) (string, error)
}

// Options configures a Composer. Locator, Branches and Rewriter are required.
type Options struct {
	Locator  RepoLocator
	Branches branch.Resolver
	Rewriter WebRooter

	// DefaultRemote overrides "origin" as the fallback remote name.
	DefaultRemote string
	Match         MatchStrategy

	Logger *slog.Logger
	Tracer trace.Tracer
}

// Result is a successfully composed link.
type Result struct {
	// URL is the web link. Path characters that would end or split a URL path
	// (%, space, # and ?) are percent-escaped.
	URL                     string `json:"url"                         yaml:"url"`
	RelativeFilePath        string `json:"relative_file_path"          yaml:"relative_file_path"`
	RelativePathFromGitRoot string `json:"relative_path_from_git_root" yaml:"relative_path_from_git_root"`
	Branch                  string `json:"branch"                      yaml:"branch"`
	Remote                  string `json:"remote"                      yaml:"remote"`
	RootPath                string `json:"root_path"                   yaml:"root_path"`
	TargetPath              string `json:"target_path"                 yaml:"target_path"`
}

// Link renders the result as a markdown link labeled with the root-relative path,
// or as the bare URL when simple is set.
func (r Result) Link(simple bool) string {
	if simple {
		return r.URL
	}

	return "[" + r.RelativePathFromGitRoot + "](" + r.URL + ")"
}

// Composer resolves file paths into web URLs. It holds only immutable collaborators
// and is safe for concurrent use.
type Composer struct {
	locator       RepoLocator
	branches      branch.Resolver
	rewriter      WebRooter
	defaultRemote string
	match         MatchStrategy
	logger        *slog.Logger
	tracer        trace.Tracer
}

// New creates a Composer.
func New(opts Options) *Composer {
	c := &Composer{
		locator:       opts.Locator,
		branches:      opts.Branches,
		rewriter:      opts.Rewriter,
		defaultRemote: opts.DefaultRemote,
		match:         opts.Match,
		logger:        opts.Logger,
		tracer:        opts.Tracer,
	}

	if c.defaultRemote == "" {
		c.defaultRemote = DefaultRemote
	}

	if c.match == "" {
		c.match = MatchFirst
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}

	return c
}

// target is the repository a URL is built against: the root or a sub-repository.
type target struct {
	url  string
	path string
}

// Compose resolves filePath into a web URL, appending a line anchor when lines is set.
// Every failure is returned as an *Error; collaborator panics are recovered.
func (c *Composer) Compose(ctx context.Context, filePath string, lines LineRange) (res Result, err error) {
	ctx, span := c.tracer.Start(ctx, composeSpan, trace.WithAttributes(attribute.String("fileurl.path", filePath)))
	defer span.End()

	if start, ok := lines.Start(); ok {
		span.SetAttributes(attribute.Int("fileurl.line.start", start), attribute.String("fileurl.lines", lines.String()))
	}

	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = &Error{Kind: ErrUnhandled, Path: filePath, Err: fmt.Errorf("panic: %v", r)}
		}

		c.finish(ctx, span, filePath, res, err)
	}()

	return c.compose(ctx, filePath, lines)
}

func (c *Composer) compose(ctx context.Context, filePath string, lines LineRange) (Result, error) {
	normalized := locator.NormalizePath(filePath)

	loc, err := c.locator.Locate(normalized)
	if err != nil {
		if errors.Is(err, locator.ErrNotFound) {
			return Result{}, &Error{Kind: ErrNoRepositoryFound, Path: filePath}
		}

		return Result{}, &Error{Kind: ErrUnhandled, Path: filePath, Err: err}
	}

	branchName, err := c.branches.CurrentBranch(ctx, loc.RootPath)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, &Error{Kind: ErrUnhandled, Path: filePath, Err: err}
		}

		return Result{}, &Error{Kind: ErrBranchResolutionFailed, Path: filePath, Detail: "repository " + loc.RootPath, Err: err}
	}

	remoteName := c.defaultRemote

	if sec, ok := loc.Config.Lookup(branchSection, branchName); ok && sec.Get(remoteKey) != "" {
		remoteName = sec.Get(remoteKey)
	}

	remote, ok := loc.Config.Lookup(remoteSection, remoteName)
	if !ok || remote.Get(urlKey) == "" {
		return Result{}, &Error{
			Kind:   ErrNoRemoteConfigured,
			Path:   filePath,
			Detail: fmt.Sprintf("remote %q for branch %q in %s", remoteName, branchName, loc.RootPath),
		}
	}

	tgt := target{url: remote.Get(urlKey), path: loc.RootPath}

	if sub, found := c.matchSubRepo(loc.SubRepos, normalized); found {
		tgt = target{url: subRepoURL(loc, tgt.url, sub, len(loc.SubRepos)), path: sub.Path}

		c.logger.DebugContext(ctx, "file belongs to a sub-repository",
			"path", normalized, "subrepo", sub.Name, "subrepo_path", sub.Path)
	}

	webRoot, err := c.rewriter.ToWebRoot(tgt.url)
	if err != nil {
		return Result{}, &Error{Kind: ErrURLRewriteFailed, Path: filePath, Detail: "remote url " + tgt.url, Err: err}
	}

	relFromRoot := stripPrefix(normalized, loc.RootPath)
	relFile := stripPrefix(normalized, tgt.path)

	url := webRoot + blobSegment + escapePath(branchName)
	if relFile != "" {
		url += "/" + escapePath(relFile)
	}

	url = locator.NormalizePath(url) + lines.Anchor()

	return Result{
		URL:                     url,
		RelativeFilePath:        relFile,
		RelativePathFromGitRoot: relFromRoot,
		Branch:                  branchName,
		Remote:                  tgt.url,
		RootPath:                loc.RootPath,
		TargetPath:              tgt.path,
	}, nil
}

func (c *Composer) finish(ctx context.Context, span trace.Span, filePath string, res Result, err error) {
	kind := KindName(KindOf(err))

	span.SetAttributes(attribute.String("fileurl.outcome", kind))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		c.logger.DebugContext(ctx, "compose failed", "path", filePath, "kind", kind, "error", err)

		return
	}

	span.SetAttributes(attribute.String("fileurl.branch", res.Branch))
	c.logger.DebugContext(ctx, "composed url", "path", filePath, "url", res.URL)
}

// matchSubRepo picks the sub-repository containing path. A match must end on a
// path boundary.
func (c *Composer) matchSubRepo(subs []locator.SubRepo, path string) (locator.SubRepo, bool) {
	var (
		best  locator.SubRepo
		found bool
	)

	for _, sub := range subs {
		if !hasPathPrefix(path, sub.Path) {
			continue
		}

		if c.match == MatchFirst {
			return sub, true
		}

		if !found || len(sub.Path) > len(best.Path) {
			best, found = sub, true
		}
	}

	return best, found
}

// subRepoURL resolves a relative sub-repository url against the remote of the
// repository that declared it, walking up nested declarations to the root remote.
// hops bounds the walk.
func subRepoURL(loc locator.Location, rootURL string, sub locator.SubRepo, hops int) string {
	if !weburl.IsRelative(sub.URL) {
		return sub.URL
	}

	base := rootURL

	if hops > 0 && sub.DeclaredIn != loc.RootPath {
		for _, parent := range loc.SubRepos {
			if parent.Path == sub.DeclaredIn {
				base = subRepoURL(loc, rootURL, parent, hops-1)

				break
			}
		}
	}

	return weburl.ResolveRelative(base, sub.URL)
}

func hasPathPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if !strings.HasPrefix(path, prefix) {
		return false
	}

	rest := path[len(prefix):]

	return rest == "" || rest[0] == '/'
}

func stripPrefix(path, prefix string) string {
	return strings.TrimLeft(strings.TrimPrefix(path, prefix), "/")
}

// pathEscaper escapes only the characters that would end or corrupt a URL path.
var pathEscaper = strings.NewReplacer("%", "%25", " ", "%20", "#", "%23", "?", "%3F")

func escapePath(p string) string {
	return pathEscaper.Replace(p)
}

// Package locator finds the repository that owns a file by walking upward through
// its ancestor directories, collecting nested sub-repository declarations on the way.
package locator

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/Sumatoshi-tech/fileurl/pkg/gitconfig"
)

const (
	submoduleSection = "submodule"
	urlKey           = "url"
	separator        = "/"
)

// ErrNotFound is returned when no root configuration exists at or above the start path.
var ErrNotFound = errors.New("no repository root found")

// ConfigReader reads git-config syntax files relative to a directory.
// A missing file yields an empty record and no error.
type ConfigReader interface {
	Read(dir, relPath string) (gitconfig.Record, error)
}

// SubRepo is one sub-repository declared by a manifest or by the root config.
type SubRepo struct {
	// Path is the absolute, forward-slash directory of the sub-repository.
	Path string
	// Name is the quoted identifier from the declaring section.
	Name string
	// URL is the sub-repository's remote URL, possibly relative ("../lib.git").
	URL string
	// DeclaredIn is the directory whose manifest or root config declared the entry.
	// Relative URLs resolve against the remote of the repository at DeclaredIn.
	DeclaredIn string
}

// Location describes the repository that owns a path.
type Location struct {
	// RootPath is the directory holding the root configuration.
	RootPath string
	// Config is the parsed root configuration.
	Config gitconfig.Record
	// SubRepos lists every sub-repository found during the walk, deepest first.
	SubRepos []SubRepo
}

// Locator walks ancestor directories looking for repository metadata.
type Locator struct {
	reader ConfigReader
	logger *slog.Logger
}

// New creates a Locator. A nil logger falls back to slog.Default.
func New(reader ConfigReader, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Locator{reader: reader, logger: logger}
}

// NormalizePath flips backslashes to forward slashes. Already-normalized input is returned unchanged.
func NormalizePath(p string) string {
	return strings.ReplaceAll(p, `\`, separator)
}

// Locate walks upward from startPath. The first directory holding a non-empty root
// configuration ends the walk; non-empty manifests below it contribute sub-repositories.
func (l *Locator) Locate(startPath string) (Location, error) {
	normalized := NormalizePath(startPath)
	parts := strings.Split(normalized, separator)

	var subRepos []SubRepo

	for len(parts) > 0 {
		current := joinParts(parts)

		rootCfg, rootErr := l.reader.Read(current, gitconfig.RootConfigFile)
		if rootErr != nil {
			return Location{}, fmt.Errorf("read root config at %s: %w", current, rootErr)
		}

		if !rootCfg.Empty() {
			subRepos = append(subRepos, l.extractSubRepos(current, rootCfg)...)

			l.logger.Debug("repository root found",
				"root", current, "start", normalized, "sub_repos", len(subRepos))

			return Location{RootPath: current, Config: rootCfg, SubRepos: subRepos}, nil
		}

		modules, modErr := l.reader.Read(current, gitconfig.ModulesFile)
		if modErr != nil {
			return Location{}, fmt.Errorf("read manifest at %s: %w", current, modErr)
		}

		if !modules.Empty() {
			subRepos = append(subRepos, l.extractSubRepos(current, modules)...)
		}

		parts = parts[:len(parts)-1]
	}

	return Location{}, fmt.Errorf("%w: %s", ErrNotFound, normalized)
}

// extractSubRepos turns every `submodule "<name>"` section with a url into a SubRepo
// rooted at dir. Sections without a url are skipped with a warning.
func (l *Locator) extractSubRepos(dir string, rec gitconfig.Record) []SubRepo {
	var out []SubRepo

	for _, sec := range rec.Sections() {
		name, ok := quotedName(sec)
		if !ok {
			continue
		}

		fullPath := NormalizePath(path.Join(dir, name))

		if !sec.Has(urlKey) {
			l.logger.Warn("sub-repository is missing a url, it will be skipped",
				"section", sec.Key(), "path", fullPath)

			continue
		}

		url := sec.Get(urlKey)
		if url == "" {
			l.logger.Warn("sub-repository has an empty url, it will be skipped",
				"section", sec.Key(), "path", fullPath)

			continue
		}

		out = append(out, SubRepo{Path: fullPath, Name: name, URL: url, DeclaredIn: dir})
	}

	return out
}

// quotedName extracts the quoted identifier of a submodule section.
func quotedName(sec gitconfig.Section) (string, bool) {
	if sec.Name != submoduleSection || sec.Subsection == "" {
		return "", false
	}

	return sec.Subsection, true
}

// joinParts rebuilds a directory from path segments. A lone empty segment is the
// filesystem root of an absolute POSIX path, a lone "C:" is a drive root.
func joinParts(parts []string) string {
	if len(parts) == 1 {
		if parts[0] == "" || strings.HasSuffix(parts[0], ":") {
			return parts[0] + separator
		}
	}

	return strings.Join(parts, separator)
}

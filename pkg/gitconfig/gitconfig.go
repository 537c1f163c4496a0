// Package gitconfig reads git-config syntax files (.git/config, .gitmodules) into
// ordered, immutable records of sections and key/value pairs.
package gitconfig

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	format "github.com/go-git/go-git/v5/plumbing/format/config"
)

// Well-known file locations relative to a working tree directory.
const (
	// RootConfigFile marks a directory as a repository root.
	RootConfigFile = ".git/config"
	// ModulesFile declares sub-repositories mounted below a directory.
	ModulesFile = ".gitmodules"
)

const (
	dotGit          = ".git"
	gitdirPrefix    = "gitdir:"
	commonDirFile   = "commondir"
	configFileName  = "config"
	dotGitPrefixLen = len(dotGit) + 1
)

// ErrMalformedGitFile is returned when a .git file does not carry a gitdir pointer.
var ErrMalformedGitFile = errors.New("malformed .git file")

// Section is one parsed section of a config file, e.g. [remote "origin"].
type Section struct {
	// Name is the lower-cased section name ("remote", "branch", "submodule").
	Name string
	// Subsection is the quoted identifier, case preserved. Empty for plain sections.
	Subsection string

	values map[string]string
}

// Key renders the section header the way it is written in the file: `name "subsection"`.
func (s Section) Key() string {
	if s.Subsection == "" {
		return s.Name
	}

	return fmt.Sprintf("%s %q", s.Name, s.Subsection)
}

// Get returns the value for key, or "" when it is unset. Keys are case-insensitive.
func (s Section) Get(key string) string {
	return s.values[strings.ToLower(key)]
}

// Has reports whether key is set in the section.
func (s Section) Has(key string) bool {
	_, ok := s.values[strings.ToLower(key)]

	return ok
}

// Record is the parsed content of one config file.
type Record struct {
	sections []Section
}

// Empty reports whether the record holds no sections. An absent file yields an empty record.
func (r Record) Empty() bool {
	return len(r.sections) == 0
}

// Len returns the number of sections.
func (r Record) Len() int {
	return len(r.sections)
}

// Sections returns the sections in file order.
func (r Record) Sections() []Section {
	out := make([]Section, len(r.sections))
	copy(out, r.sections)

	return out
}

// Lookup finds the section with the given name and subsection.
// The name match is case-insensitive, the subsection match is exact.
func (r Record) Lookup(name, subsection string) (Section, bool) {
	for _, s := range r.sections {
		if strings.EqualFold(s.Name, name) && s.Subsection == subsection {
			return s, true
		}
	}

	return Section{}, false
}

// Parse decodes git-config syntax from rd.
func Parse(rd io.Reader) (Record, error) {
	raw := format.New()

	decodeErr := format.NewDecoder(rd).Decode(raw)
	if decodeErr != nil {
		return Record{}, fmt.Errorf("decode config: %w", decodeErr)
	}

	var rec Record

	for _, sec := range raw.Sections {
		name := strings.ToLower(sec.Name)

		if len(sec.Options) > 0 || len(sec.Subsections) == 0 {
			rec.sections = append(rec.sections, newSection(name, "", sec.Options))
		}

		for _, sub := range sec.Subsections {
			rec.sections = append(rec.sections, newSection(name, sub.Name, sub.Options))
		}
	}

	return rec, nil
}

func newSection(name, subsection string, opts format.Options) Section {
	s := Section{
		Name:       name,
		Subsection: subsection,
		values:     make(map[string]string, len(opts)),
	}

	for _, opt := range opts {
		key := strings.ToLower(opt.Key)

		// Multivars collapse to the last value, as git config --get does.
		s.values[key] = opt.Value
	}

	return s
}

// Reader loads config files from disk.
type Reader struct{}

// NewReader creates a Reader.
func NewReader() *Reader {
	return &Reader{}
}

// Read parses the config file at dir/relPath. A missing file is not an error: it
// returns an empty Record. Paths below ".git/" follow a linked worktree's .git
// file to the shared repository directory.
func (r *Reader) Read(dir, relPath string) (Record, error) {
	path, resolveErr := resolvePath(dir, relPath)
	if resolveErr != nil {
		return Record{}, resolveErr
	}

	if path == "" {
		return Record{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || isNotDir(err) {
			return Record{}, nil
		}

		return Record{}, fmt.Errorf("read %s: %w", path, err)
	}

	rec, parseErr := Parse(bytes.NewReader(data))
	if parseErr != nil {
		return Record{}, fmt.Errorf("parse %s: %w", path, parseErr)
	}

	return rec, nil
}

// resolvePath maps dir/relPath to the file to read. It returns "" when the
// location cannot hold the file.
func resolvePath(dir, relPath string) (string, error) {
	direct := filepath.Join(dir, filepath.FromSlash(relPath))
	if !strings.HasPrefix(relPath, dotGit+"/") {
		return direct, nil
	}

	dotGitPath := filepath.Join(dir, dotGit)

	info, err := os.Stat(dotGitPath)
	if err != nil || info.IsDir() {
		return direct, nil //nolint:nilerr // absent .git reads as an empty record
	}

	gitDir, gitDirErr := readGitDirPointer(dir, dotGitPath)
	if gitDirErr != nil {
		return "", gitDirErr
	}

	// Submodule checkouts also use a .git file; their config is not a repository
	// root for URL purposes, so only linked worktrees (which carry commondir) are followed.
	commonDir, ok := readCommonDir(gitDir)
	if !ok {
		return "", nil
	}

	rest := relPath[dotGitPrefixLen:]
	if rest == configFileName {
		return filepath.Join(commonDir, configFileName), nil
	}

	return filepath.Join(gitDir, filepath.FromSlash(rest)), nil
}

func readGitDirPointer(dir, dotGitPath string) (string, error) {
	data, err := os.ReadFile(dotGitPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", dotGitPath, err)
	}

	line, _, _ := strings.Cut(string(data), "\n")

	target, ok := strings.CutPrefix(strings.TrimSpace(line), gitdirPrefix)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMalformedGitFile, dotGitPath)
	}

	target = filepath.FromSlash(strings.TrimSpace(target))
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}

	return filepath.Clean(target), nil
}

func readCommonDir(gitDir string) (string, bool) {
	f, err := os.Open(filepath.Join(gitDir, commonDirFile))
	if err != nil {
		return "", false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return "", false
	}

	common := filepath.FromSlash(strings.TrimSpace(sc.Text()))
	if common == "" {
		return "", false
	}

	if !filepath.IsAbs(common) {
		common = filepath.Join(gitDir, common)
	}

	return filepath.Clean(common), true
}

// isNotDir reports ENOTDIR failures, e.g. reading "file.txt/.git/config".
func isNotDir(err error) bool {
	return errors.Is(err, syscall.ENOTDIR)
}

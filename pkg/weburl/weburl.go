// Package weburl rewrites git remote URLs (SSH, git://, https with .git suffix)
// into the browsable https web root of the hosted repository. Remotes are parsed
// with go-git's transport endpoints.
package weburl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// DefaultHosts are the hosting providers recognized without configuration.
var DefaultHosts = []string{"gist.github.com", "github.com"}

// ErrUnrecognizedRemote is returned when a remote URL does not have a known hosting-provider shape.
var ErrUnrecognizedRemote = errors.New("unrecognized remote url")

var (
	errNotRemote = errors.New("relative or empty url")
	errLocalPath = errors.New("local path")
)

const (
	webScheme    = "https://"
	gitSuffix    = ".git"
	fileProtocol = "file"
)

// Rewriter converts remote URLs to web roots.
type Rewriter struct {
	hosts []string
}

// NewRewriter creates a Rewriter recognizing DefaultHosts plus any extra hosts.
func NewRewriter(extraHosts ...string) *Rewriter {
	hosts := make([]string, 0, len(DefaultHosts)+len(extraHosts))
	hosts = append(hosts, DefaultHosts...)

	for _, h := range extraHosts {
		h = strings.TrimSpace(h)
		if h != "" {
			hosts = append(hosts, h)
		}
	}

	return &Rewriter{hosts: hosts}
}

// Hosts returns the recognized hosts.
func (r *Rewriter) Hosts() []string {
	out := make([]string, len(r.hosts))
	copy(out, r.hosts)

	return out
}

// ToWebRoot returns "https://<host>/<owner>/<repo>" for remote. Gists keep their
// single numeric id segment.
func (r *Rewriter) ToWebRoot(remote string) (string, error) {
	ep, err := endpoint(strings.TrimSpace(remote))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrUnrecognizedRemote, remote, err)
	}

	host, ok := r.knownHost(ep.Host)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedRemote, remote)
	}

	repoPath, ok := repositoryPath(ep.Path)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedRemote, remote)
	}

	return webScheme + host + "/" + repoPath, nil
}

// endpoint parses remote with go-git. Scheme-less "host/owner/repo" forms, which
// go-git takes for local paths, are retried as https.
func endpoint(remote string) (*transport.Endpoint, error) {
	if remote == "" || IsRelative(remote) {
		return nil, errNotRemote
	}

	ep, err := transport.NewEndpoint(remote)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	if ep.Protocol != fileProtocol {
		return ep, nil
	}

	if strings.HasPrefix(remote, "/") || strings.HasPrefix(remote, "~") || strings.Contains(remote, `\`) {
		return nil, errLocalPath
	}

	ep, err = transport.NewEndpoint(webScheme + remote)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	return ep, nil
}

func (r *Rewriter) knownHost(host string) (string, bool) {
	for _, h := range r.hosts {
		if strings.EqualFold(h, host) {
			return h, true
		}
	}

	return "", false
}

// repositoryPath reduces an endpoint path to "owner/repo" or a numeric gist id.
func repositoryPath(p string) (string, bool) {
	p, _, _ = strings.Cut(p, "#")
	p, _, _ = strings.Cut(p, "?")
	p = strings.Trim(p, "/")
	p = strings.TrimSuffix(p, gitSuffix)

	segments := strings.Split(p, "/")

	switch len(segments) {
	case 1:
		return p, isDigits(p)
	case 2:
		return p, segments[0] != "" && segments[1] != ""
	default:
		return "", false
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}

// IsRelative reports whether a submodule url is relative to its superproject's remote.
func IsRelative(url string) bool {
	return strings.HasPrefix(url, "./") || strings.HasPrefix(url, "../")
}

// ResolveRelative resolves a relative submodule url ("../lib.git") against the
// superproject remote the way git does: each "../" drops one trailing component
// of base. Absolute urls are returned unchanged.
func ResolveRelative(base, rel string) string {
	if !IsRelative(rel) {
		return rel
	}

	base = strings.TrimSuffix(strings.TrimSpace(base), "/")

	for {
		if rest, ok := strings.CutPrefix(rel, "./"); ok {
			rel = rest

			continue
		}

		rest, ok := strings.CutPrefix(rel, "../")
		if !ok {
			break
		}

		rel = rest

		idx := strings.LastIndexAny(base, "/:")
		if idx < 0 {
			base = ""

			break
		}

		// Keep the colon of scp-style remotes (git@host:owner/repo).
		if base[idx] == ':' {
			base = base[:idx+1]
		} else {
			base = base[:idx]
		}
	}

	if base == "" || strings.HasSuffix(base, ":") {
		return base + rel
	}

	return base + "/" + rel
}

// Package branch determines the checked-out branch of a repository.
package branch

import (
	"context"
	"errors"
	"fmt"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/Sumatoshi-tech/fileurl/pkg/gitlib"
)

// Resolver kinds selectable from configuration.
const (
	KindGoGit   = "gogit"
	KindLibGit2 = "libgit2"
)

var (
	// ErrDetachedHead indicates HEAD points at a commit instead of a branch.
	ErrDetachedHead = errors.New("HEAD is detached")
	// ErrNoBranch indicates the repository state could not be read.
	ErrNoBranch = errors.New("cannot determine current branch")
	// ErrUnknownKind indicates an unsupported resolver kind.
	ErrUnknownKind = errors.New("unknown branch resolver")
)

// Resolver returns the branch checked out in the repository rooted at repoRoot.
type Resolver interface {
	CurrentBranch(ctx context.Context, repoRoot string) (string, error)
}

// New returns the resolver for kind. An empty kind selects KindGoGit.
func New(kind string) (Resolver, error) {
	switch kind {
	case "", KindGoGit:
		return GoGit{}, nil
	case KindLibGit2:
		return LibGit2{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// GoGit reads HEAD with go-git. It needs no cgo and resolves unborn branches.
type GoGit struct{}

// CurrentBranch implements Resolver.
func (GoGit) CurrentBranch(ctx context.Context, repoRoot string) (string, error) {
	ctxErr := ctx.Err()
	if ctxErr != nil {
		return "", ctxErr
	}

	repo, err := git.PlainOpenWithOptions(repoRoot, &git.PlainOpenOptions{EnableDotGitCommonDir: true})
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %w", ErrNoBranch, repoRoot, err)
	}

	// Storer.Reference does not peel HEAD, so a branch without commits still has a name.
	head, err := repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", fmt.Errorf("%w: read HEAD: %w", ErrNoBranch, err)
	}

	if head.Type() != plumbing.SymbolicReference || !head.Target().IsBranch() {
		return "", fmt.Errorf("%w in %s", ErrDetachedHead, repoRoot)
	}

	return head.Target().Short(), nil
}

// LibGit2 reads HEAD through libgit2.
type LibGit2 struct{}

// CurrentBranch implements Resolver.
func (LibGit2) CurrentBranch(ctx context.Context, repoRoot string) (string, error) {
	ctxErr := ctx.Err()
	if ctxErr != nil {
		return "", ctxErr
	}

	repo, err := gitlib.OpenRepository(repoRoot)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoBranch, err)
	}
	defer repo.Free()

	name, err := repo.CurrentBranch()
	if err != nil {
		if errors.Is(err, gitlib.ErrDetachedHead) {
			return "", fmt.Errorf("%w in %s", ErrDetachedHead, repoRoot)
		}

		return "", fmt.Errorf("%w: %w", ErrNoBranch, err)
	}

	return name, nil
}

// Static always reports the same branch. Useful when the caller already knows it.
type Static string

// CurrentBranch implements Resolver.
func (s Static) CurrentBranch(_ context.Context, _ string) (string, error) {
	if s == "" {
		return "", ErrNoBranch
	}

	return string(s), nil
}

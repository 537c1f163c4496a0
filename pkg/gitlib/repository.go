// Package gitlib wraps the libgit2 bindings used to inspect repository state.
package gitlib

import (
	"errors"
	"fmt"
	"strings"

	git2go "github.com/libgit2/git2go/v34"
)

const (
	headRef        = "HEAD"
	branchRefsPrex = "refs/heads/"
)

// ErrDetachedHead is returned when HEAD points at a commit rather than a branch.
var ErrDetachedHead = errors.New("HEAD is detached")

// Repository wraps a libgit2 repository.
type Repository struct {
	repo *git2go.Repository
}

// OpenRepository opens a git repository at the given path.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo}, nil
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// CurrentBranch returns the short name of the checked-out branch. Unborn
// branches (no commits yet) resolve too, since HEAD is read without peeling.
func (r *Repository) CurrentBranch() (string, error) {
	ref, err := r.repo.References.Lookup(headRef)
	if err != nil {
		return "", fmt.Errorf("lookup HEAD: %w", err)
	}
	defer ref.Free()

	if ref.Type() != git2go.ReferenceSymbolic {
		return "", ErrDetachedHead
	}

	target := ref.SymbolicTarget()

	name, ok := strings.CutPrefix(target, branchRefsPrex)
	if !ok {
		return "", fmt.Errorf("%w: HEAD points at %s", ErrDetachedHead, target)
	}

	return name, nil
}

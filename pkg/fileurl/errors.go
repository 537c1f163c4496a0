package fileurl

import (
	"errors"
	"strings"
)

// Failure kinds. Every error returned by Composer.Compose is an *Error whose Kind
// is one of these, so callers can branch with errors.Is.
var (
	// ErrNoRepositoryFound means no root configuration exists up the ancestor chain.
	ErrNoRepositoryFound = errors.New("no repository found")
	// ErrNoRemoteConfigured means the root was found but the resolved remote has no url.
	ErrNoRemoteConfigured = errors.New("no remote configured")
	// ErrBranchResolutionFailed means the checked-out branch could not be determined.
	ErrBranchResolutionFailed = errors.New("branch resolution failed")
	// ErrURLRewriteFailed means the remote url has no recognizable hosting-provider shape.
	ErrURLRewriteFailed = errors.New("url rewrite failed")
	// ErrUnhandled wraps any other collaborator failure, preserving its message.
	ErrUnhandled = errors.New("unhandled error")
)

// Error is the typed failure returned by Compose.
type Error struct {
	// Kind is one of the Err* failure kinds.
	Kind error
	// Path is the file the failure relates to.
	Path string
	// Detail adds human context, e.g. the remote and branch names that were tried.
	Detail string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.Kind.Error())

	if e.Path != "" {
		sb.WriteString(" for ")
		sb.WriteString(e.Path)
	}

	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

// KindOf returns the failure kind of err, or ErrUnhandled for foreign errors and nil for nil.
func KindOf(err error) error {
	if err == nil {
		return nil
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}

	return ErrUnhandled
}

// KindName returns a stable identifier for a failure kind, used in logs and metrics.
func KindName(kind error) string {
	switch {
	case kind == nil:
		return "ok"
	case errors.Is(kind, ErrNoRepositoryFound):
		return "no_repository_found"
	case errors.Is(kind, ErrNoRemoteConfigured):
		return "no_remote_configured"
	case errors.Is(kind, ErrBranchResolutionFailed):
		return "branch_resolution_failed"
	case errors.Is(kind, ErrURLRewriteFailed):
		return "url_rewrite_failed"
	default:
		return "unhandled_error"
	}
}

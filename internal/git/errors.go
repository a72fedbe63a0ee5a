package git

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
)

// Typed git errors let callers branch on the failure kind without string parsing.
type AuthError struct {
	Op, URL string
	Err     error
}

func (e *AuthError) Error() string { return fmt.Sprintf("%s auth error for %s: %v", e.Op, e.URL, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Op, URL string
	Err     error
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found %s: %v", e.Op, e.URL, e.Err) }
func (e *NotFoundError) Unwrap() error { return e.Err }

type UnsupportedProtocolError struct {
	Op, URL string
	Err     error
}

func (e *UnsupportedProtocolError) Error() string {
	return fmt.Sprintf("%s unsupported protocol %s: %v", e.Op, e.URL, e.Err)
}
func (e *UnsupportedProtocolError) Unwrap() error { return e.Err }

type RemoteDivergedError struct {
	Op, URL, Branch string
	Err             error
}

func (e *RemoteDivergedError) Error() string {
	return fmt.Sprintf("%s remote diverged %s@%s: %v", e.Op, e.URL, e.Branch, e.Err)
}
func (e *RemoteDivergedError) Unwrap() error { return e.Err }

// typedError wraps a go-git failure into one of the typed variants when the
// failure kind is recognisable. Unrecognised errors are returned unchanged.
func typedError(op, url string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case stderrors.Is(err, transport.ErrAuthenticationRequired),
		stderrors.Is(err, transport.ErrAuthorizationFailed):
		return &AuthError{Op: op, URL: url, Err: err}
	case stderrors.Is(err, transport.ErrRepositoryNotFound),
		stderrors.Is(err, plumbing.ErrReferenceNotFound),
		stderrors.Is(err, git.ErrRepositoryNotExists):
		return &NotFoundError{Op: op, URL: url, Err: err}
	case stderrors.Is(err, git.ErrNonFastForwardUpdate):
		return &RemoteDivergedError{Op: op, URL: url, Err: err}
	}

	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "auth fail") || strings.Contains(l, "invalid username or password"):
		return &AuthError{Op: op, URL: url, Err: err}
	case strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist"):
		return &NotFoundError{Op: op, URL: url, Err: err}
	case strings.Contains(l, "unsupported protocol") || strings.Contains(l, "protocol not supported"):
		return &UnsupportedProtocolError{Op: op, URL: url, Err: err}
	}
	return err
}

// classify turns a failed git operation into a ClassifiedError scoped to the
// current job/mode pair. The typed error stays reachable through errors.As.
func classify(op, url, path string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsClassified(err); ok {
		return err
	}
	err = typedError(op, url, err)

	builder := errors.WrapError(err, errors.CategoryGit, op+" failed").
		WithContext("op", op).
		WithContext("path", path)
	if url != "" {
		builder = builder.WithContext("url", url)
	}

	var (
		authErr     *AuthError
		notFoundErr *NotFoundError
		protoErr    *UnsupportedProtocolError
		divergedErr *RemoteDivergedError
	)
	switch {
	case stderrors.As(err, &authErr):
		builder = builder.WithCategory(errors.CategoryAuth)
	case stderrors.As(err, &notFoundErr):
		builder = builder.WithCategory(errors.CategoryNotFound)
	case stderrors.As(err, &protoErr):
		builder = builder.WithCategory(errors.CategoryConfig)
	case stderrors.As(err, &divergedErr):
		builder = builder.WithContext("diverged", true)
	}
	return builder.Build()
}

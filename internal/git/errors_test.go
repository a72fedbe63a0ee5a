package git

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category errors.ErrorCategory
		typed    any
	}{
		{"auth sentinel", fmt.Errorf("fetch: %w", transport.ErrAuthenticationRequired), errors.CategoryAuth, &AuthError{}},
		{"auth message", stderrors.New("ssh: handshake failed: authentication failed"), errors.CategoryAuth, &AuthError{}},
		{"not found sentinel", transport.ErrRepositoryNotFound, errors.CategoryNotFound, &NotFoundError{}},
		{"unsupported protocol", stderrors.New("unsupported protocol scheme \"gopher\""), errors.CategoryConfig, &UnsupportedProtocolError{}},
		{"other", stderrors.New("connection reset by peer"), errors.CategoryGit, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("fetch", "https://example.com/app.git", "/tmp/app", tt.err)
			require.Error(t, err)

			classified, ok := errors.AsClassified(err)
			require.True(t, ok)
			assert.Equal(t, tt.category, classified.Category())
			url, _ := classified.Context().GetString("url")
			assert.Equal(t, "https://example.com/app.git", url)
			assert.ErrorIs(t, err, tt.err)

			switch tt.typed.(type) {
			case *AuthError:
				var target *AuthError
				assert.True(t, stderrors.As(err, &target))
			case *NotFoundError:
				var target *NotFoundError
				assert.True(t, stderrors.As(err, &target))
			case *UnsupportedProtocolError:
				var target *UnsupportedProtocolError
				assert.True(t, stderrors.As(err, &target))
			}
		})
	}
}

func TestClassify_KeepsClassifiedErrors(t *testing.T) {
	original := errors.GitError("already classified").Build()
	assert.Same(t, original, classify("pull", "", "/tmp", original))
	assert.NoError(t, classify("pull", "", "/tmp", nil))
}

func TestAuthFor(t *testing.T) {
	none, err := AuthConfig{}.authFor("https://example.com/app.git")
	require.NoError(t, err)
	assert.Nil(t, none)

	token, err := AuthConfig{Token: "secret"}.authFor("https://example.com/app.git")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "http-basic-auth", token.Name())

	local, err := AuthConfig{Token: "secret"}.authFor("/srv/git/app.git")
	require.NoError(t, err)
	assert.Nil(t, local)

	_, err = AuthConfig{SSHKeyPath: "/does/not/exist"}.authFor("git@example.com:ops/app.git")
	require.Error(t, err)
}

func TestRemoteScheme(t *testing.T) {
	assert.Equal(t, "https", remoteScheme("https://example.com/app.git"))
	assert.Equal(t, "ssh", remoteScheme("ssh://git@example.com/app.git"))
	assert.Equal(t, "ssh", remoteScheme("git@example.com:ops/app.git"))
	assert.Equal(t, "file", remoteScheme("file:///srv/git/app.git"))
	assert.Equal(t, "file", remoteScheme("/srv/git/app.git"))
}

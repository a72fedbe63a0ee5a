package git

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
	"git.home.luguber.info/inful/bdeep/internal/logfields"
	"git.home.luguber.info/inful/bdeep/internal/workspace"
)

const originRemote = "origin"

var fetchRefSpec = ggitcfg.RefSpec("+refs/heads/*:refs/remotes/origin/*")

// Client handles working copy inspection and synchronization.
type Client struct {
	auth      AuthConfig
	workspace *workspace.Manager
}

// Option configures a Client.
type Option func(*Client)

// WithAuth attaches credentials used for fetch, clone and pull.
func WithAuth(auth AuthConfig) Option { return func(c *Client) { c.auth = auth } }

// WithWorkspace restricts Remove to paths inside the workspace root.
func WithWorkspace(m *workspace.Manager) Option { return func(c *Client) { c.workspace = m } }

// NewClient creates a new Git client.
func NewClient(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Exists reports whether path holds a repository (a .git entry is present).
func (c *Client) Exists(path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}

// Verify reports whether the working copy at path has branch checked out and
// an origin remote pointing at remote. Unreadable repositories verify as false.
func (c *Client) Verify(path, remote, branch string) bool {
	repo, err := git.PlainOpen(path)
	if err != nil {
		slog.Debug("Verify: cannot open repository", logfields.Path(path), logfields.Error(err))
		return false
	}
	if _, err := repo.Reference(plumbing.NewBranchReferenceName(branch), false); err != nil {
		slog.Debug("Verify: local branch missing", logfields.Path(path), logfields.Branch(branch))
		return false
	}
	head, err := repo.Head()
	if err != nil || head.Name() != plumbing.NewBranchReferenceName(branch) {
		slog.Debug("Verify: branch not checked out", logfields.Path(path), logfields.Branch(branch))
		return false
	}
	origin, err := repo.Remote(originRemote)
	if err != nil {
		slog.Debug("Verify: origin remote missing", logfields.Path(path))
		return false
	}
	urls := origin.Config().URLs
	if len(urls) == 0 || urls[0] != remote {
		slog.Debug("Verify: origin points elsewhere", logfields.Path(path), logfields.Remote(remote))
		return false
	}
	return true
}

// IsBehind fetches origin and reports whether origin/<branch> has commits that
// the checked-out branch does not.
func (c *Client) IsBehind(ctx context.Context, path string) (bool, error) {
	n, err := c.Behind(ctx, path)
	return n > 0, err
}

// Behind fetches origin and counts the commits reachable from origin/<branch>
// but not from the checked-out branch.
func (c *Client) Behind(ctx context.Context, path string) (int, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return 0, classify("open", "", path, err)
	}
	head, err := repo.Head()
	if err != nil {
		return 0, classify("head", "", path, err)
	}
	if !head.Name().IsBranch() {
		return 0, errors.GitError("working copy has a detached HEAD").WithContext("path", path).Build()
	}
	branch := head.Name().Short()

	remoteURL, err := c.fetch(ctx, repo)
	if err != nil {
		return 0, classify("fetch", remoteURL, path, err)
	}

	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName(originRemote, branch), true)
	if err != nil {
		return 0, classify("fetch", remoteURL, path, fmt.Errorf("origin/%s: %w", branch, err))
	}
	n, err := countBehind(repo, head.Hash(), remoteRef.Hash())
	if err != nil {
		return 0, classify("log", remoteURL, path, err)
	}
	slog.Debug("Compared with origin", logfields.Path(path), logfields.Branch(branch), slog.Int("behind", n))
	return n, nil
}

// Clone creates a working copy of remote at path with branch checked out and
// tracking origin/<branch>. Leftovers at path are removed first; a failed
// clone leaves nothing behind.
func (c *Client) Clone(ctx context.Context, path, remote, branch string) error {
	slog.Debug("Cloning repository", logfields.Remote(remote), logfields.Branch(branch), logfields.Path(path))
	if err := os.RemoveAll(path); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to remove existing directory").
			WithContext("path", path).
			Build()
	}
	if err := workspace.MakePath(path); err != nil {
		return err
	}

	auth, err := c.auth.authFor(remote)
	if err != nil {
		return errors.WrapError(err, errors.CategoryAuth, "failed to setup authentication").
			WithContext("url", remote).
			Build()
	}
	repo, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{
		URL:           remote,
		RemoteName:    originRemote,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		Auth:          auth,
		Tags:          git.NoTags,
	})
	if err != nil {
		_ = os.RemoveAll(path)
		return classify("clone", remote, path, err)
	}

	if head, herr := repo.Head(); herr == nil {
		slog.Info("Repository cloned", logfields.Remote(remote), logfields.Branch(branch),
			slog.String("commit", shortHash(head.Hash())), logfields.Path(path))
	}
	return nil
}

// Update fast-forwards the checked-out branch to origin. A local branch that
// has diverged from origin is reported as a RemoteDivergedError.
func (c *Client) Update(ctx context.Context, path string) error {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return classify("open", "", path, err)
	}
	head, err := repo.Head()
	if err != nil {
		return classify("head", "", path, err)
	}
	if !head.Name().IsBranch() {
		return errors.GitError("working copy has a detached HEAD").WithContext("path", path).Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return classify("worktree", "", path, err)
	}
	remoteURL := originURL(repo)
	auth, err := c.auth.authFor(remoteURL)
	if err != nil {
		return errors.WrapError(err, errors.CategoryAuth, "failed to setup authentication").
			WithContext("url", remoteURL).
			Build()
	}

	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    originRemote,
		ReferenceName: head.Name(),
		Auth:          auth,
	})
	switch {
	case err == nil:
	case stderrors.Is(err, git.NoErrAlreadyUpToDate):
		slog.Debug("Repository already up-to-date", logfields.Path(path), logfields.Branch(head.Name().Short()))
		return nil
	case stderrors.Is(err, git.ErrNonFastForwardUpdate):
		return classify("pull", remoteURL, path, &RemoteDivergedError{Op: "pull", URL: remoteURL, Branch: head.Name().Short(), Err: err})
	default:
		return classify("pull", remoteURL, path, err)
	}

	if updated, herr := repo.Head(); herr == nil {
		slog.Info("Repository updated", logfields.Path(path), logfields.Branch(head.Name().Short()),
			slog.String("from", shortHash(head.Hash())), slog.String("to", shortHash(updated.Hash())))
	}
	return nil
}

// Remove deletes a working copy.
func (c *Client) Remove(path string) error {
	if c.workspace != nil {
		return c.workspace.Remove(path)
	}
	if err := os.RemoveAll(path); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to remove working copy").
			WithContext("path", path).
			Build()
	}
	return nil
}

// Head returns the commit hash checked out at path.
func (c *Client) Head(path string) (string, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return "", classify("open", "", path, err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", classify("head", "", path, err)
	}
	return head.Hash().String(), nil
}

// fetch updates the remote-tracking refs of origin. It returns the origin URL
// for error reporting.
func (c *Client) fetch(ctx context.Context, repo *git.Repository) (string, error) {
	remoteURL := originURL(repo)
	auth, err := c.auth.authFor(remoteURL)
	if err != nil {
		return remoteURL, &AuthError{Op: "fetch", URL: remoteURL, Err: err}
	}
	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: originRemote,
		RefSpecs:   []ggitcfg.RefSpec{fetchRefSpec},
		Tags:       git.NoTags,
		Auth:       auth,
	})
	if err != nil && !stderrors.Is(err, git.NoErrAlreadyUpToDate) {
		return remoteURL, err
	}
	return remoteURL, nil
}

func originURL(repo *git.Repository) string {
	origin, err := repo.Remote(originRemote)
	if err != nil || len(origin.Config().URLs) == 0 {
		return ""
	}
	return origin.Config().URLs[0]
}

// countBehind walks the history of remote and counts commits that are not
// ancestors of local.
func countBehind(repo *git.Repository, local, remote plumbing.Hash) (int, error) {
	if local == remote {
		return 0, nil
	}
	known, err := ancestors(repo, local)
	if err != nil {
		return 0, err
	}
	count := 0
	seen := map[plumbing.Hash]struct{}{}
	queue := []plumbing.Hash{remote}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		if _, ok := known[h]; ok {
			continue
		}
		commit, err := repo.CommitObject(h)
		if err != nil {
			return 0, fmt.Errorf("load commit %s: %w", shortHash(h), err)
		}
		count++
		queue = append(queue, commit.ParentHashes...)
	}
	return count, nil
}

func ancestors(repo *git.Repository, from plumbing.Hash) (map[plumbing.Hash]struct{}, error) {
	seen := map[plumbing.Hash]struct{}{}
	queue := []plumbing.Hash{from}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if _, ok := seen[h]; ok {
			continue
		}
		commit, err := repo.CommitObject(h)
		if err != nil {
			return nil, fmt.Errorf("load commit %s: %w", shortHash(h), err)
		}
		seen[h] = struct{}{}
		queue = append(queue, commit.ParentHashes...)
	}
	return seen, nil
}

func shortHash(h plumbing.Hash) string {
	return h.String()[:8]
}

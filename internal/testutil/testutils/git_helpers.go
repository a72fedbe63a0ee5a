package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// SetupTestGitRepo initializes a temporary git repository for testing.
// Returns the repository, its worktree, and the absolute path to the temporary directory.
func SetupTestGitRepo(t *testing.T) (*git.Repository, *git.Worktree, string) {
	t.Helper()

	tempDir := t.TempDir()

	repo, err := git.PlainInit(tempDir, false)
	if err != nil {
		t.Fatalf("failed to initialize git repo: %v", err)
	}

	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}

	return repo, w, tempDir
}

// Remote is a local bare repository fed by a seed working copy. Its URL can
// be used as a clone source without network access.
type Remote struct {
	t      *testing.T
	URL    string
	Branch string

	seed    *git.Repository
	seedWT  *git.Worktree
	seedDir string
}

// SetupRemote creates a bare remote whose branch holds one initial commit.
func SetupRemote(t *testing.T, branch string) *Remote {
	t.Helper()

	bareDir := filepath.Join(t.TempDir(), "remote.git")
	if _, err := git.PlainInit(bareDir, true); err != nil {
		t.Fatalf("failed to init bare remote: %v", err)
	}

	seed, wt, seedDir := SetupTestGitRepo(t)
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(branch))
	if err := seed.Storer.SetReference(head); err != nil {
		t.Fatalf("failed to point seed HEAD at %s: %v", branch, err)
	}
	if _, err := seed.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{bareDir}}); err != nil {
		t.Fatalf("failed to create seed remote: %v", err)
	}

	r := &Remote{t: t, URL: bareDir, Branch: branch, seed: seed, seedWT: wt, seedDir: seedDir}
	r.Commit("README.md", "# fixture\n", "initial commit")
	return r
}

// Commit writes a file in the seed, commits it and pushes the current branch.
// It returns the new commit hash.
func (r *Remote) Commit(path, content, message string) string {
	r.t.Helper()
	hash := r.commit(path, content, message)
	r.push(false)
	return hash.String()
}

// Rewrite replaces the tip of the current branch with a different commit and
// force-pushes it, so clones of the old tip can no longer fast-forward.
func (r *Remote) Rewrite(path, content, message string) string {
	r.t.Helper()
	head, err := r.seed.Head()
	if err != nil {
		r.t.Fatalf("failed to read seed HEAD: %v", err)
	}
	tip, err := r.seed.CommitObject(head.Hash())
	if err != nil {
		r.t.Fatalf("failed to load seed tip: %v", err)
	}
	if tip.NumParents() == 0 {
		r.t.Fatalf("cannot rewrite the root commit")
	}
	if err := r.seedWT.Reset(&git.ResetOptions{Commit: tip.ParentHashes[0], Mode: git.HardReset}); err != nil {
		r.t.Fatalf("failed to reset seed: %v", err)
	}
	hash := r.commit(path, content, message)
	r.push(true)
	return hash.String()
}

// CreateBranch points a new remote branch at the current seed tip.
func (r *Remote) CreateBranch(name string) {
	r.t.Helper()
	head, err := r.seed.Head()
	if err != nil {
		r.t.Fatalf("failed to read seed HEAD: %v", err)
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), head.Hash())
	if err := r.seed.Storer.SetReference(ref); err != nil {
		r.t.Fatalf("failed to create branch %s: %v", name, err)
	}
	spec := ggitcfg.RefSpec("refs/heads/" + name + ":refs/heads/" + name)
	if err := r.seed.Push(&git.PushOptions{RemoteName: "origin", RefSpecs: []ggitcfg.RefSpec{spec}}); err != nil {
		r.t.Fatalf("failed to push branch %s: %v", name, err)
	}
}

// Head returns the tip of the seed branch.
func (r *Remote) Head() string {
	r.t.Helper()
	head, err := r.seed.Head()
	if err != nil {
		r.t.Fatalf("failed to read seed HEAD: %v", err)
	}
	return head.Hash().String()
}

func (r *Remote) commit(path, content, message string) plumbing.Hash {
	full := filepath.Join(r.seedDir, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		r.t.Fatalf("failed to create %s: %v", filepath.Dir(full), err)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		r.t.Fatalf("failed to write %s: %v", path, err)
	}
	if _, err := r.seedWT.Add(path); err != nil {
		r.t.Fatalf("failed to add %s: %v", path, err)
	}
	hash, err := r.seedWT.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "bdeep test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		r.t.Fatalf("failed to commit: %v", err)
	}
	return hash
}

func (r *Remote) push(force bool) {
	spec := "refs/heads/" + r.Branch + ":refs/heads/" + r.Branch
	if force {
		spec = "+" + spec
	}
	err := r.seed.Push(&git.PushOptions{RemoteName: "origin", RefSpecs: []ggitcfg.RefSpec{ggitcfg.RefSpec(spec)}})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		r.t.Fatalf("failed to push: %v", err)
	}
}

package deploy

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
)

// fakeRepo is an in-memory Repo keyed by working copy path.
type fakeRepo struct {
	mu     sync.Mutex
	copies map[string]fakeCopy
	behind map[string]bool
	// failClone makes Clone fail for the listed paths.
	failClone map[string]bool
	calls     []string
}

type fakeCopy struct {
	remote, branch string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		copies:    map[string]fakeCopy{},
		behind:    map[string]bool{},
		failClone: map[string]bool{},
	}
}

func (f *fakeRepo) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeRepo) Exists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.copies[path]
	return ok
}

func (f *fakeRepo) Verify(path, remote, branch string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.copies[path]
	return ok && c.remote == remote && c.branch == branch
}

func (f *fakeRepo) IsBehind(_ context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("fetch " + path)
	return f.behind[path], nil
}

func (f *fakeRepo) Clone(_ context.Context, path, remote, branch string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("clone " + path)
	if f.failClone[path] {
		return errors.GitError("clone failed").WithContext("path", path).Build()
	}
	f.copies[path] = fakeCopy{remote: remote, branch: branch}
	return nil
}

func (f *fakeRepo) Update(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update " + path)
	f.behind[path] = false
	return nil
}

func (f *fakeRepo) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("remove " + path)
	delete(f.copies, path)
	return nil
}

// fakeBuilder records builds and fails for tags listed in fail.
type fakeBuilder struct {
	mu     sync.Mutex
	builds []string
	fail   map[string]bool
}

func newFakeBuilder() *fakeBuilder { return &fakeBuilder{fail: map[string]bool{}} }

func (b *fakeBuilder) Build(_ context.Context, dir, tag string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.builds = append(b.builds, tag+"@"+dir)
	if b.fail[tag] {
		return errors.BuildError("docker build failed").WithContext("tag", tag).Build()
	}
	return nil
}

func (b *fakeBuilder) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.builds)
}

// sliceSink collects published results.
type sliceSink struct {
	results []PairResult
	err     error
}

func (s *sliceSink) RecordPair(_ context.Context, r PairResult) error {
	s.results = append(s.results, r)
	return s.err
}

package docker

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
	"git.home.luguber.info/inful/bdeep/internal/logfields"
)

// DefaultBinary is the docker CLI looked up on PATH.
const DefaultBinary = "docker"

// waitDelay bounds how long a cancelled build may keep its output open.
const waitDelay = 2 * time.Second

// tailLines is how many trailing output lines a failed build reports.
const tailLines = 20

// Builder abstracts how an image is produced from a build context directory.
// The deploy driver only depends on this contract, so tests and dry runs can
// swap the docker CLI for something else.
type Builder interface {
	Build(ctx context.Context, dir, tag string) error
}

// CLIBuilder runs `docker build -t <tag> <dir>` and streams the output lines
// to the logger at debug level.
type CLIBuilder struct {
	DockerBin string
	// ExtraArgs are inserted after "build" (for example --pull or --network=host).
	ExtraArgs []string
	Logger    *slog.Logger
}

// NewCLIBuilder creates a builder using dockerBin (DefaultBinary when empty).
func NewCLIBuilder(dockerBin string, extraArgs ...string) *CLIBuilder {
	if dockerBin == "" {
		dockerBin = DefaultBinary
	}
	return &CLIBuilder{DockerBin: dockerBin, ExtraArgs: extraArgs}
}

// Args returns the docker CLI arguments for a build.
func (b *CLIBuilder) Args(dir, tag string) []string {
	args := make([]string, 0, len(b.ExtraArgs)+4)
	args = append(args, "build")
	args = append(args, b.ExtraArgs...)
	return append(args, "-t", tag, dir)
}

// Build runs the build and waits for it. Cancelling ctx kills the docker process.
func (b *CLIBuilder) Build(ctx context.Context, dir, tag string) error {
	logger := b.logger().With(logfields.Tag(tag), logfields.Path(dir))

	if stat, err := os.Stat(dir); err != nil || !stat.IsDir() {
		return errors.BuildError("build context directory not found").
			WithContext("dir", dir).
			WithContext("tag", tag).
			Build()
	}

	args := b.Args(dir, tag)
	logger.Info("Building image", logfields.Command(b.DockerBin+" "+strings.Join(args, " ")))

	// #nosec G204 - binary and arguments come from operator configuration
	cmd := exec.CommandContext(ctx, b.DockerBin, args...)
	cmd.WaitDelay = waitDelay
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	tail := newTail(tailLines)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			tail.add(line)
			logger.Debug("docker build", slog.String("line", line))
		}
		// Keep draining so the process never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, pr)
	}()

	start := time.Now()
	err := cmd.Start()
	if err == nil {
		err = cmd.Wait()
	}
	_ = pw.Close()
	wg.Wait()

	if err != nil {
		builder := errors.WrapError(err, errors.CategoryBuild, "docker build failed").
			WithContext("dir", dir).
			WithContext("tag", tag)
		if out := tail.String(); out != "" {
			builder = builder.WithContext("output", out)
		}
		if ctx.Err() != nil {
			builder = builder.WithCause(ctx.Err())
		}
		return builder.Build()
	}
	logger.Info("Image built", logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return nil
}

func (b *CLIBuilder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// tail keeps the last n lines written to it.
type tail struct {
	mu    sync.Mutex
	n     int
	lines []string
}

func newTail(n int) *tail { return &tail{n: n} }

func (t *tail) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.n {
		t.lines = t.lines[len(t.lines)-t.n:]
	}
}

func (t *tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}

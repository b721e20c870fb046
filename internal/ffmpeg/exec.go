package ffmpeg

import (
	"bytes"
	"context"
	"os/exec"
)

// runOutputFn runs a command and returns its output.
type runOutputFn func(ctx context.Context, path string, args []string) (string, error)

// Executor runs FFmpeg commands with an injectable runner.
type Executor struct {
	runOutput runOutputFn
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRunOutput sets a custom runOutput function (for testing).
func WithRunOutput(fn runOutputFn) ExecutorOption {
	return func(e *Executor) { e.runOutput = fn }
}

// NewExecutor creates an Executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{runOutput: defaultRunOutput}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunOutput executes FFmpeg and captures its combined output: probe
// information goes to stderr, -version banners to stdout.
func (e *Executor) RunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	return e.runOutput(ctx, ffmpegPath, args)
}

// defaultRunOutput returns output even when the command fails, since ffmpeg
// exits non-zero for several informational invocations.
func defaultRunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	// #nosec G204 -- binary path comes from the resolver, args are fixed
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return out.String(), err
}

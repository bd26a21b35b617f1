package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

const (
	defaultRunTimeout    = 60 * time.Second
	defaultMaxOutputSize = 1 << 20
)

// PythonRunner executes chart-rendering snippets with a local Python
// interpreter. There is no sandboxing beyond the timeout and output cap,
// so the code fed to it must come from a trusted generation path.
type PythonRunner struct {
	interpreter string
	workDir     string
	timeout     time.Duration
	maxOutput   int
	log         *zap.Logger
}

// RunnerOption configures a PythonRunner.
type RunnerOption func(*PythonRunner)

// WithRunTimeout overrides the per-run deadline.
func WithRunTimeout(d time.Duration) RunnerOption {
	return func(r *PythonRunner) { r.timeout = d }
}

// WithWorkDir sets the directory snippets run in. Rendered chart files
// land here.
func WithWorkDir(dir string) RunnerOption {
	return func(r *PythonRunner) { r.workDir = dir }
}

// NewPythonRunner creates a runner for the given interpreter binary,
// "python3" when empty.
func NewPythonRunner(interpreter string, log *zap.Logger, opts ...RunnerOption) *PythonRunner {
	if interpreter == "" {
		interpreter = "python3"
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := &PythonRunner{
		interpreter: interpreter,
		timeout:     defaultRunTimeout,
		maxOutput:   defaultMaxOutputSize,
		log:         log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the snippet via `python -c` and returns its stdout. A
// non-zero exit surfaces as an error carrying the process stderr.
func (r *PythonRunner) Run(ctx context.Context, code string) (string, error) {
	r.log.Info("executing python snippet", zap.Int("code_bytes", len(code)))

	execCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, r.interpreter, "-c", code)
	cmd.Dir = r.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{w: &stdout, max: r.maxOutput}
	cmd.Stderr = &limitedWriter{w: &stderr, max: r.maxOutput}

	err := cmd.Run()
	if execCtx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("code execution timed out after %s: %w", r.timeout, context.DeadlineExceeded)
	}
	if err != nil {
		r.log.Warn("python snippet failed", zap.Error(err), zap.String("stderr", stderr.String()))
		return "", fmt.Errorf("code execution failed: %s", stderr.String())
	}
	return stdout.String(), nil
}

// limitedWriter discards bytes past max so a runaway print loop cannot
// exhaust memory.
type limitedWriter struct {
	w   *bytes.Buffer
	max int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	remaining := l.max - l.w.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		l.w.Write(p[:remaining])
		return len(p), nil
	}
	return l.w.Write(p)
}

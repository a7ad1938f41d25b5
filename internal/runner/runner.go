package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"k8s.io/klog/v2"
)

// DefaultTimeout bounds every external command.
const DefaultTimeout = 60 * time.Second

// Runner runs an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, stdin string, name string, args ...string) (string, error)
}

// RunError is returned when a command exits with a non-zero status.
type RunError struct {
	Cmd      []string
	ExitCode int
	Stderr   string
}

func (e *RunError) Error() string {
	return fmt.Sprintf("command %q failed (exit %d): %s", strings.Join(e.Cmd, " "), e.ExitCode, strings.TrimSpace(e.Stderr))
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Timeout applies to each command. Zero selects DefaultTimeout.
	Timeout time.Duration
}

// NewExecRunner creates an ExecRunner with the given timeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run executes name with args, feeding stdin when it is not empty.
func (r *ExecRunner) Run(ctx context.Context, stdin string, name string, args ...string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	klog.V(3).Infof("Running %s %s", name, strings.Join(args, " "))
	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("command %s timed out after %s: %w", name, timeout, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return "", &RunError{
			Cmd:      append([]string{name}, args...),
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr.String(),
		}
	}

	return "", fmt.Errorf("failed to run %s: %w", name, err)
}

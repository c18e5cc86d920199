// Package cmdexec runs external tools (git, the container engine CLI)
// with per-call timeouts and combined output capture.
package cmdexec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Runner executes commands via os/exec. It is stateless and safe for
// concurrent use.
type Runner struct{}

// New creates a new Runner
func New() *Runner {
	return &Runner{}
}

// Run executes a command in dir, capturing stdout and stderr into one
// stream. The underlying tools interleave progress and error text on
// both streams, so callers classify the combined output. A timeout is
// surfaced as an explicit "timed out" failure of the step.
func (r *Runner) Run(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	ctxlog.From(ctx).Debug("running command", "cmd", cmd.String(), "dir", dir)

	err := cmd.Run()
	output := buf.String()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return output, goerr.New("command timed out",
			goerr.V("cmd", cmd.String()),
			goerr.V("timeout", timeout.String()),
		)
	}
	if err != nil {
		return output, goerr.Wrap(err, "command failed", goerr.V("cmd", cmd.String()))
	}

	return output, nil
}

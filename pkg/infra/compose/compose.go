// Package compose controls the containerized workload of a checkout
// through the container engine's compose CLI: teardown, no-cache
// rebuild, force-recreate start, and post-start liveness verification.
package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/stevedore/pkg/domain/interfaces"
	"github.com/m-mizutani/stevedore/pkg/domain/model"
)

const (
	defaultProbeTimeout     = 15 * time.Second
	defaultLifecycleTimeout = 2 * time.Minute
	defaultBuildTimeout     = 10 * time.Minute
	defaultSettleDelay      = 5 * time.Second
)

// Controller drives the compose workload of a checkout.
type Controller struct {
	runner           interfaces.Runner
	probeTimeout     time.Duration
	lifecycleTimeout time.Duration
	buildTimeout     time.Duration
	settleDelay      time.Duration
}

// Option is a functional option for Controller configuration
type Option func(*Controller)

// WithBuildTimeout sets the timeout for image builds.
func WithBuildTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.buildTimeout = d
		}
	}
}

// WithSettleDelay sets the wait before the post-start liveness check.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.settleDelay = d
		}
	}
}

// New creates a new Controller
func New(runner interfaces.Runner, opts ...Option) *Controller {
	c := &Controller{
		runner:           runner,
		probeTimeout:     defaultProbeTimeout,
		lifecycleTimeout: defaultLifecycleTimeout,
		buildTimeout:     defaultBuildTimeout,
		settleDelay:      defaultSettleDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Redeploy runs the linear teardown → cleanup → build → start → verify
// sequence for the workload at path. A container that starts and
// immediately dies fails the call even though every command exited
// cleanly. Every failure path captures diagnostics.
func (c *Controller) Redeploy(ctx context.Context, path, name string) model.StepResult {
	logger := ctxlog.From(ctx)
	logger.Info("redeploying workload", "name", name, "path", path)

	// 1. Teardown. "nothing to stop" exits cleanly and is a success.
	out, err := c.compose(ctx, path, c.lifecycleTimeout, "down")
	if msg := classifyOutput(out, err); msg != "" {
		return c.fail(ctx, path, name, "teardown", msg)
	}

	// 2. Orphan cleanup, best effort only.
	if out, err := c.compose(ctx, path, c.lifecycleTimeout, "rm", "-f"); err != nil {
		logger.Warn("orphan cleanup failed", "name", name, "output", out, "error", err)
	}

	// 3. Rebuild without cached layers so the workload reflects the
	// just-synced source tree, not a stale image.
	out, err = c.compose(ctx, path, c.buildTimeout, "build", "--no-cache")
	if msg := classifyOutput(out, err); msg != "" {
		return c.fail(ctx, path, name, "build", msg)
	}

	// 4. Start, forcing recreation even if the engine sees no change.
	out, err = c.compose(ctx, path, c.lifecycleTimeout, "up", "-d", "--force-recreate")
	if msg := classifyOutput(out, err); msg != "" {
		return c.fail(ctx, path, name, "start", msg)
	}

	// 5. Post-start liveness. Crash-looping workloads pass steps 1-4.
	time.Sleep(c.settleDelay)
	psOut, err := c.compose(ctx, path, c.probeTimeout, "ps", "--all")
	if err != nil {
		return c.fail(ctx, path, name, "verify", failText(psOut, err))
	}
	if bad := unhealthyContainers(psOut); len(bad) > 0 {
		return c.fail(ctx, path, name, "verify",
			"unhealthy containers after start: "+strings.Join(bad, "; "))
	}

	logger.Info("workload redeployed", "name", name)
	return model.StepResult{
		Success: true,
		Message: fmt.Sprintf("workload %q rebuilt and restarted", name),
	}
}

// Diagnose collects a best-effort multi-probe dump for operator
// troubleshooting. Probe failures are embedded as text, never raised.
func (c *Controller) Diagnose(ctx context.Context, path, name string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "== containers (%s) ==\n", name)
	if out, err := c.compose(ctx, path, c.probeTimeout, "ps", "--all"); err != nil {
		fmt.Fprintf(&b, "probe failed: %v\n%s", err, out)
	} else {
		b.WriteString(out)
	}

	b.WriteString("== resolved configuration ==\n")
	if out, err := c.compose(ctx, path, c.probeTimeout, "config"); err != nil {
		fmt.Fprintf(&b, "probe failed: %v\n%s", err, out)
	} else {
		b.WriteString(out)
	}

	b.WriteString("== workload descriptor ==\n")
	found := false
	for _, desc := range model.WorkloadDescriptorNames {
		if fi, err := os.Stat(filepath.Join(path, desc)); err == nil {
			fmt.Fprintf(&b, "%s (%d bytes, modified %s)\n",
				desc, fi.Size(), fi.ModTime().Format(time.RFC3339))
			found = true
		}
	}
	if !found {
		b.WriteString("no descriptor found\n")
	}

	return b.String()
}

// IsAvailable reports whether the container engine and its compose
// tool respond.
func (c *Controller) IsAvailable(ctx context.Context) bool {
	if _, err := c.runner.Run(ctx, "", c.probeTimeout, "docker", "--version"); err != nil {
		return false
	}
	if _, err := c.runner.Run(ctx, "", c.probeTimeout, "docker", "compose", "version"); err != nil {
		return false
	}
	return true
}

func (c *Controller) compose(ctx context.Context, path string, timeout time.Duration, args ...string) (string, error) {
	return c.runner.Run(ctx, path, timeout, "docker", append([]string{"compose"}, args...)...)
}

func (c *Controller) fail(ctx context.Context, path, name, step, msg string) model.StepResult {
	diag := c.Diagnose(ctx, path, name)
	ctxlog.From(ctx).Error("redeploy step failed",
		"name", name,
		"step", step,
		"message", msg,
		"diagnostics", diag,
	)
	return model.StepResult{Success: false, Message: fmt.Sprintf("%s: %s", step, msg)}
}

func failText(output string, err error) string {
	if msg := strings.TrimSpace(output); msg != "" {
		return msg
	}
	return err.Error()
}

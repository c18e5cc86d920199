// Package gitsync advances a local checkout to the latest remote state
// of a branch via the git CLI.
package gitsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/stevedore/pkg/domain/interfaces"
	"github.com/m-mizutani/stevedore/pkg/domain/model"
)

const (
	defaultSyncTimeout = 3 * time.Minute
	trustTimeout       = 10 * time.Second
)

// Syncer fetches and merges a named branch from the origin remote.
type Syncer struct {
	runner  interfaces.Runner
	timeout time.Duration
}

// Option is a functional option for Syncer configuration
type Option func(*Syncer)

// WithTimeout sets the timeout applied to fetch and merge.
func WithTimeout(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a new Syncer
func New(runner interfaces.Runner, opts ...Option) *Syncer {
	s := &Syncer{
		runner:  runner,
		timeout: defaultSyncTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Advance fast-forwards the checkout at path to the remote tip of
// branch. Any failure is terminal for the repository and carries the
// tool's diagnostic output verbatim.
func (s *Syncer) Advance(ctx context.Context, path, branch string) model.StepResult {
	logger := ctxlog.From(ctx)

	// git refuses to operate on checkouts owned by another user unless
	// the path is registered as trusted. Registration failure is not a
	// sync failure; the sync itself will report the real problem.
	if out, err := s.runner.Run(ctx, path, trustTimeout,
		"git", "config", "--global", "--add", "safe.directory", path); err != nil {
		logger.Warn("failed to register trusted path", "path", path, "output", out, "error", err)
	}

	fetchOut, err := s.runner.Run(ctx, path, s.timeout, "git", "fetch", "origin", branch)
	if err != nil {
		return model.StepResult{Success: false, Message: failMessage("git fetch", fetchOut, err)}
	}

	mergeOut, err := s.runner.Run(ctx, path, s.timeout, "git", "merge", "--ff-only", "FETCH_HEAD")
	if err != nil {
		return model.StepResult{Success: false, Message: failMessage("git merge", mergeOut, err)}
	}

	logger.Info("source synchronized", "path", path, "branch", branch)
	return model.StepResult{
		Success: true,
		Message: strings.TrimSpace(fetchOut + "\n" + mergeOut),
	}
}

// failMessage keeps the tool's own diagnostic text verbatim, falling
// back to the process error when the tool printed nothing.
func failMessage(step, output string, err error) string {
	if msg := strings.TrimSpace(output); msg != "" {
		return fmt.Sprintf("%s: %s", step, msg)
	}
	return fmt.Sprintf("%s: %v", step, err)
}

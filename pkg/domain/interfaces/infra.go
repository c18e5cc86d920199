package interfaces

import (
	"context"
	"time"

	"github.com/m-mizutani/stevedore/pkg/domain/model"
)

// Runner executes an external command in a working directory with a
// per-call timeout, returning combined stdout and stderr. A zero
// timeout means the caller's context governs the deadline.
type Runner interface {
	Run(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) (string, error)
}

// RepositoryCatalog enumerates managed checkouts. Every call re-reads
// the filesystem; results are never cached.
type RepositoryCatalog interface {
	Discover(ctx context.Context) ([]model.RepositoryRecord, error)
}

// SourceSyncer advances a checkout to the latest remote state of a
// branch.
type SourceSyncer interface {
	Advance(ctx context.Context, path, branch string) model.StepResult
}

// WorkloadController manages the containerized workload of a checkout.
type WorkloadController interface {
	// Redeploy tears down, rebuilds and restarts the workload, then
	// verifies the containers stayed up.
	Redeploy(ctx context.Context, path, name string) model.StepResult

	// Diagnose collects best-effort runtime diagnostics as text. It
	// never fails; probe errors are embedded in the output.
	Diagnose(ctx context.Context, path, name string) string

	// IsAvailable reports whether the container engine and its compose
	// tool are usable.
	IsAvailable(ctx context.Context) bool
}

// Notifier receives deployment outcomes. Implementations are
// best-effort; a notification failure never affects the deployment.
type Notifier interface {
	NotifyResults(ctx context.Context, push *model.PushNotification, results []model.DeploymentResult) error
}

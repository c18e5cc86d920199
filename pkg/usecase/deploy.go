package usecase

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stevedore/pkg/domain/interfaces"
	"github.com/m-mizutani/stevedore/pkg/domain/model"
	"github.com/m-mizutani/stevedore/pkg/utils/async"
)

type deployUseCase struct {
	catalog  interfaces.RepositoryCatalog
	syncer   interfaces.SourceSyncer
	workload interfaces.WorkloadController
	notifier interfaces.Notifier
	locks    keyedMutex
}

// Option is a functional option for deploy use case configuration
type Option func(*deployUseCase)

// WithNotifier attaches a best-effort result notifier.
func WithNotifier(n interfaces.Notifier) Option {
	return func(uc *deployUseCase) {
		uc.notifier = n
	}
}

// NewDeploy creates a new instance of DeployUseCase
func NewDeploy(
	catalog interfaces.RepositoryCatalog,
	syncer interfaces.SourceSyncer,
	workload interfaces.WorkloadController,
	opts ...Option,
) interfaces.DeployUseCase {
	uc := &deployUseCase{
		catalog:  catalog,
		syncer:   syncer,
		workload: workload,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ProcessPush matches the push against the current catalog snapshot
// and, for each match, syncs the checkout and recreates its workload.
// Matches are processed strictly one after another so two checkouts
// never contend for the container engine and result ordering stays
// deterministic. The returned error is non-nil only when the catalog
// root itself cannot be scanned; per-repository failures become failed
// results, never errors.
func (uc *deployUseCase) ProcessPush(ctx context.Context, push *model.PushNotification) ([]model.DeploymentResult, error) {
	logger := ctxlog.From(ctx)
	branch := push.Branch()

	logger.Info("processing push event",
		"repository", push.RepoName,
		"branch", branch,
		"commit", push.CommitID,
		"pusher", push.Pusher,
	)

	records, err := uc.catalog.Discover(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "repository discovery failed")
	}

	var matches []model.RepositoryRecord
	for _, rec := range records {
		if rec.Matches(push.RepoName, branch) {
			matches = append(matches, rec)
			continue
		}
		logger.Debug("repository skipped",
			"name", rec.Name,
			"active_branch", rec.ActiveBranch,
			"deployable", rec.Deployable,
			"pushed_branch", branch,
		)
	}

	if len(matches) == 0 {
		logger.Info("no matching repository for push",
			"repository", push.RepoName,
			"branch", branch,
		)
		return []model.DeploymentResult{}, nil
	}

	results := make([]model.DeploymentResult, 0, len(matches))
	for _, rec := range matches {
		results = append(results, uc.deployOne(ctx, rec, branch))
	}

	if uc.notifier != nil {
		notified := append([]model.DeploymentResult(nil), results...)
		async.Dispatch(ctx, func(ctx context.Context) error {
			return uc.notifier.NotifyResults(ctx, push, notified)
		})
	}

	return results, nil
}

// deployOne handles a single matched repository. Anything escaping it,
// including panics, is converted into a failed result so one
// repository's crash cannot abort its siblings.
func (uc *deployUseCase) deployOne(ctx context.Context, rec model.RepositoryRecord, branch string) (result model.DeploymentResult) {
	logger := ctxlog.From(ctx)

	// At most one in-flight redeploy per checkout path, even when the
	// HTTP shell lets concurrent pushes through.
	unlock := uc.locks.lock(rec.Path)
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic during deployment",
				"repository", rec.Name,
				"recover", r,
				"stack", string(debug.Stack()),
			)
			sentry.CurrentHub().Recover(r)
			result = model.NewDeploymentResult(rec.Name, branch, false,
				fmt.Sprintf("internal error: %v", r))
		}
	}()

	if sync := uc.syncer.Advance(ctx, rec.Path, branch); !sync.Success {
		logger.Error("source sync failed",
			"repository", rec.Name,
			"message", sync.Message,
		)
		return model.NewDeploymentResult(rec.Name, branch, false, "sync failed: "+sync.Message)
	}

	deploy := uc.workload.Redeploy(ctx, rec.Path, rec.Name)
	if !deploy.Success {
		logger.Error("redeploy failed",
			"repository", rec.Name,
			"message", deploy.Message,
		)
		return model.NewDeploymentResult(rec.Name, branch, false, "redeploy failed: "+deploy.Message)
	}

	logger.Info("repository redeployed", "repository", rec.Name, "branch", branch)
	return model.NewDeploymentResult(rec.Name, branch, true, deploy.Message)
}

// keyedMutex hands out one mutex per key, created on demand.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

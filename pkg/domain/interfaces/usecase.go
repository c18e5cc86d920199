package interfaces

import (
	"context"

	"github.com/m-mizutani/stevedore/pkg/domain/model"
)

// DeployUseCase defines the interface for push event processing
type DeployUseCase interface {
	// ProcessPush syncs and redeploys every local checkout matching the
	// push, returning one result per matched repository. A push that
	// matches nothing yields an empty list, not an error.
	ProcessPush(ctx context.Context, push *model.PushNotification) ([]model.DeploymentResult, error)
}

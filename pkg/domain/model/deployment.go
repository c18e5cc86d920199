package model

import (
	"time"

	"github.com/google/uuid"
)

// StepResult is the outcome of a single external step (source sync or
// workload redeploy). Message carries the underlying tool's diagnostic
// text verbatim on failure.
type StepResult struct {
	Success bool
	Message string
}

// DeploymentResult records the outcome of one repository for one push
// event. Results are returned to the caller and logged, never
// persisted.
type DeploymentResult struct {
	ID         uuid.UUID `json:"id"`
	Repository string    `json:"repository"`
	Branch     string    `json:"branch"`
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewDeploymentResult creates a DeploymentResult stamped with a fresh
// ID and the current time.
func NewDeploymentResult(repository, branch string, success bool, message string) DeploymentResult {
	return DeploymentResult{
		ID:         uuid.New(),
		Repository: repository,
		Branch:     branch,
		Success:    success,
		Message:    message,
		Timestamp:  time.Now(),
	}
}

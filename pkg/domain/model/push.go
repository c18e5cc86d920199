package model

import (
	"strings"
	"time"
)

// branchRefPrefix is the only prefix stripped when deriving a branch
// name from a push ref. Embedded slashes in branch names are kept.
const branchRefPrefix = "refs/heads/"

// PushNotification represents a validated push event received from the
// source-control host. It is constructed once from the inbound payload
// and never mutated.
type PushNotification struct {
	RepoName   string    // Repository name as pushed (without owner)
	Ref        string    // Full ref, e.g. "refs/heads/main"
	CommitID   string    // Head commit SHA after the push
	Pusher     string    // Account that performed the push
	ReceivedAt time.Time // Time when the event was received
}

// Branch returns the branch the push targeted.
func (p *PushNotification) Branch() string {
	return BranchFromRef(p.Ref)
}

// BranchFromRef derives a branch name from a push ref by stripping the
// fixed "refs/heads/" prefix. Non-branch refs (tags etc.) are returned
// unchanged and will never match a checkout's active branch.
func BranchFromRef(ref string) string {
	return strings.TrimPrefix(ref, branchRefPrefix)
}

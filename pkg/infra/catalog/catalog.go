// Package catalog discovers local checkouts under a managed root
// directory and derives their identity: name, active branch, and
// whether a workload descriptor makes them deployable.
package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stevedore/pkg/domain/interfaces"
	"github.com/m-mizutani/stevedore/pkg/domain/model"
)

const probeTimeout = 10 * time.Second

// Catalog scans a root directory for version-controlled checkouts.
// Every Discover call reads the filesystem fresh; nothing is cached
// across calls.
type Catalog struct {
	root     string
	excludes map[string]struct{}
	runner   interfaces.Runner
}

// Option is a functional option for Catalog configuration
type Option func(*Catalog)

// WithExcludes sets directory names skipped during discovery, e.g. the
// agent's own install directory.
func WithExcludes(names ...string) Option {
	return func(c *Catalog) {
		for _, n := range names {
			c.excludes[n] = struct{}{}
		}
	}
}

// New creates a Catalog over root. The runner is used only for
// fallback probes and remote URL resolution.
func New(root string, runner interfaces.Runner, opts ...Option) *Catalog {
	c := &Catalog{
		root:     root,
		excludes: map[string]struct{}{},
		runner:   runner,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Discover enumerates the immediate subdirectories of the root and
// returns a record for each recognized checkout. Hidden entries,
// excluded names and non-repositories are skipped silently. A misread
// of an individual directory excludes only that entry; the scan fails
// as a whole only when the root itself cannot be read.
func (c *Catalog) Discover(ctx context.Context) ([]model.RepositoryRecord, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read repository root", goerr.V("root", c.root))
	}

	logger := ctxlog.From(ctx)
	records := []model.RepositoryRecord{}

	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := c.excludes[name]; ok {
			continue
		}

		path := filepath.Join(c.root, name)
		if !c.isCheckout(ctx, path) {
			continue
		}

		branch, err := c.activeBranch(ctx, path)
		if err != nil {
			logger.Warn("skipping unreadable checkout", "path", path, "error", err)
			continue
		}

		repoName := c.ResolveRemoteName(ctx, path)
		if repoName == "" {
			repoName = name
		}

		records = append(records, model.RepositoryRecord{
			Name:         repoName,
			Path:         path,
			ActiveBranch: branch,
			Deployable:   hasWorkloadDescriptor(path),
		})
	}

	return records, nil
}

// isCheckout classifies a directory as a version-controlled checkout.
// The primary check is a stat of the repository metadata; when that is
// inconclusive (e.g. a permission error rather than a clean absence),
// a git probe decides.
func (c *Catalog) isCheckout(ctx context.Context, path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}

	_, probeErr := c.runner.Run(ctx, path, probeTimeout, "git", "rev-parse", "--git-dir")
	return probeErr == nil
}

// activeBranch reads the currently checked-out branch. The HEAD file
// is read directly; a detached HEAD yields an empty branch name, which
// keeps the record visible but never matching. When HEAD cannot be
// read (worktree-style .git files, permissions), git itself is asked.
func (c *Catalog) activeBranch(ctx context.Context, path string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(path, ".git", "HEAD"))
	if err == nil {
		head := strings.TrimSpace(string(raw))
		if ref, ok := strings.CutPrefix(head, "ref: "); ok {
			return model.BranchFromRef(ref), nil
		}
		return "", nil // detached HEAD
	}

	out, err := c.runner.Run(ctx, path, probeTimeout, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", goerr.Wrap(err, "failed to read HEAD", goerr.V("path", path))
	}
	branch := strings.TrimSpace(out)
	if branch == "HEAD" {
		return "", nil // detached HEAD
	}
	return branch, nil
}

// ResolveRemoteName derives the project name from the checkout's
// origin URL, supporting both SSH-style "git@host:owner/name.git" and
// HTTPS "https://host/owner/name.git" forms. Returns an empty string
// when the remote is missing or unparsable.
func (c *Catalog) ResolveRemoteName(ctx context.Context, path string) string {
	out, err := c.runner.Run(ctx, path, probeTimeout, "git", "config", "--get", "remote.origin.url")
	if err != nil {
		return ""
	}
	return ParseRemoteName(out)
}

// ParseRemoteName extracts the repository name from a remote URL.
func ParseRemoteName(url string) string {
	url = strings.TrimSpace(url)
	url = strings.TrimSuffix(url, "/")
	url = strings.TrimSuffix(url, ".git")
	if url == "" {
		return ""
	}

	name := url
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	// SSH form without a path separator: git@host:name
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func hasWorkloadDescriptor(path string) bool {
	for _, name := range model.WorkloadDescriptorNames {
		if _, err := os.Stat(filepath.Join(path, name)); err == nil {
			return true
		}
	}
	return false
}

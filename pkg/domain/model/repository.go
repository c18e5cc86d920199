package model

// WorkloadDescriptorNames are the file names recognized as a workload
// descriptor at a checkout root. A checkout is deployable only if one
// of these exists.
var WorkloadDescriptorNames = []string{
	"compose.yaml",
	"compose.yml",
	"docker-compose.yaml",
	"docker-compose.yml",
}

// RepositoryRecord describes one managed checkout as observed at scan
// time. Records are built fresh on every catalog scan and never cached.
type RepositoryRecord struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	ActiveBranch string `json:"active_branch"`
	Deployable   bool   `json:"deployable"`
}

// Matches reports whether this checkout should be acted on for a push
// of the given repository name and branch. All three conditions must
// hold; a detached checkout (empty ActiveBranch) never matches.
func (r *RepositoryRecord) Matches(name, branch string) bool {
	return r.Deployable &&
		r.Name == name &&
		r.ActiveBranch != "" &&
		r.ActiveBranch == branch
}

package model

// HealthStatus represents the health check status
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Engine  bool   `json:"engine_available"`
}

// CatalogStatus is the current repository catalog snapshot exposed on
// the status surface.
type CatalogStatus struct {
	Repositories []RepositoryRecord `json:"repositories"`
	Deployable   int                `json:"deployable_count"`
}

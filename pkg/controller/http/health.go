package http

import (
	"net/http"

	"github.com/m-mizutani/stevedore/pkg/domain/interfaces"
	"github.com/m-mizutani/stevedore/pkg/domain/model"
	"github.com/m-mizutani/stevedore/pkg/domain/types"
)

// healthHandler reports service liveness including container engine
// availability.
type healthHandler struct {
	workload interfaces.WorkloadController
}

func (h *healthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	status := &model.HealthStatus{
		Status:  "healthy",
		Service: types.ServiceName,
		Version: types.Version,
		Engine:  h.workload.IsAvailable(r.Context()),
	}

	respondJSON(w, http.StatusOK, status)
}

// reposHandler exposes the current repository catalog snapshot. This
// is a read-through call; nothing is cached.
type reposHandler struct {
	catalog interfaces.RepositoryCatalog
}

func (h *reposHandler) Handle(w http.ResponseWriter, r *http.Request) {
	records, err := h.catalog.Discover(r.Context())
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	deployable := 0
	for _, rec := range records {
		if rec.Deployable {
			deployable++
		}
	}

	respondJSON(w, http.StatusOK, &model.CatalogStatus{
		Repositories: records,
		Deployable:   deployable,
	})
}

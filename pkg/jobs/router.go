package jobs

import (
	"github.com/go-chi/chi/v5"
)

// Router creates a chi.Router for the regeneration job API.
func Router(store *JobStore) chi.Router {
	r := chi.NewRouter()

	r.Post("/regenerations", RequestRegenHandler(store))
	r.Get("/regenerations", ListJobsHandler(store))
	r.Get("/regenerations/{jobId}", GetJobHandler(store))
	r.Post("/regenerations/{jobId}:cancel", CancelJobHandler(store))

	return r
}

package governance

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with the governance workflow API routes,
// meant to be mounted under the API version prefix.
func NewRouter(orch *Orchestrator) chi.Router {
	r := chi.NewRouter()

	r.Route("/systems", func(r chi.Router) {
		r.Post("/", createSystemHandler(orch.Systems()))
		r.Get("/", listSystemsHandler(orch.Systems()))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getSystemHandler(orch))
			r.Post("/lifecycle", transitionHandler(orch))
			r.Get("/history", historyHandler(orch.History()))
			r.Get("/audit", auditHandler(orch.Audit()))
			r.Get("/risk", riskHandler(orch))
			r.Post("/compliance/approve", complianceApprovalHandler(orch))

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", listTasksHandler(orch.Tasks()))
				r.Post("/re-evaluate", reEvaluateTasksHandler(orch))
				r.Post("/evidence", setTaskEvidenceHandler(orch))
			})

			r.Post("/assessments", createAssessmentHandler(orch.Assessments()))
			r.Get("/assessments", listAssessmentsHandler(orch.Assessments()))
		})
	})

	r.Route("/assessments/{id}", func(r chi.Router) {
		r.Get("/", getAssessmentHandler(orch.Assessments()))
		r.Patch("/", patchAssessmentHandler(orch))
		r.Post("/submit", submitAssessmentHandler(orch))
		r.Post("/approve", reviewAssessmentHandler(orch, true))
		r.Post("/reject", reviewAssessmentHandler(orch, false))
		r.Put("/mitigation", mitigationHandler(orch))
	})

	return r
}

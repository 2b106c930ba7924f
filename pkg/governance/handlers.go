package governance

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/complyra/aigov/pkg/authz"
)

// createSystemHandler returns a handler that registers a new AI system in
// the draft stage.
func createSystemHandler(store *SystemStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID                string           `json:"id"`
			Name              string           `json:"name"`
			Regulation        RegulationFamily `json:"regulation"`
			AccountablePerson string           `json:"accountablePerson"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		switch req.Regulation {
		case RegulationEU, RegulationUK, RegulationMAS:
		default:
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown regulation family: %s", req.Regulation))
			return
		}
		if req.ID == "" {
			req.ID = uuid.New().String()
		}

		record := &AISystemRecord{
			ID:                req.ID,
			Name:              req.Name,
			Regulation:        string(req.Regulation),
			LifecycleStage:    string(StageDraft),
			AccountablePerson: req.AccountablePerson,
		}
		if err := store.Create(record); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create system: %v", err))
			return
		}
		writeJSON(w, http.StatusCreated, systemToAPI(record, ""))
	}
}

// listSystemsHandler returns a handler that lists systems, optionally
// filtered by regulation family.
func listSystemsHandler(store *SystemStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regulation := RegulationFamily(r.URL.Query().Get("regulation"))
		pageSize := pageSizeParam(r)
		pageToken := r.URL.Query().Get("pageToken")

		records, nextToken, err := store.List(regulation, pageSize, pageToken)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list systems: %v", err))
			return
		}

		systems := make([]AISystem, len(records))
		for i := range records {
			systems[i] = systemToAPI(&records[i], "")
		}
		writeJSON(w, http.StatusOK, AISystemList{Systems: systems, NextPageToken: nextToken})
	}
}

// getSystemHandler returns a handler that retrieves one system along with
// its composite risk level.
func getSystemHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		record, err := orch.Systems().Get(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get system: %v", err))
			return
		}
		if record == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("ai system %s not found", id))
			return
		}
		risk, err := orch.OverallRisk(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to compute overall risk: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, systemToAPI(record, risk))
	}
}

// transitionHandler returns a handler that attempts a lifecycle transition.
// Guard failures come back as a 422 with the full list of unmet conditions.
func transitionHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			TargetStage LifecycleStage `json:"targetStage"`
			Reason      string         `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		entry, gerrs, err := orch.AttemptLifecycleTransition(r.Context(), id, req.TargetStage, extractActor(r), req.Reason)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("lifecycle transition failed: %v", err))
			return
		}
		if len(gerrs) > 0 {
			writeJSON(w, statusForErrors(gerrs), TransitionResult{Errors: gerrs})
			return
		}
		apiEntry := historyToAPI(entry)
		writeJSON(w, http.StatusOK, TransitionResult{Entry: &apiEntry})
	}
}

// historyHandler returns a handler that lists a system's lifecycle history.
func historyHandler(store *HistoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		records, nextToken, err := store.ListBySystem(id, pageSizeParam(r), r.URL.Query().Get("pageToken"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list history: %v", err))
			return
		}
		entries := make([]LifecycleEntry, len(records))
		for i := range records {
			entries[i] = historyToAPI(&records[i])
		}
		writeJSON(w, http.StatusOK, LifecycleEntryList{Entries: entries, NextPageToken: nextToken})
	}
}

// auditHandler returns a handler that lists a system's audit events.
func auditHandler(store *AuditStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		records, nextToken, total, err := store.ListBySystem(id, pageSizeParam(r), r.URL.Query().Get("pageToken"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list audit events: %v", err))
			return
		}
		events := make([]AuditEvent, len(records))
		for i := range records {
			events[i] = auditToAPI(&records[i])
		}
		writeJSON(w, http.StatusOK, AuditEventList{Events: events, NextPageToken: nextToken, TotalSize: total})
	}
}

// listTasksHandler returns a handler that lists a system's governance
// tasks; ?blocking=true narrows to open blocking tasks.
func listTasksHandler(store *TaskStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var records []GovernanceTaskRecord
		var err error
		if r.URL.Query().Get("blocking") == "true" {
			records, err = store.ListBlocking(id)
		} else {
			records, err = store.ListBySystem(id)
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list tasks: %v", err))
			return
		}
		tasks := make([]GovernanceTask, len(records))
		for i := range records {
			tasks[i] = taskToAPI(&records[i])
		}
		writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
	}
}

// reEvaluateTasksHandler returns a handler that re-runs task derivation and
// reconciliation for a system on demand.
func reEvaluateTasksHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		result, err := orch.TaskEngine().ReEvaluate(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("task re-evaluation failed: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"created":   result.Created,
			"completed": result.Completed,
		})
	}
}

// setTaskEvidenceHandler returns a handler that attaches an evidence link to
// a task, the only field mutable after completion.
func setTaskEvidenceHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			Title        string `json:"title"`
			EvidenceLink string `json:"evidenceLink"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
		if req.Title == "" {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}

		system, err := orch.Systems().Get(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get system: %v", err))
			return
		}
		if system == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("ai system %s not found", id))
			return
		}
		if err := orch.Tasks().SetEvidenceLink(id, RegulationFamily(system.Regulation), req.Title, req.EvidenceLink); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to set evidence link: %v", err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// createAssessmentHandler returns a handler that creates a draft risk
// assessment with the caller as creator.
func createAssessmentHandler(store *AssessmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		systemID := chi.URLParam(r, "id")
		var req struct {
			Category      string         `json:"category"`
			Summary       string         `json:"summary"`
			Metrics       map[string]any `json:"metrics"`
			RiskLevel     RiskLevel      `json:"riskLevel"`
			EvidenceLinks []string       `json:"evidenceLinks"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
		if req.Category == "" {
			writeError(w, http.StatusBadRequest, "category is required")
			return
		}
		if req.RiskLevel == "" {
			req.RiskLevel = RiskMedium
		}

		record := &RiskAssessmentRecord{
			ID:               uuid.New().String(),
			AISystemID:       systemID,
			Category:         req.Category,
			Summary:          req.Summary,
			Metrics:          JSONAny(req.Metrics),
			RiskLevel:        string(req.RiskLevel),
			Status:           string(AssessmentDraft),
			MitigationStatus: string(MitigationNotStarted),
			AssessedBy:       extractActor(r),
			EvidenceLinks:    JSONStringSlice(req.EvidenceLinks),
		}
		if err := store.Create(record); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create assessment: %v", err))
			return
		}
		writeJSON(w, http.StatusCreated, assessmentToAPI(record))
	}
}

// listAssessmentsHandler returns a handler that lists a system's risk
// assessments.
func listAssessmentsHandler(store *AssessmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		records, err := store.ListBySystem(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list assessments: %v", err))
			return
		}
		assessments := make([]RiskAssessment, len(records))
		for i := range records {
			assessments[i] = assessmentToAPI(&records[i])
		}
		writeJSON(w, http.StatusOK, map[string]any{"assessments": assessments})
	}
}

// getAssessmentHandler returns a handler that retrieves one assessment.
func getAssessmentHandler(store *AssessmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		record, err := store.Get(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get assessment: %v", err))
			return
		}
		if record == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("risk assessment %s not found", id))
			return
		}
		writeJSON(w, http.StatusOK, assessmentToAPI(record))
	}
}

// patchAssessmentHandler returns a handler that applies a content edit to a
// draft assessment. Only fields present in the request body are updated.
func patchAssessmentHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var update AssessmentUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		gerrs, err := orch.UpdateAssessmentDraft(r.Context(), id, update)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to update assessment: %v", err))
			return
		}
		if len(gerrs) > 0 {
			writeGovernanceErrors(w, gerrs)
			return
		}
		record, err := orch.Assessments().Get(id)
		if err != nil || record == nil {
			writeError(w, http.StatusInternalServerError, "failed to reload assessment")
			return
		}
		writeJSON(w, http.StatusOK, assessmentToAPI(record))
	}
}

// submitAssessmentHandler returns a handler for the draft -> submitted
// transition.
func submitAssessmentHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		gerrs, err := orch.SubmitAssessment(r.Context(), id, extractActor(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to submit assessment: %v", err))
			return
		}
		if len(gerrs) > 0 {
			writeGovernanceErrors(w, gerrs)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// reviewAssessmentHandler returns a handler for the approve and reject
// review decisions.
func reviewAssessmentHandler(orch *Orchestrator, approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			Comment string `json:"comment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		var gerrs GovernanceErrors
		var err error
		if approve {
			gerrs, err = orch.AttemptRiskAssessmentApproval(r.Context(), id, extractActor(r), req.Comment)
		} else {
			gerrs, err = orch.RejectRiskAssessment(r.Context(), id, extractActor(r), req.Comment)
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to review assessment: %v", err))
			return
		}
		if len(gerrs) > 0 {
			writeGovernanceErrors(w, gerrs)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// mitigationHandler returns a handler that updates an assessment's
// mitigation status.
func mitigationHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			MitigationStatus MitigationStatus `json:"mitigationStatus"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
		switch req.MitigationStatus {
		case MitigationNotStarted, MitigationInProgress, MitigationMitigated:
		default:
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown mitigation status: %s", req.MitigationStatus))
			return
		}

		gerrs, err := orch.UpdateMitigationStatus(r.Context(), id, req.MitigationStatus)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to update mitigation status: %v", err))
			return
		}
		if len(gerrs) > 0 {
			writeGovernanceErrors(w, gerrs)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// riskHandler returns a handler that reports a system's composite risk.
func riskHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		risk, err := orch.OverallRisk(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to compute overall risk: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"overallRisk": string(risk)})
	}
}

// complianceApprovalHandler returns a handler that runs the shadow-AI gate
// and delegates the approval action when clear.
func complianceApprovalHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		gerrs, err := orch.AttemptComplianceApproval(r.Context(), id, extractActor(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("compliance approval failed: %v", err))
			return
		}
		if len(gerrs) > 0 {
			writeGovernanceErrors(w, gerrs)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// extractActor resolves the acting subject from the request context,
// falling back to "system" for unauthenticated callers.
func extractActor(r *http.Request) string {
	if id, ok := authz.IdentityFromContext(r.Context()); ok && id.Subject != "" {
		return id.Subject
	}
	return "system"
}

// statusForErrors maps a governance error list to an HTTP status: the most
// severe kind wins.
func statusForErrors(errs GovernanceErrors) int {
	status := http.StatusBadRequest
	for _, e := range errs {
		if e.Code == CodeForbidden {
			return http.StatusForbidden
		}
		switch e.Kind {
		case KindInfra:
			return http.StatusInternalServerError
		case KindInvariant:
			status = http.StatusConflict
		case KindGuard:
			if status != http.StatusConflict {
				status = http.StatusUnprocessableEntity
			}
		}
	}
	return status
}

func writeGovernanceErrors(w http.ResponseWriter, errs GovernanceErrors) {
	writeJSON(w, statusForErrors(errs), map[string]any{"errors": errs})
}

func pageSizeParam(r *http.Request) int {
	pageSize := 20
	if ps := r.URL.Query().Get("pageSize"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 {
			pageSize = v
		}
	}
	return pageSize
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

package governance

import "time"

// API view types returned by the HTTP handlers. Records stay internal to the
// store layer; these are the wire shapes.

// AISystem is the API view of an AI system. Exactly one of the per-regime
// compliance blocks is populated, matching the system's regulation family.
type AISystem struct {
	ID                string                `json:"id"`
	Name              string                `json:"name"`
	Regulation        RegulationFamily      `json:"regulation"`
	LifecycleStage    LifecycleStage        `json:"lifecycleStage"`
	AccountablePerson string                `json:"accountablePerson,omitempty"`
	EUCompliance      *EUComplianceSnapshot `json:"euCompliance,omitempty"`
	UKPrinciples      *UKPrincipleStatuses  `json:"ukPrinciples,omitempty"`
	MASPillars        *MASPillarStatuses    `json:"masPillars,omitempty"`
	OverallRisk       RiskLevel             `json:"overallRisk,omitempty"`
	Version           int                   `json:"version"`
	CreatedAt         string                `json:"createdAt,omitempty"`
	UpdatedAt         string                `json:"updatedAt,omitempty"`
}

// AISystemList is a paginated system listing.
type AISystemList struct {
	Systems       []AISystem `json:"systems"`
	NextPageToken string     `json:"nextPageToken,omitempty"`
}

// RiskAssessment is the API view of a risk assessment.
type RiskAssessment struct {
	ID               string           `json:"id"`
	AISystemID       string           `json:"aiSystemId"`
	Category         string           `json:"category"`
	Summary          string           `json:"summary,omitempty"`
	Metrics          map[string]any   `json:"metrics,omitempty"`
	RiskLevel        RiskLevel        `json:"riskLevel"`
	Status           AssessmentStatus `json:"status"`
	MitigationStatus MitigationStatus `json:"mitigationStatus"`
	AssessedBy       string           `json:"assessedBy"`
	ReviewedBy       string           `json:"reviewedBy,omitempty"`
	ReviewedAt       string           `json:"reviewedAt,omitempty"`
	ReviewComment    string           `json:"reviewComment,omitempty"`
	EvidenceLinks    []string         `json:"evidenceLinks,omitempty"`
	CreatedAt        string           `json:"createdAt,omitempty"`
}

// GovernanceTask is the API view of a governance task.
type GovernanceTask struct {
	ID                string            `json:"id"`
	AISystemID        string            `json:"aiSystemId"`
	Regulation        RegulationFamily  `json:"regulation"`
	Title             string            `json:"title"`
	Description       string            `json:"description,omitempty"`
	Status            TaskStatus        `json:"status"`
	Blocking          bool              `json:"blocking"`
	RelatedEntityID   string            `json:"relatedEntityId,omitempty"`
	RelatedEntityType RelatedEntityType `json:"relatedEntityType,omitempty"`
	EvidenceLink      string            `json:"evidenceLink,omitempty"`
	CompletedAt       string            `json:"completedAt,omitempty"`
}

// LifecycleEntry is the API view of a lifecycle history entry.
type LifecycleEntry struct {
	ID            string         `json:"id"`
	AISystemID    string         `json:"aiSystemId"`
	PreviousStage LifecycleStage `json:"previousStage"`
	NewStage      LifecycleStage `json:"newStage"`
	ChangedBy     string         `json:"changedBy"`
	Reason        string         `json:"reason,omitempty"`
	ChangedAt     string         `json:"changedAt"`
}

// LifecycleEntryList is a paginated history listing.
type LifecycleEntryList struct {
	Entries       []LifecycleEntry `json:"entries"`
	NextPageToken string           `json:"nextPageToken,omitempty"`
}

// AuditEvent is the API view of an audit log entry.
type AuditEvent struct {
	ID            string         `json:"id"`
	CorrelationID string         `json:"correlationId,omitempty"`
	EventType     string         `json:"eventType"`
	Actor         string         `json:"actor"`
	AISystemID    string         `json:"aiSystemId,omitempty"`
	EntityID      string         `json:"entityId,omitempty"`
	Outcome       string         `json:"outcome"`
	Reason        string         `json:"reason,omitempty"`
	OldValue      map[string]any `json:"oldValue,omitempty"`
	NewValue      map[string]any `json:"newValue,omitempty"`
	CreatedAt     string         `json:"createdAt"`
}

// AuditEventList is a paginated audit listing.
type AuditEventList struct {
	Events        []AuditEvent `json:"events"`
	NextPageToken string       `json:"nextPageToken,omitempty"`
	TotalSize     int          `json:"totalSize"`
}

// TransitionResult is the response to a lifecycle transition attempt.
// Exactly one of Entry or Errors is set.
type TransitionResult struct {
	Entry  *LifecycleEntry    `json:"entry,omitempty"`
	Errors []*GovernanceError `json:"errors,omitempty"`
}

func systemToAPI(r *AISystemRecord, overallRisk RiskLevel) AISystem {
	out := AISystem{
		ID:                r.ID,
		Name:              r.Name,
		Regulation:        RegulationFamily(r.Regulation),
		LifecycleStage:    LifecycleStage(r.LifecycleStage),
		AccountablePerson: r.AccountablePerson,
		OverallRisk:       overallRisk,
		Version:           r.Version,
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         r.UpdatedAt.Format(time.RFC3339),
	}
	switch RegulationFamily(r.Regulation) {
	case RegulationEU:
		out.EUCompliance = &EUComplianceSnapshot{
			ProhibitedPracticesDetected: r.EUProhibitedPractices,
			HighRiskAllFulfilled:        r.EUHighRiskAllFulfilled,
		}
	case RegulationUK:
		uk := r.UKPrinciples()
		out.UKPrinciples = &uk
	case RegulationMAS:
		mas := r.MASPillars()
		out.MASPillars = &mas
	}
	return out
}

func assessmentToAPI(r *RiskAssessmentRecord) RiskAssessment {
	out := RiskAssessment{
		ID:               r.ID,
		AISystemID:       r.AISystemID,
		Category:         r.Category,
		Summary:          r.Summary,
		Metrics:          map[string]any(r.Metrics),
		RiskLevel:        RiskLevel(r.RiskLevel),
		Status:           AssessmentStatus(r.Status),
		MitigationStatus: MitigationStatus(r.MitigationStatus),
		AssessedBy:       r.AssessedBy,
		ReviewedBy:       r.ReviewedBy,
		ReviewComment:    r.ReviewComment,
		EvidenceLinks:    []string(r.EvidenceLinks),
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
	}
	if r.ReviewedAt != nil {
		out.ReviewedAt = r.ReviewedAt.Format(time.RFC3339)
	}
	return out
}

func taskToAPI(r *GovernanceTaskRecord) GovernanceTask {
	out := GovernanceTask{
		ID:                r.ID,
		AISystemID:        r.AISystemID,
		Regulation:        RegulationFamily(r.Regulation),
		Title:             r.Title,
		Description:       r.Description,
		Status:            TaskStatus(r.Status),
		Blocking:          r.Blocking,
		RelatedEntityID:   r.RelatedEntityID,
		RelatedEntityType: RelatedEntityType(r.RelatedEntityType),
		EvidenceLink:      r.EvidenceLink,
	}
	if r.CompletedAt != nil {
		out.CompletedAt = r.CompletedAt.Format(time.RFC3339)
	}
	return out
}

func historyToAPI(r *LifecycleHistoryRecord) LifecycleEntry {
	return LifecycleEntry{
		ID:            r.ID,
		AISystemID:    r.AISystemID,
		PreviousStage: LifecycleStage(r.PreviousStage),
		NewStage:      LifecycleStage(r.NewStage),
		ChangedBy:     r.ChangedBy,
		Reason:        r.Reason,
		ChangedAt:     r.ChangedAt.Format(time.RFC3339),
	}
}

func auditToAPI(r *AuditEventRecord) AuditEvent {
	return AuditEvent{
		ID:            r.ID,
		CorrelationID: r.CorrelationID,
		EventType:     r.EventType,
		Actor:         r.Actor,
		AISystemID:    r.AISystemID,
		EntityID:      r.EntityID,
		Outcome:       r.Outcome,
		Reason:        r.Reason,
		OldValue:      map[string]any(r.OldValue),
		NewValue:      map[string]any(r.NewValue),
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
}

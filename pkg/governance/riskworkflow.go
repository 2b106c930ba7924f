package governance

import (
	"time"

	"github.com/golang/glog"
)

// AssessmentUpdate carries a content edit against a draft assessment.
// Nil fields are left unchanged.
type AssessmentUpdate struct {
	Category      *string         `json:"category,omitempty"`
	Summary       *string         `json:"summary,omitempty"`
	Metrics       JSONAny         `json:"metrics,omitempty"`
	RiskLevel     *RiskLevel      `json:"riskLevel,omitempty"`
	EvidenceLinks JSONStringSlice `json:"evidenceLinks,omitempty"`
}

// RiskWorkflow is the per-assessment state machine:
// draft -> submitted -> {approved, rejected}, with no way out of the
// terminal states. It validates transitions and applies them to the record
// in memory; persistence is the orchestrator's job so the write can share a
// transaction with audit rows.
type RiskWorkflow struct{}

// NewRiskWorkflow creates a risk assessment workflow.
func NewRiskWorkflow() *RiskWorkflow {
	return &RiskWorkflow{}
}

// Submit moves a draft assessment to submitted. Only the creator may
// submit, and a high-risk assessment needs at least one evidence link —
// checked here, before the transition, never again after.
func (w *RiskWorkflow) Submit(assessment *RiskAssessmentRecord, actor string) *GovernanceError {
	if AssessmentStatus(assessment.Status) != AssessmentDraft {
		return NewInvariantError(CodeAssessmentLocked,
			"assessment %s is %s and can no longer be submitted", assessment.ID, assessment.Status)
	}
	if actor != assessment.AssessedBy {
		return NewValidationError(CodeNotCreator,
			"only the creator (%s) may submit this assessment", assessment.AssessedBy)
	}
	if RiskLevel(assessment.RiskLevel) == RiskHigh && len(assessment.EvidenceLinks) == 0 {
		return NewValidationError(CodeHighRiskNeedsEvidence,
			"high-risk assessments require at least one evidence link before submission")
	}
	assessment.Status = string(AssessmentSubmitted)
	return nil
}

// Approve moves a submitted assessment to approved and records the
// reviewer. The comment is optional on approval.
func (w *RiskWorkflow) Approve(assessment *RiskAssessmentRecord, reviewer, comment string) *GovernanceError {
	if AssessmentStatus(assessment.Status) != AssessmentSubmitted {
		return NewGuardError(CodeNotSubmitted,
			"assessment %s is %s; only submitted assessments can be approved", assessment.ID, assessment.Status)
	}
	now := time.Now()
	assessment.Status = string(AssessmentApproved)
	assessment.ReviewedBy = reviewer
	assessment.ReviewedAt = &now
	assessment.ReviewComment = comment
	return nil
}

// Reject moves a submitted assessment to rejected. A non-empty comment is
// mandatory so the creator knows what to fix.
func (w *RiskWorkflow) Reject(assessment *RiskAssessmentRecord, reviewer, comment string) *GovernanceError {
	if AssessmentStatus(assessment.Status) != AssessmentSubmitted {
		return NewGuardError(CodeNotSubmitted,
			"assessment %s is %s; only submitted assessments can be rejected", assessment.ID, assessment.Status)
	}
	if comment == "" {
		return NewValidationError(CodeCommentRequired, "rejection requires a review comment")
	}
	now := time.Now()
	assessment.Status = string(AssessmentRejected)
	assessment.ReviewedBy = reviewer
	assessment.ReviewedAt = &now
	assessment.ReviewComment = comment
	return nil
}

// ApplyUpdate applies a content edit. Content fields are mutable only while
// the assessment is a draft; any edit against a submitted, approved, or
// rejected record is rejected and logged as an anomaly, because a caller
// bypassed the public API to get here.
func (w *RiskWorkflow) ApplyUpdate(assessment *RiskAssessmentRecord, update AssessmentUpdate) *GovernanceError {
	if AssessmentStatus(assessment.Status) != AssessmentDraft {
		glog.Warningf("rejected content edit of %s assessment %s", assessment.Status, assessment.ID)
		return NewInvariantError(CodeAssessmentLocked,
			"assessment %s is %s; content is locked", assessment.ID, assessment.Status)
	}
	if update.Category != nil {
		assessment.Category = *update.Category
	}
	if update.Summary != nil {
		assessment.Summary = *update.Summary
	}
	if update.Metrics != nil {
		assessment.Metrics = update.Metrics
	}
	if update.RiskLevel != nil {
		assessment.RiskLevel = string(*update.RiskLevel)
	}
	if update.EvidenceLinks != nil {
		assessment.EvidenceLinks = update.EvidenceLinks
	}
	return nil
}

// CanUpdateMitigation reports whether mitigation_status may still change.
// The carve-out covers submitted and approved assessments; remediation
// tracking is independent of governance state. Rejected records are fully
// immutable.
func (w *RiskWorkflow) CanUpdateMitigation(assessment *RiskAssessmentRecord) *GovernanceError {
	switch AssessmentStatus(assessment.Status) {
	case AssessmentDraft, AssessmentSubmitted, AssessmentApproved:
		return nil
	default:
		return NewInvariantError(CodeAssessmentLocked,
			"assessment %s is %s; mitigation status is locked", assessment.ID, assessment.Status)
	}
}

// OverallRiskLevel is the composite risk for a system: the maximum risk
// level among approved assessments only. Draft, submitted, and rejected
// assessments are excluded from the aggregate. Returns "" when no approved
// assessment exists.
func OverallRiskLevel(assessments []RiskAssessmentRecord) RiskLevel {
	var overall RiskLevel
	for _, a := range assessments {
		if AssessmentStatus(a.Status) != AssessmentApproved {
			continue
		}
		level := RiskLevel(a.RiskLevel)
		if riskRank[level] > riskRank[overall] {
			overall = level
		}
	}
	return overall
}

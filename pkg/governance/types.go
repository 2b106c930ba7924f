package governance

// RegulationFamily identifies which regulatory regime governs a system.
type RegulationFamily string

const (
	RegulationEU  RegulationFamily = "EU"
	RegulationUK  RegulationFamily = "UK"
	RegulationMAS RegulationFamily = "MAS"
)

// LifecycleStage represents an AI system's lifecycle stage.
type LifecycleStage string

const (
	StageDraft       LifecycleStage = "draft"
	StageDevelopment LifecycleStage = "development"
	StageTesting     LifecycleStage = "testing"
	StageDeployed    LifecycleStage = "deployed"
	StageMonitoring  LifecycleStage = "monitoring"
	StageRetired     LifecycleStage = "retired"
)

// RiskLevel classifies a risk assessment.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// riskRank orders risk levels for the overall-risk aggregate.
var riskRank = map[RiskLevel]int{
	RiskLow:    1,
	RiskMedium: 2,
	RiskHigh:   3,
}

// AssessmentStatus represents the review state of a risk assessment.
type AssessmentStatus string

const (
	AssessmentDraft     AssessmentStatus = "draft"
	AssessmentSubmitted AssessmentStatus = "submitted"
	AssessmentApproved  AssessmentStatus = "approved"
	AssessmentRejected  AssessmentStatus = "rejected"
)

// MitigationStatus tracks remediation progress independent of review state.
type MitigationStatus string

const (
	MitigationNotStarted MitigationStatus = "not_started"
	MitigationInProgress MitigationStatus = "in_progress"
	MitigationMitigated  MitigationStatus = "mitigated"
)

// TaskStatus represents the state of a governance task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "Pending"
	TaskCompleted TaskStatus = "Completed"
	TaskBlocked   TaskStatus = "Blocked"
)

// RelatedEntityType names what kind of record a task is linked to.
type RelatedEntityType string

const (
	RelatedRiskAssessment RelatedEntityType = "risk_assessment"
	RelatedDocumentation  RelatedEntityType = "documentation"
)

// ShadowStatus represents the review state of a discovered AI asset.
type ShadowStatus string

const (
	ShadowPotential ShadowStatus = "potential"
	ShadowConfirmed ShadowStatus = "confirmed"
	ShadowResolved  ShadowStatus = "resolved"
)

// ComplianceStatus is the per-principle/per-pillar checklist state for
// UK and MAS systems.
type ComplianceStatus string

const (
	ComplianceCompliant     ComplianceStatus = "compliant"
	ComplianceGap           ComplianceStatus = "gap"
	ComplianceNotAssessed   ComplianceStatus = "not_assessed"
	ComplianceNotApplicable ComplianceStatus = "not_applicable"
)

// DocumentationState is the freshness of a system's compliance documentation.
type DocumentationState string

const (
	DocumentationCurrent  DocumentationState = "current"
	DocumentationOutdated DocumentationState = "outdated"
	DocumentationNone     DocumentationState = "none"
)

// SystemRef identifies an AI system together with its regulation family.
// The regulation tag is resolved once at the orchestrator boundary so rule
// evaluation never re-derives which regime applies.
type SystemRef struct {
	SystemID   string           `json:"systemId"`
	Regulation RegulationFamily `json:"regulation"`
}

// UKPrincipleStatuses holds the five UK principle checklist fields as named
// columns rather than a free-form map, so rule derivation is exhaustive.
type UKPrincipleStatuses struct {
	SafetySecurityRobustness ComplianceStatus `json:"safetySecurityRobustness"`
	AppropriateTransparency  ComplianceStatus `json:"appropriateTransparency"`
	Fairness                 ComplianceStatus `json:"fairness"`
	AccountabilityGovernance ComplianceStatus `json:"accountabilityGovernance"`
	ContestabilityRedress    ComplianceStatus `json:"contestabilityRedress"`
	OverallAssessment        ComplianceStatus `json:"overallAssessment"`
}

// HasGap reports whether any principle is unresolved or the overall
// assessment is not compliant.
func (u UKPrincipleStatuses) HasGap() bool {
	for _, s := range []ComplianceStatus{
		u.SafetySecurityRobustness,
		u.AppropriateTransparency,
		u.Fairness,
		u.AccountabilityGovernance,
		u.ContestabilityRedress,
	} {
		if s != ComplianceCompliant && s != ComplianceNotApplicable {
			return true
		}
	}
	return u.OverallAssessment != ComplianceCompliant
}

// MASPillarStatuses holds the twelve MAS model-risk pillar checklist fields.
type MASPillarStatuses struct {
	Governance       ComplianceStatus `json:"governance"`
	Fairness         ComplianceStatus `json:"fairness"`
	Ethics           ComplianceStatus `json:"ethics"`
	Accountability   ComplianceStatus `json:"accountability"`
	Transparency     ComplianceStatus `json:"transparency"`
	DataManagement   ComplianceStatus `json:"dataManagement"`
	ModelDevelopment ComplianceStatus `json:"modelDevelopment"`
	ModelValidation  ComplianceStatus `json:"modelValidation"`
	Deployment       ComplianceStatus `json:"deployment"`
	Monitoring       ComplianceStatus `json:"monitoring"`
	Security         ComplianceStatus `json:"security"`
	ThirdPartyRisk   ComplianceStatus `json:"thirdPartyRisk"`
	OverallStatus    ComplianceStatus `json:"overallStatus"`
}

// HasGap reports whether any pillar is unresolved or the overall status is
// not compliant.
func (m MASPillarStatuses) HasGap() bool {
	for _, s := range []ComplianceStatus{
		m.Governance, m.Fairness, m.Ethics, m.Accountability,
		m.Transparency, m.DataManagement, m.ModelDevelopment,
		m.ModelValidation, m.Deployment, m.Monitoring,
		m.Security, m.ThirdPartyRisk,
	} {
		if s != ComplianceCompliant && s != ComplianceNotApplicable {
			return true
		}
	}
	return m.OverallStatus != ComplianceCompliant
}

// EUComplianceSnapshot holds the EU AI Act compliance fields the lifecycle
// guards consult.
type EUComplianceSnapshot struct {
	ProhibitedPracticesDetected bool `json:"prohibitedPracticesDetected"`
	HighRiskAllFulfilled        bool `json:"highRiskAllFulfilled"`
}

// TaskSpec describes a governance task the rules engine requires to exist.
// Tasks are keyed by (systemId, regulation, title); the engine upserts on
// that key and never blind-inserts.
type TaskSpec struct {
	Title             string            `json:"title"`
	Description       string            `json:"description,omitempty"`
	Blocking          bool              `json:"blocking"`
	RelatedEntityID   string            `json:"relatedEntityId,omitempty"`
	RelatedEntityType RelatedEntityType `json:"relatedEntityType,omitempty"`
}

// TaskKey is the uniqueness key for governance tasks.
type TaskKey struct {
	SystemID   string
	Regulation RegulationFamily
	Title      string
}

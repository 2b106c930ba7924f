package governance

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONStringSlice is a custom GORM type for []string stored as JSON.
type JSONStringSlice []string

// Scan implements the sql.Scanner interface for JSONStringSlice.
func (s *JSONStringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case string:
		bytes = []byte(v)
	case []byte:
		bytes = v
	default:
		return fmt.Errorf("unsupported type for JSONStringSlice: %T", value)
	}
	return json.Unmarshal(bytes, s)
}

// Value implements the driver.Valuer interface for JSONStringSlice.
func (s JSONStringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// JSONAny is a custom GORM type for map[string]any stored as JSON.
type JSONAny map[string]any

// Scan implements the sql.Scanner interface for JSONAny.
func (m *JSONAny) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case string:
		bytes = []byte(v)
	case []byte:
		bytes = v
	default:
		return fmt.Errorf("unsupported type for JSONAny: %T", value)
	}
	return json.Unmarshal(bytes, m)
}

// Value implements the driver.Valuer interface for JSONAny.
func (m JSONAny) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// AISystemRecord stores an AI system row. The workflow engine only writes
// lifecycle_stage (plus the version counter); the compliance snapshot columns
// are owned by the upstream assessment flows and read here by the guards.
type AISystemRecord struct {
	ID                string `gorm:"primaryKey;column:id;type:varchar(36)"`
	Name              string `gorm:"column:name;not null"`
	Regulation        string `gorm:"column:regulation;index:idx_system_regulation;not null"`
	LifecycleStage    string `gorm:"column:lifecycle_stage;default:draft;not null"`
	AccountablePerson string `gorm:"column:accountable_person"`

	// EU AI Act snapshot.
	EUProhibitedPractices  bool `gorm:"column:eu_prohibited_practices"`
	EUHighRiskAllFulfilled bool `gorm:"column:eu_high_risk_all_fulfilled"`

	// UK principle checklist.
	UKSafetySecurityRobustness string `gorm:"column:uk_safety_security_robustness;default:not_assessed"`
	UKAppropriateTransparency  string `gorm:"column:uk_appropriate_transparency;default:not_assessed"`
	UKFairness                 string `gorm:"column:uk_fairness;default:not_assessed"`
	UKAccountabilityGovernance string `gorm:"column:uk_accountability_governance;default:not_assessed"`
	UKContestabilityRedress    string `gorm:"column:uk_contestability_redress;default:not_assessed"`
	UKOverallAssessment        string `gorm:"column:uk_overall_assessment;default:not_assessed"`

	// MAS pillar checklist.
	MASGovernance       string `gorm:"column:mas_governance;default:not_assessed"`
	MASFairness         string `gorm:"column:mas_fairness;default:not_assessed"`
	MASEthics           string `gorm:"column:mas_ethics;default:not_assessed"`
	MASAccountability   string `gorm:"column:mas_accountability;default:not_assessed"`
	MASTransparency     string `gorm:"column:mas_transparency;default:not_assessed"`
	MASDataManagement   string `gorm:"column:mas_data_management;default:not_assessed"`
	MASModelDevelopment string `gorm:"column:mas_model_development;default:not_assessed"`
	MASModelValidation  string `gorm:"column:mas_model_validation;default:not_assessed"`
	MASDeployment       string `gorm:"column:mas_deployment;default:not_assessed"`
	MASMonitoring       string `gorm:"column:mas_monitoring;default:not_assessed"`
	MASSecurity         string `gorm:"column:mas_security;default:not_assessed"`
	MASThirdPartyRisk   string `gorm:"column:mas_third_party_risk;default:not_assessed"`
	MASOverallStatus    string `gorm:"column:mas_overall_status;default:not_assessed"`

	// Version is the optimistic-concurrency counter; every stage write is a
	// conditional update on this column.
	Version   int       `gorm:"column:version;default:0;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (AISystemRecord) TableName() string { return "ai_systems" }

// Ref returns the system's SystemRef with the regulation tag resolved.
func (r *AISystemRecord) Ref() SystemRef {
	return SystemRef{SystemID: r.ID, Regulation: RegulationFamily(r.Regulation)}
}

// UKPrinciples assembles the typed UK checklist view of the record.
func (r *AISystemRecord) UKPrinciples() UKPrincipleStatuses {
	return UKPrincipleStatuses{
		SafetySecurityRobustness: ComplianceStatus(r.UKSafetySecurityRobustness),
		AppropriateTransparency:  ComplianceStatus(r.UKAppropriateTransparency),
		Fairness:                 ComplianceStatus(r.UKFairness),
		AccountabilityGovernance: ComplianceStatus(r.UKAccountabilityGovernance),
		ContestabilityRedress:    ComplianceStatus(r.UKContestabilityRedress),
		OverallAssessment:        ComplianceStatus(r.UKOverallAssessment),
	}
}

// MASPillars assembles the typed MAS checklist view of the record.
func (r *AISystemRecord) MASPillars() MASPillarStatuses {
	return MASPillarStatuses{
		Governance:       ComplianceStatus(r.MASGovernance),
		Fairness:         ComplianceStatus(r.MASFairness),
		Ethics:           ComplianceStatus(r.MASEthics),
		Accountability:   ComplianceStatus(r.MASAccountability),
		Transparency:     ComplianceStatus(r.MASTransparency),
		DataManagement:   ComplianceStatus(r.MASDataManagement),
		ModelDevelopment: ComplianceStatus(r.MASModelDevelopment),
		ModelValidation:  ComplianceStatus(r.MASModelValidation),
		Deployment:       ComplianceStatus(r.MASDeployment),
		Monitoring:       ComplianceStatus(r.MASMonitoring),
		Security:         ComplianceStatus(r.MASSecurity),
		ThirdPartyRisk:   ComplianceStatus(r.MASThirdPartyRisk),
		OverallStatus:    ComplianceStatus(r.MASOverallStatus),
	}
}

// RiskAssessmentRecord stores a risk assessment. Content fields freeze once
// the assessment leaves draft; only review fields and mitigation_status may
// change afterwards, and nothing changes after approval/rejection except
// mitigation_status on approved records.
type RiskAssessmentRecord struct {
	ID               string          `gorm:"primaryKey;column:id;type:varchar(36)"`
	AISystemID       string          `gorm:"column:ai_system_id;index:idx_assessment_system;not null"`
	Category         string          `gorm:"column:category;not null"`
	Summary          string          `gorm:"column:summary"`
	Metrics          JSONAny         `gorm:"column:metrics;type:text"`
	RiskLevel        string          `gorm:"column:risk_level;default:medium;not null"`
	Status           string          `gorm:"column:status;index:idx_assessment_status;default:draft;not null"`
	MitigationStatus string          `gorm:"column:mitigation_status;default:not_started;not null"`
	AssessedBy       string          `gorm:"column:assessed_by;not null"`
	ReviewedBy       string          `gorm:"column:reviewed_by"`
	ReviewedAt       *time.Time      `gorm:"column:reviewed_at"`
	ReviewComment    string          `gorm:"column:review_comment"`
	EvidenceLinks    JSONStringSlice `gorm:"column:evidence_links;type:text"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (RiskAssessmentRecord) TableName() string { return "risk_assessments" }

// GovernanceTaskRecord stores a governance task. Rows are unique on
// (ai_system_id, regulation, title) and are never deleted; once completed,
// only evidence_link may change.
type GovernanceTaskRecord struct {
	ID                string     `gorm:"primaryKey;column:id;type:varchar(36)"`
	AISystemID        string     `gorm:"column:ai_system_id;uniqueIndex:idx_task_key,priority:1;not null"`
	Regulation        string     `gorm:"column:regulation;uniqueIndex:idx_task_key,priority:2;not null"`
	Title             string     `gorm:"column:title;uniqueIndex:idx_task_key,priority:3;not null"`
	Description       string     `gorm:"column:description"`
	Status            string     `gorm:"column:status;index:idx_task_status;default:Pending;not null"`
	Blocking          bool       `gorm:"column:blocking;not null"`
	RelatedEntityID   string     `gorm:"column:related_entity_id"`
	RelatedEntityType string     `gorm:"column:related_entity_type"`
	EvidenceLink      string     `gorm:"column:evidence_link"`
	CompletedAt       *time.Time `gorm:"column:completed_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (GovernanceTaskRecord) TableName() string { return "governance_tasks" }

// Key returns the task's uniqueness key.
func (r *GovernanceTaskRecord) Key() TaskKey {
	return TaskKey{SystemID: r.AISystemID, Regulation: RegulationFamily(r.Regulation), Title: r.Title}
}

// LifecycleHistoryRecord is an append-only stage-transition entry, created
// exactly once per successful transition and never mutated.
type LifecycleHistoryRecord struct {
	ID            string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	AISystemID    string    `gorm:"column:ai_system_id;index:idx_history_system_time,priority:1;not null"`
	PreviousStage string    `gorm:"column:previous_stage;not null"`
	NewStage      string    `gorm:"column:new_stage;not null"`
	ChangedBy     string    `gorm:"column:changed_by;not null"`
	Reason        string    `gorm:"column:reason"`
	ChangedAt     time.Time `gorm:"column:changed_at;index:idx_history_system_time,priority:2;autoCreateTime"`
}

// TableName returns the GORM table name.
func (LifecycleHistoryRecord) TableName() string { return "lifecycle_history" }

// ShadowAssetRecord stores a discovered AI asset. Read-only to this engine;
// only confirmed assets linked to a system participate in gating.
type ShadowAssetRecord struct {
	ID             string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	Name           string    `gorm:"column:name;not null"`
	Source         string    `gorm:"column:source"`
	LinkedSystemID string    `gorm:"column:linked_system_id;index:idx_shadow_system"`
	ShadowStatus   string    `gorm:"column:shadow_status;default:potential;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (ShadowAssetRecord) TableName() string { return "shadow_assets" }

// DocumentRecord tracks compliance documentation freshness per system and
// regulation. Generation lives elsewhere; the engine only reads status.
type DocumentRecord struct {
	ID          string     `gorm:"primaryKey;column:id;type:varchar(36)"`
	AISystemID  string     `gorm:"column:ai_system_id;index:idx_document_system;not null"`
	Regulation  string     `gorm:"column:regulation;not null"`
	Status      string     `gorm:"column:status;default:none;not null"`
	GeneratedAt *time.Time `gorm:"column:generated_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (DocumentRecord) TableName() string { return "compliance_documents" }

// AuditEventRecord is an immutable audit log entry appended by the
// orchestrator for every operation, successful or denied.
type AuditEventRecord struct {
	ID            string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	CorrelationID string    `gorm:"column:correlation_id;index"`
	EventType     string    `gorm:"column:event_type;index:idx_audit_type_time,priority:1;not null"`
	Actor         string    `gorm:"column:actor;index:idx_audit_actor_time,priority:1;not null"`
	AISystemID    string    `gorm:"column:ai_system_id;index:idx_audit_system_time,priority:1"`
	EntityID      string    `gorm:"column:entity_id"`
	Outcome       string    `gorm:"column:outcome;not null"` // success, denied, failure
	Reason        string    `gorm:"column:reason"`
	OldValue      JSONAny   `gorm:"column:old_value;type:text"`
	NewValue      JSONAny   `gorm:"column:new_value;type:text"`
	CreatedAt     time.Time `gorm:"column:created_at;index:idx_audit_type_time,priority:2;index:idx_audit_actor_time,priority:2;index:idx_audit_system_time,priority:2;autoCreateTime"`
}

// TableName returns the GORM table name.
func (AuditEventRecord) TableName() string { return "audit_events" }

package governance

import (
	"fmt"

	"gorm.io/gorm"
)

// AssessmentStore provides persistence for risk assessments. Field-level
// immutability is enforced by RiskAssessmentWorkflow; the store only offers
// the narrow write paths the workflow needs.
type AssessmentStore struct {
	db *gorm.DB
}

// NewAssessmentStore creates a new AssessmentStore.
func NewAssessmentStore(db *gorm.DB) *AssessmentStore {
	return &AssessmentStore{db: db}
}

// Get retrieves an assessment by ID. Returns nil, nil if no row exists.
func (s *AssessmentStore) Get(id string) (*RiskAssessmentRecord, error) {
	var record RiskAssessmentRecord
	err := s.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get risk assessment: %w", err)
	}
	return &record, nil
}

// ListBySystem returns every assessment for a system, oldest first.
func (s *AssessmentStore) ListBySystem(systemID string) ([]RiskAssessmentRecord, error) {
	var records []RiskAssessmentRecord
	if err := s.db.Where("ai_system_id = ?", systemID).Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list risk assessments: %w", err)
	}
	return records, nil
}

// Create inserts a new draft assessment.
func (s *AssessmentStore) Create(record *RiskAssessmentRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("create risk assessment: %w", err)
	}
	return nil
}

// Save persists the whole record. Callers go through
// RiskAssessmentWorkflow, which has already validated the mutation.
func (s *AssessmentStore) Save(tx *gorm.DB, record *RiskAssessmentRecord) error {
	if tx == nil {
		tx = s.db
	}
	if err := tx.Save(record).Error; err != nil {
		return fmt.Errorf("save risk assessment: %w", err)
	}
	return nil
}

// UpdateMitigationStatus writes only the mitigation_status column, the one
// field that stays mutable on submitted and approved assessments.
func (s *AssessmentStore) UpdateMitigationStatus(id string, status MitigationStatus) error {
	result := s.db.Model(&RiskAssessmentRecord{}).
		Where("id = ?", id).
		Update("mitigation_status", string(status))
	if result.Error != nil {
		return fmt.Errorf("update mitigation status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("risk assessment %s not found", id)
	}
	return nil
}

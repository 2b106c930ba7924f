package governance

import (
	"fmt"

	"gorm.io/gorm"
)

// SystemStore provides read access to AI system rows plus the one write the
// engine owns: the lifecycle stage, under optimistic concurrency.
type SystemStore struct {
	db *gorm.DB
}

// NewSystemStore creates a new SystemStore.
func NewSystemStore(db *gorm.DB) *SystemStore {
	return &SystemStore{db: db}
}

// AutoMigrate creates or updates every table the workflow engine touches.
func (s *SystemStore) AutoMigrate() error {
	models := []any{
		&AISystemRecord{},
		&RiskAssessmentRecord{},
		&GovernanceTaskRecord{},
		&LifecycleHistoryRecord{},
		&ShadowAssetRecord{},
		&DocumentRecord{},
		&AuditEventRecord{},
	}
	for _, m := range models {
		if err := s.db.AutoMigrate(m); err != nil {
			return fmt.Errorf("auto-migrate governance tables: %w", err)
		}
	}
	return nil
}

// Get retrieves a system by ID. Returns nil, nil if no row exists.
func (s *SystemStore) Get(id string) (*AISystemRecord, error) {
	var record AISystemRecord
	err := s.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get ai system: %w", err)
	}
	return &record, nil
}

// Create inserts a new system row.
func (s *SystemStore) Create(record *AISystemRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("create ai system: %w", err)
	}
	return nil
}

// UpdateStage writes a new lifecycle stage conditionally on the version
// counter read with the snapshot. Returns ErrVersionConflict when another
// writer got there first; the orchestrator retries once with a fresh read.
func (s *SystemStore) UpdateStage(tx *gorm.DB, id string, expectedVersion int, newStage LifecycleStage) error {
	if tx == nil {
		tx = s.db
	}
	result := tx.Model(&AISystemRecord{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]any{
			"lifecycle_stage": string(newStage),
			"version":         expectedVersion + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("update lifecycle stage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// ErrVersionConflict signals that the system row changed between the
// snapshot read and the conditional stage write.
var ErrVersionConflict = NewInfraError(CodeConcurrentModification, "system row was modified concurrently")

// List returns paginated systems, optionally filtered by regulation family.
// pageToken is the ID of the last record from the previous page.
func (s *SystemStore) List(regulation RegulationFamily, pageSize int, pageToken string) ([]AISystemRecord, string, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	query := s.db.Order("id ASC").Limit(pageSize + 1)
	if regulation != "" {
		query = query.Where("regulation = ?", string(regulation))
	}
	if pageToken != "" {
		query = query.Where("id > ?", pageToken)
	}

	var records []AISystemRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, "", fmt.Errorf("list ai systems: %w", err)
	}

	var nextToken string
	if len(records) > pageSize {
		nextToken = records[pageSize-1].ID
		records = records[:pageSize]
	}

	return records, nextToken, nil
}

package governance

import (
	"fmt"

	"gorm.io/gorm"
)

// ShadowAssetStore reads discovered AI assets. The workflow engine never
// writes this table; discovery and triage live upstream.
type ShadowAssetStore struct {
	db *gorm.DB
}

// NewShadowAssetStore creates a new ShadowAssetStore.
func NewShadowAssetStore(db *gorm.DB) *ShadowAssetStore {
	return &ShadowAssetStore{db: db}
}

// ListConfirmedForSystem returns the confirmed shadow assets linked to a
// system. Potential and resolved assets never gate anything.
func (s *ShadowAssetStore) ListConfirmedForSystem(systemID string) ([]ShadowAssetRecord, error) {
	var records []ShadowAssetRecord
	err := s.db.
		Where("linked_system_id = ? AND shadow_status = ?", systemID, string(ShadowConfirmed)).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list confirmed shadow assets: %w", err)
	}
	return records, nil
}

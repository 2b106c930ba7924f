package governance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentationChecker reports the freshness of a system's compliance
// documentation for a regulation. Document generation lives outside the
// engine; the guards and task rules only consume the status.
type DocumentationChecker interface {
	Status(systemID string, regulation RegulationFamily) (DocumentationState, error)
}

// DocumentStore is the default DocumentationChecker, backed by the
// compliance_documents table.
type DocumentStore struct {
	db *gorm.DB
}

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(db *gorm.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Status returns the freshest document's state for the system and
// regulation, or DocumentationNone when no document exists.
func (s *DocumentStore) Status(systemID string, regulation RegulationFamily) (DocumentationState, error) {
	var record DocumentRecord
	err := s.db.
		Where("ai_system_id = ? AND regulation = ?", systemID, string(regulation)).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return DocumentationNone, nil
		}
		return DocumentationNone, fmt.Errorf("get document status: %w", err)
	}
	return DocumentationState(record.Status), nil
}

// Regenerate writes a fresh current document for the system, superseding
// whatever documents existed before. It returns the number of documents
// superseded. The whole write runs in one transaction so a reader never
// observes a system without a current document mid-regeneration.
func (s *DocumentStore) Regenerate(ctx context.Context, systemID string) (int, error) {
	var superseded int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var system AISystemRecord
		if err := tx.Where("id = ?", systemID).First(&system).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("system not found: %s", systemID)
			}
			return fmt.Errorf("load system: %w", err)
		}

		result := tx.Model(&DocumentRecord{}).
			Where("ai_system_id = ? AND status <> ?", systemID, string(DocumentationOutdated)).
			Update("status", string(DocumentationOutdated))
		if result.Error != nil {
			return fmt.Errorf("supersede documents: %w", result.Error)
		}
		superseded = int(result.RowsAffected)

		now := time.Now()
		record := DocumentRecord{
			ID:          uuid.NewString(),
			AISystemID:  systemID,
			Regulation:  system.Regulation,
			Status:      string(DocumentationCurrent),
			GeneratedAt: &now,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return superseded, nil
}

// MarkOutdated flags every current document for a system as outdated.
// Called by upstream flows after a material change; kept here because the
// table is engine-local.
func (s *DocumentStore) MarkOutdated(systemID string) error {
	err := s.db.Model(&DocumentRecord{}).
		Where("ai_system_id = ? AND status = ?", systemID, string(DocumentationCurrent)).
		Update("status", string(DocumentationOutdated)).Error
	if err != nil {
		return fmt.Errorf("mark documents outdated: %w", err)
	}
	return nil
}

package governance

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// HistoryStore provides append-only access to lifecycle history. Entries are
// written exactly once per successful transition, inside the same
// transaction as the stage update, and never mutated or deleted.
type HistoryStore struct {
	db *gorm.DB
}

// NewHistoryStore creates a new HistoryStore.
func NewHistoryStore(db *gorm.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Append creates a new history entry.
func (s *HistoryStore) Append(tx *gorm.DB, entry *LifecycleHistoryRecord) error {
	if tx == nil {
		tx = s.db
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("append lifecycle history: %w", err)
	}
	return nil
}

// ListBySystem returns paginated history for a system, newest first.
// pageToken is an RFC3339Nano timestamp; entries older than it are returned.
func (s *HistoryStore) ListBySystem(systemID string, pageSize int, pageToken string) ([]LifecycleHistoryRecord, string, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	query := s.db.Where("ai_system_id = ?", systemID).Order("changed_at DESC").Limit(pageSize + 1)
	if pageToken != "" {
		t, err := time.Parse(time.RFC3339Nano, pageToken)
		if err != nil {
			return nil, "", fmt.Errorf("invalid page token: %w", err)
		}
		query = query.Where("changed_at < ?", t)
	}

	var records []LifecycleHistoryRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, "", fmt.Errorf("list lifecycle history: %w", err)
	}

	var nextToken string
	if len(records) > pageSize {
		nextToken = records[pageSize-1].ChangedAt.Format(time.RFC3339Nano)
		records = records[:pageSize]
	}

	return records, nextToken, nil
}

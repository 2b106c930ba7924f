package governance

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskStore provides persistence for governance tasks. Tasks are owned
// exclusively by GovernanceTaskEngine: creation is a keyed upsert on
// (ai_system_id, regulation, title) so redundant reconciliation never
// duplicates rows, completion is a guarded update, and deletion does not
// exist.
type TaskStore struct {
	db *gorm.DB
}

// NewTaskStore creates a new TaskStore.
func NewTaskStore(db *gorm.DB) *TaskStore {
	return &TaskStore{db: db}
}

// ListBySystem returns every task for a system, oldest first.
func (s *TaskStore) ListBySystem(systemID string) ([]GovernanceTaskRecord, error) {
	var records []GovernanceTaskRecord
	if err := s.db.Where("ai_system_id = ?", systemID).Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list governance tasks: %w", err)
	}
	return records, nil
}

// ListBlocking returns the open blocking tasks for a system: blocking=true
// and status != Completed. This is the set lifecycle guards consult.
func (s *TaskStore) ListBlocking(systemID string) ([]GovernanceTaskRecord, error) {
	var records []GovernanceTaskRecord
	err := s.db.
		Where("ai_system_id = ? AND blocking = ? AND status <> ?", systemID, true, string(TaskCompleted)).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list blocking tasks: %w", err)
	}
	return records, nil
}

// CreateIfAbsent inserts the task unless a row with the same
// (ai_system_id, regulation, title) key already exists. Returns true when a
// row was actually written, so reconciliation can report zero writes on a
// redundant run.
func (s *TaskStore) CreateIfAbsent(tx *gorm.DB, record *GovernanceTaskRecord) (bool, error) {
	if tx == nil {
		tx = s.db
	}
	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ai_system_id"}, {Name: "regulation"}, {Name: "title"}},
		DoNothing: true,
	}).Create(record)
	if result.Error != nil {
		return false, fmt.Errorf("create governance task: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Complete marks a task completed with completedAt=now. The update is
// guarded on status so a task already completed by a concurrent
// reconciliation run is left untouched; returns true when this call did the
// completion.
func (s *TaskStore) Complete(tx *gorm.DB, systemID string, regulation RegulationFamily, title string, now time.Time) (bool, error) {
	if tx == nil {
		tx = s.db
	}
	result := tx.Model(&GovernanceTaskRecord{}).
		Where("ai_system_id = ? AND regulation = ? AND title = ? AND status <> ?",
			systemID, string(regulation), title, string(TaskCompleted)).
		Updates(map[string]any{
			"status":       string(TaskCompleted),
			"completed_at": now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("complete governance task: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// SetEvidenceLink updates evidence_link, the only field that stays mutable
// on a completed task.
func (s *TaskStore) SetEvidenceLink(systemID string, regulation RegulationFamily, title, link string) error {
	result := s.db.Model(&GovernanceTaskRecord{}).
		Where("ai_system_id = ? AND regulation = ? AND title = ?", systemID, string(regulation), title).
		Update("evidence_link", link)
	if result.Error != nil {
		return fmt.Errorf("set task evidence link: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("governance task not found for %s/%s/%q", systemID, regulation, title)
	}
	return nil
}

// Update applies a field mutation to an open task. Mutating a completed
// task is an integrity error: it means a caller bypassed the engine, so it
// is rejected unconditionally and logged as an anomaly.
func (s *TaskStore) Update(record *GovernanceTaskRecord, updates map[string]any) error {
	var current GovernanceTaskRecord
	if err := s.db.Where("id = ?", record.ID).First(&current).Error; err != nil {
		return fmt.Errorf("load governance task: %w", err)
	}
	if current.Status == string(TaskCompleted) {
		if _, ok := updates["evidence_link"]; ok && len(updates) == 1 {
			return s.SetEvidenceLink(current.AISystemID, RegulationFamily(current.Regulation), current.Title, updates["evidence_link"].(string))
		}
		glog.Warningf("rejected mutation of completed governance task %s (%s/%q)", current.ID, current.AISystemID, current.Title)
		return NewInvariantError(CodeTaskCompleted, "task %q is completed and immutable", current.Title)
	}
	if newStatus, ok := updates["status"]; ok {
		if st, _ := newStatus.(string); st != string(TaskPending) && st != string(TaskBlocked) && st != string(TaskCompleted) {
			return NewValidationError(CodeTaskCompleted, "invalid task status %q", st)
		}
	}
	if err := s.db.Model(&GovernanceTaskRecord{}).Where("id = ?", record.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("update governance task: %w", err)
	}
	return nil
}

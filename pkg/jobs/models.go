package jobs

import (
	"time"
)

// JobState represents the lifecycle state of a regeneration job.
type JobState string

const (
	JobStateQueued    JobState = "queued"
	JobStateRunning   JobState = "running"
	JobStateSucceeded JobState = "succeeded"
	JobStateFailed    JobState = "failed"
	JobStateCanceled  JobState = "canceled"
)

// RegenJob is the GORM model for a documentation regeneration job. Jobs are
// enqueued whenever a lifecycle transition or assessment decision invalidates
// a system's compliance documentation.
type RegenJob struct {
	ID             string     `gorm:"primaryKey;column:id;type:varchar(36)"`
	AISystemID     string     `gorm:"column:ai_system_id;index:idx_regen_system_state,priority:1;not null"`
	Regulation     string     `gorm:"column:regulation"`
	RequestedBy    string     `gorm:"column:requested_by;not null"`
	RequestedAt    time.Time  `gorm:"column:requested_at;not null"`
	State          JobState   `gorm:"column:state;index:idx_regen_system_state,priority:2;index:idx_regen_state;not null;default:queued"`
	Message        string     `gorm:"column:message"`
	StartedAt      *time.Time `gorm:"column:started_at"`
	FinishedAt     *time.Time `gorm:"column:finished_at"`
	AttemptCount   int        `gorm:"column:attempt_count;default:0"`
	LastError      string     `gorm:"column:last_error"`
	IdempotencyKey string     `gorm:"column:idempotency_key;uniqueIndex:idx_regen_idemp_key"`
	DocsSuperseded int        `gorm:"column:docs_superseded"`
	DurationMs     int64      `gorm:"column:duration_ms"`
}

// TableName returns the GORM table name.
func (RegenJob) TableName() string { return "doc_regen_jobs" }

// IsTerminal returns true if the job is in a terminal state.
func (j *RegenJob) IsTerminal() bool {
	switch j.State {
	case JobStateSucceeded, JobStateFailed, JobStateCanceled:
		return true
	}
	return false
}

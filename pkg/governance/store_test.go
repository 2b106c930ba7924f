package governance

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB creates a per-test SQLite DB with governance tables migrated.
// A temp file is used rather than ":memory:" because each pooled connection
// to ":memory:" is a separate empty database, and the engine reads from a
// second connection while a transaction is open.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "governance.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, NewSystemStore(db).AutoMigrate())
	return db
}

func TestSystemStore_CreateAndGet(t *testing.T) {
	store := NewSystemStore(newTestDB(t))

	record := &AISystemRecord{
		ID:                "sys-1",
		Name:              "credit-scoring",
		Regulation:        string(RegulationEU),
		LifecycleStage:    string(StageDraft),
		AccountablePerson: "jane.doe@example.com",
	}
	require.NoError(t, store.Create(record))

	got, err := store.Get("sys-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "credit-scoring", got.Name)
	assert.Equal(t, string(RegulationEU), got.Regulation)
	assert.Equal(t, string(StageDraft), got.LifecycleStage)
	assert.Equal(t, 0, got.Version)

	// Missing rows come back nil, nil.
	missing, err := store.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSystemStore_UpdateStageVersioned(t *testing.T) {
	store := NewSystemStore(newTestDB(t))
	require.NoError(t, store.Create(&AISystemRecord{
		ID:             "sys-1",
		Name:           "credit-scoring",
		Regulation:     string(RegulationEU),
		LifecycleStage: string(StageDraft),
	}))

	require.NoError(t, store.UpdateStage(nil, "sys-1", 0, StageDevelopment))

	got, err := store.Get("sys-1")
	require.NoError(t, err)
	assert.Equal(t, string(StageDevelopment), got.LifecycleStage)
	assert.Equal(t, 1, got.Version)

	// A write against a stale version must not land.
	err = store.UpdateStage(nil, "sys-1", 0, StageTesting)
	assert.ErrorIs(t, err, ErrVersionConflict)

	got, err = store.Get("sys-1")
	require.NoError(t, err)
	assert.Equal(t, string(StageDevelopment), got.LifecycleStage)
	assert.Equal(t, 1, got.Version)
}

func TestSystemStore_ListPagination(t *testing.T) {
	store := NewSystemStore(newTestDB(t))
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Create(&AISystemRecord{
			ID:         fmt.Sprintf("sys-%d", i),
			Name:       fmt.Sprintf("system %d", i),
			Regulation: string(RegulationEU),
		}))
	}
	require.NoError(t, store.Create(&AISystemRecord{
		ID:         "sys-uk",
		Name:       "uk system",
		Regulation: string(RegulationUK),
	}))

	page1, token, err := store.List(RegulationEU, 3, "")
	require.NoError(t, err)
	assert.Len(t, page1, 3)
	require.NotEmpty(t, token)

	page2, token2, err := store.List(RegulationEU, 3, token)
	require.NoError(t, err)
	assert.Len(t, page2, 2)
	assert.Empty(t, token2)

	all, _, err := store.List("", 20, "")
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestHistoryStore_AppendAndList(t *testing.T) {
	db := newTestDB(t)
	store := NewHistoryStore(db)

	for i, stage := range []LifecycleStage{StageDevelopment, StageTesting, StageDeployed} {
		require.NoError(t, store.Append(nil, &LifecycleHistoryRecord{
			ID:            fmt.Sprintf("h-%d", i),
			AISystemID:    "sys-1",
			PreviousStage: string(StageDraft),
			NewStage:      string(stage),
			ChangedBy:     "alice",
			ChangedAt:     time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	entries, token, err := store.ListBySystem("sys-1", 2, "")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	require.NotEmpty(t, token)
	// Newest first.
	assert.Equal(t, string(StageDeployed), entries[0].NewStage)

	rest, token2, err := store.ListBySystem("sys-1", 2, token)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
	assert.Empty(t, token2)
	assert.Equal(t, string(StageDevelopment), rest[0].NewStage)
}

func TestAuditStore_AppendListAndRetention(t *testing.T) {
	store := NewAuditStore(newTestDB(t))

	old := &AuditEventRecord{
		ID:         "ev-old",
		EventType:  "governance.lifecycle.changed",
		Actor:      "alice",
		AISystemID: "sys-1",
		Outcome:    "success",
		CreatedAt:  time.Now().AddDate(0, 0, -120),
	}
	recent := &AuditEventRecord{
		ID:         "ev-new",
		EventType:  "governance.lifecycle.denied",
		Actor:      "bob",
		AISystemID: "sys-1",
		Outcome:    "denied",
		Reason:     "an approved risk assessment is required for deployment",
		OldValue:   JSONAny{"lifecycleStage": "testing"},
		NewValue:   JSONAny{"lifecycleStage": "deployed"},
	}
	require.NoError(t, store.Append(old))
	require.NoError(t, store.Append(recent))

	events, _, total, err := store.ListBySystem("sys-1", 10, "")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, events, 2)
	assert.Equal(t, "ev-new", events[0].ID)
	assert.Equal(t, JSONAny{"lifecycleStage": "deployed"}, events[0].NewValue)

	deleted, err := store.DeleteOlderThan(time.Now().AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	events, _, total, err = store.ListBySystem("sys-1", 10, "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "ev-new", events[0].ID)
}

func TestDocumentStore_Status(t *testing.T) {
	db := newTestDB(t)
	store := NewDocumentStore(db)

	state, err := store.Status("sys-1", RegulationEU)
	require.NoError(t, err)
	assert.Equal(t, DocumentationNone, state)

	require.NoError(t, db.Create(&DocumentRecord{
		ID:         "doc-1",
		AISystemID: "sys-1",
		Regulation: string(RegulationEU),
		Status:     string(DocumentationCurrent),
	}).Error)

	state, err = store.Status("sys-1", RegulationEU)
	require.NoError(t, err)
	assert.Equal(t, DocumentationCurrent, state)

	require.NoError(t, store.MarkOutdated("sys-1"))
	state, err = store.Status("sys-1", RegulationEU)
	require.NoError(t, err)
	assert.Equal(t, DocumentationOutdated, state)
}

func TestShadowGate_IsBlocked(t *testing.T) {
	db := newTestDB(t)
	gate := NewShadowGate(NewShadowAssetStore(db))

	blocked, _, err := gate.IsBlocked("sys-1")
	require.NoError(t, err)
	assert.False(t, blocked)

	// Potential and resolved assets never gate.
	require.NoError(t, db.Create(&ShadowAssetRecord{
		ID: "sa-1", Name: "maybe-bot", LinkedSystemID: "sys-1", ShadowStatus: string(ShadowPotential),
	}).Error)
	require.NoError(t, db.Create(&ShadowAssetRecord{
		ID: "sa-2", Name: "old-bot", LinkedSystemID: "sys-1", ShadowStatus: string(ShadowResolved),
	}).Error)

	blocked, _, err = gate.IsBlocked("sys-1")
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, db.Create(&ShadowAssetRecord{
		ID: "sa-3", Name: "rogue-bot", LinkedSystemID: "sys-1", ShadowStatus: string(ShadowConfirmed),
	}).Error)

	blocked, reason, err := gate.IsBlocked("sys-1")
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Contains(t, reason, "rogue-bot")
	assert.Contains(t, reason, "1 confirmed shadow AI asset(s)")

	// Confirmed assets linked elsewhere do not block this system.
	require.NoError(t, db.Create(&ShadowAssetRecord{
		ID: "sa-4", Name: "other-bot", LinkedSystemID: "sys-2", ShadowStatus: string(ShadowConfirmed),
	}).Error)
	blocked, reason, err = gate.IsBlocked("sys-1")
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.NotContains(t, reason, "other-bot")
}

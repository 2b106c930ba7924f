package governance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	orch := NewOrchestrator(db, DefaultEngineConfig())
	orch.SetNotifier(NoopNotifier{})
	return orch, db
}

func seedEUSystem(t *testing.T, orch *Orchestrator, stage LifecycleStage, accountable string) {
	t.Helper()
	require.NoError(t, orch.Systems().Create(&AISystemRecord{
		ID:                "sys-1",
		Name:              "credit-scoring",
		Regulation:        string(RegulationEU),
		LifecycleStage:    string(stage),
		AccountablePerson: accountable,
	}))
}

func TestOrchestrator_TransitionSystemNotFound(t *testing.T) {
	orch, _ := newTestOrchestrator(t)

	entry, gerrs, err := orch.AttemptLifecycleTransition(context.Background(), "missing", StageDevelopment, "alice", "")
	require.NoError(t, err)
	assert.Nil(t, entry)
	require.True(t, gerrs.HasCode(CodeSystemNotFound))
}

// An EU system in testing with zero assessments fails deployment on both
// assessment conditions at once, and nothing is written except the denial
// audit event.
func TestOrchestrator_DeploymentDeniedReportsEveryFailure(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	seedEUSystem(t, orch, StageTesting, "")

	entry, gerrs, err := orch.AttemptLifecycleTransition(context.Background(), "sys-1", StageDeployed, "alice", "go live")
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.True(t, gerrs.HasCode(CodeInsufficientAssessment))
	assert.True(t, gerrs.HasCode(CodeApprovedAssessmentNeeded))
	assert.True(t, gerrs.HasCode(CodeAccountablePersonMissing))

	system, err := orch.Systems().Get("sys-1")
	require.NoError(t, err)
	assert.Equal(t, string(StageTesting), system.LifecycleStage)
	assert.Equal(t, 0, system.Version)

	history, _, err := orch.History().ListBySystem("sys-1", 10, "")
	require.NoError(t, err)
	assert.Empty(t, history)

	events, _, _, err := orch.Audit().ListBySystem("sys-1", 10, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "governance.lifecycle.denied", events[0].EventType)
	assert.Equal(t, "denied", events[0].Outcome)
}

// The full happy path: assessment approval auto-completes the open blocking
// tasks, and the subsequent transition writes exactly one history entry,
// bumps the version, and leaves the success audit trail.
func TestOrchestrator_FullDeploymentFlow(t *testing.T) {
	orch, db := newTestOrchestrator(t)
	ctx := context.Background()

	seedEUSystem(t, orch, StageTesting, "jane.doe@example.com")
	require.NoError(t, db.Model(&AISystemRecord{}).Where("id = ?", "sys-1").
		Update("eu_high_risk_all_fulfilled", true).Error)
	require.NoError(t, db.Create(&DocumentRecord{
		ID: "doc-1", AISystemID: "sys-1", Regulation: string(RegulationEU),
		Status: string(DocumentationCurrent),
	}).Error)

	// Reconciliation while unassessed opens blocking tasks.
	result, err := orch.TaskEngine().ReEvaluate("sys-1")
	require.NoError(t, err)
	assert.Contains(t, result.Created, TaskTitleApprovedAssessment)
	assert.Contains(t, result.Created, TaskTitleAssessmentTesting)

	blocked, gerrs, err := orch.AttemptLifecycleTransition(ctx, "sys-1", StageDeployed, "alice", "")
	require.NoError(t, err)
	assert.Nil(t, blocked)
	assert.True(t, gerrs.HasCode(CodeBlockingTasksOpen))

	// Create, submit, and approve a high-risk assessment.
	assessment := &RiskAssessmentRecord{
		ID: "ra-1", AISystemID: "sys-1", Category: "bias",
		RiskLevel: string(RiskHigh), Status: string(AssessmentDraft),
		AssessedBy:    "alice",
		EvidenceLinks: JSONStringSlice{"https://evidence.example.com/bias-report"},
	}
	require.NoError(t, orch.Assessments().Create(assessment))

	gerrs, err = orch.SubmitAssessment(ctx, "ra-1", "alice")
	require.NoError(t, err)
	require.Empty(t, gerrs)

	gerrs, err = orch.AttemptRiskAssessmentApproval(ctx, "ra-1", "bob", "evidence is thorough")
	require.NoError(t, err)
	require.Empty(t, gerrs)

	// Approval triggered re-evaluation: the blocking tasks auto-completed.
	open, err := orch.TaskEngine().GetBlockingTasks("sys-1")
	require.NoError(t, err)
	assert.Empty(t, open)

	entry, gerrs, err := orch.AttemptLifecycleTransition(ctx, "sys-1", StageDeployed, "alice", "go live")
	require.NoError(t, err)
	require.Empty(t, gerrs)
	require.NotNil(t, entry)
	assert.Equal(t, string(StageTesting), entry.PreviousStage)
	assert.Equal(t, string(StageDeployed), entry.NewStage)
	assert.Equal(t, "alice", entry.ChangedBy)

	system, err := orch.Systems().Get("sys-1")
	require.NoError(t, err)
	assert.Equal(t, string(StageDeployed), system.LifecycleStage)
	assert.Equal(t, 1, system.Version)

	// Exactly one history entry.
	history, _, err := orch.History().ListBySystem("sys-1", 10, "")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entry.ID, history[0].ID)

	risk, err := orch.OverallRisk("sys-1")
	require.NoError(t, err)
	assert.Equal(t, RiskHigh, risk)
}

func TestOrchestrator_ShadowAssetBlocksDeployment(t *testing.T) {
	orch, db := newTestOrchestrator(t)
	ctx := context.Background()

	seedEUSystem(t, orch, StageTesting, "jane.doe@example.com")
	require.NoError(t, orch.Assessments().Create(&RiskAssessmentRecord{
		ID: "ra-1", AISystemID: "sys-1", Category: "bias",
		RiskLevel: string(RiskLow), Status: string(AssessmentApproved), AssessedBy: "alice",
	}))
	require.NoError(t, db.Create(&ShadowAssetRecord{
		ID: "sa-1", Name: "rogue-bot", LinkedSystemID: "sys-1",
		ShadowStatus: string(ShadowConfirmed),
	}).Error)

	entry, gerrs, err := orch.AttemptLifecycleTransition(ctx, "sys-1", StageDeployed, "alice", "")
	require.NoError(t, err)
	assert.Nil(t, entry)
	require.True(t, gerrs.HasCode(CodeShadowAIBlocked))
	assert.Contains(t, gerrs.Error(), "rogue-bot")
}

func TestOrchestrator_ComplianceApprovalGatedByShadowAssets(t *testing.T) {
	orch, db := newTestOrchestrator(t)
	ctx := context.Background()

	seedEUSystem(t, orch, StageDeployed, "jane.doe@example.com")
	require.NoError(t, db.Create(&ShadowAssetRecord{
		ID: "sa-1", Name: "rogue-bot", LinkedSystemID: "sys-1",
		ShadowStatus: string(ShadowConfirmed),
	}).Error)

	approver := &fakeComplianceApprover{}
	orch.SetComplianceApprover(approver)

	gerrs, err := orch.AttemptComplianceApproval(ctx, "sys-1", "bob")
	require.NoError(t, err)
	require.True(t, gerrs.HasCode(CodeShadowAIBlocked))
	assert.Contains(t, gerrs.Error(), "rogue-bot")
	assert.False(t, approver.called)

	// Resolving the asset clears the gate.
	require.NoError(t, db.Model(&ShadowAssetRecord{}).Where("id = ?", "sa-1").
		Update("shadow_status", string(ShadowResolved)).Error)

	gerrs, err = orch.AttemptComplianceApproval(ctx, "sys-1", "bob")
	require.NoError(t, err)
	require.Empty(t, gerrs)
	assert.True(t, approver.called)
	assert.Equal(t, "bob", approver.approver)
}

type fakeComplianceApprover struct {
	called   bool
	approver string
}

func (f *fakeComplianceApprover) ApproveCompliance(_ context.Context, _ string, approver string) error {
	f.called = true
	f.approver = approver
	return nil
}

// Shadow assets gate deployment and compliance approval only; assessment
// review proceeds regardless.
func TestOrchestrator_ShadowAssetsDoNotBlockAssessmentApproval(t *testing.T) {
	orch, db := newTestOrchestrator(t)
	ctx := context.Background()

	seedEUSystem(t, orch, StageDraft, "")
	require.NoError(t, db.Create(&ShadowAssetRecord{
		ID: "sa-1", Name: "rogue-bot", LinkedSystemID: "sys-1",
		ShadowStatus: string(ShadowConfirmed),
	}).Error)
	require.NoError(t, orch.Assessments().Create(&RiskAssessmentRecord{
		ID: "ra-1", AISystemID: "sys-1", Category: "bias",
		RiskLevel: string(RiskLow), Status: string(AssessmentSubmitted), AssessedBy: "alice",
	}))

	gerrs, err := orch.AttemptRiskAssessmentApproval(ctx, "ra-1", "bob", "")
	require.NoError(t, err)
	assert.Empty(t, gerrs)

	got, err := orch.Assessments().Get("ra-1")
	require.NoError(t, err)
	assert.Equal(t, string(AssessmentApproved), got.Status)
}

func TestOrchestrator_RejectRequiresComment(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	ctx := context.Background()

	seedEUSystem(t, orch, StageDraft, "")
	require.NoError(t, orch.Assessments().Create(&RiskAssessmentRecord{
		ID: "ra-1", AISystemID: "sys-1", Category: "bias",
		RiskLevel: string(RiskLow), Status: string(AssessmentSubmitted), AssessedBy: "alice",
	}))

	gerrs, err := orch.RejectRiskAssessment(ctx, "ra-1", "bob", "")
	require.NoError(t, err)
	require.True(t, gerrs.HasCode(CodeCommentRequired))

	got, err := orch.Assessments().Get("ra-1")
	require.NoError(t, err)
	assert.Equal(t, string(AssessmentSubmitted), got.Status)

	gerrs, err = orch.RejectRiskAssessment(ctx, "ra-1", "bob", "evidence does not cover the bias category")
	require.NoError(t, err)
	assert.Empty(t, gerrs)

	got, err = orch.Assessments().Get("ra-1")
	require.NoError(t, err)
	assert.Equal(t, string(AssessmentRejected), got.Status)
}

func TestOrchestrator_SubmitOnlyByCreator(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	ctx := context.Background()

	seedEUSystem(t, orch, StageDraft, "")
	require.NoError(t, orch.Assessments().Create(&RiskAssessmentRecord{
		ID: "ra-1", AISystemID: "sys-1", Category: "bias",
		RiskLevel: string(RiskLow), Status: string(AssessmentDraft), AssessedBy: "alice",
	}))

	gerrs, err := orch.SubmitAssessment(ctx, "ra-1", "mallory")
	require.NoError(t, err)
	require.True(t, gerrs.HasCode(CodeNotCreator))
}

// UK and MAS systems are not gated, but their transitions still leave a
// history entry and an audit event.
func TestOrchestrator_NonEUTransitionStillAudited(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	ctx := context.Background()

	require.NoError(t, orch.Systems().Create(&AISystemRecord{
		ID: "sys-uk", Name: "triage-assistant",
		Regulation: string(RegulationUK), LifecycleStage: string(StageDraft),
	}))

	entry, gerrs, err := orch.AttemptLifecycleTransition(ctx, "sys-uk", StageDeployed, "alice", "pilot")
	require.NoError(t, err)
	require.Empty(t, gerrs)
	require.NotNil(t, entry)

	history, _, err := orch.History().ListBySystem("sys-uk", 10, "")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	events, _, _, err := orch.Audit().ListBySystem("sys-uk", 10, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "governance.lifecycle.changed", events[0].EventType)
}

func TestOrchestrator_AuthorizerDeniesAction(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	orch.SetAuthorizer(denyAll{})

	entry, gerrs, err := orch.AttemptLifecycleTransition(context.Background(), "sys-1", StageDevelopment, "mallory", "")
	require.NoError(t, err)
	assert.Nil(t, entry)
	require.True(t, gerrs.HasCode(CodeForbidden))
}

type denyAll struct{}

func (denyAll) Can(string, string) bool { return false }

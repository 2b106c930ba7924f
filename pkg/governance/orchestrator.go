package governance

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Authorizer decides whether an actor may perform a governance action.
// Role resolution is a collaborator concern; the engine only asks.
type Authorizer interface {
	Can(actor, action string) bool
}

// allowAll authorizes every actor; the default until a deployment injects
// a real policy.
type allowAll struct{}

func (allowAll) Can(string, string) bool { return true }

// ComplianceApprover performs the regulation-specific compliance approval
// action once the shadow gate clears. The action itself lives outside the
// engine.
type ComplianceApprover interface {
	ApproveCompliance(ctx context.Context, systemID, approver string) error
}

// Governance action names passed to the Authorizer.
const (
	ActionLifecycleTransition = "lifecycle.transition"
	ActionAssessmentSubmit    = "assessment.submit"
	ActionAssessmentReview    = "assessment.review"
	ActionComplianceApprove   = "compliance.approve"
)

// Orchestrator composes the lifecycle machine, task engine, risk workflow,
// and shadow gate into the operations callers invoke. Every operation reads
// a consistent snapshot before writing, commits atomically, and appends an
// audit event whether it succeeds or is denied.
type Orchestrator struct {
	db          *gorm.DB
	systems     *SystemStore
	assessments *AssessmentStore
	tasks       *TaskStore
	taskEngine  *TaskEngine
	machine     *LifecycleMachine
	workflow    *RiskWorkflow
	shadow      *ShadowGate
	history     *HistoryStore
	audit       *AuditStore
	docs        *DocumentStore
	notifier    DocumentationNotifier
	authorizer  Authorizer
	compliance  ComplianceApprover
	metrics     *Metrics
}

// NewOrchestrator wires the engine over one database handle.
func NewOrchestrator(db *gorm.DB, cfg *EngineConfig) *Orchestrator {
	if cfg == nil {
		cfg = DefaultEngineConfig()
	}
	systems := NewSystemStore(db)
	assessments := NewAssessmentStore(db)
	tasks := NewTaskStore(db)
	audit := NewAuditStore(db)
	docs := NewDocumentStore(db)
	taskEngine := NewTaskEngine(systems, assessments, tasks, docs, audit)
	taskEngine.SetPlaceholders(cfg.AccountablePlaceholders)

	return &Orchestrator{
		db:          db,
		systems:     systems,
		assessments: assessments,
		tasks:       tasks,
		taskEngine:  taskEngine,
		machine:     NewLifecycleMachine(cfg.AccountablePlaceholders),
		workflow:    NewRiskWorkflow(),
		shadow:      NewShadowGate(NewShadowAssetStore(db)),
		history:     NewHistoryStore(db),
		audit:       audit,
		docs:        docs,
		notifier:    LogNotifier{},
		authorizer:  allowAll{},
	}
}

// SetNotifier replaces the documentation-regeneration notifier.
func (o *Orchestrator) SetNotifier(n DocumentationNotifier) {
	if n != nil {
		o.notifier = n
	}
}

// SetAuthorizer replaces the authorization collaborator.
func (o *Orchestrator) SetAuthorizer(a Authorizer) {
	if a != nil {
		o.authorizer = a
	}
}

// SetComplianceApprover injects the compliance-approval action.
func (o *Orchestrator) SetComplianceApprover(c ComplianceApprover) {
	o.compliance = c
}

// SetMetrics attaches engine metrics. Nil metrics are safe everywhere.
func (o *Orchestrator) SetMetrics(m *Metrics) {
	o.metrics = m
}

// Systems exposes the system store for read paths (HTTP handlers).
func (o *Orchestrator) Systems() *SystemStore { return o.systems }

// Assessments exposes the assessment store for read paths.
func (o *Orchestrator) Assessments() *AssessmentStore { return o.assessments }

// Tasks exposes the task store for read paths.
func (o *Orchestrator) Tasks() *TaskStore { return o.tasks }

// History exposes the history store for read paths.
func (o *Orchestrator) History() *HistoryStore { return o.history }

// Audit exposes the audit store for read paths and retention.
func (o *Orchestrator) Audit() *AuditStore { return o.audit }

// Documents exposes the document store for regeneration workers.
func (o *Orchestrator) Documents() *DocumentStore { return o.docs }

// TaskEngine exposes the task engine for on-demand re-evaluation.
func (o *Orchestrator) TaskEngine() *TaskEngine { return o.taskEngine }

// AttemptLifecycleTransition evaluates every guard for moving the system to
// the target stage and, when all pass, atomically writes the new stage, the
// history entry, and the task reconciliation in one transaction. Guard
// failures come back as a list — every unmet condition at once — with
// nothing mutated. A concurrent stage write is retried exactly once with a
// fresh snapshot.
func (o *Orchestrator) AttemptLifecycleTransition(ctx context.Context, systemID string, target LifecycleStage, actor, reason string) (*LifecycleHistoryRecord, GovernanceErrors, error) {
	if !o.authorizer.Can(actor, ActionLifecycleTransition) {
		return nil, GovernanceErrors{NewGuardError(CodeForbidden, "actor %s may not perform lifecycle transitions", actor)}, nil
	}

	entry, errs, err := o.attemptTransitionOnce(ctx, systemID, target, actor, reason)
	if errors.Is(err, ErrVersionConflict) {
		entry, errs, err = o.attemptTransitionOnce(ctx, systemID, target, actor, reason)
		if errors.Is(err, ErrVersionConflict) {
			return nil, nil, fmt.Errorf("lifecycle transition for %s: %w", systemID, ErrVersionConflict)
		}
	}
	return entry, errs, err
}

func (o *Orchestrator) attemptTransitionOnce(ctx context.Context, systemID string, target LifecycleStage, actor, reason string) (*LifecycleHistoryRecord, GovernanceErrors, error) {
	// Consistent snapshot: system, assessments, blocking tasks, shadow gate,
	// documentation state — all read before any write.
	system, err := o.systems.Get(systemID)
	if err != nil {
		return nil, nil, err
	}
	if system == nil {
		return nil, GovernanceErrors{NewValidationError(CodeSystemNotFound, "ai system %s not found", systemID)}, nil
	}
	assessments, err := o.assessments.ListBySystem(systemID)
	if err != nil {
		return nil, nil, err
	}
	blocking, err := o.taskEngine.GetBlockingTasks(systemID)
	if err != nil {
		return nil, nil, err
	}
	shadowBlocked, shadowReason, err := o.shadow.IsBlocked(systemID)
	if err != nil {
		return nil, nil, err
	}
	docState := DocumentationNone
	if o.docs != nil {
		docState, err = o.docs.Status(systemID, RegulationFamily(system.Regulation))
		if err != nil {
			return nil, nil, err
		}
	}

	snap := TransitionSnapshot{
		System:        system,
		Assessments:   assessments,
		BlockingTasks: blocking,
		ShadowBlocked: shadowBlocked,
		ShadowReason:  shadowReason,
	}
	if guardErrs := o.machine.EvaluateTransition(snap, target); len(guardErrs) > 0 {
		o.metrics.RecordTransition(target, "denied")
		o.metrics.RecordGuardFailures(guardErrs)
		_ = o.audit.Append(&AuditEventRecord{
			ID:            uuid.New().String(),
			CorrelationID: uuid.New().String(),
			EventType:     "governance.lifecycle.denied",
			Actor:         actor,
			AISystemID:    systemID,
			Outcome:       "denied",
			Reason:        guardErrs.Error(),
			OldValue:      JSONAny{"lifecycleStage": system.LifecycleStage},
			NewValue:      JSONAny{"lifecycleStage": string(target)},
		})
		return nil, guardErrs, nil
	}

	previous := LifecycleStage(system.LifecycleStage)
	entry := &LifecycleHistoryRecord{
		ID:            uuid.New().String(),
		AISystemID:    systemID,
		PreviousStage: string(previous),
		NewStage:      string(target),
		ChangedBy:     actor,
		Reason:        reason,
	}

	// Single logical transaction: stage update, history insert, task
	// reconciliation. A stage update without its history entry would break
	// the audit invariant, so a partial failure rolls back everything.
	err = o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := o.systems.UpdateStage(tx, systemID, system.Version, target); err != nil {
			return err
		}
		if err := o.history.Append(tx, entry); err != nil {
			return err
		}

		// Re-derive tasks against the new stage. The deployed guard already
		// checked the accountable person, but the rules re-check it here so
		// a racing clear of the field still surfaces a task.
		updated := *system
		updated.LifecycleStage = string(target)
		existing, err := o.tasks.ListBySystem(systemID)
		if err != nil {
			return err
		}
		required := o.taskEngine.DeriveRequiredTasks(&updated, assessments, docState)
		result, err := o.taskEngine.Reconcile(tx, &updated, required, existing)
		if err != nil {
			return err
		}
		o.metrics.RecordReconcile(result)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return nil, nil, ErrVersionConflict
		}
		return nil, nil, err
	}

	o.metrics.RecordTransition(target, "success")
	_ = o.audit.Append(&AuditEventRecord{
		ID:            uuid.New().String(),
		CorrelationID: entry.ID,
		EventType:     "governance.lifecycle.changed",
		Actor:         actor,
		AISystemID:    systemID,
		Outcome:       "success",
		Reason:        reason,
		OldValue:      JSONAny{"lifecycleStage": string(previous)},
		NewValue:      JSONAny{"lifecycleStage": string(target)},
	})

	// Fire-and-forget; a lost signal never rolls back the transition.
	o.notifier.NotifyDocumentationRegenerate(systemID)

	return entry, nil, nil
}

// SubmitAssessment moves a draft assessment to submitted on behalf of its
// creator.
func (o *Orchestrator) SubmitAssessment(ctx context.Context, assessmentID, actor string) (GovernanceErrors, error) {
	if !o.authorizer.Can(actor, ActionAssessmentSubmit) {
		return GovernanceErrors{NewGuardError(CodeForbidden, "actor %s may not submit assessments", actor)}, nil
	}
	assessment, err := o.assessments.Get(assessmentID)
	if err != nil {
		return nil, err
	}
	if assessment == nil {
		return GovernanceErrors{NewValidationError(CodeAssessmentNotFound, "risk assessment %s not found", assessmentID)}, nil
	}

	if gerr := o.workflow.Submit(assessment, actor); gerr != nil {
		return GovernanceErrors{gerr}, nil
	}
	if err := o.assessments.Save(o.db.WithContext(ctx), assessment); err != nil {
		return nil, err
	}

	_ = o.audit.Append(&AuditEventRecord{
		ID:         uuid.New().String(),
		EventType:  "governance.assessment.submitted",
		Actor:      actor,
		AISystemID: assessment.AISystemID,
		EntityID:   assessment.ID,
		Outcome:    "success",
		NewValue:   JSONAny{"status": assessment.Status},
	})
	return nil, nil
}

// AttemptRiskAssessmentApproval approves a submitted assessment, then
// re-evaluates governance tasks (an open "obtain an approved risk
// assessment" task may now auto-complete) and signals documentation
// regeneration. The shadow gate is deliberately not consulted here; it
// gates deployment and compliance approval only.
func (o *Orchestrator) AttemptRiskAssessmentApproval(ctx context.Context, assessmentID, reviewer, comment string) (GovernanceErrors, error) {
	return o.reviewAssessment(ctx, assessmentID, reviewer, comment, true)
}

// RejectRiskAssessment rejects a submitted assessment with a mandatory
// comment.
func (o *Orchestrator) RejectRiskAssessment(ctx context.Context, assessmentID, reviewer, comment string) (GovernanceErrors, error) {
	return o.reviewAssessment(ctx, assessmentID, reviewer, comment, false)
}

func (o *Orchestrator) reviewAssessment(ctx context.Context, assessmentID, reviewer, comment string, approve bool) (GovernanceErrors, error) {
	if !o.authorizer.Can(reviewer, ActionAssessmentReview) {
		return GovernanceErrors{NewGuardError(CodeForbidden, "actor %s may not review assessments", reviewer)}, nil
	}
	assessment, err := o.assessments.Get(assessmentID)
	if err != nil {
		return nil, err
	}
	if assessment == nil {
		return GovernanceErrors{NewValidationError(CodeAssessmentNotFound, "risk assessment %s not found", assessmentID)}, nil
	}

	var gerr *GovernanceError
	outcome := "approved"
	if approve {
		gerr = o.workflow.Approve(assessment, reviewer, comment)
	} else {
		gerr = o.workflow.Reject(assessment, reviewer, comment)
		outcome = "rejected"
	}
	if gerr != nil {
		o.metrics.RecordReview("denied")
		return GovernanceErrors{gerr}, nil
	}

	if err := o.assessments.Save(o.db.WithContext(ctx), assessment); err != nil {
		return nil, err
	}
	o.metrics.RecordReview(outcome)

	_ = o.audit.Append(&AuditEventRecord{
		ID:         uuid.New().String(),
		EventType:  "governance.assessment." + outcome,
		Actor:      reviewer,
		AISystemID: assessment.AISystemID,
		EntityID:   assessment.ID,
		Outcome:    "success",
		Reason:     comment,
		NewValue:   JSONAny{"status": assessment.Status},
	})

	if approve {
		// Reconciliation is idempotent, so running it after the commit is
		// safe even if a concurrent trigger already ran it.
		result, err := o.taskEngine.ReEvaluate(assessment.AISystemID)
		if err != nil {
			glog.Warningf("task re-evaluation after approval of %s failed: %v", assessmentID, err)
		} else {
			o.metrics.RecordReconcile(result)
		}
		o.notifier.NotifyDocumentationRegenerate(assessment.AISystemID)
	}
	return nil, nil
}

// UpdateAssessmentDraft applies a content edit to a draft assessment.
// Locked assessments reject every content edit.
func (o *Orchestrator) UpdateAssessmentDraft(ctx context.Context, assessmentID string, update AssessmentUpdate) (GovernanceErrors, error) {
	assessment, err := o.assessments.Get(assessmentID)
	if err != nil {
		return nil, err
	}
	if assessment == nil {
		return GovernanceErrors{NewValidationError(CodeAssessmentNotFound, "risk assessment %s not found", assessmentID)}, nil
	}
	if gerr := o.workflow.ApplyUpdate(assessment, update); gerr != nil {
		return GovernanceErrors{gerr}, nil
	}
	if err := o.assessments.Save(o.db.WithContext(ctx), assessment); err != nil {
		return nil, err
	}
	return nil, nil
}

// UpdateMitigationStatus updates the remediation-progress carve-out field,
// legal while the assessment is draft, submitted, or approved.
func (o *Orchestrator) UpdateMitigationStatus(ctx context.Context, assessmentID string, status MitigationStatus) (GovernanceErrors, error) {
	assessment, err := o.assessments.Get(assessmentID)
	if err != nil {
		return nil, err
	}
	if assessment == nil {
		return GovernanceErrors{NewValidationError(CodeAssessmentNotFound, "risk assessment %s not found", assessmentID)}, nil
	}
	if gerr := o.workflow.CanUpdateMitigation(assessment); gerr != nil {
		return GovernanceErrors{gerr}, nil
	}
	if err := o.assessments.UpdateMitigationStatus(assessmentID, status); err != nil {
		return nil, err
	}
	return nil, nil
}

// AttemptComplianceApproval runs the shadow gate and, when clear, delegates
// to the injected compliance-approval action and re-evaluates tasks. When
// blocked it returns an error enumerating every confirmed shadow asset.
func (o *Orchestrator) AttemptComplianceApproval(ctx context.Context, systemID, approver string) (GovernanceErrors, error) {
	if !o.authorizer.Can(approver, ActionComplianceApprove) {
		return GovernanceErrors{NewGuardError(CodeForbidden, "actor %s may not approve compliance", approver)}, nil
	}
	system, err := o.systems.Get(systemID)
	if err != nil {
		return nil, err
	}
	if system == nil {
		return GovernanceErrors{NewValidationError(CodeSystemNotFound, "ai system %s not found", systemID)}, nil
	}

	blocked, reason, err := o.shadow.IsBlocked(systemID)
	if err != nil {
		return nil, err
	}
	if blocked {
		guardErrs := GovernanceErrors{NewGuardError(CodeShadowAIBlocked, "%s", reason)}
		o.metrics.RecordGuardFailures(guardErrs)
		_ = o.audit.Append(&AuditEventRecord{
			ID:         uuid.New().String(),
			EventType:  "governance.compliance.denied",
			Actor:      approver,
			AISystemID: systemID,
			Outcome:    "denied",
			Reason:     reason,
		})
		return guardErrs, nil
	}

	if o.compliance != nil {
		if err := o.compliance.ApproveCompliance(ctx, systemID, approver); err != nil {
			return nil, fmt.Errorf("compliance approval action: %w", err)
		}
	}

	_ = o.audit.Append(&AuditEventRecord{
		ID:         uuid.New().String(),
		EventType:  "governance.compliance.approved",
		Actor:      approver,
		AISystemID: systemID,
		Outcome:    "success",
	})

	result, err := o.taskEngine.ReEvaluate(systemID)
	if err != nil {
		glog.Warningf("task re-evaluation after compliance approval of %s failed: %v", systemID, err)
	} else {
		o.metrics.RecordReconcile(result)
	}
	return nil, nil
}

// OverallRisk returns the composite risk level for a system: the maximum
// over approved assessments only.
func (o *Orchestrator) OverallRisk(systemID string) (RiskLevel, error) {
	assessments, err := o.assessments.ListBySystem(systemID)
	if err != nil {
		return "", err
	}
	return OverallRiskLevel(assessments), nil
}

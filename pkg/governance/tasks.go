package governance

import (
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Titles of engine-derived governance tasks. Together with the system ID and
// regulation they form the task uniqueness key, so they are stable constants.
const (
	TaskTitleApprovedAssessment  = "Obtain an approved risk assessment"
	TaskTitleGenerateDocs        = "Generate compliance documentation"
	TaskTitleAssessmentTesting   = "Provide a completed assessment for Testing"
	TaskTitleAssessmentDeployed  = "Approved assessment required for Deployed/Monitoring"
	TaskTitleAccountablePerson   = "Assign accountable person"
	TaskTitleUKChecklist         = "Complete UK compliance checklist"
	TaskTitleMASChecklist        = "Complete MAS compliance checklist"
	TaskTitleProhibitedPractices = "Remediate prohibited practice findings"
	TaskTitleHighRiskObligations = "Fulfil high-risk obligations"
)

// ReconcileResult reports what one reconciliation pass actually wrote.
// A redundant pass reports zero writes on both counters.
type ReconcileResult struct {
	Created   []string `json:"created,omitempty"`
	Completed []string `json:"completed,omitempty"`
}

// Writes returns the total number of rows written.
func (r ReconcileResult) Writes() int {
	return len(r.Created) + len(r.Completed)
}

// TaskEngine derives the set of governance tasks that should exist from live
// system state and reconciles it against the tasks that do exist: creating,
// completing, or leaving rows untouched. Tasks are never deleted.
type TaskEngine struct {
	systems      *SystemStore
	assessments  *AssessmentStore
	tasks        *TaskStore
	docs         DocumentationChecker
	audit        *AuditStore
	placeholders []string
}

// NewTaskEngine creates a task engine. audit may be nil; auto-completion
// events are then skipped.
func NewTaskEngine(systems *SystemStore, assessments *AssessmentStore, tasks *TaskStore, docs DocumentationChecker, audit *AuditStore) *TaskEngine {
	return &TaskEngine{
		systems:      systems,
		assessments:  assessments,
		tasks:        tasks,
		docs:         docs,
		audit:        audit,
		placeholders: defaultPlaceholders,
	}
}

// SetPlaceholders overrides the accountable-person placeholder values.
func (e *TaskEngine) SetPlaceholders(placeholders []string) {
	if placeholders != nil {
		e.placeholders = placeholders
	}
}

// DeriveRequiredTasks computes the tasks that should exist for the system.
// Rules are evaluated independently; several can apply at once. Pure: no
// store access, no writes.
func (e *TaskEngine) DeriveRequiredTasks(system *AISystemRecord, assessments []RiskAssessmentRecord, docState DocumentationState) []TaskSpec {
	var required []TaskSpec
	regulation := RegulationFamily(system.Regulation)
	stage := LifecycleStage(system.LifecycleStage)
	deployedOrMonitoring := stage == StageDeployed || stage == StageMonitoring

	if !hasAssessmentWithStatus(assessments, AssessmentApproved) {
		required = append(required, TaskSpec{
			Title:             TaskTitleApprovedAssessment,
			Description:       "No approved risk assessment exists for this system.",
			Blocking:          regulation == RegulationEU,
			RelatedEntityType: RelatedRiskAssessment,
		})
	}

	if docState != DocumentationCurrent {
		required = append(required, TaskSpec{
			Title:             TaskTitleGenerateDocs,
			Description:       "Compliance documentation is missing or outdated.",
			Blocking:          false,
			RelatedEntityType: RelatedDocumentation,
		})
	}

	if regulation == RegulationEU {
		if stage == StageTesting && !hasAssessmentWithStatus(assessments, AssessmentSubmitted, AssessmentApproved) {
			required = append(required, TaskSpec{
				Title:             TaskTitleAssessmentTesting,
				Description:       "Testing-stage systems need at least one submitted assessment.",
				Blocking:          true,
				RelatedEntityType: RelatedRiskAssessment,
			})
		}
		if deployedOrMonitoring && !hasAssessmentWithStatus(assessments, AssessmentApproved) {
			required = append(required, TaskSpec{
				Title:             TaskTitleAssessmentDeployed,
				Description:       "Deployed and monitored systems need an approved assessment.",
				Blocking:          true,
				RelatedEntityType: RelatedRiskAssessment,
			})
		}
		if deployedOrMonitoring && !accountablePersonSet(system.AccountablePerson, e.placeholders) {
			required = append(required, TaskSpec{
				Title:       TaskTitleAccountablePerson,
				Description: "Deployed and monitored systems need a named accountable person.",
				Blocking:    true,
			})
		}
		if system.EUProhibitedPractices {
			required = append(required, TaskSpec{
				Title:       TaskTitleProhibitedPractices,
				Description: "Prohibited AI practices were detected and must be remediated.",
				Blocking:    true,
			})
		}
		if OverallRiskLevel(assessments) == RiskHigh && !system.EUHighRiskAllFulfilled {
			required = append(required, TaskSpec{
				Title:       TaskTitleHighRiskObligations,
				Description: "High-risk obligations are not fully fulfilled.",
				Blocking:    true,
			})
		}
	}

	if regulation == RegulationUK && system.UKPrinciples().HasGap() {
		required = append(required, TaskSpec{
			Title:       TaskTitleUKChecklist,
			Description: "One or more UK principles are unresolved.",
			Blocking:    false,
		})
	}

	if regulation == RegulationMAS && system.MASPillars().HasGap() {
		required = append(required, TaskSpec{
			Title:       TaskTitleMASChecklist,
			Description: "One or more MAS pillars are non-compliant.",
			Blocking:    false,
		})
	}

	return required
}

// Reconcile applies the required set against the existing rows, keyed by
// (systemId, regulation, title):
//
//   - required but absent        -> create as Pending (keyed upsert, no
//     duplicate under concurrent runs)
//   - required and still open    -> untouched
//   - open but no longer required -> complete with completedAt=now
//   - already Completed          -> never revisited
//
// Safe to invoke redundantly and concurrently for the same system.
func (e *TaskEngine) Reconcile(tx *gorm.DB, system *AISystemRecord, required []TaskSpec, existing []GovernanceTaskRecord) (ReconcileResult, error) {
	var result ReconcileResult
	regulation := RegulationFamily(system.Regulation)

	requiredKeys := mapset.NewSet[TaskKey]()
	specByKey := make(map[TaskKey]TaskSpec, len(required))
	for _, spec := range required {
		key := TaskKey{SystemID: system.ID, Regulation: regulation, Title: spec.Title}
		requiredKeys.Add(key)
		specByKey[key] = spec
	}

	openKeys := mapset.NewSet[TaskKey]()
	completedKeys := mapset.NewSet[TaskKey]()
	openByKey := make(map[TaskKey]GovernanceTaskRecord, len(existing))
	for _, task := range existing {
		key := task.Key()
		if TaskStatus(task.Status) == TaskCompleted {
			completedKeys.Add(key)
			continue
		}
		openKeys.Add(key)
		openByKey[key] = task
	}

	// Required tasks with no row at all. A completed row under the same key
	// satisfies nothing, but derivation never revisits it either: the rule
	// will keep requiring it only while the key is absent, so a completed
	// task is simply skipped.
	for key := range requiredKeys.Difference(openKeys).Difference(completedKeys).Iter() {
		spec := specByKey[key]
		created, err := e.tasks.CreateIfAbsent(tx, &GovernanceTaskRecord{
			ID:                uuid.New().String(),
			AISystemID:        system.ID,
			Regulation:        string(regulation),
			Title:             spec.Title,
			Description:       spec.Description,
			Status:            string(TaskPending),
			Blocking:          spec.Blocking,
			RelatedEntityID:   spec.RelatedEntityID,
			RelatedEntityType: string(spec.RelatedEntityType),
		})
		if err != nil {
			return result, err
		}
		if created {
			result.Created = append(result.Created, spec.Title)
		}
	}

	// Open tasks whose rule condition no longer holds.
	now := time.Now()
	for key := range openKeys.Difference(requiredKeys).Iter() {
		task := openByKey[key]
		completed, err := e.tasks.Complete(tx, key.SystemID, key.Regulation, key.Title, now)
		if err != nil {
			return result, err
		}
		if !completed {
			continue
		}
		result.Completed = append(result.Completed, key.Title)
		if e.audit != nil {
			newValue := JSONAny{"title": key.Title, "status": string(TaskCompleted)}
			if task.RelatedEntityID != "" {
				newValue["relatedEntityId"] = task.RelatedEntityID
				newValue["relatedEntityType"] = task.RelatedEntityType
			}
			_ = e.audit.Append(&AuditEventRecord{
				ID:         uuid.New().String(),
				EventType:  "governance.task.completed",
				Actor:      "task-engine",
				AISystemID: system.ID,
				EntityID:   task.ID,
				Outcome:    "success",
				Reason:     "rule condition no longer holds",
				NewValue:   newValue,
			})
		}
	}

	return result, nil
}

// ReEvaluate loads the system's current state, derives the required set, and
// reconciles it. Triggered after assessment approvals, documentation
// changes, lifecycle transitions, or on demand.
func (e *TaskEngine) ReEvaluate(systemID string) (ReconcileResult, error) {
	system, err := e.systems.Get(systemID)
	if err != nil {
		return ReconcileResult{}, err
	}
	if system == nil {
		return ReconcileResult{}, fmt.Errorf("ai system %s not found", systemID)
	}

	assessments, err := e.assessments.ListBySystem(systemID)
	if err != nil {
		return ReconcileResult{}, err
	}
	existing, err := e.tasks.ListBySystem(systemID)
	if err != nil {
		return ReconcileResult{}, err
	}
	docState := DocumentationNone
	if e.docs != nil {
		docState, err = e.docs.Status(systemID, RegulationFamily(system.Regulation))
		if err != nil {
			return ReconcileResult{}, err
		}
	}

	required := e.DeriveRequiredTasks(system, assessments, docState)
	return e.Reconcile(nil, system, required, existing)
}

// GetBlockingTasks returns the open blocking tasks for a system.
func (e *TaskEngine) GetBlockingTasks(systemID string) ([]GovernanceTaskRecord, error) {
	return e.tasks.ListBlocking(systemID)
}

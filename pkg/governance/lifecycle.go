package governance

import (
	"strings"
)

// guardLevel names the precondition set a transition must satisfy.
type guardLevel int

const (
	guardNone guardLevel = iota
	// guardTesting requires at least one submitted or approved assessment.
	guardTesting
	// guardDeployed requires everything guardTesting does, plus an approved
	// assessment, an accountable person, no open blocking tasks, and a clear
	// shadow-AI gate.
	guardDeployed
)

// transitionGuards is the EU transition table: which (from, to) pairs are
// legal and which guard applies. Monitoring is reachable from testing only
// because the full deployed guard is evaluated independently; the
// monitoring->monitoring self-transition deliberately re-evaluates the same
// guard rather than assuming it still holds.
var transitionGuards = map[LifecycleStage]map[LifecycleStage]guardLevel{
	StageDraft: {
		StageDevelopment: guardNone,
		StageTesting:     guardTesting,
	},
	StageDevelopment: {
		StageDraft:   guardNone,
		StageTesting: guardTesting,
	},
	StageTesting: {
		StageDeployed:   guardDeployed,
		StageMonitoring: guardDeployed,
	},
	StageDeployed: {
		StageMonitoring: guardDeployed,
	},
	StageMonitoring: {
		StageMonitoring: guardDeployed,
		StageRetired:    guardNone,
	},
}

// defaultPlaceholders are accountable-person values treated as unset.
var defaultPlaceholders = []string{"", "tbd", "n/a", "none", "unassigned", "pending"}

// TransitionSnapshot is the consistent read the orchestrator hands to guard
// evaluation: system, assessments, open blocking tasks, and the shadow-AI
// gate result, all fetched together before any write.
type TransitionSnapshot struct {
	System        *AISystemRecord
	Assessments   []RiskAssessmentRecord
	BlockingTasks []GovernanceTaskRecord
	ShadowBlocked bool
	ShadowReason  string
}

// LifecycleMachine validates AI system lifecycle transitions. Full gating
// applies only to EU systems; UK and MAS systems store the stage but every
// transition is allowed (and still audited).
type LifecycleMachine struct {
	placeholders []string
}

// NewLifecycleMachine creates a machine with the given accountable-person
// placeholder values, or the defaults when nil.
func NewLifecycleMachine(placeholders []string) *LifecycleMachine {
	if placeholders == nil {
		placeholders = defaultPlaceholders
	}
	return &LifecycleMachine{placeholders: placeholders}
}

// EvaluateTransition checks whether the system may move to the target stage.
// It returns nil when allowed, or every unmet condition at once — guard
// failures are collected, never short-circuited.
func (m *LifecycleMachine) EvaluateTransition(snap TransitionSnapshot, to LifecycleStage) GovernanceErrors {
	system := snap.System
	from := LifecycleStage(system.LifecycleStage)

	if RegulationFamily(system.Regulation) != RegulationEU {
		// UK and MAS stages are informational; nothing gates them.
		return nil
	}

	guard, ok := transitionGuards[from][to]
	if !ok {
		return GovernanceErrors{NewInvariantError(CodeTerminalOrIrreversible,
			"transition from %s to %s is not allowed", from, to)}
	}

	var errs GovernanceErrors
	switch guard {
	case guardTesting:
		errs = append(errs, m.testingGuard(snap)...)
	case guardDeployed:
		errs = append(errs, m.testingGuard(snap)...)
		errs = append(errs, m.deployedGuard(snap)...)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// testingGuard requires at least one assessment that has at least been
// submitted.
func (m *LifecycleMachine) testingGuard(snap TransitionSnapshot) GovernanceErrors {
	if hasAssessmentWithStatus(snap.Assessments, AssessmentSubmitted, AssessmentApproved) {
		return nil
	}
	return GovernanceErrors{NewGuardError(CodeInsufficientAssessment,
		"at least one submitted or approved risk assessment is required")}
}

// deployedGuard holds the extra preconditions for entering Deployed or
// Monitoring, on top of testingGuard.
func (m *LifecycleMachine) deployedGuard(snap TransitionSnapshot) GovernanceErrors {
	var errs GovernanceErrors

	if !hasAssessmentWithStatus(snap.Assessments, AssessmentApproved) {
		errs = append(errs, NewGuardError(CodeApprovedAssessmentNeeded,
			"an approved risk assessment is required for deployment"))
	}
	if !accountablePersonSet(snap.System.AccountablePerson, m.placeholders) {
		errs = append(errs, NewGuardError(CodeAccountablePersonMissing,
			"an accountable person must be assigned before deployment"))
	}
	if len(snap.BlockingTasks) > 0 {
		titles := make([]string, len(snap.BlockingTasks))
		for i, t := range snap.BlockingTasks {
			titles[i] = t.Title
		}
		errs = append(errs, NewGuardError(CodeBlockingTasksOpen,
			"%d blocking governance task(s) open: %s", len(titles), strings.Join(titles, ", ")))
	}
	if snap.ShadowBlocked {
		errs = append(errs, NewGuardError(CodeShadowAIBlocked, "%s", snap.ShadowReason))
	}
	return errs
}

// accountablePersonSet reports whether the value is a real name rather than
// empty or a placeholder.
func accountablePersonSet(value string, placeholders []string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, p := range placeholders {
		if v == p {
			return false
		}
	}
	return true
}

// hasAssessmentWithStatus reports whether any assessment carries one of the
// given statuses.
func hasAssessmentWithStatus(assessments []RiskAssessmentRecord, statuses ...AssessmentStatus) bool {
	for _, a := range assessments {
		for _, st := range statuses {
			if AssessmentStatus(a.Status) == st {
				return true
			}
		}
	}
	return false
}

package governance

import (
	"fmt"
	"strings"
)

// ErrorKind buckets governance errors by how callers should react.
type ErrorKind string

const (
	// KindValidation marks malformed or incomplete input; the caller fixes
	// the input and retries.
	KindValidation ErrorKind = "validation"
	// KindGuard marks an unmet business precondition; returned in bulk so
	// the caller sees every unmet condition at once.
	KindGuard ErrorKind = "guard"
	// KindInvariant marks an attempt to mutate an immutable record or take
	// an impossible transition; always rejected and logged as an anomaly.
	KindInvariant ErrorKind = "invariant"
	// KindInfra marks store or transaction faults; surfaced after the
	// single optimistic-concurrency retry is exhausted.
	KindInfra ErrorKind = "infrastructure"
)

// Machine-readable governance error codes.
const (
	CodeInsufficientAssessment   = "INSUFFICIENT_ASSESSMENT"
	CodeApprovedAssessmentNeeded = "APPROVED_ASSESSMENT_REQUIRED"
	CodeAccountablePersonMissing = "ACCOUNTABLE_PERSON_MISSING"
	CodeBlockingTasksOpen        = "BLOCKING_TASKS_OPEN"
	CodeShadowAIBlocked          = "SHADOW_AI_BLOCKED"
	CodeTerminalOrIrreversible   = "TERMINAL_OR_IRREVERSIBLE"
	CodeNotCreator               = "NOT_CREATOR"
	CodeHighRiskNeedsEvidence    = "HIGH_RISK_NEEDS_EVIDENCE"
	CodeAssessmentLocked         = "ASSESSMENT_LOCKED"
	CodeCommentRequired          = "COMMENT_REQUIRED"
	CodeNotSubmitted             = "NOT_SUBMITTED"
	CodeTaskCompleted            = "TASK_COMPLETED_IMMUTABLE"
	CodeSystemNotFound           = "SYSTEM_NOT_FOUND"
	CodeAssessmentNotFound       = "ASSESSMENT_NOT_FOUND"
	CodeConcurrentModification   = "CONCURRENT_MODIFICATION"
	CodeForbidden                = "FORBIDDEN"
)

// GovernanceError is a structured business-rule error with a
// machine-readable code. Expected rule failures are returned as values,
// never panics; only store faults travel as plain wrapped errors.
type GovernanceError struct {
	Code    string    `json:"code"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *GovernanceError) Error() string {
	return e.Message
}

// NewValidationError builds a validation-kind error.
func NewValidationError(code, format string, args ...any) *GovernanceError {
	return &GovernanceError{Code: code, Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewGuardError builds a guard-kind error.
func NewGuardError(code, format string, args ...any) *GovernanceError {
	return &GovernanceError{Code: code, Kind: KindGuard, Message: fmt.Sprintf(format, args...)}
}

// NewInvariantError builds an invariant-kind error.
func NewInvariantError(code, format string, args ...any) *GovernanceError {
	return &GovernanceError{Code: code, Kind: KindInvariant, Message: fmt.Sprintf(format, args...)}
}

// NewInfraError builds an infrastructure-kind error.
func NewInfraError(code, format string, args ...any) *GovernanceError {
	return &GovernanceError{Code: code, Kind: KindInfra, Message: fmt.Sprintf(format, args...)}
}

// GovernanceErrors aggregates every unmet condition of one operation so the
// caller can render them as a single checklist.
type GovernanceErrors []*GovernanceError

func (es GovernanceErrors) Error() string {
	if len(es) == 0 {
		return ""
	}
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// HasCode reports whether any error in the list carries the given code.
func (es GovernanceErrors) HasCode(code string) bool {
	for _, e := range es {
		if e.Code == code {
			return true
		}
	}
	return false
}

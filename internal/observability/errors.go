package observability

import (
	"github.com/fulmenhq/gofulmen/errors"
)

// Error envelope codes for the three payload-index operations that can fail
// (spec.md §7): Open, SetIndexed, DropIndex.
const (
	CodePersistenceError = "PAYLOAD_PERSISTENCE_ERROR"
	CodeCorruptIndex      = "PAYLOAD_CORRUPT_INDEX"
	CodePlanningViolation = "PAYLOAD_PLANNING_INVARIANT_VIOLATION"
)

// PersistenceError wraps a persistence-layer failure (directory creation,
// read/write, decode) as a typed envelope for the caller of Open,
// SetIndexed, or DropIndex.
func PersistenceError(msg string, cause error) *errors.ErrorEnvelope {
	env := errors.NewErrorEnvelope(CodePersistenceError, msg)
	if cause != nil {
		env, _ = env.WithContext(map[string]interface{}{"cause": cause.Error()})
	}
	return env
}

// PlanningInvariantViolation is the typed value panicked with when a caller
// violates the planner's invariants (e.g. a Filter node reaching the leaf
// estimator) — spec.md §7 calls this fatal, not recoverable.
type PlanningInvariantViolation struct {
	Envelope *errors.ErrorEnvelope
	Message  string
}

func (p PlanningInvariantViolation) Error() string {
	return p.Message
}

// NewPlanningInvariantViolation builds the panic value for a planning
// invariant violation.
func NewPlanningInvariantViolation(msg string) PlanningInvariantViolation {
	return PlanningInvariantViolation{
		Envelope: errors.NewErrorEnvelope(CodePlanningViolation, msg),
		Message:  msg,
	}
}

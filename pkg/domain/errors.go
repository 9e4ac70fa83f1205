package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownNode is returned when a directive names a node the graph does not know
// or cannot reach from the current node.
var ErrUnknownNode = errors.New("unknown node")

// ErrStepBudgetExceeded is returned when a run exhausts its step budget before reaching End.
var ErrStepBudgetExceeded = errors.New("step budget exceeded")

// ErrInvalidBudget is returned when a run is started with a non-positive step budget.
var ErrInvalidBudget = errors.New("step budget must be positive")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// UnknownNodeError is the routing fault raised by the engine.
type UnknownNodeError struct {
	NodeID string
	// From is the node whose directive named NodeID. Empty for the start node.
	From string
}

func (e *UnknownNodeError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("unknown node '%s'", e.NodeID)
	}
	return fmt.Sprintf("node '%s' routed to unknown or unreachable node '%s'", e.From, e.NodeID)
}

func (e *UnknownNodeError) Is(target error) bool {
	return target == ErrUnknownNode
}

// StepBudgetError is raised when the budget reaches zero on a non-terminal target.
type StepBudgetError struct {
	Budget   int
	LastNode string
	Target   string
}

func (e *StepBudgetError) Error() string {
	return fmt.Sprintf("step budget of %d exhausted after node '%s' (next: '%s')", e.Budget, e.LastNode, e.Target)
}

func (e *StepBudgetError) Is(target error) bool {
	return target == ErrStepBudgetExceeded
}

// CapabilityError wraps a failed call to an external collaborator.
// Nodes convert it into the state's Error field; it never escapes a run.
type CapabilityError struct {
	Capability string
	Op         string
	Err        error
}

func (e *CapabilityError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s failed: %v", e.Capability, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Capability, e.Op, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the capability call ran past its deadline.
func (e *CapabilityError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// IsEngineFault reports whether err is one of the faults that abort a run.
func IsEngineFault(err error) bool {
	return errors.Is(err, ErrUnknownNode) || errors.Is(err, ErrStepBudgetExceeded) || errors.Is(err, ErrInvalidBudget)
}

package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrAgentNotFound indicates an agent was not found by the given identifier.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrExecutionNotFound indicates an execution record was not found.
	ErrExecutionNotFound = errors.New("execution not found")
)

// AgentError wraps agent-related storage errors with operation context.
type AgentError struct {
	Op      string // Operation being performed (e.g., "AgentByID", "SaveAgent")
	AgentID string
	Err     error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("%s operation failed for agent %s: %v", e.Op, e.AgentID, e.Err)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

func (e *AgentError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func NewAgentError(op, agentID string, err error) *AgentError {
	return &AgentError{Op: op, AgentID: agentID, Err: err}
}

// IsAgentNotFound checks if an error indicates an agent was not found.
func IsAgentNotFound(err error) bool {
	return errors.Is(err, ErrAgentNotFound)
}

// IsExecutionNotFound checks if an error indicates an execution was not found.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

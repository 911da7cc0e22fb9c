package models

import "time"

// ExecutionStatus is the lifecycle state of an agent execution.
// Transitions are pending -> running -> completed | failed; terminal states
// are final, there is no retry or resumption.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// StepStatus is the state of a single executed node.
type StepStatus string

const (
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// ExecutionStep records one executed node. Records are append-only within a
// run and never mutated after CompletedAt is set.
type ExecutionStep struct {
	NodeID       string         `json:"nodeId"`
	StepOrder    int            `json:"stepOrder"`
	ActionType   string         `json:"actionType,omitempty"`
	Status       StepStatus     `json:"status"`
	InputData    map[string]any `json:"inputData,omitempty"`
	OutputData   map[string]any `json:"outputData,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	StartedAt    time.Time      `json:"startedAt"`
	CompletedAt  *time.Time     `json:"completedAt,omitempty"`
	DurationMs   int64          `json:"durationMs"`
}

// Error codes recorded on ExecutionError.
const (
	ErrorCodeBudgetExceeded = "budget_exceeded"
	ErrorCodeStepFailed     = "step_failed"
	ErrorCodeRuntimeError   = "runtime_error"
)

// ExecutionError is the structured failure detail of a terminal failed run.
type ExecutionError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	FailedStep string `json:"failedStep,omitempty"`
	ActionType string `json:"actionType,omitempty"`
	Stack      string `json:"stack,omitempty"`
}

// AgentExecution is one instantiation of a workflow against one trigger
// payload. It is created at execution start and finalized exactly once,
// as completed or failed, never with partial step results marked completed.
type AgentExecution struct {
	ID             string           `json:"id"`
	AgentID        string           `json:"agentId"`
	AccountID      string           `json:"accountId"`
	Status         ExecutionStatus  `json:"status"`
	TriggerPayload *TriggerPayload  `json:"triggerPayload,omitempty"`
	Variables      map[string]any   `json:"variables,omitempty"`
	Steps          []*ExecutionStep `json:"steps"`
	OutputData     map[string]any   `json:"outputData,omitempty"`
	ErrorMessage   string           `json:"errorMessage,omitempty"`
	ErrorDetails   *ExecutionError  `json:"errorDetails,omitempty"`
	TokensUsed     int              `json:"tokensUsed"`
	EstimatedCost  float64          `json:"estimatedCost"`
	CreatedAt      time.Time        `json:"createdAt"`
	StartedAt      time.Time        `json:"startedAt"`
	CompletedAt    *time.Time       `json:"completedAt,omitempty"`
}

// ExecutionContext is the per-run mutable state. It is owned exclusively by
// one AgentExecution and mutated only by the runtime during that run.
type ExecutionContext struct {
	ExecutionID string                    `json:"executionId"`
	AgentID     string                    `json:"agentId"`
	AccountID   string                    `json:"accountId"`
	Trigger     *TriggerPayload           `json:"trigger,omitempty"`
	Variables   map[string]any            `json:"variables"`
	Steps       map[string]*ExecutionStep `json:"steps"`
}

// CompletedStep reports whether the node has a completed step record.
func (c *ExecutionContext) CompletedStep(nodeID string) bool {
	step, ok := c.Steps[nodeID]

	return ok && step.Status == StepStatusCompleted
}

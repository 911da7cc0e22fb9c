package models

import "time"

// RetryConfig is carried on the agent for forward compatibility. The runtime
// does not retry failed steps; a failed step terminates the run.
type RetryConfig struct {
	MaxAttempts int `json:"maxAttempts"`
}

// AgentConfig holds per-agent execution limits. Zero values fall back to the
// runtime defaults.
type AgentConfig struct {
	MaxSteps           int            `json:"maxSteps,omitempty"`
	MaxExecutionTimeMs int64          `json:"maxExecutionTimeMs,omitempty"`
	Retry              *RetryConfig   `json:"retry,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// Agent binds a workflow graph to a trigger and an owning account.
type Agent struct {
	ID        string         `json:"id"        validate:"required"`
	AccountID string         `json:"accountId" validate:"required"`
	Name      string         `json:"name"      validate:"required,min=3"`
	Workflow  *Workflow      `json:"workflow"  validate:"required"`
	Trigger   *AgentTrigger  `json:"trigger"   validate:"required"`
	Variables map[string]any `json:"variables,omitempty"`
	Config    AgentConfig    `json:"config"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

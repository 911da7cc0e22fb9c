package web

import "github.com/agentflow/agentflow/pkg/models"

// CreateAgentRequest is the request body for registering a new agent.
type CreateAgentRequest struct {
	Name      string               `json:"name"      validate:"required,min=3"`
	AccountID string               `json:"accountId" validate:"required"`
	Workflow  *models.Workflow     `json:"workflow"  validate:"required"`
	Trigger   *models.AgentTrigger `json:"trigger"   validate:"required"`
	Variables map[string]any       `json:"variables,omitempty"`
	Config    models.AgentConfig   `json:"config"`
}

// UpdateAgentRequest is the request body for updating an existing agent.
// All fields are optional to support partial updates.
type UpdateAgentRequest struct {
	Name      *string              `json:"name,omitempty" validate:"omitempty,min=3"`
	Workflow  *models.Workflow     `json:"workflow,omitempty"`
	Trigger   *models.AgentTrigger `json:"trigger,omitempty"`
	Variables map[string]any       `json:"variables,omitempty"`
	Config    *models.AgentConfig  `json:"config,omitempty"`
}

// TriggerAgentRequest carries the raw event data dispatched to an agent's
// trigger handler.
type TriggerAgentRequest struct {
	Data map[string]any `json:"data"`
}

// TriggerAgentResponse reports whether the event matched the agent's trigger
// filters and, when it did, the resulting execution record.
type TriggerAgentResponse struct {
	Matched   bool                   `json:"matched"`
	Execution *models.AgentExecution `json:"execution,omitempty"`
}

// ValidateWorkflowRequest is the request body for standalone workflow
// validation.
type ValidateWorkflowRequest struct {
	Workflow *models.Workflow `json:"workflow" validate:"required"`
}

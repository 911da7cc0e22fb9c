// Package persistence provides the data storage abstraction for agents and
// execution records.
package persistence

import (
	"context"

	"github.com/agentflow/agentflow/pkg/models"
)

// AgentRepository stores agent definitions.
type AgentRepository interface {
	Agents(ctx context.Context) ([]*models.Agent, error)
	SaveAgent(ctx context.Context, agent *models.Agent) error
	AgentByID(ctx context.Context, id string) (*models.Agent, error)
	DeleteAgent(ctx context.Context, id string) error
}

// ExecutionRepository stores finalized and in-flight execution records.
type ExecutionRepository interface {
	SaveExecution(ctx context.Context, execution *models.AgentExecution) error
	ExecutionByID(ctx context.Context, id string) (*models.AgentExecution, error)
	ExecutionsByAgent(ctx context.Context, agentID string) ([]*models.AgentExecution, error)
}

type Persistence interface {
	AgentRepository
	ExecutionRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

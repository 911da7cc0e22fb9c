// Package redis provides a Redis-backed persistence implementation for
// agents and executions.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/agentflow/agentflow/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

const (
	agentKeyPrefix     = "agentflow:agent:"
	agentIndexKey      = "agentflow:agents"
	executionKeyPrefix = "agentflow:execution:"
)

// Persistence implements persistence.Persistence on Redis. Agents and
// executions are JSON values; set indexes track membership.
type Persistence struct {
	client *redis.Client
}

// NewPersistence connects to Redis using a redis:// URL.
func NewPersistence(url string) (*Persistence, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return &Persistence{client: redis.NewClient(opts)}, nil
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *Persistence) SaveAgent(ctx context.Context, agent *models.Agent) error {
	data, err := json.Marshal(agent)
	if err != nil {
		return fmt.Errorf("failed to marshal agent: %w", err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, agentKeyPrefix+agent.ID, data, 0)
	pipe.SAdd(ctx, agentIndexKey, agent.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return persistence.NewAgentError("SaveAgent", agent.ID, err)
	}

	return nil
}

func (p *Persistence) AgentByID(ctx context.Context, id string) (*models.Agent, error) {
	data, err := p.client.Get(ctx, agentKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.NewAgentError("AgentByID", id, persistence.ErrAgentNotFound)
	}

	if err != nil {
		return nil, persistence.NewAgentError("AgentByID", id, err)
	}

	var agent models.Agent
	if err := json.Unmarshal(data, &agent); err != nil {
		return nil, persistence.NewAgentError("AgentByID", id, err)
	}

	return &agent, nil
}

func (p *Persistence) Agents(ctx context.Context) ([]*models.Agent, error) {
	ids, err := p.client.SMembers(ctx, agentIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	agents := make([]*models.Agent, 0, len(ids))

	for _, id := range ids {
		agent, err := p.AgentByID(ctx, id)
		if persistence.IsAgentNotFound(err) {
			continue
		}

		if err != nil {
			return nil, err
		}

		agents = append(agents, agent)
	}

	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })

	return agents, nil
}

func (p *Persistence) DeleteAgent(ctx context.Context, id string) error {
	removed, err := p.client.Del(ctx, agentKeyPrefix+id).Result()
	if err != nil {
		return persistence.NewAgentError("DeleteAgent", id, err)
	}

	if removed == 0 {
		return persistence.NewAgentError("DeleteAgent", id, persistence.ErrAgentNotFound)
	}

	return p.client.SRem(ctx, agentIndexKey, id).Err()
}

func (p *Persistence) SaveExecution(ctx context.Context, execution *models.AgentExecution) error {
	data, err := json.Marshal(execution)
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, executionKeyPrefix+execution.ID, data, 0)
	pipe.SAdd(ctx, executionIndexKey(execution.AgentID), execution.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save execution %s: %w", execution.ID, err)
	}

	return nil
}

func (p *Persistence) ExecutionByID(ctx context.Context, id string) (*models.AgentExecution, error) {
	data, err := p.client.Get(ctx, executionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.ErrExecutionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load execution %s: %w", id, err)
	}

	var execution models.AgentExecution
	if err := json.Unmarshal(data, &execution); err != nil {
		return nil, fmt.Errorf("failed to decode execution %s: %w", id, err)
	}

	return &execution, nil
}

func (p *Persistence) ExecutionsByAgent(ctx context.Context, agentID string) ([]*models.AgentExecution, error) {
	ids, err := p.client.SMembers(ctx, executionIndexKey(agentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list executions for agent %s: %w", agentID, err)
	}

	executions := make([]*models.AgentExecution, 0, len(ids))

	for _, id := range ids {
		execution, err := p.ExecutionByID(ctx, id)
		if errors.Is(err, persistence.ErrExecutionNotFound) {
			continue
		}

		if err != nil {
			return nil, err
		}

		executions = append(executions, execution)
	}

	// Newest first.
	sort.Slice(executions, func(i, j int) bool {
		return executions[i].CreatedAt.After(executions[j].CreatedAt)
	})

	return executions, nil
}

func executionIndexKey(agentID string) string {
	return agentKeyPrefix + agentID + ":executions"
}

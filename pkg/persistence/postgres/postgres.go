// Package postgres provides a PostgreSQL-backed persistence implementation
// for agents and executions.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/agentflow/agentflow/pkg/persistence"

	// Registers the postgres driver.
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS agents (
	id         TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	workflow   JSONB NOT NULL,
	trigger_config JSONB NOT NULL,
	variables  JSONB,
	config     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS agent_executions (
	id             TEXT PRIMARY KEY,
	agent_id       TEXT NOT NULL,
	account_id     TEXT NOT NULL,
	status         TEXT NOT NULL,
	record         JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_agent_executions_agent_id
	ON agent_executions (agent_id, created_at DESC);
`

// Persistence implements persistence.Persistence on PostgreSQL. Documents
// are stored as JSONB with a few indexed scalar columns.
type Persistence struct {
	db *sql.DB
}

// NewPersistence opens a connection pool and applies the schema.
func NewPersistence(ctx context.Context, databaseURL string) (*Persistence, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Persistence{db: db}, nil
}

func (p *Persistence) Close(_ context.Context) error {
	return p.db.Close()
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Persistence) SaveAgent(ctx context.Context, agent *models.Agent) error {
	workflow, err := json.Marshal(agent.Workflow)
	if err != nil {
		return persistence.NewAgentError("SaveAgent", agent.ID, err)
	}

	trigger, err := json.Marshal(agent.Trigger)
	if err != nil {
		return persistence.NewAgentError("SaveAgent", agent.ID, err)
	}

	variables, err := json.Marshal(agent.Variables)
	if err != nil {
		return persistence.NewAgentError("SaveAgent", agent.ID, err)
	}

	config, err := json.Marshal(agent.Config)
	if err != nil {
		return persistence.NewAgentError("SaveAgent", agent.ID, err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO agents (id, account_id, name, workflow, trigger_config, variables, config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			name       = EXCLUDED.name,
			workflow   = EXCLUDED.workflow,
			trigger_config = EXCLUDED.trigger_config,
			variables  = EXCLUDED.variables,
			config     = EXCLUDED.config,
			updated_at = now()`,
		agent.ID, agent.AccountID, agent.Name, workflow, trigger, variables, config, agent.CreatedAt)
	if err != nil {
		return persistence.NewAgentError("SaveAgent", agent.ID, err)
	}

	return nil
}

func (p *Persistence) AgentByID(ctx context.Context, id string) (*models.Agent, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, account_id, name, workflow, trigger_config, variables, config, created_at, updated_at
		FROM agents WHERE id = $1`, id)

	agent, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewAgentError("AgentByID", id, persistence.ErrAgentNotFound)
	}

	if err != nil {
		return nil, persistence.NewAgentError("AgentByID", id, err)
	}

	return agent, nil
}

func (p *Persistence) Agents(ctx context.Context) ([]*models.Agent, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, account_id, name, workflow, trigger_config, variables, config, created_at, updated_at
		FROM agents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []*models.Agent

	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}

		agents = append(agents, agent)
	}

	return agents, rows.Err()
}

func (p *Persistence) DeleteAgent(ctx context.Context, id string) error {
	result, err := p.db.ExecContext(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return persistence.NewAgentError("DeleteAgent", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewAgentError("DeleteAgent", id, err)
	}

	if affected == 0 {
		return persistence.NewAgentError("DeleteAgent", id, persistence.ErrAgentNotFound)
	}

	return nil
}

func (p *Persistence) SaveExecution(ctx context.Context, execution *models.AgentExecution) error {
	record, err := json.Marshal(execution)
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", execution.ID, err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO agent_executions (id, agent_id, account_id, status, record, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			record = EXCLUDED.record`,
		execution.ID, execution.AgentID, execution.AccountID, execution.Status, record, execution.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save execution %s: %w", execution.ID, err)
	}

	return nil
}

func (p *Persistence) ExecutionByID(ctx context.Context, id string) (*models.AgentExecution, error) {
	var record []byte

	err := p.db.QueryRowContext(ctx, `SELECT record FROM agent_executions WHERE id = $1`, id).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrExecutionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load execution %s: %w", id, err)
	}

	var execution models.AgentExecution
	if err := json.Unmarshal(record, &execution); err != nil {
		return nil, fmt.Errorf("failed to decode execution %s: %w", id, err)
	}

	return &execution, nil
}

func (p *Persistence) ExecutionsByAgent(ctx context.Context, agentID string) ([]*models.AgentExecution, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT record FROM agent_executions
		WHERE agent_id = $1 ORDER BY created_at DESC`, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions for agent %s: %w", agentID, err)
	}
	defer rows.Close()

	var executions []*models.AgentExecution

	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		var execution models.AgentExecution
		if err := json.Unmarshal(record, &execution); err != nil {
			return nil, fmt.Errorf("failed to decode execution: %w", err)
		}

		executions = append(executions, &execution)
	}

	return executions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*models.Agent, error) {
	var (
		agent     models.Agent
		workflow  []byte
		trigger   []byte
		variables []byte
		config    []byte
	)

	err := row.Scan(&agent.ID, &agent.AccountID, &agent.Name, &workflow, &trigger, &variables, &config, &agent.CreatedAt, &agent.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(workflow, &agent.Workflow); err != nil {
		return nil, fmt.Errorf("failed to decode workflow: %w", err)
	}

	if err := json.Unmarshal(trigger, &agent.Trigger); err != nil {
		return nil, fmt.Errorf("failed to decode trigger: %w", err)
	}

	if len(variables) > 0 {
		if err := json.Unmarshal(variables, &agent.Variables); err != nil {
			return nil, fmt.Errorf("failed to decode variables: %w", err)
		}
	}

	if len(config) > 0 {
		if err := json.Unmarshal(config, &agent.Config); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	return &agent, nil
}

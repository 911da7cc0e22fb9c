// Package file provides a file-based persistence implementation for agents
// and executions.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/agentflow/agentflow/pkg/persistence"
)

const (
	agentsDir     = "agents"
	executionsDir = "executions"

	dirPerm  = 0o755
	filePerm = 0o644
)

// Persistence implements persistence.Persistence on the local file system.
// Each agent and execution is one pretty-printed JSON file.
type Persistence struct {
	root string
	mu   sync.RWMutex
}

// NewPersistence creates the storage directories under root. A "file://"
// prefix on root is accepted and stripped.
func NewPersistence(root string) (*Persistence, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	for _, dir := range []string{agentsDir, executionsDir} {
		if err := os.MkdirAll(filepath.Join(cleanRoot, dir), dirPerm); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	return &Persistence{root: cleanRoot}, nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); err != nil {
		return fmt.Errorf("storage root unavailable: %w", err)
	}

	return nil
}

func (p *Persistence) SaveAgent(_ context.Context, agent *models.Agent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.writeJSON(filepath.Join(agentsDir, agent.ID+".json"), agent)
}

func (p *Persistence) AgentByID(_ context.Context, id string) (*models.Agent, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var agent models.Agent
	if err := p.readJSON(filepath.Join(agentsDir, id+".json"), &agent); err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewAgentError("AgentByID", id, persistence.ErrAgentNotFound)
		}

		return nil, persistence.NewAgentError("AgentByID", id, err)
	}

	return &agent, nil
}

func (p *Persistence) Agents(_ context.Context) ([]*models.Agent, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	paths, err := filepath.Glob(filepath.Join(p.root, agentsDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	agents := make([]*models.Agent, 0, len(paths))

	for _, path := range paths {
		var agent models.Agent
		if err := readJSONFile(path, &agent); err != nil {
			return nil, fmt.Errorf("failed to read agent file %s: %w", path, err)
		}

		agents = append(agents, &agent)
	}

	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })

	return agents, nil
}

func (p *Persistence) DeleteAgent(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := os.Remove(filepath.Join(p.root, agentsDir, id+".json"))
	if os.IsNotExist(err) {
		return persistence.NewAgentError("DeleteAgent", id, persistence.ErrAgentNotFound)
	}

	return err
}

func (p *Persistence) SaveExecution(_ context.Context, execution *models.AgentExecution) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.writeJSON(filepath.Join(executionsDir, execution.ID+".json"), execution)
}

func (p *Persistence) ExecutionByID(_ context.Context, id string) (*models.AgentExecution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var execution models.AgentExecution
	if err := p.readJSON(filepath.Join(executionsDir, id+".json"), &execution); err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, err
	}

	return &execution, nil
}

func (p *Persistence) ExecutionsByAgent(_ context.Context, agentID string) ([]*models.AgentExecution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	paths, err := filepath.Glob(filepath.Join(p.root, executionsDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	var executions []*models.AgentExecution

	for _, path := range paths {
		var execution models.AgentExecution
		if err := readJSONFile(path, &execution); err != nil {
			return nil, fmt.Errorf("failed to read execution file %s: %w", path, err)
		}

		if execution.AgentID == agentID {
			executions = append(executions, &execution)
		}
	}

	// Newest first.
	sort.Slice(executions, func(i, j int) bool {
		return executions[i].CreatedAt.After(executions[j].CreatedAt)
	})

	return executions, nil
}

func (p *Persistence) writeJSON(relPath string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", relPath, err)
	}

	return os.WriteFile(filepath.Join(p.root, relPath), data, filePerm)
}

func (p *Persistence) readJSON(relPath string, value any) error {
	return readJSONFile(filepath.Join(p.root, relPath), value)
}

func readJSONFile(path string, value any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, value)
}

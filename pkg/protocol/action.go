package protocol

import (
	"context"
	"log/slog"

	"github.com/agentflow/agentflow/pkg/models"
)

// ActionResult is the uniform outcome of one action execution.
type ActionResult struct {
	Success    bool           `json:"success"`
	Data       map[string]any `json:"data,omitempty"`
	Error      string         `json:"error,omitempty"`
	TokensUsed int            `json:"tokensUsed,omitempty"`
}

// ActionRegistry supplies concrete step implementations behind a uniform
// execute contract. The runtime awaits each call before moving to the next
// planned step; implementations may block on network or model calls.
type ActionRegistry interface {
	Execute(ctx context.Context, actionType string, config map[string]any, execCtx *models.ExecutionContext) (*ActionResult, error)
}

// Action is one executable step implementation. The config it was created
// with is already rendered against the execution context.
type Action interface {
	Execute(ctx context.Context, execCtx *models.ExecutionContext, logger *slog.Logger) (*ActionResult, error)
}

// ActionFactory builds actions from node configuration and describes the
// configuration it accepts.
type ActionFactory interface {
	ID() string
	Name() string
	Description() string
	Schema() map[string]any
	Create(ctx context.Context, config map[string]any) (Action, error)
}

// Package actions holds the action registry and the built-in action catalog
// dispatched by the agent runtime.
package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/agentflow/agentflow/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrActionNotRegistered = errors.New("action type not registered")
	ErrInvalidActionConfig = errors.New("invalid action configuration")
)

// Registry maps action types to their factories and executes steps behind
// the uniform ActionRegistry contract.
type Registry struct {
	logger    *slog.Logger
	factories map[string]protocol.ActionFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "action_registry"),
		factories: make(map[string]protocol.ActionFactory),
	}
}

// Register adds a factory. Registering the same action type twice replaces
// the earlier factory.
func (r *Registry) Register(factory protocol.ActionFactory) {
	if _, exists := r.factories[factory.ID()]; exists {
		r.logger.Warn("Replacing registered action factory", "action_type", factory.ID())
	}

	r.factories[factory.ID()] = factory
}

// Factory returns the factory for an action type.
func (r *Registry) Factory(actionType string) (protocol.ActionFactory, error) {
	factory, ok := r.factories[actionType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrActionNotRegistered, actionType)
	}

	return factory, nil
}

// ActionTypes returns all registered action types, sorted.
func (r *Registry) ActionTypes() []string {
	types := make([]string, 0, len(r.factories))
	for actionType := range r.factories {
		types = append(types, actionType)
	}

	sort.Strings(types)

	return types
}

// ValidateConfig checks an action configuration against the factory's JSON
// schema.
func (r *Registry) ValidateConfig(actionType string, config map[string]any) error {
	factory, err := r.Factory(actionType)
	if err != nil {
		return err
	}

	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(config))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidActionConfig, err)
	}

	if !result.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidActionConfig, result.Errors())
	}

	return nil
}

// Execute creates and runs the action for one step.
func (r *Registry) Execute(ctx context.Context, actionType string, config map[string]any, execCtx *models.ExecutionContext) (*protocol.ActionResult, error) {
	factory, err := r.Factory(actionType)
	if err != nil {
		return nil, err
	}

	action, err := factory.Create(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create action %q: %w", actionType, err)
	}

	logger := r.logger.With("action_type", actionType, "execution_id", execCtx.ExecutionID)

	result, err := action.Execute(ctx, execCtx, logger)
	if err != nil {
		return nil, err
	}

	if result == nil {
		result = &protocol.ActionResult{Success: true}
	}

	return result, nil
}

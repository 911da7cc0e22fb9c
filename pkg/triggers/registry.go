// Package triggers routes incoming raw events to the trigger handler for
// their kind and applies the trigger's configured filters.
package triggers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/agentflow/agentflow/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrUnknownTriggerType = errors.New("unknown trigger type")
	ErrInvalidConfig      = errors.New("invalid trigger config")
)

// Registry holds one handler per trigger kind. It is populated once at
// startup and never mutated at request time, so concurrent reads are safe
// without locking.
type Registry struct {
	logger   *slog.Logger
	handlers map[models.TriggerType]protocol.TriggerHandler
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger.With("module", "trigger_registry"),
		handlers: make(map[models.TriggerType]protocol.TriggerHandler),
	}
}

// Register adds a handler keyed by its trigger kind. Registration is
// idempotent; the last handler registered for a kind wins.
func (r *Registry) Register(handler protocol.TriggerHandler) {
	kind := handler.Type()

	if _, exists := r.handlers[kind]; exists {
		r.logger.Warn("Replacing registered trigger handler", "trigger_type", kind)
	}

	r.handlers[kind] = handler
}

// Handler returns the handler for a trigger kind.
func (r *Registry) Handler(kind models.TriggerType) (protocol.TriggerHandler, error) {
	handler, ok := r.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTriggerType, kind)
	}

	return handler, nil
}

// TriggerTypes returns the registered trigger kinds.
func (r *Registry) TriggerTypes() []models.TriggerType {
	kinds := make([]models.TriggerType, 0, len(r.handlers))
	for kind := range r.handlers {
		kinds = append(kinds, kind)
	}

	return kinds
}

// ValidateConfig checks a trigger configuration against the handler's JSON
// schema and its handler-specific rules.
func (r *Registry) ValidateConfig(trigger *models.AgentTrigger) error {
	handler, err := r.Handler(trigger.TriggerType)
	if err != nil {
		return err
	}

	if schema := handler.Schema(); schema != nil {
		schemaLoader := gojsonschema.NewGoLoader(schema)
		configLoader := gojsonschema.NewGoLoader(trigger.Config)

		result, err := gojsonschema.Validate(schemaLoader, configLoader)
		if err != nil {
			return fmt.Errorf("failed to validate trigger config: %w", err)
		}

		if !result.Valid() {
			details := make([]string, 0, len(result.Errors()))
			for _, desc := range result.Errors() {
				details = append(details, desc.String())
			}

			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(details, "; "))
		}
	}

	if err := handler.ValidateConfig(trigger.Config); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

// ProcessTrigger routes a raw event to the handler for the trigger's kind,
// parses it and applies the trigger's filters. It returns the normalized
// payload when the event matches, or nil when it was filtered out; callers
// must treat nil as "do not execute", not as an error.
func (r *Registry) ProcessTrigger(ctx context.Context, trigger *models.AgentTrigger, rawData map[string]any) (*models.TriggerPayload, error) {
	handler, err := r.Handler(trigger.TriggerType)
	if err != nil {
		return nil, err
	}

	payload, err := handler.ParsePayload(ctx, trigger, rawData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s payload: %w", trigger.TriggerType, err)
	}

	matches, err := handler.MatchesFilters(payload, trigger)
	if err != nil {
		return nil, fmt.Errorf("failed to match %s filters: %w", trigger.TriggerType, err)
	}

	if !matches {
		r.logger.Debug("Trigger event filtered out", "trigger_type", trigger.TriggerType)

		return nil, nil
	}

	return payload, nil
}

// SetupTrigger runs the handler's Setup hook when it implements
// LifecycleHandler and returns the config values it produced. Handlers
// without the capability are a no-op.
func (r *Registry) SetupTrigger(ctx context.Context, trigger *models.AgentTrigger) (map[string]any, error) {
	handler, err := r.Handler(trigger.TriggerType)
	if err != nil {
		return nil, err
	}

	lifecycle, ok := handler.(protocol.LifecycleHandler)
	if !ok {
		return nil, nil
	}

	return lifecycle.Setup(ctx, trigger)
}

// TeardownTrigger runs the handler's Teardown hook when present.
func (r *Registry) TeardownTrigger(ctx context.Context, trigger *models.AgentTrigger) error {
	handler, err := r.Handler(trigger.TriggerType)
	if err != nil {
		return err
	}

	lifecycle, ok := handler.(protocol.LifecycleHandler)
	if !ok {
		return nil
	}

	return lifecycle.Teardown(ctx, trigger)
}

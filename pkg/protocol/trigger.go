// Package protocol defines the interfaces and contracts for pluggable
// trigger handlers and the action registry.
package protocol

import (
	"context"

	"github.com/agentflow/agentflow/pkg/models"
)

// TriggerHandler parses raw external payloads into a normalized form and
// decides whether they match a trigger's configured filters. Implementations
// must be safe for concurrent use; the registry's handler map is populated
// once at startup and read without locking afterwards.
type TriggerHandler interface {
	// Type returns the trigger kind this handler serves.
	Type() models.TriggerType

	// Schema returns the JSON schema for this handler's trigger config.
	Schema() map[string]any

	// ValidateConfig checks a trigger configuration for this kind.
	ValidateConfig(config map[string]any) error

	// ParsePayload normalizes a raw external event into a TriggerPayload.
	ParsePayload(ctx context.Context, trigger *models.AgentTrigger, raw map[string]any) (*models.TriggerPayload, error)

	// MatchesFilters reports whether the normalized payload passes the
	// trigger's configured filters.
	MatchesFilters(payload *models.TriggerPayload, trigger *models.AgentTrigger) (bool, error)
}

// LifecycleHandler is implemented by trigger handlers that provision
// per-trigger resources at registration time. Handlers without it are no-ops
// at registration and deregistration; dispatch uses a type assertion so the
// capability is statically verifiable per variant.
type LifecycleHandler interface {
	// Setup provisions resources for a trigger and returns config values to
	// merge into the trigger config (for example a webhook URL and secret).
	Setup(ctx context.Context, trigger *models.AgentTrigger) (map[string]any, error)

	// Teardown releases resources provisioned by Setup.
	Teardown(ctx context.Context, trigger *models.AgentTrigger) error
}

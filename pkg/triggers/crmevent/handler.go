// Package crmevent implements the crm_event trigger handler for CRM entity
// lifecycle events from connected integrations.
package crmevent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentflow/agentflow/pkg/models"
)

var (
	ErrInvalidEventType   = errors.New("invalid CRM event type")
	ErrInvalidEntityType  = errors.New("invalid CRM entity type")
	ErrInvalidIntegration = errors.New("invalid CRM integration")
)

var (
	eventTypes = map[string]bool{
		"created": true,
		"updated": true,
		"deleted": true,
	}

	entityTypes = map[string]bool{
		"contact": true,
		"company": true,
		"deal":    true,
		"ticket":  true,
	}

	integrations = map[string]bool{
		"hubspot":    true,
		"salesforce": true,
		"pipedrive":  true,
	}
)

type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger.With("module", "crm_event_trigger")}
}

func (h *Handler) Type() models.TriggerType {
	return models.TriggerTypeCRMEvent
}

func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type":        "object",
		"title":       "CRM Event Trigger Configuration",
		"description": "Configuration for CRM entity lifecycle triggering",
		"properties": map[string]any{
			"eventType": map[string]any{
				"type": "string",
				"enum": []string{"created", "updated", "deleted"},
			},
			"entityType": map[string]any{
				"type": "string",
				"enum": []string{"contact", "company", "deal", "ticket"},
			},
			"integration": map[string]any{
				"type": "string",
				"enum": []string{"hubspot", "salesforce", "pipedrive"},
			},
			"filters": map[string]any{
				"type":        "object",
				"description": "Field values the entity snapshot must carry",
			},
		},
		"required": []string{"eventType", "entityType", "integration"},
	}
}

func (h *Handler) ValidateConfig(config map[string]any) error {
	eventType, _ := config["eventType"].(string)
	if !eventTypes[eventType] {
		return fmt.Errorf("%w: %q", ErrInvalidEventType, eventType)
	}

	entityType, _ := config["entityType"].(string)
	if !entityTypes[entityType] {
		return fmt.Errorf("%w: %q", ErrInvalidEntityType, entityType)
	}

	integration, _ := config["integration"].(string)
	if !integrations[integration] {
		return fmt.Errorf("%w: %q", ErrInvalidIntegration, integration)
	}

	return nil
}

func (h *Handler) ParsePayload(_ context.Context, _ *models.AgentTrigger, raw map[string]any) (*models.TriggerPayload, error) {
	entity, _ := raw["entity"].(map[string]any)
	changes, _ := raw["changes"].(map[string]any)
	previous, _ := raw["previousValues"].(map[string]any)

	data := map[string]any{
		"event":          stringValue(raw, "event"),
		"entityType":     stringValue(raw, "entityType"),
		"entity":         entity,
		"changes":        changes,
		"previousValues": previous,
		"userId":         stringValue(raw, "userId"),
	}

	return &models.TriggerPayload{
		Data: data,
		Metadata: models.TriggerMetadata{
			ReceivedAt: time.Now().UTC(),
			Source:     "crm_event",
			RawData:    raw,
		},
	}, nil
}

// MatchesFilters requires event and entity type equality plus every custom
// field filter matching the entity snapshot.
func (h *Handler) MatchesFilters(payload *models.TriggerPayload, trigger *models.AgentTrigger) (bool, error) {
	wantEvent, _ := trigger.Config["eventType"].(string)
	if event, _ := payload.Data["event"].(string); event != wantEvent {
		return false, nil
	}

	wantEntity, _ := trigger.Config["entityType"].(string)
	if entityType, _ := payload.Data["entityType"].(string); entityType != wantEntity {
		return false, nil
	}

	filters, _ := trigger.Config["filters"].(map[string]any)
	if len(filters) == 0 {
		return true, nil
	}

	entity, _ := payload.Data["entity"].(map[string]any)
	for field, want := range filters {
		got, exists := entity[field]
		if !exists {
			return false, nil
		}

		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false, nil
		}
	}

	return true, nil
}

func stringValue(raw map[string]any, key string) string {
	v, _ := raw[key].(string)

	return v
}

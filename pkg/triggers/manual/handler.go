// Package manual implements the manual trigger handler for user-initiated
// workflow runs with typed named inputs.
package manual

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/agentflow/agentflow/pkg/models"
)

var (
	ErrEmptyInputName       = errors.New("input name cannot be empty")
	ErrUnsupportedInputType = errors.New("unsupported input type")
	ErrMissingRequiredInput = errors.New("missing required input")
	ErrInvalidInputValue    = errors.New("invalid input value")
)

var supportedTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"boolean": true,
	"json":    true,
}

type inputDef struct {
	Name     string
	Type     string
	Required bool
}

type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger.With("module", "manual_trigger")}
}

func (h *Handler) Type() models.TriggerType {
	return models.TriggerTypeManual
}

func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type":        "object",
		"title":       "Manual Trigger Configuration",
		"description": "Typed inputs a user provides when starting the workflow by hand",
		"properties": map[string]any{
			"requiredInputs": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":     map[string]any{"type": "string"},
						"type":     map[string]any{"type": "string", "enum": []string{"string", "number", "boolean", "json"}},
						"required": map[string]any{"type": "boolean"},
					},
					"required": []string{"name", "type"},
				},
			},
		},
	}
}

func (h *Handler) ValidateConfig(config map[string]any) error {
	for _, def := range inputDefs(config) {
		if def.Name == "" {
			return ErrEmptyInputName
		}

		if !supportedTypes[def.Type] {
			return fmt.Errorf("%w: %q for input %q", ErrUnsupportedInputType, def.Type, def.Name)
		}
	}

	return nil
}

// ParsePayload validates and coerces declared inputs and passes undeclared
// keys through untouched. A missing required input is an error; the caller
// must not execute the workflow on that payload.
func (h *Handler) ParsePayload(_ context.Context, trigger *models.AgentTrigger, raw map[string]any) (*models.TriggerPayload, error) {
	var config map[string]any
	if trigger != nil {
		config = trigger.Config
	}

	defs := inputDefs(config)
	declared := make(map[string]bool, len(defs))
	data := make(map[string]any, len(raw))

	for _, def := range defs {
		declared[def.Name] = true

		value, present := raw[def.Name]
		if !present {
			if def.Required {
				return nil, fmt.Errorf("%w: %q", ErrMissingRequiredInput, def.Name)
			}

			continue
		}

		coerced, err := coerce(value, def.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: input %q: %w", ErrInvalidInputValue, def.Name, err)
		}

		data[def.Name] = coerced
	}

	for key, value := range raw {
		if !declared[key] {
			data[key] = value
		}
	}

	return &models.TriggerPayload{
		Data: data,
		Metadata: models.TriggerMetadata{
			ReceivedAt: time.Now().UTC(),
			Source:     "manual",
			RawData:    raw,
		},
	}, nil
}

// MatchesFilters always matches; a manual run is an explicit user decision.
func (h *Handler) MatchesFilters(_ *models.TriggerPayload, _ *models.AgentTrigger) (bool, error) {
	return true, nil
}

func coerce(value any, inputType string) (any, error) {
	switch inputType {
	case "string":
		switch v := value.(type) {
		case string:
			return v, nil
		case float64, int, int64, bool:
			return fmt.Sprintf("%v", v), nil
		default:
			return nil, fmt.Errorf("cannot coerce %T to string", value)
		}
	case "number":
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("cannot coerce %q to number", v)
			}

			return parsed, nil
		default:
			return nil, fmt.Errorf("cannot coerce %T to number", value)
		}
	case "boolean":
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("cannot coerce %q to boolean", v)
			}

			return parsed, nil
		default:
			return nil, fmt.Errorf("cannot coerce %T to boolean", value)
		}
	case "json":
		switch v := value.(type) {
		case map[string]any, []any:
			return v, nil
		case string:
			var decoded any
			if err := json.Unmarshal([]byte(v), &decoded); err != nil {
				return nil, fmt.Errorf("cannot decode %q as JSON: %w", v, err)
			}

			return decoded, nil
		default:
			return nil, fmt.Errorf("cannot coerce %T to json", value)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedInputType, inputType)
	}
}

func inputDefs(config map[string]any) []inputDef {
	raw, _ := config["requiredInputs"].([]any)
	defs := make([]inputDef, 0, len(raw))

	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}

		name, _ := entry["name"].(string)
		inputType, _ := entry["type"].(string)
		required, _ := entry["required"].(bool)

		defs = append(defs, inputDef{Name: name, Type: inputType, Required: required})
	}

	return defs
}

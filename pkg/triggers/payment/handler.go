// Package payment implements the payment_received trigger handler for
// payment provider notifications.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agentflow/agentflow/pkg/models"
)

var (
	ErrInvalidProvider  = errors.New("invalid payment provider")
	ErrNegativeMinAmount = errors.New("minAmount cannot be negative")
)

var providers = map[string]bool{
	"vipps":  true,
	"stripe": true,
}

type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger.With("module", "payment_trigger")}
}

func (h *Handler) Type() models.TriggerType {
	return models.TriggerTypePaymentReceived
}

func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type":        "object",
		"title":       "Payment Trigger Configuration",
		"description": "Configuration for payment-received workflow triggering",
		"properties": map[string]any{
			"provider": map[string]any{
				"type": "string",
				"enum": []string{"vipps", "stripe"},
			},
			"minAmount": map[string]any{
				"type":        "number",
				"minimum":     0,
				"description": "Payments below this amount are filtered out",
			},
			"currency": map[string]any{
				"type":        "string",
				"description": "Required currency code, compared case-insensitively",
				"examples":    []string{"NOK", "USD", "EUR"},
			},
		},
		"required": []string{"provider"},
	}
}

func (h *Handler) ValidateConfig(config map[string]any) error {
	provider, _ := config["provider"].(string)
	if !providers[provider] {
		return fmt.Errorf("%w: %q", ErrInvalidProvider, provider)
	}

	if minAmount, ok := numberValue(config["minAmount"]); ok && minAmount < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeMinAmount, minAmount)
	}

	return nil
}

func (h *Handler) ParsePayload(_ context.Context, _ *models.AgentTrigger, raw map[string]any) (*models.TriggerPayload, error) {
	amount, _ := numberValue(raw["amount"])
	customer, _ := raw["customer"].(map[string]any)

	data := map[string]any{
		"transactionId": stringValue(raw, "transactionId"),
		"amount":        amount,
		"currency":      strings.ToUpper(stringValue(raw, "currency")),
		"status":        stringValue(raw, "status"),
		"customer":      customer,
		"provider":      stringValue(raw, "provider"),
	}

	return &models.TriggerPayload{
		Data: data,
		Metadata: models.TriggerMetadata{
			ReceivedAt: time.Now().UTC(),
			Source:     "payment",
			RawData:    raw,
		},
	}, nil
}

// MatchesFilters requires the amount to reach minAmount (when configured)
// and the currency to match case-insensitively (when configured).
func (h *Handler) MatchesFilters(payload *models.TriggerPayload, trigger *models.AgentTrigger) (bool, error) {
	if minAmount, ok := numberValue(trigger.Config["minAmount"]); ok {
		amount, _ := numberValue(payload.Data["amount"])
		if amount < minAmount {
			return false, nil
		}
	}

	if wantCurrency, ok := trigger.Config["currency"].(string); ok && wantCurrency != "" {
		currency, _ := payload.Data["currency"].(string)
		if !strings.EqualFold(currency, wantCurrency) {
			return false, nil
		}
	}

	return true, nil
}

func numberValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func stringValue(raw map[string]any, key string) string {
	v, _ := raw[key].(string)

	return v
}

// Package webhook implements the webhook trigger handler, including
// per-trigger endpoint provisioning and request signature verification.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/google/uuid"
)

var (
	ErrInvalidIPEntry = errors.New("invalid IP allowlist entry")
)

type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger.With("module", "webhook_trigger")}
}

func (h *Handler) Type() models.TriggerType {
	return models.TriggerTypeWebhook
}

func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type":        "object",
		"title":       "Webhook Trigger Configuration",
		"description": "Configuration for HTTP webhook-based workflow triggering",
		"properties": map[string]any{
			"allowedIPs": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "IPv4 addresses or CIDR blocks allowed to call this webhook",
				"examples":    []any{[]string{"203.0.113.7", "10.0.0.0/8"}},
			},
			"headers": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
				"description":          "Required headers and their exact expected values",
			},
			"url": map[string]any{
				"type":        "string",
				"description": "Endpoint path provisioned at setup time",
			},
			"secret": map[string]any{
				"type":        "string",
				"description": "Signing secret provisioned at setup time",
			},
		},
	}
}

func (h *Handler) ValidateConfig(config map[string]any) error {
	for _, entry := range stringEntries(config["allowedIPs"]) {
		if strings.Contains(entry, "/") {
			if _, _, err := net.ParseCIDR(entry); err != nil {
				return fmt.Errorf("%w: %q is not a valid CIDR block", ErrInvalidIPEntry, entry)
			}

			continue
		}

		ip := net.ParseIP(entry)
		if ip == nil || ip.To4() == nil {
			return fmt.Errorf("%w: %q is not a valid IPv4 address", ErrInvalidIPEntry, entry)
		}
	}

	return nil
}

func (h *Handler) ParsePayload(_ context.Context, _ *models.AgentTrigger, raw map[string]any) (*models.TriggerPayload, error) {
	headers, _ := raw["headers"].(map[string]any)
	query, _ := raw["query"].(map[string]any)

	data := map[string]any{
		"method":  strings.ToUpper(stringValue(raw, "method")),
		"headers": headers,
		"body":    raw["body"],
		"query":   query,
		"ip":      stringValue(raw, "ip"),
	}

	return &models.TriggerPayload{
		Data: data,
		Metadata: models.TriggerMetadata{
			ReceivedAt: time.Now().UTC(),
			Source:     "webhook",
			RawData:    raw,
		},
	}, nil
}

// MatchesFilters requires the client IP to be in the allowlist (when one is
// configured) and every required header to be present with an exact value;
// header names compare case-insensitively.
func (h *Handler) MatchesFilters(payload *models.TriggerPayload, trigger *models.AgentTrigger) (bool, error) {
	if allowed := stringEntries(trigger.Config["allowedIPs"]); len(allowed) > 0 {
		clientIP, _ := payload.Data["ip"].(string)
		if !ipAllowed(clientIP, allowed) {
			return false, nil
		}
	}

	if required, ok := trigger.Config["headers"].(map[string]any); ok && len(required) > 0 {
		headers, _ := payload.Data["headers"].(map[string]any)
		for name, want := range required {
			got, found := headerValue(headers, name)
			if !found || got != fmt.Sprintf("%v", want) {
				return false, nil
			}
		}
	}

	return true, nil
}

// Setup provisions a unique endpoint path and signing secret for a trigger.
func (h *Handler) Setup(_ context.Context, trigger *models.AgentTrigger) (map[string]any, error) {
	secret, err := GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate webhook secret: %w", err)
	}

	url := "/hooks/" + uuid.New().String()

	h.logger.Info("Provisioned webhook endpoint", "url", url)

	return map[string]any{
		"url":    url,
		"secret": secret,
	}, nil
}

// Teardown releases the provisioned endpoint. Endpoint routing is owned by
// the caller, so there is nothing to release beyond logging.
func (h *Handler) Teardown(_ context.Context, trigger *models.AgentTrigger) error {
	if trigger != nil {
		if url, ok := trigger.Config["url"].(string); ok {
			h.logger.Info("Released webhook endpoint", "url", url)
		}
	}

	return nil
}

func ipAllowed(clientIP string, allowed []string) bool {
	ip := net.ParseIP(clientIP)
	if ip == nil {
		return false
	}

	for _, entry := range allowed {
		if strings.Contains(entry, "/") {
			if _, block, err := net.ParseCIDR(entry); err == nil && block.Contains(ip) {
				return true
			}

			continue
		}

		if entryIP := net.ParseIP(entry); entryIP != nil && entryIP.Equal(ip) {
			return true
		}
	}

	return false
}

func headerValue(headers map[string]any, name string) (string, bool) {
	for key, value := range headers {
		if strings.EqualFold(key, name) {
			return fmt.Sprintf("%v", value), true
		}
	}

	return "", false
}

func stringValue(raw map[string]any, key string) string {
	v, _ := raw[key].(string)

	return v
}

func stringEntries(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}

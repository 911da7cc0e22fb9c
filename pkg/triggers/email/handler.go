// Package email implements the email_received trigger handler.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/agentflow/agentflow/pkg/models"
)

var (
	ErrInvalidFromPattern = errors.New("invalid sender pattern")
)

// Sender patterns accept a concrete address or a wildcard local part over a
// whole domain, e.g. "bob@acme.com" or "*@acme.com".
var fromPattern = regexp.MustCompile(`^(\*|[a-zA-Z0-9._%+\-]+)@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger.With("module", "email_trigger")}
}

func (h *Handler) Type() models.TriggerType {
	return models.TriggerTypeEmailReceived
}

func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type":        "object",
		"title":       "Email Trigger Configuration",
		"description": "Filters applied to incoming email events",
		"properties": map[string]any{
			"filters": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"from": map[string]any{
						"type":        "string",
						"description": "Sender pattern, either a full address or *@domain",
						"examples":    []string{"billing@acme.com", "*@acme.com"},
					},
					"subject": map[string]any{
						"type":        "string",
						"description": "Case-insensitive substring the subject must contain",
					},
					"hasAttachment": map[string]any{
						"type":        "boolean",
						"description": "Require the email to have (or not have) attachments",
					},
					"labels": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "At least one of these labels must be present",
					},
				},
			},
		},
	}
}

func (h *Handler) ValidateConfig(config map[string]any) error {
	filters, _ := config["filters"].(map[string]any)
	if filters == nil {
		return nil
	}

	if from, ok := filters["from"].(string); ok && from != "" {
		if !fromPattern.MatchString(from) {
			return fmt.Errorf("%w: %q must match user@domain or *@domain", ErrInvalidFromPattern, from)
		}
	}

	return nil
}

func (h *Handler) ParsePayload(_ context.Context, _ *models.AgentTrigger, raw map[string]any) (*models.TriggerPayload, error) {
	data := map[string]any{
		"from":        stringValue(raw, "from"),
		"to":          stringList(raw, "to"),
		"cc":          stringList(raw, "cc"),
		"subject":     stringValue(raw, "subject"),
		"body":        stringValue(raw, "body"),
		"attachments": listValue(raw, "attachments"),
		"labels":      stringList(raw, "labels"),
	}

	return &models.TriggerPayload{
		Data: data,
		Metadata: models.TriggerMetadata{
			ReceivedAt: time.Now().UTC(),
			Source:     "email",
			RawData:    raw,
		},
	}, nil
}

// MatchesFilters applies the AND of all configured email filters.
func (h *Handler) MatchesFilters(payload *models.TriggerPayload, trigger *models.AgentTrigger) (bool, error) {
	filters, _ := trigger.Config["filters"].(map[string]any)
	if filters == nil {
		return true, nil
	}

	if pattern, ok := filters["from"].(string); ok && pattern != "" {
		from, _ := payload.Data["from"].(string)
		if !MatchesEmailPattern(from, pattern) {
			return false, nil
		}
	}

	if substr, ok := filters["subject"].(string); ok && substr != "" {
		subject, _ := payload.Data["subject"].(string)
		if !strings.Contains(strings.ToLower(subject), strings.ToLower(substr)) {
			return false, nil
		}
	}

	if wantAttachment, ok := filters["hasAttachment"].(bool); ok {
		attachments, _ := payload.Data["attachments"].([]any)
		if (len(attachments) > 0) != wantAttachment {
			return false, nil
		}
	}

	if required := anyStringList(filters["labels"]); len(required) > 0 {
		labels, _ := payload.Data["labels"].([]string)
		if !intersects(labels, required) {
			return false, nil
		}
	}

	return true, nil
}

// MatchesEmailPattern reports whether an address matches a sender pattern.
// A "*@domain" pattern matches any local part on that domain; anything else
// is compared as a full address. Matching is case-insensitive.
func MatchesEmailPattern(address, pattern string) bool {
	address = strings.ToLower(strings.TrimSpace(address))
	pattern = strings.ToLower(strings.TrimSpace(pattern))

	if domain, ok := strings.CutPrefix(pattern, "*@"); ok {
		at := strings.LastIndex(address, "@")
		if at < 0 {
			return false
		}

		return address[at+1:] == domain
	}

	return address == pattern
}

func intersects(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}

	return false
}

func stringValue(raw map[string]any, key string) string {
	v, _ := raw[key].(string)

	return v
}

func listValue(raw map[string]any, key string) []any {
	v, _ := raw[key].([]any)

	return v
}

func stringList(raw map[string]any, key string) []string {
	return anyStringList(raw[key])
}

func anyStringList(value any) []string {
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
	case string:
		if v == "" {
			return nil
		}

		return []string{v}
	default:
		return nil
	}
}

// Package httprequest provides an action that calls an external HTTP
// endpoint and exposes the response to later steps.
package httprequest

import (
	"context"

	"github.com/agentflow/agentflow/pkg/protocol"
)

type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (*ActionFactory) ID() string {
	return "http_request"
}

func (*ActionFactory) Name() string {
	return "HTTP Request"
}

func (*ActionFactory) Description() string {
	return "Performs an HTTP request with optional headers, body and retries, returning status, headers and the parsed body."
}

func (f *ActionFactory) Create(_ context.Context, config map[string]any) (protocol.Action, error) {
	return NewAction(config)
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Request URL. Supports templating.",
				"examples": []string{
					"https://api.example.com/v1/contacts",
					"https://hooks.example.com/notify?id={{.trigger.id}}",
				},
			},
			"method": map[string]any{
				"type":        "string",
				"description": "HTTP method",
				"default":     "GET",
				"enum":        []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD"},
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "Request headers. Values support templating.",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Request body. Supports templating.",
			},
			"timeoutSeconds": map[string]any{
				"type":        "number",
				"description": "Request timeout in seconds",
				"default":     30,
			},
			"retry": map[string]any{
				"type":        "object",
				"description": "Retry behavior for transport errors and 5xx responses",
				"properties": map[string]any{
					"attempts": map[string]any{"type": "number", "default": 1},
					"delaySeconds": map[string]any{
						"type":    "number",
						"default": 0,
					},
				},
			},
		},
		"required": []string{"url"},
	}
}

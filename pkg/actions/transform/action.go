// Package transform provides an action that reshapes step outputs with
// template expressions.
package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/agentflow/agentflow/pkg/protocol"
	"github.com/agentflow/agentflow/pkg/template"
)

var ErrExpressionMissing = errors.New("missing 'expression' in configuration")

type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (*ActionFactory) ID() string {
	return "transform"
}

func (*ActionFactory) Name() string {
	return "Transform"
}

func (*ActionFactory) Description() string {
	return "Transforms input data using a template expression. The input defaults to all step outputs."
}

func (f *ActionFactory) Create(_ context.Context, config map[string]any) (protocol.Action, error) {
	return NewAction(config)
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"input": map[string]any{
				"type":        "string",
				"description": "Input data source expression. If empty, uses all step outputs. Supports templating.",
				"examples": []string{
					"",
					"{{.steps.fetch_contacts}}",
					"{{.trigger.payload}}",
				},
			},
			"expression": map[string]any{
				"type":        "string",
				"format":      "code",
				"description": "Template expression producing the transformed value. JSON-shaped results are decoded into structured data.",
				"examples": []string{
					`{"fullName": "{{.firstName}} {{.lastName}}"}`,
					`{{.body.count}}`,
				},
			},
		},
		"required": []string{"expression"},
	}
}

type Action struct {
	Input      string
	Expression string
}

func NewAction(config map[string]any) (*Action, error) {
	expression, _ := config["expression"].(string)
	if expression == "" {
		return nil, ErrExpressionMissing
	}

	input, _ := config["input"].(string)

	return &Action{Input: input, Expression: expression}, nil
}

func (a *Action) Execute(ctx context.Context, execCtx *models.ExecutionContext, logger *slog.Logger) (*protocol.ActionResult, error) {
	logger.InfoContext(ctx, "Executing transform")

	data, err := a.extract(execCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to get input data: %w", err)
	}

	result, err := template.Render(a.Expression, data)
	if err != nil {
		return nil, fmt.Errorf("transformation failed: %w", err)
	}

	return &protocol.ActionResult{
		Success: true,
		Data:    map[string]any{"result": result},
	}, nil
}

// extract resolves the input source. With no input configured, the
// expression runs against all step outputs keyed by node id.
func (a *Action) extract(execCtx *models.ExecutionContext) (any, error) {
	if a.Input == "" {
		outputs := make(map[string]any, len(execCtx.Steps))
		for nodeID, step := range execCtx.Steps {
			outputs[nodeID] = step.OutputData
		}

		return outputs, nil
	}

	return template.RenderWithContext(a.Input, execCtx)
}

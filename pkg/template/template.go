// Package template renders dynamic configuration values against an
// execution context.
package template

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/agentflow/agentflow/pkg/models"
)

// RenderWithContext renders a template string with the execution context
// exposed as .vars, .steps, .trigger and .execution.
func RenderWithContext(input string, execCtx *models.ExecutionContext) (any, error) {
	stepOutputs := make(map[string]any, len(execCtx.Steps))
	for nodeID, step := range execCtx.Steps {
		stepOutputs[nodeID] = step.OutputData
	}

	var triggerData map[string]any
	if execCtx.Trigger != nil {
		triggerData = execCtx.Trigger.Data
	}

	data := map[string]any{
		"vars":    execCtx.Variables,
		"steps":   stepOutputs,
		"trigger": triggerData,
		"execution": map[string]any{
			"id":       execCtx.ExecutionID,
			"agent_id": execCtx.AgentID,
		},
	}

	return Render(input, data)
}

// Render parses and executes a template string. Results that look like JSON
// are decoded so templates can produce structured values.
func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.
		New("config").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"lower": strings.ToLower,
			"upper": strings.ToUpper,
		}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var decoded any
		if err := json.Unmarshal([]byte(result), &decoded); err == nil {
			return decoded, nil
		}
	}

	return result, nil
}

// NeedsTemplating reports whether a string contains template expressions.
func NeedsTemplating(input string) bool {
	return strings.Contains(input, "{{")
}

// RenderString renders a template and returns the result as a string.
func RenderString(input string, execCtx *models.ExecutionContext) (string, error) {
	if !NeedsTemplating(input) {
		return input, nil
	}

	result, err := RenderWithContext(input, execCtx)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%v", result), nil
}

// RenderConfig renders every templated string value of a config map,
// recursing into nested maps. Non-string values pass through untouched.
func RenderConfig(config map[string]any, execCtx *models.ExecutionContext) (map[string]any, error) {
	rendered := make(map[string]any, len(config))

	for key, value := range config {
		switch v := value.(type) {
		case string:
			if !NeedsTemplating(v) {
				rendered[key] = v

				continue
			}

			result, err := RenderWithContext(v, execCtx)
			if err != nil {
				return nil, fmt.Errorf("failed to render config key %q: %w", key, err)
			}

			rendered[key] = result
		case map[string]any:
			nested, err := RenderConfig(v, execCtx)
			if err != nil {
				return nil, err
			}

			rendered[key] = nested
		default:
			rendered[key] = value
		}
	}

	return rendered, nil
}

package workflow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/agentflow/agentflow/pkg/template"
)

var (
	ErrEmptyCondition       = errors.New("conditionConfig is empty")
	ErrUnsupportedCondition = errors.New("unsupported conditionConfig")
	ErrUnsupportedOperator  = errors.New("unsupported condition operator")
)

// evaluateCondition resolves a conditionConfig to a boolean. Three forms are
// supported: a literal ("return"), a templated expression ("expression"), or
// a field comparison ("field"/"operator"/"value").
func evaluateCondition(config map[string]any, execCtx *models.ExecutionContext) (bool, error) {
	if len(config) == 0 {
		return false, ErrEmptyCondition
	}

	if value, ok := config["return"]; ok {
		return truthy(value), nil
	}

	if expression, ok := config["expression"].(string); ok && expression != "" {
		rendered, err := template.RenderString(expression, execCtx)
		if err != nil {
			return false, fmt.Errorf("failed to evaluate expression: %w", err)
		}

		return truthy(rendered), nil
	}

	if field, ok := config["field"].(string); ok && field != "" {
		operator, _ := config["operator"].(string)
		if operator == "" {
			operator = "equals"
		}

		actual, err := resolveField(field, execCtx)
		if err != nil {
			return false, err
		}

		return compare(actual, operator, config["value"])
	}

	return false, ErrUnsupportedCondition
}

// resolveField looks a field up in the run variables, falling back to the
// trigger data. Templated fields render against the full context.
func resolveField(field string, execCtx *models.ExecutionContext) (any, error) {
	if template.NeedsTemplating(field) {
		return template.RenderWithContext(field, execCtx)
	}

	if value, ok := execCtx.Variables[field]; ok {
		return value, nil
	}

	if execCtx.Trigger != nil {
		if value, ok := execCtx.Trigger.Data[field]; ok {
			return value, nil
		}
	}

	return nil, nil
}

func compare(actual any, operator string, expected any) (bool, error) {
	switch operator {
	case "equals":
		return fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", expected), nil
	case "not_equals":
		return fmt.Sprintf("%v", actual) != fmt.Sprintf("%v", expected), nil
	case "contains":
		return strings.Contains(fmt.Sprintf("%v", actual), fmt.Sprintf("%v", expected)), nil
	case "greater_than", "less_than":
		left, leftOK := toFloat(actual)
		right, rightOK := toFloat(expected)

		if !leftOK || !rightOK {
			return false, fmt.Errorf("operator %q requires numeric operands, got %v and %v", operator, actual, expected)
		}

		if operator == "greater_than" {
			return left > right, nil
		}

		return left < right, nil
	case "exists":
		return actual != nil, nil
	case "not_exists":
		return actual == nil, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnsupportedOperator, operator)
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed
		}

		return strings.TrimSpace(v) != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return true
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)

		return parsed, err == nil
	default:
		return 0, false
	}
}

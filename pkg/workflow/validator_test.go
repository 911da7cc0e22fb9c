package workflow

import (
	"log/slog"
	"testing"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueCodes(issues []models.ValidationIssue) []string {
	codes := make([]string, 0, len(issues))
	for _, issue := range issues {
		codes = append(codes, issue.Code)
	}

	return codes
}

func TestValidate_ValidWorkflow(t *testing.T) {
	validator := NewValidator(slog.Default())

	workflow := &models.Workflow{
		Nodes: []*models.WorkflowNode{
			testTriggerNode("trigger"),
			testActionNode("a", "send_email"),
			testActionNode("b", "log"),
		},
		Edges: []*models.WorkflowEdge{
			testEdge("trigger", "a"),
			testEdge("a", "b"),
		},
	}

	result := validator.Validate(workflow)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidate_TriggerCount(t *testing.T) {
	validator := NewValidator(slog.Default())

	t.Run("no trigger is an error", func(t *testing.T) {
		workflow := &models.Workflow{
			Nodes: []*models.WorkflowNode{testActionNode("a", "noop")},
			Edges: []*models.WorkflowEdge{testEdge("a", "a2")},
		}

		result := validator.Validate(workflow)

		assert.False(t, result.Valid)
		assert.Contains(t, issueCodes(result.Errors), models.IssueCodeNoTrigger)
	})

	t.Run("multiple triggers is a warning", func(t *testing.T) {
		workflow := &models.Workflow{
			Nodes: []*models.WorkflowNode{
				testTriggerNode("t1"),
				testTriggerNode("t2"),
				testActionNode("a", "noop"),
			},
			Edges: []*models.WorkflowEdge{
				testEdge("t1", "a"),
				testEdge("t2", "a"),
			},
		}

		result := validator.Validate(workflow)

		assert.True(t, result.Valid)
		assert.Contains(t, issueCodes(result.Warnings), models.IssueCodeMultipleTriggers)
	})
}

func TestValidate_DisconnectedNodeWarning(t *testing.T) {
	validator := NewValidator(slog.Default())

	workflow := &models.Workflow{
		Nodes: []*models.WorkflowNode{
			testTriggerNode("trigger"),
			testActionNode("a", "noop"),
			testActionNode("lonely", "noop"),
		},
		Edges: []*models.WorkflowEdge{testEdge("trigger", "a")},
	}

	result := validator.Validate(workflow)

	assert.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, models.IssueCodeDisconnectedNode, result.Warnings[0].Code)
	assert.Equal(t, "lonely", result.Warnings[0].NodeID)
}

func TestValidate_CycleDetection(t *testing.T) {
	validator := NewValidator(slog.Default())

	t.Run("back-edge is an error", func(t *testing.T) {
		workflow := &models.Workflow{
			Nodes: []*models.WorkflowNode{
				testTriggerNode("trigger"),
				testActionNode("a", "noop"),
				testActionNode("b", "noop"),
				testActionNode("c", "noop"),
			},
			Edges: []*models.WorkflowEdge{
				testEdge("trigger", "a"),
				testEdge("a", "b"),
				testEdge("b", "c"),
				testEdge("c", "a"),
			},
		}

		result := validator.Validate(workflow)

		assert.False(t, result.Valid)
		assert.Contains(t, issueCodes(result.Errors), models.IssueCodeCycle)
	})

	t.Run("diamond DAG is not a cycle", func(t *testing.T) {
		workflow := &models.Workflow{
			Nodes: []*models.WorkflowNode{
				testTriggerNode("trigger"),
				testActionNode("a", "noop"),
				testActionNode("b", "noop"),
				testActionNode("c", "noop"),
				testActionNode("d", "noop"),
			},
			Edges: []*models.WorkflowEdge{
				testEdge("trigger", "a"),
				testEdge("a", "b"),
				testEdge("a", "c"),
				testEdge("b", "d"),
				testEdge("c", "d"),
			},
		}

		result := validator.Validate(workflow)

		assert.NotContains(t, issueCodes(result.Errors), models.IssueCodeCycle)
	})
}

func TestValidate_RequiredFields(t *testing.T) {
	validator := NewValidator(slog.Default())

	testCases := []struct {
		name string
		node *models.WorkflowNode
		code string
	}{
		{
			"missing label",
			&models.WorkflowNode{ID: "n", Type: models.NodeTypeAction, Data: models.NodeData{ActionType: "noop"}},
			models.IssueCodeMissingField,
		},
		{
			"action missing actionType",
			&models.WorkflowNode{ID: "n", Type: models.NodeTypeAction, Data: models.NodeData{Label: "n"}},
			models.IssueCodeMissingField,
		},
		{
			"ai_task missing actionType",
			&models.WorkflowNode{ID: "n", Type: models.NodeTypeAITask, Data: models.NodeData{Label: "n"}},
			models.IssueCodeMissingField,
		},
		{
			"condition missing conditionConfig",
			&models.WorkflowNode{ID: "n", Type: models.NodeTypeCondition, Data: models.NodeData{Label: "n"}},
			models.IssueCodeMissingField,
		},
		{
			"trigger missing triggerType",
			&models.WorkflowNode{ID: "n", Type: models.NodeTypeTrigger, Data: models.NodeData{Label: "n"}},
			models.IssueCodeMissingField,
		},
		{
			"unknown node type",
			&models.WorkflowNode{ID: "n", Type: "teleport", Data: models.NodeData{Label: "n"}},
			models.IssueCodeUnknownNodeType,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			workflow := &models.Workflow{
				Nodes: []*models.WorkflowNode{testTriggerNode("trigger"), tc.node},
				Edges: []*models.WorkflowEdge{testEdge("trigger", "n")},
			}

			result := validator.Validate(workflow)

			assert.False(t, result.Valid)
			assert.Contains(t, issueCodes(result.Errors), tc.code)
		})
	}
}

func TestValidate_DanglingEdge(t *testing.T) {
	validator := NewValidator(slog.Default())

	workflow := &models.Workflow{
		Nodes: []*models.WorkflowNode{
			testTriggerNode("trigger"),
			testActionNode("a", "noop"),
		},
		Edges: []*models.WorkflowEdge{
			testEdge("trigger", "a"),
			testEdge("a", "ghost"),
		},
	}

	result := validator.Validate(workflow)

	assert.False(t, result.Valid)
	assert.Contains(t, issueCodes(result.Errors), models.IssueCodeDanglingEdge)
}

func TestValidate_ReportsAllDefectsInOnePass(t *testing.T) {
	validator := NewValidator(slog.Default())

	// No trigger, a node missing its label, and a dangling edge all at once.
	workflow := &models.Workflow{
		Nodes: []*models.WorkflowNode{
			{ID: "a", Type: models.NodeTypeAction, Data: models.NodeData{ActionType: "noop"}},
		},
		Edges: []*models.WorkflowEdge{testEdge("a", "ghost")},
	}

	result := validator.Validate(workflow)

	codes := issueCodes(result.Errors)
	assert.Contains(t, codes, models.IssueCodeNoTrigger)
	assert.Contains(t, codes, models.IssueCodeMissingField)
	assert.Contains(t, codes, models.IssueCodeDanglingEdge)
}

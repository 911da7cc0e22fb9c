package workflow

import (
	"testing"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTriggerNode(id string) *models.WorkflowNode {
	return &models.WorkflowNode{
		ID:   id,
		Type: models.NodeTypeTrigger,
		Data: models.NodeData{Label: "Trigger", TriggerType: models.TriggerTypeManual},
	}
}

func testActionNode(id, actionType string) *models.WorkflowNode {
	return &models.WorkflowNode{
		ID:   id,
		Type: models.NodeTypeAction,
		Data: models.NodeData{Label: id, ActionType: actionType},
	}
}

func testConditionNode(id string, config map[string]any) *models.WorkflowNode {
	return &models.WorkflowNode{
		ID:   id,
		Type: models.NodeTypeCondition,
		Data: models.NodeData{Label: id, ConditionConfig: config},
	}
}

func testEdge(source, target string) *models.WorkflowEdge {
	return &models.WorkflowEdge{ID: source + "-" + target, Source: source, Target: target}
}

func stepPosition(t *testing.T, plan *ExecutionPlan, nodeID string) int {
	t.Helper()

	for i, step := range plan.Steps {
		if step.NodeID == nodeID {
			return i
		}
	}

	t.Fatalf("node %s not found in plan", nodeID)

	return -1
}

func TestBuildExecutionPlan_NoTrigger(t *testing.T) {
	workflow := &models.Workflow{
		Nodes: []*models.WorkflowNode{testActionNode("a", "noop")},
	}

	plan, err := BuildExecutionPlan(workflow)

	assert.ErrorIs(t, err, ErrNoTriggerNode)
	assert.Nil(t, plan)
}

func TestBuildExecutionPlan_TopologicalSoundness(t *testing.T) {
	// Diamond: trigger -> a -> {b, c} -> d.
	workflow := &models.Workflow{
		Nodes: []*models.WorkflowNode{
			testTriggerNode("trigger"),
			testActionNode("d", "noop"),
			testActionNode("b", "noop"),
			testActionNode("c", "noop"),
			testActionNode("a", "noop"),
		},
		Edges: []*models.WorkflowEdge{
			testEdge("trigger", "a"),
			testEdge("a", "b"),
			testEdge("a", "c"),
			testEdge("b", "d"),
			testEdge("c", "d"),
		},
	}

	plan, err := BuildExecutionPlan(workflow)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 4)

	assert.Equal(t, "trigger", plan.StartNodeID)

	for _, pair := range [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}} {
		assert.Less(t, stepPosition(t, plan, pair[0]), stepPosition(t, plan, pair[1]),
			"%s must precede %s", pair[0], pair[1])
	}
}

func TestBuildExecutionPlan_ReachabilityPruning(t *testing.T) {
	workflow := &models.Workflow{
		Nodes: []*models.WorkflowNode{
			testTriggerNode("trigger"),
			testActionNode("a", "noop"),
			testActionNode("orphan", "noop"),
			testActionNode("island", "noop"),
		},
		Edges: []*models.WorkflowEdge{
			testEdge("trigger", "a"),
			testEdge("orphan", "island"),
		},
	}

	plan, err := BuildExecutionPlan(workflow)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "a", plan.Steps[0].NodeID)
}

func TestBuildExecutionPlan_ExcludesTrigger(t *testing.T) {
	workflow := &models.Workflow{
		Nodes: []*models.WorkflowNode{
			testTriggerNode("trigger"),
			testActionNode("a", "noop"),
		},
		Edges: []*models.WorkflowEdge{testEdge("trigger", "a")},
	}

	plan, err := BuildExecutionPlan(workflow)
	require.NoError(t, err)

	for _, step := range plan.Steps {
		assert.NotEqual(t, "trigger", step.NodeID)
	}
}

func TestBuildExecutionPlan_DependenciesAndConditionalFlag(t *testing.T) {
	workflow := &models.Workflow{
		Nodes: []*models.WorkflowNode{
			testTriggerNode("trigger"),
			testActionNode("a", "noop"),
			testConditionNode("check", map[string]any{"return": true}),
			testActionNode("yes", "noop"),
		},
		Edges: []*models.WorkflowEdge{
			testEdge("trigger", "a"),
			testEdge("a", "check"),
			{ID: "e", Source: "check", Target: "yes", SourceHandle: "true"},
		},
	}

	plan, err := BuildExecutionPlan(workflow)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 3)

	byID := make(map[string]PlannedStep)
	for _, step := range plan.Steps {
		byID[step.NodeID] = step
	}

	assert.Equal(t, []string{"trigger"}, byID["a"].Dependencies)
	assert.False(t, byID["a"].IsConditional)

	assert.Equal(t, []string{"a"}, byID["check"].Dependencies)
	assert.False(t, byID["check"].IsConditional)

	assert.Equal(t, []string{"check"}, byID["yes"].Dependencies)
	assert.True(t, byID["yes"].IsConditional, "direct successor of a condition node is conditional")
}

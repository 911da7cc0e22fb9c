// Package models defines the core domain models for agent workflow automation.
package models

// NodeType identifies the role a node plays in a workflow graph.
type NodeType string

const (
	NodeTypeTrigger     NodeType = "trigger"
	NodeTypeAction      NodeType = "action"
	NodeTypeAITask      NodeType = "ai_task"
	NodeTypeIntegration NodeType = "integration"
	NodeTypeCondition   NodeType = "condition"
	NodeTypeDelay       NodeType = "delay"
	NodeTypeOutput      NodeType = "output"
)

// Position is the editor placement of a node. It has no execution semantics.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport is the editor camera state persisted with the graph.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// NodeData carries the per-node configuration. Which sub-config is required
// depends on the node type and is enforced by the workflow validator.
type NodeData struct {
	Label           string         `json:"label"`
	ActionType      string         `json:"actionType,omitempty"`
	ActionConfig    map[string]any `json:"actionConfig,omitempty"`
	ConditionConfig map[string]any `json:"conditionConfig,omitempty"`
	DelayConfig     map[string]any `json:"delayConfig,omitempty"`
	TriggerType     TriggerType    `json:"triggerType,omitempty"`
}

// WorkflowNode is one vertex of the workflow graph.
type WorkflowNode struct {
	ID       string   `json:"id"       validate:"required"`
	Type     NodeType `json:"type"     validate:"required"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// IsTriggerNode reports whether the node is the workflow entry point.
func (n *WorkflowNode) IsTriggerNode() bool {
	return n.Type == NodeTypeTrigger
}

// WorkflowEdge is a directed arc between two nodes. SourceHandle or Label of
// "true"/"false" designate the branch taken out of a condition node;
// SourceHandle wins when both are set.
type WorkflowEdge struct {
	ID           string `json:"id,omitempty"`
	Source       string `json:"source" validate:"required"`
	Target       string `json:"target" validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	Label        string `json:"label,omitempty"`
}

// Workflow is a directed graph of nodes and edges describing an automation.
// This is the persisted authoring format consumed by the validator and planner.
type Workflow struct {
	Nodes    []*WorkflowNode `json:"nodes"`
	Edges    []*WorkflowEdge `json:"edges"`
	Viewport Viewport        `json:"viewport"`
}

// TriggerNodes returns all nodes of type trigger, in graph order.
func (w *Workflow) TriggerNodes() []*WorkflowNode {
	var triggers []*WorkflowNode

	for _, node := range w.Nodes {
		if node.IsTriggerNode() {
			triggers = append(triggers, node)
		}
	}

	return triggers
}

// NodeByID returns the node with the given id, or nil when absent.
func (w *Workflow) NodeByID(id string) *WorkflowNode {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

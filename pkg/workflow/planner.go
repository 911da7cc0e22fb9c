package workflow

import (
	"errors"

	"github.com/agentflow/agentflow/pkg/models"
)

var ErrNoTriggerNode = errors.New("workflow has no trigger node")

// PlannedStep is one node scheduled for execution, annotated with its direct
// upstream dependencies.
type PlannedStep struct {
	NodeID        string
	Node          *models.WorkflowNode
	Dependencies  []string
	IsConditional bool
}

// ExecutionPlan is the topologically ordered, reachability-pruned subset of
// workflow nodes considered for execution. The trigger node itself is not a
// step; its id is exposed as StartNodeID.
type ExecutionPlan struct {
	Steps       []PlannedStep
	StartNodeID string
}

// BuildExecutionPlan converts a workflow graph into an ordered,
// dependency-annotated step list reachable from the trigger node. Nodes with
// no path from the trigger are silently excluded; the validator warns about
// them separately.
func BuildExecutionPlan(workflow *models.Workflow) (*ExecutionPlan, error) {
	triggers := workflow.TriggerNodes()
	if len(triggers) == 0 {
		return nil, ErrNoTriggerNode
	}

	start := triggers[0]

	forward := make(map[string][]string, len(workflow.Nodes))
	reverse := make(map[string][]string, len(workflow.Nodes))

	for _, edge := range workflow.Edges {
		forward[edge.Source] = append(forward[edge.Source], edge.Target)
		reverse[edge.Target] = append(reverse[edge.Target], edge.Source)
	}

	reachable := reachableFrom(start.ID, forward)

	nodesByID := make(map[string]*models.WorkflowNode, len(workflow.Nodes))
	for _, node := range workflow.Nodes {
		nodesByID[node.ID] = node
	}

	// Topological order over the reachable set: visit a node's upstream
	// dependencies first, then append the node.
	ordered := make([]string, 0, len(reachable))
	visited := make(map[string]bool, len(reachable))

	var visit func(nodeID string)

	visit = func(nodeID string) {
		if visited[nodeID] || !reachable[nodeID] {
			return
		}

		visited[nodeID] = true

		for _, dep := range reverse[nodeID] {
			visit(dep)
		}

		ordered = append(ordered, nodeID)
	}

	for _, node := range workflow.Nodes {
		visit(node.ID)
	}

	steps := make([]PlannedStep, 0, len(ordered))

	for _, nodeID := range ordered {
		if nodeID == start.ID {
			continue
		}

		node := nodesByID[nodeID]
		if node == nil {
			continue
		}

		deps := make([]string, 0, len(reverse[nodeID]))
		conditional := false

		for _, dep := range reverse[nodeID] {
			if !reachable[dep] {
				continue
			}

			deps = append(deps, dep)

			if upstream := nodesByID[dep]; upstream != nil && upstream.Type == models.NodeTypeCondition {
				conditional = true
			}
		}

		steps = append(steps, PlannedStep{
			NodeID:        nodeID,
			Node:          node,
			Dependencies:  deps,
			IsConditional: conditional,
		})
	}

	return &ExecutionPlan{Steps: steps, StartNodeID: start.ID}, nil
}

// reachableFrom computes the forward-reachable set via a BFS worklist.
func reachableFrom(startID string, forward map[string][]string) map[string]bool {
	reachable := map[string]bool{startID: true}
	queue := []string{startID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range forward[current] {
			if !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}

	return reachable
}

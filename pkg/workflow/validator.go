// Package workflow contains the static validator, the execution planner and
// the agent runtime for node-based workflow graphs.
package workflow

import (
	"fmt"
	"log/slog"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/go-playground/validator/v10"
)

var knownNodeTypes = map[models.NodeType]bool{
	models.NodeTypeTrigger:     true,
	models.NodeTypeAction:      true,
	models.NodeTypeAITask:      true,
	models.NodeTypeIntegration: true,
	models.NodeTypeCondition:   true,
	models.NodeTypeDelay:       true,
	models.NodeTypeOutput:      true,
}

// Validator performs static analysis over a workflow graph. All checks run
// independently and are never short-circuited, so a single pass reports
// every defect.
type Validator struct {
	logger   *slog.Logger
	validate *validator.Validate
}

func NewValidator(logger *slog.Logger) *Validator {
	return &Validator{
		logger:   logger.With("module", "workflow_validator"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate checks structural soundness, cycle freedom and per-node-type
// required fields. Errors block activation; warnings do not.
func (v *Validator) Validate(workflow *models.Workflow) models.ValidationResult {
	result := models.ValidationResult{
		Errors:   []models.ValidationIssue{},
		Warnings: []models.ValidationIssue{},
	}

	v.checkTriggerCount(workflow, &result)
	v.checkConnectivity(workflow, &result)
	v.checkCycles(workflow, &result)
	v.checkNodeFields(workflow, &result)
	v.checkEdgeEndpoints(workflow, &result)

	result.Valid = len(result.Errors) == 0

	return result
}

// Exactly one trigger node is expected: zero is an error, more than one is
// a warning.
func (v *Validator) checkTriggerCount(workflow *models.Workflow, result *models.ValidationResult) {
	triggers := workflow.TriggerNodes()

	switch {
	case len(triggers) == 0:
		result.Errors = append(result.Errors, models.ValidationIssue{
			Code:    models.IssueCodeNoTrigger,
			Message: "workflow must have a trigger node",
		})
	case len(triggers) > 1:
		result.Warnings = append(result.Warnings, models.ValidationIssue{
			Code:    models.IssueCodeMultipleTriggers,
			Message: fmt.Sprintf("workflow has %d trigger nodes; only the first is used", len(triggers)),
		})
	}
}

// Every non-trigger node must appear as an edge endpoint.
func (v *Validator) checkConnectivity(workflow *models.Workflow, result *models.ValidationResult) {
	connected := make(map[string]bool, len(workflow.Nodes))
	for _, edge := range workflow.Edges {
		connected[edge.Source] = true
		connected[edge.Target] = true
	}

	for _, node := range workflow.Nodes {
		if node.IsTriggerNode() {
			continue
		}

		if !connected[node.ID] {
			result.Warnings = append(result.Warnings, models.ValidationIssue{
				Code:    models.IssueCodeDisconnectedNode,
				NodeID:  node.ID,
				Message: fmt.Sprintf("node %q is not connected to any edge", node.ID),
			})
		}
	}
}

// The graph must be acyclic. A DFS with a recursion-stack set detects any
// back-edge into a node still on the stack.
func (v *Validator) checkCycles(workflow *models.Workflow, result *models.ValidationResult) {
	adjacency := make(map[string][]string, len(workflow.Nodes))
	for _, edge := range workflow.Edges {
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
	}

	visited := make(map[string]bool, len(workflow.Nodes))
	onStack := make(map[string]bool, len(workflow.Nodes))

	var visit func(nodeID string) bool

	visit = func(nodeID string) bool {
		visited[nodeID] = true
		onStack[nodeID] = true

		for _, next := range adjacency[nodeID] {
			if onStack[next] {
				result.Errors = append(result.Errors, models.ValidationIssue{
					Code:    models.IssueCodeCycle,
					NodeID:  next,
					Message: fmt.Sprintf("workflow contains a cycle through node %q", next),
				})

				return true
			}

			if !visited[next] && visit(next) {
				return true
			}
		}

		onStack[nodeID] = false

		return false
	}

	for _, node := range workflow.Nodes {
		if !visited[node.ID] {
			if visit(node.ID) {
				return
			}
		}
	}
}

// Per-node-type required fields: a label always, plus the sub-config the
// node type depends on.
func (v *Validator) checkNodeFields(workflow *models.Workflow, result *models.ValidationResult) {
	addError := func(nodeID, code, message string) {
		result.Errors = append(result.Errors, models.ValidationIssue{
			Code:    code,
			NodeID:  nodeID,
			Message: message,
		})
	}

	for _, node := range workflow.Nodes {
		if err := v.validate.Struct(node); err != nil {
			addError(node.ID, models.IssueCodeMissingField,
				fmt.Sprintf("node %q is structurally invalid: %v", node.ID, err))
		}

		if node.Type != "" && !knownNodeTypes[node.Type] {
			addError(node.ID, models.IssueCodeUnknownNodeType,
				fmt.Sprintf("node %q has unknown type %q", node.ID, node.Type))
		}

		if node.Data.Label == "" {
			addError(node.ID, models.IssueCodeMissingField,
				fmt.Sprintf("node %q is missing a label", node.ID))
		}

		switch node.Type {
		case models.NodeTypeAction, models.NodeTypeAITask, models.NodeTypeIntegration:
			if node.Data.ActionType == "" {
				addError(node.ID, models.IssueCodeMissingField,
					fmt.Sprintf("%s node %q is missing actionType", node.Type, node.ID))
			}
		case models.NodeTypeCondition:
			if len(node.Data.ConditionConfig) == 0 {
				addError(node.ID, models.IssueCodeMissingField,
					fmt.Sprintf("condition node %q is missing conditionConfig", node.ID))
			}
		case models.NodeTypeTrigger:
			if node.Data.TriggerType == "" {
				addError(node.ID, models.IssueCodeMissingField,
					fmt.Sprintf("trigger node %q is missing triggerType", node.ID))
			}
		}
	}
}

// Every edge must reference existing node ids on both ends.
func (v *Validator) checkEdgeEndpoints(workflow *models.Workflow, result *models.ValidationResult) {
	nodeIDs := make(map[string]bool, len(workflow.Nodes))
	for _, node := range workflow.Nodes {
		nodeIDs[node.ID] = true
	}

	for _, edge := range workflow.Edges {
		for _, endpoint := range []string{edge.Source, edge.Target} {
			if !nodeIDs[endpoint] {
				result.Errors = append(result.Errors, models.ValidationIssue{
					Code:    models.IssueCodeDanglingEdge,
					EdgeID:  edge.ID,
					NodeID:  endpoint,
					Message: fmt.Sprintf("edge references unknown node %q", endpoint),
				})
			}
		}
	}
}

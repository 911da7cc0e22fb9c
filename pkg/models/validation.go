package models

// Validation issue codes reported by the workflow validator.
const (
	IssueCodeNoTrigger        = "no_trigger_node"
	IssueCodeMultipleTriggers = "multiple_trigger_nodes"
	IssueCodeDisconnectedNode = "disconnected_node"
	IssueCodeCycle            = "cycle_detected"
	IssueCodeMissingField     = "missing_required_field"
	IssueCodeUnknownNodeType  = "unknown_node_type"
	IssueCodeDanglingEdge     = "dangling_edge"
)

// ValidationIssue is one defect found by the workflow validator.
type ValidationIssue struct {
	Code    string `json:"code"`
	NodeID  string `json:"nodeId,omitempty"`
	EdgeID  string `json:"edgeId,omitempty"`
	Message string `json:"message"`
}

// ValidationResult aggregates every defect found in a single validation pass.
// Errors block activation; warnings do not.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

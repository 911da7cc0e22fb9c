package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/agentflow/agentflow/pkg/eventbus"
	"github.com/agentflow/agentflow/pkg/events"
	"github.com/agentflow/agentflow/pkg/models"
	"github.com/agentflow/agentflow/pkg/protocol"
	"github.com/agentflow/agentflow/pkg/template"
	"github.com/agentflow/agentflow/pkg/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultMaxSteps bounds how many steps a single execution may run.
	DefaultMaxSteps = 100
	// DefaultMaxExecutionTime bounds a single execution's wall-clock time.
	DefaultMaxExecutionTime = 5 * time.Minute

	// Blended per-1K-token rate used for cost estimation. This is an
	// estimate, not authoritative billing.
	costPerThousandTokens = 0.002
)

var ErrUnsupportedNodeType = errors.New("unsupported node type")

// Runtime drives one agent execution end-to-end: it builds the plan,
// iterates steps under time and step budgets, activates conditional
// branches, dispatches each step, and produces the final execution record.
type Runtime struct {
	logger  *slog.Logger
	actions protocol.ActionRegistry
	bus     eventbus.EventPublisher
	tracer  trace.Tracer
}

type RuntimeOption func(*Runtime)

func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

func WithEventPublisher(bus eventbus.EventPublisher) RuntimeOption {
	return func(r *Runtime) {
		r.bus = bus
	}
}

func WithTracer(tracer trace.Tracer) RuntimeOption {
	return func(r *Runtime) {
		r.tracer = tracer
	}
}

func NewRuntime(actions protocol.ActionRegistry, opts ...RuntimeOption) *Runtime {
	runtime := &Runtime{
		logger:  slog.Default(),
		actions: actions,
	}

	for _, opt := range opts {
		opt(runtime)
	}

	runtime.logger = runtime.logger.With("module", "agent_runtime")

	return runtime
}

// Execute runs the agent's workflow against one trigger payload. Every
// terminal failure is recorded on the returned AgentExecution; a run is
// exactly completed or failed, never partially successful.
func (r *Runtime) Execute(ctx context.Context, agent *models.Agent, payload *models.TriggerPayload) (execution *models.AgentExecution) {
	now := time.Now().UTC()

	execution = &models.AgentExecution{
		ID:             "exec-" + uuid.New().String(),
		AgentID:        agent.ID,
		AccountID:      agent.AccountID,
		Status:         models.ExecutionStatusPending,
		TriggerPayload: payload,
		Variables:      copyMap(agent.Variables),
		Steps:          []*models.ExecutionStep{},
		CreatedAt:      now,
		StartedAt:      now,
	}

	logger := r.logger.With("agent_id", agent.ID, "execution_id", execution.ID)

	// Unexpected panics during planning or dispatch are the only place a
	// raw failure is translated into a terminal state instead of
	// propagated.
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("Execution panicked", "panic", recovered)
			r.fail(ctx, agent, execution, &models.ExecutionError{
				Code:    models.ErrorCodeRuntimeError,
				Message: fmt.Sprintf("unexpected runtime error: %v", recovered),
				Stack:   string(debug.Stack()),
			})
		}
	}()

	logger.Info("Starting agent execution", "trigger_source", triggerSource(payload))

	r.run(ctx, agent, payload, execution, logger)

	return execution
}

func (r *Runtime) run(ctx context.Context, agent *models.Agent, payload *models.TriggerPayload, execution *models.AgentExecution, logger *slog.Logger) {
	start := execution.StartedAt
	maxSteps, maxDuration := budgets(agent.Config)

	execution.Status = models.ExecutionStatusRunning

	execCtx := &models.ExecutionContext{
		ExecutionID: execution.ID,
		AgentID:     agent.ID,
		AccountID:   agent.AccountID,
		Trigger:     payload,
		Variables:   execution.Variables,
		Steps:       make(map[string]*models.ExecutionStep),
	}

	r.publish(ctx, agent.ID, events.ExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStartedEvent, agent.ID),
		ExecutionID: execution.ID,
		AccountID:   agent.AccountID,
		TriggerType: triggerType(agent),
		Variables:   execution.Variables,
	})

	var span trace.Span
	if r.tracer != nil {
		ctx, span = tracing.StartSpan(ctx, r.tracer, "agent.execute",
			attribute.String(tracing.AgentIDKey, agent.ID),
			attribute.String(tracing.ExecutionIDKey, execution.ID),
		)
		defer span.End()
	}

	plan, err := BuildExecutionPlan(agent.Workflow)
	if err != nil {
		r.fail(ctx, agent, execution, &models.ExecutionError{
			Code:    models.ErrorCodeRuntimeError,
			Message: fmt.Sprintf("failed to build execution plan: %v", err),
		})

		return
	}

	ctx, cancel := context.WithDeadline(ctx, start.Add(maxDuration))
	defer cancel()

	nodesByID := make(map[string]*models.WorkflowNode, len(agent.Workflow.Nodes))
	for _, node := range agent.Workflow.Nodes {
		nodesByID[node.ID] = node
	}

	// Branch heads activated by condition nodes. The trigger is always
	// active so the first steps are eligible.
	activeBranches := map[string]bool{plan.StartNodeID: true}
	executed := 0

	for _, planned := range plan.Steps {
		if executed >= maxSteps {
			r.fail(ctx, agent, execution, &models.ExecutionError{
				Code:    models.ErrorCodeBudgetExceeded,
				Message: fmt.Sprintf("step budget exceeded: limit %d steps", maxSteps),
			})

			return
		}

		if elapsed := time.Since(start); elapsed > maxDuration {
			r.fail(ctx, agent, execution, &models.ExecutionError{
				Code:    models.ErrorCodeBudgetExceeded,
				Message: fmt.Sprintf("time budget exceeded: %s elapsed, limit %s", elapsed.Round(time.Millisecond), maxDuration),
			})

			return
		}

		if !eligible(planned, plan.StartNodeID, nodesByID, execCtx, activeBranches) {
			logger.Debug("Skipping step on inactive branch", "node_id", planned.NodeID)

			continue
		}

		executed++

		step := r.startStep(ctx, agent, execution, execCtx, planned, executed)

		output, tokens, stepErr := r.dispatch(ctx, planned.Node, execCtx, step)

		completedAt := time.Now().UTC()
		step.CompletedAt = &completedAt
		step.DurationMs = completedAt.Sub(step.StartedAt).Milliseconds()
		execution.TokensUsed += tokens

		if stepErr != nil {
			step.Status = models.StepStatusFailed
			step.ErrorMessage = stepErr.Error()

			r.publish(ctx, agent.ID, events.StepFailed{
				BaseEvent:    events.NewBaseEvent(events.StepFailedEvent, agent.ID),
				ExecutionID:  execution.ID,
				NodeID:       step.NodeID,
				StepOrder:    step.StepOrder,
				DurationMs:   step.DurationMs,
				ErrorMessage: step.ErrorMessage,
			})

			code := models.ErrorCodeStepFailed
			if errors.Is(stepErr, ErrUnsupportedNodeType) {
				code = models.ErrorCodeRuntimeError
			}

			r.fail(ctx, agent, execution, &models.ExecutionError{
				Code:       code,
				Message:    stepErr.Error(),
				FailedStep: step.NodeID,
				ActionType: step.ActionType,
			})

			return
		}

		step.Status = models.StepStatusCompleted
		step.OutputData = output

		// Later steps see earlier outputs by variable name, last writer
		// wins on key collision.
		for key, value := range output {
			execCtx.Variables[key] = value
		}

		if planned.Node.Type == models.NodeTypeCondition {
			r.activateBranch(agent, planned.NodeID, output, activeBranches, logger)
		} else {
			activeBranches[planned.NodeID] = true
		}

		r.publish(ctx, agent.ID, events.StepCompleted{
			BaseEvent:   events.NewBaseEvent(events.StepCompletedEvent, agent.ID),
			ExecutionID: execution.ID,
			NodeID:      step.NodeID,
			StepOrder:   step.StepOrder,
			DurationMs:  step.DurationMs,
			OutputData:  step.OutputData,
		})
	}

	r.complete(ctx, agent, execution)

	logger.Info("Agent execution completed",
		"steps_executed", executed,
		"tokens_used", execution.TokensUsed,
		"duration_ms", time.Since(start).Milliseconds())
}

// startStep appends a running step record to both the execution and the
// context.
func (r *Runtime) startStep(ctx context.Context, agent *models.Agent, execution *models.AgentExecution, execCtx *models.ExecutionContext, planned PlannedStep, order int) *models.ExecutionStep {
	step := &models.ExecutionStep{
		NodeID:     planned.NodeID,
		StepOrder:  order,
		ActionType: planned.Node.Data.ActionType,
		Status:     models.StepStatusRunning,
		StartedAt:  time.Now().UTC(),
	}

	execution.Steps = append(execution.Steps, step)
	execCtx.Steps[planned.NodeID] = step

	r.publish(ctx, agent.ID, events.StepStarted{
		BaseEvent:   events.NewBaseEvent(events.StepStartedEvent, agent.ID),
		ExecutionID: execution.ID,
		NodeID:      step.NodeID,
		StepOrder:   step.StepOrder,
		ActionType:  step.ActionType,
	})

	return step
}

// dispatch routes one node to its executor and returns its output data and
// token usage. Tokens are reported even when the step fails so usage is
// never undercounted.
func (r *Runtime) dispatch(ctx context.Context, node *models.WorkflowNode, execCtx *models.ExecutionContext, step *models.ExecutionStep) (map[string]any, int, error) {
	switch node.Type {
	case models.NodeTypeAction, models.NodeTypeAITask, models.NodeTypeIntegration:
		return r.executeAction(ctx, node, execCtx, step)
	case models.NodeTypeCondition:
		result, err := evaluateCondition(node.Data.ConditionConfig, execCtx)
		if err != nil {
			return nil, 0, fmt.Errorf("condition node %s: %w", node.ID, err)
		}

		step.InputData = node.Data.ConditionConfig

		return map[string]any{"result": result}, 0, nil
	case models.NodeTypeDelay:
		step.InputData = node.Data.DelayConfig

		return runDelay(ctx, node.Data.DelayConfig)
	case models.NodeTypeOutput:
		step.InputData = copyMap(execCtx.Variables)

		return copyMap(execCtx.Variables), 0, nil
	default:
		return nil, 0, fmt.Errorf("%w: %q on node %s", ErrUnsupportedNodeType, node.Type, node.ID)
	}
}

func (r *Runtime) executeAction(ctx context.Context, node *models.WorkflowNode, execCtx *models.ExecutionContext, step *models.ExecutionStep) (map[string]any, int, error) {
	config, err := template.RenderConfig(node.Data.ActionConfig, execCtx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to render config for node %s: %w", node.ID, err)
	}

	step.InputData = config

	result, err := r.actions.Execute(ctx, node.Data.ActionType, config, execCtx)
	if err != nil {
		return nil, 0, fmt.Errorf("action %s failed: %w", node.Data.ActionType, err)
	}

	if !result.Success {
		return nil, result.TokensUsed, fmt.Errorf("action %s failed: %s", node.Data.ActionType, result.Error)
	}

	return result.Data, result.TokensUsed, nil
}

// activateBranch marks the successor on the taken edge of a condition node
// as active. When no edge matches the boolean result, no branch activates
// and that path ends.
func (r *Runtime) activateBranch(agent *models.Agent, nodeID string, output map[string]any, activeBranches map[string]bool, logger *slog.Logger) {
	result, _ := output["result"].(bool)

	target := matchedBranchTarget(agent.Workflow, nodeID, result)
	if target == "" {
		logger.Debug("Condition has no matching branch edge", "node_id", nodeID, "result", result)

		return
	}

	activeBranches[target] = true
}

// matchedBranchTarget finds the successor on the edge whose sourceHandle or
// label equals the stringified boolean result. SourceHandle wins when both
// are set.
func matchedBranchTarget(workflow *models.Workflow, nodeID string, result bool) string {
	want := "false"
	if result {
		want = "true"
	}

	for _, edge := range workflow.Edges {
		if edge.Source != nodeID {
			continue
		}

		if edge.SourceHandle != "" {
			if strings.EqualFold(edge.SourceHandle, want) {
				return edge.Target
			}

			continue
		}

		if strings.EqualFold(edge.Label, want) {
			return edge.Target
		}
	}

	return ""
}

// eligible reports whether every direct dependency of the step is satisfied:
// the trigger is always satisfied, a condition dependency requires this
// node's branch to be active, and any other dependency must have completed.
func eligible(step PlannedStep, startNodeID string, nodesByID map[string]*models.WorkflowNode, execCtx *models.ExecutionContext, activeBranches map[string]bool) bool {
	for _, dep := range step.Dependencies {
		if dep == startNodeID {
			continue
		}

		if upstream := nodesByID[dep]; upstream != nil && upstream.Type == models.NodeTypeCondition {
			if !activeBranches[step.NodeID] || !execCtx.CompletedStep(dep) {
				return false
			}

			continue
		}

		if !activeBranches[dep] && !execCtx.CompletedStep(dep) {
			return false
		}
	}

	return true
}

// complete finalizes a successful run: per-node outputs keyed by node id,
// plus a result field holding the most recent non-empty completed output.
func (r *Runtime) complete(ctx context.Context, agent *models.Agent, execution *models.AgentExecution) {
	output := make(map[string]any, len(execution.Steps)+1)

	var lastOutput map[string]any

	for _, step := range execution.Steps {
		if step.Status != models.StepStatusCompleted {
			continue
		}

		if len(step.OutputData) > 0 {
			output[step.NodeID] = step.OutputData
			lastOutput = step.OutputData
		}
	}

	if lastOutput != nil {
		output["result"] = lastOutput
	}

	completedAt := time.Now().UTC()
	execution.Status = models.ExecutionStatusCompleted
	execution.OutputData = output
	execution.CompletedAt = &completedAt
	execution.EstimatedCost = estimateCost(execution.TokensUsed)

	r.publish(ctx, agent.ID, events.ExecutionCompleted{
		BaseEvent:     events.NewBaseEvent(events.ExecutionCompletedEvent, agent.ID),
		ExecutionID:   execution.ID,
		DurationMs:    completedAt.Sub(execution.StartedAt).Milliseconds(),
		StepsExecuted: len(execution.Steps),
		TokensUsed:    execution.TokensUsed,
		OutputData:    output,
	})
}

// fail finalizes a failed run. Already-completed step records are preserved,
// never rolled back.
func (r *Runtime) fail(ctx context.Context, agent *models.Agent, execution *models.AgentExecution, execErr *models.ExecutionError) {
	completedAt := time.Now().UTC()
	execution.Status = models.ExecutionStatusFailed
	execution.ErrorMessage = execErr.Message
	execution.ErrorDetails = execErr
	execution.CompletedAt = &completedAt
	execution.EstimatedCost = estimateCost(execution.TokensUsed)

	r.publish(ctx, agent.ID, events.ExecutionFailed{
		BaseEvent:     events.NewBaseEvent(events.ExecutionFailedEvent, agent.ID),
		ExecutionID:   execution.ID,
		DurationMs:    completedAt.Sub(execution.StartedAt).Milliseconds(),
		StepsExecuted: len(execution.Steps),
		ErrorCode:     execErr.Code,
		ErrorMessage:  execErr.Message,
		FailedStep:    execErr.FailedStep,
	})
}

func (r *Runtime) publish(ctx context.Context, key string, event eventbus.Event) {
	if r.bus == nil {
		return
	}

	if err := r.bus.Publish(ctx, key, event); err != nil {
		r.logger.Warn("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func budgets(config models.AgentConfig) (int, time.Duration) {
	maxSteps := DefaultMaxSteps
	maxDuration := DefaultMaxExecutionTime

	if config.MaxSteps > 0 {
		maxSteps = config.MaxSteps
	}

	if config.MaxExecutionTimeMs > 0 {
		maxDuration = time.Duration(config.MaxExecutionTimeMs) * time.Millisecond
	}

	return maxSteps, maxDuration
}

func estimateCost(tokens int) float64 {
	return float64(tokens) / 1000 * costPerThousandTokens
}

func copyMap(source map[string]any) map[string]any {
	copied := make(map[string]any, len(source))
	for key, value := range source {
		copied[key] = value
	}

	return copied
}

func triggerSource(payload *models.TriggerPayload) string {
	if payload == nil {
		return ""
	}

	return payload.Metadata.Source
}

func triggerType(agent *models.Agent) string {
	if agent.Trigger == nil {
		return ""
	}

	return string(agent.Trigger.TriggerType)
}

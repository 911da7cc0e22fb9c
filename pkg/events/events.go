// Package events defines event types for agent execution lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Kafka topics.
const Topic = "agentflow.events"                    // Trigger dispatch events
const ExecutionTopic = "agentflow.agent.executions" // Agent execution lifecycle events

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Trigger dispatch events.
	AgentTriggeredEvent EventType = "agent.triggered"

	// Execution lifecycle events.
	ExecutionStartedEvent   EventType = "agent.execution.started"
	ExecutionCompletedEvent EventType = "agent.execution.completed"
	ExecutionFailedEvent    EventType = "agent.execution.failed"

	// Per-step events.
	StepStartedEvent   EventType = "agent.step.started"
	StepCompletedEvent EventType = "agent.step.completed"
	StepFailedEvent    EventType = "agent.step.failed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	AgentID   string         `json:"agent_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type AgentTriggered struct {
	BaseEvent

	TriggerType string         `json:"trigger_type"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

func (a AgentTriggered) GetType() EventType {
	return AgentTriggeredEvent
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	AccountID   string         `json:"account_id"`
	TriggerType string         `json:"trigger_type"`
	Variables   map[string]any `json:"variables,omitempty"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID   string         `json:"execution_id"`
	DurationMs    int64          `json:"duration_ms"`
	StepsExecuted int            `json:"steps_executed"`
	TokensUsed    int            `json:"tokens_used"`
	OutputData    map[string]any `json:"output_data,omitempty"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	ExecutionID   string `json:"execution_id"`
	DurationMs    int64  `json:"duration_ms"`
	StepsExecuted int    `json:"steps_executed"`
	ErrorCode     string `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
	FailedStep    string `json:"failed_step,omitempty"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

type StepStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id"`
	StepOrder   int    `json:"step_order"`
	ActionType  string `json:"action_type,omitempty"`
}

func (s StepStarted) GetType() EventType {
	return StepStartedEvent
}

type StepCompleted struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	NodeID      string         `json:"node_id"`
	StepOrder   int            `json:"step_order"`
	DurationMs  int64          `json:"duration_ms"`
	OutputData  map[string]any `json:"output_data,omitempty"`
}

func (s StepCompleted) GetType() EventType {
	return StepCompletedEvent
}

type StepFailed struct {
	BaseEvent

	ExecutionID  string `json:"execution_id"`
	NodeID       string `json:"node_id"`
	StepOrder    int    `json:"step_order"`
	DurationMs   int64  `json:"duration_ms"`
	ErrorMessage string `json:"error_message"`
}

func (s StepFailed) GetType() EventType {
	return StepFailedEvent
}

func NewBaseEvent(eventType EventType, agentID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		AgentID:   agentID,
		Metadata:  make(map[string]any),
	}
}

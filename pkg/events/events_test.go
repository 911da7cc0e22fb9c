package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	before := time.Now().UTC()
	event := NewBaseEvent(ExecutionStartedEvent, "agent-1")

	require.NotEmpty(t, event.ID)
	assert.Equal(t, ExecutionStartedEvent, event.Type)
	assert.Equal(t, "agent-1", event.AgentID)
	assert.NotNil(t, event.Metadata)
	assert.False(t, event.Timestamp.Before(before))
}

func TestEventTypes(t *testing.T) {
	testCases := []struct {
		name  string
		event interface{ GetType() EventType }
		want  EventType
	}{
		{"agent triggered", AgentTriggered{}, AgentTriggeredEvent},
		{"execution started", ExecutionStarted{}, ExecutionStartedEvent},
		{"execution completed", ExecutionCompleted{}, ExecutionCompletedEvent},
		{"execution failed", ExecutionFailed{}, ExecutionFailedEvent},
		{"step started", StepStarted{}, StepStartedEvent},
		{"step completed", StepCompleted{}, StepCompletedEvent},
		{"step failed", StepFailed{}, StepFailedEvent},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.event.GetType())
		})
	}
}

package persistence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgentError_WrapsSentinel(t *testing.T) {
	err := NewAgentError("AgentByID", "agent-1", ErrAgentNotFound)

	assert.ErrorIs(t, err, ErrAgentNotFound)
	assert.True(t, IsAgentNotFound(err))
	assert.Contains(t, err.Error(), "AgentByID")
	assert.Contains(t, err.Error(), "agent-1")
}

func TestAgentError_UnrelatedError(t *testing.T) {
	err := NewAgentError("SaveAgent", "agent-1", errors.New("disk full"))

	assert.False(t, IsAgentNotFound(err))
	assert.False(t, IsExecutionNotFound(err))
}

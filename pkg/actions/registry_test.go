package actions

import (
	"context"
	"log/slog"
	"testing"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/agentflow/agentflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExecCtx() *models.ExecutionContext {
	return &models.ExecutionContext{
		ExecutionID: "exec-1",
		AgentID:     "agent-1",
		Variables:   map[string]any{},
		Steps:       map[string]*models.ExecutionStep{},
	}
}

func TestRegisterDefaults(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.RegisterDefaults()

	assert.Equal(t, []string{"http_request", "log", "transform"}, registry.ActionTypes())
}

func TestExecute_UnknownActionType(t *testing.T) {
	registry := NewRegistry(slog.Default())

	_, err := registry.Execute(context.Background(), "teleport", map[string]any{}, testExecCtx())

	assert.ErrorIs(t, err, ErrActionNotRegistered)
}

func TestExecute_RunsAction(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.RegisterDefaults()

	result, err := registry.Execute(context.Background(), "log", map[string]any{
		"message": "running",
	}, testExecCtx())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "running", result.Data["message"])
}

func TestExecute_ImplementsActionRegistry(t *testing.T) {
	var _ protocol.ActionRegistry = NewRegistry(slog.Default())
}

func TestValidateConfig(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.RegisterDefaults()

	testCases := []struct {
		name       string
		actionType string
		config     map[string]any
		wantErr    error
	}{
		{"valid log config", "log", map[string]any{"message": "hi"}, nil},
		{"log missing message", "log", map[string]any{}, ErrInvalidActionConfig},
		{"log bad level", "log", map[string]any{"message": "hi", "level": "loud"}, ErrInvalidActionConfig},
		{"valid http config", "http_request", map[string]any{"url": "https://example.com"}, nil},
		{"http missing url", "http_request", map[string]any{"method": "GET"}, ErrInvalidActionConfig},
		{"unknown type", "teleport", map[string]any{}, ErrActionNotRegistered},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := registry.ValidateConfig(tc.actionType, tc.config)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

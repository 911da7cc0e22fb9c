package log

import (
	"context"
	"log/slog"
	"testing"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory(t *testing.T) {
	factory := NewActionFactory()

	assert.Equal(t, "log", factory.ID())
	assert.NotEmpty(t, factory.Name())
	assert.NotEmpty(t, factory.Description())
	assert.NotNil(t, factory.Schema())
}

func TestExecute_RendersTemplatedMessage(t *testing.T) {
	factory := NewActionFactory()

	action, err := factory.Create(context.Background(), map[string]any{
		"message": "order {{.vars.orderId}} processed",
		"level":   "warn",
	})
	require.NoError(t, err)

	execCtx := &models.ExecutionContext{
		ExecutionID: "exec-1",
		Variables:   map[string]any{"orderId": "ord-42"},
		Steps:       map[string]*models.ExecutionStep{},
	}

	result, err := action.Execute(context.Background(), execCtx, slog.Default())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "order ord-42 processed", result.Data["message"])
	assert.Equal(t, "warn", result.Data["level"])
}

func TestExecute_DefaultsToInfoLevel(t *testing.T) {
	action := NewAction(map[string]any{"message": "hello"})

	execCtx := &models.ExecutionContext{Steps: map[string]*models.ExecutionStep{}}

	result, err := action.Execute(context.Background(), execCtx, slog.Default())

	require.NoError(t, err)
	assert.Equal(t, "info", result.Data["level"])
}

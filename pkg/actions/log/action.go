package log

import (
	"context"
	"log/slog"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/agentflow/agentflow/pkg/protocol"
	"github.com/agentflow/agentflow/pkg/template"
)

type Action struct {
	Message string
	Level   string
}

func NewAction(config map[string]any) *Action {
	message, _ := config["message"].(string)

	level, _ := config["level"].(string)
	if level == "" {
		level = "info"
	}

	return &Action{Message: message, Level: level}
}

func (a *Action) Execute(ctx context.Context, execCtx *models.ExecutionContext, logger *slog.Logger) (*protocol.ActionResult, error) {
	message, err := template.RenderString(a.Message, execCtx)
	if err != nil {
		return nil, err
	}

	switch a.Level {
	case "debug":
		logger.DebugContext(ctx, message)
	case "warn", "warning":
		logger.WarnContext(ctx, message)
	case "error":
		logger.ErrorContext(ctx, message)
	default:
		logger.InfoContext(ctx, message)
	}

	return &protocol.ActionResult{
		Success: true,
		Data:    map[string]any{"message": message, "level": a.Level},
	}, nil
}

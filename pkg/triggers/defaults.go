package triggers

import (
	"log/slog"

	"github.com/agentflow/agentflow/pkg/triggers/crmevent"
	"github.com/agentflow/agentflow/pkg/triggers/email"
	"github.com/agentflow/agentflow/pkg/triggers/manual"
	"github.com/agentflow/agentflow/pkg/triggers/payment"
	"github.com/agentflow/agentflow/pkg/triggers/schedule"
	"github.com/agentflow/agentflow/pkg/triggers/webhook"
)

// RegisterDefaults registers all built-in trigger handlers.
func (r *Registry) RegisterDefaults(logger *slog.Logger) {
	r.Register(email.NewHandler(logger))
	r.Register(webhook.NewHandler(logger))
	r.Register(schedule.NewHandler(logger))
	r.Register(manual.NewHandler(logger))
	r.Register(crmevent.NewHandler(logger))
	r.Register(payment.NewHandler(logger))
}

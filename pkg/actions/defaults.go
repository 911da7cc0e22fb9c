package actions

import (
	"github.com/agentflow/agentflow/pkg/actions/httprequest"
	"github.com/agentflow/agentflow/pkg/actions/log"
	"github.com/agentflow/agentflow/pkg/actions/transform"
)

// RegisterDefaults registers all built-in action factories.
func (r *Registry) RegisterDefaults() {
	r.Register(log.NewActionFactory())
	r.Register(httprequest.NewActionFactory())
	r.Register(transform.NewActionFactory())
}

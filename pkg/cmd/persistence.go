// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"context"
	"strings"

	"github.com/agentflow/agentflow/pkg/persistence"
	"github.com/agentflow/agentflow/pkg/persistence/file"
	"github.com/agentflow/agentflow/pkg/persistence/postgres"
	"github.com/agentflow/agentflow/pkg/persistence/redis"
)

// NewPersistence selects a persistence backend from the database URL scheme.
// postgres:// and redis:// pick their drivers; anything else is treated as a
// file storage root.
func NewPersistence(ctx context.Context, databaseURL string) (persistence.Persistence, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.NewPersistence(ctx, databaseURL)
	case strings.HasPrefix(databaseURL, "redis://"), strings.HasPrefix(databaseURL, "rediss://"):
		return redis.NewPersistence(databaseURL)
	default:
		return file.NewPersistence(databaseURL)
	}
}

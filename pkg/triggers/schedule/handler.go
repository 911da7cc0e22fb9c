// Package schedule implements the schedule trigger handler for cron-based
// workflow runs.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/robfig/cron/v3"
)

var (
	ErrInvalidCron     = errors.New("invalid cron expression")
	ErrInvalidTimezone = errors.New("invalid timezone")
	ErrInvalidWindow   = errors.New("startDate must be before endDate")
)

type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger.With("module", "schedule_trigger")}
}

func (h *Handler) Type() models.TriggerType {
	return models.TriggerTypeSchedule
}

func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type":        "object",
		"title":       "Schedule Trigger Configuration",
		"description": "Configuration for cron-based workflow triggering",
		"properties": map[string]any{
			"cron": map[string]any{
				"type":        "string",
				"description": "Standard 5-field cron expression",
				"examples":    []string{"0 9 * * *", "*/15 * * * *", "0 18 * * 5"},
			},
			"timezone": map[string]any{
				"type":        "string",
				"description": "IANA timezone name the schedule is evaluated in",
				"default":     "UTC",
				"examples":    []string{"Europe/Oslo", "America/New_York"},
			},
			"startDate": map[string]any{
				"type":        "string",
				"format":      "date-time",
				"description": "Runs before this instant are suppressed",
			},
			"endDate": map[string]any{
				"type":        "string",
				"format":      "date-time",
				"description": "Runs after this instant are suppressed",
			},
		},
		"required": []string{"cron"},
	}
}

func (h *Handler) ValidateConfig(config map[string]any) error {
	expr, _ := config["cron"].(string)
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidCron, expr, err)
	}

	if tz, ok := config["timezone"].(string); ok && tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTimezone, tz)
		}
	}

	start, hasStart, err := dateValue(config, "startDate")
	if err != nil {
		return err
	}

	end, hasEnd, err := dateValue(config, "endDate")
	if err != nil {
		return err
	}

	if hasStart && hasEnd && !start.Before(end) {
		return ErrInvalidWindow
	}

	return nil
}

func (h *Handler) ParsePayload(_ context.Context, trigger *models.AgentTrigger, raw map[string]any) (*models.TriggerPayload, error) {
	actualTime := time.Now().UTC()
	if v, ok := raw["actualTime"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			actualTime = parsed
		}
	}

	scheduledTime := actualTime
	if v, ok := raw["scheduledTime"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			scheduledTime = parsed
		}
	}

	var config map[string]any
	if trigger != nil {
		config = trigger.Config
	}

	runNumber := 0
	if v, ok := raw["runNumber"].(float64); ok {
		runNumber = int(v)
	}

	data := map[string]any{
		"scheduledTime": scheduledTime.Format(time.RFC3339),
		"actualTime":    actualTime.Format(time.RFC3339),
		"cron":          stringKey(config, "cron"),
		"timezone":      stringKey(config, "timezone"),
		"runNumber":     runNumber,
	}

	return &models.TriggerPayload{
		Data: data,
		Metadata: models.TriggerMetadata{
			ReceivedAt: time.Now().UTC(),
			Source:     "schedule",
			RawData:    raw,
		},
	}, nil
}

// MatchesFilters checks the fire time against the configured date window.
// Missing bounds leave the window open on that side.
func (h *Handler) MatchesFilters(payload *models.TriggerPayload, trigger *models.AgentTrigger) (bool, error) {
	fireTime := time.Now().UTC()
	if v, ok := payload.Data["actualTime"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			fireTime = parsed
		}
	}

	start, hasStart, err := dateValue(trigger.Config, "startDate")
	if err != nil {
		return false, err
	}

	if hasStart && fireTime.Before(start) {
		return false, nil
	}

	end, hasEnd, err := dateValue(trigger.Config, "endDate")
	if err != nil {
		return false, err
	}

	if hasEnd && fireTime.After(end) {
		return false, nil
	}

	return true, nil
}

// NextRun computes the next fire time after from, evaluated in the
// configured timezone.
func NextRun(config map[string]any, from time.Time) (time.Time, error) {
	expr, _ := config["cron"].(string)

	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", ErrInvalidCron, expr, err)
	}

	loc := time.UTC
	if tz, ok := config["timezone"].(string); ok && tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimezone, tz)
		}
	}

	return schedule.Next(from.In(loc)), nil
}

func dateValue(config map[string]any, key string) (time.Time, bool, error) {
	raw, ok := config[key].(string)
	if !ok || raw == "" {
		return time.Time{}, false, nil
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}

	return parsed, true, nil
}

func stringKey(config map[string]any, key string) string {
	if config == nil {
		return ""
	}

	v, _ := config[key].(string)

	return v
}

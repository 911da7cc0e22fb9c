package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidDelay = errors.New("delayConfig requires a positive durationMs or duration")

// runDelay blocks for the configured duration or until the context expires,
// whichever comes first. The execution deadline bounds the wait so a delay
// can never outlive the time budget.
func runDelay(ctx context.Context, config map[string]any) (map[string]any, int, error) {
	duration, err := delayDuration(config)
	if err != nil {
		return nil, 0, err
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("delay interrupted: %w", ctx.Err())
	}

	return map[string]any{"delayedMs": duration.Milliseconds()}, 0, nil
}

func delayDuration(config map[string]any) (time.Duration, error) {
	switch v := config["durationMs"].(type) {
	case float64:
		if v > 0 {
			return time.Duration(v) * time.Millisecond, nil
		}
	case int:
		if v > 0 {
			return time.Duration(v) * time.Millisecond, nil
		}
	case int64:
		if v > 0 {
			return time.Duration(v) * time.Millisecond, nil
		}
	}

	if s, ok := config["duration"].(string); ok && s != "" {
		duration, err := time.ParseDuration(s)
		if err != nil || duration <= 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDelay, s)
		}

		return duration, nil
	}

	return 0, ErrInvalidDelay
}

package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/plagiarism-control/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// One key for the whole service: with several analyses running at once the
// most recent step written wins, whichever run wrote it.
const (
	statusKey = "plagiarism_analysis_status"
	statusTTL = 12 * time.Hour
)

var validSteps = map[models.Step]bool{
	models.StepIdle:        true,
	models.StepInitiated:   true,
	models.StepExtracting:  true,
	models.StepVectorizing: true,
	models.StepCompleted:   true,
	models.StepFailed:      true,
}

func UpdateStatus(ctx context.Context, rdb redis.Cmdable, step models.Step) error {
	if !validSteps[step] {
		return fmt.Errorf("unknown step: %s", step)
	}

	err := rdb.Set(ctx, statusKey, string(step), statusTTL).Err()
	if err != nil {
		log.Error().Err(err).
			Str("step", string(step)).
			Str("redisKey", statusKey).
			Msg("Failed to update status in Redis")
		return fmt.Errorf("failed to update status in Redis: %w", err)
	}

	log.Trace().
		Str("step", string(step)).
		Msg("Status updated in Redis")

	return nil
}

// GetStatus returns the last recorded step, idle when none is stored
func GetStatus(ctx context.Context, rdb redis.Cmdable) (models.Step, error) {
	value, err := rdb.Get(ctx, statusKey).Result()
	if errors.Is(err, redis.Nil) {
		return models.StepIdle, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read status from Redis: %w", err)
	}
	return models.Step(value), nil
}

// StatusTracker binds the status helpers to one Redis client
type StatusTracker struct {
	rdb redis.Cmdable
}

func NewStatusTracker(rdb redis.Cmdable) *StatusTracker {
	return &StatusTracker{rdb: rdb}
}

func (t *StatusTracker) Update(ctx context.Context, step models.Step) error {
	return UpdateStatus(ctx, t.rdb, step)
}

func (t *StatusTracker) Get(ctx context.Context) (models.Step, error) {
	return GetStatus(ctx, t.rdb)
}

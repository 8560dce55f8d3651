package plagiarism

import (
	"context"
	"testing"
	"time"

	"github.com/RishiKendai/plagiarism-control/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatusRedis struct {
	redis.Cmdable
	values map[string]string
}

func (f *fakeStatusRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.values[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeStatusRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func TestUpdateStatus_UnknownStep(t *testing.T) {
	t.Parallel()

	err := UpdateStatus(context.Background(), nil, models.Step("ranking"))
	assert.ErrorContains(t, err, "unknown step")
}

func TestStatusTracker_IdleUntilWritten(t *testing.T) {
	t.Parallel()

	tracker := NewStatusTracker(&fakeStatusRedis{values: map[string]string{}})

	step, err := tracker.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StepIdle, step)
}

func TestStatusTracker_LastWriterWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rdb := &fakeStatusRedis{values: map[string]string{}}
	first := NewStatusTracker(rdb)
	second := NewStatusTracker(rdb)

	require.NoError(t, first.Update(ctx, models.StepVectorizing))
	require.NoError(t, second.Update(ctx, models.StepInitiated))

	step, err := first.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StepInitiated, step)
	assert.Len(t, rdb.values, 1)
}

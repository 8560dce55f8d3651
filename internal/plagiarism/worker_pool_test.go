package plagiarism

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countJob struct {
	counter *atomic.Int64
	done    chan<- struct{}
}

func (j *countJob) Execute(ctx context.Context) error {
	j.counter.Add(1)
	j.done <- struct{}{}
	return nil
}

func TestWorkerPool_RunsAllJobs(t *testing.T) {
	t.Parallel()

	pool := NewWorkerPool(context.Background(), 3)
	defer pool.Close()
	assert.Equal(t, 3, pool.Size())

	var counter atomic.Int64
	done := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(context.Background(), &countJob{counter: &counter, done: done}))
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Equal(t, int64(10), counter.Load())
}

func TestWorkerPool_SizedFromCPU(t *testing.T) {
	t.Parallel()

	pool := NewWorkerPool(context.Background(), 0)
	defer pool.Close()

	assert.GreaterOrEqual(t, pool.Size(), 1)
}

func TestWorkerPool_SubmitAfterClose(t *testing.T) {
	t.Parallel()

	pool := NewWorkerPool(context.Background(), 1)
	pool.Close()
	pool.Close()

	err := pool.Submit(context.Background(), &countJob{})
	assert.ErrorIs(t, err, context.Canceled)
}

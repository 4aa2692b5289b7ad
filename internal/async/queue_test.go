package async

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/idextract/internal/pipeline"
)

type fakeProcessor struct {
	mu    sync.Mutex
	paths []string
	delay time.Duration
}

func (f *fakeProcessor) ProcessFile(ctx context.Context, path string) (pipeline.Outcome, error) {
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return pipeline.Outcome{}, ctx.Err()
	}
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()
	if strings.HasSuffix(path, ".bad") {
		return pipeline.Outcome{Path: path}, errors.New("boom")
	}
	return pipeline.Outcome{Path: path}, nil
}

func TestProcessorQueue_ProcessesAllJobs(t *testing.T) {
	fp := &fakeProcessor{}
	var (
		mu   sync.Mutex
		done []string
	)
	q := NewProcessorQueue(fp, nil, WithWorkers(3), WithQueueSize(2), WithResultHandler(func(j Job, _ pipeline.Outcome, err error) {
		mu.Lock()
		defer mu.Unlock()
		done = append(done, j.Path)
	}))

	paths := []string{"a.png", "b.pdf", "c.bad", "d.txt", "e.jpg"}
	for _, p := range paths {
		require.NoError(t, q.Enqueue(context.Background(), Job{Path: p}))
	}
	q.Shutdown(context.Background())

	assert.ElementsMatch(t, paths, fp.paths)
	assert.ElementsMatch(t, paths, done)
	ok, failed := q.Stats()
	assert.EqualValues(t, 4, ok)
	assert.EqualValues(t, 1, failed)
}

func TestProcessorQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&fakeProcessor{}, nil)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{Path: "a.png"}), ErrQueueClosed)
}

func TestProcessorQueue_BackpressureHonoursContext(t *testing.T) {
	fp := &fakeProcessor{delay: time.Second}
	q := NewProcessorQueue(fp, nil, WithWorkers(1), WithQueueSize(1), WithProcessTimeout(2*time.Second))
	defer q.Shutdown(context.Background())

	// one job in the worker, one in the buffer
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "1.png"}))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "2.png"}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Enqueue(ctx, Job{Path: "3.png"}), context.DeadlineExceeded)
}

func TestProcessorQueue_TimeoutPerJob(t *testing.T) {
	fp := &fakeProcessor{delay: time.Second}
	var gotErr error
	q := NewProcessorQueue(fp, nil, WithWorkers(1), WithProcessTimeout(10*time.Millisecond),
		WithResultHandler(func(_ Job, _ pipeline.Outcome, err error) { gotErr = err }))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "slow.pdf"}))
	q.Shutdown(context.Background())
	assert.ErrorIs(t, gotErr, context.DeadlineExceeded)
}

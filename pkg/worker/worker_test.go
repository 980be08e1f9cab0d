package worker_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"mediakit/pkg/worker"
)

func Test_WorkerPool_RunsTasksUntilNoWorkRemains(t *testing.T) {
	t.Parallel()

	var remaining atomic.Int32
	remaining.Store(5)
	var processed atomic.Int32

	pool := worker.NewWorkerPool()
	assert.Nil(t, pool.PushWorker(worker.NewWorker("test-worker", func(_ worker.Worker) (bool, error) {
		if remaining.Add(-1) < 0 {
			return false, nil
		}

		processed.Add(1)
		return true, nil
	})))

	assert.Nil(t, pool.Start())
	t.Cleanup(pool.Close)

	assert.Eventually(t, func() bool {
		return processed.Load() == 5
	}, time.Second, 10*time.Millisecond)
}

func Test_WorkerPool_WakeupResumesSleepingWorkers(t *testing.T) {
	t.Parallel()

	var processed atomic.Int32
	work := make(chan struct{}, 8)

	pool := worker.NewWorkerPool()
	assert.Nil(t, pool.PushWorker(worker.NewWorker("test-worker", func(_ worker.Worker) (bool, error) {
		select {
		case <-work:
			processed.Add(1)
			return true, nil
		default:
			return false, nil
		}
	})))

	assert.Nil(t, pool.Start())
	t.Cleanup(pool.Close)

	// The worker drains nothing and goes to sleep; queue work and wake it
	time.Sleep(50 * time.Millisecond)
	work <- struct{}{}
	work <- struct{}{}
	assert.Nil(t, pool.WakeupWorkers())

	assert.Eventually(t, func() bool {
		return processed.Load() == 2
	}, time.Second, 10*time.Millisecond)
}

func Test_WorkerPool_RejectsMisuse(t *testing.T) {
	t.Parallel()

	pool := worker.NewWorkerPool()
	assert.Error(t, pool.WakeupWorkers(), "cannot wake workers before the pool starts")

	assert.Nil(t, pool.PushWorker(worker.NewWorker("test-worker", func(_ worker.Worker) (bool, error) {
		return false, nil
	})))
	assert.Nil(t, pool.Start())
	t.Cleanup(pool.Close)

	assert.Error(t, pool.Start(), "pool cannot be started twice")
	assert.Error(t, pool.PushWorker(worker.NewWorker("late", func(_ worker.Worker) (bool, error) {
		return false, nil
	})), "workers cannot be pushed once started")
}

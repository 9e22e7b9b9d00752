package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ludo-technologies/cloneval/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParallelExecutor(t *testing.T) {
	executor := NewParallelExecutor()

	impl, ok := executor.(*ParallelExecutorImpl)
	require.True(t, ok)
	assert.Equal(t, 0, impl.maxConcurrency)
	assert.Equal(t, 10*time.Minute, impl.timeout)
}

func TestParallelExecutor_Execute_EmptyTasks(t *testing.T) {
	err := NewParallelExecutor().Execute(context.Background(), nil)
	assert.NoError(t, err)
}

func TestParallelExecutor_Execute_MultipleTasks(t *testing.T) {
	executor := NewParallelExecutor()

	var counter int32
	tasks := make([]domain.ExecutableTask, 5)
	for i := range tasks {
		tasks[i] = NewSimpleTask("unit", func(ctx context.Context) error {
			atomic.AddInt32(&counter, 1)
			return nil
		})
	}

	err := executor.Execute(context.Background(), tasks)
	assert.NoError(t, err)
	assert.Equal(t, int32(5), counter)
}

func TestParallelExecutor_Execute_FailureDoesNotStopOthers(t *testing.T) {
	executor := NewParallelExecutor()
	executor.SetMaxConcurrency(1)

	var completed int32
	tasks := []domain.ExecutableTask{
		NewSimpleTask("T1/seed=0", func(ctx context.Context) error {
			return errors.New("ground truth missing")
		}),
		NewSimpleTask("T1/seed=1", func(ctx context.Context) error {
			atomic.AddInt32(&completed, 1)
			return nil
		}),
		NewSimpleTask("T2/seed=0", func(ctx context.Context) error {
			return errors.New("detector missing")
		}),
	}

	err := executor.Execute(context.Background(), tasks)
	require.Error(t, err)
	assert.Equal(t, int32(1), completed)
	assert.Contains(t, err.Error(), "task T1/seed=0 failed: ground truth missing")
	assert.Contains(t, err.Error(), "task T2/seed=0 failed: detector missing")
}

func TestParallelExecutor_Execute_ErrorsAreUnwrappable(t *testing.T) {
	sentinel := errors.New("boom")
	err := NewParallelExecutor().Execute(context.Background(), []domain.ExecutableTask{
		NewSimpleTask("a", func(ctx context.Context) error { return sentinel }),
	})
	assert.ErrorIs(t, err, sentinel)
}

func TestParallelExecutor_Execute_ContextCancellation(t *testing.T) {
	executor := NewParallelExecutor()
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	task := NewSimpleTask("long-task", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	go func() {
		<-started
		cancel()
	}()

	err := executor.Execute(ctx, []domain.ExecutableTask{task})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParallelExecutor_Execute_WithConcurrencyLimit(t *testing.T) {
	executor := NewParallelExecutor()
	executor.SetMaxConcurrency(2)

	var maxConcurrent, currentConcurrent int32
	tasks := make([]domain.ExecutableTask, 6)
	for i := range tasks {
		tasks[i] = NewSimpleTask("unit", func(ctx context.Context) error {
			current := atomic.AddInt32(&currentConcurrent, 1)
			for {
				max := atomic.LoadInt32(&maxConcurrent)
				if current <= max || atomic.CompareAndSwapInt32(&maxConcurrent, max, current) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&currentConcurrent, -1)
			return nil
		})
	}

	err := executor.Execute(context.Background(), tasks)
	assert.NoError(t, err)
	assert.LessOrEqual(t, maxConcurrent, int32(2), "max concurrent should not exceed limit")
}

func TestParallelExecutor_Execute_BoundedRunKeepsOrder(t *testing.T) {
	executor := NewParallelExecutor()
	executor.SetMaxConcurrency(1)

	var mu sync.Mutex
	var order []string
	names := []string{"T1/seed=0", "T1/seed=1", "T1/seed=2", "T2/seed=0", "T2/seed=1"}
	tasks := make([]domain.ExecutableTask, len(names))
	for i, name := range names {
		tasks[i] = NewSimpleTask(name, func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	for run := 0; run < 20; run++ {
		order = nil
		require.NoError(t, executor.Execute(context.Background(), tasks))
		assert.Equal(t, names, order)
	}
}

func TestParallelExecutor_Execute_CancelledBeforeDispatch(t *testing.T) {
	executor := NewParallelExecutor()
	executor.SetMaxConcurrency(1)

	ctx, cancel := context.WithCancel(context.Background())
	var ran int32
	tasks := []domain.ExecutableTask{
		NewSimpleTask("first", func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			cancel()
			return nil
		}),
		NewSimpleTask("second", func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}),
	}

	err := executor.Execute(ctx, tasks)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "task second cancelled")
	assert.Equal(t, int32(1), ran)
}

func TestParallelExecutor_Execute_Timeout(t *testing.T) {
	executor := NewParallelExecutor()
	executor.SetTimeout(50 * time.Millisecond)

	task := NewSimpleTask("slow-task", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := executor.Execute(context.Background(), []domain.ExecutableTask{task})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSimpleTask_Execute_NilFunction(t *testing.T) {
	task := NewSimpleTask("nil-func", nil)

	assert.Equal(t, "nil-func", task.Name())
	err := task.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no execute function")
}

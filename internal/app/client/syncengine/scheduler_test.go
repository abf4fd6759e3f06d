package syncengine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestScheduler_ManualTriggerDispatches(t *testing.T) {
	h := newHarness(t, true)

	sched := NewScheduler(h.engine, h.mgr, time.Hour, slog.Default())

	results := make(chan *Result, 1)
	sched.OnResult = func(trigger Trigger, result *Result) {
		assert.Equal(t, TriggerManual, trigger)
		results <- result
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	sched.Notify(TriggerManual)

	select {
	case result := <-results:
		assert.True(t, result.Success)
	case <-time.After(5 * time.Second):
		t.Fatal("цикл по ручному триггеру не выполнился")
	}
}

func TestScheduler_PeriodicSkippedWithoutContext(t *testing.T) {
	h := newHarness(t, false)

	sched := NewScheduler(h.engine, h.mgr, 10*time.Millisecond, slog.Default())

	dispatched := make(chan Trigger, 8)
	sched.OnResult = func(trigger Trigger, result *Result) {
		dispatched <- trigger
	}

	ctx, cancel := context.WithCancel(context.Background())
	go sched.Run(ctx)

	// Несколько тиков проходят без контекста — ни одного запуска.
	time.Sleep(60 * time.Millisecond)
	cancel()

	assert.Empty(t, dispatched)
	list, _, _ := h.remote.calls()
	assert.Zero(t, list)
}

func TestScheduler_NotifyNeverBlocks(t *testing.T) {
	h := newHarness(t, true)

	sched := NewScheduler(h.engine, h.mgr, time.Hour, slog.Default())

	// Планировщик не запущен, канал ограничен: лишние триггеры
	// отбрасываются, вызов не виснет.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			sched.Notify(TriggerConnectivity)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify заблокировался на переполненной очереди")
	}

	require.NotNil(t, sched.triggers)
	assert.Len(t, sched.triggers, cap(sched.triggers))
}

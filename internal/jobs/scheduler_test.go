package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) Refresh(context.Context) error {
	c.calls.Add(1)
	return c.err
}

type countingWarmer struct {
	calls atomic.Int32
	lastN atomic.Int32
}

func (c *countingWarmer) Warm(_ context.Context, n int) error {
	c.calls.Add(1)
	c.lastN.Store(int32(n))
	return nil
}

func TestRunOnceCallsEveryTask(t *testing.T) {
	refresher := &countingRefresher{err: errors.New("db down")}
	warmer := &countingWarmer{}
	s := NewScheduler("", refresher, warmer)

	s.RunOnce(context.Background())
	if refresher.calls.Load() != 1 {
		t.Fatalf("expected refresh once, got %d", refresher.calls.Load())
	}
	if warmer.calls.Load() != 1 {
		t.Fatalf("a failed refresh must not skip warming, got %d", warmer.calls.Load())
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := NewScheduler("not a cron spec", &countingRefresher{}, nil)
	if err := s.Start(context.Background()); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
}

func TestSchedulerRunsOnInterval(t *testing.T) {
	refresher := &countingRefresher{}
	s := NewScheduler("@every 1s", refresher, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for refresher.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("scheduled refresh never ran")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

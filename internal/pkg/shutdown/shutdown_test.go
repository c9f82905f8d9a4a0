package shutdown

import (
	"bytes"
	"context"
	"testing"
	"time"

	"quotereel/internal/pkg/logger"
)

func testLogger() *logger.Logger {
	var buf bytes.Buffer
	return logger.New(logger.Config{Level: "error", Format: "json", Output: &buf})
}

func TestShutdownRunsHandlersInReverseOrder(t *testing.T) {
	m := NewManager(testLogger(), time.Second)

	var order []string
	m.Register("first", func(ctx context.Context) error {
		order = append(order, "first")
		return nil
	})
	m.Register("second", func(ctx context.Context) error {
		order = append(order, "second")
		return nil
	})

	m.Shutdown()

	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("expected reverse order [second first], got %v", order)
	}
}

func TestShutdownHandlerErrorDoesNotStopOthers(t *testing.T) {
	m := NewManager(testLogger(), time.Second)

	ran := false
	m.Register("survivor", func(ctx context.Context) error {
		ran = true
		return nil
	})
	m.Register("failing", func(ctx context.Context) error {
		return context.DeadlineExceeded
	})

	m.Shutdown()

	if !ran {
		t.Error("expected handler after a failing one to still run")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	m := NewManager(testLogger(), time.Second)

	count := 0
	m.Register("counter", func(ctx context.Context) error {
		count++
		return nil
	})

	m.Shutdown()
	m.Shutdown()

	if count != 1 {
		t.Errorf("expected handler to run once, ran %d times", count)
	}
}

func TestDoneClosedAfterShutdown(t *testing.T) {
	m := NewManager(testLogger(), time.Second)

	select {
	case <-m.Done():
		t.Fatal("Done should not be closed before Shutdown")
	default:
	}

	m.Shutdown()

	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("Done should be closed after Shutdown")
	}
}

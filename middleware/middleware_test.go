package middleware_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/raynmakers/vigil/middleware"
)

func TestChain_ExecutionOrder(t *testing.T) {
	var trace []string
	step := func(label string) middleware.Middleware {
		return func(ctx context.Context, _ *middleware.Invocation, next middleware.Handler) error {
			trace = append(trace, label+":in")
			err := next(ctx)
			trace = append(trace, label+":out")
			return err
		}
	}

	// First in the slice wraps outermost.
	chain := middleware.Chain(step("outer"), step("inner"))
	inv := &middleware.Invocation{Component: "scanner", Operation: "sweep"}

	err := chain(context.Background(), inv, func(_ context.Context) error {
		trace = append(trace, "handler")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"outer:in", "inner:in", "handler", "inner:out", "outer:out"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Errorf("trace[%d] = %q, want %q", i, trace[i], want[i])
		}
	}
}

func TestChain_Empty(t *testing.T) {
	chain := middleware.Chain()
	called := false
	handler := func(_ context.Context) error {
		called = true
		return nil
	}

	err := chain(context.Background(), &middleware.Invocation{Component: "monitor"}, handler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler not called with empty chain")
	}
}

func TestChain_PropagatesError(t *testing.T) {
	mw := func(ctx context.Context, _ *middleware.Invocation, next middleware.Handler) error {
		return next(ctx)
	}
	chain := middleware.Chain(mw)
	want := errors.New("handler error")

	err := chain(context.Background(), &middleware.Invocation{Component: "monitor"}, func(_ context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestRecover_CatchesPanic(t *testing.T) {
	logger := slog.Default()
	mw := middleware.Recover(logger)
	inv := &middleware.Invocation{Component: "scanner", Operation: "sweep"}

	err := mw(context.Background(), inv, func(_ context.Context) error {
		panic("test panic")
	})
	if err == nil {
		t.Fatal("expected error from panic recovery")
	}
	if got := err.Error(); got != "panic in scanner.sweep: test panic" {
		t.Errorf("unexpected error message: %q", got)
	}
}

func TestRecover_WrapsErrorPanic(t *testing.T) {
	sentinel := errors.New("boom")
	mw := middleware.Recover(slog.Default())
	inv := &middleware.Invocation{Component: "scanner", Operation: "sweep"}

	err := mw(context.Background(), inv, func(_ context.Context) error {
		panic(sentinel)
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("recovered error does not wrap panic value: %v", err)
	}
}

func TestRecover_PassesThrough(t *testing.T) {
	logger := slog.Default()
	mw := middleware.Recover(logger)
	inv := &middleware.Invocation{Component: "scanner", Operation: "sweep"}

	called := false
	err := mw(context.Background(), inv, func(_ context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler not called")
	}
}

func TestLogging_Success(t *testing.T) {
	logger := slog.Default()
	mw := middleware.Logging(logger)
	inv := &middleware.Invocation{Component: "monitor", Operation: "report", Scheduled: true}

	called := false
	err := mw(context.Background(), inv, func(_ context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler not called")
	}
}

func TestLogging_Error(t *testing.T) {
	logger := slog.Default()
	mw := middleware.Logging(logger)
	inv := &middleware.Invocation{Component: "monitor", Operation: "report"}
	want := errors.New("fail")

	err := mw(context.Background(), inv, func(_ context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestTimeout_EnforcesDeadline(t *testing.T) {
	logger := slog.Default()
	mw := middleware.Timeout(logger)
	inv := &middleware.Invocation{Component: "scanner", Operation: "sweep", Timeout: 10 * time.Millisecond}

	err := mw(context.Background(), inv, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestTimeout_NoDeadlineWhenZero(t *testing.T) {
	logger := slog.Default()
	mw := middleware.Timeout(logger)
	inv := &middleware.Invocation{Component: "scanner", Operation: "sweep"}

	err := mw(context.Background(), inv, func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); ok {
			t.Error("expected no deadline for zero timeout")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

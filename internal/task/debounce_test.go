package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitFuture[T any](t *testing.T, f *Future[T]) (T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	val, err := f.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("future did not resolve")
	}
	return val, err
}

// --- Debouncer Tests ---

func TestDebouncer_LeadingWaitSharesFuture(t *testing.T) {
	var calls int32
	d := NewDebouncer(func(context.Context) (int32, error) {
		return atomic.AddInt32(&calls, 1), nil
	}, 50*time.Millisecond, nil)

	start := time.Now()
	f1 := d.Call(context.Background())
	f2 := d.Call(context.Background())
	f3 := d.Call(context.Background())

	if f1 != f2 || f2 != f3 {
		t.Fatal("calls during the leading wait should share one future")
	}

	val, err := waitFuture(t, f1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 1 {
		t.Errorf("expected first execution result 1, got %d", val)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("execution started before the leading wait: %v", elapsed)
	}
	if calls != 1 {
		t.Errorf("expected one execution, got %d", calls)
	}
}

func TestDebouncer_CallsDuringRunCollapseIntoOneFollowUp(t *testing.T) {
	var calls int32
	entered := make(chan struct{}, 4)
	release := make(chan struct{})

	d := NewDebouncer(func(context.Context) (int32, error) {
		n := atomic.AddInt32(&calls, 1)
		entered <- struct{}{}
		<-release
		return n, nil
	}, 0, nil)

	f1 := d.Call(context.Background())
	<-entered

	f2 := d.Call(context.Background())
	f3 := d.Call(context.Background())
	f4 := d.Call(context.Background())

	if f2 == f1 {
		t.Fatal("call during execution should get the follow-up future")
	}
	if f2 != f3 || f3 != f4 {
		t.Fatal("calls during execution should collapse into one follow-up")
	}

	close(release)

	v1, _ := waitFuture(t, f1)
	v2, _ := waitFuture(t, f2)
	if v1 != 1 || v2 != 2 {
		t.Errorf("expected results 1 and 2, got %d and %d", v1, v2)
	}
	if calls != 2 {
		t.Errorf("expected exactly 2 executions, got %d", calls)
	}
}

func TestDebouncer_NewQuietPeriodWaitsAgain(t *testing.T) {
	d := NewDebouncer(func(context.Context) (struct{}, error) {
		return struct{}{}, nil
	}, 40*time.Millisecond, nil)

	waitFuture(t, d.Call(context.Background()))

	start := time.Now()
	waitFuture(t, d.Call(context.Background()))
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("second quiet period should wait again, waited %v", elapsed)
	}
}

func TestDebouncer_ErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	d := NewDebouncer(func(context.Context) (int, error) {
		return 0, boom
	}, 0, nil)

	_, err := waitFuture(t, d.Call(context.Background()))
	if !errors.Is(err, boom) {
		t.Errorf("expected callback error, got %v", err)
	}

	// После ошибки дебаунсер продолжает работать.
	_, err = waitFuture(t, d.Call(context.Background()))
	if !errors.Is(err, boom) {
		t.Errorf("expected callback error on second call, got %v", err)
	}
}

func TestDebouncer_PanicResolvesWithError(t *testing.T) {
	d := NewDebouncer(func(context.Context) (int, error) {
		panic("kaboom")
	}, 0, nil)

	_, err := waitFuture(t, d.Call(context.Background()))
	if !errors.Is(err, ErrCallbackPanicked) {
		t.Errorf("expected ErrCallbackPanicked, got %v", err)
	}
}

// --- Future Tests ---

func TestFuture_ResolveOnce(t *testing.T) {
	f := NewFuture[string]()
	f.resolve("first", nil)
	f.resolve("second", errors.New("ignored"))

	val, err := f.Result()
	if val != "first" || err != nil {
		t.Errorf("expected first resolution to win, got %q, %v", val, err)
	}
}

func TestFuture_WaitHonoursContext(t *testing.T) {
	f := NewFuture[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFuture_DistinctIdentity(t *testing.T) {
	a, b := NewFuture[bool](), NewFuture[bool]()
	if a.ID() == b.ID() {
		t.Error("futures must have distinct identity tokens")
	}

	r := Resolved(true, nil)
	select {
	case <-r.Done():
	default:
		t.Error("Resolved future should be done")
	}
}

func TestFuture_OnSignal(t *testing.T) {
	closed := make(chan struct{})
	close(closed)
	if v, _ := OnSignal(closed, 7).Result(); v != 7 {
		t.Errorf("closed channel: got %d, want 7", v)
	}

	ch := make(chan struct{})
	f := OnSignal(ch, "done")
	select {
	case <-f.Done():
		t.Fatal("future resolved before signal")
	case <-time.After(20 * time.Millisecond):
	}

	close(ch)
	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("future not resolved after signal")
	}
}

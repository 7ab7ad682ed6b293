package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/Kiln/internal/fsx"
	"github.com/shaiso/Kiln/internal/reload"
	"github.com/shaiso/Kiln/internal/shell"
	"github.com/shaiso/Kiln/internal/task"
	"github.com/shaiso/Kiln/internal/telemetry"
)

// syncBuffer — потокобезопасный буфер для вывода логгера.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	o := New(Config{
		Logger: slog.New(telemetry.NewConsoleHandler(out, slog.LevelDebug)),
		FS:     fsx.New(t.TempDir()),
	})
	t.Cleanup(func() { o.Close(context.Background()) })
	return o, out
}

func wait[T any](t *testing.T, f *task.Future[T]) (T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	val, err := f.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("future did not resolve")
	}
	return val, err
}

func noop(context.Context) error { return nil }

func TestRegisterDuplicate(t *testing.T) {
	o, out := newTestOrchestrator(t)

	var calls atomic.Int32
	if err := o.Register("t", func(context.Context) error { calls.Add(1); return nil }); err != nil {
		t.Fatal(err)
	}
	err := o.Register("t", func(context.Context) error { return errors.New("replacement") })
	if !errors.Is(err, ErrTaskExists) {
		t.Fatalf("err = %v, want ErrTaskExists", err)
	}
	if !strings.Contains(out.String(), "task t is already registered") {
		t.Errorf("duplicate not logged: %q", out.String())
	}

	if ok, _ := wait(t, o.Run("t")); !ok || calls.Load() != 1 {
		t.Errorf("first registration replaced: ok=%v calls=%d", ok, calls.Load())
	}

	if err := o.Register("", noop); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty name: err = %v", err)
	}
}

func TestRunUnknown(t *testing.T) {
	o, out := newTestOrchestrator(t)

	ok, err := wait(t, o.Run("ghost"))
	if ok || !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("got %v, %v; want false, ErrTaskNotFound", ok, err)
	}
	if !strings.Contains(out.String(), "cannot run unknown task ghost") {
		t.Errorf("unknown task not logged: %q", out.String())
	}

	ok, err = wait(t, o.Until("ghost"))
	if ok || !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Until: got %v, %v; want false, ErrTaskNotFound", ok, err)
	}
}

func TestLifecycleLogging(t *testing.T) {
	o, out := newTestOrchestrator(t)

	o.Register("ok", noop)
	o.Register("bad", func(context.Context) error { return errors.New("boom") })

	wait(t, o.Run("ok"))
	wait(t, o.Run("bad"))

	logs := out.String()
	for _, want := range []string{
		"  ~ started ok",
		"✔ ~ finished ok in 0s",
		"✗ ~ bad failed after 0s error=boom",
	} {
		if !strings.Contains(logs, want) {
			t.Errorf("log missing %q:\n%s", want, logs)
		}
	}
}

// metricValue ищет значение счётчика или gauge с заданными метками.
func metricValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return -1
}

func TestMetrics(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	o.Register("metrics-ok", noop)
	o.Register("metrics-bad", func(context.Context) error { return errors.New("x") })

	wait(t, o.Run("metrics-ok"))
	wait(t, o.Run("metrics-bad"))

	if v := metricValue(t, "kiln_task_runs_total", map[string]string{"task": "metrics-ok", "status": telemetry.StatusSucceeded}); v != 1 {
		t.Errorf("succeeded runs = %v, want 1", v)
	}
	if v := metricValue(t, "kiln_task_runs_total", map[string]string{"task": "metrics-bad", "status": telemetry.StatusFailed}); v != 1 {
		t.Errorf("failed runs = %v, want 1", v)
	}
	if v := metricValue(t, "kiln_task_running", map[string]string{"task": "metrics-ok"}); v != 0 {
		t.Errorf("running = %v, want 0", v)
	}
}

func TestFailureIsolation(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	var fail atomic.Bool
	fail.Store(true)
	o.Register("flaky", func(context.Context) error {
		if fail.Load() {
			return errors.New("first run fails")
		}
		return nil
	}, task.WithCoalesceWindow(0))

	if ok, err := wait(t, o.Run("flaky")); ok || err != nil {
		t.Fatalf("first run = %v, %v; want false, nil", ok, err)
	}

	fail.Store(false)
	if ok, _ := wait(t, o.Run("flaky")); !ok {
		t.Error("second run should succeed")
	}
}

func TestSerializedRunsDoNotOverlap(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	o.Register("t", func(context.Context) error {
		time.Sleep(100 * time.Millisecond)
		return nil
	}, task.WithCoalesceWindow(0), task.WithSerialize(true))

	var mu sync.Mutex
	var events []string
	tk, _ := o.Task("t")
	tk.Observe(task.Hooks{
		OnStart:   func(string) { mu.Lock(); events = append(events, "start"); mu.Unlock() },
		OnSuccess: func(string, float64) { mu.Lock(); events = append(events, "done"); mu.Unlock() },
	})

	first := o.Run("t")
	second := o.Run("t")
	wait(t, first)
	wait(t, second)

	mu.Lock()
	defer mu.Unlock()
	if got := strings.Join(events, ","); got != "start,done,start,done" {
		t.Errorf("events = %s, want two sequential runs", got)
	}
}

func TestAlias(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	var a, b atomic.Int32
	o.Register("a", func(context.Context) error { a.Add(1); return nil })
	o.Register("b", func(context.Context) error { b.Add(1); return errors.New("b fails") })

	if err := o.Alias("build", []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}

	ok, err := wait(t, o.Run("build"))
	if !ok || err != nil {
		t.Errorf("alias = %v, %v; want true despite member failure", ok, err)
	}
	if a.Load() != 1 || b.Load() != 1 {
		t.Errorf("members ran a=%d b=%d, want 1 each", a.Load(), b.Load())
	}

	members, isAlias := o.AliasMembers("build")
	if !isAlias || strings.Join(members, ",") != "a,b" {
		t.Errorf("AliasMembers = %v, %v", members, isAlias)
	}
}

func TestAliasRunsMembersInParallel(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	sleep := func(context.Context) error {
		time.Sleep(150 * time.Millisecond)
		return nil
	}
	o.Register("a", sleep)
	o.Register("b", sleep)
	o.Alias("both", []string{"a", "b"})

	start := time.Now()
	wait(t, o.Run("both"))
	if elapsed := time.Since(start); elapsed > 280*time.Millisecond {
		t.Errorf("alias took %v, members did not run in parallel", elapsed)
	}
}

func TestAliasUnknownMember(t *testing.T) {
	o, out := newTestOrchestrator(t)
	o.Register("a", noop)

	err := o.Alias("build", []string{"a", "missing"})
	if !errors.Is(err, ErrUnknownMember) {
		t.Fatalf("err = %v, want ErrUnknownMember", err)
	}
	if _, ok := o.Task("build"); ok {
		t.Error("alias with unknown member was registered")
	}
	if !strings.Contains(out.String(), "alias build refers to unknown task missing") {
		t.Errorf("unknown member not logged: %q", out.String())
	}
}

func TestUntil(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	release := make(chan struct{})
	o.Register("slow", func(context.Context) error {
		<-release
		return nil
	})

	// В покое — разрешается сразу.
	select {
	case <-o.Until("slow").Done():
	case <-time.After(time.Second):
		t.Fatal("Until on idle task did not resolve immediately")
	}

	exec := o.Run("slow")
	until := o.Until("slow")

	select {
	case <-until.Done():
		t.Fatal("Until resolved while task is running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	if ok, _ := wait(t, until); !ok {
		t.Error("Until should resolve true")
	}
	if tk, _ := o.Task("slow"); tk.Pending() != 0 {
		t.Errorf("pending = %d after Until", tk.Pending())
	}
	wait(t, exec)
}

func TestNames(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	o.Register("b", noop)
	o.Register("a", noop)
	o.Alias("all", []string{"a", "b"})

	if got := strings.Join(o.Names(), ","); got != "a,all,b" {
		t.Errorf("Names = %s", got)
	}
}

func TestStart(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	var mu sync.Mutex
	var order []string
	record := func(name string, err error) task.Func {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return err
		}
	}
	o.Register("clean", record("clean", nil))
	o.Register("build", record("build", errors.New("broken")))
	o.Register("dev", record("dev", nil))

	ok, err := o.Start(context.Background(), "dev", "clean", "build", "ghost")
	if err != nil || ok {
		t.Errorf("Start = %v, %v; want false, nil", ok, err)
	}
	if got := strings.Join(order, ","); got != "clean,build" {
		t.Errorf("order = %s", got)
	}

	order = nil
	ok, err = o.Start(context.Background(), "dev")
	if err != nil || !ok || strings.Join(order, ",") != "dev" {
		t.Errorf("default run = %v, %v, %v", ok, err, order)
	}
}

func TestDebounce(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	var calls atomic.Int32
	call := Debounce(o, func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}, 30*time.Millisecond)

	f1, f2, f3 := call(), call(), call()
	if f1 != f2 || f2 != f3 {
		t.Error("calls within the leading wait should share a future")
	}
	if v, err := wait(t, f1); v != 1 || err != nil {
		t.Errorf("result = %d, %v", v, err)
	}

	fn := o.DebounceFunc(func(context.Context) error { return errors.New("copy failed") }, 10*time.Millisecond)
	ok, err := wait(t, fn())
	if ok || err == nil {
		t.Errorf("DebounceFunc = %v, %v; want false with error", ok, err)
	}
}

func TestServe(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	out := filepath.Join(o.FS().Cwd, "out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(out, "index.html"), []byte("<main>app</main>"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv, err := o.Serve("./out", 0,
		reload.WithHost("127.0.0.1"),
		reload.WithReload(true),
		reload.WithReloadPort(0),
		reload.WithFallback("index.html"),
	)
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/missing.html")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	want := `<main>app</main><script src="/__reload-client.js"></script>`
	if string(body) != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestExecAndHash(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	res, err := o.Exec(context.Background(), "echo kiln", shell.Options{})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if res.Stdout != "kiln" {
		t.Errorf("stdout = %q", res.Stdout)
	}

	h, err := o.Hash("hello world", fsx.AlgoMD5, fsx.EncodingHex)
	if err != nil || h != "5eb63bbbe01eeed093cb22bb8f5acdc3" {
		t.Errorf("Hash = %q, %v", h, err)
	}
}

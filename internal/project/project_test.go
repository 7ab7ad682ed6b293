package project

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/Kiln/internal/config"
	"github.com/shaiso/Kiln/internal/fsx"
)

const projectTOML = `
default = "build"

[tasks.stamp]
type = "write"
config = { path = "out/stamp.txt", content = "{{ .Task }}\n", append = true }

[tasks.copy]
type = "copy"
config = { from = ["src/*.txt"], to = "out", base = "src" }

[tasks.boom]
type = "exec"
config = { command = "exit 3" }

[aliases]
build = ["stamp", "copy"]
all = ["build", "boom"]
`

func newTestProject(t *testing.T, data string) (*Project, string) {
	t.Helper()
	f, err := config.Parse([]byte(data), ".toml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	dir := t.TempDir()
	p, err := Build(f, Deps{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		FS:     fsx.New(dir),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p, dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuild_RegistersTasksAndAliases(t *testing.T) {
	p, _ := newTestProject(t, projectTOML)

	want := []string{"all", "boom", "build", "copy", "stamp"}
	got := p.Orchestrator().Names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("names = %v, want %v", got, want)
	}

	members, ok := p.Orchestrator().AliasMembers("all")
	if !ok || strings.Join(members, ",") != "build,boom" {
		t.Errorf("all members = %v, %v", members, ok)
	}
}

func TestBuild_InvalidFile(t *testing.T) {
	f, err := config.Parse([]byte(`
[tasks.a]
type = "nope"
`), ".toml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Build(f, Deps{FS: fsx.New(t.TempDir())}); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("error = %v, want ErrInvalid", err)
	}
}

func TestRun_DefaultAlias(t *testing.T) {
	p, dir := newTestProject(t, projectTOML)
	writeFile(t, filepath.Join(dir, "src", "a.txt"), "alpha")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ok, err := p.Run(ctx)
	if err != nil || !ok {
		t.Fatalf("Run() = %v, %v", ok, err)
	}

	stamp, err := os.ReadFile(filepath.Join(dir, "out", "stamp.txt"))
	if err != nil || string(stamp) != "stamp\n" {
		t.Errorf("stamp = %q, %v", stamp, err)
	}
	copied, err := os.ReadFile(filepath.Join(dir, "out", "a.txt"))
	if err != nil || string(copied) != "alpha" {
		t.Errorf("copied = %q, %v", copied, err)
	}
}

func TestRun_FailureReported(t *testing.T) {
	p, _ := newTestProject(t, projectTOML)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ok, err := p.Run(ctx, "stamp", "boom")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ok {
		t.Error("Run() = true, want false when a task fails")
	}
}

func TestEntries(t *testing.T) {
	p, _ := newTestProject(t, projectTOML)

	entries := p.Entries()
	if len(entries) != 5 {
		t.Fatalf("len(entries) = %d, want 5", len(entries))
	}

	byName := map[string]Entry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	if e := byName["build"]; e.Kind != KindAlias || !e.Default || len(e.Members) != 2 {
		t.Errorf("build = %+v", e)
	}
	if e := byName["stamp"]; e.Kind != KindTask || e.Type != "write" || e.Default {
		t.Errorf("stamp = %+v", e)
	}
}

const watchTOML = `
[tasks.stamp]
type = "write"
watch = ["src/**/*.txt"]
coalesce_ms = 0
config = { path = "out/stamp.txt", content = "x", append = true }
`

func TestWatch_RunsOnChange(t *testing.T) {
	p, dir := newTestProject(t, watchTOML)
	writeFile(t, filepath.Join(dir, "src", "a.txt"), "one")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Watch(ctx) }()

	stampPath := filepath.Join(dir, "out", "stamp.txt")
	waitFor(t, func() bool {
		data, _ := os.ReadFile(stampPath)
		return len(data) >= 1
	})

	before, _ := os.ReadFile(stampPath)
	writeFile(t, filepath.Join(dir, "src", "a.txt"), "two")

	waitFor(t, func() bool {
		data, _ := os.ReadFile(stampPath)
		return len(data) > len(before)
	})

	if p.Server() != nil {
		t.Error("Server() should be nil without a serve section")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}


package fsx

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func newTestFS(t *testing.T) *FS {
	t.Helper()
	return New(t.TempDir())
}

func mustWrite(t *testing.T, f *FS, path, data string) {
	t.Helper()
	if err := f.Write(path, []byte(data)); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// --- Exists / Read / Write ---

func TestFS_Exists(t *testing.T) {
	f := newTestFS(t)
	mustWrite(t, f, "dir/file.txt", "x")

	tests := []struct {
		path string
		want Kind
	}{
		{"dir/file.txt", KindFile},
		{"dir", KindDir},
		{"missing.txt", KindAbsent},
		{filepath.Join(f.Cwd, "dir", "file.txt"), KindFile},
	}

	for _, tt := range tests {
		got, err := f.Exists(tt.path)
		if err != nil {
			t.Fatalf("Exists(%s): %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("Exists(%s) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestFS_WriteCreatesDirsAndReadsBack(t *testing.T) {
	f := newTestFS(t)
	mustWrite(t, f, "a/b/c.txt", "hello")

	got, err := f.Read("a/b/c.txt")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "hello" {
		t.Errorf("expected hello, got %q", got)
	}
}

func TestFS_Edit(t *testing.T) {
	f := newTestFS(t)
	mustWrite(t, f, "index.html", "<script src=\"__JS_HASH__.js\">")

	err := f.Edit("index.html", func(s string) (string, error) {
		return strings.Replace(s, "__JS_HASH__", "abc", 1), nil
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	got, _ := f.Read("index.html")
	if got != "<script src=\"abc.js\">" {
		t.Errorf("unexpected edit result %q", got)
	}
}

func TestFS_EditError(t *testing.T) {
	f := newTestFS(t)
	mustWrite(t, f, "x.txt", "keep")
	boom := errors.New("boom")

	if err := f.Edit("x.txt", func(string) (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped edit error, got %v", err)
	}
	if got, _ := f.Read("x.txt"); got != "keep" {
		t.Error("failed edit must not overwrite the file")
	}
}

func TestFS_CopyDirectory(t *testing.T) {
	f := newTestFS(t)
	mustWrite(t, f, "src/a.txt", "a")
	mustWrite(t, f, "src/nested/b.txt", "b")
	mustWrite(t, f, "build/a.txt", "old")

	if err := f.Copy("src", "build"); err != nil {
		t.Fatalf("copy: %v", err)
	}

	for path, want := range map[string]string{"build/a.txt": "a", "build/nested/b.txt": "b"} {
		got, err := f.Read(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
}

func TestFS_CopySameFile(t *testing.T) {
	f := newTestFS(t)
	mustWrite(t, f, "src/x.txt", "precious")

	for _, target := range []string{"src/x.txt", "build/../src/x.txt", f.Resolve("src/x.txt")} {
		if err := f.Copy("src/x.txt", target); !errors.Is(err, ErrSameFile) {
			t.Errorf("Copy(src/x.txt, %s) error = %v, want ErrSameFile", target, err)
		}
	}

	if got, _ := f.Read("src/x.txt"); got != "precious" {
		t.Errorf("src/x.txt = %q, want untouched", got)
	}
}

func TestFS_RemoveAndRename(t *testing.T) {
	f := newTestFS(t)
	mustWrite(t, f, "a.txt", "a")

	if err := f.Rename("a.txt", "b.txt"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if kind, _ := f.Exists("b.txt"); kind != KindFile {
		t.Error("renamed file should exist")
	}
	if err := f.Remove("b.txt"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := f.Remove("never-existed"); err != nil {
		t.Errorf("removing an absent path should not fail: %v", err)
	}
}

func TestFS_CreateTempDir(t *testing.T) {
	f := newTestFS(t)
	dir, err := f.CreateTempDir()
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	if !strings.HasPrefix(filepath.Base(dir), "kiln-") {
		t.Errorf("temp dir should have kiln- prefix, got %s", dir)
	}
}

// --- List ---

func TestFS_List(t *testing.T) {
	f := newTestFS(t)
	mustWrite(t, f, "src/index.ts", "")
	mustWrite(t, f, "src/app/view.tsx", "")
	mustWrite(t, f, "src/logo.png", "")
	mustWrite(t, f, "src/.hidden/x.ts", "")

	tests := []struct {
		name     string
		patterns []string
		opts     ListOptions
		want     []string
	}{
		{
			name:     "recursive",
			patterns: []string{"./src/**/*.ts"},
			want:     []string{"src/.hidden/x.ts", "src/index.ts"},
		},
		{
			name:     "negation",
			patterns: []string{"src/**/*.*", "!**/*.{ts,tsx}"},
			opts:     ListOptions{OnlyFiles: true},
			want:     []string{"src/logo.png"},
		},
		{
			name:     "only dirs",
			patterns: []string{"src/*"},
			opts:     ListOptions{OnlyDirs: true},
			want:     []string{"src/.hidden", "src/app"},
		},
		{
			name:     "unique",
			patterns: []string{"src/*.ts", "src/index.*"},
			opts:     ListOptions{OnlyFiles: true},
			want:     []string{"src/index.ts"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.List(tt.patterns, tt.opts)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFS_List_InvalidPattern(t *testing.T) {
	f := newTestFS(t)
	if _, err := f.List([]string{"src/[a"}, ListOptions{}); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("expected ErrInvalidPattern, got %v", err)
	}
}

func TestMatches(t *testing.T) {
	patterns := []string{"src/**/*.ts", "!src/vendor/**"}

	if !Matches(patterns, "src/a/b.ts") {
		t.Error("expected src/a/b.ts to match")
	}
	if Matches(patterns, "src/vendor/lib.ts") {
		t.Error("excluded path should not match")
	}
	if Matches(patterns, "src/a/b.css") {
		t.Error("other extension should not match")
	}
}

// --- Hash ---

func TestHashText(t *testing.T) {
	tests := []struct {
		algo, enc, want string
	}{
		{AlgoMD5, EncodingHex, "5d41402abc4b2a76b9719d911017c592"},
		{"", "", "XUFAKrxLKna5cZ2REBfFkg=="},
		{AlgoSHA1, EncodingHex, "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d"},
	}

	for _, tt := range tests {
		got, err := HashText("hello", tt.algo, tt.enc)
		if err != nil {
			t.Fatalf("hash %s/%s: %v", tt.algo, tt.enc, err)
		}
		if got != tt.want {
			t.Errorf("hash %s/%s = %s, want %s", tt.algo, tt.enc, got, tt.want)
		}
	}

	if _, err := HashText("x", "crc32", ""); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
	if _, err := HashText("x", "", "base32"); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("expected ErrUnsupportedEncoding, got %v", err)
	}
}

func TestFS_HashFileMatchesText(t *testing.T) {
	f := newTestFS(t)
	mustWrite(t, f, "build/index.js", "hello")

	got, err := f.Hash("build/index.js", AlgoMD5, EncodingHex)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if got != "5d41402abc4b2a76b9719d911017c592" {
		t.Errorf("unexpected file hash %s", got)
	}
}

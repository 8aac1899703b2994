package propyaml

import (
	"bytes"
	"context"
	"errors"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yacchi/propyaml/document"
	"github.com/yacchi/propyaml/flatmap"
	"github.com/yacchi/propyaml/format"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	return string(b)
}

func pairs(m *flatmap.Map) []string {
	var out []string
	for k, v := range m.All() {
		out = append(out, k, v)
	}
	return out
}

func TestConvertPropertiesToYAML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  []Option
		want  string
	}{
		{
			name:  "nested keys",
			input: "server.port=8080\nserver.host=localhost\n",
			want:  "server:\n  port: \"8080\"\n  host: localhost\n",
		},
		{
			name:  "deep nesting",
			input: "a.b.c=1\na.b.d=2\n",
			want:  "a:\n  b:\n    c: \"1\"\n    d: \"2\"\n",
		},
		{
			name:  "empty file",
			input: "",
			want:  "{}\n",
		},
		{
			name:  "comments only",
			input: "# nothing\n! here\n",
			want:  "{}\n",
		},
		{
			name:  "sorted keys",
			input: "b=2\na.y=1\na.x=0\n",
			opts:  []Option{WithSortedKeys(true)},
			want:  "a:\n  x: \"0\"\n  y: \"1\"\nb: \"2\"\n",
		},
		{
			name:  "indent",
			input: "a.b=c\n",
			opts:  []Option{WithIndent(4)},
			want:  "a:\n    b: c\n",
		},
		{
			name:  "unicode escapes decoded",
			input: "name=caf\\u00e9\n",
			want:  "name: café\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "app.properties", tt.input)
			got, err := New(tt.opts...).ConvertPropertiesToYAML(context.Background(), path)
			if err != nil {
				t.Fatalf("ConvertPropertiesToYAML() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, string(got)); diff != "" {
				t.Errorf("ConvertPropertiesToYAML() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConvertPropertiesToYAML_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("collision", func(t *testing.T) {
		path := writeFile(t, dir, "collide.properties", "a=x\na.b=y\n")
		_, err := New().ConvertPropertiesToYAML(context.Background(), path)
		var ce *document.CollisionError
		if !errors.As(err, &ce) {
			t.Fatalf("ConvertPropertiesToYAML() error = %v, want *document.CollisionError", err)
		}
		if ce.Key != "a.b" || ce.Conflict != "a" {
			t.Errorf("CollisionError = {%q, %q}, want {a.b, a}", ce.Key, ce.Conflict)
		}
	})

	t.Run("parse error carries path", func(t *testing.T) {
		path := writeFile(t, dir, "bad.properties", "ok=1\nbad=\\u00g1\n")
		_, err := New().ConvertPropertiesToYAML(context.Background(), path)
		var pe *document.ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("ConvertPropertiesToYAML() error = %v, want *document.ParseError", err)
		}
		if pe.Path != path || pe.Line != 2 {
			t.Errorf("ParseError at %s:%d, want %s:2", pe.Path, pe.Line, path)
		}
	})

	t.Run("invalid key", func(t *testing.T) {
		path := writeFile(t, dir, "invalid.properties", "a..b=1\n")
		_, err := New().ConvertPropertiesToYAML(context.Background(), path)
		var ike *document.InvalidKeyError
		if !errors.As(err, &ike) {
			t.Fatalf("ConvertPropertiesToYAML() error = %v, want *document.InvalidKeyError", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := New().ConvertPropertiesToYAML(context.Background(), filepath.Join(dir, "missing.properties"))
		var ioErr *document.IOError
		if !errors.As(err, &ioErr) {
			t.Fatalf("ConvertPropertiesToYAML() error = %v, want *document.IOError", err)
		}
		if !errors.Is(err, iofs.ErrNotExist) {
			t.Errorf("errors.Is(err, fs.ErrNotExist) = false for %v", err)
		}
	})
}

func TestConvertYAMLToProperties(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  []Option
		want  []string
	}{
		{
			name:  "flatten nested",
			input: "server:\n  port: 8080\n  host: localhost\n",
			want:  []string{"server.port", "8080", "server.host", "localhost"},
		},
		{
			name:  "empty mapping dropped",
			input: "a: {}\nb: 1\n",
			want:  []string{"b", "1"},
		},
		{
			name:  "null becomes empty",
			input: "a:\n",
			want:  []string{"a", ""},
		},
		{
			name:  "empty document",
			input: "",
			want:  nil,
		},
		{
			name:  "flow sequence policy",
			input: "list: [1, 2, 3]\n",
			opts:  []Option{WithSequencePolicy(SequenceFlow)},
			want:  []string{"list", "[1, 2, 3]"},
		},
		{
			name:  "block sequence rendered as flow",
			input: "hosts:\n  - a\n  - b\n",
			opts:  []Option{WithSequencePolicy(SequenceFlow)},
			want:  []string{"hosts", "[a, b]"},
		},
		{
			name:  "flow sequence keeps quoted strings and nulls",
			input: "ports: [\"8080\", ~, 'a b']\n",
			opts:  []Option{WithSequencePolicy(SequenceFlow)},
			want:  []string{"ports", `["8080", null, a b]`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "app.yml", tt.input)
			got, err := New(tt.opts...).ConvertYAMLToProperties(context.Background(), path)
			if err != nil {
				t.Fatalf("ConvertYAMLToProperties() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, pairs(got)); diff != "" {
				t.Errorf("ConvertYAMLToProperties() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConvertYAMLToProperties_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("sequence rejected", func(t *testing.T) {
		path := writeFile(t, dir, "list.yml", "list: [1, 2, 3]\n")
		_, err := New().ConvertYAMLToProperties(context.Background(), path)
		var uve *document.UnsupportedValueError
		if !errors.As(err, &uve) {
			t.Fatalf("ConvertYAMLToProperties() error = %v, want *document.UnsupportedValueError", err)
		}
		if uve.Key != "list" || uve.Type != "sequence" {
			t.Errorf("UnsupportedValueError = {%q, %q}, want {list, sequence}", uve.Key, uve.Type)
		}
	})

	t.Run("scalar root", func(t *testing.T) {
		path := writeFile(t, dir, "text.yml", "just text\n")
		_, err := New().ConvertYAMLToProperties(context.Background(), path)
		var pe *document.ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("ConvertYAMLToProperties() error = %v, want *document.ParseError", err)
		}
		if pe.Path != path {
			t.Errorf("Path = %q, want %q", pe.Path, path)
		}
	})

	t.Run("dotted key collides with nested key", func(t *testing.T) {
		path := writeFile(t, dir, "dup.yml", "a.b: 1\na:\n  b: 2\n")
		_, err := New().ConvertYAMLToProperties(context.Background(), path)
		var ce *document.CollisionError
		if !errors.As(err, &ce) {
			t.Fatalf("ConvertYAMLToProperties() error = %v, want *document.CollisionError", err)
		}
	})
}

func TestSavePropertiesToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "app.properties")
	m := flatmap.FromPairs("server.port", "8080", "greeting", "héllo")

	if err := New().SavePropertiesToFile(context.Background(), m, path); err != nil {
		t.Fatalf("SavePropertiesToFile() error = %v", err)
	}
	want := "#Generated from YAML\nserver.port=8080\ngreeting=h\\u00E9llo\n"
	if diff := cmp.Diff(want, readFile(t, path)); diff != "" {
		t.Errorf("file mismatch (-want +got):\n%s", diff)
	}

	if err := New(WithHeader(""), WithEscapeUnicode(false), WithSortedKeys(true)).SavePropertiesToFile(context.Background(), m, path); err != nil {
		t.Fatalf("SavePropertiesToFile() error = %v", err)
	}
	want = "greeting=héllo\nserver.port=8080\n"
	if diff := cmp.Diff(want, readFile(t, path)); diff != "" {
		t.Errorf("file mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveYAMLToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "app.yml")

	if err := New().SaveYAMLToFile(context.Background(), []byte("a: b\n"), path); err != nil {
		t.Fatalf("SaveYAMLToFile() error = %v", err)
	}
	if got := readFile(t, path); got != "a: b\n" {
		t.Errorf("content = %q, want %q", got, "a: b\n")
	}

	// A regular file in place of the parent directory cannot be written through.
	blocker := writeFile(t, dir, "blocker", "x")
	err := New().SaveYAMLToFile(context.Background(), []byte("a: b\n"), filepath.Join(blocker, "app.yml"))
	var ioErr *document.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("SaveYAMLToFile() error = %v, want *document.IOError", err)
	}
}

func TestConvertFile_Modes(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}
	dir := t.TempDir()
	src := writeFile(t, dir, "app.properties", "a=1\n")
	dst := filepath.Join(dir, "out", "nested", "app.yml")

	conv := New(WithFileMode(0o600), WithDirMode(0o700))
	if _, err := conv.ConvertFile(context.Background(), src, dst); err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}

	st, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if got := st.Mode().Perm(); got != 0o600 {
		t.Errorf("file mode = %o, want %o", got, 0o600)
	}
	for _, d := range []string{filepath.Join(dir, "out"), filepath.Dir(dst)} {
		st, err := os.Stat(d)
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if got := st.Mode().Perm(); got != 0o700 {
			t.Errorf("dir mode of %s = %o, want %o", d, got, 0o700)
		}
	}
}

func TestConvertFile_DefaultOutputPath(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "app.properties", "server.port=8080\n")

	out, err := New().ConvertFile(context.Background(), src, "")
	if err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}
	if want := filepath.Join(dir, "app.yml"); out != want {
		t.Errorf("ConvertFile() = %q, want %q", out, want)
	}
	if got := readFile(t, out); got != "server:\n  port: \"8080\"\n" {
		t.Errorf("content = %q", got)
	}
}

func TestConvertFile_Idempotent(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "app.properties", strings.Join([]string{
		"# application settings",
		"server.port=8080",
		"server.host=localhost",
		"feature.enabled=true",
		"feature.name=caf\\u00e9",
		"empty=",
		"path=c:\\\\data",
		"",
	}, "\n"))
	conv := New()
	ctx := context.Background()

	yml1, err := conv.ConvertFile(ctx, src, filepath.Join(dir, "1", "app.yml"))
	if err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}
	props1, err := conv.ConvertFile(ctx, yml1, filepath.Join(dir, "2", "app.properties"))
	if err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}
	yml2, err := conv.ConvertFile(ctx, props1, filepath.Join(dir, "3", "app.yml"))
	if err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}
	props2, err := conv.ConvertFile(ctx, yml2, filepath.Join(dir, "4", "app.properties"))
	if err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}

	if diff := cmp.Diff(readFile(t, yml1), readFile(t, yml2)); diff != "" {
		t.Errorf("YAML output not idempotent (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(readFile(t, props1), readFile(t, props2)); diff != "" {
		t.Errorf("properties output not idempotent (-first +second):\n%s", diff)
	}
}

func TestConvertFile_WriteAfterSuccess(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	src := writeFile(t, dir, "app.properties", "a=x\na.b=y\n")
	dst := writeFile(t, dir, "app.yml", "previous: content\n")

	if _, err := New().ConvertFile(ctx, src, ""); err == nil {
		t.Fatal("ConvertFile() error = nil, want collision")
	}
	if got := readFile(t, dst); got != "previous: content\n" {
		t.Errorf("existing output modified on failure: %q", got)
	}

	fresh := filepath.Join(dir, "fresh", "app.yml")
	if _, err := New().ConvertFile(ctx, src, fresh); err == nil {
		t.Fatal("ConvertFile() error = nil, want collision")
	}
	if _, err := os.Stat(filepath.Dir(fresh)); !os.IsNotExist(err) {
		t.Errorf("output directory created on failure (stat error = %v)", err)
	}
}

func TestConvertFile_Errors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	_, err := New().ConvertFile(ctx, writeFile(t, dir, "notes.txt", "x"), "")
	var ufe *document.UnsupportedFormatError
	if !errors.As(err, &ufe) {
		t.Fatalf("ConvertFile() error = %v, want *document.UnsupportedFormatError", err)
	}

	src := writeFile(t, dir, "app.properties", "a=1\n")
	if _, err := New().ConvertFile(ctx, src, filepath.Join(dir, "out.properties")); err == nil {
		t.Fatal("ConvertFile() error = nil, want error for mismatched output extension")
	}
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "app.yaml", "server:\n  port: 8080\n")

	res, err := New().Render(context.Background(), src)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if res.From != format.YAML || res.To != format.Properties {
		t.Errorf("Render() formats = %v -> %v", res.From, res.To)
	}
	if res.Entries != 1 {
		t.Errorf("Entries = %d, want 1", res.Entries)
	}
	if got := string(res.Data); got != "#Generated from YAML\nserver.port=8080\n" {
		t.Errorf("Data = %q", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Render() wrote files: %d entries in dir", len(entries))
	}
}

func TestConverter_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	conv := New(WithLogger(logger))
	dir := t.TempDir()

	src := writeFile(t, dir, "app.properties", "a.b=1\n")
	if _, err := conv.ConvertFile(context.Background(), src, ""); err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}
	if !strings.Contains(buf.String(), "msg=\"converted file\"") || !strings.Contains(buf.String(), "entries=1") {
		t.Errorf("debug log missing conversion record:\n%s", buf.String())
	}

	buf.Reset()
	bad := writeFile(t, dir, "bad.properties", "a=x\na.b=y\n")
	if _, err := conv.ConvertFile(context.Background(), bad, ""); err == nil {
		t.Fatal("ConvertFile() error = nil, want collision")
	}
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("failure not logged at WARN:\n%s", buf.String())
	}
}

func TestParseSequencePolicy(t *testing.T) {
	for _, p := range []SequencePolicy{SequenceReject, SequenceFlow} {
		got, err := ParseSequencePolicy(p.String())
		if err != nil {
			t.Fatalf("ParseSequencePolicy(%q) error = %v", p, err)
		}
		if got != p {
			t.Errorf("ParseSequencePolicy(%q) = %v", p, got)
		}
	}
	if _, err := ParseSequencePolicy("explode"); err == nil {
		t.Error("ParseSequencePolicy(explode) error = nil, want error")
	}
}

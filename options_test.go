package docserve

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func nopBuilder() Builder {
	return BuilderFunc(func(context.Context, Selection) error { return nil })
}

func TestNew_Valid(t *testing.T) {
	ds, err := New(
		WithBuilder(nopBuilder()),
		WithDocDir(t.TempDir()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if ds == nil {
		t.Fatal("New() returned nil")
	}
}

func TestNew_MissingBuilder(t *testing.T) {
	_, err := New(WithDocDir(t.TempDir()))
	if err == nil {
		t.Error("New() without builder should return error")
	}
}

func TestNew_MissingDocDir(t *testing.T) {
	_, err := New(WithBuilder(nopBuilder()))
	if err == nil {
		t.Error("New() without doc dir should return error")
	}
}

func TestNew_UnitsAndLoaderExclusive(t *testing.T) {
	u, _ := NewUnit("core", KindLibrary)
	loader := func(context.Context) ([]Unit, error) { return nil, nil }

	_, err := New(
		WithBuilder(nopBuilder()),
		WithDocDir(t.TempDir()),
		WithUnits(u),
		WithUnitLoader(loader),
	)
	if err == nil {
		t.Error("New() with both units and loader should return error")
	}
}

func TestNew_Defaults(t *testing.T) {
	ds, err := New(
		WithBuilder(nopBuilder()),
		WithDocDir(t.TempDir()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if ds.Addr() != "127.0.0.1:8000" {
		t.Errorf("Addr() = %q, want %q", ds.Addr(), "127.0.0.1:8000")
	}
	if ds.debounce != 500*time.Millisecond {
		t.Errorf("debounce = %v, want 500ms", ds.debounce)
	}
	if ds.grace != 5*time.Second {
		t.Errorf("grace = %v, want 5s", ds.grace)
	}
	if ds.Watching() {
		t.Error("Watching() should be false by default")
	}
}

func TestWithDocDir_MadeAbsolute(t *testing.T) {
	ds, err := New(
		WithBuilder(nopBuilder()),
		WithDocDir("target/doc"),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if !filepath.IsAbs(ds.DocDir()) {
		t.Errorf("DocDir() = %q, want absolute path", ds.DocDir())
	}
	if filepath.Base(ds.DocDir()) != "doc" {
		t.Errorf("DocDir() = %q, want suffix target/doc", ds.DocDir())
	}
}

func TestWithAddr(t *testing.T) {
	ds, err := New(
		WithBuilder(nopBuilder()),
		WithDocDir(t.TempDir()),
		WithAddr("0.0.0.0:9090"),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if ds.Addr() != "0.0.0.0:9090" {
		t.Errorf("Addr() = %q, want %q", ds.Addr(), "0.0.0.0:9090")
	}
}

func TestWithAddr_Invalid(t *testing.T) {
	tests := []string{"", "8000", "localhost"}

	for _, addr := range tests {
		t.Run(addr, func(t *testing.T) {
			_, err := New(
				WithBuilder(nopBuilder()),
				WithDocDir(t.TempDir()),
				WithAddr(addr),
			)
			if err == nil {
				t.Errorf("WithAddr(%q) should return error", addr)
			}
		})
	}
}

func TestWithDurations_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero debounce", WithDebounce(0)},
		{"negative debounce", WithDebounce(-time.Second)},
		{"zero grace", WithShutdownGrace(0)},
		{"negative grace", WithShutdownGrace(-time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(
				WithBuilder(nopBuilder()),
				WithDocDir(t.TempDir()),
				tt.opt,
			)
			if err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWithNilArguments(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"builder", WithBuilder(nil)},
		{"loader", WithUnitLoader(nil)},
		{"logger", WithLogger(nil)},
		{"empty watch dir", WithWatch("")},
		{"empty doc dir", WithDocDir("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opt(&dsConfig{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWithWatch(t *testing.T) {
	ds, err := New(
		WithBuilder(nopBuilder()),
		WithDocDir(t.TempDir()),
		WithWatch("."),
		WithDebounce(time.Second),
		WithIgnore("target", "node_modules"),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if !ds.Watching() {
		t.Error("Watching() should be true")
	}
	if ds.debounce != time.Second {
		t.Errorf("debounce = %v, want 1s", ds.debounce)
	}
	if len(ds.ignore) != 2 {
		t.Errorf("ignore = %v, want 2 entries", ds.ignore)
	}
}

func TestUnits_Immutability(t *testing.T) {
	u1, _ := NewUnit("core", KindLibrary)
	u2, _ := NewUnit("cli", KindBinary)

	ds, err := New(
		WithBuilder(nopBuilder()),
		WithDocDir(t.TempDir()),
		WithUnits(u1, u2),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	units := ds.Units()
	units[0] = u2

	if ds.Units()[0].Name() != "core" {
		t.Error("modifying returned slice should not affect DocServe")
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ds, err := New(
		WithBuilder(nopBuilder()),
		WithDocDir(t.TempDir()),
		WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if ds.logger != logger {
		t.Error("logger was not set correctly")
	}
}

func TestWithLogger_DefaultsToSlogDefault(t *testing.T) {
	ds, err := New(
		WithBuilder(nopBuilder()),
		WithDocDir(t.TempDir()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if ds.logger != slog.Default() {
		t.Error("logger should default to slog.Default()")
	}
}

func TestWithStateCallback_NilIgnored(t *testing.T) {
	ds, err := New(
		WithBuilder(nopBuilder()),
		WithDocDir(t.TempDir()),
		WithStateCallback(nil),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(ds.stateCallbacks) != 0 {
		t.Errorf("stateCallbacks = %d, want 0", len(ds.stateCallbacks))
	}
}

func TestWithIgnore_Defaults(t *testing.T) {
	ds, err := New(
		WithBuilder(nopBuilder()),
		WithDocDir(t.TempDir()),
		WithWatch("."),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := []string{"target", "vendor", "node_modules"}
	if len(ds.ignore) != len(want) {
		t.Fatalf("ignore = %v, want %v", ds.ignore, want)
	}
	for i := range want {
		if ds.ignore[i] != want[i] {
			t.Errorf("ignore[%d] = %q, want %q", i, ds.ignore[i], want[i])
		}
	}
}

func TestWithIgnore_EmptyDisablesDefaults(t *testing.T) {
	ds, err := New(
		WithBuilder(nopBuilder()),
		WithDocDir(t.TempDir()),
		WithWatch("."),
		WithIgnore(),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(ds.ignore) != 0 {
		t.Errorf("ignore = %v, want empty", ds.ignore)
	}
}

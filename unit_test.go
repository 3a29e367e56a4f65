package docserve

import "testing"

func TestNewUnit_Valid(t *testing.T) {
	u, err := NewUnit("core", KindLibrary)
	if err != nil {
		t.Fatalf("NewUnit() error = %v", err)
	}

	if u.Name() != "core" {
		t.Errorf("Name() = %q, want %q", u.Name(), "core")
	}
	if u.Kind() != KindLibrary {
		t.Errorf("Kind() = %q, want %q", u.Kind(), KindLibrary)
	}
	if u.Path() != "core" {
		t.Errorf("Path() = %q, want default %q", u.Path(), "core")
	}
}

func TestNewUnit_EmptyName(t *testing.T) {
	_, err := NewUnit("", KindLibrary)
	if err == nil {
		t.Error("NewUnit() with empty name should return error")
	}
}

func TestNewUnit_InvalidKind(t *testing.T) {
	tests := []Kind{"", "proc-macro", "LIB"}

	for _, kind := range tests {
		t.Run(string(kind), func(t *testing.T) {
			_, err := NewUnit("core", kind)
			if err == nil {
				t.Errorf("NewUnit() with kind %q should return error", kind)
			}
		})
	}
}

func TestWithPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"simple", "core_lib", "core_lib"},
		{"nested", "api/v1", "api/v1"},
		{"cleaned", "api/./v1/", "api/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewUnit("core", KindBinary, WithPath(tt.path))
			if err != nil {
				t.Fatalf("NewUnit() error = %v", err)
			}
			if u.Path() != tt.want {
				t.Errorf("Path() = %q, want %q", u.Path(), tt.want)
			}
		})
	}
}

func TestWithPath_Invalid(t *testing.T) {
	tests := []string{"", "/abs/path", "../outside", "a/../../b"}

	for _, p := range tests {
		t.Run(p, func(t *testing.T) {
			_, err := NewUnit("core", KindLibrary, WithPath(p))
			if err == nil {
				t.Errorf("WithPath(%q) should return error", p)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"lib", "bin"} {
		k, err := ParseKind(s)
		if err != nil {
			t.Errorf("ParseKind(%q) error = %v", s, err)
		}
		if k.String() != s {
			t.Errorf("ParseKind(%q) = %q", s, k)
		}
	}

	if _, err := ParseKind("example"); err == nil {
		t.Error("ParseKind(\"example\") should return error")
	}
}

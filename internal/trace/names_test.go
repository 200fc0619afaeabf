package trace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNameTableLookup(t *testing.T) {
	names := NewNameTable(map[string]string{"42": "EspNow.SendBeacon"})
	if name, ok := names.Lookup(42); !ok || name != "EspNow.SendBeacon" {
		t.Fatalf("Lookup(42) = %q, %v", name, ok)
	}
	if _, ok := names.Lookup(7); ok {
		t.Fatal("Lookup(7) found a name for an unmapped id")
	}
}

func TestNameTableNilIsSafe(t *testing.T) {
	var names *NameTable
	if _, ok := names.Lookup(1); ok {
		t.Fatal("nil table resolved an id")
	}
	if got := names.Resolve("span:1"); got != "span:1" {
		t.Fatalf("nil table rewrote reference: %q", got)
	}
}

func TestNameTableResolve(t *testing.T) {
	names := NewNameTable(map[string]string{"42": "EspNow.SendBeacon"})
	cases := []struct{ in, want string }{
		{"span:42", "EspNow.SendBeacon"},
		{"span:99", "span:99"},
		{"Running", "Running"},
	}
	for _, tc := range cases {
		if got := names.Resolve(tc.in); got != tc.want {
			t.Fatalf("Resolve(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLoadNameTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.json")
	if err := os.WriteFile(path, []byte(`{"42": "EspNow.SendBeacon"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	names, err := LoadNameTable(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if name, ok := names.Lookup(42); !ok || name != "EspNow.SendBeacon" {
		t.Fatalf("Lookup(42) = %q, %v", name, ok)
	}
}

func TestLoadNameTableErrors(t *testing.T) {
	if _, err := LoadNameTable(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "names.json")
	if err := os.WriteFile(path, []byte(`["not", "an", "object"]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadNameTable(path); err == nil {
		t.Fatal("expected error for non-object JSON")
	}
}

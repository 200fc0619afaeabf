package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// spanRefPrefix marks a symbolic span name ("span:<decimal id>") that is
// resolved against an external name table at merge time.
const spanRefPrefix = "span:"

// NameTable maps decimal-string span identifiers to display names. A nil
// table is valid and resolves nothing.
type NameTable struct {
	names map[string]string
}

// NewNameTable wraps an id -> name mapping.
func NewNameTable(names map[string]string) *NameTable {
	return &NameTable{names: names}
}

// LoadNameTable reads a flat JSON object of decimal-string ids to names.
func LoadNameTable(path string) (*NameTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("trace: read name table: %w", err)
	}
	names := make(map[string]string)
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("trace: parse name table %s: %w", path, err)
	}
	return &NameTable{names: names}, nil
}

// Lookup resolves a numeric span id to its display name.
func (t *NameTable) Lookup(id uint32) (string, bool) {
	if t == nil {
		return "", false
	}
	name, ok := t.names[strconv.FormatUint(uint64(id), 10)]
	return name, ok
}

// Resolve maps a "span:<id>" reference to its display name, passing
// literal names and unresolvable references through unchanged.
func (t *NameTable) Resolve(name string) string {
	if !strings.HasPrefix(name, spanRefPrefix) {
		return name
	}
	if t == nil {
		return name
	}
	if resolved, ok := t.names[name[len(spanRefPrefix):]]; ok {
		return resolved
	}
	return name
}

package format

import (
	"fmt"
	"strings"

	"github.com/galois26/ais-ingester/internal/model"
)

// lookup walks a dotted path of nested objects and returns the leaf value.
// Absent keys and non-object intermediates are schema mismatches; a present
// key holding null is not.
func lookup(rec model.RawRecord, path string) (any, error) {
	var cur any = map[string]any(rec)
	parts := strings.Split(path, ".")
	for i, p := range parts {
		m, ok := asObject(cur)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not an object", ErrSchemaMismatch, strings.Join(parts[:i], "."))
		}
		v, ok := m[p]
		if !ok {
			return nil, fmt.Errorf("%w: missing field %s", ErrSchemaMismatch, path)
		}
		cur = v
	}
	return cur, nil
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case model.RawRecord:
		return m, true
	default:
		return nil, false
	}
}

// picker copies fields into a row and remembers the first lookup error, so a
// formatter reads as a flat list of assignments.
type picker struct {
	rec model.RawRecord
	row model.Row
	err error
}

func newPicker(rec model.RawRecord, size int) *picker {
	return &picker{rec: rec, row: make(model.Row, size)}
}

// copy sets row[field] from the payload path.
func (p *picker) copy(field, path string) {
	if p.err != nil {
		return
	}
	v, err := lookup(p.rec, path)
	if err != nil {
		p.err = err
		return
	}
	p.row[field] = v
}

// same copies a field whose payload name matches the column name.
func (p *picker) same(fields ...string) {
	for _, f := range fields {
		p.copy(f, f)
	}
}

// set assigns a literal value.
func (p *picker) set(field string, v any) {
	p.row[field] = v
}

// dimensions copies A-D of a Dimension object found at prefix.
func (p *picker) dimensions(prefix string) {
	for _, side := range []string{"A", "B", "C", "D"} {
		p.copy("Dimension"+side, prefix+"Dimension."+side)
	}
}

func (p *picker) zeroDimensions() {
	for _, side := range []string{"A", "B", "C", "D"} {
		p.set("Dimension"+side, 0)
	}
}

func (p *picker) result() (model.Row, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.row, nil
}

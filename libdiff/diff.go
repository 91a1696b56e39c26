// Package libdiff computes the minimal ordered change set between a
// tree's current value and a partial update payload.
//
// Update payloads use merge semantics: map keys absent from the payload
// are untouched, an explicit nil value deletes, and a value whose type
// differs from the current one is a single Replace capturing its whole
// subtree. Changes are emitted in pre-order, parent before children.
package libdiff

import (
	"encoding/json"
	"maps"
	"reflect"
	"slices"

	"github.com/treecell/treecell/cell"
	"github.com/treecell/treecell/debug"
	"github.com/treecell/treecell/keypath"
)

type Options struct {
	// MaxDepth caps recursion; changes at paths deeper than MaxDepth
	// are never emitted. Zero means unlimited.
	MaxDepth int
	// IgnoreArrayOrder compares arrays as multisets instead of
	// sequences.
	IgnoreArrayOrder bool
	// Equal overrides default leaf equality.
	Equal func(a, b any) bool
	// Caps unwraps reactive cells on the current side.
	Caps *cell.Caps
}

// Diff compares current against updates and returns the changes that
// would bring current in line with the payload. A nil payload is empty.
func Diff(current, updates any, opts *Options) []Change {
	if updates == nil {
		return nil
	}
	if opts == nil {
		opts = &Options{}
	}
	d := &differ{opts: opts}
	d.walk(keypath.Path{}, current, updates)
	if debug.Diff() {
		debug.Logf("libdiff: %d changes\n", len(d.changes))
	}
	return d.changes
}

type differ struct {
	opts    *Options
	changes []Change
}

func (d *differ) emit(c Change) {
	d.changes = append(d.changes, c)
}

func (d *differ) tooDeep(p keypath.Path) bool {
	return d.opts.MaxDepth > 0 && len(p) > d.opts.MaxDepth
}

func (d *differ) unwrap(v any) any {
	if caps := d.opts.Caps; caps != nil && v != nil && caps.Is(v) {
		return caps.Get(v)
	}
	return v
}

func (d *differ) equal(a, b any) bool {
	if d.opts.Equal != nil {
		return d.opts.Equal(a, b)
	}
	return Equal(a, b)
}

func (d *differ) walk(p keypath.Path, cur, upd any) {
	if d.tooDeep(p) {
		return
	}
	cur = d.unwrap(cur)
	switch u := upd.(type) {
	case map[string]any:
		c, ok := cur.(map[string]any)
		if !ok {
			d.emit(Change{Op: OpReplace, Path: p, Value: u, Old: cur})
			return
		}
		for _, k := range slices.Sorted(maps.Keys(u)) {
			childPath := p.Append(keypath.Field(k))
			if d.tooDeep(childPath) {
				continue
			}
			uv := u[k]
			cv, exists := c[k]
			if uv == nil {
				if exists && d.unwrap(cv) != nil {
					d.emit(Change{Op: OpDelete, Path: childPath, Old: d.unwrap(cv)})
				}
				continue
			}
			if !exists {
				d.emit(Change{Op: OpAdd, Path: childPath, Value: uv})
				continue
			}
			d.walk(childPath, cv, uv)
		}
	case []any:
		c, ok := cur.([]any)
		if !ok {
			d.emit(Change{Op: OpReplace, Path: p, Value: u, Old: cur})
			return
		}
		if d.opts.IgnoreArrayOrder {
			d.diffUnordered(p, c, u)
			return
		}
		d.diffSequence(p, c, u)
	default:
		if !d.equal(cur, u) {
			d.emit(Change{Op: OpReplace, Path: p, Value: u, Old: cur})
		}
	}
}

// Equal is the default leaf equality: strict comparison with a numeric
// cross-type fast path and a structural fallback for plain objects and
// arrays.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

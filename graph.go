package treecell

import (
	"errors"
	"fmt"
	"maps"

	"github.com/treecell/treecell/keypath"
)

var errNavigate = errors.New("cannot navigate path")

// slot is an assignable position in the plain object graph. Slice
// growth and element removal reassign the grown or spliced slice into
// the parent slot, since Go slices cannot change length in place.
type slot struct {
	get func() any
	set func(v any) error
	del func() error
}

func (e *Engine) slotAt(root any, p keypath.Path) (slot, error) {
	cur := root
	var cs slot
	for _, seg := range p {
		if cur != nil && e.caps.Is(cur) {
			// cells are leaves; a path running through one is stale
			return slot{}, fmt.Errorf("%w: %q crosses a cell", errNavigate, p.String())
		}
		switch c := cur.(type) {
		case map[string]any:
			key := seg.String()
			cs = slot{
				get: func() any { return c[key] },
				set: func(v any) error {
					c[key] = v
					return nil
				},
				del: func() error {
					delete(c, key)
					return nil
				},
			}
		case []any:
			if !seg.IsIndex || seg.Index < 0 {
				return slot{}, fmt.Errorf("%w: %q indexes an array with %q", errNavigate, p.String(), seg.String())
			}
			i := seg.Index
			parent := cs
			cs = slot{
				get: func() any {
					if i < len(c) {
						return c[i]
					}
					return nil
				},
				set: func(v any) error {
					if i < len(c) {
						c[i] = v
						return nil
					}
					if i == len(c) && parent.set != nil {
						return parent.set(append(c, v))
					}
					return fmt.Errorf("%w: index %d out of range", errNavigate, i)
				},
				del: func() error {
					if i >= len(c) {
						return nil
					}
					if parent.set != nil {
						return parent.set(append(c[:i:i], c[i+1:]...))
					}
					// root-level slice cannot shrink; leave a hole
					c[i] = nil
					return nil
				},
			}
		default:
			return slot{}, fmt.Errorf("%w: %q hits %T", errNavigate, p.String(), cur)
		}
		cur = cs.get()
	}
	return cs, nil
}

// setInTree writes v at p by mutating p's parent container. A writable
// cell already sitting at p is written through instead of replaced.
func (e *Engine) setInTree(root any, p keypath.Path, v any) error {
	if len(p) == 0 {
		return replaceRoot(root, v)
	}
	s, err := e.slotAt(root, p)
	if err != nil {
		return err
	}
	if old := s.get(); old != nil && e.caps.Is(old) {
		if isEqual(e.caps.Get(old), v) {
			return nil
		}
		if e.caps.Set != nil {
			return e.caps.Set(old, v)
		}
		return fmt.Errorf("read-only cell at %q", p.String())
	}
	return s.set(v)
}

func (e *Engine) deleteInTree(root any, p keypath.Path) error {
	if len(p) == 0 {
		return fmt.Errorf("%w: refusing to delete the root", errNavigate)
	}
	s, err := e.slotAt(root, p)
	if err != nil {
		return err
	}
	return s.del()
}

// replaceRoot swaps a root object's contents in place; the engine never
// holds its caller's root variable, so this is the only way a root
// replace can take effect.
func replaceRoot(root, v any) error {
	m, ok := root.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: root is %T, not an object", errNavigate, root)
	}
	vm, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: root replacement is %T, not an object", errNavigate, v)
	}
	clear(m)
	maps.Copy(m, vm)
	return nil
}

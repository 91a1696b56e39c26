// Package cell defines the reactive-cell capability surface consumed by
// the update engine. A cell is an opaque mutable value container; the
// engine only needs to read it, optionally write it, test a value for
// cell-ness, and hold a non-owning reference to it.
package cell

import (
	"errors"
	"fmt"
)

// Cell is a readable value container.
type Cell interface {
	Get() any
}

// Writable is a cell that also accepts writes.
type Writable interface {
	Cell
	Set(v any)
}

// ErrReadOnly is returned by Caps.Set for cells without write access.
var ErrReadOnly = errors.New("cell is read-only")

// Caps is the adapter capability set. Is and Get are required; Set may
// be nil for read-only adapters; Ref defaults to Pin when nil.
type Caps struct {
	Is  func(v any) bool
	Get func(v any) any
	Set func(cl, v any) error
	Ref func(v any) Ref
}

// Check validates required capabilities and fills in defaults.
func (c *Caps) Check() error {
	if c == nil {
		return errors.New("cell: nil capability set")
	}
	if c.Is == nil {
		return errors.New("cell: missing Is capability")
	}
	if c.Get == nil {
		return errors.New("cell: missing Get capability")
	}
	if c.Ref == nil {
		c.Ref = func(v any) Ref { return Pin(v) }
	}
	return nil
}

// Interface returns the default capability set over the Cell and
// Writable interfaces. Pointer-backed Box cells get weak references;
// other cell shapes get explicit-invalidation Pin handles.
func Interface() *Caps {
	return &Caps{
		Is: func(v any) bool {
			_, ok := v.(Cell)
			return ok
		},
		Get: func(v any) any {
			return v.(Cell).Get()
		},
		Set: func(cl, v any) error {
			w, ok := cl.(Writable)
			if !ok {
				return fmt.Errorf("%w: %T", ErrReadOnly, cl)
			}
			w.Set(v)
			return nil
		},
		Ref: func(v any) Ref {
			if b, ok := v.(*Box); ok {
				return Weak(b)
			}
			return Pin(v)
		},
	}
}

// Box is a plain mutable reference cell. It carries no change
// notification; tests and the CLI use it as leaf storage. Access is
// single-goroutine by the engine's concurrency model.
type Box struct {
	v any
}

func NewBox(v any) *Box {
	return &Box{v: v}
}

func (b *Box) Get() any {
	return b.v
}

func (b *Box) Set(v any) {
	b.v = v
}

// Boxify returns a copy of a plain tree with every non-container leaf
// wrapped in a *Box. Containers are copied so the result does not alias
// the input.
func Boxify(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, xv := range x {
			m[k] = Boxify(xv)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, xv := range x {
			s[i] = Boxify(xv)
		}
		return s
	default:
		return NewBox(v)
	}
}

// Plain resolves every cell in a tree to its current value using caps.
func Plain(v any, caps *Caps) any {
	if caps != nil && caps.Is(v) {
		return Plain(caps.Get(v), caps)
	}
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, xv := range x {
			m[k] = Plain(xv, caps)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, xv := range x {
			s[i] = Plain(xv, caps)
		}
		return s
	default:
		return v
	}
}

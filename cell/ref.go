package cell

import "weak"

// Ref is a non-owning reference to a cell. Value reports the cell and
// whether it is still live; a dead Ref never resurrects. Holding a Ref
// must not extend the cell's lifetime.
type Ref interface {
	Value() (any, bool)
}

type weakRef[T any] struct {
	p weak.Pointer[T]
}

// Weak returns a Ref backed by a runtime weak pointer. The referent
// stays collectable; after collection Value reports dead.
func Weak[T any](p *T) Ref {
	return weakRef[T]{p: weak.Make(p)}
}

func (r weakRef[T]) Value() (any, bool) {
	if q := r.p.Value(); q != nil {
		return q, true
	}
	return nil, false
}

// Pinned is the explicit-ownership fallback for cell shapes the runtime
// cannot weakly reference: it holds the cell strongly and the adapter
// must call Invalidate when the cell is destroyed.
type Pinned struct {
	cl   any
	dead bool
}

// Pin returns a Pinned handle on cl.
func Pin(cl any) *Pinned {
	return &Pinned{cl: cl}
}

func (p *Pinned) Value() (any, bool) {
	if p.dead {
		return nil, false
	}
	return p.cl, true
}

// Invalidate tombstones the handle and releases the cell.
func (p *Pinned) Invalidate() {
	p.dead = true
	p.cl = nil
}

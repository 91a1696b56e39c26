package treecell

import (
	"fmt"

	"github.com/treecell/treecell/cell"
	"github.com/treecell/treecell/libdiff"
	"github.com/treecell/treecell/pathindex"
)

// Engine applies diff-based updates to a single tree. The zero value is
// not usable; construct with New.
type Engine struct {
	caps  *cell.Caps
	index *pathindex.Index
	built bool
}

// New builds an engine over the adapter capability set. Missing
// required capabilities fail here, not at update time.
func New(caps *cell.Caps, ixOpts ...pathindex.Option) (*Engine, error) {
	if err := caps.Check(); err != nil {
		return nil, fmt.Errorf("treecell: %w", err)
	}
	return &Engine{
		caps:  caps,
		index: pathindex.New(caps, ixOpts...),
	}, nil
}

// Index exposes the engine's path index for diagnostics and adapter
// invalidation callbacks.
func (e *Engine) Index() *pathindex.Index {
	return e.index
}

// Diff computes the changes Update would apply, without applying them.
func (e *Engine) Diff(tree, updates any, opts *UpdateOptions) []libdiff.Change {
	if opts == nil {
		opts = &UpdateOptions{}
	}
	return libdiff.Diff(tree, updates, &libdiff.Options{
		MaxDepth:         opts.MaxDepth,
		IgnoreArrayOrder: opts.IgnoreArrayOrder,
		Equal:            opts.Equal,
		Caps:             e.caps,
	})
}

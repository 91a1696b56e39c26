package treecell

import (
	"slices"
	"time"

	"github.com/treecell/treecell/debug"
	"github.com/treecell/treecell/libdiff"
)

const defaultBatchSize = 50

type UpdateOptions struct {
	// MaxDepth caps diff recursion; differences deeper than MaxDepth
	// are ignored. Zero means unlimited.
	MaxDepth int
	// IgnoreArrayOrder compares arrays as multisets.
	IgnoreArrayOrder bool
	// Equal overrides default leaf equality in the diff.
	Equal func(a, b any) bool
	// Batched applies patches in fixed-size chunks. Chunking affects
	// only atomicity granularity for layered schedulers, never the
	// result.
	Batched bool
	// BatchSize is the chunk size when Batched; default 50.
	BatchSize int
}

type UpdateStats struct {
	TotalPaths     int
	OptimizedPaths int
	BatchedUpdates int
}

type UpdateResult struct {
	Changed      bool
	Duration     time.Duration
	ChangedPaths []string
	Stats        *UpdateStats
}

// Update diffs tree against the update payload and applies the
// resulting patches. A no-op payload touches zero cells. Per-patch
// failures are logged and excluded from ChangedPaths; Update itself
// does not fail.
func (e *Engine) Update(tree, updates any, opts *UpdateOptions) *UpdateResult {
	start := time.Now()
	if opts == nil {
		opts = &UpdateOptions{}
	}
	if !e.built {
		e.index.BuildFromTree(tree)
		e.built = true
	}

	changes := libdiff.Diff(tree, updates, &libdiff.Options{
		MaxDepth:         opts.MaxDepth,
		IgnoreArrayOrder: opts.IgnoreArrayOrder,
		Equal:            opts.Equal,
		Caps:             e.caps,
	})
	if len(changes) == 0 {
		return &UpdateResult{
			Duration:     time.Since(start),
			ChangedPaths: []string{},
		}
	}

	patches := dedupe(e.buildPatches(changes))
	sortPatches(patches)

	stats := &UpdateStats{TotalPaths: len(changes)}
	applied := make([]string, 0, len(patches))
	if opts.Batched {
		size := opts.BatchSize
		if size <= 0 {
			size = defaultBatchSize
		}
		for chunk := range slices.Chunk(patches, size) {
			applied = e.applyAll(tree, chunk, applied, stats)
			stats.BatchedUpdates++
		}
	} else {
		applied = e.applyAll(tree, patches, applied, stats)
	}

	e.index.IncrementalUpdate(tree, applied)

	return &UpdateResult{
		Changed:      len(applied) > 0,
		Duration:     time.Since(start),
		ChangedPaths: applied,
		Stats:        stats,
	}
}

func (e *Engine) applyAll(tree any, patches []*Patch, applied []string, stats *UpdateStats) []string {
	for _, p := range patches {
		ok, viaCell := e.applyPatch(tree, p)
		if !ok {
			continue
		}
		if viaCell {
			stats.OptimizedPaths++
		}
		applied = append(applied, p.Path.String())
	}
	return applied
}

// applyPatch applies one patch through its resolved cell when possible,
// falling back to mutating the plain object graph. A panicking setter
// or failed navigation aborts only this patch.
func (e *Engine) applyPatch(tree any, p *Patch) (ok, viaCell bool) {
	defer func() {
		if r := recover(); r != nil {
			debug.Logf("treecell: %s %q panicked: %v\n", p.Op, p.Path.String(), r)
			ok, viaCell = false, false
		}
	}()

	if p.Op == libdiff.OpDelete {
		if err := e.deleteInTree(tree, p.Path); err != nil {
			debug.Logf("treecell: delete %q: %v\n", p.Path.String(), err)
			return false, false
		}
		e.index.DeleteSubtree(p.Path)
		return true, false
	}

	if p.cell != nil {
		if isEqual(e.caps.Get(p.cell), p.Value) {
			return true, true
		}
		if e.caps.Set == nil {
			debug.Logf("treecell: %s %q: adapter is read-only\n", p.Op, p.Path.String())
			return false, false
		}
		if err := e.caps.Set(p.cell, p.Value); err != nil {
			debug.Logf("treecell: %s %q: %v\n", p.Op, p.Path.String(), err)
			return false, false
		}
		if p.Op == libdiff.OpAdd && p.Value != nil {
			e.index.Set(p.Path, p.cell)
		}
		return true, true
	}

	if err := e.setInTree(tree, p.Path, p.Value); err != nil {
		debug.Logf("treecell: %s %q: %v\n", p.Op, p.Path.String(), err)
		return false, false
	}
	return true, false
}

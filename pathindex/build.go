package pathindex

import (
	"slices"
	"time"

	"github.com/treecell/treecell/debug"
	"github.com/treecell/treecell/keypath"
)

// BuildFromTree walks an object graph and indexes every value passing
// the cell test at its path. Plain objects and arrays are recursed
// into; other leaves are skipped.
func (ix *Index) BuildFromTree(root any) {
	ix.build(keypath.Path{}, root)
}

func (ix *Index) build(p keypath.Path, v any) {
	if ix.caps.Is(v) {
		ix.Set(p, v)
		return
	}
	switch x := v.(type) {
	case map[string]any:
		for k, xv := range x {
			ix.build(p.Append(keypath.Field(k)), xv)
		}
	case []any:
		for i, xv := range x {
			ix.build(p.Append(keypath.At(i)), xv)
		}
	}
}

// IncrementalUpdate patches the index for the given changed dot-joined
// paths against the tree's current state. Descendants of an already
// processed path are skipped. When the changed-path count exceeds the
// rebuild threshold, or the root path is present, the whole index is
// rebuilt instead: per-path patching would cost more than the rebuild.
func (ix *Index) IncrementalUpdate(root any, changed []string) {
	if len(changed) == 0 {
		return
	}
	if len(changed) > ix.rebuildThreshold || slices.Contains(changed, "") {
		ix.rebuild(root)
		return
	}
	paths := slices.Clone(changed)
	slices.Sort(paths)
	if ix.instrument {
		ix.instr.IncrementalUpdates++
	}
	var done []string
	for _, ps := range paths {
		if covered(done, ps) {
			continue
		}
		done = append(done, ps)
		ix.patchPath(root, ps)
	}
}

// covered reports whether ps has an ancestor in the sorted processed
// list.
func covered(done []string, ps string) bool {
	for _, d := range done {
		if d == ps || keypath.IsAncestor(d, ps) {
			return true
		}
	}
	return false
}

func (ix *Index) patchPath(root any, ps string) {
	p := keypath.Parse(ps)
	if ix.instrument {
		ix.instr.NodesTouched++
	}
	v, ok := resolve(root, p)
	if !ok {
		ix.DeleteSubtree(p)
		return
	}
	if ix.caps.Is(v) {
		ix.Set(p, v)
		return
	}
	switch v.(type) {
	case map[string]any, []any:
		ix.DeleteSubtree(p)
		ix.build(p, v)
	default:
		ix.DeleteSubtree(p)
	}
}

func (ix *Index) rebuild(root any) {
	start := time.Now()
	ix.Clear()
	ix.BuildFromTree(root)
	if ix.instrument {
		ix.instr.FullRebuilds++
		ix.instr.RebuildDuration += time.Since(start)
	}
	if debug.Index() {
		debug.Logf("pathindex: full rebuild in %s\n", time.Since(start))
	}
}

// resolve walks the plain object graph to p. Cells are leaves; a path
// running through one fails to resolve.
func resolve(root any, p keypath.Path) (any, bool) {
	v := root
	for _, seg := range p {
		switch x := v.(type) {
		case map[string]any:
			var ok bool
			v, ok = x[seg.String()]
			if !ok {
				return nil, false
			}
		case []any:
			if !seg.IsIndex || seg.Index < 0 || seg.Index >= len(x) {
				return nil, false
			}
			v = x[seg.Index]
		default:
			return nil, false
		}
	}
	return v, true
}

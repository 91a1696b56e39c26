package treecell

import (
	"slices"

	"github.com/treecell/treecell/libdiff"
)

// Patch is a Change plus a derived application priority and the
// index-resolved cell, if any. Both are transient per update call.
type Patch struct {
	libdiff.Change
	Priority int

	cell any
}

// priorityOf ranks a change for application order: shallower paths
// first, array positions later, replaces before adds and deletes at the
// same depth.
func priorityOf(c *libdiff.Change) int {
	pr := (10 - len(c.Path)) * 10
	if c.Path.HasIndex() {
		pr -= 20
	}
	if c.Op == libdiff.OpReplace {
		pr += 30
	}
	return pr
}

func (e *Engine) buildPatches(changes []libdiff.Change) []*Patch {
	patches := make([]*Patch, len(changes))
	for i := range changes {
		c := &changes[i]
		patches[i] = &Patch{
			Change:   *c,
			Priority: priorityOf(c),
			cell:     e.index.Get(c.Path),
		}
	}
	return patches
}

// dedupe drops every patch whose path descends from an already accepted
// patch's path. Changes arrive in pre-order, so ancestors are always
// seen first; in particular an accepted container-valued replace marks
// its path and thereby blocks its whole subtree within the batch.
func dedupe(patches []*Patch) []*Patch {
	accepted := map[string]bool{}
	res := make([]*Patch, 0, len(patches))
	for _, p := range patches {
		ps := p.Path.String()
		if hasAcceptedAncestor(accepted, ps) {
			continue
		}
		accepted[ps] = true
		res = append(res, p)
	}
	return res
}

func hasAcceptedAncestor(accepted map[string]bool, ps string) bool {
	if accepted[""] {
		return true
	}
	for i := 0; i < len(ps); i++ {
		if ps[i] == '.' && accepted[ps[:i]] {
			return true
		}
	}
	return false
}

// sortPatches orders by priority descending, then path length
// ascending.
func sortPatches(patches []*Patch) {
	slices.SortStableFunc(patches, func(a, b *Patch) int {
		if a.Priority != b.Priority {
			return b.Priority - a.Priority
		}
		return len(a.Path) - len(b.Path)
	})
}

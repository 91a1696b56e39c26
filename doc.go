// Package treecell is a path-indexed, diff-based update engine for
// trees of reactive cells. An Engine is bound to one tree: it diffs the
// tree's current value against a partial update payload, turns the
// changes into prioritized patches resolved through a trie path index,
// applies them through the cells (or the plain object graph when no
// cell is indexed), and keeps the index current incrementally.
//
// The engine is synchronous and single-goroutine per tree; overlapping
// Update calls on the same tree are a caller obligation, not a runtime
// invariant. See the sched package for spreading bulk work across the
// runtime cooperatively.
package treecell

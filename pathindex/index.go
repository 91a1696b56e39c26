// Package pathindex maps tree paths to reactive cells through a trie
// with a flat string-keyed cache, giving O(k) lookup in the path length
// independent of index size. Both structures hold non-owning references
// only: a dead reference reads as absent and is pruned lazily, and the
// index never extends a cell's lifetime.
package pathindex

import (
	"github.com/treecell/treecell/cell"
	"github.com/treecell/treecell/debug"
	"github.com/treecell/treecell/keypath"
)

const defaultRebuildThreshold = 2000

type node struct {
	children map[string]*node
	ref      cell.Ref
}

func newNode() *node {
	return &node{children: map[string]*node{}}
}

func (n *node) empty() bool {
	return n.ref == nil && len(n.children) == 0
}

// Index is owned by a single tree instance and mutated in place for the
// tree's life. All operations are total: missing paths yield nil or
// false, never an error.
type Index struct {
	caps  *cell.Caps
	root  *node
	cache map[string]cell.Ref

	hits, misses, sets, cleanups int

	instrument       bool
	rebuildThreshold int
	instr            Instrumentation
}

type Option func(*Index)

// WithInstrumentation enables incremental-update accounting in Stats.
func WithInstrumentation() Option {
	return func(ix *Index) { ix.instrument = true }
}

// WithRebuildThreshold overrides the changed-path count above which
// IncrementalUpdate falls back to a full rebuild.
func WithRebuildThreshold(n int) Option {
	return func(ix *Index) { ix.rebuildThreshold = n }
}

func New(caps *cell.Caps, opts ...Option) *Index {
	ix := &Index{
		caps:             caps,
		root:             newNode(),
		cache:            map[string]cell.Ref{},
		rebuildThreshold: defaultRebuildThreshold,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Set indexes cl at p, writing both the trie leaf and the flat cache
// entry as non-owning references.
func (ix *Index) Set(p keypath.Path, cl any) {
	ref := ix.caps.Ref(cl)
	n := ix.root
	for _, seg := range p {
		key := seg.String()
		c := n.children[key]
		if c == nil {
			c = newNode()
			n.children[key] = c
		}
		n = c
	}
	n.ref = ref
	ix.cache[p.String()] = ref
	ix.sets++
}

// Get returns the live cell at p, or nil. The flat cache is consulted
// first; on a miss or dead reference the trie is walked and the cache
// re-populated on success.
func (ix *Index) Get(p keypath.Path) any {
	key := p.String()
	stale := false
	if ref, ok := ix.cache[key]; ok {
		if v, live := ref.Value(); live {
			ix.hits++
			return v
		}
		delete(ix.cache, key)
		ix.cleanups++
		stale = true
	}
	n := ix.lookup(p)
	if n == nil || n.ref == nil {
		ix.misses++
		return nil
	}
	v, live := n.ref.Value()
	if !live {
		n.ref = nil
		// the trie leaf held the same dead ref the cache did; one
		// logical cleanup
		if !stale {
			ix.cleanups++
		}
		ix.misses++
		return nil
	}
	ix.cache[key] = n.ref
	ix.hits++
	return v
}

// Has reports whether a live cell is indexed at p.
func (ix *Index) Has(p keypath.Path) bool {
	return ix.Get(p) != nil
}

// ByPrefix collects all live cells under prefix, keyed by their
// dot-joined path relative to prefix. A cell at the prefix itself is
// keyed "".
func (ix *Index) ByPrefix(prefix keypath.Path) map[string]any {
	res := map[string]any{}
	n := ix.lookup(prefix)
	if n == nil {
		return res
	}
	ix.collect(n, "", res)
	return res
}

func (ix *Index) collect(n *node, rel string, res map[string]any) {
	if n.ref != nil {
		if v, live := n.ref.Value(); live {
			res[rel] = v
		} else {
			n.ref = nil
			ix.cleanups++
		}
	}
	for key, c := range n.children {
		childRel := key
		if rel != "" {
			childRel = rel + "." + key
		}
		ix.collect(c, childRel, res)
	}
}

// Delete clears the leaf and cache entry at p, then prunes empty
// ancestors from the leaf upward, stopping at the first non-empty one.
func (ix *Index) Delete(p keypath.Path) {
	delete(ix.cache, p.String())
	stack, n := ix.descend(p)
	if n == nil {
		return
	}
	n.ref = nil
	ix.prune(stack, p, n)
	if ix.instrument {
		ix.instr.Deletions++
	}
}

// DeleteSubtree removes the leaf at p and all descendants, purging
// every corresponding flat cache entry.
func (ix *Index) DeleteSubtree(p keypath.Path) {
	stack, n := ix.descend(p)
	if n == nil {
		return
	}
	removed := ix.purgeCache(n, p.String())
	n.ref = nil
	n.children = map[string]*node{}
	ix.prune(stack, p, n)
	if ix.instrument {
		ix.instr.Deletions += removed
		ix.instr.NodesTouched += removed
	}
	if debug.Index() {
		debug.Logf("pathindex: deleted subtree %q (%d nodes)\n", p.String(), removed)
	}
}

func (ix *Index) purgeCache(n *node, key string) int {
	delete(ix.cache, key)
	count := 1
	for childKey, c := range n.children {
		full := childKey
		if key != "" {
			full = key + "." + childKey
		}
		count += ix.purgeCache(c, full)
	}
	return count
}

// Clear resets the trie and flat cache. Counters persist; they are
// cumulative diagnostics.
func (ix *Index) Clear() {
	ix.root = newNode()
	ix.cache = map[string]cell.Ref{}
}

// lookup walks the trie by segment without mutating anything.
func (ix *Index) lookup(p keypath.Path) *node {
	n := ix.root
	for _, seg := range p {
		n = n.children[seg.String()]
		if n == nil {
			return nil
		}
	}
	return n
}

// descend walks to p materializing the ancestor list so pruning can run
// leaf-to-root without recursion.
func (ix *Index) descend(p keypath.Path) ([]*node, *node) {
	stack := make([]*node, 0, len(p))
	n := ix.root
	for _, seg := range p {
		stack = append(stack, n)
		n = n.children[seg.String()]
		if n == nil {
			return nil, nil
		}
	}
	return stack, n
}

// prune removes empty nodes on the materialized ancestor path of p,
// from the leaf upward.
func (ix *Index) prune(stack []*node, p keypath.Path, leaf *node) {
	n := leaf
	for i := len(stack) - 1; i >= 0; i-- {
		if !n.empty() {
			return
		}
		parent := stack[i]
		delete(parent.children, p[i].String())
		n = parent
	}
}

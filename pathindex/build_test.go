package pathindex

import (
	"testing"

	"github.com/treecell/treecell/cell"
	"github.com/treecell/treecell/keypath"
)

func boxedTree() map[string]any {
	return cell.Boxify(map[string]any{
		"user": map[string]any{
			"name": "ada",
			"tags": []any{"a", "b"},
		},
		"count": 1,
	}).(map[string]any)
}

func TestBuildFromTree(t *testing.T) {
	tree := boxedTree()
	ix := New(cell.Interface())
	ix.BuildFromTree(tree)

	for _, ps := range []string{"user.name", "user.tags.0", "user.tags.1", "count"} {
		if !ix.Has(keypath.Parse(ps)) {
			t.Errorf("%q not indexed", ps)
		}
	}
	// containers are recursed into, not indexed
	if ix.Has(keypath.Parse("user")) {
		t.Error("container indexed as a cell")
	}
}

func TestIncrementalUpdatePatchesChangedPaths(t *testing.T) {
	tree := boxedTree()
	ix := New(cell.Interface(), WithInstrumentation())
	ix.BuildFromTree(tree)

	user := tree["user"].(map[string]any)
	renamed := cell.NewBox("lovelace")
	user["name"] = renamed
	delete(user, "tags")
	tree["extra"] = cell.Boxify(map[string]any{"x": 1})

	ix.IncrementalUpdate(tree, []string{"user.name", "user.tags", "extra"})

	if got := ix.Get(keypath.Parse("user.name")); got != renamed {
		t.Errorf("user.name = %v, want the new cell", got)
	}
	if ix.Has(keypath.Parse("user.tags.0")) {
		t.Error("removed subtree still indexed")
	}
	if !ix.Has(keypath.Parse("extra.x")) {
		t.Error("new subtree not indexed")
	}
	instr := ix.Stats().Instrumentation
	if instr == nil || instr.IncrementalUpdates != 1 {
		t.Errorf("instrumentation: %+v", instr)
	}
	if instr.FullRebuilds != 0 {
		t.Error("small change set should not rebuild")
	}
}

func TestIncrementalUpdateSkipsCoveredDescendants(t *testing.T) {
	tree := boxedTree()
	ix := New(cell.Interface(), WithInstrumentation())
	ix.BuildFromTree(tree)

	tree["user"] = cell.Boxify(map[string]any{"name": "grace"})
	ix.IncrementalUpdate(tree, []string{"user.name", "user", "user.tags"})

	if !ix.Has(keypath.Parse("user.name")) {
		t.Error("rebuilt subtree missing")
	}
	if ix.Has(keypath.Parse("user.tags.0")) {
		t.Error("stale subtree survived")
	}
	// "user" covers both descendants: one patched path
	if instr := ix.Stats().Instrumentation; instr.NodesTouched < 1 {
		t.Errorf("instrumentation: %+v", instr)
	}
}

func TestIncrementalUpdateRebuildOverThreshold(t *testing.T) {
	tree := boxedTree()
	ix := New(cell.Interface(), WithInstrumentation(), WithRebuildThreshold(2))
	ix.BuildFromTree(tree)

	ix.IncrementalUpdate(tree, []string{"user.name", "count", "user.tags"})
	instr := ix.Stats().Instrumentation
	if instr.FullRebuilds != 1 {
		t.Errorf("want a full rebuild, got %+v", instr)
	}
	if !ix.Has(keypath.Parse("user.name")) {
		t.Error("rebuild lost paths")
	}
}

func TestIncrementalUpdateRootRebuilds(t *testing.T) {
	tree := boxedTree()
	ix := New(cell.Interface(), WithInstrumentation())
	ix.BuildFromTree(tree)

	ix.IncrementalUpdate(tree, []string{""})
	if instr := ix.Stats().Instrumentation; instr.FullRebuilds != 1 {
		t.Errorf("root change should rebuild, got %+v", instr)
	}
}

func TestIncrementalUpdateEmpty(t *testing.T) {
	tree := boxedTree()
	ix := New(cell.Interface(), WithInstrumentation())
	ix.BuildFromTree(tree)

	ix.IncrementalUpdate(tree, nil)
	instr := ix.Stats().Instrumentation
	if instr.IncrementalUpdates != 0 || instr.FullRebuilds != 0 {
		t.Errorf("empty change set did work: %+v", instr)
	}
}

// Map keys that look like numbers ("01", "7") must survive the
// parse/resolve round trip taken by per-path patching.
func TestIncrementalUpdateDigitStringKeys(t *testing.T) {
	tree := cell.Boxify(map[string]any{
		"m": map[string]any{
			"01": "a",
			"7":  "b",
		},
	}).(map[string]any)
	ix := New(cell.Interface())
	ix.BuildFromTree(tree)

	m := tree["m"].(map[string]any)
	changed := cell.NewBox("A")
	m["01"] = changed
	ix.IncrementalUpdate(tree, []string{"m.01", "m.7"})

	if got := ix.Get(keypath.Parse("m.01")); got != changed {
		t.Errorf("m.01 = %v, want the new cell", got)
	}
	if !ix.Has(keypath.Parse("m.7")) {
		t.Error("m.7 lost by per-path patching")
	}
}

func TestResolveThroughArrays(t *testing.T) {
	tree := boxedTree()
	v, ok := resolve(tree, keypath.Parse("user.tags.1"))
	if !ok {
		t.Fatal("resolve failed")
	}
	if v.(*cell.Box).Get() != "b" {
		t.Errorf("got %v", v.(*cell.Box).Get())
	}
	if _, ok := resolve(tree, keypath.Parse("user.tags.7")); ok {
		t.Error("out of range resolved")
	}
	if _, ok := resolve(tree, keypath.Parse("user.name.deeper")); ok {
		t.Error("path through a cell resolved")
	}
}

package libdiff

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/treecell/treecell/cell"
	"github.com/treecell/treecell/keypath"
)

func TestDiffNilPayload(t *testing.T) {
	if got := Diff(map[string]any{"a": 1}, nil, nil); got != nil {
		t.Errorf("nil payload produced %v", got)
	}
}

func TestDiffNoOp(t *testing.T) {
	cur := map[string]any{
		"a": 1,
		"b": map[string]any{"c": "x"},
		"d": []any{1, 2},
	}
	upd := map[string]any{
		"a": 1,
		"b": map[string]any{"c": "x"},
		"d": []any{1, 2},
	}
	if got := Diff(cur, upd, nil); len(got) != 0 {
		t.Errorf("no-op payload produced %v", got)
	}
}

func TestDiffMergeSemantics(t *testing.T) {
	cur := map[string]any{
		"keep":   "same",
		"change": 1,
		"drop":   true,
		"nested": map[string]any{"x": 1, "y": 2},
	}
	upd := map[string]any{
		"change": 2,
		"drop":   nil,
		"nested": map[string]any{"y": 3},
		"new":    "v",
	}
	got := Diff(cur, upd, nil)
	want := []Change{
		{Op: OpReplace, Path: keypath.Parse("change"), Value: 2, Old: 1},
		{Op: OpDelete, Path: keypath.Parse("drop"), Old: true},
		{Op: OpReplace, Path: keypath.Parse("nested.y"), Value: 3, Old: 2},
		{Op: OpAdd, Path: keypath.Parse("new"), Value: "v"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffPathIsolation(t *testing.T) {
	cur := map[string]any{
		"a": map[string]any{"x": 1, "y": 2},
		"b": map[string]any{"x": 1},
	}
	upd := map[string]any{
		"a": map[string]any{"x": 1, "y": 2},
		"b": map[string]any{"x": 9},
	}
	got := Diff(cur, upd, nil)
	if len(got) != 1 || got[0].Path.String() != "b.x" {
		t.Errorf("expected exactly b.x, got %v", got)
	}
}

func TestDiffTypeChangeIsReplace(t *testing.T) {
	cur := map[string]any{"v": map[string]any{"a": 1}}
	upd := map[string]any{"v": []any{1, 2}}
	got := Diff(cur, upd, nil)
	want := []Change{
		{Op: OpReplace, Path: keypath.Parse("v"), Value: []any{1, 2}, Old: map[string]any{"a": 1}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestDiffContainerAddIsSingleChange(t *testing.T) {
	cur := map[string]any{}
	upd := map[string]any{"sub": map[string]any{"a": 1, "b": []any{2}}}
	got := Diff(cur, upd, nil)
	if len(got) != 1 || got[0].Op != OpAdd || got[0].Path.String() != "sub" {
		t.Fatalf("want one add at sub, got %v", got)
	}
	if diff := cmp.Diff(upd["sub"], got[0].Value); diff != "" {
		t.Errorf("add value should carry the whole subtree:\n%s", diff)
	}
}

func TestDiffDeleteAbsentIsNoOp(t *testing.T) {
	got := Diff(map[string]any{}, map[string]any{"gone": nil}, nil)
	if len(got) != 0 {
		t.Errorf("deleting an absent key produced %v", got)
	}
}

func TestDiffMaxDepth(t *testing.T) {
	cur := map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 1}, "x": 1},
	}
	upd := map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 2}, "x": 2},
	}
	got := Diff(cur, upd, &Options{MaxDepth: 2})
	want := []Change{
		{Op: OpReplace, Path: keypath.Parse("a.x"), Value: 2, Old: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("depth-bounded diff (-want +got):\n%s", diff)
	}
}

func TestDiffCustomEqual(t *testing.T) {
	// strings compare by length only
	eq := func(a, b any) bool {
		as, aok := a.(string)
		bs, bok := b.(string)
		if aok && bok {
			return len(as) == len(bs)
		}
		return Equal(a, b)
	}
	cur := map[string]any{"s": "abc", "t": "ab"}
	upd := map[string]any{"s": "xyz", "t": "xyz"}
	got := Diff(cur, upd, &Options{Equal: eq})
	if len(got) != 1 || got[0].Path.String() != "t" {
		t.Errorf("custom equality should only flag t, got %v", got)
	}
}

func TestDiffUnwrapsCells(t *testing.T) {
	caps := cell.Interface()
	cur := map[string]any{
		"a": cell.NewBox(1),
		"b": cell.NewBox("same"),
	}
	upd := map[string]any{"a": 2, "b": "same"}
	got := Diff(cur, upd, &Options{Caps: caps})
	want := []Change{
		{Op: OpReplace, Path: keypath.Parse("a"), Value: 2, Old: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestDiffRootTypeChange(t *testing.T) {
	got := Diff([]any{1}, map[string]any{"a": 1}, nil)
	if len(got) != 1 || got[0].Op != OpReplace || got[0].Path.String() != "" {
		t.Errorf("want a root replace, got %v", got)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"both nil", nil, nil, true},
		{"nil vs value", nil, 1, false},
		{"same int", 1, 1, true},
		{"int vs float same value", 1, 1.0, true},
		{"int64 vs int", int64(3), 3, true},
		{"different numbers", 1, 2.0, false},
		{"string", "a", "a", true},
		{"bool vs int", true, 1, false},
		{"equal maps", map[string]any{"a": 1}, map[string]any{"a": 1}, true},
		{"unequal maps", map[string]any{"a": 1}, map[string]any{"a": 2}, false},
		{"equal slices", []any{1, "b"}, []any{1, "b"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Equal(tc.a, tc.b); got != tc.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

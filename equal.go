package treecell

import (
	"reflect"

	"github.com/treecell/treecell/libdiff"
)

// isEqual is the write-skip test: strict fast path, shallow container
// comparison by key set or length, and a structural deep comparison
// only for members that are shallow-equal in shape but differ by
// reference.
func isEqual(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, x := range av {
			y, ok := bv[k]
			if !ok {
				return false
			}
			if !memberEqual(x, y) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !memberEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return memberEqual(a, b)
	}
}

func memberEqual(a, b any) bool {
	if libdiff.Equal(a, b) {
		return true
	}
	switch a.(type) {
	case map[string]any, []any:
		return reflect.DeepEqual(a, b)
	}
	return false
}

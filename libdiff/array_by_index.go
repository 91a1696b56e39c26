package libdiff

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/treecell/treecell/keypath"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// diffSequence diffs two arrays positionally:
//
//  1. summarize each element; scalars summarize by type and value,
//     containers by type only so matching positions recurse
//  2. diff the two summary rune sequences
//  3. when the edit script only touches stable positions — equal runs,
//     delete runs rewritten in place by an insert run of the same
//     length, and a trailing append — emit per-element changes
//
// Any other script shifts element positions as it applies, so the whole
// array is emitted as one replace; patches carry indices into the
// array as it is, not diff-cursor coordinates.
func (d *differ) diffSequence(p keypath.Path, from, to []any) {
	m := map[string]rune{}
	fromRunes := d.summarize(m, from)
	toRunes := d.summarize(m, to)
	diffs := diffpatch.New().DiffMainRunes(fromRunes, toRunes, false)

	if !stablePositions(diffs) {
		d.emit(Change{Op: OpReplace, Path: p, Value: to, Old: from})
		return
	}

	fi, ti := 0, 0
	for i := 0; i < len(diffs); i++ {
		df := &diffs[i]
		switch df.Type {
		case diffpatch.DiffEqual:
			for range df.Text {
				d.walk(p.Append(keypath.At(fi)), from[fi], to[ti])
				fi++
				ti++
			}
		case diffpatch.DiffDelete:
			// rewritten position by position from the insert run that
			// follows
			i++
			for range diffs[i].Text {
				cp := p.Append(keypath.At(fi))
				if !d.tooDeep(cp) {
					d.emit(Change{Op: OpReplace, Path: cp, Value: to[ti], Old: d.unwrap(from[fi])})
				}
				fi++
				ti++
			}
		case diffpatch.DiffInsert:
			for range df.Text {
				cp := p.Append(keypath.At(ti))
				if !d.tooDeep(cp) {
					d.emit(Change{Op: OpAdd, Path: cp, Value: to[ti]})
				}
				ti++
			}
		}
	}
}

// stablePositions reports whether the edit script leaves every touched
// index meaningful against the unmodified current array: deletes must
// be immediately rewritten by an equally long insert (an in-place
// replace run) and a bare insert may only appear at the tail.
func stablePositions(diffs []diffpatch.Diff) bool {
	for i := 0; i < len(diffs); i++ {
		switch diffs[i].Type {
		case diffpatch.DiffDelete:
			if i+1 >= len(diffs) || diffs[i+1].Type != diffpatch.DiffInsert ||
				utf8.RuneCountInString(diffs[i+1].Text) != utf8.RuneCountInString(diffs[i].Text) {
				return false
			}
			i++
		case diffpatch.DiffInsert:
			if i != len(diffs)-1 {
				return false
			}
		}
	}
	return true
}

func (d *differ) summarize(m map[string]rune, vals []any) []rune {
	rs := make([]rune, len(vals))
	for i, v := range vals {
		sum := summary(d.unwrap(v))
		r, ok := m[sum]
		if !ok {
			r = rune(len(m))
			m[sum] = r
		}
		rs[i] = r
	}
	return rs
}

func summary(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case bool:
		return "bool-" + strconv.FormatBool(x)
	case string:
		if strings.Contains(x, "\n") {
			return "string/m"
		}
		return "string-" + x
	default:
		if f, ok := toFloat(v); ok {
			return "number-" + strconv.FormatFloat(f, 'f', -1, 64)
		}
		return fmt.Sprintf("%T-%v", v, v)
	}
}

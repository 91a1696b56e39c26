package libdiff

import "github.com/treecell/treecell/keypath"

// diffUnordered compares two arrays as multisets. Each update value
// consumes an equal current value when one exists; surplus update
// values pair against leftover current positions in index order as
// replaces, then append as adds; current positions still left over
// delete, highest index first so earlier splices do not shift the
// positions of later ones.
func (d *differ) diffUnordered(p keypath.Path, from, to []any) {
	used := make([]bool, len(from))
	var surplus []any
	for _, tv := range to {
		matched := false
		for i, fv := range from {
			if used[i] {
				continue
			}
			if d.equal(d.unwrap(fv), tv) {
				used[i] = true
				matched = true
				break
			}
		}
		if !matched {
			surplus = append(surplus, tv)
		}
	}

	si := 0
	for i := range from {
		if si >= len(surplus) {
			break
		}
		if used[i] {
			continue
		}
		cp := p.Append(keypath.At(i))
		if !d.tooDeep(cp) {
			d.emit(Change{Op: OpReplace, Path: cp, Value: surplus[si], Old: d.unwrap(from[i])})
		}
		used[i] = true
		si++
	}
	for k := si; k < len(surplus); k++ {
		cp := p.Append(keypath.At(len(from) + k - si))
		if !d.tooDeep(cp) {
			d.emit(Change{Op: OpAdd, Path: cp, Value: surplus[k]})
		}
	}
	for i := len(from) - 1; i >= 0; i-- {
		if used[i] {
			continue
		}
		cp := p.Append(keypath.At(i))
		if !d.tooDeep(cp) {
			d.emit(Change{Op: OpDelete, Path: cp, Old: d.unwrap(from[i])})
		}
	}
}

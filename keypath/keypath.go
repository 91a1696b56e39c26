// Package keypath models paths into nested trees: ordered sequences of
// object keys and array indices with a dot-joined string form ("a.b.0")
// used as flat cache keys.
package keypath

import (
	"strconv"
	"strings"
)

// Segment is one step in a Path: an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Field returns a key segment.
func Field(k string) Segment {
	return Segment{Key: k}
}

// At returns an index segment.
func At(i int) Segment {
	return Segment{Index: i, IsIndex: true}
}

func (s Segment) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Key
}

// Path locates a value in a nested tree. The empty path is the root.
type Path []Segment

// String returns the dot-joined form. Root is "". Keys containing '.'
// are not supported in the string form.
func (p Path) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for i, s := range p {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// Append returns a copy of p extended by segs. The receiver is never
// mutated, so child paths built during traversal do not alias.
func (p Path) Append(segs ...Segment) Path {
	q := make(Path, len(p), len(p)+len(segs))
	copy(q, p)
	return append(q, segs...)
}

// HasPrefix reports whether prefix is an ancestor of (or equal to) p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// HasIndex reports whether any segment of p is an array index.
func (p Path) HasIndex() bool {
	for _, s := range p {
		if s.IsIndex {
			return true
		}
	}
	return false
}

func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Parse parses the dot-joined form. A segment parses as an array index
// only when it is the canonical decimal form of a non-negative integer
// ("0", "7", not "01", "+1", "-1"), so every parsed path round-trips
// through String. A map key that happens to be canonical ("7") is still
// indistinguishable from an index in the string form; navigation
// resolves such segments by the container type it finds. "" parses as
// the root path.
func Parse(s string) Path {
	if s == "" {
		return Path{}
	}
	parts := strings.Split(s, ".")
	p := make(Path, 0, len(parts))
	for _, part := range parts {
		if i, err := strconv.Atoi(part); err == nil && i >= 0 && strconv.Itoa(i) == part {
			p = append(p, At(i))
			continue
		}
		p = append(p, Field(part))
	}
	return p
}

// IsAncestor reports whether the dot-joined path anc is a proper
// ancestor of the dot-joined path p.
func IsAncestor(anc, p string) bool {
	if anc == "" {
		return p != ""
	}
	return len(p) > len(anc) && strings.HasPrefix(p, anc) && p[len(anc)] == '.'
}

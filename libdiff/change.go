package libdiff

import "github.com/treecell/treecell/keypath"

type Op int

const (
	OpAdd Op = iota
	OpReplace
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpReplace:
		return "replace"
	case OpDelete:
		return "delete"
	}
	return "<unknown op>"
}

// Change is one difference between a tree's current value and an update
// payload, emitted in pre-order. A container-valued Add or Replace
// captures its whole subtree; no child changes follow it.
type Change struct {
	Op    Op
	Path  keypath.Path
	Value any
	Old   any
}

// Package jsonpatch bridges the engine's change model to RFC 6902 JSON
// Patch and RFC 7386 merge patch documents, so update payloads can be
// exchanged with JSON tooling.
package jsonpatch

import (
	"encoding/json"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/treecell/treecell/keypath"
	"github.com/treecell/treecell/libdiff"
)

// ToRFC6902 encodes changes as a JSON Patch document.
func ToRFC6902(changes []libdiff.Change) ([]byte, error) {
	ops := make([]map[string]any, 0, len(changes))
	for i := range changes {
		c := &changes[i]
		op := map[string]any{"path": Pointer(c.Path)}
		switch c.Op {
		case libdiff.OpAdd:
			op["op"] = "add"
			op["value"] = c.Value
		case libdiff.OpReplace:
			op["op"] = "replace"
			op["value"] = c.Value
		case libdiff.OpDelete:
			op["op"] = "remove"
		}
		ops = append(ops, op)
	}
	return json.Marshal(ops)
}

// Pointer renders p as an RFC 6901 JSON Pointer.
func Pointer(p keypath.Path) string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, seg := range p {
		b.WriteByte('/')
		b.WriteString(escape(seg.String()))
	}
	return b.String()
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}

// ApplyRFC6902 applies a JSON Patch document to a plain tree and
// returns the patched tree. Cells do not survive the JSON round trip;
// this is for deriving update payloads, not for patching live trees.
func ApplyRFC6902(tree any, patch []byte) (any, error) {
	doc, err := json.Marshal(tree)
	if err != nil {
		return nil, err
	}
	p, err := jsonpatch.DecodePatch(patch)
	if err != nil {
		return nil, err
	}
	out, err := p.Apply(doc)
	if err != nil {
		return nil, err
	}
	var res any
	if err := json.Unmarshal(out, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// ApplyMerge applies an RFC 7386 merge patch to a plain tree.
func ApplyMerge(tree any, patch []byte) (any, error) {
	doc, err := json.Marshal(tree)
	if err != nil {
		return nil, err
	}
	out, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return nil, err
	}
	var res any
	if err := json.Unmarshal(out, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// CreateMerge produces the RFC 7386 merge patch turning a into b.
func CreateMerge(a, b any) ([]byte, error) {
	da, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	db, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return jsonpatch.CreateMergePatch(da, db)
}

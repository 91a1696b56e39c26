package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/treecell/treecell/libdiff"
)

type renderer struct {
	w                 io.Writer
	add, rep, del, at func(format string, a ...interface{}) string
}

func newRenderer(cfg *MainConfig, w io.Writer) *renderer {
	r := &renderer{
		w:   w,
		add: fmt.Sprintf,
		rep: fmt.Sprintf,
		del: fmt.Sprintf,
		at:  fmt.Sprintf,
	}
	if !cfg.Color && !isTerminal(w) {
		return r
	}
	r.add = color.New(color.FgGreen).SprintfFunc()
	r.rep = color.New(color.FgYellow).SprintfFunc()
	r.del = color.New(color.FgRed).SprintfFunc()
	r.at = color.New(color.FgCyan).SprintfFunc()
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *renderer) changes(changes []libdiff.Change) error {
	for i := range changes {
		c := &changes[i]
		path := c.Path.String()
		if path == "" {
			path = "."
		}
		var line string
		switch c.Op {
		case libdiff.OpAdd:
			line = r.add("+ %s: %s", path, inline(c.Value))
		case libdiff.OpReplace:
			line = r.rep("~ %s: %s -> %s", path, inline(c.Old), inline(c.Value))
		case libdiff.OpDelete:
			line = r.del("- %s: %s", path, inline(c.Old))
		}
		if _, err := fmt.Fprintln(r.w, line); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) stamp(when string) error {
	_, err := fmt.Fprintln(r.w, r.at("# difference found at %s", when))
	return err
}

// inline renders a value on one line for change output.
func inline(v any) string {
	d, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(d)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/scott-cotton/cli"

	"github.com/treecell/treecell/equality"
	"github.com/treecell/treecell/libdiff"
)

type MainConfig struct {
	Color bool `cli:"name=color desc='render changes with color'"`
	J     bool `cli:"name=j aliases=json desc='do i/o in json'"`
	Y     bool `cli:"name=y aliases=yaml desc='do i/o in yaml'"`

	Out      string
	CloseOut func() error

	Main *cli.Command
}

func (cfg *MainConfig) outOpt(cc *cli.Context, a string) (any, error) {
	cfg.Out = a
	if a == "-" {
		return nil, nil
	}
	f, err := os.OpenFile(cfg.Out, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	cc.Out = f
	cfg.CloseOut = f.Close
	return nil, nil
}

// getDoc reads a document from path ("-" for cc.In) and decodes it.
// YAML is the default; it is a superset of JSON, so -j only matters
// for output.
func getDoc(cc *cli.Context, path string) (any, error) {
	var r io.Reader
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	} else {
		r = cc.In
	}
	d, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading %q: %w", path, err)
	}
	return decodeDoc(d)
}

func decodeDoc(d []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(d, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (cfg *MainConfig) encodeDoc(w io.Writer, v any) error {
	if cfg.J {
		d, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", d)
		return err
	}
	d, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(d)
	return err
}

// diffOptions builds diff options from the flags shared by every
// subcommand that runs a diff.
func diffOptions(unordered bool, depth int, equalExpr string) (*libdiff.Options, error) {
	opts := &libdiff.Options{
		MaxDepth:         depth,
		IgnoreArrayOrder: unordered,
	}
	if equalExpr != "" {
		eq, err := equality.Compile(equalExpr)
		if err != nil {
			return nil, fmt.Errorf("%w: -equal: %w", cli.ErrUsage, err)
		}
		opts.Equal = eq
	}
	return opts, nil
}

type DiffConfig struct {
	*MainConfig
	Unordered bool   `cli:"name=unordered desc='compare arrays as multisets'"`
	Depth     int    `cli:"name=depth desc='max diff depth, 0 for unlimited'"`
	EqualExpr string `cli:"name=equal desc='expr predicate over a and b for leaf equality'"`
	RFC6902   bool   `cli:"name=rfc6902 desc='emit an RFC 6902 json patch document'"`
	Merge     bool   `cli:"name=merge desc='emit an RFC 7386 merge patch document'"`

	Diff *cli.Command
}

func (cfg *DiffConfig) diffOpts() (*libdiff.Options, error) {
	return diffOptions(cfg.Unordered, cfg.Depth, cfg.EqualExpr)
}

type UpdateConfig struct {
	*MainConfig
	Unordered bool   `cli:"name=unordered desc='compare arrays as multisets'"`
	Depth     int    `cli:"name=depth desc='max diff depth, 0 for unlimited'"`
	EqualExpr string `cli:"name=equal desc='expr predicate over a and b for leaf equality'"`
	Batch     bool   `cli:"name=batch desc='apply patches in fixed-size chunks'"`
	BatchSize int    `cli:"name=batchSize desc='chunk size for -batch, default 50'"`
	RFC6902   string `cli:"name=rfc6902 desc='derive the payload by applying a json patch file to the tree'"`
	Print     bool   `cli:"name=print desc='print the updated tree instead of the result summary'"`
	Instr     bool   `cli:"name=instrument desc='collect index instrumentation'"`

	Update *cli.Command
}

func (cfg *UpdateConfig) diffOpts() (*libdiff.Options, error) {
	return diffOptions(cfg.Unordered, cfg.Depth, cfg.EqualExpr)
}

type IndexConfig struct {
	*MainConfig
	Prefix string `cli:"name=prefix desc='list indexed values under a path prefix'"`
	Instr  bool   `cli:"name=instrument desc='collect index instrumentation'"`

	Index *cli.Command
}

type WatchConfig struct {
	*MainConfig
	Unordered bool   `cli:"name=unordered desc='compare arrays as multisets'"`
	Depth     int    `cli:"name=depth desc='max diff depth, 0 for unlimited'"`
	EqualExpr string `cli:"name=equal desc='expr predicate over a and b for leaf equality'"`
	Cmd       string `cli:"name=cmd desc='shell command producing a document'"`
	Lim       int    `cli:"name=lim desc='max number of samples, -1 for unbounded'"`
	Every     time.Duration

	Watch *cli.Command
}

func (cfg *WatchConfig) diffOpts() (*libdiff.Options, error) {
	return diffOptions(cfg.Unordered, cfg.Depth, cfg.EqualExpr)
}

func (cfg *WatchConfig) mkEvery() func(cc *cli.Context, a string) (any, error) {
	return func(_ *cli.Context, a string) (any, error) {
		d, err := time.ParseDuration(a)
		if err != nil {
			return nil, err
		}
		cfg.Every = d
		return d, nil
	}
}

type ServeConfig struct {
	*MainConfig
	Gops  bool `cli:"name=gops desc='start a gops diagnostics agent'"`
	Instr bool `cli:"name=instrument desc='collect index instrumentation'"`

	Serve *cli.Command
}

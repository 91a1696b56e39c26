package main

import (
	"fmt"

	"github.com/scott-cotton/cli"

	"github.com/treecell/treecell/jsonpatch"
	"github.com/treecell/treecell/libdiff"
)

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		cfg.Diff.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff requires 2 args, got %v", cli.ErrUsage, args)
	}
	cur, err := getDoc(cc, args[0])
	if err != nil {
		return fmt.Errorf("error decoding %s: %w", args[0], err)
	}
	upd, err := getDoc(cc, args[1])
	if err != nil {
		return fmt.Errorf("error decoding %s: %w", args[1], err)
	}

	if cfg.Merge {
		d, err := jsonpatch.CreateMerge(cur, upd)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cc.Out, "%s\n", d)
		return err
	}

	opts, err := cfg.diffOpts()
	if err != nil {
		return err
	}
	changes := libdiff.Diff(cur, upd, opts)
	if len(changes) == 0 {
		return nil
	}
	if cfg.RFC6902 {
		d, err := jsonpatch.ToRFC6902(changes)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(cc.Out, "%s\n", d); err != nil {
			return err
		}
		return cli.ExitCodeErr(1)
	}
	if err := newRenderer(cfg.MainConfig, cc.Out).changes(changes); err != nil {
		return err
	}
	return cli.ExitCodeErr(1)
}

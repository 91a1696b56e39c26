package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/scott-cotton/cli"

	"github.com/treecell/treecell/cell"
	"github.com/treecell/treecell/keypath"
	"github.com/treecell/treecell/pathindex"
)

func index(cfg *IndexConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Index.Parse(cc, args)
	if err != nil {
		cfg.Index.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: index requires 1 arg, got %v", cli.ErrUsage, args)
	}
	plain, err := getDoc(cc, args[0])
	if err != nil {
		return fmt.Errorf("error decoding %s: %w", args[0], err)
	}
	var ixOpts []pathindex.Option
	if cfg.Instr {
		ixOpts = append(ixOpts, pathindex.WithInstrumentation())
	}
	caps := cell.Interface()
	ix := pathindex.New(caps, ixOpts...)
	ix.BuildFromTree(cell.Boxify(plain))

	if cfg.Prefix != "" {
		under := ix.ByPrefix(keypath.Parse(cfg.Prefix))
		for _, rel := range slices.Sorted(maps.Keys(under)) {
			key := rel
			if key == "" {
				key = "."
			}
			if _, err := fmt.Fprintf(cc.Out, "%s: %s\n", key, inline(caps.Get(under[rel]))); err != nil {
				return err
			}
		}
		return nil
	}
	return cfg.encodeDoc(cc.Out, ix.Stats())
}

package main

import (
	"fmt"
	"os"

	"github.com/scott-cotton/cli"

	"github.com/treecell/treecell"
	"github.com/treecell/treecell/cell"
	"github.com/treecell/treecell/jsonpatch"
	"github.com/treecell/treecell/pathindex"
)

func update(cfg *UpdateConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Update.Parse(cc, args)
	if err != nil {
		cfg.Update.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	plain, payload, err := updateInputs(cfg, cc, args)
	if err != nil {
		return err
	}

	dOpts, err := cfg.diffOpts()
	if err != nil {
		return err
	}
	var ixOpts []pathindex.Option
	if cfg.Instr {
		ixOpts = append(ixOpts, pathindex.WithInstrumentation())
	}
	caps := cell.Interface()
	eng, err := treecell.New(caps, ixOpts...)
	if err != nil {
		return err
	}
	boxed := cell.Boxify(plain)
	res := eng.Update(boxed, payload, &treecell.UpdateOptions{
		MaxDepth:         dOpts.MaxDepth,
		IgnoreArrayOrder: dOpts.IgnoreArrayOrder,
		Equal:            dOpts.Equal,
		Batched:          cfg.Batch,
		BatchSize:        cfg.BatchSize,
	})

	if cfg.Print {
		return cfg.encodeDoc(cc.Out, cell.Plain(boxed, caps))
	}
	out := map[string]any{
		"changed":      res.Changed,
		"duration":     res.Duration.String(),
		"changedPaths": res.ChangedPaths,
		"index":        eng.Index().Stats(),
	}
	if res.Stats != nil {
		out["stats"] = map[string]any{
			"totalPaths":     res.Stats.TotalPaths,
			"optimizedPaths": res.Stats.OptimizedPaths,
			"batchedUpdates": res.Stats.BatchedUpdates,
		}
	}
	return cfg.encodeDoc(cc.Out, out)
}

// updateInputs loads the tree and derives the payload, either from a
// second document argument or, with -rfc6902, by applying a json patch
// file to the tree and using the patched result as the payload.
func updateInputs(cfg *UpdateConfig, cc *cli.Context, args []string) (plain, payload any, err error) {
	if cfg.RFC6902 != "" {
		if len(args) != 1 {
			return nil, nil, fmt.Errorf("%w: update -rfc6902 requires 1 arg, got %v", cli.ErrUsage, args)
		}
	} else if len(args) != 2 {
		return nil, nil, fmt.Errorf("%w: update requires 2 args, got %v", cli.ErrUsage, args)
	}
	plain, err = getDoc(cc, args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("error decoding %s: %w", args[0], err)
	}
	if cfg.RFC6902 != "" {
		d, err := os.ReadFile(cfg.RFC6902)
		if err != nil {
			return nil, nil, err
		}
		payload, err = jsonpatch.ApplyRFC6902(plain, d)
		if err != nil {
			return nil, nil, fmt.Errorf("error applying %s: %w", cfg.RFC6902, err)
		}
		return plain, payload, nil
	}
	payload, err = getDoc(cc, args[1])
	if err != nil {
		return nil, nil, fmt.Errorf("error decoding %s: %w", args[1], err)
	}
	return plain, payload, nil
}

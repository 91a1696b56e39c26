package main

import (
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/scott-cotton/cli"

	"github.com/treecell/treecell"
	"github.com/treecell/treecell/cell"
	"github.com/treecell/treecell/sched"
)

// watch samples a shell command's output and feeds each sample through
// the update engine as a payload against the previous state. Change
// rendering is posted to the cooperative scheduler so a burst of
// changes never blocks the sampling loop.
func watch(cfg *WatchConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Watch.Parse(cc, args)
	if err != nil {
		cfg.Watch.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if cfg.Cmd == "" || len(args) != 0 {
		return fmt.Errorf("%w: watch requires -cmd and no args, got %v", cli.ErrUsage, args)
	}
	dOpts, err := cfg.diffOpts()
	if err != nil {
		return err
	}
	uOpts := &treecell.UpdateOptions{
		MaxDepth:         dOpts.MaxDepth,
		IgnoreArrayOrder: dOpts.IgnoreArrayOrder,
		Equal:            dOpts.Equal,
	}

	rdr := newRenderer(cfg.MainConfig, cc.Out)
	caps := cell.Interface()
	var (
		eng  *treecell.Engine
		tree any
	)
	ticker := time.NewTicker(cfg.Every)
	defer ticker.Stop()
	defer sched.Drain()
	for i := 0; i != cfg.Lim; i++ {
		doc, err := sample(cfg)
		if err != nil {
			return err
		}
		if eng == nil {
			eng, err = treecell.New(caps)
			if err != nil {
				return err
			}
			tree = cell.Boxify(doc)
			eng.Update(tree, nil, uOpts)
			<-ticker.C
			continue
		}
		// diff before updating so the rendered lines carry old values
		changes := eng.Diff(tree, doc, uOpts)
		res := eng.Update(tree, doc, uOpts)
		if res.Changed {
			when := time.Now().Format(time.RFC3339Nano)
			sched.PostTask(func() {
				rdr.stamp(when)
				rdr.changes(changes)
			})
		}
		<-ticker.C
	}
	return nil
}

func sample(cfg *WatchConfig) (any, error) {
	cmd := exec.Command("sh", "-c", cfg.Cmd)
	r, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("unable to create pipe for command %q: %w", cfg.Cmd, err)
	}
	cmd.WaitDelay = cfg.Every
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("unable to start %q: %w", cfg.Cmd, err)
	}
	d, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("command %q exited with an error: %w", cfg.Cmd, err)
	}
	doc, err := decodeDoc(d)
	if err != nil {
		return nil, fmt.Errorf("error decoding command output: %w", err)
	}
	return doc, nil
}

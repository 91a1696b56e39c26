package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/google/gops/agent"
	"github.com/scott-cotton/cli"
	"go.lsp.dev/jsonrpc2"

	"github.com/treecell/treecell"
	"github.com/treecell/treecell/cell"
	"github.com/treecell/treecell/keypath"
	"github.com/treecell/treecell/pathindex"
)

// serve runs the update engine as a json-rpc service on stdio. Methods:
//
//	treecell/load   {tree}               load a document as engine state
//	treecell/update {updates, opts...}   diff and apply a payload
//	treecell/get    {path}               read the value at a path
//	treecell/stats  {}                   path index statistics
func serve(cfg *ServeConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Serve.Parse(cc, args)
	if err != nil {
		cfg.Serve.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: serve takes no args, got %v", cli.ErrUsage, args)
	}
	if cfg.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			return err
		}
		defer agent.Close()
	}
	srv := &server{
		log:   slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})),
		caps:  cell.Interface(),
		instr: cfg.Instr,
	}
	ctx := context.Background()
	stream := jsonrpc2.NewStream(&stdioReadWriteCloser{
		read:  cc.In,
		write: cc.Out,
	})
	conn := jsonrpc2.NewConn(stream)
	conn.Go(ctx, srv.handle)
	srv.log.Info("serving", "transport", "stdio")
	<-conn.Done()
	if err := conn.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

type stdioReadWriteCloser struct {
	read  io.Reader
	write io.Writer
}

func (s *stdioReadWriteCloser) Read(p []byte) (n int, err error) {
	return s.read.Read(p)
}

func (s *stdioReadWriteCloser) Write(p []byte) (n int, err error) {
	return s.write.Write(p)
}

func (s *stdioReadWriteCloser) Close() error {
	return nil
}

type server struct {
	log   *slog.Logger
	caps  *cell.Caps
	instr bool

	mu   sync.Mutex
	eng  *treecell.Engine
	tree any
}

type loadParams struct {
	Tree any `json:"tree"`
}

type updateParams struct {
	Updates          any  `json:"updates"`
	MaxDepth         int  `json:"maxDepth,omitempty"`
	IgnoreArrayOrder bool `json:"ignoreArrayOrder,omitempty"`
	Batched          bool `json:"batched,omitempty"`
	BatchSize        int  `json:"batchSize,omitempty"`
}

type getParams struct {
	Path string `json:"path"`
}

func (s *server) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	s.log.Info("request", "method", req.Method())
	s.mu.Lock()
	defer s.mu.Unlock()
	switch req.Method() {
	case "treecell/load":
		var params loadParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, fmt.Errorf("%w: %w", jsonrpc2.ErrParse, err))
		}
		var ixOpts []pathindex.Option
		if s.instr {
			ixOpts = append(ixOpts, pathindex.WithInstrumentation())
		}
		eng, err := treecell.New(s.caps, ixOpts...)
		if err != nil {
			return reply(ctx, nil, err)
		}
		s.eng = eng
		s.tree = cell.Boxify(params.Tree)
		s.eng.Update(s.tree, nil, nil)
		return reply(ctx, map[string]any{"loaded": true}, nil)
	case "treecell/update":
		if s.eng == nil {
			return reply(ctx, nil, jsonrpc2.NewError(jsonrpc2.InvalidRequest, "no tree loaded"))
		}
		var params updateParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, fmt.Errorf("%w: %w", jsonrpc2.ErrParse, err))
		}
		res := s.eng.Update(s.tree, params.Updates, &treecell.UpdateOptions{
			MaxDepth:         params.MaxDepth,
			IgnoreArrayOrder: params.IgnoreArrayOrder,
			Batched:          params.Batched,
			BatchSize:        params.BatchSize,
		})
		s.log.Info("update", "changed", res.Changed, "paths", len(res.ChangedPaths))
		return reply(ctx, res, nil)
	case "treecell/get":
		if s.eng == nil {
			return reply(ctx, nil, jsonrpc2.NewError(jsonrpc2.InvalidRequest, "no tree loaded"))
		}
		var params getParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, fmt.Errorf("%w: %w", jsonrpc2.ErrParse, err))
		}
		cl := s.eng.Index().Get(keypath.Parse(params.Path))
		if cl == nil {
			return reply(ctx, map[string]any{"found": false}, nil)
		}
		return reply(ctx, map[string]any{"found": true, "value": s.caps.Get(cl)}, nil)
	case "treecell/stats":
		if s.eng == nil {
			return reply(ctx, nil, jsonrpc2.NewError(jsonrpc2.InvalidRequest, "no tree loaded"))
		}
		return reply(ctx, s.eng.Index().Stats(), nil)
	default:
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

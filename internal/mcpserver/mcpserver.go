// Package mcpserver exposes index/pack over the Model Context
// Protocol's stdio transport, for editor/agent integrations that want
// context packs without shelling out to the CLI. Grounded on the
// teacher's internal/mcp/server.go (mcp.NewServer + AddTool
// registration) and internal/mcp/response.go (JSON CallToolResult
// helpers), generalized from the teacher's dozens of search/analysis
// tools down to this spec's two operations plus a hotspots query.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/ctxpack/internal/config"
	"github.com/standardbeagle/ctxpack/internal/diagnostics"
	"github.com/standardbeagle/ctxpack/internal/discovery"
	"github.com/standardbeagle/ctxpack/internal/domains"
	"github.com/standardbeagle/ctxpack/internal/gitprobe"
	"github.com/standardbeagle/ctxpack/internal/indexer"
	"github.com/standardbeagle/ctxpack/internal/metrics"
	"github.com/standardbeagle/ctxpack/internal/pack"
	"github.com/standardbeagle/ctxpack/internal/resolver"
	"github.com/standardbeagle/ctxpack/internal/scanner"
	"github.com/standardbeagle/ctxpack/internal/scorer"
	"github.com/standardbeagle/ctxpack/internal/store"
)

// Server wraps the pipeline components behind three MCP tools: "index",
// "pack", and "hotspots". Every tool call runs against the same Root and reopens
// the Store fresh, since stdio requests are infrequent relative to
// index lifetime.
type Server struct {
	Root   string
	Cfg    *config.Config
	Log    *diagnostics.Logger
	server *mcp.Server
}

// New builds a Server bound to root, loading project config from
// .context/config.kdl.
func New(root string) (*Server, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	s := &Server{
		Root: root,
		Cfg:  cfg,
		Log:  diagnostics.New(true), // stdio transport: logging must never touch stdout/stderr
	}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "ctxpack-mcp-server",
		Version: "1.0.0",
	}, nil)
	s.registerTools()
	return s, nil
}

// Run blocks serving MCP requests over stdio until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	defer s.Log.Close()
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "index",
		Description: "Build or refresh the code index for this project.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleIndex)

	s.server.AddTool(&mcp.Tool{
		Name:        "pack",
		Description: "Resolve a task description (with optional stack trace and diff) into a scored, budget-bounded context pack.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"task":        {Type: "string", Description: "Free-text task description"},
				"stack_trace": {Type: "string", Description: "Optional pasted stack trace"},
				"diff":        {Type: "string", Description: "Optional unified diff"},
				"budget_tokens": {
					Type:        "integer",
					Description: "Token budget override; defaults to project config",
				},
			},
			Required: []string{"task"},
		},
	}, s.handlePack)

	s.server.AddTool(&mcp.Tool{
		Name:        "hotspots",
		Description: "List the files with the highest git-churn scores, as computed by the last index.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"limit": {Type: "integer", Description: "Maximum number of hotspots to return; defaults to 20"},
			},
		},
	}, s.handleHotspots)
}

type indexParams struct{}

func (s *Server) handleIndex(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestID := uuid.NewString()
	s.Log.Info("[%s] index request", requestID)

	st, err := store.Open(storePath(s.Root))
	if err != nil {
		return errorResult("index", err)
	}
	defer st.Close()

	progress := func(current, total int, path string) {}
	ix, err := indexer.New(s.Root, st, scanner.Options{
		IncludePatterns: s.Cfg.IncludePatterns,
		ExcludePatterns: s.Cfg.ExcludePatterns,
		MaxFileSize:     s.Cfg.MaxFileSize,
	}, progress)
	if err != nil {
		return errorResult("index", err)
	}

	start := time.Now()
	stats, warnings, err := ix.Index(ctx)
	if err != nil {
		return errorResult("index", err)
	}
	metrics.RecordIndex(stats.Files, stats.Symbols, len(warnings), time.Since(start).Seconds())

	return jsonResult(map[string]any{
		"request_id": requestID,
		"files":      stats.Files,
		"symbols":    stats.Symbols,
		"imports":    stats.Imports,
		"duration_ms": stats.DurationMS,
		"warnings":   warnings,
	})
}

type packParams struct {
	Task         string `json:"task"`
	StackTrace   string `json:"stack_trace"`
	Diff         string `json:"diff"`
	BudgetTokens int    `json:"budget_tokens"`
}

func (s *Server) handlePack(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestID := uuid.NewString()

	var params packParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResult("pack", fmt.Errorf("invalid parameters: %w", err))
	}
	s.Log.Info("[%s] pack request: %q", requestID, params.Task)

	st, err := store.Open(storePath(s.Root))
	if err != nil {
		return errorResult("pack", err)
	}
	defer st.Close()

	domainMgr, err := domains.New(s.Cfg.CustomDomains)
	if err != nil {
		return errorResult("pack", err)
	}
	res, err := resolver.New(domainMgr)
	if err != nil {
		return errorResult("pack", err)
	}
	task := res.Resolve(resolver.Input{
		Raw:        params.Task,
		StackTrace: params.StackTrace,
		Diff:       params.Diff,
	})

	git := gitprobe.New(s.Root)
	candidates, err := discovery.New(st, git).Discover(task)
	if err != nil {
		return errorResult("pack", err)
	}

	budget := params.BudgetTokens
	if budget <= 0 {
		budget = s.Cfg.BudgetTokens
	}
	sc := scorer.New(s.Cfg.Weights)
	scored := sc.Score(candidates, task)

	composeStart := time.Now()
	composer := pack.New(s.Root, budget, func(path string) (string, error) {
		return readFile(s.Root, path)
	})
	manifest, markdown, err := composer.Compose(task, scored)
	if err != nil {
		return errorResult("pack", err)
	}
	metrics.RecordPack(len(candidates), len(manifest.Files), time.Since(composeStart).Seconds())

	dir, err := composer.Write(manifest, markdown, time.Now())
	if err != nil {
		return errorResult("pack", err)
	}

	return jsonResult(map[string]any{
		"request_id": requestID,
		"pack_dir":   dir,
		"manifest":   manifest,
	})
}

type hotspotsParams struct {
	Limit int `json:"limit"`
}

func (s *Server) handleHotspots(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestID := uuid.NewString()

	var params hotspotsParams
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return errorResult("hotspots", fmt.Errorf("invalid parameters: %w", err))
		}
	}
	s.Log.Info("[%s] hotspots request: limit=%d", requestID, params.Limit)

	st, err := store.Open(storePath(s.Root))
	if err != nil {
		return errorResult("hotspots", err)
	}
	defer st.Close()

	hotspots, err := st.TopHotspots(params.Limit)
	if err != nil {
		return errorResult("hotspots", err)
	}

	return jsonResult(map[string]any{
		"request_id": requestID,
		"hotspots":   hotspots,
	})
}

func jsonResult(data any) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(content)}},
	}, nil
}

func errorResult(op string, err error) (*mcp.CallToolResult, error) {
	content, _ := json.Marshal(map[string]any{
		"success":   false,
		"operation": op,
		"error":     err.Error(),
	})
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(content)}},
		IsError: true,
	}, nil
}

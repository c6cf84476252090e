// Package mcpserver exposes complexity analysis as Model Context Protocol
// tools.
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/l3aro/go-cfg-complexity/internal/log"
	"github.com/l3aro/go-cfg-complexity/internal/runner"
	"github.com/l3aro/go-cfg-complexity/pkg/cache"
	"github.com/l3aro/go-cfg-complexity/pkg/cfg"
	"github.com/l3aro/go-cfg-complexity/pkg/complexity"
)

// Config configures a Server.
type Config struct {
	Version  string
	Analysis complexity.Options
	Cache    *cache.LRUCache
	Logger   log.Logger
}

// Server serves the analysis tools.
type Server struct {
	cfg       Config
	mcpServer *mcp.Server
}

// New creates a Server with its tools registered.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Discard()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	s := &Server{
		cfg:       cfg,
		mcpServer: mcp.NewServer(&mcp.Implementation{Name: "ccm", Version: cfg.Version}, nil),
	}
	s.registerTools()
	return s
}

// Run serves over stdin/stdout until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	s.cfg.Logger.Info("mcp server started", "version", s.cfg.Version)
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

// Arguments structs

type AnalyzeFileArgs struct {
	Path    string `json:"path" jsonschema:"Path of a .ll, .go, .py, .json or .yaml file"`
	Classic bool   `json:"classic,omitempty" jsonschema:"Also report E - N + 2P for each function"`
	Explain bool   `json:"explain,omitempty" jsonschema:"Include the ordered walk events for each function"`
}

type AnalyzeSourceArgs struct {
	Name    string `json:"name" jsonschema:"File name whose extension selects the frontend, e.g. main.go"`
	Content string `json:"content" jsonschema:"The file content to analyse"`
	Classic bool   `json:"classic,omitempty" jsonschema:"Also report E - N + 2P for each function"`
}

type FunctionCFGArgs struct {
	Path     string `json:"path" jsonschema:"Path of the file that defines the function"`
	Function string `json:"function" jsonschema:"Name of the function"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "analyze_file",
		Description: "Computes the DFS control-flow complexity of every function in a file",
	}, s.analyzeFile)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "analyze_source",
		Description: "Computes the DFS control-flow complexity of every function in the given source text",
	}, s.analyzeSource)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "function_cfg",
		Description: "Returns the control-flow graph of one function as blocks and edges",
	}, s.functionCFG)
}

func (s *Server) runner(classic, trace bool) *runner.Runner {
	opts := s.cfg.Analysis
	opts.Classical = opts.Classical || classic
	opts.Trace = opts.Trace || trace
	return runner.New(runner.Options{Analysis: opts, Cache: s.cfg.Cache, Logger: s.cfg.Logger})
}

func (s *Server) analyzeFile(ctx context.Context, req *mcp.CallToolRequest, args AnalyzeFileArgs) (*mcp.CallToolResult, any, error) {
	if args.Path == "" {
		return errorResult("path is required"), nil, nil
	}
	results, err := s.runner(args.Classic, args.Explain).File(ctx, args.Path)
	if err != nil {
		return analysisError(err), nil, nil
	}
	return jsonResult(results), nil, nil
}

func (s *Server) analyzeSource(ctx context.Context, req *mcp.CallToolRequest, args AnalyzeSourceArgs) (*mcp.CallToolResult, any, error) {
	if args.Name == "" {
		return errorResult("name is required"), nil, nil
	}
	results, err := s.runner(args.Classic, false).Bytes(ctx, args.Name, []byte(args.Content))
	if err != nil {
		return analysisError(err), nil, nil
	}
	return jsonResult(results), nil, nil
}

func (s *Server) functionCFG(ctx context.Context, req *mcp.CallToolRequest, args FunctionCFGArgs) (*mcp.CallToolResult, any, error) {
	m, err := cfg.Load(ctx, args.Path)
	if err != nil {
		return analysisError(err), nil, nil
	}
	info, err := m.Function(args.Function)
	if err != nil {
		return errorResult(fmt.Sprintf("%v (available: %v)", err, m.Names())), nil, nil
	}
	return jsonResult(info), nil, nil
}

// analysisError maps an analysis failure to a tool error the client can act on.
func analysisError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, cfg.ErrUnsupportedInput):
		return errorResult(fmt.Sprintf("Unsupported input: %v", err))
	case errors.Is(err, cfg.ErrInputParse):
		return errorResult(fmt.Sprintf("Parse failed: %v", err))
	case errors.Is(err, complexity.ErrMalformedFunction):
		return errorResult(fmt.Sprintf("Malformed function: %v", err))
	default:
		return errorResult(fmt.Sprintf("Analysis failed: %v", err))
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("Encoding failed: %v", err))
	}
	return textResult(string(data))
}

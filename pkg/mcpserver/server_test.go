package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-cfg-complexity/pkg/cache"
	"github.com/l3aro/go-cfg-complexity/pkg/cfg"
	"github.com/l3aro/go-cfg-complexity/pkg/complexity"
)

const loopIR = `define void @loop(i1 %c) {
entry:
  br label %head
head:
  br i1 %c, label %head, label %exit
exit:
  ret void
}
`

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func newServer() *Server {
	return New(Config{Analysis: complexity.DefaultOptions(), Cache: cache.New(cache.Options{})})
}

func TestAnalyzeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.ll")
	require.NoError(t, os.WriteFile(path, []byte(loopIR), 0o644))

	res, _, err := newServer().analyzeFile(context.Background(), nil, AnalyzeFileArgs{Path: path, Classic: true, Explain: true})
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	var results []complexity.Result
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "loop", results[0].Function)
	assert.Equal(t, 2, results[0].Complexity)
	require.NotNil(t, results[0].Classical)
	assert.Equal(t, 2, *results[0].Classical)
	assert.NotEmpty(t, results[0].Trace)
}

func TestAnalyzeFile_Errors(t *testing.T) {
	s := newServer()
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.ll")
	require.NoError(t, os.WriteFile(broken, []byte("define"), 0o644))

	tests := []struct {
		name string
		path string
		want string
	}{
		{"missing path", "", "path is required"},
		{"unsupported", filepath.Join(dir, "x.rs"), "Unsupported input"},
		{"unparsable", broken, "Parse failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _, err := s.analyzeFile(context.Background(), nil, AnalyzeFileArgs{Path: tt.path})
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, text(t, res), tt.want)
		})
	}
}

func TestAnalyzeSource(t *testing.T) {
	s := newServer()
	src := "def f(x):\n    if x:\n        return 1\n    return 2\n"

	res, _, err := s.analyzeSource(context.Background(), nil, AnalyzeSourceArgs{Name: "f.py", Content: src})
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	var results []complexity.Result
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &results))
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Complexity)
	assert.Nil(t, results[0].Classical)

	res, _, err = s.analyzeSource(context.Background(), nil, AnalyzeSourceArgs{
		Name:    "m.json",
		Content: `{"function_name": "f", "blocks": [{"id": "a"}], "edges": [{"source_id": "a", "target_id": "b"}]}`,
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "Malformed function")
}

func TestFunctionCFG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.ll")
	require.NoError(t, os.WriteFile(path, []byte(loopIR), 0o644))
	s := newServer()

	res, _, err := s.functionCFG(context.Background(), nil, FunctionCFGArgs{Path: path, Function: "loop"})
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	var info cfg.CFGInfo
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &info))
	assert.Equal(t, "loop", info.FunctionName)
	assert.Len(t, info.Blocks, 3)
	assert.Len(t, info.Edges, 3)

	res, _, err = s.functionCFG(context.Background(), nil, FunctionCFGArgs{Path: path, Function: "nope"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "available: [loop]")
}

func TestServer_InMemorySession(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "loop.ll")
	require.NoError(t, os.WriteFile(path, []byte(loopIR), 0o644))

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := newServer().Connect(ctx, serverTransport)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"analyze_file", "analyze_source", "function_cfg"}, names)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "analyze_file",
		Arguments: map[string]any{"path": path},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, text(t, res), `"complexity": 2`)
}

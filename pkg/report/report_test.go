package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-cfg-complexity/pkg/complexity"
)

func entries() []Entry {
	classical := 1
	return []Entry{
		{Source: "a.ll", Result: complexity.Result{Function: "main", Complexity: 1, Terminals: 1, Blocks: 1, Reachable: 1}},
		{Source: "a.ll", Result: complexity.Result{
			Function: "branch", Complexity: 2, Terminals: 2, Blocks: 3, Reachable: 3, Classical: &classical,
			Trace: []complexity.Event{
				{Kind: complexity.EventTree, From: 0, To: 1},
				{Kind: complexity.EventTerminal, From: 1, To: -1},
			},
		}},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"prometheus", FormatPrometheus, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextReporter(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(FormatText, &buf, Options{})
	require.NoError(t, err)
	require.NoError(t, All(r, entries()))

	assert.Equal(t,
		"main: Cyclomatic Complexity = 1\nbranch: Cyclomatic Complexity = 2\n",
		buf.String())
}

func TestTextReporter_Explain(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(FormatText, &buf, Options{Explain: true, ShowSource: true, Threshold: 1})
	require.NoError(t, err)
	require.NoError(t, All(r, entries()))

	out := buf.String()
	assert.Contains(t, out, "a.ll:main: Cyclomatic Complexity = 1\n")
	assert.Contains(t, out, "a.ll:branch: Cyclomatic Complexity = 2 (above threshold)\n")
	assert.Contains(t, out, "  terminals:     2\n")
	assert.Contains(t, out, "  E - N + 2P:    1\n")
	assert.Contains(t, out, "tree     0 -> 1")
	assert.Contains(t, out, "terminal 1\n")
}

func TestTextReporter_Color(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(FormatText, &buf, Options{Color: true, Threshold: 1})
	require.NoError(t, err)
	require.NoError(t, All(r, entries()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Cyclomatic Complexity = ")
	assert.NotContains(t, lines[1], "above threshold")
}

func TestJSONReporter(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(FormatJSON, &buf, Options{})
	require.NoError(t, err)
	require.NoError(t, All(r, entries()))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a.ll", got[0]["source"])
	assert.Equal(t, "main", got[0]["function"])
	assert.EqualValues(t, 2, got[1]["complexity"])
	assert.EqualValues(t, 1, got[1]["classical"])
	assert.NotContains(t, got[0], "classical")

	trace, ok := got[1]["trace"].([]any)
	require.True(t, ok)
	assert.Equal(t, "tree", trace[0].(map[string]any)["kind"])
}

func TestJSONReporter_Empty(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(FormatJSON, &buf, Options{})
	require.NoError(t, err)
	require.NoError(t, r.Flush())
	assert.Equal(t, "[]\n", buf.String())
}

func TestPrometheusReporter(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(FormatPrometheus, &buf, Options{})
	require.NoError(t, err)
	require.NoError(t, All(r, entries()))

	out := buf.String()
	assert.Contains(t, out, "# TYPE ccm_function_complexity gauge\n")
	assert.Contains(t, out, `ccm_function_complexity{function="main",index="0",source="a.ll"} 1`)
	assert.Contains(t, out, `ccm_function_complexity{function="branch",index="1",source="a.ll"} 2`)
	assert.Contains(t, out, `ccm_function_terminals{function="branch",index="1",source="a.ll"} 2`)
	assert.Contains(t, out, `ccm_function_classical_complexity{function="branch",index="1",source="a.ll"} 1`)
	assert.NotContains(t, out, `ccm_function_classical_complexity{function="main"`)
}

func TestPrometheusReporter_SameName(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(FormatPrometheus, &buf, Options{})
	require.NoError(t, err)
	require.NoError(t, All(r, []Entry{
		{Source: "c.py", Result: complexity.Result{Function: "C.x", Complexity: 1}},
		{Source: "c.py", Result: complexity.Result{Function: "C.x", Complexity: 2}},
		{Source: "d.py", Result: complexity.Result{Function: "C.x", Complexity: 3}},
	}))

	out := buf.String()
	assert.Contains(t, out, `ccm_function_complexity{function="C.x",index="0",source="c.py"} 1`)
	assert.Contains(t, out, `ccm_function_complexity{function="C.x",index="1",source="c.py"} 2`)
	assert.Contains(t, out, `ccm_function_complexity{function="C.x",index="0",source="d.py"} 3`)
	assert.Equal(t, 3, strings.Count(out, "ccm_function_complexity{"))
}

func TestPrometheusReporter_Escaping(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(FormatPrometheus, &buf, Options{})
	require.NoError(t, err)
	require.NoError(t, All(r, []Entry{
		{Source: `dir\a.ll`, Result: complexity.Result{Function: "foo\tbar \"q\"\nz", Complexity: 1}},
	}))

	out := buf.String()
	assert.Contains(t, out, `ccm_function_complexity{function="foo`+"\t"+`bar \"q\"\nz",index="0",source="dir\\a.ll"} 1`)
	assert.NotContains(t, out, `\t`)
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

package complexity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	g := graph([]int{1}, []int{0, 2}, nil, []int{2})
	g.name = "loop"

	res, err := Analyze(g, Options{Classical: true})
	require.NoError(t, err)

	assert.Equal(t, "loop", res.Function)
	assert.Equal(t, 2, res.Complexity)
	assert.Equal(t, 1, res.Terminals)
	assert.Equal(t, 1, res.ClosingEdges)
	assert.Equal(t, 4, res.Blocks)
	assert.Equal(t, 3, res.Reachable)
	require.NotNil(t, res.Classical)
	assert.Equal(t, 4-4+2, *res.Classical)
	assert.Nil(t, res.Trace)
}

func TestAnalyze_Trace(t *testing.T) {
	res, err := Analyze(graph([]int{1, 2}, nil, nil), Options{Trace: true})
	require.NoError(t, err)

	assert.Len(t, res.Trace, 4)
	assert.Nil(t, res.Classical)
}

func TestAnalyze_Idempotent(t *testing.T) {
	g := graph([]int{1, 2}, []int{3}, []int{3, 0}, []int{1})

	for _, s := range strategies {
		first, err := Analyze(g, Options{Strategy: s})
		require.NoError(t, err)
		second, err := Analyze(g, Options{Strategy: s})
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestAnalyze_Malformed(t *testing.T) {
	tests := []struct {
		name string
		g    adjacency
	}{
		{"no blocks", adjacency{name: "empty"}},
		{"entry out of range", adjacency{name: "f", entry: 3, succs: [][]int{nil}}},
		{"negative entry", adjacency{name: "f", entry: -1, succs: [][]int{nil}}},
		{"successor out of range", graph([]int{1, 7}, nil)},
		{"negative successor", graph([]int{-1})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Analyze(tt.g, DefaultOptions())
			assert.ErrorIs(t, err, ErrMalformedFunction)
			assert.Contains(t, err.Error(), tt.g.name)

			_, err = Count(tt.g)
			assert.ErrorIs(t, err, ErrMalformedFunction)
		})
	}
}

func TestCount(t *testing.T) {
	n, err := Count(graph([]int{0}))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, StrategyIterative, opts.Strategy)
	assert.Equal(t, 1, opts.Parallelism)
	assert.False(t, opts.Classical)
	assert.False(t, opts.Trace)
}

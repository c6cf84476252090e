package complexity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassical(t *testing.T) {
	tests := []struct {
		name      string
		g         adjacency
		classical int
		dfs       int
	}{
		{"single block", graph(nil), 1, 1},
		{"diamond", graph([]int{1, 2}, []int{3}, []int{3}, nil), 2, 2},
		{"if with two terminals", graph([]int{1, 2}, nil, nil), 1, 2},
		{"self loop", graph([]int{0}), 2, 1},
		{"two-block cycle", graph([]int{1}, []int{0}), 2, 1},
		{"loop then exit", graph([]int{1}, []int{0, 2}, nil), 2, 2},
		{"disconnected block", graph(nil, nil), 2, 1},
		{"duplicate edge", graph([]int{1, 1}, nil), 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.classical, Classical(tt.g), "classical")

			n, err := Count(tt.g)
			assert.NoError(t, err)
			assert.Equal(t, tt.dfs, n, "dfs")
		})
	}
}

func TestClassical_Empty(t *testing.T) {
	assert.Equal(t, 0, Classical(adjacency{}))
}

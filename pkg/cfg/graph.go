package cfg

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownBlock is returned when an edge or the entry refers to a block
	// ID that the function does not define.
	ErrUnknownBlock = errors.New("unknown block")
	// ErrDuplicateBlock is returned when two blocks share an ID.
	ErrDuplicateBlock = errors.New("duplicate block id")
)

// Graph is a dense, read-only view of a CFGInfo. Blocks are numbered in the
// order they appear in CFGInfo.Blocks.
type Graph struct {
	name  string
	ids   []string
	succs [][]int
	kinds [][]EdgeType
	entry int
	edges int
}

// Graph builds the dense view of c. A function without blocks yields an empty
// Graph; callers decide whether that is an error.
func (c *CFGInfo) Graph() (*Graph, error) {
	g := &Graph{
		name:  c.FunctionName,
		ids:   make([]string, len(c.Blocks)),
		succs: make([][]int, len(c.Blocks)),
		kinds: make([][]EdgeType, len(c.Blocks)),
	}

	index := make(map[string]int, len(c.Blocks))
	for i, b := range c.Blocks {
		if _, dup := index[b.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateBlock, b.ID)
		}
		index[b.ID] = i
		g.ids[i] = b.ID
	}

	if c.EntryBlockID != "" {
		entry, ok := index[c.EntryBlockID]
		if !ok {
			return nil, fmt.Errorf("%w: entry %q", ErrUnknownBlock, c.EntryBlockID)
		}
		g.entry = entry
	}

	for _, e := range c.Edges {
		from, ok := index[e.SourceID]
		if !ok {
			return nil, fmt.Errorf("%w: edge source %q", ErrUnknownBlock, e.SourceID)
		}
		to, ok := index[e.TargetID]
		if !ok {
			return nil, fmt.Errorf("%w: edge target %q", ErrUnknownBlock, e.TargetID)
		}
		g.succs[from] = append(g.succs[from], to)
		g.kinds[from] = append(g.kinds[from], e.EdgeType)
		g.edges++
	}

	return g, nil
}

// Name returns the function name.
func (g *Graph) Name() string { return g.name }

// NumBlocks returns the number of blocks.
func (g *Graph) NumBlocks() int { return len(g.ids) }

// NumEdges returns the number of edges, duplicates included.
func (g *Graph) NumEdges() int { return g.edges }

// Entry returns the index of the entry block.
func (g *Graph) Entry() int { return g.entry }

// Successors returns the successors of block in edge order. The slice must
// not be modified.
func (g *Graph) Successors(block int) []int { return g.succs[block] }

// EdgeTypes returns the types of the outgoing edges of block, parallel to
// Successors.
func (g *Graph) EdgeTypes(block int) []EdgeType { return g.kinds[block] }

// BlockID returns the document ID of block.
func (g *Graph) BlockID(block int) string { return g.ids[block] }

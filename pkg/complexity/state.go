package complexity

import (
	"github.com/bits-and-blooms/bitset"
)

// Color is the visitation status of a block during one walk.
type Color uint8

const (
	Unvisited Color = iota // Never entered
	Done                   // Entered; on the walk stack or fully explored
)

func (c Color) String() string {
	switch c {
	case Unvisited:
		return "unvisited"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// VisitState maps block indices to their Color for the duration of a single
// analysis. Blocks that were never marked report Unvisited.
type VisitState struct {
	done *bitset.BitSet
}

// NewVisitState creates an empty state sized for a graph of n blocks.
func NewVisitState(n int) *VisitState {
	if n < 0 {
		n = 0
	}
	return &VisitState{done: bitset.New(uint(n))}
}

// Mark colors block Done. Marking a Done block again is a no-op.
func (s *VisitState) Mark(block int) {
	s.done.Set(uint(block))
}

// Color returns the current color of block.
func (s *VisitState) Color(block int) Color {
	if s.done.Test(uint(block)) {
		return Done
	}
	return Unvisited
}

// Marked returns the number of blocks colored Done.
func (s *VisitState) Marked() int {
	return int(s.done.Count())
}

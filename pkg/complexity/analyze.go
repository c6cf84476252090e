// Package complexity computes the DFS-based control-flow complexity of a
// function: the number of terminal blocks reached by a depth-first walk plus
// the number of edges whose target the walk had already entered.
//
// The count is not E - N + 2P. A block is colored Done the moment the walk
// enters it and that single color covers both "on the current path" and
// "fully explored", so back edges and forward/cross edges are counted alike.
// Classical computes the textbook formula for comparison.
package complexity

import (
	"errors"
	"fmt"
)

// ErrMalformedFunction is returned when a function cannot be walked: it has no
// blocks, or its graph references blocks that do not exist.
var ErrMalformedFunction = errors.New("malformed function")

// CFG is the read-only view of one function's control-flow graph. Blocks are
// identified by dense indices in [0, NumBlocks()).
type CFG interface {
	// NumBlocks returns the number of blocks in the function.
	NumBlocks() int

	// Entry returns the index of the entry block. Only meaningful when
	// NumBlocks() > 0.
	Entry() int

	// Successors returns the successor indices of block in control-flow
	// order. An empty result marks a terminal block. Duplicates are allowed
	// and each one is a separate edge.
	Successors(block int) []int
}

// Function is a CFG that knows the name it is reported under.
type Function interface {
	CFG
	Name() string
}

// Options configures an analysis.
type Options struct {
	Strategy    Strategy // Walk driver; empty means StrategyIterative
	Classical   bool     // Also compute E - N + 2P
	Trace       bool     // Keep the ordered walk events in the result
	Parallelism int      // Functions analysed concurrently by AnalyzeModule; <= 0 means one per CPU
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Strategy:    StrategyIterative,
		Parallelism: 1,
	}
}

// Result is the outcome of analysing one function.
type Result struct {
	Function     string  `json:"function" yaml:"function" msgpack:"function"`
	Complexity   int     `json:"complexity" yaml:"complexity" msgpack:"complexity"`
	Terminals    int     `json:"terminals" yaml:"terminals" msgpack:"terminals"`
	ClosingEdges int     `json:"closing_edges" yaml:"closing_edges" msgpack:"closing_edges"`
	Blocks       int     `json:"blocks" yaml:"blocks" msgpack:"blocks"`
	Reachable    int     `json:"reachable" yaml:"reachable" msgpack:"reachable"`
	Classical    *int    `json:"classical,omitempty" yaml:"classical,omitempty" msgpack:"classical,omitempty"`
	Trace        []Event `json:"trace,omitempty" yaml:"trace,omitempty" msgpack:"trace,omitempty"`
}

// Analyze walks fn from its entry block with fresh state and returns the
// count. Calls share nothing, so the same Function can be analysed any number
// of times, from any number of goroutines.
func Analyze(fn Function, opts Options) (Result, error) {
	if err := validate(fn); err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrMalformedFunction, fn.Name(), err)
	}

	var (
		counts Counts
		trace  []Event
	)
	if opts.Trace {
		counts, trace = WalkTrace(fn, opts.Strategy)
	} else {
		counts = Walk(fn, opts.Strategy)
	}

	res := Result{
		Function:     fn.Name(),
		Complexity:   counts.Total(),
		Terminals:    counts.Terminals,
		ClosingEdges: counts.ClosingEdges,
		Blocks:       fn.NumBlocks(),
		Reachable:    counts.Visited,
		Trace:        trace,
	}
	if opts.Classical {
		classical := Classical(fn)
		res.Classical = &classical
	}
	return res, nil
}

// Count returns only the complexity of g using the iterative walk.
func Count(g CFG) (int, error) {
	if err := validate(g); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedFunction, err)
	}
	return Walk(g, StrategyIterative).Total(), nil
}

func validate(g CFG) error {
	n := g.NumBlocks()
	if n == 0 {
		return errors.New("function has no blocks")
	}
	if entry := g.Entry(); entry < 0 || entry >= n {
		return fmt.Errorf("entry block %d out of range [0, %d)", entry, n)
	}
	for b := 0; b < n; b++ {
		for _, s := range g.Successors(b) {
			if s < 0 || s >= n {
				return fmt.Errorf("block %d has successor %d out of range [0, %d)", b, s, n)
			}
		}
	}
	return nil
}

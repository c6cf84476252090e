package complexity

import (
	"fmt"
)

// Strategy selects how the depth-first walk is driven.
type Strategy string

const (
	// StrategyIterative drives the walk with an explicit frame stack, so deep
	// graphs cannot exhaust the goroutine stack.
	StrategyIterative Strategy = "iterative"
	// StrategyRecursive descends with direct recursion.
	StrategyRecursive Strategy = "recursive"
)

// ParseStrategy converts a config or flag value into a Strategy.
// The empty string selects StrategyIterative.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyIterative:
		return StrategyIterative, nil
	case StrategyRecursive:
		return StrategyRecursive, nil
	default:
		return "", fmt.Errorf("unknown walk strategy %q (must be 'iterative' or 'recursive')", s)
	}
}

// EventKind classifies one counted or traversed step of the walk.
type EventKind uint8

const (
	EventTree     EventKind = iota // Edge to an Unvisited block; the walk descends
	EventClosing                   // Edge to a Done block; counted, not followed
	EventTerminal                  // Block without successors; counted
)

func (k EventKind) String() string {
	switch k {
	case EventTree:
		return "tree"
	case EventClosing:
		return "closing"
	case EventTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name in JSON and YAML output.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EventKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "tree":
		*k = EventTree
	case "closing":
		*k = EventClosing
	case "terminal":
		*k = EventTerminal
	default:
		return fmt.Errorf("unknown event kind %q", text)
	}
	return nil
}

// Event is one step of a traced walk. To is -1 for EventTerminal.
type Event struct {
	Kind EventKind `json:"kind" msgpack:"kind"`
	From int       `json:"from" msgpack:"from"`
	To   int       `json:"to" msgpack:"to"`
}

// Counts holds the components of the complexity count.
type Counts struct {
	Terminals    int // Reachable blocks without successors
	ClosingEdges int // Edges whose target was already Done when traversed
	Visited      int // Blocks entered by the walk
}

// Total is the complexity: terminals plus closing edges.
func (c Counts) Total() int {
	return c.Terminals + c.ClosingEdges
}

type walker struct {
	g       CFG
	state   *VisitState
	counts  Counts
	tracing bool
	trace   []Event
}

func newWalker(g CFG, tracing bool) *walker {
	return &walker{
		g:       g,
		state:   NewVisitState(g.NumBlocks()),
		tracing: tracing,
	}
}

// Walk runs the depth-first count from the entry block of g. g must have at
// least one block and every successor index must be in range; Analyze checks
// both before walking.
func Walk(g CFG, strategy Strategy) Counts {
	w := newWalker(g, false)
	w.run(strategy)
	return w.counts
}

// WalkTrace is Walk that also returns every step in traversal order.
func WalkTrace(g CFG, strategy Strategy) (Counts, []Event) {
	w := newWalker(g, true)
	w.run(strategy)
	return w.counts, w.trace
}

func (w *walker) run(strategy Strategy) {
	entry := w.g.Entry()
	if strategy == StrategyRecursive {
		w.recursive(entry)
		return
	}
	w.iterative(entry)
}

func (w *walker) record(kind EventKind, from, to int) {
	if w.tracing {
		w.trace = append(w.trace, Event{Kind: kind, From: from, To: to})
	}
}

// enter colors block Done before anything else looks at it, then counts it if
// it is terminal. It reports whether the block has successors to explore.
func (w *walker) enter(block int) bool {
	w.state.Mark(block)
	w.counts.Visited++
	if len(w.g.Successors(block)) == 0 {
		w.counts.Terminals++
		w.record(EventTerminal, block, -1)
		return false
	}
	return true
}

// follow handles the edge from -> to. It reports whether the walk must
// descend into to.
func (w *walker) follow(from, to int) bool {
	if w.state.Color(to) == Done {
		w.counts.ClosingEdges++
		w.record(EventClosing, from, to)
		return false
	}
	w.record(EventTree, from, to)
	return true
}

func (w *walker) recursive(block int) {
	if !w.enter(block) {
		return
	}
	for _, succ := range w.g.Successors(block) {
		if w.follow(block, succ) {
			w.recursive(succ)
		}
	}
}

// frame is a block on the explicit stack together with the index of the
// next successor to examine.
type frame struct {
	block int
	next  int
}

func (w *walker) iterative(entry int) {
	if !w.enter(entry) {
		return
	}

	stack := []frame{{block: entry}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		succs := w.g.Successors(top.block)
		if top.next == len(succs) {
			stack = stack[:len(stack)-1]
			continue
		}

		from, succ := top.block, succs[top.next]
		top.next++

		if w.follow(from, succ) && w.enter(succ) {
			stack = append(stack, frame{block: succ})
		}
	}
}

// Package cfg defines data structures for representing Control Flow Graphs (CFGs)
// and the frontends that build them from LLVM IR, Go and Python sources, or
// serialized CFG documents.
package cfg

// BlockType represents the type of a CFG block.
type BlockType string

const (
	BlockTypeEntry       BlockType = "entry"       // Function entry point
	BlockTypeBranch      BlockType = "branch"      // Conditional branch (if/elif/else, switch)
	BlockTypeLoopHeader  BlockType = "loop_header" // Loop condition or iterator
	BlockTypeLoopBody    BlockType = "loop_body"   // Loop body (for/while)
	BlockTypeMerge       BlockType = "merge"       // Join point after a branch or loop
	BlockTypeHandler     BlockType = "handler"     // Exception handler
	BlockTypeReturn      BlockType = "return"      // Ends with a return
	BlockTypeUnreachable BlockType = "unreachable" // Ends with an unreachable terminator
	BlockTypeExit        BlockType = "exit"        // Function exit point
	BlockTypePlain       BlockType = "plain"       // Regular statements
)

// EdgeType represents the type of a CFG edge.
type EdgeType string

const (
	EdgeTypeUnconditional EdgeType = "unconditional" // Unconditional jump
	EdgeTypeTrue          EdgeType = "true"          // True branch of conditional
	EdgeTypeFalse         EdgeType = "false"         // False branch of conditional
	EdgeTypeCase          EdgeType = "case"          // Switch/select/match arm
	EdgeTypeBackEdge      EdgeType = "back_edge"     // Back edge (loop continuation)
	EdgeTypeBreak         EdgeType = "break"         // Break from loop/switch
	EdgeTypeContinue      EdgeType = "continue"      // Continue to next iteration
	EdgeTypeFallthrough   EdgeType = "fallthrough"   // Fall into the next switch case
	EdgeTypeGoto          EdgeType = "goto"          // Jump to a label
	EdgeTypeReturn        EdgeType = "return"        // Return to the caller
	EdgeTypeException     EdgeType = "exception"     // Raise, panic or handler dispatch
	EdgeTypeUnwind        EdgeType = "unwind"        // Unwind destination of an invoke
)

// CFGBlock represents a basic block in the Control Flow Graph.
// A block is a sequence of statements with a single entry and exit point.
type CFGBlock struct {
	ID         string    `json:"id" yaml:"id"`                                     // Unique identifier for the block
	Type       BlockType `json:"type,omitempty" yaml:"type,omitempty"`             // Type of block
	StartLine  int       `json:"start_line,omitempty" yaml:"start_line,omitempty"` // Starting line number in source
	EndLine    int       `json:"end_line,omitempty" yaml:"end_line,omitempty"`     // Ending line number in source
	Statements []string  `json:"statements,omitempty" yaml:"statements,omitempty"` // Statements in this block
}

// CFGEdge represents a directed edge between two CFG blocks.
type CFGEdge struct {
	SourceID  string   `json:"source_id" yaml:"source_id"`                     // ID of the source block
	TargetID  string   `json:"target_id" yaml:"target_id"`                     // ID of the target block
	EdgeType  EdgeType `json:"edge_type,omitempty" yaml:"edge_type,omitempty"` // Type of edge
	Condition string   `json:"condition,omitempty" yaml:"condition,omitempty"` // Condition expression for conditional edges
}

// CFGInfo represents the complete Control Flow Graph for a function.
//
// Blocks and Edges are ordered. The entry block is EntryBlockID, or the first
// block when it is empty. The successors of a block are the targets of its
// outgoing edges in the order they appear in Edges.
type CFGInfo struct {
	FunctionName         string     `json:"function_name" yaml:"function_name"`
	Blocks               []CFGBlock `json:"blocks" yaml:"blocks"`
	Edges                []CFGEdge  `json:"edges" yaml:"edges"`
	EntryBlockID         string     `json:"entry_block_id,omitempty" yaml:"entry_block_id,omitempty"`
	ExitBlockIDs         []string   `json:"exit_block_ids,omitempty" yaml:"exit_block_ids,omitempty"`
	CyclomaticComplexity int        `json:"cyclomatic_complexity,omitempty" yaml:"cyclomatic_complexity,omitempty"`
}

// Language identifies the frontend that produced a Module.
type Language string

const (
	LanguageLLVM     Language = "llvm"
	LanguageGo       Language = "go"
	LanguagePython   Language = "python"
	LanguageDocument Language = "document"
)

// Module is the ordered list of functions found in one input.
type Module struct {
	Source    string     `json:"source,omitempty" yaml:"source,omitempty"`
	Language  Language   `json:"language,omitempty" yaml:"language,omitempty"`
	Functions []*CFGInfo `json:"functions" yaml:"functions"`
}

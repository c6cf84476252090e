package cfg

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// jumpTarget is an enclosing statement that break or continue can leave.
// continueTo is nil for switch, select and match.
type jumpTarget struct {
	label      string
	breakTo    *CFGBlock
	continueTo *CFGBlock
}

type pendingGoto struct {
	from  *CFGBlock
	label string
}

// builder accumulates the blocks and edges of one function while a frontend
// walks its syntax tree. The current block is passed around as **CFGBlock; a
// nil current block means the code that follows is unreachable until a new
// block is started.
type builder struct {
	content []byte
	blocks  []*CFGBlock
	edges   []CFGEdge
	blockID int
	entry   *CFGBlock
	exit    *CFGBlock
	targets []jumpTarget
	labels  map[string]*CFGBlock
	gotos   []pendingGoto
}

func newBuilder(content []byte, startLine, endLine int) *builder {
	b := &builder{
		content: content,
		labels:  make(map[string]*CFGBlock),
	}
	b.entry = b.newBlock(BlockTypeEntry, startLine)
	b.entry.Statements = []string{"entry"}

	// The exit block is numbered now so returns can target it, but it is
	// appended after every other block in finish.
	b.blockID++
	b.exit = &CFGBlock{
		ID:         fmt.Sprintf("block_%d", b.blockID),
		Type:       BlockTypeExit,
		StartLine:  endLine,
		EndLine:    endLine,
		Statements: []string{"exit"},
	}
	return b
}

func (b *builder) newBlock(blockType BlockType, line int) *CFGBlock {
	b.blockID++
	block := &CFGBlock{
		ID:         fmt.Sprintf("block_%d", b.blockID),
		Type:       blockType,
		StartLine:  line,
		EndLine:    line,
		Statements: make([]string, 0),
	}
	b.blocks = append(b.blocks, block)
	return block
}

func (b *builder) addEdge(from, to *CFGBlock, edgeType EdgeType) {
	b.addCondEdge(from, to, edgeType, "")
}

func (b *builder) addCondEdge(from, to *CFGBlock, edgeType EdgeType, condition string) {
	if from == nil || to == nil {
		return
	}
	b.edges = append(b.edges, CFGEdge{
		SourceID:  from.ID,
		TargetID:  to.ID,
		EdgeType:  edgeType,
		Condition: condition,
	})
}

// flow connects the current block to next and makes next current.
func (b *builder) flow(currentBlock **CFGBlock, next *CFGBlock, edgeType EdgeType) {
	b.addEdge(*currentBlock, next, edgeType)
	*currentBlock = next
}

// jump ends the current block with an edge to target. Code after a jump is
// unreachable.
func (b *builder) jump(currentBlock **CFGBlock, target *CFGBlock, edgeType EdgeType) {
	b.addEdge(*currentBlock, target, edgeType)
	*currentBlock = nil
}

// addStatement appends the text of node to the current block, opening a
// fresh block first when the statement follows a jump.
func (b *builder) addStatement(currentBlock **CFGBlock, node *sitter.Node) {
	b.addText(currentBlock, strings.TrimSpace(b.nodeText(node)), node)
}

func (b *builder) addText(currentBlock **CFGBlock, stmt string, node *sitter.Node) {
	if stmt == "" {
		return
	}
	if *currentBlock == nil {
		*currentBlock = b.newBlock(BlockTypePlain, startLine(node))
	}
	(*currentBlock).Statements = append((*currentBlock).Statements, stmt)
	(*currentBlock).EndLine = endLine(node)
}

func (b *builder) pushTarget(t jumpTarget) { b.targets = append(b.targets, t) }

func (b *builder) popTarget() { b.targets = b.targets[:len(b.targets)-1] }

// breakTarget returns the block a break with the given label leaves to.
// An empty label selects the innermost target.
func (b *builder) breakTarget(label string) *CFGBlock {
	for i := len(b.targets) - 1; i >= 0; i-- {
		t := b.targets[i]
		if label == "" || t.label == label {
			return t.breakTo
		}
	}
	return nil
}

// continueTarget returns the loop block a continue with the given label
// resumes at. An empty label selects the innermost loop.
func (b *builder) continueTarget(label string) *CFGBlock {
	for i := len(b.targets) - 1; i >= 0; i-- {
		t := b.targets[i]
		if t.continueTo == nil {
			continue
		}
		if label == "" || t.label == label {
			return t.continueTo
		}
	}
	return nil
}

// finish closes the function: the current block falls into the exit block,
// gotos are resolved, and blocks unreachable from the entry are dropped.
func (b *builder) finish(name string, currentBlock *CFGBlock) *CFGInfo {
	b.addEdge(currentBlock, b.exit, EdgeTypeUnconditional)

	for _, g := range b.gotos {
		if target, ok := b.labels[g.label]; ok {
			b.addEdge(g.from, target, EdgeTypeGoto)
		}
	}

	b.blocks = append(b.blocks, b.exit)
	blocks, edges := b.reachable()

	info := &CFGInfo{
		FunctionName: name,
		Blocks:       blocks,
		Edges:        edges,
		EntryBlockID: b.entry.ID,
	}
	for _, block := range blocks {
		if block.ID == b.exit.ID {
			info.ExitBlockIDs = []string{b.exit.ID}
		}
	}
	return info
}

// reachable returns the blocks reachable from the entry block, in creation
// order, and the edges between them.
func (b *builder) reachable() ([]CFGBlock, []CFGEdge) {
	index := make(map[string]int64, len(b.blocks))
	g := simple.NewDirectedGraph()
	for i, block := range b.blocks {
		index[block.ID] = int64(i)
		g.AddNode(simple.Node(i))
	}
	for _, e := range b.edges {
		from, to := index[e.SourceID], index[e.TargetID]
		if from == to {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(from), simple.Node(to)))
	}

	df := &traverse.DepthFirst{}
	df.Walk(g, simple.Node(index[b.entry.ID]), nil)

	blocks := make([]CFGBlock, 0, len(b.blocks))
	for i, block := range b.blocks {
		if df.Visited(simple.Node(i)) {
			blocks = append(blocks, *block)
		}
	}
	edges := make([]CFGEdge, 0, len(b.edges))
	for _, e := range b.edges {
		if df.Visited(simple.Node(index[e.SourceID])) {
			edges = append(edges, e)
		}
	}
	return blocks, edges
}

func (b *builder) nodeText(node *sitter.Node) string {
	return nodeText(b.content, node)
}

func nodeText(content []byte, node *sitter.Node) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start >= uint32(len(content)) || end > uint32(len(content)) {
		return ""
	}
	return string(content[start:end])
}

// firstLine returns the first line of the text of node, for block labels
// that should not carry a whole compound statement.
func (b *builder) firstLine(node *sitter.Node) string {
	text := b.nodeText(node)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

func startLine(node *sitter.Node) int { return int(node.StartPoint().Row) + 1 }

func endLine(node *sitter.Node) int { return int(node.EndPoint().Row) + 1 }

func findChildByType(node *sitter.Node, childType string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Type() == childType {
			return child
		}
	}
	return nil
}

package cfg

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// goStatements lists the node types that the Go frontend treats as
// statements when it walks a block or a case body.
var goStatements = map[string]bool{
	"expression_statement":        true,
	"send_statement":              true,
	"inc_statement":               true,
	"dec_statement":               true,
	"assignment_statement":        true,
	"short_var_declaration":       true,
	"var_declaration":             true,
	"const_declaration":           true,
	"type_declaration":            true,
	"return_statement":            true,
	"go_statement":                true,
	"defer_statement":             true,
	"if_statement":                true,
	"for_statement":               true,
	"expression_switch_statement": true,
	"type_switch_statement":       true,
	"select_statement":            true,
	"labeled_statement":           true,
	"fallthrough_statement":       true,
	"break_statement":             true,
	"continue_statement":          true,
	"goto_statement":              true,
	"block":                       true,
	"statement_list":              true,
}

type goCFGExtractor struct {
	content []byte
	b       *builder
	// fallthroughTo is the body of the next case while a case body is built.
	fallthroughTo *CFGBlock
}

// ParseGo builds one CFG per function and method declared in a Go source
// file. Declarations without a body are skipped.
func ParseGo(ctx context.Context, content []byte) ([]*CFGInfo, error) {
	root, closeTree, err := parseTree(ctx, content, golang.GetLanguage())
	if err != nil {
		return nil, err
	}
	defer closeTree()

	e := &goCFGExtractor{content: content}
	var funcs []*CFGInfo
	for i := 0; i < int(root.NamedChildCount()); i++ {
		decl := root.NamedChild(i)
		switch decl.Type() {
		case "function_declaration", "method_declaration":
			if body := decl.ChildByFieldName("body"); body != nil {
				funcs = append(funcs, e.function(decl, body))
			}
		}
	}
	return funcs, nil
}

func (e *goCFGExtractor) function(decl, body *sitter.Node) *CFGInfo {
	e.b = newBuilder(e.content, startLine(decl), endLine(decl))
	current := e.b.entry
	e.processBlock(body, &current)
	return e.b.finish(e.functionName(decl), current)
}

// functionName returns Name for functions and Recv.Name for methods, with
// pointer and type parameters stripped from the receiver type.
func (e *goCFGExtractor) functionName(decl *sitter.Node) string {
	name := e.b.nodeText(decl.ChildByFieldName("name"))
	if decl.Type() != "method_declaration" {
		return name
	}

	recv := findChildByType(decl.ChildByFieldName("receiver"), "parameter_declaration")
	if recv == nil {
		return name
	}
	typ := strings.TrimSpace(e.b.nodeText(recv.ChildByFieldName("type")))
	typ = strings.TrimLeft(typ, "*")
	if i := strings.IndexByte(typ, '['); i >= 0 {
		typ = typ[:i]
	}
	return typ + "." + name
}

func (e *goCFGExtractor) processBlock(node *sitter.Node, currentBlock **CFGBlock) {
	e.processBody(node, nil, currentBlock)
}

// processBody builds every statement directly inside node. skip, when set,
// is a child that belongs to the enclosing construct (a select case's
// communication) rather than to the body.
func (e *goCFGExtractor) processBody(node, skip *sitter.Node, currentBlock **CFGBlock) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || !goStatements[child.Type()] || sameNode(child, skip) {
			continue
		}
		e.processStatement(child, currentBlock, "")
	}
}

func (e *goCFGExtractor) processStatement(node *sitter.Node, currentBlock **CFGBlock, label string) {
	switch node.Type() {
	case "block", "statement_list":
		e.processBlock(node, currentBlock)

	case "if_statement":
		e.processIfStatement(node, currentBlock)

	case "for_statement":
		e.processForStatement(node, currentBlock, label)

	case "expression_switch_statement", "type_switch_statement", "select_statement":
		e.processSwitchStatement(node, currentBlock, label)

	case "labeled_statement":
		e.processLabeledStatement(node, currentBlock)

	case "return_statement":
		e.b.addStatement(currentBlock, node)
		if (*currentBlock).Type == BlockTypePlain {
			(*currentBlock).Type = BlockTypeReturn
		}
		e.b.jump(currentBlock, e.b.exit, EdgeTypeReturn)

	case "break_statement":
		e.b.addStatement(currentBlock, node)
		label := e.b.nodeText(findChildByType(node, "label_name"))
		e.b.jump(currentBlock, e.b.breakTarget(label), EdgeTypeBreak)

	case "continue_statement":
		e.b.addStatement(currentBlock, node)
		label := e.b.nodeText(findChildByType(node, "label_name"))
		e.b.jump(currentBlock, e.b.continueTarget(label), EdgeTypeContinue)

	case "goto_statement":
		e.b.addStatement(currentBlock, node)
		label := e.b.nodeText(findChildByType(node, "label_name"))
		e.b.gotos = append(e.b.gotos, pendingGoto{from: *currentBlock, label: label})
		*currentBlock = nil

	case "fallthrough_statement":
		e.b.addStatement(currentBlock, node)
		e.b.jump(currentBlock, e.fallthroughTo, EdgeTypeFallthrough)

	case "expression_statement":
		e.b.addStatement(currentBlock, node)
		if e.isPanic(node) {
			e.b.jump(currentBlock, e.b.exit, EdgeTypeException)
		}

	default:
		e.b.addStatement(currentBlock, node)
	}
}

func (e *goCFGExtractor) isPanic(stmt *sitter.Node) bool {
	call := stmt.NamedChild(0)
	if call == nil || call.Type() != "call_expression" {
		return false
	}
	fn := call.ChildByFieldName("function")
	return fn != nil && fn.Type() == "identifier" && e.b.nodeText(fn) == "panic"
}

func (e *goCFGExtractor) processIfStatement(node *sitter.Node, currentBlock **CFGBlock) {
	if init := node.ChildByFieldName("initializer"); init != nil {
		e.b.addStatement(currentBlock, init)
	}
	condition := e.b.nodeText(node.ChildByFieldName("condition"))

	branchBlock := e.b.newBlock(BlockTypeBranch, startLine(node))
	branchBlock.Statements = []string{"if " + condition}
	e.b.flow(currentBlock, branchBlock, EdgeTypeUnconditional)

	thenBlock := e.b.newBlock(BlockTypePlain, startLine(node))
	e.b.addCondEdge(branchBlock, thenBlock, EdgeTypeTrue, condition)
	e.processBlock(node.ChildByFieldName("consequence"), &thenBlock)

	var elseBlock *CFGBlock
	if alternative := node.ChildByFieldName("alternative"); alternative != nil {
		elseBlock = e.b.newBlock(BlockTypePlain, startLine(alternative))
		e.b.addCondEdge(branchBlock, elseBlock, EdgeTypeFalse, condition)
		e.processStatement(alternative, &elseBlock, "")
	}

	mergeBlock := e.b.newBlock(BlockTypeMerge, endLine(node))
	e.b.addEdge(thenBlock, mergeBlock, EdgeTypeUnconditional)
	if node.ChildByFieldName("alternative") != nil {
		e.b.addEdge(elseBlock, mergeBlock, EdgeTypeUnconditional)
	} else {
		e.b.addCondEdge(branchBlock, mergeBlock, EdgeTypeFalse, condition)
	}
	*currentBlock = mergeBlock
}

func (e *goCFGExtractor) processForStatement(node *sitter.Node, currentBlock **CFGBlock, label string) {
	var initStmt, condition, postStmt, rangeClause *sitter.Node
	body := node.ChildByFieldName("body")

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || sameNode(child, body) || child.Type() == "comment" {
			continue
		}
		switch child.Type() {
		case "for_clause":
			initStmt = child.ChildByFieldName("initializer")
			condition = child.ChildByFieldName("condition")
			postStmt = child.ChildByFieldName("update")
		case "range_clause":
			rangeClause = child
		default:
			condition = child
		}
	}

	if initStmt != nil {
		e.b.addStatement(currentBlock, initStmt)
	}

	var header, cond string
	switch {
	case rangeClause != nil:
		header = "for " + e.b.nodeText(rangeClause)
	case condition != nil:
		cond = e.b.nodeText(condition)
		header = "for " + cond
	default:
		header = "for"
	}

	loopHeader := e.b.newBlock(BlockTypeLoopHeader, startLine(node))
	loopHeader.Statements = []string{header}
	e.b.flow(currentBlock, loopHeader, EdgeTypeUnconditional)

	loopBody := e.b.newBlock(BlockTypeLoopBody, startLine(node))
	continueTo := loopHeader
	var postBlock *CFGBlock
	if postStmt != nil {
		postBlock = e.b.newBlock(BlockTypePlain, startLine(postStmt))
		postBlock.Statements = []string{e.b.nodeText(postStmt)}
		continueTo = postBlock
	}
	after := e.b.newBlock(BlockTypeMerge, endLine(node))

	e.b.addCondEdge(loopHeader, loopBody, EdgeTypeTrue, cond)
	if rangeClause != nil || condition != nil {
		e.b.addCondEdge(loopHeader, after, EdgeTypeFalse, cond)
	}

	e.b.pushTarget(jumpTarget{label: label, breakTo: after, continueTo: continueTo})
	e.processBlock(body, &loopBody)
	e.b.popTarget()

	if postBlock != nil {
		e.b.addEdge(loopBody, postBlock, EdgeTypeUnconditional)
		e.b.addEdge(postBlock, loopHeader, EdgeTypeBackEdge)
	} else {
		e.b.addEdge(loopBody, loopHeader, EdgeTypeBackEdge)
	}
	*currentBlock = after
}

// processSwitchStatement handles expression switches, type switches and
// selects. Every case gets its own block, entered by a case edge in source
// order. Without a default case a switch can skip all cases; a select
// cannot.
func (e *goCFGExtractor) processSwitchStatement(node *sitter.Node, currentBlock **CFGBlock, label string) {
	if init := node.ChildByFieldName("initializer"); init != nil {
		e.b.addStatement(currentBlock, init)
	}

	switchBlock := e.b.newBlock(BlockTypeBranch, startLine(node))
	switchBlock.Statements = []string{strings.TrimSpace(strings.TrimSuffix(e.b.firstLine(node), "{"))}
	e.b.flow(currentBlock, switchBlock, EdgeTypeUnconditional)

	var cases []*sitter.Node
	hasDefault := false
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "expression_case", "type_case", "communication_case":
			cases = append(cases, child)
		case "default_case":
			cases = append(cases, child)
			hasDefault = true
		}
	}

	caseBlocks := make([]*CFGBlock, len(cases))
	for i, c := range cases {
		caseBlocks[i] = e.b.newBlock(BlockTypePlain, startLine(c))
		caseBlocks[i].Statements = []string{e.b.firstLine(c)}
	}
	after := e.b.newBlock(BlockTypeMerge, endLine(node))

	for i, c := range cases {
		e.b.addCondEdge(switchBlock, caseBlocks[i], EdgeTypeCase, caseLabel(e.b.firstLine(c)))
	}
	if !hasDefault && node.Type() != "select_statement" {
		e.b.addEdge(switchBlock, after, EdgeTypeFalse)
	}

	saved := e.fallthroughTo
	e.b.pushTarget(jumpTarget{label: label, breakTo: after})
	for i, c := range cases {
		e.fallthroughTo = nil
		if i+1 < len(cases) {
			e.fallthroughTo = caseBlocks[i+1]
		}
		caseBlock := caseBlocks[i]
		e.processBody(c, caseHead(c), &caseBlock)
		e.b.addEdge(caseBlock, after, EdgeTypeUnconditional)
	}
	e.b.popTarget()
	e.fallthroughTo = saved

	*currentBlock = after
}

// caseHead returns the part of a case clause that selects it: a select
// case's communication is a statement node and must not be built twice.
func caseHead(c *sitter.Node) *sitter.Node {
	return c.ChildByFieldName("communication")
}

func caseLabel(line string) string {
	line = strings.TrimSpace(line)
	if i := strings.LastIndexByte(line, ':'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimPrefix(line, "case ")
	return strings.TrimSpace(line)
}

func (e *goCFGExtractor) processLabeledStatement(node *sitter.Node, currentBlock **CFGBlock) {
	name := e.b.nodeText(node.ChildByFieldName("label"))
	labelBlock := e.b.newBlock(BlockTypePlain, startLine(node))
	labelBlock.Statements = []string{name + ":"}
	e.b.flow(currentBlock, labelBlock, EdgeTypeUnconditional)
	e.b.labels[name] = labelBlock

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child != nil && goStatements[child.Type()] {
			e.processStatement(child, currentBlock, name)
		}
	}
}

// parseTree parses content with lang and fails on any syntax error.
func parseTree(ctx context.Context, content []byte, lang *sitter.Language) (*sitter.Node, func(), error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, nil, err
	}
	root := tree.RootNode()
	if root.HasError() {
		tree.Close()
		return nil, nil, fmt.Errorf("syntax error near line %d", firstErrorLine(root))
	}
	return root, tree.Close, nil
}

// firstErrorLine returns the 1-based line of the first ERROR or missing
// node under n, or 0 when there is none.
func firstErrorLine(n *sitter.Node) int {
	if n.Type() == "ERROR" || n.IsMissing() {
		return startLine(n)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && child.HasError() {
			if line := firstErrorLine(child); line > 0 {
				return line
			}
		}
	}
	if n.HasError() {
		return startLine(n)
	}
	return 0
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

package cfg

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// pythonCFGExtractor builds CFGs for the functions of a Python module.
type pythonCFGExtractor struct {
	content []byte
	b       *builder
	funcs   []*CFGInfo
}

// ParsePython builds one CFG per function in a Python source file, nested
// functions and methods included. Methods are named Class.method and nested
// functions outer.inner. Functions appear in source order, each one before
// the functions nested in it.
func ParsePython(ctx context.Context, content []byte) ([]*CFGInfo, error) {
	root, closeTree, err := parseTree(ctx, content, python.GetLanguage())
	if err != nil {
		return nil, err
	}
	defer closeTree()

	e := &pythonCFGExtractor{content: content}
	e.collect(root, "")
	return e.funcs, nil
}

// collect finds the function and class definitions below node.
func (e *pythonCFGExtractor) collect(node *sitter.Node, prefix string) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "function_definition", "class_definition":
			e.definition(child, prefix)
		case "decorated_definition":
			e.definition(child.ChildByFieldName("definition"), prefix)
		default:
			e.collect(child, prefix)
		}
	}
}

func (e *pythonCFGExtractor) definition(def *sitter.Node, prefix string) {
	if def == nil {
		return
	}
	name := prefix + nodeText(e.content, def.ChildByFieldName("name"))
	body := def.ChildByFieldName("body")

	if def.Type() == "function_definition" {
		e.b = newBuilder(e.content, startLine(def), endLine(def))
		current := e.b.entry
		e.processBlock(body, &current)
		e.funcs = append(e.funcs, e.b.finish(name, current))
	}
	e.collect(body, name+".")
}

func (e *pythonCFGExtractor) processBlock(node *sitter.Node, currentBlock **CFGBlock) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		e.processStatement(child, currentBlock)
	}
}

func (e *pythonCFGExtractor) processStatement(node *sitter.Node, currentBlock **CFGBlock) {
	switch node.Type() {
	case "if_statement":
		e.processIfStatement(node, currentBlock)

	case "for_statement", "while_statement":
		e.processLoop(node, currentBlock)

	case "try_statement":
		e.processTryStatement(node, currentBlock)

	case "with_statement":
		e.b.addText(currentBlock, e.b.firstLine(node), node)
		e.processBlock(node.ChildByFieldName("body"), currentBlock)

	case "match_statement":
		e.processMatchStatement(node, currentBlock)

	case "function_definition", "class_definition", "decorated_definition":
		// Nested definitions only bind a name here; their bodies are
		// separate functions.
		e.b.addText(currentBlock, e.b.firstLine(node), node)

	case "return_statement":
		e.b.addStatement(currentBlock, node)
		if (*currentBlock).Type == BlockTypePlain {
			(*currentBlock).Type = BlockTypeReturn
		}
		e.b.jump(currentBlock, e.b.exit, EdgeTypeReturn)

	case "raise_statement":
		e.b.addStatement(currentBlock, node)
		e.b.jump(currentBlock, e.b.exit, EdgeTypeException)

	case "break_statement":
		e.b.addStatement(currentBlock, node)
		e.b.jump(currentBlock, e.b.breakTarget(""), EdgeTypeBreak)

	case "continue_statement":
		e.b.addStatement(currentBlock, node)
		e.b.jump(currentBlock, e.b.continueTarget(""), EdgeTypeContinue)

	default:
		e.b.addStatement(currentBlock, node)
	}
}

// processIfStatement builds an if/elif/else chain. Each condition gets a
// branch block whose false edge leads to the next condition, the else body,
// or the merge block.
func (e *pythonCFGExtractor) processIfStatement(node *sitter.Node, currentBlock **CFGBlock) {
	condition := e.b.nodeText(node.ChildByFieldName("condition"))
	branchBlock := e.b.newBlock(BlockTypeBranch, startLine(node))
	branchBlock.Statements = []string{"if " + condition}
	e.b.flow(currentBlock, branchBlock, EdgeTypeUnconditional)

	var ends []*CFGBlock
	thenBlock := e.b.newBlock(BlockTypePlain, startLine(node))
	e.b.addCondEdge(branchBlock, thenBlock, EdgeTypeTrue, condition)
	e.processBlock(node.ChildByFieldName("consequence"), &thenBlock)
	ends = append(ends, thenBlock)

	hasElse := false
	for i := 0; i < int(node.NamedChildCount()); i++ {
		clause := node.NamedChild(i)
		switch clause.Type() {
		case "elif_clause":
			elifCond := e.b.nodeText(clause.ChildByFieldName("condition"))
			elifBlock := e.b.newBlock(BlockTypeBranch, startLine(clause))
			elifBlock.Statements = []string{"elif " + elifCond}
			e.b.addCondEdge(branchBlock, elifBlock, EdgeTypeFalse, condition)
			branchBlock, condition = elifBlock, elifCond

			body := e.b.newBlock(BlockTypePlain, startLine(clause))
			e.b.addCondEdge(elifBlock, body, EdgeTypeTrue, elifCond)
			e.processBlock(clause.ChildByFieldName("consequence"), &body)
			ends = append(ends, body)

		case "else_clause":
			hasElse = true
			elseBlock := e.b.newBlock(BlockTypePlain, startLine(clause))
			e.b.addCondEdge(branchBlock, elseBlock, EdgeTypeFalse, condition)
			e.processBlock(clause.ChildByFieldName("body"), &elseBlock)
			ends = append(ends, elseBlock)
		}
	}

	mergeBlock := e.b.newBlock(BlockTypeMerge, endLine(node))
	if !hasElse {
		e.b.addCondEdge(branchBlock, mergeBlock, EdgeTypeFalse, condition)
	}
	for _, end := range ends {
		e.b.addEdge(end, mergeBlock, EdgeTypeUnconditional)
	}
	*currentBlock = mergeBlock
}

// processLoop builds for and while loops. The optional else body runs when
// the loop ends without break. "while True" has no exit edge.
func (e *pythonCFGExtractor) processLoop(node *sitter.Node, currentBlock **CFGBlock) {
	header := strings.TrimSuffix(e.b.firstLine(node), ":")
	var condition string
	infinite := false
	if node.Type() == "while_statement" {
		cond := node.ChildByFieldName("condition")
		condition = e.b.nodeText(cond)
		infinite = cond != nil && cond.Type() == "true"
	}

	loopHeader := e.b.newBlock(BlockTypeLoopHeader, startLine(node))
	loopHeader.Statements = []string{header}
	e.b.flow(currentBlock, loopHeader, EdgeTypeUnconditional)

	loopBody := e.b.newBlock(BlockTypeLoopBody, startLine(node))
	after := e.b.newBlock(BlockTypeMerge, endLine(node))

	e.b.addCondEdge(loopHeader, loopBody, EdgeTypeTrue, condition)
	if !infinite {
		exitTo := after
		if alt := node.ChildByFieldName("alternative"); alt != nil {
			elseBlock := e.b.newBlock(BlockTypePlain, startLine(alt))
			exitTo = elseBlock
			e.processBlock(alt.ChildByFieldName("body"), &elseBlock)
			e.b.addEdge(elseBlock, after, EdgeTypeUnconditional)
		}
		e.b.addCondEdge(loopHeader, exitTo, EdgeTypeFalse, condition)
	}

	e.b.pushTarget(jumpTarget{breakTo: after, continueTo: loopHeader})
	e.processBlock(node.ChildByFieldName("body"), &loopBody)
	e.b.popTarget()
	e.b.addEdge(loopBody, loopHeader, EdgeTypeBackEdge)

	*currentBlock = after
}

// processTryStatement builds try/except/else/finally. Every handler is
// entered by an exception edge from the start of the try body. A return
// inside the try body leaves for the exit block without running finally.
func (e *pythonCFGExtractor) processTryStatement(node *sitter.Node, currentBlock **CFGBlock) {
	var handlers []*sitter.Node
	var elseClause, finallyClause *sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "except_clause", "except_group_clause":
			handlers = append(handlers, child)
		case "else_clause":
			elseClause = child
		case "finally_clause":
			finallyClause = child
		}
	}

	tryBlock := e.b.newBlock(BlockTypePlain, startLine(node))
	tryBlock.Statements = []string{"try"}
	e.b.flow(currentBlock, tryBlock, EdgeTypeUnconditional)

	bodyEnd := tryBlock
	e.processBlock(node.ChildByFieldName("body"), &bodyEnd)
	if elseClause != nil {
		elseBlock := e.b.newBlock(BlockTypePlain, startLine(elseClause))
		e.b.flow(&bodyEnd, elseBlock, EdgeTypeUnconditional)
		e.processBlock(elseClause.ChildByFieldName("body"), &bodyEnd)
	}
	ends := []*CFGBlock{bodyEnd}

	for _, h := range handlers {
		handler := e.b.newBlock(BlockTypeHandler, startLine(h))
		handler.Statements = []string{strings.TrimSuffix(e.b.firstLine(h), ":")}
		e.b.addEdge(tryBlock, handler, EdgeTypeException)
		e.processBlock(findChildByType(h, "block"), &handler)
		ends = append(ends, handler)
	}

	var join *CFGBlock
	if finallyClause != nil {
		join = e.b.newBlock(BlockTypePlain, startLine(finallyClause))
		join.Statements = []string{"finally"}
	} else {
		join = e.b.newBlock(BlockTypeMerge, endLine(node))
	}
	for _, end := range ends {
		e.b.addEdge(end, join, EdgeTypeUnconditional)
	}
	if finallyClause != nil {
		e.processBlock(findChildByType(finallyClause, "block"), &join)
	}
	*currentBlock = join
}

// processMatchStatement builds a match statement. Cases are tried in order;
// without a bare "case _" the subject can match none of them.
func (e *pythonCFGExtractor) processMatchStatement(node *sitter.Node, currentBlock **CFGBlock) {
	subject := e.b.nodeText(node.ChildByFieldName("subject"))
	matchBlock := e.b.newBlock(BlockTypeBranch, startLine(node))
	matchBlock.Statements = []string{"match " + subject}
	e.b.flow(currentBlock, matchBlock, EdgeTypeUnconditional)

	var cases []*sitter.Node
	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			if c := body.NamedChild(i); c != nil && c.Type() == "case_clause" {
				cases = append(cases, c)
			}
		}
	}

	after := e.b.newBlock(BlockTypeMerge, endLine(node))
	hasWildcard := false
	var ends []*CFGBlock
	for _, c := range cases {
		label := strings.TrimSuffix(e.b.firstLine(c), ":")
		caseBlock := e.b.newBlock(BlockTypePlain, startLine(c))
		caseBlock.Statements = []string{label}
		e.b.addCondEdge(matchBlock, caseBlock, EdgeTypeCase, strings.TrimPrefix(label, "case "))
		if e.isWildcard(c) {
			hasWildcard = true
		}
		ends = append(ends, caseBlock)
	}
	if !hasWildcard {
		e.b.addEdge(matchBlock, after, EdgeTypeFalse)
	}

	for i, c := range cases {
		e.processBlock(c.ChildByFieldName("consequence"), &ends[i])
		e.b.addEdge(ends[i], after, EdgeTypeUnconditional)
	}

	*currentBlock = after
}

// isWildcard reports whether a case clause is an unguarded "case _".
func (e *pythonCFGExtractor) isWildcard(c *sitter.Node) bool {
	var patterns []string
	for i := 0; i < int(c.NamedChildCount()); i++ {
		child := c.NamedChild(i)
		switch child.Type() {
		case "if_clause":
			return false
		case "case_pattern":
			patterns = append(patterns, strings.TrimSpace(e.b.nodeText(child)))
		}
	}
	return len(patterns) == 1 && patterns[0] == "_"
}

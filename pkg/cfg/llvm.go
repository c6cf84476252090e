package cfg

import (
	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
)

// ParseLLVM reads a textual LLVM IR module and returns one CFG per defined
// function, in module order. Declarations have no blocks and are skipped,
// the same way LLVM's function pass manager skips them. Block order and the
// successor order of each block follow the IR: br lists the true target
// first, switch lists the default target first, invoke lists the normal
// destination before the unwind destination.
func ParseLLVM(name string, content []byte) ([]*CFGInfo, error) {
	m, err := asm.ParseBytes(name, content)
	if err != nil {
		return nil, err
	}

	var funcs []*CFGInfo
	for _, f := range m.Funcs {
		if len(f.Blocks) == 0 {
			continue
		}
		funcs = append(funcs, llvmFunction(f))
	}
	return funcs, nil
}

func llvmFunction(f *ir.Func) *CFGInfo {
	info := &CFGInfo{
		FunctionName: f.Name(),
		Blocks:       make([]CFGBlock, 0, len(f.Blocks)),
		EntryBlockID: llvmBlockID(f.Blocks[0]),
	}

	for _, b := range f.Blocks {
		block := CFGBlock{
			ID:         llvmBlockID(b),
			Type:       llvmBlockType(b),
			Statements: make([]string, 0, len(b.Insts)+1),
		}
		for _, inst := range b.Insts {
			block.Statements = append(block.Statements, inst.LLString())
		}
		if b.Term != nil {
			block.Statements = append(block.Statements, b.Term.LLString())
		}
		info.Blocks = append(info.Blocks, block)

		if b.Term == nil {
			continue
		}
		succs := b.Term.Succs()
		if len(succs) == 0 {
			info.ExitBlockIDs = append(info.ExitBlockIDs, block.ID)
		}
		for i, succ := range succs {
			edgeType, condition := llvmEdge(b.Term, i)
			info.Edges = append(info.Edges, CFGEdge{
				SourceID:  block.ID,
				TargetID:  llvmBlockID(succ),
				EdgeType:  edgeType,
				Condition: condition,
			})
		}
	}
	return info
}

// llvmBlockID returns the local name of b without the % sigil. Unnamed
// blocks get their numeric ID.
func llvmBlockID(b *ir.Block) string {
	return b.Name()
}

func llvmBlockType(b *ir.Block) BlockType {
	switch b.Term.(type) {
	case *ir.TermRet, *ir.TermResume:
		return BlockTypeReturn
	case *ir.TermUnreachable:
		return BlockTypeUnreachable
	case *ir.TermCondBr, *ir.TermSwitch, *ir.TermIndirectBr, *ir.TermCallBr:
		return BlockTypeBranch
	case *ir.TermInvoke, *ir.TermCatchSwitch, *ir.TermCatchRet, *ir.TermCleanupRet:
		return BlockTypeHandler
	default:
		return BlockTypePlain
	}
}

// llvmEdge classifies the i-th successor of term.
func llvmEdge(term ir.Terminator, i int) (EdgeType, string) {
	switch t := term.(type) {
	case *ir.TermCondBr:
		if i == 0 {
			return EdgeTypeTrue, t.Cond.Ident()
		}
		return EdgeTypeFalse, t.Cond.Ident()
	case *ir.TermSwitch:
		if i == 0 {
			return EdgeTypeFalse, t.X.Ident()
		}
		if i-1 < len(t.Cases) {
			return EdgeTypeCase, t.Cases[i-1].X.Ident()
		}
		return EdgeTypeCase, ""
	case *ir.TermInvoke:
		if i == 1 {
			return EdgeTypeUnwind, ""
		}
		return EdgeTypeUnconditional, ""
	case *ir.TermCatchSwitch, *ir.TermCleanupRet:
		return EdgeTypeUnwind, ""
	default:
		return EdgeTypeUnconditional, ""
	}
}

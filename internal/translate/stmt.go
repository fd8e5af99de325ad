package translate

import (
	"github.com/tcompiler-project/backend/internal/ast"
	"github.com/tcompiler-project/backend/internal/ir"
	"github.com/tcompiler-project/backend/internal/perr"
	"github.com/tcompiler-project/backend/internal/types"
)

// translateStmt lowers one statement into the current block, per the
// control-flow templates. while/for/do-while all expand
// to header/test/body/exit blocks with a back edge from body-end to
// the test; if lowers to a two-arg conditional jump between a then and
// an (optional) else block, rejoining at a fresh continuation block.
func (tr *Translator) translateStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.Block:
		tr.translateBlockStmt(st)

	case *ast.ExprStmt:
		tr.translateExprDiscard(st.X)

	case *ast.DeclStmt:
		temp := tr.newTemp(st.Entry.Type())
		tr.entries[st.Entry] = temp
		st.Entry.SetTemp(temp.TempID())
		if st.Init == nil {
			tr.emit(ir.NewInstruction(ir.OpUninit, temp))
		} else if temp.Hint() == ir.HintMem {
			// Aggregate (or escaped) locals initialize through their
			// frame slot; a temp-to-temp Move would ask the selector
			// for a memory-to-memory mov.
			tr.emit(ir.NewInstruction(ir.OpUninit, temp))
			if lit, ok := st.Init.(*ast.AggregateLit); ok {
				addr := tr.addressOf(temp)
				tr.initAggregateInto(addr, st.Entry.Type(), lit)
			} else {
				val := tr.translateExpr(st.Init)
				addr := tr.addressOf(temp)
				tr.storeTo(addr, val, st.Entry.Type())
			}
		} else {
			val := tr.translateExpr(st.Init)
			tr.emit(ir.NewInstruction(ir.OpMove, temp, val))
		}

	case *ast.IfStmt:
		tr.translateIf(st)

	case *ast.WhileStmt:
		tr.translateWhile(st)

	case *ast.DoWhileStmt:
		tr.translateDoWhile(st)

	case *ast.ForStmt:
		tr.translateFor(st)

	case *ast.SwitchStmt:
		tr.translateSwitch(st)

	case *ast.BreakStmt:
		if len(tr.loopExit) == 0 {
			tr.errs.Add(perr.IRError(tr.file, "translate", "break outside loop or switch"))
			return
		}
		target := tr.loopExit[len(tr.loopExit)-1]
		tr.emit(ir.NewInstruction(ir.OpJump, tr.localLabel(target)))

	case *ast.ContinueStmt:
		if len(tr.loopPost) == 0 {
			tr.errs.Add(perr.IRError(tr.file, "translate", "continue outside loop"))
			return
		}
		target := tr.loopPost[len(tr.loopPost)-1]
		tr.emit(ir.NewInstruction(ir.OpJump, tr.localLabel(target)))

	case *ast.ReturnStmt:
		tr.translateReturn(st)

	default:
		tr.errs.Add(perr.IRError(tr.file, "translate", "unsupported statement node"))
	}
}

func (tr *Translator) translateIf(st *ast.IfStmt) {
	thenBlock := tr.newBlock()
	var elseBlock, joinBlock *ir.Block
	if st.Else != nil {
		elseBlock = tr.newBlock()
	}
	joinBlock = tr.newBlock()

	falseTarget := joinBlock
	if elseBlock != nil {
		falseTarget = elseBlock
	}
	tr.emitCondJump(st.Cond, thenBlock.Label, falseTarget.Label)

	tr.switchTo(thenBlock)
	tr.translateStmt(st.Then)
	tr.jumpIfFallthrough(joinBlock)

	if elseBlock != nil {
		tr.switchTo(elseBlock)
		tr.translateStmt(st.Else)
		tr.jumpIfFallthrough(joinBlock)
	}

	tr.switchTo(joinBlock)
}

func (tr *Translator) translateWhile(st *ast.WhileStmt) {
	header := tr.newBlock()
	body := tr.newBlock()
	exit := tr.newBlock()

	tr.emit(ir.NewInstruction(ir.OpJump, tr.localLabel(header.Label)))

	tr.switchTo(header)
	tr.emitCondJump(st.Cond, body.Label, exit.Label)

	tr.loopExit = append(tr.loopExit, exit.Label)
	tr.loopPost = append(tr.loopPost, header.Label)
	tr.switchTo(body)
	tr.translateStmt(st.Body)
	tr.jumpIfFallthrough(header)
	tr.loopExit = tr.loopExit[:len(tr.loopExit)-1]
	tr.loopPost = tr.loopPost[:len(tr.loopPost)-1]

	tr.switchTo(exit)
}

func (tr *Translator) translateDoWhile(st *ast.DoWhileStmt) {
	body := tr.newBlock()
	test := tr.newBlock()
	exit := tr.newBlock()

	tr.emit(ir.NewInstruction(ir.OpJump, tr.localLabel(body.Label)))

	tr.loopExit = append(tr.loopExit, exit.Label)
	tr.loopPost = append(tr.loopPost, test.Label)
	tr.switchTo(body)
	tr.translateStmt(st.Body)
	tr.jumpIfFallthrough(test)
	tr.loopExit = tr.loopExit[:len(tr.loopExit)-1]
	tr.loopPost = tr.loopPost[:len(tr.loopPost)-1]

	tr.switchTo(test)
	tr.emitCondJump(st.Cond, body.Label, exit.Label)

	tr.switchTo(exit)
}

func (tr *Translator) translateFor(st *ast.ForStmt) {
	if st.Init != nil {
		tr.translateStmt(st.Init)
	}
	header := tr.newBlock()
	body := tr.newBlock()
	post := tr.newBlock()
	exit := tr.newBlock()

	tr.emit(ir.NewInstruction(ir.OpJump, tr.localLabel(header.Label)))

	tr.switchTo(header)
	if st.Cond != nil {
		tr.emitCondJump(st.Cond, body.Label, exit.Label)
	} else {
		tr.emit(ir.NewInstruction(ir.OpJump, tr.localLabel(body.Label)))
	}

	tr.loopExit = append(tr.loopExit, exit.Label)
	tr.loopPost = append(tr.loopPost, post.Label)
	tr.switchTo(body)
	tr.translateStmt(st.Body)
	tr.jumpIfFallthrough(post)
	tr.loopExit = tr.loopExit[:len(tr.loopExit)-1]
	tr.loopPost = tr.loopPost[:len(tr.loopPost)-1]

	tr.switchTo(post)
	if st.Post != nil {
		tr.translateExprDiscard(st.Post)
	}
	tr.emit(ir.NewInstruction(ir.OpJump, tr.localLabel(header.Label)))

	tr.switchTo(exit)
}

// translateSwitch lowers to a sequence of equality tests, or to a
// jumptable when every case label is a dense run of integers: a
// rodata fragment of Local datums indexed by
// scrutinee-min_case.
func (tr *Translator) translateSwitch(st *ast.SwitchStmt) {
	scrutinee := tr.translateExpr(st.Scrutinee)
	exit := tr.newBlock()
	tr.loopExit = append(tr.loopExit, exit.Label)

	caseBlocks := make([]*ir.Block, len(st.Cases))
	var defaultBlock *ir.Block
	for i := range st.Cases {
		caseBlocks[i] = tr.newBlock()
		if st.Cases[i].IsDefault {
			defaultBlock = caseBlocks[i]
		}
	}
	fallback := exit
	if defaultBlock != nil {
		fallback = defaultBlock
	}

	if jt, ok := tr.buildJumptable(st, caseBlocks, fallback); ok {
		// Bias the scrutinee to a zero-based table index and guard the
		// range: anything above span-1 (unsigned, so negatives too)
		// takes the default/exit path instead of an arbitrary slot.
		idx := ir.NewTemp(tr.freshTempID(), 8, 8, ir.HintGP)
		if jt.min != 0 {
			tr.emit(ir.NewInstruction(ir.OpSub, idx, scrutinee, longConst(jt.min)))
		} else {
			tr.emit(ir.NewInstruction(ir.OpMove, idx, scrutinee))
		}
		tableBlock := tr.newBlock()
		tr.emit(ir.NewInstruction(ir.OpJ2A, tr.localLabel(fallback.Label), tr.localLabel(tableBlock.Label), idx, longConst(jt.span-1)))
		tr.switchTo(tableBlock)
		tr.emit(ir.NewInstruction(ir.OpJumptable, idx, jt.label))
	} else {
		for i, c := range st.Cases {
			if c.IsDefault {
				continue
			}
			testBlock := tr.newBlock()
			lit := ir.NewConstant(8, []ir.Datum{ir.NewLong(uint64(c.Value))})
			tr.emit(ir.NewInstruction(ir.OpJ2E, tr.localLabel(caseBlocks[i].Label), tr.localLabel(testBlock.Label), scrutinee, lit))
			tr.switchTo(testBlock)
		}
		tr.emit(ir.NewInstruction(ir.OpJump, tr.localLabel(fallback.Label)))
	}

	for i, c := range st.Cases {
		tr.switchTo(caseBlocks[i])
		for _, inner := range c.Stmts {
			tr.translateStmt(inner)
		}
		next := exit
		if i+1 < len(caseBlocks) {
			next = caseBlocks[i+1]
		}
		tr.jumpIfFallthrough(next)
	}

	tr.loopExit = tr.loopExit[:len(tr.loopExit)-1]
	tr.switchTo(exit)
}

// jumptable describes an emitted jumptable rodata fragment: its label
// and the case-value range it spans.
type jumptable struct {
	label ir.Operand
	min   int64
	span  int64
}

// buildJumptable emits a rodata fragment of Local datums when every
// non-default case label forms a dense integer run, and returns a
// Label operand naming it.
func (tr *Translator) buildJumptable(st *ast.SwitchStmt, caseBlocks []*ir.Block, fallback *ir.Block) (jumptable, bool) {
	var values []int64
	for _, c := range st.Cases {
		if !c.IsDefault {
			values = append(values, c.Value)
		}
	}
	if len(values) == 0 {
		return jumptable{}, false
	}
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	span := max - min + 1
	if int64(len(values)) != span {
		return jumptable{}, false // not dense
	}

	slots := make([]*ir.Block, span)
	for i := range slots {
		slots[i] = fallback
	}
	for i, c := range st.Cases {
		if !c.IsDefault {
			slots[c.Value-min] = caseBlocks[i]
		}
	}
	datums := make([]ir.Datum, span)
	for i, b := range slots {
		datums[i] = ir.NewLocal(b.Label)
	}
	label := tr.nextLocalLabel()
	tr.out.AppendFrag(ir.NewRoDataFrag(label, true, 8, datums))
	return jumptable{label: ir.NewLabel(label), min: min, span: span}, true
}

// jumpIfFallthrough adds an explicit jump to target unless the current
// block already ends in a terminator (e.g. a return or break already
// closed it).
func (tr *Translator) jumpIfFallthrough(target *ir.Block) {
	if _, ok := tr.cur.Terminator(); ok {
		return
	}
	tr.emit(ir.NewInstruction(ir.OpJump, tr.localLabel(target.Label)))
}

func (tr *Translator) translateReturn(st *ast.ReturnStmt) {
	if st.X == nil {
		tr.emit(ir.NewInstruction(ir.OpReturn))
		return
	}
	val := tr.translateExpr(st.X)
	switch {
	case tr.retByHiddenPointer:
		// Copy the value into the caller-supplied slot, then hand the
		// pointer back in rax per the System V convention.
		addr := tr.addressOf(val)
		tr.emitMemCopy(tr.hiddenPtrTemp, addr, sizeOfOperand(val))
		tr.emit(ir.NewInstruction(ir.OpMove, ir.NewReg(0, 8), tr.hiddenPtrTemp))
	case tr.retType != nil && types.IsFloat(tr.retType):
		tr.emit(ir.NewInstruction(ir.OpMove, ir.NewReg(ir.RegXMMBase, retSize(tr)), val))
	default:
		tr.emit(ir.NewInstruction(ir.OpMove, ir.NewReg(0, retSize(tr)), val))
	}
	tr.emit(ir.NewInstruction(ir.OpReturn))
}

func retSize(tr *Translator) uint64 {
	if tr.retType == nil {
		return 8
	}
	size, err := types.Sizeof(tr.retType)
	if err != nil || size == 0 {
		return 8
	}
	return size
}

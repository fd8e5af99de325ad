package translate

import (
	"github.com/tcompiler-project/backend/internal/abi"
	"github.com/tcompiler-project/backend/internal/ast"
	"github.com/tcompiler-project/backend/internal/ir"
	"github.com/tcompiler-project/backend/internal/perr"
	"github.com/tcompiler-project/backend/internal/symtab"
	"github.com/tcompiler-project/backend/internal/types"
)

// translateFunction lowers one function definition to a Text fragment
// : entry block 0, ABI argument binding, statement
// walking into fresh blocks, and return-value routing.
func (tr *Translator) translateFunction(fn *ast.Function) {
	// Block ids come from the per-file counter so local
	// labels stay unique across the whole emitted file; only id 0, the
	// entry, repeats per function, and nothing ever jumps to an entry.
	tr.blocks = ir.NewBlockList()
	tr.entries = make(map[*symtab.Entry]ir.Operand)
	tr.loopExit, tr.loopPost = nil, nil

	entry := ir.NewBlock(0)
	tr.blocks.PushBack(entry)
	tr.cur = entry

	retPlacement, err := abi.PlaceReturn(fn.Entry.ReturnType())
	if err != nil {
		tr.errs.Add(perr.IRError(tr.file, "translate", err.Error()))
	}
	tr.retByHiddenPointer = retPlacement.ByHiddenPointer
	tr.retType = fn.Entry.ReturnType()

	// A hidden return pointer occupies rdi before the first declared
	// argument, so placement runs over the argument list with a pointer
	// prepended and the extra placement dropped afterwards.
	placements, err := placeWithHiddenPtr(fn.Entry.ArgTypes(), fn.Entry.ReturnType(), retPlacement.ByHiddenPointer)
	if err != nil {
		tr.errs.Add(perr.IRError(tr.file, "translate", err.Error()))
		placements = nil
	}

	var hiddenPtrTemp ir.Operand
	if retPlacement.ByHiddenPointer {
		id := tr.nextTemp
		tr.nextTemp++
		hiddenPtrTemp = ir.NewTemp(id, 8, 8, ir.HintGP)
		tr.hiddenPtrTemp = hiddenPtrTemp
	}

	argTemps := make([]ir.Operand, 0, len(fn.Params))
	argByRef := make([]bool, 0, len(fn.Params))
	argIntRegs := make([][]int, 0, len(fn.Params))
	argSSERegs := make([][]int, 0, len(fn.Params))
	argEBSSE := make([][]bool, 0, len(fn.Params))
	argStackOff := make([]int64, 0, len(fn.Params))
	for i, param := range fn.Params {
		t := param.Type()
		temp := tr.newTemp(t)
		tr.entries[param] = temp
		param.SetTemp(temp.TempID())
		argTemps = append(argTemps, temp)
		var p abi.ArgPlacement
		if i < len(placements) {
			p = placements[i]
		}
		argByRef = append(argByRef, p.ByReference)
		argIntRegs = append(argIntRegs, p.IntRegs)
		argSSERegs = append(argSSERegs, p.SSERegs)
		ebSSE := make([]bool, len(p.Classes))
		for k, c := range p.Classes {
			ebSSE[k] = c == abi.ClassSSE
		}
		argEBSSE = append(argEBSSE, ebSSE)
		argStackOff = append(argStackOff, p.StackOffset)
	}

	tr.translateBlockStmt(fn.Body)

	if _, ok := tr.cur.Terminator(); !ok {
		tr.emit(ir.NewInstruction(ir.OpReturn))
	}

	name := Mangle(tr.module, fn.Entry.Name())
	frag := ir.NewTextFrag(name, tr.blocks)
	frag.ArgTemps = argTemps
	frag.ArgByRef = argByRef
	frag.ArgIntRegs = argIntRegs
	frag.ArgSSERegs = argSSERegs
	frag.ArgEBSSE = argEBSSE
	frag.ArgStackOff = argStackOff
	frag.RetHiddenPtr = retPlacement.ByHiddenPointer
	frag.HiddenPtrTemp = hiddenPtrTemp
	frag.RetSize = retPlacement.Size
	tr.out.AppendFrag(frag)
}

// placeWithHiddenPtr runs abi.PlaceArgs over argTypes, prepending a
// pointer type when the return value travels through a hidden pointer
// so the declared arguments' register indices account for it. The
// synthetic first placement is dropped: the hidden pointer's own
// binding is fixed (rdi) and handled by the selector's entry sequence.
func placeWithHiddenPtr(argTypes []*types.Type, ret *types.Type, hidden bool) ([]abi.ArgPlacement, error) {
	if !hidden {
		return abi.PlaceArgs(argTypes)
	}
	withPtr := append([]*types.Type{types.NewPointer(ret)}, argTypes...)
	placements, err := abi.PlaceArgs(withPtr)
	if err != nil {
		return nil, err
	}
	return placements[1:], nil
}

// translateBlockStmt lowers a *ast.Block's statements in order into the
// current block, creating fresh blocks as control flow demands.
func (tr *Translator) translateBlockStmt(b *ast.Block) {
	for _, s := range b.Stmts {
		tr.translateStmt(s)
	}
}

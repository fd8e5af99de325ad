// Package translate lowers a typechecked internal/ast.Module into
// blocked internal/ir per translation unit: one fragment per
// global, one text fragment per function, short-circuit-aware
// control-flow lowering, and type-directed aggregate-initializer
// flattening.
package translate

import (
	"strconv"

	"github.com/tcompiler-project/backend/internal/ast"
	"github.com/tcompiler-project/backend/internal/ir"
	"github.com/tcompiler-project/backend/internal/perr"
	"github.com/tcompiler-project/backend/internal/symtab"
	"github.com/tcompiler-project/backend/internal/types"
)

// Translator holds the per-file mutable state the translator threads
// through lowering: the growing fragment file, the id counters (temps,
// blocks, local rodata labels), and the accumulated diagnostics. This
// pass never raises a UserError, since typechecking is upstream.
type Translator struct {
	file   string
	module string

	out  *ir.File
	errs *perr.Collector

	nextTemp  int
	nextBlock int
	nextLocal int

	// per-function state, reset by translateFunction
	cur                *ir.Block
	blocks             *ir.BlockList
	entries            map[*symtab.Entry]ir.Operand // variable -> its temp operand
	loopExit           []int                        // break targets, innermost last
	loopPost           []int                        // continue targets, innermost last
	retByHiddenPointer bool
	retType            *types.Type
	hiddenPtrTemp      ir.Operand
}

// New builds a translator for one file belonging to the dotted module
// name moduleName (used for mangling).
func New(file, moduleName string) *Translator {
	return &Translator{
		file:      file,
		module:    moduleName,
		out:       ir.NewFile(),
		errs:      perr.NewCollector(),
		nextBlock: 1, // block 0 is reserved for a function's entry block
	}
}

// Errors returns the diagnostics collector. Errors() .Err() is nil on a
// clean translation.
func (tr *Translator) Errors() *perr.Collector { return tr.errs }

// Translate lowers every global and function of mod, in source order,
// into tr's fragment file.
func (tr *Translator) Translate(mod *ast.Module) *ir.File {
	for _, g := range mod.Globals {
		tr.translateGlobal(g)
	}
	for _, fn := range mod.Functions {
		tr.translateFunction(fn)
	}
	return tr.out
}

func (tr *Translator) newTemp(t *types.Type) ir.Operand {
	size, err := types.Sizeof(t)
	if err != nil {
		tr.errs.Add(perr.IRError(tr.file, "translate", err.Error()))
		size = 8
	}
	align, err := types.Alignof(t)
	if err != nil {
		align = size
	}
	hint := hintOf(types.Hint(t))
	id := tr.nextTemp
	tr.nextTemp++
	return ir.NewTemp(id, align, size, hint)
}

func hintOf(h types.AllocationHint) ir.AllocHint {
	switch h {
	case types.HintFP:
		return ir.HintFP
	case types.HintMem:
		return ir.HintMem
	default:
		return ir.HintGP
	}
}

func (tr *Translator) newBlock() *ir.Block {
	b := ir.NewBlock(tr.nextBlock)
	tr.nextBlock++
	tr.blocks.PushBack(b)
	return b
}

// emit appends in to the current block.
func (tr *Translator) emit(in ir.Instruction) {
	tr.cur.Append(in)
}

// switchTo moves subsequent emission to b, without creating a new block.
func (tr *Translator) switchTo(b *ir.Block) {
	tr.cur = b
}

func (tr *Translator) localLabel(blockID int) ir.Operand {
	return ir.NewLabel(localLabelName(blockID))
}

func localLabelName(blockID int) string {
	return "L" + strconv.Itoa(blockID)
}

package translate

import (
	"github.com/tcompiler-project/backend/internal/ast"
	"github.com/tcompiler-project/backend/internal/ir"
)

// translateGlobal emits one fragment for a file-scope variable: bss for
// a zero (uninitialized) global, rodata for a const-qualified
// initialized global, data otherwise.
func (tr *Translator) translateGlobal(g *ast.Global) {
	name := Mangle(tr.module, g.Entry.Name())
	t := g.Entry.Type()
	size, err := sizeofOrErr(tr, t)
	if err != nil {
		return
	}
	align := alignofOrErr(tr, t)

	if g.Init == nil {
		tr.out.AppendFrag(ir.NewBssFrag(name, false, align, []ir.Datum{ir.NewPadding(size)}))
		return
	}

	datums := tr.flattenInit(t, g.Init)
	if g.Const {
		tr.out.AppendFrag(ir.NewRoDataFrag(name, false, align, datums))
	} else {
		tr.out.AppendFrag(ir.NewDataFrag(name, false, align, datums))
	}
}

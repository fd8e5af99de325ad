package translate

import (
	"math"
	"strconv"

	"github.com/tcompiler-project/backend/internal/ast"
	"github.com/tcompiler-project/backend/internal/ir"
	"github.com/tcompiler-project/backend/internal/perr"
	"github.com/tcompiler-project/backend/internal/types"
)

// flattenInit lowers a bss/rodata/data global's initializer expression
// into a flat datum sequence laid out at t's natural offsets, filling
// holes with Padding and trailing-padding the whole to t's alignment
// . Scalars and string literals are the base case; AggregateLit
// recurses field-by-field (struct/array) using the target type's
// layout, not the literal's own synthesized Aggregate type.
func (tr *Translator) flattenInit(t *types.Type, init ast.Expr) []ir.Datum {
	switch e := init.(type) {
	case *ast.IntLit:
		return []ir.Datum{scalarDatum(t, e.Value)}
	case *ast.FloatLit:
		return []ir.Datum{floatDatum(t, e.Value)}
	case *ast.StringLit:
		label := tr.emitStringFrag(e.Value, e.Wide)
		return []ir.Datum{ir.NewGlobal(label)}
	case *ast.AggregateLit:
		return tr.flattenAggregate(t, e)
	default:
		tr.errs.Add(perr.IRError(tr.file, "translate", "unsupported initializer expression"))
		size, _ := types.Sizeof(t)
		return []ir.Datum{ir.NewPadding(size)}
	}
}

// emitStringFrag emits a fresh `.LC%zu` rodata fragment holding s (or
// its wide form) and returns the fragment's label name.
func (tr *Translator) emitStringFrag(s string, wide bool) string {
	label := tr.nextLocalLabel()
	var d ir.Datum
	if wide {
		d = ir.NewWString([]rune(s))
	} else {
		d = ir.NewString(s)
	}
	tr.out.AppendFrag(ir.NewRoDataFrag(label, true, 1, []ir.Datum{d}))
	return label
}

func (tr *Translator) nextLocalLabel() string {
	id := tr.nextLocal
	tr.nextLocal++
	return ".LC" + strconv.Itoa(id)
}

func scalarDatum(t *types.Type, v int64) ir.Datum {
	size, _ := types.Sizeof(t)
	switch size {
	case 1:
		return ir.NewByte(uint8(v))
	case 2:
		return ir.NewShort(uint16(v))
	case 4:
		return ir.NewInt(uint32(v))
	default:
		return ir.NewLong(uint64(v))
	}
}

func floatDatum(t *types.Type, v float64) ir.Datum {
	size, _ := types.Sizeof(t)
	if size == 4 {
		return ir.NewInt(math.Float32bits(float32(v)))
	}
	return ir.NewLong(math.Float64bits(v))
}

func (tr *Translator) flattenAggregate(t *types.Type, lit *ast.AggregateLit) []ir.Datum {
	u := t.Unqualified()
	switch u.Kind() {
	case types.KArray:
		return tr.flattenArrayAggregate(u, lit)
	case types.KReference:
		agg, ok := u.Referent().(types.AggregateReferent)
		if !ok {
			tr.errs.Add(perr.IRError(tr.file, "translate", "aggregate initializer targets a non-aggregate reference"))
			return nil
		}
		return tr.flattenStructAggregate(u, agg, lit)
	default:
		tr.errs.Add(perr.IRError(tr.file, "translate", "aggregate initializer targets a scalar type"))
		return nil
	}
}

func (tr *Translator) flattenArrayAggregate(arr *types.Type, lit *ast.AggregateLit) []ir.Datum {
	elemType := arr.Base()
	var out []ir.Datum
	for _, elem := range lit.Elements {
		out = append(out, tr.flattenInit(elemType, elem)...)
	}
	elemSize, _ := types.Sizeof(elemType)
	want := arr.Length() * elemSize
	have := datumsSize(out)
	if want > have {
		out = append(out, ir.NewPadding(want-have))
	}
	return out
}

func (tr *Translator) flattenStructAggregate(structType *types.Type, agg types.AggregateReferent, lit *ast.AggregateLit) []ir.Datum {
	fields := agg.FieldTypes()
	var out []ir.Datum
	var offset uint64
	for i, field := range fields {
		falign, _ := types.Alignof(field)
		want := alignUpLocal(offset, falign)
		if want > offset {
			out = append(out, ir.NewPadding(want-offset))
			offset = want
		}
		if i < len(lit.Elements) {
			fieldDatums := tr.flattenInit(field, lit.Elements[i])
			out = append(out, fieldDatums...)
			offset += datumsSize(fieldDatums)
		} else {
			fsize, _ := types.Sizeof(field)
			out = append(out, ir.NewPadding(fsize))
			offset += fsize
		}
	}
	total, _ := types.Sizeof(structType)
	if total > offset {
		out = append(out, ir.NewPadding(total-offset))
	}
	return out
}

func datumsSize(datums []ir.Datum) uint64 {
	var total uint64
	for _, d := range datums {
		total += d.Sizeof()
	}
	return total
}

func alignUpLocal(v, align uint64) uint64 {
	if align == 0 || v%align == 0 {
		return v
	}
	return v + (align - v%align)
}

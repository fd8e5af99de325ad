package translate

import (
	"math"

	"github.com/tcompiler-project/backend/internal/abi"
	"github.com/tcompiler-project/backend/internal/ast"
	"github.com/tcompiler-project/backend/internal/ir"
	"github.com/tcompiler-project/backend/internal/perr"
	"github.com/tcompiler-project/backend/internal/symtab"
	"github.com/tcompiler-project/backend/internal/types"
)

// gpArgRegIDs maps a System V INTEGER argument-register index to the
// NASM register numbering shared with internal/x64 via ir.NewReg:
// rdi, rsi, rdx, rcx, r8, r9.
var gpArgRegIDs = []int{7, 6, 2, 1, 8, 9}

func sseArgRegID(i int) int { return ir.RegXMMBase + i }

// translateExpr lowers one expression into the current block and
// returns the operand holding its value: a temp, or a
// constant when the value is a register-width immediate.
func (tr *Translator) translateExpr(e ast.Expr) ir.Operand {
	switch x := e.(type) {
	case *ast.IntLit:
		// Values wider than an imm32 are moved through a temp so only
		// OpMove ever has to materialize a 64-bit immediate.
		if x.Value >= math.MinInt32 && x.Value <= math.MaxInt32 {
			return scalarConst(x.Type(), x.Value)
		}
		dst := tr.newTemp(x.Type())
		tr.emit(ir.NewInstruction(ir.OpMove, dst, scalarConst(x.Type(), x.Value)))
		return dst

	case *ast.FloatLit:
		dst := tr.newTemp(x.Type())
		tr.emit(ir.NewInstruction(ir.OpMove, dst, floatConst(x.Type(), x.Value)))
		return dst

	case *ast.StringLit:
		label := tr.emitStringFrag(x.Value, x.Wide)
		addr := tr.newPointerTemp()
		tr.emit(ir.NewInstruction(ir.OpMove, addr, addrConst(label)))
		return addr

	case *ast.IdentExpr:
		return tr.translateIdent(x)

	case *ast.BinOp:
		return tr.translateBinOp(x)

	case *ast.UnOp:
		return tr.translateUnOp(x)

	case *ast.AssignExpr:
		return tr.translateAssign(x)

	case *ast.CondExpr:
		return tr.translateCond(x)

	case *ast.CallExpr:
		return tr.translateCall(x)

	case *ast.IndexExpr, *ast.FieldExpr:
		addr := tr.lvalueAddress(e)
		return tr.loadFrom(addr, e.Type())

	case *ast.CastExpr:
		return tr.translateCast(x)

	case *ast.AggregateLit:
		return tr.translateAggregateLit(x)

	default:
		tr.errs.Add(perr.IRError(tr.file, "translate", "unsupported expression node"))
		return longConst(0)
	}
}

// translateExprDiscard evaluates e for its side effects only.
func (tr *Translator) translateExprDiscard(e ast.Expr) {
	_ = tr.translateExpr(e)
}

func (tr *Translator) translateIdent(x *ast.IdentExpr) ir.Operand {
	if x.Entry.Kind() == symtab.KindEnumConstant {
		return scalarConst(x.Type(), x.Entry.Value())
	}
	if temp, ok := tr.entries[x.Entry]; ok {
		return temp
	}
	// File-scope variable: load through its mangled address.
	addr := tr.globalAddress(x.Entry.Name())
	return tr.loadFrom(addr, x.Type())
}

// loadFrom reads a value of type t from the address in addr: a scalar
// load, or a frame-slot copy when t is an aggregate.
func (tr *Translator) loadFrom(addr ir.Operand, t *types.Type) ir.Operand {
	dst := tr.newTemp(t)
	if dst.Hint() == ir.HintMem {
		tr.emit(ir.NewInstruction(ir.OpUninit, dst))
		dstAddr := tr.addressOf(dst)
		tr.emitMemCopy(dstAddr, addr, dst.Size())
		return dst
	}
	tr.emit(ir.NewInstruction(ir.OpMemLoad, dst, addr))
	return dst
}

func (tr *Translator) translateBinOp(x *ast.BinOp) ir.Operand {
	switch x.Op {
	case "&&", "||":
		return tr.shortCircuitValue(x)
	case "<", "<=", "==", "!=", ">", ">=":
		l := tr.translateExpr(x.Left)
		r := tr.translateExpr(x.Right)
		dst := tr.newTemp(x.Type())
		tr.emit(ir.NewInstruction(compareOp(x.Op, x.Left.Type()), dst, l, r))
		return dst
	default:
		l := tr.translateExpr(x.Left)
		r := tr.translateExpr(x.Right)
		op, ok := arithmeticOp(x.Op, x.Type())
		if !ok {
			tr.errs.Add(perr.IRError(tr.file, "translate", "unsupported binary operator "+x.Op))
			return l
		}
		dst := tr.newTemp(x.Type())
		tr.emit(ir.NewInstruction(op, dst, l, r))
		return dst
	}
}

// shortCircuitValue lowers `a && b` / `a || b` in value position: a
// one-byte result temp set to 1 on the true path and 0 on the false
// path, with the operand tree itself lowered through emitCondJump so
// nested short circuits share the same control-flow templates.
func (tr *Translator) shortCircuitValue(x *ast.BinOp) ir.Operand {
	dst := tr.newTemp(x.Type())
	trueB := tr.newBlock()
	falseB := tr.newBlock()
	join := tr.newBlock()

	tr.emitCondJump(x, trueB.Label, falseB.Label)

	tr.switchTo(trueB)
	tr.emit(ir.NewInstruction(ir.OpMove, dst, byteConst(1)))
	tr.emit(ir.NewInstruction(ir.OpJump, tr.localLabel(join.Label)))

	tr.switchTo(falseB)
	tr.emit(ir.NewInstruction(ir.OpMove, dst, byteConst(0)))
	tr.emit(ir.NewInstruction(ir.OpJump, tr.localLabel(join.Label)))

	tr.switchTo(join)
	return dst
}

func (tr *Translator) translateUnOp(x *ast.UnOp) ir.Operand {
	switch x.Op {
	case "-":
		v := tr.translateExpr(x.X)
		dst := tr.newTemp(x.Type())
		op := ir.OpNeg
		if types.IsFloat(x.Type()) {
			op = ir.OpFNeg
		}
		tr.emit(ir.NewInstruction(op, dst, v))
		return dst
	case "~":
		v := tr.translateExpr(x.X)
		dst := tr.newTemp(x.Type())
		tr.emit(ir.NewInstruction(ir.OpNot, dst, v))
		return dst
	case "!":
		v := tr.translateExpr(x.X)
		dst := tr.newTemp(x.Type())
		op := ir.OpCmpZ
		if types.IsFloat(x.X.Type()) {
			op = ir.OpCmpFZ
		}
		tr.emit(ir.NewInstruction(op, dst, v))
		return dst
	case "&":
		return tr.lvalueAddress(x.X)
	case "*":
		addr := tr.translateExpr(x.X)
		return tr.loadFrom(addr, x.Type())
	default:
		tr.errs.Add(perr.IRError(tr.file, "translate", "unsupported unary operator "+x.Op))
		return tr.translateExpr(x.X)
	}
}

func (tr *Translator) translateAssign(x *ast.AssignExpr) ir.Operand {
	// Plain local destination: move straight into its temp.
	if id, ok := x.Dst.(*ast.IdentExpr); ok {
		if temp, ok := tr.entries[id.Entry]; ok && temp.Hint() != ir.HintMem {
			val := tr.assignSource(x, func() ir.Operand { return temp })
			tr.emit(ir.NewInstruction(ir.OpMove, temp, val))
			return temp
		}
	}

	addr := tr.lvalueAddress(x.Dst)
	val := tr.assignSource(x, func() ir.Operand { return tr.loadFrom(addr, x.Dst.Type()) })
	tr.storeTo(addr, val, x.Dst.Type())
	return val
}

// assignSource evaluates the right-hand side of an assignment,
// folding a compound operator (`+=` etc) against the current value
// produced by load.
func (tr *Translator) assignSource(x *ast.AssignExpr, load func() ir.Operand) ir.Operand {
	val := tr.translateExpr(x.Src)
	if x.Op == "" {
		return val
	}
	op, ok := arithmeticOp(x.Op[:len(x.Op)-1], x.Dst.Type())
	if !ok {
		tr.errs.Add(perr.IRError(tr.file, "translate", "unsupported compound assignment "+x.Op))
		return val
	}
	cur := load()
	dst := tr.newTemp(x.Dst.Type())
	tr.emit(ir.NewInstruction(op, dst, cur, val))
	return dst
}

// storeTo writes val to the address in addr: a scalar store, or a
// byte copy when t is an aggregate.
func (tr *Translator) storeTo(addr, val ir.Operand, t *types.Type) {
	if val.Kind() == ir.OTemp && val.Hint() == ir.HintMem {
		srcAddr := tr.addressOf(val)
		tr.emitMemCopy(addr, srcAddr, val.Size())
		return
	}
	tr.emit(ir.NewInstruction(ir.OpMemStore, addr, val))
}

func (tr *Translator) translateCond(x *ast.CondExpr) ir.Operand {
	dst := tr.newTemp(x.Type())
	thenB := tr.newBlock()
	elseB := tr.newBlock()
	join := tr.newBlock()

	tr.emitCondJump(x.Cond, thenB.Label, elseB.Label)

	tr.switchTo(thenB)
	v := tr.translateExpr(x.Then)
	tr.emit(ir.NewInstruction(ir.OpMove, dst, v))
	tr.emit(ir.NewInstruction(ir.OpJump, tr.localLabel(join.Label)))

	tr.switchTo(elseB)
	v = tr.translateExpr(x.Else)
	tr.emit(ir.NewInstruction(ir.OpMove, dst, v))
	tr.emit(ir.NewInstruction(ir.OpJump, tr.localLabel(join.Label)))

	tr.switchTo(join)
	return dst
}

func (tr *Translator) translateCast(x *ast.CastExpr) ir.Operand {
	v := tr.translateExpr(x.X)
	from, to := x.X.Type(), x.Type()
	fromSize, err := types.Sizeof(from)
	if err != nil {
		tr.errs.Add(perr.IRError(tr.file, "translate", err.Error()))
		return v
	}
	toSize, err := types.Sizeof(to)
	if err != nil {
		tr.errs.Add(perr.IRError(tr.file, "translate", err.Error()))
		return v
	}

	dst := tr.newTemp(to)
	fromF, toF := types.IsFloat(from), types.IsFloat(to)
	var op ir.Op
	switch {
	case fromF && toF:
		if fromSize == toSize {
			op = ir.OpMove
		} else {
			op = ir.OpFResize
		}
	case fromF:
		op = ir.OpF2I
	case toF:
		if types.IsSigned(from) {
			op = ir.OpS2F
		} else {
			op = ir.OpU2F
		}
	case toSize > fromSize:
		if types.IsSigned(from) {
			op = ir.OpSx
		} else {
			op = ir.OpZx
		}
	case toSize < fromSize:
		op = ir.OpTrunc
	default:
		op = ir.OpMove
	}
	tr.emit(ir.NewInstruction(op, dst, v))
	return dst
}

// translateAggregateLit materializes an aggregate literal in a frame
// slot, storing each element at its natural offset within the
// literal's synthesized type.
func (tr *Translator) translateAggregateLit(x *ast.AggregateLit) ir.Operand {
	dst := tr.newTemp(x.Type())
	tr.emit(ir.NewInstruction(ir.OpUninit, dst))
	addr := tr.addressOf(dst)
	tr.initAggregateInto(addr, x.Type(), x)
	return dst
}

// initAggregateInto stores lit's elements through addr at their
// type-directed offsets, recursing into nested aggregate literals.
func (tr *Translator) initAggregateInto(addr ir.Operand, t *types.Type, lit *ast.AggregateLit) {
	elemTypes, offsets := tr.aggregateLayout(t, len(lit.Elements))
	for i, elem := range lit.Elements {
		if i >= len(elemTypes) {
			break
		}
		if nested, ok := elem.(*ast.AggregateLit); ok {
			sub := tr.newPointerTemp()
			tr.emit(ir.NewInstruction(ir.OpAdd, sub, addr, longConst(int64(offsets[i]))))
			tr.initAggregateInto(sub, elemTypes[i], nested)
			continue
		}
		v := tr.translateExpr(elem)
		tr.emit(ir.NewInstruction(ir.OpOffsetStore, addr, v, ir.NewOffset(int64(offsets[i]))))
	}
}

// aggregateLayout returns the element types and byte offsets of t's
// first n members: array elements at stride, struct fields at their
// aligned offsets, union members all at zero.
func (tr *Translator) aggregateLayout(t *types.Type, n int) ([]*types.Type, []uint64) {
	u := t.Unqualified()
	switch u.Kind() {
	case types.KArray:
		elem := u.Base()
		stride, _ := types.Sizeof(elem)
		ts := make([]*types.Type, n)
		offs := make([]uint64, n)
		for i := 0; i < n; i++ {
			ts[i] = elem
			offs[i] = uint64(i) * stride
		}
		return ts, offs
	case types.KAggregate:
		members := u.Members()
		var offs []uint64
		var offset uint64
		for _, m := range members {
			align, _ := types.Alignof(m)
			offset = alignUpLocal(offset, align)
			offs = append(offs, offset)
			size, _ := types.Sizeof(m)
			offset += size
		}
		return members, offs
	case types.KReference:
		agg, ok := u.Referent().(types.AggregateReferent)
		if !ok {
			tr.errs.Add(perr.IRError(tr.file, "translate", "aggregate literal targets a non-aggregate reference"))
			return nil, nil
		}
		fields := agg.FieldTypes()
		offs := make([]uint64, len(fields))
		if u.Referent().ReferentKind() != types.RefUnion {
			var offset uint64
			for i, f := range fields {
				align, _ := types.Alignof(f)
				offset = alignUpLocal(offset, align)
				offs[i] = offset
				size, _ := types.Sizeof(f)
				offset += size
			}
		}
		return fields, offs
	default:
		tr.errs.Add(perr.IRError(tr.file, "translate", "aggregate literal targets a scalar type"))
		return nil, nil
	}
}

// === L-values ===

// lvalueAddress lowers an expression in address position, returning a
// GP temp holding the address of the designated object.
func (tr *Translator) lvalueAddress(e ast.Expr) ir.Operand {
	switch x := e.(type) {
	case *ast.IdentExpr:
		if temp, ok := tr.entries[x.Entry]; ok {
			return tr.addressOf(temp)
		}
		return tr.globalAddress(x.Entry.Name())

	case *ast.UnOp:
		if x.Op == "*" {
			return tr.translateExpr(x.X)
		}

	case *ast.IndexExpr:
		base, elem := tr.baseAddress(x.Base)
		if elem == nil {
			elem = x.Type()
		}
		elemSize, _ := types.Sizeof(elem)
		idx := tr.widenIndex(x.Index)
		scaled := tr.newPointerTemp()
		tr.emit(ir.NewInstruction(ir.OpSMul, scaled, idx, longConst(int64(elemSize))))
		addr := tr.newPointerTemp()
		tr.emit(ir.NewInstruction(ir.OpAdd, addr, base, scaled))
		return addr

	case *ast.FieldExpr:
		base, owner := tr.baseAddress(x.Base)
		offset, ok := tr.fieldByteOffset(owner, x.Field)
		if !ok {
			tr.errs.Add(perr.IRError(tr.file, "translate", "unknown field "+x.Field))
			return base
		}
		if offset == 0 {
			return base
		}
		addr := tr.newPointerTemp()
		tr.emit(ir.NewInstruction(ir.OpAdd, addr, base, longConst(int64(offset))))
		return addr
	}
	tr.errs.Add(perr.IRError(tr.file, "translate", "expression is not an l-value"))
	return longConst(0)
}

// baseAddress resolves the base of an index/field expression: a
// pointer-typed base contributes its value and pointee type, any other
// base contributes its own address and type.
func (tr *Translator) baseAddress(base ast.Expr) (ir.Operand, *types.Type) {
	u := base.Type().Unqualified()
	if u.Kind() == types.KPointer {
		return tr.translateExpr(base), u.Base()
	}
	if u.Kind() == types.KArray {
		return tr.lvalueAddress(base), u.Base()
	}
	return tr.lvalueAddress(base), base.Type()
}

// fieldByteOffset computes the byte offset of a named field within a
// struct/union reference type, using the same aligned-walk layout
// sizeof uses. Union fields all live at offset zero.
func (tr *Translator) fieldByteOffset(t *types.Type, field string) (uint64, bool) {
	u := t.Unqualified()
	if u.Kind() == types.KPointer {
		u = u.Base().Unqualified()
	}
	if u.Kind() != types.KReference {
		return 0, false
	}
	entry, ok := u.Referent().(*symtab.Entry)
	if !ok {
		return 0, false
	}
	idx := entry.FieldIndex(field)
	if idx < 0 {
		return 0, false
	}
	if entry.Kind() == symtab.KindUnion {
		return 0, true
	}
	var offset uint64
	for i, f := range entry.FieldTypes() {
		align, _ := types.Alignof(f)
		offset = alignUpLocal(offset, align)
		if i == idx {
			return offset, true
		}
		size, _ := types.Sizeof(f)
		offset += size
	}
	return 0, false
}

// widenIndex brings an index expression's value to pointer width so
// the scale multiply operates on matched sizes.
func (tr *Translator) widenIndex(e ast.Expr) ir.Operand {
	v := tr.translateExpr(e)
	size, _ := types.Sizeof(e.Type())
	if size >= 8 || v.Kind() != ir.OTemp {
		return v
	}
	wide := tr.newPointerTemp()
	op := ir.OpZx
	if types.IsSigned(e.Type()) {
		op = ir.OpSx
	}
	tr.emit(ir.NewInstruction(op, wide, v))
	return wide
}

// === Calls ===

func (tr *Translator) translateCall(x *ast.CallExpr) ir.Operand {
	callee := x.Callee
	retT := callee.ReturnType()
	retPlace, err := abi.PlaceReturn(retT)
	if err != nil {
		tr.errs.Add(perr.IRError(tr.file, "translate", err.Error()))
		return longConst(0)
	}
	placements, err := placeWithHiddenPtr(callee.ArgTypes(), retT, retPlace.ByHiddenPointer)
	if err != nil {
		tr.errs.Add(perr.IRError(tr.file, "translate", err.Error()))
		return longConst(0)
	}

	vals := make([]ir.Operand, len(x.Args))
	for i, a := range x.Args {
		vals[i] = tr.translateExpr(a)
	}

	var retTemp ir.Operand
	if retPlace.ByHiddenPointer {
		retTemp = tr.newTemp(retT)
		tr.emit(ir.NewInstruction(ir.OpUninit, retTemp))
		addr := tr.addressOf(retTemp)
		tr.emit(ir.NewInstruction(ir.OpMove, ir.NewReg(gpArgRegIDs[0], 8), addr))
	}

	argTypes := callee.ArgTypes()
	for i, p := range placements {
		if i >= len(vals) {
			break
		}
		tr.stageCallArg(p, vals[i], argTypeAt(argTypes, i))
	}

	tr.emit(ir.NewInstruction(ir.OpCall, ir.NewLabel(Mangle(tr.module, callee.Name()))))

	switch {
	case retT == nil:
		return longConst(0)
	case retPlace.ByHiddenPointer:
		return retTemp
	case retPlace.Size > 8:
		return tr.receiveTwoEightbyteReturn(retT, retPlace)
	default:
		dst := tr.newTemp(retT)
		reg := ir.NewReg(0, retPlace.Size)
		if types.IsFloat(retT) {
			reg = ir.NewReg(ir.RegXMMBase, retPlace.Size)
		}
		tr.emit(ir.NewInstruction(ir.OpMove, dst, reg))
		return dst
	}
}

func argTypeAt(argTypes []*types.Type, i int) *types.Type {
	if i < len(argTypes) {
		return argTypes[i]
	}
	return nil
}

// stageCallArg routes one evaluated argument to the register(s) or
// outgoing stack slot its placement assigned. Overflow arguments land
// in the outgoing slots the callee sees at 16(%rbp), 24(%rbp), ...
// : OpStkStore's offset operand is the zero-based outgoing slot
// index, which the selector turns into an rsp-relative store.
func (tr *Translator) stageCallArg(p abi.ArgPlacement, val ir.Operand, t *types.Type) {
	outSlot := func(stackOffset int64) ir.Operand {
		return ir.NewOffset((stackOffset - 16) / 8)
	}

	if p.ByReference {
		addr := tr.addressOf(val)
		if len(p.IntRegs) > 0 {
			tr.emit(ir.NewInstruction(ir.OpMove, ir.NewReg(gpArgRegIDs[p.IntRegs[0]], 8), addr))
		} else {
			tr.emit(ir.NewInstruction(ir.OpStkStore, outSlot(p.StackOffset), addr))
		}
		return
	}

	if val.Kind() == ir.OTemp && val.Hint() == ir.HintMem {
		// Small aggregate passed by value: each eightbyte rides in the
		// register its class picked, loaded back out of the frame slot.
		addr := tr.addressOf(val)
		tr.stageAggregateEightbytes(p, addr, t)
		return
	}

	switch {
	case len(p.SSERegs) > 0:
		tr.emit(ir.NewInstruction(ir.OpMove, ir.NewReg(sseArgRegID(p.SSERegs[0]), sizeOfOperand(val)), val))
	case len(p.IntRegs) > 0:
		tr.emit(ir.NewInstruction(ir.OpMove, ir.NewReg(gpArgRegIDs[p.IntRegs[0]], sizeOfOperand(val)), val))
	default:
		tr.emit(ir.NewInstruction(ir.OpStkStore, outSlot(p.StackOffset), val))
	}
}

// stageAggregateEightbytes pairs a <=16-byte aggregate's classified
// eightbytes with the registers its placement consumed, in eightbyte
// order.
func (tr *Translator) stageAggregateEightbytes(p abi.ArgPlacement, addr ir.Operand, t *types.Type) {
	if t == nil {
		return
	}
	ebs, err := abi.Classify(t)
	if err != nil {
		tr.errs.Add(perr.IRError(tr.file, "translate", err.Error()))
		return
	}
	intIdx, sseIdx := 0, 0
	for _, eb := range ebs {
		switch eb.Class {
		case abi.ClassInteger:
			if intIdx < len(p.IntRegs) {
				reg := ir.NewReg(gpArgRegIDs[p.IntRegs[intIdx]], 8)
				tr.emit(ir.NewInstruction(ir.OpOffsetLoad, reg, addr, ir.NewOffset(int64(eb.Offset))))
				intIdx++
			}
		case abi.ClassSSE:
			if sseIdx < len(p.SSERegs) {
				reg := ir.NewReg(sseArgRegID(p.SSERegs[sseIdx]), 8)
				tr.emit(ir.NewInstruction(ir.OpOffsetLoad, reg, addr, ir.NewOffset(int64(eb.Offset))))
				sseIdx++
			}
		}
	}
}

// receiveTwoEightbyteReturn collects a 9..16-byte register-classified
// return value out of rax/rdx and xmm0/xmm1 into a frame slot.
func (tr *Translator) receiveTwoEightbyteReturn(retT *types.Type, place abi.ReturnPlacement) ir.Operand {
	dst := tr.newTemp(retT)
	tr.emit(ir.NewInstruction(ir.OpUninit, dst))
	addr := tr.addressOf(dst)
	intRegs := []int{0, 2} // rax, rdx
	intIdx, sseIdx := 0, 0
	for _, eb := range place.Eightbytes {
		var reg ir.Operand
		if eb.Class == abi.ClassSSE {
			reg = ir.NewReg(ir.RegXMMBase+sseIdx, 8)
			sseIdx++
		} else {
			reg = ir.NewReg(intRegs[intIdx], 8)
			intIdx++
		}
		tr.emit(ir.NewInstruction(ir.OpOffsetStore, addr, reg, ir.NewOffset(int64(eb.Offset))))
	}
	return dst
}

// === Conditional jumps ===

// emitCondJump lowers cond as control flow: a two-arg conditional jump
// (or a short-circuit expansion) targeting trueL/falseL.
// The current block ends with a terminator after this returns.
func (tr *Translator) emitCondJump(cond ast.Expr, trueL, falseL int) {
	switch x := cond.(type) {
	case *ast.BinOp:
		switch x.Op {
		case "&&":
			mid := tr.newBlock()
			tr.emitCondJump(x.Left, mid.Label, falseL)
			tr.switchTo(mid)
			tr.emitCondJump(x.Right, trueL, falseL)
			return
		case "||":
			mid := tr.newBlock()
			tr.emitCondJump(x.Left, trueL, mid.Label)
			tr.switchTo(mid)
			tr.emitCondJump(x.Right, trueL, falseL)
			return
		case "<", "<=", "==", "!=", ">", ">=":
			l := tr.translateExpr(x.Left)
			r := tr.translateExpr(x.Right)
			op := condJumpOp(x.Op, x.Left.Type())
			tr.emit(ir.NewInstruction(op, tr.localLabel(trueL), tr.localLabel(falseL), l, r))
			return
		}
	case *ast.UnOp:
		if x.Op == "!" {
			tr.emitCondJump(x.X, falseL, trueL)
			return
		}
	}

	v := tr.translateExpr(cond)
	if types.IsFloat(cond.Type()) {
		b := tr.newTemp(types.NewKeyword(types.KwBool))
		tr.emit(ir.NewInstruction(ir.OpCmpFNZ, b, v))
		v = b
	}
	tr.emit(ir.NewInstruction(ir.OpJ2NZ, tr.localLabel(trueL), tr.localLabel(falseL), v))
}

// === Operator tables ===

var signedJumps = map[string]ir.Op{"<": ir.OpJ2L, "<=": ir.OpJ2LE, "==": ir.OpJ2E, "!=": ir.OpJ2NE, ">": ir.OpJ2G, ">=": ir.OpJ2GE}
var unsignedJumps = map[string]ir.Op{"<": ir.OpJ2B, "<=": ir.OpJ2BE, "==": ir.OpJ2E, "!=": ir.OpJ2NE, ">": ir.OpJ2A, ">=": ir.OpJ2AE}
var floatJumps = map[string]ir.Op{"<": ir.OpJ2FL, "<=": ir.OpJ2FLE, "==": ir.OpJ2FE, "!=": ir.OpJ2FNE, ">": ir.OpJ2FG, ">=": ir.OpJ2FGE}

var signedCompares = map[string]ir.Op{"<": ir.OpCmpL, "<=": ir.OpCmpLE, "==": ir.OpCmpE, "!=": ir.OpCmpNE, ">": ir.OpCmpG, ">=": ir.OpCmpGE}
var unsignedCompares = map[string]ir.Op{"<": ir.OpCmpB, "<=": ir.OpCmpBE, "==": ir.OpCmpE, "!=": ir.OpCmpNE, ">": ir.OpCmpA, ">=": ir.OpCmpAE}
var floatCompares = map[string]ir.Op{"<": ir.OpCmpFL, "<=": ir.OpCmpFLE, "==": ir.OpCmpFE, "!=": ir.OpCmpFNE, ">": ir.OpCmpFG, ">=": ir.OpCmpFGE}

// condJumpOp picks the two-arg conditional jump for a source-level
// comparison over operands of type t: f-prefixed for floats, a/b forms
// for unsigned, l/g forms for signed (pointers compare unsigned).
func condJumpOp(op string, t *types.Type) ir.Op {
	switch {
	case types.IsFloat(t):
		return floatJumps[op]
	case types.IsSigned(t):
		return signedJumps[op]
	default:
		return unsignedJumps[op]
	}
}

func compareOp(op string, t *types.Type) ir.Op {
	switch {
	case types.IsFloat(t):
		return floatCompares[op]
	case types.IsSigned(t):
		return signedCompares[op]
	default:
		return unsignedCompares[op]
	}
}

// arithmeticOp picks the IR operator for a source-level arithmetic or
// bitwise operator over the (already-merged) result type t.
func arithmeticOp(op string, t *types.Type) (ir.Op, bool) {
	f := types.IsFloat(t)
	signed := types.IsSigned(t)
	switch op {
	case "+":
		if f {
			return ir.OpFAdd, true
		}
		return ir.OpAdd, true
	case "-":
		if f {
			return ir.OpFSub, true
		}
		return ir.OpSub, true
	case "*":
		if f {
			return ir.OpFMul, true
		}
		if signed {
			return ir.OpSMul, true
		}
		return ir.OpUMul, true
	case "/":
		if f {
			return ir.OpFDiv, true
		}
		if signed {
			return ir.OpSDiv, true
		}
		return ir.OpUDiv, true
	case "%":
		if f {
			return ir.OpFMod, true
		}
		if signed {
			return ir.OpSMod, true
		}
		return ir.OpUMod, true
	case "<<":
		return ir.OpSll, true
	case ">>":
		if signed {
			return ir.OpSar, true
		}
		return ir.OpSlr, true
	case "&":
		return ir.OpAnd, true
	case "|":
		return ir.OpOr, true
	case "^":
		return ir.OpXor, true
	default:
		return ir.OpNop, false
	}
}

// === Small operand helpers ===

func (tr *Translator) freshTempID() int {
	id := tr.nextTemp
	tr.nextTemp++
	return id
}

// newPointerTemp allocates an 8-byte GP temp for an address value.
func (tr *Translator) newPointerTemp() ir.Operand {
	return ir.NewTemp(tr.freshTempID(), 8, 8, ir.HintGP)
}

// addressOf yields a GP temp holding the address of val. A non-MEM
// operand is first parked in a fresh MEM temp so it has an address to
// take.
func (tr *Translator) addressOf(val ir.Operand) ir.Operand {
	if val.Kind() != ir.OTemp || val.Hint() != ir.HintMem {
		size := sizeOfOperand(val)
		slot := ir.NewTemp(tr.freshTempID(), size, size, ir.HintMem)
		tr.emit(ir.NewInstruction(ir.OpMove, slot, val))
		val = slot
	}
	addr := tr.newPointerTemp()
	tr.emit(ir.NewInstruction(ir.OpAddrof, addr, val))
	return addr
}

// emitMemCopy copies n bytes from *src to *dst in descending
// power-of-two chunks, each through a GP temp of the chunk's width.
func (tr *Translator) emitMemCopy(dst, src ir.Operand, n uint64) {
	var off uint64
	for _, chunk := range []uint64{8, 4, 2, 1} {
		for off+chunk <= n {
			tmp := ir.NewTemp(tr.freshTempID(), chunk, chunk, ir.HintGP)
			tr.emit(ir.NewInstruction(ir.OpOffsetLoad, tmp, src, ir.NewOffset(int64(off))))
			tr.emit(ir.NewInstruction(ir.OpOffsetStore, dst, tmp, ir.NewOffset(int64(off))))
			off += chunk
		}
	}
}

// globalAddress yields a GP temp holding the mangled address of a
// file-scope symbol.
func (tr *Translator) globalAddress(name string) ir.Operand {
	addr := tr.newPointerTemp()
	tr.emit(ir.NewInstruction(ir.OpMove, addr, addrConst(Mangle(tr.module, name))))
	return addr
}

// addrConst is a Constant whose single Global datum is the address of
// a symbol; the selector emits it as a plain `mov reg, name`.
func addrConst(label string) ir.Operand {
	return ir.NewConstant(8, []ir.Datum{ir.NewGlobal(label)})
}

func longConst(v int64) ir.Operand {
	return ir.NewConstant(8, []ir.Datum{ir.NewLong(uint64(v))})
}

func byteConst(v uint8) ir.Operand {
	return ir.NewConstant(1, []ir.Datum{ir.NewByte(v)})
}

// scalarConst sizes an integer constant to t's width.
func scalarConst(t *types.Type, v int64) ir.Operand {
	size, err := types.Sizeof(t)
	if err != nil {
		size = 8
	}
	switch size {
	case 1:
		return ir.NewConstant(1, []ir.Datum{ir.NewByte(uint8(v))})
	case 2:
		return ir.NewConstant(2, []ir.Datum{ir.NewShort(uint16(v))})
	case 4:
		return ir.NewConstant(4, []ir.Datum{ir.NewInt(uint32(v))})
	default:
		return longConst(v)
	}
}

// floatConst is the bit pattern of a float literal at t's width; the
// selector routes it through a materialized rodata pool.
func floatConst(t *types.Type, v float64) ir.Operand {
	size, err := types.Sizeof(t)
	if err != nil {
		size = 8
	}
	if size == 4 {
		return ir.NewConstant(4, []ir.Datum{ir.NewInt(math.Float32bits(float32(v)))})
	}
	return ir.NewConstant(8, []ir.Datum{ir.NewLong(math.Float64bits(v))})
}

// sizeOfOperand reports an operand's value width: a temp's declared
// size, or a constant's total datum size.
func sizeOfOperand(op ir.Operand) uint64 {
	switch op.Kind() {
	case ir.OTemp, ir.OReg:
		return op.Size()
	case ir.OConstant:
		var total uint64
		for _, d := range op.Datums() {
			total += d.Sizeof()
		}
		return total
	default:
		return 8
	}
}

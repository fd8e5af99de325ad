package x64

import (
	"fmt"

	"github.com/tcompiler-project/backend/internal/ir"
)

// toArg converts an IR operand into its abstract-assembly equivalent.
// GP/FP temps become ATemp; MEM temps resolve straight to their frame
// slot. Reg placeholders decode the shared bank convention
// (ir.RegXMMBase). A single-datum integer constant becomes an
// immediate of any width (selectMove swaps it for a rodata pool when
// the destination is an xmm register); a multi-datum constant is
// materialized as a fresh rodata pool and loaded rip-relative.
func (s *selector) toArg(op ir.Operand) Arg {
	switch op.Kind() {
	case ir.OTemp:
		if op.Hint() == ir.HintMem {
			return Mem(s.frameSlot(op), op.Size())
		}
		return Temp(op.TempID(), op.Size(), op.Hint() == ir.HintFP)
	case ir.OReg:
		if op.RegID() >= ir.RegXMMBase {
			return PhysXMM(op.RegID()-ir.RegXMMBase, op.Size())
		}
		return PhysGP(Reg(op.RegID()), op.Size())
	case ir.OOffset:
		return Imm(op.Offset())
	case ir.OLabel:
		return Global(op.Label())
	case ir.OConstant:
		if ds := op.Datums(); len(ds) == 1 && ds[0].Kind() == ir.DGlobal {
			// Address-of-symbol immediate: `mov reg, name`.
			return Global(ds[0].GlobalName())
		}
		if imm, ok := gpImmediate(op); ok {
			return Imm(imm)
		}
		return Rodata(s.materializeConstant(op), constSize(op))
	default:
		panic("ICE: unhandled operand kind in x64 selection")
	}
}

func constSize(op ir.Operand) uint64 {
	var total uint64
	for _, d := range op.Datums() {
		total += d.Sizeof()
	}
	return total
}

// gpImmediate reports whether a single-datum integer Constant fits
// directly as a GP immediate operand.
func gpImmediate(op ir.Operand) (int64, bool) {
	ds := op.Datums()
	if len(ds) != 1 {
		return 0, false
	}
	switch ds[0].Kind() {
	case ir.DByte:
		return int64(ds[0].Byte()), true
	case ir.DShort:
		return int64(ds[0].Short()), true
	case ir.DInt:
		return int64(ds[0].Int()), true
	case ir.DLong:
		return int64(ds[0].Long()), true
	default:
		return 0, false
	}
}

// materializeConstant emits a fresh `.LC%d` rodata fragment for op
// (used for SSE immediates and any constant too wide to live as a GP
// immediate) and returns its label.
func (s *selector) materializeConstant(op ir.Operand) string {
	id := *s.localCounter
	*s.localCounter++
	name := fmt.Sprintf(".LC%d", id)
	datums := make([]Datum, len(op.Datums()))
	for i, d := range op.Datums() {
		datums[i] = convertDatum(d)
	}
	s.extraRodata = append(s.extraRodata, &DataFrag{Kind: DataRoData, Name: name, Local: true, Alignment: op.Alignment(), Datums: datums})
	return name
}

func defUse(dst Arg, uses ...Arg) ([]Arg, []int, []int) {
	args := append([]Arg{dst}, uses...)
	u := make([]int, len(uses))
	for i := range uses {
		u[i] = i + 1
	}
	return args, []int{0}, u
}

// selectOne lowers one linearized IR instruction into zero or more
// abstract assembly instructions appended to fn.
func (s *selector) selectOne(fn *Func, in ir.Instruction) error {
	args := in.Args()
	switch in.Op {
	case ir.OpNop, ir.OpVolatile, ir.OpUninit:
		// no-ops at this level; Volatile/Uninit only matter to
		// internal/optimize's dead-temp pass.
	case ir.OpLabel:
		fn.Instrs = append(fn.Instrs, Instr{Kind: KLabel, Mnemonic: "label", Target: args[0].Label()})
	case ir.OpMove:
		s.selectMove(fn, args[0], args[1])
	case ir.OpAddrof:
		s.selectAddrof(fn, args[0], args[1])

	case ir.OpMemLoad:
		s.loadThrough(fn, args[0], args[1], 0)
	case ir.OpOffsetLoad:
		s.loadThrough(fn, args[0], args[1], args[2].Offset())
	case ir.OpStkLoad:
		// rbp-relative load: an incoming stack argument or frame slot.
		dst := s.toArg(args[0])
		fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: "mov", Args: []Arg{dst, Mem(args[1].Offset(), argSize(args[0]))}, Defs: []int{0}, Uses: []int{1}})
	case ir.OpMemStore:
		s.storeThrough(fn, args[0], args[1], 0)
	case ir.OpOffsetStore:
		s.storeThrough(fn, args[0], args[1], args[2].Offset())
	case ir.OpStkStore:
		// Outgoing call-argument slot: the offset operand is the
		// zero-based slot index, rsp-relative at call time.
		s.storeOutgoing(fn, args[0].Offset(), args[1])

	case ir.OpAdd, ir.OpSub, ir.OpSMul, ir.OpAnd, ir.OpXor, ir.OpOr,
		ir.OpFAdd, ir.OpFSub, ir.OpFMul, ir.OpFDiv,
		ir.OpSll, ir.OpSlr, ir.OpSar:
		s.selectBinop(fn, in.Op, args[0], args[1], args[2])
	case ir.OpUMul:
		s.selectBinop(fn, ir.OpUMul, args[0], args[1], args[2])
	case ir.OpSDiv, ir.OpUDiv, ir.OpSMod, ir.OpUMod:
		s.selectDivMod(fn, in.Op, args[0], args[1], args[2])

	case ir.OpNeg, ir.OpFNeg, ir.OpNot:
		s.selectUnary(fn, in.Op, args[0], args[1])

	case ir.OpCmpL, ir.OpCmpLE, ir.OpCmpE, ir.OpCmpNE, ir.OpCmpG, ir.OpCmpGE,
		ir.OpCmpA, ir.OpCmpAE, ir.OpCmpB, ir.OpCmpBE:
		s.selectIntCompare(fn, in.Op, args[0], args[1], args[2])
	case ir.OpCmpFL, ir.OpCmpFLE, ir.OpCmpFE, ir.OpCmpFNE, ir.OpCmpFG, ir.OpCmpFGE:
		s.selectFloatCompare(fn, in.Op, args[0], args[1], args[2])
	case ir.OpCmpZ, ir.OpCmpNZ:
		s.selectZeroCompare(fn, in.Op, args[0], args[1], false)
	case ir.OpCmpFZ, ir.OpCmpFNZ:
		s.selectZeroCompare(fn, in.Op, args[0], args[1], true)

	case ir.OpSx, ir.OpZx, ir.OpTrunc, ir.OpU2F, ir.OpS2F, ir.OpFResize, ir.OpF2I:
		s.selectCast(fn, in.Op, args[0], args[1])

	case ir.OpJump:
		fn.Instrs = append(fn.Instrs, Instr{Kind: KJump, Mnemonic: "jmp", Target: args[0].Label()})
	case ir.OpJumptable:
		fn.Instrs = append(fn.Instrs, s.selectJumptable(args[0], args[1]))
	case ir.OpJ1L, ir.OpJ1LE, ir.OpJ1E, ir.OpJ1NE, ir.OpJ1G, ir.OpJ1GE,
		ir.OpJ1A, ir.OpJ1AE, ir.OpJ1B, ir.OpJ1BE,
		ir.OpJ1FL, ir.OpJ1FLE, ir.OpJ1FE, ir.OpJ1FNE, ir.OpJ1FG, ir.OpJ1FGE:
		s.selectOneArgCmpJump(fn, in.Op, args[0], args[1], args[2])
	case ir.OpJ1Z, ir.OpJ1NZ:
		s.selectOneArgZeroJump(fn, in.Op, args[0], args[1])

	case ir.OpCall:
		s.selectCall(fn, args[0])
	case ir.OpReturn:
		s.selectReturn(fn)

	default:
		return fmt.Errorf("unhandled IR operator %s in instruction selection", in.Op)
	}
	return nil
}

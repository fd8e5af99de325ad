package x64

import (
	"fmt"
	"math"

	"github.com/tcompiler-project/backend/internal/ir"
)

// argSize reports an IR operand's value width in bytes.
func argSize(op ir.Operand) uint64 {
	switch op.Kind() {
	case ir.OTemp, ir.OReg:
		return op.Size()
	case ir.OConstant:
		return constSize(op)
	default:
		return 8
	}
}

// isMemArg reports whether a resolves to a memory operand; x86 allows
// at most one per instruction, so pairs are routed through a scratch
// register.
func isMemArg(a Arg) bool {
	switch a.Kind {
	case AMem, AIndexed, ATempIndexed, ARodata:
		return true
	}
	return false
}

func usesIn(args []Arg, idxs ...int) []int {
	var out []int
	for _, i := range idxs {
		switch args[i].Kind {
		case ATemp, APhys, ATempIndexed:
			out = append(out, i)
		}
	}
	return out
}

// scratchHop loads a memory or wide-immediate source into r11 and
// returns the register operand to use in its place.
func (s *selector) scratchHop(fn *Func, src Arg, size uint64) Arg {
	r := PhysGP(R11, size)
	mn := "mov"
	if src.Kind == AImm && (src.Imm > math.MaxInt32 || src.Imm < math.MinInt32) {
		mn = "movabs"
		r = PhysGP(R11, 8)
	}
	args := []Arg{r, src}
	fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: mn, Args: args, Defs: []int{0}, Uses: usesIn(args, 1)})
	return r
}

// === Moves and address-of ===

func (s *selector) selectMove(fn *Func, dst, src ir.Operand) {
	dstA := s.toArg(dst)
	srcA := s.toArg(src)
	if srcA.Kind == AImm && src.Kind() == ir.OConstant && dstA.FP {
		// SSE moves take no immediate: load the bits from a rodata pool.
		srcA = Rodata(s.materializeConstant(src), constSize(src))
	}

	if srcA.Kind == AImm && (srcA.Imm > math.MaxInt32 || srcA.Imm < math.MinInt32) {
		if isMemArg(dstA) {
			srcA = s.scratchHop(fn, srcA, 8)
		} else {
			args := []Arg{dstA, srcA}
			fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: "movabs", Args: args, Defs: []int{0}, Uses: nil})
			return
		}
	}
	if isMemArg(dstA) && isMemArg(srcA) {
		srcA = s.scratchHop(fn, srcA, argSize(src))
	}
	args := []Arg{dstA, srcA}
	fn.Instrs = append(fn.Instrs, Instr{Kind: KMove, Mnemonic: "mov", Args: args, Defs: defsIn(args), Uses: usesIn(args, 1)})
}

// defsIn marks args[0] as a definition when it is a register; a memory
// destination defines nothing the allocator tracks.
func defsIn(args []Arg) []int {
	switch args[0].Kind {
	case ATemp, APhys:
		return []int{0}
	}
	return nil
}

// selectAddrof materializes the address of a MEM temp's frame slot.
func (s *selector) selectAddrof(fn *Func, dst, src ir.Operand) {
	if src.Kind() != ir.OTemp || src.Hint() != ir.HintMem {
		// The translator only emits Addrof on a MEM temp; anything
		// else here is translator breakage, stopped with an ICE rather
		// than silently miscompiled.
		panic(fmt.Sprintf("ICE: addrof of non-MEM operand %s", src))
	}
	off := s.frameSlot(src)
	dstA := s.toArg(dst)
	args := []Arg{dstA, Mem(off, 8)}
	fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: "lea", Args: args, Defs: []int{0}, Uses: nil})
}

// === Loads and stores ===

// baseArg resolves a pointer operand to an indexed memory operand at
// the given displacement, hopping through r11 when the pointer itself
// lives in memory.
func (s *selector) baseArg(fn *Func, addr ir.Operand, off int64, size uint64) Arg {
	switch addr.Kind() {
	case ir.OTemp:
		if addr.Hint() == ir.HintMem {
			ptr := s.scratchHop(fn, Mem(s.frameSlot(addr), 8), 8)
			return Indexed(Reg(ptr.ID), off, size)
		}
		return TempIndexed(addr.TempID(), off, size)
	case ir.OReg:
		return Indexed(Reg(addr.RegID()), off, size)
	default:
		panic("ICE: unsupported address operand in x64 selection")
	}
}

func (s *selector) loadThrough(fn *Func, dst, addr ir.Operand, off int64) {
	dstA := s.toArg(dst)
	srcA := s.baseArg(fn, addr, off, argSize(dst))
	if isMemArg(dstA) {
		mid := s.scratchHop(fn, srcA, argSize(dst))
		args := []Arg{dstA, mid}
		fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: "mov", Args: args, Defs: nil, Uses: usesIn(args, 1)})
		return
	}
	args := []Arg{dstA, srcA}
	fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: "mov", Args: args, Defs: defsIn(args), Uses: usesIn(args, 1)})
}

func (s *selector) storeThrough(fn *Func, addr, src ir.Operand, off int64) {
	srcA := s.toArg(src)
	if isMemArg(srcA) || (srcA.Kind == AImm && (srcA.Imm > math.MaxInt32 || srcA.Imm < math.MinInt32)) {
		srcA = s.scratchHop(fn, srcA, argSize(src))
	}
	dstA := s.baseArg(fn, addr, off, argSize(src))
	args := []Arg{dstA, srcA}
	fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: "mov", Args: args, Defs: nil, Uses: usesIn(args, 0, 1)})
}

// storeOutgoing writes one outgoing call argument to its rsp-relative
// slot, growing the frame's outgoing area to cover it.
func (s *selector) storeOutgoing(fn *Func, slot int64, src ir.Operand) {
	if slot+1 > s.maxOutSlots {
		s.maxOutSlots = slot + 1
	}
	srcA := s.toArg(src)
	if isMemArg(srcA) || (srcA.Kind == AImm && (srcA.Imm > math.MaxInt32 || srcA.Imm < math.MinInt32)) {
		srcA = s.scratchHop(fn, srcA, argSize(src))
	}
	dstA := Indexed(RSP, slot*8, argSize(src))
	args := []Arg{dstA, srcA}
	fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: "mov", Args: args, Defs: nil, Uses: usesIn(args, 1)})
}

// === Integer and float arithmetic ===

// binopMnemonic maps each 3-arg IR arithmetic operator to its x86
// mnemonic and commutativity; float entries are completed with the
// ss/sd suffix by operand size.
func binopMnemonic(op ir.Op, size uint64) (string, bool) {
	ss := "sd"
	if size == 4 {
		ss = "ss"
	}
	switch op {
	case ir.OpAdd:
		return "add", true
	case ir.OpSub:
		return "sub", false
	case ir.OpSMul, ir.OpUMul:
		return "imul", true
	case ir.OpAnd:
		return "and", true
	case ir.OpXor:
		return "xor", true
	case ir.OpOr:
		return "or", true
	case ir.OpSll:
		return "shl", false
	case ir.OpSlr:
		return "shr", false
	case ir.OpSar:
		return "sar", false
	case ir.OpFAdd:
		return "add" + ss, true
	case ir.OpFSub:
		return "sub" + ss, false
	case ir.OpFMul:
		return "mul" + ss, true
	case ir.OpFDiv:
		return "div" + ss, false
	default:
		panic("ICE: unhandled binop in x64 selection")
	}
}

func (s *selector) selectBinop(fn *Func, op ir.Op, d, a, b ir.Operand) {
	mn, comm := binopMnemonic(op, argSize(d))
	dA, aA, bA := s.toArg(d), s.toArg(a), s.toArg(b)

	// Variable shift counts ride in cl.
	if (op == ir.OpSll || op == ir.OpSlr || op == ir.OpSar) && bA.Kind != AImm {
		cl := PhysGP(RCX, argSize(b))
		args := []Arg{cl, bA}
		fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: "mov", Args: args, Defs: []int{0}, Uses: usesIn(args, 1)})
		bA = PhysGP(RCX, 1)
	}

	args := []Arg{dA, aA, bA}
	fn.Instrs = append(fn.Instrs, Instr{
		Kind: KRegular, Mnemonic: mn, Args: args,
		Defs: defsIn(args), Uses: usesIn(args, 1, 2),
		ThreeOp: true, Commutative: comm,
	})
}

// selectDivMod lowers division/remainder through the rax:rdx idiom
// : widen the dividend into rax, sign- or zero-extend into rdx,
// divide, and take the quotient from rax or the remainder from rdx.
// Sub-dword operands are widened to 32 bits first.
func (s *selector) selectDivMod(fn *Func, op ir.Op, d, a, b ir.Operand) {
	signed := op == ir.OpSDiv || op == ir.OpSMod
	wantRem := op == ir.OpSMod || op == ir.OpUMod
	size := argSize(d)
	opSize := size
	if opSize < 4 {
		opSize = 4
	}

	aA := s.toArg(a)
	rax := PhysGP(RAX, opSize)
	if size < 4 {
		mn := "movzx"
		if signed {
			mn = "movsx"
		}
		args := []Arg{rax, aA}
		fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: mn, Args: args, Defs: []int{0}, Uses: usesIn(args, 1)})
	} else {
		args := []Arg{rax, aA}
		fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: "mov", Args: args, Defs: []int{0}, Uses: usesIn(args, 1)})
	}

	bA := s.toArg(b)
	if bA.Kind == AImm || argSize(b) < 4 {
		r := PhysGP(R11, opSize)
		mn := "mov"
		if argSize(b) < 4 && bA.Kind != AImm {
			if signed {
				mn = "movsx"
			} else {
				mn = "movzx"
			}
		}
		args := []Arg{r, bA}
		fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: mn, Args: args, Defs: []int{0}, Uses: usesIn(args, 1)})
		bA = r
	}

	rdx := PhysGP(RDX, opSize)
	if signed {
		ext := "cqo"
		if opSize == 4 {
			ext = "cdq"
		}
		args := []Arg{rdx, rax}
		fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: ext, Args: args, Defs: []int{0}, Uses: []int{1}})
	} else {
		args := []Arg{rdx, rdx}
		fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: "xor", Args: args, Defs: []int{0}, Uses: nil})
	}

	divMn := "div"
	if signed {
		divMn = "idiv"
	}
	args := []Arg{bA, rax, rdx}
	fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: divMn, Args: args, Defs: []int{1, 2}, Uses: usesIn(args, 0, 1, 2)})

	src := PhysGP(RAX, size)
	if wantRem {
		src = PhysGP(RDX, size)
	}
	dA := s.toArg(d)
	out := []Arg{dA, src}
	fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: "mov", Args: out, Defs: defsIn(out), Uses: []int{1}})
}

func (s *selector) selectUnary(fn *Func, op ir.Op, d, a ir.Operand) {
	dA, aA := s.toArg(d), s.toArg(a)
	switch op {
	case ir.OpNeg, ir.OpNot:
		mn := "neg"
		if op == ir.OpNot {
			mn = "not"
		}
		args := []Arg{dA, aA}
		fn.Instrs = append(fn.Instrs, Instr{
			Kind: KRegular, Mnemonic: mn, Args: args,
			Defs: defsIn(args), Uses: usesIn(args, 1),
			UnaryOp: true,
		})
	case ir.OpFNeg:
		// No SSE negate: xor against the sign-bit mask.
		size := argSize(d)
		mask := s.signMaskPool(size)
		mv := []Arg{dA, aA}
		fn.Instrs = append(fn.Instrs, Instr{Kind: KMove, Mnemonic: "mov", Args: mv, Defs: defsIn(mv), Uses: usesIn(mv, 1)})
		mn := "xorpd"
		if size == 4 {
			mn = "xorps"
		}
		args := []Arg{dA, Rodata(mask, 16)}
		fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: mn, Args: args, Defs: defsIn(args), Uses: usesIn(args, 0)})
	default:
		panic("ICE: unhandled unary op in x64 selection")
	}
}

// signMaskPool materializes (once per use site) a 16-byte rodata mask
// flipping the sign bit of an f32/f64 lane.
func (s *selector) signMaskPool(size uint64) string {
	id := *s.localCounter
	*s.localCounter++
	name := fmt.Sprintf(".LC%d", id)
	var datums []Datum
	if size == 4 {
		datums = []Datum{{Kind: DInt, U32: 0x80000000}, {Kind: DPadding, Padding: 12}}
	} else {
		datums = []Datum{{Kind: DLong, U64: 0x8000000000000000}, {Kind: DPadding, Padding: 8}}
	}
	s.extraRodata = append(s.extraRodata, &DataFrag{Kind: DataRoData, Name: name, Local: true, Alignment: 16, Datums: datums})
	return name
}

// zeroPool materializes an f32/f64 zero for against-zero compares.
func (s *selector) zeroPool(size uint64) string {
	id := *s.localCounter
	*s.localCounter++
	name := fmt.Sprintf(".LC%d", id)
	var d Datum
	if size == 4 {
		d = Datum{Kind: DInt}
	} else {
		d = Datum{Kind: DLong}
	}
	s.extraRodata = append(s.extraRodata, &DataFrag{Kind: DataRoData, Name: name, Local: true, Alignment: size, Datums: []Datum{d}})
	return name
}

// === Compares ===

var intCC = map[ir.Op]string{
	ir.OpCmpL: "l", ir.OpCmpLE: "le", ir.OpCmpE: "e", ir.OpCmpNE: "ne",
	ir.OpCmpG: "g", ir.OpCmpGE: "ge",
	ir.OpCmpA: "a", ir.OpCmpAE: "ae", ir.OpCmpB: "b", ir.OpCmpBE: "be",
}

// floatCC maps float compares onto the unsigned condition codes comiss
// sets (CF/ZF), so fl becomes b, fg becomes a, and so on.
var floatCC = map[ir.Op]string{
	ir.OpCmpFL: "b", ir.OpCmpFLE: "be", ir.OpCmpFE: "e", ir.OpCmpFNE: "ne",
	ir.OpCmpFG: "a", ir.OpCmpFGE: "ae",
}

func (s *selector) emitCmp(fn *Func, a, b ir.Operand) {
	aA, bA := s.toArg(a), s.toArg(b)
	if aA.Kind == AImm {
		aA = s.scratchHop(fn, aA, argSize(a))
	}
	if isMemArg(aA) && isMemArg(bA) {
		bA = s.scratchHop(fn, bA, argSize(b))
	}
	args := []Arg{aA, bA}
	fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: "cmp", Args: args, Uses: usesIn(args, 0, 1)})
}

func (s *selector) emitComi(fn *Func, a ir.Operand, b Arg) {
	mn := "comisd"
	if argSize(a) == 4 {
		mn = "comiss"
	}
	args := []Arg{s.toArg(a), b}
	fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: mn, Args: args, Uses: usesIn(args, 0, 1)})
}

func (s *selector) emitSet(fn *Func, cc string, d ir.Operand) {
	dA := s.toArg(d)
	dA.Size = 1
	args := []Arg{dA}
	fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: "set" + cc, Args: args, Defs: defsIn(args)})
}

func (s *selector) selectIntCompare(fn *Func, op ir.Op, d, a, b ir.Operand) {
	s.emitCmp(fn, a, b)
	s.emitSet(fn, intCC[op], d)
}

func (s *selector) selectFloatCompare(fn *Func, op ir.Op, d, a, b ir.Operand) {
	s.emitComi(fn, a, s.toArg(b))
	s.emitSet(fn, floatCC[op], d)
}

func (s *selector) selectZeroCompare(fn *Func, op ir.Op, d, a ir.Operand, fp bool) {
	if fp {
		s.emitComi(fn, a, Rodata(s.zeroPool(argSize(a)), argSize(a)))
		cc := "e"
		if op == ir.OpCmpFNZ {
			cc = "ne"
		}
		s.emitSet(fn, cc, d)
		return
	}
	aA := s.toArg(a)
	if aA.Kind == AImm {
		aA = s.scratchHop(fn, aA, argSize(a))
	}
	args := []Arg{aA, aA}
	fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: "test", Args: args, Uses: usesIn(args, 0)})
	cc := "e"
	if op == ir.OpCmpNZ {
		cc = "ne"
	}
	s.emitSet(fn, cc, d)
}

// === Casts ===

func (s *selector) selectCast(fn *Func, op ir.Op, d, a ir.Operand) {
	dA, aA := s.toArg(d), s.toArg(a)
	ds, as := argSize(d), argSize(a)

	emit := func(mn string, args ...Arg) {
		fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: mn, Args: args, Defs: defsIn(args), Uses: usesIn(args, 1)})
	}

	switch op {
	case ir.OpSx:
		if as == 4 && ds == 8 {
			emit("movsxd", dA, aA)
		} else {
			emit("movsx", dA, aA)
		}
	case ir.OpZx:
		if as == 4 && ds == 8 {
			// A 32-bit mov zero-extends to the full register.
			d32 := dA
			d32.Size = 4
			emit("mov", d32, aA)
		} else {
			emit("movzx", dA, aA)
		}
	case ir.OpTrunc:
		aNarrow := aA
		aNarrow.Size = ds
		emit("mov", dA, aNarrow)
	case ir.OpS2F, ir.OpU2F:
		src := aA
		if as < 4 {
			r := PhysGP(R11, 4)
			mn := "movzx"
			if op == ir.OpS2F {
				mn = "movsx"
			}
			emit(mn, r, aA)
			src = r
		}
		mn := "cvtsi2sd"
		if ds == 4 {
			mn = "cvtsi2ss"
		}
		emit(mn, dA, src)
	case ir.OpFResize:
		if ds == 8 {
			emit("cvtss2sd", dA, aA)
		} else {
			emit("cvtsd2ss", dA, aA)
		}
	case ir.OpF2I:
		mn := "cvttsd2si"
		if as == 4 {
			mn = "cvttss2si"
		}
		dWide := dA
		if ds < 4 {
			dWide.Size = 4
		}
		emit(mn, dWide, aA)
	default:
		panic("ICE: unhandled cast op in x64 selection")
	}
}

// === Control flow ===

// selectJumptable builds the indirect jump through a rodata table of
// code labels; the table's entries become the instruction's CFG
// successors for the allocator.
func (s *selector) selectJumptable(scrutinee, table ir.Operand) Instr {
	name := table.Label()
	var targets []string
	if ro, ok := s.file.FindFrag(name); ok {
		for _, d := range ro.Datums {
			if d.Kind() == ir.DLocal {
				targets = append(targets, localLabelName(d.LocalID()))
			}
		}
	}
	args := []Arg{s.toArg(scrutinee)}
	return Instr{Kind: KJumptable, Mnemonic: "jmp", Args: args, Uses: usesIn(args, 0), Target: name, Targets: targets}
}

var intJumpCC = map[ir.Op]string{
	ir.OpJ1L: "jl", ir.OpJ1LE: "jle", ir.OpJ1E: "je", ir.OpJ1NE: "jne",
	ir.OpJ1G: "jg", ir.OpJ1GE: "jge",
	ir.OpJ1A: "ja", ir.OpJ1AE: "jae", ir.OpJ1B: "jb", ir.OpJ1BE: "jbe",
}

var floatJumpCC = map[ir.Op]string{
	ir.OpJ1FL: "jb", ir.OpJ1FLE: "jbe", ir.OpJ1FE: "je", ir.OpJ1FNE: "jne",
	ir.OpJ1FG: "ja", ir.OpJ1FGE: "jae",
}

func (s *selector) selectOneArgCmpJump(fn *Func, op ir.Op, target, a, b ir.Operand) {
	if cc, ok := floatJumpCC[op]; ok {
		s.emitComi(fn, a, s.toArg(b))
		fn.Instrs = append(fn.Instrs, Instr{Kind: KCJump, Mnemonic: cc, Target: target.Label()})
		return
	}
	s.emitCmp(fn, a, b)
	fn.Instrs = append(fn.Instrs, Instr{Kind: KCJump, Mnemonic: intJumpCC[op], Target: target.Label()})
}

func (s *selector) selectOneArgZeroJump(fn *Func, op ir.Op, target, a ir.Operand) {
	aA := s.toArg(a)
	if aA.Kind == AImm {
		aA = s.scratchHop(fn, aA, argSize(a))
	}
	args := []Arg{aA, aA}
	fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: "test", Args: args, Uses: usesIn(args, 0)})
	cc := "jz"
	if op == ir.OpJ1NZ {
		cc = "jnz"
	}
	fn.Instrs = append(fn.Instrs, Instr{Kind: KCJump, Mnemonic: cc, Target: target.Label()})
}

// === Calls and returns ===

// callClobbers is every caller-save register a call may trash: the
// allocator sees these as definitions, so temps live across the call
// get callee-save colors.
func callClobbers() ([]Arg, []int) {
	gps := []Reg{RAX, RCX, RDX, RSI, RDI, R8, R9, R10, R11}
	args := make([]Arg, 0, len(gps)+16)
	for _, r := range gps {
		args = append(args, PhysGP(r, 8))
	}
	for i := 0; i < 16; i++ {
		args = append(args, PhysXMM(i, 8))
	}
	defs := make([]int, len(args))
	for i := range defs {
		defs[i] = i
	}
	return args, defs
}

func (s *selector) selectCall(fn *Func, callee ir.Operand) {
	clobbers, defs := callClobbers()
	switch callee.Kind() {
	case ir.OLabel:
		fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: "call", Target: callee.Label(), Args: clobbers, Defs: defs})
	default:
		args := append([]Arg{s.toArg(callee)}, clobbers...)
		shifted := make([]int, len(defs))
		for i := range defs {
			shifted[i] = defs[i] + 1
		}
		fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: "call", Args: args, Defs: shifted, Uses: usesIn(args, 0)})
	}
}

// selectReturn emits the leave marker the register allocator expands
// into the epilogue sequence.
func (s *selector) selectReturn(fn *Func) {
	fn.Instrs = append(fn.Instrs, Instr{Kind: KLeave, Mnemonic: "ret"})
}

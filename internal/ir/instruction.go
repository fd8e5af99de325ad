package ir

import "fmt"

// === Instructions ===

// Instruction is a fixed-arity record: an operator and up to four
// operand slots. Only the first Op.Arity() slots are meaningful.
type Instruction struct {
	Op       Op
	Operands [4]Operand
}

// NewInstruction builds an instruction, panicking if the operand count
// does not match the operator's declared arity.
func NewInstruction(op Op, operands ...Operand) Instruction {
	if len(operands) != op.Arity() {
		panic(fmt.Sprintf("ICE: %s expects %d operands, got %d", op, op.Arity(), len(operands)))
	}
	var slots [4]Operand
	copy(slots[:], operands)
	return Instruction{Op: op, Operands: slots}
}

// Args returns the meaningful operand slots for this instruction.
func (in Instruction) Args() []Operand {
	return in.Operands[:in.Op.Arity()]
}

func (in Instruction) String() string {
	s := in.Op.String()
	for _, a := range in.Args() {
		s += " " + a.String()
	}
	return s
}

// Dest reports the instruction's single-operand write target, for the
// forms where slot 0 is always the destination. Used by dead-temp
// elimination in internal/optimize.
func (in Instruction) Dest() (Operand, bool) {
	switch in.Op {
	case OpMove, OpAddrof, OpMemLoad, OpStkLoad,
		OpAdd, OpSub, OpSMul, OpUMul, OpSDiv, OpUDiv, OpSMod, OpUMod,
		OpFAdd, OpFSub, OpFMul, OpFDiv, OpFMod,
		OpSll, OpSlr, OpSar, OpAnd, OpXor, OpOr,
		OpNeg, OpFNeg, OpNot,
		OpCmpL, OpCmpLE, OpCmpE, OpCmpNE, OpCmpG, OpCmpGE,
		OpCmpA, OpCmpAE, OpCmpB, OpCmpBE,
		OpCmpFL, OpCmpFLE, OpCmpFE, OpCmpFNE, OpCmpFG, OpCmpFGE,
		OpCmpZ, OpCmpNZ, OpCmpFZ, OpCmpFNZ,
		OpSx, OpZx, OpTrunc, OpU2F, OpS2F, OpFResize, OpF2I,
		OpOffsetLoad, OpUninit:
		return in.Operands[0], true
	default:
		return Operand{}, false
	}
}

package ir

// === Operators ===

// Op enumerates every IR operator. Arity() gives the number of
// operand slots each carries; internal/validate checks every
// instruction against it.
type Op int

const (
	OpNop Op = iota
	OpLabel
	OpVolatile // marks a temp as escaping dead-temp elimination
	OpAddrof   // dst = &src (forces src to a MEM temp)
	OpMove
	OpUninit // declares a temp live with unspecified contents

	OpMemLoad
	OpMemStore
	OpStkLoad
	OpStkStore
	OpOffsetLoad
	OpOffsetStore

	OpAdd
	OpSub
	OpSMul
	OpUMul
	OpSDiv
	OpUDiv
	OpSMod
	OpUMod

	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFMod

	OpSll
	OpSlr
	OpSar

	OpAnd
	OpXor
	OpOr
	OpNot

	OpNeg
	OpFNeg

	// Comparisons yielding a boolean-valued temp.
	OpCmpL
	OpCmpLE
	OpCmpE
	OpCmpNE
	OpCmpG
	OpCmpGE
	OpCmpA
	OpCmpAE
	OpCmpB
	OpCmpBE
	OpCmpFL
	OpCmpFLE
	OpCmpFE
	OpCmpFNE
	OpCmpFG
	OpCmpFGE
	OpCmpZ
	OpCmpNZ
	OpCmpFZ
	OpCmpFNZ

	OpSx
	OpZx
	OpTrunc
	OpU2F
	OpS2F
	OpFResize
	OpF2I

	OpJump
	OpJumptable

	// Two-arg conditional jumps, rewritten by the trace scheduler into
	// the corresponding one-arg form with fallthrough.
	OpJ2L
	OpJ2LE
	OpJ2E
	OpJ2NE
	OpJ2G
	OpJ2GE
	OpJ2A
	OpJ2AE
	OpJ2B
	OpJ2BE
	OpJ2FL
	OpJ2FLE
	OpJ2FE
	OpJ2FNE
	OpJ2FG
	OpJ2FGE
	OpJ2Z
	OpJ2NZ

	// One-arg conditional jumps, produced only by the trace scheduler.
	OpJ1L
	OpJ1LE
	OpJ1E
	OpJ1NE
	OpJ1G
	OpJ1GE
	OpJ1A
	OpJ1AE
	OpJ1B
	OpJ1BE
	OpJ1FL
	OpJ1FLE
	OpJ1FE
	OpJ1FNE
	OpJ1FG
	OpJ1FGE
	OpJ1Z
	OpJ1NZ

	OpCall
	OpReturn
)

var opNames = map[Op]string{
	OpNop: "nop", OpLabel: "label", OpVolatile: "volatile", OpAddrof: "addrof",
	OpMove: "move", OpUninit: "uninit",
	OpMemLoad: "mem.load", OpMemStore: "mem.store",
	OpStkLoad: "stk.load", OpStkStore: "stk.store",
	OpOffsetLoad: "offset.load", OpOffsetStore: "offset.store",
	OpAdd: "add", OpSub: "sub", OpSMul: "smul", OpUMul: "umul",
	OpSDiv: "sdiv", OpUDiv: "udiv", OpSMod: "smod", OpUMod: "umod",
	OpFAdd: "fadd", OpFSub: "fsub", OpFMul: "fmul", OpFDiv: "fdiv", OpFMod: "fmod",
	OpSll: "sll", OpSlr: "slr", OpSar: "sar",
	OpAnd: "and", OpXor: "xor", OpOr: "or", OpNot: "not",
	OpNeg: "neg", OpFNeg: "fneg",
	OpCmpL: "l", OpCmpLE: "le", OpCmpE: "e", OpCmpNE: "ne",
	OpCmpG: "g", OpCmpGE: "ge", OpCmpA: "a", OpCmpAE: "ae", OpCmpB: "b", OpCmpBE: "be",
	OpCmpFL: "fl", OpCmpFLE: "fle", OpCmpFE: "fe", OpCmpFNE: "fne",
	OpCmpFG: "fg", OpCmpFGE: "fge",
	OpCmpZ: "z", OpCmpNZ: "nz", OpCmpFZ: "fz", OpCmpFNZ: "fnz",
	OpSx: "sx", OpZx: "zx", OpTrunc: "trunc",
	OpU2F: "u2f", OpS2F: "s2f", OpFResize: "fresize", OpF2I: "f2i",
	OpJump: "jump", OpJumptable: "jumptable",
	OpJ2L: "j2l", OpJ2LE: "j2le", OpJ2E: "j2e", OpJ2NE: "j2ne",
	OpJ2G: "j2g", OpJ2GE: "j2ge", OpJ2A: "j2a", OpJ2AE: "j2ae", OpJ2B: "j2b", OpJ2BE: "j2be",
	OpJ2FL: "j2fl", OpJ2FLE: "j2fle", OpJ2FE: "j2fe", OpJ2FNE: "j2fne",
	OpJ2FG: "j2fg", OpJ2FGE: "j2fge", OpJ2Z: "j2z", OpJ2NZ: "j2nz",
	OpJ1L: "j1l", OpJ1LE: "j1le", OpJ1E: "j1e", OpJ1NE: "j1ne",
	OpJ1G: "j1g", OpJ1GE: "j1ge", OpJ1A: "j1a", OpJ1AE: "j1ae", OpJ1B: "j1b", OpJ1BE: "j1be",
	OpJ1FL: "j1fl", OpJ1FLE: "j1fle", OpJ1FE: "j1fe", OpJ1FNE: "j1fne",
	OpJ1FG: "j1fg", OpJ1FGE: "j1fge", OpJ1Z: "j1z", OpJ1NZ: "j1nz",
	OpCall: "call", OpReturn: "return",
}

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "op(?)"
}

// Arity returns the number of operand slots op's instructions carry.
// IRInstruction always allocates four slots; Arity is how the validator
// knows which are meaningful.
func (op Op) Arity() int {
	switch op {
	case OpNop, OpReturn:
		return 0
	case OpLabel, OpVolatile, OpUninit, OpJump, OpCall:
		return 1
	case OpAddrof, OpMove, OpMemLoad, OpMemStore, OpStkLoad, OpStkStore,
		OpNeg, OpFNeg, OpNot,
		OpCmpZ, OpCmpNZ, OpCmpFZ, OpCmpFNZ,
		OpSx, OpZx, OpTrunc, OpU2F, OpS2F, OpFResize, OpF2I,
		OpJumptable,
		OpJ1Z, OpJ1NZ:
		return 2
	case OpOffsetLoad, OpOffsetStore,
		OpAdd, OpSub, OpSMul, OpUMul, OpSDiv, OpUDiv, OpSMod, OpUMod,
		OpFAdd, OpFSub, OpFMul, OpFDiv, OpFMod,
		OpSll, OpSlr, OpSar, OpAnd, OpXor, OpOr,
		OpCmpL, OpCmpLE, OpCmpE, OpCmpNE, OpCmpG, OpCmpGE,
		OpCmpA, OpCmpAE, OpCmpB, OpCmpBE,
		OpCmpFL, OpCmpFLE, OpCmpFE, OpCmpFNE, OpCmpFG, OpCmpFGE,
		OpJ2Z, OpJ2NZ,
		OpJ1L, OpJ1LE, OpJ1E, OpJ1NE, OpJ1G, OpJ1GE,
		OpJ1A, OpJ1AE, OpJ1B, OpJ1BE,
		OpJ1FL, OpJ1FLE, OpJ1FE, OpJ1FNE, OpJ1FG, OpJ1FGE:
		return 3
	case OpJ2L, OpJ2LE, OpJ2E, OpJ2NE, OpJ2G, OpJ2GE,
		OpJ2A, OpJ2AE, OpJ2B, OpJ2BE,
		OpJ2FL, OpJ2FLE, OpJ2FE, OpJ2FNE, OpJ2FG, OpJ2FGE:
		return 4
	default:
		panic("ICE: unhandled operator in Arity")
	}
}

// IsTerminator reports whether op must end a block. Calls are ordinary
// instructions here: they fall through to the next instruction of the
// same block, so a block ending in one would leave its successor
// unnamed.
func (op Op) IsTerminator() bool {
	switch op {
	case OpJump, OpJumptable, OpReturn:
		return true
	}
	switch op {
	case OpJ2L, OpJ2LE, OpJ2E, OpJ2NE, OpJ2G, OpJ2GE, OpJ2A, OpJ2AE, OpJ2B, OpJ2BE,
		OpJ2FL, OpJ2FLE, OpJ2FE, OpJ2FNE, OpJ2FG, OpJ2FGE, OpJ2Z, OpJ2NZ,
		OpJ1L, OpJ1LE, OpJ1E, OpJ1NE, OpJ1G, OpJ1GE, OpJ1A, OpJ1AE, OpJ1B, OpJ1BE,
		OpJ1FL, OpJ1FLE, OpJ1FE, OpJ1FNE, OpJ1FG, OpJ1FGE, OpJ1Z, OpJ1NZ:
		return true
	}
	return false
}

// IsTwoArgJump reports whether op is a two-arg conditional jump, the
// form the translator produces and the trace scheduler rewrites away.
func (op Op) IsTwoArgJump() bool {
	switch op {
	case OpJ2L, OpJ2LE, OpJ2E, OpJ2NE, OpJ2G, OpJ2GE, OpJ2A, OpJ2AE, OpJ2B, OpJ2BE,
		OpJ2FL, OpJ2FLE, OpJ2FE, OpJ2FNE, OpJ2FG, OpJ2FGE, OpJ2Z, OpJ2NZ:
		return true
	}
	return false
}

// IsOneArgJump reports whether op is a one-arg conditional jump, the
// form produced only by the trace scheduler.
func (op Op) IsOneArgJump() bool {
	switch op {
	case OpJ1L, OpJ1LE, OpJ1E, OpJ1NE, OpJ1G, OpJ1GE, OpJ1A, OpJ1AE, OpJ1B, OpJ1BE,
		OpJ1FL, OpJ1FLE, OpJ1FE, OpJ1FNE, OpJ1FG, OpJ1FGE, OpJ1Z, OpJ1NZ:
		return true
	}
	return false
}

// twoArgToOneArg maps each two-arg conditional jump to its one-arg form.
var twoArgToOneArg = map[Op]Op{
	OpJ2L: OpJ1L, OpJ2LE: OpJ1LE, OpJ2E: OpJ1E, OpJ2NE: OpJ1NE,
	OpJ2G: OpJ1G, OpJ2GE: OpJ1GE, OpJ2A: OpJ1A, OpJ2AE: OpJ1AE,
	OpJ2B: OpJ1B, OpJ2BE: OpJ1BE,
	OpJ2FL: OpJ1FL, OpJ2FLE: OpJ1FLE, OpJ2FE: OpJ1FE, OpJ2FNE: OpJ1FNE,
	OpJ2FG: OpJ1FG, OpJ2FGE: OpJ1FGE, OpJ2Z: OpJ1Z, OpJ2NZ: OpJ1NZ,
}

// OneArgForm returns the one-arg jump corresponding to a two-arg jump op.
func OneArgForm(op Op) (Op, bool) {
	one, ok := twoArgToOneArg[op]
	return one, ok
}

// negatedJump maps each conditional jump to its logical negation; it
// backs Negated.
var negatedJump = map[Op]Op{
	OpJ2L: OpJ2GE, OpJ2GE: OpJ2L, OpJ2LE: OpJ2G, OpJ2G: OpJ2LE,
	OpJ2E: OpJ2NE, OpJ2NE: OpJ2E,
	OpJ2A: OpJ2BE, OpJ2BE: OpJ2A, OpJ2AE: OpJ2B, OpJ2B: OpJ2AE,
	OpJ2FL: OpJ2FGE, OpJ2FGE: OpJ2FL, OpJ2FLE: OpJ2FG, OpJ2FG: OpJ2FLE,
	OpJ2FE: OpJ2FNE, OpJ2FNE: OpJ2FE,
	OpJ2Z: OpJ2NZ, OpJ2NZ: OpJ2Z,
	OpJ1L: OpJ1GE, OpJ1GE: OpJ1L, OpJ1LE: OpJ1G, OpJ1G: OpJ1LE,
	OpJ1E: OpJ1NE, OpJ1NE: OpJ1E,
	OpJ1A: OpJ1BE, OpJ1BE: OpJ1A, OpJ1AE: OpJ1B, OpJ1B: OpJ1AE,
	OpJ1FL: OpJ1FGE, OpJ1FGE: OpJ1FL, OpJ1FLE: OpJ1FG, OpJ1FG: OpJ1FLE,
	OpJ1FE: OpJ1FNE, OpJ1FNE: OpJ1FE,
	OpJ1Z: OpJ1NZ, OpJ1NZ: OpJ1Z,
}

// Negated returns the logical negation of a conditional jump op.
func Negated(op Op) (Op, bool) {
	n, ok := negatedJump[op]
	return n, ok
}

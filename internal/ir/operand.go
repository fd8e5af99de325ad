// Package ir implements the compiler's intermediate representation:
// operands, datums, instructions, blocks and fragments, plus the
// operators the translator, optimizer, scheduler and selector share.
package ir

import "fmt"

// === Operands ===

// AllocHint mirrors types.AllocationHint without importing internal/types,
// keeping ir a leaf package the rest of the backend depends on.
type AllocHint int

const (
	HintGP AllocHint = iota
	HintFP
	HintMem
)

func (h AllocHint) String() string {
	switch h {
	case HintGP:
		return "GP"
	case HintFP:
		return "FP"
	case HintMem:
		return "MEM"
	default:
		return "hint(?)"
	}
}

// OperandKind tags the variant an Operand holds.
type OperandKind int

const (
	OTemp OperandKind = iota
	OReg
	OConstant
	OLabel
	OOffset
)

func (k OperandKind) String() string {
	switch k {
	case OTemp:
		return "temp"
	case OReg:
		return "reg"
	case OConstant:
		return "constant"
	case OLabel:
		return "label"
	case OOffset:
		return "offset"
	default:
		return "operand(?)"
	}
}

// Operand is a tagged variant over the IR operand grammar.
type Operand struct {
	kind OperandKind

	tempID    int       // OTemp
	alignment uint64    // OTemp, OConstant
	size      uint64    // OTemp, OReg
	hint      AllocHint // OTemp

	regID int // OReg

	datums []Datum // OConstant

	label string // OLabel

	offset int64 // OOffset
}

func (o Operand) Kind() OperandKind { return o.kind }

// NewTemp builds a virtual-register operand. A MEM-hinted temp is
// address-taken and lives on the stack rather than in a register.
func NewTemp(id int, alignment, size uint64, hint AllocHint) Operand {
	return Operand{kind: OTemp, tempID: id, alignment: alignment, size: size, hint: hint}
}

func (o Operand) TempID() int {
	if o.kind != OTemp {
		panic("ICE: TempID() on a non-Temp operand")
	}
	return o.tempID
}

func (o Operand) Alignment() uint64 {
	switch o.kind {
	case OTemp, OConstant:
		return o.alignment
	default:
		panic("ICE: Alignment() on an operand without alignment")
	}
}

func (o Operand) Size() uint64 {
	switch o.kind {
	case OTemp, OReg:
		return o.size
	default:
		panic("ICE: Size() on an operand without size")
	}
}

func (o Operand) Hint() AllocHint {
	if o.kind != OTemp {
		panic("ICE: Hint() on a non-Temp operand")
	}
	return o.hint
}

// RegXMMBase splits the Reg id space between the two x86_64 register
// banks: ids 0-15 are the GP registers in NASM numbering (rax=0 ...
// r15=15), ids 16-31 are xmm0-xmm15. x86_64 Linux is the only
// supported target, so the convention lives here where both
// internal/translate and internal/x64 can share it.
const RegXMMBase = 16

// NewReg builds a physical-register placeholder, inserted for ABI
// argument/return staging and resolved by the instruction selector.
func NewReg(id int, size uint64) Operand {
	return Operand{kind: OReg, regID: id, size: size}
}

func (o Operand) RegID() int {
	if o.kind != OReg {
		panic("ICE: RegID() on a non-Reg operand")
	}
	return o.regID
}

// NewConstant builds an immediate pool of one or more datums.
func NewConstant(alignment uint64, datums []Datum) Operand {
	if len(datums) == 0 {
		panic("ICE: constant operand with no datums")
	}
	return Operand{kind: OConstant, alignment: alignment, datums: datums}
}

func (o Operand) Datums() []Datum {
	if o.kind != OConstant {
		panic("ICE: Datums() on a non-Constant operand")
	}
	return o.datums
}

// NewLabel builds a label operand, global (a mangled symbol) or local
// (a `.L%zu`-style block/rodata reference).
func NewLabel(name string) Operand {
	return Operand{kind: OLabel, label: name}
}

func (o Operand) Label() string {
	if o.kind != OLabel {
		panic("ICE: Label() on a non-Label operand")
	}
	return o.label
}

// NewOffset builds an integer-offset operand, kept distinct from a
// Constant so call sites (e.g. stack-slot addressing) read clearly.
func NewOffset(i int64) Operand {
	return Operand{kind: OOffset, offset: i}
}

func (o Operand) Offset() int64 {
	if o.kind != OOffset {
		panic("ICE: Offset() on a non-Offset operand")
	}
	return o.offset
}

func (o Operand) String() string {
	switch o.kind {
	case OTemp:
		return fmt.Sprintf("t%d<%s,%d>", o.tempID, o.hint, o.size)
	case OReg:
		return fmt.Sprintf("r%d<%d>", o.regID, o.size)
	case OConstant:
		return fmt.Sprintf("const[%d datums]", len(o.datums))
	case OLabel:
		return o.label
	case OOffset:
		return fmt.Sprintf("%+d", o.offset)
	default:
		return "<?>"
	}
}

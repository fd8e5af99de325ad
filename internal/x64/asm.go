package x64

import "fmt"

// Kind governs how the register allocator's CFG builder and the
// emitter treat an instruction.
type Kind int

const (
	KRegular Kind = iota
	KMove
	KJump
	KCJump
	KJumptable
	KLeave
	KLabel
)

// ArgKind tags the variant an Arg holds.
type ArgKind int

const (
	AUnused      ArgKind = iota
	ATemp                // virtual register, pre-allocation
	APhys                // physical register, post-allocation or ABI-forced
	AImm                 // immediate integer
	AGlobal              // a global or local label referenced as an address/target
	AMem                 // rbp-relative memory operand (spill slot, stack argument, frame slot)
	AIndexed             // [physReg+offset], base already a forced/fixed physical register
	ATempIndexed         // [vreg+offset], base is a virtual temp the allocator still has to color
	ARodata              // [rel label], a rip-relative load from a materialized constant pool
)

// Arg is one abstract-assembly operand: a temp/register to be resolved
// to a concrete NASM operand string at emission time.
type Arg struct {
	Kind ArgKind

	ID   int    // ATemp: temp id. APhys: register number (Reg or xmm index, see FP)
	FP   bool   // APhys, ATemp: true if this is (or will be) an xmm register
	Size uint64 // ATemp, APhys, AMem: operand width in bytes

	Imm int64 // AImm: literal value. AMem: rbp-relative byte offset

	Label string // AGlobal: symbol or local label name
}

func Temp(id int, size uint64, fp bool) Arg { return Arg{Kind: ATemp, ID: id, Size: size, FP: fp} }
func PhysGP(r Reg, size uint64) Arg         { return Arg{Kind: APhys, ID: int(r), Size: size} }
func PhysXMM(id int, size uint64) Arg       { return Arg{Kind: APhys, ID: id, Size: size, FP: true} }
func Imm(v int64) Arg                       { return Arg{Kind: AImm, Imm: v} }
func Global(name string) Arg                { return Arg{Kind: AGlobal, Label: name} }
func Mem(offset int64, size uint64) Arg     { return Arg{Kind: AMem, Imm: offset, Size: size} }
func Rodata(label string, size uint64) Arg  { return Arg{Kind: ARodata, Label: label, Size: size} }

// Indexed builds a [baseReg+offset] memory operand over a physical GP
// base register, used by the entry-sequence byte copies in select.go.
func Indexed(base Reg, offset int64, size uint64) Arg {
	return Arg{Kind: AIndexed, ID: int(base), Imm: offset, Size: size}
}

// TempIndexed builds a [vreg+offset] memory operand over a virtual
// temp acting as a pointer (OpMemLoad/OpMemStore/OpOffsetLoad/
// OpOffsetStore's base operand). The register allocator colors
// tempID like any other use and rewrites ID to the assigned physical
// register, flipping Kind to AIndexed in place.
func TempIndexed(tempID int, offset int64, size uint64) Arg {
	return Arg{Kind: ATempIndexed, ID: tempID, Imm: offset, Size: size}
}

func (a Arg) String() string {
	switch a.Kind {
	case ATemp:
		return fmt.Sprintf("t%d", a.ID)
	case APhys:
		if a.FP {
			return XMMName(a.ID)
		}
		return GPName(Reg(a.ID), a.Size)
	case AImm:
		return fmt.Sprintf("%d", a.Imm)
	case AGlobal:
		return a.Label
	case AMem:
		return fmt.Sprintf("[rbp%+d]", a.Imm)
	case AIndexed:
		return fmt.Sprintf("[%s%+d]", GPName(Reg(a.ID), 8), a.Imm)
	case ATempIndexed:
		return fmt.Sprintf("[t%d%+d]", a.ID, a.Imm)
	case ARodata:
		return fmt.Sprintf("[rel %s]", a.Label)
	default:
		return "<?>"
	}
}

// Instr is one abstract assembly instruction: a kind, a mnemonic (the
// emitter's skeleton template key), its operand list, and def/use index
// sets the register allocator consumes for liveness.
//
// ThreeOp/UnaryOp mark the 3-arg `d = a op b` / 2-arg `d = op a` forms
// the arity reducer still needs to fold to 2-operand x86 shape;
// every other instruction already carries its final Defs/Uses.
type Instr struct {
	Kind     Kind
	Mnemonic string
	Args     []Arg
	Defs     []int
	Uses     []int

	ThreeOp     bool
	UnaryOp     bool
	Commutative bool

	Target  string   // KJump, KCJump
	Targets []string // KJumptable
}

// Func is one selected-and-not-yet-allocated function body: its
// mangled name and linear abstract-assembly instruction stream.
type Func struct {
	Name        string
	Instrs      []Instr
	FrameSize   uint64 // bytes of locals below rbp; the selector seeds it from MEM-temp slots, the allocator grows it for spills
	OutArgBytes uint64 // bytes of outgoing stack-argument area at the frame bottom
	CalleeSave  []Reg  // filled in by the register allocator
	Params      int
}

// Program is a fully selected translation unit: data fragments carried
// over unchanged from internal/ir, plus one Func per text fragment and
// any fresh rodata fragments the selector materialized (SSE immediate
// pools, jumptables already present in the IR).
type Program struct {
	Data  []*DataFrag
	Funcs []*Func
}

// DataFrag mirrors ir.Frag's bss/rodata/data shape; kept as a distinct
// type in x64 so the emitter doesn't need to re-import internal/ir's
// block-list machinery for something that never has one.
type DataFrag struct {
	Kind      DataKind
	Name      string
	Local     bool
	Alignment uint64
	Datums    []Datum
}

type DataKind int

const (
	DataBss DataKind = iota
	DataRoData
	DataData
)

// Datum mirrors ir.Datum's variant, flattened to what the emitter needs
// to print a directive.
type Datum struct {
	Kind    DatumKind
	U8      uint8
	U16     uint16
	U32     uint32
	U64     uint64
	Padding uint64
	Bytes   []byte
	Runes   []uint32
	Local   string // resolved local label name
	Global  string
}

type DatumKind int

const (
	DByte DatumKind = iota
	DShort
	DInt
	DLong
	DPadding
	DString
	DWString
	DLocal
	DGlobalRef
)

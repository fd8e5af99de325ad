package x64

import (
	"fmt"
	"io"
)

// Emit linearizes prog to NASM-style text on w: per-fragment
// section directives, global/size annotations, Intel-syntax
// instructions, and the non-executable-stack note at file end. Output
// is byte-deterministic for a fixed prog.
func Emit(w io.Writer, prog *Program) error {
	e := &emitter{w: w}
	for _, f := range prog.Data {
		e.dataFrag(f)
	}
	for _, fn := range prog.Funcs {
		e.textFrag(fn)
	}
	e.printf("section .note.GNU-stack noalloc noexec nowrite progbits\n")
	return e.err
}

type emitter struct {
	w   io.Writer
	err error
}

func (e *emitter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

// === Data fragments ===

func (e *emitter) dataFrag(f *DataFrag) {
	section := map[DataKind]string{DataBss: ".bss", DataRoData: ".rodata", DataData: ".data"}[f.Kind]
	align := f.Alignment
	if align == 0 {
		align = 1
	}
	e.printf("section %s align=%d\n", section, align)
	if !f.Local {
		e.printf("global %s:data (%s.end - %s)\n", f.Name, f.Name, f.Name)
	}
	e.printf("%s:\n", f.Name)
	for _, d := range f.Datums {
		e.datum(f.Kind, d)
	}
	if !f.Local {
		e.printf("%s.end:\n", f.Name)
	}
	e.printf("\n")
}

func (e *emitter) datum(kind DataKind, d Datum) {
	switch d.Kind {
	case DByte:
		e.printf("\tdb %d\n", d.U8)
	case DShort:
		e.printf("\tdw %d\n", d.U16)
	case DInt:
		e.printf("\tdd %d\n", d.U32)
	case DLong:
		e.printf("\tdq %d\n", d.U64)
	case DPadding:
		if kind == DataBss {
			e.printf("\tresb %d\n", d.Padding)
		} else {
			e.printf("\ttimes %d db 0\n", d.Padding)
		}
	case DString:
		e.printf("\tdb ")
		for i, b := range d.Bytes {
			if i > 0 {
				e.printf(", ")
			}
			e.printf("%d", b)
		}
		e.printf("\n")
	case DWString:
		e.printf("\tdd ")
		for i, r := range d.Runes {
			if i > 0 {
				e.printf(", ")
			}
			e.printf("%d", r)
		}
		e.printf("\n")
	case DLocal:
		e.printf("\tdq %s\n", d.Local)
	case DGlobalRef:
		e.printf("\tdq %s\n", d.Global)
	default:
		panic("ICE: unhandled datum kind in x64 emission")
	}
}

// === Text fragments ===

func (e *emitter) textFrag(fn *Func) {
	e.printf("section .text\n")
	e.printf("global %s:function (%s.end - %s)\n", fn.Name, fn.Name, fn.Name)
	e.printf("%s:\n", fn.Name)
	for _, ins := range fn.Instrs {
		e.instr(ins)
	}
	e.printf("%s.end:\n\n", fn.Name)
}

// visibleArgs caps how many operands a mnemonic prints: the div family
// names only its divisor, and the extend/ret group prints none (their
// remaining Args exist purely for the allocator's def/use tracking).
var visibleArgs = map[string]int{
	"idiv": 1, "div": 1,
	"cqo": 0, "cdq": 0, "ret": 0,
}

func (e *emitter) instr(ins Instr) {
	switch ins.Kind {
	case KLabel:
		e.printf("%s:\n", ins.Target)
		return
	case KJump:
		e.printf("\tjmp %s\n", ins.Target)
		return
	case KCJump:
		e.printf("\t%s %s\n", ins.Mnemonic, ins.Target)
		return
	case KJumptable:
		e.printf("\tjmp qword [%s + %s*8]\n", ins.Target, gpAt(ins.Args[0], 8))
		return
	case KLeave:
		e.printf("\tret\n")
		return
	}

	if ins.Mnemonic == "call" {
		if ins.Target != "" {
			e.printf("\tcall %s\n", ins.Target)
		} else {
			e.printf("\tcall %s\n", gpAt(ins.Args[0], 8))
		}
		return
	}

	mn := ins.Mnemonic
	args := ins.Args
	if n, ok := visibleArgs[mn]; ok {
		args = args[:n]
	}
	if mn == "movabs" {
		mn = "mov" // NASM spells 64-bit immediate moves as plain mov
	}
	if mn == "mov" && anyFP(args) {
		if fpSize(args) == 4 {
			mn = "movss"
		} else {
			mn = "movsd"
		}
	}

	e.printf("\t%s", mn)
	for i, a := range args {
		if i == 0 {
			e.printf(" ")
		} else {
			e.printf(", ")
		}
		if mn == "lea" && i == 1 {
			// An effective address, not a sized memory access.
			e.printf("%s", stripSizeKeyword(a))
			continue
		}
		e.printf("%s", operandText(a))
	}
	e.printf("\n")
}

func anyFP(args []Arg) bool {
	for _, a := range args {
		if a.FP {
			return true
		}
	}
	return false
}

func fpSize(args []Arg) uint64 {
	for _, a := range args {
		if a.FP && a.Size != 0 {
			return a.Size
		}
	}
	return 8
}

// gpAt prints a GP physical register at the given width regardless of
// the arg's recorded size.
func gpAt(a Arg, size uint64) string {
	return GPName(Reg(a.ID), size)
}

func sizeKeyword(size uint64) string {
	switch size {
	case 1:
		return "byte"
	case 2:
		return "word"
	case 4:
		return "dword"
	case 8:
		return "qword"
	case 16:
		return "oword"
	default:
		return "qword"
	}
}

// stripSizeKeyword renders a memory operand bare, for lea.
func stripSizeKeyword(a Arg) string {
	switch a.Kind {
	case AMem:
		return fmt.Sprintf("[rbp%+d]", a.Imm)
	case AIndexed:
		if a.Imm == 0 {
			return fmt.Sprintf("[%s]", GPName(Reg(a.ID), 8))
		}
		return fmt.Sprintf("[%s%+d]", GPName(Reg(a.ID), 8), a.Imm)
	default:
		return operandText(a)
	}
}

// operandText renders one operand in NASM syntax; memory operands
// carry an explicit size keyword so immediate stores stay unambiguous.
func operandText(a Arg) string {
	switch a.Kind {
	case APhys:
		if a.FP {
			return XMMName(a.ID)
		}
		size := a.Size
		if size == 0 {
			size = 8
		}
		return GPName(Reg(a.ID), size)
	case AImm:
		return fmt.Sprintf("%d", a.Imm)
	case AGlobal:
		return a.Label
	case AMem:
		return fmt.Sprintf("%s [rbp%+d]", sizeKeyword(a.Size), a.Imm)
	case AIndexed:
		if a.Imm == 0 {
			return fmt.Sprintf("%s [%s]", sizeKeyword(a.Size), GPName(Reg(a.ID), 8))
		}
		return fmt.Sprintf("%s [%s%+d]", sizeKeyword(a.Size), GPName(Reg(a.ID), 8), a.Imm)
	case ARodata:
		return fmt.Sprintf("%s [rel %s]", sizeKeyword(a.Size), a.Label)
	default:
		panic(fmt.Sprintf("ICE: unresolved operand %s reached emission", a))
	}
}

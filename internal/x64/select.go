package x64

import (
	"fmt"

	"github.com/tcompiler-project/backend/internal/ir"
)

// Select runs instruction selection over file's already
// trace-scheduled and linear-dead-label-cleaned text fragments,
// producing one x64.Func per fragment plus any fresh rodata the
// selector needed to materialize (SSE immediate pools). Data
// fragments are carried over verbatim.
func Select(file *ir.File) (*Program, error) {
	prog := &Program{}
	localCounter := nextLCIndex(file)
	for _, f := range file.Frags {
		switch f.Kind {
		case ir.FragBss, ir.FragRoData, ir.FragData:
			prog.Data = append(prog.Data, convertData(f))
		case ir.FragText:
			s := &selector{file: file, frag: f, localCounter: &localCounter}
			fn, err := s.run()
			if err != nil {
				return nil, err
			}
			prog.Funcs = append(prog.Funcs, fn)
			prog.Data = append(prog.Data, s.extraRodata...)
		}
	}
	return prog, nil
}

// nextLCIndex scans the translator's `.LC%zu` string/jumptable pool
// names so the selector's fresh pools continue the sequence instead of
// colliding with them.
func nextLCIndex(file *ir.File) int {
	next := 0
	for _, f := range file.Frags {
		var n int
		if _, err := fmt.Sscanf(f.Name, ".LC%d", &n); err == nil && n+1 > next {
			next = n + 1
		}
	}
	return next
}

func convertData(f *ir.Frag) *DataFrag {
	var kind DataKind
	switch f.Kind {
	case ir.FragBss:
		kind = DataBss
	case ir.FragRoData:
		kind = DataRoData
	default:
		kind = DataData
	}
	datums := make([]Datum, len(f.Datums))
	for i, d := range f.Datums {
		datums[i] = convertDatum(d)
	}
	return &DataFrag{Kind: kind, Name: f.Name, Local: f.Local, Alignment: f.Alignment, Datums: datums}
}

func convertDatum(d ir.Datum) Datum {
	switch d.Kind() {
	case ir.DByte:
		return Datum{Kind: DByte, U8: d.Byte()}
	case ir.DShort:
		return Datum{Kind: DShort, U16: d.Short()}
	case ir.DInt:
		return Datum{Kind: DInt, U32: d.Int()}
	case ir.DLong:
		return Datum{Kind: DLong, U64: d.Long()}
	case ir.DPadding:
		return Datum{Kind: DPadding, Padding: d.PaddingBytes()}
	case ir.DString:
		return Datum{Kind: DString, Bytes: d.StringBytes()}
	case ir.DWString:
		return Datum{Kind: DWString, Runes: d.WStringRunes()}
	case ir.DLocal:
		return Datum{Kind: DLocal, Local: localLabelName(d.LocalID())}
	case ir.DGlobal:
		return Datum{Kind: DGlobalRef, Global: d.GlobalName()}
	default:
		panic("ICE: unhandled datum kind in x64.convertDatum")
	}
}

func localLabelName(id int) string { return "L" + itoa(id) }

// selector holds one text fragment's selection state: the frame offsets
// it assigns to MEM-hint temps (distinct from the register allocator's
// later spill area), the outgoing-argument slot high-water
// mark, and any SSE immediate pools it materializes as fresh rodata.
type selector struct {
	file *ir.File
	frag *ir.Frag

	frameUsed    uint64
	frameOffsets map[int]int64
	maxOutSlots  int64

	localCounter *int
	extraRodata  []*DataFrag
}

func (s *selector) run() (*Func, error) {
	s.frameOffsets = map[int]int64{}
	fn := &Func{Name: s.frag.Name}

	s.entrySequence(fn)

	b := s.frag.Blocks.Head()
	if b == nil {
		return nil, fmt.Errorf("x64: text fragment %q has no linearized block (did schedule.Trace run?)", s.frag.Name)
	}
	for _, in := range b.Instructions {
		if err := s.selectOne(fn, in); err != nil {
			return nil, fmt.Errorf("x64: %s: %w", s.frag.Name, err)
		}
	}

	fn.Params = len(s.frag.ArgTemps)
	fn.FrameSize = s.frameUsed
	fn.OutArgBytes = uint64(s.maxOutSlots) * 8
	return fn, nil
}

// frameSlot returns (allocating on first use) the rbp-relative byte
// offset reserved for a MEM-hint temp.
func (s *selector) frameSlot(temp ir.Operand) int64 {
	if off, ok := s.frameOffsets[temp.TempID()]; ok {
		return off
	}
	align := temp.Alignment()
	if align == 0 {
		align = 1
	}
	s.frameUsed += temp.Size()
	if rem := s.frameUsed % align; rem != 0 {
		s.frameUsed += align - rem
	}
	off := -int64(s.frameUsed)
	s.frameOffsets[temp.TempID()] = off
	return off
}

// entrySequence lowers the ABI entry from the placement
// the translator recorded on the fragment: each parameter temp is
// bound to the argument register(s) or incoming stack slot its
// eightbyte classification assigned, so callee and caller never
// re-classify and disagree. By-reference aggregates arrive as a
// pointer and are copied by value into the parameter's frame slot.
func (s *selector) entrySequence(fn *Func) {
	if s.frag.RetHiddenPtr {
		dst := Temp(s.frag.HiddenPtrTemp.TempID(), 8, false)
		fn.Instrs = append(fn.Instrs, moveInstr(dst, PhysGP(RDI, 8)))
	}

	for i, argTemp := range s.frag.ArgTemps {
		intRegs := argAt(s.frag.ArgIntRegs, i)
		sseRegs := argAt(s.frag.ArgSSERegs, i)
		var stackOff int64
		if i < len(s.frag.ArgStackOff) {
			stackOff = s.frag.ArgStackOff[i]
		}

		if i < len(s.frag.ArgByRef) && s.frag.ArgByRef[i] {
			ptr := s.incomingArg(intRegs, nil, stackOff, false)
			off := s.frameSlot(argTemp)
			fn.Instrs = append(fn.Instrs, s.copyIn(ptr, off, argTemp.Size())...)
			continue
		}

		switch argTemp.Hint() {
		case ir.HintGP:
			src := s.incomingArg(intRegs, nil, stackOff, false)
			src.Size = argTemp.Size()
			dst := Temp(argTemp.TempID(), argTemp.Size(), false)
			fn.Instrs = append(fn.Instrs, moveInstr(dst, src))
		case ir.HintFP:
			src := s.incomingArg(nil, sseRegs, stackOff, true)
			src.Size = argTemp.Size()
			dst := Temp(argTemp.TempID(), argTemp.Size(), true)
			fn.Instrs = append(fn.Instrs, moveInstr(dst, src))
		case ir.HintMem:
			var ebSSE []bool
			if i < len(s.frag.ArgEBSSE) {
				ebSSE = s.frag.ArgEBSSE[i]
			}
			s.spillAggregateParam(fn, argTemp, intRegs, sseRegs, ebSSE, stackOff)
		}
	}
}

func argAt(regs [][]int, i int) []int {
	if i < len(regs) {
		return regs[i]
	}
	return nil
}

// incomingArg resolves a scalar parameter's source: its single
// argument register, or its caller-pushed stack slot at
// 16(%rbp), 24(%rbp), ....
func (s *selector) incomingArg(intRegs, sseRegs []int, stackOff int64, fp bool) Arg {
	if len(intRegs) > 0 {
		return PhysGP(GPArgReg(intRegs[0]), 8)
	}
	if len(sseRegs) > 0 {
		return PhysXMM(SSEArgReg(sseRegs[0]), 8)
	}
	a := Mem(stackOff, 8)
	a.FP = fp
	return a
}

// spillAggregateParam stores a register-classified small aggregate's
// eightbytes from their argument registers into the parameter's frame
// slot; a fully stack-passed aggregate is copied from its incoming
// slot instead.
func (s *selector) spillAggregateParam(fn *Func, argTemp ir.Operand, intRegs, sseRegs []int, ebSSE []bool, stackOff int64) {
	off := s.frameSlot(argTemp)
	if len(intRegs) == 0 && len(sseRegs) == 0 {
		// Stack-passed by value: copy out of the caller's frame.
		scratch := PhysGP(R10, 8)
		size := argTemp.Size()
		var i uint64
		for ; i+8 <= size; i += 8 {
			fn.Instrs = append(fn.Instrs,
				Instr{Kind: KRegular, Mnemonic: "mov", Args: []Arg{scratch, Mem(stackOff+int64(i), 8)}, Defs: []int{0}, Uses: []int{1}},
				Instr{Kind: KRegular, Mnemonic: "mov", Args: []Arg{Mem(off+int64(i), 8), scratch}, Uses: []int{1}})
		}
		for ; i < size; i++ {
			sb := Arg{Kind: APhys, ID: int(R10), Size: 1}
			fn.Instrs = append(fn.Instrs,
				Instr{Kind: KRegular, Mnemonic: "mov", Args: []Arg{sb, Mem(stackOff+int64(i), 1)}, Defs: []int{0}, Uses: []int{1}},
				Instr{Kind: KRegular, Mnemonic: "mov", Args: []Arg{Mem(off+int64(i), 1), sb}, Uses: []int{1}})
		}
		return
	}
	// Replay the recorded per-eightbyte classes against ascending
	// offsets, consuming each bank's register list in order.
	intIdx, sseIdx := 0, 0
	for chunk, isSSE := range ebSSE {
		dst := Mem(off+int64(chunk)*8, 8)
		if isSSE {
			if sseIdx >= len(sseRegs) {
				return
			}
			src := PhysXMM(SSEArgReg(sseRegs[sseIdx]), 8)
			sseIdx++
			fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: "mov", Args: []Arg{dst, src}, Uses: []int{1}})
			continue
		}
		if intIdx >= len(intRegs) {
			return
		}
		src := PhysGP(GPArgReg(intRegs[intIdx]), 8)
		intIdx++
		fn.Instrs = append(fn.Instrs, Instr{Kind: KRegular, Mnemonic: "mov", Args: []Arg{dst, src}, Uses: []int{1}})
	}
}

// copyIn emits the instruction sequence that copies n bytes from the
// address in ptr (an incoming pointer register/stack slot) to the
// frame slot at rbp+off, 8 bytes at a time with a byte-wise remainder.
func (s *selector) copyIn(ptr Arg, off int64, n uint64) []Instr {
	var out []Instr
	ptrReg := R11
	out = append(out, regularInstr("mov", PhysGP(ptrReg, 8), ptr, nil))
	scratch := PhysGP(R10, 8)
	var i uint64
	for ; i+8 <= n; i += 8 {
		out = append(out, Instr{Kind: KRegular, Mnemonic: "mov", Args: []Arg{scratch, Indexed(ptrReg, int64(i), 8)}, Defs: []int{0}, Uses: []int{1}})
		out = append(out, Instr{Kind: KRegular, Mnemonic: "mov", Args: []Arg{Mem(off+int64(i), 8), scratch}, Defs: nil, Uses: []int{1}})
	}
	for ; i < n; i++ {
		sb := Arg{Kind: APhys, ID: int(R10), Size: 1}
		out = append(out, Instr{Kind: KRegular, Mnemonic: "mov", Args: []Arg{sb, Indexed(ptrReg, int64(i), 1)}, Defs: []int{0}, Uses: []int{1}})
		out = append(out, Instr{Kind: KRegular, Mnemonic: "mov", Args: []Arg{Mem(off+int64(i), 1), sb}, Defs: nil, Uses: []int{1}})
	}
	return out
}

func moveInstr(dst, src Arg) Instr {
	return Instr{Kind: KMove, Mnemonic: "mov", Args: []Arg{dst, src}, Defs: []int{0}, Uses: usesOf(src, 1)}
}

func regularInstr(mnemonic string, dst, src Arg, extra []Arg) Instr {
	args := append([]Arg{dst, src}, extra...)
	return Instr{Kind: KRegular, Mnemonic: mnemonic, Args: args, Defs: []int{0}, Uses: usesOf(src, 1)}
}

func usesOf(a Arg, idx int) []int {
	if a.Kind == APhys || a.Kind == ATemp || a.Kind == AMem {
		return []int{idx}
	}
	return nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

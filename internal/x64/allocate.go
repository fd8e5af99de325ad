package x64

import (
	"fmt"

	"github.com/samber/lo"
)

// Allocate runs graph-coloring register allocation over every function
// of prog: liveness over the instruction CFG, interference
// edges against live temps and clobbered physical registers, coloring
// from the per-bank preference order, spill-rewrite-restart for
// uncolorable temps, callee-save bookkeeping, and prologue/epilogue
// emission.
func Allocate(prog *Program) error {
	for _, fn := range prog.Funcs {
		if err := allocateFunc(fn); err != nil {
			return err
		}
	}
	return nil
}

// maxSpillRounds bounds the spill-restart loop; every round removes
// one temp from contention, so a function that has not converged by
// then has more simultaneously-live values than stack slots we are
// willing to believe in.
const maxSpillRounds = 64

func allocateFunc(fn *Func) error {
	for round := 0; round < maxSpillRounds; round++ {
		a := &allocator{fn: fn}
		spilled, err := a.run()
		if err != nil {
			return err
		}
		if !spilled {
			return nil
		}
	}
	return fmt.Errorf("x64: register allocation did not converge for %s", fn.Name)
}

type tempInfo struct {
	fp    bool
	size  uint64
	first int // instruction index of first appearance, for coloring order
}

type allocator struct {
	fn     *Func
	instrs []Instr

	temps map[int]*tempInfo
	order []int // temp ids in first-appearance order

	succ    [][]int
	liveOut []map[int]bool
	adj     map[int]map[int]bool
	forbid  map[int]map[int]bool // temp -> phys ids it may not take (bank-local)
	color   map[int]int
	toSave  []Reg
	maxTemp int
}

// run performs one coloring attempt. It reports spilled=true after
// rewriting one temp (colorAll's spill victim) to a stack slot, in which case the
// caller restarts with the rewritten instruction list.
func (a *allocator) run() (bool, error) {
	a.instrs = a.fn.Instrs
	a.collectTemps()
	a.deleteDeadDefs()
	a.buildCFG()
	a.liveness()
	a.interference()

	if spillTemp, ok := a.colorAll(); !ok {
		a.spill(spillTemp)
		return true, nil
	}

	a.substitute()
	a.emitPrologueEpilogue()
	return false, nil
}

func (a *allocator) collectTemps() {
	a.temps = map[int]*tempInfo{}
	a.order = nil
	for i, ins := range a.instrs {
		for _, arg := range ins.Args {
			switch arg.Kind {
			case ATemp:
				a.noteTemp(arg.ID, arg.FP, arg.Size, i)
			case ATempIndexed:
				a.noteTemp(arg.ID, false, 8, i)
			}
		}
	}
}

func (a *allocator) noteTemp(id int, fp bool, size uint64, at int) {
	if id > a.maxTemp {
		a.maxTemp = id
	}
	if t, ok := a.temps[id]; ok {
		if size > t.size {
			t.size = size
		}
		return
	}
	a.temps[id] = &tempInfo{fp: fp, size: size, first: at}
	a.order = append(a.order, id)
}

// deleteDeadDefs drops instructions whose only effect is defining a
// temp nothing reads, repeating until no deletion
// exposes another dead def.
func (a *allocator) deleteDeadDefs() {
	for {
		used := map[int]bool{}
		for _, ins := range a.instrs {
			for _, ui := range ins.Uses {
				arg := ins.Args[ui]
				if arg.Kind == ATemp || arg.Kind == ATempIndexed {
					used[arg.ID] = true
				}
			}
			for _, di := range ins.Defs {
				if ins.Args[di].Kind == ATempIndexed {
					used[ins.Args[di].ID] = true
				}
			}
		}
		changed := false
		kept := a.instrs[:0]
		for _, ins := range a.instrs {
			if len(ins.Defs) > 0 && ins.Kind != KJumptable {
				dead := true
				for _, di := range ins.Defs {
					arg := ins.Args[di]
					if arg.Kind != ATemp || used[arg.ID] {
						dead = false
						break
					}
				}
				if dead {
					changed = true
					continue
				}
			}
			kept = append(kept, ins)
		}
		a.instrs = kept
		if !changed {
			break
		}
	}
	a.fn.Instrs = a.instrs
	a.collectTemps()
}

// buildCFG links each instruction to its successors.
func (a *allocator) buildCFG() {
	labelIdx := map[string]int{}
	for i, ins := range a.instrs {
		if ins.Kind == KLabel {
			labelIdx[ins.Target] = i
		}
	}
	a.succ = make([][]int, len(a.instrs))
	for i, ins := range a.instrs {
		switch ins.Kind {
		case KJump:
			if t, ok := labelIdx[ins.Target]; ok {
				a.succ[i] = []int{t}
			}
		case KCJump:
			next := []int{}
			if i+1 < len(a.instrs) {
				next = append(next, i+1)
			}
			if t, ok := labelIdx[ins.Target]; ok {
				next = append(next, t)
			}
			a.succ[i] = next
		case KJumptable:
			var next []int
			for _, t := range ins.Targets {
				if ti, ok := labelIdx[t]; ok {
					next = append(next, ti)
				}
			}
			a.succ[i] = next
		case KLeave:
			// no successor
		default:
			if i+1 < len(a.instrs) {
				a.succ[i] = []int{i + 1}
			}
		}
	}
}

// liveness computes live-out temp sets by backward iteration to a
// fixpoint.
func (a *allocator) liveness() {
	n := len(a.instrs)
	use := make([]map[int]bool, n)
	def := make([]map[int]bool, n)
	for i, ins := range a.instrs {
		use[i] = map[int]bool{}
		def[i] = map[int]bool{}
		for _, ui := range ins.Uses {
			arg := ins.Args[ui]
			if arg.Kind == ATemp || arg.Kind == ATempIndexed {
				use[i][arg.ID] = true
			}
		}
		for _, di := range ins.Defs {
			arg := ins.Args[di]
			switch arg.Kind {
			case ATemp:
				def[i][arg.ID] = true
			case ATempIndexed:
				// A store through a temp pointer reads the pointer.
				use[i][arg.ID] = true
			}
		}
	}

	liveIn := make([]map[int]bool, n)
	a.liveOut = make([]map[int]bool, n)
	for i := range liveIn {
		liveIn[i] = map[int]bool{}
		a.liveOut[i] = map[int]bool{}
	}
	for changed := true; changed; {
		changed = false
		for i := n - 1; i >= 0; i-- {
			out := map[int]bool{}
			for _, s := range a.succ[i] {
				for t := range liveIn[s] {
					out[t] = true
				}
			}
			in := map[int]bool{}
			for t := range use[i] {
				in[t] = true
			}
			for t := range out {
				if !def[i][t] {
					in[t] = true
				}
			}
			if len(out) != len(a.liveOut[i]) || len(in) != len(liveIn[i]) {
				changed = true
			} else {
				for t := range in {
					if !liveIn[i][t] {
						changed = true
						break
					}
				}
			}
			a.liveOut[i] = out
			liveIn[i] = in
		}
	}
}

// interference builds temp-temp edges and temp-phys exclusions: a
// defined temp conflicts with everything live after the
// instruction, and every live temp conflicts with the physical
// registers the instruction clobbers. The source of a move is exempt
// from the edge so trivial moves can collapse to one register.
func (a *allocator) interference() {
	a.adj = map[int]map[int]bool{}
	a.forbid = map[int]map[int]bool{}
	edge := func(x, y int) {
		if x == y {
			return
		}
		if a.temps[x].fp != a.temps[y].fp {
			return
		}
		if a.adj[x] == nil {
			a.adj[x] = map[int]bool{}
		}
		if a.adj[y] == nil {
			a.adj[y] = map[int]bool{}
		}
		a.adj[x][y] = true
		a.adj[y][x] = true
	}

	for i, ins := range a.instrs {
		moveSrc := -1
		if ins.Kind == KMove && len(ins.Args) == 2 && ins.Args[1].Kind == ATemp {
			moveSrc = ins.Args[1].ID
		}
		for _, di := range ins.Defs {
			arg := ins.Args[di]
			switch arg.Kind {
			case ATemp:
				for t := range a.liveOut[i] {
					if t != moveSrc {
						edge(arg.ID, t)
					}
				}
			case APhys:
				for t := range a.liveOut[i] {
					if a.temps[t].fp != arg.FP {
						continue
					}
					if a.forbid[t] == nil {
						a.forbid[t] = map[int]bool{}
					}
					a.forbid[t][arg.ID] = true
				}
			}
		}
	}
}

// colorAll assigns a register to every temp in first-appearance order.
// When a temp finds no usable color it returns the spill victim
// instead: whichever of that temp and its neighbours is live out of
// the most instructions (the lowest id on a tie).
func (a *allocator) colorAll() (int, bool) {
	a.color = map[int]int{}
	a.toSave = nil
	saved := map[Reg]bool{}

	for _, id := range a.order {
		info := a.temps[id]
		prefs := ssePreference
		if !info.fp {
			prefs = lo.Map(gpPreference, func(r Reg, _ int) int { return int(r) })
		}
		chosen := -1
		for _, p := range prefs {
			if a.forbid[id][p] {
				continue
			}
			conflict := false
			for n := range a.adj[id] {
				if c, ok := a.color[n]; ok && c == p {
					conflict = true
					break
				}
			}
			if !conflict {
				chosen = p
				break
			}
		}
		if chosen < 0 {
			// A spill temp lives for one instruction; re-spilling it would not converge.
			victim, best := id, -1
			for _, c := range append(lo.Keys(a.adj[id]), id) {
				l := 0
				for _, out := range a.liveOut {
					if out[c] {
						l++
					}
				}
				if l > best || (l == best && c < victim) {
					victim, best = c, l
				}
			}
			return victim, false
		}
		a.color[id] = chosen
		if !info.fp && calleeSave(Reg(chosen)) && Reg(chosen) != RBP && !saved[Reg(chosen)] {
			saved[Reg(chosen)] = true
			a.toSave = append(a.toSave, Reg(chosen))
		}
	}
	return 0, true
}

// spill rewrites every access to id through a fresh stack slot: a
// load into a fresh temp before each use, a store from a
// fresh temp after each def.
func (a *allocator) spill(id int) {
	info := a.temps[id]
	a.fn.FrameSize += 8
	off := -int64(a.fn.FrameSize)
	slotSize := info.size

	next := a.maxTemp
	fresh := func() int {
		next++
		return next
	}

	var out []Instr
	for _, ins := range a.instrs {
		usesIt, defsIt := false, false
		for _, ui := range ins.Uses {
			if arg := ins.Args[ui]; (arg.Kind == ATemp || arg.Kind == ATempIndexed) && arg.ID == id {
				usesIt = true
			}
		}
		for _, di := range ins.Defs {
			arg := ins.Args[di]
			if arg.Kind == ATemp && arg.ID == id {
				defsIt = true
			}
			if arg.Kind == ATempIndexed && arg.ID == id {
				usesIt = true
			}
		}
		if !usesIt && !defsIt {
			out = append(out, ins)
			continue
		}

		repl := fresh()
		rewritten := ins
		rewritten.Args = append([]Arg(nil), ins.Args...)
		for ai := range rewritten.Args {
			arg := &rewritten.Args[ai]
			if (arg.Kind == ATemp || arg.Kind == ATempIndexed) && arg.ID == id {
				arg.ID = repl
			}
		}
		if usesIt {
			ld := []Arg{Temp(repl, slotSize, info.fp), Mem(off, slotSize)}
			out = append(out, Instr{Kind: KRegular, Mnemonic: "mov", Args: ld, Defs: []int{0}, Uses: []int{1}})
		}
		out = append(out, rewritten)
		if defsIt {
			st := []Arg{Mem(off, slotSize), Temp(repl, slotSize, info.fp)}
			out = append(out, Instr{Kind: KRegular, Mnemonic: "mov", Args: st, Uses: []int{1}})
		}
	}
	a.fn.Instrs = out
}

// substitute replaces every temp operand with its assigned register
// and drops moves that collapsed to a self-move.
func (a *allocator) substitute() {
	var out []Instr
	for _, ins := range a.instrs {
		for ai := range ins.Args {
			arg := &ins.Args[ai]
			switch arg.Kind {
			case ATemp:
				arg.Kind = APhys
				arg.ID = a.color[arg.ID]
			case ATempIndexed:
				arg.Kind = AIndexed
				arg.ID = a.color[arg.ID]
			}
		}
		if ins.Kind == KMove && len(ins.Args) == 2 && sameArg(ins.Args[0], ins.Args[1]) {
			continue
		}
		out = append(out, ins)
	}
	a.instrs = out
	a.fn.Instrs = out
	a.fn.CalleeSave = a.toSave
}

// emitPrologueEpilogue wraps the function body: the
// frame covers locals, spill slots, the outgoing-argument area and the
// callee-save pushes, rounded so rsp stays 16-aligned at call sites.
func (a *allocator) emitPrologueEpilogue() {
	fn := a.fn
	frame := alignUp16(fn.FrameSize + fn.OutArgBytes + 8*uint64(len(a.toSave)))
	sub := frame - 8*uint64(len(a.toSave))

	push := func(r Reg) Instr {
		return Instr{Kind: KRegular, Mnemonic: "push", Args: []Arg{PhysGP(r, 8)}, Uses: []int{0}}
	}
	pop := func(r Reg) Instr {
		return Instr{Kind: KRegular, Mnemonic: "pop", Args: []Arg{PhysGP(r, 8)}, Defs: []int{0}}
	}

	prologue := []Instr{
		push(RBP),
		{Kind: KRegular, Mnemonic: "mov", Args: []Arg{PhysGP(RBP, 8), PhysGP(RSP, 8)}},
	}
	for _, r := range a.toSave {
		prologue = append(prologue, push(r))
	}
	if sub > 0 {
		prologue = append(prologue, Instr{Kind: KRegular, Mnemonic: "sub", Args: []Arg{PhysGP(RSP, 8), Imm(int64(sub))}})
	}

	var epilogue []Instr
	if sub > 0 {
		epilogue = append(epilogue, Instr{Kind: KRegular, Mnemonic: "add", Args: []Arg{PhysGP(RSP, 8), Imm(int64(sub))}})
	}
	for i := len(a.toSave) - 1; i >= 0; i-- {
		epilogue = append(epilogue, pop(a.toSave[i]))
	}
	epilogue = append(epilogue, pop(RBP), Instr{Kind: KLeave, Mnemonic: "ret"})

	out := make([]Instr, 0, len(prologue)+len(a.instrs)+len(epilogue))
	out = append(out, prologue...)
	for _, ins := range a.instrs {
		if ins.Kind == KLeave {
			out = append(out, epilogue...)
			continue
		}
		out = append(out, ins)
	}
	fn.Instrs = out
}

func alignUp16(v uint64) uint64 {
	if v%16 == 0 {
		return v
	}
	return v + (16 - v%16)
}

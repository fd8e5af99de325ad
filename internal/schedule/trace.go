// Package schedule implements the trace scheduler: it
// linearizes a text fragment's block-structured CFG into a single
// straight-line instruction list, following unconditional jumps and
// the false-fallthrough-preferred arm of two-arg conditional jumps,
// and rewriting every two-arg conditional jump into the one-arg form
// with implicit fallthrough.
package schedule

import (
	"strconv"

	"github.com/tcompiler-project/backend/internal/ir"
)

// Trace linearizes every text fragment of file in place. After Trace
// runs, each text fragment's block list holds exactly one block: the
// full linearized instruction sequence, headed by a Label pseudo for
// every block it visited.
func Trace(file *ir.File) {
	for _, f := range file.Frags {
		if f.Kind != ir.FragText {
			continue
		}
		traceFrag(f)
	}
}

func traceFrag(f *ir.Frag) {
	if f.Blocks == nil || f.Blocks.Len() == 0 {
		return
	}
	orig := make(map[int]*ir.Block)
	var order []int
	f.Blocks.Each(func(b *ir.Block) {
		orig[b.Label] = b
		order = append(order, b.Label)
	})

	sch := &scheduler{blocks: orig, scheduled: map[int]bool{}}
	entryLabel := order[0]
	for _, id := range order {
		if id == 0 {
			entryLabel = id
			break
		}
	}
	sch.schedule(entryLabel)
	for _, id := range order {
		sch.schedule(id)
	}

	out := ir.NewBlockList()
	linear := ir.NewBlock(entryLabel)
	linear.Instructions = sch.out
	out.PushBack(linear)
	f.Blocks = out
}

type scheduler struct {
	blocks    map[int]*ir.Block
	scheduled map[int]bool
	out       []ir.Instruction
}

func localName(id int) string { return "L" + strconv.Itoa(id) }

// schedule emits block id's label, its non-terminator instructions,
// and a rewrite of its terminator, recursing into the preferred
// fallthrough successor.
func (s *scheduler) schedule(id int) {
	if s.scheduled[id] {
		return
	}
	b, ok := s.blocks[id]
	if !ok {
		return
	}
	s.scheduled[id] = true
	s.out = append(s.out, ir.NewInstruction(ir.OpLabel, ir.NewLabel(localName(id))))

	if len(b.Instructions) == 0 {
		return
	}
	body := b.Instructions[:len(b.Instructions)-1]
	term := b.Instructions[len(b.Instructions)-1]
	s.out = append(s.out, body...)

	switch {
	case term.Op == ir.OpJump:
		target := term.Operands[0].Label()
		targetID, ok := parseLocal(target)
		if !ok || s.scheduled[targetID] {
			s.out = append(s.out, term)
			return
		}
		// Dropped: falls through into the recursively scheduled target.
		s.schedule(targetID)

	case term.Op.IsTwoArgJump():
		s.scheduleTwoArgJump(term)

	default:
		// Return, Jumptable: emitted verbatim, no CFG successor to chase.
		s.out = append(s.out, term)
	}
}

func (s *scheduler) scheduleTwoArgJump(term ir.Instruction) {
	oneArg, ok := ir.OneArgForm(term.Op)
	if !ok {
		s.out = append(s.out, term)
		return
	}
	args := term.Args()

	// OpJ2Z/OpJ2NZ carry (trueLabel, falseLabel, scrutinee); every
	// other two-arg compare carries (trueLabel, falseLabel, lhs, rhs).
	if term.Op == ir.OpJ2Z || term.Op == ir.OpJ2NZ {
		trueLabel, falseLabel, scrutinee := args[0], args[1], args[2]
		s.out = append(s.out, ir.NewInstruction(oneArg, trueLabel, scrutinee))
		s.scheduleFalseThenTrue(trueLabel, falseLabel)
		return
	}

	trueLabel, falseLabel := args[0], args[1]
	rest := []ir.Operand{args[2], args[3]}
	oneArgOperands := append([]ir.Operand{trueLabel}, rest...)
	s.out = append(s.out, ir.NewInstruction(oneArg, oneArgOperands...))

	s.scheduleFalseThenTrue(trueLabel, falseLabel)
}

// scheduleFalseThenTrue schedules the false target immediately
// (preferred fallthrough), emitting an explicit Jump if it was
// already scheduled elsewhere, then schedules the true target.
func (s *scheduler) scheduleFalseThenTrue(trueLabel, falseLabel ir.Operand) {
	if falseID, ok := parseLocal(falseLabel.Label()); ok {
		if s.scheduled[falseID] {
			s.out = append(s.out, ir.NewInstruction(ir.OpJump, falseLabel))
		} else {
			s.schedule(falseID)
		}
	}
	if trueID, ok := parseLocal(trueLabel.Label()); ok {
		s.schedule(trueID)
	}
}

func parseLocal(label string) (int, bool) {
	if len(label) < 2 || label[0] != 'L' {
		return 0, false
	}
	n, err := strconv.Atoi(label[1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

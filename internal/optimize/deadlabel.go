package optimize

import "github.com/tcompiler-project/backend/internal/ir"

// Linear implements the single pass over the post-scheduling linear
// form: dead-label elimination. A Label pseudo-instruction is kept only
// if some jump-family instruction targets it, or some rodata Local
// datum in file references it; every other Label is dropped.
func Linear(file *ir.File) {
	for _, f := range file.Frags {
		if f.Kind != ir.FragText {
			continue
		}
		linearFrag(file, f)
	}
}

func linearFrag(file *ir.File, f *ir.Frag) {
	b := f.Blocks.Head()
	if b == nil {
		return
	}
	marked := map[int]bool{}
	for _, in := range b.Instructions {
		for _, label := range labelTargets(in) {
			if id, ok := blockIDFromLabel(label); ok {
				marked[id] = true
			}
		}
		if in.Op == ir.OpJumptable {
			roLabel := in.Operands[1].Label()
			if ro, ok := file.FindFrag(roLabel); ok {
				for _, d := range ro.Datums {
					if d.Kind() == ir.DLocal {
						marked[d.LocalID()] = true
					}
				}
			}
		}
	}
	filtered := make([]ir.Instruction, 0, len(b.Instructions))
	for _, in := range b.Instructions {
		if in.Op == ir.OpLabel {
			id, ok := blockIDFromLabel(in.Operands[0].Label())
			if ok && !marked[id] {
				continue
			}
		}
		filtered = append(filtered, in)
	}
	b.Instructions = filtered
}

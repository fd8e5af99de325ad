package optimize

import (
	"github.com/samber/lo"

	"github.com/tcompiler-project/backend/internal/ir"
)

// deadBlock implements dead-block elimination: mark every block
// reachable from the entry block (label 0) through unconditional
// targets, both arms of two-arg conditionals, and every entry of a
// jumptable's rodata fragment (rodata Local datums are live roots for
// any block they reference), then free everything else.
func deadBlock(file *ir.File, f *ir.Frag) bool {
	entry, ok := f.Blocks.Find(0)
	if !ok {
		return false
	}
	reachable := map[int]bool{}
	var walk func(b *ir.Block)
	walk = func(b *ir.Block) {
		if b == nil || reachable[b.Label] {
			return
		}
		reachable[b.Label] = true
		if len(b.Instructions) == 0 {
			return
		}
		last := b.Instructions[len(b.Instructions)-1]
		for _, label := range labelTargets(last) {
			if id, ok := blockIDFromLabel(label); ok {
				if nb, ok := f.Blocks.Find(id); ok {
					walk(nb)
				}
			}
		}
		if last.Op == ir.OpJumptable {
			roLabel := last.Operands[1].Label()
			if ro, ok := file.FindFrag(roLabel); ok {
				for _, d := range ro.Datums {
					if d.Kind() == ir.DLocal {
						if nb, ok := f.Blocks.Find(d.LocalID()); ok {
							walk(nb)
						}
					}
				}
			}
		}
	}
	walk(entry)

	var all []*ir.Block
	f.Blocks.Each(func(b *ir.Block) { all = append(all, b) })
	dead := lo.Filter(all, func(b *ir.Block, _ int) bool { return !reachable[b.Label] })
	for _, b := range dead {
		f.Blocks.Remove(b)
	}
	return len(dead) > 0
}

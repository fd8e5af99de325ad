package optimize

import "github.com/tcompiler-project/backend/internal/ir"

// shortCircuit implements the short-circuit-jumps pass: every block
// that ends in an unconditional Jump(L) where L names a "shortcut"
// block (one consisting of a single jump-family instruction) has its
// terminator replaced by a copy of that shortcut's instruction. Chains
// of shortcuts are resolved transitively in one call, guarding against
// a cycle of shortcut blocks by capping the walk at the frag's block
// count.
func shortCircuit(f *ir.Frag) bool {
	changed := false
	max := f.Blocks.Len()
	f.Blocks.Each(func(b *ir.Block) {
		n := len(b.Instructions)
		if n == 0 {
			return
		}
		last := b.Instructions[n-1]
		if last.Op != ir.OpJump {
			return
		}
		target := last.Operands[0].Label()
		resolved, ok := resolveShortcut(f, target, max)
		if !ok || resolved.String() == last.String() {
			return
		}
		b.Instructions[n-1] = resolved
		changed = true
	})
	return changed
}

// resolveShortcut follows a chain of shortcut blocks starting at the
// block named by targetLabel (a local label, e.g. "L3" — see
// internal/ir's Local-label convention) and returns the terminal
// instruction to splice in, if the chain bottoms out in a real
// shortcut within hops steps.
func resolveShortcut(f *ir.Frag, targetLabel string, hops int) (ir.Instruction, bool) {
	id, ok := blockIDFromLabel(targetLabel)
	if !ok {
		return ir.Instruction{}, false
	}
	var last ir.Instruction
	found := false
	seen := map[int]bool{}
	for i := 0; i < hops; i++ {
		if seen[id] {
			break
		}
		seen[id] = true
		blk, ok := f.Blocks.Find(id)
		if !ok || !isShortcutBlock(blk) {
			break
		}
		last = blk.Instructions[0]
		found = true
		if last.Op != ir.OpJump {
			break
		}
		nextID, ok := blockIDFromLabel(last.Operands[0].Label())
		if !ok {
			break
		}
		id = nextID
	}
	return last, found
}

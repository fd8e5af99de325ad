package x64

// Reduce folds the 3-operand `d = a op b` and 2-operand `d = op a`
// forms the selector left marked (ThreeOp/UnaryOp) into the 2-operand
// x86 shapes, one pass per function:
//
//	commutative:     d==a -> op d,b | d==b -> op d,a | else mov d,a; op d,b
//	non-commutative: d==a -> op d,b | else mov d,a; op d,b
//	unary:           d==a -> op d   | else mov d,a; op d
func Reduce(prog *Program) {
	for _, fn := range prog.Funcs {
		fn.Instrs = reduceFunc(fn.Instrs)
	}
}

func reduceFunc(in []Instr) []Instr {
	out := make([]Instr, 0, len(in))
	for _, ins := range in {
		switch {
		case ins.ThreeOp:
			out = append(out, reduceThreeOp(ins)...)
		case ins.UnaryOp:
			out = append(out, reduceUnary(ins)...)
		default:
			out = append(out, ins)
		}
	}
	return out
}

func sameArg(a, b Arg) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ATemp, APhys:
		return a.ID == b.ID && a.FP == b.FP
	default:
		return false
	}
}

func reduceThreeOp(ins Instr) []Instr {
	d, a, b := ins.Args[0], ins.Args[1], ins.Args[2]
	two := func(src Arg) Instr {
		args := []Arg{d, src}
		return Instr{Kind: KRegular, Mnemonic: ins.Mnemonic, Args: args, Defs: defsIn(args), Uses: usesIn(args, 0, 1)}
	}
	switch {
	case sameArg(d, a):
		return []Instr{two(b)}
	case ins.Commutative && sameArg(d, b):
		return []Instr{two(a)}
	default:
		mv := []Arg{d, a}
		return []Instr{
			{Kind: KMove, Mnemonic: "mov", Args: mv, Defs: defsIn(mv), Uses: usesIn(mv, 1)},
			two(b),
		}
	}
}

func reduceUnary(ins Instr) []Instr {
	d, a := ins.Args[0], ins.Args[1]
	one := Instr{Kind: KRegular, Mnemonic: ins.Mnemonic, Args: []Arg{d}, Defs: defsIn([]Arg{d}), Uses: usesIn([]Arg{d}, 0)}
	if sameArg(d, a) {
		return []Instr{one}
	}
	mv := []Arg{d, a}
	return []Instr{
		{Kind: KMove, Mnemonic: "mov", Args: mv, Defs: defsIn(mv), Uses: usesIn(mv, 1)},
		one,
	}
}

package ir

// === Fragments ===

// FragKind tags the variant a Frag holds.
type FragKind int

const (
	FragBss FragKind = iota
	FragRoData
	FragData
	FragText
)

func (k FragKind) String() string {
	switch k {
	case FragBss:
		return "bss"
	case FragRoData:
		return "rodata"
	case FragData:
		return "data"
	case FragText:
		return "text"
	default:
		return "frag(?)"
	}
}

// Frag is one top-level unit of an object file: a zero-initialized
// (Bss), read-only initialized (RoData), writable initialized (Data),
// or function-body (Text) fragment.
type Frag struct {
	Kind      FragKind
	Name      string
	Local     bool // true for a compiler-generated label (e.g. .LC%zu), not a mangled external symbol
	Alignment uint64

	Datums []Datum    // FragBss (Padding only), FragRoData, FragData
	Blocks *BlockList // FragText

	// ABI metadata populated by internal/translate for FragText
	// fragments and consumed by internal/x64's instruction selector,
	// which is where the actual register/stack binding happens: the
	// translator records the placement internal/abi computed, the
	// selector emits the entry code. The register index slices index the
	// System V argument-register orders (rdi,rsi,... / xmm0,...), so
	// caller and callee never re-classify a type and disagree.
	ArgTemps      []Operand // temp operands bound to parameters, in declaration order
	ArgByRef      []bool    // parallel to ArgTemps: parameter arrives as a hidden pointer
	ArgIntRegs    [][]int   // parallel: INTEGER arg-register indices per eightbyte
	ArgSSERegs    [][]int   // parallel: SSE arg-register indices per eightbyte
	ArgEBSSE      [][]bool  // parallel: per-eightbyte class in offset order, true = SSE
	ArgStackOff   []int64   // parallel: rbp-relative offset of a stack-passed arg, 0 if register-passed
	RetHiddenPtr  bool      // return value routed through a caller-supplied pointer
	HiddenPtrTemp Operand   // temp holding the incoming hidden pointer, valid iff RetHiddenPtr
	RetSize       uint64
}

// NewBssFrag builds a zero-initialized fragment. data should contain
// only Padding datums; Sizeof sums them to the fragment's reserved size.
func NewBssFrag(name string, local bool, alignment uint64, data []Datum) *Frag {
	return &Frag{Kind: FragBss, Name: name, Local: local, Alignment: alignment, Datums: data}
}

// NewRoDataFrag builds a read-only initialized fragment.
func NewRoDataFrag(name string, local bool, alignment uint64, datums []Datum) *Frag {
	return &Frag{Kind: FragRoData, Name: name, Local: local, Alignment: alignment, Datums: datums}
}

// NewDataFrag builds a writable initialized fragment.
func NewDataFrag(name string, local bool, alignment uint64, datums []Datum) *Frag {
	return &Frag{Kind: FragData, Name: name, Local: local, Alignment: alignment, Datums: datums}
}

// NewTextFrag builds a function-body fragment from an already-built
// block list.
func NewTextFrag(name string, blocks *BlockList) *Frag {
	return &Frag{Kind: FragText, Name: name, Blocks: blocks}
}

// Sizeof sums a Bss/RoData/Data fragment's datums, its total reserved
// or initialized size in bytes.
func (f *Frag) Sizeof() uint64 {
	var total uint64
	for _, d := range f.Datums {
		total += d.Sizeof()
	}
	return total
}

// File is the complete set of fragments produced for one translation
// unit, in translator emission order. Fragment names must be unique
// within a File, enforced by AppendFrag.
type File struct {
	Frags  []*Frag
	byName map[string]*Frag
}

// NewFile builds an empty fragment file.
func NewFile() *File {
	return &File{byName: make(map[string]*Frag)}
}

// AppendFrag adds f to the file, panicking if its name collides with an
// existing fragment — fragment names are unique within a file.
func (file *File) AppendFrag(f *Frag) {
	if _, exists := file.byName[f.Name]; exists {
		panic("ICE: duplicate fragment name " + f.Name)
	}
	file.Frags = append(file.Frags, f)
	file.byName[f.Name] = f
}

// FindFrag returns the fragment with the given name, if present.
func (file *File) FindFrag(name string) (*Frag, bool) {
	f, ok := file.byName[name]
	return f, ok
}

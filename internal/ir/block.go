package ir

import "fmt"

// === Blocks ===

// Block is a numeric-labeled, doubly-linked sequence of instructions.
// The trace scheduler walks and relinks these links to linearize a
// function; only the last instruction of a block may be a terminator.
type Block struct {
	Label        int
	Instructions []Instruction

	Prev, Next *Block
}

// NewBlock builds an empty block with the given numeric label. Block 0
// is reserved for a function's entry block by convention.
func NewBlock(label int) *Block {
	return &Block{Label: label}
}

// Append adds an instruction to the end of the block. It panics if the
// block already ends in a terminator — only the last instruction of a
// block may terminate it.
func (b *Block) Append(in Instruction) {
	if n := len(b.Instructions); n > 0 && b.Instructions[n-1].Op.IsTerminator() {
		panic(fmt.Sprintf("ICE: appending %s after terminator %s in block %d", in.Op, b.Instructions[n-1].Op, b.Label))
	}
	b.Instructions = append(b.Instructions, in)
}

// Terminator returns the block's last instruction and whether it is a
// terminator. An empty block, or one whose last instruction is not a
// terminator, is malformed — internal/validate reports it rather than
// panicking, since it can arise mid-construction.
func (b *Block) Terminator() (Instruction, bool) {
	if len(b.Instructions) == 0 {
		return Instruction{}, false
	}
	last := b.Instructions[len(b.Instructions)-1]
	return last, last.Op.IsTerminator()
}

// BlockList is a doubly-linked list of blocks belonging to one Text
// fragment, in emission order.
type BlockList struct {
	head, tail *Block
	byLabel    map[int]*Block
}

// NewBlockList builds an empty block list.
func NewBlockList() *BlockList {
	return &BlockList{byLabel: make(map[int]*Block)}
}

// PushBack appends b to the list, linking it after the current tail.
func (l *BlockList) PushBack(b *Block) {
	if _, exists := l.byLabel[b.Label]; exists {
		panic(fmt.Sprintf("ICE: duplicate block label %d in fragment", b.Label))
	}
	b.Prev, b.Next = l.tail, nil
	if l.tail != nil {
		l.tail.Next = b
	} else {
		l.head = b
	}
	l.tail = b
	l.byLabel[b.Label] = b
}

// Remove unlinks b from the list.
func (l *BlockList) Remove(b *Block) {
	if b.Prev != nil {
		b.Prev.Next = b.Next
	} else {
		l.head = b.Next
	}
	if b.Next != nil {
		b.Next.Prev = b.Prev
	} else {
		l.tail = b.Prev
	}
	delete(l.byLabel, b.Label)
	b.Prev, b.Next = nil, nil
}

// InsertAfter links b immediately after anchor.
func (l *BlockList) InsertAfter(anchor, b *Block) {
	if _, exists := l.byLabel[b.Label]; exists {
		panic(fmt.Sprintf("ICE: duplicate block label %d in fragment", b.Label))
	}
	next := anchor.Next
	anchor.Next = b
	b.Prev = anchor
	b.Next = next
	if next != nil {
		next.Prev = b
	} else {
		l.tail = b
	}
	l.byLabel[b.Label] = b
}

// Head returns the first block, or nil if the list is empty.
func (l *BlockList) Head() *Block { return l.head }

// Tail returns the last block, or nil if the list is empty.
func (l *BlockList) Tail() *Block { return l.tail }

// Find returns the block with the given label, if present.
func (l *BlockList) Find(label int) (*Block, bool) {
	b, ok := l.byLabel[label]
	return b, ok
}

// Each calls fn for every block in list order. fn may not mutate the
// list's linkage; use Remove/InsertAfter between calls to Each instead.
func (l *BlockList) Each(fn func(*Block)) {
	for b := l.head; b != nil; b = b.Next {
		fn(b)
	}
}

// Len returns the number of blocks currently in the list.
func (l *BlockList) Len() int { return len(l.byLabel) }

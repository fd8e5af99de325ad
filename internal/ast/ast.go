// Package ast is the translator's input boundary: a minimal
// typechecked-AST representation, the shape the upstream
// parser/typechecker collaborator is assumed to hand the translator.
// Every identifier and type-reference node is already annotated with a
// *symtab.Entry and *types.Type — this package neither parses nor
// typechecks, it only gives internal/translate something concrete to
// consume.
package ast

import (
	"github.com/tcompiler-project/backend/internal/symtab"
	"github.com/tcompiler-project/backend/internal/types"
)

// Module is one translation unit: its dotted module name (for name
// mangling) and the globals/functions declared in it, in source order.
type Module struct {
	Name      string // dotted, e.g. "a.b"
	Globals   []*Global
	Functions []*Function
}

// Global is a file-scope variable declaration.
type Global struct {
	Entry *symtab.Entry
	Init  Expr // nil if uninitialized
	Const bool
}

// Function is a function definition with its parameter symbols (in
// declaration order) and body.
type Function struct {
	Entry  *symtab.Entry
	Params []*symtab.Entry
	Body   *Block
}

// Stmt is any statement node.
type Stmt interface{ stmtNode() }

// Block is a sequence of statements forming a lexical block, paired
// with the symtab.Scope declarations within it live in.
type Block struct {
	Scope *symtab.Scope
	Stmts []Stmt
}

func (*Block) stmtNode() {}

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct{ X Expr }

func (*ExprStmt) stmtNode() {}

// DeclStmt declares a local variable, with an optional initializer.
type DeclStmt struct {
	Entry *symtab.Entry
	Init  Expr
}

func (*DeclStmt) stmtNode() {}

// IfStmt is `if (Cond) Then [else Else]`.
type IfStmt struct {
	Cond       Expr
	Then, Else Stmt
}

func (*IfStmt) stmtNode() {}

// WhileStmt is `while (Cond) Body`.
type WhileStmt struct {
	Cond Expr
	Body Stmt
}

func (*WhileStmt) stmtNode() {}

// DoWhileStmt is `do Body while (Cond)`.
type DoWhileStmt struct {
	Body Stmt
	Cond Expr
}

func (*DoWhileStmt) stmtNode() {}

// ForStmt is `for (Init; Cond; Post) Body`; any clause may be nil.
type ForStmt struct {
	Init Stmt
	Cond Expr
	Post Expr
	Body Stmt
}

func (*ForStmt) stmtNode() {}

// SwitchCase is one `case Value:`, or `default:` when IsDefault is set
// (Value is then unused), followed by its statements, which fall through to the next case
// unless they end in a BreakStmt.
type SwitchCase struct {
	Value     int64
	IsDefault bool
	Stmts     []Stmt
}

// SwitchStmt is `switch (Scrutinee) { Cases }`.
type SwitchStmt struct {
	Scrutinee Expr
	Cases     []SwitchCase
}

func (*SwitchStmt) stmtNode() {}

// BreakStmt exits the nearest enclosing loop or switch.
type BreakStmt struct{}

func (*BreakStmt) stmtNode() {}

// ContinueStmt jumps to the nearest enclosing loop's post/test step.
type ContinueStmt struct{}

func (*ContinueStmt) stmtNode() {}

// ReturnStmt returns from the enclosing function; X is nil for void
// returns.
type ReturnStmt struct{ X Expr }

func (*ReturnStmt) stmtNode() {}

// Expr is any expression node, always annotated with its resolved Type.
type Expr interface {
	exprNode()
	Type() *types.Type
}

type typed struct{ T *types.Type }

func (t typed) Type() *types.Type { return t.T }

// IdentExpr references a declared variable or function.
type IdentExpr struct {
	typed
	Entry *symtab.Entry
}

func (*IdentExpr) exprNode() {}

// IntLit is an integer constant of the given (already-resolved)
// keyword type.
type IntLit struct {
	typed
	Value int64
}

func (*IntLit) exprNode() {}

// FloatLit is a floating-point constant.
type FloatLit struct {
	typed
	Value float64
}

func (*FloatLit) exprNode() {}

// StringLit is a string literal; translation emits a fresh `.LC` rodata
// fragment for each occurrence in initializer position.
type StringLit struct {
	typed
	Value string
	Wide  bool
}

func (*StringLit) exprNode() {}

// BinOp is a binary operator expression; Op names the source-level
// operator (e.g. "+", "&&", "=="), already resolved against the merge
// rules in internal/types by the upstream typechecker.
type BinOp struct {
	typed
	Op          string
	Left, Right Expr
}

func (*BinOp) exprNode() {}

// UnOp is a unary operator expression (e.g. "-", "!", "&", "*").
type UnOp struct {
	typed
	Op string
	X  Expr
}

func (*UnOp) exprNode() {}

// AssignExpr is `Dst = Src` (or a compound assignment, Op != "").
type AssignExpr struct {
	typed
	Op       string // "" for plain assignment, else e.g. "+="
	Dst, Src Expr
}

func (*AssignExpr) exprNode() {}

// CondExpr is the ternary `Cond ? Then : Else`.
type CondExpr struct {
	typed
	Cond, Then, Else Expr
}

func (*CondExpr) exprNode() {}

// CallExpr invokes Callee (a function symbol) with Args.
type CallExpr struct {
	typed
	Callee *symtab.Entry
	Args   []Expr
}

func (*CallExpr) exprNode() {}

// IndexExpr is `Base[Index]`.
type IndexExpr struct {
	typed
	Base, Index Expr
}

func (*IndexExpr) exprNode() {}

// FieldExpr is `Base.Field` (or `Base->Field`, indistinguishable once
// typechecked: Base's type already tells translation whether Base is
// itself an address).
type FieldExpr struct {
	typed
	Base  Expr
	Field string
}

func (*FieldExpr) exprNode() {}

// CastExpr is an explicit `(T)X` conversion.
type CastExpr struct {
	typed
	X Expr
}

func (*CastExpr) exprNode() {}

// AggregateLit is an aggregate initializer `{ a, b, c }`, synthesized
// to a types.Type(KAggregate) by the typechecker; translation flattens
// it against the target type's layout.
type AggregateLit struct {
	typed
	Elements []Expr
}

func (*AggregateLit) exprNode() {}

// NewTyped builds the embeddable Type-carrying base every Expr variant
// shares.
func NewTyped(t *types.Type) typed { return typed{T: t} }

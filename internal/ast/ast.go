// Package ast defines the minimal typed-AST surface the rest of the
// pipeline consumes. Per spec §1, the lexer/parser surface grammar is an
// explicit external collaborator — "out of scope" — so this package only
// names the interfaces the type inference engine and ARC lowering need,
// it does not implement a parser.
package ast

import "github.com/oriproj/ori/internal/diag"

// Expr is any expression node.
type Expr interface {
	Span() diag.Span
	isExpr()
}

type base struct{ Sp diag.Span }

func (b base) Span() diag.Span { return b.Sp }

// Literals.

type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitBool
	LitString
	LitChar
	LitUnit
)

type Literal struct {
	base
	Kind LitKind
	Int  int64
	Flt  float64
	Bool bool
	Str  string
	Chr  rune
}

func (*Literal) isExpr() {}

// Ident references a bound name.
type Ident struct {
	base
	Name string
}

func (*Ident) isExpr() {}

// Lambda is `\params -> body` (single-clause, possibly multi-param).
type Lambda struct {
	base
	Params []string
	Body   Expr
}

func (*Lambda) isExpr() {}

// App is function application `func(args...)`.
type App struct {
	base
	Func Expr
	Args []Expr
}

func (*App) isExpr() {}

// Let is `let name = value in body` (non-recursive; RecLet covers
// self-referential bindings).
type Let struct {
	base
	Name  string
	Value Expr
	Body  Expr
}

func (*Let) isExpr() {}

// RecLet is `let rec name = value in body`.
type RecLet struct {
	base
	Name  string
	Value Expr
	Body  Expr
}

func (*RecLet) isExpr() {}

// If is a conditional expression.
type If struct {
	base
	Cond, Then, Else Expr
}

func (*If) isExpr() {}

// FieldValue is one `name: expr` entry of a struct literal.
type FieldValue struct {
	Name  string
	Value Expr
}

// StructLit is `Name { field: value, ... }`, optionally with a spread
// base (`{...base, x: e}`, spec §4.2).
type StructLit struct {
	base
	TypeName string
	Fields   []FieldValue
	Spread   Expr // nil unless a `...base` is present
}

func (*StructLit) isExpr() {}

// FieldAccess is `receiver.field`.
type FieldAccess struct {
	base
	Receiver Expr
	Field    string
}

func (*FieldAccess) isExpr() {}

// MethodCall is `receiver.method(args...)`.
type MethodCall struct {
	base
	Receiver Expr
	Method   string
	Args     []Expr
}

func (*MethodCall) isExpr() {}

// TupleLit is `(e1, e2, ...)`.
type TupleLit struct {
	base
	Elems []Expr
}

func (*TupleLit) isExpr() {}

// ListLit is `[e1, e2, ...]`.
type ListLit struct {
	base
	Elems []Expr
}

func (*ListLit) isExpr() {}

// MatchArm is one `pattern -> body` arm of a match expression.
type MatchArm struct {
	Pattern Pattern
	Guard   Expr // nil if unguarded
	Body    Expr
}

// Match is a pattern-match expression.
type Match struct {
	base
	Scrutinee Expr
	Arms      []MatchArm
}

func (*Match) isExpr() {}

// With implements `with cap = provider in body` capability scoping
// (spec §4.2's capability checking).
type With struct {
	base
	Capability string
	Provider   Expr
	Body       Expr
}

func (*With) isExpr() {}

// Pattern is any pattern node used in `let`/`match`/function params.
type Pattern interface {
	isPattern()
}

type WildcardPat struct{}

func (WildcardPat) isPattern() {}

type BindPat struct{ Name string }

func (BindPat) isPattern() {}

type LiteralPat struct{ Lit Literal }

func (LiteralPat) isPattern() {}

type TuplePat struct{ Elems []Pattern }

func (TuplePat) isPattern() {}

type FieldPat struct {
	Name    string
	Pattern Pattern
}

type StructPat struct {
	TypeName string
	Fields   []FieldPat
}

func (StructPat) isPattern() {}

type VariantPat struct {
	EnumName    string
	VariantName string
	Payload     []Pattern
}

func (VariantPat) isPattern() {}

type ListPat struct {
	Elems []Pattern
	Rest  *string // `...rest` tail binding, nil if absent
}

func (ListPat) isPattern() {}

type OptionSomePat struct{ Inner Pattern }

func (OptionSomePat) isPattern() {}

type OptionNonePat struct{}

func (OptionNonePat) isPattern() {}

type ResultOkPat struct{ Inner Pattern }

func (ResultOkPat) isPattern() {}

type ResultErrPat struct{ Inner Pattern }

func (ResultErrPat) isPattern() {}

// FuncDecl is a top-level function declaration, including its declared
// capability ("uses") set (spec §4.2 capability checking) and optional
// where-clause trait bounds on its generic type parameters.
type FuncDecl struct {
	Name       string
	TypeParams []string
	Where      []WhereBound
	Params     []ParamDecl
	Uses       []string // declared capability set
	Body       Expr
	Span       diag.Span
}

// WhereBound is one `T: Trait` constraint in a function's where-clause.
type WhereBound struct {
	TypeParam string
	Trait     string
}

// ParamDecl is one function parameter with its declared (possibly
// generic) type annotation, named by the type-checker-facing surface
// (a string here; resolved to a typepool.Idx by the caller that owns
// the Pool).
type ParamDecl struct {
	Name string
	Type string // "" if inferred
}

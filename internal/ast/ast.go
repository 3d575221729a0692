// Package ast defines mu's abstract syntax tree: tagged variants for
// declarations, expressions, patterns, and (via internal/types) types, per
// spec.md §3. Every node carries its source Span for diagnostic reporting.
// ASTs are immutable after construction and form a DAG (no back-edges).
package ast

import (
	"github.com/muscript-lang/mu/internal/diag"
	"github.com/muscript-lang/mu/internal/types"
)

// Node is implemented by every AST node.
type Node interface {
	Span() diag.Span
}

// base embeds a span and gives every node a Span() method for free.
type base struct {
	SpanVal diag.Span
}

func (b base) Span() diag.Span { return b.SpanVal }

// ---------------------------------------------------------------------------
// Module
// ---------------------------------------------------------------------------

// Module is a program: a dotted module identifier and an ordered sequence
// of declarations. spec.md §3: "A program is a single module."
type Module struct {
	base
	ModuleID []string
	Decls    []Decl
}

// Dotted joins the module identifier with '.'.
func (m *Module) Dotted() string {
	s := ""
	for i, seg := range m.ModuleID {
		if i > 0 {
			s += "."
		}
		s += seg
	}
	return s
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

// Decl is implemented by every top-level declaration variant.
type Decl interface {
	Node
	declNode()
}

type ImportDecl struct {
	base
	Alias    string
	ModuleID []string
}

type ExportDecl struct {
	base
	Names []string
}

type CtorSig struct {
	Name   string
	Fields []types.Type
	Span   diag.Span
}

type TypeDecl struct {
	base
	Name       string
	TypeParams []string
	Ctors      []CtorSig
}

type ValueDecl struct {
	base
	Name string
	Type types.Type
	Expr Expr
}

type Param struct {
	Name string
	Type types.Type
	Span diag.Span
}

type FuncDecl struct {
	base
	Name       string
	TypeParams []string
	Params     []Param
	RetType    types.Type
	Effects    types.EffectSet
	Body       Expr
}

func (*ImportDecl) declNode() {}
func (*ExportDecl) declNode() {}
func (*TypeDecl) declNode()   {}
func (*ValueDecl) declNode()  {}
func (*FuncDecl) declNode()   {}

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

// Pattern is implemented by every match/let pattern variant.
type Pattern interface {
	Node
	patternNode()
}

type WildcardPattern struct{ base }

// LiteralPattern covers integer, string, and boolean literal patterns.
type LiteralPattern struct {
	base
	Value Expr // IntLit, StringLit, or BoolLit
}

// NamePattern is a bare identifier pattern. Per spec.md §3, it is
// interpreted as a nullary constructor iff the resolved name is a known
// constructor in scope; the checker (not the parser) makes that call, since
// it requires the module's constructor table.
type NamePattern struct {
	base
	Name string
}

type CtorPattern struct {
	base
	Name string
	Args []Pattern
}

type TuplePattern struct {
	base
	Items []Pattern
}

type ParenPattern struct {
	base
	Inner Pattern
}

func (*WildcardPattern) patternNode() {}
func (*LiteralPattern) patternNode()  {}
func (*NamePattern) patternNode()    {}
func (*CtorPattern) patternNode()    {}
func (*TuplePattern) patternNode()   {}
func (*ParenPattern) patternNode()   {}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// Expr is implemented by every expression variant.
type Expr interface {
	Node
	exprNode()
}

// BlockExpr is a sequence of prefix statement-expressions followed by a
// mandatory tail expression whose value is the block's value.
type BlockExpr struct {
	base
	Stmts []Expr
	Tail  Expr
}

type UnitExpr struct{ base }

type IntLit struct {
	base
	Value int64
}

type StringLit struct {
	base
	Value string
}

type BoolLit struct {
	base
	Value bool
}

// LetExpr is `v(name[:type] = value, body)`.
type LetExpr struct {
	base
	Name  string
	Ann   types.Type // nil if no annotation
	Value Expr
	Body  Expr
}

// IfExpr requires a mandatory else branch.
type IfExpr struct {
	base
	Cond Expr
	Then Expr
	Else Expr
}

type MatchArm struct {
	Pattern Pattern
	Body    Expr
}

type MatchExpr struct {
	base
	Scrutinee Expr
	Arms      []MatchArm
}

// CallExpr is the generic `c(callee, args...)` call form.
type CallExpr struct {
	base
	Callee Expr
	Args   []Expr
}

type LambdaExpr struct {
	base
	Params  []Param
	RetType types.Type
	Effects types.EffectSet
	Body    Expr
}

// AssertExpr is `a(cond[, msg])`.
type AssertExpr struct {
	base
	Cond Expr
	Msg  Expr // nil if no message
}

// RequireExpr is the `^expr` precondition form.
type RequireExpr struct {
	base
	Cond Expr
}

// EnsureExpr is the `_expr` postcondition form. Its Cond may reference the
// magic `_r` identifier bound to the enclosing function's return value.
type EnsureExpr struct {
	base
	Cond Expr
}

// NameExpr is a bare identifier reference.
type NameExpr struct {
	base
	Name string
}

// NameAppExpr is `name[typeArgs](args...)` constructor/generic-call syntax,
// written directly without the `c(...)` call-form wrapper (spec.md §4.2
// scenario: `Some(0)`).
type NameAppExpr struct {
	base
	Name     string
	TypeArgs []types.Type
	Args     []Expr
}

// ParenExpr is an explicitly parenthesized sub-expression, kept distinct
// from its inner expression so the formatter can round-trip parens exactly.
type ParenExpr struct {
	base
	Inner Expr
}

func (*BlockExpr) exprNode()   {}
func (*UnitExpr) exprNode()    {}
func (*IntLit) exprNode()      {}
func (*StringLit) exprNode()   {}
func (*BoolLit) exprNode()     {}
func (*LetExpr) exprNode()     {}
func (*IfExpr) exprNode()      {}
func (*MatchExpr) exprNode()   {}
func (*CallExpr) exprNode()    {}
func (*LambdaExpr) exprNode()  {}
func (*AssertExpr) exprNode()  {}
func (*RequireExpr) exprNode() {}
func (*EnsureExpr) exprNode()  {}
func (*NameExpr) exprNode()    {}
func (*NameAppExpr) exprNode() {}
func (*ParenExpr) exprNode()   {}

// NewModule, NewImportDecl, etc. are thin constructors that also accept a
// span, used by the parser so span-plumbing stays in one place per node.

func NewModule(span diag.Span, moduleID []string, decls []Decl) *Module {
	return &Module{base: base{span}, ModuleID: moduleID, Decls: decls}
}

func NewImportDecl(span diag.Span, alias string, moduleID []string) *ImportDecl {
	return &ImportDecl{base: base{span}, Alias: alias, ModuleID: moduleID}
}

func NewExportDecl(span diag.Span, names []string) *ExportDecl {
	return &ExportDecl{base: base{span}, Names: names}
}

func NewTypeDecl(span diag.Span, name string, typeParams []string, ctors []CtorSig) *TypeDecl {
	return &TypeDecl{base: base{span}, Name: name, TypeParams: typeParams, Ctors: ctors}
}

func NewValueDecl(span diag.Span, name string, typ types.Type, expr Expr) *ValueDecl {
	return &ValueDecl{base: base{span}, Name: name, Type: typ, Expr: expr}
}

func NewFuncDecl(span diag.Span, name string, typeParams []string, params []Param, ret types.Type, effects types.EffectSet, body Expr) *FuncDecl {
	return &FuncDecl{base: base{span}, Name: name, TypeParams: typeParams, Params: params, RetType: ret, Effects: effects, Body: body}
}

func NewBlockExpr(span diag.Span, stmts []Expr, tail Expr) *BlockExpr {
	return &BlockExpr{base: base{span}, Stmts: stmts, Tail: tail}
}

func NewUnitExpr(span diag.Span) *UnitExpr { return &UnitExpr{base: base{span}} }

func NewIntLit(span diag.Span, v int64) *IntLit       { return &IntLit{base: base{span}, Value: v} }
func NewStringLit(span diag.Span, v string) *StringLit { return &StringLit{base: base{span}, Value: v} }
func NewBoolLit(span diag.Span, v bool) *BoolLit       { return &BoolLit{base: base{span}, Value: v} }

func NewLetExpr(span diag.Span, name string, ann types.Type, value, body Expr) *LetExpr {
	return &LetExpr{base: base{span}, Name: name, Ann: ann, Value: value, Body: body}
}

func NewIfExpr(span diag.Span, cond, then, els Expr) *IfExpr {
	return &IfExpr{base: base{span}, Cond: cond, Then: then, Else: els}
}

func NewMatchExpr(span diag.Span, scrutinee Expr, arms []MatchArm) *MatchExpr {
	return &MatchExpr{base: base{span}, Scrutinee: scrutinee, Arms: arms}
}

func NewCallExpr(span diag.Span, callee Expr, args []Expr) *CallExpr {
	return &CallExpr{base: base{span}, Callee: callee, Args: args}
}

func NewLambdaExpr(span diag.Span, params []Param, ret types.Type, effects types.EffectSet, body Expr) *LambdaExpr {
	return &LambdaExpr{base: base{span}, Params: params, RetType: ret, Effects: effects, Body: body}
}

func NewAssertExpr(span diag.Span, cond, msg Expr) *AssertExpr {
	return &AssertExpr{base: base{span}, Cond: cond, Msg: msg}
}

func NewRequireExpr(span diag.Span, cond Expr) *RequireExpr {
	return &RequireExpr{base: base{span}, Cond: cond}
}

func NewEnsureExpr(span diag.Span, cond Expr) *EnsureExpr {
	return &EnsureExpr{base: base{span}, Cond: cond}
}

func NewNameExpr(span diag.Span, name string) *NameExpr { return &NameExpr{base: base{span}, Name: name} }

func NewNameAppExpr(span diag.Span, name string, typeArgs []types.Type, args []Expr) *NameAppExpr {
	return &NameAppExpr{base: base{span}, Name: name, TypeArgs: typeArgs, Args: args}
}

func NewParenExpr(span diag.Span, inner Expr) *ParenExpr {
	return &ParenExpr{base: base{span}, Inner: inner}
}

func NewWildcardPattern(span diag.Span) *WildcardPattern { return &WildcardPattern{base{span}} }

func NewLiteralPattern(span diag.Span, value Expr) *LiteralPattern {
	return &LiteralPattern{base: base{span}, Value: value}
}

func NewNamePattern(span diag.Span, name string) *NamePattern {
	return &NamePattern{base: base{span}, Name: name}
}

func NewCtorPattern(span diag.Span, name string, args []Pattern) *CtorPattern {
	return &CtorPattern{base: base{span}, Name: name, Args: args}
}

func NewTuplePattern(span diag.Span, items []Pattern) *TuplePattern {
	return &TuplePattern{base: base{span}, Items: items}
}

func NewParenPattern(span diag.Span, inner Pattern) *ParenPattern {
	return &ParenPattern{base: base{span}, Inner: inner}
}

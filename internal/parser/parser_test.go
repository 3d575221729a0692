package parser

import (
	"testing"

	"github.com/muscript-lang/mu/internal/ast"
	"github.com/muscript-lang/mu/internal/diag"
)

func mustParse(t *testing.T, src string) *ast.Module {
	t.Helper()
	p := New(src, "<test>")
	mod := p.ParseModule()
	if len(p.Errors()) != 0 {
		t.Fatalf("unexpected errors parsing %q: %v", src, p.Errors())
	}
	return mod
}

func TestParseModuleHeaderAndImports(t *testing.T) {
	mod := mustParse(t, `@app.main{:io=core.io;E[run];V x:I32=1;}`)
	if mod.Dotted() != "app.main" {
		t.Fatalf("Dotted() = %q, want app.main", mod.Dotted())
	}
	if len(mod.Decls) != 3 {
		t.Fatalf("len(Decls) = %d, want 3", len(mod.Decls))
	}
	imp, ok := mod.Decls[0].(*ast.ImportDecl)
	if !ok || imp.Alias != "io" || imp.ModuleID[0] != "core" || imp.ModuleID[1] != "io" {
		t.Fatalf("Decls[0] = %#v, want ImportDecl{io, core.io}", mod.Decls[0])
	}
	exp, ok := mod.Decls[1].(*ast.ExportDecl)
	if !ok || len(exp.Names) != 1 || exp.Names[0] != "run" {
		t.Fatalf("Decls[1] = %#v, want ExportDecl{[run]}", mod.Decls[1])
	}
}

func TestParseTypeDeclWithCtorsAndTypeParams(t *testing.T) {
	mod := mustParse(t, `@m{T Opt[a]=None|Some(a);}`)
	td, ok := mod.Decls[0].(*ast.TypeDecl)
	if !ok {
		t.Fatalf("Decls[0] = %#v, want TypeDecl", mod.Decls[0])
	}
	if td.Name != "Opt" || len(td.TypeParams) != 1 || td.TypeParams[0] != "a" {
		t.Fatalf("TypeDecl = %#v", td)
	}
	if len(td.Ctors) != 2 || td.Ctors[0].Name != "None" || td.Ctors[1].Name != "Some" {
		t.Fatalf("Ctors = %#v", td.Ctors)
	}
	if len(td.Ctors[1].Fields) != 1 {
		t.Fatalf("Some fields = %#v, want 1", td.Ctors[1].Fields)
	}
}

func TestParseFuncDeclWithEffects(t *testing.T) {
	mod := mustParse(t, `@m{F main:()->I32!{io}=0;}`)
	fd, ok := mod.Decls[0].(*ast.FuncDecl)
	if !ok {
		t.Fatalf("Decls[0] = %#v, want FuncDecl", mod.Decls[0])
	}
	if fd.Name != "main" || len(fd.Params) != 0 {
		t.Fatalf("FuncDecl = %#v", fd)
	}
	if len(fd.Effects) != 1 || fd.Effects[0] != "io" {
		t.Fatalf("Effects = %#v", fd.Effects)
	}
	if _, ok := fd.Body.(*ast.IntLit); !ok {
		t.Fatalf("Body = %#v, want IntLit", fd.Body)
	}
}

func TestParseExpressionForms(t *testing.T) {
	mod := mustParse(t, `@m{F f:()->I32=v(x=1,i(t,c(+,x,1),x));}`)
	fd := mod.Decls[0].(*ast.FuncDecl)
	let, ok := fd.Body.(*ast.LetExpr)
	if !ok {
		t.Fatalf("Body = %#v, want LetExpr", fd.Body)
	}
	if let.Name != "x" {
		t.Fatalf("LetExpr.Name = %q, want x", let.Name)
	}
	ifExpr, ok := let.Body.(*ast.IfExpr)
	if !ok {
		t.Fatalf("Body.Body = %#v, want IfExpr", let.Body)
	}
	boolLit, ok := ifExpr.Cond.(*ast.BoolLit)
	if !ok || !boolLit.Value {
		t.Fatalf("IfExpr.Cond = %#v, want BoolLit{true}", ifExpr.Cond)
	}
	call, ok := ifExpr.Then.(*ast.CallExpr)
	if !ok {
		t.Fatalf("IfExpr.Then = %#v, want CallExpr", ifExpr.Then)
	}
	callee, ok := call.Callee.(*ast.NameExpr)
	if !ok || callee.Name != "+" {
		t.Fatalf("CallExpr.Callee = %#v, want NameExpr{+}", call.Callee)
	}
}

func TestParseMatchExprWithCtorAndWildcard(t *testing.T) {
	mod := mustParse(t, `@m{F f:(x:Result(I32,String))->I32=m(x){Ok(v)=>v;Er(_)=>0;};}`)
	fd := mod.Decls[0].(*ast.FuncDecl)
	match, ok := fd.Body.(*ast.MatchExpr)
	if !ok {
		t.Fatalf("Body = %#v, want MatchExpr", fd.Body)
	}
	if len(match.Arms) != 2 {
		t.Fatalf("len(Arms) = %d, want 2", len(match.Arms))
	}
	ctorPat, ok := match.Arms[0].Pattern.(*ast.CtorPattern)
	if !ok || ctorPat.Name != "Ok" || len(ctorPat.Args) != 1 {
		t.Fatalf("Arms[0].Pattern = %#v", match.Arms[0].Pattern)
	}
	if _, ok := ctorPat.Args[0].(*ast.NamePattern); !ok {
		t.Fatalf("Ok's arg pattern = %#v, want NamePattern", ctorPat.Args[0])
	}
	erPat, ok := match.Arms[1].Pattern.(*ast.CtorPattern)
	if !ok || erPat.Name != "Er" {
		t.Fatalf("Arms[1].Pattern = %#v", match.Arms[1].Pattern)
	}
	if _, ok := erPat.Args[0].(*ast.WildcardPattern); !ok {
		t.Fatalf("Er's arg pattern = %#v, want WildcardPattern", erPat.Args[0])
	}
}

func TestParseLambdaAndAssertAndContracts(t *testing.T) {
	mod := mustParse(t, `@m{F f:()->I32={^t;_ t;a(t,"msg");l(x:I32):I32=x};}`)
	fd := mod.Decls[0].(*ast.FuncDecl)
	block, ok := fd.Body.(*ast.BlockExpr)
	if !ok || len(block.Stmts) != 3 {
		t.Fatalf("Body = %#v, want BlockExpr with 3 stmts", fd.Body)
	}
	if _, ok := block.Stmts[0].(*ast.RequireExpr); !ok {
		t.Fatalf("Stmts[0] = %#v, want RequireExpr", block.Stmts[0])
	}
	if _, ok := block.Stmts[1].(*ast.EnsureExpr); !ok {
		t.Fatalf("Stmts[1] = %#v, want EnsureExpr", block.Stmts[1])
	}
	assertExpr, ok := block.Stmts[2].(*ast.AssertExpr)
	if !ok || assertExpr.Msg == nil {
		t.Fatalf("Stmts[2] = %#v, want AssertExpr with message", block.Stmts[2])
	}
	lam, ok := block.Tail.(*ast.LambdaExpr)
	if !ok || len(lam.Params) != 1 || lam.Params[0].Name != "x" {
		t.Fatalf("Tail = %#v, want LambdaExpr with one param", block.Tail)
	}
}

func TestParseTFAsIdentifierWhenCalled(t *testing.T) {
	// A module declaring a function literally named "t" can still call it:
	// "t" immediately followed by '(' is a name, not the boolean literal.
	mod := mustParse(t, `@m{F t:()->I32=1;F g:()->I32=t();}`)
	g := mod.Decls[1].(*ast.FuncDecl)
	app, ok := g.Body.(*ast.NameAppExpr)
	if !ok || app.Name != "t" {
		t.Fatalf("g.Body = %#v, want NameAppExpr{t}", g.Body)
	}
}

func TestParseTuplePatternAndType(t *testing.T) {
	mod := mustParse(t, `@m{F f:(p:(I32,String))->I32=m(p){(a,_)=>a;};}`)
	fd := mod.Decls[0].(*ast.FuncDecl)
	match := fd.Body.(*ast.MatchExpr)
	tp, ok := match.Arms[0].Pattern.(*ast.TuplePattern)
	if !ok || len(tp.Items) != 2 {
		t.Fatalf("Arms[0].Pattern = %#v, want TuplePattern with 2 items", match.Arms[0].Pattern)
	}
}

func TestParseErrorMissingSemicolon(t *testing.T) {
	p := New(`@m{V x:I32=1}`, "<test>")
	p.ParseModule()
	if len(p.Errors()) == 0 {
		t.Fatalf("expected a diagnostic for missing ';'")
	}
	if p.Errors()[0].Code != diag.EExpectedToken {
		t.Fatalf("Code = %s, want EExpectedToken", p.Errors()[0].Code)
	}
}

func TestParseUnexpectedDeclKeyword(t *testing.T) {
	p := New(`@m{X;}`, "<test>")
	p.ParseModule()
	if len(p.Errors()) == 0 || p.Errors()[0].Code != diag.EUnexpectedToken {
		t.Fatalf("errors = %v, want EUnexpectedToken", p.Errors())
	}
}

func TestParseSymbolTableAndRefs(t *testing.T) {
	mod := mustParse(t, `@m{$[foo];V #0:I32=1;}`)
	vd, ok := mod.Decls[0].(*ast.ValueDecl)
	if !ok || vd.Name != "foo" {
		t.Fatalf("Decls[0] = %#v, want ValueDecl{foo}", mod.Decls[0])
	}
}

func TestParseSymRefWithoutTableIsError(t *testing.T) {
	p := New(`@m{V #0:I32=1;}`, "<test>")
	p.ParseModule()
	if len(p.Errors()) == 0 || p.Errors()[0].Code != diag.EMissingSymTable {
		t.Fatalf("errors = %v, want EMissingSymTable", p.Errors())
	}
}

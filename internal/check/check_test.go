package check

import (
	"testing"

	"github.com/muscript-lang/mu/internal/ast"
	"github.com/muscript-lang/mu/internal/diag"
	"github.com/muscript-lang/mu/internal/parser"
)

func mustParseModule(t *testing.T, src string) *ast.Module {
	t.Helper()
	p := parser.New(src, "<test>")
	mod := p.ParseModule()
	if len(p.Errors()) != 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, p.Errors())
	}
	return mod
}

func checkSingle(t *testing.T, src string) []*diag.Diagnostic {
	t.Helper()
	mod := mustParseModule(t, src)
	c := New()
	c.AddModule(mod)
	return c.Check()
}

func TestCheckAcceptsValidMain(t *testing.T) {
	diags := checkSingle(t, `@app{F main:()->I32=0;}`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestCheckAcceptsLowercasePrimitiveSpellings(t *testing.T) {
	// spec.md §8's own acceptance scenarios spell primitives lowercase
	// (e.g. "main:()->i32!{io}"); the parser must decode "i32" to the same
	// types.I32 as "I32" so these scenarios build and check cleanly.
	diags := checkSingle(t, `@app{F main:()->i32!{io}=v(r=c(print,"ok"),0);}`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics for a lowercase-i32 main: %v", diags)
	}
}

func TestCheckBadMainSignatureWrongReturn(t *testing.T) {
	diags := checkSingle(t, `@app{F main:()->Bool=t;}`)
	if len(diags) != 1 || diags[0].Code != diag.EBadMainSignature {
		t.Fatalf("diags = %v, want one EBadMainSignature", diags)
	}
}

func TestCheckBadMainSignatureWithParams(t *testing.T) {
	diags := checkSingle(t, `@app{F main:(x:I32)->I32=x;}`)
	if len(diags) != 1 || diags[0].Code != diag.EBadMainSignature {
		t.Fatalf("diags = %v, want one EBadMainSignature", diags)
	}
}

func TestCheckEffectViolationUndeclaredIO(t *testing.T) {
	diags := checkSingle(t, `@app{F main:()->I32=v(r=c(print,"hi"),0);}`)
	if len(diags) != 1 || diags[0].Code != diag.EEffectViolation {
		t.Fatalf("diags = %v, want one EEffectViolation", diags)
	}
}

func TestCheckEffectDeclaredIOIsAccepted(t *testing.T) {
	diags := checkSingle(t, `@app{F main:()->I32!{io}=v(r=c(print,"hi"),0);}`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestCheckNonCanonicalEffectOrder(t *testing.T) {
	diags := checkSingle(t, `@app{F f:()->I32!{fs,io}=0;}`)
	if len(diags) != 1 || diags[0].Code != diag.ENonCanonicalEffects {
		t.Fatalf("diags = %v, want one ENonCanonicalEffects", diags)
	}
}

func TestCheckTypeMismatchOnValueDecl(t *testing.T) {
	diags := checkSingle(t, `@app{V x:Bool=1;}`)
	if len(diags) != 1 || diags[0].Code != diag.ETypeMismatch {
		t.Fatalf("diags = %v, want one ETypeMismatch", diags)
	}
}

func TestCheckIfBranchTypeMismatch(t *testing.T) {
	diags := checkSingle(t, `@app{F f:()->I32=i(t,1,t);}`)
	if len(diags) != 1 || diags[0].Code != diag.ETypeMismatch {
		t.Fatalf("diags = %v, want one ETypeMismatch", diags)
	}
}

func TestCheckUnknownName(t *testing.T) {
	diags := checkSingle(t, `@app{F f:()->I32=nope;}`)
	if len(diags) != 1 || diags[0].Code != diag.EUnknownName {
		t.Fatalf("diags = %v, want one EUnknownName", diags)
	}
}

func TestCheckDuplicateSymbol(t *testing.T) {
	diags := checkSingle(t, `@app{V x:I32=1;V x:I32=2;}`)
	if len(diags) != 1 || diags[0].Code != diag.EDuplicateSymbol {
		t.Fatalf("diags = %v, want one EDuplicateSymbol", diags)
	}
}

func TestCheckInvalidExport(t *testing.T) {
	diags := checkSingle(t, `@app{E[nope];}`)
	if len(diags) != 1 || diags[0].Code != diag.EInvalidExport {
		t.Fatalf("diags = %v, want one EInvalidExport", diags)
	}
}

func TestCheckUnknownModuleImport(t *testing.T) {
	diags := checkSingle(t, `@app{:other=some.other;}`)
	if len(diags) != 1 || diags[0].Code != diag.EUnknownModule {
		t.Fatalf("diags = %v, want one EUnknownModule", diags)
	}
}

func TestCheckBuiltinModuleImportIsAccepted(t *testing.T) {
	diags := checkSingle(t, `@app{:io=core.io;}`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestCheckExhaustiveMatchOnAdt(t *testing.T) {
	diags := checkSingle(t, `@app{T Opt[a]=None|Some(a);F f:(o:Opt(I32))->I32=m(o){None=>0;Some(v)=>v;};}`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestCheckNonExhaustiveMatchOnAdt(t *testing.T) {
	diags := checkSingle(t, `@app{T Opt[a]=None|Some(a);F f:(o:Opt(I32))->I32=m(o){Some(v)=>v;};}`)
	if len(diags) != 1 || diags[0].Code != diag.ENonExhaustiveMatch {
		t.Fatalf("diags = %v, want one ENonExhaustiveMatch", diags)
	}
}

func TestCheckMatchWithWildcardIsExhaustive(t *testing.T) {
	diags := checkSingle(t, `@app{T Opt[a]=None|Some(a);F f:(o:Opt(I32))->I32=m(o){Some(v)=>v;_=>0;};}`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestCheckNonExhaustiveMatchOnBool(t *testing.T) {
	diags := checkSingle(t, `@app{F f:()->I32=m(t){t=>1;};}`)
	if len(diags) != 1 || diags[0].Code != diag.ENonExhaustiveMatch {
		t.Fatalf("diags = %v, want one ENonExhaustiveMatch", diags)
	}
}

func TestCheckConstructorArityMismatch(t *testing.T) {
	diags := checkSingle(t, `@app{T Opt[a]=None|Some(a);F f:()->I32=v(r=Some(1,2),0);}`)
	if len(diags) != 1 || diags[0].Code != diag.EArityMismatch {
		t.Fatalf("diags = %v, want one EArityMismatch", diags)
	}
}

func TestCheckRBoundOutsideEnsure(t *testing.T) {
	diags := checkSingle(t, `@app{F f:()->I32=v(r=_r,0);}`)
	if len(diags) != 1 || diags[0].Code != diag.ERBoundOutsideEnsure {
		t.Fatalf("diags = %v, want one ERBoundOutsideEnsure", diags)
	}
}

func TestModuleCtorsReturnsDeclaredConstructors(t *testing.T) {
	mod := mustParseModule(t, `@app{T Opt[a]=None|Some(a);}`)
	c := New()
	c.AddModule(mod)
	ctors := c.ModuleCtors("app")
	if !ctors["None"] || !ctors["Some"] {
		t.Fatalf("ModuleCtors = %v, want None and Some", ctors)
	}
}

func TestModuleCtorsUnknownModuleReturnsNil(t *testing.T) {
	c := New()
	if got := c.ModuleCtors("never.added"); got != nil {
		t.Fatalf("ModuleCtors(unadded) = %v, want nil", got)
	}
}

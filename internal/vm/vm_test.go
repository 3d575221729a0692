package vm

import (
	"strings"
	"testing"

	"github.com/muscript-lang/mu/internal/ast"
	"github.com/muscript-lang/mu/internal/bytecode"
	"github.com/muscript-lang/mu/internal/diag"
	"github.com/muscript-lang/mu/internal/host"
	"github.com/muscript-lang/mu/internal/parser"
)

func compileSource(t *testing.T, src string) *bytecode.Chunk {
	t.Helper()
	p := parser.New(src, "<test>")
	mod := p.ParseModule()
	if len(p.Errors()) != 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, p.Errors())
	}
	ctors := map[string]bool{}
	for _, d := range mod.Decls {
		if td, ok := d.(*ast.TypeDecl); ok {
			for _, c := range td.Ctors {
				ctors[c.Name] = true
			}
		}
	}
	chunk, d := bytecode.Compile(mod, ctors)
	if d != nil {
		t.Fatalf("compile failed: %v", d)
	}
	return chunk
}

func TestRunReturnsZeroOnSuccess(t *testing.T) {
	chunk := compileSource(t, `@app{F main:()->I32=0;}`)
	m := New(chunk, host.NewSandbox(), 1000)
	code, d := m.Run()
	if d != nil {
		t.Fatalf("unexpected trap: %v", d)
	}
	if code != 0 {
		t.Fatalf("code = %d, want 0", code)
	}
}

func TestRunPrintsToSandboxHost(t *testing.T) {
	chunk := compileSource(t, `@app{F main:()->I32!{io}=v(r=c(print,"ok"),0);}`)
	sb := host.NewSandbox()
	m := New(chunk, sb, 1000)
	code, d := m.Run()
	if d != nil {
		t.Fatalf("unexpected trap: %v", d)
	}
	if code != 0 {
		t.Fatalf("code = %d, want 0", code)
	}
	if string(sb.Output) != "ok" {
		t.Fatalf("sandbox output = %q, want %q", sb.Output, "ok")
	}
}

func TestRunArithmeticOverflowTraps(t *testing.T) {
	chunk := compileSource(t, `@app{F main:()->I32=c(+,9223372036854775807,1);}`)
	m := New(chunk, host.NewSandbox(), 1000)
	_, d := m.Run()
	if d == nil || d.Code != diag.ETrapArithmetic {
		t.Fatalf("got %v, want ETrapArithmetic", d)
	}
}

func TestRunDivisionByZeroTraps(t *testing.T) {
	chunk := compileSource(t, `@app{F main:()->I32=c(/,1,0);}`)
	m := New(chunk, host.NewSandbox(), 1000)
	_, d := m.Run()
	if d == nil || d.Code != diag.ETrapArithmetic {
		t.Fatalf("got %v, want ETrapArithmetic", d)
	}
}

func TestRunNonZeroMainReturnTraps(t *testing.T) {
	chunk := compileSource(t, `@app{F main:()->I32=1;}`)
	m := New(chunk, host.NewSandbox(), 1000)
	code, d := m.Run()
	if d == nil || d.Code != diag.ETrapNonZeroMain {
		t.Fatalf("got %v, want ETrapNonZeroMain", d)
	}
	if code != 1 {
		t.Fatalf("code = %d, want 1", code)
	}
}

func TestRunFuelExhaustionTraps(t *testing.T) {
	chunk := compileSource(t, `@app{F main:()->I32=c(+,1,2);}`)
	m := New(chunk, host.NewSandbox(), 1)
	_, d := m.Run()
	if d == nil || d.Code != diag.ETrapFuelExhausted {
		t.Fatalf("got %v, want ETrapFuelExhausted", d)
	}
}

func TestRunAssertFailureTraps(t *testing.T) {
	chunk := compileSource(t, `@app{F main:()->I32=v(r=a(f),0);}`)
	m := New(chunk, host.NewSandbox(), 1000)
	_, d := m.Run()
	if d == nil || d.Code != diag.ETrapAssert {
		t.Fatalf("got %v, want ETrapAssert", d)
	}
}

func TestRunConstructorAndMatch(t *testing.T) {
	// main must return 0 to succeed (spec.md §4.6: a non-zero return is
	// itself a trap), so the match result is checked via equality instead
	// of returned directly.
	src := `@app{T Opt[a]=None|Some(a);F main:()->I32=m(Some(42)){None=>1;Some(v)=>i(c(==,v,42),0,1);};}`
	chunk := compileSource(t, src)
	m := New(chunk, host.NewSandbox(), 10000)
	code, d := m.Run()
	if d != nil {
		t.Fatalf("unexpected trap: %v", d)
	}
	if code != 0 {
		t.Fatalf("code = %d, want 0", code)
	}
}

func TestRunNonExhaustiveMatchTrapsAtRuntime(t *testing.T) {
	src := `@app{T Opt[a]=None|Some(a);F main:()->I32=m(None){Some(v)=>v;};}`
	chunk := compileSource(t, src)
	m := New(chunk, host.NewSandbox(), 10000)
	_, d := m.Run()
	if d == nil || d.Code != diag.ETrapInvalidMatch {
		t.Fatalf("got %v, want ETrapInvalidMatch", d)
	}
}

func TestRunClosureCapturesOuterLocal(t *testing.T) {
	src := `@app{F main:()->I32=v(x=5,i(c(==,c(l():I32=x),5),0,1));}`
	chunk := compileSource(t, src)
	m := New(chunk, host.NewSandbox(), 10000)
	code, d := m.Run()
	if d != nil {
		t.Fatalf("unexpected trap: %v", d)
	}
	if code != 0 {
		t.Fatalf("code = %d, want 0", code)
	}
}

func TestRunEntryFunctionOutOfRangeTraps(t *testing.T) {
	chunk := &bytecode.Chunk{Functions: nil, EntryFn: 3}
	m := New(chunk, host.NewSandbox(), 1000)
	_, d := m.Run()
	if d == nil {
		t.Fatalf("expected a trap for an out-of-range entry function")
	}
}

func TestSandboxOutputLimitRejectsOversizedWrites(t *testing.T) {
	sb := host.NewSandbox()
	big := strings.Repeat("x", host.OutputLimit+1)
	if err := sb.IOPrint(big); err != host.ErrOutputLimit {
		t.Fatalf("IOPrint(big) err = %v, want ErrOutputLimit", err)
	}
}

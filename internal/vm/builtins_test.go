package vm

import (
	"testing"

	"github.com/muscript-lang/mu/internal/diag"
	"github.com/muscript-lang/mu/internal/host"
)

func newTestVM(h host.Host) *VM {
	return New(nil, h, 1000)
}

func TestCallBuiltinPrintWritesToHost(t *testing.T) {
	sb := host.NewSandbox()
	m := newTestVM(sb)
	v, d := m.callBuiltin("print", []Value{StringValue("hi")})
	if d != nil {
		t.Fatalf("unexpected trap: %v", d)
	}
	if v.Kind != KindUnit {
		t.Fatalf("print result = %v, want Unit", v)
	}
	if string(sb.Output) != "hi" {
		t.Fatalf("sandbox output = %q, want %q", sb.Output, "hi")
	}
}

func TestCallBuiltinReadReturnsErOnSandbox(t *testing.T) {
	m := newTestVM(host.NewSandbox())
	v, d := m.callBuiltin("read", []Value{StringValue("/tmp/x")})
	if d != nil {
		t.Fatalf("unexpected trap: %v", d)
	}
	if v.Kind != KindAdt || v.Adt.Tag != "Er" {
		t.Fatalf("read on sandbox = %v, want Er(...)", v)
	}
}

func TestCallBuiltinArithmeticOperators(t *testing.T) {
	m := newTestVM(host.NewSandbox())
	tests := []struct {
		name string
		a, b int64
		want int64
	}{
		{"+", 2, 3, 5},
		{"-", 5, 3, 2},
		{"*", 4, 3, 12},
		{"/", 10, 3, 3},
		{"%", 10, 3, 1},
	}
	for _, tt := range tests {
		v, d := m.callOperator(tt.name, []Value{IntValue(tt.a), IntValue(tt.b)})
		if d != nil {
			t.Fatalf("%s(%d,%d) trapped: %v", tt.name, tt.a, tt.b, d)
		}
		if v.Kind != KindInt || v.I != tt.want {
			t.Fatalf("%s(%d,%d) = %v, want %d", tt.name, tt.a, tt.b, v, tt.want)
		}
	}
}

func TestCallOperatorDivisionByZeroTraps(t *testing.T) {
	m := newTestVM(host.NewSandbox())
	_, d := m.callOperator("/", []Value{IntValue(1), IntValue(0)})
	if d == nil || d.Code != diag.ETrapArithmetic {
		t.Fatalf("got %v, want ETrapArithmetic", d)
	}
}

func TestCallOperatorEqualityIsStructural(t *testing.T) {
	m := newTestVM(host.NewSandbox())
	a := AdtValue("Pair", []Value{IntValue(1), StringValue("x")})
	b := AdtValue("Pair", []Value{IntValue(1), StringValue("x")})
	v, d := m.callOperator("==", []Value{a, b})
	if d != nil {
		t.Fatalf("unexpected trap: %v", d)
	}
	if v.Kind != KindBool || !v.B {
		t.Fatalf("== on structurally equal Adts = %v, want true", v)
	}
}

func TestCallOperatorLenOnString(t *testing.T) {
	m := newTestVM(host.NewSandbox())
	v, d := m.callOperator("len", []Value{StringValue("héllo")})
	if d != nil {
		t.Fatalf("unexpected trap: %v", d)
	}
	if v.Kind != KindInt || v.I != 5 {
		t.Fatalf("len(héllo) = %v, want 5 (rune count)", v)
	}
}

func TestParseJSONRoundTripsThroughStringify(t *testing.T) {
	v := parseJSON(`{"a":1,"b":[true,null,"x"]}`)
	if v.Kind != KindAdt || v.Adt.Tag != "Ok" {
		t.Fatalf("parseJSON = %v, want Ok(...)", v)
	}
	out := stringifyJSON(v.Adt.Fields[0])
	reparsed := parseJSON(out)
	if reparsed.Kind != KindAdt || reparsed.Adt.Tag != "Ok" {
		t.Fatalf("stringify output did not reparse as valid JSON: %q", out)
	}
}

func TestParseJSONInvalidInputIsEr(t *testing.T) {
	v := parseJSON("{not json")
	if v.Kind != KindAdt || v.Adt.Tag != "Er" {
		t.Fatalf("parseJSON(invalid) = %v, want Er(...)", v)
	}
}

func TestStringifyJSONFallsBackForNonJSONShapedValue(t *testing.T) {
	out := stringifyJSON(IntValue(7))
	if out != "Int:7" {
		t.Fatalf("stringifyJSON(Int(7)) = %q, want %q", out, "Int:7")
	}
}

func TestSjsonEscapeKeyEscapesPathMetacharacters(t *testing.T) {
	if got := sjsonEscapeKey("a.b*c?d"); got != `a\.b\*c\?d` {
		t.Fatalf("sjsonEscapeKey = %q", got)
	}
}

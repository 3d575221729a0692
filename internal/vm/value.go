// Package vm implements mu's fuel-bounded stack interpreter (spec.md §4.6):
// frames, the value stack, checked arithmetic, ADT/closure handling, the
// fixed builtin table, and the trap taxonomy. It consumes a decoded
// *bytecode.Chunk plus a Host and never mutates either across frames beyond
// what the host itself owns.
package vm

import (
	"fmt"
	"sort"
	"strings"
)

// Kind tags a runtime Value (spec.md §3 "Values (VM)").
type Kind byte

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindArray
	KindMap
	KindAdt
	KindClosure
	KindUnit
)

// Adt is a constructor application: a tag name plus its positional fields.
// Ok(x)/Er(x) are always-available Adt tags representing Result, per
// spec.md §3's invariant; a 2-tuple is represented as an Adt tagged "Tuple".
type Adt struct {
	Tag    string
	Fields []Value
}

// Closure is a function reference plus its snapshotted captures.
type Closure struct {
	FnID     uint32
	Captures []Value
}

// Value is a tagged-union runtime value. It mirrors the teacher's
// Value{Type, Data} shape (internal/bytecode/bytecode.go in the teacher
// repo) rather than a Go interface, since every VM opcode handler needs a
// cheap type switch, not dynamic dispatch.
type Value struct {
	Kind Kind
	I    int64
	F    float64
	B    bool
	S    string
	Arr  []Value
	M    map[string]Value
	Adt  *Adt
	Clo  *Closure
}

func IntValue(i int64) Value         { return Value{Kind: KindInt, I: i} }
func FloatValue(f float64) Value     { return Value{Kind: KindFloat, F: f} }
func BoolValue(b bool) Value         { return Value{Kind: KindBool, B: b} }
func StringValue(s string) Value     { return Value{Kind: KindString, S: s} }
func ArrayValue(a []Value) Value     { return Value{Kind: KindArray, Arr: a} }
func MapValue(m map[string]Value) Value { return Value{Kind: KindMap, M: m} }
func UnitValue() Value               { return Value{Kind: KindUnit} }

func AdtValue(tag string, fields []Value) Value {
	return Value{Kind: KindAdt, Adt: &Adt{Tag: tag, Fields: fields}}
}

func ClosureValue(fnID uint32, captures []Value) Value {
	return Value{Kind: KindClosure, Clo: &Closure{FnID: fnID, Captures: captures}}
}

// OkValue/ErValue construct the always-available Result constructors.
func OkValue(x Value) Value { return AdtValue("Ok", []Value{x}) }
func ErValue(x Value) Value { return AdtValue("Er", []Value{x}) }

func (v Value) TypeName() string {
	switch v.Kind {
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindBool:
		return "Bool"
	case KindString:
		return "String"
	case KindArray:
		return "Array"
	case KindMap:
		return "Map"
	case KindAdt:
		return "Adt(" + v.Adt.Tag + ")"
	case KindClosure:
		return "Closure"
	case KindUnit:
		return "Unit"
	}
	return "?"
}

// Equal implements mu's structural equality (spec.md §3: "Equality is
// structural.").
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindInt:
		return a.I == b.I
	case KindFloat:
		return a.F == b.F
	case KindBool:
		return a.B == b.B
	case KindString:
		return a.S == b.S
	case KindUnit:
		return true
	case KindArray:
		if len(a.Arr) != len(b.Arr) {
			return false
		}
		for i := range a.Arr {
			if !Equal(a.Arr[i], b.Arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.M) != len(b.M) {
			return false
		}
		for k, av := range a.M {
			bv, ok := b.M[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case KindAdt:
		if a.Adt.Tag != b.Adt.Tag || len(a.Adt.Fields) != len(b.Adt.Fields) {
			return false
		}
		for i := range a.Adt.Fields {
			if !Equal(a.Adt.Fields[i], b.Adt.Fields[i]) {
				return false
			}
		}
		return true
	case KindClosure:
		if a.Clo.FnID != b.Clo.FnID || len(a.Clo.Captures) != len(b.Clo.Captures) {
			return false
		}
		for i := range a.Clo.Captures {
			if !Equal(a.Clo.Captures[i], b.Clo.Captures[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders a Value for debugging and for the `stringify` builtin's
// fallback path on non-JSON-shaped values.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.I)
	case KindFloat:
		return fmt.Sprintf("%g", v.F)
	case KindBool:
		return fmt.Sprintf("%t", v.B)
	case KindString:
		return v.S
	case KindUnit:
		return "()"
	case KindArray:
		parts := make([]string, len(v.Arr))
		for i, e := range v.Arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ",") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.M))
		for k := range v.M {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + v.M[k].String()
		}
		return "{" + strings.Join(parts, ",") + "}"
	case KindAdt:
		if len(v.Adt.Fields) == 0 {
			return v.Adt.Tag
		}
		parts := make([]string, len(v.Adt.Fields))
		for i, f := range v.Adt.Fields {
			parts[i] = f.String()
		}
		return v.Adt.Tag + "(" + strings.Join(parts, ",") + ")"
	case KindClosure:
		return fmt.Sprintf("<closure #%d>", v.Clo.FnID)
	}
	return "<?>"
}

package vm

import (
	"strconv"
	"unicode/utf8"

	"github.com/muscript-lang/mu/internal/diag"
	"github.com/muscript-lang/mu/internal/host"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// callBuiltin dispatches one of the fixed builtin ids (spec.md §4.6). Non-io
// errors surfaced by a capability (read/write/run/get) become an Er(...)
// result rather than a trap: only a structurally malformed call (wrong arg
// count/type, which a checked program never produces) traps.
func (vm *VM) callBuiltin(name string, args []Value) (Value, *diag.Diagnostic) {
	switch name {
	case "print":
		if err := vm.host.IOPrint(args[0].S); err != nil {
			if err == host.ErrOutputLimit {
				return Value{}, trapf(diag.ESandboxOutputLimit, "print: %v", err)
			}
			return Value{}, trapf(diag.ETrapStackUnderflow, "print: %v", err)
		}
		return UnitValue(), nil
	case "println":
		if err := vm.host.IOPrintln(args[0].S); err != nil {
			if err == host.ErrOutputLimit {
				return Value{}, trapf(diag.ESandboxOutputLimit, "println: %v", err)
			}
			return Value{}, trapf(diag.ETrapStackUnderflow, "println: %v", err)
		}
		return UnitValue(), nil
	case "readln":
		line, err := vm.host.IOReadln()
		if err != nil {
			return StringValue(""), nil
		}
		return StringValue(line), nil
	case "read":
		data, err := vm.host.FSReadToString(args[0].S)
		if err != nil {
			return ErValue(StringValue(err.Error())), nil
		}
		return OkValue(StringValue(data)), nil
	case "write":
		if err := vm.host.FSWriteString(args[0].S, args[1].S); err != nil {
			return ErValue(StringValue(err.Error())), nil
		}
		return OkValue(UnitValue()), nil
	case "parse":
		return parseJSON(args[0].S), nil
	case "stringify":
		return StringValue(stringifyJSON(args[0])), nil
	case "run":
		if args[1].Kind != KindArray {
			return ErValue(StringValue("run: args must be an array of strings")), nil
		}
		cmdArgs := make([]string, len(args[1].Arr))
		for i, a := range args[1].Arr {
			cmdArgs[i] = a.S
		}
		code, err := vm.host.ProcRun(args[0].S, cmdArgs)
		if err != nil {
			return ErValue(StringValue(err.Error())), nil
		}
		return OkValue(IntValue(int64(code))), nil
	case "get":
		body, err := vm.host.HTTPGet(args[0].S)
		if err != nil {
			return ErValue(StringValue(err.Error())), nil
		}
		return OkValue(StringValue(body)), nil
	}
	return vm.callOperator(name, args)
}

func (vm *VM) callOperator(name string, args []Value) (Value, *diag.Diagnostic) {
	switch name {
	case "+", "-", "*", "/", "%":
		if args[0].Kind != KindInt || args[1].Kind != KindInt {
			return Value{}, trapf(diag.ETrapArithmetic, "%s requires Int operands", name)
		}
		a, b := args[0].I, args[1].I
		var r int64
		var ok bool
		switch name {
		case "+":
			r, ok = checkedAdd(a, b)
		case "-":
			r, ok = checkedSub(a, b)
		case "*":
			r, ok = checkedMul(a, b)
		case "/":
			r, ok = checkedDiv(a, b)
		case "%":
			r, ok = checkedMod(a, b)
		}
		if !ok {
			return Value{}, trapf(diag.ETrapArithmetic, "integer overflow or division by zero in %q", name)
		}
		return IntValue(r), nil
	case "neg":
		if args[0].Kind != KindInt {
			return Value{}, trap(diag.ETrapArithmetic, "neg requires an Int operand")
		}
		r, ok := checkedNeg(args[0].I)
		if !ok {
			return Value{}, trap(diag.ETrapArithmetic, "integer overflow negating math.MinInt64")
		}
		return IntValue(r), nil
	case "==":
		return BoolValue(Equal(args[0], args[1])), nil
	case "!=":
		return BoolValue(!Equal(args[0], args[1])), nil
	case "<", "<=", ">", ">=":
		if args[0].Kind != KindInt || args[1].Kind != KindInt {
			return Value{}, trapf(diag.ETrapArithmetic, "%s requires Int operands", name)
		}
		a, b := args[0].I, args[1].I
		var r bool
		switch name {
		case "<":
			r = a < b
		case "<=":
			r = a <= b
		case ">":
			r = a > b
		case ">=":
			r = a >= b
		}
		return BoolValue(r), nil
	case "and":
		return BoolValue(args[0].B && args[1].B), nil
	case "or":
		return BoolValue(args[0].B || args[1].B), nil
	case "not":
		return BoolValue(!args[0].B), nil
	case "str_cat":
		return StringValue(args[0].S + args[1].S), nil
	case "len":
		switch args[0].Kind {
		case KindString:
			return IntValue(int64(utf8.RuneCountInString(args[0].S))), nil
		case KindArray:
			return IntValue(int64(len(args[0].Arr))), nil
		case KindMap:
			return IntValue(int64(len(args[0].M))), nil
		}
		return Value{}, trap(diag.ETrapArithmetic, "len requires a String, Array, or Map operand")
	}
	return Value{}, trapf(diag.ETrapStackUnderflow, "unknown operator builtin %q", name)
}

// parseJSON implements the `parse` builtin: a JSON text parses to
// Ok(JsonAdt) or Er(msg), where JsonAdt is
// `Null | Bool(b) | Num(f64) | Str(s) | Arr(Json[]) | Obj({s:Json})`
// (spec.md §4.6). Walking is done with gjson rather than encoding/json so
// number/string/array/object structure is available without an intermediate
// interface{} tree.
func parseJSON(text string) Value {
	if !gjson.Valid(text) {
		return ErValue(StringValue("invalid JSON"))
	}
	return OkValue(gjsonToAdt(gjson.Parse(text)))
}

func gjsonToAdt(r gjson.Result) Value {
	switch r.Type {
	case gjson.Null:
		return AdtValue("Null", nil)
	case gjson.True, gjson.False:
		return AdtValue("Bool", []Value{BoolValue(r.Bool())})
	case gjson.Number:
		return AdtValue("Num", []Value{FloatValue(r.Float())})
	case gjson.String:
		return AdtValue("Str", []Value{StringValue(r.String())})
	}
	if r.IsArray() {
		var items []Value
		r.ForEach(func(_, v gjson.Result) bool {
			items = append(items, gjsonToAdt(v))
			return true
		})
		return AdtValue("Arr", []Value{ArrayValue(items)})
	}
	if r.IsObject() {
		m := map[string]Value{}
		r.ForEach(func(k, v gjson.Result) bool {
			m[k.String()] = gjsonToAdt(v)
			return true
		})
		return AdtValue("Obj", []Value{MapValue(m)})
	}
	return AdtValue("Null", nil)
}

// stringifyJSON implements the `stringify` builtin: it roundtrips a
// JSON-shaped ADT to canonical JSON text, using sjson to build the document
// key by key and tidwall/pretty to collapse it to a single deterministic
// line. A value that isn't JSON-shaped falls back to a type-tagged string
// (spec.md §4.6 "otherwise falls back to a type-tagged string").
func stringifyJSON(v Value) string {
	raw, ok := adtToJSONRaw(v)
	if !ok {
		return v.TypeName() + ":" + v.String()
	}
	return string(pretty.Ugly([]byte(raw)))
}

func adtToJSONRaw(v Value) (string, bool) {
	if v.Kind != KindAdt {
		return "", false
	}
	switch v.Adt.Tag {
	case "Null":
		return "null", true
	case "Bool":
		return strconv.FormatBool(v.Adt.Fields[0].B), true
	case "Num":
		return strconv.FormatFloat(v.Adt.Fields[0].F, 'g', -1, 64), true
	case "Str":
		raw, err := sjson.Set("", "-1", v.Adt.Fields[0].S)
		if err != nil {
			return "", false
		}
		return gjson.Parse(raw).Array()[0].Raw, true
	case "Arr":
		doc := "[]"
		for i, item := range v.Adt.Fields[0].Arr {
			raw, ok := adtToJSONRaw(item)
			if !ok {
				return "", false
			}
			var err error
			doc, err = sjson.SetRaw(doc, strconv.Itoa(i), raw)
			if err != nil {
				return "", false
			}
		}
		return doc, true
	case "Obj":
		doc := "{}"
		for k, item := range v.Adt.Fields[0].M {
			raw, ok := adtToJSONRaw(item)
			if !ok {
				return "", false
			}
			var err error
			doc, err = sjson.SetRaw(doc, sjsonEscapeKey(k), raw)
			if err != nil {
				return "", false
			}
		}
		return doc, true
	}
	return "", false
}

// sjsonEscapeKey escapes a map key so a literal "." or "*" in it isn't
// interpreted as an sjson path separator/wildcard.
func sjsonEscapeKey(k string) string {
	out := make([]byte, 0, len(k))
	for i := 0; i < len(k); i++ {
		switch k[i] {
		case '.', '*', '?':
			out = append(out, '\\')
		}
		out = append(out, k[i])
	}
	return string(out)
}

// Package bytecode implements mu's stack-machine ISA: opcode table,
// AST -> Chunk lowering (Compiler), and the deterministic MUB1 binary codec,
// per spec.md §4.5.
package bytecode

// Op is a single-byte opcode.
type Op byte

const (
	PushInt       Op = 1
	PushBool      Op = 2
	PushString    Op = 3
	PushUnit      Op = 4
	LoadLocal     Op = 5
	StoreLocal    Op = 6
	Pop           Op = 7
	Jump          Op = 8
	JumpIfFalse   Op = 9
	CallBuiltin   Op = 10
	Return        Op = 11
	MkAdt         Op = 12
	JumpIfTag     Op = 13
	AssertConst   Op = 14
	AssertDyn     Op = 15
	GetAdtField   Op = 16
	CallFn        Op = 17
	MkClosure     Op = 18
	CallClosure   Op = 19
	Trap          Op = 20
	ContractConst Op = 21
)

var opNames = map[Op]string{
	PushInt: "PushInt", PushBool: "PushBool", PushString: "PushString", PushUnit: "PushUnit",
	LoadLocal: "LoadLocal", StoreLocal: "StoreLocal", Pop: "Pop",
	Jump: "Jump", JumpIfFalse: "JumpIfFalse", CallBuiltin: "CallBuiltin", Return: "Return",
	MkAdt: "MkAdt", JumpIfTag: "JumpIfTag", AssertConst: "AssertConst", AssertDyn: "AssertDyn",
	GetAdtField: "GetAdtField", CallFn: "CallFn", MkClosure: "MkClosure", CallClosure: "CallClosure",
	Trap: "Trap", ContractConst: "ContractConst",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "UNKNOWN"
}

// IsValid reports whether b names a known opcode (used by the decoder to
// raise E4107 on an unrecognized byte).
func IsValid(b byte) bool {
	_, ok := opNames[Op(b)]
	return ok
}

// Builtins is the fixed numeric-id <-> name table (spec.md §4.6, §9 "Global
// state"). Order is the declaration order below and MUST NOT change once
// bytecode is in the wild, since CallBuiltin encodes the id, not the name.
var Builtins = []string{
	"print", "println", "readln", "read", "write", "parse", "stringify", "run", "get",
	"+", "-", "*", "/", "%", "==", "!=", "<", "<=", ">", ">=",
	"and", "or", "not", "neg", "str_cat", "len",
}

var builtinID = func() map[string]uint8 {
	m := make(map[string]uint8, len(Builtins))
	for i, name := range Builtins {
		m[name] = uint8(i)
	}
	return m
}()

// BuiltinID returns the fixed id for a builtin name.
func BuiltinID(name string) (uint8, bool) {
	id, ok := builtinID[name]
	return id, ok
}

// BuiltinName returns the name for a builtin id, used by the decoder to
// validate CallBuiltin operands (E4108 on an unknown id).
func BuiltinName(id uint8) (string, bool) {
	if int(id) >= len(Builtins) {
		return "", false
	}
	return Builtins[id], true
}

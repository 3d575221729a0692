package vm

import (
	"math"

	"github.com/muscript-lang/mu/internal/bytecode"
	"github.com/muscript-lang/mu/internal/diag"
	"github.com/muscript-lang/mu/internal/host"
)

// frame is a per-call record {fn_id, ip, locals}, per spec.md §4.6.
type frame struct {
	fnID   uint32
	ip     int
	locals []Value
}

// VM is a single-threaded, cooperative, fuel-bounded stack interpreter over
// a decoded Chunk. Its value stack is shared across frames; each frame owns
// only its locals, per spec.md §5 "Resources".
type VM struct {
	chunk  *bytecode.Chunk
	host   host.Host
	fuel   uint64
	stack  []Value
	frames []frame
}

// New builds a VM ready to execute chunk's entry function against h, bounded
// to fuel total instruction dispatches (spec.md §5 "Cancellation and
// timeouts").
func New(chunk *bytecode.Chunk, h host.Host, fuel uint64) *VM {
	return &VM{chunk: chunk, host: h, fuel: fuel}
}

func (vm *VM) push(v Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() (Value, *diag.Diagnostic) {
	if len(vm.stack) == 0 {
		return Value{}, trap(diag.ETrapStackUnderflow, "value stack underflow")
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

// popN pops n values off the stack in the order they were pushed (i.e. the
// result's index 0 is the first one pushed, not the most recent).
func (vm *VM) popN(n int) ([]Value, *diag.Diagnostic) {
	if n == 0 {
		return nil, nil
	}
	if len(vm.stack) < n {
		return nil, trap(diag.ETrapStackUnderflow, "value stack underflow popping arguments")
	}
	out := make([]Value, n)
	copy(out, vm.stack[len(vm.stack)-n:])
	vm.stack = vm.stack[:len(vm.stack)-n]
	return out, nil
}

func trap(code diag.Code, msg string) *diag.Diagnostic {
	return diag.New(code, diag.Span{}, msg)
}

func trapf(code diag.Code, format string, args ...any) *diag.Diagnostic {
	return diag.Newf(code, diag.Span{}, format, args...)
}

func ensureSlot(locals []Value, idx int) []Value {
	for len(locals) <= idx {
		locals = append(locals, UnitValue())
	}
	return locals
}

func readU32(code []byte, at int) uint32 {
	return uint32(code[at]) | uint32(code[at+1])<<8 | uint32(code[at+2])<<16 | uint32(code[at+3])<<24
}

func readI64(code []byte, at int) int64 {
	var u uint64
	for i := 0; i < 8; i++ {
		u |= uint64(code[at+i]) << (8 * i)
	}
	return int64(u)
}

// Run executes the chunk's entry function to completion. It returns the
// program's exit status (spec.md §4.6 "Return ... asserts the returned
// value is an Int") or a trap diagnostic.
func (vm *VM) Run() (int, *diag.Diagnostic) {
	if int(vm.chunk.EntryFn) >= len(vm.chunk.Functions) {
		return 0, trap(diag.ETrapStackUnderflow, "entry function id out of range")
	}
	vm.frames = append(vm.frames, frame{fnID: vm.chunk.EntryFn})

	for len(vm.frames) > 0 {
		if vm.fuel == 0 {
			return 0, trap(diag.ETrapFuelExhausted, "fuel exhausted")
		}
		vm.fuel--

		fr := &vm.frames[len(vm.frames)-1]
		fn := vm.chunk.Functions[fr.fnID]
		code := fn.Code
		if fr.ip >= len(code) {
			return 0, trap(diag.ETrapStackUnderflow, "instruction pointer ran off the end of a function")
		}
		op := bytecode.Op(code[fr.ip])
		fr.ip++

		switch op {
		case bytecode.PushInt:
			vm.push(IntValue(readI64(code, fr.ip)))
			fr.ip += 8
		case bytecode.PushBool:
			vm.push(BoolValue(code[fr.ip] != 0))
			fr.ip++
		case bytecode.PushString:
			idx := readU32(code, fr.ip)
			fr.ip += 4
			vm.push(StringValue(vm.chunk.Strings[idx]))
		case bytecode.PushUnit:
			vm.push(UnitValue())
		case bytecode.LoadLocal:
			slot := int(readU32(code, fr.ip))
			fr.ip += 4
			fr.locals = ensureSlot(fr.locals, slot)
			vm.push(fr.locals[slot])
		case bytecode.StoreLocal:
			slot := int(readU32(code, fr.ip))
			fr.ip += 4
			v, d := vm.pop()
			if d != nil {
				return 0, d
			}
			fr.locals = ensureSlot(fr.locals, slot)
			fr.locals[slot] = v
		case bytecode.Pop:
			if _, d := vm.pop(); d != nil {
				return 0, d
			}
		case bytecode.Jump:
			fr.ip = int(readU32(code, fr.ip))
		case bytecode.JumpIfFalse:
			target := int(readU32(code, fr.ip))
			fr.ip += 4
			cond, d := vm.pop()
			if d != nil {
				return 0, d
			}
			if cond.Kind != KindBool {
				return 0, trap(diag.ETrapStackUnderflow, "JumpIfFalse operand is not a Bool")
			}
			if !cond.B {
				fr.ip = target
			}
		case bytecode.CallBuiltin:
			id := code[fr.ip]
			argc := int(code[fr.ip+1])
			fr.ip += 2
			name, ok := bytecode.BuiltinName(id)
			if !ok {
				return 0, trapf(diag.ETrapStackUnderflow, "unknown builtin id %d", id)
			}
			args, d := vm.popN(argc)
			if d != nil {
				return 0, d
			}
			result, d := vm.callBuiltin(name, args)
			if d != nil {
				return 0, d
			}
			vm.push(result)
		case bytecode.Return:
			v, d := vm.pop()
			if d != nil {
				return 0, d
			}
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				if v.Kind != KindInt {
					return 0, trap(diag.ETrapNonZeroMain, "main did not return an Int")
				}
				if v.I != 0 {
					return int(v.I), trapf(diag.ETrapNonZeroMain, "main returned non-zero exit status %d", v.I)
				}
				return 0, nil
			}
			vm.push(v)
		case bytecode.MkAdt:
			tagIdx := readU32(code, fr.ip)
			argc := int(code[fr.ip+4])
			fr.ip += 5
			fields, d := vm.popN(argc)
			if d != nil {
				return 0, d
			}
			vm.push(AdtValue(vm.chunk.Strings[tagIdx], fields))
		case bytecode.JumpIfTag:
			tagIdx := readU32(code, fr.ip)
			target := int(readU32(code, fr.ip+4))
			fr.ip += 8
			v, d := vm.pop()
			if d != nil {
				return 0, d
			}
			if v.Kind != KindAdt {
				return 0, trap(diag.ETrapStackUnderflow, "JumpIfTag scrutinee is not an Adt")
			}
			if v.Adt.Tag != vm.chunk.Strings[tagIdx] {
				fr.ip = target
			}
		case bytecode.AssertConst:
			strIdx := readU32(code, fr.ip)
			fr.ip += 4
			cond, d := vm.pop()
			if d != nil {
				return 0, d
			}
			if cond.Kind != KindBool {
				return 0, trap(diag.ETrapStackUnderflow, "assert operand is not a Bool")
			}
			if !cond.B {
				return 0, trap(diag.ETrapAssert, vm.chunk.Strings[strIdx])
			}
			vm.push(UnitValue())
		case bytecode.AssertDyn:
			msg, d := vm.pop()
			if d != nil {
				return 0, d
			}
			cond, d := vm.pop()
			if d != nil {
				return 0, d
			}
			if cond.Kind != KindBool {
				return 0, trap(diag.ETrapStackUnderflow, "assert operand is not a Bool")
			}
			if !cond.B {
				return 0, trap(diag.ETrapAssert, msg.S)
			}
			vm.push(UnitValue())
		case bytecode.GetAdtField:
			idx := int(code[fr.ip])
			fr.ip++
			v, d := vm.pop()
			if d != nil {
				return 0, d
			}
			if v.Kind != KindAdt {
				return 0, trap(diag.ETrapStackUnderflow, "GetAdtField on a non-Adt value")
			}
			if idx >= len(v.Adt.Fields) {
				return 0, trapf(diag.ETrapFieldOOB, "Adt field index %d out of range (%d fields)", idx, len(v.Adt.Fields))
			}
			vm.push(v.Adt.Fields[idx])
		case bytecode.CallFn:
			fnID := readU32(code, fr.ip)
			argc := int(code[fr.ip+4])
			fr.ip += 5
			args, d := vm.popN(argc)
			if d != nil {
				return 0, d
			}
			if int(fnID) >= len(vm.chunk.Functions) {
				return 0, trapf(diag.ETrapStackUnderflow, "CallFn target %d out of range", fnID)
			}
			target := vm.chunk.Functions[fnID]
			if int(target.Arity) != argc {
				return 0, trapf(diag.ETrapStackUnderflow, "CallFn arity mismatch: want %d, got %d", target.Arity, argc)
			}
			vm.frames = append(vm.frames, frame{fnID: fnID, locals: args})
		case bytecode.MkClosure:
			fnID := readU32(code, fr.ip)
			nCap := int(code[fr.ip+4])
			fr.ip += 5
			caps, d := vm.popN(nCap)
			if d != nil {
				return 0, d
			}
			vm.push(ClosureValue(fnID, caps))
		case bytecode.CallClosure:
			argc := int(code[fr.ip])
			fr.ip++
			args, d := vm.popN(argc)
			if d != nil {
				return 0, d
			}
			clo, d := vm.pop()
			if d != nil {
				return 0, d
			}
			if clo.Kind != KindClosure {
				return 0, trap(diag.ETrapStackUnderflow, "CallClosure on a non-Closure value")
			}
			if int(clo.Clo.FnID) >= len(vm.chunk.Functions) {
				return 0, trapf(diag.ETrapStackUnderflow, "CallClosure target %d out of range", clo.Clo.FnID)
			}
			target := vm.chunk.Functions[clo.Clo.FnID]
			if int(target.Arity) != argc || int(target.Captures) != len(clo.Clo.Captures) {
				return 0, trapf(diag.ETrapStackUnderflow, "CallClosure arity/capture mismatch calling fn %d", clo.Clo.FnID)
			}
			locals := make([]Value, 0, len(clo.Clo.Captures)+len(args))
			locals = append(locals, clo.Clo.Captures...)
			locals = append(locals, args...)
			vm.frames = append(vm.frames, frame{fnID: clo.Clo.FnID, locals: locals})
		case bytecode.Trap:
			strIdx := readU32(code, fr.ip)
			return 0, trap(diag.ETrapInvalidMatch, vm.chunk.Strings[strIdx])
		case bytecode.ContractConst:
			strIdx := readU32(code, fr.ip)
			fr.ip += 4
			cond, d := vm.pop()
			if d != nil {
				return 0, d
			}
			if cond.Kind != KindBool {
				return 0, trap(diag.ETrapStackUnderflow, "contract operand is not a Bool")
			}
			if !cond.B {
				return 0, trap(diag.ETrapContract, vm.chunk.Strings[strIdx])
			}
			vm.push(UnitValue())
		default:
			return 0, trapf(diag.ETrapStackUnderflow, "unknown opcode %d", byte(op))
		}
	}
	return 0, nil
}

// checkedAdd/Sub/Mul/Div/Mod/Neg implement spec.md §4.6's "checked
// arithmetic discipline": overflow and divide/modulo-by-zero both trap E4003.
func checkedAdd(a, b int64) (int64, bool) {
	r := a + b
	if (b > 0 && r < a) || (b < 0 && r > a) {
		return 0, false
	}
	return r, true
}

func checkedSub(a, b int64) (int64, bool) {
	r := a - b
	if (b < 0 && r < a) || (b > 0 && r > a) {
		return 0, false
	}
	return r, true
}

func checkedMul(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	r := a * b
	if r/b != a {
		return 0, false
	}
	return r, true
}

func checkedDiv(a, b int64) (int64, bool) {
	if b == 0 || (a == math.MinInt64 && b == -1) {
		return 0, false
	}
	return a / b, true
}

func checkedMod(a, b int64) (int64, bool) {
	if b == 0 || (a == math.MinInt64 && b == -1) {
		return 0, false
	}
	return a % b, true
}

func checkedNeg(a int64) (int64, bool) {
	if a == math.MinInt64 {
		return 0, false
	}
	return -a, true
}

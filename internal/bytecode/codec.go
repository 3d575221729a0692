package bytecode

import (
	"bytes"
	"encoding/binary"
	"unicode/utf8"

	"github.com/muscript-lang/mu/internal/diag"
)

var magic = [4]byte{'M', 'U', 'B', '1'}

// Encode serializes a Chunk to its deterministic MUB1 binary form.
// Encode is total: a Chunk built by the Compiler always encodes.
func Encode(c *Chunk) []byte {
	var buf bytes.Buffer
	buf.Write(magic[:])

	writeU32(&buf, uint32(len(c.Strings)))
	for _, s := range c.Strings {
		writeU32(&buf, uint32(len(s)))
		buf.WriteString(s)
	}

	writeU32(&buf, uint32(len(c.Functions)))
	for _, fn := range c.Functions {
		buf.WriteByte(fn.Arity)
		buf.WriteByte(fn.Captures)
		writeU32(&buf, uint32(len(fn.Code)))
		buf.Write(fn.Code)
	}

	writeU32(&buf, c.EntryFn)
	return buf.Bytes()
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

// decoder is a cursor over an undecoded byte slice; every read method
// checks bounds first so Decode never panics on truncated/hostile input.
type decoder struct {
	data []byte
	pos  int
	err  *diag.Diagnostic
}

func (d *decoder) fail(code diag.Code, msg string) {
	if d.err == nil {
		d.err = diag.New(code, diag.Span{}, msg)
	}
}

func (d *decoder) readByte() byte {
	if d.err != nil {
		return 0
	}
	if d.pos+1 > len(d.data) {
		d.fail(diag.ETruncated, "unexpected end of bytecode (expected 1 byte)")
		return 0
	}
	b := d.data[d.pos]
	d.pos++
	return b
}

func (d *decoder) readU32() uint32 {
	if d.err != nil {
		return 0
	}
	if d.pos+4 > len(d.data) {
		d.fail(diag.ETruncated, "unexpected end of bytecode (expected 4 bytes)")
		return 0
	}
	v := binary.LittleEndian.Uint32(d.data[d.pos:])
	d.pos += 4
	return v
}

func (d *decoder) readBytes(n uint32) []byte {
	if d.err != nil {
		return nil
	}
	if d.pos+int(n) > len(d.data) || n > uint32(len(d.data)) {
		d.fail(diag.ETruncated, "unexpected end of bytecode (expected a byte run)")
		return nil
	}
	b := d.data[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return b
}

// remaining is used for the capacity-bound check against declared counts
// (E4104): a declared count that could not possibly fit in what's left of
// the buffer is rejected before attempting to read it element by element.
func (d *decoder) remaining() int {
	return len(d.data) - d.pos
}

// Decode parses and fully validates a MUB1 image. Decode is total: it
// never panics, and every rejection path returns a stable E41xx diagnostic
// instead.
func Decode(data []byte) (*Chunk, *diag.Diagnostic) {
	if len(data) < 4 || !bytes.Equal(data[:4], magic[:]) {
		return nil, diag.New(diag.EBadMagic, diag.Span{}, "bad magic: expected \"MUB1\"")
	}
	d := &decoder{data: data, pos: 4}

	strCount := d.readU32()
	if d.err != nil {
		return nil, d.err
	}
	if int(strCount) > d.remaining() {
		return nil, diag.Newf(diag.ECountOutOfBounds, diag.Span{}, "string count %d exceeds remaining bytes", strCount)
	}
	strings_ := make([]string, 0, strCount)
	for i := uint32(0); i < strCount; i++ {
		n := d.readU32()
		raw := d.readBytes(n)
		if d.err != nil {
			return nil, d.err
		}
		if !utf8.Valid(raw) {
			return nil, diag.Newf(diag.EInvalidUTF8, diag.Span{}, "string table entry %d is not valid UTF-8", i)
		}
		strings_ = append(strings_, string(raw))
	}

	fnCount := d.readU32()
	if d.err != nil {
		return nil, d.err
	}
	if int(fnCount) > d.remaining() {
		return nil, diag.Newf(diag.ECountOutOfBounds, diag.Span{}, "function count %d exceeds remaining bytes", fnCount)
	}
	fns := make([]Function, 0, fnCount)
	for i := uint32(0); i < fnCount; i++ {
		arity := d.readByte()
		captures := d.readByte()
		codeLen := d.readU32()
		if d.err != nil {
			return nil, d.err
		}
		if int(codeLen) > d.remaining() {
			return nil, diag.Newf(diag.ECountOutOfBounds, diag.Span{}, "function %d code length %d exceeds remaining bytes", i, codeLen)
		}
		code := d.readBytes(codeLen)
		if d.err != nil {
			return nil, d.err
		}
		fns = append(fns, Function{Arity: arity, Captures: captures, Code: append([]byte{}, code...)})
	}

	entry := d.readU32()
	if d.err != nil {
		return nil, d.err
	}
	if d.pos != len(d.data) {
		return nil, diag.Newf(diag.ETrailingBytes, diag.Span{}, "%d trailing byte(s) after entry_fn", len(d.data)-d.pos)
	}
	if entry >= uint32(len(fns)) && len(fns) > 0 {
		return nil, diag.Newf(diag.EOperandOutOfRange, diag.Span{}, "entry_fn %d out of range (%d functions)", entry, len(fns))
	}

	chunk := &Chunk{Strings: strings_, Functions: fns, EntryFn: entry}
	if d := validateOperands(chunk); d != nil {
		return nil, d
	}
	return chunk, nil
}

// validateOperands walks every function's code buffer instruction by
// instruction, checking the operand shape itself (not just outer framing):
// string/tag indices in range, jump targets inside the code buffer, opcode
// bytes and builtin ids known (spec.md §4.5 "Decode validation").
func validateOperands(c *Chunk) *diag.Diagnostic {
	for fi, fn := range c.Functions {
		code := fn.Code
		i := 0
		for i < len(code) {
			op := Op(code[i])
			if !IsValid(code[i]) {
				return diag.Newf(diag.EUnknownOpcode, diag.Span{}, "function %d: unknown opcode %d at offset %d", fi, code[i], i)
			}
			i++
			switch op {
			case PushInt:
				if i+8 > len(code) {
					return truncatedOperand(fi, i)
				}
				i += 8
			case PushBool:
				if i+1 > len(code) {
					return truncatedOperand(fi, i)
				}
				i++
			case PushString:
				idx, ok := readOperandU32(code, i)
				if !ok {
					return truncatedOperand(fi, i)
				}
				if int(idx) >= len(c.Strings) {
					return diag.Newf(diag.EOperandOutOfRange, diag.Span{}, "function %d: string index %d out of range", fi, idx)
				}
				i += 4
			case PushUnit, Pop, Return:
				// no immediates
			case LoadLocal, StoreLocal:
				if _, ok := readOperandU32(code, i); !ok {
					return truncatedOperand(fi, i)
				}
				i += 4
			case Jump:
				target, ok := readOperandU32(code, i)
				if !ok {
					return truncatedOperand(fi, i)
				}
				if int(target) > len(code) {
					return diag.Newf(diag.EJumpOutOfRange, diag.Span{}, "function %d: jump target %d beyond code buffer", fi, target)
				}
				i += 4
			case JumpIfFalse:
				target, ok := readOperandU32(code, i)
				if !ok {
					return truncatedOperand(fi, i)
				}
				if int(target) > len(code) {
					return diag.Newf(diag.EJumpOutOfRange, diag.Span{}, "function %d: jump target %d beyond code buffer", fi, target)
				}
				i += 4
			case CallBuiltin:
				if i+2 > len(code) {
					return truncatedOperand(fi, i)
				}
				id := code[i]
				if _, ok := BuiltinName(id); !ok {
					return diag.Newf(diag.EUnknownBuiltin, diag.Span{}, "function %d: unknown builtin id %d", fi, id)
				}
				i += 2
			case MkAdt:
				idx, ok := readOperandU32(code, i)
				if !ok || i+5 > len(code) {
					return truncatedOperand(fi, i)
				}
				if int(idx) >= len(c.Strings) {
					return diag.Newf(diag.EOperandOutOfRange, diag.Span{}, "function %d: tag index %d out of range", fi, idx)
				}
				i += 5
			case JumpIfTag:
				idx, ok1 := readOperandU32(code, i)
				target, ok2 := readOperandU32(code, i+4)
				if !ok1 || !ok2 {
					return truncatedOperand(fi, i)
				}
				if int(idx) >= len(c.Strings) {
					return diag.Newf(diag.EOperandOutOfRange, diag.Span{}, "function %d: tag index %d out of range", fi, idx)
				}
				if int(target) > len(code) {
					return diag.Newf(diag.EJumpOutOfRange, diag.Span{}, "function %d: jump target %d beyond code buffer", fi, target)
				}
				i += 8
			case AssertConst, Trap, ContractConst:
				idx, ok := readOperandU32(code, i)
				if !ok {
					return truncatedOperand(fi, i)
				}
				if int(idx) >= len(c.Strings) {
					return diag.Newf(diag.EOperandOutOfRange, diag.Span{}, "function %d: string index %d out of range", fi, idx)
				}
				i += 4
			case AssertDyn:
				// no immediates
			case GetAdtField:
				if i+1 > len(code) {
					return truncatedOperand(fi, i)
				}
				i++
			case CallFn:
				idx, ok := readOperandU32(code, i)
				if !ok || i+5 > len(code) {
					return truncatedOperand(fi, i)
				}
				if idx >= uint32(len(c.Functions)) {
					return diag.Newf(diag.EOperandOutOfRange, diag.Span{}, "function %d: fn id %d out of range", fi, idx)
				}
				i += 5
			case MkClosure:
				idx, ok := readOperandU32(code, i)
				if !ok || i+5 > len(code) {
					return truncatedOperand(fi, i)
				}
				if idx >= uint32(len(c.Functions)) {
					return diag.Newf(diag.EOperandOutOfRange, diag.Span{}, "function %d: fn id %d out of range", fi, idx)
				}
				i += 5
			case CallClosure:
				if i+1 > len(code) {
					return truncatedOperand(fi, i)
				}
				i++
			}
		}
	}
	return nil
}

func readOperandU32(code []byte, at int) (uint32, bool) {
	if at+4 > len(code) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(code[at : at+4]), true
}

func truncatedOperand(fnIdx, offset int) *diag.Diagnostic {
	return diag.Newf(diag.ETruncated, diag.Span{}, "function %d: truncated operand at offset %d", fnIdx, offset)
}

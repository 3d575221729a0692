package bytecode

import (
	"bytes"
	"testing"

	"github.com/muscript-lang/mu/internal/diag"
)

func sampleChunk() *Chunk {
	return &Chunk{
		Strings: []string{"hello"},
		Functions: []Function{
			{Arity: 0, Captures: 0, Code: []byte{byte(PushString), 0, 0, 0, 0, byte(Return)}},
		},
		EntryFn: 0,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	chunk := sampleChunk()
	data := Encode(chunk)
	decoded, d := Decode(data)
	if d != nil {
		t.Fatalf("Decode failed: %v", d)
	}
	if len(decoded.Strings) != 1 || decoded.Strings[0] != "hello" {
		t.Fatalf("Strings = %v, want [hello]", decoded.Strings)
	}
	if len(decoded.Functions) != 1 || decoded.EntryFn != 0 {
		t.Fatalf("Functions/EntryFn mismatch: %+v", decoded)
	}
	if !bytes.Equal(decoded.Functions[0].Code, chunk.Functions[0].Code) {
		t.Fatalf("Code = %v, want %v", decoded.Functions[0].Code, chunk.Functions[0].Code)
	}
}

func TestEncodeDecodeRoundTripIsByteIdentical(t *testing.T) {
	chunk := sampleChunk()
	a := Encode(chunk)
	decoded, d := Decode(a)
	if d != nil {
		t.Fatalf("Decode failed: %v", d)
	}
	b := Encode(decoded)
	if !bytes.Equal(a, b) {
		t.Fatalf("encode(decode(b)) != b")
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, d := Decode([]byte("XXXX"))
	if d == nil || d.Code != diag.EBadMagic {
		t.Fatalf("got %v, want EBadMagic", d)
	}
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	data := Encode(sampleChunk())
	_, d := Decode(data[:len(data)-2])
	if d == nil {
		t.Fatalf("expected a diagnostic for truncated input")
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	data := append(Encode(sampleChunk()), 0xFF)
	_, d := Decode(data)
	if d == nil || d.Code != diag.ETrailingBytes {
		t.Fatalf("got %v, want ETrailingBytes", d)
	}
}

func TestDecodeRejectsUnknownOpcode(t *testing.T) {
	chunk := &Chunk{
		Functions: []Function{{Code: []byte{0xEE}}},
		EntryFn:   0,
	}
	data := Encode(chunk)
	_, d := Decode(data)
	if d == nil || d.Code != diag.EUnknownOpcode {
		t.Fatalf("got %v, want EUnknownOpcode", d)
	}
}

func TestDecodeRejectsUnknownBuiltinID(t *testing.T) {
	chunk := &Chunk{
		Functions: []Function{{Code: []byte{byte(CallBuiltin), 0xFF, 0}}},
		EntryFn:   0,
	}
	data := Encode(chunk)
	_, d := Decode(data)
	if d == nil || d.Code != diag.EUnknownBuiltin {
		t.Fatalf("got %v, want EUnknownBuiltin", d)
	}
}

func TestDecodeRejectsOutOfRangeStringIndex(t *testing.T) {
	chunk := &Chunk{
		Functions: []Function{{Code: append([]byte{byte(PushString)}, leU32(7)...)}},
		EntryFn:   0,
	}
	data := Encode(chunk)
	_, d := Decode(data)
	if d == nil || d.Code != diag.EOperandOutOfRange {
		t.Fatalf("got %v, want EOperandOutOfRange", d)
	}
}

func TestDecodeRejectsJumpPastEndOfCode(t *testing.T) {
	chunk := &Chunk{
		Functions: []Function{{Code: append([]byte{byte(Jump)}, leU32(999)...)}},
		EntryFn:   0,
	}
	data := Encode(chunk)
	_, d := Decode(data)
	if d == nil || d.Code != diag.EJumpOutOfRange {
		t.Fatalf("got %v, want EJumpOutOfRange", d)
	}
}

func TestDecodeRejectsEntryFnOutOfRange(t *testing.T) {
	chunk := &Chunk{
		Functions: []Function{{Code: []byte{byte(Return)}}},
		EntryFn:   5,
	}
	data := Encode(chunk)
	_, d := Decode(data)
	if d == nil || d.Code != diag.EOperandOutOfRange {
		t.Fatalf("got %v, want EOperandOutOfRange", d)
	}
}

func leU32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// Package types defines mu's type representation and its algebraic effect
// set, per spec.md §3.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Effect is one atom of the closed effect set {io, fs, net, proc, rand, time, st}.
type Effect string

const (
	IO   Effect = "io"
	FS   Effect = "fs"
	Net  Effect = "net"
	Proc Effect = "proc"
	Rand Effect = "rand"
	Time Effect = "time"
	St   Effect = "st"
)

// CanonicalOrder is the fixed atom ordering every effect set must follow.
var CanonicalOrder = []Effect{IO, FS, Net, Proc, Rand, Time, St}

var canonicalRank = func() map[Effect]int {
	m := make(map[Effect]int, len(CanonicalOrder))
	for i, e := range CanonicalOrder {
		m[e] = i
	}
	return m
}()

// CompressedGlyph maps each effect atom to its single-letter compressed-mode
// spelling (spec.md §4.3).
var CompressedGlyph = map[Effect]string{
	IO: "I", FS: "F", Net: "N", Proc: "P", Rand: "R", Time: "T", St: "S",
}

// GlyphEffect is the inverse of CompressedGlyph: it decodes a Compressed-mode
// effect glyph back to its canonical atom (spec.md §4.3 semantic-equivalence
// invariant #2 — Readable and Compressed source must parse to the same AST).
var GlyphEffect = func() map[string]Effect {
	m := make(map[string]Effect, len(CompressedGlyph))
	for e, g := range CompressedGlyph {
		m[g] = e
	}
	return m
}()

// IsKnownAtom reports whether e is one of the seven closed atoms.
func IsKnownAtom(e Effect) bool {
	_, ok := canonicalRank[e]
	return ok
}

// EffectSet is a sorted, duplicate-free sequence of effect atoms.
type EffectSet []Effect

// IsCanonical reports whether es is sorted (per CanonicalOrder) and
// duplicate-free. Parsed source with a non-canonical effect set is a stable
// checker error (E3012); this is the predicate the checker calls.
func (es EffectSet) IsCanonical() bool {
	for i := 1; i < len(es); i++ {
		ri, ok1 := canonicalRank[es[i-1]]
		rj, ok2 := canonicalRank[es[i]]
		if !ok1 || !ok2 {
			return false
		}
		if ri >= rj {
			return false
		}
	}
	for _, e := range es {
		if !IsKnownAtom(e) {
			return false
		}
	}
	return true
}

// Canonicalize returns es sorted into canonical order with duplicates removed.
// Used by the formatter, which always emits effects in canonical order
// regardless of how the AST effect set is stored.
func Canonicalize(es EffectSet) EffectSet {
	seen := make(map[Effect]bool, len(es))
	out := make(EffectSet, 0, len(es))
	for _, e := range es {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return canonicalRank[out[i]] < canonicalRank[out[j]] })
	return out
}

// Union returns the canonical union of a and b, used when propagating
// effects across a call (callee effects ∪ argument effects).
func Union(a, b EffectSet) EffectSet {
	return Canonicalize(append(append(EffectSet{}, a...), b...))
}

// Subset reports whether every effect in sub also appears in super —
// the test behind "declared effects ⊇ actual effects" (spec.md §4.4).
func Subset(sub, super EffectSet) bool {
	have := make(map[Effect]bool, len(super))
	for _, e := range super {
		have[e] = true
	}
	for _, e := range sub {
		if !have[e] {
			return false
		}
	}
	return true
}

// String renders an effect set using full atom names, e.g. "{io,fs}".
func (es EffectSet) String() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = string(e)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Compressed renders an effect set using the single-letter glyph map, e.g. "{I,F}".
func (es EffectSet) Compressed() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = CompressedGlyph[e]
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Type is the sum type of mu's type grammar (spec.md §3).
type Type interface {
	isType()
	String() string
}

type Bool struct{}
type StringT struct{}
type I32 struct{}
type I64 struct{}
type U32 struct{}
type U64 struct{}
type F32 struct{}
type F64 struct{}
type Unit struct{}

// Named is a reference to a user type declaration or a type variable,
// resolved later by the checker.
type Named struct {
	Name string
	Args []Type
}

type Optional struct{ Elem Type }
type Array struct{ Elem Type }
type Map struct{ Key, Value Type }
type Tuple struct{ Items []Type }

type Function struct {
	Params  []Type
	Ret     Type
	Effects EffectSet
}

type Result struct{ Ok, Err Type }

// TypeVar is a parametric type variable in scope (e.g. the `A` in `Opt[A]`).
type TypeVar struct{ Name string }

func (Bool) isType()     {}
func (StringT) isType()  {}
func (I32) isType()      {}
func (I64) isType()      {}
func (U32) isType()      {}
func (U64) isType()      {}
func (F32) isType()      {}
func (F64) isType()      {}
func (Unit) isType()     {}
func (Named) isType()    {}
func (Optional) isType() {}
func (Array) isType()    {}
func (Map) isType()      {}
func (Tuple) isType()    {}
func (Function) isType() {}
func (Result) isType()   {}
func (TypeVar) isType()  {}

func (Bool) String() string    { return "Bool" }
func (StringT) String() string { return "String" }
func (I32) String() string     { return "I32" }
func (I64) String() string     { return "I64" }
func (U32) String() string     { return "U32" }
func (U64) String() string     { return "U64" }
func (F32) String() string     { return "F32" }
func (F64) String() string     { return "F64" }
func (Unit) String() string    { return "Unit" }

func (n Named) String() string {
	if len(n.Args) == 0 {
		return n.Name
	}
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return n.Name + "[" + strings.Join(parts, ",") + "]"
}

func (o Optional) String() string { return o.Elem.String() + "?" }
func (a Array) String() string    { return "[" + a.Elem.String() + "]" }
func (m Map) String() string      { return "Map[" + m.Key.String() + "," + m.Value.String() + "]" }

func (t Tuple) String() string {
	parts := make([]string, len(t.Items))
	for i, it := range t.Items {
		parts[i] = it.String()
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func (f Function) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	s := "(" + strings.Join(parts, ",") + ")->" + f.Ret.String()
	if len(f.Effects) > 0 {
		s += "!" + f.Effects.String()
	}
	return s
}

func (r Result) String() string   { return fmt.Sprintf("Result[%s,%s]", r.Ok.String(), r.Err.String()) }
func (v TypeVar) String() string  { return v.Name }

// Equal reports structural equality of two types, ignoring effect-set
// ordering quirks (effect sets are assumed already canonical by the time
// they reach type equality checks).
func Equal(a, b Type) bool {
	switch av := a.(type) {
	case Bool:
		_, ok := b.(Bool)
		return ok
	case StringT:
		_, ok := b.(StringT)
		return ok
	case I32:
		_, ok := b.(I32)
		return ok
	case I64:
		_, ok := b.(I64)
		return ok
	case U32:
		_, ok := b.(U32)
		return ok
	case U64:
		_, ok := b.(U64)
		return ok
	case F32:
		_, ok := b.(F32)
		return ok
	case F64:
		_, ok := b.(F64)
		return ok
	case Unit:
		_, ok := b.(Unit)
		return ok
	case Named:
		bv, ok := b.(Named)
		if !ok || av.Name != bv.Name || len(av.Args) != len(bv.Args) {
			return false
		}
		for i := range av.Args {
			if !Equal(av.Args[i], bv.Args[i]) {
				return false
			}
		}
		return true
	case Optional:
		bv, ok := b.(Optional)
		return ok && Equal(av.Elem, bv.Elem)
	case Array:
		bv, ok := b.(Array)
		return ok && Equal(av.Elem, bv.Elem)
	case Map:
		bv, ok := b.(Map)
		return ok && Equal(av.Key, bv.Key) && Equal(av.Value, bv.Value)
	case Tuple:
		bv, ok := b.(Tuple)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !Equal(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case Function:
		bv, ok := b.(Function)
		if !ok || len(av.Params) != len(bv.Params) || !Equal(av.Ret, bv.Ret) {
			return false
		}
		for i := range av.Params {
			if !Equal(av.Params[i], bv.Params[i]) {
				return false
			}
		}
		return effectsEqual(av.Effects, bv.Effects)
	case Result:
		bv, ok := b.(Result)
		return ok && Equal(av.Ok, bv.Ok) && Equal(av.Err, bv.Err)
	case TypeVar:
		bv, ok := b.(TypeVar)
		return ok && av.Name == bv.Name
	}
	return false
}

func effectsEqual(a, b EffectSet) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

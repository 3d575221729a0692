package bytecode

import (
	"encoding/binary"

	"github.com/muscript-lang/mu/internal/ast"
	"github.com/muscript-lang/mu/internal/diag"
)

// Compiler lowers a single checked AST module to a Chunk, per spec.md §4.5.
// It operates on one module at a time: sibling modules referenced by Import
// declarations are resolved by the checker for signature validation only —
// the grammar exposes no qualified-call syntax (`alias.name`), so there is
// no cross-module call site for the compiler to lower.
type Compiler struct {
	ctors   map[string]bool
	strings []string
	strIdx  map[string]uint32
	funcs   []Function
	fnID    map[string]uint32 // F-decl name -> function id (direct call)
	valID   map[string]uint32 // V-decl name -> function id (auto-invoked on reference)
	err     *diag.Diagnostic
}

// Compile lowers mod to a Chunk. ctors is the set of constructor names in
// scope (user-declared plus the always-available Ok/Er), used to tell a
// constructor application apart from an ordinary function call.
func Compile(mod *ast.Module, ctors map[string]bool) (*Chunk, *diag.Diagnostic) {
	c := &Compiler{
		ctors:  ctors,
		strIdx: map[string]uint32{},
		fnID:   map[string]uint32{},
		valID:  map[string]uint32{},
	}

	// Reserve ids in spec order: every V decl (source order) first, then
	// every F decl (source order) — spec.md §5 "Ordering guarantees".
	var values []*ast.ValueDecl
	var fns []*ast.FuncDecl
	for _, d := range mod.Decls {
		switch decl := d.(type) {
		case *ast.ValueDecl:
			values = append(values, decl)
		case *ast.FuncDecl:
			fns = append(fns, decl)
		}
	}
	for _, v := range values {
		c.valID[v.Name] = uint32(len(c.funcs))
		c.funcs = append(c.funcs, Function{})
	}
	for _, f := range fns {
		c.fnID[f.Name] = uint32(len(c.funcs))
		c.funcs = append(c.funcs, Function{})
	}

	for _, v := range values {
		c.compileFunction(c.valID[v.Name], nil, nil, v.Expr)
		if c.err != nil {
			return nil, c.err
		}
	}
	for _, f := range fns {
		params := make([]string, len(f.Params))
		for i, p := range f.Params {
			params[i] = p.Name
		}
		c.compileFunction(c.fnID[f.Name], nil, params, f.Body)
		if c.err != nil {
			return nil, c.err
		}
	}

	entry, ok := c.fnID["main"]
	if !ok {
		return nil, diag.New(diag.EBadMainSignature, mod.Span(), "module has no \"main\" function")
	}
	return &Chunk{Strings: c.strings, Functions: c.funcs, EntryFn: entry}, nil
}

func (c *Compiler) intern(s string) uint32 {
	if idx, ok := c.strIdx[s]; ok {
		return idx
	}
	idx := uint32(len(c.strings))
	c.strings = append(c.strings, s)
	c.strIdx[s] = idx
	return idx
}

// funcBuilder accumulates one function's instruction bytes and its visible
// local-name bindings. Scoped bindings are restored by the caller on leaving
// the expression that introduced them (spec.md §5 "Scoped local bindings"),
// mirrored here by snapshot/restore around each recursive compileExpr call.
type funcBuilder struct {
	code     []byte
	locals   map[string]uint32
	active   []string // binding-order stack of currently visible names
	nextSlot uint32
}

func (c *Compiler) compileFunction(id uint32, captures, params []string, body ast.Expr) {
	fb := &funcBuilder{locals: map[string]uint32{}}
	for _, name := range captures {
		fb.bindNew(name)
	}
	for _, name := range params {
		fb.bindNew(name)
	}
	c.compileExpr(fb, body)
	fb.emit(Return)
	c.funcs[id] = Function{Arity: uint8(len(params)), Captures: uint8(len(captures)), Code: fb.code}
}

// bindNew allocates a fresh slot for name, unconditionally (used for
// function entry: params/captures never shadow anything yet).
func (fb *funcBuilder) bindNew(name string) uint32 {
	slot := fb.nextSlot
	fb.nextSlot++
	fb.locals[name] = slot
	fb.active = append(fb.active, name)
	return slot
}

// withBinding introduces name for the duration of body, restoring whatever
// binding (if any) name previously had once body returns.
func (fb *funcBuilder) withBinding(name string, body func(slot uint32)) {
	slot := fb.nextSlot
	fb.nextSlot++
	prevSlot, had := fb.locals[name]
	fb.locals[name] = slot
	fb.active = append(fb.active, name)
	body(slot)
	fb.active = fb.active[:len(fb.active)-1]
	if had {
		fb.locals[name] = prevSlot
	} else {
		delete(fb.locals, name)
	}
}

// visibleNames returns the currently bound names in binding order, the
// capture set for a lambda encountered at this point.
func (fb *funcBuilder) visibleNames() []string {
	out := make([]string, len(fb.active))
	copy(out, fb.active)
	return out
}

func (fb *funcBuilder) emit(op Op)        { fb.code = append(fb.code, byte(op)) }
func (fb *funcBuilder) emitByte(b byte)    { fb.code = append(fb.code, b) }
func (fb *funcBuilder) emitU32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	fb.code = append(fb.code, buf[:]...)
}
func (fb *funcBuilder) emitI64(v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	fb.code = append(fb.code, buf[:]...)
}

// here returns the offset a forward jump currently being emitted will patch.
func (fb *funcBuilder) here() int { return len(fb.code) }

func (fb *funcBuilder) emitJumpPlaceholder(op Op) int {
	fb.emit(op)
	pos := fb.here()
	fb.emitU32(0)
	return pos
}

func (fb *funcBuilder) patchJump(operandPos int) {
	binary.LittleEndian.PutUint32(fb.code[operandPos:operandPos+4], uint32(len(fb.code)))
}

func (c *Compiler) compileExpr(fb *funcBuilder, e ast.Expr) {
	switch ex := e.(type) {
	case *ast.BlockExpr:
		for _, s := range ex.Stmts {
			c.compileExpr(fb, s)
			fb.emit(Pop)
		}
		c.compileExpr(fb, ex.Tail)
	case *ast.UnitExpr:
		fb.emit(PushUnit)
	case *ast.IntLit:
		fb.emit(PushInt)
		fb.emitI64(ex.Value)
	case *ast.StringLit:
		fb.emit(PushString)
		fb.emitU32(c.intern(ex.Value))
	case *ast.BoolLit:
		fb.emit(PushBool)
		if ex.Value {
			fb.emitByte(1)
		} else {
			fb.emitByte(0)
		}
	case *ast.LetExpr:
		c.compileExpr(fb, ex.Value)
		fb.withBinding(ex.Name, func(slot uint32) {
			fb.emit(StoreLocal)
			fb.emitU32(slot)
			c.compileExpr(fb, ex.Body)
		})
	case *ast.IfExpr:
		c.compileExpr(fb, ex.Cond)
		elseJump := fb.emitJumpPlaceholder(JumpIfFalse)
		c.compileExpr(fb, ex.Then)
		endJump := fb.emitJumpPlaceholder(Jump)
		fb.patchJump(elseJump)
		c.compileExpr(fb, ex.Else)
		fb.patchJump(endJump)
	case *ast.MatchExpr:
		c.compileMatch(fb, ex)
	case *ast.CallExpr:
		c.compileCall(fb, ex.Callee, ex.Args)
	case *ast.LambdaExpr:
		c.compileLambda(fb, ex)
	case *ast.AssertExpr:
		c.compileExpr(fb, ex.Cond)
		if ex.Msg == nil {
			fb.emit(AssertConst)
			fb.emitU32(c.intern("assertion failed"))
		} else {
			c.compileExpr(fb, ex.Msg)
			fb.emit(AssertDyn)
		}
	case *ast.RequireExpr:
		c.compileExpr(fb, ex.Cond)
		fb.emit(ContractConst)
		fb.emitU32(c.intern("E4002: require failed"))
	case *ast.EnsureExpr:
		c.compileExpr(fb, ex.Cond)
		fb.emit(ContractConst)
		fb.emitU32(c.intern("E4002: ensure failed"))
	case *ast.NameExpr:
		c.compileName(fb, ex.Name)
	case *ast.NameAppExpr:
		c.compileNameApp(fb, ex)
	case *ast.ParenExpr:
		c.compileExpr(fb, ex.Inner)
	default:
		c.fail(e.Span(), "bytecode compiler: unsupported expression node")
	}
}

func (c *Compiler) fail(span diag.Span, msg string) {
	if c.err == nil {
		c.err = diag.New(diag.ECompileUnsupportedPattern, span, msg)
	}
}

// compileName lowers a bare identifier reference that is NOT in call
// position. A reference to a V-decl auto-invokes it (spec.md §4.5); a
// reference to an F-decl yields a first-class closure value over it; a bare
// constructor name builds a field-less ADT value.
func (c *Compiler) compileName(fb *funcBuilder, name string) {
	if slot, ok := fb.locals[name]; ok {
		fb.emit(LoadLocal)
		fb.emitU32(slot)
		return
	}
	if c.ctors[name] {
		c.compileCtorApp(fb, name, nil)
		return
	}
	if id, ok := c.valID[name]; ok {
		fb.emit(CallFn)
		fb.emitU32(id)
		fb.emitByte(0)
		return
	}
	if id, ok := c.fnID[name]; ok {
		fb.emit(MkClosure)
		fb.emitU32(id)
		fb.emitByte(0)
		return
	}
	// Unresolvable names are rejected by the checker before compilation
	// ever runs; reaching here means the AST wasn't checked. Fail closed.
	c.fail(diag.Span{}, "unresolved name \""+name+"\" reached the bytecode compiler")
}

// compileCall lowers a call-form application. A constructor name lowers to
// MkAdt; otherwise a builtin id is tried first, then a top-level function id
// (unless a local of the same name shadows it), and anything else is
// evaluated as a closure value and called through CallClosure.
func (c *Compiler) compileCall(fb *funcBuilder, callee ast.Expr, args []ast.Expr) {
	if name, ok := calleeName(callee); ok {
		if c.ctors[name] {
			c.compileCtorApp(fb, name, args)
			return
		}
		if id, ok := BuiltinID(name); ok {
			for _, a := range args {
				c.compileExpr(fb, a)
			}
			fb.emit(CallBuiltin)
			fb.emitByte(id)
			fb.emitByte(uint8(len(args)))
			return
		}
		if id, ok := c.fnID[name]; ok {
			if _, shadowed := fb.locals[name]; !shadowed {
				for _, a := range args {
					c.compileExpr(fb, a)
				}
				fb.emit(CallFn)
				fb.emitU32(id)
				fb.emitByte(uint8(len(args)))
				return
			}
		}
		if id, ok := c.valID[name]; ok {
			if _, shadowed := fb.locals[name]; !shadowed {
				fb.emit(CallFn)
				fb.emitU32(id)
				fb.emitByte(0)
				for _, a := range args {
					c.compileExpr(fb, a)
				}
				fb.emit(CallClosure)
				fb.emitByte(uint8(len(args)))
				return
			}
		}
	}
	// General case: callee is an arbitrary expression evaluating to a closure.
	c.compileExpr(fb, callee)
	for _, a := range args {
		c.compileExpr(fb, a)
	}
	fb.emit(CallClosure)
	fb.emitByte(uint8(len(args)))
}

func calleeName(e ast.Expr) (string, bool) {
	if n, ok := e.(*ast.NameExpr); ok {
		return n.Name, true
	}
	return "", false
}

func (c *Compiler) compileNameApp(fb *funcBuilder, ex *ast.NameAppExpr) {
	if c.ctors[ex.Name] {
		c.compileCtorApp(fb, ex.Name, ex.Args)
		return
	}
	// Generic function call syntax without the `c(...)` wrapper.
	c.compileCall(fb, ast.NewNameExpr(ex.Span(), ex.Name), ex.Args)
}

func (c *Compiler) compileCtorApp(fb *funcBuilder, name string, args []ast.Expr) {
	for _, a := range args {
		c.compileExpr(fb, a)
	}
	fb.emit(MkAdt)
	fb.emitU32(c.intern(name))
	fb.emitByte(uint8(len(args)))
}

func (c *Compiler) compileLambda(fb *funcBuilder, lam *ast.LambdaExpr) {
	paramSet := make(map[string]bool, len(lam.Params))
	for _, p := range lam.Params {
		paramSet[p.Name] = true
	}
	var captured []string
	for _, name := range fb.visibleNames() {
		if !paramSet[name] {
			captured = append(captured, name)
		}
	}
	// Dedup while preserving the last (innermost-shadowing) occurrence.
	captured = dedupLast(captured)

	for _, name := range captured {
		fb.emit(LoadLocal)
		fb.emitU32(fb.locals[name])
	}

	lamID := uint32(len(c.funcs))
	c.funcs = append(c.funcs, Function{})
	params := make([]string, len(lam.Params))
	for i, p := range lam.Params {
		params[i] = p.Name
	}
	c.compileFunction(lamID, captured, params, lam.Body)

	fb.emit(MkClosure)
	fb.emitU32(lamID)
	fb.emitByte(uint8(len(captured)))
}

func dedupLast(names []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(names))
	for i := len(names) - 1; i >= 0; i-- {
		if !seen[names[i]] {
			seen[names[i]] = true
			out = append(out, names[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// compileMatch evaluates the scrutinee once into a fresh local, then lowers
// arms top to bottom. JumpIfTag pops its scrutinee unconditionally on both
// the match and no-match path (spec.md §9 open question, resolved in
// DESIGN.md); each arm that needs the ADT again (for field extraction)
// reloads it from the scrutinee local.
func (c *Compiler) compileMatch(fb *funcBuilder, m *ast.MatchExpr) {
	c.compileExpr(fb, m.Scrutinee)
	fb.withBinding("$scrutinee", func(scrutSlot uint32) {
		fb.emit(StoreLocal)
		fb.emitU32(scrutSlot)

		var endJumps []int
		hasCatchAll := false
		for _, arm := range m.Arms {
			if c.err != nil {
				return
			}
			c.compileArm(fb, scrutSlot, arm.Pattern, arm.Body, &endJumps, &hasCatchAll)
		}
		if !hasCatchAll {
			fb.emit(Trap)
			fb.emitU32(c.intern("E4005: invalid match"))
		}
		for _, pos := range endJumps {
			fb.patchJump(pos)
		}
	})
}

// compileArm lowers one match arm's pattern test plus body, appending the
// body's trailing Jump-to-end patch site to endJumps and flagging
// *hasCatchAll when the arm matches unconditionally (wildcard, binding name,
// or a ParenPattern wrapping either).
func (c *Compiler) compileArm(fb *funcBuilder, scrutSlot uint32, pat ast.Pattern, body ast.Expr, endJumps *[]int, hasCatchAll *bool) {
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		*hasCatchAll = true
		c.compileExpr(fb, body)
		*endJumps = append(*endJumps, fb.emitJumpPlaceholder(Jump))

	case *ast.ParenPattern:
		c.compileArm(fb, scrutSlot, p.Inner, body, endJumps, hasCatchAll)

	case *ast.LiteralPattern:
		lit, ok := p.Value.(*ast.BoolLit)
		if !ok {
			c.fail(pat.Span(), "E4009: integer/string literal patterns are not supported by the bytecode compiler")
			return
		}
		fb.emit(LoadLocal)
		fb.emitU32(scrutSlot)
		if !lit.Value {
			notID, _ := BuiltinID("not")
			fb.emit(CallBuiltin)
			fb.emitByte(notID)
			fb.emitByte(1)
		}
		nextArm := fb.emitJumpPlaceholder(JumpIfFalse)
		c.compileExpr(fb, body)
		*endJumps = append(*endJumps, fb.emitJumpPlaceholder(Jump))
		fb.patchJump(nextArm)

	case *ast.CtorPattern:
		fb.emit(LoadLocal)
		fb.emitU32(scrutSlot)
		fb.emit(JumpIfTag)
		fb.emitU32(c.intern(p.Name))
		nextArm := fb.here()
		fb.emitU32(0)
		c.compileCtorFields(fb, scrutSlot, p.Args, body)
		*endJumps = append(*endJumps, fb.emitJumpPlaceholder(Jump))
		fb.patchJump(nextArm)

	case *ast.NamePattern:
		if c.ctors[p.Name] {
			fb.emit(LoadLocal)
			fb.emitU32(scrutSlot)
			fb.emit(JumpIfTag)
			fb.emitU32(c.intern(p.Name))
			nextArm := fb.here()
			fb.emitU32(0)
			c.compileExpr(fb, body)
			*endJumps = append(*endJumps, fb.emitJumpPlaceholder(Jump))
			fb.patchJump(nextArm)
			return
		}
		*hasCatchAll = true
		fb.withBinding(p.Name, func(slot uint32) {
			fb.emit(LoadLocal)
			fb.emitU32(scrutSlot)
			fb.emit(StoreLocal)
			fb.emitU32(slot)
			c.compileExpr(fb, body)
		})
		*endJumps = append(*endJumps, fb.emitJumpPlaceholder(Jump))

	case *ast.TuplePattern:
		c.compileTupleFields(fb, scrutSlot, p.Items, body)
		*endJumps = append(*endJumps, fb.emitJumpPlaceholder(Jump))

	default:
		c.fail(pat.Span(), "bytecode compiler: unsupported pattern kind")
	}
}

func (c *Compiler) compileCtorFields(fb *funcBuilder, scrutSlot uint32, args []ast.Pattern, body ast.Expr) {
	binders := make([]string, 0, len(args))
	for _, a := range args {
		if np, ok := a.(*ast.NamePattern); ok && !c.ctors[np.Name] {
			binders = append(binders, np.Name)
		} else {
			binders = append(binders, "")
		}
	}
	c.bindCtorFieldsRec(fb, scrutSlot, binders, 0, body)
}

func (c *Compiler) bindCtorFieldsRec(fb *funcBuilder, scrutSlot uint32, binders []string, i int, body ast.Expr) {
	if i >= len(binders) {
		c.compileExpr(fb, body)
		return
	}
	if binders[i] == "" {
		c.bindCtorFieldsRec(fb, scrutSlot, binders, i+1, body)
		return
	}
	fb.withBinding(binders[i], func(slot uint32) {
		fb.emit(LoadLocal)
		fb.emitU32(scrutSlot)
		fb.emit(GetAdtField)
		fb.emitByte(uint8(i))
		fb.emit(StoreLocal)
		fb.emitU32(slot)
		c.bindCtorFieldsRec(fb, scrutSlot, binders, i+1, body)
	})
}

// compileTupleFields destructures a tuple scrutinee, which the VM represents
// as an Adt tagged "Tuple" (see internal/vm): no runtime tag test is needed
// since the checker already establishes the scrutinee's static tuple type.
func (c *Compiler) compileTupleFields(fb *funcBuilder, scrutSlot uint32, items []ast.Pattern, body ast.Expr) {
	binders := make([]string, 0, len(items))
	for _, it := range items {
		if np, ok := it.(*ast.NamePattern); ok && !c.ctors[np.Name] {
			binders = append(binders, np.Name)
		} else {
			binders = append(binders, "")
		}
	}
	c.bindCtorFieldsRec(fb, scrutSlot, binders, 0, body)
}

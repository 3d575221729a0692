// Package check implements mu's two-phase type and effect checker, per
// spec.md §4.4: phase 1 collects a per-module signature (values, ctors,
// exports, imports); phase 2 walks each declaration's body against the
// full set of collected signatures plus a local-variable environment.
package check

import (
	"sort"

	"github.com/muscript-lang/mu/internal/ast"
	"github.com/muscript-lang/mu/internal/diag"
	"github.com/muscript-lang/mu/internal/types"
)

// CtorInfo is the signature of one constructor: its parent type, the
// parent's type parameters in scope, and its field types.
type CtorInfo struct {
	Parent     string
	TypeParams []string
	Fields     []types.Type
}

// ModuleSig is the phase-1 signature collected for one module.
type ModuleSig struct {
	ModuleID string
	Values   map[string]types.Type
	Ctors    map[string]CtorInfo
	Exports  map[string]bool
	Imports  map[string]string
	Module   *ast.Module
}

// builtinModules is the fixed set of import targets that never require a
// loaded sibling source file (spec.md §4.4 "module validation").
var builtinModules = map[string]bool{
	"core.prelude": true, "core.io": true, "core.fs": true,
	"core.json": true, "core.proc": true, "core.http": true,
}

// jsonType is the builtin JSON-shaped ADT name `parse`/`stringify` traffic
// in: `Null | Bool(b) | Num(f64) | Str(s) | Arr(Json[]) | Obj({s:Json})`.
var jsonType = types.Named{Name: "Json"}

// builtinSignatures is the fixed non-operator builtin table (spec.md §4.6).
var builtinSignatures = map[string]types.Function{
	"print":   {Params: []types.Type{types.StringT{}}, Ret: types.Unit{}, Effects: types.EffectSet{types.IO}},
	"println": {Params: []types.Type{types.StringT{}}, Ret: types.Unit{}, Effects: types.EffectSet{types.IO}},
	"readln":  {Params: nil, Ret: types.StringT{}, Effects: types.EffectSet{types.IO}},
	"read": {Params: []types.Type{types.StringT{}},
		Ret: types.Result{Ok: types.StringT{}, Err: types.StringT{}}, Effects: types.EffectSet{types.FS}},
	"write": {Params: []types.Type{types.StringT{}, types.StringT{}},
		Ret: types.Result{Ok: types.Unit{}, Err: types.StringT{}}, Effects: types.EffectSet{types.FS}},
	"parse": {Params: []types.Type{types.StringT{}},
		Ret: types.Result{Ok: jsonType, Err: types.StringT{}}},
	"stringify": {Params: []types.Type{jsonType}, Ret: types.StringT{}},
	"run": {Params: []types.Type{types.StringT{}, types.Array{Elem: types.StringT{}}},
		Ret: types.Result{Ok: types.I32{}, Err: types.StringT{}}, Effects: types.EffectSet{types.Proc}},
	"get": {Params: []types.Type{types.StringT{}},
		Ret: types.Result{Ok: types.StringT{}, Err: types.StringT{}}, Effects: types.EffectSet{types.Net}},
}

// Checker accumulates module signatures and diagnostics across an entire
// program (possibly several `.mu` modules loaded together).
type Checker struct {
	mods   map[string]*ModuleSig
	order  []string
	errors []*diag.Diagnostic
}

// New returns an empty Checker.
func New() *Checker {
	return &Checker{mods: map[string]*ModuleSig{}}
}

func (c *Checker) errf(code diag.Code, span diag.Span, format string, args ...any) {
	c.errors = append(c.errors, diag.Newf(code, span, format, args...))
}

// AddModule runs phase 1 (signature collection) for m and registers it.
func (c *Checker) AddModule(m *ast.Module) {
	id := m.Dotted()
	if _, dup := c.mods[id]; dup {
		c.errf(diag.EDuplicateModule, m.Span(), "duplicate module %q", id)
		return
	}

	sig := &ModuleSig{
		ModuleID: id,
		Values:   map[string]types.Type{},
		Ctors:    map[string]CtorInfo{},
		Exports:  map[string]bool{},
		Imports:  map[string]string{},
		Module:   m,
	}
	declared := map[string]bool{}
	checkDup := func(name string, span diag.Span) {
		if declared[name] {
			c.errf(diag.EDuplicateSymbol, span, "duplicate symbol %q in module %q", name, id)
			return
		}
		declared[name] = true
	}

	for _, d := range m.Decls {
		switch decl := d.(type) {
		case *ast.ImportDecl:
			checkDup(decl.Alias, decl.Span())
			sig.Imports[decl.Alias] = joinDotted(decl.ModuleID)
		case *ast.ExportDecl:
			for _, n := range decl.Names {
				sig.Exports[n] = true
			}
		case *ast.TypeDecl:
			checkDup(decl.Name, decl.Span())
			for _, ctor := range decl.Ctors {
				checkDup(ctor.Name, ctor.Span)
				sig.Ctors[ctor.Name] = CtorInfo{Parent: decl.Name, TypeParams: decl.TypeParams, Fields: ctor.Fields}
			}
		case *ast.ValueDecl:
			checkDup(decl.Name, decl.Span())
			sig.Values[decl.Name] = decl.Type
		case *ast.FuncDecl:
			checkDup(decl.Name, decl.Span())
			sig.Values[decl.Name] = funcType(decl)
			if !decl.Effects.IsCanonical() {
				c.errf(diag.ENonCanonicalEffects, decl.Span(), "effect set for %q is not in canonical order or has duplicates", decl.Name)
			}
		}
	}

	c.mods[id] = sig
	c.order = append(c.order, id)
}

// ModuleCtors returns the set of constructor names declared in moduleID,
// for handing to the bytecode compiler (which needs to distinguish a
// constructor application from an ordinary call but has no type
// information of its own). Returns nil if moduleID was never added.
func (c *Checker) ModuleCtors(moduleID string) map[string]bool {
	sig, ok := c.mods[moduleID]
	if !ok {
		return nil
	}
	out := make(map[string]bool, len(sig.Ctors))
	for name := range sig.Ctors {
		out[name] = true
	}
	return out
}

func funcType(decl *ast.FuncDecl) types.Function {
	params := make([]types.Type, len(decl.Params))
	for i, p := range decl.Params {
		params[i] = p.Type
	}
	return types.Function{Params: params, Ret: decl.RetType, Effects: decl.Effects}
}

func joinDotted(segs []string) string {
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "."
		}
		out += s
	}
	return out
}

// Check runs phase 2 (per-module elaboration) plus module/import/export and
// `main`-signature validation, returning every diagnostic found.
func (c *Checker) Check() []*diag.Diagnostic {
	ids := append([]string{}, c.order...)
	sort.Strings(ids) // deterministic order independent of AddModule call order

	for _, id := range ids {
		sig := c.mods[id]
		c.validateImports(sig)
		c.validateExports(sig)
		for _, d := range sig.Module.Decls {
			switch decl := d.(type) {
			case *ast.ValueDecl:
				ctx := &elabCtx{sig: sig, env: nil}
				t, _ := c.elaborate(decl.Expr, ctx)
				if t != nil && !types.Equal(t, decl.Type) {
					c.errf(diag.ETypeMismatch, decl.Expr.Span(), "value %q declared as %s but initializer has type %s", decl.Name, decl.Type.String(), t.String())
				}
			case *ast.FuncDecl:
				c.checkFuncDecl(sig, decl)
			}
		}
	}
	return c.errors
}

func (c *Checker) validateImports(sig *ModuleSig) {
	for alias, target := range sig.Imports {
		if builtinModules[target] {
			continue
		}
		if _, ok := c.mods[target]; !ok {
			c.errf(diag.EUnknownModule, sig.Module.Span(), "module %q imports unknown module %q (alias %q)", sig.ModuleID, target, alias)
		}
	}
}

func (c *Checker) validateExports(sig *ModuleSig) {
	for name := range sig.Exports {
		_, isValue := sig.Values[name]
		_, isCtor := sig.Ctors[name]
		isType := false
		for _, d := range sig.Module.Decls {
			if td, ok := d.(*ast.TypeDecl); ok && td.Name == name {
				isType = true
			}
		}
		if !isValue && !isCtor && !isType {
			c.errf(diag.EInvalidExport, sig.Module.Span(), "exported name %q is not declared in module %q", name, sig.ModuleID)
		}
	}
}

func (c *Checker) checkFuncDecl(sig *ModuleSig, decl *ast.FuncDecl) {
	if decl.Name == "main" {
		if len(decl.Params) != 0 {
			c.errf(diag.EBadMainSignature, decl.Span(), "main must take zero parameters")
		}
		if !types.Equal(decl.RetType, types.I32{}) {
			c.errf(diag.EBadMainSignature, decl.Span(), "main must return I32")
		}
	}

	var env *envFrame
	for _, p := range decl.Params {
		env = &envFrame{name: p.Name, typ: p.Type, next: env}
	}
	ctx := &elabCtx{sig: sig, env: env, funcRet: decl.RetType}

	bodyType, bodyEffects := c.elaborate(decl.Body, ctx)
	if bodyType != nil && !types.Equal(bodyType, decl.RetType) {
		c.errf(diag.ETypeMismatch, decl.Body.Span(), "function %q declared to return %s but body has type %s", decl.Name, decl.RetType.String(), bodyType.String())
	}
	if !types.Subset(bodyEffects, decl.Effects) {
		c.errf(diag.EEffectViolation, decl.Body.Span(), "function %q body has effects %s exceeding declared %s", decl.Name, bodyEffects.String(), decl.Effects.String())
	}
}

// envFrame is a persistent linked-list scope so entering/leaving a binding
// (let, match-arm, lambda/constructor param) is O(1) and naturally
// reversible, per spec.md §5's scoped-binding discipline.
type envFrame struct {
	name string
	typ  types.Type
	next *envFrame
}

func (e *envFrame) lookup(name string) (types.Type, bool) {
	for f := e; f != nil; f = f.next {
		if f.name == name {
			return f.typ, true
		}
	}
	return nil, false
}

type elabCtx struct {
	sig       *ModuleSig
	env       *envFrame
	funcRet   types.Type
	inEnsure  bool
}

func (c *elabCtx) with(name string, typ types.Type) *elabCtx {
	cp := *c
	cp.env = &envFrame{name: name, typ: typ, next: c.env}
	return &cp
}

// elaborate type-and-effect-checks e, returning its type and effect set.
// A nil type signals a prior diagnostic was already reported for e; callers
// should avoid compounding secondary errors on a nil type.
func (c *Checker) elaborate(e ast.Expr, ctx *elabCtx) (types.Type, types.EffectSet) {
	switch ex := e.(type) {
	case *ast.UnitExpr:
		return types.Unit{}, nil
	case *ast.IntLit:
		return intLitType(ex.Value), nil
	case *ast.StringLit:
		return types.StringT{}, nil
	case *ast.BoolLit:
		return types.Bool{}, nil

	case *ast.BlockExpr:
		eff := types.EffectSet{}
		cur := ctx
		for _, s := range ex.Stmts {
			t, e2 := c.elaborate(s, cur)
			eff = types.Union(eff, e2)
			if let, ok := s.(*ast.LetExpr); ok && t != nil {
				cur = cur.with(let.Name, t)
			}
		}
		t, e2 := c.elaborate(ex.Tail, cur)
		return t, types.Union(eff, e2)

	case *ast.LetExpr:
		vt, ve := c.elaborate(ex.Value, ctx)
		if vt != nil && ex.Ann != nil && !types.Equal(vt, ex.Ann) {
			c.errf(diag.ETypeMismatch, ex.Value.Span(), "let binding %q annotated %s but value has type %s", ex.Name, ex.Ann.String(), vt.String())
		}
		bindType := vt
		if ex.Ann != nil {
			bindType = ex.Ann
		}
		bt, be := c.elaborate(ex.Body, ctx.with(ex.Name, bindType))
		return bt, types.Union(ve, be)

	case *ast.IfExpr:
		ct, ce := c.elaborate(ex.Cond, ctx)
		if ct != nil && !types.Equal(ct, types.Bool{}) {
			c.errf(diag.ETypeMismatch, ex.Cond.Span(), "if condition must be Bool, got %s", ct.String())
		}
		tt, te := c.elaborate(ex.Then, ctx)
		et, ee := c.elaborate(ex.Else, ctx)
		if tt != nil && et != nil && !types.Equal(tt, et) {
			c.errf(diag.ETypeMismatch, ex.Else.Span(), "if branches have mismatched types %s and %s", tt.String(), et.String())
		}
		return tt, types.Union(ce, types.Union(te, ee))

	case *ast.MatchExpr:
		return c.elaborateMatch(ex, ctx)

	case *ast.CallExpr:
		return c.elaborateCall(ex, ctx)

	case *ast.LambdaExpr:
		if !ex.Effects.IsCanonical() {
			c.errf(diag.ENonCanonicalEffects, ex.Span(), "lambda effect set is not in canonical order or has duplicates")
		}
		inner := ctx
		for _, p := range ex.Params {
			inner = inner.with(p.Name, p.Type)
		}
		bt, be := c.elaborate(ex.Body, inner)
		if bt != nil && !types.Equal(bt, ex.RetType) {
			c.errf(diag.ETypeMismatch, ex.Body.Span(), "lambda declared to return %s but body has type %s", ex.RetType.String(), bt.String())
		}
		if !types.Subset(be, ex.Effects) {
			c.errf(diag.EEffectViolation, ex.Span(), "lambda body has effects %s exceeding declared %s", be.String(), ex.Effects.String())
		}
		params := make([]types.Type, len(ex.Params))
		for i, p := range ex.Params {
			params[i] = p.Type
		}
		return types.Function{Params: params, Ret: ex.RetType, Effects: ex.Effects}, nil

	case *ast.AssertExpr:
		ct, ce := c.elaborate(ex.Cond, ctx)
		if ct != nil && !types.Equal(ct, types.Bool{}) {
			c.errf(diag.ETypeMismatch, ex.Cond.Span(), "assert condition must be Bool, got %s", ct.String())
		}
		eff := ce
		if ex.Msg != nil {
			_, me := c.elaborate(ex.Msg, ctx)
			eff = types.Union(eff, me)
		}
		return types.Unit{}, eff

	case *ast.RequireExpr:
		ct, ce := c.elaborate(ex.Cond, ctx)
		if ct != nil && !types.Equal(ct, types.Bool{}) {
			c.errf(diag.ETypeMismatch, ex.Cond.Span(), "require expects Bool, got %s", ct.String())
		}
		return types.Unit{}, ce

	case *ast.EnsureExpr:
		inner := *ctx
		inner.inEnsure = true
		if ctx.funcRet != nil {
			inner.env = &envFrame{name: "_r", typ: ctx.funcRet, next: ctx.env}
		}
		ct, ce := c.elaborate(ex.Cond, &inner)
		if ct != nil && !types.Equal(ct, types.Bool{}) {
			c.errf(diag.ETypeMismatch, ex.Cond.Span(), "ensure expects Bool, got %s", ct.String())
		}
		return types.Unit{}, ce

	case *ast.NameExpr:
		return c.resolveName(ex.Name, ex.Span(), ctx), nil

	case *ast.NameAppExpr:
		return c.elaborateNameApp(ex, ctx)

	case *ast.ParenExpr:
		return c.elaborate(ex.Inner, ctx)
	}
	return nil, nil
}

// intLitType: an integer literal fits I32 if within its bounds, else I64
// (spec.md §4.4).
func intLitType(v int64) types.Type {
	if v >= -2147483648 && v <= 2147483647 {
		return types.I32{}
	}
	return types.I64{}
}

func (c *Checker) resolveName(name string, span diag.Span, ctx *elabCtx) types.Type {
	if name == "_r" {
		if !ctx.inEnsure {
			c.errf(diag.ERBoundOutsideEnsure, span, "_r referenced outside an ensure expression")
			return nil
		}
		t, _ := ctx.env.lookup("_r")
		return t
	}
	if t, ok := ctx.env.lookup(name); ok {
		return t
	}
	if t, ok := ctx.sig.Values[name]; ok {
		return t
	}
	if ci, ok := ctx.sig.Ctors[name]; ok {
		if len(ci.Fields) != 0 {
			c.errf(diag.EArityMismatch, span, "constructor %q takes %d field(s), used as a bare name", name, len(ci.Fields))
		}
		return types.Named{Name: ci.Parent}
	}
	if op, ok := operatorSignature(name); ok {
		return op
	}
	if fn, ok := builtinSignatures[name]; ok {
		return fn
	}
	c.errf(diag.EUnknownName, span, "unknown name %q", name)
	return nil
}

func (c *Checker) elaborateNameApp(ex *ast.NameAppExpr, ctx *elabCtx) (types.Type, types.EffectSet) {
	var eff types.EffectSet
	argTypes := make([]types.Type, len(ex.Args))
	for i, a := range ex.Args {
		t, e2 := c.elaborate(a, ctx)
		argTypes[i] = t
		eff = types.Union(eff, e2)
	}

	if ci, ok := ctx.sig.Ctors[ex.Name]; ok {
		if len(ci.Fields) != len(ex.Args) {
			c.errf(diag.EArityMismatch, ex.Span(), "constructor %q expects %d argument(s), got %d", ex.Name, len(ci.Fields), len(ex.Args))
		} else {
			for i, ft := range ci.Fields {
				if argTypes[i] != nil && !types.Equal(ft, argTypes[i]) {
					c.errf(diag.ETypeMismatch, ex.Args[i].Span(), "constructor %q argument %d expects %s, got %s", ex.Name, i, ft.String(), argTypes[i].String())
				}
			}
		}
		return types.Named{Name: ci.Parent}, eff
	}

	callee := c.resolveName(ex.Name, ex.Span(), ctx)
	return c.applyCallable(callee, ex.Args, argTypes, ex.Span(), eff)
}

func (c *Checker) elaborateCall(ex *ast.CallExpr, ctx *elabCtx) (types.Type, types.EffectSet) {
	calleeType, calleeEff := c.elaborate(ex.Callee, ctx)
	var eff types.EffectSet = calleeEff
	argTypes := make([]types.Type, len(ex.Args))
	for i, a := range ex.Args {
		t, e2 := c.elaborate(a, ctx)
		argTypes[i] = t
		eff = types.Union(eff, e2)
	}
	return c.applyCallable(calleeType, ex.Args, argTypes, ex.Span(), eff)
}

func (c *Checker) applyCallable(callee types.Type, args []ast.Expr, argTypes []types.Type, span diag.Span, eff types.EffectSet) (types.Type, types.EffectSet) {
	if callee == nil {
		return nil, eff
	}
	fn, ok := callee.(types.Function)
	if !ok {
		c.errf(diag.ENotCallable, span, "value of type %s is not callable", callee.String())
		return nil, eff
	}
	if len(fn.Params) != len(args) {
		c.errf(diag.EArityMismatch, span, "call expects %d argument(s), got %d", len(fn.Params), len(args))
	} else {
		for i, pt := range fn.Params {
			if argTypes[i] != nil && !types.Equal(pt, argTypes[i]) {
				c.errf(diag.ETypeMismatch, args[i].Span(), "argument %d expects %s, got %s", i, pt.String(), argTypes[i].String())
			}
		}
	}
	return fn.Ret, types.Union(eff, fn.Effects)
}

func operatorSignature(name string) (types.Function, bool) {
	switch name {
	case "+", "-", "*", "/", "%":
		return types.Function{Params: []types.Type{types.I32{}, types.I32{}}, Ret: types.I32{}}, true
	case "neg":
		return types.Function{Params: []types.Type{types.I32{}}, Ret: types.I32{}}, true
	case "==", "!=":
		return types.Function{Params: []types.Type{types.I32{}, types.I32{}}, Ret: types.Bool{}}, true
	case "<", "<=", ">", ">=":
		return types.Function{Params: []types.Type{types.I32{}, types.I32{}}, Ret: types.Bool{}}, true
	case "and", "or":
		return types.Function{Params: []types.Type{types.Bool{}, types.Bool{}}, Ret: types.Bool{}}, true
	case "not":
		return types.Function{Params: []types.Type{types.Bool{}}, Ret: types.Bool{}}, true
	case "str_cat":
		return types.Function{Params: []types.Type{types.StringT{}, types.StringT{}}, Ret: types.StringT{}}, true
	case "len":
		return types.Function{Params: []types.Type{types.StringT{}}, Ret: types.I32{}}, true
	}
	return types.Function{}, false
}

// ---------------------------------------------------------------------------
// Match exhaustiveness (spec.md §4.4)
// ---------------------------------------------------------------------------

func (c *Checker) elaborateMatch(ex *ast.MatchExpr, ctx *elabCtx) (types.Type, types.EffectSet) {
	scrutType, eff := c.elaborate(ex.Scrutinee, ctx)

	var resultType types.Type
	for _, arm := range ex.Arms {
		armCtx := c.bindPattern(arm.Pattern, scrutType, ctx)
		t, e2 := c.elaborate(arm.Body, armCtx)
		eff = types.Union(eff, e2)
		if t == nil {
			continue
		}
		if resultType == nil {
			resultType = t
		} else if !types.Equal(resultType, t) {
			c.errf(diag.ETypeMismatch, arm.Body.Span(), "match arm has type %s, expected %s", t.String(), resultType.String())
		}
	}

	if scrutType != nil {
		c.checkExhaustive(scrutType, ex.Arms, ctx.sig, ex.Span())
	}
	return resultType, eff
}

func (c *Checker) bindPattern(pat ast.Pattern, scrutType types.Type, ctx *elabCtx) *elabCtx {
	switch p := pat.(type) {
	case *ast.NamePattern:
		if ci, isNullaryCtor := ctx.sig.Ctors[p.Name]; isNullaryCtor && len(ci.Fields) == 0 {
			return ctx
		}
		return ctx.with(p.Name, scrutType)
	case *ast.CtorPattern:
		ci, ok := ctx.sig.Ctors[p.Name]
		if !ok {
			c.errf(diag.EInvalidPattern, p.Span(), "unknown constructor %q in pattern", p.Name)
			return ctx
		}
		cur := ctx
		named, _ := scrutType.(types.Named)
		for i, fieldPat := range p.Args {
			var ft types.Type
			if i < len(ci.Fields) {
				ft = ci.Fields[i]
				// A field typed by a bare type parameter takes the matching
				// type argument of the scrutinee, e.g. Some(v) on Opt(I32).
				if tv, isVar := ft.(types.TypeVar); isVar {
					for j, tp := range ci.TypeParams {
						if tp == tv.Name && j < len(named.Args) {
							ft = named.Args[j]
						}
					}
				}
			}
			cur = c.bindPattern(fieldPat, ft, cur)
		}
		return cur
	case *ast.TuplePattern:
		tup, _ := scrutType.(types.Tuple)
		cur := ctx
		for i, item := range p.Items {
			var it types.Type
			if i < len(tup.Items) {
				it = tup.Items[i]
			}
			cur = c.bindPattern(item, it, cur)
		}
		return cur
	case *ast.ParenPattern:
		return c.bindPattern(p.Inner, scrutType, ctx)
	default:
		return ctx
	}
}

func (c *Checker) checkExhaustive(scrutType types.Type, arms []ast.MatchArm, sig *ModuleSig, span diag.Span) {
	hasWildcard := false
	for _, arm := range arms {
		if isCatchAll(arm.Pattern, sig) {
			hasWildcard = true
		}
	}
	if hasWildcard {
		return
	}

	if types.Equal(scrutType, types.Bool{}) {
		sawTrue, sawFalse := false, false
		for _, arm := range arms {
			if lp, ok := arm.Pattern.(*ast.LiteralPattern); ok {
				if bl, ok := lp.Value.(*ast.BoolLit); ok {
					if bl.Value {
						sawTrue = true
					} else {
						sawFalse = true
					}
				}
			}
		}
		if !sawTrue || !sawFalse {
			c.errf(diag.ENonExhaustiveMatch, span, "non-exhaustive match on Bool: missing %s", missingBoolArm(sawTrue, sawFalse))
		}
		return
	}

	if named, ok := scrutType.(types.Named); ok {
		ctorsOfType := map[string]bool{}
		for name, ci := range sig.Ctors {
			if ci.Parent == named.Name {
				ctorsOfType[name] = true
			}
		}
		if len(ctorsOfType) == 0 {
			c.errf(diag.ENonExhaustiveMatch, span, "match on %q requires a wildcard arm (unknown constructor set)", named.Name)
			return
		}
		for _, arm := range arms {
			switch p := arm.Pattern.(type) {
			case *ast.CtorPattern:
				delete(ctorsOfType, p.Name)
			case *ast.NamePattern:
				delete(ctorsOfType, p.Name)
			}
		}
		if len(ctorsOfType) > 0 {
			missing := make([]string, 0, len(ctorsOfType))
			for name := range ctorsOfType {
				missing = append(missing, name)
			}
			sort.Strings(missing)
			c.errf(diag.ENonExhaustiveMatch, span, "non-exhaustive match on %q: missing constructor(s) %v", named.Name, missing)
		}
		return
	}

	c.errf(diag.ENonExhaustiveMatch, span, "match on %s requires a trailing wildcard arm", scrutType.String())
}

func isCatchAll(pat ast.Pattern, sig *ModuleSig) bool {
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		return true
	case *ast.NamePattern:
		ci, isNullaryCtor := sig.Ctors[p.Name]
		return !(isNullaryCtor && len(ci.Fields) == 0)
	case *ast.ParenPattern:
		return isCatchAll(p.Inner, sig)
	}
	return false
}

func missingBoolArm(sawTrue, sawFalse bool) string {
	if !sawTrue && !sawFalse {
		return "t and f"
	}
	if !sawTrue {
		return "t"
	}
	return "f"
}

// Package format renders an *ast.Module back to mu's canonical surface
// syntax in either Readable or Compressed mode, per spec.md §4.3. Both
// modes share one AST-walking printer; compressed mode additionally
// precomputes a greedy frequency-ranked symbol table and substitutes table
// residents with `#k` references as it prints.
package format

import (
	"sort"
	"strconv"
	"strings"

	"github.com/muscript-lang/mu/internal/ast"
	"github.com/muscript-lang/mu/internal/parser"
	"github.com/muscript-lang/mu/internal/types"
)

// Readable renders m in canonical syntax with full identifier/effect
// spellings and no whitespace except the single space placed between two
// adjacent word tokens. No symbol table is ever emitted.
func Readable(m *ast.Module) string {
	p := &printer{}
	p.printModule(m)
	return p.sb.String()
}

// Compressed renders m with a greedily-selected symbol table and `#k`
// identifier references, per the gain/cost rule in spec.md §4.3.
func Compressed(m *ast.Module) string {
	table := buildSymbolTable(m)
	p := &printer{compressed: true, table: table.index}
	p.printModule2(m, table.names)
	return p.sb.String()
}

// ---------------------------------------------------------------------------
// Symbol table construction
// ---------------------------------------------------------------------------

type symbolTable struct {
	names []string
	index map[string]int
}

// buildSymbolTable ranks every eligible identifier by descending occurrence
// count (ties broken lexicographically) and greedily admits candidates
// while gain(name, count, index) strictly exceeds cost(name, index).
func buildSymbolTable(m *ast.Module) symbolTable {
	counts := countOccurrences(m)

	type candidate struct {
		name  string
		count int
	}
	cands := make([]candidate, 0, len(counts))
	for name, count := range counts {
		cands = append(cands, candidate{name, count})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].count != cands[j].count {
			return cands[i].count > cands[j].count
		}
		return cands[i].name < cands[j].name
	})

	var names []string
	idx := map[string]int{}
	for _, c := range cands {
		index := len(names)
		digits := len(strconv.Itoa(index))
		gain := c.count * (len(c.name) - (1 + digits))
		cost := len(c.name)
		if index != 0 {
			cost++
		}
		if gain <= cost {
			break
		}
		names = append(names, c.name)
		idx[c.name] = index
	}
	return symbolTable{names: names, index: idx}
}

// isIdentShaped reports whether name could have been lexed as an IDENT
// token — excludes operator glyphs ("+", "==", ...), which are builtin
// references, not user-defined identifiers, and so are never eligible for
// symbol-table substitution.
func isIdentShaped(name string) bool {
	if name == "" {
		return false
	}
	r := name[0]
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func countOccurrences(m *ast.Module) map[string]int {
	counts := map[string]int{}
	inc := func(name string) {
		if !isIdentShaped(name) || parser.CoreForms[name] {
			return
		}
		counts[name]++
	}

	for _, d := range m.Decls {
		switch decl := d.(type) {
		case *ast.ImportDecl:
			inc(decl.Alias)
		case *ast.ExportDecl:
			for _, n := range decl.Names {
				inc(n)
			}
		case *ast.TypeDecl:
			inc(decl.Name)
			for _, tp := range decl.TypeParams {
				inc(tp)
			}
			for _, c := range decl.Ctors {
				inc(c.Name)
				for _, f := range c.Fields {
					walkType(f, inc)
				}
			}
		case *ast.ValueDecl:
			inc(decl.Name)
			walkType(decl.Type, inc)
			walkExpr(decl.Expr, inc)
		case *ast.FuncDecl:
			inc(decl.Name)
			for _, tp := range decl.TypeParams {
				inc(tp)
			}
			for _, p := range decl.Params {
				inc(p.Name)
				walkType(p.Type, inc)
			}
			walkType(decl.RetType, inc)
			walkExpr(decl.Body, inc)
		}
	}
	return counts
}

func walkType(t types.Type, inc func(string)) {
	switch tt := t.(type) {
	case types.Named:
		inc(tt.Name)
		for _, a := range tt.Args {
			walkType(a, inc)
		}
	case types.Optional:
		walkType(tt.Elem, inc)
	case types.Array:
		walkType(tt.Elem, inc)
	case types.Map:
		walkType(tt.Key, inc)
		walkType(tt.Value, inc)
	case types.Tuple:
		for _, it := range tt.Items {
			walkType(it, inc)
		}
	case types.Function:
		for _, p := range tt.Params {
			walkType(p, inc)
		}
		walkType(tt.Ret, inc)
	case types.Result:
		walkType(tt.Ok, inc)
		walkType(tt.Err, inc)
	case types.TypeVar:
		inc(tt.Name)
	}
}

func walkExpr(e ast.Expr, inc func(string)) {
	switch ex := e.(type) {
	case *ast.BlockExpr:
		for _, s := range ex.Stmts {
			walkExpr(s, inc)
		}
		walkExpr(ex.Tail, inc)
	case *ast.LetExpr:
		inc(ex.Name)
		if ex.Ann != nil {
			walkType(ex.Ann, inc)
		}
		walkExpr(ex.Value, inc)
		walkExpr(ex.Body, inc)
	case *ast.IfExpr:
		walkExpr(ex.Cond, inc)
		walkExpr(ex.Then, inc)
		walkExpr(ex.Else, inc)
	case *ast.MatchExpr:
		walkExpr(ex.Scrutinee, inc)
		for _, arm := range ex.Arms {
			walkPattern(arm.Pattern, inc)
			walkExpr(arm.Body, inc)
		}
	case *ast.CallExpr:
		walkExpr(ex.Callee, inc)
		for _, a := range ex.Args {
			walkExpr(a, inc)
		}
	case *ast.LambdaExpr:
		for _, p := range ex.Params {
			inc(p.Name)
			walkType(p.Type, inc)
		}
		walkType(ex.RetType, inc)
		walkExpr(ex.Body, inc)
	case *ast.AssertExpr:
		walkExpr(ex.Cond, inc)
		if ex.Msg != nil {
			walkExpr(ex.Msg, inc)
		}
	case *ast.RequireExpr:
		walkExpr(ex.Cond, inc)
	case *ast.EnsureExpr:
		walkExpr(ex.Cond, inc)
	case *ast.NameExpr:
		inc(ex.Name)
	case *ast.NameAppExpr:
		inc(ex.Name)
		for _, ta := range ex.TypeArgs {
			walkType(ta, inc)
		}
		for _, a := range ex.Args {
			walkExpr(a, inc)
		}
	case *ast.ParenExpr:
		walkExpr(ex.Inner, inc)
	}
}

func walkPattern(p ast.Pattern, inc func(string)) {
	switch pt := p.(type) {
	case *ast.NamePattern:
		inc(pt.Name)
	case *ast.CtorPattern:
		inc(pt.Name)
		for _, a := range pt.Args {
			walkPattern(a, inc)
		}
	case *ast.TuplePattern:
		for _, it := range pt.Items {
			walkPattern(it, inc)
		}
	case *ast.ParenPattern:
		walkPattern(pt.Inner, inc)
	}
}

// ---------------------------------------------------------------------------
// Printer
// ---------------------------------------------------------------------------

type printer struct {
	sb         strings.Builder
	lastIsWord bool
	compressed bool
	table      map[string]int
}

// raw appends a token verbatim, inserting a single separating space only
// when omitting it would let two word-shaped tokens merge into one under
// re-lexing (e.g. decl keyword `T` immediately followed by a type name).
func (p *printer) raw(s string) {
	if s == "" {
		return
	}
	firstIsWord := isWordByte(s[0])
	if p.lastIsWord && firstIsWord {
		p.sb.WriteByte(' ')
	}
	p.sb.WriteString(s)
	p.lastIsWord = isWordByte(s[len(s)-1])
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}

// name prints an identifier, substituting its `#k` table reference in
// compressed mode when it is table-resident.
func (p *printer) name(n string) {
	if p.compressed && isIdentShaped(n) {
		if idx, ok := p.table[n]; ok {
			p.raw("#" + strconv.Itoa(idx))
			return
		}
	}
	p.raw(n)
}

func (p *printer) printModule(m *ast.Module) {
	p.raw("@")
	p.raw(strings.Join(m.ModuleID, "."))
	p.raw("{")
	for _, d := range m.Decls {
		p.printDecl(d)
	}
	p.raw("}")
}

// printModule2 is printModule plus an emitted `$[...]​;` symbol table right
// after the opening brace, used only by Compressed.
func (p *printer) printModule2(m *ast.Module, tableNames []string) {
	p.raw("@")
	p.raw(strings.Join(m.ModuleID, "."))
	p.raw("{")
	if len(tableNames) > 0 {
		p.raw("$")
		p.raw("[")
		for i, n := range tableNames {
			if i > 0 {
				p.raw(",")
			}
			p.raw(n)
		}
		p.raw("]")
		p.raw(";")
	}
	for _, d := range m.Decls {
		p.printDecl(d)
	}
	p.raw("}")
}

func (p *printer) printDecl(d ast.Decl) {
	switch decl := d.(type) {
	case *ast.ImportDecl:
		p.raw(":")
		p.name(decl.Alias)
		p.raw("=")
		p.raw(strings.Join(decl.ModuleID, "."))
		p.raw(";")
	case *ast.ExportDecl:
		p.raw("E")
		p.raw("[")
		for i, n := range decl.Names {
			if i > 0 {
				p.raw(",")
			}
			p.name(n)
		}
		p.raw("]")
		p.raw(";")
	case *ast.TypeDecl:
		p.raw("T")
		p.name(decl.Name)
		p.printTypeParams(decl.TypeParams)
		p.raw("=")
		for i, c := range decl.Ctors {
			if i > 0 {
				p.raw("|")
			}
			p.name(c.Name)
			if len(c.Fields) > 0 {
				p.raw("(")
				for j, f := range c.Fields {
					if j > 0 {
						p.raw(",")
					}
					p.printType(f)
				}
				p.raw(")")
			}
		}
		p.raw(";")
	case *ast.ValueDecl:
		p.raw("V")
		p.name(decl.Name)
		p.raw(":")
		p.printType(decl.Type)
		p.raw("=")
		p.printExpr(decl.Expr)
		p.raw(";")
	case *ast.FuncDecl:
		p.raw("F")
		p.name(decl.Name)
		p.printTypeParams(decl.TypeParams)
		p.raw(":")
		p.printParamList(decl.Params)
		p.raw("->")
		p.printType(decl.RetType)
		p.printEffects(decl.Effects)
		p.raw("=")
		p.printExpr(decl.Body)
		p.raw(";")
	}
}

func (p *printer) printTypeParams(tps []string) {
	if len(tps) == 0 {
		return
	}
	p.raw("[")
	for i, tp := range tps {
		if i > 0 {
			p.raw(",")
		}
		p.name(tp)
	}
	p.raw("]")
}

func (p *printer) printParamList(params []ast.Param) {
	p.raw("(")
	for i, pa := range params {
		if i > 0 {
			p.raw(",")
		}
		p.name(pa.Name)
		p.raw(":")
		p.printType(pa.Type)
	}
	p.raw(")")
}

func (p *printer) printEffects(es types.EffectSet) {
	canon := types.Canonicalize(es)
	if len(canon) == 0 {
		return
	}
	p.raw("!")
	p.raw("{")
	for i, e := range canon {
		if i > 0 {
			p.raw(",")
		}
		if p.compressed {
			p.raw(types.CompressedGlyph[e])
		} else {
			p.raw(string(e))
		}
	}
	p.raw("}")
}

func (p *printer) printType(t types.Type) {
	switch tt := t.(type) {
	case types.Bool:
		p.raw("Bool")
	case types.StringT:
		p.raw("String")
	case types.I32:
		p.raw("I32")
	case types.I64:
		p.raw("I64")
	case types.U32:
		p.raw("U32")
	case types.U64:
		p.raw("U64")
	case types.F32:
		p.raw("F32")
	case types.F64:
		p.raw("F64")
	case types.Unit:
		p.raw("Unit")
	case types.Named:
		p.name(tt.Name)
		if len(tt.Args) > 0 {
			p.raw("(")
			for i, a := range tt.Args {
				if i > 0 {
					p.raw(",")
				}
				p.printType(a)
			}
			p.raw(")")
		}
	case types.Optional:
		p.printType(tt.Elem)
		p.raw("?")
	case types.Array:
		p.raw("[")
		p.printType(tt.Elem)
		p.raw("]")
	case types.Map:
		p.raw("Map")
		p.raw("(")
		p.printType(tt.Key)
		p.raw(",")
		p.printType(tt.Value)
		p.raw(")")
	case types.Tuple:
		p.raw("(")
		for i, it := range tt.Items {
			if i > 0 {
				p.raw(",")
			}
			p.printType(it)
		}
		p.raw(")")
	case types.Function:
		p.raw("(")
		for i, pt := range tt.Params {
			if i > 0 {
				p.raw(",")
			}
			p.printType(pt)
		}
		p.raw(")")
		p.raw("->")
		p.printType(tt.Ret)
		p.printEffects(tt.Effects)
	case types.Result:
		p.raw("Result")
		p.raw("(")
		p.printType(tt.Ok)
		p.raw(",")
		p.printType(tt.Err)
		p.raw(")")
	case types.TypeVar:
		p.name(tt.Name)
	}
}

func (p *printer) printExpr(e ast.Expr) {
	switch ex := e.(type) {
	case *ast.BlockExpr:
		p.raw("{")
		for _, s := range ex.Stmts {
			p.printExpr(s)
			p.raw(";")
		}
		p.printExpr(ex.Tail)
		p.raw("}")
	case *ast.UnitExpr:
		p.raw("(")
		p.raw(")")
	case *ast.IntLit:
		p.raw(strconv.FormatInt(ex.Value, 10))
	case *ast.StringLit:
		p.raw(quoteString(ex.Value))
	case *ast.BoolLit:
		if ex.Value {
			p.raw("t")
		} else {
			p.raw("f")
		}
	case *ast.LetExpr:
		p.raw("v")
		p.raw("(")
		p.name(ex.Name)
		if ex.Ann != nil {
			p.raw(":")
			p.printType(ex.Ann)
		}
		p.raw("=")
		p.printExpr(ex.Value)
		p.raw(",")
		p.printExpr(ex.Body)
		p.raw(")")
	case *ast.IfExpr:
		p.raw("i")
		p.raw("(")
		p.printExpr(ex.Cond)
		p.raw(",")
		p.printExpr(ex.Then)
		p.raw(",")
		p.printExpr(ex.Else)
		p.raw(")")
	case *ast.MatchExpr:
		p.raw("m")
		p.raw("(")
		p.printExpr(ex.Scrutinee)
		p.raw(")")
		p.raw("{")
		for _, arm := range ex.Arms {
			p.printPattern(arm.Pattern)
			p.raw("=>")
			p.printExpr(arm.Body)
			p.raw(";")
		}
		p.raw("}")
	case *ast.CallExpr:
		p.raw("c")
		p.raw("(")
		p.printExpr(ex.Callee)
		for _, a := range ex.Args {
			p.raw(",")
			p.printExpr(a)
		}
		p.raw(")")
	case *ast.LambdaExpr:
		p.raw("l")
		p.printParamList(ex.Params)
		p.raw(":")
		p.printType(ex.RetType)
		p.printEffects(ex.Effects)
		p.raw("=")
		p.printExpr(ex.Body)
	case *ast.AssertExpr:
		p.raw("a")
		p.raw("(")
		p.printExpr(ex.Cond)
		if ex.Msg != nil {
			p.raw(",")
			p.printExpr(ex.Msg)
		}
		p.raw(")")
	case *ast.RequireExpr:
		p.raw("^")
		p.printExpr(ex.Cond)
	case *ast.EnsureExpr:
		p.raw("_")
		p.printExpr(ex.Cond)
	case *ast.NameExpr:
		p.name(ex.Name)
	case *ast.NameAppExpr:
		p.name(ex.Name)
		if len(ex.TypeArgs) > 0 {
			p.raw("[")
			for i, ta := range ex.TypeArgs {
				if i > 0 {
					p.raw(",")
				}
				p.printType(ta)
			}
			p.raw("]")
		}
		p.raw("(")
		for i, a := range ex.Args {
			if i > 0 {
				p.raw(",")
			}
			p.printExpr(a)
		}
		p.raw(")")
	case *ast.ParenExpr:
		p.raw("(")
		p.printExpr(ex.Inner)
		p.raw(")")
	}
}

func (p *printer) printPattern(pat ast.Pattern) {
	switch pt := pat.(type) {
	case *ast.WildcardPattern:
		p.raw("_")
	case *ast.LiteralPattern:
		p.printExpr(pt.Value)
	case *ast.NamePattern:
		p.name(pt.Name)
	case *ast.CtorPattern:
		p.name(pt.Name)
		p.raw("(")
		for i, a := range pt.Args {
			if i > 0 {
				p.raw(",")
			}
			p.printPattern(a)
		}
		p.raw(")")
	case *ast.TuplePattern:
		p.raw("(")
		for i, it := range pt.Items {
			if i > 0 {
				p.raw(",")
			}
			p.printPattern(it)
		}
		p.raw(")")
	case *ast.ParenPattern:
		p.raw("(")
		p.printPattern(pt.Inner)
		p.raw(")")
	}
}

// quoteString re-escapes a decoded string literal value back into mu's
// fixed escape set (\" \\ \n \r \t).
func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

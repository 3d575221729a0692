// Package parser turns a mu token stream into an AST, per spec.md §4.2.
// The whole dual-dialect grammar is expressed with a small set of
// single-letter, context-recognized keywords (decl keywords E T V F,
// expression-form keywords v i m c l a) rather than reserved words. The
// parser buffers the full token stream up front; an expression-form
// keyword immediately followed by '(' at expression start is always parsed
// as that form, never as a call to a same-named user function.
package parser

import (
	"strconv"

	"github.com/muscript-lang/mu/internal/ast"
	"github.com/muscript-lang/mu/internal/diag"
	"github.com/muscript-lang/mu/internal/lexer"
	"github.com/muscript-lang/mu/internal/types"
)

// CoreForms is the fixed set of single-letter identifiers reserved for
// decl/expression forms; the formatter's compressed mode must never
// replace these with a symbol-table index (spec.md §4.3).
var CoreForms = map[string]bool{
	"E": true, "T": true, "V": true, "F": true,
	"v": true, "i": true, "m": true, "l": true, "c": true, "a": true,
	"t": true, "f": true,
}

// Parser consumes a pre-lexed token buffer and produces an *ast.Module.
type Parser struct {
	file   string
	source string
	toks   []lexer.Token
	pos    int
	errors []*diag.Diagnostic
	symtab []string
}

// New tokenizes input (recording any lexical diagnostics) and returns a
// Parser ready to parse one module.
func New(input, file string) *Parser {
	l := lexer.New(input)
	toks := l.Tokens()
	p := &Parser{file: file, source: input, toks: toks}
	p.errors = append(p.errors, l.Errors()...)
	for _, d := range p.errors {
		d.File = file
		d.Source = input
	}
	return p
}

// Errors returns every diagnostic accumulated so far (lexical + syntactic).
func (p *Parser) Errors() []*diag.Diagnostic {
	return p.errors
}

func (p *Parser) addErrorf(code diag.Code, span diag.Span, format string, args ...any) {
	d := diag.Newf(code, span, format, args...)
	d.File = p.file
	d.Source = p.source
	p.errors = append(p.errors, d)
}

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF sentinel
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) lexer.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

// mark/reset save and restore the token cursor.
func (p *Parser) mark() int     { return p.pos }
func (p *Parser) reset(m int)   { p.pos = m }

func (p *Parser) at(tt lexer.TokenType) bool { return p.cur().Type == tt }

func (p *Parser) expect(tt lexer.TokenType, what string) (lexer.Token, bool) {
	if p.cur().Type == tt {
		return p.advance(), true
	}
	p.addErrorf(diag.EExpectedToken, p.cur().Span, "expected %s, got %q", what, p.cur().Literal)
	return lexer.Token{}, false
}

// identText returns the literal text of an IDENT token, used only for
// keyword-shape lookahead; any other token (a SYMREF included) yields false.
func identText(t lexer.Token) (string, bool) {
	if t.Type == lexer.IDENT {
		return t.Literal, true
	}
	return "", false
}

// parseIdentRef consumes either an IDENT or a SYMREF token and resolves it
// to a literal name, per spec.md's identifier invariant: resolving an
// identifier always yields a plain name.
func (p *Parser) parseIdentRef() (string, diag.Span, bool) {
	tok := p.cur()
	switch tok.Type {
	case lexer.IDENT:
		p.advance()
		return tok.Literal, tok.Span, true
	case lexer.SYMREF:
		p.advance()
		idx, err := strconv.Atoi(tok.Literal)
		if err != nil {
			p.addErrorf(diag.ESymRefOutOfRange, tok.Span, "malformed symbol reference #%s", tok.Literal)
			return "", tok.Span, false
		}
		if p.symtab == nil {
			p.addErrorf(diag.EMissingSymTable, tok.Span, "symbol reference #%d used without a declared symbol table", idx)
			return "", tok.Span, false
		}
		if idx < 0 || idx >= len(p.symtab) {
			p.addErrorf(diag.ESymRefOutOfRange, tok.Span, "symbol reference #%d out of range (table has %d entries)", idx, len(p.symtab))
			return "", tok.Span, false
		}
		return p.symtab[idx], tok.Span, true
	default:
		p.addErrorf(diag.EExpectedIdent, tok.Span, "expected identifier, got %q", tok.Literal)
		return "", tok.Span, false
	}
}

// ---------------------------------------------------------------------------
// Module
// ---------------------------------------------------------------------------

// ParseModule parses exactly one `@mod.id{ ... }` module.
func (p *Parser) ParseModule() *ast.Module {
	start := p.cur().Span
	if _, ok := p.expect(lexer.AT, "'@'"); !ok {
		return nil
	}
	modID := p.parseModID()
	if _, ok := p.expect(lexer.LBRACE, "'{'"); !ok {
		return nil
	}

	if p.at(lexer.DOLLAR) {
		p.parseSymTable()
	}

	var decls []ast.Decl
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		d := p.parseDecl()
		if d == nil {
			// Fail fast per spec.md §7 ("the parser... fail fast at the first error").
			break
		}
		decls = append(decls, d)
	}
	end := p.cur().Span
	p.expect(lexer.RBRACE, "'}'")

	return ast.NewModule(diag.Merge(start, end), modID, decls)
}

func (p *Parser) parseModID() []string {
	var segs []string
	name, _, ok := p.parseIdentRef()
	if !ok {
		return segs
	}
	segs = append(segs, name)
	for p.at(lexer.DOT) {
		p.advance()
		name, _, ok := p.parseIdentRef()
		if !ok {
			break
		}
		segs = append(segs, name)
	}
	return segs
}

func (p *Parser) parseSymTable() {
	p.advance() // '$'
	p.expect(lexer.LBRACK, "'['")
	var names []string
	if !p.at(lexer.RBRACK) {
		for {
			name, _, ok := p.parseIdentRef()
			if ok {
				names = append(names, name)
			}
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(lexer.RBRACK, "']'")
	p.expect(lexer.SEMICOLON, "';'")
	p.symtab = names
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

func (p *Parser) parseDecl() ast.Decl {
	if p.at(lexer.COLON) {
		return p.parseImportDecl()
	}
	if name, ok := identText(p.cur()); ok {
		switch name {
		case "E":
			return p.parseExportDecl()
		case "T":
			return p.parseTypeDecl()
		case "V":
			return p.parseValueDecl()
		case "F":
			return p.parseFuncDecl()
		}
	}
	p.addErrorf(diag.EUnexpectedToken, p.cur().Span, "expected a declaration (import/export/type/value/function), got %q", p.cur().Literal)
	return nil
}

func (p *Parser) parseImportDecl() ast.Decl {
	start := p.advance().Span // ':'
	alias, _, ok := p.parseIdentRef()
	if !ok {
		return nil
	}
	p.expect(lexer.EQ, "'='")
	modID := p.parseModID()
	end := p.cur().Span
	p.expect(lexer.SEMICOLON, "';'")
	return ast.NewImportDecl(diag.Merge(start, end), alias, modID)
}

func (p *Parser) parseExportDecl() ast.Decl {
	start := p.advance().Span // 'E'
	p.expect(lexer.LBRACK, "'['")
	var names []string
	if !p.at(lexer.RBRACK) {
		for {
			name, _, ok := p.parseIdentRef()
			if ok {
				names = append(names, name)
			}
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(lexer.RBRACK, "']'")
	end := p.cur().Span
	p.expect(lexer.SEMICOLON, "';'")
	return ast.NewExportDecl(diag.Merge(start, end), names)
}

// parseTypeParams parses an optional `[a,b,...]` list. An empty `[]` is
// rejected with E2003 per spec.md §4.2.
func (p *Parser) parseTypeParams() []string {
	if !p.at(lexer.LBRACK) {
		return nil
	}
	p.advance()
	var names []string
	if p.at(lexer.RBRACK) {
		p.addErrorf(diag.EExpectedIdent, p.cur().Span, "empty type-parameter list")
		p.advance()
		return names
	}
	for {
		name, _, ok := p.parseIdentRef()
		if ok {
			names = append(names, name)
		}
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RBRACK, "']'")
	return names
}

func (p *Parser) parseTypeDecl() ast.Decl {
	start := p.advance().Span // 'T'
	name, _, ok := p.parseIdentRef()
	if !ok {
		return nil
	}
	typeParams := p.parseTypeParams()
	p.expect(lexer.EQ, "'='")

	var ctors []ast.CtorSig
	ctors = append(ctors, p.parseCtorSig(typeParams))
	for p.at(lexer.PIPE) {
		p.advance()
		ctors = append(ctors, p.parseCtorSig(typeParams))
	}
	end := p.cur().Span
	p.expect(lexer.SEMICOLON, "';'")
	return ast.NewTypeDecl(diag.Merge(start, end), name, typeParams, ctors)
}

func (p *Parser) parseCtorSig(typeParams []string) ast.CtorSig {
	start := p.cur().Span
	name, _, _ := p.parseIdentRef()
	var fields []types.Type
	if p.at(lexer.LPAREN) {
		p.advance()
		if !p.at(lexer.RPAREN) {
			for {
				fields = append(fields, p.parseType(typeParams))
				if p.at(lexer.COMMA) {
					p.advance()
					continue
				}
				break
			}
		}
		p.expect(lexer.RPAREN, "')'")
	}
	return ast.CtorSig{Name: name, Fields: fields, Span: diag.Merge(start, p.cur().Span)}
}

func (p *Parser) parseValueDecl() ast.Decl {
	start := p.advance().Span // 'V'
	name, _, ok := p.parseIdentRef()
	if !ok {
		return nil
	}
	p.expect(lexer.COLON, "':'")
	typ := p.parseType(nil)
	p.expect(lexer.EQ, "'='")
	expr := p.parseExpr()
	end := p.cur().Span
	p.expect(lexer.SEMICOLON, "';'")
	return ast.NewValueDecl(diag.Merge(start, end), name, typ, expr)
}

func (p *Parser) parseFuncDecl() ast.Decl {
	start := p.advance().Span // 'F'
	name, _, ok := p.parseIdentRef()
	if !ok {
		return nil
	}
	typeParams := p.parseTypeParams()
	p.expect(lexer.COLON, "':'")
	params, ret, effects := p.parseFnType(typeParams)
	p.expect(lexer.EQ, "'='")
	body := p.parseExpr()
	end := p.cur().Span
	p.expect(lexer.SEMICOLON, "';'")
	return ast.NewFuncDecl(diag.Merge(start, end), name, typeParams, params, ret, effects, body)
}

// parseFnType parses a function declaration's signature
// `(name:T,...)->T effects?`, returning its named parameters, its return
// type and its effect set.
func (p *Parser) parseFnType(typeParams []string) ([]ast.Param, types.Type, types.EffectSet) {
	p.expect(lexer.LPAREN, "'('")
	var params []ast.Param
	if !p.at(lexer.RPAREN) {
		for {
			pStart := p.cur().Span
			pname, _, ok := p.parseIdentRef()
			if !ok {
				break
			}
			p.expect(lexer.COLON, "':'")
			ptyp := p.parseType(typeParams)
			params = append(params, ast.Param{Name: pname, Type: ptyp, Span: diag.Merge(pStart, p.cur().Span)})
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(lexer.RPAREN, "')'")
	p.expect(lexer.ARROW, "'->'")
	ret := p.parseType(typeParams)
	effects := p.parseEffectSetOpt()
	return params, ret, effects
}

func (p *Parser) parseEffectSetOpt() types.EffectSet {
	if !p.at(lexer.BANG) {
		return nil
	}
	p.advance()
	p.expect(lexer.LBRACE, "'{'")
	var es types.EffectSet
	if !p.at(lexer.RBRACE) {
		for {
			name, span, ok := p.parseIdentRef()
			if ok {
				eff := types.Effect(name)
				if canon, isGlyph := types.GlyphEffect[name]; isGlyph {
					eff = canon
				}
				es = append(es, eff)
				_ = span
			}
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(lexer.RBRACE, "'}'")
	return es
}

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// primitiveTypes accepts both spellings the corpus actually uses: the
// capitalized forms spec.md §3/§4.4 write in prose, and the lowercase forms
// every executable §8 scenario (and original_source) spells primitives with
// (e.g. "main:()->i32!{io}"). Both decode to the same types.Type.
var primitiveTypes = map[string]types.Type{
	"Bool": types.Bool{}, "String": types.StringT{},
	"I32": types.I32{}, "I64": types.I64{}, "U32": types.U32{}, "U64": types.U64{},
	"F32": types.F32{}, "F64": types.F64{}, "Unit": types.Unit{},

	"bool": types.Bool{}, "string": types.StringT{},
	"i32": types.I32{}, "i64": types.I64{}, "u32": types.U32{}, "u64": types.U64{},
	"f32": types.F32{}, "f64": types.F64{}, "unit": types.Unit{},
}

func isTypeParam(name string, scope []string) bool {
	for _, s := range scope {
		if s == name {
			return true
		}
	}
	return false
}

func (p *Parser) parseType(typeParams []string) types.Type {
	var t types.Type

	switch {
	case p.at(lexer.LPAREN):
		t = p.parseFnOrTupleType(typeParams)
	case p.at(lexer.LBRACK):
		p.advance()
		elem := p.parseType(typeParams)
		p.expect(lexer.RBRACK, "']'")
		t = types.Array{Elem: elem}
	default:
		name, span, ok := p.parseIdentRef()
		if !ok {
			return types.Unit{}
		}
		if prim, isPrim := primitiveTypes[name]; isPrim {
			t = prim
		} else if name == "Map" && p.at(lexer.LPAREN) {
			p.advance()
			k := p.parseType(typeParams)
			p.expect(lexer.COMMA, "','")
			v := p.parseType(typeParams)
			p.expect(lexer.RPAREN, "')'")
			t = types.Map{Key: k, Value: v}
		} else if name == "Result" && p.at(lexer.LPAREN) {
			p.advance()
			ok := p.parseType(typeParams)
			p.expect(lexer.COMMA, "','")
			er := p.parseType(typeParams)
			p.expect(lexer.RPAREN, "')'")
			t = types.Result{Ok: ok, Err: er}
		} else if isTypeParam(name, typeParams) {
			t = types.TypeVar{Name: name}
		} else if p.at(lexer.LPAREN) {
			p.advance()
			var args []types.Type
			if !p.at(lexer.RPAREN) {
				for {
					args = append(args, p.parseType(typeParams))
					if p.at(lexer.COMMA) {
						p.advance()
						continue
					}
					break
				}
			}
			p.expect(lexer.RPAREN, "')'")
			t = types.Named{Name: name, Args: args}
		} else {
			t = types.Named{Name: name}
		}
		_ = span
	}

	for p.at(lexer.QUESTION) {
		p.advance()
		t = types.Optional{Elem: t}
	}
	return t
}

// parseFnOrTupleType disambiguates `(T,T)->T!{...}` (Function) from a
// parenthesized/tuple type by looking for a following `->`.
func (p *Parser) parseFnOrTupleType(typeParams []string) types.Type {
	m := p.mark()
	p.advance() // '('
	var items []types.Type
	if !p.at(lexer.RPAREN) {
		for {
			items = append(items, p.parseType(typeParams))
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(lexer.RPAREN, "')'")

	if p.at(lexer.ARROW) {
		p.advance()
		ret := p.parseType(typeParams)
		effects := p.parseEffectSetOpt()
		return types.Function{Params: items, Ret: ret, Effects: effects}
	}

	switch len(items) {
	case 0:
		return types.Tuple{}
	case 1:
		return items[0]
	default:
		_ = m
		return types.Tuple{Items: items}
	}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// formKeyword dispatches the single-letter expression-form keywords.
// A form keyword is only recognized when immediately followed by '(' in
// expr-start position; elsewhere (e.g. passed as a plain argument, or
// reached via the generic call-form as in `c(v, x)`) the same identifier
// parses as an ordinary name, per spec.md's "not reserved words" note.
func (p *Parser) formKeyword(name string) (func() ast.Expr, bool) {
	switch name {
	case "v":
		return p.parseLetExpr, true
	case "i":
		return p.parseIfExpr, true
	case "m":
		return p.parseMatchExpr, true
	case "c":
		return p.parseCallExpr, true
	case "l":
		return p.parseLambdaExpr, true
	case "a":
		return p.parseAssertExpr, true
	}
	return nil, false
}

var operatorGlyph = map[lexer.TokenType]bool{
	lexer.PLUS: true, lexer.MINUS: true, lexer.STAR: true, lexer.SLASH: true,
	lexer.PERCENT: true, lexer.EQEQ: true, lexer.NOTEQ: true,
	lexer.LT: true, lexer.LE: true, lexer.GT: true, lexer.GE: true,
}

// parseExpr parses one expression. mu has no surface infix syntax: the
// arithmetic/comparison operators are ordinary builtin names (`+`, `==`,
// ...) referenced as the callee of a call-form, e.g. `c(+, a, b)`.
func (p *Parser) parseExpr() ast.Expr {
	tok := p.cur()

	if operatorGlyph[tok.Type] {
		p.advance()
		return ast.NewNameExpr(tok.Span, tok.Type.String())
	}

	switch tok.Type {
	case lexer.LBRACE:
		return p.parseBlockExpr()
	case lexer.CARET:
		p.advance()
		cond := p.parseExpr()
		return ast.NewRequireExpr(diag.Merge(tok.Span, cond.Span()), cond)
	case lexer.UNDERSCORE:
		p.advance()
		cond := p.parseExpr()
		return ast.NewEnsureExpr(diag.Merge(tok.Span, cond.Span()), cond)
	case lexer.LPAREN:
		return p.parseParenOrUnit()
	case lexer.INT:
		p.advance()
		v, _ := strconv.ParseInt(tok.Literal, 10, 64)
		return ast.NewIntLit(tok.Span, v)
	case lexer.STRING:
		p.advance()
		return ast.NewStringLit(tok.Span, tok.Literal)
	case lexer.IDENT:
		if name, _ := identText(tok); name != "" {
			if fn, ok := p.formKeyword(name); ok && p.peekAt(1).Type == lexer.LPAREN {
				return fn()
			}
			if (name == "t" || name == "f") && p.peekAt(1).Type != lexer.LPAREN && p.peekAt(1).Type != lexer.LBRACK {
				p.advance()
				return ast.NewBoolLit(tok.Span, name == "t")
			}
		}
		return p.parseNameOrApp()
	case lexer.SYMREF:
		return p.parseNameOrApp()
	default:
		p.addErrorf(diag.EExpectedExpr, tok.Span, "expected expression, got %q", tok.Literal)
		p.advance()
		return ast.NewUnitExpr(tok.Span)
	}
}

func (p *Parser) parseParenOrUnit() ast.Expr {
	start := p.advance().Span // '('
	if p.at(lexer.RPAREN) {
		end := p.cur().Span
		p.advance()
		return ast.NewUnitExpr(diag.Merge(start, end))
	}
	inner := p.parseExpr()
	end := p.cur().Span
	p.expect(lexer.RPAREN, "')'")
	return ast.NewParenExpr(diag.Merge(start, end), inner)
}

func (p *Parser) parseBlockExpr() ast.Expr {
	start := p.advance().Span // '{'
	var stmts []ast.Expr
	var tail ast.Expr
	if p.at(lexer.RBRACE) {
		tail = ast.NewUnitExpr(p.cur().Span)
	} else {
		for {
			e := p.parseExpr()
			if p.at(lexer.SEMICOLON) {
				p.advance()
				stmts = append(stmts, e)
				if p.at(lexer.RBRACE) || p.at(lexer.EOF) {
					tail = ast.NewUnitExpr(p.cur().Span)
					break
				}
				continue
			}
			tail = e
			break
		}
	}
	end := p.cur().Span
	p.expect(lexer.RBRACE, "'}'")
	return ast.NewBlockExpr(diag.Merge(start, end), stmts, tail)
}

func (p *Parser) parseLetExpr() ast.Expr {
	start := p.advance().Span // 'v'
	p.expect(lexer.LPAREN, "'('")
	name, _, _ := p.parseIdentRef()
	var ann types.Type
	if p.at(lexer.COLON) {
		p.advance()
		ann = p.parseType(nil)
	}
	p.expect(lexer.EQ, "'='")
	value := p.parseExpr()
	p.expect(lexer.COMMA, "','")
	body := p.parseExpr()
	end := p.cur().Span
	p.expect(lexer.RPAREN, "')'")
	return ast.NewLetExpr(diag.Merge(start, end), name, ann, value, body)
}

func (p *Parser) parseIfExpr() ast.Expr {
	start := p.advance().Span // 'i'
	p.expect(lexer.LPAREN, "'('")
	cond := p.parseExpr()
	p.expect(lexer.COMMA, "','")
	then := p.parseExpr()
	p.expect(lexer.COMMA, "','")
	els := p.parseExpr()
	end := p.cur().Span
	p.expect(lexer.RPAREN, "')'")
	return ast.NewIfExpr(diag.Merge(start, end), cond, then, els)
}

func (p *Parser) parseMatchExpr() ast.Expr {
	start := p.advance().Span // 'm'
	p.expect(lexer.LPAREN, "'('")
	scrutinee := p.parseExpr()
	p.expect(lexer.RPAREN, "')'")
	p.expect(lexer.LBRACE, "'{'")
	var arms []ast.MatchArm
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		pat := p.parsePattern()
		p.expect(lexer.FATARROW, "'=>'")
		body := p.parseExpr()
		arms = append(arms, ast.MatchArm{Pattern: pat, Body: body})
		p.expect(lexer.SEMICOLON, "';'")
	}
	end := p.cur().Span
	p.expect(lexer.RBRACE, "'}'")
	return ast.NewMatchExpr(diag.Merge(start, end), scrutinee, arms)
}

func (p *Parser) parseCallExpr() ast.Expr {
	start := p.advance().Span // 'c'
	p.expect(lexer.LPAREN, "'('")
	callee := p.parseExpr()
	var args []ast.Expr
	for p.at(lexer.COMMA) {
		p.advance()
		args = append(args, p.parseExpr())
	}
	end := p.cur().Span
	p.expect(lexer.RPAREN, "')'")
	return ast.NewCallExpr(diag.Merge(start, end), callee, args)
}

func (p *Parser) parseLambdaExpr() ast.Expr {
	start := p.advance().Span // 'l'
	p.expect(lexer.LPAREN, "'('")
	var params []ast.Param
	if !p.at(lexer.RPAREN) {
		for {
			pStart := p.cur().Span
			pname, _, ok := p.parseIdentRef()
			if !ok {
				break
			}
			p.expect(lexer.COLON, "':'")
			ptyp := p.parseType(nil)
			params = append(params, ast.Param{Name: pname, Type: ptyp, Span: diag.Merge(pStart, p.cur().Span)})
			if p.at(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(lexer.RPAREN, "')'")
	p.expect(lexer.COLON, "':'")
	ret := p.parseType(nil)
	effects := p.parseEffectSetOpt()
	p.expect(lexer.EQ, "'='")
	body := p.parseExpr()
	return ast.NewLambdaExpr(diag.Merge(start, body.Span()), params, ret, effects, body)
}

func (p *Parser) parseAssertExpr() ast.Expr {
	start := p.advance().Span // 'a'
	p.expect(lexer.LPAREN, "'('")
	cond := p.parseExpr()
	var msg ast.Expr
	if p.at(lexer.COMMA) {
		p.advance()
		msg = p.parseExpr()
	}
	end := p.cur().Span
	p.expect(lexer.RPAREN, "')'")
	return ast.NewAssertExpr(diag.Merge(start, end), cond, msg)
}

// parseNameOrApp parses a bare name, an optional `[typeArgs]` suffix, and an
// optional `(args)` suffix — the `Some[I32](0)`-style direct constructor and
// generic-call syntax that bypasses the `c(...)` call-form wrapper.
func (p *Parser) parseNameOrApp() ast.Expr {
	name, span, ok := p.parseIdentRef()
	if !ok {
		return ast.NewUnitExpr(span)
	}

	var typeArgs []types.Type
	if p.at(lexer.LBRACK) {
		p.advance()
		if !p.at(lexer.RBRACK) {
			for {
				typeArgs = append(typeArgs, p.parseType(nil))
				if p.at(lexer.COMMA) {
					p.advance()
					continue
				}
				break
			}
		}
		p.expect(lexer.RBRACK, "']'")
	}

	if p.at(lexer.LPAREN) {
		p.advance()
		var args []ast.Expr
		if !p.at(lexer.RPAREN) {
			for {
				args = append(args, p.parseExpr())
				if p.at(lexer.COMMA) {
					p.advance()
					continue
				}
				break
			}
		}
		end := p.cur().Span
		p.expect(lexer.RPAREN, "')'")
		return ast.NewNameAppExpr(diag.Merge(span, end), name, typeArgs, args)
	}

	if len(typeArgs) > 0 {
		p.addErrorf(diag.EExpectedToken, span, "type arguments on %q require a following '('", name)
		return ast.NewNameAppExpr(span, name, typeArgs, nil)
	}
	return ast.NewNameExpr(span, name)
}

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

func (p *Parser) parsePattern() ast.Pattern {
	tok := p.cur()
	switch tok.Type {
	case lexer.UNDERSCORE:
		p.advance()
		return ast.NewWildcardPattern(tok.Span)
	case lexer.INT:
		p.advance()
		v, _ := strconv.ParseInt(tok.Literal, 10, 64)
		return ast.NewLiteralPattern(tok.Span, ast.NewIntLit(tok.Span, v))
	case lexer.STRING:
		p.advance()
		return ast.NewLiteralPattern(tok.Span, ast.NewStringLit(tok.Span, tok.Literal))
	case lexer.LPAREN:
		return p.parseParenOrTuplePattern()
	case lexer.IDENT, lexer.SYMREF:
		name, span, ok := p.parseIdentRef()
		if !ok {
			return ast.NewWildcardPattern(span)
		}
		if p.at(lexer.LPAREN) {
			p.advance()
			var args []ast.Pattern
			if !p.at(lexer.RPAREN) {
				for {
					args = append(args, p.parsePattern())
					if p.at(lexer.COMMA) {
						p.advance()
						continue
					}
					break
				}
			}
			end := p.cur().Span
			p.expect(lexer.RPAREN, "')'")
			return ast.NewCtorPattern(diag.Merge(span, end), name, args)
		}
		if name == "t" || name == "f" {
			return ast.NewLiteralPattern(span, ast.NewBoolLit(span, name == "t"))
		}
		return ast.NewNamePattern(span, name)
	default:
		p.addErrorf(diag.EExpectedExpr, tok.Span, "expected a pattern, got %q", tok.Literal)
		p.advance()
		return ast.NewWildcardPattern(tok.Span)
	}
}

func (p *Parser) parseParenOrTuplePattern() ast.Pattern {
	start := p.advance().Span // '('
	if p.at(lexer.RPAREN) {
		end := p.cur().Span
		p.advance()
		return ast.NewTuplePattern(diag.Merge(start, end), nil)
	}
	first := p.parsePattern()
	if p.at(lexer.COMMA) {
		items := []ast.Pattern{first}
		for p.at(lexer.COMMA) {
			p.advance()
			items = append(items, p.parsePattern())
		}
		end := p.cur().Span
		p.expect(lexer.RPAREN, "')'")
		return ast.NewTuplePattern(diag.Merge(start, end), items)
	}
	end := p.cur().Span
	p.expect(lexer.RPAREN, "')'")
	return ast.NewParenPattern(diag.Merge(start, end), first)
}

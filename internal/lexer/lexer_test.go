package lexer

import (
	"testing"

	"github.com/muscript-lang/mu/internal/diag"
)

func TestNextTokenPunctuationAndOperators(t *testing.T) {
	input := `@ : ; , . = | ! ? ^ _ $ ( ) [ ] { } + - * / % == != < <= > >= -> =>`

	tests := []struct {
		typ     TokenType
		literal string
	}{
		{AT, "@"}, {COLON, ":"}, {SEMICOLON, ";"}, {COMMA, ","}, {DOT, "."}, {EQ, "="},
		{PIPE, "|"}, {BANG, "!"}, {QUESTION, "?"}, {CARET, "^"}, {UNDERSCORE, "_"}, {DOLLAR, "$"},
		{LPAREN, "("}, {RPAREN, ")"}, {LBRACK, "["}, {RBRACK, "]"}, {LBRACE, "{"}, {RBRACE, "}"},
		{PLUS, "+"}, {MINUS, "-"}, {STAR, "*"}, {SLASH, "/"}, {PERCENT, "%"},
		{EQEQ, "=="}, {NOTEQ, "!="}, {LT, "<"}, {LE, "<="}, {GT, ">"}, {GE, ">="},
		{ARROW, "->"}, {FATARROW, "=>"},
		{EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.typ {
			t.Fatalf("tests[%d]: type = %s, want %s (literal %q)", i, tok.Type, tt.typ, tok.Literal)
		}
		if tok.Literal != tt.literal {
			t.Fatalf("tests[%d]: literal = %q, want %q", i, tok.Literal, tt.literal)
		}
	}
	if len(l.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", l.Errors())
	}
}

func TestNextTokenIdentAndSymref(t *testing.T) {
	l := New("foo bar_2 #12 #0")
	want := []struct {
		typ     TokenType
		literal string
	}{
		{IDENT, "foo"}, {IDENT, "bar_2"}, {SYMREF, "12"}, {SYMREF, "0"}, {EOF, ""},
	}
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w.typ || tok.Literal != w.literal {
			t.Fatalf("tests[%d]: got {%s %q}, want {%s %q}", i, tok.Type, tok.Literal, w.typ, w.literal)
		}
	}
}

func TestReadStringEscapes(t *testing.T) {
	l := New(`"a\nb\tc\"d\\e"`)
	tok := l.NextToken()
	if tok.Type != STRING {
		t.Fatalf("type = %s, want STRING", tok.Type)
	}
	want := "a\nb\tc\"d\\e"
	if tok.Literal != want {
		t.Fatalf("literal = %q, want %q", tok.Literal, want)
	}
	if len(l.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", l.Errors())
	}
}

func TestReadStringRawNewlineIsError(t *testing.T) {
	l := New("\"abc\nx\"")
	l.NextToken()
	if len(l.Errors()) != 1 || l.Errors()[0].Code != diag.ERawNewlineInString {
		t.Fatalf("errors = %v, want one ERawNewlineInString", l.Errors())
	}
}

func TestReadStringUnknownEscape(t *testing.T) {
	l := New(`"\q"`)
	l.NextToken()
	if len(l.Errors()) != 1 || l.Errors()[0].Code != diag.EBadEscape {
		t.Fatalf("errors = %v, want one EBadEscape", l.Errors())
	}
}

func TestReadIntLeadingZero(t *testing.T) {
	l := New("007")
	l.NextToken()
	if len(l.Errors()) != 1 || l.Errors()[0].Code != diag.ELeadingZero {
		t.Fatalf("errors = %v, want one ELeadingZero", l.Errors())
	}
}

func TestReadIntOutOfRange(t *testing.T) {
	l := New("9223372036854775808")
	l.NextToken()
	if len(l.Errors()) != 1 || l.Errors()[0].Code != diag.EIntOutOfRange {
		t.Fatalf("errors = %v, want one EIntOutOfRange", l.Errors())
	}
}

func TestSkipLineAndBlockComments(t *testing.T) {
	l := New("a // trailing comment\n/* block\ncomment */ b")
	first := l.NextToken()
	second := l.NextToken()
	third := l.NextToken()
	if first.Literal != "a" || second.Literal != "b" || third.Type != EOF {
		t.Fatalf("got %q, %q, %s", first.Literal, second.Literal, third.Type)
	}
}

func TestUnterminatedBlockComment(t *testing.T) {
	l := New("/* never closes")
	l.NextToken()
	if len(l.Errors()) != 1 || l.Errors()[0].Code != diag.EUnterminatedComment {
		t.Fatalf("errors = %v, want one EUnterminatedComment", l.Errors())
	}
}

func TestUnderscoreIsItsOwnTokenType(t *testing.T) {
	l := New("_ _foo")
	first := l.NextToken()
	second := l.NextToken()
	if first.Type != UNDERSCORE {
		t.Fatalf("first = %s, want UNDERSCORE", first.Type)
	}
	if second.Type != IDENT || second.Literal != "_foo" {
		t.Fatalf("second = {%s %q}, want {IDENT _foo}", second.Type, second.Literal)
	}
}

func TestTokensIncludesTrailingEOF(t *testing.T) {
	toks := New("a b").Tokens()
	if len(toks) != 3 {
		t.Fatalf("len(toks) = %d, want 3", len(toks))
	}
	if toks[len(toks)-1].Type != EOF {
		t.Fatalf("last token = %s, want EOF", toks[len(toks)-1].Type)
	}
}

func TestIllegalCharacterRecorded(t *testing.T) {
	l := New("a ` b")
	l.NextToken()
	tok := l.NextToken()
	if tok.Type != ILLEGAL {
		t.Fatalf("type = %s, want ILLEGAL", tok.Type)
	}
	if len(l.Errors()) != 1 || l.Errors()[0].Code != diag.EIllegalChar {
		t.Fatalf("errors = %v, want one EIllegalChar", l.Errors())
	}
}

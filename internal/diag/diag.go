// Package diag provides stable error codes and byte-span -> line/column
// mapping shared by every phase of the mu toolchain (lexer, parser,
// checker, codec, VM).
package diag

import (
	"fmt"
	"strings"
)

// Position is a 1-indexed line/column location over Unicode scalar values,
// plus the 0-indexed byte offset it corresponds to in the source.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Span is a half-open byte range [Start, End) over the original source.
// Spans are mergeable by min-start/max-end.
type Span struct {
	Start Position
	End   Position
}

// Merge returns the smallest span covering both a and b.
func Merge(a, b Span) Span {
	m := a
	if b.Start.Offset < m.Start.Offset {
		m.Start = b.Start
	}
	if b.End.Offset > m.End.Offset {
		m.End = b.End
	}
	return m
}

// Code is a stable diagnostic code such as "E1001" or "E4007".
type Code string

// Lexer errors.
const (
	EIllegalChar       Code = "E1001"
	ERawNewlineInString Code = "E1002"
	EUnterminatedEscape Code = "E1003"
	EBadEscape          Code = "E1004"
	EUnterminatedComment Code = "E1005"
	ELeadingZero        Code = "E1006"
	EIntOutOfRange      Code = "E1007"
)

// Parser errors.
const (
	EUnexpectedToken   Code = "E2001"
	EExpectedToken     Code = "E2002"
	EExpectedIdent     Code = "E2003"
	EExpectedType      Code = "E2004"
	EExpectedExpr      Code = "E2005"
	EMissingSymTable   Code = "E2006"
	ESymRefOutOfRange  Code = "E2007"
)

// Type & effect checker errors.
const (
	EUnknownName        Code = "E3001"
	EUnknownModule       Code = "E3002"
	EInvalidExport       Code = "E3003"
	ETypeMismatch        Code = "E3004"
	ENotCallable         Code = "E3005"
	EArityMismatch       Code = "E3006"
	EEffectViolation     Code = "E3007"
	ENonExhaustiveMatch  Code = "E3008"
	EInvalidPattern      Code = "E3009"
	EDuplicateModule     Code = "E3010"
	EDuplicateSymbol     Code = "E3011"
	ENonCanonicalEffects Code = "E3012"
	ERBoundOutsideEnsure Code = "E3013"
	EBadMainSignature    Code = "E3014"
)

// VM traps.
const (
	ETrapAssert        Code = "E4001"
	ETrapContract      Code = "E4002"
	ETrapArithmetic    Code = "E4003"
	ETrapFieldOOB      Code = "E4004"
	ETrapInvalidMatch  Code = "E4005"
	ETrapNonZeroMain   Code = "E4006"
	ETrapFuelExhausted Code = "E4007"
	// ETrapStackUnderflow is a VM-internal sanity trap that guards
	// hostile/corrupt bytecode passed directly to `run`. The VM also reports
	// a host print/println failure with it, except the sandbox output cap,
	// which is ESandboxOutputLimit.
	ETrapStackUnderflow Code = "E4008"
	// ECompileUnsupportedPattern is raised by the bytecode compiler (not the
	// VM) when a match pattern is an integer or string literal, which spec.md
	// §9 leaves as an open question; see DESIGN.md.
	ECompileUnsupportedPattern Code = "E4009"
)

// Bytecode decode errors.
const (
	EBadMagic           Code = "E4101"
	ETruncated          Code = "E4102"
	EInvalidUTF8        Code = "E4103"
	ECountOutOfBounds   Code = "E4104"
	EOperandOutOfRange  Code = "E4105"
	EJumpOutOfRange     Code = "E4106"
	EUnknownOpcode      Code = "E4107"
	EUnknownBuiltin     Code = "E4108"
	ETrailingBytes      Code = "E4109"
)

// ESandboxOutputLimit is the sandbox host's stable trap code for the
// accumulated stdout/stderr cap described in spec §4.6.
const ESandboxOutputLimit Code = "E_OUTPUT_LIMIT"

// Diagnostic is a single reported error: a stable code, a location, and a
// human message. Diagnostics are values, never exceptions: every phase
// returns them, it never panics across a public API boundary.
type Diagnostic struct {
	Code    Code
	Span    Span
	File    string
	Source  string
	Message string
}

// New creates a Diagnostic at a span.
func New(code Code, span Span, message string) *Diagnostic {
	return &Diagnostic{Code: code, Span: span, Message: message}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(code Code, span Span, format string, args ...any) *Diagnostic {
	return New(code, span, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	return d.Line()
}

// Line renders the stable one-line form required by spec §6:
// "{path}:{line}:{col}: {ECODE}: {message}".
func (d *Diagnostic) Line() string {
	path := d.File
	if path == "" {
		path = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", path, d.Span.Start.Line, d.Span.Start.Column, d.Code, d.Message)
}

// Format renders the diagnostic with a caret-pointing source excerpt.
func (d *Diagnostic) Format() string {
	var sb strings.Builder
	sb.WriteString(d.Line())
	sb.WriteString("\n")

	line := sourceLine(d.Source, d.Span.Start.Line)
	if line != "" {
		prefix := fmt.Sprintf("%4d | ", d.Span.Start.Line)
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(prefix)+max(0, d.Span.Start.Column-1)))
		sb.WriteString("^")
		sb.WriteString("\n")
	}
	return sb.String()
}

func sourceLine(source string, lineNum int) string {
	if source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// FormatAll renders a sequence of diagnostics, one after another.
func FormatAll(diags []*Diagnostic) string {
	var sb strings.Builder
	for i, d := range diags {
		sb.WriteString(d.Format())
		if i < len(diags)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestFormatRendererRejectsUnknownMode(t *testing.T) {
	if _, err := formatRenderer("pascal"); err == nil {
		t.Fatalf("expected an error for an unknown --mode value")
	}
}

func TestFormatRendererAcceptsKnownModesCaseInsensitively(t *testing.T) {
	if _, err := formatRenderer("Readable"); err != nil {
		t.Fatalf("formatRenderer(Readable): %v", err)
	}
	if _, err := formatRenderer("COMPRESSED"); err != nil {
		t.Fatalf("formatRenderer(COMPRESSED): %v", err)
	}
}

func TestRunFmtPrintsCanonicalSource(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "main.mu", `@app{F main:()->I32=0;}`)

	oldMode, oldCheck := fmtMode, fmtCheck
	defer func() { fmtMode, fmtCheck = oldMode, oldCheck }()
	fmtMode, fmtCheck = "readable", false

	if err := runFmt(nil, []string{path}); err != nil {
		t.Fatalf("runFmt: %v", err)
	}
}

func TestRunFmtCheckReportsMismatch(t *testing.T) {
	dir := t.TempDir()
	// Deliberately mis-formatted: extra internal whitespace the canonical
	// renderer would not emit.
	path := writeTestFile(t, dir, "main.mu", "@app{F main:()->I32   =0;}")

	oldMode, oldCheck := fmtMode, fmtCheck
	defer func() { fmtMode, fmtCheck = oldMode, oldCheck }()
	fmtMode, fmtCheck = "readable", true

	if err := runFmt(nil, []string{path}); err == nil {
		t.Fatalf("expected runFmt --check to report a mismatch")
	}
}

func TestRunFmtCheckAcceptsCanonicalSource(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "main.mu", `@app{F main:()->I32=0;}`)

	oldMode, oldCheck := fmtMode, fmtCheck
	defer func() { fmtMode, fmtCheck = oldMode, oldCheck }()
	fmtMode, fmtCheck = "readable", true

	if err := runFmt(nil, []string{path}); err != nil {
		t.Fatalf("runFmt --check on already-canonical source: %v", err)
	}
}

func TestRunFmtRejectsSyntaxError(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "bad.mu", `@app{F main:()->I32=0}`) // missing ';'

	oldMode, oldCheck := fmtMode, fmtCheck
	defer func() { fmtMode, fmtCheck = oldMode, oldCheck }()
	fmtMode, fmtCheck = "readable", false

	if err := runFmt(nil, []string{path}); err == nil {
		t.Fatalf("expected a parse error from runFmt")
	}
}

func TestRunFmtWalksDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.mu", `@app.a{F f:()->I32=0;}`)
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeTestFile(t, sub, "b.mu", `@app.b{F g:()->I32=0;}`)

	oldMode, oldCheck := fmtMode, fmtCheck
	defer func() { fmtMode, fmtCheck = oldMode, oldCheck }()
	fmtMode, fmtCheck = "readable", false

	if err := runFmt(nil, []string{dir}); err != nil {
		t.Fatalf("runFmt over a directory: %v", err)
	}
}

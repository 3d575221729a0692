// Package loader implements mu's module-source conventions (spec.md §6):
// given an entry `.mu` file, parse every `.mu` file under its directory to
// learn each one's module-id, and keep the sibling modules the entry
// transitively imports. There is no manifest and no search path beyond the
// entry file's own directory tree.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/maruel/natural"
	"github.com/muscript-lang/mu/internal/ast"
	"github.com/muscript-lang/mu/internal/diag"
	"github.com/muscript-lang/mu/internal/parser"
)

// BuiltinModules is the fixed set of import targets that never require a
// loaded sibling source file (spec.md §4.4).
var BuiltinModules = map[string]bool{
	"core.prelude": true, "core.io": true, "core.fs": true,
	"core.json": true, "core.proc": true, "core.http": true,
}

// ParseError wraps a diagnostic raised while lexing or parsing one of the
// files Load reads, so callers that only expect an `error` (os.ReadFile's
// usual shape) can still recover the full diagnostic for CLI formatting.
type ParseError struct {
	Path string
	Diag *diag.Diagnostic
}

func (e *ParseError) Error() string { return e.Diag.Error() }

// Program is an entry module plus every sibling module it transitively
// imports, in the order each was first discovered.
type Program struct {
	Entry   *ast.Module
	Sibling []*ast.Module
}

// All returns Entry followed by Sibling, the order Checker.AddModule wants
// them registered in.
func (p *Program) All() []*ast.Module {
	out := make([]*ast.Module, 0, 1+len(p.Sibling))
	out = append(out, p.Entry)
	out = append(out, p.Sibling...)
	return out
}

// Load parses entryPath and then, walking entryPath's directory tree,
// loads whichever sibling `.mu` files declare a module-id that the entry
// module (or one of its already-loaded siblings) imports, transitively.
// Sibling discovery order is natural-sorted so multi-file builds are
// deterministic regardless of the host filesystem's directory order.
func Load(entryPath string) (*Program, error) {
	entrySrc, err := os.ReadFile(entryPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", entryPath, err)
	}
	entryMod, err := parseFile(entryPath, string(entrySrc))
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(entryPath)
	index, err := indexMuFiles(dir)
	if err != nil {
		return nil, err
	}

	loaded := map[string]bool{}
	var order []string
	needed := importedIDs(entryMod)
	entryID := entryMod.Dotted()

	for len(needed) > 0 {
		id := needed[0]
		needed = needed[1:]
		if id == entryID || loaded[id] || BuiltinModules[id] {
			continue
		}
		mod, ok := index[id]
		if !ok {
			return nil, fmt.Errorf("no sibling .mu file declares module %q", id)
		}
		loaded[id] = true
		order = append(order, id)
		needed = append(needed, importedIDs(mod)...)
	}

	sibs := make([]*ast.Module, len(order))
	for i, id := range order {
		sibs[i] = index[id]
	}
	return &Program{Entry: entryMod, Sibling: sibs}, nil
}

func importedIDs(m *ast.Module) []string {
	var ids []string
	for _, d := range m.Decls {
		if imp, ok := d.(*ast.ImportDecl); ok {
			ids = append(ids, strings.Join(imp.ModuleID, "."))
		}
	}
	return ids
}

func parseFile(path, src string) (*ast.Module, error) {
	p := parser.New(src, path)
	mod := p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, &ParseError{Path: path, Diag: errs[0]}
	}
	return mod, nil
}

// indexMuFiles parses every `.mu` file under dir (natural order) and
// returns a map from declared module-id to its parsed module. A module-id
// declared twice is an error: Load's worklist has no way to prefer one
// file over another.
func indexMuFiles(dir string) (map[string]*ast.Module, error) {
	paths, err := collectMuFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	index := make(map[string]*ast.Module, len(paths))
	seenAt := map[string]string{}
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		mod, err := parseFile(path, string(src))
		if err != nil {
			return nil, err
		}
		id := mod.Dotted()
		if prior, dup := seenAt[id]; dup {
			return nil, fmt.Errorf("module %q declared in both %s and %s", id, prior, path)
		}
		seenAt[id] = path
		index[id] = mod
	}
	return index, nil
}

// collectMuFiles walks dir recursively collecting every `.mu` file,
// natural-sorted for deterministic, human-sensible ordering (so mod2.mu
// sorts before mod10.mu). Grounded on original_source/src/fmt.rs's
// collect_mu_files/collect_mu_files_rec.
func collectMuFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".mu") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	natural.Sort(files)
	return files, nil
}

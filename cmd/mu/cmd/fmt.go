package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/muscript-lang/mu/internal/ast"
	"github.com/muscript-lang/mu/internal/format"
	"github.com/muscript-lang/mu/internal/parser"
	"github.com/spf13/cobra"
)

var (
	fmtMode  string // --mode: readable or compressed
	fmtCheck bool   // --check: report mismatches instead of rewriting
)

var fmtCmd = &cobra.Command{
	Use:   "fmt <file|dir>",
	Short: "Format mu source files",
	Long: `Format mu source files by parsing them to an AST and re-emitting
canonical source in the requested dialect.

  mu fmt script.mu                    # print canonical Readable source
  mu fmt --mode=compressed script.mu  # print canonical Compressed source
  mu fmt --check src/                 # list files whose formatting differs

With a directory argument, every *.mu file under it is formatted. With no
--check, output is written to stdout; fmt never rewrites files in place
(unlike gofmt -w) since a mu source file's dialect is a property of its
own syntax, not a side file attribute.`,
	Args: cobra.ExactArgs(1),
	RunE: runFmt,
}

func init() {
	rootCmd.AddCommand(fmtCmd)
	fmtCmd.Flags().StringVar(&fmtMode, "mode", "readable", "output dialect: readable or compressed")
	fmtCmd.Flags().BoolVar(&fmtCheck, "check", false, "list files whose formatting would change, without printing them")
}

func runFmt(_ *cobra.Command, args []string) error {
	render, err := formatRenderer(fmtMode)
	if err != nil {
		return err
	}

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	var files []string
	if info.IsDir() {
		err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(p, ".mu") {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		files = []string{path}
	}

	mismatched := false
	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("reading %s: %w", f, err)
		}
		p := parser.New(string(src), f)
		mod := p.ParseModule()
		if errs := p.Errors(); len(errs) > 0 {
			fmt.Fprint(os.Stderr, errs[0].Format())
			return fmt.Errorf("formatting failed for %s", f)
		}
		out := render(mod)

		if fmtCheck {
			if out != string(src) {
				fmt.Println(f)
				mismatched = true
			}
			continue
		}
		fmt.Print(out)
	}

	if fmtCheck && mismatched {
		return fmt.Errorf("one or more files are not canonically formatted")
	}
	return nil
}

func formatRenderer(mode string) (func(*ast.Module) string, error) {
	switch strings.ToLower(mode) {
	case "readable":
		return format.Readable, nil
	case "compressed":
		return format.Compressed, nil
	}
	return nil, fmt.Errorf("unknown --mode %q (use readable or compressed)", mode)
}

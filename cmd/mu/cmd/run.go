package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/muscript-lang/mu/internal/bytecode"
	"github.com/muscript-lang/mu/internal/check"
	"github.com/muscript-lang/mu/internal/host"
	"github.com/muscript-lang/mu/internal/loader"
	"github.com/muscript-lang/mu/internal/vm"
	"github.com/spf13/cobra"
)

// defaultFuel bounds a `mu run` invocation when --fuel is not given. It is
// a CLI convenience, not part of the language: the VM itself has no
// built-in default (spec.md §4.6 leaves fuel entirely caller-supplied).
const defaultFuel = 100_000_000

var runFuel uint64

var runCmd = &cobra.Command{
	Use:   "run <file.mu|file.mub> [-- args...]",
	Short: "Check, compile, and execute a mu program",
	Long: `Run executes a mu program against the real host.

Given a .mu source file, run loads its sibling imports, type-checks the
whole program, compiles the entry module to bytecode, and executes it.
Given a .mub file (as produced by "mu build"), run decodes and executes
it directly, skipping the front end entirely.

Arguments after "--" are accepted for parity with the CLI synopsis but
are not passed to the program: a mu entry function always has arity
zero (spec.md §4.6 "The entry function must have arity 0").`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Uint64Var(&runFuel, "fuel", defaultFuel, "maximum opcode dispatches before the VM traps E4007")
}

func runRun(_ *cobra.Command, args []string) error {
	path := args[0]
	chunk, err := loadChunk(path)
	if err != nil {
		return err
	}

	real := host.NewReal()
	machine := vm.New(chunk, real, runFuel)
	code, d := machine.Run()
	if d != nil {
		fmt.Fprintln(os.Stderr, d.Line())
		os.Exit(1)
	}
	os.Exit(code)
	return nil
}

// loadChunk produces a decoded *bytecode.Chunk from either a .mub image or
// a .mu entry module (front end run end to end: load, check, compile).
func loadChunk(path string) (*bytecode.Chunk, error) {
	if strings.HasSuffix(path, ".mub") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		chunk, d := bytecode.Decode(data)
		if d != nil {
			return nil, fmt.Errorf("%s", d.Line())
		}
		return chunk, nil
	}
	return compileFromSource(path)
}

// compileFromSource runs the front end (load, check) and the bytecode
// compiler over a .mu entry module.
func compileFromSource(path string) (*bytecode.Chunk, error) {
	prog, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	c := check.New()
	for _, m := range prog.All() {
		c.AddModule(m)
	}
	if diags := c.Check(); len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprint(os.Stderr, d.Format())
		}
		return nil, fmt.Errorf("check failed with %d diagnostic(s)", len(diags))
	}

	ctors := c.ModuleCtors(prog.Entry.Dotted())
	chunk, d := bytecode.Compile(prog.Entry, ctors)
	if d != nil {
		return nil, fmt.Errorf("%s", d.Line())
	}
	return chunk, nil
}

// Package cmd implements the mu command-line surface: fmt, check, run, and
// build, per spec.md §6.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags).
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "mu",
	Short: "mu language toolchain",
	Long: `mu is a self-contained toolchain for the mu language: a small,
strictly-typed, effect-annotated functional language with a dual surface
syntax (a human-readable dialect and a byte-compact compressed dialect
that round-trip losslessly into each other).

  mu fmt   formats source, readable or compressed
  mu check type- and effect-checks a module (and its sibling imports)
  mu run   checks, compiles, and executes a program in the VM
  mu build compiles a program to a .mub bytecode image`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))
}

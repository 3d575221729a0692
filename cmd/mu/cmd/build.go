package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/muscript-lang/mu/internal/bytecode"
	"github.com/spf13/cobra"
)

var buildOutput string

var buildCmd = &cobra.Command{
	Use:   "build <file.mu> -o <file.mub>",
	Short: "Compile a mu program to a bytecode image",
	Long: `Build loads the entry module's sibling imports, type- and
effect-checks the whole program, compiles the entry module to bytecode,
and writes the encoded MUB1 image to disk.

  mu build script.mu -o script.mub`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output file (default: <input> with its extension replaced by .mub)")
}

func runBuild(_ *cobra.Command, args []string) error {
	path := args[0]
	chunk, err := compileFromSource(path)
	if err != nil {
		return err
	}

	out := buildOutput
	if out == "" {
		ext := filepath.Ext(path)
		out = strings.TrimSuffix(path, ext) + ".mub"
	}

	data := bytecode.Encode(chunk)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Printf("%s -> %s (%d bytes)\n", path, out, len(data))
	return nil
}

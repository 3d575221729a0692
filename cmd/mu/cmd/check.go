package cmd

import (
	"fmt"
	"os"

	"github.com/muscript-lang/mu/internal/check"
	"github.com/muscript-lang/mu/internal/loader"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Type- and effect-check a mu module",
	Long: `Load an entry module together with every sibling module it
transitively imports, and run the two-phase type and effect checker over
all of them.

Exits 0 with no output if the program is well-typed. Otherwise prints one
diagnostic per line and exits 1.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(_ *cobra.Command, args []string) error {
	prog, err := loader.Load(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return fmt.Errorf("loading failed")
	}

	c := check.New()
	for _, m := range prog.All() {
		c.AddModule(m)
	}
	diags := c.Check()
	if len(diags) == 0 {
		return nil
	}
	for _, d := range diags {
		fmt.Fprint(os.Stderr, d.Format())
	}
	return fmt.Errorf("check failed with %d diagnostic(s)", len(diags))
}

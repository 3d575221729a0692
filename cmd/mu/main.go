// Command mu is the mu language toolchain's CLI: fmt, check, run, build.
package main

import (
	"fmt"
	"os"

	"github.com/muscript-lang/mu/cmd/mu/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Command decstore encodes decimals into order-preserving keys and stores
// documents whose decimal fields are queried through them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/decstore/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "decstore:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

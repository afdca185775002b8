// Command nodelog reconstructs point-in-time views of a node event log.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/nodelog/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}

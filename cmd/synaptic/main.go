// Command synaptic runs calculation batches through the coordination
// engines and reports on stored results.
package main

import (
	"fmt"
	"os"

	"github.com/CCAFRICA/spm-platform-sub001/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		if !cli.Reported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}

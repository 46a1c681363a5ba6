// Command surveykn generates per-area survey reports with stable question
// identifiers.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/surveykn/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	err := cmd.Execute()

	// Commands report their own failures; flag and argument errors from
	// cobra are printed here.
	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}

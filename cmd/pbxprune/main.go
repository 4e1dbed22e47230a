// Command pbxprune removes a target from an Xcode project manifest.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/pbxprune/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		// Commands report their own failures; anything else is a usage error
		// from cobra.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(cli.ExitCommandError)
		}
	}
	os.Exit(cli.GetExitCode(err))
}

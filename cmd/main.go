// setbridge captures and applies application settings described by
// solution files.
package main

import (
	"fmt"
	"os"

	"setbridge/internal/cmd"
)

var (
	run    = func() error { return cmd.Execute() }
	osExit = os.Exit
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		osExit(1)
	}
}

// Command ultralog is the host demo CLI over pkg/core: open a log, list
// its channels, manage the computed-channel library, validate a formula,
// and plot a channel in the terminal. It carries none of the core's
// logic itself — every subcommand is a thin cobra wrapper around the
// pkg/core façade.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Command inkcal renders Google Calendar and ICS events onto a tri-color
// e-paper panel.
package main

import (
	"fmt"
	"os"
	_ "time/tzdata"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error during command execution: %v\n", err)
		os.Exit(1)
	}
}

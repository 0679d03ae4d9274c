// ./main.go
package main

import (
	"github.com/SC5KSystems/Auto-Form-Recovery/cmd"
)

// main is the entry point for the afr CLI.
func main() {
	// Execute the root command defined in the cmd package.
	// This handles all command-line parsing, configuration, and execution.
	cmd.Execute()
}

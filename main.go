// The main package for the parkrun-sync executable.
package main

import (
	"github.com/isaacgw/parkrun-sync/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}

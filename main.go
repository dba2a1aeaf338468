// The main package for the sitepulse executable.
package main

import (
	"github.com/JakeFAU/sitepulse/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}

// The main package for the cityhall executable.
package main

import (
	"github.com/JakeFAU/cityhall/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}

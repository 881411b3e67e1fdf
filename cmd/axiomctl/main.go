// Command axiomctl is a small CLI around the axiom rules engine: decode,
// validate, and evaluate rule trees from the command line.
package main

import "github.com/axiomrules/axiom/cmd/axiomctl/cmd"

func main() {
	cmd.Execute()
}

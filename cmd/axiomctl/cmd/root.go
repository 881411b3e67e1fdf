// Package cmd provides the axiomctl CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/axiomrules/axiom/codec"
)

var rootCmd = &cobra.Command{
	Use:   "axiomctl",
	Short: "axiomctl - rule tree inspection and evaluation",
	Long: `axiomctl decodes, validates, and evaluates axiom rule trees from the
command line.

Commands:
  eval      Evaluate a rule tree against a facts document
  validate  Decode a rule tree and report codec errors
  tree      Print a rule tree's structure`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// defaultCodec is the Codec every subcommand decodes rule JSON with. It
// accepts the full built-in rule model; axiomctl has no mechanism for
// registering custom discriminators.
func defaultCodec() *codec.Codec {
	return codec.NewCodec(codec.NewRegistry(codec.DefaultEntries()...))
}

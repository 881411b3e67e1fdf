package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree <rule.json>",
	Short: "Print a rule tree's structure",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		rule, err := defaultCodec().DecodeRule(data)
		if err != nil {
			return err
		}
		fmt.Print(rule.Tree())
		fmt.Println(rule.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
}

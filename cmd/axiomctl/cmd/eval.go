package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/axiomrules/axiom"
	"github.com/axiomrules/axiom/facts"
)

var evalSummary bool

var evalCmd = &cobra.Command{
	Use:   "eval <rule.json> <facts.json>",
	Short: "Evaluate a rule tree against a facts document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ruleData, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		factsData, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[1], err)
		}

		rule, err := defaultCodec().DecodeRule(ruleData)
		if err != nil {
			return err
		}

		var values map[string]any
		if err := json.Unmarshal(factsData, &values); err != nil {
			return fmt.Errorf("decode %s: %w", args[1], err)
		}

		registry := facts.NewRegistry(nil)
		for key := range collectKeys(rule) {
			registry.Register(key, facts.StaticFetcher{Key: key, Values: values}, facts.FetcherConfig{Kind: "static"})
		}

		evaluator := axiom.NewEvaluator(registry)
		result, err := evaluator.Evaluate(context.Background(), rule, values)
		if err != nil {
			return err
		}

		if evalSummary {
			fmt.Println(result.Summary())
		} else {
			fmt.Println(result.String())
		}
		return nil
	},
}

func init() {
	evalCmd.Flags().BoolVar(&evalSummary, "summary", false, "print a condensed one-line-per-node summary instead of the full table")
	rootCmd.AddCommand(evalCmd)
}

// collectKeys walks rule and returns the set of fact keys referenced by any
// leaf, so axiomctl can register a static fetcher for exactly the facts the
// tree needs.
func collectKeys(rule *axiom.Rule) map[string]struct{} {
	keys := make(map[string]struct{})
	_ = axiom.ApplyToRule(rule, func(r *axiom.Rule) error {
		if r.Key != "" {
			keys[r.Key] = struct{}{}
		}
		return nil
	})
	return keys
}

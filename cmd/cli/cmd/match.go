// Package cmd - match command
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"estimate-engine/adapters/storage"
	"estimate-engine/core/engine"
	"estimate-engine/core/match"
	"estimate-engine/core/rules"
	"estimate-engine/core/trace"
	"estimate-engine/core/types"
	"estimate-engine/internal/config"
)

var (
	matchKBFile    string
	matchRulesFile string
	matchOutFile   string
)

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match [items.json]",
	Short: "Price estimate items against the knowledge base",
	Long: `Match every priceable line item against the knowledge base, apply the
best price, roll subtotals up through the hierarchy and assign item numbers.

Examples:
  estimate-engine match --kb kb.json items.json
  estimate-engine match --kb kb.json --out priced.json items.json`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVarP(&matchKBFile, "kb", "k", "", "knowledge base JSON file (required)")
	matchCmd.Flags().StringVarP(&matchRulesFile, "rules", "r", "", "matching rules HCL file")
	matchCmd.Flags().StringVarP(&matchOutFile, "out", "o", "", "write the priced items to this file")
	matchCmd.MarkFlagRequired("kb")
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	items, err := storage.LoadItems(args[0])
	if err != nil {
		return err
	}
	kb, err := storage.LoadKB(matchKBFile)
	if err != nil {
		return err
	}
	ruleSet, err := loadRules(matchRulesFile)
	if err != nil {
		return err
	}

	eng := engine.NewEngine(ruleSet, matcherConfig())
	result, err := eng.Run(ctx, &engine.RunRequest{Items: items, KB: kb})
	if err != nil {
		return err
	}

	printItems(result.Items)
	if len(result.Issues) > 0 {
		fmt.Printf("\n%d issues:\n", len(result.Issues))
		for _, issue := range result.Issues {
			fmt.Printf("  [%s] %s: %s\n", issue.Type, issue.ItemName, issue.Message)
		}
	}

	if matchOutFile != "" {
		if err := storage.SaveItems(matchOutFile, result.Items); err != nil {
			return err
		}
		fmt.Printf("\nPriced items written to %s\n", matchOutFile)
	}

	return nil
}

// loadRules loads the rule tables: the explicit flag first, then the
// configured path, then the compiled-in defaults.
func loadRules(flagPath string) (*rules.Set, error) {
	path := flagPath
	if path == "" {
		path = config.Get().Rules
	}
	if path == "" {
		return rules.Default(), nil
	}
	if _, err := os.Stat(path); err != nil {
		return rules.Default(), nil
	}
	return rules.Load(path)
}

func matcherConfig() match.Config {
	mc := config.Get().Matching
	cfg := match.DefaultConfig()
	if mc.Workers > 0 {
		cfg.Workers = mc.Workers
	}
	if mc.MinConfidence > 0 {
		cfg.MinConfidence = mc.MinConfidence
	}
	if mc.ExactScore > 0 {
		cfg.ExactScore = mc.ExactScore
	}
	if mc.PartialScore > 0 {
		cfg.PartialScore = mc.PartialScore
	}
	if mc.FallbackScore > 0 {
		cfg.FallbackScore = mc.FallbackScore
	}
	return cfg
}

func printItems(items []*types.LineItem) {
	showConfidence := config.Get().Output.ShowConfidence

	fmt.Printf("%-8s %-40s %10s %-8s %12s %14s", "No.", "Item", "Qty", "Unit", "Unit price", "Amount")
	if showConfidence {
		fmt.Printf(" %6s", "Conf")
	}
	fmt.Println()

	for _, item := range items {
		indent := ""
		for i := 0; i < item.Level; i++ {
			indent += "  "
		}
		name := indent + item.Name

		qty, price, amount := "", "", ""
		if item.Quantity != nil {
			qty = item.Quantity.String()
		}
		if item.UnitPrice != nil {
			price = "¥" + trace.FormatMoney(*item.UnitPrice)
		}
		if item.Amount != nil {
			amount = "¥" + trace.FormatMoney(*item.Amount)
		}

		fmt.Printf("%-8s %-40s %10s %-8s %12s %14s", item.ItemNo, truncate(name, 40), qty, item.Unit, price, amount)
		if showConfidence && item.Confidence != nil {
			fmt.Printf(" %5.0f%%", *item.Confidence*100)
		}
		fmt.Println()
	}
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

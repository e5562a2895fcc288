// Package cmd - verify command
package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"estimate-engine/adapters/storage"
	"estimate-engine/core/engine"
	"estimate-engine/core/types"
	"estimate-engine/core/verify"
	"estimate-engine/internal/config"
)

var (
	verifyKBFile      string
	verifyRulesFile   string
	verifyRefFile     string
	verifyMetricsFile string
	verifyFormat      string
	verifySave        bool
	verifyStorePath   string
	verifyProject     string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [items.json]",
	Short: "Price an estimate and verify it against a reference",
	Long: `Run the full pipeline and produce a verification report: per-item
calculation traces, comparison against an optional reference estimate, and
corpus-level statistics.

Examples:
  estimate-engine verify --kb kb.json items.json
  estimate-engine verify --kb kb.json --reference reference.json items.json
  estimate-engine verify --kb kb.json --metrics building.json --format json items.json
  estimate-engine verify --kb kb.json --save --project school-annex items.json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyKBFile, "kb", "k", "", "knowledge base JSON file (required)")
	verifyCmd.Flags().StringVarP(&verifyRulesFile, "rules", "r", "", "matching rules HCL file")
	verifyCmd.Flags().StringVar(&verifyRefFile, "reference", "", "reference estimate JSON file")
	verifyCmd.Flags().StringVar(&verifyMetricsFile, "metrics", "", "building metrics JSON file")
	verifyCmd.Flags().StringVarP(&verifyFormat, "format", "f", "", "output format (text, json)")
	verifyCmd.Flags().BoolVar(&verifySave, "save", false, "persist the report to the report store")
	verifyCmd.Flags().StringVar(&verifyStorePath, "store", "", "report store directory")
	verifyCmd.Flags().StringVar(&verifyProject, "project", "", "project ID for the persisted report")
	verifyCmd.MarkFlagRequired("kb")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	items, err := storage.LoadItems(args[0])
	if err != nil {
		return err
	}
	kb, err := storage.LoadKB(verifyKBFile)
	if err != nil {
		return err
	}
	ruleSet, err := loadRules(verifyRulesFile)
	if err != nil {
		return err
	}

	var reference []*types.LineItem
	if verifyRefFile != "" {
		if reference, err = storage.LoadItems(verifyRefFile); err != nil {
			return err
		}
	}

	var metrics *types.BuildingMetrics
	if verifyMetricsFile != "" {
		if metrics, err = storage.LoadMetrics(verifyMetricsFile); err != nil {
			return err
		}
	}

	eng := engine.NewEngine(ruleSet, matcherConfig())
	result, err := eng.Run(ctx, &engine.RunRequest{
		Items:     items,
		KB:        kb,
		Reference: reference,
		Metrics:   metrics,
	})
	if err != nil {
		return err
	}

	format := verifyFormat
	if format == "" {
		format = config.Get().Output.DefaultFormat
	}
	switch format {
	case "json":
		data, err := json.MarshalIndent(result.Report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	default:
		fmt.Println(verify.FormatText(result.Report))
	}

	if verifySave {
		store, err := storage.StoreFactory(storage.BackendFile,
			map[string]string{"path": verifyStorePath})
		if err != nil {
			return err
		}
		defer store.Close()

		stored := &storage.StoredReport{ProjectID: verifyProject, Report: result.Report}
		if err := store.Save(ctx, stored); err != nil {
			return err
		}
		fmt.Printf("Report %s saved\n", stored.ID)
	}

	return nil
}

// Package cmd - reports command
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"estimate-engine/adapters/storage"
	"estimate-engine/core/verify"
)

var (
	reportsStorePath string
	reportsProject   string
	reportsLimit     int
)

// reportsCmd represents the reports command group
var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Browse persisted verification reports",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// reportsListCmd lists stored reports
var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		reports, err := store.List(context.Background(), &storage.ListFilter{
			ProjectID: reportsProject,
			Limit:     reportsLimit,
		})
		if err != nil {
			return err
		}

		if len(reports) == 0 {
			fmt.Println("No reports found.")
			return nil
		}

		fmt.Printf("%-38s %-20s %-22s %10s\n", "ID", "Project", "Created", "Items")
		for _, r := range reports {
			items := 0
			if r.Report != nil {
				items = r.Report.Summary.TotalItems
			}
			fmt.Printf("%-38s %-20s %-22s %10d\n",
				r.ID, r.ProjectID, r.CreatedAt.Format("2006-01-02 15:04:05"), items)
		}
		return nil
	},
}

// reportsShowCmd prints one stored report
var reportsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a stored report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		stored, err := store.Get(context.Background(), args[0])
		if err != nil {
			return err
		}
		if stored.Report == nil {
			return fmt.Errorf("report %s has no payload", args[0])
		}

		fmt.Println(verify.FormatText(stored.Report))
		return nil
	},
}

// reportsLatestCmd prints the latest report for a project
var reportsLatestCmd = &cobra.Command{
	Use:   "latest [project]",
	Short: "Show the latest report for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		stored, err := store.GetLatest(context.Background(), args[0])
		if err != nil {
			return err
		}
		if stored.Report == nil {
			return fmt.Errorf("latest report for %s has no payload", args[0])
		}

		fmt.Println(verify.FormatText(stored.Report))
		return nil
	},
}

func openStore() (storage.Store, error) {
	return storage.StoreFactory(storage.BackendFile,
		map[string]string{"path": reportsStorePath})
}

func init() {
	reportsCmd.PersistentFlags().StringVar(&reportsStorePath, "store", "", "report store directory")
	reportsListCmd.Flags().StringVar(&reportsProject, "project", "", "filter by project ID")
	reportsListCmd.Flags().IntVar(&reportsLimit, "limit", 0, "maximum number of reports to list")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)
	reportsCmd.AddCommand(reportsLatestCmd)
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/andkozlov/starload/pkg/storage"
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show the most recent records created by past migrations.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledgerPath := viper.GetString("ledger.path")
		if ledgerPath == "" {
			return fmt.Errorf("no ledger configured, set ledger.path in the config file")
		}
		if _, err := os.Stat(ledgerPath); os.IsNotExist(err) {
			return fmt.Errorf("ledger file not found: %s", ledgerPath)
		}

		limit, _ := cmd.Flags().GetInt("limit")

		db, err := storage.Open(ledgerPath)
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := db.ListRecentCreations(context.Background(), limit)
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println("No recorded creations yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "CREATED\tKIND\tNAME\tODOO ID\tSOURCE ID\t")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t\n", r.CreatedAt.Format("2006-01-02 15:04:05"), r.Kind, r.Name, r.OdooID, r.SourceID)
		}
		w.Flush()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().IntP("limit", "n", 50, "Maximum number of records to show")
}

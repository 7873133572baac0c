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

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about the records created by past migrations.",
	Long:  "Prints statistics about the records created by past migrations.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledgerPath := viper.GetString("ledger.path")
		if ledgerPath == "" {
			return fmt.Errorf("no ledger configured, set ledger.path in the config file")
		}

		db, err := storage.Open(ledgerPath)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("ledger file not found: %s", ledgerPath)
			}
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(context.Background())
		if err != nil {
			return err
		}

		if len(stats) == 0 {
			fmt.Println("No data in the ledger to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "KIND\tRECORDS\tRUNS\t")

		var totalRecords int
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%d\t%d\t\n", s.Kind, s.RecordCount, s.RunCount)
			totalRecords += s.RecordCount
		}

		fmt.Fprintln(w, " \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t\t\n", totalRecords)

		w.Flush()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

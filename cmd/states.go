package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/areascore/internal/heat"
)

var statesCmd = &cobra.Command{
	Use:   "states",
	Short: "Print the state market-heat table with rankings",
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tSTATE\tAVERAGE\tMARKET\tTREND\tSCORE")

		for _, rec := range heat.Rankings() {
			fmt.Fprintf(tw, "%d\t%s\t%.1f\t%s\t%s\t%.2f\n",
				heat.Rank(rec.Code),
				rec.Code,
				rec.Average,
				heat.MarketTypeFor(rec.Average),
				heat.TrendFor(rec.Average),
				rec.FinalScore,
			)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statesCmd)
}

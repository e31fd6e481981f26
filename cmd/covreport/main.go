package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "covreport",
	Short: "Render Go coverage profiles into HTML, annotated source and text reports",
	Long: `covreport turns coverage data into reports: colourised HTML pages with
optional call-site cross references, a logarithmic execution-count view for
profiling, annotated plain source and several text summaries. It can also
save coverage snapshots and compare later runs against them, and export
per-line coverage to BigQuery.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

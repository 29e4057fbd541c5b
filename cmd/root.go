// Package cmd defines the CLI commands for the toonstats executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toonstats",
		Short: "Crawl per-chapter statistics for a serialized webtoon",
		Long: `toonstats crawls a webtoon's chapter catalog and every chapter's viewer
page, extracting likes, panel counts, publish dates and comment metrics into
a single ordered CSV export.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./toonstats.yaml)")

	cmd.AddCommand(newCrawlCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

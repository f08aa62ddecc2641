// Command collate aligns content templates against PDF documents and
// prints or archives the extracted sections.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsawler/collate/internal/logging"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "collate",
	Short: "Template-driven document section extraction",
	Long: `Collate aligns a content template against a document and extracts the
sections the template describes: fuzzy-matched headings become section
boundaries, and the content between them is cut into chunks, tables,
and images with inherited labels attached.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logging.InitLogger(logging.LevelDebug, logging.FormatText)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

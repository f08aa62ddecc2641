package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsawler/collate"
	"github.com/tsawler/collate/align"
	"github.com/tsawler/collate/ingest"
	"github.com/tsawler/collate/internal/logging"
	"github.com/tsawler/collate/store"
)

var (
	templatePath string
	dbPath       string
	timeout      time.Duration
	maxDepth     int
	maxSections  int
	asJSON       bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <document.pdf>",
	Short: "Align a template against a PDF and extract its sections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(templatePath)
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}

		elements, err := ingest.LoadPDF(args[0])
		if err != nil {
			return err
		}

		c := collate.FromElements(elements)
		if timeout > 0 {
			c = c.Timeout(timeout)
		}
		if maxDepth > 0 {
			c = c.MaxDepth(maxDepth)
		}
		if maxSections > 0 {
			c = c.MaxSections(maxSections)
		}
		if verbose {
			c = c.Logger(logging.GetLogger())
		}

		started := time.Now()
		res, err := c.AlignSource(cmd.Context(), string(src))
		if err != nil {
			return err
		}
		logging.AlignmentRun(args[0], len(res.Sections), time.Since(started))

		if dbPath != "" {
			s, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer s.Close()
			runID, err := s.SaveRun(cmd.Context(), args[0], res)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved run %s\n", runID)
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printResult(cmd, res)
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVarP(&templatePath, "template", "t", "", "Template file (required)")
	extractCmd.Flags().StringVar(&dbPath, "db", "", "Archive results to this SQLite database")
	extractCmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort alignment after this duration")
	extractCmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Maximum template nesting depth")
	extractCmd.Flags().IntVar(&maxSections, "max-sections", 0, "Maximum number of extracted sections")
	extractCmd.Flags().BoolVar(&asJSON, "json", false, "Emit the full result as JSON")
	extractCmd.MarkFlagRequired("template")
	rootCmd.AddCommand(extractCmd)
}

func printResult(cmd *cobra.Command, res *align.Result) {
	out := cmd.OutOrStdout()
	res.Walk(func(i int, s *align.Section) bool {
		indent := strings.Repeat("  ", depthOf(res, i))
		label := s.Label
		if label == "" {
			label = s.Kind.String()
		}
		if !s.Matched {
			fmt.Fprintf(out, "%s%s (unmatched)\n", indent, label)
			return true
		}
		fmt.Fprintf(out, "%s%s  pages %d-%d  elements %d  words %.0f",
			indent, label, s.Region.StartPage, s.Region.EndPage,
			s.Region.Len(), s.Stats["words"])
		if len(s.Chunks) > 0 {
			fmt.Fprintf(out, "  chunks %d", len(s.Chunks))
		}
		fmt.Fprintln(out)
		return true
	})
}

func depthOf(res *align.Result, i int) int {
	depth := 0
	for p := res.Section(i).Parent; p >= 0; p = res.Section(p).Parent {
		depth++
	}
	return depth
}

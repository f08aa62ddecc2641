package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/collate/store"
)

var runsDBPath string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived alignment runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(runsDBPath)
		if err != nil {
			return err
		}
		defer s.Close()

		runs, err := s.Runs(cmd.Context())
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no runs archived")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d sections  %s\n",
				r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Sections, r.Document)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsDBPath, "db", "collate.db", "SQLite database to read")
	rootCmd.AddCommand(runsCmd)
}

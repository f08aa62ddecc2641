package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsawler/collate/template"
)

var checkCmd = &cobra.Command{
	Use:   "check <template-file>",
	Short: "Parse and validate a template without aligning it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}

		tree, err := template.Parse(string(src))
		if err != nil {
			return err
		}

		sections := 0
		leaves := 0
		for _, n := range tree.Nodes {
			if n.Kind == template.KindSection {
				sections++
			} else {
				leaves++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d sections, %d leaves)\n", args[0], sections, leaves)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"rpl/internal/highlight"
)

func newLexersCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "lexers",
		Short: "List available syntax highlighting grammars",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range highlight.Names(filter) {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Only names containing this substring")

	return cmd
}

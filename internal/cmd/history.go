package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rpl/internal/config"
	"rpl/internal/history"
	"rpl/internal/termstyle"
)

func newHistoryCmd() *cobra.Command {
	var file string
	var clear bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the persisted command history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				file = cfg.HistoryFile
			}
			if file == "" {
				file = config.DefaultHistoryPath()
			}

			store, err := history.Open(config.ExpandHome(file))
			if err != nil {
				return err
			}
			defer store.Close()

			if clear {
				if err := store.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), termstyle.Green("history cleared"))
				return nil
			}

			for i, entry := range store.Entries() {
				// Multi-line entries print on one line, like the file.
				fmt.Fprintf(cmd.OutOrStdout(), "%4d  %s\n", i+1, strings.ReplaceAll(entry, "\n", " ⏎ "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "cmd-history-file", "c", "", "History file (default from config)")
	cmd.Flags().BoolVar(&clear, "clear", false, "Erase all stored history")

	return cmd
}

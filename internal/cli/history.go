package cli

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var (
		clearAll bool
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent questions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := commandEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if clearAll {
				if err := e.book.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
				return nil
			}

			h, err := e.book.Load(cmd.Context())
			if err != nil {
				return err
			}
			if len(h.Entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No history yet.")
				return nil
			}

			entries := h.Entries
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"#", "Asked", "Question"})
			for i, entry := range entries {
				t.AppendRow(table.Row{i + 1, entry.Timestamp.Local().Format(time.DateTime), entry.Query})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete all history")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most n entries")
	return cmd
}

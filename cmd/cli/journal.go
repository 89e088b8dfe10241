package main

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newLogCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log [entry]",
		Short: "List journal entries, or the statements of one entry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				statements, err := a.journal.Statements(args[0])
				if err != nil {
					return err
				}
				for _, statement := range statements {
					pterm.Println(statement)
				}
				return nil
			}

			entries, err := a.journal.Entries()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				pterm.Info.Println("Journal is empty")
				return nil
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			data := pterm.TableData{{"Entry", "When", "Author", "Message"}}
			for _, entry := range entries {
				data = append(data, []string{
					shortID(entry.Id),
					entry.When.Format(time.RFC3339),
					entry.Author,
					entry.Message,
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries (0 for all)")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newReplayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "replay <entry|snapshot>",
		Short:   "Rebuild the database by executing the journal up to an entry",
		Example: `  commitorm --locator fresh.db --journal ./journal replay release-1`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			statements, err := a.journal.Replay(args[0])
			if err != nil {
				return err
			}

			session, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			n, err := session.Replay(cmd.Context(), statements)
			if err != nil {
				if rbErr := session.Rollback(); rbErr != nil {
					pterm.Warning.Printfln("Rollback failed: %v", rbErr)
				}
				return fmt.Errorf("replay stopped after %d statement(s): %w", n, err)
			}
			if err := session.Commit(); err != nil {
				return err
			}
			pterm.Success.Printfln("Replayed %d statement(s) up to %s", n, args[0])
			return nil
		},
	}
}

package main

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nickyhof/CommitORM/db"
	"github.com/nickyhof/CommitORM/expr"
	"github.com/nickyhof/CommitORM/internal/logging"
	"github.com/nickyhof/CommitORM/remote"
	"github.com/nickyhof/CommitORM/schema"
)

func newApplyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <schema.json>",
		Short: "Register the tables of a schema file",
		Long: `apply reads a JSON schema file of the form {"tables":[{"name":...,"fields":[...]}]}
and creates every table in it. The file may be a local path, an s3:// object or an http(s) URL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := remote.ReadFile(ctx, args[0], a.s3Config())
			if err != nil {
				return err
			}
			declarations, err := schema.Parse(data)
			if err != nil {
				return err
			}

			for _, d := range declarations {
				table, err := schema.Register(d)
				if err != nil {
					return err
				}
				if err := a.session.Register(table); err != nil {
					return err
				}
				logging.WithTable(table.Name).Debug("table queued", "columns", len(table.Columns))
			}

			// Connecting drains the queue; an open session needs an explicit request.
			if a.session.Connected() {
				err = a.session.Request(ctx)
			} else {
				_, err = a.connect(ctx)
			}
			if err != nil {
				return err
			}

			pterm.Success.Printfln("Registered %d table(s)", len(declarations))
			return nil
		},
	}
}

func newInsertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "insert <table> <column=value>...",
		Short:   "Insert one record",
		Example: `  commitorm insert users id=1 name=Alice age=NULL`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}

			session, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}

			result, err := session.Insert(cmd.Context(), schema.NewRecord(args[0], values...))
			if err != nil {
				return err
			}
			pterm.Success.Println(result.Summary())
			return nil
		},
	}
}

func newSelectCmd(a *app) *cobra.Command {
	var columns []string
	var where string

	cmd := &cobra.Command{
		Use:     "select <table>",
		Short:   "Query records",
		Example: `  commitorm select users --columns id,name --where "age >= 18"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}

			result, err := session.Select(cmd.Context(), args[0], expr.Raw(where), columns...)
			if err != nil {
				return err
			}
			return renderQuery(result)
		},
	}

	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns to read (all if empty)")
	cmd.Flags().StringVar(&where, "where", "", "Filter, e.g. \"id == 1 AND name LIKE 'A%'\"")
	return cmd
}

func newDropCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <table>",
		Short: "Drop a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}

			result, err := session.DropTable(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			pterm.Success.Println(result.Summary())
			return nil
		},
	}
}

func newCommitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "commit",
		Short: "Commit the open transaction and journal its statements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}

			entry, err := session.CommitAs(a.cfg.Identity)
			if err != nil {
				return err
			}
			if entry.Id == "" {
				pterm.Info.Println("Nothing to commit")
				return nil
			}
			pterm.Success.Printfln("Committed %s (%s)", shortID(entry.Id), entry.Author)
			return nil
		},
	}
}

func newRollbackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: "Discard everything since the last commit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			if err := session.Rollback(); err != nil {
				return err
			}
			pterm.Success.Println("Rolled back")
			return nil
		},
	}
}

func newPendingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "Show queued statements and the last built statement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pending := a.session.Pending()
			if len(pending) == 0 {
				pterm.Info.Println("No queued statements")
			}
			for i, command := range pending {
				pterm.Printfln("  %3d  %s", i+1, command)
			}

			if last, ok := a.session.Show(); ok {
				pterm.Println()
				pterm.Printfln("Last: %s", last)
			}
			return nil
		},
	}
}

func renderQuery(result db.QueryResult) error {
	if len(result.Columns) > 0 {
		data := pterm.TableData{result.Columns}
		for _, row := range result.Data {
			data = append(data, truncateRow(row, 40))
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}
	pterm.Info.Println(result.Summary())
	return nil
}

func truncateRow(row []string, max int) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = truncate(strings.ReplaceAll(v, "\n", " "), max)
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

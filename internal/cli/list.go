package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"ignite/internal/listview"
)

func newListCmd(a *app) *cobra.Command {
	var (
		search, sortBy, order string
		asJSON                bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List employees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.store.LoadAll(cmd.Context()); err != nil {
				return err
			}
			q := listview.ParseQuery(url.Values{
				"q":     {search},
				"sort":  {sortBy},
				"order": {order},
			})
			rows := listview.Project(a.store.Snapshot().Records, q)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, styles.Muted.Render("No employees found."))
				return nil
			}
			fmt.Fprintln(out, recordTable(rows))
			fmt.Fprintln(out, styles.Muted.Render(fmt.Sprintf("%d employee(s)", len(rows))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by name (case-insensitive)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort by name or createdAt")
	cmd.Flags().StringVar(&order, "order", "asc", "asc or desc")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.api.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}
			fmt.Fprintln(out, styles.Title.Render(rec.FullName()))
			fmt.Fprintln(out, recordDetail(rec))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the employee service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := time.Now()
			err := a.api.Ping(cmd.Context())
			took := time.Since(start).Round(time.Millisecond)
			if err != nil {
				return fmt.Errorf("employee service at %s is unreachable: %w", a.cfg.EmployeeAPIBaseURL, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render(
				fmt.Sprintf("✓ employee service reachable at %s (%s)", a.cfg.EmployeeAPIBaseURL, took)))
			return nil
		},
	}
}

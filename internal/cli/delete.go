package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]
			out := cmd.OutOrStdout()

			if !yes {
				label := id
				if rec, err := a.api.Get(ctx, id); err == nil {
					label = fmt.Sprintf("%s (%s)", rec.FullName(), id)
				}
				confirmed := false
				f := huh.NewForm(huh.NewGroup(
					huh.NewConfirm().
						Title("Delete employee " + label + "?").
						Description("This cannot be undone.").
						Affirmative("Delete").
						Negative("Cancel").
						Value(&confirmed),
				))
				if err := a.runForm(ctx, f); err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(out, styles.Muted.Render("Cancelled."))
					return nil
				}
			}

			if err := a.store.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(out, styles.Success.Render("✓ Employee deleted successfully"))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

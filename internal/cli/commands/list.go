package commands

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/newslynx/recipes/internal/cli/ui"
	"github.com/newslynx/recipes/internal/store"
)

func newListCommand(opts *globalOptions) *cobra.Command {
	var (
		orgID     int64
		status    string
		scheduled string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an organization's recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := store.RecipeFilter{Status: status}
			if scheduled != "" {
				b, err := strconv.ParseBool(scheduled)
				if err != nil {
					return fmt.Errorf("--scheduled must be true or false, got %q", scheduled)
				}
				filter.Scheduled = &b
			}

			st, _, _, err := opts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			recipes, err := st.ListRecipes(cmd.Context(), orgID, filter)
			if err != nil {
				return &storeError{err}
			}

			table := ui.NewTable(cmd.OutOrStdout(), color.NoColor,
				"ID", "SLUG", "SOUS CHEF", "STATUS", "SCHEDULE", "UPDATED")
			for _, r := range recipes {
				table.AddRow(
					strconv.FormatInt(r.ID, 10),
					r.Slug,
					r.SousChefSlug,
					r.Status,
					describeSchedule(r),
					r.Updated.Format("2006-01-02 15:04"),
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().Int64Var(&orgID, "org", 1, "organization to list")
	cmd.Flags().StringVar(&status, "status", "", "only recipes with this status")
	cmd.Flags().StringVar(&scheduled, "scheduled", "", "only scheduled (true) or unscheduled (false) recipes")
	return cmd
}

// describeSchedule summarizes whichever trigger a recipe carries
func describeSchedule(r *store.Recipe) string {
	switch {
	case !r.Scheduled:
		return "-"
	case r.TimeOfDay != nil:
		return "daily at " + *r.TimeOfDay
	case r.Crontab != nil && r.Minutes != nil:
		return fmt.Sprintf("cron %s, every %gm", *r.Crontab, *r.Minutes)
	case r.Crontab != nil:
		return "cron " + *r.Crontab
	case r.Minutes != nil:
		return fmt.Sprintf("every %gm", *r.Minutes)
	}
	return "-"
}

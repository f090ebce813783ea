package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/newslynx/recipes/internal/cli/ui"
)

func newMigrateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database tables",
		Long:  "Apply every pending schema migration to the configured database. Running it twice is harmless.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, _, err := opts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			color.New(color.FgCyan).Fprintf(cmd.OutOrStdout(), "Migrating %s database\n", st.Driver())

			n, err := st.Migrate(cmd.Context())
			if err != nil {
				return &storeError{err}
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date")
				return nil
			}
			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("applied %d migration(s)", n), color.NoColor)
			return nil
		},
	}
}

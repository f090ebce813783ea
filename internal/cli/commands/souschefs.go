package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/newslynx/recipes/internal/cli/input"
	"github.com/newslynx/recipes/internal/cli/ui"
	"github.com/newslynx/recipes/internal/store"
)

func newSousChefsCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sous-chefs",
		Aliases: []string{"sc"},
		Short:   "Manage stored sous chefs",
	}
	cmd.AddCommand(newSousChefsListCommand(opts))
	cmd.AddCommand(newSousChefsAddCommand(opts))
	cmd.AddCommand(newSousChefsShowCommand(opts))
	return cmd
}

func newSousChefsListCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sous chefs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, _, err := opts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			all, err := st.ListSousChefs(cmd.Context())
			if err != nil {
				return &storeError{err}
			}
			table := ui.NewTable(cmd.OutOrStdout(), color.NoColor, "SLUG", "NAME", "OPTIONS")
			for _, sc := range all {
				table.AddRow(sc.Spec.Slug, sc.Spec.Name, strconv.Itoa(len(sc.Spec.Options)))
			}
			table.Render()
			return nil
		},
	}
}

func newSousChefsAddCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add SPEC",
		Short: "Store a sous chef specification (inline JSON or a .json/.yaml file)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := input.LoadSousChef(args[0])
			if err != nil {
				return err
			}

			st, _, _, err := opts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			sc, err := st.CreateSousChef(cmd.Context(), spec)
			if err != nil {
				return &storeError{err}
			}
			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("stored sous chef '%s' (id %d)", spec.Slug, sc.ID), color.NoColor)
			return nil
		},
	}
}

func newSousChefsShowCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show SLUG",
		Short: "Show a sous chef and the options its recipes take",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, _, err := opts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			sc, err := st.GetSousChef(cmd.Context(), args[0])
			if store.IsNotFound(err) {
				return notFound(cmd.Context(), st, args[0])
			}
			if err != nil {
				return &storeError{err}
			}

			out := cmd.OutOrStdout()
			ui.Header(out, sc.Spec.Slug, color.NoColor)
			kv := ui.NewKeyValueTable(out, color.NoColor)
			kv.AddRow("name", sc.Spec.Name)
			kv.AddRow("description", sc.Spec.Description)
			kv.AddRow("created", sc.Created.Format("2006-01-02 15:04"))
			kv.Render()
			fmt.Fprintln(out)

			keys := make([]string, 0, len(sc.Spec.Options))
			for k := range sc.Spec.Options {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			table := ui.NewTable(out, color.NoColor, "OPTION", "TYPES", "REQUIRED", "LIST", "DEFAULT")
			for _, k := range keys {
				spec := sc.Spec.Options[k]
				tags := make([]string, len(spec.ValueTypes))
				for i, t := range spec.ValueTypes {
					tags[i] = t.String()
				}
				def := ""
				if spec.HasDefault {
					def = fmt.Sprint(spec.Default)
				}
				table.AddRow(k, strings.Join(tags, ", "), strconv.FormatBool(spec.Required),
					strconv.FormatBool(spec.AcceptsList), def)
			}
			table.Render()
			return nil
		},
	}
}

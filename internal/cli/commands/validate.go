package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/newslynx/recipes/internal/cli/input"
	"github.com/newslynx/recipes/internal/cli/ui"
	"github.com/newslynx/recipes/internal/validation"
)

// recipeFlags are the inputs shared by the offline commands
type recipeFlags struct {
	sousChef string
	data     string
	output   string
}

func (f *recipeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.sousChef, "sous-chef", "s", "", "sous chef specification: inline JSON or a .json/.yaml file")
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "recipe payload: inline JSON or a .json/.yaml file")
	cmd.Flags().StringVarP(&f.output, "output", "o", "json", "output format: json or yaml")
	cmd.MarkFlagRequired("sous-chef")
}

func newValidateCommand() *cobra.Command {
	f := &recipeFlags{}
	cmd := &cobra.Command{
		Use:   "validate -s SOUS_CHEF [-d DATA] [-- --option=value ...]",
		Short: "Validate a recipe against a sous chef",
		Long: `Coerce a raw recipe into the typed, defaulted record its sous chef describes.

Fields given as runtime options override those in --data. A recipe whose status
is "uninitialized" is validated as a draft: required options may be missing.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := input.LoadSousChef(f.sousChef)
			if err != nil {
				return err
			}
			raw, err := readRecipe(f.data, args)
			if err != nil {
				return err
			}

			rec, err := validation.NewEngine().Validate(raw, sc)
			if err != nil {
				return err
			}
			return writeRecord(cmd.OutOrStdout(), rec, f.output)
		},
	}
	f.register(cmd)
	return cmd
}

func newUpdateCommand() *cobra.Command {
	f := &recipeFlags{}
	var old string
	cmd := &cobra.Command{
		Use:   "update -s SOUS_CHEF --old RECIPE [-d PATCH] [-- --option=value ...]",
		Short: "Apply a partial update to a validated recipe",
		Long: `Merge a partial recipe over a previously validated one and validate the result.

Options merge key by key; any other field in the patch replaces the old value.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := input.LoadSousChef(f.sousChef)
			if err != nil {
				return err
			}
			previous, err := input.LoadData(old)
			if err != nil {
				return err
			}
			patch, err := readRecipe(f.data, args)
			if err != nil {
				return err
			}

			rec, err := validation.NewEngine().Update(previous, patch, sc)
			if err != nil {
				return err
			}
			return writeRecord(cmd.OutOrStdout(), rec, f.output)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&old, "old", "", "previously validated recipe: inline JSON or a .json/.yaml file")
	cmd.MarkFlagRequired("old")
	return cmd
}

func newFormatCommand() *cobra.Command {
	f := &recipeFlags{}
	cmd := &cobra.Command{
		Use:   "format -s SOUS_CHEF [-d DATA] [-- --option=value ...]",
		Short: "Normalize a recipe's layout without validating its values",
		Long: `Move custom options under "options", lift built-in fields out of it, and drop
internal and undeclared fields. Dropped fields are reported on stderr.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := input.LoadSousChef(f.sousChef)
			if err != nil {
				return err
			}
			raw, err := readRecipe(f.data, args)
			if err != nil {
				return err
			}

			rec, report, err := validation.NewEngine().Format(raw, sc)
			if err != nil {
				return err
			}

			noColor := color.NoColor
			if len(report.Removed) > 0 {
				fmt.Fprint(cmd.ErrOrStderr(), ui.Warning(
					"removed internal fields: "+strings.Join(report.Removed, ", "), noColor))
			}
			if len(report.Dropped) > 0 {
				fmt.Fprint(cmd.ErrOrStderr(), ui.Warning(
					fmt.Sprintf("dropped options sous chef '%s' does not declare: %s",
						sc.Slug, strings.Join(report.Dropped, ", ")), noColor))
			}
			return writeRecord(cmd.OutOrStdout(), rec, f.output)
		},
	}
	f.register(cmd)
	return cmd
}

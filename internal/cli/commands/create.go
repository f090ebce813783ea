package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/newslynx/recipes/internal/cli/ui"
	"github.com/newslynx/recipes/internal/schema"
	"github.com/newslynx/recipes/internal/validation"
)

// prompter asks the user for the value of one option
type prompter func(key string, spec schema.OptionSpec) (string, error)

func surveyPrompt(key string, spec schema.OptionSpec) (string, error) {
	tags := make([]string, len(spec.ValueTypes))
	for i, t := range spec.ValueTypes {
		tags[i] = t.String()
	}

	var answer string
	err := survey.AskOne(&survey.Input{
		Message: fmt.Sprintf("%s (%s):", key, strings.Join(tags, " | ")),
	}, &answer, survey.WithValidator(survey.Required))
	return answer, err
}

// fillMissing prompts for every required option without a default that raw does
// not supply, top level or under "options"
func fillMissing(raw schema.Record, sc *schema.SousChef, ask prompter) error {
	tables := schema.DefaultTables()
	opts, _ := raw[schema.OptionsKey].(map[string]any)

	present := func(key string) bool {
		if v, ok := raw[key]; ok && v != nil {
			return true
		}
		v, ok := opts[key]
		return ok && v != nil
	}

	keys := append([]string{}, tables.DefaultFields...)
	keys = append(keys, sc.CustomKeys(tables)...)
	for _, key := range keys {
		spec, ok := sc.Option(key, tables)
		if !ok || !spec.Required || spec.HasDefault || present(key) {
			continue
		}
		answer, err := ask(key, spec)
		if err != nil {
			return fmt.Errorf("prompt for '%s': %w", key, err)
		}
		raw[key] = answer
	}
	return nil
}

func newCreateCommand(opts *globalOptions) *cobra.Command {
	var (
		sousChef    string
		data        string
		output      string
		orgID       int64
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "create -s SOUS_CHEF [-d DATA] [--interactive] [-- --option=value ...]",
		Short: "Validate a recipe and save it",
		Long: `Validate a recipe and store it for an organization.

--sous-chef is either the slug of a stored sous chef or a specification
(inline JSON or a .json/.yaml file), which is stored first when its slug is new.
With --interactive, required options missing from the payload are prompted for.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ask := prompter(nil)
			if interactive {
				ask = surveyPrompt
			}
			return runCreate(cmd, opts, createParams{
				sousChef: sousChef, data: data, output: output, orgID: orgID, args: args, ask: ask,
			})
		},
	}
	cmd.Flags().StringVarP(&sousChef, "sous-chef", "s", "", "sous chef slug or specification")
	cmd.Flags().StringVarP(&data, "data", "d", "", "recipe payload: inline JSON or a .json/.yaml file")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	cmd.Flags().Int64Var(&orgID, "org", 1, "organization that owns the recipe")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for missing required options")
	cmd.MarkFlagRequired("sous-chef")
	return cmd
}

type createParams struct {
	sousChef string
	data     string
	output   string
	orgID    int64
	args     []string
	ask      prompter
}

func runCreate(cmd *cobra.Command, opts *globalOptions, p createParams) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, _, _, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	sc, err := resolveSousChef(ctx, st, p.sousChef)
	if err != nil {
		return err
	}
	raw, err := readRecipe(p.data, p.args)
	if err != nil {
		return err
	}
	if p.ask != nil {
		if err := fillMissing(raw, sc.Spec, p.ask); err != nil {
			return err
		}
	}

	rec, err := validation.NewEngine().Validate(raw, sc.Spec)
	if err != nil {
		return err
	}
	created, err := st.CreateRecipe(ctx, p.orgID, sc, rec)
	if err != nil {
		return &storeError{err}
	}

	ui.WriteSuccess(cmd.ErrOrStderr(), fmt.Sprintf("created recipe '%s' (id %d)", created.Slug, created.ID), color.NoColor)
	return writeRecord(cmd.OutOrStdout(), created.ToRecord(), p.output)
}

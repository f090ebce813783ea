package commands

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/newslynx/recipes/internal/cli/ui"
	"github.com/newslynx/recipes/internal/validation"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// globalOptions holds the persistent flags shared by every subcommand
type globalOptions struct {
	configPath string
	logLevel   string
	noColor    bool
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "recipes",
		Short: "Validate, store and serve sous chef recipes",
		Long: color.CyanString(`recipes - recipe option validation for sous chefs

A sous chef declares the options its recipes accept. recipes coerces raw
recipe payloads into typed, defaulted and schedule-checked records, stores
them, and serves them over HTTP.

Extra recipe options may follow "--" on validate, update, format and create:
  recipes validate -s rss.yaml -- --url=http://example.com/rss --limit=20`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ./recipes.yaml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "override log.level from the config")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newUpdateCommand())
	rootCmd.AddCommand(newFormatCommand())
	rootCmd.AddCommand(newCreateCommand(opts))
	rootCmd.AddCommand(newListCommand(opts))
	rootCmd.AddCommand(newSousChefsCommand(opts))
	rootCmd.AddCommand(newMigrateCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newTokenCommand(opts))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			out := cmd.OutOrStdout()
			for _, row := range [][2]string{
				{"recipes version: ", Version},
				{"Git commit: ", GitCommit},
				{"Build date: ", BuildDate},
				{"Go version: ", goVer},
			} {
				titleColor.Fprint(out, row[0])
				fmt.Fprintln(out, row[1])
			}
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		renderError(rootCmd.ErrOrStderr(), err, color.NoColor)
		return err
	}
	return nil
}

// renderError prints err the way the CLI reports each failure kind
func renderError(w io.Writer, err error, noColor bool) {
	var (
		schemaErr   *validation.SchemaError
		notFoundErr *sousChefNotFoundError
		storeErr    *storeError
		configErr   *configError
	)
	switch {
	case errors.As(err, &schemaErr):
		fmt.Fprint(w, ui.SchemaError(schemaErr.Message, noColor))
	case errors.As(err, &notFoundErr):
		fmt.Fprint(w, ui.SousChefNotFoundError(notFoundErr.slug, notFoundErr.known, noColor))
	case errors.As(err, &storeErr):
		fmt.Fprint(w, ui.StoreError(storeErr.err.Error(), noColor))
	case errors.As(err, &configErr):
		fmt.Fprint(w, ui.ConfigError(configErr.err.Error(), noColor))
	default:
		errorColor := color.New(color.FgRed, color.Bold)
		if noColor {
			errorColor.DisableColor()
		}
		errorColor.Fprintf(w, "Error: %v\n", err)
	}
}

// ExitCode maps an error returned by Execute to a process exit status: 2 for an
// invalid recipe, 1 for anything else
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if validation.IsSchemaError(err) {
		return 2
	}
	return 1
}

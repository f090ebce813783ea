// Package ui renders colored diagnostics and tables for the recipes CLI.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of a message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures FormatError
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Consequence  string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

func paint(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}
	return c
}

// FormatError renders a diagnostic:
//
//	❌ RECIPE SCHEMA ERROR: Recipes associated with SousChef 'rss' require a 'url' option.
//
//	   Did you mean: rss-scraper?
//
//	   → Show options: recipes validate --help
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	symbol, fg := "❌", color.FgRed
	switch opts.Level {
	case ErrorLevelWarning:
		symbol, fg = "⚠️", color.FgYellow
	case ErrorLevelInfo:
		symbol, fg = "ℹ️", color.FgCyan
	}
	header := paint(opts.NoColor, fg, color.Bold)
	body := paint(opts.NoColor, fg)

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if opts.Consequence != "" {
		b.WriteString("\n")
		body.Fprintf(&b, "   %s\n", opts.Consequence)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		paint(opts.NoColor, color.FgYellow).
			Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := paint(opts.NoColor, color.FgCyan)
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to w
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	return paint(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to w
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// SchemaError renders a recipe that failed validation. Each aggregated
// type failure is shown on its own line.
func SchemaError(message string, noColor bool) string {
	problem, details, _ := strings.Cut(message, "\n")
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "RECIPE SCHEMA ERROR",
		Problem:     problem,
		Consequence: strings.TrimSpace(strings.ReplaceAll(details, "\t", "   ")),
		HelpCommands: []string{
			"Inspect the sous chef's options: recipes sous-chefs show <slug>",
		},
		NoColor: noColor,
	})
}

// SousChefNotFoundError renders an unknown sous chef slug with close matches
func SousChefNotFoundError(slug string, known []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "SOUS CHEF NOT FOUND",
		Problem:     fmt.Sprintf("Cannot find sous chef '%s'.", slug),
		Suggestions: FindSimilar(slug, known, nil),
		HelpCommands: []string{
			"See all sous chefs: recipes sous-chefs list",
		},
		NoColor: noColor,
	})
}

// StoreError renders a database failure
func StoreError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "DATABASE ERROR",
		Problem:     message,
		Consequence: "Nothing was saved.",
		HelpCommands: []string{
			"Create the tables: recipes migrate",
		},
		NoColor: noColor,
	})
}

// ConfigError creates a configuration error
func ConfigError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "CONFIGURATION ERROR",
		Problem: message,
		HelpCommands: []string{
			"View config: cat recipes.yaml",
			"Get help: recipes --help",
		},
		NoColor: noColor,
	})
}

// Warning creates a warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{Level: ErrorLevelWarning, Problem: message, NoColor: noColor})
}

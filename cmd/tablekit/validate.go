package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tablekit/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate <recipe.json>",
	Short: "Lint a recipe without running it",
	Long: `Validate decodes the recipe and reports every issue the linter finds,
one line per finding. Warnings do not fail the command; errors do.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		r, err := config.Load(path)
		if err != nil {
			return err
		}

		issues := config.ValidateRecipe(r)
		printIssues(issues)
		if config.HasErrors(issues) {
			return fmt.Errorf("recipe %s is invalid", path)
		}

		if len(issues) > 0 {
			fmt.Printf("recipe %s is valid (%d warnings)\n", path, len(issues))
		} else {
			fmt.Printf("recipe %s is valid\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// printIssues writes lint findings to stderr so stdout stays reserved for
// results.
func printIssues(issues []config.Issue) {
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
}

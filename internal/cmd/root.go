// Package cmd provides the CLI commands for moorctl.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/moorl/github-actions/internal/ui"
)

const version = "1.2.0"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "moorctl",
	Short: "CI support tools for plugin repositories",
	Long: `moorctl - CI support tools

RENDER
  render                Render Markdown templates with {file:...} and {var:...}
    --snippets-dir      Shared snippets directory (default: ./snippets)
    --inputs            Glob patterns for template files (repeatable)
    --var               Variable as key=value (repeatable)
    --vars-file         JSON or YAML file with variables
    --max-depth         Maximum include recursion depth

SYNC
  sync                  Sync store.yaml to the Shopware product listing
    --manifest          Manifest path (default: store.yaml)
    --repo-name         Product number, falls back to $REPO_NAME

Both commands abort on the first error and exit non-zero; CI treats any
non-zero exit as total failure of that step.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command and exits non-zero on any fatal error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.Error("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	rootCmd.SetVersionTemplate("moorctl version {{.Version}}\n")
}

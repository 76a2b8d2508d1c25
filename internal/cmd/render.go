package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/moorl/github-actions/internal/template"
	"github.com/moorl/github-actions/internal/ui"
)

var (
	renderSnippetsDir string
	renderInputs      []string
	renderVars        []string
	renderVarsFile    string
	renderMaxDepth    int
)

// renderCmd renders Markdown templates into their derived output files.
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render Markdown templates",
	Long: `Render Markdown templates containing {file:...} includes and {var:...}
variables into their derived output files (README.tpl.md -> README.md).

Examples:
  moorctl render                               # Render **/*.tpl.*.md
  moorctl render --var version=1.2.3           # Override a variable
  moorctl render --vars-file vars.yaml         # Load variables from a file
  moorctl render --inputs 'docs/**/*.tpl.md'   # Restrict to one tree`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderSnippetsDir, "snippets-dir", "snippets", "Shared snippets directory")
	renderCmd.Flags().StringArrayVar(&renderInputs, "inputs", []string{"**/*.tpl.*.md"}, "Glob patterns for template files")
	renderCmd.Flags().StringArrayVar(&renderVars, "var", nil, "Variable as key=value (repeatable)")
	renderCmd.Flags().StringVar(&renderVarsFile, "vars-file", "", "JSON or YAML file with variables")
	renderCmd.Flags().IntVar(&renderMaxDepth, "max-depth", template.DefaultMaxDepth, "Maximum include recursion depth")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	snippetsDir := renderSnippetsDir
	if !filepath.IsAbs(snippetsDir) {
		snippetsDir = filepath.Join(root, snippetsDir)
	}

	variables, err := template.AssembleVars(renderVars, renderVarsFile, root)
	if err != nil {
		return err
	}

	templates, err := template.Discover(renderInputs)
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		ui.Info("no templates found")
		return nil
	}

	cfg := template.Config{
		SnippetsDir: snippetsDir,
		Variables:   variables,
		MaxDepth:    renderMaxDepth,
	}

	for _, tpl := range templates {
		content, err := template.Render(tpl, cfg)
		if err != nil {
			return err
		}
		out, err := template.WriteRendered(tpl, content)
		if err != nil {
			return err
		}
		ui.Success("wrote %s", displayPath(root, out))
	}

	return nil
}

// displayPath shortens a path to be relative to the working directory when
// possible, for readable CI logs.
func displayPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "" {
		return path
	}
	return rel
}

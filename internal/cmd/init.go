package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bundlekit/cli/internal/bundle"
	"github.com/bundlekit/cli/internal/output"
	"github.com/bundlekit/cli/internal/templates"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	var templateFlag string

	cmd := &cobra.Command{
		Use:   "init <bundle-id>",
		Short: "Scaffold a new bundle",
		Long: `Create a new bundle directory with a manifest and starter content.

Templates:
  prompt  a single prompt (default)
  skill   one skill directory
  full    a prompt, an agent, and instructions

Examples:
  bkit init code-review
  bkit init deploy-helper --template skill`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runInit(args[0], templateFlag)
		},
	}

	cmd.Flags().StringVarP(&templateFlag, "template", "t", string(templates.Prompt),
		fmt.Sprintf("bundle template (%s)", strings.Join(templates.ValidTemplates(), ", ")))

	return cmd
}

func runInit(name, templateName string) error {
	if !templates.IsValidTemplate(templateName) {
		return NewExitError(
			fmt.Errorf("unknown template %q (valid: %s)", templateName, strings.Join(templates.ValidTemplates(), ", ")),
			ExitGeneralError,
		)
	}

	id := bundle.NormalizeID(name)
	if id == "" {
		return NewExitError(fmt.Errorf("invalid bundle id %q", name), ExitGeneralError)
	}

	if _, err := os.Stat(id); err == nil {
		return NewExitError(fmt.Errorf("directory %s already exists", id), ExitGeneralError)
	}
	if err := os.MkdirAll(id, 0o755); err != nil {
		return exitWith(fmt.Errorf("creating bundle directory: %w", err))
	}

	data := templates.TemplateData{
		BundleID: id,
		Title:    titleFromID(id),
		Version:  "0.1.0",
	}

	created, err := templates.Render(templates.TemplateName(templateName), id, data)
	if err != nil {
		return exitWith(fmt.Errorf("rendering template: %w", err))
	}

	output.Println(output.FormatCheckmark(fmt.Sprintf("Created bundle %s", id)))
	for _, f := range created {
		output.Println("  " + id + "/" + f)
	}
	output.Println("")
	output.Println("Validate with: bkit vet " + id)

	return nil
}

// titleFromID turns "code-review" into "Code Review".
func titleFromID(id string) string {
	words := strings.Split(id, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

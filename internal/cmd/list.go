package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bundlekit/cli/internal/bundle"
	"github.com/bundlekit/cli/internal/output"
)

// listedBundle is one row of the listing in structured output formats.
type listedBundle struct {
	ID      string `json:"id" yaml:"id"`
	Version string `json:"version" yaml:"version"`
	Scope   string `json:"scope" yaml:"scope"`
	Mode    string `json:"mode,omitempty" yaml:"mode,omitempty"`
	Status  string `json:"status" yaml:"status"`
}

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var (
		outputFlag string
		scopeFlag  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed bundles",
		Long: `List bundles installed at every scope.

Repository-scope bundles come from the current repository's lockfile; user
and workspace bundles come from the per-user index. Bundles whose tracked
files have vanished are reported as missing.

Examples:
  bkit list
  bkit list --scope user
  bkit list -o json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runList(outputFlag, scopeFlag)
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "table", "output format (table, yaml, json)")
	cmd.Flags().StringVarP(&scopeFlag, "scope", "s", "", "only list one scope: user, workspace, repository")

	return cmd
}

func runList(outputFlag, scopeFlag string) error {
	format := output.OutputFormat(strings.ToLower(outputFlag))
	if !format.IsValid() {
		return NewExitError(
			fmt.Errorf("invalid output format %q (valid: %v)", outputFlag, output.ValidFormats()),
			ExitGeneralError,
		)
	}

	var only bundle.Scope
	if scopeFlag != "" {
		parsed, err := bundle.ParseScope(scopeFlag)
		if err != nil {
			return exitWith(err)
		}
		only = parsed
	}

	e, err := newEnv()
	if err != nil {
		return exitWith(err)
	}

	var listed []listedBundle

	if e.Store != nil && (only == "" || only == bundle.ScopeRepository) {
		installed, err := e.Store.InstalledBundles()
		if err != nil {
			return exitWith(err)
		}
		for _, b := range installed {
			status := output.StatusInstalled
			if b.FilesMissing {
				status = output.StatusMissing
			}
			listed = append(listed, listedBundle{
				ID:      b.ID,
				Version: b.Entry.Version,
				Scope:   string(bundle.ScopeRepository),
				Mode:    string(b.Entry.CommitMode),
				Status:  status,
			})
		}
	}

	for _, s := range []bundle.Scope{bundle.ScopeUser, bundle.ScopeWorkspace} {
		if only != "" && only != s {
			continue
		}
		entries, err := e.Index.Installed(s)
		if err != nil {
			return exitWith(err)
		}
		for _, entry := range entries {
			listed = append(listed, listedBundle{
				ID:      entry.BundleID,
				Version: entry.Version,
				Scope:   string(entry.Scope),
				Status:  output.StatusInstalled,
			})
		}
	}

	sort.Slice(listed, func(i, j int) bool {
		if listed[i].ID != listed[j].ID {
			return listed[i].ID < listed[j].ID
		}
		return listed[i].Scope < listed[j].Scope
	})

	switch format {
	case output.FormatJSON:
		data, err := json.MarshalIndent(listed, "", "  ")
		if err != nil {
			return exitWith(err)
		}
		output.Println(string(data))
	case output.FormatYAML:
		data, err := yaml.Marshal(listed)
		if err != nil {
			return exitWith(err)
		}
		output.Print(string(data))
	default:
		if len(listed) == 0 {
			output.Println("No bundles installed.")
			return nil
		}
		rows := make([]output.BundleRow, 0, len(listed))
		for _, b := range listed {
			rows = append(rows, output.BundleRow{
				ID:      b.ID,
				Version: b.Version,
				Scope:   b.Scope,
				Mode:    b.Mode,
				Status:  b.Status,
			})
		}
		output.Println(output.RenderBundleTable(rows))
	}

	return nil
}

package output

import (
	"bytes"
	"fmt"

	"github.com/gonvenience/ytbx"
	"github.com/homeport/dyff/pkg/dyff"
	"gopkg.in/yaml.v3"
)

// RenderDrift renders a YAML-aware diff between two path→checksum states,
// typically the lockfile-recorded state and the recomputed on-disk state.
// Returns an empty string when the states are identical.
func RenderDrift(recorded, actual map[string]string) (string, error) {
	recordedYAML, err := yaml.Marshal(recorded)
	if err != nil {
		return "", fmt.Errorf("serializing recorded state: %w", err)
	}
	actualYAML, err := yaml.Marshal(actual)
	if err != nil {
		return "", fmt.Errorf("serializing actual state: %w", err)
	}

	recordedInput, err := parseYAMLInput("recorded", recordedYAML)
	if err != nil {
		return "", fmt.Errorf("parsing recorded state: %w", err)
	}
	actualInput, err := parseYAMLInput("on disk", actualYAML)
	if err != nil {
		return "", fmt.Errorf("parsing on-disk state: %w", err)
	}

	report, err := dyff.CompareInputFiles(recordedInput, actualInput)
	if err != nil {
		return "", fmt.Errorf("comparing states: %w", err)
	}

	if len(report.Diffs) == 0 {
		return "", nil
	}

	return renderDyffReport(report)
}

// parseYAMLInput parses YAML bytes into a dyff input file.
func parseYAMLInput(name string, data []byte) (ytbx.InputFile, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ytbx.InputFile{
			Location:  name,
			Documents: nil,
		}, nil
	}

	docs, err := ytbx.LoadYAMLDocuments(data)
	if err != nil {
		return ytbx.InputFile{}, err
	}

	return ytbx.InputFile{
		Location:  name,
		Documents: docs,
	}, nil
}

// renderDyffReport renders a dyff report to a string.
func renderDyffReport(report dyff.Report) (string, error) {
	var buf bytes.Buffer

	reportWriter := &dyff.HumanReport{
		Report:            report,
		DoNotInspectCerts: true,
		NoTableStyle:      !IsTTY(),
		OmitHeader:        true,
	}

	if err := reportWriter.WriteReport(&buf); err != nil {
		return "", fmt.Errorf("rendering drift report: %w", err)
	}

	return buf.String(), nil
}

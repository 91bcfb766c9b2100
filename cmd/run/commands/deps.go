package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/runfile/pkg/runner"
	"github.com/Sumatoshi-tech/runfile/pkg/rustdeps"
)

const yamlIndent = 2

type dependencyReport struct {
	File         string   `json:"file"         yaml:"file"`
	Dependencies []string `json:"dependencies" yaml:"dependencies"`
}

// listDependencies prints the crates a Rust file imports without building it.
func listDependencies(ctx context.Context, path, format string, out io.Writer) error {
	if ext := runner.Extension(path); ext != rustExt {
		return fmt.Errorf("%w: %s (--deps reads %s files)",
			runner.ErrUnsupportedExtension, strings.TrimPrefix(ext, "."), rustExt)
	}

	file := rustdeps.ExtractFile(ctx, path)
	if file.Error != nil {
		return file.Error
	}

	report := dependencyReport{File: path, Dependencies: file.Dependencies.Sorted()}
	if report.Dependencies == nil {
		report.Dependencies = []string{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		err := enc.Encode(report)
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(yamlIndent)

		err := enc.Encode(report)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return enc.Close()
	default:
		_, err := fmt.Fprintln(out, renderTable(report))
		if err != nil {
			return fmt.Errorf("write table: %w", err)
		}
	}

	return nil
}

func renderTable(report dependencyReport) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false

	tbl.AppendHeader(table.Row{"#", "Crate"})

	for i, name := range report.Dependencies {
		tbl.AppendRow(table.Row{i + 1, name})
	}

	tbl.AppendFooter(table.Row{"", fmt.Sprintf("Total: %d", len(report.Dependencies))})

	return tbl.Render()
}

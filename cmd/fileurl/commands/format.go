package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/fileurl/internal/batch"
	"github.com/Sumatoshi-tech/fileurl/internal/config"
	"github.com/Sumatoshi-tech/fileurl/pkg/fileurl"
)

const yamlIndent = 2

// record is one file in the structured output formats.
type record struct {
	Path   string          `json:"path"             yaml:"path"`
	Link   string          `json:"link,omitempty"   yaml:"link,omitempty"`
	Result *fileurl.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string          `json:"error,omitempty"  yaml:"error,omitempty"`
	Kind   string          `json:"kind"             yaml:"kind"`
}

func isKnownFormat(format string) bool {
	return slices.Contains(config.Formats, format)
}

// render writes report to w. Markdown and plain print only the links; the
// structured formats include failures too.
func render(w io.Writer, format string, report batch.Report, simple bool) error {
	switch format {
	case config.FormatMarkdown, "":
		return writeLines(w, report.Links(simple))
	case config.FormatPlain:
		return writeLines(w, report.Links(true))
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(records(report, simple))
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(yamlIndent)

		err := enc.Encode(records(report, simple))
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return enc.Close()
	case config.FormatTable:
		renderTable(w, report)

		return nil
	default:
		return fmt.Errorf("%w: %q", config.ErrInvalidFormat, format)
	}
}

func writeLines(w io.Writer, lines []string) error {
	if len(lines) == 0 {
		return nil
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")

	return err
}

func records(report batch.Report, simple bool) []record {
	out := make([]record, 0, len(report.Entries))

	for _, entry := range report.Entries {
		rec := record{Path: entry.Path, Kind: fileurl.KindName(fileurl.KindOf(entry.Err))}

		if entry.OK() {
			res := entry.Result
			rec.Result = &res
			rec.Link = res.Link(simple)
		} else {
			rec.Error = entry.Err.Error()
		}

		out = append(out, rec)
	}

	return out
}

func renderTable(w io.Writer, report batch.Report) {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetOutputMirror(w)
	tbl.AppendHeader(table.Row{"File", "Branch", "URL"})

	failed := 0

	for _, entry := range report.Entries {
		if !entry.OK() {
			failed++

			tbl.AppendRow(table.Row{entry.Path, "-", fileurl.KindName(fileurl.KindOf(entry.Err))})

			continue
		}

		tbl.AppendRow(table.Row{entry.Result.RelativePathFromGitRoot, entry.Result.Branch, entry.Result.URL})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d files", len(report.Entries)), "", fmt.Sprintf("%d failed", failed)})
	tbl.Render()
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// ValidateOutputFormat validates that the given format string is a supported output format.
func ValidateOutputFormat(format string) error {
	switch OutputFormat(format) {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %q (valid: table, json, yaml)", format)
	}
}

// Printer writes command results in the selected format.
type Printer struct {
	out    io.Writer
	format OutputFormat
}

// NewPrinter creates a Printer. An empty format means table.
func NewPrinter(out io.Writer, format OutputFormat) *Printer {
	if format == "" {
		format = OutputFormatTable
	}
	return &Printer{out: out, format: format}
}

// Format returns the selected format.
func (p *Printer) Format() OutputFormat {
	return p.format
}

// Print writes data. In table format headers and rows are rendered; in the
// structured formats data itself is encoded.
func (p *Printer) Print(data any, headers []string, rows [][]string) error {
	switch p.format {
	case OutputFormatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case OutputFormatYAML:
		enc := yaml.NewEncoder(p.out)
		defer enc.Close()
		return enc.Encode(data)
	default:
		p.Table(headers, rows)
		return nil
	}
}

// Table renders a rounded table, or a notice when there are no rows.
func (p *Printer) Table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(p.out, text.FgYellow.Sprint("No items found"))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleRounded)

	header := make(table.Row, 0, len(headers))
	for _, h := range headers {
		header = append(header, text.FgHiCyan.Sprint(h))
	}
	t.AppendHeader(header)

	for _, r := range rows {
		row := make(table.Row, 0, len(r))
		for _, cell := range r {
			if cell == "" {
				cell = "-"
			}
			row = append(row, cell)
		}
		t.AppendRow(row)
	}
	t.Render()
}

// KeyValues renders an ordered list of key/value pairs as a two-column table.
func (p *Printer) KeyValues(pairs [][2]string) {
	rows := make([][]string, 0, len(pairs))
	for _, kv := range pairs {
		rows = append(rows, []string{kv[0], kv[1]})
	}
	p.Table([]string{"KEY", "VALUE"}, rows)
}

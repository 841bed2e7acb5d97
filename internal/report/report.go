// Package report renders curation results for people and for other tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

// Format selects how a report is written.
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatCSV      Format = "csv"
)

// ParseFormat accepts a format name. "text" is an alias for table and "md"
// for markdown.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "table", "text":
		return FormatTable, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Write encodes v in one of the structured formats, JSON or YAML.
func Write(w io.Writer, f Format, v any) error {
	if ok, err := encoded(w, f, v); ok {
		return err
	}
	return fmt.Errorf("format %s is not supported for this output", f)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

func newTable(f Format) table.Writer {
	t := table.NewWriter()
	if f != FormatMarkdown {
		t.SetStyle(table.StyleLight)
	}
	return t
}

func render(w io.Writer, t table.Writer, f Format) error {
	var out string
	if f == FormatMarkdown {
		out = t.RenderMarkdown()
	} else {
		out = t.Render()
	}
	_, err := fmt.Fprintln(w, out)
	return err
}

// encoded handles the formats every report shares. It reports false when f
// needs report-specific rendering.
func encoded(w io.Writer, f Format, v any) (bool, error) {
	switch f {
	case FormatJSON:
		return true, writeJSON(w, v)
	case FormatYAML:
		return true, writeYAML(w, v)
	default:
		return false, nil
	}
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func score(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// Package output renders command results for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format defines the output format for CLI commands.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Default is the format used when none (or an unknown one) is requested.
const Default = FormatYAML

// ParseFormat maps a --output flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatYAML:
		return Format(s), nil
	case "":
		return Default, nil
	default:
		return "", fmt.Errorf("unknown output format: %s (want yaml or json)", s)
	}
}

// Printer writes values to a writer in a fixed format.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a Printer.
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

// Print writes data in the printer's format.
func (p *Printer) Print(data any) error {
	return To(p.w, p.format, data)
}

// To writes data to the given writer in the specified format.
func To(w io.Writer, format Format, data any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

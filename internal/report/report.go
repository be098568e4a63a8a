// Package report exports finished runs as JSON, YAML or an Excel workbook.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"comment-insights-go/internal/processor"
)

// Format is an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// Write encodes run to w.
func Write(w io.Writer, run *processor.Run, f Format) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, run)
	case FormatYAML:
		return WriteYAML(w, run)
	case FormatXLSX:
		return WriteXLSX(w, run)
	}
	return fmt.Errorf("unknown report format %q", f)
}

// Save writes run to path, picking the format from the extension.
func Save(path string, run *processor.Run) error {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := Write(out, run, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func WriteJSON(w io.Writer, run *processor.Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(run)
}

func WriteYAML(w io.Writer, run *processor.Run) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(run); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

package reporters

import (
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driven"
)

// RegisterDefaults registers all built-in renderers and exporters.
// Call this during application initialisation.
func RegisterDefaults(r *Registry) {
	r.Register(FormatText, buildText)
	r.Register(FormatMarkdown, buildMarkdown)
	r.Register(FormatJSON, buildJSON)
	r.Register(FormatCSV, buildCSV)

	r.RegisterExporter(FormatMarkdown, buildMarkdownExporter)
	r.RegisterExporter(FormatCSV, buildCSVExporter)
}

// Format names.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatCSV      = "csv"
)

// buildText creates a text renderer.
// Supported config keys:
//   - show_path (bool): include the reasoning path (default: true)
//   - width (int): rule width for separators (default: 60)
func buildText(cfg map[string]any) (driven.ReportRenderer, error) {
	r := &TextRenderer{ShowPath: true, Width: defaultWidth}
	if v, ok := getBoolFromConfig(cfg, "show_path"); ok {
		r.ShowPath = v
	}
	if w := getIntFromConfig(cfg, "width"); w > 0 {
		r.Width = w
	}
	return r, nil
}

// buildMarkdown creates a markdown renderer.
// Supported config keys:
//   - show_path (bool): include the reasoning path (default: true)
func buildMarkdown(cfg map[string]any) (driven.ReportRenderer, error) {
	r := &MarkdownRenderer{ShowPath: true}
	if v, ok := getBoolFromConfig(cfg, "show_path"); ok {
		r.ShowPath = v
	}
	return r, nil
}

// buildJSON creates a JSON renderer.
// Supported config keys:
//   - indent (int): spaces per indent level, 0 for compact (default: 2)
func buildJSON(cfg map[string]any) (driven.ReportRenderer, error) {
	r := &JSONRenderer{Indent: 2}
	if _, ok := cfg["indent"]; ok {
		r.Indent = getIntFromConfig(cfg, "indent")
	}
	return r, nil
}

func buildCSV(_ map[string]any) (driven.ReportRenderer, error) {
	return &CSVRenderer{}, nil
}

func buildMarkdownExporter(cfg map[string]any) (driven.CatalogueExporter, error) {
	e := &MarkdownExporter{Title: "Knowledge Base"}
	if title, ok := cfg["title"].(string); ok && title != "" {
		e.Title = title
	}
	return e, nil
}

func buildCSVExporter(_ map[string]any) (driven.CatalogueExporter, error) {
	return &CSVExporter{}, nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func getBoolFromConfig(cfg map[string]any, key string) (bool, bool) {
	v, ok := cfg[key].(bool)
	return v, ok
}

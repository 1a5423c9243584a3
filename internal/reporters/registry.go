// Package reporters renders consultation results and rule catalogues in
// several output formats.
package reporters

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.RendererRegistry = (*Registry)(nil)

// RendererBuilder creates a ReportRenderer from generic config.
// Config is a map of renderer-specific settings parsed from user config.
type RendererBuilder func(cfg map[string]any) (driven.ReportRenderer, error)

// ExporterBuilder creates a CatalogueExporter from generic config.
type ExporterBuilder func(cfg map[string]any) (driven.CatalogueExporter, error)

// Registry maps format names to their builders.
// It allows dynamic construction of renderers from configuration.
type Registry struct {
	renderers map[string]RendererBuilder
	exporters map[string]ExporterBuilder
	configs   map[string]map[string]any
}

// NewRegistry creates a new, empty registry.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[string]RendererBuilder),
		exporters: make(map[string]ExporterBuilder),
		configs:   make(map[string]map[string]any),
	}
}

// Register adds a renderer builder to the registry.
// Name should be unique and match the renderer's Name() return value.
func (r *Registry) Register(name string, builder RendererBuilder) {
	r.renderers[name] = builder
}

// RegisterExporter adds a catalogue exporter builder to the registry.
func (r *Registry) RegisterExporter(name string, builder ExporterBuilder) {
	r.exporters[name] = builder
}

// Configure sets the config passed to the named format's builders.
func (r *Registry) Configure(name string, cfg map[string]any) {
	r.configs[name] = cfg
}

// Build creates a renderer by name with the given config.
// Returns an error wrapping domain.ErrNotFound if the name is not registered.
func (r *Registry) Build(name string, cfg map[string]any) (driven.ReportRenderer, error) {
	builder, ok := r.renderers[name]
	if !ok {
		return nil, fmt.Errorf("unknown report format %q: %w", name, domain.ErrNotFound)
	}
	return builder(cfg)
}

// BuildExporter creates an exporter by name with the given config.
func (r *Registry) BuildExporter(name string, cfg map[string]any) (driven.CatalogueExporter, error) {
	builder, ok := r.exporters[name]
	if !ok {
		return nil, fmt.Errorf("unknown export format %q: %w", name, domain.ErrNotFound)
	}
	return builder(cfg)
}

// Renderer builds the named renderer with its configured settings.
func (r *Registry) Renderer(name string) (driven.ReportRenderer, error) {
	return r.Build(name, r.configs[name])
}

// Exporter builds the named exporter with its configured settings.
func (r *Registry) Exporter(name string) (driven.CatalogueExporter, error) {
	return r.BuildExporter(name, r.configs[name])
}

// Has returns true if a renderer with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.renderers[name]
	return ok
}

// RendererNames returns all registered renderer names, sorted.
func (r *Registry) RendererNames() []string {
	return sortedKeys(r.renderers)
}

// ExporterNames returns all registered exporter names, sorted.
func (r *Registry) ExporterNames() []string {
	return sortedKeys(r.exporters)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

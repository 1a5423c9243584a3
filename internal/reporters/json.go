package reporters

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// JSONRenderer writes the consultation result using its output contract.
type JSONRenderer struct {
	Indent int
}

// Name returns the format name.
func (r *JSONRenderer) Name() string { return FormatJSON }

// Render writes the result to w.
func (r *JSONRenderer) Render(w io.Writer, result *domain.ConsultationResult) error {
	enc := json.NewEncoder(w)
	if r.Indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", r.Indent))
	}
	return enc.Encode(result)
}

package service

import (
	"fmt"

	"github.com/ludo-technologies/cloneval/domain"
)

// OutputFormatResolver resolves output format and file extension from flags.
type OutputFormatResolver struct{}

func NewOutputFormatResolver() *OutputFormatResolver { return &OutputFormatResolver{} }

// Determine evaluates format flags and returns the selected format and extension.
// At most one of json/yaml/csv may be true; if none are true, defaults to text.
func (r *OutputFormatResolver) Determine(json, yaml, csv bool) (domain.OutputFormat, string, error) {
	formatCount := 0
	var format domain.OutputFormat
	var ext string

	if json {
		formatCount++
		format = domain.OutputFormatJSON
		ext = "json"
	}
	if yaml {
		formatCount++
		format = domain.OutputFormatYAML
		ext = "yaml"
	}
	if csv {
		formatCount++
		format = domain.OutputFormatCSV
		ext = "csv"
	}

	if formatCount > 1 {
		return "", "", fmt.Errorf("only one output format flag can be specified")
	}
	if formatCount == 0 {
		return domain.OutputFormatText, "", nil
	}
	return format, ext, nil
}

// Extension returns the report file extension of a format, empty for text
func (r *OutputFormatResolver) Extension(format domain.OutputFormat) string {
	switch format {
	case domain.OutputFormatJSON, domain.OutputFormatYAML, domain.OutputFormatCSV:
		return string(format)
	default:
		return ""
	}
}

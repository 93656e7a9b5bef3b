package export

import "fmt"

// Format identifies an export file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// Valid reports whether the format has a renderer.
func (f Format) Valid() bool {
	switch f {
	case FormatCSV, FormatPDF, FormatXLSX:
		return true
	}
	return false
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// Dataset is an ordered table. Each row has one cell per header.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(d.Headers))
		}
	}
	return nil
}

// Renderer turns a dataset into file bytes.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
}

// Renderers maps each format to its renderer.
type Renderers map[Format]Renderer

// DefaultRenderers wires every supported format.
func DefaultRenderers() Renderers {
	return Renderers{
		FormatCSV:  NewCSVExporter(),
		FormatPDF:  NewPDFExporter(),
		FormatXLSX: NewXLSXExporter(),
	}
}

// Render dispatches to the renderer registered for format.
func (r Renderers) Render(format Format, data Dataset) ([]byte, error) {
	renderer, ok := r[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	return renderer.Render(data)
}

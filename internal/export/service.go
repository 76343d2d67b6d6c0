package export

import "fmt"

// Service renders Documents into exportable bytes.
type Service struct{}

// NewService creates a new export service
func NewService() *Service {
	return &Service{}
}

// Build generates an export in the requested format. A builder failure
// never touches the caller's render model; export is layered on top of an
// already computed document.
func (s *Service) Build(doc Document, format Format) (*Result, error) {
	html, err := RenderDocumentHTML(doc)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch format {
	case FormatPDF:
		return exportPDF(html, doc.BaseName)
	case FormatDOCX:
		return exportDOCX(html, doc.BaseName)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Package export is the document builder: it turns ordered text blocks and
// a table specification into exportable PDF or DOCX bytes. It knows nothing
// about the report semantics beyond "render rows in the order given".
package export

import (
	"errors"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ParseFormat maps a request parameter onto a Format, defaulting to PDF.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatPDF, "":
		return FormatPDF, true
	case FormatDOCX:
		return FormatDOCX, true
	default:
		return "", false
	}
}

// Document is the builder input: a header block, one table, and an
// optional trailing notes block.
type Document struct {
	Title       string
	BaseName    string // filename stem, extension added per format
	MetaLines   []MetaLine
	Body        string // optional narrative paragraph rendered before the table
	Table       Table
	Notes       string
	GeneratedAt time.Time
}

// MetaLine is one labeled line of the document header block.
type MetaLine struct {
	Label string
	Value string
}

// Table is the row/column/style specification the builder renders.
type Table struct {
	Header []string
	Rows   []TableRow
}

// RowStyle hints how a body row should be rendered.
type RowStyle string

const (
	StylePlain     RowStyle = ""
	StyleSection   RowStyle = "section"   // single cell spanning all columns
	StyleDivergent RowStyle = "divergent" // visually distinguished row
)

// TableRow is one body row. Section rows carry a single cell.
type TableRow struct {
	Cells []string
	Style RowStyle
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrDOCXDependencyMissing indicates DOCX export runtime dependencies are unavailable.
	ErrDOCXDependencyMissing = errors.New("export docx dependency missing")
)

package report

import (
	"fmt"
	"time"

	"ergolens/api/internal/export"
	"ergolens/api/internal/store"
)

// UnknownDateLabel heads the column of a submission whose timestamp could
// not be resolved.
const UnknownDateLabel = "Data sconosciuta"

// ReportMeta is the document-level header block of a worker report.
type ReportMeta struct {
	Worker      string    `json:"worker"`
	Company     string    `json:"company"`
	Site        string    `json:"site"`
	Submitter   string    `json:"submitter"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// RowKind distinguishes section banners from question rows.
type RowKind string

const (
	RowSection  RowKind = "section"
	RowQuestion RowKind = "question"
)

// RenderRow is one display row: either a section banner spanning all
// columns or a question row with one cell per submission.
type RenderRow struct {
	Kind      RowKind `json:"kind"`
	Label     string  `json:"label"`
	Cells     []Value `json:"cells,omitempty"`
	Divergent bool    `json:"divergent"`
}

// RenderModel is the display-ready table for the single-worker report:
// a header row followed by the comparison rows, sections interleaved.
type RenderModel struct {
	Meta   ReportMeta  `json:"meta"`
	Header []string    `json:"header"`
	Rows   []RenderRow `json:"rows"`
}

// SubmissionDates formats the per-submission column headers from an
// ordered comparison set.
func SubmissionDates(submissions []store.Submission) []string {
	dates := make([]string, len(submissions))
	for i, sub := range submissions {
		if sub.HasTimestamp {
			dates[i] = sub.SubmittedAt.Format("02/01/2006")
		} else {
			dates[i] = UnknownDateLabel
		}
	}
	return dates
}

// Compose renders the aligned comparison matrix into the display model.
// Produced fresh on every call; never persisted.
func Compose(rows []ComparisonRow, dates []string, meta ReportMeta) RenderModel {
	model := RenderModel{
		Meta:   meta,
		Header: append([]string{"Domanda"}, dates...),
		Rows:   make([]RenderRow, 0, len(rows)),
	}

	for _, row := range rows {
		if row.Section != "" {
			model.Rows = append(model.Rows, RenderRow{Kind: RowSection, Label: row.Section})
		}
		cells := make([]Value, len(row.Values))
		copy(cells, row.Values)
		model.Rows = append(model.Rows, RenderRow{
			Kind:      RowQuestion,
			Label:     row.Label,
			Cells:     cells,
			Divergent: row.HasDivergence,
		})
	}
	return model
}

// ExportDocument translates a render model into the document builder's
// block/table specification. Photo previews stay a display concern: the
// exported cells carry the diff-rendered values.
func ExportDocument(model RenderModel, notes string) export.Document {
	table := export.Table{Header: model.Header}
	for _, row := range model.Rows {
		if row.Kind == RowSection {
			table.Rows = append(table.Rows, export.TableRow{
				Cells: []string{row.Label},
				Style: export.StyleSection,
			})
			continue
		}
		cells := make([]string, 0, len(row.Cells)+1)
		cells = append(cells, row.Label)
		for _, cell := range row.Cells {
			cells = append(cells, cell.Rendered)
		}
		style := export.StylePlain
		if row.Divergent {
			style = export.StyleDivergent
		}
		table.Rows = append(table.Rows, export.TableRow{Cells: cells, Style: style})
	}

	return export.Document{
		Title:    "Report confronto compilazioni — " + model.Meta.Worker,
		BaseName: ExportBaseName(model.Meta.Worker, model.Meta.GeneratedAt),
		MetaLines: []export.MetaLine{
			{Label: "Azienda", Value: orPlaceholder(model.Meta.Company)},
			{Label: "Sede", Value: orPlaceholder(model.Meta.Site)},
			{Label: "Compilato da", Value: orPlaceholder(model.Meta.Submitter)},
		},
		Table:       table,
		Notes:       notes,
		GeneratedAt: model.Meta.GeneratedAt,
	}
}

// ExportBaseName derives the deterministic filename stem from the worker
// identity and the generation date. Collisions are a caller concern.
func ExportBaseName(worker string, date time.Time) string {
	if worker == "" {
		worker = "lavoratore"
	}
	return fmt.Sprintf("Report_%s_%s", worker, date.Format("2006-01-02"))
}

func orPlaceholder(s string) string {
	if s == "" {
		return AbsentPlaceholder
	}
	return s
}

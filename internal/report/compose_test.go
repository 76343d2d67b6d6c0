package report

import (
	"testing"
	"time"

	"ergolens/api/internal/catalog"
	"ergolens/api/internal/export"
	"ergolens/api/internal/store"
)

func sampleModel(t *testing.T) RenderModel {
	t.Helper()
	subs := []store.Submission{
		comparisonSub("s1", 10, map[string]store.AnswerValue{
			"meta_nome": store.TextAnswer("Mario Rossi"),
			"1.2":       store.TextAnswer("SI"),
		}),
		comparisonSub("s2", 15, map[string]store.AnswerValue{
			"meta_nome": store.TextAnswer("Mario Rossi"),
			"1.2":       store.TextAnswer("NO"),
		}),
	}
	rows := DiffWorker(subs, catalog.Questions())
	meta := ReportMeta{
		Worker:      "Mario Rossi",
		Company:     "Acme S.p.A.",
		Site:        "Milano",
		Submitter:   "rspp@acme.it",
		GeneratedAt: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
	}
	return Compose(rows, SubmissionDates(subs), meta)
}

func TestComposeHeaderAndSections(t *testing.T) {
	model := sampleModel(t)

	wantHeader := []string{"Domanda", "10/01/2024", "15/01/2024"}
	if len(model.Header) != 3 {
		t.Fatalf("header = %v", model.Header)
	}
	for i, h := range wantHeader {
		if model.Header[i] != h {
			t.Errorf("header[%d] = %q, want %q", i, model.Header[i], h)
		}
	}

	if model.Rows[0].Kind != RowSection || model.Rows[0].Label != "Dati generali" {
		t.Errorf("first row = %+v", model.Rows[0])
	}

	sections := 0
	questions := 0
	for _, row := range model.Rows {
		switch row.Kind {
		case RowSection:
			sections++
		case RowQuestion:
			questions++
			if len(row.Cells) != 2 {
				t.Errorf("question %q has %d cells", row.Label, len(row.Cells))
			}
		}
	}
	if sections != 7 {
		t.Errorf("sections = %d", sections)
	}
	if questions != len(catalog.Questions()) {
		t.Errorf("questions = %d, want %d", questions, len(catalog.Questions()))
	}
}

func TestComposeEmptySetIsValid(t *testing.T) {
	model := Compose(nil, nil, ReportMeta{})
	if len(model.Rows) != 0 {
		t.Errorf("rows = %d", len(model.Rows))
	}
	if len(model.Header) != 1 {
		t.Errorf("header = %v", model.Header)
	}
}

func TestExportDocumentMirrorsModel(t *testing.T) {
	model := sampleModel(t)
	doc := ExportDocument(model, "Da rivedere la sedia.")

	if doc.BaseName != "Report_Mario Rossi_2024-01-15" {
		t.Errorf("BaseName = %q", doc.BaseName)
	}
	if doc.Notes != "Da rivedere la sedia." {
		t.Errorf("Notes = %q", doc.Notes)
	}
	if len(doc.Table.Header) != len(model.Header) {
		t.Errorf("header width = %d", len(doc.Table.Header))
	}
	if len(doc.Table.Rows) != len(model.Rows) {
		t.Errorf("rows = %d, want %d", len(doc.Table.Rows), len(model.Rows))
	}

	var divergent, section bool
	for _, row := range doc.Table.Rows {
		switch row.Style {
		case export.StyleDivergent:
			divergent = true
			if row.Cells[0] != "L'immagine è stabile, senza sfarfallio?" {
				t.Errorf("divergent row = %v", row.Cells)
			}
		case export.StyleSection:
			section = true
			if len(row.Cells) != 1 {
				t.Errorf("section row cells = %v", row.Cells)
			}
		}
	}
	if !divergent || !section {
		t.Errorf("styles missing: divergent=%v section=%v", divergent, section)
	}
}

func TestExportBaseNameDeterministic(t *testing.T) {
	date := time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC)
	if got := ExportBaseName("Anna Bianchi", date); got != "Report_Anna Bianchi_2024-03-02" {
		t.Errorf("got %q", got)
	}
	if got := ExportBaseName("", date); got != "Report_lavoratore_2024-03-02" {
		t.Errorf("empty worker = %q", got)
	}
}

func TestSubmissionDatesUnknown(t *testing.T) {
	dates := SubmissionDates([]store.Submission{{ID: "u"}})
	if dates[0] != UnknownDateLabel {
		t.Errorf("got %q", dates[0])
	}
}

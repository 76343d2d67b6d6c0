package report

import (
	"reflect"
	"testing"
	"time"

	"ergolens/api/internal/catalog"
	"ergolens/api/internal/store"
)

func comparisonSub(id string, day int, answers map[string]store.AnswerValue) store.Submission {
	return store.Submission{
		ID:           id,
		SubmittedAt:  time.Date(2024, 1, day, 10, 0, 0, 0, time.UTC),
		HasTimestamp: true,
		Answers:      answers,
	}
}

func rowByID(t *testing.T, rows []ComparisonRow, questionID string) ComparisonRow {
	t.Helper()
	for _, row := range rows {
		if row.QuestionID == questionID {
			return row
		}
	}
	t.Fatalf("no row for question %s", questionID)
	return ComparisonRow{}
}

func TestDiffWorkerScenarioA(t *testing.T) {
	// 1.2 flips SI -> NO and must be flagged; meta_nome differs only in
	// casing but is an annotation question and never diverges.
	subs := []store.Submission{
		comparisonSub("s1", 10, map[string]store.AnswerValue{
			"meta_nome": store.TextAnswer("Mario Rossi"),
			"1.2":       store.TextAnswer("SI"),
		}),
		comparisonSub("s2", 15, map[string]store.AnswerValue{
			"meta_nome": store.TextAnswer("MARIO ROSSI"),
			"1.2":       store.TextAnswer("NO"),
		}),
	}
	rows := DiffWorker(subs, catalog.Questions())

	if row := rowByID(t, rows, "1.2"); !row.HasDivergence {
		t.Error("1.2 should diverge")
	}
	if row := rowByID(t, rows, "meta_nome"); row.HasDivergence {
		t.Error("meta_nome must never diverge")
	}
}

func TestDiffWorkerSingleSubmissionNeverDiverges(t *testing.T) {
	subs := []store.Submission{
		comparisonSub("s1", 10, map[string]store.AnswerValue{
			"1.1": store.TextAnswer("SI"),
			"1.2": store.TextAnswer("NO"),
		}),
	}
	for _, row := range DiffWorker(subs, catalog.Questions()) {
		if row.HasDivergence {
			t.Errorf("row %s diverges on a single submission", row.QuestionID)
		}
	}
}

func TestDiffWorkerCatalogOrderInvariance(t *testing.T) {
	answers1 := map[string]store.AnswerValue{"1.2": store.TextAnswer("SI")}
	answers2 := map[string]store.AnswerValue{"5.2": store.TextAnswer("NO")}

	ordered := SortBySubmittedAt([]store.Submission{
		comparisonSub("s1", 10, answers1),
		comparisonSub("s2", 15, answers2),
	})
	shuffled := SortBySubmittedAt([]store.Submission{
		comparisonSub("s2", 15, answers2),
		comparisonSub("s1", 10, answers1),
	})

	rowsA := DiffWorker(ordered, catalog.Questions())
	rowsB := DiffWorker(shuffled, catalog.Questions())
	if !reflect.DeepEqual(rowsA, rowsB) {
		t.Error("row sequence depends on storage order")
	}

	catalogIDs := make([]string, 0, len(rowsA))
	for _, row := range rowsA {
		catalogIDs = append(catalogIDs, row.QuestionID)
	}
	var want []string
	for _, q := range catalog.Questions() {
		want = append(want, q.ID)
	}
	if !reflect.DeepEqual(catalogIDs, want) {
		t.Error("rows not in catalog order")
	}
}

func TestDiffWorkerAbsentAndListRendering(t *testing.T) {
	subs := []store.Submission{
		comparisonSub("s1", 10, map[string]store.AnswerValue{
			"5.1": store.ListAnswer([]string{"riflessi", "bruciore"}),
		}),
		comparisonSub("s2", 15, nil),
	}
	row := rowByID(t, DiffWorker(subs, catalog.Questions()), "5.1")
	if row.Values[0].Rendered != "riflessi, bruciore" {
		t.Errorf("list rendering = %q", row.Values[0].Rendered)
	}
	if row.Values[1].Rendered != AbsentPlaceholder {
		t.Errorf("absent rendering = %q", row.Values[1].Rendered)
	}
	if !row.HasDivergence {
		t.Error("list vs absent should diverge")
	}
}

func TestDiffWorkerPhotoPlaceholder(t *testing.T) {
	subs := []store.Submission{
		comparisonSub("s1", 10, map[string]store.AnswerValue{
			"3.3_foto": store.TextAnswer("https://cdn.example.com/foto/123.jpg"),
		}),
	}
	row := rowByID(t, DiffWorker(subs, catalog.Questions()), "3.3_foto")
	if row.Values[0].Rendered != ImagePlaceholder {
		t.Errorf("photo rendering = %q", row.Values[0].Rendered)
	}
	// The original reference survives for the on-screen preview.
	if row.Values[0].ImageRef != "https://cdn.example.com/foto/123.jpg" {
		t.Errorf("ImageRef = %q", row.Values[0].ImageRef)
	}
}

func TestDiffWorkerSectionBanners(t *testing.T) {
	subs := []store.Submission{comparisonSub("s1", 10, nil)}
	rows := DiffWorker(subs, catalog.Questions())

	if rows[0].Section != "Dati generali" {
		t.Errorf("first row section = %q", rows[0].Section)
	}

	var banners []string
	for _, row := range rows {
		if row.Section != "" {
			banners = append(banners, row.Section)
		}
	}
	want := []string{
		"Dati generali", "Schermo", "Tastiera e mouse", "Piano di lavoro",
		"Sedile", "Ambiente di lavoro", "Organizzazione del lavoro",
	}
	if !reflect.DeepEqual(banners, want) {
		t.Errorf("banners = %v", banners)
	}
}

func TestSortBySubmittedAt(t *testing.T) {
	a := comparisonSub("b", 15, nil)
	b := comparisonSub("a", 15, nil) // same instant, id breaks the tie
	c := comparisonSub("c", 10, nil)
	undated := store.Submission{ID: "u"}

	got := SortBySubmittedAt([]store.Submission{a, b, undated, c})
	if !reflect.DeepEqual(ids(got), []string{"u", "c", "a", "b"}) {
		t.Errorf("order = %v", ids(got))
	}
}

func TestRenderValueBool(t *testing.T) {
	if got := RenderValue(store.BoolAnswer(true)); got.Rendered != "SI" {
		t.Errorf("true = %q", got.Rendered)
	}
	if got := RenderValue(store.BoolAnswer(false)); got.Rendered != "NO" {
		t.Errorf("false = %q", got.Rendered)
	}
}

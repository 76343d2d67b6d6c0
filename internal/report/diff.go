package report

import (
	"sort"
	"strconv"
	"strings"

	"ergolens/api/internal/catalog"
	"ergolens/api/internal/store"
)

// AbsentPlaceholder is the glyph rendered for missing, null, or empty
// answers.
const AbsentPlaceholder = "—"

// ImagePlaceholder replaces photo references for diffing and export. The
// on-screen view resolves the original reference to an inline preview
// instead; Value keeps both.
const ImagePlaceholder = "[image]"

// Value is one rendered answer cell. Rendered carries the diff semantics;
// ImageRef carries the original photo reference for the display layer only.
type Value struct {
	Rendered string `json:"rendered"`
	ImageRef string `json:"imageRef,omitempty"`
}

// ComparisonRow is one question's label plus one rendered value per
// submission in the comparison set. Section is the banner title to render
// immediately before this row, set only when the row opens a new section.
type ComparisonRow struct {
	QuestionID    string
	Label         string
	Section       string
	Values        []Value
	HasDivergence bool
}

// SortBySubmittedAt orders submissions ascending by timestamp with the id
// as tiebreak, records without a timestamp first. The input is left
// untouched.
func SortBySubmittedAt(submissions []store.Submission) []store.Submission {
	out := make([]store.Submission, len(submissions))
	copy(out, submissions)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.HasTimestamp != b.HasTimestamp {
			return !a.HasTimestamp
		}
		if a.HasTimestamp && !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		return a.ID < b.ID
	})
	return out
}

// DiffWorker aligns answers by question id across an ordered list of one
// worker's submissions and flags, per question, whether the rendered
// values diverge. Annotation questions are never divergence candidates.
// The row sequence is catalog order, so every rendered report is identical
// regardless of which answers are present.
func DiffWorker(submissions []store.Submission, questions []catalog.Question) []ComparisonRow {
	sections := catalog.AssignSections(questions)

	rows := make([]ComparisonRow, 0, len(questions))
	currentSection := ""
	for i, q := range questions {
		values := make([]Value, len(submissions))
		for j, sub := range submissions {
			values[j] = RenderValue(sub.Answer(q.ID))
		}

		divergence := false
		if !catalog.IsAnnotation(q.ID) {
			distinct := map[string]bool{}
			for _, v := range values {
				distinct[v.Rendered] = true
			}
			divergence = len(distinct) > 1
		}

		row := ComparisonRow{
			QuestionID:    q.ID,
			Label:         q.Label,
			Values:        values,
			HasDivergence: divergence,
		}
		if sections[i] != currentSection {
			row.Section = sections[i]
			currentSection = sections[i]
		}
		rows = append(rows, row)
	}
	return rows
}

// RenderValue maps an answer onto its rendered cell: absent values become
// the placeholder glyph, lists are comma-joined, photo references collapse
// to the image placeholder.
func RenderValue(v store.AnswerValue) Value {
	if v.IsAbsent() {
		return Value{Rendered: AbsentPlaceholder}
	}
	switch v.Kind {
	case store.AnswerText:
		if IsPhotoReference(v.Text) {
			return Value{Rendered: ImagePlaceholder, ImageRef: v.Text}
		}
		return Value{Rendered: v.Text}
	case store.AnswerNumber:
		return Value{Rendered: strconv.FormatFloat(v.Number, 'f', -1, 64)}
	case store.AnswerBool:
		if v.Bool {
			return Value{Rendered: "SI"}
		}
		return Value{Rendered: "NO"}
	case store.AnswerList:
		items := make([]string, len(v.List))
		for i, item := range v.List {
			if IsPhotoReference(item) {
				items[i] = ImagePlaceholder
			} else {
				items[i] = item
			}
		}
		return Value{Rendered: strings.Join(items, ", ")}
	default:
		return Value{Rendered: AbsentPlaceholder}
	}
}

// IsPhotoReference recognizes URL-like and embedded-image values.
func IsPhotoReference(s string) bool {
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "gs://") ||
		strings.HasPrefix(s, "data:image/")
}

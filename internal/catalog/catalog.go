// Package catalog holds the static VDT ergonomics questionnaire: the
// ordered question list, section anchors, and annotation classification.
package catalog

import "strings"

// Question is one catalog entry. The catalog order is the only ordering
// report rows ever use, so every rendered report has an identical row
// sequence regardless of which answers are present.
type Question struct {
	ID    string
	Label string
}

const (
	// WorkerQuestionID identifies the respondent; its answer is the
	// grouping key for per-worker views.
	WorkerQuestionID = "meta_nome"
	// DepartmentQuestionID is the grouping key for per-department views.
	DepartmentQuestionID = "meta_reparto"
)

// annotationSuffixes mark free-text notes and photo references. Annotation
// questions are never candidates for change-highlighting.
var annotationSuffixes = []string{"_note", "_foto"}

const annotationPrefix = "meta_"

// IsAnnotation reports whether a question id is classified as an
// annotation (metadata, notes, photo references).
func IsAnnotation(id string) bool {
	if strings.HasPrefix(id, annotationPrefix) {
		return true
	}
	for _, suffix := range annotationSuffixes {
		if strings.HasSuffix(id, suffix) {
			return true
		}
	}
	return false
}

// sectionAnchors maps an anchor question id to the section title that
// starts at that question. Kept as ordered data; section assignment is a
// single left-to-right scan over the catalog carrying the current title.
var sectionAnchors = map[string]string{
	"meta_nome": "Dati generali",
	"1.1":       "Schermo",
	"2.1":       "Tastiera e mouse",
	"3.1":       "Piano di lavoro",
	"4.1":       "Sedile",
	"5.1":       "Ambiente di lavoro",
	"6.1":       "Organizzazione del lavoro",
}

// SectionAnchor returns the section title starting at the given question
// id, or "" when the question is not an anchor.
func SectionAnchor(id string) string {
	return sectionAnchors[id]
}

// AssignSections returns, for each question, the title of the section it
// falls under: the nearest preceding anchor in catalog order. Questions
// before the first anchor get an empty title.
func AssignSections(questions []Question) []string {
	sections := make([]string, len(questions))
	current := ""
	for i, q := range questions {
		if title := sectionAnchors[q.ID]; title != "" {
			current = title
		}
		sections[i] = current
	}
	return sections
}

var questions = []Question{
	{ID: "meta_nome", Label: "Nome e cognome"},
	{ID: "meta_reparto", Label: "Reparto"},
	{ID: "meta_mansione", Label: "Mansione"},

	{ID: "1.1", Label: "Lo schermo è orientabile e inclinabile?"},
	{ID: "1.2", Label: "L'immagine è stabile, senza sfarfallio?"},
	{ID: "1.3", Label: "Ore giornaliere di utilizzo del videoterminale"},
	{ID: "1.4", Label: "Luminosità e contrasto sono regolabili?"},
	{ID: "1.4_note", Label: "Note sullo schermo"},

	{ID: "2.1", Label: "La tastiera è separata dallo schermo?"},
	{ID: "2.2", Label: "C'è spazio per appoggiare gli avambracci?"},
	{ID: "2.3", Label: "Il mouse è in prossimità della tastiera?"},

	{ID: "3.1", Label: "Il piano di lavoro ha una superficie poco riflettente?"},
	{ID: "3.2", Label: "Le dimensioni consentono una disposizione flessibile?"},
	{ID: "3.3", Label: "C'è spazio sufficiente per gli arti inferiori?"},
	{ID: "3.3_foto", Label: "Foto della postazione"},

	{ID: "4.1", Label: "Il sedile è girevole e a cinque razze?"},
	{ID: "4.2", Label: "L'altezza del sedile è regolabile?"},
	{ID: "4.3", Label: "Lo schienale fornisce supporto lombare?"},
	{ID: "4.3_note", Label: "Note sul sedile"},

	{ID: "5.1", Label: "Quali disturbi visivi vengono percepiti?"},
	{ID: "5.2", Label: "L'illuminazione è adeguata al compito?"},
	{ID: "5.3", Label: "Sono presenti riflessi o abbagliamenti?"},
	{ID: "5.4", Label: "Il rumore ambientale disturba l'attenzione?"},

	{ID: "6.1", Label: "Vengono effettuate pause di 15 minuti ogni 2 ore?"},
	{ID: "6.2", Label: "Sono previsti cambi di attività nella giornata?"},
	{ID: "6.2_note", Label: "Osservazioni finali"},
}

// Questions returns the catalog in fixed order. Callers receive a copy;
// the catalog itself is immutable.
func Questions() []Question {
	out := make([]Question, len(questions))
	copy(out, questions)
	return out
}

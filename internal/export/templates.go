package export

import (
	"bytes"
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var documentTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}

	templateContent, err := templateFS.ReadFile("templates/report.html")
	if err != nil {
		// Fallback to built-in template if file not found
		documentTemplate = template.Must(template.New("report").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	documentTemplate = template.Must(template.New("report").Funcs(funcMap).Parse(string(templateContent)))
}

// TemplateData holds data for report template rendering
type TemplateData struct {
	Title       string
	MetaLines   []MetaLine
	Body        string
	Header      []string
	Rows        []TableRow
	Columns     int
	Notes       string
	GeneratedAt time.Time
}

// RenderDocumentHTML renders the report template for a document.
func RenderDocumentHTML(doc Document) (string, error) {
	data := TemplateData{
		Title:       doc.Title,
		MetaLines:   doc.MetaLines,
		Body:        doc.Body,
		Header:      doc.Table.Header,
		Rows:        doc.Table.Rows,
		Columns:     len(doc.Table.Header),
		Notes:       doc.Notes,
		GeneratedAt: doc.GeneratedAt,
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackTemplate is used if the embedded template fails to load
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.5; max-width: 900px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #444; margin-bottom: 1.5rem; }
    table { width: 100%; border-collapse: collapse; font-size: 0.85em; }
    th, td { border: 1px solid #999; padding: 6px 8px; text-align: left; vertical-align: top; }
    th { background: #e8e8e8; }
    tr { page-break-inside: avoid; }
    tr.section td { background: #d0d8e8; font-weight: bold; }
    tr.divergent td { background: #fdecea; }
    .notes { margin-top: 1.5rem; }
    .generated { color: #777; font-size: 0.8em; margin-top: 2rem; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="meta">
    {{range .MetaLines}}<div><strong>{{.Label}}:</strong> {{.Value}}</div>{{end}}
  </div>
  {{if .Body}}
  <div class="body">
    <h3>Corpo della relazione</h3>
    <p>{{.Body}}</p>
  </div>
  {{end}}
  {{if .Header}}
  <table>
    <thead>
      <tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
    </thead>
    <tbody>
      {{$columns := .Columns}}
      {{range .Rows}}
      {{if eq .Style "section"}}
      <tr class="section"><td colspan="{{$columns}}">{{index .Cells 0}}</td></tr>
      {{else if eq .Style "divergent"}}
      <tr class="divergent">{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
      {{else}}
      <tr>{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
      {{end}}
      {{end}}
    </tbody>
  </table>
  {{end}}
  {{if .Notes}}
  <div class="notes">
    <h3>Note conclusive</h3>
    <p>{{.Notes}}</p>
  </div>
  {{end}}
  <div class="generated">Generato automaticamente il {{formatDate .GeneratedAt "02/01/2006 15:04"}}</div>
</body>
</html>`

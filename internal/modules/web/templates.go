package web

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded pages; gin renders them by file name.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"formatDate": formatDate,
		"inputDate":  inputDate,
	}).ParseFS(templateFS, "templates/*.html"))
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func inputDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04")
}

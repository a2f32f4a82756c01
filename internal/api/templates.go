package api

import (
	"embed"
	"fmt"
	"html/template"
	"math"
	"strings"
)

//go:embed templates/*
var templateFS embed.FS

// newTemplates parses the HTML templates with custom functions.
func newTemplates() *template.Template {
	funcs := template.FuncMap{
		"temp": func(f float64) string {
			return fmt.Sprintf("%.0f°", math.Round(f))
		},
		"css": func(s string) template.CSS {
			return template.CSS(s)
		},
		"upper": strings.ToUpper,
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

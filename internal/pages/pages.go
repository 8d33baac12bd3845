// Package pages renders the HTML documents returned by /track.
package pages

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/PratikDhanave/utm-receiver/internal/models"
)

// ContentType is the Content-Type of every rendered page.
const ContentType = "text/html; charset=utf-8"

//go:embed templates/*.html
var templateFS embed.FS

var (
	successTmpl = template.Must(template.ParseFS(templateFS, "templates/success.html"))
	errorPage   = mustRead("templates/error.html")
)

func mustRead(name string) []byte {
	b, err := templateFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return b
}

// Success renders the confirmation page listing each captured parameter,
// or a single placeholder item when there are none. Keys and values are
// HTML-escaped.
func Success(params models.Params) ([]byte, error) {
	var buf bytes.Buffer
	if err := successTmpl.Execute(&buf, params); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Error returns the generic failure page. It carries no error detail.
func Error() []byte {
	return errorPage
}

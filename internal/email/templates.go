package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// maxReportErrors caps the error list in a report mail.
const maxReportErrors = 50

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
}

type batchReportEmailData struct {
	baseEmailData
	BatchID    string
	State      string
	Sent       int
	Failed     int
	Excluded   int
	Errors     []string
	MoreErrors int
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

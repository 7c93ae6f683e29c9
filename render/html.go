package render

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"profile-viewer/viewer"
)

//go:embed templates/*.tmpl
var templates embed.FS

type HTML struct {
	page *template.Template
}

func NewHTML() (*HTML, error) {
	page, err := template.ParseFS(templates, "templates/page.html.tmpl")
	if err != nil {
		return nil, err
	}
	return &HTML{page: page}, nil
}

func (h *HTML) Render(w io.Writer, view viewer.View) error {
	var buf bytes.Buffer
	if err := h.page.Execute(&buf, view); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

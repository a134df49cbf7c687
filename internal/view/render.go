package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"hatewatch-dashboard/internal/refresh"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer writes dashboard HTML for snapshots.
type Renderer struct {
	tmpl *template.Template
	opts PageOptions
}

func NewRenderer(opts PageOptions) (*Renderer, error) {
	t, err := template.New("dashboard").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: t, opts: opts}, nil
}

// Page writes the full document.
func (r *Renderer) Page(w io.Writer, s refresh.Snapshot) error {
	return r.tmpl.ExecuteTemplate(w, "page", Page(s, r.opts))
}

// Content writes only the body fragment swapped in by live updates.
func (r *Renderer) Content(w io.Writer, s refresh.Snapshot) error {
	return r.tmpl.ExecuteTemplate(w, "content", Page(s, r.opts))
}

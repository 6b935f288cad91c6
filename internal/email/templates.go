package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	tmplConfirmation  = "confirmation.html"
	tmplPasswordReset = "password_reset.html"
)

type templateData struct {
	Name   string
	Email  string
	Link   string
	Expiry string
}

// renderer holds one parsed template set per mail kind. Each set is the
// shared layout plus the kind's content and expiry blocks.
type renderer struct {
	sets map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{sets: make(map[string]*template.Template)}
	for _, name := range []string{tmplConfirmation, tmplPasswordReset} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.sets[name] = t
	}
	return r, nil
}

func (r *renderer) render(name string, data templateData) (string, error) {
	t, ok := r.sets[name]
	if !ok {
		return "", fmt.Errorf("unknown template %s", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

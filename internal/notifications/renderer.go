package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/alexnodeland/statusbar/internal/domain"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// transitionLabels feed the title template; title-casing produces the
// user-visible phrasing ("Status Degraded", "Active Incident").
var transitionLabels = map[domain.Transition]string{
	domain.TransitionDegraded:        "status degraded",
	domain.TransitionRecovered:       "recovered",
	domain.TransitionInitialIncident: "active incident",
}

// Renderer renders notification titles and bodies from templates.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer creates a renderer and loads all templates.
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"title": titleCase,
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
	}

	r := &Renderer{templates: make(map[string]*template.Template)}

	names := []string{"title", "degraded", "recovered", "initial_incident"}
	for _, name := range names {
		filename := fmt.Sprintf("templates/%s.tmpl", name)
		content, err := templatesFS.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", filename, err)
		}
		tmpl, err := template.New(name).Funcs(funcMap).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", filename, err)
		}
		r.templates[name] = tmpl
	}

	return r, nil
}

// renderContext is the data passed to notification templates.
type renderContext struct {
	SourceName  string
	Label       string
	Description string
}

// Render produces the notification for a transition of the given source.
// Returns false for transitions that carry no user-visible effect.
func (r *Renderer) Render(source domain.Source, transition domain.Transition, description string) (Notification, bool, error) {
	label, ok := transitionLabels[transition]
	if !ok {
		return Notification{}, false, nil
	}

	data := renderContext{
		SourceName:  source.Name,
		Label:       label,
		Description: description,
	}

	title, err := r.execute("title", data)
	if err != nil {
		return Notification{}, false, err
	}

	bodyTemplate := string(transition)
	body, err := r.execute(bodyTemplate, data)
	if err != nil {
		return Notification{}, false, err
	}

	return Notification{
		Title: title,
		Body:  body,
		URL:   source.BaseURL,
	}, true, nil
}

func (r *Renderer) execute(name string, data renderContext) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown template %s", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

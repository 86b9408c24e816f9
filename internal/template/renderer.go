// Package template renders puppet.conf sections and environment.conf files.
package template

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Template names.
const (
	EnvironmentConf = "environment.conf.tmpl"
	Section         = "section.tmpl"
)

// Setting is one "key = value" line.
type Setting struct {
	Key   string
	Value string
}

// SectionData is the input of the Section template.
type SectionData struct {
	// Name is the bracketed section header, e.g. "main" or an environment name.
	Name string
	// Settings are written in order, one per line.
	Settings []Setting
	// Separated prefixes the section with a blank line.
	Separated bool
}

// Renderer renders the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("puppetenv").
		Option("missingkey=error").
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	return &Renderer{tmpl: tmpl}, nil
}

// Render executes a named template with the given data.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("executing template %q: %w", name, err)
	}

	return buf.String(), nil
}

// EnvironmentConf renders an environment.conf body. It returns "" for no settings.
func (r *Renderer) EnvironmentConf(settings []Setting) (string, error) {
	if err := checkSettings(settings); err != nil {
		return "", err
	}

	return r.Render(EnvironmentConf, settings)
}

// Section renders a bracketed puppet.conf section.
func (r *Renderer) Section(data SectionData) (string, error) {
	if strings.ContainsAny(data.Name, "[]\n") || data.Name == "" {
		return "", fmt.Errorf("invalid section name %q", data.Name)
	}

	if err := checkSettings(data.Settings); err != nil {
		return "", err
	}

	return r.Render(Section, data)
}

// checkSettings rejects values that would break the line-oriented format.
func checkSettings(settings []Setting) error {
	for _, s := range settings {
		if s.Key == "" || strings.ContainsAny(s.Key, " =\n") {
			return fmt.Errorf("invalid setting key %q", s.Key)
		}

		if strings.Contains(s.Value, "\n") {
			return fmt.Errorf("setting %s: value must not contain newlines", s.Key)
		}
	}

	return nil
}

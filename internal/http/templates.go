package http

import (
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	"time"
)

// TemplateFuncs are the helpers available to every page and fragment.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"join": strings.Join,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"date": func(t time.Time) string {
			return t.Format("2 Jan 2006")
		},
	}
}

// LoadTemplates parses every *.html file under dir.
func LoadTemplates(dir string) (*template.Template, error) {
	tmpl, err := template.New("").Funcs(TemplateFuncs()).ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("parse templates in %s: %w", dir, err)
	}
	return tmpl, nil
}

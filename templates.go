package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
)

// Page templates. Each is parsed together with layout.html.
const (
	templateHome    = "home.html"
	templateItem    = "item.html"
	templateWeek    = "week.html"
	templateArchive = "weeks.html"
	templateTags    = "tags.html"
	templateTag     = "tag.html"
	templateSearch  = "search.html"
)

// templateNewsletter is standalone, without the site layout
const templateNewsletter = "newsletter.html"

var pageTemplates = []string{
	templateHome,
	templateItem,
	templateWeek,
	templateArchive,
	templateTags,
	templateTag,
	templateSearch,
}

// Renderer executes the page templates
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page template from fsys
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageTemplates)+1)}

	for _, name := range pageTemplates {
		tmpl, err := template.New(name).ParseFS(fsys, "layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}

	tmpl, err := template.New(templateNewsletter).ParseFS(fsys, templateNewsletter)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", templateNewsletter, err)
	}
	r.pages[templateNewsletter] = tmpl

	return r, nil
}

// Render executes the named page template
func (r *Renderer) Render(name string, data PageData) ([]byte, error) {
	tmpl, ok := r.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", name)
	}

	entry := "layout"
	if name == templateNewsletter {
		entry = name
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, entry, data); err != nil {
		return nil, fmt.Errorf("executing template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

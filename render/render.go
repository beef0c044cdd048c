// Package render executes the HTML page templates.
//
// Every page is parsed into its own template set together with the shared
// layout partials, so pages can never see each other's definitions. Output is
// produced into a private buffer and handed back as a string; a failing
// template yields no partial output.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/go-logr/logr"

	"github.com/MrEthical07/cursos/flash"
)

var (
	// ErrRender wraps template execution failures.
	ErrRender = errors.New("render failed")
	// ErrTemplateNotFound is returned for names with no parsed page.
	ErrTemplateNotFound = errors.New("template not found")
)

const (
	layoutGlob = "layout/*.html"
	pageExt    = ".html"
)

//go:embed views
var views embed.FS

// DefaultFS holds the built-in page templates.
var DefaultFS fs.FS = mustSub(views, "views")

// Page is the typed context handed to every page template.
type Page[T any] struct {
	Title   string
	Flash   *flash.Message
	Logged  bool
	Content T
}

// Renderer executes named page templates.
type Renderer struct {
	pages  map[string]*template.Template
	logger logr.Logger
}

// New parses the layout partials under layout/ and every other *.html file in
// fsys as a page named by its path without extension, e.g. "cursos/formulario".
func New(fsys fs.FS, logger logr.Logger) (*Renderer, error) {
	if fsys == nil {
		return nil, errors.New("template filesystem is required")
	}

	layout, err := template.New("layout").ParseFS(fsys, layoutGlob)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template), logger: logger}
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != pageExt || strings.HasPrefix(p, "layout/") {
			return nil
		}

		base, err := layout.Clone()
		if err != nil {
			return err
		}
		page, err := base.ParseFS(fsys, p)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		name := strings.TrimSuffix(p, pageExt)
		r.pages[name] = page.Lookup(path.Base(p))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(r.pages) == 0 {
		return nil, errors.New("no page templates found")
	}

	logger.V(2).Info("Parsed page templates", "pages", r.Names())
	return r, nil
}

// Render executes the page name with data and returns the produced markup.
func (r *Renderer) Render(name string, data any) (string, error) {
	tmpl, ok := r.pages[name]
	if !ok || tmpl == nil {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		r.logger.Error(err, "Failed to render template", "template", name)
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.String(), nil
}

// Names returns the parsed page names in sorted order.
func (r *Renderer) Names() []string {
	names := make([]string, 0, len(r.pages))
	for n := range r.pages {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

package web

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"

	"github.com/MrEthical07/cursos/course"
)

type xmlCatalog struct {
	XMLName xml.Name        `xml:"cursos"`
	Courses []course.Course `xml:"curso"`
}

// XMLExport serves the catalog as <cursos><curso>...</curso></cursos>.
type XMLExport struct{ deps Deps }

// NewXMLExport builds an [XMLExport] controller.
func NewXMLExport(d Deps) Controller { return &XMLExport{deps: d} }

// Handle implements [Controller].
func (c *XMLExport) Handle(ctx context.Context, _ *Request) (*Response, error) {
	courses, err := c.deps.Courses.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	body, err := xml.Marshal(xmlCatalog{Courses: courses})
	if err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	return XML(body), nil
}

// JSONExport serves the catalog as a JSON array.
type JSONExport struct{ deps Deps }

// NewJSONExport builds a [JSONExport] controller.
func NewJSONExport(d Deps) Controller { return &JSONExport{deps: d} }

// Handle implements [Controller].
func (c *JSONExport) Handle(ctx context.Context, _ *Request) (*Response, error) {
	courses, err := c.deps.Courses.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	if courses == nil {
		courses = []course.Course{}
	}
	body, err := json.Marshal(courses)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return JSON(body), nil
}

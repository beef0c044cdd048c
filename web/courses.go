package web

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/cursos/course"
	"github.com/MrEthical07/cursos/flash"
)

const (
	msgCourseInserted = "Curso inserido com sucesso"
	msgCourseUpdated  = "Curso atualizado com sucesso"
	msgCourseRemoved  = "Curso removido com sucesso"
	msgCourseUnknown  = "Curso inexistente"
	msgCourseEmpty    = "A descrição do curso é obrigatória"
)

type listContent struct {
	Courses []course.Course
}

type formContent struct {
	Course *course.Course
}

// List renders every course.
type List struct{ deps Deps }

// NewList builds a [List] controller.
func NewList(d Deps) Controller { return &List{deps: d} }

// Handle implements [Controller].
func (c *List) Handle(ctx context.Context, req *Request) (*Response, error) {
	courses, err := c.deps.Courses.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return renderPage(c.deps, req, "cursos/listar-cursos", "Lista de Cursos", listContent{Courses: courses})
}

// NewForm renders the empty course form.
type NewForm struct{ deps Deps }

// NewNewForm builds a [NewForm] controller.
func NewNewForm(d Deps) Controller { return &NewForm{deps: d} }

// Handle implements [Controller].
func (c *NewForm) Handle(_ context.Context, req *Request) (*Response, error) {
	return renderPage(c.deps, req, "cursos/formulario", "Novo curso", formContent{})
}

// EditForm renders the course form pre-filled with the course named by ?id.
// Missing, malformed and unknown ids go back to the listing.
type EditForm struct{ deps Deps }

// NewEditForm builds an [EditForm] controller.
func NewEditForm(d Deps) Controller { return &EditForm{deps: d} }

// Handle implements [Controller].
func (c *EditForm) Handle(ctx context.Context, req *Request) (*Response, error) {
	id, ok := req.QueryInt("id")
	if !ok {
		return Redirect(PathList), nil
	}

	found, err := c.deps.Courses.Find(ctx, id)
	if errors.Is(err, course.ErrNotFound) {
		return Redirect(PathList), nil
	}
	if err != nil {
		return nil, fmt.Errorf("find course %d: %w", id, err)
	}

	title := "Alterar curso " + found.Description
	return renderPage(c.deps, req, "cursos/formulario", title, formContent{Course: found})
}

// Persist inserts a course, or updates it when ?id names one.
type Persist struct{ deps Deps }

// NewPersist builds a [Persist] controller.
func NewPersist(d Deps) Controller { return &Persist{deps: d} }

// Handle implements [Controller].
func (c *Persist) Handle(ctx context.Context, req *Request) (*Response, error) {
	id, hasID := req.QueryInt("id")
	if hasID && id <= 0 {
		return redirectWithFlash(req, flash.Danger, msgCourseUnknown, PathList), nil
	}
	description := strings.TrimSpace(req.FormValue("descricao"))

	if description == "" {
		back := PathNew
		if hasID {
			back = fmt.Sprintf("%s?id=%d", PathEdit, id)
		}
		return redirectWithFlash(req, flash.Danger, msgCourseEmpty, back), nil
	}

	record := &course.Course{Description: description}
	msg := msgCourseInserted
	if hasID {
		record.ID = id
		msg = msgCourseUpdated
	}

	err := c.deps.Courses.Save(ctx, record)
	switch {
	case errors.Is(err, course.ErrNotFound), errors.Is(err, course.ErrInvalid):
		return redirectWithFlash(req, flash.Danger, msgCourseUnknown, PathList), nil
	case err != nil:
		return nil, fmt.Errorf("save course: %w", err)
	}

	c.deps.record(EventCourseSaved)
	c.deps.Logger.V(1).Info("Saved course", "id", record.ID, "update", hasID)
	return redirectWithFlash(req, flash.Success, msg, PathList), nil
}

// Remove deletes the course named by ?id.
type Remove struct{ deps Deps }

// NewRemove builds a [Remove] controller.
func NewRemove(d Deps) Controller { return &Remove{deps: d} }

// Handle implements [Controller].
func (c *Remove) Handle(ctx context.Context, req *Request) (*Response, error) {
	id, ok := req.QueryInt("id")
	if !ok {
		return redirectWithFlash(req, flash.Danger, msgCourseUnknown, PathList), nil
	}

	err := c.deps.Courses.Remove(ctx, id)
	if errors.Is(err, course.ErrNotFound) {
		return redirectWithFlash(req, flash.Danger, msgCourseUnknown, PathList), nil
	}
	if err != nil {
		return nil, fmt.Errorf("remove course %d: %w", id, err)
	}

	c.deps.record(EventCourseRemoved)
	c.deps.Logger.V(1).Info("Removed course", "id", id)
	return redirectWithFlash(req, flash.Success, msgCourseRemoved, PathList), nil
}

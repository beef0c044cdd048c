// Package course holds the course record and its repositories.
package course

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Find and Remove for unknown identifiers.
var ErrNotFound = errors.New("course not found")

// ErrInvalid is returned when a course cannot be stored as given.
var ErrInvalid = errors.New("invalid course")

// Course is a catalog entry. ID is assigned by the repository on first save.
type Course struct {
	ID          int64  `json:"id" xml:"id"`
	Description string `json:"descricao" xml:"descricao"`
}

// Repository is the persistence collaborator used by controllers.
type Repository interface {
	FindAll(ctx context.Context) ([]Course, error)
	Find(ctx context.Context, id int64) (*Course, error)
	// Save inserts c when c.ID is zero and updates it otherwise, setting c.ID on insert.
	Save(ctx context.Context, c *Course) error
	Remove(ctx context.Context, id int64) error
}

func validate(c *Course) error {
	if c == nil || c.Description == "" || c.ID < 0 {
		return ErrInvalid
	}
	return nil
}

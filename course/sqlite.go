package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLRepository stores courses in the cursos table.
type SQLRepository struct {
	db *sql.DB
}

// NewSQLRepository wraps a migrated database handle.
func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) FindAll(ctx context.Context) ([]Course, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, descricao FROM cursos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var out []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Description); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLRepository) Find(ctx context.Context, id int64) (*Course, error) {
	var c Course
	err := r.db.QueryRowContext(ctx, `SELECT id, descricao FROM cursos WHERE id = ?`, id).Scan(&c.ID, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find course %d: %w", id, err)
	}
	return &c, nil
}

func (r *SQLRepository) Save(ctx context.Context, c *Course) error {
	if err := validate(c); err != nil {
		return err
	}

	if c.ID == 0 {
		res, err := r.db.ExecContext(ctx, `INSERT INTO cursos(descricao) VALUES (?)`, c.Description)
		if err != nil {
			return fmt.Errorf("insert course: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert course: %w", err)
		}
		c.ID = id
		return nil
	}

	res, err := r.db.ExecContext(ctx, `UPDATE cursos SET descricao = ? WHERE id = ?`, c.Description, c.ID)
	if err != nil {
		return fmt.Errorf("update course %d: %w", c.ID, err)
	}
	return requireAffected(res)
}

func (r *SQLRepository) Remove(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cursos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove course %d: %w", id, err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

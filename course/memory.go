package course

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-process [Repository].
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]Course
	calls  int
}

// NewMemoryRepository returns a repository seeded with courses. Seeded IDs are kept;
// zero IDs are assigned.
func NewMemoryRepository(seed ...Course) *MemoryRepository {
	r := &MemoryRepository{byID: make(map[int64]Course)}
	for _, c := range seed {
		if c.ID == 0 {
			c.ID = r.nextID + 1
		}
		if c.ID > r.nextID {
			r.nextID = c.ID
		}
		r.byID[c.ID] = c
	}
	return r
}

func (r *MemoryRepository) FindAll(_ context.Context) ([]Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++

	out := make([]Course, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) Find(_ context.Context, id int64) (*Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++

	c, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r *MemoryRepository) Save(_ context.Context, c *Course) error {
	if err := validate(c); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++

	if c.ID == 0 {
		r.nextID++
		c.ID = r.nextID
	} else if _, ok := r.byID[c.ID]; !ok {
		return ErrNotFound
	}
	r.byID[c.ID] = *c
	return nil
}

func (r *MemoryRepository) Remove(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++

	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// Calls returns the number of repository operations served so far.
func (r *MemoryRepository) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

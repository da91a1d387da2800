package repository

import (
	"context"
	"sync"

	"github.com/mpalmer79/dealdesk/model"
)

// MemoryRepository is the default in-memory implementation. It stores and
// returns deep copies so callers never alias the repository's records.
type MemoryRepository struct {
	mu         sync.RWMutex
	worksheets map[string]*model.Worksheet
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		worksheets: make(map[string]*model.Worksheet),
	}
}

func (r *MemoryRepository) Save(ctx context.Context, w *model.Worksheet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.worksheets[w.ID] = w.Clone()
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*model.Worksheet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.worksheets[id]
	if !ok {
		return nil, nil
	}
	return w.Clone(), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.worksheets, id)
	return nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]*model.Worksheet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*model.Worksheet, 0, len(r.worksheets))
	for _, w := range r.worksheets {
		result = append(result, w.Clone())
	}
	return result, nil
}

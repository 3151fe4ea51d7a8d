package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/Seenusharmma/POS-FF/internal/apperr"
)

// MemRepo keeps foods in process memory (STORE_DRIVER=memory).
type MemRepo struct {
	mu    sync.RWMutex
	seq   int64
	foods map[string]memFood
}

type memFood struct {
	food Food
	seq  int64
}

func NewMemRepo() *MemRepo {
	return &MemRepo{foods: make(map[string]memFood)}
}

func (r *MemRepo) List(ctx context.Context) ([]Food, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := make([]memFood, 0, len(r.foods))
	for _, mf := range r.foods {
		rows = append(rows, mf)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].food.CreatedAt.Equal(rows[j].food.CreatedAt) {
			return rows[i].food.CreatedAt.After(rows[j].food.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	out := make([]Food, 0, len(rows))
	for _, mf := range rows {
		out = append(out, mf.food.clone())
	}
	return out, nil
}

func (r *MemRepo) Get(ctx context.Context, id string) (Food, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mf, ok := r.foods[id]
	if !ok {
		return Food{}, apperr.ErrNotFound
	}
	return mf.food.clone(), nil
}

func (r *MemRepo) Insert(ctx context.Context, f Food) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.foods[f.ID] = memFood{food: f.clone(), seq: r.seq}
	return nil
}

func (r *MemRepo) Update(ctx context.Context, f Food) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	mf, ok := r.foods[f.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	f.CreatedAt = mf.food.CreatedAt
	mf.food = f.clone()
	r.foods[f.ID] = mf
	return nil
}

func (r *MemRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.foods[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.foods, id)
	return nil
}

package orders

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Seenusharmma/POS-FF/internal/apperr"
)

// MemRepo keeps orders in process memory (STORE_DRIVER=memory).
type MemRepo struct {
	mu     sync.RWMutex
	seq    int64
	orders map[string]memOrder
}

type memOrder struct {
	order Order
	seq   int64
}

func NewMemRepo() *MemRepo {
	return &MemRepo{orders: make(map[string]memOrder)}
}

func (r *MemRepo) List(ctx context.Context) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := make([]memOrder, 0, len(r.orders))
	for _, mo := range r.orders {
		rows = append(rows, mo)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].order.CreatedAt.Equal(rows[j].order.CreatedAt) {
			return rows[i].order.CreatedAt.After(rows[j].order.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	out := make([]Order, 0, len(rows))
	for _, mo := range rows {
		out = append(out, mo.order)
	}
	return out, nil
}

func (r *MemRepo) InsertMany(ctx context.Context, orders []Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range orders {
		r.seq++
		r.orders[o.ID] = memOrder{order: o, seq: r.seq}
	}
	return nil
}

func (r *MemRepo) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mo, ok := r.orders[id]
	if !ok {
		return Order{}, apperr.ErrNotFound
	}
	mo.order.Status = status
	mo.order.UpdatedAt = at
	r.orders[id] = mo
	return mo.order, nil
}

func (r *MemRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

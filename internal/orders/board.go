package orders

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Board is a local copy of the order list kept current from bus events.
// Applying the same event twice leaves it unchanged, and an update older
// than what the board already holds is ignored. Deleted ids are remembered,
// so a placement delivered after its deletion does not bring the order
// back. The store stays the source of truth; call Reset with a fresh
// listing when in doubt.
type Board struct {
	tables int

	mu      sync.RWMutex
	orders  map[string]Order
	deleted map[string]struct{}
}

func NewBoard(tables int) *Board {
	return &Board{tables: tables, orders: make(map[string]Order), deleted: make(map[string]struct{})}
}

// Reset replaces the board contents with a listing from the store.
func (b *Board) Reset(list []Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders = make(map[string]Order, len(list))
	b.deleted = make(map[string]struct{})
	for _, o := range list {
		b.orders[o.ID] = o
	}
}

// Apply folds one event into the board. It reports whether the board
// changed; events for other entities are ignored.
func (b *Board) Apply(name string, data json.RawMessage) (bool, error) {
	switch name {
	case EventOrderPlaced, EventOrderStatusChanged:
		var o Order
		if err := json.Unmarshal(data, &o); err != nil {
			return false, errors.Wrapf(err, "decode %s", name)
		}
		if o.ID == "" {
			return false, errors.Errorf("%s without order id", name)
		}
		return b.upsert(o), nil
	case EventOrderDeleted:
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return false, errors.Wrapf(err, "decode %s", name)
		}
		return b.remove(id), nil
	default:
		return false, nil
	}
}

func (b *Board) upsert(o Order) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, gone := b.deleted[o.ID]; gone {
		return false
	}
	cur, ok := b.orders[o.ID]
	if ok && (o.UpdatedAt.Before(cur.UpdatedAt) || sameOrder(cur, o)) {
		return false
	}
	b.orders[o.ID] = o
	return true
}

func sameOrder(a, b Order) bool {
	a.CreatedAt, a.UpdatedAt = a.CreatedAt.UTC(), a.UpdatedAt.UTC()
	b.CreatedAt, b.UpdatedAt = b.CreatedAt.UTC(), b.UpdatedAt.UTC()
	return a.CreatedAt.Equal(b.CreatedAt) && a.UpdatedAt.Equal(b.UpdatedAt) &&
		a.ID == b.ID && a.TableNumber == b.TableNumber && a.FoodName == b.FoodName &&
		a.Category == b.Category && a.Type == b.Type && a.Quantity == b.Quantity &&
		a.Price == b.Price && a.Status == b.Status && a.UserEmail == b.UserEmail
}

func (b *Board) remove(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted[id] = struct{}{}
	if _, ok := b.orders[id]; !ok {
		return false
	}
	delete(b.orders, id)
	return true
}

// Orders returns the board newest first.
func (b *Board) Orders() []Order {
	b.mu.RLock()
	out := make([]Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, o)
	}
	b.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (b *Board) Availability() Availability {
	return ComputeAvailability(b.tables, b.Orders())
}

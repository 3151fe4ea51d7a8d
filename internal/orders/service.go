package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Seenusharmma/POS-FF/internal/apperr"
	"github.com/Seenusharmma/POS-FF/internal/validation"
)

// Publisher is the notification bus as seen by the order service.
type Publisher interface {
	Publish(name string, payload any)
}

type Options struct {
	// StrictStatus rejects statuses outside the known set. Transitions are
	// never checked either way.
	StrictStatus bool
}

type Service struct {
	repo   Repository
	events Publisher
	log    *zap.Logger
	opts   Options
	now    func() time.Time
}

func NewService(repo Repository, events Publisher, log *zap.Logger, opts Options) *Service {
	return &Service{
		repo:   repo,
		events: events,
		log:    log.Named("orders"),
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// List returns every order, newest first. Filtering by user or table is
// left to the caller.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Storage(err, "Failed to fetch orders")
	}
	return orders, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Order, error) {
	created, err := s.create(ctx, []CreateInput{in}, -1)
	if err != nil {
		return Order{}, err
	}
	return created[0], nil
}

// CreateMany stores the whole batch or nothing. Every input is validated
// before anything is written.
func (s *Service) CreateMany(ctx context.Context, in []CreateInput) ([]Order, error) {
	if len(in) == 0 {
		return nil, apperr.Validation("at least one order is required")
	}
	return s.create(ctx, in, 0)
}

func (s *Service) create(ctx context.Context, in []CreateInput, firstIndex int) ([]Order, error) {
	now := s.now()
	batch := make([]Order, 0, len(in))
	for i, item := range in {
		index := -1
		if firstIndex >= 0 {
			index = firstIndex + i
		}
		item.FoodName = strings.TrimSpace(item.FoodName)
		item.UserEmail = strings.TrimSpace(item.UserEmail)
		if err := validation.Struct(item, index); err != nil {
			return nil, err
		}
		status, err := s.initialStatus(item.Status)
		if err != nil {
			if index >= 0 {
				return nil, apperr.Validationf("item %d: %s", index, apperr.Message(err))
			}
			return nil, err
		}
		batch = append(batch, Order{
			ID:          uuid.NewString(),
			TableNumber: item.TableNumber,
			FoodName:    item.FoodName,
			Category:    item.Category,
			Type:        item.Type,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Status:      status,
			UserEmail:   item.UserEmail,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	if err := s.repo.InsertMany(ctx, batch); err != nil {
		return nil, apperr.Storage(err, "Failed to create order")
	}

	for _, o := range batch {
		s.log.Info("order placed",
			zap.String("id", o.ID),
			zap.Int("table", o.TableNumber),
			zap.String("food", o.FoodName),
			zap.Int("quantity", o.Quantity))
		s.events.Publish(EventOrderPlaced, o)
	}
	return batch, nil
}

func (s *Service) initialStatus(raw string) (Status, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return StatusPending, nil
	}
	return s.checkStatus(Status(raw))
}

func (s *Service) checkStatus(st Status) (Status, error) {
	if st.IsKnown() {
		return st, nil
	}
	if s.opts.StrictStatus {
		return "", apperr.Validationf("unknown status %q", string(st))
	}
	s.log.Warn("order status outside the known set", zap.String("status", string(st)))
	return st, nil
}

// UpdateStatus replaces the status regardless of the current one.
func (s *Service) UpdateStatus(ctx context.Context, id string, in StatusInput) (Order, error) {
	in.Status = strings.TrimSpace(in.Status)
	if err := validation.Struct(in, -1); err != nil {
		return Order{}, err
	}
	status, err := s.checkStatus(Status(in.Status))
	if err != nil {
		return Order{}, err
	}

	o, err := s.repo.UpdateStatus(ctx, id, status, s.now())
	if err != nil {
		return Order{}, lookupErr(err)
	}

	s.log.Info("order status changed", zap.String("id", id), zap.String("status", string(status)))
	s.events.Publish(EventOrderStatusChanged, o)
	return o, nil
}

// Delete removes the order whatever its status. Only deleting completed
// orders is a dashboard rule, not one the store enforces.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupErr(err)
	}
	s.log.Info("order deleted", zap.String("id", id))
	s.events.Publish(EventOrderDeleted, id)
	return nil
}

func lookupErr(err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.NotFound("Order not found")
	}
	return apperr.Storage(err, "Order lookup failed")
}

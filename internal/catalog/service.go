package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Seenusharmma/POS-FF/internal/apperr"
	"github.com/Seenusharmma/POS-FF/internal/validation"
)

// Publisher is the notification bus as seen by the catalog.
type Publisher interface {
	Publish(name string, payload any)
}

// ImageStore is the external blob host.
type ImageStore interface {
	Upload(ctx context.Context, u Upload) (Image, error)
	Destroy(ctx context.Context, publicID string) error
}

// Service owns catalog mutations. Blob host calls and database writes are
// not transactional; each step is awaited before the next one starts.
type Service struct {
	repo   Repository
	images ImageStore
	events Publisher
	log    *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, images ImageStore, events Publisher, log *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		images: images,
		events: events,
		log:    log.Named("catalog"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// List returns every food, newest first.
func (s *Service) List(ctx context.Context) ([]Food, error) {
	foods, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Storage(err, "Failed to fetch foods")
	}
	return foods, nil
}

// Create stores a new food, uploading img first when given.
func (s *Service) Create(ctx context.Context, in CreateInput, img *Upload) (Food, error) {
	in.trim()
	if err := validation.Struct(in, -1); err != nil {
		return Food{}, err
	}

	now := s.now()
	food := Food{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Category:  in.Category,
		Type:      in.Type,
		Price:     *in.Price,
		Available: in.Available == nil || *in.Available,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if img != nil {
		uploaded, err := s.images.Upload(ctx, *img)
		if err != nil {
			return Food{}, apperr.Upstream(err)
		}
		food.Image = &uploaded
	}

	if err := s.repo.Insert(ctx, food); err != nil {
		if food.Image != nil {
			s.discard(ctx, food.Image.PublicID)
		}
		return Food{}, apperr.Storage(err, "Failed to add food")
	}

	s.log.Info("food added", zap.String("id", food.ID), zap.String("name", food.Name))
	s.events.Publish(EventFoodAdded, food)
	return food, nil
}

// Update applies the non-nil fields of in. A new image replaces the old
// one: the old asset is destroyed before the new one is uploaded.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput, img *Upload) (Food, error) {
	in.trim()
	if err := validation.Struct(in, -1); err != nil {
		return Food{}, err
	}

	food, err := s.repo.Get(ctx, id)
	if err != nil {
		return Food{}, s.lookupErr(err)
	}

	if in.Name != nil {
		food.Name = *in.Name
	}
	if in.Category != nil {
		food.Category = *in.Category
	}
	if in.Type != nil {
		food.Type = *in.Type
	}
	if in.Price != nil {
		food.Price = *in.Price
	}
	if in.Available != nil {
		food.Available = *in.Available
	}

	if img != nil {
		if food.Image != nil && food.Image.PublicID != "" {
			if err := s.images.Destroy(ctx, food.Image.PublicID); err != nil {
				return Food{}, apperr.Upstream(err)
			}
		}
		uploaded, err := s.images.Upload(ctx, *img)
		if err != nil {
			return Food{}, apperr.Upstream(err)
		}
		food.Image = &uploaded
	}

	food.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, food); err != nil {
		return Food{}, s.lookupErr(err)
	}

	s.log.Info("food updated", zap.String("id", food.ID))
	s.events.Publish(EventFoodUpdated, food)
	return food, nil
}

// Delete removes the hosted image (if any) and then the record.
func (s *Service) Delete(ctx context.Context, id string) error {
	food, err := s.repo.Get(ctx, id)
	if err != nil {
		return s.lookupErr(err)
	}

	if food.Image != nil && food.Image.PublicID != "" {
		if err := s.images.Destroy(ctx, food.Image.PublicID); err != nil {
			return apperr.Upstream(err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.lookupErr(err)
	}

	s.log.Info("food deleted", zap.String("id", id))
	s.events.Publish(EventFoodDeleted, id)
	return nil
}

func (s *Service) lookupErr(err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.NotFound("Food not found")
	}
	return apperr.Storage(err, "Food lookup failed")
}

// discard removes an asset whose record never made it to the database.
func (s *Service) discard(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := s.images.Destroy(ctx, publicID); err != nil {
		s.log.Warn("orphaned image left on host", zap.String("public_id", publicID), zap.Error(err))
	}
}

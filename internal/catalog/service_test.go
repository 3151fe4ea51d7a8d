package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Seenusharmma/POS-FF/internal/apperr"
	"github.com/Seenusharmma/POS-FF/internal/realtime"
)

type fakeImages struct {
	mu         sync.Mutex
	n          int
	calls      []string
	uploadErr  error
	destroyErr error
}

func (f *fakeImages) Upload(ctx context.Context, u Upload) (Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return Image{}, f.uploadErr
	}
	body, _ := io.ReadAll(u.Body)
	f.n++
	id := fmt.Sprintf("foods/img%d", f.n)
	f.calls = append(f.calls, "upload:"+id+":"+string(body))
	return Image{URL: "https://res.example.com/" + id + ".jpg", PublicID: id}, nil
}

func (f *fakeImages) Destroy(ctx context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyErr != nil {
		return f.destroyErr
	}
	f.calls = append(f.calls, "destroy:"+publicID)
	return nil
}

type eventLog struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (l *eventLog) handle(ev realtime.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) named(name string) []realtime.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []realtime.Event
	for _, ev := range l.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

type failingRepo struct {
	*MemRepo
	err error
}

func (r failingRepo) Insert(ctx context.Context, f Food) error { return r.err }
func (r failingRepo) List(ctx context.Context) ([]Food, error) { return nil, r.err }

func newTestService(t *testing.T) (*Service, *MemRepo, *fakeImages, *realtime.Bus) {
	t.Helper()
	repo := NewMemRepo()
	images := &fakeImages{}
	bus := realtime.NewBus(zap.NewNop())
	return NewService(repo, images, bus, zap.NewNop()), repo, images, bus
}

func price(p float64) *float64 { return &p }
func text(s string) *string    { return &s }
func flag(b bool) *bool        { return &b }

func upload(body string) *Upload {
	return &Upload{Filename: "dish.jpg", Body: strings.NewReader(body)}
}

func TestCreateDefaultsAndEvent(t *testing.T) {
	svc, _, _, bus := newTestService(t)
	log := &eventLog{}
	bus.Subscribe(EventFoodAdded, log.handle)

	food, err := svc.Create(context.Background(), CreateInput{Name: "Paneer Tikka", Type: "Veg", Price: price(220)}, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, food.ID)
	assert.True(t, food.Available)
	assert.Nil(t, food.Image)
	assert.False(t, food.CreatedAt.IsZero())

	added := log.named(EventFoodAdded)
	require.Len(t, added, 1)
	assert.Equal(t, food.ID, realtime.EntityID(added[0].Data))
}

func TestCreateLateSubscriberSeesNothing(t *testing.T) {
	svc, _, _, bus := newTestService(t)
	_, err := svc.Create(context.Background(), CreateInput{Name: "Dal", Price: price(90)}, nil)
	require.NoError(t, err)

	log := &eventLog{}
	bus.Subscribe(realtime.AllEvents, log.handle)
	assert.Empty(t, log.named(EventFoodAdded))
}

func TestCreateAvailabilityFromForm(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	tests := []struct {
		available string
		want      bool
	}{
		{"", true},
		{"false", false},
		{"true", true},
		{"FALSE", false},
	}
	for _, tt := range tests {
		t.Run("available="+tt.available, func(t *testing.T) {
			form := url.Values{"name": {"Lassi"}, "price": {"60"}}
			if tt.available != "" {
				form.Set("available", tt.available)
			}
			in, err := CreateInputFromForm(form)
			require.NoError(t, err)

			food, err := svc.Create(context.Background(), in, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, food.Available)
		})
	}
}

func TestCreateValidation(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	_, err := CreateInputFromForm(url.Values{"name": {"Naan"}, "price": {"abc"}})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	for name, in := range map[string]CreateInput{
		"missing name":   {Price: price(10)},
		"blank name":     {Name: "   ", Price: price(10)},
		"missing price":  {Name: "Naan"},
		"negative price": {Name: "Naan", Price: price(-1)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), in, nil)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}

	foods, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, foods)
}

func TestCreateWithImage(t *testing.T) {
	svc, _, images, _ := newTestService(t)

	food, err := svc.Create(context.Background(), CreateInput{Name: "Biryani", Price: price(300)}, upload("jpeg-bytes"))
	require.NoError(t, err)
	require.NotNil(t, food.Image)
	assert.Equal(t, "foods/img1", food.Image.PublicID)
	assert.Equal(t, []string{"upload:foods/img1:jpeg-bytes"}, images.calls)
}

func TestCreateUploadFailure(t *testing.T) {
	svc, repo, images, bus := newTestService(t)
	images.uploadErr = errors.New("host down")
	log := &eventLog{}
	bus.Subscribe(realtime.AllEvents, log.handle)

	_, err := svc.Create(context.Background(), CreateInput{Name: "Biryani", Price: price(300)}, upload("x"))
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))

	foods, _ := repo.List(context.Background())
	assert.Empty(t, foods)
	assert.Empty(t, log.events)
}

func TestCreateStorageFailureDiscardsUpload(t *testing.T) {
	images := &fakeImages{}
	repo := failingRepo{MemRepo: NewMemRepo(), err: errors.New("db gone")}
	svc := NewService(repo, images, realtime.NewBus(zap.NewNop()), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateInput{Name: "Kulfi", Price: price(80)}, upload("x"))
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
	assert.Equal(t, []string{"upload:foods/img1:x", "destroy:foods/img1"}, images.calls)

	_, err = svc.List(context.Background())
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
}

func TestListNewestFirst(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	for _, name := range []string{"first", "second", "third"} {
		_, err := svc.Create(context.Background(), CreateInput{Name: name, Price: price(1)}, nil)
		require.NoError(t, err)
	}

	foods, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, foods, 3)
	assert.Equal(t, "third", foods[0].Name)
	assert.Equal(t, "first", foods[2].Name)
}

func TestUpdateEmptyPatchKeepsRecord(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	orig, err := svc.Create(context.Background(), CreateInput{Name: "Momo", Category: "Starter", Type: "Veg", Price: price(120)}, upload("x"))
	require.NoError(t, err)

	got, err := svc.Update(context.Background(), orig.ID, UpdateInput{}, nil)
	require.NoError(t, err)

	assert.Equal(t, orig.Name, got.Name)
	assert.Equal(t, orig.Category, got.Category)
	assert.Equal(t, orig.Type, got.Type)
	assert.Equal(t, orig.Price, got.Price)
	assert.Equal(t, orig.Available, got.Available)
	assert.Equal(t, orig.Image, got.Image)
	assert.Equal(t, orig.CreatedAt, got.CreatedAt)
}

func TestUpdateWithoutImagePreservesImage(t *testing.T) {
	svc, repo, images, _ := newTestService(t)
	orig, err := svc.Create(context.Background(), CreateInput{Name: "Momo", Price: price(120)}, upload("x"))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), orig.ID, UpdateInput{Price: price(150), Available: flag(false)}, nil)
	require.NoError(t, err)

	stored, err := repo.Get(context.Background(), orig.ID)
	require.NoError(t, err)
	assert.Equal(t, orig.Image, stored.Image)
	assert.Equal(t, 150.0, stored.Price)
	assert.False(t, stored.Available)
	assert.Len(t, images.calls, 1)
}

func TestUpdateReplacesImage(t *testing.T) {
	svc, _, images, bus := newTestService(t)
	orig, err := svc.Create(context.Background(), CreateInput{Name: "Momo", Price: price(120)}, upload("old"))
	require.NoError(t, err)
	log := &eventLog{}
	bus.Subscribe(EventFoodUpdated, log.handle)

	got, err := svc.Update(context.Background(), orig.ID, UpdateInput{Name: text("Steamed Momo")}, upload("new"))
	require.NoError(t, err)

	assert.Equal(t, "Steamed Momo", got.Name)
	assert.Equal(t, "foods/img2", got.Image.PublicID)
	assert.Equal(t, []string{"upload:foods/img1:old", "destroy:foods/img1", "upload:foods/img2:new"}, images.calls)

	updated := log.named(EventFoodUpdated)
	require.Len(t, updated, 1)
	var payload Food
	require.NoError(t, json.Unmarshal(updated[0].Data, &payload))
	assert.Equal(t, "Steamed Momo", payload.Name)
}

func TestUpdateUnknownID(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.Update(context.Background(), "missing", UpdateInput{Name: text("x")}, nil)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "Food not found", apperr.Message(err))
}

func TestDeleteCascadesImage(t *testing.T) {
	svc, _, images, bus := newTestService(t)
	food, err := svc.Create(context.Background(), CreateInput{Name: "Soup", Price: price(70)}, upload("x"))
	require.NoError(t, err)
	log := &eventLog{}
	bus.Subscribe(EventFoodDeleted, log.handle)

	require.NoError(t, svc.Delete(context.Background(), food.ID))

	foods, err := svc.List(context.Background())
	require.NoError(t, err)
	for _, f := range foods {
		assert.NotEqual(t, food.ID, f.ID)
	}
	assert.Contains(t, images.calls, "destroy:"+food.Image.PublicID)

	deleted := log.named(EventFoodDeleted)
	require.Len(t, deleted, 1)
	assert.JSONEq(t, `"`+food.ID+`"`, string(deleted[0].Data))

	err = svc.Delete(context.Background(), food.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteKeepsRecordWhenHostFails(t *testing.T) {
	svc, repo, images, _ := newTestService(t)
	food, err := svc.Create(context.Background(), CreateInput{Name: "Soup", Price: price(70)}, upload("x"))
	require.NoError(t, err)
	images.destroyErr = errors.New("host down")

	err = svc.Delete(context.Background(), food.ID)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))

	_, err = repo.Get(context.Background(), food.ID)
	assert.NoError(t, err)
}

func TestUpdateInputFromForm(t *testing.T) {
	in, err := UpdateInputFromForm(url.Values{"name": {""}, "category": {"Main"}, "price": {"12.5"}, "available": {"false"}})
	require.NoError(t, err)
	assert.Nil(t, in.Name)
	assert.Equal(t, "Main", *in.Category)
	assert.Equal(t, 12.5, *in.Price)
	assert.False(t, *in.Available)

	_, err = UpdateInputFromForm(url.Values{"available": {"maybe"}})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestJSONInputIsTrimmed(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	food, err := svc.Create(context.Background(), CreateInput{Name: "  Dal Makhani ", Category: " Main", Price: price(180)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Dal Makhani", food.Name)
	assert.Equal(t, "Main", food.Category)

	_, err = svc.Update(context.Background(), food.ID, UpdateInput{Name: text("  ")}, nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	got, err := svc.Update(context.Background(), food.ID, UpdateInput{Type: text(" Veg ")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Dal Makhani", got.Name)
	assert.Equal(t, "Veg", got.Type)
}

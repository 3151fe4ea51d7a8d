package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seenusharmma/POS-FF/internal/apperr"
	"github.com/Seenusharmma/POS-FF/internal/catalog"
	"github.com/Seenusharmma/POS-FF/internal/orders"
	"github.com/Seenusharmma/POS-FF/internal/postgres"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))
	require.NoError(t, postgres.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE foods, orders`)
	require.NoError(t, err)
	return pool
}

func TestFoodRepo(t *testing.T) {
	repo := &catalog.PGRepo{DB: testPool(t)}
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	plain := catalog.Food{ID: uuid.NewString(), Name: "Dal", Price: 120, Available: true, CreatedAt: now, UpdatedAt: now}
	withImg := catalog.Food{ID: uuid.NewString(), Name: "Pizza", Price: 400, Available: true,
		Image: &catalog.Image{URL: "https://res.example.com/p.jpg", PublicID: "foods/p"}, CreatedAt: now.Add(time.Second), UpdatedAt: now}
	require.NoError(t, repo.Insert(ctx, plain))
	require.NoError(t, repo.Insert(ctx, withImg))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, withImg.ID, list[0].ID)
	assert.Equal(t, withImg.Image, list[0].Image)
	assert.Nil(t, list[1].Image)

	plain.Name = "Dal Makhani"
	require.NoError(t, repo.Update(ctx, plain))
	got, err := repo.Get(ctx, plain.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dal Makhani", got.Name)

	require.NoError(t, repo.Delete(ctx, plain.ID))
	_, err = repo.Get(ctx, plain.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, plain.ID), apperr.ErrNotFound)
}

func TestOrderRepo(t *testing.T) {
	repo := &orders.PGRepo{DB: testPool(t)}
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	batch := []orders.Order{
		{ID: uuid.NewString(), TableNumber: 7, FoodName: "Pizza", Quantity: 2, Price: 400, Status: orders.StatusPending, UserEmail: "a@x.com", CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), TableNumber: 7, FoodName: "Cola", Quantity: 1, Price: 60, Status: orders.StatusPending, UserEmail: "a@x.com", CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, repo.InsertMany(ctx, batch))

	// a duplicate id fails the whole batch
	dup := []orders.Order{batch[0], {ID: uuid.NewString(), TableNumber: 1, FoodName: "Tea", Quantity: 1, Status: orders.StatusPending, UserEmail: "b@x.com", CreatedAt: now, UpdatedAt: now}}
	assert.Error(t, repo.InsertMany(ctx, dup))

	// same created_at: the later insert lists first
	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{batch[1].ID, batch[0].ID}, []string{list[0].ID, list[1].ID})

	updated, err := repo.UpdateStatus(ctx, batch[0].ID, orders.StatusCooking, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCooking, updated.Status)
	assert.Equal(t, 400.0, updated.Price)

	_, err = repo.UpdateStatus(ctx, uuid.NewString(), orders.StatusReady, now)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, batch[1].ID))
	assert.ErrorIs(t, repo.Delete(ctx, batch[1].ID), apperr.ErrNotFound)
}

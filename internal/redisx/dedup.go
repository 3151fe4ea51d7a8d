package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Dedup remembers processed event ids per consumer.
type Dedup struct {
	rdb      redis.Cmdable
	consumer string
	ttl      time.Duration
}

func NewDedup(rdb redis.Cmdable, consumer string) *Dedup {
	return &Dedup{rdb: rdb, consumer: consumer, ttl: TTLDedup}
}

func (d *Dedup) key(id string) string { return fmt.Sprintf(KeyDedup, d.consumer, id) }

func (d *Dedup) Seen(ctx context.Context, id string) (bool, error) {
	ok, err := Exists(ctx, d.rdb, d.key(id))
	return ok, errors.Wrap(err, "dedup check")
}

// Mark records id as processed. It reports false if id was already marked.
func (d *Dedup) Mark(ctx context.Context, id string) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, d.key(id), 1, d.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "dedup mark")
	}
	return ok, nil
}

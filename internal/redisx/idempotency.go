package redisx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Response is a created response replayed for a repeated Idempotency-Key.
type Response struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type IdempotencyStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewIdempotencyStore(rdb redis.Cmdable) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: TTLIdempotency}
}

// Get reports ok=false when nothing is stored for key.
func (s *IdempotencyStore) Get(ctx context.Context, scope, key string) (Response, bool, error) {
	raw, err := s.rdb.Get(ctx, fmt.Sprintf(KeyIdemOrderCreate, scope, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Response{}, false, nil
	}
	if err != nil {
		return Response{}, false, errors.Wrap(err, "idempotency get")
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, false, errors.Wrap(err, "idempotency decode")
	}
	return resp, true, nil
}

// Save keeps the first response stored for key; later saves are ignored.
func (s *IdempotencyStore) Save(ctx context.Context, scope, key string, resp Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return errors.Wrap(err, "idempotency encode")
	}
	if err := s.rdb.SetNX(ctx, fmt.Sprintf(KeyIdemOrderCreate, scope, key), raw, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "idempotency save")
	}
	return nil
}

package redisx

import "time"

const (
	// idem:order:{route}:{Idempotency-Key} -> cached created response
	KeyIdemOrderCreate = "idem:order:%s:%s"

	// dedup:{consumer}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)

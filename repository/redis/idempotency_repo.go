package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/users-api/repository"
)

const (
	statePending = "pending"
	stateDone    = "done"

	// pendingTTL bounds how long a crashed request can hold a key.
	pendingTTL = 2 * time.Minute
)

type idempotencyRecord struct {
	State    string                     `json:"state"`
	Response *repository.StoredResponse `json:"response,omitempty"`
}

type idempotencyRepository struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewIdempotencyRepository creates a Redis-backed idempotency key store.
func NewIdempotencyRepository(client *redislib.Client, ttl time.Duration) repository.IdempotencyRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &idempotencyRepository{
		client: client,
		prefix: "idempotency:",
		ttl:    ttl,
	}
}

func (r *idempotencyRepository) Reserve(ctx context.Context, key string) (*repository.StoredResponse, error) {
	pending, err := json.Marshal(idempotencyRecord{State: statePending})
	if err != nil {
		return nil, err
	}

	claimed, err := r.client.SetNX(ctx, r.key(key), pending, pendingTTL).Result()
	if err != nil {
		return nil, err
	}
	if claimed {
		return nil, nil
	}

	result, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			// expired between SETNX and GET; the caller may retry
			return nil, repository.ErrIdempotencyInFlight
		}
		return nil, err
	}

	var record idempotencyRecord
	if err := json.Unmarshal([]byte(result), &record); err != nil {
		return nil, err
	}
	if record.State != stateDone || record.Response == nil {
		return nil, repository.ErrIdempotencyInFlight
	}
	return record.Response, nil
}

func (r *idempotencyRepository) Complete(ctx context.Context, key string, resp repository.StoredResponse) error {
	payload, err := json.Marshal(idempotencyRecord{State: stateDone, Response: &resp})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(key), payload, r.ttl).Err()
}

func (r *idempotencyRepository) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *idempotencyRepository) key(id string) string {
	return fmt.Sprintf("%s%s", r.prefix, id)
}

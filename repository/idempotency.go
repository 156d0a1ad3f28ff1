package repository

import (
	"context"
	"errors"
)

// ErrIdempotencyInFlight is returned when a request with the same key is still being processed.
var ErrIdempotencyInFlight = errors.New("idempotent request already in progress")

// StoredResponse is the replayable result of an idempotent request.
type StoredResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyRepository reserves keys and remembers the response produced for them.
type IdempotencyRepository interface {
	// Reserve claims key. It returns the stored response when the key already completed,
	// ErrIdempotencyInFlight when another request holds it, or (nil, nil) when claimed.
	Reserve(ctx context.Context, key string) (*StoredResponse, error)
	Complete(ctx context.Context, key string, resp StoredResponse) error
	Release(ctx context.Context, key string) error
}

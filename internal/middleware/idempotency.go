package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/users-api/api/handler"
	"github.com/fastygo/users-api/repository"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"

	maxIdempotencyKeyLen = 255
	idempotencyOpTimeout = 2 * time.Second
)

// Idempotency replays the stored response for a repeated Idempotency-Key.
// Only 2xx responses are remembered; a failed or panicking attempt frees the key for a retry.
// Store failures fall through to the handler.
func Idempotency(store repository.IdempotencyRepository, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		if store == nil {
			return next
		}
		return func(ctx *fasthttp.RequestCtx) {
			header := string(ctx.Request.Header.Peek(HeaderIdempotencyKey))
			if header == "" {
				next(ctx)
				return
			}
			if len(header) > maxIdempotencyKeyLen {
				apiHandler.WriteError(ctx, fasthttp.StatusUnprocessableEntity, "Idempotency-Key is too long")
				return
			}
			key := string(ctx.Method()) + " " + string(ctx.Path()) + " " + header

			reserveCtx, cancel := context.WithTimeout(context.Background(), idempotencyOpTimeout)
			stored, err := store.Reserve(reserveCtx, key)
			cancel()
			switch {
			case errors.Is(err, repository.ErrIdempotencyInFlight):
				ctx.Response.Header.Set(fasthttp.HeaderRetryAfter, "1")
				apiHandler.WriteError(ctx, fasthttp.StatusConflict, "a request with this Idempotency-Key is still in progress")
				return
			case err != nil:
				logger.Warn("idempotency store unavailable", zap.Error(err))
				next(ctx)
				return
			case stored != nil:
				ctx.Response.Header.Set(HeaderReplayed, "true")
				ctx.Response.Header.SetContentType(stored.ContentType)
				ctx.SetStatusCode(stored.StatusCode)
				ctx.SetBody(stored.Body)
				return
			}

			completed := false
			defer func() {
				if completed {
					return
				}
				opCtx, cancel := context.WithTimeout(context.Background(), idempotencyOpTimeout)
				defer cancel()
				if err := store.Release(opCtx, key); err != nil {
					logger.Warn("failed to release idempotency key", zap.Error(err))
				}
			}()

			next(ctx)

			status := ctx.Response.StatusCode()
			if status < 200 || status >= 300 {
				return
			}
			opCtx, cancel := context.WithTimeout(context.Background(), idempotencyOpTimeout)
			defer cancel()
			resp := repository.StoredResponse{
				StatusCode:  status,
				ContentType: string(ctx.Response.Header.ContentType()),
				Body:        append([]byte(nil), ctx.Response.Body()...),
			}
			if err := store.Complete(opCtx, key, resp); err != nil {
				logger.Warn("failed to store idempotent response", zap.Error(err))
				return
			}
			completed = true
		}
	}
}

package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/users-api/api/transport"
	"github.com/fastygo/users-api/repository"
	redisRepo "github.com/fastygo/users-api/repository/redis"
)

func newIdempotencyStore(t *testing.T) repository.IdempotencyRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisRepo.NewIdempotencyRepository(client, 0)
}

func newRequest(method, path, key string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(path)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	return ctx
}

func TestIdempotencyReleasesKeyWhenHandlerPanics(t *testing.T) {
	store := newIdempotencyStore(t)
	exploding := Idempotency(store, nil)(func(*fasthttp.RequestCtx) {
		panic("handler exploded")
	})

	assert.Panics(t, func() {
		exploding(newRequest(fasthttp.MethodPost, "/api/v1/usuarios/", "k-1"))
	})

	calls := 0
	ok := Idempotency(store, nil)(func(ctx *fasthttp.RequestCtx) {
		calls++
		ctx.SetStatusCode(fasthttp.StatusCreated)
		ctx.SetBodyString(`{"id":1}`)
	})
	retry := newRequest(fasthttp.MethodPost, "/api/v1/usuarios/", "k-1")
	ok(retry)

	assert.Equal(t, fasthttp.StatusCreated, retry.Response.StatusCode())
	assert.Equal(t, 1, calls)
}

func TestIdempotencyKeyTooLongUsesErrorBody(t *testing.T) {
	store := newIdempotencyStore(t)
	h := Idempotency(store, nil)(func(*fasthttp.RequestCtx) {
		t.Fatal("handler must not run")
	})

	ctx := newRequest(fasthttp.MethodPost, "/api/v1/usuarios/", strings.Repeat("x", 256))
	h(ctx)

	require.Equal(t, fasthttp.StatusUnprocessableEntity, ctx.Response.StatusCode())
	var body transport.ErrorBody
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	assert.Equal(t, transport.NewErrorBody(fasthttp.StatusUnprocessableEntity, "Idempotency-Key is too long", "/api/v1/usuarios/"), body)
	assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))
}

func TestIdempotencyInFlightConflict(t *testing.T) {
	store := newIdempotencyStore(t)
	_, err := store.Reserve(context.Background(), "POST /api/v1/usuarios/ k-2")
	require.NoError(t, err)

	h := Idempotency(store, nil)(func(*fasthttp.RequestCtx) {
		t.Fatal("handler must not run")
	})
	ctx := newRequest(fasthttp.MethodPost, "/api/v1/usuarios/", "k-2")
	h(ctx)

	assert.Equal(t, fasthttp.StatusConflict, ctx.Response.StatusCode())
	assert.Equal(t, "1", string(ctx.Response.Header.Peek(fasthttp.HeaderRetryAfter)))
}

func TestRequestLogFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := RequestLog(zap.New(core))(func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
	})

	ctx := newRequest(fasthttp.MethodGet, "/api/v1/health/", "")
	ctx.Request.Header.SetUserAgent("curl/8.0")
	h(ctx)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/api/v1/health/", fields["path"])
	assert.Equal(t, "curl/8.0", fields["user_agent"])
	assert.Contains(t, fields, "remote_addr")
	assert.NotEmpty(t, fields["request_id"])
	assert.NotEmpty(t, string(ctx.Response.Header.Peek("X-Request-ID")))
}

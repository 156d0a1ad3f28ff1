package httpcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/users-api/pkg/logger"
)

type scopeKey struct{}

type recordingScoper struct {
	released int
}

func (s *recordingScoper) Scope(ctx context.Context) (context.Context, func()) {
	return context.WithValue(ctx, scopeKey{}, s), func() { s.released++ }
}

func newRequestCtx(requestID string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.SetRequestURI("/api/v1/usuarios/1")
	if requestID != "" {
		req.Header.Set(HeaderRequestID, requestID)
	}
	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	return &ctx
}

func TestAttachPropagatesRequestID(t *testing.T) {
	rc := newRequestCtx("req-1")
	ctx, done := NewAdapter(time.Second).Attach(rc)
	defer done()

	assert.Equal(t, "req-1", appLogger.RequestID(ctx))
	assert.Equal(t, "req-1", string(rc.Response.Header.Peek(HeaderRequestID)))
	_, hasDeadline := ctx.Deadline()
	assert.True(t, hasDeadline)
}

func TestRequestIDIsStablePerRequest(t *testing.T) {
	rc := newRequestCtx("")
	first := RequestID(rc)
	assert.NotEmpty(t, first)
	assert.Equal(t, first, RequestID(rc))
}

func TestAttachReleasesScopes(t *testing.T) {
	scoper := &recordingScoper{}
	ctx, done := NewAdapter(time.Second, scoper).Attach(newRequestCtx(""))

	assert.Same(t, scoper, ctx.Value(scopeKey{}))
	assert.Equal(t, 0, scoper.released)

	done()
	assert.Equal(t, 1, scoper.released)
	assert.Error(t, ctx.Err())
}

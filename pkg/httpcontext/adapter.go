package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/users-api/pkg/logger"
)

const HeaderRequestID = "X-Request-ID"

// Scoper binds a per-request resource, such as a pooled store connection, to ctx.
type Scoper interface {
	Scope(ctx context.Context) (context.Context, func())
}

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines, metadata and scoped resources.
type Adapter struct {
	timeout time.Duration
	scopers []Scoper
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration, scopers ...Scoper) *Adapter {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Adapter{
		timeout: timeout,
		scopers: scopers,
	}
}

// Attach creates a context with timeout derived from the adapter and tags it with the request id.
// The returned func cancels the context and releases every scope; call it on all exit paths.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := RequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set(HeaderRequestID, reqID)

	releases := make([]func(), 0, len(a.scopers))
	for _, s := range a.scopers {
		var release func()
		stdCtx, release = s.Scope(stdCtx)
		releases = append(releases, release)
	}

	return stdCtx, func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
		cancel()
	}
}

// RequestID returns the inbound X-Request-ID, generating and remembering one when absent.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if id, ok := ctx.UserValue(HeaderRequestID).(string); ok && id != "" {
		return id
	}
	id := strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderRequestID)))
	if id == "" {
		id = uuid.NewString()
	}
	ctx.SetUserValue(HeaderRequestID, id)
	return id
}

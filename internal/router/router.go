package router

import (
	"fmt"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/users-api/api/handler"
)

const apiPrefix = "/api/v1"

type Handlers struct {
	User   *apiHandler.UserHandler
	Health *apiHandler.HealthHandler
}

// Middleware wraps a handler.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// Options carries cross-cutting middleware. Nil entries are skipped.
type Options struct {
	Logger      *zap.Logger
	Idempotency Middleware
	Global      []Middleware
}

// New builds the route table and returns the wrapped root handler.
func New(handlers Handlers, opts Options) fasthttp.RequestHandler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := router.New()
	r.RedirectTrailingSlash = true
	r.HandleMethodNotAllowed = true

	r.NotFound = func(ctx *fasthttp.RequestCtx) {
		apiHandler.WriteError(ctx, fasthttp.StatusNotFound, "resource not found")
	}
	r.MethodNotAllowed = func(ctx *fasthttp.RequestCtx) {
		apiHandler.WriteError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
	}
	r.PanicHandler = func(ctx *fasthttp.RequestCtx, recovered interface{}) {
		logger.Error("panic recovered",
			zap.ByteString("path", ctx.Path()),
			zap.String("panic", fmt.Sprint(recovered)))
		apiHandler.WriteError(ctx, fasthttp.StatusInternalServerError, "internal server error")
	}

	create := handlers.User.Create
	if opts.Idempotency != nil {
		create = opts.Idempotency(create)
	}

	r.GET("/", handlers.Health.Root)

	api := r.Group(apiPrefix)
	api.GET("/health/", handlers.Health.Check)
	api.GET("/health/detailed", handlers.Health.Detailed)

	api.GET("/usuarios/", handlers.User.List)
	api.POST("/usuarios/", create)
	api.GET("/usuarios/{id}", handlers.User.Get)
	api.PUT("/usuarios/{id}", handlers.User.Update)
	api.DELETE("/usuarios/{id}", handlers.User.Delete)
	api.GET("/usuarios/{id}/con-datos-externos", handlers.User.GetWithExternalData)

	handler := r.Handler
	for i := len(opts.Global) - 1; i >= 0; i-- {
		if opts.Global[i] != nil {
			handler = opts.Global[i](handler)
		}
	}
	return handler
}

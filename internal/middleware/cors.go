package middleware

import (
	"github.com/valyala/fasthttp"
)

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Origin, Content-Type, Accept, Idempotency-Key, X-Request-ID"
)

// CORS allows any origin and answers preflight requests directly.
func CORS() func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			h := &ctx.Response.Header
			h.Set(fasthttp.HeaderAccessControlAllowOrigin, "*")
			h.Set(fasthttp.HeaderAccessControlAllowMethods, corsAllowMethods)
			h.Set(fasthttp.HeaderAccessControlAllowHeaders, corsAllowHeaders)
			h.Set(fasthttp.HeaderAccessControlExposeHeaders, "X-Request-ID")

			if ctx.IsOptions() && len(ctx.Request.Header.Peek(fasthttp.HeaderAccessControlRequestMethod)) > 0 {
				h.Set(fasthttp.HeaderAccessControlMaxAge, "600")
				ctx.SetStatusCode(fasthttp.StatusNoContent)
				return
			}
			next(ctx)
		}
	}
}

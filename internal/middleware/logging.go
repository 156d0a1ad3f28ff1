package middleware

import (
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/users-api/pkg/httpcontext"
)

// RequestLog writes one access log entry per request and echoes the request id.
func RequestLog(logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			reqID := httpcontext.RequestID(ctx)
			ctx.Response.Header.Set(httpcontext.HeaderRequestID, reqID)

			next(ctx)

			status := ctx.Response.StatusCode()
			fields := []zap.Field{
				zap.String("request_id", reqID),
				zap.ByteString("method", ctx.Method()),
				zap.ByteString("path", ctx.Path()),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_addr", ctx.RemoteIP().String()),
			}
			if ua := ctx.Request.Header.UserAgent(); len(ua) > 0 {
				fields = append(fields, zap.ByteString("user_agent", ua))
			}
			switch {
			case status >= fasthttp.StatusInternalServerError:
				logger.Error("request completed", fields...)
			case status >= fasthttp.StatusBadRequest:
				logger.Warn("request completed", fields...)
			default:
				logger.Info("request completed", fields...)
			}
		}
	}
}

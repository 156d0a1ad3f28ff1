package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/users-api/api/transport"
	"github.com/fastygo/users-api/domain"
	"github.com/fastygo/users-api/pkg/httpcontext"
	appLogger "github.com/fastygo/users-api/pkg/logger"
)

const internalErrorMessage = "internal server error"

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	WriteJSON(ctx, status, payload)
}

// respondError translates err into the shared error body. 5xx responses never leak the cause.
func (h baseHandler) respondError(stdCtx context.Context, ctx *fasthttp.RequestCtx, err error) {
	status := StatusFor(err)
	message := err.Error()
	if dErr := asDomain(err); dErr != nil {
		message = dErr.Message
	}
	if status >= http.StatusInternalServerError {
		appLogger.WithRequestID(stdCtx, h.logger).Error("request failed",
			zap.String("path", string(ctx.Path())),
			zap.Int("status", status),
			zap.Error(err))
		if status == http.StatusInternalServerError {
			message = internalErrorMessage
		}
	}
	WriteError(ctx, status, message)
}

func (h baseHandler) respondInvalid(ctx *fasthttp.RequestCtx, message string) {
	WriteError(ctx, http.StatusUnprocessableEntity, message)
}

// StatusFor maps a domain error code onto an HTTP status.
func StatusFor(err error) int {
	switch domain.CodeOf(err) {
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeConflict:
		return http.StatusBadRequest
	case domain.ErrCodeInvalid:
		return http.StatusUnprocessableEntity
	case domain.ErrCodeRemote:
		return http.StatusBadGateway
	case domain.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON serialises payload with the given status.
func WriteJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(transport.NewErrorBody(status, internalErrorMessage, string(ctx.Path())))
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

// WriteError writes the shared error body for the current path.
func WriteError(ctx *fasthttp.RequestCtx, status int, message string) {
	WriteJSON(ctx, status, transport.NewErrorBody(status, message, string(ctx.Path())))
}

func asDomain(err error) *domain.Error {
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		return dErr
	}
	return nil
}

package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/users-api/api/transport"
	"github.com/fastygo/users-api/pkg/httpcontext"
	healthUC "github.com/fastygo/users-api/usecase/health"
)

type HealthHandler struct {
	baseHandler
	uc      *healthUC.UseCase
	name    string
	version string
}

func NewHealthHandler(uc *healthUC.UseCase, name, version string, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		name:        name,
		version:     version,
	}
}

// @Summary Welcome
// @Tags health
// @Router / [get]
func (h *HealthHandler) Root(ctx *fasthttp.RequestCtx) {
	h.respondJSON(ctx, http.StatusOK, transport.Welcome{
		Message: "Welcome to " + h.name,
		Version: h.version,
		Health:  "/api/v1/health/",
	})
}

// @Summary Health check
// @Tags health
// @Router /api/v1/health/ [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	h.respondJSON(ctx, http.StatusOK, h.uc.Basic())
}

// @Summary Detailed health check
// @Tags health
// @Router /api/v1/health/detailed [get]
func (h *HealthHandler) Detailed(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	h.respondJSON(ctx, http.StatusOK, h.uc.Detailed(stdCtx))
}

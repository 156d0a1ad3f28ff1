package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/users-api/api/transport"
	"github.com/fastygo/users-api/domain"
	"github.com/fastygo/users-api/pkg/httpcontext"
	"github.com/fastygo/users-api/repository"
	"github.com/fastygo/users-api/usecase/enrich"
	userUC "github.com/fastygo/users-api/usecase/user"
)

type UserHandler struct {
	baseHandler
	uc       *userUC.UseCase
	enricher *enrich.Orchestrator
	validate *validator.Validate
}

func NewUserHandler(uc *userUC.UseCase, enricher *enrich.Orchestrator, adapter *httpcontext.Adapter, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		enricher:    enricher,
		validate:    transport.NewValidator(),
	}
}

// @Summary Get user merged with external data
// @Tags usuarios
// @Router /api/v1/usuarios/{id}/con-datos-externos [get]
func (h *UserHandler) GetWithExternalData(ctx *fasthttp.RequestCtx) {
	id, ok := h.userID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	enriched, err := h.enricher.GetWithExternalData(stdCtx, id)
	if err != nil {
		h.respondError(stdCtx, ctx, notFoundWithID(err, id))
		return
	}
	h.respondJSON(ctx, http.StatusOK, enriched)
}

// @Summary List users
// @Tags usuarios
// @Router /api/v1/usuarios/ [get]
func (h *UserHandler) List(ctx *fasthttp.RequestCtx) {
	query, err := parseListQuery(ctx.QueryArgs())
	if err != nil {
		h.respondInvalid(ctx, err.Error())
		return
	}
	if err := h.validate.Struct(query); err != nil {
		h.respondInvalid(ctx, queryMessage(err))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	users, err := h.uc.List(stdCtx, repository.UserFilter{
		Offset:     query.Skip,
		Limit:      query.Limit,
		ActiveOnly: query.ActiveOnly,
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, users)
}

// @Summary Get user
// @Tags usuarios
// @Router /api/v1/usuarios/{id} [get]
func (h *UserHandler) Get(ctx *fasthttp.RequestCtx) {
	id, ok := h.userID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Get(stdCtx, id)
	if err != nil {
		h.respondError(stdCtx, ctx, notFoundWithID(err, id))
		return
	}
	h.respondJSON(ctx, http.StatusOK, user)
}

// @Summary Create user
// @Tags usuarios
// @Router /api/v1/usuarios/ [post]
func (h *UserHandler) Create(ctx *fasthttp.RequestCtx) {
	var req transport.CreateUserRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Create(stdCtx, req.Input())
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusCreated, user)
}

// @Summary Update user
// @Tags usuarios
// @Router /api/v1/usuarios/{id} [put]
func (h *UserHandler) Update(ctx *fasthttp.RequestCtx) {
	id, ok := h.userID(ctx)
	if !ok {
		return
	}
	var req transport.UpdateUserRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Update(stdCtx, id, req.Patch())
	if err != nil {
		h.respondError(stdCtx, ctx, notFoundWithID(err, id))
		return
	}
	h.respondJSON(ctx, http.StatusOK, user)
}

// @Summary Delete user
// @Tags usuarios
// @Router /api/v1/usuarios/{id} [delete]
func (h *UserHandler) Delete(ctx *fasthttp.RequestCtx) {
	id, ok := h.userID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Delete(stdCtx, id)
	if err != nil {
		h.respondError(stdCtx, ctx, notFoundWithID(err, id))
		return
	}
	h.respondJSON(ctx, http.StatusOK, user)
}

func (h *UserHandler) userID(ctx *fasthttp.RequestCtx) (int64, bool) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.respondInvalid(ctx, fmt.Sprintf("id must be an integer, got %q", raw))
		return 0, false
	}
	return id, true
}

func (h *UserHandler) decode(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		h.respondInvalid(ctx, "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.respondInvalid(ctx, transport.DescribeValidation(err))
		return false
	}
	return true
}

func parseListQuery(args *fasthttp.Args) (transport.ListUsersQuery, error) {
	query := transport.ListUsersQuery{Skip: 0, Limit: repository.DefaultListLimit}

	if raw := args.Peek("skip"); len(raw) > 0 {
		v, err := strconv.Atoi(string(raw))
		if err != nil {
			return query, fmt.Errorf("skip must be an integer")
		}
		query.Skip = v
	}
	if raw := args.Peek("limit"); len(raw) > 0 {
		v, err := strconv.Atoi(string(raw))
		if err != nil {
			return query, fmt.Errorf("limit must be an integer")
		}
		query.Limit = v
	}
	if raw := args.Peek("activos_solo"); len(raw) > 0 {
		v, err := strconv.ParseBool(string(raw))
		if err != nil {
			return query, fmt.Errorf("activos_solo must be a boolean")
		}
		query.ActiveOnly = v
	}
	return query, nil
}

func queryMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "Skip":
			return "skip must be greater than or equal to 0"
		case "Limit":
			return fmt.Sprintf("limit must be between 1 and %d", repository.MaxListLimit)
		}
	}
	return transport.DescribeValidation(err)
}

func notFoundWithID(err error, id int64) error {
	if domain.CodeOf(err) == domain.ErrCodeNotFound {
		return domain.WrapError(domain.ErrCodeNotFound, fmt.Sprintf("user with id %d not found", id), err)
	}
	return err
}

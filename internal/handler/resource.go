package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/course-backoffice/internal/auth"
	"github.com/iliyamo/course-backoffice/internal/model"
	"github.com/iliyamo/course-backoffice/internal/repository"
)

// ResourceStore is satisfied by *repository.ResourceRepo.
type ResourceStore interface {
	List(ctx context.Context, kind string, limit, offset int) ([]model.Resource, int, error)
	Get(ctx context.Context, kind, id string) (*model.Resource, error)
	Create(ctx context.Context, res *model.Resource) error
	Update(ctx context.Context, kind, id string, body json.RawMessage) error
	Delete(ctx context.Context, kind, id string) error
}

// ResourceHandler serves the generic back office documents. Handlers are
// built per kind by the router.
type ResourceHandler struct {
	Store ResourceStore
	// Invalidate drops cached reads of a kind after a write. Optional.
	Invalidate func(ctx context.Context, kind string) error
	Avatars    []string
}

func NewResourceHandler(store ResourceStore, invalidate func(context.Context, string) error, avatars []string) *ResourceHandler {
	return &ResourceHandler{Store: store, Invalidate: invalidate, Avatars: avatars}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type pageResp struct {
	Items []model.Resource `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
}

// List returns one page of a kind; ?page is zero-based, ?size is capped.
func (h *ResourceHandler) List(kind string) echo.HandlerFunc {
	return func(c echo.Context) error {
		page := queryInt(c, "page", 0)
		size := queryInt(c, "size", defaultPageSize)
		if page < 0 || size <= 0 {
			return badRequest(c, "page must be >= 0 and size > 0")
		}
		if size > maxPageSize {
			size = maxPageSize
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
		defer cancel()

		items, total, err := h.Store.List(ctx, kind, size, page*size)
		if err != nil {
			return WriteError(c, err)
		}
		return c.JSON(http.StatusOK, pageResp{Items: items, Total: total, Page: page, Size: size})
	}
}

func (h *ResourceHandler) Get(kind string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
		defer cancel()

		res, err := h.Store.Get(ctx, kind, c.Param("id"))
		if err != nil {
			return h.storeError(c, err)
		}
		return c.JSON(http.StatusOK, res)
	}
}

// Create stores the request body as a new document owned by the caller.
func (h *ResourceHandler) Create(kind string) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, ok := readJSONObject(c)
		if !ok {
			return badRequest(c, "body must be a JSON object")
		}
		res := &model.Resource{ID: uuid.NewString(), Kind: kind, Body: body}
		if id := auth.IdentityFrom(c.Request().Context()); id != nil {
			res.CreatedBy = id.PrincipalID
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
		defer cancel()

		if err := h.Store.Create(ctx, res); err != nil {
			return h.storeError(c, err)
		}
		h.invalidate(ctx, kind)
		return c.JSON(http.StatusCreated, res)
	}
}

func (h *ResourceHandler) Update(kind string) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, ok := readJSONObject(c)
		if !ok {
			return badRequest(c, "body must be a JSON object")
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
		defer cancel()

		id := c.Param("id")
		if err := h.Store.Update(ctx, kind, id, body); err != nil {
			return h.storeError(c, err)
		}
		h.invalidate(ctx, kind)
		res, err := h.Store.Get(ctx, kind, id)
		if err != nil {
			return h.storeError(c, err)
		}
		return c.JSON(http.StatusOK, res)
	}
}

func (h *ResourceHandler) Delete(kind string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
		defer cancel()

		if err := h.Store.Delete(ctx, kind, c.Param("id")); err != nil {
			return h.storeError(c, err)
		}
		h.invalidate(ctx, kind)
		return c.NoContent(http.StatusNoContent)
	}
}

// DefaultAvatars lists the configured default avatar URLs.
func (h *ResourceHandler) DefaultAvatars(c echo.Context) error {
	avatars := h.Avatars
	if avatars == nil {
		avatars = []string{}
	}
	return c.JSON(http.StatusOK, echo.Map{"avatars": avatars})
}

func (h *ResourceHandler) invalidate(ctx context.Context, kind string) {
	if h.Invalidate == nil {
		return
	}
	if err := h.Invalidate(ctx, kind); err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("cache invalidation failed")
	}
}

func (h *ResourceHandler) storeError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return WriteStatus(c, http.StatusNotFound, auth.MsgNotFound)
	}
	var dup *repository.DuplicateError
	if errors.As(err, &dup) {
		return WriteStatus(c, http.StatusBadRequest, "resource already exists")
	}
	return WriteError(c, err)
}

func readJSONObject(c echo.Context) (json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	body, err := json.Marshal(obj)
	if err != nil {
		return nil, false
	}
	return body, true
}

func queryInt(c echo.Context, name string, def int) int {
	s := c.QueryParam(name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Shine-Infosolutions/eventbackend/internal/logger"
	"github.com/Shine-Infosolutions/eventbackend/internal/middleware"
	"github.com/Shine-Infosolutions/eventbackend/internal/model"
	"github.com/Shine-Infosolutions/eventbackend/internal/service"
)

// PassCatalog is the catalog service behind the pass type routes.
type PassCatalog interface {
	List(ctx context.Context, activeOnly bool) ([]model.PassType, error)
	Get(ctx context.Context, id string) (*model.PassType, error)
	Create(ctx context.Context, actor service.Actor, in service.PassTypeInput) (*model.PassType, error)
	Update(ctx context.Context, actor service.Actor, id string, in service.PassTypeInput) (*model.PassType, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
}

// PassTypeHandler serves /v1/pass-types.
type PassTypeHandler struct {
	Catalog PassCatalog
	Log     *logger.Logger
}

func NewPassTypeHandler(catalog PassCatalog, log *logger.Logger) *PassTypeHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &PassTypeHandler{Catalog: catalog, Log: log}
}

// List returns all pass types; ?active=true keeps the ones on sale.
func (h *PassTypeHandler) List(c echo.Context) error {
	activeOnly, _ := strconv.ParseBool(c.QueryParam("active"))
	items, err := h.Catalog.List(c.Request().Context(), activeOnly)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *PassTypeHandler) Get(c echo.Context) error {
	p, err := h.Catalog.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PassTypeHandler) Create(c echo.Context) error {
	actor, _ := middleware.CurrentActor(c)
	var in service.PassTypeInput
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, h.Log, err)
	}
	p, err := h.Catalog.Create(c.Request().Context(), actor, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *PassTypeHandler) Update(c echo.Context) error {
	actor, _ := middleware.CurrentActor(c)
	var in service.PassTypeInput
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, h.Log, err)
	}
	p, err := h.Catalog.Update(c.Request().Context(), actor, c.Param("id"), in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PassTypeHandler) Delete(c echo.Context) error {
	actor, _ := middleware.CurrentActor(c)
	if err := h.Catalog.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

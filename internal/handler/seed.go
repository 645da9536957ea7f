package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cactilog/internal/middleware"
	"github.com/iliyamo/cactilog/internal/model"
	"github.com/iliyamo/cactilog/internal/queue"
	"github.com/iliyamo/cactilog/internal/repository"
	"github.com/iliyamo/cactilog/internal/service"
)

// SeedHandler serves seed-sowing records.  Ownership works as for plants.
type SeedHandler struct {
	Seeds  SeedStore
	Events service.Publisher
	Log    logrus.FieldLogger
}

// ListSeeds handles GET /api/seeds?search=.
func (h *SeedHandler) ListSeeds(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return unauthorized(c)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	seeds, err := h.Seeds.List(ctx, uid, c.QueryParam("search"))
	if err != nil {
		return serverError(c, h.Log, "failed to fetch seeds", err)
	}
	return c.JSON(http.StatusOK, seeds)
}

// GetSeed handles GET /api/seeds/:id.
func (h *SeedHandler) GetSeed(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	s, err := h.Seeds.GetByIDAndOwner(ctx, id, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c, "seed")
	}
	if err != nil {
		return serverError(c, h.Log, "failed to fetch seed", err)
	}
	return c.JSON(http.StatusOK, s)
}

// CreateSeed handles POST /api/seeds.
func (h *SeedHandler) CreateSeed(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var in model.SeedInput
	if err := bindAndValidate(c, &in); err != nil {
		return invalid(c, "seed", err)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	s := in.Seed(uid)
	if err := h.Seeds.Create(ctx, s); err != nil {
		return serverError(c, h.Log, "failed to create seed", err)
	}
	ev := queue.NewActivityEvent(queue.SeedCreated, uid, s.ID)
	ev.Genus = s.Genus
	service.Async(h.Events, ev)
	return c.JSON(http.StatusCreated, s)
}

// UpdateSeed handles PATCH /api/seeds/:id.
func (h *SeedHandler) UpdateSeed(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var patch model.SeedPatch
	if err := bindAndValidate(c, &patch); err != nil {
		return invalid(c, "seed", err)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	s, err := h.Seeds.Update(ctx, id, uid, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c, "seed")
	}
	if err != nil {
		return serverError(c, h.Log, "failed to update seed", err)
	}
	return c.JSON(http.StatusOK, s)
}

// DeleteSeed handles DELETE /api/seeds/:id.
func (h *SeedHandler) DeleteSeed(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	deleted, err := h.Seeds.Delete(ctx, id, uid)
	if err != nil {
		return serverError(c, h.Log, "failed to delete seed", err)
	}
	if !deleted {
		return notFound(c, "seed")
	}
	return c.NoContent(http.StatusNoContent)
}

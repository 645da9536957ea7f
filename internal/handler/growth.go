package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cactilog/internal/middleware"
	"github.com/iliyamo/cactilog/internal/model"
	"github.com/iliyamo/cactilog/internal/queue"
	"github.com/iliyamo/cactilog/internal/repository"
)

// ListGrowth handles GET /api/plants/:id/growth.  A plant the caller does
// not own yields an empty list.
func (h *PlantHandler) ListGrowth(c echo.Context) error {
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

	records, err := h.Growth.ListByPlant(ctx, id, uid)
	if err != nil {
		return serverError(c, h.Log, "failed to fetch growth records", err)
	}
	return c.JSON(http.StatusOK, records)
}

// CreateGrowth handles POST /api/plants/:id/growth.
func (h *PlantHandler) CreateGrowth(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var in model.GrowthRecordInput
	if err := bindAndValidate(c, &in); err != nil {
		return invalid(c, "growth record", err)
	}
	rec, err := in.Record(id)
	if err != nil {
		return invalid(c, "growth record", err)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	err = h.Growth.Create(ctx, rec, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c, "plant")
	}
	if err != nil {
		return serverError(c, h.Log, "failed to create growth record", err)
	}
	h.publish(queue.GrowthRecorded, uid, rec.ID, id, "")
	return c.JSON(http.StatusCreated, rec)
}

// UpdateGrowth handles PATCH /api/growth/:id.
func (h *PlantHandler) UpdateGrowth(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var patch model.GrowthRecordPatch
	if err := bindAndValidate(c, &patch); err != nil {
		return invalid(c, "growth record", err)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	rec, err := h.Growth.Update(ctx, id, uid, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c, "growth record")
	}
	if err != nil {
		return serverError(c, h.Log, "failed to update growth record", err)
	}
	return c.JSON(http.StatusOK, rec)
}

// DeleteGrowth handles DELETE /api/growth/:id.
func (h *PlantHandler) DeleteGrowth(c echo.Context) error {
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

	deleted, err := h.Growth.Delete(ctx, id, uid)
	if err != nil {
		return serverError(c, h.Log, "failed to delete growth record", err)
	}
	if !deleted {
		return notFound(c, "growth record")
	}
	return c.NoContent(http.StatusNoContent)
}

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cactilog/internal/analytics"
	"github.com/iliyamo/cactilog/internal/middleware"
	"github.com/iliyamo/cactilog/internal/model"
)

const (
	defaultPublicLimit = 24
	maxPublicLimit     = 100
)

// DashboardHandler serves the read-only views over a whole collection.
type DashboardHandler struct {
	Stats  StatsStore
	Plants PlantStore
	Growth GrowthStore
	Log    logrus.FieldLogger
	Now    func() time.Time
}

func (h *DashboardHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

// DashboardStats handles GET /api/dashboard/stats.
func (h *DashboardHandler) DashboardStats(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return unauthorized(c)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	st, err := h.Stats.Stats(ctx, uid, h.now())
	if err != nil {
		return serverError(c, h.Log, "failed to fetch dashboard stats", err)
	}
	return c.JSON(http.StatusOK, st)
}

// collection loads every plant and growth record of the caller.
func (h *DashboardHandler) collection(c echo.Context, uid string) ([]model.Plant, []model.GrowthRecord, error) {
	ctx, cancel := dbContext(c)
	defer cancel()

	plants, err := h.Plants.List(ctx, uid, model.PlantFilter{})
	if err != nil {
		return nil, nil, err
	}
	records, err := h.Growth.ListByUser(ctx, uid)
	if err != nil {
		return nil, nil, err
	}
	return plants, records, nil
}

// GrowthAnalytics handles GET /api/analytics/growth.
func (h *DashboardHandler) GrowthAnalytics(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return unauthorized(c)
	}
	plants, records, err := h.collection(c, uid)
	if err != nil {
		return serverError(c, h.Log, "failed to compute growth analytics", err)
	}
	return c.JSON(http.StatusOK, analytics.Analyze(plants, records))
}

// PlantsWithGrowth handles GET /api/plants-with-growth.
func (h *DashboardHandler) PlantsWithGrowth(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return unauthorized(c)
	}
	plants, records, err := h.collection(c, uid)
	if err != nil {
		return serverError(c, h.Log, "failed to fetch plants with growth", err)
	}
	return c.JSON(http.StatusOK, analytics.Summarize(plants, records))
}

// PublicPlants handles GET /api/public/plants?limit=.  No login needed;
// only plants marked public are listed and owners are not exposed.
func (h *DashboardHandler) PublicPlants(c echo.Context) error {
	limit := uint64(defaultPublicLimit)
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || n == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = min(n, maxPublicLimit)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	plants, err := h.Plants.ListPublic(ctx, limit)
	if err != nil {
		return serverError(c, h.Log, "failed to fetch public plants", err)
	}
	return c.JSON(http.StatusOK, plants)
}

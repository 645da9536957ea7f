package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cactilog/internal/knowledge"
)

// KnowledgeHandler serves the genus reference.  Nothing here is per user.
type KnowledgeHandler struct {
	Base   *knowledge.Base
	Images ImageSearcher
	Log    logrus.FieldLogger
}

// ListGenera handles GET /api/knowledge/genera?type=&search=.
func (h *KnowledgeHandler) ListGenera(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Base.List(c.QueryParam("type"), c.QueryParam("search")))
}

// GetGenus handles GET /api/knowledge/genera/:name.
func (h *KnowledgeHandler) GetGenus(c echo.Context) error {
	g, ok := h.Base.Get(c.Param("name"))
	if !ok {
		return notFound(c, "genus")
	}
	return c.JSON(http.StatusOK, g)
}

// GenusImages handles GET /api/knowledge/genera/:name/images?limit=.
func (h *KnowledgeHandler) GenusImages(c echo.Context) error {
	g, ok := h.Base.Get(c.Param("name"))
	if !ok {
		return notFound(c, "genus")
	}
	limit := 8
	if n, err := strconv.Atoi(c.QueryParam("limit")); err == nil && n > 0 && n <= 20 {
		limit = n
	}
	imgs, err := h.Images.SearchGenus(c.Request().Context(), g.Name, limit)
	if err != nil {
		h.Log.WithError(err).WithField("genus", g.Name).Warn("image lookup failed")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "image lookup failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"genus": g.Name, "images": imgs})
}

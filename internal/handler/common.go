package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cactilog/internal/middleware"
	"github.com/iliyamo/cactilog/internal/validation"
)

// dbTimeout bounds the database work of a single request.
const dbTimeout = 5 * time.Second

func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// unauthorized answers a request that reached a protected handler without
// a principal.
func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// bindAndValidate decodes the body into dst, normalizes it and runs the
// registered validator.
func bindAndValidate(c echo.Context, dst validation.Normalizer) error {
	if err := c.Bind(dst); err != nil {
		return errBadBody
	}
	dst.Normalize()
	return c.Validate(dst)
}

var errBadBody = errors.New("invalid request body")

// invalid answers 400.  Validation failures list every failing field under
// "issues".
func invalid(c echo.Context, what string, err error) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + what + " data", "issues": verr.Issues})
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
}

func invalidID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
}

func notFound(c echo.Context, what string) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": what + " not found"})
}

// serverError logs err and answers 500 with a generic message.
func serverError(c echo.Context, log logrus.FieldLogger, msg string, err error) error {
	log.WithError(err).WithFields(logrus.Fields{
		"method":  c.Request().Method,
		"path":    c.Path(),
		"user_id": middleware.UserID(c),
	}).Error(msg)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}

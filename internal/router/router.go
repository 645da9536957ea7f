// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cactilog/internal/config"
	"github.com/iliyamo/cactilog/internal/handler"
	"github.com/iliyamo/cactilog/internal/logging"
	"github.com/iliyamo/cactilog/internal/middleware"
	"github.com/iliyamo/cactilog/internal/validation"
)

// Deps is everything the router needs.  Redis may be nil; the limiter then
// runs in memory and the response cache is off.
type Deps struct {
	Cfg       config.Config
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Log       logrus.FieldLogger
	Redis     *redis.Client
	DB        handler.Pinger

	Auth      *handler.AuthHandler
	Plants    *handler.PlantHandler
	Seeds     *handler.SeedHandler
	Dashboard *handler.DashboardHandler
	Knowledge *handler.KnowledgeHandler
}

// New builds the echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = errorHandler(d.Log)

	e.Use(echomw.RequestID())
	e.Use(logging.RequestLogger(d.Log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     d.Cfg.CORSOrigins,
		AllowCredentials: true,
	}))
	// Uploads are bounded by the store; leave room for the other form fields.
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dK", d.Cfg.UploadMaxBytes/1024+1024)))

	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)
	authn := middleware.Authenticate(d.Cfg.JWTSecret)

	e.GET("/healthz", handler.Health)
	if d.DB != nil {
		e.GET("/readyz", handler.Ready(d.DB))
	}

	registerAuth(e, d.Auth, authn, limit)
	registerPublic(e, d, limit)
	registerProtected(e, d, authn, limit)
	return e
}

// registerAuth mounts /api/auth.  Only /user needs a principal; logout
// reads the bearer itself.
func registerAuth(e *echo.Echo, a *handler.AuthHandler, authn, limit echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)
	g.POST("/refresh", a.Refresh, limit)
	g.POST("/logout", a.Logout, limit)
	g.GET("/providers", a.ListProviders, limit)
	g.GET("/user", a.CurrentUser, authn, limit)
	g.GET("/:provider/login", a.ProviderLogin, limit)
	g.GET("/:provider/callback", a.ProviderCallback, limit)
}

// registerPublic mounts the anonymous read-only routes.  Knowledge answers
// do not depend on the caller and go through the response cache.
func registerPublic(e *echo.Echo, d Deps, limit echo.MiddlewareFunc) {
	cache := middleware.NewRedisCache(d.Cache, d.Redis, d.Log)

	e.GET("/api/public/plants", d.Dashboard.PublicPlants, limit)

	k := e.Group("/api/knowledge")
	k.GET("/genera", d.Knowledge.ListGenera, limit, cache)
	k.GET("/genera/:name", d.Knowledge.GetGenus, limit, cache)
	k.GET("/genera/:name/images", d.Knowledge.GenusImages, limit, cache)
}

// registerProtected mounts the collection routes.  Authenticate runs first
// so the limiter can key on the user.
func registerProtected(e *echo.Echo, d Deps, authn, limit echo.MiddlewareFunc) {
	p := d.Plants
	g := e.Group("/api", authn, limit)

	g.GET("/plants", p.ListPlants)
	g.POST("/plants", p.CreatePlant)
	g.GET("/plants/:id", p.GetPlant)
	g.PATCH("/plants/:id", p.UpdatePlant)
	g.PUT("/plants/:id", p.UpdatePlant)
	g.DELETE("/plants/:id", p.DeletePlant)

	g.GET("/plants/:id/growth", p.ListGrowth)
	g.POST("/plants/:id/growth", p.CreateGrowth)
	g.PATCH("/growth/:id", p.UpdateGrowth)
	g.DELETE("/growth/:id", p.DeleteGrowth)

	g.GET("/plants/:id/photos", p.ListPhotos)
	g.POST("/plants/:id/photos", p.UploadPhoto)
	g.GET("/photos/:id/file", p.ServePhoto)
	g.DELETE("/photos/:id", p.DeletePhoto)

	s := d.Seeds
	g.GET("/seeds", s.ListSeeds)
	g.POST("/seeds", s.CreateSeed)
	g.GET("/seeds/:id", s.GetSeed)
	g.PATCH("/seeds/:id", s.UpdateSeed)
	g.DELETE("/seeds/:id", s.DeleteSeed)

	g.GET("/dashboard/stats", d.Dashboard.DashboardStats)
	g.GET("/analytics/growth", d.Dashboard.GrowthAnalytics)
	g.GET("/plants-with-growth", d.Dashboard.PlantsWithGrowth)
}

// errorHandler renders every error as {"error": message}.  Errors that are
// not echo HTTP errors are logged and hidden behind a 500.
func errorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := http.StatusText(code)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = http.StatusText(code)
			if m, ok := he.Message.(string); ok && m != "" {
				msg = m
			}
		} else {
			log.WithError(err).WithField("path", c.Path()).Error("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, echo.Map{"error": msg})
		}
		if err != nil {
			log.WithError(err).Warn("write error response")
		}
	}
}

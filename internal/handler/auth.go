package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cactilog/internal/auth"
	"github.com/iliyamo/cactilog/internal/config"
	"github.com/iliyamo/cactilog/internal/middleware"
	"github.com/iliyamo/cactilog/internal/model"
	"github.com/iliyamo/cactilog/internal/repository"
	"github.com/iliyamo/cactilog/internal/utils"
)

const (
	refreshCookie = "cactilog_refresh"
	stateCookie   = "cactilog_oauth_state"
)

// AuthHandler bundles dependencies for auth endpoints.  Local accounts and
// every redirect provider end in the same token pair.
type AuthHandler struct {
	Cfg       config.Config
	Users     UserStore
	Tokens    TokenStore
	Providers *auth.Registry
	Log       logrus.FieldLogger
}

// ----- DTOs -----

type registerReq struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

func (r *registerReq) Normalize() {
	r.Email = repository.NormalizeEmail(r.Email)
	r.FirstName = model.NullIfBlank(r.FirstName)
	r.LastName = model.NullIfBlank(r.LastName)
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *loginReq) Normalize() { r.Email = repository.NormalizeEmail(r.Email) }

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User    *model.User `json:"user"`
	Access  tokenPart   `json:"access"`
	Refresh tokenPart   `json:"refresh"`
}

// issue creates and stores a fresh token pair for u.
func (h *AuthHandler) issue(c echo.Context, u *model.User) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.AuthProvider, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}

// Register handles POST /api/auth/register: create a local account and
// return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	if !h.Cfg.ProviderEnabled("local") {
		return notFound(c, "provider")
	}
	var req registerReq
	if err := bindAndValidate(c, &req); err != nil {
		return invalid(c, "registration", err)
	}
	if err := utils.CheckPassword(req.Password); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return serverError(c, h.Log, "create user failed", err)
	}
	u := &model.User{
		ID:           "local:" + uuid.NewString(),
		Email:        &req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		AuthProvider: "local",
	}

	ctx, cancel := dbContext(c)
	err = h.Users.RegisterLocal(ctx, u, hash)
	cancel()
	if errors.Is(err, repository.ErrEmailExists) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	}
	if err != nil {
		return serverError(c, h.Log, "create user failed", err)
	}

	resp, err := h.issue(c, u)
	if err != nil {
		return serverError(c, h.Log, "issue tokens failed", err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login handles POST /api/auth/login for local accounts.
func (h *AuthHandler) Login(c echo.Context) error {
	if !h.Cfg.ProviderEnabled("local") {
		return notFound(c, "provider")
	}
	var req loginReq
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	cred, err := h.Users.GetCredential(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return serverError(c, h.Log, "login failed", err)
	}
	if !utils.VerifyPassword(cred.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	u, err := h.Users.GetByID(ctx, cred.UserID)
	if err != nil {
		return serverError(c, h.Log, "login failed", err)
	}

	resp, err := h.issue(c, u)
	if err != nil {
		return serverError(c, h.Log, "issue tokens failed", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// refreshFrom reads the refresh token from the body or, for browser
// sessions, from the refresh cookie.
func refreshFrom(c echo.Context) string {
	var req refreshReq
	_ = c.Bind(&req)
	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		return raw
	}
	if ck, err := c.Cookie(refreshCookie); err == nil {
		return ck.Value
	}
	return ""
}

// Refresh handles POST /api/auth/refresh: consume the old token by hash and
// issue a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := refreshFrom(c)
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(raw)

	ctx, cancel := dbContext(c)
	defer cancel()

	userID, err := h.Tokens.ConsumeRefresh(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err != nil {
		return serverError(c, h.Log, "refresh failed", err)
	}
	u, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err != nil {
		return serverError(c, h.Log, "load user failed", err)
	}

	resp, err := h.issue(c, u)
	if err != nil {
		return serverError(c, h.Log, "issue tokens failed", err)
	}
	if _, err := c.Cookie(middleware.AccessCookie); err == nil {
		h.setSessionCookies(c, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout.  With a refresh token only that
// session ends; with just an access token every session of the user ends.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw := refreshFrom(c)
	ctx, cancel := dbContext(c)
	defer cancel()

	h.clearSessionCookies(c)
	if raw != "" {
		_, err := h.Tokens.ConsumeRefresh(ctx, utils.HashRefreshRaw(raw))
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err != nil {
			return serverError(c, h.Log, "logout failed", err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	token := strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
	if token == "" {
		if ck, err := c.Cookie(middleware.AccessCookie); err == nil {
			token = ck.Value
		}
	}
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
	}
	uid, err := utils.ParseAccessToken(h.Cfg.JWTSecret, token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return serverError(c, h.Log, "logout failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CurrentUser handles GET /api/auth/user.
func (h *AuthHandler) CurrentUser(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return unauthorized(c)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c, "user")
	}
	if err != nil {
		return serverError(c, h.Log, "failed to fetch user", err)
	}
	return c.JSON(http.StatusOK, u)
}

// ListProviders handles GET /api/auth/providers.
func (h *AuthHandler) ListProviders(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"local":     h.Cfg.ProviderEnabled("local"),
		"providers": h.Providers.Names(),
	})
}

// ProviderLogin handles GET /api/auth/:provider/login by redirecting to
// the provider with a fresh state value.
func (h *AuthHandler) ProviderLogin(c echo.Context) error {
	p, ok := h.Providers.Get(c.Param("provider"))
	if !ok {
		return notFound(c, "provider")
	}
	state, err := utils.RandomState()
	if err != nil {
		return serverError(c, h.Log, "login failed", err)
	}
	c.SetCookie(h.cookie(stateCookie, state, "/api/auth", time.Now().Add(10*time.Minute)))
	return c.Redirect(http.StatusFound, p.AuthCodeURL(state))
}

// ProviderCallback handles GET /api/auth/:provider/callback: check state,
// exchange the code, upsert the user and start a browser session.
func (h *AuthHandler) ProviderCallback(c echo.Context) error {
	p, ok := h.Providers.Get(c.Param("provider"))
	if !ok {
		return notFound(c, "provider")
	}
	ck, err := c.Cookie(stateCookie)
	if err != nil || ck.Value == "" || ck.Value != c.QueryParam("state") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid oauth state"})
	}
	c.SetCookie(h.cookie(stateCookie, "", "/api/auth", time.Unix(0, 0)))

	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing code"})
	}
	ident, err := p.Exchange(c.Request().Context(), code)
	if err != nil {
		h.Log.WithError(err).WithField("provider", p.Name()).Warn("oauth exchange failed")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login failed"})
	}

	u := ident.User()
	ctx, cancel := dbContext(c)
	err = h.Users.Upsert(ctx, u)
	cancel()
	if err != nil {
		return serverError(c, h.Log, "login failed", err)
	}
	resp, err := h.issue(c, u)
	if err != nil {
		return serverError(c, h.Log, "issue tokens failed", err)
	}
	h.setSessionCookies(c, resp)
	return c.Redirect(http.StatusFound, h.Cfg.FrontendURL)
}

func (h *AuthHandler) cookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   !h.Cfg.IsDev(),
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) setSessionCookies(c echo.Context, resp authResp) {
	c.SetCookie(h.cookie(middleware.AccessCookie, resp.Access.Token, "/", resp.Access.Expires))
	c.SetCookie(h.cookie(refreshCookie, resp.Refresh.Token, "/api/auth", resp.Refresh.Expires))
}

func (h *AuthHandler) clearSessionCookies(c echo.Context) {
	c.SetCookie(h.cookie(middleware.AccessCookie, "", "/", time.Unix(0, 0)))
	c.SetCookie(h.cookie(refreshCookie, "", "/api/auth", time.Unix(0, 0)))
}

package middleware

// identity.go holds the context key shared by the middleware and the
// handlers.  Authenticate writes it; everything else reads it through
// UserID.

import "github.com/labstack/echo/v4"

const (
	userIDKey = "user_id"

	// AccessCookie carries the access token for browser sessions started
	// through a redirect provider.
	AccessCookie = "cactilog_access"
)

// UserID returns the authenticated user id, or "" on routes that do not
// run Authenticate.
func UserID(c echo.Context) string {
	if v, ok := c.Get(userIDKey).(string); ok {
		return v
	}
	return ""
}

// SetUserID stores a resolved principal.  Tests use it to stand in for
// Authenticate.
func SetUserID(c echo.Context, id string) { c.Set(userIDKey, id) }

// Package auth handles the session boundary of the chart service: it
// extracts the caller's bearer token, rejects expired sessions with a login
// redirect, and makes the token available for passthrough to the upstream
// FHIR server. Token verification itself is the upstream's concern.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey struct{}

var tokenKey contextKey

// Config controls the middleware behavior.
type Config struct {
	// Mode "development" disables the session check entirely.
	Mode string
	// LoginPath is returned to clients whose session is missing or expired.
	LoginPath string
}

// TokenFromContext returns the bearer token stored by the middleware, or ""
// when the request carried none.
func TokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey).(string)
	return tok
}

// WithToken stores a bearer token on a context. Exposed for tests and for
// callers outside the HTTP path.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// Middleware extracts the Authorization bearer token into the request
// context. Outside development mode a missing or expired token short-circuits
// with 401 and the login path, mirroring the upstream's own 401 handling.
func Middleware(cfg Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request())

			if cfg.Mode != "development" {
				if token == "" {
					return loginRequired(c, cfg.LoginPath, "missing bearer token")
				}
				if expired(token) {
					return loginRequired(c, cfg.LoginPath, "session expired")
				}
			}

			if token != "" {
				req := c.Request()
				c.SetRequest(req.WithContext(WithToken(req.Context(), token)))
			}
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get(echo.HeaderAuthorization)
	if h == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, prefix))
}

// expired inspects the token's exp claim without verifying the signature;
// signature validation belongs to the upstream FHIR server. A token that
// cannot be parsed at all is treated as expired.
func expired(token string) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		// No exp claim: nothing to enforce locally.
		return false
	}
	return exp.Before(time.Now())
}

func loginRequired(c echo.Context, loginPath, reason string) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error": reason,
		"login": loginPath,
	})
}

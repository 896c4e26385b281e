package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/dgkngk/uav-rental-app/internal/domain"
	"github.com/dgkngk/uav-rental-app/internal/pkg/response"
	"github.com/dgkngk/uav-rental-app/internal/pkg/session"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// TokenResolver maps a raw API key to the caller.
type TokenResolver interface {
	ResolveAPIToken(ctx context.Context, raw string) (domain.Identity, error)
}

// SessionResolver maps a session cookie value to the caller.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (domain.Identity, error)
}

// TokenAuth requires "Authorization: Token <key>" (or Bearer).
func TokenAuth(tokens TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			return
		}
		resolveToken(c, tokens, authHeader)
	}
}

// OptionalTokenAuth lets anonymous callers through but still rejects bad keys.
func OptionalTokenAuth(tokens TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		resolveToken(c, tokens, authHeader)
	}
}

func resolveToken(c *gin.Context, tokens TokenResolver, authHeader string) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !isTokenScheme(parts[0]) {
		response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Token <key>'")
		return
	}

	identity, err := tokens.ResolveAPIToken(c.Request.Context(), parts[1])
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}
		_ = c.Error(err)
		response.Abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to authenticate")
		return
	}

	setIdentity(c, identity)
	c.Next()
}

func isTokenScheme(s string) bool {
	s = strings.ToLower(s)
	return s == "token" || s == "bearer"
}

// SessionAuth loads the browser session and sends anonymous visitors to the login page.
func SessionAuth(sessions SessionResolver, cookie session.Cookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := cookie.Value(c)
		if raw == "" {
			redirectToLogin(c)
			return
		}

		identity, err := sessions.ResolveSession(c.Request.Context(), raw)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthenticated) {
				cookie.Clear(c)
				redirectToLogin(c)
				return
			}
			_ = c.Error(err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		setIdentity(c, identity)
		c.Next()
	}
}

// OptionalSession loads the browser session when there is one.
func OptionalSession(sessions SessionResolver, cookie session.Cookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := cookie.Value(c); raw != "" {
			if identity, err := sessions.ResolveSession(c.Request.Context(), raw); err == nil {
				setIdentity(c, identity)
			}
		}
		c.Next()
	}
}

// LoginURL builds the login redirect that returns the user to next.
func LoginURL(next string) string {
	if next == "" {
		return "/login/"
	}
	return "/login/?next=" + url.QueryEscape(next)
}

func redirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, LoginURL(c.Request.URL.RequestURI()))
	c.Abort()
}

func setIdentity(c *gin.Context, identity domain.Identity) {
	c.Set(identityKey, identity)
	c.Set("user_id", identity.UserID)
	c.Set("username", identity.Username)
	c.Set("role", string(identity.Role))
}

// CurrentIdentity returns the authenticated caller, or the zero Identity for anonymous requests.
func CurrentIdentity(c *gin.Context) domain.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(domain.Identity); ok {
			return identity
		}
	}
	return domain.Identity{}
}

package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Cookie describes how one HttpOnly cookie is written.
type Cookie struct {
	Name     string
	TTL      time.Duration // 0 keeps it for the browser session
	Secure   bool
	SameSite http.SameSite
}

func NewCookie(name string, ttl time.Duration, secure bool, sameSite string) Cookie {
	return Cookie{
		Name:     name,
		TTL:      ttl,
		Secure:   secure,
		SameSite: ParseSameSite(sameSite),
	}
}

func (k Cookie) Set(c *gin.Context, value string) {
	c.SetSameSite(k.SameSite)
	c.SetCookie(k.Name, value, int(k.TTL.Seconds()), "/", "", k.Secure, true)
}

func (k Cookie) Clear(c *gin.Context) {
	c.SetSameSite(k.SameSite)
	c.SetCookie(k.Name, "", -1, "/", "", k.Secure, true)
}

// Value returns the request's cookie value or "".
func (k Cookie) Value(c *gin.Context) string {
	v, err := c.Cookie(k.Name)
	if err != nil {
		return ""
	}
	return v
}

func ParseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

package session

import (
	"time"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
)

const (
	LevelSuccess = "success"
	LevelError   = "error"

	pendingKey = "session.flashes"
)

type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type flashClaims struct {
	Flashes []Flash `json:"flashes"`
	jwtlib.RegisteredClaims
}

// FlashStore keeps one-shot messages in a signed cookie until the next page render.
type FlashStore struct {
	cookie Cookie
	secret []byte
}

func NewFlashStore(cookie Cookie, secret []byte) *FlashStore {
	return &FlashStore{cookie: cookie, secret: secret}
}

func (f *FlashStore) Success(c *gin.Context, msg string) { f.Add(c, LevelSuccess, msg) }

func (f *FlashStore) Error(c *gin.Context, msg string) { f.Add(c, LevelError, msg) }

func (f *FlashStore) Add(c *gin.Context, level, msg string) {
	flashes := append(f.current(c), Flash{Level: level, Message: msg})
	c.Set(pendingKey, flashes)

	v, err := f.encode(flashes)
	if err != nil {
		_ = c.Error(err)
		return
	}
	f.cookie.Set(c, v)
}

// Pop returns all queued messages and clears them.
func (f *FlashStore) Pop(c *gin.Context) []Flash {
	flashes := f.current(c)
	c.Set(pendingKey, []Flash{})
	if len(flashes) > 0 || f.cookie.Value(c) != "" {
		f.cookie.Clear(c)
	}
	return flashes
}

func (f *FlashStore) current(c *gin.Context) []Flash {
	if v, ok := c.Get(pendingKey); ok {
		if flashes, ok := v.([]Flash); ok {
			return flashes
		}
	}
	return f.decode(f.cookie.Value(c))
}

func (f *FlashStore) encode(flashes []Flash) (string, error) {
	claims := flashClaims{
		Flashes: flashes,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt: jwtlib.NewNumericDate(time.Now()),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(f.secret)
}

// decode drops cookies that are malformed or not signed with our secret.
func (f *FlashStore) decode(v string) []Flash {
	if v == "" {
		return nil
	}
	token, err := jwtlib.ParseWithClaims(v, &flashClaims{}, func(t *jwtlib.Token) (any, error) {
		return f.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil
	}

	claims, ok := token.Claims.(*flashClaims)
	if !ok {
		return nil
	}
	return claims.Flashes
}

package auth

import (
	"errors"
	"io"
	"net/http"

	"github.com/dgkngk/uav-rental-app/internal/pkg/response"
	"github.com/dgkngk/uav-rental-app/internal/pkg/session"

	"github.com/gin-gonic/gin"
)

// Handler serves the JSON login, logout and signup endpoints.
type Handler struct {
	service *Service
	session session.Cookie
}

func NewHandler(service *Service, sessionCookie session.Cookie) *Handler {
	return &Handler{service: service, session: sessionCookie}
}

func (h *Handler) RegisterPublicRoutes(api *gin.RouterGroup) {
	api.POST("/login/", h.Login)
	api.POST("/logout/", h.Logout)
	api.DELETE("/logout/", h.Logout)
	api.POST("/signup/", h.Signup)
}

// Login exchanges credentials for a new API key.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Username and password are required")
		return
	}

	user, err := h.service.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "LOGIN_FAILED", "Failed to log in")
		return
	}

	token, err := h.service.IssueAPIToken(c.Request.Context(), user)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "LOGIN_FAILED", "Failed to issue token")
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// Logout revokes the key named in the body, if any, and ends the browser session.
func (h *Handler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBind(&req); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(err)
	}

	if err := h.service.RevokeAPIToken(c.Request.Context(), req.Token); err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "LOGOUT_FAILED", "Failed to log out")
		return
	}

	h.session.Clear(c)
	c.Status(http.StatusNoContent)
}

func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid signup data", verr.Fields)
		case errors.Is(err, ErrUsernameTaken):
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "A user with that username already exists",
				map[string]string{"username": "unique"})
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "REGISTRATION_FAILED", "Failed to register user")
		}
		return
	}

	c.JSON(http.StatusCreated, UserPublic{ID: user.ID, Username: user.Username})
}

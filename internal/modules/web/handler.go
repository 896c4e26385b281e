package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dgkngk/uav-rental-app/internal/domain"
	"github.com/dgkngk/uav-rental-app/internal/middleware"
	"github.com/dgkngk/uav-rental-app/internal/modules/auth"
	"github.com/dgkngk/uav-rental-app/internal/modules/booking"
	"github.com/dgkngk/uav-rental-app/internal/modules/catalog"
	"github.com/dgkngk/uav-rental-app/internal/pkg/session"

	"github.com/gin-gonic/gin"
)

const (
	homePath    = "/home/"
	profilePath = "/profile/"
	loginPath   = "/login/"
)

// Handler serves the server-rendered pages.
type Handler struct {
	auth    *auth.Service
	catalog *catalog.Service
	booking *booking.Service
	session session.Cookie
	flash   *session.FlashStore
}

func NewHandler(
	authService *auth.Service,
	catalogService *catalog.Service,
	bookingService *booking.Service,
	sessionCookie session.Cookie,
	flash *session.FlashStore,
) *Handler {
	return &Handler{
		auth:    authService,
		catalog: catalogService,
		booking: bookingService,
		session: sessionCookie,
		flash:   flash,
	}
}

// page is the data every template receives.
type page struct {
	Title    string
	User     domain.Identity
	Flashes  []session.Flash
	Error    string
	Errors   map[string]string
	Next     string
	Username string
	Filter   domain.EquipmentFilter
	Query    booking.ProfileQuery
	UAVs     []domain.Equipment
	UAV      *domain.Equipment
	Rentals  []domain.Rental
}

// RegisterPublicRoutes mounts login, logout and signup.
func (h *Handler) RegisterPublicRoutes(r gin.IRouter) {
	r.GET("/login/", h.LoginPage)
	r.POST("/login/", h.Login)
	r.GET("/logout/", h.Logout)
	r.POST("/logout/", h.Logout)
	r.GET("/signup/", h.SignupPage)
	r.POST("/signup/", h.Signup)
}

// RegisterProtectedRoutes expects SessionAuth on r.
func (h *Handler) RegisterProtectedRoutes(r gin.IRouter) {
	r.GET("/", h.Home)
	r.GET("/home/", h.Home)
	r.GET("/rent/:id/", h.RentPage)
	r.POST("/rent/:id/", h.Rent)
	r.POST("/return/:id/", h.Return)
	r.GET("/update-rental/:id/", h.UpdateRentalPage)
	r.POST("/update-rental/:id/", h.UpdateRental)
	r.GET("/profile/", h.Profile)
}

func (h *Handler) LoginPage(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", page{Title: "Log in", Next: c.Query("next")})
}

func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(err)
	}
	next := c.PostForm("next")

	user, err := h.auth.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.render(c, http.StatusOK, "login.html", page{
				Title:    "Log in",
				Error:    "Invalid username or password.",
				Next:     next,
				Username: req.Username,
			})
			return
		}
		h.serverError(c, err)
		return
	}

	if err := h.startSession(c, user); err != nil {
		h.serverError(c, err)
		return
	}
	h.flash.Success(c, fmt.Sprintf("Welcome to UAV Rental App, %s!", user.Username))
	c.Redirect(http.StatusFound, safeNext(next))
}

func (h *Handler) Logout(c *gin.Context) {
	h.session.Clear(c)
	c.Redirect(http.StatusFound, loginPath)
}

func (h *Handler) SignupPage(c *gin.Context) {
	h.render(c, http.StatusOK, "signup.html", page{Title: "Sign up"})
}

func (h *Handler) Signup(c *gin.Context) {
	var form auth.SignupForm
	if err := c.ShouldBind(&form); err != nil {
		_ = c.Error(err)
	}

	user, err := h.auth.RegisterForm(c.Request.Context(), form)
	if err != nil {
		p := page{Title: "Sign up", Username: form.Username}
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			p.Error = "Please correct the errors below."
			p.Errors = signupMessages(verr.Fields)
		case errors.Is(err, auth.ErrUsernameTaken):
			p.Errors = map[string]string{"username": "A user with that username already exists."}
		default:
			h.serverError(c, err)
			return
		}
		h.render(c, http.StatusOK, "signup.html", p)
		return
	}

	if err := h.startSession(c, user); err != nil {
		h.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, homePath)
}

func (h *Handler) Home(c *gin.Context) {
	f := catalog.FilterFromQuery(c)
	uavs, err := h.catalog.Available(c.Request.Context(), f)
	if err != nil {
		h.serverError(c, err)
		return
	}
	h.render(c, http.StatusOK, "home.html", page{Title: "Available UAVs", Filter: f, UAVs: uavs})
}

func (h *Handler) RentPage(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	uav, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			h.NotFound(c)
			return
		}
		h.serverError(c, err)
		return
	}
	h.render(c, http.StatusOK, "rent.html", page{Title: "Rent a UAV", UAV: uav})
}

func (h *Handler) Rent(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req booking.RentRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(err)
	}

	rental, err := h.booking.Rent(c.Request.Context(), middleware.CurrentIdentity(c), id, req)
	if err != nil {
		var verr *booking.ValidationError
		switch {
		case errors.Is(err, booking.ErrNotFound):
			h.NotFound(c)
		case errors.Is(err, booking.ErrAlreadyRented):
			h.flash.Error(c, "This UAV is already rented.")
			c.Redirect(http.StatusFound, homePath)
		case errors.As(err, &verr):
			h.flash.Error(c, verr.Error())
			c.Redirect(http.StatusFound, fmt.Sprintf("/rent/%d/", id))
		default:
			h.serverError(c, err)
		}
		return
	}

	h.flash.Success(c, fmt.Sprintf("You have successfully rented the UAV %s - %s.",
		rental.Equipment.Brand, rental.Equipment.Model))
	c.Redirect(http.StatusFound, homePath)
}

func (h *Handler) Return(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	rental, err := h.booking.Return(c.Request.Context(), middleware.CurrentIdentity(c), id)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			h.NotFound(c)
			return
		}
		h.serverError(c, err)
		return
	}

	brand, model := "", ""
	if rental.Equipment != nil {
		brand, model = rental.Equipment.Brand, rental.Equipment.Model
	}
	h.flash.Success(c, fmt.Sprintf("The UAV %s - %s has been successfully returned.", brand, model))
	c.Redirect(http.StatusFound, profilePath)
}

// UpdateRentalPage has no form of its own; the profile page holds it.
func (h *Handler) UpdateRentalPage(c *gin.Context) {
	c.Redirect(http.StatusFound, profilePath)
}

func (h *Handler) UpdateRental(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req booking.RentRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(err)
	}

	_, err := h.booking.UpdateRental(c.Request.Context(), middleware.CurrentIdentity(c), id, req)
	if err != nil {
		var verr *booking.ValidationError
		switch {
		case errors.Is(err, booking.ErrNotFound):
			h.NotFound(c)
		case errors.As(err, &verr):
			h.flash.Error(c, verr.Error())
			c.Redirect(http.StatusFound, profilePath)
		default:
			h.serverError(c, err)
		}
		return
	}

	h.flash.Success(c, "Rental updated successfully.")
	c.Redirect(http.StatusFound, profilePath)
}

func (h *Handler) Profile(c *gin.Context) {
	var q booking.ProfileQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(err)
	}
	identity := middleware.CurrentIdentity(c)
	p := page{Title: "My rentals", Query: q}

	rentals, err := h.booking.Profile(c.Request.Context(), identity, q)
	if errors.Is(err, booking.ErrValidation) {
		p.Error = "Invalid date filter, showing all rentals."
		p.Query = booking.ProfileQuery{}
		rentals, err = h.booking.Profile(c.Request.Context(), identity, p.Query)
	}
	if err != nil {
		h.serverError(c, err)
		return
	}

	p.Rentals = rentals
	h.render(c, http.StatusOK, "profile.html", p)
}

func (h *Handler) startSession(c *gin.Context, user *domain.User) error {
	token, err := h.auth.StartSession(user)
	if err != nil {
		return err
	}
	h.session.Set(c, token)
	return nil
}

func (h *Handler) render(c *gin.Context, status int, name string, p page) {
	p.User = middleware.CurrentIdentity(c)
	p.Flashes = h.flash.Pop(c)
	c.HTML(status, name, p)
}

func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.NotFound(c)
		return 0, false
	}
	return id, true
}

func (h *Handler) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "error.html", page{Title: "Not found"})
}

func (h *Handler) serverError(c *gin.Context, err error) {
	_ = c.Error(err)
	h.render(c, http.StatusInternalServerError, "error.html", page{Title: "Something went wrong"})
}

// safeNext only follows local absolute paths.
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return homePath
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return homePath
	}
	return next
}

func signupMessages(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for field, tag := range fields {
		switch field + ":" + tag {
		case "username:required":
			out["username"] = "This field is required."
		case "username:max", "username:username":
			out["username"] = "Enter a valid username of at most 150 letters, digits and @/./+/-/_ characters."
		case "password:required":
			out["password"] = "This field is required."
		case "password:min":
			out["password"] = "This password is too short. It must contain at least 8 characters."
		case "password2:mismatch":
			out["password2"] = "The two password fields didn't match."
		default:
			out[field] = "Invalid value."
		}
	}
	return out
}

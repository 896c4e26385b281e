package booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dgkngk/uav-rental-app/internal/middleware"
	"github.com/dgkngk/uav-rental-app/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterProtectedRoutes expects token auth on the group.
func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.POST("/uavs/:id/rent/", h.Rent)

	rentals := protected.Group("/rentals")
	{
		rentals.GET("/", h.Profile)
		rentals.PUT("/:id/", h.UpdateRental)
		rentals.POST("/:id/return/", h.Return)
	}
}

// RegisterAdminRoutes expects token auth and AdminOnly on the group.
func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.GET("/rentals/", h.ListAll)
}

func (h *Handler) Rent(c *gin.Context) {
	id, ok := parseID(c, "UAV not found")
	if !ok {
		return
	}

	var req RentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	rental, err := h.service.Rent(c.Request.Context(), middleware.CurrentIdentity(c), id, req)
	if err != nil {
		writeError(c, err, "UAV not found")
		return
	}
	c.JSON(http.StatusCreated, rental)
}

func (h *Handler) Return(c *gin.Context) {
	id, ok := parseID(c, "Rental not found")
	if !ok {
		return
	}

	rental, err := h.service.Return(c.Request.Context(), middleware.CurrentIdentity(c), id)
	if err != nil {
		writeError(c, err, "Rental not found")
		return
	}
	c.JSON(http.StatusOK, rental)
}

func (h *Handler) UpdateRental(c *gin.Context) {
	id, ok := parseID(c, "Rental not found")
	if !ok {
		return
	}

	var req RentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	rental, err := h.service.UpdateRental(c.Request.Context(), middleware.CurrentIdentity(c), id, req)
	if err != nil {
		writeError(c, err, "Rental not found")
		return
	}
	c.JSON(http.StatusOK, rental)
}

func (h *Handler) Profile(c *gin.Context) {
	var q ProfileQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query")
		return
	}

	rentals, err := h.service.Profile(c.Request.Context(), middleware.CurrentIdentity(c), q)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, rentals)
}

func (h *Handler) ListAll(c *gin.Context) {
	var q AdminListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query")
		return
	}

	rentals, err := h.service.ListAll(c.Request.Context(), middleware.CurrentIdentity(c), q)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, rentals)
}

func parseID(c *gin.Context, notFound string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", notFound)
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error, notFound string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), verr.Fields)
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", notFound)
	case errors.Is(err, ErrAlreadyRented):
		response.Error(c, http.StatusConflict, "ALREADY_RENTED", "This UAV is already rented")
	case errors.Is(err, ErrUnauthenticated):
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process rental request")
	}
}

package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dgkngk/uav-rental-app/internal/domain"
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

// RegisterPublicRoutes mounts the open availability feed.
func (h *Handler) RegisterPublicRoutes(api *gin.RouterGroup) {
	api.GET("/uavs-json/", h.AvailableJSON)
}

// RegisterProtectedRoutes expects token auth on the group.
func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.GET("/available-uavs/", h.Available)
}

// RegisterResourceRoutes expects optional token auth on the group; writes are checked per request.
func (h *Handler) RegisterResourceRoutes(rg *gin.RouterGroup) {
	uavs := rg.Group("/uavs")
	{
		uavs.GET("/", h.List)
		uavs.POST("/", h.Create)
		uavs.GET("/:id/", h.Get)
		uavs.PUT("/:id/", h.Replace)
		uavs.PATCH("/:id/", h.Patch)
		uavs.DELETE("/:id/", h.Delete)
	}
}

// FilterFromQuery reads brand, model, category and weight from the query string.
func FilterFromQuery(c *gin.Context) domain.EquipmentFilter {
	return domain.EquipmentFilter{
		Brand:    c.Query("brand"),
		Model:    c.Query("model"),
		Category: c.Query("category"),
		Weight:   c.Query("weight"),
	}
}

func (h *Handler) Available(c *gin.Context) {
	list, err := h.service.Available(c.Request.Context(), FilterFromQuery(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// AvailableJSON serves the same data as Available without authentication.
func (h *Handler) AvailableJSON(c *gin.Context) {
	h.Available(c)
}

func (h *Handler) List(c *gin.Context) {
	f := FilterFromQuery(c)
	if v := c.Query("rented"); v != "" {
		rented, err := strconv.ParseBool(v)
		if err != nil {
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid filter",
				map[string]string{"rented": "bool"})
			return
		}
		f.Rented = &rented
	}

	list, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	e, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) Create(c *gin.Context) {
	var req EquipmentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	e, err := h.service.Create(c.Request.Context(), middleware.CurrentIdentity(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *Handler) Replace(c *gin.Context) { h.update(c, false) }

func (h *Handler) Patch(c *gin.Context) { h.update(c, true) }

func (h *Handler) update(c *gin.Context, partial bool) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req EquipmentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	e, err := h.service.Update(c.Request.Context(), middleware.CurrentIdentity(c), id, req, partial)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "UAV not found")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid equipment data", verr.Fields)
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "UAV not found")
	case errors.Is(err, ErrUnauthenticated):
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Only administrators can change equipment")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process equipment request")
	}
}

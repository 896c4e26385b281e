package app

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dgkngk/uav-rental-app/internal/config"
	"github.com/dgkngk/uav-rental-app/internal/database"
	"github.com/dgkngk/uav-rental-app/internal/events"
	"github.com/dgkngk/uav-rental-app/internal/metrics"
	"github.com/dgkngk/uav-rental-app/internal/middleware"
	"github.com/dgkngk/uav-rental-app/internal/modules/auth"
	"github.com/dgkngk/uav-rental-app/internal/modules/booking"
	"github.com/dgkngk/uav-rental-app/internal/modules/catalog"
	"github.com/dgkngk/uav-rental-app/internal/modules/web"
	"github.com/dgkngk/uav-rental-app/internal/pkg/jwt"
	"github.com/dgkngk/uav-rental-app/internal/pkg/response"
	"github.com/dgkngk/uav-rental-app/internal/pkg/session"
	"github.com/dgkngk/uav-rental-app/internal/repository"
)

const (
	sessionCookieName = "sessionid"
	flashCookieName   = "messages"
)

// Deps are the process-wide collaborators. Metrics and Events may be nil.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Log     *zap.Logger
	Metrics *metrics.Metrics
	Events  *events.Publisher
}

// NewRouter wires repositories, services and handlers into one engine serving
// both the HTML pages and the JSON API.
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	userRepo := repository.NewUserRepository(d.DB)
	tokenRepo := repository.NewAPITokenRepository(d.DB)
	equipmentRepo := repository.NewEquipmentRepository(d.DB)
	rentalRepo := repository.NewRentalRepository(d.DB)

	var publisher booking.EventPublisher
	if d.Events != nil {
		publisher = d.Events
	}
	var recorder booking.Recorder
	if d.Metrics != nil {
		recorder = d.Metrics
	}

	sessions := jwt.New(cfg.JWTSecret, cfg.SessionTTL)
	authService := auth.NewService(userRepo, tokenRepo, sessions, cfg.APITokenPepper, cfg.APITokenTTL, log.Named("auth"))
	catalogService := catalog.NewService(equipmentRepo, log.Named("catalog"))
	bookingService := booking.NewService(rentalRepo, equipmentRepo, publisher, recorder, log.Named("booking"))

	sessionCookie := session.NewCookie(sessionCookieName, cfg.SessionTTL, cfg.CookieSecure, cfg.CookieSameSite)
	flash := session.NewFlashStore(session.NewCookie(flashCookieName, 0, cfg.CookieSecure, cfg.CookieSameSite), []byte(cfg.JWTSecret))

	authHandler := auth.NewHandler(authService, sessionCookie)
	catalogHandler := catalog.NewHandler(catalogService)
	bookingHandler := booking.NewHandler(bookingService)
	webHandler := web.NewHandler(authService, catalogService, bookingService, sessionCookie, flash)

	r := gin.New()
	r.SetHTMLTemplate(web.Templates())
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorLogger(log))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
		r.GET("/metrics", d.Metrics.Handler())
	}
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.GET("/healthz", healthz(d.DB, d.Events))

	// web
	webHandler.RegisterPublicRoutes(r.Group("", middleware.OptionalSession(authService, sessionCookie)))
	webHandler.RegisterProtectedRoutes(r.Group("", middleware.SessionAuth(authService, sessionCookie)))

	// api
	api := r.Group("/api")
	authHandler.RegisterPublicRoutes(api)
	catalogHandler.RegisterPublicRoutes(api)
	catalogHandler.RegisterResourceRoutes(api.Group("", middleware.OptionalTokenAuth(authService)))

	protected := api.Group("", middleware.TokenAuth(authService))
	catalogHandler.RegisterProtectedRoutes(protected)
	bookingHandler.RegisterProtectedRoutes(protected)

	admin := api.Group("/admin", middleware.TokenAuth(authService), middleware.AdminOnly())
	bookingHandler.RegisterAdminRoutes(admin)

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		webHandler.NotFound(c)
	})

	return r
}

func healthz(db *gorm.DB, broker *events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		healthy := true
		checks := gin.H{"database": "ok", "broker": "disabled"}

		if err := database.Ping(c.Request.Context(), db); err != nil {
			_ = c.Error(err)
			healthy = false
			checks["database"] = "down"
		}
		if broker != nil {
			checks["broker"] = "ok"
			if !broker.IsHealthy() {
				healthy = false
				checks["broker"] = "down"
			}
		}

		if !healthy {
			response.ErrorWithDetails(c, http.StatusServiceUnavailable, "UNHEALTHY", "Dependency check failed", checks)
			return
		}
		response.Success(c, http.StatusOK, checks)
	}
}

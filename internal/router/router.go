package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medidesk/clinic-api/internal/config"
	"github.com/medidesk/clinic-api/internal/handler"
	accountHandler "github.com/medidesk/clinic-api/internal/handler/account"
	historyHandler "github.com/medidesk/clinic-api/internal/handler/history"
	patientHandler "github.com/medidesk/clinic-api/internal/handler/patient"
	visitHandler "github.com/medidesk/clinic-api/internal/handler/visit"
	"github.com/medidesk/clinic-api/internal/middleware"
	"github.com/medidesk/clinic-api/internal/model"
	"github.com/medidesk/clinic-api/pkg/metrics"
)

type Router struct {
	engine *gin.Engine

	authMiddleware *middleware.AuthMiddleware
	account        *accountHandler.Handler
	patient        *patientHandler.Handler
	visit          *visitHandler.Handler
	history        *historyHandler.Handler
	health         *handler.HealthHandler
}

func NewRouter(
	cfg *config.Config,
	m *metrics.Metrics,
	authMiddleware *middleware.AuthMiddleware,
	account *accountHandler.Handler,
	patient *patientHandler.Handler,
	visit *visitHandler.Handler,
	history *historyHandler.Handler,
	health *handler.HealthHandler,
) *Router {
	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger())
	engine.Use(middleware.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.Metrics(m))
	engine.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		})
		engine.Use(limiter.RateLimit())
	}

	return &Router{
		engine:         engine,
		authMiddleware: authMiddleware,
		account:        account,
		patient:        patient,
		visit:          visit,
		history:        history,
		health:         health,
	}
}

func (r *Router) Setup() {
	r.engine.GET("/healthz", r.health.Health)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.engine.Group("/api/v1")
	r.account.RegisterRoutes(v1)

	// Both roles see the same record shape; writes are split per portal.
	authed := v1.Group("")
	authed.Use(r.authMiddleware.Authenticate())

	receptionist := authed.Group("")
	receptionist.Use(r.authMiddleware.RequireRole(model.RoleReceptionist))

	doctor := authed.Group("")
	doctor.Use(r.authMiddleware.RequireRole(model.RoleDoctor))

	r.patient.RegisterRoutes(authed, receptionist)
	r.visit.RegisterRoutes(doctor)
	r.history.RegisterRoutes(authed)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

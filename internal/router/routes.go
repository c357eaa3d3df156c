package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/octobees/leadscan/internal/auth"
	"github.com/octobees/leadscan/internal/config"
	"github.com/octobees/leadscan/internal/handler"
	middlewarepkg "github.com/octobees/leadscan/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Health *handler.HealthHandler
	Auth   *handler.AuthHandler
	Users  *handler.UserAdminHandler
	Leads  *handler.LeadsHandler
	Admin  *handler.AdminHandler
	Enrich *handler.EnrichHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", handlers.Health.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/auth/login", handlers.Auth.Login)
	e.POST("/enrich-result", handlers.Enrich.SaveResult, middlewarepkg.WorkerToken(cfg.Worker.CallbackToken))

	secured := e.Group("")
	secured.Use(middlewarepkg.JWT(jwtManager))
	secured.GET("/auth/me", handlers.Auth.Me)

	intake := middlewarepkg.IntakeRateLimiter(cfg.RateLimitIntake)
	leads := secured.Group("/leads")
	leads.POST("", handlers.Leads.Create, intake)
	leads.GET("", handlers.Leads.List)
	leads.GET("/export", handlers.Leads.Export)
	leads.GET("/:id", handlers.Leads.Get)
	leads.PUT("/:id", handlers.Leads.Update, intake)
	leads.GET("/:id/score", handlers.Leads.Score)
	leads.POST("/:id/enrich", handlers.Leads.Enrich, intake)
	leads.PATCH("/:id/review", handlers.Leads.Review)

	admin := secured.Group("/admin", middlewarepkg.RequireRole(auth.RoleAdmin))
	admin.POST("/upload-csv", handlers.Admin.UploadCSV)
	admin.POST("/process-batch", handlers.Admin.ProcessBatch)
	admin.POST("/enrich-batch", handlers.Admin.EnrichBatch)
	admin.POST("/dispatch-alerts", handlers.Admin.DispatchAlerts)
	admin.POST("/users", handlers.Users.Create)
}

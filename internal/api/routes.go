// Package api assembles the HTTP router.
package api

import (
	"time"

	"task-matrix/internal/config"
	"task-matrix/internal/handlers"
	"task-matrix/internal/middleware"
	"task-matrix/internal/monitoring"
	"task-matrix/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Dependencies struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Tasks      services.TaskService
	Statistics services.StatisticsService
	Auth       services.AuthService
	Register   services.RegisterService
	Monitor    *monitoring.Monitor

	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *middleware.RateLimiter
}

// corsConfig allows any origin without credentials when none are
// configured or "*" is listed.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			origins = nil
			break
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func NewRouter(d Dependencies) *gin.Engine {
	if d.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryWithLog(d.Logger))
	router.Use(middleware.RequestLogger(d.Logger))
	router.Use(cors.New(corsConfig(d.Config.Server.AllowedOrigins)))
	if d.Monitor != nil {
		router.Use(d.Monitor.Middleware())
		router.GET("/health", d.Monitor.HealthHandler())
		router.GET("/ready", d.Monitor.ReadinessHandler())
		router.GET("/live", d.Monitor.LivenessHandler())
		router.GET("/metrics", d.Monitor.MetricsHandler())
	}

	v1 := router.Group("/api/v1")
	if d.RateLimiter != nil {
		v1.Use(d.RateLimiter.Middleware())
	}

	auth := v1.Group("/auth")
	{
		auth.POST("/register", handlers.NewRegisterHandler(d.Register).Registration)
		auth.POST("/token", handlers.NewAuthHandler(d.Auth).Token)
		auth.POST("/refresh", handlers.NewRefreshHandler(d.Auth).Refresh)
		auth.POST("/logout", handlers.NewLogoutHandler(d.Auth).Logout)
	}

	th := handlers.NewTaskHandler(d.Tasks)
	dh := handlers.NewDashboardHandler(d.Tasks, d.Statistics)

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(d.Auth))
	{
		protected.GET("/tasks", th.ListTasks)
		protected.POST("/tasks", th.CreateTask)
		protected.POST("/tasks/quick", th.QuickCreateTask)
		protected.POST("/tasks/suggest", th.SuggestScores)
		protected.GET("/tasks/:id", th.GetTask)
		protected.PUT("/tasks/:id", th.UpdateTask)
		protected.DELETE("/tasks/:id", th.DeleteTask)
		protected.POST("/tasks/:id/toggle", th.ToggleStatus)
		protected.POST("/tasks/:id/quadrant", th.MoveToQuadrant)

		protected.GET("/dashboard", dh.Dashboard)
		protected.GET("/recommendation", dh.Recommendation)
		protected.GET("/alerts", dh.Alerts)
		protected.GET("/attention", dh.Attention)
		protected.GET("/statistics", dh.Statistics)
	}

	return router
}

package server

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jimdaga/carspot/internal/config"
	"github.com/jimdaga/carspot/internal/geocode"
	"github.com/jimdaga/carspot/internal/health"
	"github.com/jimdaga/carspot/internal/ledger"
)

// NewRouter builds the gin engine with the dashboard page, the sightings
// API and the health endpoint.
func NewRouter(cfg *config.Config, l *ledger.Ledger, geo *geocode.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("carspot_session", store))

	r.GET("/", DashboardHandler(l, geo))
	r.GET("/health", gin.WrapF(health.Handler))

	api := r.Group("/api")
	{
		api.GET("/state", StateHandler(l, geo))
		api.POST("/sightings", RecordSightingHandler(l))
		api.DELETE("/sightings/:id", DeleteSightingHandler(l))
		api.POST("/reset", ResetHandler(l))
	}

	return r
}

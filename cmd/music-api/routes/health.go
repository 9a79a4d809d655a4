package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/gin-gonic/gin"
	"github.com/stitchmusic/music-api/pkg/config"
	"github.com/stitchmusic/music-api/pkg/types"
)

const healthProbeTimeout = 2 * time.Second

// HealthRoutes registers the health probe. cache may be nil when Redis is disabled.
func HealthRoutes(router gin.IRoutes, app *config.AppConfig, db Pinger, cache Pinger) {
	router.GET("/health", handleHealth(app, db, cache))
}

// @Summary Service health
// @Tags health
// @Produce json
// @Success 200 {object} types.HealthResponse
// @Failure 503 {object} types.HealthResponse
// @Router /health [get]
func handleHealth(app *config.AppConfig, db Pinger, cache Pinger) gin.HandlerFunc {
	version := app.Version
	if v, err := semver.NewVersion(app.Version); err == nil {
		version = v.String()
	}

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeTimeout)
		defer cancel()

		status, code := "healthy", http.StatusOK
		services := map[string]string{
			"database": probe(ctx, db),
			"redis":    "disabled",
		}
		if cache != nil {
			services["redis"] = probe(ctx, cache)
		}

		if services["database"] != "up" {
			status, code = "unhealthy", http.StatusServiceUnavailable
		} else if services["redis"] == "down" {
			status = "degraded"
		}

		c.JSON(code, types.HealthResponse{
			Status:      status,
			Environment: app.Environment,
			Version:     version,
			Services:    services,
			Time:        time.Now().UTC(),
		})
	}
}

func probe(ctx context.Context, p Pinger) string {
	if err := p.Ping(ctx); err != nil {
		return "down"
	}
	return "up"
}

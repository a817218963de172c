package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justanothervoicechat/server-go/internal/adapters/gamews"
	"github.com/justanothervoicechat/server-go/internal/app"
	"github.com/justanothervoicechat/server-go/internal/config"
	"github.com/rs/zerolog/log"
)

// SecretMiddleware rejects requests that do not carry the shared secret the
// embedding game server is configured with. An empty secret disables the
// check (local development).
func SecretMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret != "" && c.GetHeader("X-Voice-Secret") != secret {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bad secret"})
			return
		}
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator, ctl *gamews.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": orch.Clients.Count()})
	})

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")

	api := r.Group("/api")
	api.Use(SecretMiddleware(cfg.Secret))

	api.GET("/clients", handleClients(orch))
	api.GET("/channels", handleChannels(orch))
	api.GET("/calls", handleCalls(orch))
	api.GET("/settings", handleGetSettings(orch))
	api.PUT("/settings", handlePutSettings(orch))

	api.GET("/ws/game", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("remote", c.Request.RemoteAddr).Msg("game ws endpoint hit")
		ctl.HandleGame(ctx, c)
	})

	return r
}

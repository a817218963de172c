package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justanothervoicechat/server-go/internal/app"
	"github.com/justanothervoicechat/server-go/internal/domain"
	"github.com/samber/lo"
)

type clientView struct {
	Client  domain.Client      `json:"client"`
	Channel domain.ChannelName `json:"channel,omitempty"`
}

func handleClients(orch *app.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		views := lo.Map(orch.Clients.All(), func(cl domain.Client, _ int) clientView {
			ch, _ := orch.Channels.ChannelOf(cl.Handle)
			return clientView{Client: cl, Channel: ch}
		})
		c.JSON(http.StatusOK, gin.H{"clients": views})
	}
}

func handleChannels(orch *app.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"channels": orch.Channels.Snapshot()})
	}
}

func handleCalls(orch *app.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"calls": orch.Calls.Snapshot()})
	}
}

func handleGetSettings(orch *app.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, orch.Settings())
	}
}

func handlePutSettings(orch *app.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req app.PlaybackSettings
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid settings"})
			return
		}
		if err := orch.UpdateSettings(req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, orch.Settings())
	}
}

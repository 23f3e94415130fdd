package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/state"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/tasks"
	"github.com/gin-gonic/gin"
)

func NewHandler(publisher PublisherInterface, seen SeenCounter, version string, dryRun bool, pollers ...PollStatsSource) *Handler {
	return &Handler{
		publisher: publisher,
		pollers:   pollers,
		seen:      seen,
		version:   version,
		dryRun:    dryRun,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
		"dry_run":   h.dryRun,
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	loops := make([]tasks.PollStats, 0, len(h.pollers))
	for _, p := range h.pollers {
		loops = append(loops, p.Stats())
	}

	posts, comments := h.seen.Counts()

	c.JSON(http.StatusOK, gin.H{
		"loops": loops,
		"seen": gin.H{
			"posts":    posts,
			"comments": comments,
		},
	})
}

func (h *Handler) APIGetProgress(c *gin.Context) {
	progress, err := h.publisher.Progress(c.Request.Context())
	if err != nil {
		slog.Error("Failed to load progress", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load progress"})
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *Handler) APISetProgress(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Expected JSON body with season and episode"})
		return
	}

	progress := state.Progress{Season: *req.Season, Episode: *req.Episode}
	if err := h.publisher.SetProgress(c.Request.Context(), progress); err != nil {
		if errors.Is(err, state.ErrInvalidProgress) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Error("Failed to set progress", "progress", progress.String(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save progress"})
		return
	}

	c.JSON(http.StatusOK, progress)
}

func (h *Handler) APIPublish(c *gin.Context) {
	result, err := h.publisher.PublishNext(c.Request.Context())
	if err != nil {
		slog.Error("Manual publish failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

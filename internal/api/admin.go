package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/episode"
)

// Reconcile runs a reconciliation pass on demand. With ?episode_id= the
// pass targets a single episode; otherwise the whole due-set is swept.
// Per-episode failures land in the summary's error list, so the response
// is 200 either way.
func (r *Router) Reconcile(c *gin.Context) {
	raw := c.Query("episode_id")
	if raw == "" {
		summary := r.reconciler.ReconcileAll(c.Request.Context())
		c.JSON(http.StatusOK, summary)
		return
	}

	episodeID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid episode_id"})
		return
	}

	summary := r.reconciler.ReconcileOne(c.Request.Context(), episodeID)
	c.JSON(http.StatusOK, summary)
}

// TriggerGeneration starts a generation attempt for the podcast.
func (r *Router) TriggerGeneration(c *gin.Context) {
	podcastID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid podcast id"})
		return
	}

	attempt, err := r.triggerSvc.Trigger(c.Request.Context(), podcastID, episode.TriggerManualAdmin)
	if err != nil && attempt == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{
		"attempt_id": attempt.ID,
		"outcome":    attempt.Outcome,
	}
	if attempt.EpisodeID != nil {
		resp["episode_id"] = *attempt.EpisodeID
	}
	if err != nil {
		resp["error"] = err.Error()
		c.JSON(http.StatusBadGateway, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

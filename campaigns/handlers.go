package campaigns

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"storyforge/config"
)

// ScheduleChannel is the pub/sub channel the scheduler subscribes to for
// on-demand campaign runs.
const ScheduleChannel = "campaign_scheduled"

type Handler struct {
	Config *config.Config
	Redis  *redis.Client
	Log    *logrus.Logger
}

func NewHandler(cfg *config.Config, rdb *redis.Client, log *logrus.Logger) *Handler {
	return &Handler{Config: cfg, Redis: rdb, Log: log}
}

// CampaignScheduledMessage asks the scheduler to run one campaign now.
type CampaignScheduledMessage struct {
	CampaignID string `json:"campaign_id"`
	Count      int    `json:"count"`
	Identity   string `json:"identity"`
}

type ScheduleRequest struct {
	Count int `json:"count" binding:"omitempty,min=1,max=10"`
}

// ListCampaigns returns the campaign catalog.
func (h *Handler) ListCampaigns(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"campaigns":      h.Config.Campaigns,
		"video_settings": h.Config.VideoSettings,
	})
}

// GetCampaign returns one campaign by id.
func (h *Handler) GetCampaign(c *gin.Context) {
	campaign, ok := h.Config.CampaignByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// ScheduleCampaign publishes a run request for one campaign. The scheduler
// picks it up and enqueues the videos.
func (h *Handler) ScheduleCampaign(c *gin.Context) {
	campaign, ok := h.Config.CampaignByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}
	if !campaign.Enabled {
		c.JSON(http.StatusConflict, gin.H{"error": "Campaign is disabled"})
		return
	}

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Count == 0 {
		req.Count = 1
	}

	identity := c.GetHeader("X-User-ID")
	if identity == "" {
		identity = "anonymous"
	}

	message := CampaignScheduledMessage{
		CampaignID: campaign.ID,
		Count:      req.Count,
		Identity:   identity,
	}
	payload, err := json.Marshal(message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule campaign"})
		return
	}
	if err := h.Redis.Publish(c.Request.Context(), ScheduleChannel, payload).Err(); err != nil {
		h.Log.WithError(err).Error("error publishing schedule message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule campaign"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"campaign_id": campaign.ID,
		"count":       req.Count,
		"status":      "scheduled",
	})
}

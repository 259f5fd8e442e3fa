package generations

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"storyforge/config"
	"storyforge/models"
	"storyforge/output"
	"storyforge/tasks"
	"storyforge/usage"
)

type Handler struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Config  *config.Config
	Limiter *usage.Limiter
	Log     *logrus.Logger
}

func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config, log *logrus.Logger) *Handler {
	return &Handler{
		DB:      db,
		Redis:   rdb,
		Config:  cfg,
		Limiter: usage.NewLimiter(&usage.GormStore{DB: db}, cfg.DailyStoryLimit, cfg.AdminUsers, log),
		Log:     log,
	}
}

// identity resolves who is asking. There is no account system; callers
// self-identify through a header and the limiter keys on that.
func identity(c *gin.Context) string {
	if id := c.GetHeader("X-User-ID"); id != "" {
		return id
	}
	return "anonymous"
}

type CreateGenerationRequest struct {
	CampaignID string `json:"campaign_id" binding:"required"`
	Topic      string `json:"topic"`
	Count      int    `json:"count" binding:"omitempty,min=1,max=10"`
}

// CreateGeneration validates the request against the daily limit, creates
// the video rows and enqueues them for the worker.
func (h *Handler) CreateGeneration(c *gin.Context) {
	var req CreateGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Count == 0 {
		req.Count = 1
	}

	campaign, ok := h.Config.CampaignByID(req.CampaignID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}
	if !campaign.Enabled {
		c.JSON(http.StatusConflict, gin.H{"error": "Campaign is disabled"})
		return
	}

	who := identity(c)
	now := time.Now()
	_, remaining := h.Limiter.Allow(who, now)
	if !h.Limiter.IsAdmin(who) && remaining < req.Count {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":     "Daily story limit reached",
			"limit":     h.Config.DailyStoryLimit,
			"remaining": remaining,
		})
		return
	}

	runDate := now.Format(output.RunDateFormat)
	videos, err := h.createVideos(campaign.ID, req.Topic, who, runDate, req.Count)
	if err != nil {
		h.Log.WithError(err).Error("failed to create generation rows")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create generation"})
		return
	}

	for _, video := range videos {
		payload, err := tasks.Marshal(tasks.GeneratePayload{VideoID: video.ID})
		if err != nil {
			h.Log.WithError(err).Error("failed to marshal task")
			continue
		}
		if err := h.Redis.LPush(c.Request.Context(), tasks.QueueVideoGenerate, payload).Err(); err != nil {
			h.Log.WithError(err).WithField("video_id", video.ID).Error("failed to enqueue video")
		}
	}

	c.JSON(http.StatusAccepted, gin.H{"videos": videos})
}

// createVideos allocates contiguous per-day indices so output folder names
// stay stable across requests.
func (h *Handler) createVideos(campaignID, topic, who, runDate string, count int) ([]models.Video, error) {
	var videos []models.Video
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Video{}).Where("run_date = ?", runDate).Count(&existing).Error; err != nil {
			return err
		}
		for i := 0; i < count; i++ {
			video := models.Video{
				CampaignID: campaignID,
				VideoIndex: int(existing) + i + 1,
				RunDate:    runDate,
				Identity:   who,
				Topic:      topic,
				Status:     models.StatusPending,
			}
			if err := tx.Create(&video).Error; err != nil {
				return err
			}
			videos = append(videos, video)
		}
		return nil
	})
	return videos, err
}

// ListGenerations returns the caller's videos, optionally filtered by run
// date (YYYYMMDD).
func (h *Handler) ListGenerations(c *gin.Context) {
	query := h.DB.Where("identity = ?", identity(c))
	if date := c.Query("date"); date != "" {
		query = query.Where("run_date = ?", date)
	}

	var videos []models.Video
	if err := query.Order("id desc").Limit(100).Find(&videos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve generations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

// GetGeneration returns one of the caller's videos.
func (h *Handler) GetGeneration(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid generation ID"})
		return
	}

	var video models.Video
	err = h.DB.First(&video, "id = ? AND identity = ?", id, identity(c)).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Generation not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	default:
		c.JSON(http.StatusOK, video)
	}
}

// GetUsage reports the caller's remaining daily quota.
func (h *Handler) GetUsage(c *gin.Context) {
	who := identity(c)
	remaining := h.Limiter.Remaining(who, time.Now())
	c.JSON(http.StatusOK, gin.H{
		"identity":  who,
		"limit":     h.Config.DailyStoryLimit,
		"remaining": remaining,
		"used":      h.Config.DailyStoryLimit - remaining,
		"is_admin":  h.Limiter.IsAdmin(who),
	})
}

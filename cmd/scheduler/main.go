package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"storyforge/campaigns"
	"storyforge/config"
	"storyforge/internal/platform"
	"storyforge/models"
	"storyforge/output"
	"storyforge/tasks"
)

// defaultCron runs the daily batch at 6am local time.
const defaultCron = "0 6 * * *"

// schedulerIdentity owns rows created by the daily cron.
const schedulerIdentity = "scheduler"

type scheduler struct {
	cfg *config.Config
	db  *gorm.DB
	rdb *redis.Client
	log *logrus.Logger
}

func main() {
	log := platform.NewLogger("scheduler")

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	db, err := platform.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	rdb := platform.NewRedisClient(cfg.RedisURL)

	s := &scheduler{cfg: cfg, db: db, rdb: rdb, log: log}
	ctx := context.Background()

	spec := os.Getenv("SCHEDULE_CRON")
	if spec == "" {
		spec = defaultCron
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.runDaily(ctx) }); err != nil {
		log.WithError(err).Fatal("invalid cron spec")
	}
	c.Start()
	defer c.Stop()

	// On-demand runs requested through the API arrive over pub/sub. Only one
	// scheduler instance should run, or requests are handled twice.
	go s.listenForScheduled(ctx)

	log.WithField("cron", spec).Info("scheduler started")
	select {}
}

// runDaily queues the configured daily batch, one video per enabled campaign
// in rotation.
func (s *scheduler) runDaily(ctx context.Context) {
	enabled := s.cfg.EnabledCampaigns()
	if len(enabled) == 0 {
		s.log.Warn("no enabled campaigns, skipping daily run")
		return
	}

	s.log.WithField("count", s.cfg.DailyVideos).Info("running daily batch")
	for i := 0; i < s.cfg.DailyVideos; i++ {
		campaign := enabled[i%len(enabled)]
		s.enqueueVideo(ctx, campaign.ID, schedulerIdentity)
	}
}

// listenForScheduled subscribes to on-demand campaign run requests.
func (s *scheduler) listenForScheduled(ctx context.Context) {
	pubsub := s.rdb.Subscribe(ctx, campaigns.ScheduleChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var message campaigns.CampaignScheduledMessage
		if err := json.Unmarshal([]byte(msg.Payload), &message); err != nil {
			s.log.WithError(err).Error("bad schedule message")
			continue
		}

		s.log.WithFields(logrus.Fields{
			"campaign": message.CampaignID,
			"count":    message.Count,
		}).Info("received on-demand campaign run")

		for i := 0; i < message.Count; i++ {
			s.enqueueVideo(ctx, message.CampaignID, message.Identity)
		}
	}
}

func (s *scheduler) enqueueVideo(ctx context.Context, campaignID, identity string) {
	runDate := time.Now().Format(output.RunDateFormat)

	var index int64
	if err := s.db.Model(&models.Video{}).Where("run_date = ?", runDate).Count(&index).Error; err != nil {
		s.log.WithError(err).Error("could not count existing videos")
		return
	}

	video := models.Video{
		CampaignID: campaignID,
		VideoIndex: int(index) + 1,
		RunDate:    runDate,
		Identity:   identity,
		Status:     models.StatusPending,
	}
	if err := s.db.Create(&video).Error; err != nil {
		s.log.WithError(err).Error("could not create video row")
		return
	}

	payload, err := tasks.Marshal(tasks.GeneratePayload{VideoID: video.ID})
	if err != nil {
		s.log.WithError(err).Error("could not marshal task")
		return
	}
	if err := s.rdb.LPush(ctx, tasks.QueueVideoGenerate, payload).Err(); err != nil {
		s.log.WithError(err).WithField("video_id", video.ID).Error("could not enqueue video")
		return
	}
	s.log.WithFields(logrus.Fields{"video_id": video.ID, "campaign": campaignID}).Info("video queued")
}

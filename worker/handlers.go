package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"storyforge/config"
	"storyforge/models"
	"storyforge/output"
	"storyforge/pipeline"
	"storyforge/tasks"
)

// HandleGenerate processes tasks from QueueVideoGenerate: story, scene media
// and upload metadata into a work dir, then chains to assembly.
func (p *Processor) HandleGenerate(ctx context.Context, payload string) error {
	var task tasks.GeneratePayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	var video models.Video
	if err := p.DB.First(&video, task.VideoID).Error; err != nil {
		return err
	}
	log := p.Log.WithField("video_id", video.ID)

	campaign, ok := p.Config.CampaignByID(video.CampaignID)
	if !ok {
		p.fail(&video, fmt.Sprintf("unknown campaign %q", video.CampaignID))
		return nil
	}

	p.DB.Model(&video).Update("status", models.StatusProcessingStory)

	org := &output.Organizer{Root: p.Config.OutputDir, RunDate: video.RunDate}
	workDir, prep, err := p.prepareAssets(ctx, org, &video, campaign)
	if err != nil {
		p.fail(&video, err.Error())
		return err
	}

	// Quota is consumed only by a successful story.
	p.Limiter.Record(video.Identity, video.CreatedAt)

	p.DB.Model(&video).Updates(map[string]interface{}{
		"title":    prep.Story.Title,
		"topic":    prep.Story.Topic,
		"work_dir": workDir,
		"status":   models.StatusPendingAssembly,
	})
	log.WithField("title", prep.Story.Title).Info("generation done, queueing assembly")

	if err := p.Enqueue(ctx, tasks.QueueVideoAssemble, tasks.AssemblePayload{VideoID: video.ID}); err != nil {
		p.fail(&video, "queue assembly: "+err.Error())
		return err
	}
	return nil
}

// prepareAssets runs the generation phase in the video's work dir. A failed
// preparation removes the work dir again so aborted videos leave nothing
// behind in the output tree.
func (p *Processor) prepareAssets(ctx context.Context, org *output.Organizer, video *models.Video, campaign config.Campaign) (string, *pipeline.Prepared, error) {
	workDir := filepath.Join(org.RunDir(), fmt.Sprintf(".work_%d", video.ID))
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return "", nil, fmt.Errorf("create work dir: %w", err)
	}

	prep, err := p.Pipeline.PrepareVideo(ctx, workDir, pipeline.Request{
		Index:    video.VideoIndex,
		Campaign: campaign,
		Topic:    video.Topic,
	})
	if err != nil {
		os.RemoveAll(workDir)
		return "", nil, err
	}
	return workDir, prep, nil
}

// HandleAssemble processes tasks from QueueVideoAssemble: composite the
// prepared scenes and place all materials in the output tree.
func (p *Processor) HandleAssemble(ctx context.Context, payload string) error {
	var task tasks.AssemblePayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	var video models.Video
	if err := p.DB.First(&video, task.VideoID).Error; err != nil {
		return err
	}
	log := p.Log.WithField("video_id", video.ID)

	prep, err := pipeline.LoadPrepared(video.WorkDir)
	if err != nil {
		p.fail(&video, err.Error())
		return err
	}

	p.DB.Model(&video).Update("status", models.StatusAssembling)

	org := &output.Organizer{Root: p.Config.OutputDir, RunDate: video.RunDate}
	outcome := p.Pipeline.FinishVideo(ctx, org, video.WorkDir, prep)

	updates := map[string]interface{}{
		"status":        statusForLabel(outcome.Label()),
		"output_dir":    outcome.OutputDir,
		"video_skipped": outcome.Skipped,
		"work_dir":      "",
	}
	if outcome.Video != nil {
		updates["video_path"] = outcome.Video.Path
	}
	if reason := failureReason(outcome); reason != "" {
		updates["failure_reason"] = reason
	}
	if err := p.DB.Model(&video).Updates(updates).Error; err != nil {
		return err
	}

	if err := os.RemoveAll(video.WorkDir); err != nil {
		log.WithError(err).Warn("could not remove work dir")
	}
	log.WithField("status", updates["status"]).Info("video finished")
	return outcome.Err
}

func (p *Processor) fail(video *models.Video, reason string) {
	p.Log.WithField("video_id", video.ID).Error(reason)
	p.DB.Model(video).Updates(map[string]interface{}{
		"status":         models.StatusFailed,
		"failure_reason": reason,
	})
}

func statusForLabel(label string) string {
	switch label {
	case output.OutcomeSuccess:
		return models.StatusComplete
	case output.OutcomePartial:
		return models.StatusPartial
	default:
		return models.StatusFailed
	}
}

func failureReason(o *pipeline.Outcome) string {
	var parts []string
	if o.Err != nil {
		parts = append(parts, o.Err.Error())
	}
	parts = append(parts, o.Issues...)
	return strings.Join(parts, "; ")
}

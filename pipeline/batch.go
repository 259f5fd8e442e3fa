package pipeline

import (
	"context"
	"fmt"
	"time"

	"storyforge/config"
	"storyforge/output"
	"storyforge/usage"
)

// BatchOptions controls one batch run.
type BatchOptions struct {
	Count      int
	CampaignID string
	Identity   string
	Limiter    *usage.Limiter
	Now        time.Time
}

// GenerateBatch produces opts.Count videos, rotating round-robin through the
// enabled campaigns (or pinned to one when CampaignID is set), and writes
// generation_results.json into the run directory. Videos denied by the
// daily limit are reported as failed without touching any API.
func (p *Pipeline) GenerateBatch(ctx context.Context, org *output.Organizer, opts BatchOptions) (*output.RunReport, error) {
	campaigns, err := p.batchCampaigns(opts.CampaignID)
	if err != nil {
		return nil, err
	}
	if opts.Count < 1 {
		opts.Count = p.Config.DailyVideos
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	report := &output.RunReport{
		RunDate:   org.RunDate,
		StartedAt: opts.Now.UTC(),
		Requested: opts.Count,
	}

	for i := 0; i < opts.Count; i++ {
		index := i + 1
		campaign := campaigns[i%len(campaigns)]

		if opts.Limiter != nil {
			if ok, _ := opts.Limiter.Allow(opts.Identity, opts.Now); !ok {
				p.Log.WithField("identity", opts.Identity).Warn("daily story limit reached, stopping batch")
				for ; index <= opts.Count; index++ {
					report.Videos = append(report.Videos, output.VideoReport{
						Index:      index,
						CampaignID: campaigns[(index-1)%len(campaigns)].ID,
						Outcome:    output.OutcomeFailed,
						Issues:     []string{"daily story limit reached"},
					})
				}
				break
			}
		}

		outcome := p.GenerateVideo(ctx, org, Request{Index: index, Campaign: campaign})
		if opts.Limiter != nil && outcome.Story != nil {
			opts.Limiter.Record(opts.Identity, opts.Now)
		}
		report.Videos = append(report.Videos, videoReport(outcome))
	}

	report.FinishedAt = time.Now().UTC()
	report.Tally()

	if err := org.WriteRunReport(report); err != nil {
		p.Log.WithError(err).Error("failed to write run report")
	}
	return report, nil
}

func (p *Pipeline) batchCampaigns(campaignID string) ([]config.Campaign, error) {
	if campaignID != "" {
		campaign, ok := p.Config.CampaignByID(campaignID)
		if !ok {
			return nil, fmt.Errorf("unknown campaign %q", campaignID)
		}
		return []config.Campaign{campaign}, nil
	}
	campaigns := p.Config.EnabledCampaigns()
	if len(campaigns) == 0 {
		return nil, fmt.Errorf("no enabled campaigns")
	}
	return campaigns, nil
}

func videoReport(o *Outcome) output.VideoReport {
	r := output.VideoReport{
		Index:        o.Request.Index,
		CampaignID:   o.Request.Campaign.ID,
		Topic:        o.Request.Topic,
		Outcome:      o.Label(),
		VideoSkipped: o.Skipped,
		OutputDir:    o.OutputDir,
		Issues:       o.Issues,
	}
	if o.Err != nil {
		r.Issues = append(r.Issues, o.Err.Error())
	}
	if o.Video != nil {
		r.VideoPath = o.Video.Path
		r.DurationSec = o.Video.Duration
	}
	return r
}

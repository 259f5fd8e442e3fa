// Package pipeline orchestrates one video end to end: story, scene media,
// upload metadata, ffmpeg assembly and final placement in the output tree.
// Failures degrade per stage; only a failed story kills a video.
package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"storyforge/assembly"
	"storyforge/config"
	"storyforge/output"
	"storyforge/processing"
)

// Pipeline holds the generation stages. Demo mode swaps in the canned story
// generator and nil media clients so the whole flow runs without credentials.
type Pipeline struct {
	Config    *config.Config
	Story     processing.StoryGenerator
	Media     *processing.MediaGenerator
	Metadata  processing.MetadataGenerator
	Assembler assembly.Assembler
	Log       *logrus.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New wires a pipeline from configuration. Validate has already guaranteed
// that an API key exists unless demo mode is on.
func New(cfg *config.Config, log *logrus.Logger) *Pipeline {
	width, height := cfg.ResolutionWH()
	vs := cfg.VideoSettings

	p := &Pipeline{
		Config: cfg,
		Log:    log,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if cfg.DemoMode {
		p.Story = processing.DemoStoryGenerator{}
		p.Media = &processing.MediaGenerator{Style: vs.Style, Width: width, Height: height, Log: log}
		p.Metadata = processing.DemoMetadataGenerator{}
	} else {
		media := processing.NewOpenAIMediaClient(cfg.OpenAIKey, vs.Voice, vs.SpeakingRate, cfg.RequestTimeout)
		p.Story = processing.NewOpenAIStoryGenerator(cfg.OpenAIKey, cfg.RequestTimeout)
		p.Media = &processing.MediaGenerator{
			Images: media,
			Speech: media,
			Style:  vs.Style,
			Width:  width,
			Height: height,
			Log:    log,
		}
		p.Metadata = processing.NewOpenAIMetadataGenerator(cfg.OpenAIKey, cfg.RequestTimeout)
	}

	sceneSec := float64(vs.LengthSeconds) / float64(vs.SceneCount)
	p.Assembler = assembly.Probe(width, height, vs.FPS, sceneSec, log)
	return p
}

// Request identifies one video to generate. Topic, Structure and Audience
// are picked at random from the configuration when left empty.
type Request struct {
	Index     int             `json:"index"`
	Campaign  config.Campaign `json:"campaign"`
	Topic     string          `json:"topic"`
	Structure string          `json:"structure"`
	Audience  string          `json:"audience"`
}

// Outcome is the result of one video generation.
type Outcome struct {
	Request   Request
	Story     *processing.Story
	Metadata  *processing.Metadata
	Assets    []processing.SceneAssets
	Video     *assembly.VideoResult
	Skipped   bool
	Issues    []string
	OutputDir string
	Err       error
}

// Label maps the outcome to a run-report label. A story failure is failed;
// any degraded stage is partial; a skipped video with everything else clean
// is still a success.
func (o *Outcome) Label() string {
	switch {
	case o.Err != nil:
		return output.OutcomeFailed
	case len(o.Issues) > 0:
		return output.OutcomePartial
	default:
		return output.OutcomeSuccess
	}
}

// GenerateVideo runs the full pipeline for one request, placing results
// under the organizer's run directory.
func (p *Pipeline) GenerateVideo(ctx context.Context, org *output.Organizer, req Request) *Outcome {
	p.fillRequest(&req)

	if err := os.MkdirAll(org.RunDir(), 0755); err != nil {
		return &Outcome{Request: req, Err: fmt.Errorf("create run dir: %w", err)}
	}
	workDir, err := os.MkdirTemp(org.RunDir(), ".work_")
	if err != nil {
		return &Outcome{Request: req, Err: fmt.Errorf("create work dir: %w", err)}
	}
	defer os.RemoveAll(workDir)

	prep, err := p.PrepareVideo(ctx, workDir, req)
	if err != nil {
		return &Outcome{Request: req, Err: err}
	}
	return p.FinishVideo(ctx, org, workDir, prep)
}

func (p *Pipeline) fillRequest(req *Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if req.Topic == "" && len(req.Campaign.Topics) > 0 {
		req.Topic = req.Campaign.Topics[p.rng.Intn(len(req.Campaign.Topics))]
	}
	if req.Structure == "" {
		req.Structure = p.Config.StoryStructures[p.rng.Intn(len(p.Config.StoryStructures))]
	}
	if req.Audience == "" {
		req.Audience = p.Config.TargetAudiences[p.rng.Intn(len(p.Config.TargetAudiences))]
	}
}

// generateStory tries the story twice before giving up. The story is the
// one stage with no fallback.
func (p *Pipeline) generateStory(ctx context.Context, req Request) (*processing.Story, error) {
	sreq := processing.StoryRequest{
		Topic:        req.Topic,
		CampaignName: req.Campaign.Name,
		Audience:     req.Audience,
		Structure:    req.Structure,
		SceneCount:   p.Config.VideoSettings.SceneCount,
	}
	story, err := p.Story.GenerateStory(ctx, sreq)
	if err != nil {
		p.Log.WithError(err).Warn("story generation failed, retrying once")
		story, err = p.Story.GenerateStory(ctx, sreq)
	}
	return story, err
}

// assembleVideo composites the scenes. ErrUnavailable means skip; any other
// error is a degradation reported through the issues list.
func (p *Pipeline) assembleVideo(ctx context.Context, workDir, fileName string, assets []processing.SceneAssets) (*assembly.VideoResult, bool, []string) {
	outPath := filepath.Join(workDir, fileName)
	video, err := p.Assembler.Assemble(ctx, assets, outPath)
	switch {
	case err == assembly.ErrUnavailable:
		p.Log.Info("assembly unavailable, saving materials without a video")
		return nil, true, nil
	case err != nil:
		p.Log.WithError(err).Error("video assembly failed")
		return nil, false, []string{fmt.Sprintf("assembly failed: %v", err)}
	default:
		return video, false, nil
	}
}

// mediaIssues reports the degraded scenes. In demo mode placeholders and
// silence are the expected product, not a degradation.
func (p *Pipeline) mediaIssues(assets []processing.SceneAssets) []string {
	if p.Config.DemoMode {
		return nil
	}
	var issues []string
	for _, a := range assets {
		if a.ImagePlaceholder {
			issues = append(issues, fmt.Sprintf("scene %d uses a placeholder image", a.Index))
		}
		if a.Silent {
			issues = append(issues, fmt.Sprintf("scene %d has no narration audio", a.Index))
		}
	}
	return issues
}

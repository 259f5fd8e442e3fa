package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"storyforge/output"
	"storyforge/processing"
)

// preparedFile carries the generation state between the prepare and finish
// phases, so the worker can hand a video from the generate queue to the
// assemble queue through disk instead of re-running stages.
const preparedFile = "prepared.json"

// Prepared is everything produced before assembly. Asset paths point into
// the work dir it was written from.
type Prepared struct {
	Request  Request                  `json:"request"`
	Story    *processing.Story        `json:"story"`
	Metadata *processing.Metadata     `json:"metadata"`
	Assets   []processing.SceneAssets `json:"assets"`
	Issues   []string                 `json:"issues,omitempty"`
}

// PrepareVideo runs story, media and metadata generation into workDir and
// persists the state as prepared.json. Only a story failure (or an
// unwritable work dir) is fatal.
func (p *Pipeline) PrepareVideo(ctx context.Context, workDir string, req Request) (*Prepared, error) {
	p.fillRequest(&req)

	story, err := p.generateStory(ctx, req)
	if err != nil {
		return nil, err
	}
	p.Log.WithFields(map[string]interface{}{
		"campaign": req.Campaign.ID,
		"title":    story.Title,
	}).Info("story generated")

	assets, err := p.Media.GenerateSceneAssets(ctx, story.Scenes, workDir)
	if err != nil {
		return nil, err
	}

	prep := &Prepared{Request: req, Story: story, Assets: assets}
	prep.Issues = append(prep.Issues, p.mediaIssues(assets)...)

	meta, err := p.Metadata.GenerateMetadata(ctx, story)
	if err != nil {
		p.Log.WithError(err).Warn("metadata generation failed, using fallback")
		meta = processing.FallbackMetadata(story)
		prep.Issues = append(prep.Issues, "upload metadata generated from fallback template")
	}
	prep.Metadata = meta

	data, err := json.MarshalIndent(prep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal prepared state: %w", err)
	}
	if err := os.WriteFile(filepath.Join(workDir, preparedFile), data, 0644); err != nil {
		return nil, fmt.Errorf("write prepared state: %w", err)
	}
	return prep, nil
}

// LoadPrepared reads the state a previous PrepareVideo left in workDir.
func LoadPrepared(workDir string) (*Prepared, error) {
	data, err := os.ReadFile(filepath.Join(workDir, preparedFile))
	if err != nil {
		return nil, fmt.Errorf("read prepared state: %w", err)
	}
	var prep Prepared
	if err := json.Unmarshal(data, &prep); err != nil {
		return nil, fmt.Errorf("parse prepared state: %w", err)
	}
	return &prep, nil
}

// FinishVideo assembles the prepared scenes and places all materials in the
// output tree. It never returns a story-level failure; persistence problems
// surface through Outcome.Err.
func (p *Pipeline) FinishVideo(ctx context.Context, org *output.Organizer, workDir string, prep *Prepared) *Outcome {
	out := &Outcome{
		Request:  prep.Request,
		Story:    prep.Story,
		Metadata: prep.Metadata,
		Assets:   prep.Assets,
		Issues:   prep.Issues,
	}

	fileName := org.VideoFileName(prep.Request.Index, prep.Request.Campaign.ID)
	video, skipped, issues := p.assembleVideo(ctx, workDir, fileName, prep.Assets)
	out.Video = video
	out.Skipped = skipped
	out.Issues = append(out.Issues, issues...)

	dir, err := org.SaveMaterials(prep.Request.Index, prep.Request.Campaign.ID, output.Materials{
		Story:    prep.Story,
		Metadata: prep.Metadata,
		Assets:   prep.Assets,
		Video:    video,
	})
	out.OutputDir = dir
	if err != nil {
		out.Err = fmt.Errorf("save materials: %w", err)
		return out
	}
	// The work-dir copy of the video does not outlive the run; report the
	// organized destination instead.
	if out.Video != nil {
		out.Video.Path = filepath.Join(dir, fileName)
	}

	entry := p.Log.WithFields(map[string]interface{}{
		"campaign": prep.Request.Campaign.ID,
		"index":    prep.Request.Index,
		"dir":      dir,
		"label":    out.Label(),
	})
	if out.Skipped {
		entry.Info("video materials saved, compositing skipped")
	} else {
		entry.Info("video complete")
	}
	return out
}

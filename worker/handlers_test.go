package worker

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"storyforge/config"
	"storyforge/models"
	"storyforge/output"
	"storyforge/pipeline"
	"storyforge/processing"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// testProcessor wires only the pieces prepareAssets touches; no database or
// Redis connection is involved in that phase.
func testProcessor(t *testing.T) *Processor {
	t.Helper()
	t.Setenv("PATH", t.TempDir())
	cfg := config.Default()
	cfg.DemoMode = true
	cfg.OutputDir = t.TempDir()
	log := quietLogger()
	return &Processor{
		Config:   cfg,
		Pipeline: pipeline.New(cfg, log),
		Log:      log,
	}
}

type failingStoryGenerator struct{}

func (failingStoryGenerator) GenerateStory(context.Context, processing.StoryRequest) (*processing.Story, error) {
	return nil, errors.New("model unavailable")
}

func TestPrepareAssetsWritesWorkDir(t *testing.T) {
	p := testProcessor(t)
	video := &models.Video{ID: 7, VideoIndex: 1, CampaignID: "climate", RunDate: "20260824"}
	org := &output.Organizer{Root: p.Config.OutputDir, RunDate: video.RunDate}

	workDir, prep, err := p.prepareAssets(context.Background(), org, video, p.Config.Campaigns[0])
	if err != nil {
		t.Fatalf("prepareAssets: %v", err)
	}
	if workDir != filepath.Join(org.RunDir(), ".work_7") {
		t.Errorf("workDir = %q", workDir)
	}
	if _, err := os.Stat(filepath.Join(workDir, "prepared.json")); err != nil {
		t.Errorf("prepared state not written: %v", err)
	}
	if prep.Story == nil || len(prep.Assets) == 0 {
		t.Error("prepared state is incomplete")
	}
}

func TestPrepareAssetsRemovesWorkDirOnFailure(t *testing.T) {
	p := testProcessor(t)
	p.Pipeline.Story = failingStoryGenerator{}
	video := &models.Video{ID: 9, VideoIndex: 1, CampaignID: "climate", RunDate: "20260824"}
	org := &output.Organizer{Root: p.Config.OutputDir, RunDate: video.RunDate}

	_, _, err := p.prepareAssets(context.Background(), org, video, p.Config.Campaigns[0])
	if err == nil {
		t.Fatal("expected the story failure to surface")
	}
	if _, statErr := os.Stat(filepath.Join(org.RunDir(), ".work_9")); !os.IsNotExist(statErr) {
		t.Errorf("failed preparation must remove its work dir, stat err = %v", statErr)
	}
}

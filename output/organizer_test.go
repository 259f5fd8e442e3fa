package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"storyforge/assembly"
	"storyforge/processing"
)

func testStory() *processing.Story {
	return &processing.Story{
		Title:        "Solar for Every School",
		Hook:         "What if your school ran on sunshine?",
		Problem:      "Energy costs eat school budgets.",
		Solution:     "Community solar co-ops.",
		Impact:       "Cleaner air, fuller budgets.",
		CallToAction: "Ask your school board about solar.",
		Topic:        "community solar projects",
		Campaign:     "Climate Action",
		Structure:    "problem_solution",
		Audience:     "Students 13-18",
		GeneratedAt:  time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
		Scenes: []processing.Scene{
			{Index: 1, Narration: "First.", ImagePrompt: "a"},
			{Index: 2, Narration: "Second.", ImagePrompt: "b"},
		},
	}
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDeterministicNaming(t *testing.T) {
	day := time.Date(2026, 8, 24, 9, 30, 0, 0, time.UTC)
	org := NewOrganizer("/data/content", day)

	if org.RunDir() != filepath.Join("/data/content", "20260824") {
		t.Errorf("RunDir = %q", org.RunDir())
	}
	want := filepath.Join("/data/content", "20260824", "video_1_climate")
	if got := org.VideoDir(1, "climate"); got != want {
		t.Errorf("VideoDir = %q, want %q", got, want)
	}
	if got := org.VideoFileName(2, "education"); got != "education_video_2.mp4" {
		t.Errorf("VideoFileName = %q", got)
	}
}

func TestSaveMaterialsFullLayout(t *testing.T) {
	root := t.TempDir()
	work := t.TempDir()
	org := NewOrganizer(root, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC))

	assets := []processing.SceneAssets{
		{Index: 1, ImagePath: writeTemp(t, work, "scene_1.png", "png1"), AudioPath: writeTemp(t, work, "narration_1.mp3", "mp31")},
		{Index: 2, ImagePath: writeTemp(t, work, "scene_2.png", "png2"), Silent: true},
	}
	videoSrc := writeTemp(t, work, "final.mp4", "mp4-bytes")

	dir, err := org.SaveMaterials(1, "climate", Materials{
		Story:    testStory(),
		Metadata: processing.FallbackMetadata(testStory()),
		Assets:   assets,
		Video:    &assembly.VideoResult{Path: videoSrc, Duration: 41.5, Width: 1920, Height: 1080},
	})
	if err != nil {
		t.Fatalf("SaveMaterials: %v", err)
	}

	wantFiles := []string{
		"story.json",
		"youtube_metadata.json",
		"youtube_upload.txt",
		"summary.txt",
		filepath.Join("images", "scene_1.png"),
		filepath.Join("images", "scene_2.png"),
		filepath.Join("audio", "narration_1.mp3"),
		"climate_video_1.mp4",
	}
	for _, f := range wantFiles {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("missing %s: %v", f, err)
		}
	}
	// Silent scene has no narration file.
	if _, err := os.Stat(filepath.Join(dir, "audio", "narration_2.mp3")); err == nil {
		t.Error("silent scene should not produce an audio file")
	}

	var story processing.Story
	data, err := os.ReadFile(filepath.Join(dir, "story.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &story); err != nil {
		t.Fatalf("story.json is not valid JSON: %v", err)
	}
	if story.Title != "Solar for Every School" {
		t.Errorf("round-tripped title = %q", story.Title)
	}

	summary, _ := os.ReadFile(filepath.Join(dir, "summary.txt"))
	if !strings.Contains(string(summary), "climate_video_1.mp4") {
		t.Error("summary should mention the video file")
	}
}

func TestSaveMaterialsToleratesMissingPieces(t *testing.T) {
	org := NewOrganizer(t.TempDir(), time.Now())

	// Story only, no metadata, assets or video (assembly skipped, media failed).
	dir, err := org.SaveMaterials(3, "mentalhealth", Materials{Story: testStory()})
	if err != nil {
		t.Fatalf("SaveMaterials: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "story.json")); err != nil {
		t.Errorf("story.json missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "youtube_upload.txt")); err == nil {
		t.Error("no metadata should mean no upload sheet")
	}
	summary, _ := os.ReadFile(filepath.Join(dir, "summary.txt"))
	if !strings.Contains(string(summary), "not assembled") {
		t.Error("summary should note the missing video")
	}
}

func TestRunReport(t *testing.T) {
	org := NewOrganizer(t.TempDir(), time.Now())
	if err := os.MkdirAll(org.RunDir(), 0755); err != nil {
		t.Fatal(err)
	}

	report := &RunReport{
		RunDate:   org.RunDate,
		Requested: 3,
		Videos: []VideoReport{
			{Index: 1, CampaignID: "climate", Outcome: OutcomeSuccess},
			{Index: 2, CampaignID: "education", Outcome: OutcomePartial, Issues: []string{"scene 1 uses a placeholder image"}},
			{Index: 3, CampaignID: "climate", Outcome: OutcomeFailed},
		},
	}
	report.Tally()
	if report.Succeeded != 1 || report.Partial != 1 || report.Failed != 1 {
		t.Errorf("tally = %d/%d/%d", report.Succeeded, report.Partial, report.Failed)
	}

	if err := org.WriteRunReport(report); err != nil {
		t.Fatalf("WriteRunReport: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(org.RunDir(), "generation_results.json"))
	if err != nil {
		t.Fatal(err)
	}
	var restored RunReport
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if len(restored.Videos) != 3 {
		t.Errorf("restored %d videos, want 3", len(restored.Videos))
	}
}

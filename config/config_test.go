package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	cfg.DemoMode = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate in demo mode: %v", err)
	}
	if len(cfg.EnabledCampaigns()) != 4 {
		t.Errorf("expected 4 enabled campaigns, got %d", len(cfg.EnabledCampaigns()))
	}
}

func TestValidateRequiresKeyOutsideDemoMode(t *testing.T) {
	cfg := Default()
	cfg.OpenAIKey = ""
	cfg.DemoMode = false
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error without API key")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Errorf("expected *ValidationError, got %T", err)
	}

	cfg.DemoMode = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("demo mode should not require an API key: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no campaigns", func(c *Config) { c.Campaigns = nil }},
		{"all disabled", func(c *Config) {
			for i := range c.Campaigns {
				c.Campaigns[i].Enabled = false
			}
		}},
		{"duplicate ids", func(c *Config) { c.Campaigns[1].ID = c.Campaigns[0].ID }},
		{"enabled without topics", func(c *Config) { c.Campaigns[0].Topics = nil }},
		{"zero daily videos", func(c *Config) { c.DailyVideos = 0 }},
		{"scene count too low", func(c *Config) { c.VideoSettings.SceneCount = 2 }},
		{"scene count too high", func(c *Config) { c.VideoSettings.SceneCount = 6 }},
		{"bad resolution", func(c *Config) { c.VideoSettings.Resolution = "wide" }},
		{"zero fps", func(c *Config) { c.VideoSettings.FPS = 0 }},
		{"no structures", func(c *Config) { c.StoryStructures = nil }},
		{"no audiences", func(c *Config) { c.TargetAudiences = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.DemoMode = true
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	t.Setenv("STORYFORGE_DEMO", "1")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OUTPUT_DIR", "")

	path := filepath.Join(t.TempDir(), "content_config.json")
	doc := `{
		"daily_videos": 5,
		"video_settings": {
			"length_seconds": 45,
			"style": "cinematic",
			"voice": "nova",
			"speaking_rate": 1.1,
			"resolution": "1280x720",
			"fps": 24,
			"scene_count": 4
		}
	}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DailyVideos != 5 {
		t.Errorf("daily_videos = %d, want 5", cfg.DailyVideos)
	}
	if cfg.VideoSettings.SceneCount != 4 {
		t.Errorf("scene_count = %d, want 4", cfg.VideoSettings.SceneCount)
	}
	// Sections absent from the file keep their defaults.
	if len(cfg.Campaigns) != 4 {
		t.Errorf("expected default campaigns to survive, got %d", len(cfg.Campaigns))
	}
	w, h := cfg.ResolutionWH()
	if w != 1280 || h != 720 {
		t.Errorf("resolution = %dx%d, want 1280x720", w, h)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("STORYFORGE_DEMO", "yes")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if !cfg.DemoMode {
		t.Error("STORYFORGE_DEMO=yes should enable demo mode")
	}
	if cfg.DailyVideos != Default().DailyVideos {
		t.Errorf("expected default daily_videos, got %d", cfg.DailyVideos)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	t.Setenv("STORYFORGE_DEMO", "1")
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error for malformed config")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STORYFORGE_DEMO", "1")
	t.Setenv("DAILY_STORY_LIMIT", "9")
	t.Setenv("ADMIN_USERS", "alice, bob")
	t.Setenv("OUTPUT_DIR", "/tmp/content")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DailyStoryLimit != 9 {
		t.Errorf("DailyStoryLimit = %d, want 9", cfg.DailyStoryLimit)
	}
	if len(cfg.AdminUsers) != 2 || cfg.AdminUsers[1] != "bob" {
		t.Errorf("AdminUsers = %v", cfg.AdminUsers)
	}
	if cfg.OutputDir != "/tmp/content" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
}

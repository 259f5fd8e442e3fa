package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Campaign is one themed content category with its topic pool.
type Campaign struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Enabled bool     `json:"enabled"`
	Topics  []string `json:"topics"`
}

// VideoSettings controls length, look and narration of generated videos.
type VideoSettings struct {
	LengthSeconds int     `json:"length_seconds"`
	Style         string  `json:"style"`
	Voice         string  `json:"voice"`
	SpeakingRate  float64 `json:"speaking_rate"`
	Resolution    string  `json:"resolution"`
	FPS           int     `json:"fps"`
	SceneCount    int     `json:"scene_count"`
}

// Config is the full application configuration: the campaign document
// loaded from JSON plus credentials and limits from the environment.
type Config struct {
	DailyVideos     int           `json:"daily_videos"`
	Campaigns       []Campaign    `json:"campaigns"`
	VideoSettings   VideoSettings `json:"video_settings"`
	StoryStructures []string      `json:"story_structures"`
	TargetAudiences []string      `json:"target_audiences"`

	// Environment-derived fields, never serialized.
	OpenAIKey       string        `json:"-"`
	DatabaseURL     string        `json:"-"`
	RedisURL        string        `json:"-"`
	DailyStoryLimit int           `json:"-"`
	AdminUsers      []string      `json:"-"`
	DemoMode        bool          `json:"-"`
	RequestTimeout  time.Duration `json:"-"`
	OutputDir       string        `json:"-"`
}

// ValidationError reports a single invalid configuration field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

const (
	DefaultConfigFile     = "content_config.json"
	DefaultOutputDir      = "generated_content"
	DefaultDailyLimit     = 5
	DefaultRequestTimeout = 60 * time.Second
)

// Default returns the built-in configuration used when no config file exists.
func Default() *Config {
	return &Config{
		DailyVideos: 3,
		Campaigns: []Campaign{
			{
				ID:      "climate",
				Name:    "Climate Action",
				Enabled: true,
				Topics: []string{
					"renewable energy success stories",
					"youth climate activists making a difference",
					"simple daily actions to fight climate change",
					"innovative green technology solutions",
					"community environmental projects",
				},
			},
			{
				ID:      "education",
				Name:    "Education Equality",
				Enabled: true,
				Topics: []string{
					"students overcoming educational barriers",
					"innovative teaching methods changing lives",
					"technology bridging education gaps",
					"community learning initiatives",
					"peer tutoring success stories",
				},
			},
			{
				ID:      "mentalhealth",
				Name:    "Mental Health",
				Enabled: true,
				Topics: []string{
					"breaking mental health stigma stories",
					"student support groups making impact",
					"mindfulness in schools success",
					"peer counseling programs",
					"creative therapy approaches for youth",
				},
			},
			{
				ID:      "digitalrights",
				Name:    "Digital Rights",
				Enabled: true,
				Topics: []string{
					"protecting online privacy for students",
					"fighting cyberbullying effectively",
					"digital literacy success stories",
					"youth coding programs changing lives",
					"internet access equality initiatives",
				},
			},
		},
		VideoSettings: VideoSettings{
			LengthSeconds: 60,
			Style:         "modern",
			Voice:         "alloy",
			SpeakingRate:  1.0,
			Resolution:    "1920x1080",
			FPS:           30,
			SceneCount:    3,
		},
		StoryStructures: []string{
			"hero_journey",
			"problem_solution",
			"before_after",
			"day_in_life",
			"emotional_arc",
		},
		TargetAudiences: []string{
			"Students 13-18",
			"Young Adults 18-25",
			"Educators",
			"Parents",
			"General Youth",
		},
		DailyStoryLimit: DefaultDailyLimit,
		RequestTimeout:  DefaultRequestTimeout,
		OutputDir:       DefaultOutputDir,
	}
}

// Load reads the campaign document at path (falling back to the built-in
// defaults when the file does not exist), merges environment credentials
// and validates the result. Validation happens before any API call is made.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// No config file: keep defaults.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadEnv() {
	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.RedisURL = os.Getenv("REDIS_URL")
	c.DemoMode = envBool("STORYFORGE_DEMO")

	if v := os.Getenv("DAILY_STORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.DailyStoryLimit = n
		}
	}
	if v := os.Getenv("ADMIN_USERS"); v != "" {
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				c.AdminUsers = append(c.AdminUsers, u)
			}
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RequestTimeout = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Validate checks the configuration and fails fast on the first problem.
// Demo mode is an explicit flag: a missing API key is only acceptable when
// STORYFORGE_DEMO is set, never inferred.
func (c *Config) Validate() error {
	if len(c.EnabledCampaigns()) == 0 {
		return &ValidationError{Field: "campaigns", Reason: "no enabled campaigns"}
	}
	seen := make(map[string]bool)
	for _, camp := range c.Campaigns {
		if camp.ID == "" {
			return &ValidationError{Field: "campaigns", Reason: "campaign with empty id"}
		}
		if seen[camp.ID] {
			return &ValidationError{Field: "campaigns", Reason: "duplicate campaign id " + camp.ID}
		}
		seen[camp.ID] = true
		if camp.Enabled && len(camp.Topics) == 0 {
			return &ValidationError{Field: "campaigns", Reason: "campaign " + camp.ID + " has no topics"}
		}
	}
	if c.DailyVideos < 1 {
		return &ValidationError{Field: "daily_videos", Reason: "must be at least 1"}
	}
	vs := c.VideoSettings
	if vs.SceneCount < 3 || vs.SceneCount > 5 {
		return &ValidationError{Field: "video_settings.scene_count", Reason: "must be between 3 and 5"}
	}
	if vs.LengthSeconds < 1 {
		return &ValidationError{Field: "video_settings.length_seconds", Reason: "must be positive"}
	}
	if vs.FPS < 1 {
		return &ValidationError{Field: "video_settings.fps", Reason: "must be positive"}
	}
	if _, _, err := parseResolution(vs.Resolution); err != nil {
		return &ValidationError{Field: "video_settings.resolution", Reason: err.Error()}
	}
	if len(c.StoryStructures) == 0 {
		return &ValidationError{Field: "story_structures", Reason: "must not be empty"}
	}
	if len(c.TargetAudiences) == 0 {
		return &ValidationError{Field: "target_audiences", Reason: "must not be empty"}
	}
	if c.OpenAIKey == "" && !c.DemoMode {
		return &ValidationError{Field: "OPENAI_API_KEY", Reason: "not set (set STORYFORGE_DEMO=1 to run without credentials)"}
	}
	return nil
}

// EnabledCampaigns returns only the campaigns enabled in the document.
func (c *Config) EnabledCampaigns() []Campaign {
	var out []Campaign
	for _, camp := range c.Campaigns {
		if camp.Enabled {
			out = append(out, camp)
		}
	}
	return out
}

// CampaignByID looks up a campaign regardless of its enabled flag.
func (c *Config) CampaignByID(id string) (Campaign, bool) {
	for _, camp := range c.Campaigns {
		if camp.ID == id {
			return camp, true
		}
	}
	return Campaign{}, false
}

// ResolutionWH returns the configured resolution as width and height.
// Validate guarantees the string parses.
func (c *Config) ResolutionWH() (int, int) {
	w, h, _ := parseResolution(c.VideoSettings.Resolution)
	return w, h
}

func parseResolution(s string) (int, int, error) {
	parts := strings.Split(s, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected WIDTHxHEIGHT, got %q", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil || w < 1 {
		return 0, 0, fmt.Errorf("bad width in %q", s)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil || h < 1 {
		return 0, 0, fmt.Errorf("bad height in %q", s)
	}
	return w, h, nil
}

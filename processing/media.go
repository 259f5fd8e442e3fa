package processing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// ImageClient renders one image for a prompt.
type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// SpeechClient synthesizes narration audio (MP3) for a text. Voice and
// speaking rate are bound into the client at construction.
type SpeechClient interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// SceneAssets records what the media generator produced for one scene.
// Ownership transfers to the output organizer for final placement.
type SceneAssets struct {
	Index            int    `json:"index"`
	ImagePath        string `json:"image_path"`
	ImagePlaceholder bool   `json:"image_placeholder"`
	AudioPath        string `json:"audio_path,omitempty"`
	Silent           bool   `json:"silent"`
}

// MediaGenerator requests one image and one narration clip per scene,
// writing each asset to disk immediately so partial progress survives a
// later failure. A nil Images client always produces placeholders; a nil
// Speech client marks every scene silent — that is demo mode.
type MediaGenerator struct {
	Images ImageClient
	Speech SpeechClient
	Style  string
	Width  int
	Height int
	Log    *logrus.Logger
}

// GenerateSceneAssets produces assets for every scene. Per-scene API
// failures degrade to placeholders or silence; only filesystem errors are
// returned, because without a writable work dir nothing can proceed.
func (m *MediaGenerator) GenerateSceneAssets(ctx context.Context, scenes []Scene, dir string) ([]SceneAssets, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}

	assets := make([]SceneAssets, 0, len(scenes))
	for _, sc := range scenes {
		a := SceneAssets{Index: sc.Index}

		imagePath := filepath.Join(dir, fmt.Sprintf("scene_%d.png", sc.Index))
		if err := m.generateImage(ctx, sc, imagePath); err != nil {
			m.logf("scene %d image failed, using placeholder: %v", sc.Index, err)
			if err := WritePlaceholderPNG(imagePath, sc.Index, m.Width, m.Height); err != nil {
				return nil, fmt.Errorf("write placeholder for scene %d: %w", sc.Index, err)
			}
			a.ImagePlaceholder = true
		}
		a.ImagePath = imagePath

		audioPath := filepath.Join(dir, fmt.Sprintf("narration_%d.mp3", sc.Index))
		if err := m.generateAudio(ctx, sc, audioPath); err != nil {
			m.logf("scene %d narration failed, scene will be silent: %v", sc.Index, err)
			a.Silent = true
		} else {
			a.AudioPath = audioPath
		}

		assets = append(assets, a)
	}
	return assets, nil
}

func (m *MediaGenerator) generateImage(ctx context.Context, sc Scene, path string) error {
	if m.Images == nil {
		return fmt.Errorf("no image client configured")
	}

	prompt := stylePrompt(sc.ImagePrompt, m.Style)

	// One retry for transient API failures, then fall back to a placeholder.
	var data []byte
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		data, err = m.Images.GenerateImage(ctx, prompt)
		if err == nil {
			break
		}
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (m *MediaGenerator) generateAudio(ctx context.Context, sc Scene, path string) error {
	if m.Speech == nil {
		return fmt.Errorf("no speech client configured")
	}

	text := SanitizeForSpeech(sc.Narration)
	if text == "" {
		return fmt.Errorf("scene %d narration empty after sanitizing", sc.Index)
	}

	var data []byte
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		data, err = m.Speech.Synthesize(ctx, text)
		if err == nil {
			break
		}
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (m *MediaGenerator) logf(format string, args ...interface{}) {
	if m.Log != nil {
		m.Log.Warnf(format, args...)
	}
}

var styleModifiers = map[string]string{
	"cinematic":   "cinematic lighting, film photography, dramatic atmosphere, professional cinematography",
	"animated":    "animated style, vibrant colors, cartoon aesthetic, digital art",
	"documentary": "documentary photography, natural lighting, authentic, photojournalistic",
	"artistic":    "artistic interpretation, creative composition, unique perspective",
	"modern":      "modern, vibrant, engaging, professional, wide aspect ratio",
}

// stylePrompt constrains an image prompt with the configured style
// descriptor plus safety modifiers.
func stylePrompt(prompt, style string) string {
	modifier, ok := styleModifiers[style]
	if !ok {
		modifier = "high quality, professional"
	}
	return fmt.Sprintf("%s, %s, no text, no watermark", prompt, modifier)
}

var (
	bracketedRe  = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// SanitizeForSpeech strips stage directions and markup that would be read
// aloud by the TTS model.
func SanitizeForSpeech(text string) string {
	text = bracketedRe.ReplaceAllString(text, "")
	text = strings.NewReplacer("<", "", ">", "", "#", "", "*", "").Replace(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

package processing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIMediaClient implements ImageClient and SpeechClient against the
// DALL-E and TTS endpoints.
type OpenAIMediaClient struct {
	client       openai.Client
	httpClient   *http.Client
	voice        string
	speakingRate float64
}

func NewOpenAIMediaClient(apiKey, voice string, speakingRate float64, timeout time.Duration) *OpenAIMediaClient {
	if speakingRate <= 0 {
		speakingRate = 1.0
	}
	return &OpenAIMediaClient{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithRequestTimeout(timeout),
		),
		httpClient:   &http.Client{Timeout: timeout},
		voice:        voice,
		speakingRate: speakingRate,
	}
}

// GenerateImage renders one image and downloads it.
func (c *OpenAIMediaClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := c.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:  prompt,
		Model:   openai.ImageModelDallE3,
		N:       openai.Int(1),
		Size:    openai.ImageGenerateParamsSize1792x1024,
		Quality: openai.ImageGenerateParamsQualityStandard,
	})
	if err != nil {
		return nil, fmt.Errorf("image API error: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, fmt.Errorf("image API returned no image")
	}
	return c.download(ctx, resp.Data[0].URL)
}

func (c *OpenAIMediaClient) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	// An error page instead of image bytes is smaller than any real render.
	if len(data) < 100 {
		return nil, fmt.Errorf("image response too small (%d bytes)", len(data))
	}
	return data, nil
}

// Synthesize produces MP3 narration for the text.
func (c *OpenAIMediaClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModelTTS1HD,
		Voice: openai.AudioSpeechNewParamsVoice(c.voice),
		Input: text,
		Speed: openai.Float(c.speakingRate),
	})
	if err != nil {
		return nil, fmt.Errorf("speech API error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read speech response: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("speech API returned empty audio")
	}
	return data, nil
}

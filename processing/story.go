package processing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Scene is one narrative beat: narration text plus the prompt used to
// render its image. Index is 1-based and contiguous within a Story.
type Scene struct {
	Index       int    `json:"index"`
	Narration   string `json:"narration"`
	ImagePrompt string `json:"image_prompt"`
}

// Story is the full structured narrative for one video. Immutable after
// creation; only serialized.
type Story struct {
	Title        string    `json:"title"`
	Hook         string    `json:"hook"`
	Problem      string    `json:"problem"`
	Solution     string    `json:"solution"`
	Impact       string    `json:"impact"`
	CallToAction string    `json:"call_to_action"`
	Topic        string    `json:"topic"`
	Campaign     string    `json:"campaign"`
	Structure    string    `json:"structure"`
	Audience     string    `json:"audience"`
	GeneratedAt  time.Time `json:"generated_at"`
	Scenes       []Scene   `json:"scenes"`
}

// StoryRequest describes what to generate.
type StoryRequest struct {
	Topic        string
	CampaignName string
	Audience     string
	Structure    string
	SceneCount   int
}

// GenerationError wraps a failed text/image/audio API call. The pipeline
// converts these into per-video partial results instead of aborting the run.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// StoryGenerator produces a Story for a request. Implementations: OpenAI
// and the demo generator used when running without credentials.
type StoryGenerator interface {
	GenerateStory(ctx context.Context, req StoryRequest) (*Story, error)
}

// --- Structured output plumbing ---

// GenerateSchema generates a JSON schema for structured outputs.
func GenerateSchema[T any]() interface{} {
	// Structured Outputs uses a subset of JSON schema.
	// These flags are necessary to comply with the subset.
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// getStructuredResponse calls the chat completions API with JSON schema
// enforcement and unmarshals the result into T.
func getStructuredResponse[T any](ctx context.Context, client openai.Client, model openai.ChatModel, system, prompt string, schema interface{}) (*T, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "structured_response",
		Description: openai.String("Structured data response"),
		Schema:      schema,
		Strict:      openai.Bool(true),
	}

	messages := []openai.ChatCompletionMessageParamUnion{}
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	chatCompletion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    model,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(chatCompletion.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	rawResponse := chatCompletion.Choices[0].Message.Content
	if rawResponse == "" {
		return nil, fmt.Errorf("empty response, finish reason: %s", chatCompletion.Choices[0].FinishReason)
	}

	var structuredResponse T
	if err := json.Unmarshal([]byte(rawResponse), &structuredResponse); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI JSON response: %w", err)
	}
	return &structuredResponse, nil
}

// --- OpenAI implementation ---

type storySceneResponse struct {
	Narration   string `json:"narration" jsonschema_description:"The narration text spoken over this scene, 2-3 sentences."`
	ImagePrompt string `json:"image_prompt" jsonschema_description:"A detailed visual description of this scene for an image generation model."`
}

type storyResponse struct {
	Title        string               `json:"title" jsonschema_description:"A compelling video title under 60 characters."`
	Hook         string               `json:"hook" jsonschema_description:"An opening line that grabs attention in the first 5 seconds."`
	Problem      string               `json:"problem" jsonschema_description:"A clear statement of the problem the video addresses."`
	Solution     string               `json:"solution" jsonschema_description:"An actionable solution."`
	Impact       string               `json:"impact" jsonschema_description:"The potential positive impact."`
	CallToAction string               `json:"call_to_action" jsonschema_description:"What viewers should do after watching."`
	Scenes       []storySceneResponse `json:"scenes" jsonschema_description:"The visual scenes of the video, in order."`
}

var storyResponseSchema = GenerateSchema[storyResponse]()

const storySystemPrompt = `You are an expert storyteller specializing in social advocacy and short-form video content.
Create compelling narratives that hook viewers in the first 5 seconds, build emotional connection, present clear problems and solutions, and end with a strong call to action. Use youth-focused language.`

// OpenAIStoryGenerator generates stories via OpenAI chat completions with
// strict JSON-schema structured output.
type OpenAIStoryGenerator struct {
	client openai.Client
	model  openai.ChatModel
}

func NewOpenAIStoryGenerator(apiKey string, timeout time.Duration) *OpenAIStoryGenerator {
	return &OpenAIStoryGenerator{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithRequestTimeout(timeout),
		),
		model: openai.ChatModelGPT4o,
	}
}

func (g *OpenAIStoryGenerator) GenerateStory(ctx context.Context, req StoryRequest) (*Story, error) {
	prompt := buildStoryPrompt(req)

	resp, err := getStructuredResponse[storyResponse](ctx, g.client, g.model, storySystemPrompt, prompt, storyResponseSchema)
	if err != nil {
		return nil, &GenerationError{Stage: "story", Err: err}
	}

	story, err := buildStory(req, resp)
	if err != nil {
		return nil, &GenerationError{Stage: "story", Err: err}
	}
	return story, nil
}

func buildStoryPrompt(req StoryRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a short advocacy video script about: %s\n\n", req.Topic)
	fmt.Fprintf(&sb, "Campaign: %s\n", req.CampaignName)
	fmt.Fprintf(&sb, "Target Audience: %s\n", req.Audience)
	fmt.Fprintf(&sb, "Narrative Structure: %s\n\n", req.Structure)
	fmt.Fprintf(&sb, "Create EXACTLY %d scenes that together tell the story:\n", req.SceneCount)
	sb.WriteString("the first scene sets the stage and introduces the problem, the middle scenes show the struggle or solution in action, and the final scene shows the impact and calls viewers to act.\n")
	sb.WriteString("Each scene needs narration text and a specific, detailed visual description for image generation.")
	return sb.String()
}

// buildStory converts the model response into a Story and enforces the
// structural invariants: exactly the requested number of scenes, contiguous
// 1-based indices, non-empty narration and image prompt.
func buildStory(req StoryRequest, resp *storyResponse) (*Story, error) {
	if len(resp.Scenes) != req.SceneCount {
		return nil, fmt.Errorf("expected %d scenes, got %d", req.SceneCount, len(resp.Scenes))
	}

	story := &Story{
		Title:        strings.TrimSpace(resp.Title),
		Hook:         strings.TrimSpace(resp.Hook),
		Problem:      strings.TrimSpace(resp.Problem),
		Solution:     strings.TrimSpace(resp.Solution),
		Impact:       strings.TrimSpace(resp.Impact),
		CallToAction: strings.TrimSpace(resp.CallToAction),
		Topic:        req.Topic,
		Campaign:     req.CampaignName,
		Structure:    req.Structure,
		Audience:     req.Audience,
		GeneratedAt:  time.Now().UTC(),
	}
	if story.Title == "" {
		return nil, fmt.Errorf("model returned empty title")
	}

	for i, sc := range resp.Scenes {
		narration := strings.TrimSpace(sc.Narration)
		imagePrompt := strings.TrimSpace(sc.ImagePrompt)
		if narration == "" {
			return nil, fmt.Errorf("scene %d has empty narration", i+1)
		}
		if imagePrompt == "" {
			return nil, fmt.Errorf("scene %d has empty image prompt", i+1)
		}
		story.Scenes = append(story.Scenes, Scene{
			Index:       i + 1,
			Narration:   narration,
			ImagePrompt: imagePrompt,
		})
	}
	return story, nil
}

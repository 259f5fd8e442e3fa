package processing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Metadata is the platform-upload package for one video: title options,
// description, tags and a thumbnail text overlay suggestion.
type Metadata struct {
	Titles        []string `json:"titles"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	ThumbnailText string   `json:"thumbnail_text"`
}

// MetadataGenerator produces upload metadata for a story. A failure here
// never fails the video; callers substitute FallbackMetadata.
type MetadataGenerator interface {
	GenerateMetadata(ctx context.Context, story *Story) (*Metadata, error)
}

type metadataResponse struct {
	Titles        []string `json:"titles" jsonschema_description:"Three title options, each under 60 characters."`
	Description   string   `json:"description" jsonschema_description:"SEO-rich video description, first 125 characters are crucial."`
	Tags          []string `json:"tags" jsonschema_description:"Up to 30 relevant tags, mixing broad and specific."`
	ThumbnailText string   `json:"thumbnail_text" jsonschema_description:"A 3-5 word thumbnail text overlay suggestion."`
}

var metadataResponseSchema = GenerateSchema[metadataResponse]()

const metadataSystemPrompt = `You are a YouTube SEO expert for youth advocacy content. Generate metadata that maximizes click-through rate and search ranking while staying honest about the content.`

const maxTags = 30

// OpenAIMetadataGenerator generates upload metadata via structured output.
type OpenAIMetadataGenerator struct {
	client openai.Client
	model  openai.ChatModel
}

func NewOpenAIMetadataGenerator(apiKey string, timeout time.Duration) *OpenAIMetadataGenerator {
	return &OpenAIMetadataGenerator{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithRequestTimeout(timeout),
		),
		model: openai.ChatModelGPT4oMini,
	}
}

func (g *OpenAIMetadataGenerator) GenerateMetadata(ctx context.Context, story *Story) (*Metadata, error) {
	var sb strings.Builder
	sb.WriteString("Create upload metadata for this advocacy video.\n\n")
	fmt.Fprintf(&sb, "Topic: %s\n", story.Topic)
	fmt.Fprintf(&sb, "Campaign: %s\n", story.Campaign)
	fmt.Fprintf(&sb, "Title (working): %s\n", story.Title)
	fmt.Fprintf(&sb, "Hook: %s\n", story.Hook)
	fmt.Fprintf(&sb, "Call to action: %s\n\n", story.CallToAction)
	sb.WriteString("Scenes:\n")
	for _, sc := range story.Scenes {
		fmt.Fprintf(&sb, "- %s\n", truncate(sc.Narration, 120))
	}

	resp, err := getStructuredResponse[metadataResponse](ctx, g.client, g.model, metadataSystemPrompt, sb.String(), metadataResponseSchema)
	if err != nil {
		return nil, &GenerationError{Stage: "metadata", Err: err}
	}
	if len(resp.Titles) == 0 || resp.Description == "" {
		return nil, &GenerationError{Stage: "metadata", Err: fmt.Errorf("model returned incomplete metadata")}
	}

	meta := &Metadata{
		Titles:        resp.Titles,
		Description:   resp.Description,
		Tags:          resp.Tags,
		ThumbnailText: resp.ThumbnailText,
	}
	if len(meta.Tags) > maxTags {
		meta.Tags = meta.Tags[:maxTags]
	}
	if meta.ThumbnailText == "" {
		meta.ThumbnailText = "MUST WATCH"
	}
	return meta, nil
}

// DemoMetadataGenerator returns deterministic metadata without an API call.
type DemoMetadataGenerator struct{}

func (DemoMetadataGenerator) GenerateMetadata(_ context.Context, story *Story) (*Metadata, error) {
	return FallbackMetadata(story), nil
}

// FallbackMetadata builds usable metadata directly from the story when the
// metadata call fails or demo mode is active.
func FallbackMetadata(story *Story) *Metadata {
	return &Metadata{
		Titles: []string{
			truncate(story.Title, 60),
			fmt.Sprintf("How %s Changes Everything", truncate(story.Campaign, 40)),
			fmt.Sprintf("The Truth About %s", truncate(story.Topic, 40)),
		},
		Description:   fmt.Sprintf("%s %s %s", story.Hook, story.Problem, story.CallToAction),
		Tags:          []string{story.Campaign, "youth", "advocacy", "change", "students"},
		ThumbnailText: "WATCH NOW",
	}
}

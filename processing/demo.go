package processing

import (
	"context"
	"fmt"
	"time"
)

// DemoStoryGenerator produces a deterministic canned story without any API
// call. It is only wired in when demo mode is explicitly enabled.
type DemoStoryGenerator struct{}

var demoSceneTemplates = []struct {
	narration   string
	imagePrompt string
}{
	{
		"Every morning, communities wake up to the same challenge: %s. It touches more lives than most of us realize.",
		"A quiet community at dawn, soft golden light, showing both beauty and underlying challenges related to %s",
	},
	{
		"But change is already happening. Young people are stepping up, proving that %s is something we can face together.",
		"Diverse group of young people working together on %s, energetic, hopeful, candid documentary moment",
	},
	{
		"Imagine what happens when all of us join in. Small actions add up, and the story of %s becomes a story of hope.",
		"A transformed community celebrating progress on %s, warm evening light, visible positive change",
	},
	{
		"The people closest to the problem are often closest to the solution. Their work on %s shows what is possible.",
		"Close-up of hands building or repairing something meaningful, symbolizing grassroots work on %s",
	},
	{
		"This is where you come in. Share this story, talk about %s, and take one small step today.",
		"A single raised hand among many in a crowd, dramatic backlight, symbolizing joining a movement about %s",
	},
}

func (DemoStoryGenerator) GenerateStory(_ context.Context, req StoryRequest) (*Story, error) {
	story := &Story{
		Title:        fmt.Sprintf("Making a Difference: %s", truncate(req.Topic, 40)),
		Hook:         fmt.Sprintf("What if one small action could change the story of %s?", req.Topic),
		Problem:      fmt.Sprintf("Communities everywhere are affected by %s, and too few people are talking about it.", req.Topic),
		Solution:     "Together, ordinary people can create extraordinary change through small, consistent actions.",
		Impact:       "Every person who joins in multiplies the effect and brings real change closer.",
		CallToAction: "Share this story and take one action today.",
		Topic:        req.Topic,
		Campaign:     req.CampaignName,
		Structure:    req.Structure,
		Audience:     req.Audience,
		GeneratedAt:  time.Now().UTC(),
	}

	for i := 0; i < req.SceneCount; i++ {
		tpl := demoSceneTemplates[i%len(demoSceneTemplates)]
		story.Scenes = append(story.Scenes, Scene{
			Index:       i + 1,
			Narration:   fmt.Sprintf(tpl.narration, req.Topic),
			ImagePrompt: fmt.Sprintf(tpl.imagePrompt, req.Topic),
		})
	}
	return story, nil
}

// truncate shortens s to at most n runes. Slicing runes rather than bytes
// keeps multibyte characters intact.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

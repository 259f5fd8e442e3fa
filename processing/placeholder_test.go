package processing

import (
	"bytes"
	"image/png"
	"testing"
)

func TestPlaceholderPNG(t *testing.T) {
	data, err := PlaceholderPNG(1, 320, 180)
	if err != nil {
		t.Fatalf("PlaceholderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 320 || bounds.Dy() != 180 {
		t.Errorf("size = %dx%d, want 320x180", bounds.Dx(), bounds.Dy())
	}
}

func TestPlaceholderDeterministicPerIndex(t *testing.T) {
	a, _ := PlaceholderPNG(2, 64, 36)
	b, _ := PlaceholderPNG(2, 64, 36)
	if !bytes.Equal(a, b) {
		t.Error("same index should produce identical bytes")
	}
	c, _ := PlaceholderPNG(3, 64, 36)
	if bytes.Equal(a, c) {
		t.Error("different indices should produce different gradients")
	}
}

func TestFallbackMetadata(t *testing.T) {
	story := &Story{
		Title:        "Solar for Every School",
		Hook:         "What if your school ran on sunshine?",
		Problem:      "Energy costs eat school budgets.",
		CallToAction: "Ask your school board about solar.",
		Topic:        "community solar projects",
		Campaign:     "Climate Action",
	}
	meta := FallbackMetadata(story)
	if len(meta.Titles) < 1 || meta.Titles[0] == "" {
		t.Error("fallback metadata needs at least one title")
	}
	if meta.Description == "" || len(meta.Tags) == 0 || meta.ThumbnailText == "" {
		t.Errorf("incomplete fallback metadata: %+v", meta)
	}
}

package processing

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fakeImageClient struct {
	failures int
	calls    int
}

func (f *fakeImageClient) GenerateImage(context.Context, string) ([]byte, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("image API down")
	}
	return []byte("fake-png-bytes"), nil
}

type fakeSpeechClient struct {
	failures int
	calls    int
	lastText string
}

func (f *fakeSpeechClient) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.calls++
	f.lastText = text
	if f.calls <= f.failures {
		return nil, errors.New("speech API down")
	}
	return []byte("fake-mp3-bytes"), nil
}

func testScenes() []Scene {
	return []Scene{
		{Index: 1, Narration: "First scene narration.", ImagePrompt: "a sunrise"},
		{Index: 2, Narration: "Second scene narration.", ImagePrompt: "a crowd"},
	}
}

func TestGenerateSceneAssets(t *testing.T) {
	dir := t.TempDir()
	m := &MediaGenerator{
		Images: &fakeImageClient{},
		Speech: &fakeSpeechClient{},
		Style:  "modern",
		Width:  64, Height: 36,
		Log: quietLogger(),
	}

	assets, err := m.GenerateSceneAssets(context.Background(), testScenes(), dir)
	if err != nil {
		t.Fatalf("GenerateSceneAssets: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("got %d assets, want 2", len(assets))
	}
	for _, a := range assets {
		if a.ImagePlaceholder || a.Silent {
			t.Errorf("scene %d unexpectedly degraded: %+v", a.Index, a)
		}
		for _, path := range []string{a.ImagePath, a.AudioPath} {
			if _, err := os.Stat(path); err != nil {
				t.Errorf("missing asset file %s: %v", path, err)
			}
		}
	}
	if got := filepath.Base(assets[0].ImagePath); got != "scene_1.png" {
		t.Errorf("image name = %q", got)
	}
	if got := filepath.Base(assets[1].AudioPath); got != "narration_2.mp3" {
		t.Errorf("audio name = %q", got)
	}
}

func TestImageFailureFallsBackToPlaceholder(t *testing.T) {
	dir := t.TempDir()
	m := &MediaGenerator{
		Images: &fakeImageClient{failures: 100},
		Speech: &fakeSpeechClient{},
		Width:  64, Height: 36,
		Log: quietLogger(),
	}

	assets, err := m.GenerateSceneAssets(context.Background(), testScenes()[:1], dir)
	if err != nil {
		t.Fatalf("GenerateSceneAssets: %v", err)
	}
	a := assets[0]
	if !a.ImagePlaceholder {
		t.Error("expected placeholder flag")
	}
	data, err := os.ReadFile(a.ImagePath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("placeholder is not a valid PNG: %v", err)
	}
}

func TestTransientImageFailureRetries(t *testing.T) {
	dir := t.TempDir()
	images := &fakeImageClient{failures: 1}
	m := &MediaGenerator{
		Images: images,
		Speech: &fakeSpeechClient{},
		Width:  64, Height: 36,
		Log: quietLogger(),
	}

	assets, err := m.GenerateSceneAssets(context.Background(), testScenes()[:1], dir)
	if err != nil {
		t.Fatal(err)
	}
	if assets[0].ImagePlaceholder {
		t.Error("a single transient failure should be retried, not degraded")
	}
	if images.calls != 2 {
		t.Errorf("image client called %d times, want 2", images.calls)
	}
}

func TestSpeechFailureMarksSceneSilent(t *testing.T) {
	dir := t.TempDir()
	m := &MediaGenerator{
		Images: &fakeImageClient{},
		Speech: &fakeSpeechClient{failures: 100},
		Width:  64, Height: 36,
		Log: quietLogger(),
	}

	assets, err := m.GenerateSceneAssets(context.Background(), testScenes()[:1], dir)
	if err != nil {
		t.Fatal(err)
	}
	if !assets[0].Silent {
		t.Error("expected silent flag")
	}
	if assets[0].AudioPath != "" {
		t.Error("silent scene should not report an audio path")
	}
}

func TestNilClientsProducePlaceholdersAndSilence(t *testing.T) {
	dir := t.TempDir()
	m := &MediaGenerator{Width: 64, Height: 36, Log: quietLogger()}

	assets, err := m.GenerateSceneAssets(context.Background(), testScenes(), dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range assets {
		if !a.ImagePlaceholder || !a.Silent {
			t.Errorf("scene %d: want placeholder and silent, got %+v", a.Index, a)
		}
		if _, err := os.Stat(a.ImagePath); err != nil {
			t.Errorf("placeholder image missing: %v", err)
		}
	}
}

func TestSanitizeForSpeech(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Hello [dramatic pause] world", "Hello world"},
		{"Stats (see chart) matter", "Stats matter"},
		{"# Heading *bold* <tag>", "Heading bold tag"},
		{"  spaced\t\nout  ", "spaced out"},
	}
	for _, tc := range cases {
		if got := SanitizeForSpeech(tc.in); got != tc.want {
			t.Errorf("SanitizeForSpeech(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStylePrompt(t *testing.T) {
	got := stylePrompt("a forest", "cinematic")
	if !strings.Contains(got, "a forest") || !strings.Contains(got, "cinematic") {
		t.Errorf("stylePrompt = %q", got)
	}
	if !strings.Contains(got, "no text") {
		t.Errorf("prompt should forbid text overlays: %q", got)
	}
	if got := stylePrompt("x", "unknown-style"); !strings.Contains(got, "high quality") {
		t.Errorf("unknown style should use the generic modifier: %q", got)
	}
}

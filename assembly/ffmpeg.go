package assembly

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"storyforge/processing"
)

// FFmpegAssembler renders each scene as a short clip (still image held for
// the narration length, or a silent hold) and concatenates the clips.
type FFmpegAssembler struct {
	Width           int
	Height          int
	FPS             int
	DefaultSceneSec float64
	HaveProbe       bool
	Log             *logrus.Logger
}

func (a *FFmpegAssembler) Available() bool { return true }

func (a *FFmpegAssembler) Assemble(ctx context.Context, assets []processing.SceneAssets, outPath string) (*VideoResult, error) {
	if len(assets) == 0 {
		return nil, fmt.Errorf("no scene assets to assemble")
	}

	workDir, err := os.MkdirTemp(filepath.Dir(outPath), "assemble_")
	if err != nil {
		return nil, fmt.Errorf("create assembly work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	clips := make([]string, 0, len(assets))
	for _, asset := range assets {
		clip := filepath.Join(workDir, fmt.Sprintf("clip_%d.mp4", asset.Index))
		if err := a.renderSceneClip(ctx, asset, clip); err != nil {
			return nil, fmt.Errorf("render scene %d clip: %w", asset.Index, err)
		}
		clips = append(clips, clip)
	}

	if err := a.concatClips(ctx, clips, workDir, outPath); err != nil {
		return nil, err
	}

	result := &VideoResult{Path: outPath, Width: a.Width, Height: a.Height}
	if a.HaveProbe {
		if dur, err := probeDuration(ctx, outPath); err == nil {
			result.Duration = dur
		} else if a.Log != nil {
			a.Log.Warnf("ffprobe duration failed for %s: %v", outPath, err)
		}
	}
	return result, nil
}

// sceneClipArgs builds the ffmpeg invocation for one scene clip. Every clip
// carries an audio stream, generated silence when the scene has no
// narration, because the concat demuxer matches all segments against the
// first one: a mixed audio/no-audio sequence would drop or desync narration.
func (a *FFmpegAssembler) sceneClipArgs(asset processing.SceneAssets, outFile string) []string {
	scale := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
		a.Width, a.Height, a.Width, a.Height,
	)
	narrated := asset.AudioPath != "" && !asset.Silent

	args := []string{"-y", "-loop", "1", "-i", asset.ImagePath}
	if narrated {
		args = append(args, "-i", asset.AudioPath)
	} else {
		args = append(args, "-f", "lavfi", "-i", "anullsrc=r=44100:cl=stereo")
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-vf", scale,
		"-r", fmt.Sprintf("%d", a.FPS),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
	)
	if narrated {
		args = append(args, "-shortest")
	} else {
		// Both the looped image and anullsrc are endless, so cap the clip.
		args = append(args, "-t", fmt.Sprintf("%.2f", a.DefaultSceneSec))
	}
	return append(args, outFile)
}

// renderSceneClip encodes one still image into a video clip. With narration
// the clip runs until the audio ends; silent scenes hold for the default
// scene length over generated silence.
func (a *FFmpegAssembler) renderSceneClip(ctx context.Context, asset processing.SceneAssets, outFile string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", a.sceneClipArgs(asset, outFile)...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, tail(stderr.String(), 400))
	}
	return nil
}

func (a *FFmpegAssembler) concatClips(ctx context.Context, clips []string, workDir, outPath string) error {
	listFile := filepath.Join(workDir, "concat.txt")
	var lines []string
	for _, clip := range clips {
		lines = append(lines, fmt.Sprintf("file '%s'", clip))
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		"-movflags", "+faststart",
		outPath,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg concat: %w: %s", err, tail(stderr.String(), 400))
	}
	return nil
}

func probeDuration(ctx context.Context, file string) (float64, error) {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		file,
	).Output()
	if err != nil {
		return 0, err
	}
	var dur float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur)
	return dur, err
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

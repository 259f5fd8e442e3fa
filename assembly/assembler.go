// Package assembly composites scene images and narration clips into a
// single MP4 with ffmpeg. When ffmpeg is not installed the pipeline keeps
// running: Probe hands back a NoopAssembler and videos are marked skipped
// while all their materials still land in the output folder.
package assembly

import (
	"context"
	"errors"
	"os/exec"

	"github.com/sirupsen/logrus"

	"storyforge/processing"
)

// ErrUnavailable is returned by an assembler that cannot composite on this
// host. Callers treat it as "skip the video", never as a generation failure.
var ErrUnavailable = errors.New("video assembly unavailable on this host")

// VideoResult describes the composited file.
type VideoResult struct {
	Path     string  `json:"path"`
	Duration float64 `json:"duration_sec"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

// Assembler turns per-scene assets into one video file.
type Assembler interface {
	Assemble(ctx context.Context, assets []processing.SceneAssets, outPath string) (*VideoResult, error)
	Available() bool
}

// Probe picks the assembler for this host. ffmpeg on PATH gets the real
// compositor; anything else gets the noop that reports skips.
func Probe(width, height, fps int, defaultSceneSec float64, log *logrus.Logger) Assembler {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		if log != nil {
			log.Warn("ffmpeg not found on PATH, videos will be skipped")
		}
		return NoopAssembler{}
	}
	_, probeErr := exec.LookPath("ffprobe")
	return &FFmpegAssembler{
		Width:           width,
		Height:          height,
		FPS:             fps,
		DefaultSceneSec: defaultSceneSec,
		HaveProbe:       probeErr == nil,
		Log:             log,
	}
}

// NoopAssembler is the fallback when ffmpeg is missing.
type NoopAssembler struct{}

func (NoopAssembler) Assemble(context.Context, []processing.SceneAssets, string) (*VideoResult, error) {
	return nil, ErrUnavailable
}

func (NoopAssembler) Available() bool { return false }

// Package output owns the on-disk layout of generated content. Every run
// writes into a per-day directory with one folder per video, so paths are
// predictable and reruns on the same day extend the same directory.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storyforge/assembly"
	"storyforge/processing"
)

// RunDateFormat is the per-day directory name, e.g. 20260824.
const RunDateFormat = "20060102"

// Organizer places one run's videos under Root/RunDate.
type Organizer struct {
	Root    string
	RunDate string
}

// NewOrganizer builds an organizer for the given day.
func NewOrganizer(root string, day time.Time) *Organizer {
	return &Organizer{Root: root, RunDate: day.Format(RunDateFormat)}
}

// RunDir is the per-day directory for this run.
func (o *Organizer) RunDir() string {
	return filepath.Join(o.Root, o.RunDate)
}

// VideoDir is the folder for one video, named by its 1-based index within
// the run and the campaign it belongs to.
func (o *Organizer) VideoDir(index int, campaignID string) string {
	return filepath.Join(o.RunDir(), fmt.Sprintf("video_%d_%s", index, campaignID))
}

// VideoFileName is the final MP4 name inside the video folder.
func (o *Organizer) VideoFileName(index int, campaignID string) string {
	return fmt.Sprintf("%s_video_%d.mp4", campaignID, index)
}

// Materials collects everything produced for one video. Any field may be
// nil or empty; SaveMaterials writes whatever exists and skips the rest, so
// a partially failed video still leaves its usable artifacts behind.
type Materials struct {
	Story    *processing.Story
	Metadata *processing.Metadata
	Assets   []processing.SceneAssets
	Video    *assembly.VideoResult
}

// SaveMaterials lays out one video folder:
//
//	video_<n>_<campaign>/
//	  story.json
//	  youtube_metadata.json
//	  youtube_upload.txt
//	  summary.txt
//	  images/scene_<i>.png
//	  audio/narration_<i>.mp3
//	  <campaign>_video_<n>.mp4
//
// It returns the folder path. Asset files are copied, not moved, so the
// caller's work dir stays intact until it decides to clean up.
func (o *Organizer) SaveMaterials(index int, campaignID string, m Materials) (string, error) {
	dir := o.VideoDir(index, campaignID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create video dir: %w", err)
	}

	if m.Story != nil {
		if err := saveJSON(filepath.Join(dir, "story.json"), m.Story); err != nil {
			return dir, err
		}
		if err := os.WriteFile(filepath.Join(dir, "summary.txt"), []byte(summaryText(m.Story, m.Video)), 0644); err != nil {
			return dir, fmt.Errorf("write summary: %w", err)
		}
	}

	if m.Metadata != nil {
		if err := saveJSON(filepath.Join(dir, "youtube_metadata.json"), m.Metadata); err != nil {
			return dir, err
		}
		if err := os.WriteFile(filepath.Join(dir, "youtube_upload.txt"), []byte(uploadText(m.Metadata)), 0644); err != nil {
			return dir, fmt.Errorf("write upload text: %w", err)
		}
	}

	if len(m.Assets) > 0 {
		if err := o.copyAssets(dir, m.Assets); err != nil {
			return dir, err
		}
	}

	if m.Video != nil && m.Video.Path != "" {
		dst := filepath.Join(dir, o.VideoFileName(index, campaignID))
		if m.Video.Path != dst {
			if err := copyFile(m.Video.Path, dst); err != nil {
				return dir, fmt.Errorf("copy final video: %w", err)
			}
		}
	}

	return dir, nil
}

func (o *Organizer) copyAssets(dir string, assets []processing.SceneAssets) error {
	imagesDir := filepath.Join(dir, "images")
	audioDir := filepath.Join(dir, "audio")
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		return err
	}
	if err := os.MkdirAll(audioDir, 0755); err != nil {
		return err
	}

	for _, a := range assets {
		if a.ImagePath != "" {
			dst := filepath.Join(imagesDir, fmt.Sprintf("scene_%d.png", a.Index))
			if err := copyFile(a.ImagePath, dst); err != nil {
				return fmt.Errorf("copy scene %d image: %w", a.Index, err)
			}
		}
		if a.AudioPath != "" {
			dst := filepath.Join(audioDir, fmt.Sprintf("narration_%d.mp3", a.Index))
			if err := copyFile(a.AudioPath, dst); err != nil {
				return fmt.Errorf("copy scene %d narration: %w", a.Index, err)
			}
		}
	}
	return nil
}

// uploadText is the copy-paste ready upload sheet: best title, description
// and comma-joined tags.
func uploadText(meta *processing.Metadata) string {
	var sb strings.Builder
	sb.WriteString("TITLE:\n")
	if len(meta.Titles) > 0 {
		sb.WriteString(meta.Titles[0])
	}
	sb.WriteString("\n\nDESCRIPTION:\n")
	sb.WriteString(meta.Description)
	sb.WriteString("\n\nTAGS:\n")
	sb.WriteString(strings.Join(meta.Tags, ", "))
	sb.WriteString("\n\nTHUMBNAIL TEXT:\n")
	sb.WriteString(meta.ThumbnailText)
	sb.WriteString("\n")
	return sb.String()
}

func summaryText(story *processing.Story, video *assembly.VideoResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title:     %s\n", story.Title)
	fmt.Fprintf(&sb, "Campaign:  %s\n", story.Campaign)
	fmt.Fprintf(&sb, "Topic:     %s\n", story.Topic)
	fmt.Fprintf(&sb, "Audience:  %s\n", story.Audience)
	fmt.Fprintf(&sb, "Structure: %s\n", story.Structure)
	fmt.Fprintf(&sb, "Scenes:    %d\n", len(story.Scenes))
	if video != nil {
		fmt.Fprintf(&sb, "Video:     %s (%.1fs)\n", filepath.Base(video.Path), video.Duration)
	} else {
		sb.WriteString("Video:     not assembled\n")
	}
	fmt.Fprintf(&sb, "Generated: %s\n", story.GeneratedAt.Format(time.RFC3339))
	sb.WriteString("\nHook:\n  " + story.Hook + "\n")
	sb.WriteString("\nNarration:\n")
	for _, sc := range story.Scenes {
		fmt.Fprintf(&sb, "  %d. %s\n", sc.Index, sc.Narration)
	}
	return sb.String()
}

func saveJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

package models

import "time"

// Video statuses, updated step by step as a request moves through the
// generate and assemble queues.
const (
	StatusPending         = "pending"
	StatusProcessingStory = "processing_story"
	StatusPendingAssembly = "pending_assembly"
	StatusAssembling      = "assembling"
	StatusComplete        = "complete"
	StatusPartial         = "partial"
	StatusFailed          = "failed"
)

// Video is one requested video and its pipeline state.
type Video struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	CampaignID string `gorm:"not null;index" json:"campaign_id"`
	VideoIndex int    `gorm:"not null" json:"video_index"`
	RunDate    string `gorm:"size:8;not null;index" json:"run_date"` // YYYYMMDD
	Identity   string `gorm:"index" json:"identity"`

	Title string `gorm:"size:255" json:"title"`
	Topic string `gorm:"size:255" json:"topic"`

	Status        string `gorm:"default:'pending'" json:"status"`
	WorkDir       string `json:"-"`
	OutputDir     string `json:"output_dir,omitempty"`
	VideoPath     string `json:"video_path,omitempty"`
	VideoSkipped  bool   `json:"video_skipped"`
	FailureReason string `gorm:"type:text" json:"failure_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Video) TableName() string {
	return "videos"
}

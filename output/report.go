package output

import (
	"path/filepath"
	"time"
)

// Per-video outcome labels used in the run report and exit-code logic.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

// VideoReport is one line of the run report.
type VideoReport struct {
	Index        int      `json:"index"`
	CampaignID   string   `json:"campaign_id"`
	Topic        string   `json:"topic"`
	Outcome      string   `json:"outcome"`
	VideoPath    string   `json:"video_path,omitempty"`
	VideoSkipped bool     `json:"video_skipped,omitempty"`
	OutputDir    string   `json:"output_dir,omitempty"`
	Issues       []string `json:"issues,omitempty"`
	DurationSec  float64  `json:"duration_sec,omitempty"`
}

// RunReport summarizes one batch run.
type RunReport struct {
	RunDate    string        `json:"run_date"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Requested  int           `json:"requested"`
	Succeeded  int           `json:"succeeded"`
	Partial    int           `json:"partial"`
	Failed     int           `json:"failed"`
	Videos     []VideoReport `json:"videos"`
}

// Tally recomputes the counters from the per-video outcomes.
func (r *RunReport) Tally() {
	r.Succeeded, r.Partial, r.Failed = 0, 0, 0
	for _, v := range r.Videos {
		switch v.Outcome {
		case OutcomeSuccess:
			r.Succeeded++
		case OutcomePartial:
			r.Partial++
		default:
			r.Failed++
		}
	}
}

// WriteRunReport persists the report as generation_results.json in the run
// directory.
func (o *Organizer) WriteRunReport(report *RunReport) error {
	return saveJSON(filepath.Join(o.RunDir(), "generation_results.json"), report)
}

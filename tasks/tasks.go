package tasks

import "encoding/json"

// Queue names. A video flows through two steps: generation (story, media,
// metadata) and assembly (compositing plus output placement).
const (
	QueueVideoGenerate = "q_video_generate"
	QueueVideoAssemble = "q_video_assemble"
)

// GeneratePayload is the payload for QueueVideoGenerate.
type GeneratePayload struct {
	VideoID uint `json:"video_id"`
}

// AssemblePayload is the payload for QueueVideoAssemble.
type AssemblePayload struct {
	VideoID uint `json:"video_id"`
}

// Marshal creates a JSON payload for a task.
func Marshal(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

package models

// Summary is the output of the summarization stage.
type Summary struct {
	Text      string   `json:"text"`
	Truncated bool     `json:"truncated"`
	KeyPoints []string `json:"key_points,omitempty"`
	Facts     []string `json:"facts,omitempty"`
	Chunks    int      `json:"chunks"`
}

package model

import "time"

// Verdict is the record the stream pipeline emits for each input line.
type Verdict struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Text      string             `json:"text,omitempty"`
	Labels    LabelSet           `json:"labels"`
	Moderated bool               `json:"moderated"`        // false when classification was unavailable
	Error     string             `json:"error,omitempty"`  // cause when Moderated is false
	Scores    map[string]float32 `json:"scores,omitempty"` // per-category probability
}

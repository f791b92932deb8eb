package model

import "time"

// Submission is one piece of user text read from a connector.
type Submission struct {
	ID       string    // caller-supplied id; empty means assign one
	Text     string    // raw text, classified as-is
	Received time.Time // when the connector read it
}

package stdout

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/crimson-sun/modguard/internal/model"
	"github.com/crimson-sun/modguard/internal/output"
)

func testVerdict() model.Verdict {
	return model.Verdict{
		ID:        "v-1",
		Timestamp: time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC),
		Text:      "I will kill you <b>now</b>",
		Labels:    model.LabelSet{"Toxic", "Threat"},
		Moderated: true,
		Scores:    map[string]float32{"Toxic": 0.9, "Threat": 0.95},
	}
}

// captureStdout redirects os.Stdout to capture output.
func captureStdout(fn func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestOutputCompactJSON(t *testing.T) {
	result := captureStdout(func() {
		out := New(output.Standard, false)
		out.Write(context.Background(), testVerdict())
	})

	// Should be single line (NDJSON).
	lines := strings.Split(strings.TrimSpace(result), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	labels, _ := m["labels"].([]any)
	if len(labels) != 2 || labels[1] != "Threat" {
		t.Fatalf("labels = %v", m["labels"])
	}
	if _, ok := m["scores"]; ok {
		t.Fatal("scores should be omitted at Standard")
	}
}

func TestOutputPrettyJSON(t *testing.T) {
	var buf bytes.Buffer
	out := NewWriter(&buf, output.Standard, true)
	out.Write(context.Background(), testVerdict())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected multi-line pretty output, got %d lines", len(lines))
	}
}

func TestOutputDoesNotEscapeHTML(t *testing.T) {
	var buf bytes.Buffer
	out := NewWriter(&buf, output.Standard, false)
	out.Write(context.Background(), testVerdict())

	if !strings.Contains(buf.String(), "<b>now</b>") {
		t.Fatalf("text should be written verbatim, got %s", buf.String())
	}
}

func TestOutputFullIncludesScores(t *testing.T) {
	var buf bytes.Buffer
	out := NewWriter(&buf, output.Full, false)
	out.Write(context.Background(), testVerdict())

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	scores, ok := m["scores"].(map[string]any)
	if !ok || len(scores) != 2 {
		t.Fatalf("scores = %v", m["scores"])
	}
}

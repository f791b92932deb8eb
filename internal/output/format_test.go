package output

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/crimson-sun/modguard/internal/model"
)

func baseVerdict() model.Verdict {
	return model.Verdict{
		ID:        "0b6f2c1e-6c55-4c4e-8f0c-1d2a3b4c5d6e",
		Timestamp: time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC),
		Text:      "I will kill you",
		Labels:    model.LabelSet{"Toxic", "Threat"},
		Moderated: true,
		Scores:    map[string]float32{"Toxic": 0.9, "Threat": 0.95},
	}
}

func TestFormatVerdictMinimal(t *testing.T) {
	v := FormatVerdict(baseVerdict(), Minimal)

	if v.Text != "" {
		t.Fatal("Text should be empty at Minimal")
	}
	if v.Scores != nil {
		t.Fatal("Scores should be nil at Minimal")
	}
	if len(v.Labels) != 2 || !v.Moderated {
		t.Fatal("Labels and Moderated should be preserved")
	}
}

func TestFormatVerdictStandard(t *testing.T) {
	v := FormatVerdict(baseVerdict(), Standard)

	if v.Text == "" {
		t.Fatal("Text should be preserved at Standard")
	}
	if v.Scores != nil {
		t.Fatal("Scores should be stripped at Standard")
	}
}

func TestFormatVerdictFull(t *testing.T) {
	v := FormatVerdict(baseVerdict(), Full)

	if v.Text == "" || v.Scores["Threat"] != 0.95 {
		t.Fatalf("Full should preserve everything, got %+v", v)
	}
}

func TestFormatVerdictDoesNotMutateInput(t *testing.T) {
	orig := baseVerdict()
	FormatVerdict(orig, Minimal)

	if orig.Text == "" || orig.Scores == nil {
		t.Fatal("FormatVerdict mutated its input")
	}
}

func TestMinimalJSONOmitsFields(t *testing.T) {
	data, err := json.Marshal(FormatVerdict(baseVerdict(), Minimal))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"text", "scores", "error"} {
		if _, ok := m[key]; ok {
			t.Errorf("%s should be omitted at Minimal", key)
		}
	}
	for _, key := range []string{"id", "timestamp", "labels", "moderated"} {
		if _, ok := m[key]; !ok {
			t.Errorf("%s should be present at Minimal", key)
		}
	}
}

func TestEmptyLabelsSerializeAsArray(t *testing.T) {
	v := baseVerdict()
	v.Labels = model.LabelSet{}
	data, _ := json.Marshal(FormatVerdict(v, Minimal))

	var m map[string]any
	json.Unmarshal(data, &m)
	if arr, ok := m["labels"].([]any); !ok || len(arr) != 0 {
		t.Errorf("labels = %#v, want []", m["labels"])
	}
}

func TestParseVerbosity(t *testing.T) {
	tests := []struct {
		input string
		want  Verbosity
	}{
		{"minimal", Minimal},
		{"standard", Standard},
		{"full", Full},
		{"", Standard},
		{"loud", Standard},
	}
	for _, tt := range tests {
		if got := ParseVerbosity(tt.input); got != tt.want {
			t.Errorf("ParseVerbosity(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

package testdata

import (
	"testing"

	"github.com/crimson-sun/modguard/internal/engine/labels"
)

func TestLoadCorpus(t *testing.T) {
	entries, err := LoadCorpus()
	if err != nil {
		t.Fatalf("LoadCorpus() error: %v", err)
	}

	if len(entries) == 0 {
		t.Fatal("corpus is empty")
	}
	t.Logf("Total entries: %d", len(entries))

	for i, e := range entries {
		if e.Description == "" {
			t.Errorf("entry[%d] has empty description", i)
		}
	}
}

func TestCorpusLabelsAreKnownAndOrdered(t *testing.T) {
	entries, err := LoadCorpus()
	if err != nil {
		t.Fatalf("LoadCorpus() error: %v", err)
	}

	index := make(map[string]int, len(labels.DefaultNames))
	for i, name := range labels.DefaultNames {
		index[name] = i
	}

	flagged, benign := 0, 0
	for i, e := range entries {
		if len(e.Labels) == 0 {
			benign++
			continue
		}
		flagged++
		prev := -1
		for _, l := range e.Labels {
			idx, ok := index[l]
			if !ok {
				t.Errorf("entry[%d] (%s): unknown label %q", i, e.Description, l)
				continue
			}
			if idx <= prev {
				t.Errorf("entry[%d] (%s): labels not in category order: %v", i, e.Description, e.Labels)
			}
			prev = idx
		}
	}

	if flagged == 0 || benign == 0 {
		t.Errorf("corpus needs both benign and flagged entries, got %d benign / %d flagged", benign, flagged)
	}
}

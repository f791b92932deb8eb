package lines

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crimson-sun/modguard/internal/connector"
	"github.com/crimson-sun/modguard/internal/model"
)

func collect(t *testing.T, ch <-chan model.Submission) []model.Submission {
	t.Helper()
	var out []model.Submission
	for sub := range ch {
		out = append(out, sub)
	}
	return out
}

func TestStreamText(t *testing.T) {
	c := &Connector{}
	ch, err := c.Stream(context.Background(), connector.ConnectorConfig{
		Reader: strings.NewReader("you are the best\r\n\n   \nI will kill you\n"),
	})
	if err != nil {
		t.Fatalf("Stream error: %v", err)
	}

	got := collect(t, ch)
	if len(got) != 2 {
		t.Fatalf("got %d submissions, want 2 (blank lines skipped)", len(got))
	}
	if got[0].Text != "you are the best" || got[1].Text != "I will kill you" {
		t.Errorf("texts = %q, %q", got[0].Text, got[1].Text)
	}
	if got[0].ID != "" || got[0].Received.IsZero() {
		t.Errorf("submission = %+v", got[0])
	}
}

func TestStreamLongLineDoesNotStopStream(t *testing.T) {
	long := strings.Repeat("word ", 2<<20/5) // ~2 MiB on one line
	input := "first\n" + long + "\nthird\nfourth"

	c := &Connector{}
	ch, err := c.Stream(context.Background(), connector.ConnectorConfig{Reader: strings.NewReader(input)})
	if err != nil {
		t.Fatalf("Stream error: %v", err)
	}

	got := collect(t, ch)
	if len(got) != 4 {
		t.Fatalf("got %d submissions, want 4", len(got))
	}
	if len(got[1].Text) != len(long) {
		t.Errorf("long line has %d bytes, want %d", len(got[1].Text), len(long))
	}
	if got[2].Text != "third" || got[3].Text != "fourth" {
		t.Errorf("lines after the long one = %q, %q", got[2].Text, got[3].Text)
	}
}

func TestStreamJSONL(t *testing.T) {
	c := &Connector{}
	input := `{"id":"c-1","text":"hello"}
not json
{"id":"c-2","text":"I will kill you"}
`
	ch, err := c.Stream(context.Background(), connector.ConnectorConfig{
		Format: "jsonl",
		Reader: strings.NewReader(input),
	})
	if err != nil {
		t.Fatalf("Stream error: %v", err)
	}

	got := collect(t, ch)
	if len(got) != 2 {
		t.Fatalf("got %d submissions, want 2 (malformed line skipped)", len(got))
	}
	if got[1].ID != "c-2" || got[1].Text != "I will kill you" {
		t.Errorf("second = %+v", got[1])
	}
}

func TestStreamFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments.txt")
	if err := os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctor, err := connector.Get("file")
	if err != nil {
		t.Fatalf("Get(file): %v", err)
	}
	ch, err := ctor().Stream(context.Background(), connector.ConnectorConfig{Provider: "file", Path: path})
	if err != nil {
		t.Fatalf("Stream error: %v", err)
	}
	if got := collect(t, ch); len(got) != 3 {
		t.Errorf("got %d submissions, want 3", len(got))
	}
}

func TestStreamMissingFile(t *testing.T) {
	c := &Connector{}
	_, err := c.Stream(context.Background(), connector.ConnectorConfig{Path: filepath.Join(t.TempDir(), "nope.txt")})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestStreamUnknownFormat(t *testing.T) {
	c := &Connector{}
	_, err := c.Stream(context.Background(), connector.ConnectorConfig{Format: "csv", Reader: strings.NewReader("x")})
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestStreamCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connector{}
	input := strings.Repeat("line\n", 1000)
	ch, err := c.Stream(ctx, connector.ConnectorConfig{Reader: strings.NewReader(input)})
	if err != nil {
		t.Fatalf("Stream error: %v", err)
	}

	<-ch
	cancel()
	n := 0
	for range ch {
		n++
	}
	if n >= 999 {
		t.Errorf("read %d more submissions after cancel, expected the stream to stop early", n)
	}
}

func TestProvidersRegistered(t *testing.T) {
	got := strings.Join(connector.Providers(), ",")
	if got != "file,stdin" {
		t.Errorf("Providers = %q, want file,stdin", got)
	}
}

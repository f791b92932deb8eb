// Package lines reads newline-delimited submissions from stdin or a file.
package lines

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/crimson-sun/modguard/internal/connector"
	"github.com/crimson-sun/modguard/internal/model"
)

func init() {
	connector.Register("stdin", func() connector.Connector {
		return &Connector{stdin: os.Stdin}
	})
	connector.Register("file", func() connector.Connector {
		return &Connector{}
	})
}

// Connector streams one submission per input line.
type Connector struct {
	stdin io.Reader
}

// jsonLine is the per-line record for the "jsonl" format.
type jsonLine struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (c *Connector) Stream(ctx context.Context, cfg connector.ConnectorConfig) (<-chan model.Submission, error) {
	parse, err := parser(cfg.Format)
	if err != nil {
		return nil, err
	}

	r, closer, err := c.open(cfg)
	if err != nil {
		return nil, err
	}

	ch := make(chan model.Submission, 64)
	go func() {
		defer close(ch)
		if closer != nil {
			defer closer.Close()
		}

		// Lines have no length limit; the encoder bounds what reaches the model.
		br := bufio.NewReader(r)
		lineNo := 0
		for {
			raw, readErr := br.ReadString('\n')
			if raw != "" {
				lineNo++
				if !c.emit(ctx, ch, parse, cfg.Provider, lineNo, raw) {
					return
				}
			}
			if readErr != nil {
				if !errors.Is(readErr, io.EOF) {
					slog.Error("read error", "connector", cfg.Provider, "line", lineNo, "error", readErr)
				}
				return
			}
		}
	}()

	return ch, nil
}

// emit parses one raw line and sends it. It returns false when ctx ended.
func (c *Connector) emit(ctx context.Context, ch chan<- model.Submission, parse func(string) (model.Submission, error), provider string, lineNo int, raw string) bool {
	line := strings.TrimRight(raw, "\r\n")
	if strings.TrimSpace(line) == "" {
		return true
	}
	sub, err := parse(line)
	if err != nil {
		slog.Warn("skipping malformed line", "connector", provider, "line", lineNo, "error", err)
		return true
	}
	sub.Received = time.Now()
	select {
	case ch <- sub:
		return true
	case <-ctx.Done():
		return false
	}
}

// open resolves the reader for cfg. The returned closer is nil when the
// reader is not owned by the connector.
func (c *Connector) open(cfg connector.ConnectorConfig) (io.Reader, io.Closer, error) {
	if cfg.Reader != nil {
		return cfg.Reader, nil, nil
	}
	if cfg.Path == "" || cfg.Path == "-" {
		if c.stdin == nil {
			return nil, nil, fmt.Errorf("lines connector: no input path")
		}
		return c.stdin, nil, nil
	}
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("lines connector: %w", err)
	}
	return f, f, nil
}

func parser(format string) (func(string) (model.Submission, error), error) {
	switch format {
	case "", "text":
		return func(line string) (model.Submission, error) {
			return model.Submission{Text: line}, nil
		}, nil
	case "jsonl":
		return func(line string) (model.Submission, error) {
			var jl jsonLine
			if err := json.Unmarshal([]byte(line), &jl); err != nil {
				return model.Submission{}, err
			}
			return model.Submission{ID: jl.ID, Text: jl.Text}, nil
		}, nil
	default:
		return nil, fmt.Errorf("lines connector: unknown format %q", format)
	}
}

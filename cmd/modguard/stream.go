package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/modguard/internal/connector"
	"github.com/crimson-sun/modguard/internal/output/async"
	"github.com/crimson-sun/modguard/internal/pipeline"

	// Register connector implementations.
	_ "github.com/crimson-sun/modguard/internal/connector/lines"
)

var (
	streamInput       string
	streamFormat      string
	streamFlaggedOnly bool
	streamTee         bool
	streamBuffer      int
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Classify newline-delimited text from stdin or a file",
	Long: `Reads one submission per line (plain text, or JSON objects with "id" and
"text" when --format jsonl) and writes one verdict per submission as it
arrives. Stops at end of input, on SIGINT/SIGTERM, or when the model's output
shape disagrees with the configured categories.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromContext(cmd.Context())
		if err != nil {
			return err
		}

		provider := "stdin"
		if streamInput != "" && streamInput != "-" {
			provider = "file"
		}
		ctor, err := connector.Get(provider)
		if err != nil {
			return err
		}

		m, err := newModerator(cfg)
		if err != nil {
			return err
		}
		defer m.Close()

		out, err := newOutput(cfg, streamTee, streamFlaggedOnly)
		if err != nil {
			return err
		}
		buffered := async.New(out, async.WithBufferSize(streamBuffer))

		p := pipeline.New(ctor(), m, buffered)
		defer func() {
			p.Close()
			if n := buffered.Dropped(); n > 0 {
				slog.Warn("verdicts dropped", "count", n)
			}
		}()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			select {
			case sig := <-sigCh:
				fmt.Fprintf(os.Stderr, "\nreceived %v, shutting down...\n", sig)
				cancel()
			case <-ctx.Done():
			}
		}()

		slog.Info("stream started", "provider", provider, "format", streamFormat, "categories", len(m.Categories()))
		err = p.Stream(ctx, connector.ConnectorConfig{
			Provider: provider,
			Path:     streamInput,
			Format:   streamFormat,
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	f := streamCmd.Flags()
	f.StringVarP(&streamInput, "input", "i", "", "read from this file instead of stdin")
	f.StringVar(&streamFormat, "format", "text", "input format: text or jsonl")
	f.BoolVar(&streamFlaggedOnly, "flagged-only", false, "only write verdicts with labels or errors")
	f.BoolVar(&streamTee, "tee", false, "with --output file, also write verdicts to stdout")
	f.IntVar(&streamBuffer, "buffer", 1024, "verdicts buffered between classification and output")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/modguard/internal/config"
	"github.com/crimson-sun/modguard/internal/logging"
	"github.com/crimson-sun/modguard/internal/output"
	"github.com/crimson-sun/modguard/internal/output/file"
	"github.com/crimson-sun/modguard/internal/output/multi"
	"github.com/crimson-sun/modguard/internal/output/stdout"
	"github.com/crimson-sun/modguard/internal/output/webhook"
	"github.com/crimson-sun/modguard/pkg/modguard"
)

// Flag values shared by every subcommand. Only flags the user set override
// the loaded configuration.
var (
	flagModel      string
	flagVocab      string
	flagThreshold  float64
	flagTimeout    time.Duration
	flagOutput     string
	flagOutputPath string
	flagVerbosity  string
	flagWebhookURL string
	flagLogLevel   string
	flagLogJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "modguard",
	Short: "Flag toxic text with a pretrained classifier",
	Long: `modguard classifies user text into toxicity categories (Toxic, Severe Toxic,
Obscene, Threat, Insult, Identity Hate) with a pretrained ONNX model and writes
one JSON verdict per input.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipsConfig(cmd) {
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		applyFlags(cmd, &cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		logging.Init(flagLogJSON, logging.ParseLevel(cfg.Logging.Level))

		cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagModel, "model", "", "path to the ONNX classifier (env MODGUARD_MODEL_PATH)")
	pf.StringVar(&flagVocab, "vocab", "", "path to the vocabulary file (env MODGUARD_VOCAB_PATH)")
	pf.Float64Var(&flagThreshold, "threshold", 0, "inclusive score cutoff in [0,1] (env MODGUARD_THRESHOLD)")
	pf.DurationVar(&flagTimeout, "timeout", 0, "per-request inference bound, 0 disables (env MODGUARD_TIMEOUT)")
	pf.StringVar(&flagOutput, "output", "", "verdict destination: stdout or file (env MODGUARD_OUTPUT)")
	pf.StringVar(&flagOutputPath, "output-path", "", "file path for --output file (env MODGUARD_OUTPUT_PATH)")
	pf.StringVar(&flagWebhookURL, "webhook-url", "", "also POST flagged verdicts to this URL (env MODGUARD_WEBHOOK_URL)")
	pf.StringVar(&flagVerbosity, "verbosity", "", "minimal, standard or full (env MODGUARD_VERBOSITY)")
	pf.StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error (env MODGUARD_LOG_LEVEL)")
	pf.BoolVar(&flagLogJSON, "log-json", false, "write logs to stderr as JSON")

	rootCmd.AddCommand(classifyCmd, streamCmd, categoriesCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "modguard:", err)
		os.Exit(exitCode(err))
	}
}

// skipsConfig reports whether cmd runs without a configuration: help and
// shell completion must work even when the environment is misconfigured.
func skipsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return true
		}
	}
	return false
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("model") {
		cfg.Engine.ModelPath = flagModel
	}
	if f.Changed("vocab") {
		cfg.Engine.VocabPath = flagVocab
	}
	if f.Changed("threshold") {
		cfg.Engine.Threshold = flagThreshold
	}
	if f.Changed("timeout") {
		cfg.Engine.Timeout = flagTimeout
	}
	if f.Changed("output") {
		cfg.Output.Format = flagOutput
	}
	if f.Changed("output-path") {
		cfg.Output.Path = flagOutputPath
	}
	if f.Changed("webhook-url") {
		cfg.Output.WebhookURL = flagWebhookURL
	}
	if f.Changed("verbosity") {
		cfg.Output.Verbosity = flagVerbosity
	}
	if f.Changed("log-level") {
		cfg.Logging.Level = flagLogLevel
	}
}

type contextKey string

const configKey contextKey = "config"

func configFromContext(ctx context.Context) (config.Config, error) {
	cfg, ok := ctx.Value(configKey).(config.Config)
	if !ok {
		return config.Config{}, errors.New("configuration not initialized")
	}
	return cfg, nil
}

// newModerator builds a Moderator from the engine configuration.
func newModerator(cfg config.Config) (*modguard.Moderator, error) {
	e := cfg.Engine
	opts := []modguard.Option{
		modguard.WithModelPaths(e.ModelPath, e.VocabPath),
		modguard.WithSequenceLength(e.SequenceLength),
		modguard.WithCategoryTable(e.Categories...),
		modguard.WithCategoryCount(e.CategoryCount),
		modguard.WithThreshold(e.Threshold),
		modguard.WithTimeout(e.Timeout),
		modguard.WithOverflow(e.Overflow),
		modguard.WithWorkers(e.Workers),
	}
	if e.LibraryPath != "" {
		opts = append(opts, modguard.WithLibraryPath(e.LibraryPath))
	}
	return modguard.New(opts...)
}

// newOutput builds the configured verdict destination. tee additionally
// copies file output to stdout; flaggedOnly drops clean verdicts. A
// configured webhook receives flagged verdicts only.
func newOutput(cfg config.Config, tee, flaggedOnly bool) (output.Output, error) {
	verbosity := output.ParseVerbosity(cfg.Output.Verbosity)

	var out output.Output
	switch cfg.Output.Format {
	case "file":
		f, err := file.New(cfg.Output.Path, verbosity)
		if err != nil {
			return nil, err
		}
		out = f
		if tee {
			out = multi.New(f, stdout.New(verbosity, cfg.Output.Pretty))
		}
	default:
		out = stdout.New(verbosity, cfg.Output.Pretty)
	}

	if flaggedOnly {
		out = multi.OnlyFlagged(out)
	}
	if cfg.Output.WebhookURL != "" {
		hook := webhook.New(cfg.Output.WebhookURL, verbosity, webhook.WithHeaders(cfg.Output.Headers))
		out = multi.New(out, multi.OnlyFlagged(hook))
	}
	return out, nil
}

// exitCode maps failures to process exit codes: 2 for an unloadable model,
// 1 otherwise.
func exitCode(err error) int {
	var le *modguard.ModelLoadError
	if errors.As(err, &le) {
		return 2
	}
	return 1
}

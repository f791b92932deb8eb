package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all modguard configuration.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig holds classification engine settings.
type EngineConfig struct {
	ModelPath      string        `yaml:"model_path"`
	VocabPath      string        `yaml:"vocab_path"`
	LibraryPath    string        `yaml:"library_path"` // ONNX Runtime shared library; empty = next to model
	SequenceLength int           `yaml:"sequence_length"`
	CategoryCount  int           `yaml:"category_count"`
	Threshold      float64       `yaml:"threshold"`
	Categories     []string      `yaml:"categories"`
	Timeout        time.Duration `yaml:"timeout"`
	Overflow       string        `yaml:"overflow"` // "truncate", "reject"
	Workers        int           `yaml:"workers"`
}

// OutputConfig holds verdict destination settings.
type OutputConfig struct {
	Format     string            `yaml:"format"`      // "stdout", "file"
	Path       string            `yaml:"path"`        // file output path
	Verbosity  string            `yaml:"verbosity"`   // "minimal", "standard", "full"
	Pretty     bool              `yaml:"pretty"`
	WebhookURL string            `yaml:"webhook_url"` // flagged verdicts are also POSTed here when set
	Headers    map[string]string `yaml:"webhook_headers"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			ModelPath:      "models/model.onnx",
			VocabPath:      "models/vocab.json",
			SequenceLength: 150,
			CategoryCount:  6,
			Threshold:      0.7,
			Categories:     []string{"Toxic", "Severe Toxic", "Obscene", "Threat", "Insult", "Identity Hate"},
			Timeout:        5 * time.Second,
			Overflow:       "truncate",
			Workers:        4,
		},
		Output: OutputConfig{
			Format:    "stdout",
			Verbosity: "standard",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// MODGUARD_CONFIG (if set), then environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("MODGUARD_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays environment variables. Values that fail to parse are
// reported together rather than silently replaced by the previous value.
func applyEnv(cfg *Config) error {
	var env envReader

	e := &cfg.Engine
	e.ModelPath = getenv("MODGUARD_MODEL_PATH", e.ModelPath)
	e.VocabPath = getenv("MODGUARD_VOCAB_PATH", e.VocabPath)
	e.LibraryPath = getenv("MODGUARD_ORT_LIBRARY", e.LibraryPath)
	e.SequenceLength = env.getenvInt("MODGUARD_SEQUENCE_LENGTH", e.SequenceLength)
	e.CategoryCount = env.getenvInt("MODGUARD_CATEGORY_COUNT", e.CategoryCount)
	e.Threshold = env.getenvFloat("MODGUARD_THRESHOLD", e.Threshold)
	e.Categories = getenvList("MODGUARD_CATEGORIES", e.Categories)
	e.Timeout = env.getenvDuration("MODGUARD_TIMEOUT", e.Timeout)
	e.Overflow = getenv("MODGUARD_OVERFLOW", e.Overflow)
	e.Workers = env.getenvInt("MODGUARD_WORKERS", e.Workers)

	o := &cfg.Output
	o.Format = getenv("MODGUARD_OUTPUT", o.Format)
	o.Path = getenv("MODGUARD_OUTPUT_PATH", o.Path)
	o.Verbosity = getenv("MODGUARD_VERBOSITY", o.Verbosity)
	o.Pretty = env.getenvBool("MODGUARD_OUTPUT_PRETTY", o.Pretty)
	o.WebhookURL = getenv("MODGUARD_WEBHOOK_URL", o.WebhookURL)

	cfg.Logging.Level = getenv("MODGUARD_LOG_LEVEL", cfg.Logging.Level)

	if len(env.errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(env.errs, "; "))
	}
	return nil
}

// Validate checks the configuration for errors that would prevent startup.
func (c Config) Validate() error {
	var errs []string

	e := c.Engine
	if e.ModelPath == "" {
		errs = append(errs, "engine.model_path is required")
	}
	if e.VocabPath == "" {
		errs = append(errs, "engine.vocab_path is required")
	}
	if e.SequenceLength <= 0 {
		errs = append(errs, fmt.Sprintf("engine.sequence_length must be positive, got %d", e.SequenceLength))
	}
	if e.Threshold < 0 || e.Threshold > 1 {
		errs = append(errs, fmt.Sprintf("engine.threshold must be in [0,1], got %v", e.Threshold))
	}
	if e.CategoryCount != len(e.Categories) {
		errs = append(errs, fmt.Sprintf("engine.category_count is %d but %d categories are configured", e.CategoryCount, len(e.Categories)))
	}
	if e.Timeout < 0 {
		errs = append(errs, "engine.timeout must not be negative")
	}
	switch e.Overflow {
	case "truncate", "reject":
	default:
		errs = append(errs, fmt.Sprintf("engine.overflow must be truncate or reject, got %q", e.Overflow))
	}
	if e.Workers <= 0 {
		errs = append(errs, fmt.Sprintf("engine.workers must be positive, got %d", e.Workers))
	}

	switch c.Output.Format {
	case "stdout":
	case "file":
		if c.Output.Path == "" {
			errs = append(errs, "output.path is required when output.format is file")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown output format %q", c.Output.Format))
	}
	if c.Output.WebhookURL != "" {
		u, err := url.Parse(c.Output.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("output.webhook_url must be an http(s) URL, got %q", c.Output.WebhookURL))
		}
	}
	switch c.Output.Verbosity {
	case "minimal", "standard", "full":
	default:
		errs = append(errs, fmt.Sprintf("unknown verbosity %q", c.Output.Verbosity))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envReader parses typed environment values and records the ones that fail.
type envReader struct {
	errs []string
}

func (r *envReader) invalid(key, v, kind string) {
	r.errs = append(r.errs, fmt.Sprintf("%s=%q is not a valid %s", key, v, kind))
}

func (r *envReader) getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.invalid(key, v, "integer")
		return fallback
	}
	return n
}

func (r *envReader) getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.invalid(key, v, "number")
		return fallback
	}
	return f
}

func (r *envReader) getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.invalid(key, v, "boolean")
		return fallback
	}
	return b
}

func (r *envReader) getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.invalid(key, v, "duration")
		return fallback
	}
	return d
}

// getenvList splits a comma-separated value, trimming blanks.
func getenvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

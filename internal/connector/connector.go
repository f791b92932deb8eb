package connector

import (
	"context"
	"io"

	"github.com/crimson-sun/modguard/internal/model"
)

// Connector defines the interface all text source connectors must implement.
type Connector interface {
	// Stream reads submissions until the source is exhausted or ctx is
	// cancelled, then closes the channel.
	Stream(ctx context.Context, cfg ConnectorConfig) (<-chan model.Submission, error)
}

// ConnectorConfig holds source-specific settings.
type ConnectorConfig struct {
	Provider string
	Path     string    // file path for the "file" provider
	Format   string    // "text" (one submission per line) or "jsonl"
	Reader   io.Reader // overrides the provider's default reader when set
}

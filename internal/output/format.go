package output

import "github.com/crimson-sun/modguard/internal/model"

// Verbosity controls which verdict fields are written.
type Verbosity int

const (
	// Minimal writes id, timestamp, labels and the moderated flag.
	Minimal Verbosity = iota
	// Standard adds the input text, truncated to StandardTextLimit runes,
	// and any failure cause.
	Standard
	// Full adds per-category scores and the complete text.
	Full
)

// ParseVerbosity maps "minimal", "standard" or "full" to a Verbosity.
// Unknown strings default to Standard.
func ParseVerbosity(s string) Verbosity {
	switch s {
	case "minimal":
		return Minimal
	case "full":
		return Full
	default:
		return Standard
	}
}

// FormatVerdict returns a copy of the verdict with fields stripped according
// to verbosity. Stripped fields are omitted from JSON via omitempty.
func FormatVerdict(v model.Verdict, verbosity Verbosity) model.Verdict {
	switch verbosity {
	case Minimal:
		v.Text = ""
		v.Error = ""
		v.Scores = nil
	case Standard:
		v.Text = truncate(v.Text, StandardTextLimit)
		v.Scores = nil
	}
	return v
}

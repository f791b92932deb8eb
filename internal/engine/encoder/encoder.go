package encoder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/crimson-sun/modguard/internal/engine/vocab"
)

// DefaultSequenceLength is the input length the reference model accepts.
const DefaultSequenceLength = 150

// ErrSequenceTooLong is returned under the Reject policy when the text has
// more tokens than the sequence length.
var ErrSequenceTooLong = errors.New("encoder: sequence exceeds model input length")

// Overflow selects what happens when the token count exceeds the sequence length.
type Overflow int

const (
	// Truncate keeps the first N token ids.
	Truncate Overflow = iota
	// Reject fails the encode with ErrSequenceTooLong.
	Reject
)

// ParseOverflow maps "truncate" or "reject" to an Overflow. Unknown strings
// default to Truncate.
func ParseOverflow(s string) Overflow {
	if strings.EqualFold(s, "reject") {
		return Reject
	}
	return Truncate
}

func (o Overflow) String() string {
	if o == Reject {
		return "reject"
	}
	return "truncate"
}

// Sequence is a fixed-length list of token ids ready for inference.
type Sequence []int64

// Encoder turns normalized text into fixed-length id sequences.
type Encoder struct {
	vocab    *vocab.Vocabulary
	length   int
	overflow Overflow
}

// New creates an Encoder producing sequences of exactly length ids.
func New(v *vocab.Vocabulary, length int, overflow Overflow) (*Encoder, error) {
	if v == nil {
		return nil, fmt.Errorf("encoder: nil vocabulary")
	}
	if length <= 0 {
		return nil, fmt.Errorf("encoder: sequence length must be positive, got %d", length)
	}
	return &Encoder{vocab: v, length: length, overflow: overflow}, nil
}

// Length returns the fixed sequence length.
func (e *Encoder) Length() int {
	return e.length
}

// Tokens splits normalized text on single spaces. Consecutive spaces yield
// empty tokens and "" yields one empty token; both map to the OOV id.
func Tokens(normalized string) []string {
	return strings.Split(normalized, " ")
}

// Encode maps each token to its vocabulary id and pads with vocab.PadID to
// the fixed length. Over-length input is handled per the Overflow policy.
func (e *Encoder) Encode(normalized string) (Sequence, error) {
	tokens := Tokens(normalized)

	if len(tokens) > e.length {
		if e.overflow == Reject {
			return nil, fmt.Errorf("%w: %d tokens, limit %d", ErrSequenceTooLong, len(tokens), e.length)
		}
		tokens = tokens[:e.length]
	}

	seq := make(Sequence, e.length) // zero value is vocab.PadID
	for i, tok := range tokens {
		seq[i] = e.vocab.Lookup(tok)
	}
	return seq, nil
}

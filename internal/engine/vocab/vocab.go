package vocab

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// PadID fills sequence positions past the last token.
	PadID int64 = 0
	// OOVID replaces any token absent from the vocabulary.
	OOVID int64 = 1
)

// oovMarker is the placeholder entry tokenizer exports write for OOVID.
// It is accepted on load and dropped so it never matches user text.
const oovMarker = "<OOV>"

// Vocabulary maps normalized words to integer ids. It is immutable after
// construction and safe for concurrent use.
type Vocabulary struct {
	wordToID map[string]int64
}

// Load reads a word→id mapping from a .json or .yaml/.yml file.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: %w", err)
	}

	m := make(map[string]int64)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("vocab: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("vocab: parse %s: %w", path, err)
		}
	}

	v, err := New(m)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return v, nil
}

// New builds a Vocabulary from an in-memory mapping. The map is copied.
func New(m map[string]int64) (*Vocabulary, error) {
	wordToID := make(map[string]int64, len(m))
	owner := make(map[int64]string, len(m))

	for word, id := range m {
		if word == oovMarker && id == OOVID {
			continue
		}
		switch {
		case id < 0:
			return nil, fmt.Errorf("vocab: word %q has negative id %d", word, id)
		case id == PadID:
			return nil, fmt.Errorf("vocab: word %q uses reserved padding id %d", word, id)
		case id == OOVID:
			return nil, fmt.Errorf("vocab: word %q uses reserved OOV id %d", word, id)
		}
		if prev, ok := owner[id]; ok {
			return nil, fmt.Errorf("vocab: id %d assigned to both %q and %q", id, prev, word)
		}
		owner[id] = word
		wordToID[word] = id
	}

	if len(wordToID) == 0 {
		return nil, fmt.Errorf("vocab: no words")
	}
	return &Vocabulary{wordToID: wordToID}, nil
}

// Lookup returns the id for word, or OOVID if the word is unknown.
func (v *Vocabulary) Lookup(word string) int64 {
	if id, ok := v.wordToID[word]; ok {
		return id
	}
	return OOVID
}

// Contains reports whether the word is in the vocabulary.
func (v *Vocabulary) Contains(word string) bool {
	_, ok := v.wordToID[word]
	return ok
}

// Size returns the number of words.
func (v *Vocabulary) Size() int {
	return len(v.wordToID)
}

package labels

import (
	"fmt"
	"strings"

	"github.com/crimson-sun/modguard/internal/model"
)

// DefaultNames are the categories of the reference toxicity model, in score
// vector order.
var DefaultNames = []string{
	"Toxic",
	"Severe Toxic",
	"Obscene",
	"Threat",
	"Insult",
	"Identity Hate",
}

// DefaultTable returns the built-in six-category table.
func DefaultTable() Table {
	t, _ := TableFromNames(DefaultNames)
	return t
}

// TableFromNames builds a Table from ordered names. Names must be non-empty
// and unique.
func TableFromNames(names []string) (Table, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("labels: empty category table")
	}
	seen := make(map[string]bool, len(names))
	t := make(Table, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("labels: category %d has empty name", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("labels: duplicate category %q", name)
		}
		seen[name] = true
		t[i] = model.Category{Index: i, Name: name}
	}
	return t, nil
}

package labels

import (
	"fmt"

	"github.com/crimson-sun/modguard/internal/model"
)

// DefaultThreshold is the inclusive probability cutoff for a category.
const DefaultThreshold = 0.7

// Table is the ordered category list matching the classifier's score vector.
type Table []model.Category

// Names returns category names in index order.
func (t Table) Names() []string {
	names := make([]string, len(t))
	for i, c := range t {
		names[i] = c.Name
	}
	return names
}

// Extractor turns a score vector into the labels that meet the threshold.
type Extractor struct {
	Table     Table
	Threshold float64
}

// New creates an Extractor for the given table and threshold.
func New(table Table, threshold float64) *Extractor {
	return &Extractor{Table: table, Threshold: threshold}
}

// Extract returns the names of categories whose score is >= Threshold, in
// ascending index order. A score vector whose length differs from the table
// yields a *model.ShapeMismatchError.
func (e *Extractor) Extract(scores []float32) (model.LabelSet, error) {
	if len(scores) != len(e.Table) {
		return nil, &model.ShapeMismatchError{What: "scores", Want: len(e.Table), Got: len(scores)}
	}

	// Scores are widened before comparing; float32(0.7) is below 0.7.
	out := model.LabelSet{}
	for i, c := range e.Table {
		if float64(scores[i]) >= e.Threshold {
			out = append(out, c.Name)
		}
	}
	return out, nil
}

// Scores pairs each category name with its score. Same length rule as Extract.
func (e *Extractor) Scores(scores []float32) (map[string]float32, error) {
	if len(scores) != len(e.Table) {
		return nil, &model.ShapeMismatchError{What: "scores", Want: len(e.Table), Got: len(scores)}
	}
	m := make(map[string]float32, len(scores))
	for i, c := range e.Table {
		m[c.Name] = scores[i]
	}
	return m, nil
}

// ValidateThreshold rejects cutoffs outside [0,1].
func ValidateThreshold(t float64) error {
	if t < 0 || t > 1 {
		return fmt.Errorf("labels: threshold %v outside [0,1]", t)
	}
	return nil
}

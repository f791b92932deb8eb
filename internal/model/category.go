package model

// Category is one entry of the classifier's output table.
type Category struct {
	Index int    // position in the score vector
	Name  string // label reported to callers, e.g. "Threat"
}

// LabelSet is the ordered list of category names whose score met the
// threshold, in ascending category index order.
type LabelSet []string

// Package recommend serves nearest-neighbour lookups over a precomputed
// similarity artifact.
//
// An Index is immutable once loaded and safe for concurrent use without
// locking. Name resolution is fuzzy: exact match, then case-insensitive
// match, then case-insensitive substring match, each stage taking the first
// hit in the artifact's label order.
package recommend

import (
	"errors"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

var (
	// ErrNotFound is returned when a name resolves to no label.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable is returned when no artifact could be loaded.
	ErrUnavailable = errors.New("recommendation model not loaded")
	// ErrInvalidArtifact wraps structural problems found by Validate.
	ErrInvalidArtifact = errors.New("invalid artifact")
)

// Match is one ranked neighbour.
type Match struct {
	Label      string
	Score      float64
	Attributes Attributes
}

// Index is a loaded, validated artifact.
type Index struct {
	labels     []string
	folded     []string
	similarity [][]float64
	attributes []Attributes
	byLabel    map[string]int
}

// Load validates a and builds an Index. The artifact's slices are copied so
// later mutation by the caller cannot affect the index.
func Load(a *Artifact) (*Index, error) {
	if a == nil {
		return nil, ErrInvalidArtifact
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	n := len(a.Labels)
	fold := cases.Fold()
	idx := &Index{
		labels:     slices.Clone(a.Labels),
		folded:     make([]string, n),
		similarity: make([][]float64, n),
		attributes: make([]Attributes, n),
		byLabel:    make(map[string]int, n),
	}
	for i, l := range a.Labels {
		idx.folded[i] = fold.String(l)
		idx.similarity[i] = slices.Clone(a.Similarity[i])
		idx.byLabel[l] = i
		if a.Attributes != nil {
			idx.attributes[i] = a.Attributes[i]
		}
	}
	return idx, nil
}

// Len returns the number of labels in the catalogue.
func (x *Index) Len() int {
	return len(x.labels)
}

// Labels returns a copy of the labels in stored order.
func (x *Index) Labels() []string {
	return slices.Clone(x.labels)
}

// Resolve maps a user-supplied name to a canonical label.
func (x *Index) Resolve(name string) (string, error) {
	if name == "" {
		return "", ErrNotFound
	}
	if _, ok := x.byLabel[name]; ok {
		return name, nil
	}
	q := cases.Fold().String(name)
	for i, f := range x.folded {
		if f == q {
			return x.labels[i], nil
		}
	}
	for i, f := range x.folded {
		if strings.Contains(f, q) {
			return x.labels[i], nil
		}
	}
	return "", ErrNotFound
}

// TopN returns up to n labels most similar to label, best first, never
// including label itself. Equal scores keep catalogue order.
func (x *Index) TopN(label string, n int) ([]Match, error) {
	i, ok := x.byLabel[label]
	if !ok {
		return nil, ErrNotFound
	}
	if n <= 0 {
		return []Match{}, nil
	}
	row := x.similarity[i]
	order := make([]int, 0, len(row)-1)
	for j := range row {
		if j != i {
			order = append(order, j)
		}
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case row[a] > row[b]:
			return -1
		case row[a] < row[b]:
			return 1
		default:
			return 0
		}
	})
	if n > len(order) {
		n = len(order)
	}
	out := make([]Match, n)
	for k, j := range order[:n] {
		out[k] = Match{
			Label:      x.labels[j],
			Score:      row[j],
			Attributes: x.attributes[j],
		}
	}
	return out, nil
}

package recommend

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/goccy/go-json"
)

// Attributes is the per-label metadata returned alongside each match.
type Attributes struct {
	Duration string `json:"duration"`
	Time     string `json:"time"`
}

// Artifact is the precomputed similarity model produced offline. It is the
// on-disk JSON form consumed by Load.
type Artifact struct {
	Labels       []string       `json:"labels"`
	Similarity   [][]float64    `json:"similarity"`
	LabelToIndex map[string]int `json:"label_to_index,omitempty"`
	Attributes   []Attributes   `json:"attributes,omitempty"`
}

// Decode reads an artifact from r.
func Decode(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decoding artifact: %w", err)
	}
	return &a, nil
}

// LoadFile reads and validates the artifact at path.
func LoadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening artifact: %w", err)
	}
	defer f.Close()
	a, err := Decode(f)
	if err != nil {
		return nil, err
	}
	return Load(a)
}

// Validate checks the structural invariants of the artifact.
func (a *Artifact) Validate() error {
	n := len(a.Labels)
	if n == 0 {
		return fmt.Errorf("%w: no labels", ErrInvalidArtifact)
	}
	seen := make(map[string]int, n)
	for i, l := range a.Labels {
		if l == "" {
			return fmt.Errorf("%w: empty label at %d", ErrInvalidArtifact, i)
		}
		if j, dup := seen[l]; dup {
			return fmt.Errorf("%w: label %q at %d and %d", ErrInvalidArtifact, l, j, i)
		}
		seen[l] = i
	}
	if len(a.Similarity) != n {
		return fmt.Errorf("%w: similarity has %d rows, want %d", ErrInvalidArtifact, len(a.Similarity), n)
	}
	for i, row := range a.Similarity {
		if len(row) != n {
			return fmt.Errorf("%w: similarity row %d has %d columns, want %d", ErrInvalidArtifact, i, len(row), n)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: similarity[%d][%d] is not finite", ErrInvalidArtifact, i, j)
			}
		}
	}
	if a.Attributes != nil && len(a.Attributes) != n {
		return fmt.Errorf("%w: %d attribute rows, want %d", ErrInvalidArtifact, len(a.Attributes), n)
	}
	if a.LabelToIndex != nil {
		if len(a.LabelToIndex) != n {
			return fmt.Errorf("%w: label_to_index has %d entries, want %d", ErrInvalidArtifact, len(a.LabelToIndex), n)
		}
		for l, i := range a.LabelToIndex {
			if want, ok := seen[l]; !ok || want != i {
				return fmt.Errorf("%w: label_to_index[%q] = %d disagrees with labels", ErrInvalidArtifact, l, i)
			}
		}
	}
	return nil
}

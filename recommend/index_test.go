package recommend_test

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer/wayfarer/recommend"
)

func loadCities(t *testing.T) *recommend.Index {
	t.Helper()
	idx, err := recommend.LoadFile(filepath.Join("testdata", "cities.json"))
	require.NoError(t, err)
	return idx
}

func TestResolve(t *testing.T) {
	idx := loadCities(t)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"exact", "Rome", "Rome"},
		{"case insensitive", "rOmE", "Rome"},
		{"case insensitive wins over substring", "paris", "Paris"},
		{"substring first in label order", "york", "New York"},
		{"substring ties resolve to earliest label", "to", "Tokyo"},
		{"exact beats earlier substring", "Paris, Texas", "Paris, Texas"},
		{"diacritics are not stripped", "KYŌTO", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.Resolve(tt.in)
			if tt.want == "" {
				assert.ErrorIs(t, err, recommend.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveNotFound(t *testing.T) {
	idx := loadCities(t)
	for _, name := range []string{"Unknownville", ""} {
		_, err := idx.Resolve(name)
		assert.ErrorIs(t, err, recommend.ErrNotFound, name)
	}
}

func TestResolveIsIdempotentOnCanonicalLabels(t *testing.T) {
	idx := loadCities(t)
	for _, l := range idx.Labels() {
		got, err := idx.Resolve(l)
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
}

func TestTopN(t *testing.T) {
	idx := loadCities(t)

	got, err := idx.TopN("Paris", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Rome", got[0].Label)
	assert.Equal(t, 0.82, got[0].Score)
	assert.Equal(t, "3-4 days", got[0].Attributes.Duration)
	assert.Equal(t, "April-May", got[0].Attributes.Time)
	assert.Equal(t, "Barcelona", got[1].Label)
}

func TestTopNProperties(t *testing.T) {
	idx := loadCities(t)
	for _, label := range idx.Labels() {
		for _, n := range []int{-1, 0, 1, 3, idx.Len() - 1, idx.Len(), 100} {
			got, err := idx.TopN(label, n)
			require.NoError(t, err)

			switch {
			case n <= 0:
				assert.Empty(t, got)
			case n >= idx.Len()-1:
				assert.Len(t, got, idx.Len()-1)
			default:
				assert.Len(t, got, n)
			}
			for i, m := range got {
				assert.NotEqual(t, label, m.Label, "self must be excluded")
				if i > 0 {
					assert.GreaterOrEqual(t, got[i-1].Score, m.Score, "scores must be descending")
				}
			}
		}
	}
}

func TestTopNStableTies(t *testing.T) {
	idx, err := recommend.Load(&recommend.Artifact{
		Labels: []string{"A", "B", "C", "D"},
		Similarity: [][]float64{
			{1, 0.5, 0.5, 0.5},
			{0.5, 1, 0, 0},
			{0.5, 0, 1, 0},
			{0.5, 0, 0, 1},
		},
	})
	require.NoError(t, err)

	got, err := idx.TopN("A", 3)
	require.NoError(t, err)
	labels := []string{got[0].Label, got[1].Label, got[2].Label}
	assert.Equal(t, []string{"B", "C", "D"}, labels)

	// Self-similarity is excluded even when it is not the highest score.
	got, err = idx.TopN("B", 3)
	require.NoError(t, err)
	assert.Equal(t, "A", got[0].Label)
	assert.Equal(t, "C", got[1].Label)
	assert.Equal(t, "D", got[2].Label)
}

func TestTopNUnknownLabel(t *testing.T) {
	idx := loadCities(t)
	_, err := idx.TopN("paris", 3)
	assert.ErrorIs(t, err, recommend.ErrNotFound)
}

func TestLoadRejectsMalformedArtifacts(t *testing.T) {
	tests := []struct {
		name string
		a    *recommend.Artifact
	}{
		{"nil", nil},
		{"no labels", &recommend.Artifact{}},
		{"duplicate labels", &recommend.Artifact{Labels: []string{"A", "A"}, Similarity: [][]float64{{1, 0}, {0, 1}}}},
		{"empty label", &recommend.Artifact{Labels: []string{""}, Similarity: [][]float64{{1}}}},
		{"too few rows", &recommend.Artifact{Labels: []string{"A", "B"}, Similarity: [][]float64{{1, 0}}}},
		{"ragged row", &recommend.Artifact{Labels: []string{"A", "B"}, Similarity: [][]float64{{1, 0}, {0}}}},
		{"attribute count", &recommend.Artifact{Labels: []string{"A"}, Similarity: [][]float64{{1}}, Attributes: []recommend.Attributes{{}, {}}}},
		{"index disagrees", &recommend.Artifact{Labels: []string{"A", "B"}, Similarity: [][]float64{{1, 0}, {0, 1}}, LabelToIndex: map[string]int{"A": 1, "B": 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := recommend.Load(tt.a)
			assert.ErrorIs(t, err, recommend.ErrInvalidArtifact)
		})
	}
}

func TestLoadCopiesArtifact(t *testing.T) {
	a := &recommend.Artifact{
		Labels:     []string{"A", "B"},
		Similarity: [][]float64{{1, 0.2}, {0.2, 1}},
	}
	idx, err := recommend.Load(a)
	require.NoError(t, err)

	a.Labels[1] = "Z"
	a.Similarity[0][1] = 99

	got, err := idx.TopN("A", 1)
	require.NoError(t, err)
	assert.Equal(t, "B", got[0].Label)
	assert.Equal(t, 0.2, got[0].Score)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := recommend.Decode(strings.NewReader("\x80\x04pickle"))
	assert.Error(t, err)
}

func TestOpenMissingArtifactIsUnavailable(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := recommend.Open(filepath.Join(t.TempDir(), "missing.json"), logger)
	assert.False(t, h.Available())
	_, err := h.Index()
	assert.True(t, errors.Is(err, recommend.ErrUnavailable))
	assert.Error(t, h.Cause())

	h = recommend.Open("", logger)
	assert.False(t, h.Available())

	h = recommend.Open(filepath.Join("testdata", "cities.json"), logger)
	require.True(t, h.Available())
	idx, err := h.Index()
	require.NoError(t, err)
	assert.Equal(t, 7, idx.Len())
}

package encoder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEncoder_DeterministicAcrossCalls(t *testing.T) {
	e := NewStaticEncoder()
	ctx := context.Background()

	first, err := e.Embed(ctx, []string{"semantic search over notes"})
	require.NoError(t, err)
	second, err := e.Embed(ctx, []string{"semantic search over notes"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestStaticEncoder_DifferentTextsDifferentVectors(t *testing.T) {
	e := NewStaticEncoder()
	ctx := context.Background()

	vecs, err := e.Embed(ctx, []string{"alpha beta gamma", "completely unrelated text"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.NotEqual(t, vecs[0], vecs[1])
}

func TestStaticEncoder_EmptyTextYieldsZeroVector(t *testing.T) {
	e := NewStaticEncoder()
	ctx := context.Background()

	vecs, err := e.Embed(ctx, []string{"   "})
	require.NoError(t, err)
	require.Len(t, vecs, 1)
	for _, f := range vecs[0] {
		assert.Zero(t, f)
	}
}

func TestStaticEncoder_VectorsAreUnitLength(t *testing.T) {
	e := NewStaticEncoder()
	ctx := context.Background()

	vecs, err := e.Embed(ctx, []string{"vault search hybrid rrf bm25 dense lexical"})
	require.NoError(t, err)

	var sumSquares float64
	for _, f := range vecs[0] {
		sumSquares += float64(f) * float64(f)
	}
	assert.InDelta(t, 1.0, sumSquares, 1e-4)
}

func TestStaticEncoder_DimensionMatchesOutput(t *testing.T) {
	e := NewStaticEncoder()
	vecs, err := e.Embed(context.Background(), []string{"anything"})
	require.NoError(t, err)
	assert.Equal(t, e.Dimension(), len(vecs[0]))
}

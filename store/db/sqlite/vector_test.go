package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVectorRoundTrip(t *testing.T) {
	v := []float32{0.5, -1.25, 3.75, 0}
	decoded, err := decodeVector(encodeVector(v))
	require.NoError(t, err)
	require.Equal(t, v, decoded)
}

func TestVectorRoundTripEmpty(t *testing.T) {
	decoded, err := decodeVector(encodeVector(nil))
	require.NoError(t, err)
	require.Nil(t, decoded)
}

func TestDecodeVectorMalformed(t *testing.T) {
	_, err := decodeVector([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	require.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	require.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	require.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// Degenerate inputs score 0 and fall below any positive threshold.
	require.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	require.Zero(t, cosineSimilarity([]float32{1}, []float32{1, 0}))
	require.Zero(t, cosineSimilarity(nil, nil))
}

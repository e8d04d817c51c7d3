package tfidf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareAndDimension(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{
		"the whale swims in the ocean",
		"the captain stands on the deck",
	}))
	assert.Equal(t, "tfidf", e.Name())
	assert.Greater(t, e.Dimension(), 0)
}

func TestPrepareEmptyCorpus(t *testing.T) {
	e := NewEmbedder()
	assert.Error(t, e.Prepare(nil))
}

func TestEmbedRequiresPrepare(t *testing.T) {
	e := NewEmbedder()
	_, err := e.Embed("whale")
	assert.Error(t, err)
}

func TestEmbedVectorsAreL2Normalized(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{
		"whale harpoon ocean voyage",
		"captain deck mast crew",
	}))
	vec, err := e.Embed("whale harpoon")
	require.NoError(t, err)
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestEmbedRanksRelatedTextHigher(t *testing.T) {
	e := NewEmbedder()
	corpus := []string{
		"whale harpoon ocean voyage sea",
		"captain deck mast crew sailor",
	}
	require.NoError(t, e.Prepare(corpus))

	q, err := e.Embed("whale ocean")
	require.NoError(t, err)
	v0, err := e.Embed(corpus[0])
	require.NoError(t, err)
	v1, err := e.Embed(corpus[1])
	require.NoError(t, err)

	assert.Greater(t, dot(q, v0), dot(q, v1))
}

func TestEmbedUnknownTokensYieldZeroVector(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"whale ocean"}))
	vec, err := e.Embed("xylophone zeppelin")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

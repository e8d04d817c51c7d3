package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

func TestStorageSearchReturnsNearestFirst(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Init(3))

	chunks := []domain.Chunk{
		{DocumentID: "d", ChunkID: "d:0", Text: "alpha", Index: 0},
		{DocumentID: "d", ChunkID: "d:1", Text: "beta", Index: 1},
		{DocumentID: "d", ChunkID: "d:2", Text: "gamma", Index: 2},
	}
	vectors := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	require.NoError(t, s.Upsert(chunks, vectors))

	res, err := s.Search([]float64{0.9, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "alpha", res[0].Chunk.Text)
	assert.Greater(t, res[0].Score, res[1].Score)
}

func TestStorageInitRequiresPositiveDimension(t *testing.T) {
	s := NewStorage()
	assert.Error(t, s.Init(0))
}

func TestStorageUpsertValidation(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Init(2))
	err := s.Upsert([]domain.Chunk{{ChunkID: "x"}}, nil)
	assert.Error(t, err)
	err = s.Upsert([]domain.Chunk{{ChunkID: "x"}}, [][]float64{{1, 2, 3}})
	assert.Error(t, err)
}

func TestStorageClear(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Init(2))
	require.NoError(t, s.Upsert([]domain.Chunk{{ChunkID: "a"}}, [][]float64{{1, 0}}))
	require.NoError(t, s.Clear())
	res, err := s.Search([]float64{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, res)
}

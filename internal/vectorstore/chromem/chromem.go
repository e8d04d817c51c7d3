package chromem

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	chromemgo "github.com/philippgille/chromem-go"

	"ragchat/internal/domain"
)

// Storage is an embedded, persistent vector store backed by chromem-go.
// Vectors computed by the configured embedder are stored as-is; the
// collection never computes embeddings on its own.
type Storage struct {
	db         *chromemgo.DB
	collection *chromemgo.Collection
	name       string
}

type Config struct {
	Path       string
	Collection string
	Compress   bool
}

// NewStorage opens (or creates) the persistent database at cfg.Path.
func NewStorage(cfg Config) (*Storage, error) {
	if cfg.Path == "" {
		return nil, errors.New("chromem path is empty")
	}
	name := cfg.Collection
	if name == "" {
		name = "documents"
	}
	db, err := chromemgo.NewPersistentDB(cfg.Path, cfg.Compress)
	if err != nil {
		return nil, fmt.Errorf("open chromem db: %w", err)
	}
	return &Storage{db: db, name: name}, nil
}

// Init opens the collection. The dimension is not enforced here; chromem
// validates vector lengths against stored documents on query.
func (s *Storage) Init(dimension int) error {
	coll, err := s.db.GetOrCreateCollection(s.name, nil, rejectEmbedding)
	if err != nil {
		return fmt.Errorf("open collection %s: %w", s.name, err)
	}
	s.collection = coll
	return nil
}

func (s *Storage) Upsert(chunks []domain.Chunk, vectors [][]float64) error {
	if s.collection == nil {
		return errors.New("chromem store not initialized")
	}
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	docs := make([]chromemgo.Document, len(chunks))
	for i := range chunks {
		docs[i] = chromemgo.Document{
			ID:        chunks[i].ChunkID,
			Content:   chunks[i].Text,
			Embedding: toFloat32(vectors[i]),
			Metadata: map[string]string{
				"document_id": chunks[i].DocumentID,
				"index":       strconv.Itoa(chunks[i].Index),
			},
		}
	}
	return s.collection.AddDocuments(context.Background(), docs, 4)
}

func (s *Storage) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	if s.collection == nil {
		return nil, errors.New("chromem store not initialized")
	}
	if topK <= 0 {
		topK = 5
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}
	res, err := s.collection.QueryEmbedding(context.Background(), toFloat32(vector), topK, nil, nil)
	if err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(res))
	for _, r := range res {
		chunk := domain.Chunk{
			ChunkID:    r.ID,
			DocumentID: r.Metadata["document_id"],
			Text:       r.Content,
		}
		if idx, err := strconv.Atoi(r.Metadata["index"]); err == nil {
			chunk.Index = idx
		}
		results = append(results, domain.SearchResult{Chunk: chunk, Score: float64(r.Similarity)})
	}
	return results, nil
}

func (s *Storage) Clear() error {
	if err := s.db.DeleteCollection(s.name); err != nil {
		return err
	}
	s.collection = nil
	return s.Init(0)
}

// Count reports the number of stored chunks; the chat app uses it to decide
// whether an ingest is still needed.
func (s *Storage) Count() int {
	if s.collection == nil {
		return 0
	}
	return s.collection.Count()
}

// rejectEmbedding guards against chromem silently falling back to its own
// remote embedding function; all vectors must come from the configured
// embedder.
func rejectEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("store expects precomputed embeddings")
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

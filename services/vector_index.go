package services

import (
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"regbot/models"
)

// IndexFileName is the artifact written inside the index directory.
const IndexFileName = "index.gob"

// VectorStore persists embedded chunks and supports nearest-neighbor search.
// Scores are similarity scores: higher means more relevant.
type VectorStore interface {
	Add(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, k int) ([]models.ScoredChunk, error)
	Count(ctx context.Context) (int, error)
}

// IndexEntry is one persisted (vector, chunk) pair.
type IndexEntry struct {
	Vector []float32
	Chunk  models.Chunk
}

// indexFile is the on-disk shape of a persisted index. The embedding model
// name is stored so an index can never be served with a different model than
// it was built with.
type indexFile struct {
	EmbeddingModel string
	Dimension      int
	Entries        []IndexEntry
}

// FileIndex is a single-process vector index: brute-force cosine similarity
// over L2-normalized vectors, persisted to disk as one artifact and loaded
// read-only at serving time.
type FileIndex struct {
	mu             sync.RWMutex
	embeddingModel string
	dimension      int
	entries        []IndexEntry
}

// NewFileIndex creates an empty index bound to one embedding model.
func NewFileIndex(embeddingModel string) *FileIndex {
	return &FileIndex{embeddingModel: embeddingModel}
}

// Add embeds no text itself; it stores already-embedded chunks. The first
// vector fixes the index dimensionality and all entries must match it.
func (idx *FileIndex) Add(_ context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for i, vec := range vectors {
		if idx.dimension == 0 {
			idx.dimension = len(vec)
		}
		if len(vec) != idx.dimension {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", idx.dimension, len(vec))
		}
		idx.entries = append(idx.entries, IndexEntry{
			Vector: normalize(vec),
			Chunk:  chunks[i],
		})
	}
	return nil
}

// Search returns the k nearest entries by cosine similarity in descending
// score order. An empty index yields an empty result, not an error.
func (idx *FileIndex) Search(_ context.Context, vector []float32, k int) ([]models.ScoredChunk, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if len(idx.entries) == 0 || k <= 0 {
		return nil, nil
	}
	query := normalize(vector)

	results := make([]models.ScoredChunk, 0, len(idx.entries))
	for _, entry := range idx.entries {
		results = append(results, models.ScoredChunk{
			Chunk: entry.Chunk,
			Score: dot(entry.Vector, query),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Count reports the number of indexed chunks.
func (idx *FileIndex) Count(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries), nil
}

// Save writes the index artifact into dir, creating it if needed. A rebuild
// replaces the artifact wholesale; the serving process reloads it on restart.
func (idx *FileIndex) Save(dir string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory %s: %w", dir, err)
	}
	f, err := os.Create(filepath.Join(dir, IndexFileName))
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	defer f.Close()

	payload := indexFile{
		EmbeddingModel: idx.embeddingModel,
		Dimension:      idx.dimension,
		Entries:        idx.entries,
	}
	if err := gob.NewEncoder(f).Encode(payload); err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	return nil
}

// LoadFileIndex deserializes a previously persisted index. It fails when the
// artifact does not exist (a fatal precondition for retrieval, reported and
// not retried) or when it was built with a different embedding model.
func LoadFileIndex(dir, embeddingModel string) (*FileIndex, error) {
	f, err := os.Open(filepath.Join(dir, IndexFileName))
	if err != nil {
		return nil, fmt.Errorf("vector index not found at %s: %w", dir, err)
	}
	defer f.Close()

	var payload indexFile
	if err := gob.NewDecoder(f).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode index at %s: %w", dir, err)
	}
	if payload.EmbeddingModel != embeddingModel {
		return nil, fmt.Errorf("index was built with embedding model %q, configured model is %q",
			payload.EmbeddingModel, embeddingModel)
	}
	return &FileIndex{
		embeddingModel: payload.EmbeddingModel,
		dimension:      payload.Dimension,
		entries:        payload.Entries,
	}, nil
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

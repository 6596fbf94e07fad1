package services

import (
	"context"
	"log"

	"github.com/tmc/langchaingo/embeddings"

	"regbot/models"
)

// RAGService retrieves grounding passages for a query and composes the
// grounded system instruction.
type RAGService interface {
	// Retrieve returns the chunks clearing the similarity threshold in
	// descending score order. It never fails a request: retrieval-layer
	// errors degrade to an empty result.
	Retrieve(ctx context.Context, query string) []models.ScoredChunk

	// GenerateAugmentedPrompt returns the grounding instruction and the
	// matched chunks, or ("", nil) when nothing cleared the threshold.
	GenerateAugmentedPrompt(ctx context.Context, query string) (string, []models.ScoredChunk)

	// Ready reports whether a vector index is loaded.
	Ready() bool
}

type ragServiceImpl struct {
	embedder       embeddings.Embedder
	store          VectorStore
	k              int
	scoreThreshold float64
}

// NewRAGService wires the retriever. A nil store means the index artifact was
// missing at startup: the service still runs, but every retrieval returns
// empty and queries degrade per the no-grounding policy.
func NewRAGService(embedder embeddings.Embedder, store VectorStore, k int, scoreThreshold float64) RAGService {
	if store == nil {
		log.Println("SERVICE ERROR: vector index not loaded; retrieval will return no results")
	}
	return &ragServiceImpl{
		embedder:       embedder,
		store:          store,
		k:              k,
		scoreThreshold: scoreThreshold,
	}
}

func (r *ragServiceImpl) Ready() bool { return r.store != nil }

func (r *ragServiceImpl) Retrieve(ctx context.Context, query string) []models.ScoredChunk {
	if r.store == nil {
		return nil
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		// Fail open: a retrieval-layer fault must not fail the request.
		log.Printf("SERVICE ERROR: failed to embed query: %v", err)
		return nil
	}

	results, err := r.store.Search(ctx, vector, r.k)
	if err != nil {
		log.Printf("SERVICE ERROR: vector search failed: %v", err)
		return nil
	}

	filtered := make([]models.ScoredChunk, 0, len(results))
	for _, res := range results {
		if res.Score >= r.scoreThreshold {
			filtered = append(filtered, res)
		}
	}
	if len(filtered) == 0 {
		log.Println("SERVICE: No relevant documents found (similarity too low).")
		return nil
	}
	return filtered
}

func (r *ragServiceImpl) GenerateAugmentedPrompt(ctx context.Context, query string) (string, []models.ScoredChunk) {
	docs := r.Retrieve(ctx, query)
	if len(docs) == 0 {
		return "", nil
	}
	return groundedPrompt(docs), docs
}

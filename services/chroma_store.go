package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"regbot/models"
)

// ChromaStore is the alternate VectorStore backend over a running ChromaDB
// instance, for deployments that already operate one. The default file index
// needs no external service.
type ChromaStore struct {
	collection chromago.Collection
}

// NewChromaStore connects to ChromaDB and gets or creates the collection.
func NewChromaStore(ctx context.Context, baseURL, collectionName string) (*ChromaStore, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}
	collection, err := client.GetOrCreateCollection(
		ctx,
		collectionName,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "regulation chunks"),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create collection %s: %w", collectionName, err)
	}
	return &ChromaStore{collection: collection}, nil
}

// Add stores embedded chunks in the collection, one record per chunk.
func (s *ChromaStore) Add(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	for i, chunk := range chunks {
		attrs := make([]*chromago.MetaAttribute, 0, len(chunk.Metadata)+1)
		for k, v := range chunk.Metadata {
			attrs = append(attrs, chromago.NewStringAttribute(k, v))
		}
		attrs = append(attrs, chromago.NewIntAttribute("chunk_id", int64(chunk.ID)))

		err := s.collection.Add(ctx,
			chromago.WithIDs(chromago.DocumentID("chunk-"+strconv.Itoa(chunk.ID))),
			chromago.WithTexts(chunk.Text),
			chromago.WithEmbeddings(embeddings.NewEmbeddingFromFloat32(vectors[i])),
			chromago.WithMetadatas(chromago.NewDocumentMetadata(attrs...)),
		)
		if err != nil {
			return fmt.Errorf("failed to add chunk %d to chromadb: %w", chunk.ID, err)
		}
	}
	return nil
}

// Search queries the collection and maps distances to similarity scores
// (1 - distance, higher is more relevant).
func (s *ChromaStore) Search(ctx context.Context, vector []float32, k int) ([]models.ScoredChunk, error) {
	results, err := s.collection.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(k),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromadb: %w", err)
	}

	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(documentGroups) == 0 {
		return nil, nil
	}

	scored := make([]models.ScoredChunk, 0, len(documentGroups[0]))
	for i, doc := range documentGroups[0] {
		if doc.ContentString() == "" {
			continue
		}
		var score float64
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			score = 1 - float64(distanceGroups[0][i])
		}
		chunk := models.Chunk{
			Text:     doc.ContentString(),
			Metadata: map[string]string{},
		}
		if i < len(metadataGroups[0]) && metadataGroups[0][i] != nil {
			chunk.ID, chunk.Metadata = decodeChunkMetadata(metadataGroups[0][i])
		}
		scored = append(scored, models.ScoredChunk{Chunk: chunk, Score: score})
	}
	return scored, nil
}

// Count reports the number of records in the collection.
func (s *ChromaStore) Count(ctx context.Context) (int, error) {
	count, err := s.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count items in collection: %w", err)
	}
	return int(count), nil
}

// decodeChunkMetadata converts a chroma DocumentMetadata back into the flat
// string map plus the stored chunk id. The metadata type exposes no map
// accessor, so it goes through a JSON round trip.
func decodeChunkMetadata(metadata chromago.DocumentMetadata) (int, map[string]string) {
	out := make(map[string]string)
	jsonBytes, err := json.Marshal(metadata)
	if err != nil {
		log.Printf("WARN: could not marshal chunk metadata: %v", err)
		return 0, out
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &raw); err != nil {
		log.Printf("WARN: could not unmarshal chunk metadata: %v", err)
		return 0, out
	}

	id := 0
	for k, v := range raw {
		switch value := v.(type) {
		case string:
			out[k] = value
		case float64:
			if k == "chunk_id" {
				id = int(value)
				continue
			}
			out[k] = strconv.FormatFloat(value, 'f', -1, 64)
		}
	}
	return id, out
}

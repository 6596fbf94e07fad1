package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tmc/langchaingo/embeddings"
)

// IndexingService runs the offline build pipeline: load documents, chunk
// them, embed every chunk and persist the vector index.
type IndexingService struct {
	chunker        *Chunker
	embedder       embeddings.Embedder
	embeddingModel string
}

func NewIndexingService(chunker *Chunker, embedder embeddings.Embedder, embeddingModel string) *IndexingService {
	return &IndexingService{
		chunker:        chunker,
		embedder:       embedder,
		embeddingModel: embeddingModel,
	}
}

// BuildInto loads and chunks the source directory and writes the embedded
// chunks into the given store. Returns the number of indexed chunks.
func (s *IndexingService) BuildInto(ctx context.Context, store VectorStore, sourceDir string) (int, error) {
	docs := LoadDocuments(sourceDir)
	if len(docs) == 0 {
		return 0, fmt.Errorf("no documents found in %s", sourceDir)
	}
	log.Printf("INDEXER: Loaded %d documents from %s", len(docs), sourceDir)

	chunks, err := s.chunker.SplitDocuments(docs)
	if err != nil {
		return 0, fmt.Errorf("failed to chunk documents: %w", err)
	}
	log.Printf("INDEXER: Total chunks created: %d", len(chunks))

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}

	if err := store.Add(ctx, chunks, vectors); err != nil {
		return 0, fmt.Errorf("failed to store embedded chunks: %w", err)
	}
	return len(chunks), nil
}

// BuildFileIndex runs the full pipeline into a fresh file index and persists
// the artifact to indexDir, replacing any previous build.
func (s *IndexingService) BuildFileIndex(ctx context.Context, sourceDir, indexDir string) error {
	index := NewFileIndex(s.embeddingModel)
	count, err := s.BuildInto(ctx, index, sourceDir)
	if err != nil {
		return err
	}
	if err := index.Save(indexDir); err != nil {
		return fmt.Errorf("failed to persist index: %w", err)
	}
	log.Printf("INDEXER: Saved %d chunks to %s", count, indexDir)
	return nil
}

// Watch rebuilds the whole index artifact whenever a recognized source file
// changes. Rebuilds are debounced briefly because editors often emit several
// events for one save.
func (s *IndexingService) Watch(ctx context.Context, sourceDir, indexDir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(sourceDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", sourceDir, err)
	}
	log.Printf("WATCHER: Watching directory: %s", sourceDir)

	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !IsSupportedFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				log.Printf("WATCHER EVENT: %s", event)
				pending = time.After(2 * time.Second)
			}
		case <-pending:
			pending = nil
			log.Println("WATCHER: Source changed, rebuilding index...")
			if err := s.BuildFileIndex(ctx, sourceDir, indexDir); err != nil {
				log.Printf("WATCHER ERROR: rebuild failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("WATCHER ERROR: %v", err)
		case <-ctx.Done():
			log.Println("WATCHER: Context cancelled, shutting down watcher.")
			return nil
		}
	}
}

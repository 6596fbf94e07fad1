package main

import (
	"context"
	"flag"
	"log"

	"regbot/config"
	"regbot/services"
)

func main() {
	cfg := config.Load()

	var (
		sourceDir = flag.String("source", "data", "Directory of source regulation documents")
		indexDir  = flag.String("index", cfg.VectorDBPath, "Directory to write the vector index to")
		watch     = flag.Bool("watch", false, "Keep running and rebuild the index when source files change")
	)
	flag.Parse()

	embedder, err := services.NewEmbedder(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to create embedder: %v", err)
	}

	chunker := services.NewChunker(services.DefaultChunkSize, services.DefaultChunkOverlap)
	indexer := services.NewIndexingService(chunker, embedder, cfg.EmbeddingModel)

	ctx := context.Background()

	if cfg.VectorStore == "chroma" {
		store, err := services.NewChromaStore(ctx, cfg.ChromaURL, cfg.ChromaCollection)
		if err != nil {
			log.Fatalf("FATAL: Failed to connect to chroma: %v", err)
		}
		count, err := indexer.BuildInto(ctx, store, *sourceDir)
		if err != nil {
			log.Fatalf("FATAL: Index build failed: %v", err)
		}
		log.Printf("INDEXER: Indexed %d chunks into chroma collection %s.", count, cfg.ChromaCollection)
		return
	}

	if err := indexer.BuildFileIndex(ctx, *sourceDir, *indexDir); err != nil {
		log.Fatalf("FATAL: Index build failed: %v", err)
	}
	log.Println("INDEXER: Vector index built successfully.")

	if *watch {
		if err := indexer.Watch(ctx, *sourceDir, *indexDir); err != nil {
			log.Fatalf("FATAL: Watcher failed: %v", err)
		}
	}
}

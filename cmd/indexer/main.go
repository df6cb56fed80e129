package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"

	"github.com/ideal-genom/gwaskit/internal/indexing"
	"github.com/ideal-genom/gwaskit/internal/sphinx"
)

const docsBaseURL = "https://ideal-genom.readthedocs.io/en/latest"

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintf(os.Stderr, "Usage: %s <searchindex.js> <pages-dir> <index-dir>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s docs/searchindex.js docs/pages search/index\n", os.Args[0])
		os.Exit(1)
	}

	searchIndexPath := os.Args[1]
	pagesDir := os.Args[2]
	indexDir := os.Args[3]

	log.Printf("Documentation indexer (schema v%d)", indexing.IndexSchemaVersion)

	idx, err := sphinx.Load(searchIndexPath)
	if err != nil {
		log.Fatalf("Failed to parse search index: %v", err)
	}
	if err := idx.Validate(); err != nil {
		log.Fatalf("Search index is inconsistent: %v", err)
	}
	log.Printf("Parsed search index: %d documents, %d terms", idx.DocCount(), len(idx.Terms))

	chunks, err := indexing.BuildChunks(idx, os.DirFS(pagesDir), docsBaseURL)
	if err != nil {
		log.Fatalf("Failed to chunk documentation: %v", err)
	}

	totalTokens := 0
	oversized := 0
	for _, chunk := range chunks {
		totalTokens += chunk.TokenCount
		if chunk.TokenCount > indexing.MaxChunkTokens {
			oversized++
		}
	}
	avgTokens := 0
	if len(chunks) > 0 {
		avgTokens = totalTokens / len(chunks)
	}
	log.Printf("Built %d chunks (avg: %d tokens, %d oversized)", len(chunks), avgTokens, oversized)

	if err := os.RemoveAll(indexDir); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove old index: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(indexDir), 0755); err != nil {
		log.Fatalf("Failed to create index directory: %v", err)
	}

	log.Printf("Creating search index: %s", indexDir)
	mapping := bleve.NewIndexMapping()
	index, err := bleve.New(indexDir, mapping)
	if err != nil {
		log.Fatalf("Failed to create index: %v", err)
	}

	batch := index.NewBatch()
	for i, chunk := range chunks {
		if err := batch.Index(chunk.ID, chunk); err != nil {
			index.Close()
			log.Fatalf("Failed to add chunk %s to batch: %v", chunk.ID, err)
		}

		if (i+1)%100 == 0 {
			if err := index.Batch(batch); err != nil {
				index.Close()
				log.Fatalf("Failed to index batch: %v", err)
			}
			batch = index.NewBatch()
			log.Printf("Indexed %d/%d chunks...", i+1, len(chunks))
		}
	}
	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			index.Close()
			log.Fatalf("Failed to index final batch: %v", err)
		}
	}

	count, _ := index.DocCount()
	if err := index.Close(); err != nil {
		log.Fatalf("Failed to close index: %v", err)
	}

	log.Printf("Done: %d chunks indexed into %s", count, indexDir)
}

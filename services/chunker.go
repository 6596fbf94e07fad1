package services

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"regbot/models"
)

// Default chunking configuration. Chunk boundaries are reproducible for a
// fixed corpus and fixed configuration, so an index build is deterministic.
const (
	DefaultChunkSize    = 450
	DefaultChunkOverlap = 70
)

// defaultSeparators is the preference-ordered separator list for the size
// split, coarsest first.
var defaultSeparators = []string{"\n\n\n", "\n\n", "\n", "।", ".", " ", ""}

// Chunker splits documents in two phases: first at section headers, carrying
// the header path as metadata, then by size with overlap.
type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

// NewChunker creates a chunker with the given size and overlap budgets
// (characters). Non-positive values fall back to the defaults.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators(defaultSeparators),
		),
	}
}

// headerFragment is a span of one document falling under a single header
// path.
type headerFragment struct {
	text     string
	metadata map[string]string
}

// headerLevels maps markdown header markers to the classification metadata
// key each level contributes.
var headerLevels = []struct {
	prefix string
	key    string
}{
	{"### ", "subsection"},
	{"## ", "section"},
	{"# ", "title"},
}

// splitByHeaders splits a document's text at recognized section headers.
// Every fragment inherits the header text of each enclosing level; starting a
// shallower header resets the deeper keys.
func splitByHeaders(text string) []headerFragment {
	var fragments []headerFragment
	headers := make(map[string]string)
	var buf []string

	flush := func() {
		content := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = buf[:0]
		if content == "" {
			return
		}
		metadata := make(map[string]string, len(headers))
		for k, v := range headers {
			metadata[k] = v
		}
		fragments = append(fragments, headerFragment{text: content, metadata: metadata})
	}

	for _, line := range strings.Split(text, "\n") {
		matched := false
		for i, level := range headerLevels {
			if strings.HasPrefix(line, level.prefix) {
				flush()
				headers[level.key] = strings.TrimSpace(strings.TrimPrefix(line, level.prefix))
				// Reset deeper levels than the one that just started.
				for _, deeper := range headerLevels[:i] {
					delete(headers, deeper.key)
				}
				matched = true
				break
			}
		}
		if !matched {
			buf = append(buf, line)
		}
	}
	flush()
	return fragments
}

// SplitDocuments runs the two-phase split over a whole corpus and assigns
// sequential chunk ids across the build.
func (c *Chunker) SplitDocuments(docs []models.Document) ([]models.Chunk, error) {
	var chunks []models.Chunk
	nextID := 0

	for _, doc := range docs {
		for _, fragment := range splitByHeaders(doc.Text) {
			pieces, err := c.splitter.SplitText(fragment.text)
			if err != nil {
				return nil, fmt.Errorf("failed to size-split fragment: %w", err)
			}
			for _, piece := range pieces {
				metadata := make(map[string]string, len(doc.Metadata)+len(fragment.metadata))
				for k, v := range doc.Metadata {
					metadata[k] = v
				}
				for k, v := range fragment.metadata {
					metadata[k] = v
				}
				chunks = append(chunks, models.Chunk{
					ID:       nextID,
					Text:     piece,
					Metadata: metadata,
				})
				nextID++
			}
		}
	}
	return chunks, nil
}

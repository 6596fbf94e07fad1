package models

// Document is one source regulation text plus its metadata, produced by the
// loader. Metadata is an open string map: sidecar metadata.json fields merged
// with the file's own name and path.
type Document struct {
	Text     string
	Metadata map[string]string
}

// Chunk is an indexed, retrievable passage derived from one Document. ID is
// sequential across a whole index build. Metadata carries the document fields
// plus the header path the chunk fell under (title/section/subsection).
type Chunk struct {
	ID       int               `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ScoredChunk pairs a chunk with its similarity score. Higher means more
// relevant.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Title returns the chunk's citation title, or a documented default when the
// metadata does not carry one.
func (c Chunk) Title() string {
	if t, ok := c.Metadata["title"]; ok && t != "" {
		return t
	}
	return "Unknown Source"
}

package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regbot/models"
)

const sampleDoc = `# آیین‌نامه آموزشی

مقدمه کلی آیین‌نامه.

## ثبت‌نام

شرایط ثبت‌نام در هر نیمسال.

### ثبت‌نام با تاخیر

قوانین ثبت‌نام با تاخیر و جریمه‌های آن.

## حذف و اضافه

مهلت حذف و اضافه دو هفته پس از شروع نیمسال است.
`

func TestSplitByHeaders(t *testing.T) {
	fragments := splitByHeaders(sampleDoc)
	require.Len(t, fragments, 4)

	assert.Equal(t, "مقدمه کلی آیین‌نامه.", fragments[0].text)
	assert.Equal(t, map[string]string{"title": "آیین‌نامه آموزشی"}, fragments[0].metadata)

	assert.Equal(t, map[string]string{
		"title":   "آیین‌نامه آموزشی",
		"section": "ثبت‌نام",
	}, fragments[1].metadata)

	assert.Equal(t, map[string]string{
		"title":      "آیین‌نامه آموزشی",
		"section":    "ثبت‌نام",
		"subsection": "ثبت‌نام با تاخیر",
	}, fragments[2].metadata)

	// A new section resets the subsection of the previous one.
	assert.Equal(t, map[string]string{
		"title":   "آیین‌نامه آموزشی",
		"section": "حذف و اضافه",
	}, fragments[3].metadata)
}

func TestSplitByHeadersPreamble(t *testing.T) {
	fragments := splitByHeaders("متن بدون سرفصل\n\n# عنوان\n\nمتن زیر عنوان")
	require.Len(t, fragments, 2)
	assert.Equal(t, "متن بدون سرفصل", fragments[0].text)
	assert.Empty(t, fragments[0].metadata)
	assert.Equal(t, "عنوان", fragments[1].metadata["title"])
}

func TestSplitByHeadersEmpty(t *testing.T) {
	assert.Empty(t, splitByHeaders(""))
	assert.Empty(t, splitByHeaders("   \n  \n"))
}

func TestSplitDocumentsMetadataAndIDs(t *testing.T) {
	chunker := NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	docs := []models.Document{
		{Text: sampleDoc, Metadata: map[string]string{"source_file": "regs.md", "url": "https://example.edu/regs"}},
		{Text: "# سند دوم\n\nمتن سند دوم."},
	}

	chunks, err := chunker.SplitDocuments(docs)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ID, "chunk ids must be sequential across the build")
		assert.NotEmpty(t, chunk.Text)
	}

	// Chunks inherit document metadata plus their header path.
	first := chunks[0]
	assert.Equal(t, "regs.md", first.Metadata["source_file"])
	assert.Equal(t, "https://example.edu/regs", first.Metadata["url"])
	assert.Equal(t, "آیین‌نامه آموزشی", first.Metadata["title"])

	last := chunks[len(chunks)-1]
	assert.Equal(t, "سند دوم", last.Metadata["title"])
}

func TestSplitDocumentsDeterministic(t *testing.T) {
	docs := []models.Document{{Text: sampleDoc, Metadata: map[string]string{"source_file": "a.md"}}}

	first, err := NewChunker(120, 30).SplitDocuments(docs)
	require.NoError(t, err)
	second, err := NewChunker(120, 30).SplitDocuments(docs)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Text, second[i].Text)
		assert.Equal(t, first[i].Metadata, second[i].Metadata)
	}
}

func TestSplitDocumentsSizeBudget(t *testing.T) {
	long := strings.Repeat("جمله‌ای کوتاه درباره قوانین. ", 60)
	chunker := NewChunker(200, 40)

	chunks, err := chunker.SplitDocuments([]models.Document{{Text: long}})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1, "a long document must be split")

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk.Text)), 200)
	}
}

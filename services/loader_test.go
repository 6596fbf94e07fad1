package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "ی", normalizeText("ي"))
	assert.Equal(t, "ک", normalizeText("ك"))
	assert.Equal(t, "آیین نامه", normalizeText("آیین‌نامه"))
	assert.Equal(t, "متن", normalizeText("متن‏"))
	assert.Equal(t, "پررنگ", normalizeText("**پررنگ**"))
	// The ZWNJ inside the label becomes a space like everywhere else.
	assert.Equal(t, "آیین نامه آموزشی", normalizeText("[آیین‌نامه آموزشی](https://example.edu/regs)"))
}

func TestLoadDocuments(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "regs")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(sub, "withdrawal.md"),
		[]byte("# قانون حذف درس\n\nمتن قانون."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "metadata.json"),
		[]byte(`{"title": "آیین‌نامه آموزشی", "url": "https://example.edu/regs"}`), 0o644))
	// Unrecognized files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(sub, "image.png"), []byte{0x89}, 0o644))

	docs := LoadDocuments(dir)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Contains(t, doc.Text, "قانون حذف درس")
	assert.Equal(t, "آیین‌نامه آموزشی", doc.Metadata["title"])
	assert.Equal(t, "https://example.edu/regs", doc.Metadata["url"])
	assert.Equal(t, "withdrawal.md", doc.Metadata["source_file"])
	assert.Equal(t, filepath.Join(sub, "withdrawal.md"), doc.Metadata["source_path"])
}

func TestLoadDocumentsMissingDirectory(t *testing.T) {
	docs := LoadDocuments(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Empty(t, docs)
}

func TestLoadDocumentsMalformedMetadata(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.txt"), []byte("متن سند"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte("{not json"), 0o644))

	docs := LoadDocuments(dir)
	require.Len(t, docs, 1)
	// Malformed sidecar metadata is dropped; file-derived keys survive.
	assert.Equal(t, "doc.txt", docs[0].Metadata["source_file"])
	assert.NotContains(t, docs[0].Metadata, "title")
}

func TestLoadDocumentsNormalizes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.md"),
		[]byte("متن **مهم** با [پیوند](https://example.edu)"), 0o644))

	docs := LoadDocuments(dir)
	require.Len(t, docs, 1)
	assert.Equal(t, "متن مهم با پیوند", docs[0].Text)
}

package services

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"regbot/models"
)

var markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// normalizeText canonicalizes Arabic look-alike letters to their Persian
// forms, strips directional and invisible marks, drops markdown emphasis, and
// unlinks inline hyperlinks while keeping their labels.
func normalizeText(text string) string {
	text = strings.NewReplacer(
		"ي", "ی",
		"ك", "ک",
		"‌", " ", // zero-width non-joiner
		"‏", "", // right-to-left mark
		"*", "",
	).Replace(text)
	return markdownLinkRe.ReplaceAllString(text, "$1")
}

// loadSidecarMetadata reads an optional metadata.json next to the document as
// a flat key→value mapping. A missing file yields an empty map; a malformed
// one is reported and skipped.
func loadSidecarMetadata(dir string) map[string]string {
	metadata := make(map[string]string)
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return metadata
	}
	if err := json.Unmarshal(data, &metadata); err != nil {
		log.Printf("LOADER WARN: malformed metadata.json in %s: %v", dir, err)
		return make(map[string]string)
	}
	return metadata
}

// LoadDocuments walks the data directory recursively and returns one Document
// per recognized file, normalized and tagged with its sidecar metadata plus
// source_file and source_path. A missing directory is a warning, not an
// error; an unreadable file is skipped, not fatal.
func LoadDocuments(dataDir string) []models.Document {
	if _, err := os.Stat(dataDir); err != nil {
		log.Printf("LOADER WARN: directory %s not found", dataDir)
		return nil
	}

	var docs []models.Document
	err := filepath.Walk(dataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Printf("LOADER WARN: cannot access %s: %v", path, err)
			return nil
		}
		if info.IsDir() || !IsSupportedFile(path) {
			return nil
		}

		text, err := ExtractTextFromFile(path)
		if err != nil {
			log.Printf("LOADER WARN: could not read %s: %v", path, err)
			return nil
		}

		metadata := loadSidecarMetadata(filepath.Dir(path))
		metadata["source_file"] = info.Name()
		metadata["source_path"] = path

		docs = append(docs, models.Document{
			Text:     normalizeText(text),
			Metadata: metadata,
		})
		return nil
	})
	if err != nil {
		log.Printf("LOADER WARN: error walking %s: %v", dataDir, err)
	}
	return docs
}

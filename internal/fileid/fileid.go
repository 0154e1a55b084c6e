// Package fileid derives deterministic IDs for ingested files and their chunks.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

const prefix = "file:"

// SourceDocID returns a stable document ID for the given absolute path.
// The same path always yields the same ID, so re-ingesting a file replaces
// its previous entries instead of duplicating them.
func SourceDocID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:])
}

// ChunkID returns the ID for chunk index of the document docID.
func ChunkID(docID string, index int) string {
	return fmt.Sprintf("%s#%d", docID, index)
}

// DocIDOf returns the document ID portion of a chunk ID. A plain document ID
// is returned unchanged.
func DocIDOf(chunkID string) string {
	if i := strings.IndexByte(chunkID, '#'); i >= 0 {
		return chunkID[:i]
	}
	return chunkID
}

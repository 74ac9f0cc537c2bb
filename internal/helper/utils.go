package helper

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// chunkNamespace scopes name-based chunk UUIDs to this tool.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("paper-review-rag/chunk"))

// ChunkID returns a stable UUID for the chunk at (docIndex, chunkIndex) of a
// source, so re-chunking the same input yields the same ids.
func ChunkID(sourceID string, docIndex, chunkIndex int) string {
	name := fmt.Sprintf("%s/%d/%d", sourceID, docIndex, chunkIndex)
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}

// CreateFolder creates path and any missing parents.
func CreateFolder(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", path, err)
	}
	return nil
}

// SafeName replaces characters that are unsafe in file and object names.
func SafeName(name string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_", "\x00", "_")
	return strings.TrimSpace(r.Replace(name))
}

// pretty print
func PrettyPrint(w io.Writer, v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("Error pretty printing")
		return
	}
	fmt.Fprintln(w, string(b))
}

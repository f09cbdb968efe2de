package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	ragerrors "github.com/deesatzed/newragcity-sub001/internal/errors"
)

// documentFile is the on-disk JSON shape for a document. Title and Source
// are lifted into metadata so downstream scoring sees them uniformly.
type documentFile struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Title    string         `json:"title,omitempty"`
	Source   string         `json:"source,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// LoadDocuments reads documents from a JSON file. The file holds either a
// JSON array of documents or one JSON object per line. Documents without an
// ID are assigned a random UUID; documents without content are rejected.
func LoadDocuments(path string) ([]*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ragerrors.Wrap(ragerrors.ErrCodeDocumentLoad, fmt.Errorf("read documents file: %w", err))
	}

	var entries []documentFile
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, ragerrors.New(ragerrors.ErrCodeDocumentLoad, fmt.Sprintf("documents file %s is empty", path), nil)
	}

	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, ragerrors.Wrap(ragerrors.ErrCodeDocumentLoad, fmt.Errorf("parse documents file %s: %w", path, err))
		}
	} else {
		for i, line := range strings.Split(trimmed, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			var entry documentFile
			if err := json.Unmarshal([]byte(line), &entry); err != nil {
				return nil, ragerrors.Wrap(ragerrors.ErrCodeDocumentLoad, fmt.Errorf("parse documents file %s line %d: %w", path, i+1, err))
			}
			entries = append(entries, entry)
		}
	}

	docs := make([]*Document, 0, len(entries))
	for i, entry := range entries {
		if strings.TrimSpace(entry.Content) == "" {
			return nil, ragerrors.ValidationError(fmt.Sprintf("document %d in %s has no content", i+1, path), nil)
		}

		id := entry.ID
		if id == "" {
			id = uuid.NewString()
		}

		metadata := entry.Metadata
		if metadata == nil {
			metadata = make(map[string]any)
		}
		if entry.Title != "" {
			metadata["title"] = entry.Title
		}
		if entry.Source != "" {
			metadata["source"] = entry.Source
		}

		docs = append(docs, &Document{
			ID:       id,
			Content:  entry.Content,
			Metadata: metadata,
		})
	}

	return docs, nil
}

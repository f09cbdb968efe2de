package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ragerrors "github.com/deesatzed/newragcity-sub001/internal/errors"
)

func writeDocsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docs.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDocuments_JSONArray(t *testing.T) {
	path := writeDocsFile(t, `[
		{"id": "vacation", "content": "Vacation policy grants 20 days.", "title": "Vacation Policy", "source": "hr-handbook"},
		{"content": "Expense reports are due monthly.", "metadata": {"section": "finance"}}
	]`)

	docs, err := LoadDocuments(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "vacation", docs[0].ID)
	assert.Equal(t, "Vacation Policy", docs[0].Metadata["title"])
	assert.Equal(t, "hr-handbook", docs[0].Metadata["source"])

	// Missing IDs are generated.
	assert.NotEmpty(t, docs[1].ID)
	assert.NotEqual(t, docs[0].ID, docs[1].ID)
	assert.Equal(t, "finance", docs[1].Metadata["section"])
}

func TestLoadDocuments_JSONLines(t *testing.T) {
	path := writeDocsFile(t, `{"id": "a", "content": "first"}
{"id": "b", "content": "second"}

{"id": "c", "content": "third"}`)

	docs, err := LoadDocuments(path)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "c", docs[2].ID)
}

func TestLoadDocuments_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty file", "   "},
		{"bad json", `[{"id": "a"`},
		{"bad jsonl line", `{"id": "a", "content": "ok"}` + "\nnot json"},
		{"missing content", `[{"id": "a", "content": "  "}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDocuments(writeDocsFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadDocuments_MissingFile(t *testing.T) {
	_, err := LoadDocuments(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
	assert.Equal(t, ragerrors.ErrCodeDocumentLoad, ragerrors.GetCode(err))
}

func TestLoadDocuments_ErrorCodes(t *testing.T) {
	_, err := LoadDocuments(writeDocsFile(t, `[{"id": "a"`))
	require.Error(t, err)
	assert.Equal(t, ragerrors.ErrCodeDocumentLoad, ragerrors.GetCode(err))

	_, err = LoadDocuments(writeDocsFile(t, `[{"id": "a", "content": "  "}]`))
	require.Error(t, err)
	assert.Equal(t, ragerrors.ErrCodeInvalidInput, ragerrors.GetCode(err))
}

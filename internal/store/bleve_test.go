package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBleveLexicalIndex_BuildAndSearch(t *testing.T) {
	idx, err := NewBleveLexicalIndex()
	require.NoError(t, err)
	defer idx.Close()

	docs := []*Document{
		{ID: "1", Content: "vacation policy for employees"},
		{ID: "2", Content: "expense reporting procedure"},
		{ID: "3", Content: "vacation booking system"},
	}
	require.NoError(t, idx.BuildIndex(context.Background(), docs))

	results, err := idx.Search(context.Background(), "vacation", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Contains(t, []string{"1", "3"}, r.DocID)
		assert.Greater(t, r.Score, 0.0)
		assert.Contains(t, r.MatchedTerms, "vacation")
	}

	doc, ok := idx.Document("2")
	require.True(t, ok)
	assert.Equal(t, "expense reporting procedure", doc.Content)
}

func TestBleveLexicalIndex_RebuildReplaces(t *testing.T) {
	idx, err := NewBleveLexicalIndex()
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.BuildIndex(context.Background(), []*Document{
		{ID: "old", Content: "deprecated travel handbook"},
	}))
	require.NoError(t, idx.BuildIndex(context.Background(), []*Document{
		{ID: "new", Content: "current travel handbook"},
	}))

	results, err := idx.Search(context.Background(), "deprecated", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	assert.Equal(t, 1, idx.Stats().DocumentCount)
}

func TestBleveLexicalIndex_EmptyQueryAndCorpus(t *testing.T) {
	idx, err := NewBleveLexicalIndex()
	require.NoError(t, err)
	defer idx.Close()

	results, err := idx.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	require.NoError(t, idx.BuildIndex(context.Background(), nil))
	results, err = idx.Search(context.Background(), "  ", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBleveLexicalIndex_TuningUnsupported(t *testing.T) {
	idx, err := NewBleveLexicalIndex()
	require.NoError(t, err)
	defer idx.Close()

	assert.ErrorIs(t, idx.TuneParameters(1.5, 0.5), ErrTuningUnsupported)
}

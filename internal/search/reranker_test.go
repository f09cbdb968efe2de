package search

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicReranker_ExactMatchRanksHighest(t *testing.T) {
	r := NewHeuristicReranker(HeuristicConfig{})

	docs := []string{
		"Unrelated text about cafeteria menus and parking spaces at headquarters.",
		"The vacation policy allows employees to carry over up to five unused days.",
		"Expense submissions are reviewed weekly by the finance team for compliance.",
	}

	scores, err := r.Rerank(context.Background(), "vacation policy", docs)
	require.NoError(t, err)
	require.Len(t, scores, 3)

	assert.Equal(t, 1.0, scores[1])
	assert.Greater(t, scores[1], scores[0])
	assert.Greater(t, scores[1], scores[2])
}

func TestHeuristicReranker_ScoresInRange(t *testing.T) {
	r := NewHeuristicReranker(HeuristicConfig{})

	docs := []string{
		"remote work arrangements require manager approval",
		"the office is closed on public holidays",
		"submit receipts for reimbursement within thirty days",
	}

	scores, err := r.Rerank(context.Background(), "remote work approval", docs)
	require.NoError(t, err)
	for _, s := range scores {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestHeuristicReranker_AllEqualScoresBecomeHalf(t *testing.T) {
	r := NewHeuristicReranker(HeuristicConfig{})

	// No document matches anything in the query.
	docs := []string{"aaa bbb ccc", "aaa bbb ccc", "aaa bbb ccc"}

	scores, err := r.Rerank(context.Background(), "zzz", docs)
	require.NoError(t, err)
	for _, s := range scores {
		assert.Equal(t, 0.5, s)
	}
}

func TestHeuristicReranker_OrderPreserved(t *testing.T) {
	r := NewHeuristicReranker(HeuristicConfig{})

	docs := []string{
		"nothing relevant here at all",
		"vacation policy vacation policy",
		"nothing relevant here either",
	}

	scores, err := r.Rerank(context.Background(), "vacation policy", docs)
	require.NoError(t, err)
	require.Len(t, scores, 3)

	// Output is positional: the relevant document is still at index 1.
	assert.Greater(t, scores[1], scores[0])
	assert.Greater(t, scores[1], scores[2])
}

func TestHeuristicReranker_ProximityRewardsAdjacentTerms(t *testing.T) {
	queryTerms := []string{"parental", "benefits"}

	near := strings.Fields("parental benefits start after ninety days of employment here")
	far := strings.Fields("parental " + strings.Repeat("filler ", 30) + "benefits")

	assert.Greater(t, proximityScore(queryTerms, near), proximityScore(queryTerms, far))
	assert.Equal(t, 0.0, proximityScore(queryTerms, strings.Fields("only parental appears")))
}

func TestHeuristicReranker_LengthPenalty(t *testing.T) {
	r := NewHeuristicReranker(HeuristicConfig{})
	terms := splitQueryTerms("vacation policy")

	normalDoc := "vacation policy " + strings.Repeat("word ", 100)
	shortDoc := "vacation policy"
	longDoc := "vacation policy " + strings.Repeat("word ", 600)

	normal := r.scorePair("vacation policy", terms, normalDoc)
	short := r.scorePair("vacation policy", terms, shortDoc)
	long := r.scorePair("vacation policy", terms, longDoc)

	assert.Greater(t, normal, short)
	assert.Greater(t, normal, long)
}

func TestHeuristicReranker_EmptyDocuments(t *testing.T) {
	r := NewHeuristicReranker(HeuristicConfig{})

	scores, err := r.Rerank(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestHeuristicReranker_AlwaysAvailable(t *testing.T) {
	r := NewHeuristicReranker(HeuristicConfig{})
	assert.True(t, r.Available(context.Background()))
	assert.NoError(t, r.Close())
}

func TestSigmoid(t *testing.T) {
	assert.InDelta(t, 0.5, sigmoid(0), 1e-9)
	assert.Greater(t, sigmoid(4.0), 0.9)
	assert.Less(t, sigmoid(-4.0), 0.1)
}

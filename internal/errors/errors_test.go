package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		code      string
		category  Category
		severity  Severity
		retryable bool
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityError, false},
		{ErrCodeIndexCorrupt, CategoryStorage, SeverityFatal, false},
		{ErrCodeRerankerUnavailable, CategoryNetwork, SeverityWarning, true},
		{ErrCodeInvalidWeights, CategoryValidation, SeverityError, false},
		{ErrCodeSearchFailed, CategoryInternal, SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
			assert.Equal(t, tt.retryable, err.Retryable)
		})
	}
}

func TestRagError_ErrorString(t *testing.T) {
	err := New(ErrCodeQueryEmpty, "query is empty", nil)
	assert.Equal(t, "[ERR_403_QUERY_EMPTY] query is empty", err.Error())
}

func TestRagError_UnwrapChain(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCodeRerankerUnavailable, cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, cause.Error(), err.Message)
}

func TestRagError_IsMatchesByCode(t *testing.T) {
	a := New(ErrCodeSearchFailed, "one", nil)
	b := New(ErrCodeSearchFailed, "two", nil)
	c := New(ErrCodeIndexFailed, "three", nil)

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}

func TestRagError_Chaining(t *testing.T) {
	err := New(ErrCodeConfigInvalid, "weights do not sum to 1.0", nil).
		WithDetail("sum", "1.30").
		WithSuggestion("adjust search.semantic_weight")

	assert.Equal(t, "1.30", err.Details["sum"])
	assert.Equal(t, "adjust search.semantic_weight", err.Suggestion)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	var ragErr *RagError = Wrap(ErrCodeInternal, nil)
	assert.Nil(t, ragErr)
}

func TestHelpers(t *testing.T) {
	retryable := NetworkError("timeout", nil)
	fatal := New(ErrCodeIndexCorrupt, "bad index", nil)

	assert.True(t, IsRetryable(retryable))
	assert.False(t, IsRetryable(fatal))
	assert.True(t, IsFatal(fatal))
	assert.False(t, IsFatal(retryable))

	assert.Equal(t, ErrCodeNetworkTimeout, GetCode(retryable))
	assert.Equal(t, "", GetCode(fmt.Errorf("plain")))
	assert.Equal(t, CategoryNetwork, GetCategory(retryable))

	require.False(t, IsRetryable(nil))
	require.False(t, IsFatal(nil))
}

package highlights

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeChunks(t *testing.T) {
	idx := 3

	tests := []struct {
		name     string
		items    []any
		expected []Chunk
		errIndex int
	}{
		{
			name:     "plain strings",
			items:    []any{"a", "b"},
			expected: []Chunk{PlainText("a"), PlainText("b")},
		},
		{
			name:     "object with text only",
			items:    []any{map[string]any{"text": "a"}},
			expected: []Chunk{Annotated{Text: "a"}},
		},
		{
			name: "object with metadata and index",
			items: []any{map[string]any{
				"text":           "a",
				"metadata":       map[string]any{"page": 1},
				"original_index": float64(3),
			}},
			expected: []Chunk{Annotated{Text: "a", Metadata: map[string]any{"page": 1}, OriginalIndex: &idx}},
		},
		{
			name:     "chunk values pass through",
			items:    []any{PlainText("a"), Annotated{Text: "b"}},
			expected: []Chunk{PlainText("a"), Annotated{Text: "b"}},
		},
		{name: "number", items: []any{"ok", 42}, errIndex: 1},
		{name: "nil element", items: []any{nil}, errIndex: 0},
		{name: "object without text", items: []any{"ok", "ok", map[string]any{"metadata": map[string]any{}}}, errIndex: 2},
		{name: "non-string text", items: []any{map[string]any{"text": 5}}, errIndex: 0},
		{name: "metadata not an object", items: []any{map[string]any{"text": "a", "metadata": "x"}}, errIndex: 0},
		{name: "fractional index", items: []any{map[string]any{"text": "a", "original_index": 1.5}}, errIndex: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NormalizeChunks(tt.items)
			if tt.expected == nil {
				var validationErr *ValidationError
				require.True(t, errors.As(err, &validationErr), "expected ValidationError, got %v", err)
				assert.Equal(t, tt.errIndex, validationErr.Index)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestChunkJSON(t *testing.T) {
	chunks := []Chunk{PlainText("plain"), Annotated{Text: "rich"}}
	data, err := json.Marshal(chunks)
	require.NoError(t, err)
	assert.JSONEq(t, `["plain", {"text": "rich"}]`, string(data))
}

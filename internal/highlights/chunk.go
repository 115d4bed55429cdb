package highlights

import (
	"fmt"
)

// Chunk is a text passage sent to the search service. It is either a
// PlainText or an Annotated value.
type Chunk interface {
	Content() string
	isChunk()
}

// PlainText is a chunk without metadata. It is sent as a bare JSON string.
type PlainText string

func (p PlainText) Content() string { return string(p) }
func (PlainText) isChunk()          {}

// Annotated is a chunk carrying caller metadata and, optionally, the index
// the chunk had before any reordering by the caller.
type Annotated struct {
	Text          string         `json:"text"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	OriginalIndex *int           `json:"original_index,omitempty"`
}

func (a Annotated) Content() string { return a.Text }
func (Annotated) isChunk()          {}

// ValidationError reports a chunk that is neither a string nor an object
// with a text field.
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid chunk at index %d: %s", e.Index, e.Reason)
}

// TextChunks wraps plain strings as chunks.
func TextChunks(texts []string) []Chunk {
	chunks := make([]Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = PlainText(t)
	}
	return chunks
}

// NormalizeChunks converts loosely typed input, such as decoded JSON, into
// chunks. Accepted elements are strings, Chunk values, and maps holding a
// string "text" field with optional "metadata" object and "original_index".
func NormalizeChunks(items []any) ([]Chunk, error) {
	chunks := make([]Chunk, 0, len(items))
	for i, item := range items {
		chunk, err := normalize(item)
		if err != nil {
			return nil, &ValidationError{Index: i, Reason: err.Error()}
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func normalize(item any) (Chunk, error) {
	switch v := item.(type) {
	case string:
		return PlainText(v), nil
	case PlainText:
		return v, nil
	case Annotated:
		return v, nil
	case *Annotated:
		if v == nil {
			return nil, fmt.Errorf("nil chunk")
		}
		return *v, nil
	case map[string]any:
		return annotatedFromMap(v)
	case nil:
		return nil, fmt.Errorf("nil chunk")
	default:
		return nil, fmt.Errorf("expected string or object with text field, got %T", item)
	}
}

func annotatedFromMap(m map[string]any) (Chunk, error) {
	raw, ok := m["text"]
	if !ok {
		return nil, fmt.Errorf("object is missing required text field")
	}
	text, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("text field must be a string, got %T", raw)
	}

	a := Annotated{Text: text}
	if md, ok := m["metadata"]; ok && md != nil {
		mdMap, ok := md.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("metadata must be an object, got %T", md)
		}
		a.Metadata = mdMap
	}
	if oi, ok := m["original_index"]; ok && oi != nil {
		idx, err := toIndex(oi)
		if err != nil {
			return nil, err
		}
		a.OriginalIndex = &idx
	}
	return a, nil
}

func toIndex(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("original_index must be an integer, got %v", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("original_index must be an integer, got %T", v)
	}
}

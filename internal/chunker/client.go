package chunker

import (
	"strings"
	"unicode/utf8"

	"highlights-cli/pkg/config"
)

// DefaultChunkSize is the chunk size, in characters, used when none is configured.
const DefaultChunkSize = 1024

// separators are tried in order when looking for a place to end a chunk.
var separators = []string{"\n\n", "\n", " "}

type Client struct {
	chunkSize int
}

func New(cfg config.ChunkerConfig) *Client {
	size := cfg.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &Client{chunkSize: size}
}

// ChunkSize returns the maximum chunk length in characters.
func (c *Client) ChunkSize() int {
	return c.chunkSize
}

func (c *Client) ChunkText(text string) ([]string, error) {
	return Split(text, c.chunkSize), nil
}

// Split cuts text into consecutive chunks of at most maxChunkSize characters.
// Chunks do not overlap and joining them reproduces text exactly. Within the
// size cap a chunk ends just after the last paragraph break, newline or space
// if one exists, otherwise it is cut at the cap.
func Split(text string, maxChunkSize int) []string {
	if text == "" {
		return nil
	}
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultChunkSize
	}

	var chunks []string
	for start := 0; start < len(text); {
		end := advance(text, start, maxChunkSize)
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		end = start + boundary(text[start:end])
		chunks = append(chunks, text[start:end])
		start = end
	}
	return chunks
}

// advance returns the byte index n characters past start, or len(text).
// Invalid bytes count as one character each and are kept as they are.
func advance(text string, start, n int) int {
	i := start
	for ; n > 0 && i < len(text); n-- {
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return i
}

// boundary returns the byte length of the longest prefix of window that
// ends with a separator, or len(window) when no separator is found.
func boundary(window string) int {
	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx <= 0 {
			continue
		}
		return idx + len(sep)
	}
	return len(window)
}

// Package needle embeds a marker string into chunked text at a chosen
// character offset. All offsets and lengths are counted in characters
// (Unicode code points), matching the chunker.
package needle

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"unicode/utf8"
)

// SentenceDelimiter separates sentence fragments inside a chunk.
const SentenceDelimiter = ". "

var (
	// ErrOutOfBounds is returned when a requested offset or index lies outside the haystack.
	ErrOutOfBounds = errors.New("needle position out of bounds")
	// ErrEmptyHaystack is returned when there is no chunk to place a needle into.
	ErrEmptyHaystack = errors.New("haystack has no chunks")
	// ErrEmptyNeedle is returned for an empty or whitespace-only needle.
	ErrEmptyNeedle = errors.New("needle is empty")
)

// InsertionPoint identifies where a needle was embedded.
type InsertionPoint struct {
	Chunk  int
	Offset int
}

// Placement is the result of embedding a needle. Chunks is a fresh slice;
// the input haystack is never modified.
type Placement struct {
	Chunks []string
	Point  InsertionPoint
	// Position is the absolute character offset of the needle in the
	// concatenation of Chunks.
	Position int
}

// Length returns the total number of characters across chunks.
func Length(chunks []string) int {
	total := 0
	for _, c := range chunks {
		total += utf8.RuneCountInString(c)
	}
	return total
}

// Locate maps an absolute offset into the concatenated haystack to the chunk
// containing it and the offset within that chunk.
func Locate(chunks []string, offset int) (InsertionPoint, error) {
	if len(chunks) == 0 {
		return InsertionPoint{}, ErrEmptyHaystack
	}
	if offset < 0 {
		return InsertionPoint{}, fmt.Errorf("%w: offset %d is negative", ErrOutOfBounds, offset)
	}

	cumulative := 0
	for i, c := range chunks {
		n := utf8.RuneCountInString(c)
		if cumulative+n > offset {
			return InsertionPoint{Chunk: i, Offset: offset - cumulative}, nil
		}
		cumulative += n
	}
	return InsertionPoint{}, fmt.Errorf("%w: offset %d, haystack length %d", ErrOutOfBounds, offset, cumulative)
}

// Place inserts needle near the absolute offset. When the target chunk has
// sentence delimiters the needle is prefixed to the sentence fragment that
// contains the offset, otherwise it is spliced in at the exact offset.
func Place(chunks []string, needle string, offset int) (Placement, error) {
	if strings.TrimSpace(needle) == "" {
		return Placement{}, ErrEmptyNeedle
	}
	point, err := Locate(chunks, offset)
	if err != nil {
		return Placement{}, err
	}

	target := chunks[point.Chunk]
	if strings.Contains(target, SentenceDelimiter) {
		point.Offset = sentenceStart(target, point.Offset)
	}

	return splice(chunks, needle, point), nil
}

// sentenceStart returns the character offset of the start of the sentence
// fragment that contains offset.
func sentenceStart(chunk string, offset int) int {
	fragments := strings.Split(chunk, SentenceDelimiter)
	delimLen := utf8.RuneCountInString(SentenceDelimiter)

	start := 0
	for i, f := range fragments {
		end := start + utf8.RuneCountInString(f)
		if i < len(fragments)-1 {
			end += delimLen
		}
		if end > offset {
			return start
		}
		start = end
	}
	return start
}

// PlaceRandom picks a chunk and an offset within it uniformly at random and
// splices the needle in at that offset. The offset is bounded so that the
// needle fits inside the original chunk length when possible.
func PlaceRandom(chunks []string, needle string, rng *rand.Rand) (Placement, error) {
	if strings.TrimSpace(needle) == "" {
		return Placement{}, ErrEmptyNeedle
	}
	if len(chunks) == 0 {
		return Placement{}, ErrEmptyHaystack
	}

	idx := rng.Intn(len(chunks))
	limit := utf8.RuneCountInString(chunks[idx]) - utf8.RuneCountInString(needle)
	if limit < 0 {
		limit = 0
	}
	offset := rng.Intn(limit + 1)

	return splice(chunks, needle, InsertionPoint{Chunk: idx, Offset: offset}), nil
}

// InsertChunk adds needle as a chunk of its own at index, shifting later
// chunks back by one. index may equal len(chunks) to append.
func InsertChunk(chunks []string, needle string, index int) (Placement, error) {
	if strings.TrimSpace(needle) == "" {
		return Placement{}, ErrEmptyNeedle
	}
	if index < 0 || index > len(chunks) {
		return Placement{}, fmt.Errorf("%w: chunk index %d, haystack has %d chunks", ErrOutOfBounds, index, len(chunks))
	}

	out := make([]string, 0, len(chunks)+1)
	out = append(out, chunks[:index]...)
	out = append(out, needle)
	out = append(out, chunks[index:]...)

	return Placement{
		Chunks:   out,
		Point:    InsertionPoint{Chunk: index},
		Position: Length(chunks[:index]),
	}, nil
}

// InsertChunkRandom inserts needle as its own chunk at a uniformly random index.
func InsertChunkRandom(chunks []string, needle string, rng *rand.Rand) (Placement, error) {
	return InsertChunk(chunks, needle, rng.Intn(len(chunks)+1))
}

func splice(chunks []string, needle string, point InsertionPoint) Placement {
	out := make([]string, len(chunks))
	copy(out, chunks)

	target := out[point.Chunk]
	at := byteIndex(target, point.Offset)
	out[point.Chunk] = target[:at] + needle + target[at:]

	return Placement{
		Chunks:   out,
		Point:    point,
		Position: Length(chunks[:point.Chunk]) + point.Offset,
	}
}

// byteIndex converts a character offset in s to a byte index. Invalid bytes
// count as one character each, as utf8.RuneCountInString does.
func byteIndex(s string, offset int) int {
	i := 0
	for ; offset > 0 && i < len(s); offset-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}

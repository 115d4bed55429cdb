package needle

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocate(t *testing.T) {
	chunks := []string{"abc", "defg", "hi"}

	tests := []struct {
		name     string
		offset   int
		expected InsertionPoint
		wantErr  bool
	}{
		{name: "start of haystack", offset: 0, expected: InsertionPoint{Chunk: 0, Offset: 0}},
		{name: "first char of second chunk", offset: 3, expected: InsertionPoint{Chunk: 1, Offset: 0}},
		{name: "last char of second chunk", offset: 6, expected: InsertionPoint{Chunk: 1, Offset: 3}},
		{name: "last char of haystack", offset: 8, expected: InsertionPoint{Chunk: 2, Offset: 1}},
		{name: "one past the end", offset: 9, wantErr: true},
		{name: "negative", offset: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			point, err := Locate(chunks, tt.offset)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOutOfBounds)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, point)
		})
	}

	_, err := Locate(nil, 0)
	assert.ErrorIs(t, err, ErrEmptyHaystack)
}

func TestPlaceSentenceBoundary(t *testing.T) {
	chunks := []string{"Intro text. ", "First sentence. Second sentence. Third one"}

	// absolute 32 is inside "Second sentence" of the second chunk
	p, err := Place(chunks, "NEEDLE ", 32)
	require.NoError(t, err)

	assert.Equal(t, "Intro text. ", p.Chunks[0])
	assert.Equal(t, "First sentence. NEEDLE Second sentence. Third one", p.Chunks[1])
	assert.Equal(t, InsertionPoint{Chunk: 1, Offset: 16}, p.Point)
	assert.Equal(t, 28, p.Position)
}

func TestPlaceSentenceBoundaryFirstAndLastFragment(t *testing.T) {
	chunks := []string{"One. Two. Three"}

	p, err := Place(chunks, "N", 1)
	require.NoError(t, err)
	assert.Equal(t, "NOne. Two. Three", p.Chunks[0])

	p, err = Place(chunks, "N", 14)
	require.NoError(t, err)
	assert.Equal(t, "One. Two. NThree", p.Chunks[0])
	assert.Equal(t, 10, p.Position)
}

func TestPlaceDirectSplice(t *testing.T) {
	chunks := []string{"abcdef", "ghijkl"}

	p, err := Place(chunks, "XY", 9)
	require.NoError(t, err)

	assert.Equal(t, []string{"abcdef", "ghiXYjkl"}, p.Chunks)
	assert.Equal(t, InsertionPoint{Chunk: 1, Offset: 3}, p.Point)
	assert.Equal(t, 9, p.Position)
}

func TestPlaceDoesNotMutateInput(t *testing.T) {
	chunks := []string{"abc. def", "ghi"}
	original := append([]string(nil), chunks...)

	_, err := Place(chunks, "NEEDLE", 5)
	require.NoError(t, err)
	assert.Equal(t, original, chunks)
}

func TestPlaceErrors(t *testing.T) {
	_, err := Place([]string{"abc"}, "N", 3)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, err = Place([]string{"abc"}, "", 0)
	assert.ErrorIs(t, err, ErrEmptyNeedle)

	_, err = Place(nil, "N", 0)
	assert.ErrorIs(t, err, ErrEmptyHaystack)
}

func TestPlaceNeedleInExactlyOneChunk(t *testing.T) {
	chunks := []string{
		"The cat sat on the mat. It was warm. ",
		"Nothing happened here at all",
		"Later that day. Rain fell. The end.",
	}
	needle := "SECRET_MARKER"
	total := Length(chunks)

	for offset := 0; offset < total; offset++ {
		p, err := Place(chunks, needle, offset)
		require.NoError(t, err, "offset %d", offset)

		found := 0
		for i, c := range p.Chunks {
			if strings.Contains(strings.TrimSpace(c), strings.TrimSpace(needle)) {
				found++
				assert.Equal(t, chunks[i], strings.Replace(c, needle, "", 1), "offset %d", offset)
			} else {
				assert.Equal(t, chunks[i], c, "offset %d", offset)
			}
		}
		assert.Equal(t, 1, found, "offset %d", offset)

		joined := []rune(strings.Join(p.Chunks, ""))
		assert.Equal(t, needle, string(joined[p.Position:p.Position+len(needle)]), "offset %d", offset)
	}
}

func TestPlaceSentencePrefixesWholeFragment(t *testing.T) {
	chunk := "Alpha beta. Gamma delta. Epsilon zeta"
	for offset := 0; offset < len(chunk); offset++ {
		p, err := Place([]string{chunk}, "N ", offset)
		require.NoError(t, err)

		fragments := strings.Split(p.Chunks[0], SentenceDelimiter)
		prefixed := 0
		for _, f := range fragments {
			if strings.HasPrefix(f, "N ") {
				prefixed++
			}
		}
		assert.Equal(t, 1, prefixed, "offset %d produced %q", offset, p.Chunks[0])
	}
}

func TestPlaceIsDeterministic(t *testing.T) {
	chunks := []string{"a. b. c", "d e f"}
	first, err := Place(chunks, "N", 4)
	require.NoError(t, err)
	second, err := Place(chunks, "N", 4)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPlaceRandom(t *testing.T) {
	chunks := []string{"0123456789", "abcdefghij", "ABCDEFGHIJ"}
	needle := "XYZ"

	first, err := PlaceRandom(chunks, needle, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	second, err := PlaceRandom(chunks, needle, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for seed := int64(0); seed < 50; seed++ {
		p, err := PlaceRandom(chunks, needle, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)

		assert.LessOrEqual(t, p.Point.Offset, len(chunks[p.Point.Chunk])-len(needle))
		joined := strings.Join(p.Chunks, "")
		assert.Equal(t, needle, joined[p.Position:p.Position+len(needle)], fmt.Sprintf("seed %d", seed))
	}
}

func TestPlaceRandomNeedleLongerThanChunk(t *testing.T) {
	p, err := PlaceRandom([]string{"ab"}, "LONG_NEEDLE", rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, "LONG_NEEDLEab", p.Chunks[0])
	assert.Equal(t, 0, p.Position)
}

func TestInsertChunk(t *testing.T) {
	var distractors []string
	for i := 0; i < 10; i++ {
		distractors = append(distractors, fmt.Sprintf("Distractor text number %d", i))
	}

	p, err := InsertChunk(distractors, "SECRET_MARKER", 4)
	require.NoError(t, err)

	assert.Len(t, p.Chunks, 11)
	assert.Equal(t, "SECRET_MARKER", p.Chunks[4])
	assert.Equal(t, 4, p.Point.Chunk)
	assert.Equal(t, Length(distractors[:4]), p.Position)
	assert.Len(t, distractors, 10)

	_, err = InsertChunk(distractors, "SECRET_MARKER", 11)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	p, err = InsertChunk(distractors, "SECRET_MARKER", 10)
	require.NoError(t, err)
	assert.Equal(t, "SECRET_MARKER", p.Chunks[10])
}

func TestBlankNeedleRejected(t *testing.T) {
	chunks := []string{"Some text. More text.", "other"}
	for _, n := range []string{"", "   ", "\n\t"} {
		_, err := Place(chunks, n, 3)
		assert.ErrorIs(t, err, ErrEmptyNeedle, "Place(%q)", n)

		_, err = PlaceRandom(chunks, n, rand.New(rand.NewSource(1)))
		assert.ErrorIs(t, err, ErrEmptyNeedle, "PlaceRandom(%q)", n)

		_, err = InsertChunk(chunks, n, 1)
		assert.ErrorIs(t, err, ErrEmptyNeedle, "InsertChunk(%q)", n)
	}
}

func TestPlaceKeepsInvalidUTF8Bytes(t *testing.T) {
	chunks := []string{"caf\xe9 au lait", "na\xefve \xff text"}

	p, err := Place(chunks, "N", 14)
	require.NoError(t, err)
	assert.Equal(t, chunks[0], p.Chunks[0])
	assert.Equal(t, "naN\xefve \xff text", p.Chunks[1])
	assert.Equal(t, 14, p.Position)

	p, err = Place(chunks, "N", 4)
	require.NoError(t, err)
	assert.Equal(t, "caf\xe9N au lait", p.Chunks[0])
	assert.Equal(t, chunks[1], p.Chunks[1])
}

// Package niah runs needle-in-a-haystack checks against the search service:
// it hides a known string in a haystack, asks the service to rank the
// chunks, and reports whether the needle-bearing chunk came out on top.
package niah

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"highlights-cli/internal/chunker"
	"highlights-cli/internal/highlights"
	"highlights-cli/internal/needle"
)

// Searcher ranks chunks against a query. *highlights.Client implements it.
type Searcher interface {
	Search(ctx context.Context, query string, chunks []highlights.Chunk, opts highlights.SearchOptions) (*highlights.SearchResponse, error)
}

type Options struct {
	ChunkSize int
	TopN      int
	TrueOrder bool
	Seed      int64
}

// Tester runs tests one at a time. It owns a random source and is not safe
// for concurrent use.
type Tester struct {
	searcher  Searcher
	chunkSize int
	topN      int
	trueOrder bool
	rng       *rand.Rand
}

// Test describes one run. The haystack is Text split into chunks, or Chunks
// as given when Text is empty. Position is an absolute character offset,
// or a chunk index when AsChunk is set; nil picks one at random.
type Test struct {
	Needle   string
	Query    string
	Text     string
	Chunks   []string
	Position *int
	AsChunk  bool
}

// Outcome is the result of a single run. TruePosition is in the units of
// Test.Position: a chunk index for AsChunk tests, a character offset otherwise.
type Outcome struct {
	Needle                string
	Query                 string
	Success               bool
	MatchingChunk         *string
	MatchingChunkPosition *int
	TotalChunks           int
	TruePosition          int
	NeedleChunk           int
	Latency               time.Duration
	Metadata              map[string]any
}

// Ranked reports whether any returned result contained the needle.
func (o *Outcome) Ranked() bool {
	return o.MatchingChunkPosition != nil
}

var errNoQuery = errors.New("query is empty")

func NewTester(searcher Searcher, opts Options) *Tester {
	size := opts.ChunkSize
	if size <= 0 {
		size = chunker.DefaultChunkSize
	}
	topN := opts.TopN
	if topN <= 0 {
		topN = 1
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Tester{
		searcher:  searcher,
		chunkSize: size,
		topN:      topN,
		trueOrder: opts.TrueOrder,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Distractors returns n filler chunks of the form "Distractor text number i".
func Distractors(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Distractor text number %d", i)
	}
	return out
}

// BuildHaystack returns the chunks a test will search.
func (t *Tester) BuildHaystack(test Test) []string {
	if test.Text != "" {
		return chunker.Split(test.Text, t.chunkSize)
	}
	return test.Chunks
}

// Prepare builds the haystack and embeds the needle without querying.
func (t *Tester) Prepare(test Test) (needle.Placement, error) {
	haystack := t.BuildHaystack(test)

	switch {
	case test.AsChunk && test.Position != nil:
		return needle.InsertChunk(haystack, test.Needle, *test.Position)
	case test.AsChunk:
		return needle.InsertChunkRandom(haystack, test.Needle, t.rng)
	case test.Position != nil:
		return needle.Place(haystack, test.Needle, *test.Position)
	default:
		return needle.PlaceRandom(haystack, test.Needle, t.rng)
	}
}

// Run executes one test: build the haystack, embed the needle, query the
// service and score the ranking. Any failure aborts the run.
func (t *Tester) Run(ctx context.Context, test Test) (*Outcome, error) {
	if strings.TrimSpace(test.Query) == "" {
		return nil, errNoQuery
	}

	placement, err := t.Prepare(test)
	if err != nil {
		return nil, fmt.Errorf("failed to place needle: %w", err)
	}

	start := time.Now()
	resp, err := t.searcher.Search(ctx, test.Query, highlights.TextChunks(placement.Chunks), highlights.SearchOptions{
		TopN:      t.topN,
		TrueOrder: t.trueOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search haystack: %w", err)
	}
	latency := time.Since(start)

	truePosition := placement.Position
	if test.AsChunk {
		truePosition = placement.Point.Chunk
	}

	score := Score(test.Needle, resp.Results)
	metadata := resp.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return &Outcome{
		Needle:                test.Needle,
		Query:                 test.Query,
		Success:               score.Success,
		MatchingChunk:         score.MatchingChunk,
		MatchingChunkPosition: score.MatchingChunkPosition,
		TotalChunks:           len(placement.Chunks),
		TruePosition:          truePosition,
		NeedleChunk:           placement.Point.Chunk,
		Latency:               latency,
		Metadata:              metadata,
	}, nil
}

// RunMany repeats test runs times. With a nil Position each run places the
// needle afresh. The first failure stops the sweep.
func (t *Tester) RunMany(ctx context.Context, test Test, runs int) ([]*Outcome, error) {
	outcomes := make([]*Outcome, 0, runs)
	for i := 0; i < runs; i++ {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		outcome, err := t.Run(ctx, test)
		if err != nil {
			return outcomes, fmt.Errorf("run %d: %w", i+1, err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

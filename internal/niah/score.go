package niah

import (
	"strings"

	"highlights-cli/internal/highlights"
)

type ScoreResult struct {
	Success               bool
	MatchingChunk         *string
	MatchingChunkPosition *int
}

// Score checks ranked results for the needle. Success means the top result
// contains it; MatchingChunkPosition is the rank of the first result that
// does. Both sides are whitespace-trimmed before comparing; a blank needle
// never matches.
func Score(needleText string, results []highlights.Result) ScoreResult {
	var score ScoreResult
	target := strings.TrimSpace(needleText)
	if target == "" {
		return score
	}

	for i, res := range results {
		if !strings.Contains(strings.TrimSpace(res.ChunkTxt), target) {
			continue
		}
		if i == 0 {
			score.Success = true
		}
		chunk := res.ChunkTxt
		rank := i
		score.MatchingChunk = &chunk
		score.MatchingChunkPosition = &rank
		break
	}
	return score
}

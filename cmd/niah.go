package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"highlights-cli/internal/highlights"
	"highlights-cli/internal/niah"
	"highlights-cli/internal/pdf"
	"highlights-cli/internal/results"
	"highlights-cli/internal/ui"
	"highlights-cli/pkg/config"
)

var (
	niahNeedle      string
	niahQuery       string
	niahHaystack    string
	niahDistractors int
	niahPosition    int
	niahAsChunk     bool
	niahSeed        int64
	niahTopN        int
	niahRuns        int
	niahTrueOrder   bool
	niahRecord      bool
	niahJSON        bool
)

var niahCmd = &cobra.Command{
	Use:   "niah",
	Short: "Run a needle-in-a-haystack ranking test",
	Long: `Hide a needle string in a haystack, ask the search service to rank the
haystack's chunks for a query, and check that the chunk holding the needle
comes out on top.

The haystack is either a file (--haystack, text or PDF) split into chunks,
or --distractors N generated filler chunks. With --position the needle goes
in at that absolute character offset, at the start of the sentence holding
it when the chunk has sentences. Without it a random chunk and offset are
chosen. --as-chunk adds the needle as a chunk of its own instead, and
--position is then a chunk index.

EXAMPLES:
  # Needle at character 5000 of a long document
  highlights-cli niah --haystack essay.txt --needle "The magic number is 42." \
    --query "What is the magic number?" --position 5000

  # Twenty random placements among 10 distractors, recorded for later
  highlights-cli niah --distractors 10 --as-chunk --needle SECRET_MARKER \
    --query "secret marker" --runs 20 --record`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNIAH(cmd)
	},
}

func init() {
	rootCmd.AddCommand(niahCmd)

	niahCmd.Flags().StringVar(&niahNeedle, "needle", "", "Text to hide in the haystack (required)")
	niahCmd.Flags().StringVarP(&niahQuery, "query", "q", "", "Query expected to find the needle (required)")
	niahCmd.Flags().StringVar(&niahHaystack, "haystack", "", "Haystack file (text or PDF)")
	niahCmd.Flags().IntVar(&niahDistractors, "distractors", 0, "Generate N distractor chunks as the haystack")
	niahCmd.Flags().IntVarP(&niahPosition, "position", "p", 0, "Needle position (character offset, or chunk index with --as-chunk); random when unset")
	niahCmd.Flags().BoolVar(&niahAsChunk, "as-chunk", false, "Insert the needle as its own chunk")
	niahCmd.Flags().Int64Var(&niahSeed, "seed", 0, "Random seed for placement (default niah.seed, or time based)")
	niahCmd.Flags().IntVarP(&niahTopN, "top-n", "n", 0, "Number of results to request (default niah.top_n)")
	niahCmd.Flags().IntVar(&niahRuns, "runs", 1, "Number of runs")
	niahCmd.Flags().BoolVar(&niahTrueOrder, "true-order", false, "Ask the service to keep original chunk order among results")
	niahCmd.Flags().BoolVar(&niahRecord, "record", false, "Record outcomes in the results database")
	niahCmd.Flags().BoolVarP(&niahJSON, "json", "j", false, "Print outcomes as JSON")
	niahCmd.MarkFlagRequired("needle")
	niahCmd.MarkFlagRequired("query")
	niahCmd.MarkFlagsMutuallyExclusive("haystack", "distractors")
}

func runNIAH(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	printer := newPrinter()

	test, err := buildNIAHTest(cmd)
	if err != nil {
		return err
	}
	if niahRuns < 1 {
		return fmt.Errorf("--runs must be at least 1")
	}

	client, err := highlights.NewClient(cfg.Highlights)
	if err != nil {
		return fmt.Errorf("failed to initialize search client: %w", err)
	}

	opts := niah.Options{
		ChunkSize: cfg.Chunker.ChunkSize,
		TopN:      cfg.NIAH.TopN,
		TrueOrder: niahTrueOrder,
		Seed:      cfg.NIAH.Seed,
	}
	if niahTopN > 0 {
		opts.TopN = niahTopN
	}
	if cmd.Flags().Changed("seed") {
		opts.Seed = niahSeed
	}
	tester := niah.NewTester(client, opts)

	var store *results.Store
	if niahRecord {
		store, err = results.Open(cfg.Results.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		printer.Debugf("Recording outcomes in %s", cfg.Results.Path)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	title := "Querying..."
	if niahRuns > 1 {
		title = fmt.Sprintf("Running %d needle tests...", niahRuns)
	}
	outcomes, runErr := ui.Spin(spinnerEnabled(), title, func() ([]*niah.Outcome, error) {
		return tester.RunMany(ctx, test, niahRuns)
	})
	for i, o := range outcomes {
		printer.Debugf("Run %d: needle in chunk %d at %d, success=%v", i+1, o.NeedleChunk, o.TruePosition, o.Success)
	}

	// completed runs are kept even when a later one fails or is interrupted
	if store != nil && len(outcomes) > 0 {
		if err := recordOutcomes(context.WithoutCancel(ctx), store, outcomes); err != nil {
			return err
		}
		printer.Infof("Recorded %d outcome(s)", len(outcomes))
	}
	if runErr != nil {
		if len(outcomes) > 0 {
			printer.Warnf("%d of %d runs completed before the failure", len(outcomes), niahRuns)
		}
		return fmt.Errorf("needle test failed: %w", runErr)
	}

	if niahJSON {
		return writeOutcomesJSON(cmd.OutOrStdout(), outcomes)
	}
	for i, o := range outcomes {
		fmt.Fprint(cmd.OutOrStdout(), renderOutcome(fmt.Sprintf("Needle test %d/%d", i+1, len(outcomes)), o))
	}
	if len(outcomes) > 1 {
		passed := 0
		for _, o := range outcomes {
			if o.Success {
				passed++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d/%d runs ranked the needle first\n", passed, len(outcomes))
	}
	return nil
}

func recordOutcomes(ctx context.Context, store *results.Store, outcomes []*niah.Outcome) error {
	for _, o := range outcomes {
		if _, err := store.Record(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

func buildNIAHTest(cmd *cobra.Command) (niah.Test, error) {
	test := niah.Test{
		Needle:  niahNeedle,
		Query:   niahQuery,
		AsChunk: niahAsChunk,
	}
	if cmd.Flags().Changed("position") {
		position := niahPosition
		test.Position = &position
	}

	switch {
	case niahHaystack != "":
		text, err := readHaystack(niahHaystack)
		if err != nil {
			return niah.Test{}, err
		}
		test.Text = text
	case niahDistractors > 0:
		test.Chunks = niah.Distractors(niahDistractors)
	default:
		return niah.Test{}, errors.New("one of --haystack or --distractors is required")
	}
	return test, nil
}

func readHaystack(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		pages, err := pdf.Extract(path)
		if err != nil {
			return "", fmt.Errorf("failed to extract %s: %w", path, err)
		}
		return strings.Join(pages, "\n\n"), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read haystack: %w", err)
	}
	return string(content), nil
}

func renderOutcome(title string, o *niah.Outcome) string {
	report := ui.NewReport(title).
		Add("Result", ui.Verdict(o.Success)).
		Addf("Total chunks", "%d", o.TotalChunks).
		Addf("Needle chunk", "%d", o.NeedleChunk).
		Addf("Needle position", "%d", o.TruePosition)

	if o.MatchingChunkPosition != nil {
		report.Addf("Needle rank", "%d", *o.MatchingChunkPosition+1)
	} else {
		report.Add("Needle rank", "not in results")
	}
	report.Addf("Latency", "%s", o.Latency.Round(time.Millisecond))

	out := report.String()
	if o.MatchingChunk != nil {
		out += ui.Chunk(*o.MatchingChunk, 240) + "\n"
	}
	return out
}

type outcomeJSON struct {
	Success               bool           `json:"success"`
	MatchingChunk         *string        `json:"matching_chunk"`
	MatchingChunkPosition *int           `json:"matching_chunk_position"`
	TotalChunks           int            `json:"total_chunks"`
	TruePosition          int            `json:"true_position"`
	NeedleChunk           int            `json:"needle_chunk"`
	LatencyMS             int64          `json:"latency_ms"`
	Metadata              map[string]any `json:"metadata"`
}

func writeOutcomesJSON(w io.Writer, outcomes []*niah.Outcome) error {
	out := make([]outcomeJSON, len(outcomes))
	for i, o := range outcomes {
		out[i] = outcomeJSON{
			Success:               o.Success,
			MatchingChunk:         o.MatchingChunk,
			MatchingChunkPosition: o.MatchingChunkPosition,
			TotalChunks:           o.TotalChunks,
			TruePosition:          o.TruePosition,
			NeedleChunk:           o.NeedleChunk,
			LatencyMS:             o.Latency.Milliseconds(),
			Metadata:              o.Metadata,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal outcomes: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

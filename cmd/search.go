package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"highlights-cli/internal/chunker"
	"highlights-cli/internal/highlights"
	"highlights-cli/internal/pdf"
	"highlights-cli/internal/ui"
	"highlights-cli/pkg/config"
)

var (
	searchQuery      string
	searchTopN       int
	searchTrueOrder  bool
	searchJSON       bool
	searchChunksJSON string
)

var searchCmd = &cobra.Command{
	Use:   "search [file...]",
	Short: "Rank chunks of text against a query",
	Long: `Send a query and a set of text chunks to the Highlights service and print
the ranked results.

Text files are split into chunks (chunker.chunk_size characters, default 1024).
PDF files contribute one chunk per non-blank page. With --chunks-json the chunks
are read from a JSON array whose elements are strings or objects with a "text"
field and optional "metadata". With no files, text is read from stdin.

EXAMPLES:
  # Rank the chunks of a report
  highlights-cli search -q "quarterly revenue" report.txt

  # Keep the original chunk order among the top 5
  highlights-cli search -q "setup steps" -n 5 --true-order manual.pdf

  # Pre-chunked input
  highlights-cli search -q "error handling" --chunks-json chunks.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Search query (required)")
	searchCmd.Flags().IntVarP(&searchTopN, "top-n", "n", 0, "Number of results to return (default highlights.top_n)")
	searchCmd.Flags().BoolVar(&searchTrueOrder, "true-order", false, "Ask the service to keep original chunk order among results")
	searchCmd.Flags().BoolVarP(&searchJSON, "json", "j", false, "Print the raw response as JSON")
	searchCmd.Flags().StringVar(&searchChunksJSON, "chunks-json", "", "Read chunks from a JSON array file")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, files []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	printer := newPrinter()

	client, err := highlights.NewClient(cfg.Highlights)
	if err != nil {
		return fmt.Errorf("failed to initialize search client: %w", err)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	opts := highlights.SearchOptions{TopN: searchTopN, TrueOrder: searchTrueOrder}

	var chunks []highlights.Chunk
	if searchChunksJSON != "" {
		items, err := readChunksJSON(searchChunksJSON)
		if err != nil {
			return err
		}
		chunks, err = highlights.NormalizeChunks(items)
		if err != nil {
			return fmt.Errorf("%s: %w", searchChunksJSON, err)
		}
	} else {
		chunks, err = loadChunks(files, chunker.New(cfg.Chunker), pdf.NewExtractor(), cmd.InOrStdin())
		if err != nil {
			return err
		}
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no text to search")
	}

	printer.Debugf("Searching %d chunks at %s%s (top_n=%d, true_order=%v)",
		len(chunks), cfg.Highlights.BaseURL, cfg.Highlights.Endpoint, searchTopN, searchTrueOrder)

	resp, err := ui.Spin(spinnerEnabled(), fmt.Sprintf("Ranking %d chunks...", len(chunks)), func() (*highlights.SearchResponse, error) {
		return client.Search(ctx, searchQuery, chunks, opts)
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	printResults(cmd.OutOrStdout(), resp)
	return nil
}

// loadChunks turns files into annotated chunks. PDFs give one chunk per page,
// other files are split by the chunker. With no files stdin is read.
func loadChunks(files []string, chunkerClient *chunker.Client, extractor *pdf.Extractor, stdin io.Reader) ([]highlights.Chunk, error) {
	var chunks []highlights.Chunk
	add := func(source, unit string, n int, text string) {
		idx := len(chunks)
		chunks = append(chunks, highlights.Annotated{
			Text:          text,
			Metadata:      map[string]any{"source": source, unit: n},
			OriginalIndex: &idx,
		})
	}

	if len(files) == 0 {
		content, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		parts, err := chunkerClient.ChunkText(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to chunk text: %w", err)
		}
		for i, p := range parts {
			add("stdin", "chunk", i, p)
		}
		return chunks, nil
	}

	for _, file := range files {
		if strings.EqualFold(filepath.Ext(file), ".pdf") {
			pages, err := extractor.Extract(file)
			if err != nil {
				return nil, fmt.Errorf("failed to extract %s: %w", file, err)
			}
			for i, p := range pages {
				add(file, "page", i+1, p)
			}
			continue
		}

		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		parts, err := chunkerClient.ChunkText(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to chunk text: %w", err)
		}
		for i, p := range parts {
			add(file, "chunk", i, p)
		}
	}
	return chunks, nil
}

func readChunksJSON(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chunks file: %w", err)
	}
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse chunks file %s: expected a JSON array: %w", path, err)
	}
	return items, nil
}

func printResults(w io.Writer, resp *highlights.SearchResponse) {
	if len(resp.Results) == 0 {
		fmt.Fprintln(w, "No results found")
		return
	}

	fmt.Fprintf(w, "Found %d results:\n\n", len(resp.Results))
	for i, res := range resp.Results {
		header := fmt.Sprintf("%d.", i+1)
		if src, ok := res.Metadata["source"]; ok {
			header += fmt.Sprintf(" %v", src)
		}
		fmt.Fprintln(w, header)
		fmt.Fprintln(w, ui.Chunk(res.ChunkTxt, 400))
		if i < len(resp.Results)-1 {
			fmt.Fprintln(w, "\n"+strings.Repeat("-", 80)+"\n")
		}
	}
}

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"highlights-cli/internal/ask"
	"highlights-cli/internal/highlights"
	"highlights-cli/internal/llm"
	"highlights-cli/internal/pdf"
	"highlights-cli/internal/ui"
	"highlights-cli/pkg/config"
)

var (
	askQuestion string
	askTopN     int
	askSources  bool
)

var askCmd = &cobra.Command{
	Use:   "ask <pdf>",
	Short: "Answer questions about a PDF document",
	Long: `Extract the pages of a PDF, rank them against each question with the
Highlights service, and answer with an LLM using the best pages as context.

With --question the answer is printed once. Without it an interactive prompt
starts; type 'sources' to toggle the retrieved pages and 'exit' to quit.

The LLM is any OpenAI compatible endpoint (llm.base_url, llm.model); the key
comes from llm.api_key or OPENAI_API_KEY.

EXAMPLES:
  highlights-cli ask paper.pdf -q "What dataset was used?"
  highlights-cli ask --top-n 5 --sources handbook.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "Ask a single question and exit")
	askCmd.Flags().IntVarP(&askTopN, "top-n", "n", 0, "Number of pages to use as context (default highlights.top_n)")
	askCmd.Flags().BoolVarP(&askSources, "sources", "s", false, "Show the pages used as context")
}

func runAsk(cmd *cobra.Command, path string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	printer := newPrinter()

	searchClient, err := highlights.NewClient(cfg.Highlights)
	if err != nil {
		return fmt.Errorf("failed to initialize search client: %w", err)
	}
	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	topN := cfg.Highlights.TopN
	if askTopN > 0 {
		topN = askTopN
	}
	session := ask.NewSession(&ask.SessionConfig{
		TopN:        topN,
		Temperature: llmClient.Temperature(),
	}, searchClient, llmClient)

	if err := session.Load(pdf.NewExtractor(), path); err != nil {
		return err
	}
	printer.Debugf("Loaded %d pages from %s, model %s", session.Pages(), path, cfg.LLM.Model)

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if askQuestion != "" {
		answer, err := ui.Spin(spinnerEnabled(), "Thinking...", func() (*ask.Answer, error) {
			return session.Answer(ctx, askQuestion)
		})
		if err != nil {
			return err
		}
		printAnswer(cmd.OutOrStdout(), answer, askSources)
		return nil
	}

	interactive, err := ask.NewInteractiveSession(session, askSources)
	if err != nil {
		return err
	}
	defer interactive.Close()

	return interactive.Run(ctx)
}

func printAnswer(w io.Writer, answer *ask.Answer, sources bool) {
	fmt.Fprintln(w, strings.TrimSpace(answer.Text))
	if !sources {
		return
	}
	fmt.Fprintln(w)
	for i, c := range answer.Context {
		fmt.Fprintf(w, "[%d]\n%s\n", i+1, ui.Chunk(c, 400))
	}
}

package ask

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
)

// InteractiveSession handles the interactive question loop with readline
type InteractiveSession struct {
	session     *Session
	rl          *readline.Instance
	out         io.Writer
	showSources bool

	// UI colors
	userPromptColor *color.Color
	answerColor     *color.Color
	sourceColor     *color.Color
	separatorColor  *color.Color
	infoColor       *color.Color
	errorColor      *color.Color

	horizontalRule string
}

// NewInteractiveSession wraps session in a readline prompt
func NewInteractiveSession(session *Session, showSources bool) (*InteractiveSession, error) {
	userPromptColor := color.New(color.FgCyan, color.Bold)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            userPromptColor.Sprintf("? "),
		HistoryFile:       filepath.Join(os.TempDir(), "highlights_ask_history.tmp"),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize readline: %w", err)
	}

	return newInteractiveSession(session, rl, rl.Stdout(), showSources), nil
}

func newInteractiveSession(session *Session, rl *readline.Instance, out io.Writer, showSources bool) *InteractiveSession {
	return &InteractiveSession{
		session:         session,
		rl:              rl,
		out:             out,
		showSources:     showSources,
		userPromptColor: color.New(color.FgCyan, color.Bold),
		answerColor:     color.New(color.FgGreen),
		sourceColor:     color.New(color.FgHiBlack),
		separatorColor:  color.New(color.FgMagenta),
		infoColor:       color.New(color.FgBlue),
		errorColor:      color.New(color.FgRed, color.Bold),
		horizontalRule:  strings.Repeat("─", 60),
	}
}

// Close cleans up the interactive session
func (is *InteractiveSession) Close() {
	if is.rl != nil {
		is.rl.Close()
	}
}

// Run reads questions until exit, EOF, or ctx is cancelled
func (is *InteractiveSession) Run(ctx context.Context) error {
	is.showWelcome()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := is.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading input: %w", err)
		}

		if quit := is.handleLine(ctx, line); quit {
			return nil
		}
	}
}

// handleLine processes one input line and reports whether the loop should stop
func (is *InteractiveSession) handleLine(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	switch input {
	case "":
		return false
	case "exit", "quit":
		return true
	case "sources":
		is.showSources = !is.showSources
		is.infoColor.Fprintf(is.out, "Showing sources: %v\n", is.showSources)
		return false
	}

	answer, err := is.session.Answer(ctx, input)
	if err != nil {
		is.errorColor.Fprintf(is.out, "Error: %v\n", err)
		return false
	}
	is.printAnswer(answer)
	return false
}

func (is *InteractiveSession) printAnswer(answer *Answer) {
	is.separatorColor.Fprintln(is.out, is.horizontalRule)
	is.answerColor.Fprintln(is.out, strings.TrimSpace(answer.Text))
	if is.showSources {
		for i, c := range answer.Context {
			is.sourceColor.Fprintf(is.out, "[%d] %s\n", i+1, preview(c, 160))
		}
	}
	is.separatorColor.Fprintln(is.out, is.horizontalRule)
}

func (is *InteractiveSession) showWelcome() {
	is.infoColor.Fprintf(is.out, "Loaded %s (%d pages with text)\n", is.session.Source(), is.session.Pages())
	is.infoColor.Fprintln(is.out, "Ask a question. 'sources' toggles retrieved passages, 'exit' quits.")
}

func preview(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}

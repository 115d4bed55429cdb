// Package ask answers questions about a document: it ranks the document's
// pages with the search service and hands the best ones to an LLM.
package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"highlights-cli/internal/highlights"
	"highlights-cli/internal/llm"
)

// Searcher ranks plain text passages. *highlights.Client implements it.
type Searcher interface {
	SearchTexts(ctx context.Context, query string, texts []string, opts highlights.SearchOptions) (*highlights.SearchResponse, error)
}

// Extractor pulls ordered passages out of a file.
type Extractor interface {
	Extract(path string) ([]string, error)
}

// ErrNoPages is returned when a session has nothing to search.
var ErrNoPages = errors.New("no text to search")

// SessionConfig holds configuration for a question answering session
type SessionConfig struct {
	TopN        int
	Temperature float32
}

// Session holds a loaded document and answers questions about it
type Session struct {
	config    *SessionConfig
	searcher  Searcher
	completer llm.Completer

	source string
	pages  []string
}

// Answer is a generated answer plus the passages it was grounded on
type Answer struct {
	Question string
	Text     string
	Context  []string
}

// NewSession creates a new question answering session
func NewSession(config *SessionConfig, searcher Searcher, completer llm.Completer) *Session {
	return &Session{
		config:    config,
		searcher:  searcher,
		completer: completer,
	}
}

// Load extracts the passages of the file at path and makes them the
// session's search space.
func (s *Session) Load(extractor Extractor, path string) error {
	pages, err := extractor.Extract(path)
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", path, err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("%s: %w", path, ErrNoPages)
	}
	s.source = path
	s.pages = pages
	return nil
}

// SetPages replaces the search space with pages.
func (s *Session) SetPages(source string, pages []string) {
	s.source = source
	s.pages = pages
}

func (s *Session) Source() string { return s.source }
func (s *Session) Pages() int     { return len(s.pages) }

// Relevant returns the passages the search service ranks highest for question.
func (s *Session) Relevant(ctx context.Context, question string) ([]string, error) {
	if len(s.pages) == 0 {
		return nil, ErrNoPages
	}
	resp, err := s.searcher.SearchTexts(ctx, question, s.pages, highlights.SearchOptions{TopN: s.config.TopN})
	if err != nil {
		return nil, fmt.Errorf("failed to search pages: %w", err)
	}
	return resp.Texts(), nil
}

// Answer retrieves context for question and generates an answer from it.
func (s *Session) Answer(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("question is empty")
	}

	context, err := s.Relevant(ctx, question)
	if err != nil {
		return nil, err
	}

	text, err := s.completer.Complete(ctx, llm.DefaultSystemPrompt, llm.BuildPrompt(question, context), s.config.Temperature)
	if err != nil {
		return nil, fmt.Errorf("error generating response: %w", err)
	}

	return &Answer{Question: question, Text: text, Context: context}, nil
}

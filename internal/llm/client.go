package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"highlights-cli/pkg/config"
)

// DefaultSystemPrompt frames the model as a context-grounded assistant.
const DefaultSystemPrompt = "You are a helpful assistant that answers questions based on provided context."

// Completer turns a system and user prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error)
}

type Client struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewClient(cfg config.LLMConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("llm: %w (set OPENAI_API_KEY or llm.api_key)", config.ErrMissingAPIKey)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

// Temperature returns the configured sampling temperature.
func (c *Client) Temperature() float32 {
	return c.temperature
}

func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateResponse answers query from the given context passages.
func (c *Client) GenerateResponse(ctx context.Context, query string, context []string) (string, error) {
	return c.Complete(ctx, DefaultSystemPrompt, BuildPrompt(query, context), c.temperature)
}

// BuildPrompt lays out the retrieved passages followed by the question.
func BuildPrompt(query string, context []string) string {
	var prompt strings.Builder

	prompt.WriteString("Context information is below.\n")
	prompt.WriteString("----------------\n")
	prompt.WriteString(strings.Join(context, " "))
	prompt.WriteString("\n----------------\n")
	prompt.WriteString("Using the above context, please answer the following question: ")
	prompt.WriteString(query)

	return prompt.String()
}

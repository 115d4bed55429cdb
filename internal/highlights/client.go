package highlights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"highlights-cli/pkg/config"
	"highlights-cli/pkg/version"
)

const defaultTopN = 3

// maxErrorBody caps how much of a failed response body is kept in a TransportError.
const maxErrorBody = 4 << 10

// Client talks to the remote highlights search service. A Client is meant
// to be used by one caller at a time.
type Client struct {
	baseURL  string
	endpoint string
	apiKey   string
	auth     string
	topN     int
	client   *http.Client
}

type SearchOptions struct {
	TopN      int
	TrueOrder bool
}

type SearchRequest struct {
	Query     string  `json:"query"`
	ChunkTxts []Chunk `json:"chunk_txts"`
	TopN      int     `json:"top_n"`
	TrueOrder bool    `json:"true_order"`
}

type Result struct {
	ChunkTxt string         `json:"chunk_txt"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type SearchResponse struct {
	Results  []Result       `json:"results"`
	Metadata map[string]any `json:"metadata"`
}

// Texts returns the chunk text of every result in rank order.
func (r *SearchResponse) Texts() []string {
	texts := make([]string, len(r.Results))
	for i, res := range r.Results {
		texts[i] = res.ChunkTxt
	}
	return texts
}

// TransportError is returned when the service answers with a non-2xx status.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, e.Body)
}

func NewClient(cfg config.HighlightsConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = config.SearchEndpoint
	}
	if cfg.Auth == "" {
		cfg.Auth = config.AuthAPIKey
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	topN := cfg.TopN
	if topN <= 0 {
		topN = defaultTopN
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		auth:     cfg.Auth,
		topN:     topN,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// SearchTexts searches plain text chunks.
func (c *Client) SearchTexts(ctx context.Context, query string, texts []string, opts SearchOptions) (*SearchResponse, error) {
	return c.Search(ctx, query, TextChunks(texts), opts)
}

// SearchAny validates loosely typed chunks before searching them.
func (c *Client) SearchAny(ctx context.Context, query string, items []any, opts SearchOptions) (*SearchResponse, error) {
	chunks, err := NormalizeChunks(items)
	if err != nil {
		return nil, err
	}
	return c.Search(ctx, query, chunks, opts)
}

// Search ranks chunks against query on the remote service. Errors are not
// retried; a timeout or non-2xx status is returned to the caller.
func (c *Client) Search(ctx context.Context, query string, chunks []Chunk, opts SearchOptions) (*SearchResponse, error) {
	for i, ch := range chunks {
		if ch == nil {
			return nil, &ValidationError{Index: i, Reason: "nil chunk"}
		}
	}

	topN := opts.TopN
	if topN <= 0 {
		topN = c.topN
	}

	reqBody, err := json.Marshal(SearchRequest{
		Query:     query,
		ChunkTxts: chunks,
		TopN:      topN,
		TrueOrder: opts.TrueOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.GetBuildInfo().UserAgent())
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if searchResp.Metadata == nil {
		searchResp.Metadata = map[string]any{}
	}

	return &searchResp, nil
}

func (c *Client) authorize(req *http.Request) {
	switch c.auth {
	case config.AuthBearer:
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	default:
		req.Header.Set("X-API-Key", c.apiKey)
	}
}

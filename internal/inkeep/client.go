package inkeep

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Common errors
var (
	ErrNoAPIKey      = errors.New("inkeep API key not set")
	ErrEmptyQuestion = errors.New("question cannot be empty")
	ErrAPIFailed     = errors.New("inkeep API failed")
)

const (
	// DefaultBaseURL is the Inkeep chat-completions endpoint.
	DefaultBaseURL = "https://api.inkeep.com/v1"

	// Models. The qa model answers with citations; the rag model
	// only retrieves.
	ModelQA  = "inkeep-qa-expert"
	ModelRAG = "inkeep-rag"

	// DefaultMaxSources caps the sources returned per answer.
	DefaultMaxSources = 5

	defaultCacheSize = 1024
	requestTimeout   = 30 * time.Second
)

// Source is a documentation link cited by an answer.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Answer is a docs-chat response.
type Answer struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
	Model   string   `json:"model"`
	Cached  bool     `json:"cached"`
}

// Client talks to the Inkeep chat API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *lru.Cache[string, *Answer]
	retry      RetryConfig
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithRetryConfig overrides retry behavior.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates an Inkeep client.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	cache, err := lru.New[string, *Answer](defaultCacheSize)
	if err != nil {
		return nil, err
	}

	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		cache: cache,
		retry: DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Ask answers a question over the docs, with citations.
func (c *Client) Ask(ctx context.Context, question string, maxSources int) (*Answer, error) {
	return c.chat(ctx, ModelQA, question, maxSources)
}

// Search is the retrieval-only variant: it returns sources without a
// synthesized answer.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Source, error) {
	answer, err := c.chat(ctx, ModelRAG, query, limit)
	if err != nil {
		return nil, err
	}
	return answer.Sources, nil
}

func (c *Client) chat(ctx context.Context, model, question string, maxSources int) (*Answer, error) {
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if maxSources <= 0 {
		maxSources = DefaultMaxSources
	}

	key := cacheKey(model, question)
	if answer, ok := c.cache.Get(key); ok {
		cached := *answer
		cached.Cached = true
		return capSources(&cached, maxSources), nil
	}

	answer, err := retryWithBackoff(ctx, c.retry, func() (*Answer, error) {
		return c.callAPI(ctx, model, question)
	})
	if err != nil {
		return nil, err
	}

	// The cache holds the full answer; the cap is per-call.
	c.cache.Add(key, answer)

	result := *answer
	return capSources(&result, maxSources), nil
}

// capSources truncates the answer's sources in place to at most n.
func capSources(a *Answer, n int) *Answer {
	if len(a.Sources) > n {
		a.Sources = a.Sources[:n]
	}
	return a
}

// chatRequest is the OpenAI-compatible request body Inkeep accepts.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse carries the answer plus Inkeep's links extension.
type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string   `json:"content"`
			Links   []Source `json:"links"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) callAPI(ctx context.Context, model, question string) (*Answer, error) {
	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "user", Content: question},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &apiError{status: resp.StatusCode, body: string(bodyBytes)}
	}

	var apiResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrAPIFailed)
	}

	msg := apiResp.Choices[0].Message
	return &Answer{
		Text:    msg.Content,
		Sources: msg.Links,
		Model:   apiResp.Model,
	}, nil
}

// apiError is an HTTP-level failure; its status decides retryability.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.status, e.body)
}

// cacheKey hashes model and question so cached answers never collide
// across models.
func cacheKey(model, question string) string {
	h := sha256.Sum256([]byte(model + "\x00" + question))
	return hex.EncodeToString(h[:])
}

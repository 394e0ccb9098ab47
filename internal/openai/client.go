package openai

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/sashabaranov/go-openai"

	"github.com/aurelia-labs/docq/internal/domain"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002
	DefaultEmbeddingDimensions = 1536
	// DefaultChatModel is the OpenAI model used for answer synthesis
	DefaultChatModel = openai.GPT4oMini
	// DefaultTimeout bounds every provider request; exceeding it is a normal,
	// reportable failure, not a hang.
	DefaultTimeout = 60 * time.Second
	// DefaultMaxAttempts is the total number of tries for transient failures
	DefaultMaxAttempts = 3
)

// ErrNoAPIKey is returned when the OpenAI API key is not set
var ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")

// EmbeddingAPI is the embedding surface of the provider, kept narrow for
// testing.
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatAPI is the completion surface of the provider.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, prompt string) (string, error)
}

// Config holds explicit provider configuration. No process-wide singletons:
// a Client is constructed from a Config and passed by reference into the
// components that need it.
type Config struct {
	APIKey              string
	BaseURL             string
	EmbeddingModel      openai.EmbeddingModel
	ChatModel           string
	EmbeddingDimensions int
	Timeout             time.Duration
	MaxAttempts         int
}

// Client wraps the OpenAI API with retry, timeout, and dimension checking.
type Client struct {
	embeddings  EmbeddingAPI
	chat        ChatAPI
	dimensions  int
	maxAttempts int
	retryDelay  time.Duration
}

type apiAdapter struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
	chatModel      string
}

func newAPIAdapter(cfg Config) *apiAdapter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &apiAdapter{
		client:         openai.NewClientWithConfig(clientCfg),
		embeddingModel: cfg.EmbeddingModel,
		chatModel:      cfg.ChatModel,
	}
}

// CreateEmbeddings calls the OpenAI API, one vector per input in input order.
func (a *apiAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: a.embeddingModel,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, errors.New("embedding count does not match input count")
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, errors.New("embedding response index out of range")
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// CreateChatCompletion sends one prompt as a single user message.
func (a *apiAdapter) CreateChatCompletion(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// NewClient creates a Client with explicit configuration.
func NewClient(cfg Config) *Client {
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}
	if cfg.EmbeddingDimensions <= 0 {
		cfg.EmbeddingDimensions = DefaultEmbeddingDimensions
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}

	adapter := newAPIAdapter(cfg)
	return &Client{
		embeddings:  adapter,
		chat:        adapter,
		dimensions:  cfg.EmbeddingDimensions,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  500 * time.Millisecond,
	}
}

// NewClientFromEnv creates a Client using the OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(Config{APIKey: apiKey}), nil
}

// Dimensions returns the fixed embedding dimensionality for this deployment.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// GenerateEmbedding generates an embedding for the given text. Empty input is
// rejected before any provider call.
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.GenerateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// GenerateEmbeddings generates one embedding per input, order preserved.
// Transient provider errors are retried with bounded exponential backoff;
// after the attempts are exhausted the failure surfaces as an
// embedding-provider error.
func (c *Client) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, domain.ErrEmptyEmbeddingInput
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, domain.ErrEmptyEmbeddingInput.WithContext("input_index", strconv.Itoa(i))
		}
	}

	var vectors [][]float32
	err := retry.Do(
		func() error {
			var callErr error
			vectors, callErr = c.embeddings.CreateEmbeddings(ctx, texts)
			return callErr
		},
		c.retryOptions(ctx)...,
	)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(
			domain.ErrCodeEmbeddingProvider, "embedding provider request failed", err)
	}

	for i, v := range vectors {
		if len(v) != c.dimensions {
			return nil, domain.ErrDimensionMismatch.
				WithContext("expected", strconv.Itoa(c.dimensions)).
				WithContext("got", strconv.Itoa(len(v))).
				WithContext("input_index", strconv.Itoa(i))
		}
	}
	return vectors, nil
}

// Complete sends a prompt to the chat model and returns the generated text.
// Retry policy matches GenerateEmbeddings; exhausted retries surface as an
// answer-synthesis error.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", domain.NewDomainError(domain.ErrCodeValidation, "prompt cannot be empty")
	}

	var answer string
	err := retry.Do(
		func() error {
			var callErr error
			answer, callErr = c.chat.CreateChatCompletion(ctx, prompt)
			return callErr
		},
		c.retryOptions(ctx)...,
	)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(
			domain.ErrCodeAnswerSynthesis, "language model request failed", err)
	}

	return answer, nil
}

func (c *Client) retryOptions(ctx context.Context) []retry.Option {
	delay := c.retryDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(c.maxAttempts)),
		retry.Delay(delay),
		retry.MaxDelay(8 * time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isTransient),
		retry.LastErrorOnly(true),
	}
}

// isTransient reports whether a provider error is worth retrying: rate
// limits, server-side failures, and network timeouts. Anything else (bad
// request, auth) fails immediately.
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

package openai

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/aurelia-labs/docq/internal/domain"
)

// MockProviderAPI is a mock for the embedding and chat surfaces
type MockProviderAPI struct {
	mock.Mock
}

func (m *MockProviderAPI) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockProviderAPI) CreateChatCompletion(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func newTestClient(api *MockProviderAPI, dimensions, maxAttempts int) *Client {
	return &Client{
		embeddings:  api,
		chat:        api,
		dimensions:  dimensions,
		maxAttempts: maxAttempts,
		retryDelay:  time.Millisecond,
	}
}

func TestClient_GenerateEmbedding_Success(t *testing.T) {
	mockAPI := new(MockProviderAPI)
	client := newTestClient(mockAPI, 3, 1)

	ctx := context.Background()
	text := "This is a test document about vector search."
	expected := []float32{0.1, 0.2, 0.3}

	mockAPI.On("CreateEmbeddings", ctx, []string{text}).Return([][]float32{expected}, nil)

	embedding, err := client.GenerateEmbedding(ctx, text)

	assert.NoError(t, err)
	assert.Equal(t, expected, embedding)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbedding_EmptyText(t *testing.T) {
	mockAPI := new(MockProviderAPI)
	client := newTestClient(mockAPI, 3, 1)

	embedding, err := client.GenerateEmbedding(context.Background(), "   ")

	assert.Error(t, err)
	assert.Nil(t, embedding)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeValidation))
	mockAPI.AssertNotCalled(t, "CreateEmbeddings", mock.Anything, mock.Anything)
}

func TestClient_GenerateEmbeddings_OrderPreserved(t *testing.T) {
	mockAPI := new(MockProviderAPI)
	client := newTestClient(mockAPI, 2, 1)

	ctx := context.Background()
	texts := []string{"first", "second", "third"}
	vectors := [][]float32{{1, 0}, {0, 1}, {1, 1}}

	mockAPI.On("CreateEmbeddings", ctx, texts).Return(vectors, nil)

	got, err := client.GenerateEmbeddings(ctx, texts)

	assert.NoError(t, err)
	assert.Equal(t, vectors, got)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbeddings_EmptyBatch(t *testing.T) {
	mockAPI := new(MockProviderAPI)
	client := newTestClient(mockAPI, 2, 1)

	got, err := client.GenerateEmbeddings(context.Background(), nil)

	assert.Nil(t, got)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeValidation))
}

func TestClient_GenerateEmbeddings_DimensionMismatch(t *testing.T) {
	mockAPI := new(MockProviderAPI)
	client := newTestClient(mockAPI, 1536, 1)

	ctx := context.Background()
	texts := []string{"some text"}

	mockAPI.On("CreateEmbeddings", ctx, texts).Return([][]float32{{0.1, 0.2}}, nil)

	got, err := client.GenerateEmbeddings(ctx, texts)

	assert.Nil(t, got)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeDimensionMismatch))
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbeddings_RetriesTransientError(t *testing.T) {
	mockAPI := new(MockProviderAPI)
	client := newTestClient(mockAPI, 2, 3)

	ctx := context.Background()
	texts := []string{"retry me"}
	rateLimited := &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "rate limit"}

	mockAPI.On("CreateEmbeddings", ctx, texts).Return(nil, rateLimited).Twice()
	mockAPI.On("CreateEmbeddings", ctx, texts).Return([][]float32{{0.5, 0.5}}, nil).Once()

	got, err := client.GenerateEmbeddings(ctx, texts)

	assert.NoError(t, err)
	assert.Equal(t, [][]float32{{0.5, 0.5}}, got)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbeddings_ExhaustedRetries(t *testing.T) {
	mockAPI := new(MockProviderAPI)
	client := newTestClient(mockAPI, 2, 3)

	ctx := context.Background()
	texts := []string{"always failing"}
	serverErr := &openai.APIError{HTTPStatusCode: http.StatusInternalServerError, Message: "boom"}

	mockAPI.On("CreateEmbeddings", ctx, texts).Return(nil, serverErr).Times(3)

	got, err := client.GenerateEmbeddings(ctx, texts)

	assert.Nil(t, got)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeEmbeddingProvider))
	var apiErr *openai.APIError
	assert.True(t, errors.As(err, &apiErr))
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbeddings_NoRetryOnAuthError(t *testing.T) {
	mockAPI := new(MockProviderAPI)
	client := newTestClient(mockAPI, 2, 3)

	ctx := context.Background()
	texts := []string{"bad key"}
	authErr := &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "invalid api key"}

	mockAPI.On("CreateEmbeddings", ctx, texts).Return(nil, authErr).Once()

	got, err := client.GenerateEmbeddings(ctx, texts)

	assert.Nil(t, got)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeEmbeddingProvider))
	mockAPI.AssertExpectations(t)
}

func TestClient_Complete_Success(t *testing.T) {
	mockAPI := new(MockProviderAPI)
	client := newTestClient(mockAPI, 2, 1)

	ctx := context.Background()
	prompt := "Answer the question using the context below."

	mockAPI.On("CreateChatCompletion", ctx, prompt).Return("The answer is 42.", nil)

	answer, err := client.Complete(ctx, prompt)

	assert.NoError(t, err)
	assert.Equal(t, "The answer is 42.", answer)
	mockAPI.AssertExpectations(t)
}

func TestClient_Complete_EmptyPrompt(t *testing.T) {
	mockAPI := new(MockProviderAPI)
	client := newTestClient(mockAPI, 2, 1)

	answer, err := client.Complete(context.Background(), "")

	assert.Empty(t, answer)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeValidation))
}

func TestClient_Complete_ProviderFailure(t *testing.T) {
	mockAPI := new(MockProviderAPI)
	client := newTestClient(mockAPI, 2, 1)

	ctx := context.Background()
	prompt := "Summarize this."

	mockAPI.On("CreateChatCompletion", ctx, prompt).Return("", errors.New("connection reset"))

	answer, err := client.Complete(ctx, prompt)

	assert.Empty(t, answer)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeAnswerSynthesis))
	mockAPI.AssertExpectations(t)
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{APIKey: "test-api-key"})

	assert.NotNil(t, client)
	assert.NotNil(t, client.embeddings)
	assert.NotNil(t, client.chat)
	assert.Equal(t, DefaultEmbeddingDimensions, client.Dimensions())
	assert.Equal(t, DefaultMaxAttempts, client.maxAttempts)
}

func TestNewClientFromEnv_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	client, err := NewClientFromEnv()

	assert.Nil(t, client)
	assert.Equal(t, ErrNoAPIKey, err)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}))
	assert.True(t, isTransient(&openai.APIError{HTTPStatusCode: http.StatusBadGateway}))
	assert.False(t, isTransient(&openai.APIError{HTTPStatusCode: http.StatusBadRequest}))
	assert.False(t, isTransient(errors.New("some other error")))
}

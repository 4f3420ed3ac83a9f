package source

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/funding-cli/internal/model"
	"github.com/sells-group/funding-cli/pkg/anthropic"
	"github.com/sells-group/funding-cli/pkg/perplexity"
	"github.com/sells-group/funding-cli/pkg/secapi"
)

// --- SEC API Mock ---

type mockSECClient struct {
	mock.Mock
}

func (m *mockSECClient) SearchFormD(ctx context.Context, req secapi.SearchRequest) (*secapi.SearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secapi.SearchResponse), args.Error(1)
}

// --- Perplexity Mock ---

type mockPerplexityClient struct {
	mock.Mock
}

func (m *mockPerplexityClient) ChatCompletion(ctx context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*perplexity.ChatCompletionResponse), args.Error(1)
}

// --- Anthropic Mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// --- Repairer Mock ---

type mockRepairer struct {
	mock.Mock
}

func (m *mockRepairer) Repair(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

// --- Source Stub ---

type stubSource struct {
	name      string
	companies []model.Company
	err       error
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Fetch(context.Context) ([]model.Company, error) {
	return s.companies, s.err
}

func answer(content string) *perplexity.ChatCompletionResponse {
	return &perplexity.ChatCompletionResponse{
		Choices: []perplexity.Choice{
			{Message: perplexity.Message{Role: "assistant", Content: content}},
		},
	}
}

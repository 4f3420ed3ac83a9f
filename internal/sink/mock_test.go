package sink

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/mock"
)

type mockClayClient struct {
	mock.Mock
}

func (m *mockClayClient) Send(ctx context.Context, body any) error {
	args := m.Called(ctx, body)
	return args.Error(0)
}

type mockNotionClient struct {
	mock.Mock
}

func (m *mockNotionClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

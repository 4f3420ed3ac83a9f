package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/funding-cli/internal/model"
)

// --- Source stub ---

type stubSource struct {
	name      string
	companies []model.Company
	err       error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(context.Context) ([]model.Company, error) {
	return s.companies, s.err
}

// --- Website finder mock ---

type mockFinder struct {
	mock.Mock
}

func (m *mockFinder) FindWebsite(ctx context.Context, c model.Company) (string, error) {
	args := m.Called(ctx, c.Name)
	return args.String(0), args.Error(1)
}

// --- Sink mock ---

type mockSink struct {
	mock.Mock
	name string
}

func (m *mockSink) Name() string { return m.name }

func (m *mockSink) Deliver(ctx context.Context, companies []model.Company) (model.DeliveryResult, error) {
	args := m.Called(ctx, companies)
	return args.Get(0).(model.DeliveryResult), args.Error(1)
}

// --- Exporter mock ---

type mockExporter struct {
	mock.Mock
}

func (m *mockExporter) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockExporter) Export(ctx context.Context, runID string, companies []model.Company) (int, error) {
	args := m.Called(ctx, runID, companies)
	return args.Int(0), args.Error(1)
}

func (m *mockExporter) RecordRun(ctx context.Context, result *model.RunResult) error {
	return m.Called(ctx, result).Error(0)
}

func (m *mockExporter) Close() error {
	return m.Called().Error(0)
}

package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/funding-cli/internal/config"
	"github.com/sells-group/funding-cli/internal/model"
	"github.com/sells-group/funding-cli/internal/resilience"
)

var fastRetry = resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

func healthyRun() *model.RunResult {
	return &model.RunResult{
		RunID:         "run-1",
		SourceCounts:  map[string]int{model.SourceSECFormD: 40, "Funding News": 20},
		Stats:         model.DedupStats{OriginalCount: 60, DeduplicatedCount: 52},
		Deliveries:    []model.DeliveryResult{{Sink: "clay", Successful: 50, Failed: 2}},
		EstimatedCost: 0.12,
	}
}

func TestAlerter_Evaluate_NoAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		FailureRateThreshold: 0.10,
		CostThresholdUSD:     5.0,
	}, fastRetry)

	assert.Empty(t, a.Evaluate(healthyRun()))
}

func TestAlerter_Evaluate_SourceFailure(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.10}, fastRetry)

	r := healthyRun()
	r.SourceErrors = map[string]string{
		model.SourceSECFormD: "secapi: unexpected status 503",
		"Funding News":       "source: every news outlet failed",
	}

	alerts := a.Evaluate(r)
	require.Len(t, alerts, 2)
	assert.Equal(t, AlertSourceFailure, alerts[0].Type)
	assert.Equal(t, "run-1", alerts[0].RunID)
	assert.Contains(t, alerts[0].Message, "Funding News")
	assert.Contains(t, alerts[1].Message, "SEC Form D failed: secapi: unexpected status 503")
	assert.Equal(t, 40, alerts[1].Details["companies"])
}

func TestAlerter_Evaluate_NoCompanies(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.10}, fastRetry)

	alerts := a.Evaluate(&model.RunResult{RunID: "run-2"})
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertNoCompanies, alerts[0].Type)
	assert.Equal(t, "high", alerts[0].Severity)
}

func TestAlerter_Evaluate_DeliveryFailureRate(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.10}, fastRetry)

	r := healthyRun()
	r.Deliveries = []model.DeliveryResult{
		{Sink: "clay", Successful: 30, Failed: 10},
		{Sink: "notion", Successful: 38, Failed: 2},
	}

	alerts := a.Evaluate(r)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertDeliveryFailureRate, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "15.0%")
	assert.Equal(t, 12, alerts[0].Details["failed"])
}

func TestAlerter_Evaluate_MinimumDeliveriesRequired(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.10}, fastRetry)

	r := healthyRun()
	r.Deliveries = []model.DeliveryResult{{Sink: "clay", Successful: 1, Failed: 3}}

	assert.Empty(t, a.Evaluate(r))
}

func TestAlerter_Evaluate_CostOverrun(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		FailureRateThreshold: 0.10,
		CostThresholdUSD:     0.10,
	}, fastRetry)

	r := healthyRun()
	r.EstimatedCost = 2.5

	alerts := a.Evaluate(r)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertCostOverrun, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "$2.50")
}

func TestAlerter_Evaluate_ZeroCostThreshold(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		FailureRateThreshold: 0.10,
		CostThresholdUSD:     0, // disabled
	}, fastRetry)

	r := healthyRun()
	r.EstimatedCost = 999
	assert.Empty(t, a.Evaluate(r))
}

func TestAlerter_SendAlerts_Webhook(t *testing.T) {
	var received atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var alert Alert
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&alert))
		assert.NotEmpty(t, alert.Type)
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: ts.URL}, fastRetry)

	alerts := []Alert{
		{Type: AlertSourceFailure, Severity: "medium", Message: "test alert 1"},
		{Type: AlertNoCompanies, Severity: "high", Message: "test alert 2"},
	}

	sent := a.SendAlerts(context.Background(), alerts)
	assert.Equal(t, 2, sent)
	assert.Equal(t, int32(2), received.Load())
}

func TestAlerter_SendAlerts_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: ts.URL}, fastRetry)

	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertCostOverrun, Message: "test"}})
	assert.Equal(t, 1, sent)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAlerter_SendAlerts_EmptyURL(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{WebhookURL: ""}, fastRetry)

	sent := a.SendAlerts(context.Background(), []Alert{
		{Type: AlertNoCompanies, Message: "test"},
	})
	assert.Equal(t, 0, sent)
}

func TestAlerter_SendAlerts_EmptyAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{WebhookURL: "http://example.com"}, fastRetry)

	sent := a.SendAlerts(context.Background(), nil)
	assert.Equal(t, 0, sent)
}

func TestAlerter_SendAlerts_WebhookError(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: ts.URL}, fastRetry)

	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertNoCompanies, Message: "test"}})
	assert.Equal(t, 0, sent)
	assert.Equal(t, int32(1), calls.Load(), "4xx is not retried")
}

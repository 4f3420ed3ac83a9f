// Package monitoring turns a finished run into alerts and posts them to a
// webhook.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/funding-cli/internal/config"
	"github.com/sells-group/funding-cli/internal/model"
	"github.com/sells-group/funding-cli/internal/resilience"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertSourceFailure       AlertType = "source_failure"
	AlertNoCompanies         AlertType = "no_companies"
	AlertDeliveryFailureRate AlertType = "delivery_failure_rate"
	AlertCostOverrun         AlertType = "cost_overrun"
)

// minDeliveries is the number of delivered records below which the
// failure rate is not evaluated.
const minDeliveries = 5

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	RunID     string         `json:"run_id"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a run result against configured thresholds and sends
// alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	retry  resilience.RetryConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig, retry resilience.RetryConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		retry:  retry,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks a finished run and returns any alerts.
func (a *Alerter) Evaluate(r *model.RunResult) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	failedSources := make([]string, 0, len(r.SourceErrors))
	for src := range r.SourceErrors {
		failedSources = append(failedSources, src)
	}
	sort.Strings(failedSources)
	for _, src := range failedSources {
		alerts = append(alerts, Alert{
			Type:     AlertSourceFailure,
			Severity: "medium",
			RunID:    r.RunID,
			Message:  fmt.Sprintf("Source %s failed: %s", src, r.SourceErrors[src]),
			Details: map[string]any{
				"source":    src,
				"companies": r.SourceCounts[src],
			},
			Timestamp: now,
		})
	}

	if r.Stats.OriginalCount == 0 {
		alerts = append(alerts, Alert{
			Type:      AlertNoCompanies,
			Severity:  "high",
			RunID:     r.RunID,
			Message:   "No companies found from any source",
			Details:   map[string]any{"failed_sources": len(failedSources)},
			Timestamp: now,
		})
	}

	successful, failed := r.Delivered()
	if total := successful + failed; total >= minDeliveries {
		rate := float64(failed) / float64(total)
		if rate > a.cfg.FailureRateThreshold {
			alerts = append(alerts, Alert{
				Type:     AlertDeliveryFailureRate,
				Severity: "high",
				RunID:    r.RunID,
				Message: fmt.Sprintf(
					"Delivery failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d records)",
					rate*100, a.cfg.FailureRateThreshold*100, failed, total,
				),
				Details: map[string]any{
					"failure_rate": rate,
					"threshold":    a.cfg.FailureRateThreshold,
					"failed":       failed,
					"total":        total,
				},
				Timestamp: now,
			})
		}
	}

	if a.cfg.CostThresholdUSD > 0 && r.EstimatedCost > a.cfg.CostThresholdUSD {
		alerts = append(alerts, Alert{
			Type:     AlertCostOverrun,
			Severity: "high",
			RunID:    r.RunID,
			Message: fmt.Sprintf(
				"Run cost $%.2f exceeds threshold $%.2f",
				r.EstimatedCost, a.cfg.CostThresholdUSD,
			),
			Details: map[string]any{
				"cost_usd":      r.EstimatedCost,
				"threshold_usd": a.cfg.CostThresholdUSD,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	retry := a.retry
	retry.OnRetry = resilience.RetryLogger("monitoring", "send alert")

	sent := 0
	for _, alert := range alerts {
		err := resilience.Do(ctx, retry, func(ctx context.Context) error {
			return a.sendWebhook(ctx, alert)
		})
		if err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return resilience.StatusError("monitoring", resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/funding-cli/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		SEC:        config.SECConfig{Key: "sec-key", BaseURL: "http://sec.invalid", PageSize: 50, LookbackDays: 30},
		Perplexity: config.PerplexityConfig{Key: "pplx-key", BaseURL: "http://pplx.invalid", Model: "sonar", MaxTokens: 4000},
		Clay:       config.ClayConfig{WebhookURL: "http://clay.invalid/hook", BatchSize: 1, TimeoutSecs: 5},
		Dedup:      config.DedupConfig{Threshold: 85},
		Enrich:     config.EnrichConfig{MaxLookups: 50},
		Retry:      config.RetryConfig{MaxAttempts: 1},
		Circuit:    config.CircuitConfig{FailureThreshold: 5, ResetTimeoutSecs: 60},
		Store:      config.StoreConfig{Driver: "sqlite"},
		Server:     config.ServerConfig{Port: 8080},
		Log:        config.LogConfig{Level: "info", Format: "json"},
	}
}

func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestRunFlags_Requirements(t *testing.T) {
	c := testConfig()

	assert.Equal(t,
		[]config.Requirement{config.NeedSEC, config.NeedNews, config.NeedEnrich, config.NeedClay},
		runFlags{}.requirements(c),
	)
	assert.Empty(t, runFlags{SkipSEC: true, SkipNews: true, SkipEnrichment: true, DryRun: true}.requirements(c))
	assert.Equal(t,
		[]config.Requirement{config.NeedClay},
		runFlags{SkipSEC: true, SkipNews: true, SkipEnrichment: true, DryRun: true, TestWebhook: true}.requirements(c),
	)
	assert.Equal(t,
		[]config.Requirement{config.NeedClay, config.NeedNotion, config.NeedStore},
		runFlags{SkipSEC: true, SkipNews: true, SkipEnrichment: true, Notion: true, Export: "sqlite"}.requirements(c),
	)
}

func TestRunFlags_RequirementsRepair(t *testing.T) {
	c := testConfig()
	c.Anthropic.JSONRepair = true

	needs := runFlags{SkipSEC: true, SkipEnrichment: true, DryRun: true}.requirements(c)
	assert.Equal(t, []config.Requirement{config.NeedNews, config.NeedRepair}, needs)
}

func TestRunFlags_Options(t *testing.T) {
	opts := runFlags{SkipSEC: true, DryRun: true, XLSX: "out.xlsx"}.options()
	assert.True(t, opts.SkipSEC)
	assert.False(t, opts.SkipNews)
	assert.True(t, opts.DryRun)
	assert.Equal(t, "out.xlsx", opts.XLSXPath)
}

func TestInitPipeline_MissingCredentials(t *testing.T) {
	c := testConfig()
	c.SEC.Key = ""
	c.Clay.WebhookURL = ""
	withConfig(t, c)

	_, err := initPipeline(context.Background(), runFlags{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sec.key is required")
	assert.Contains(t, err.Error(), "clay.webhook_url is required")
}

func TestInitPipeline_WithExport(t *testing.T) {
	c := testConfig()
	c.Store.DatabaseURL = filepath.Join(t.TempDir(), "funding.db")
	withConfig(t, c)

	env, err := initPipeline(context.Background(), runFlags{Export: "sqlite", DryRun: true})
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Pipeline)
	assert.NotNil(t, env.Exporter)
	assert.NotNil(t, env.Clay)
}

func TestInitPipeline_BadExportDriver(t *testing.T) {
	withConfig(t, testConfig())

	_, err := initPipeline(context.Background(), runFlags{Export: "mysql", DryRun: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestInitPipeline_WithPlacesFallback(t *testing.T) {
	c := testConfig()
	c.Google.Key = "places-key"
	withConfig(t, c)

	env, err := initPipeline(context.Background(), runFlags{DryRun: true})
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Pipeline)
	assert.Nil(t, env.Exporter)
}

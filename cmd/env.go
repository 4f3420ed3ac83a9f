package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/funding-cli/internal/config"
	"github.com/sells-group/funding-cli/internal/cost"
	"github.com/sells-group/funding-cli/internal/dedup"
	"github.com/sells-group/funding-cli/internal/enrich"
	"github.com/sells-group/funding-cli/internal/pipeline"
	"github.com/sells-group/funding-cli/internal/resilience"
	"github.com/sells-group/funding-cli/internal/sink"
	"github.com/sells-group/funding-cli/internal/source"
	"github.com/sells-group/funding-cli/internal/store"
	anthropicpkg "github.com/sells-group/funding-cli/pkg/anthropic"
	"github.com/sells-group/funding-cli/pkg/clay"
	"github.com/sells-group/funding-cli/pkg/google"
	"github.com/sells-group/funding-cli/pkg/notion"
	"github.com/sells-group/funding-cli/pkg/perplexity"
	"github.com/sells-group/funding-cli/pkg/secapi"
)

// runFlags are the run command's stage switches.
type runFlags struct {
	SkipSEC        bool
	SkipNews       bool
	SkipEnrichment bool
	MaxLookups     int
	DryRun         bool
	TestWebhook    bool
	Notion         bool
	Export         string
	XLSX           string
	LookbackDays   int
}

// options maps the flags onto pipeline options.
func (f runFlags) options() pipeline.Options {
	return pipeline.Options{
		SkipSEC:        f.SkipSEC,
		SkipNews:       f.SkipNews,
		SkipEnrichment: f.SkipEnrichment,
		DryRun:         f.DryRun,
		XLSXPath:       f.XLSX,
	}
}

// requirements lists the config checks the enabled stages need.
func (f runFlags) requirements(c *config.Config) []config.Requirement {
	var needs []config.Requirement
	if !f.SkipSEC {
		needs = append(needs, config.NeedSEC)
	}
	if !f.SkipNews {
		needs = append(needs, config.NeedNews)
		if c.Anthropic.JSONRepair {
			needs = append(needs, config.NeedRepair)
		}
	}
	if !f.SkipEnrichment {
		needs = append(needs, config.NeedEnrich)
	}
	if !f.DryRun || f.TestWebhook {
		needs = append(needs, config.NeedClay)
	}
	if f.Notion && !f.DryRun {
		needs = append(needs, config.NeedNotion)
	}
	if f.Export != "" {
		needs = append(needs, config.NeedStore)
	}
	return needs
}

// pipelineEnv holds the clients and pipeline built for a run.
type pipelineEnv struct {
	Pipeline *pipeline.Pipeline
	Clay     clay.Client
	Exporter store.Exporter // may be nil
}

// Close releases resources held by the environment.
func (pe *pipelineEnv) Close() {
	if pe.Exporter != nil {
		_ = pe.Exporter.Close()
	}
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// initPipeline validates the config for the enabled stages and wires every
// client into a Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context, f runFlags) (*pipelineEnv, error) {
	if f.Export != "" {
		cfg.Store.Driver = f.Export
	}
	if err := cfg.Validate(f.requirements(cfg)...); err != nil {
		return nil, err
	}

	retry := resilience.FromConfig(cfg.Retry)
	tracker := cost.NewTracker()
	env := &pipelineEnv{}

	deps := pipeline.Deps{
		Engine:  dedup.New(dedup.Options{Threshold: cfg.Dedup.Threshold}),
		Tracker: tracker,
		Costs:   cost.NewCalculator(cost.RatesFromConfig(cfg.Pricing)),
	}

	lookback := cfg.SEC.LookbackDays
	if f.LookbackDays > 0 {
		lookback = f.LookbackDays
	}
	deps.SEC = source.NewSECSource(
		secapi.NewClient(cfg.SEC.Key, secapi.WithBaseURL(cfg.SEC.BaseURL)),
		source.SECOptions{
			PageSize:     cfg.SEC.PageSize,
			LookbackDays: lookback,
			Delay:        millis(cfg.SEC.DelayMs),
			Retry:        retry,
		},
	)

	pplx := perplexity.NewClient(cfg.Perplexity.Key,
		perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
		perplexity.WithModel(cfg.Perplexity.Model),
	)

	var repairer source.Repairer
	if cfg.Anthropic.JSONRepair {
		repairer = source.NewClaudeRepairer(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model, tracker)
	}
	deps.News = source.NewNewsSource(pplx, source.NewsOptions{
		Temperature: cfg.Perplexity.Temperature,
		MaxTokens:   cfg.Perplexity.MaxTokens,
		Delay:       millis(cfg.Perplexity.DelayMs),
		Retry:       retry,
		Repairer:    repairer,
		Tracker:     tracker,
	})

	maxLookups := cfg.Enrich.MaxLookups
	if f.MaxLookups > 0 {
		maxLookups = f.MaxLookups
	}
	breakers := resilience.NewBreakers(resilience.BreakerFromConfig(cfg.Circuit))
	var finder enrich.WebsiteFinder = enrich.NewPerplexityFinder(pplx, retry, tracker)
	if cfg.Google.Key != "" {
		places := enrich.NewPlacesFinder(google.NewClient(cfg.Google.Key), retry, cfg.Google.MatchScore)
		finder = enrich.ChainFinder{
			enrich.Guard(finder, breakers.Get("perplexity")),
			enrich.Guard(places, breakers.Get("google")),
		}
	}
	deps.Enricher = enrich.New(finder, enrich.Options{
		MaxLookups: maxLookups,
		Delay:      millis(cfg.Perplexity.DelayMs),
		Breaker:    breakers.Get("enrich"),
	})

	if cfg.Clay.WebhookURL != "" {
		env.Clay = clay.NewClient(cfg.Clay.WebhookURL, clay.WithTimeout(time.Duration(cfg.Clay.TimeoutSecs)*time.Second))
		deps.Sinks = append(deps.Sinks, sink.NewClaySink(env.Clay, sink.ClayOptions{
			BatchSize: cfg.Clay.BatchSize,
			Delay:     millis(cfg.Clay.DelayMs),
			Retry:     retry,
		}))
	}
	if f.Notion {
		deps.Sinks = append(deps.Sinks, sink.NewNotionSink(notion.NewClient(cfg.Notion.Token), cfg.Notion.DatabaseID))
	}

	if f.Export != "" {
		ex, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return nil, eris.Wrap(err, "open export store")
		}
		env.Exporter = ex
		deps.Exporter = ex
	}

	env.Pipeline = pipeline.New(deps)
	zap.L().Debug("pipeline initialized",
		zap.Int("sinks", len(deps.Sinks)),
		zap.Bool("export", env.Exporter != nil),
		zap.Int("lookback_days", lookback),
	)
	return env, nil
}

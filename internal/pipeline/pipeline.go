// Package pipeline runs one funding aggregation pass: collect, deduplicate,
// enrich, deliver and export.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/funding-cli/internal/cost"
	"github.com/sells-group/funding-cli/internal/dedup"
	"github.com/sells-group/funding-cli/internal/enrich"
	"github.com/sells-group/funding-cli/internal/model"
	"github.com/sells-group/funding-cli/internal/sink"
	"github.com/sells-group/funding-cli/internal/source"
	"github.com/sells-group/funding-cli/internal/store"
)

// Deps are the collaborators a Pipeline drives. Nil members disable their
// stage.
type Deps struct {
	SEC      source.Source
	News     source.Source
	Extra    []source.Source
	Engine   *dedup.Engine
	Enricher *enrich.Enricher
	Sinks    []sink.Sink
	Exporter store.Exporter
	Tracker  *cost.Tracker
	Costs    *cost.Calculator
}

// Options select the stages of a single run.
type Options struct {
	SkipSEC        bool
	SkipNews       bool
	SkipEnrichment bool
	// DryRun replaces every sink with a sink.DryRunSink.
	DryRun bool
	// XLSXPath, when set, writes the final records to a workbook.
	XLSXPath string
}

// Pipeline orchestrates a run. It keeps no state between runs.
type Pipeline struct {
	deps  Deps
	now   func() time.Time
	newID func() string
}

// New creates a Pipeline.
func New(deps Deps) *Pipeline {
	if deps.Engine == nil {
		deps.Engine = dedup.New(dedup.Options{})
	}
	if deps.Tracker == nil {
		deps.Tracker = cost.NewTracker()
	}
	if deps.Costs == nil {
		deps.Costs = cost.NewCalculator(cost.DefaultRates())
	}
	return &Pipeline{
		deps:  deps,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Run executes one pass. A run that finds no companies ends early with an
// empty, complete result. Source and sink failures are recorded in the
// result's phases; only export failures and cancellation return an error.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*model.RunResult, error) {
	result := &model.RunResult{
		RunID:     p.newID(),
		StartedAt: p.now(),
		Status:    model.RunStatusCollecting,
	}
	log := zap.L().With(zap.String("run_id", result.RunID))
	log.Info("pipeline: starting run",
		zap.Bool("skip_sec", opts.SkipSEC),
		zap.Bool("skip_news", opts.SkipNews),
		zap.Bool("skip_enrichment", opts.SkipEnrichment),
		zap.Bool("dry_run", opts.DryRun),
	)

	trackPhase := func(name string, fn func() (map[string]any, error)) error {
		start := time.Now()
		metadata, err := fn()
		phase := model.PhaseResult{
			Name:     name,
			Status:   model.PhaseStatusComplete,
			Duration: time.Since(start).Milliseconds(),
			Metadata: metadata,
		}
		if err != nil {
			phase.Status = model.PhaseStatusFailed
			phase.Error = err.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", phase.Duration),
				zap.Error(err),
			)
		} else {
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", phase.Duration),
			)
		}
		result.Phases = append(result.Phases, phase)
		return err
	}
	skipPhase := func(name string) {
		result.Phases = append(result.Phases, model.PhaseResult{Name: name, Status: model.PhaseStatusSkipped})
	}
	finish := func(status model.RunStatus) {
		result.Status = status
		result.FinishedAt = p.now()
		result.EstimatedCost = p.deps.Costs.Estimate(p.deps.Tracker.Usage())
	}

	// ===== Phase 1: Collect =====
	raw := p.collect(ctx, opts, result, trackPhase)
	if err := ctx.Err(); err != nil {
		finish(model.RunStatusFailed)
		return result, eris.Wrap(err, "pipeline: collect")
	}
	if len(raw) == 0 {
		log.Warn("pipeline: no companies found from any source")
		result.Stats = dedup.Stats(nil, nil)
		result.Companies = []model.Company{}
		finish(model.RunStatusComplete)
		return result, nil
	}

	// ===== Phase 2: Deduplicate =====
	result.Status = model.RunStatusDeduplicating
	var companies []model.Company
	_ = trackPhase("2_dedup", func() (map[string]any, error) {
		companies = p.deps.Engine.Deduplicate(raw)
		result.Stats = dedup.Stats(raw, companies)
		return map[string]any{
			"input":   len(raw),
			"output":  len(companies),
			"removed": result.Stats.DuplicatesRemoved,
			"merged":  result.Stats.CompaniesWithMergedSources,
		}, nil
	})

	// ===== Phase 3: Enrich =====
	if opts.SkipEnrichment || p.deps.Enricher == nil {
		skipPhase("3_enrich")
	} else {
		result.Status = model.RunStatusEnriching
		_ = trackPhase("3_enrich", func() (map[string]any, error) {
			enriched, er := p.deps.Enricher.Enrich(ctx, companies)
			companies = enriched
			result.Lookups = er.Lookups
			result.Enriched = er.Enriched
			return map[string]any{
				"lookups":   er.Lookups,
				"enriched":  er.Enriched,
				"failed":    er.Failed,
				"remaining": er.Remaining,
				"stopped":   er.Stopped,
			}, nil
		})
	}
	for _, c := range companies {
		if c.HasWebsite() {
			result.WithWebsite++
		}
	}
	result.Companies = companies

	// ===== Phase 4: Deliver =====
	result.Status = model.RunStatusDelivering
	sinks := p.deps.Sinks
	if opts.DryRun {
		sinks = []sink.Sink{sink.DryRunSink{}}
	}
	if len(sinks) == 0 {
		skipPhase("4_deliver")
	}
	for _, s := range sinks {
		_ = trackPhase("4_deliver_"+s.Name(), func() (map[string]any, error) {
			dr, err := s.Deliver(ctx, companies)
			if dr.Sink == "" {
				dr.Sink = s.Name()
			}
			result.Deliveries = append(result.Deliveries, dr)
			return map[string]any{"successful": dr.Successful, "failed": dr.Failed}, err
		})
	}

	// ===== Phase 5: Export =====
	if err := p.export(ctx, opts, result, companies, trackPhase); err != nil {
		finish(model.RunStatusFailed)
		return result, err
	}

	finish(model.RunStatusComplete)
	if p.deps.Exporter != nil {
		if err := p.deps.Exporter.RecordRun(ctx, result); err != nil {
			log.Warn("pipeline: record run failed", zap.Error(err))
		}
	}

	successful, failed := result.Delivered()
	log.Info("pipeline: run complete",
		zap.Int("companies", len(companies)),
		zap.Int("delivered", successful),
		zap.Int("delivery_failures", failed),
		zap.Float64("estimated_cost_usd", result.EstimatedCost),
		zap.Duration("duration", result.Duration()),
	)
	return result, nil
}

func (p *Pipeline) collect(
	ctx context.Context,
	opts Options,
	result *model.RunResult,
	trackPhase func(string, func() (map[string]any, error)) error,
) []model.Company {
	var sources []source.Source
	if p.deps.SEC != nil && !opts.SkipSEC {
		sources = append(sources, p.deps.SEC)
	}
	if p.deps.News != nil && !opts.SkipNews {
		sources = append(sources, p.deps.News)
	}
	sources = append(sources, p.deps.Extra...)

	var raw []model.Company
	_ = trackPhase("1_collect", func() (map[string]any, error) {
		all, results := source.Collect(ctx, sources...)
		raw = all
		result.SourceCounts = make(map[string]int, len(results))
		failed := 0
		for _, r := range results {
			result.SourceCounts[r.Source] = len(r.Companies)
			if r.Err != nil {
				failed++
				if result.SourceErrors == nil {
					result.SourceErrors = make(map[string]string)
				}
				result.SourceErrors[r.Source] = r.Err.Error()
			}
			switch {
			case p.deps.SEC != nil && r.Source == p.deps.SEC.Name():
				result.FilingCount = len(r.Companies)
			case p.deps.News != nil && r.Source == p.deps.News.Name():
				result.NewsCount = len(r.Companies)
			}
		}
		return map[string]any{
			"sources":        len(sources),
			"failed_sources": failed,
			"companies":      len(raw),
		}, nil
	})
	return raw
}

func (p *Pipeline) export(
	ctx context.Context,
	opts Options,
	result *model.RunResult,
	companies []model.Company,
	trackPhase func(string, func() (map[string]any, error)) error,
) error {
	if p.deps.Exporter == nil && opts.XLSXPath == "" {
		return nil
	}
	result.Status = model.RunStatusExporting

	if p.deps.Exporter != nil {
		err := trackPhase("5_export_db", func() (map[string]any, error) {
			n, err := p.deps.Exporter.Export(ctx, result.RunID, companies)
			result.Exported = n
			return map[string]any{"rows": n}, err
		})
		if err != nil {
			return eris.Wrap(err, "pipeline: export")
		}
	}

	if opts.XLSXPath != "" {
		err := trackPhase("5_export_xlsx", func() (map[string]any, error) {
			return map[string]any{"path": opts.XLSXPath}, store.WriteXLSX(opts.XLSXPath, companies)
		})
		if err != nil {
			return eris.Wrap(err, "pipeline: export xlsx")
		}
	}
	return nil
}

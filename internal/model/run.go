package model

import "time"

// RunStatus represents the current stage of a pipeline run.
type RunStatus string

const (
	RunStatusCollecting    RunStatus = "collecting"
	RunStatusDeduplicating RunStatus = "deduplicating"
	RunStatusEnriching     RunStatus = "enriching"
	RunStatusDelivering    RunStatus = "delivering"
	RunStatusExporting     RunStatus = "exporting"
	RunStatusComplete      RunStatus = "complete"
	RunStatusFailed        RunStatus = "failed"
)

// PhaseStatus represents the outcome of a pipeline phase.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult holds the outcome of a pipeline phase.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   PhaseStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DeliveryResult tallies records handed to a sink.
type DeliveryResult struct {
	Sink       string `json:"sink"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
}

// RunResult is the final outcome of a pipeline run.
type RunResult struct {
	RunID         string            `json:"run_id"`
	Status        RunStatus         `json:"status"`
	StartedAt     time.Time         `json:"started_at"`
	FinishedAt    time.Time         `json:"finished_at"`
	SourceCounts  map[string]int    `json:"source_counts"`
	SourceErrors  map[string]string `json:"source_errors,omitempty"`
	FilingCount   int               `json:"filing_count"`
	NewsCount     int               `json:"news_count"`
	Stats         DedupStats        `json:"stats"`
	WithWebsite   int               `json:"with_website"`
	Enriched      int               `json:"enriched"`
	Lookups       int               `json:"lookups"`
	Deliveries    []DeliveryResult  `json:"deliveries"`
	Exported      int               `json:"exported"`
	EstimatedCost float64           `json:"estimated_cost_usd"`
	Phases        []PhaseResult     `json:"phases"`
	Companies     []Company         `json:"companies"`
}

// Duration returns the wall-clock time of the run.
func (r *RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Delivered sums successful and failed deliveries across sinks.
func (r *RunResult) Delivered() (successful, failed int) {
	for _, d := range r.Deliveries {
		successful += d.Successful
		failed += d.Failed
	}
	return successful, failed
}

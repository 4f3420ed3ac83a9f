package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/funding-cli/internal/dedup"
	"github.com/sells-group/funding-cli/internal/fetcher"
	"github.com/sells-group/funding-cli/internal/model"
	"github.com/sells-group/funding-cli/internal/resilience"
	"github.com/sells-group/funding-cli/internal/source"
	"github.com/sells-group/funding-cli/internal/store"
)

var (
	dedupeInput     string
	dedupeOutput    string
	dedupeThreshold float64
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Deduplicate a record file offline",
	Long:  "Reads company records from a JSON, YAML, CSV or XLSX file (local path or URL), merges duplicates and writes the merged records as JSON, or as XLSX when --output ends in .xlsx.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		threshold := cfg.Dedup.Threshold
		if dedupeThreshold > 0 {
			threshold = dedupeThreshold
		}
		if threshold < 0 || threshold > 100 {
			return eris.Errorf("threshold must be between 0 and 100 (got %g)", threshold)
		}

		d := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Retry: resilience.FromConfig(cfg.Retry)})
		records, err := source.LoadFile(ctx, d, dedupeInput)
		if err != nil {
			return eris.Wrap(err, "dedupe: load input")
		}

		engine := dedup.New(dedup.Options{Threshold: threshold})
		merged := engine.Deduplicate(records)
		stats := dedup.Stats(records, merged)

		zap.L().Info("dedupe complete",
			zap.String("input", dedupeInput),
			zap.Int("original", stats.OriginalCount),
			zap.Int("deduplicated", stats.DeduplicatedCount),
			zap.Int("duplicates_removed", stats.DuplicatesRemoved),
			zap.Int("merged", stats.CompaniesWithMergedSources),
		)
		fmt.Fprintf(cmd.ErrOrStderr(), "%d records -> %d companies (%d duplicates removed, %d merged from multiple sources)\n",
			stats.OriginalCount, stats.DeduplicatedCount, stats.DuplicatesRemoved, stats.CompaniesWithMergedSources)

		return writeCompanies(cmd.OutOrStdout(), dedupeOutput, merged)
	},
}

// writeCompanies writes companies as indented JSON to path, or to w when
// path is empty. A .xlsx path writes a workbook instead.
func writeCompanies(w io.Writer, path string, companies []model.Company) error {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return store.WriteXLSX(path, companies)
	}

	if path == "" {
		return encodeCompanies(w, companies)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "dedupe: create %s", path)
	}
	if err := encodeCompanies(f, companies); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "dedupe: close %s", path)
}

func encodeCompanies(w io.Writer, companies []model.Company) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(companies), "dedupe: write output")
}

func init() {
	dedupeCmd.Flags().StringVar(&dedupeInput, "input", "", "record file path or URL (required)")
	dedupeCmd.Flags().StringVar(&dedupeOutput, "output", "", "output file (default stdout)")
	dedupeCmd.Flags().Float64Var(&dedupeThreshold, "threshold", 0, "name similarity threshold 0-100 (default from config)")
	_ = dedupeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(dedupeCmd)
}

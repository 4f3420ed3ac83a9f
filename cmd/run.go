package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/funding-cli/internal/monitoring"
	"github.com/sells-group/funding-cli/internal/resilience"
	"github.com/sells-group/funding-cli/internal/sink"
)

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect, deduplicate, enrich and deliver funded companies",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, runOpts)
		if err != nil {
			return err
		}
		defer env.Close()

		if runOpts.TestWebhook {
			if err := sink.TestWebhook(ctx, env.Clay); err != nil {
				return err
			}
			zap.L().Info("webhook test record sent")
		}

		result, err := env.Pipeline.Run(ctx, runOpts.options())
		if result != nil {
			alerter := monitoring.NewAlerter(cfg.Monitoring, resilience.FromConfig(cfg.Retry))
			if alerts := alerter.Evaluate(result); len(alerts) > 0 {
				zap.L().Warn("run raised alerts", zap.Int("alerts", len(alerts)))
				alerter.SendAlerts(ctx, alerts)
			}
		}
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		fmt.Fprint(cmd.OutOrStdout(), sink.Summary(result))
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.BoolVar(&runOpts.SkipSEC, "skip-sec", false, "skip SEC Form D filings")
	f.BoolVar(&runOpts.SkipNews, "skip-news", false, "skip funding news searches")
	f.BoolVar(&runOpts.SkipEnrichment, "skip-enrichment", false, "skip website lookups")
	f.IntVar(&runOpts.MaxLookups, "max-website-lookups", 50, "maximum website lookups per run")
	f.BoolVar(&runOpts.DryRun, "dry-run", false, "log a sample instead of delivering")
	f.BoolVar(&runOpts.TestWebhook, "test-webhook", false, "send a test record to the webhook before running")
	f.BoolVar(&runOpts.Notion, "notion", false, "also create a Notion page per company")
	f.StringVar(&runOpts.Export, "export", "", "export records to a database (sqlite or postgres)")
	f.StringVar(&runOpts.XLSX, "xlsx", "", "write records to an .xlsx workbook at this path")
	f.IntVar(&runOpts.LookbackDays, "lookback-days", 0, "SEC filing window in days (default from config)")
	rootCmd.AddCommand(runCmd)
}

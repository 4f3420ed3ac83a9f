package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/funding-cli/internal/config"
	"github.com/sells-group/funding-cli/internal/sink"
	"github.com/sells-group/funding-cli/pkg/clay"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Webhook utilities",
}

var webhookTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test record to the Clay webhook",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(config.NeedClay); err != nil {
			return err
		}
		client := clay.NewClient(cfg.Clay.WebhookURL, clay.WithTimeout(time.Duration(cfg.Clay.TimeoutSecs)*time.Second))
		if err := sink.TestWebhook(cmd.Context(), client); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "webhook test record sent")
		return nil
	},
}

func init() {
	webhookCmd.AddCommand(webhookTestCmd)
	rootCmd.AddCommand(webhookCmd)
}

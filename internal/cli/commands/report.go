package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/drivelog/pkg/config"
	"github.com/ccollicutt/drivelog/pkg/output"
	"github.com/ccollicutt/drivelog/pkg/store"
	"github.com/ccollicutt/drivelog/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// Exit codes.
const (
	ExitOK     = 0
	ExitNoData = 1
	ExitError  = 2
)

// ReportOptions holds the flags shared by commands that produce a report.
type ReportOptions struct {
	Config  string
	Output  string
	Verbose bool
	Quiet   bool

	// DBPath archives the report in a sqlite database. Overrides store.path.
	DBPath string

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

func addReportFlags(cmd *cobra.Command, opts *ReportOptions) {
	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "Configuration file")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json|geojson)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "List every event and run details")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "Archive the report in this sqlite database")

	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnData), "When to fire webhook (on_data|always|never)")
}

func createFormatter(opts *ReportOptions) (output.Formatter, error) {
	return output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
}

// publishReport writes the report, archives it and sends webhooks. Archive
// failures fail the command; webhook failures are only logged.
func publishReport(ctx context.Context, w io.Writer, logger *zap.Logger, cfg *config.Config, opts *ReportOptions, report *output.Report) error {
	formatter, err := createFormatter(opts)
	if err != nil {
		return err
	}
	if err := formatter.Format(ctx, report, w); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if err := archiveReport(ctx, logger, cfg, opts, report); err != nil {
		return err
	}

	sendWebhooks(ctx, logger, cfg, opts, report)

	if !report.HasData() {
		ExitCode = ExitNoData
	}
	return nil
}

func archiveReport(ctx context.Context, logger *zap.Logger, cfg *config.Config, opts *ReportOptions, report *output.Report) error {
	path := cfg.Store.Path
	if opts.DBPath != "" {
		path = opts.DBPath
	}
	if path == "" {
		return nil
	}

	s, err := store.Open(ctx, path, store.WithLogger(logger))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Save(ctx, report); err != nil {
		return fmt.Errorf("archiving report: %w", err)
	}
	return nil
}

// sendWebhooks sends the report to all configured webhooks.
func sendWebhooks(ctx context.Context, logger *zap.Logger, cfg *config.Config, opts *ReportOptions, report *output.Report) {
	webhooks := collectWebhooks(cfg, opts)
	if len(webhooks) == 0 {
		return
	}
	webhook.NewClient(webhook.WithLogger(logger)).Dispatch(ctx, report, webhooks)
}

// collectWebhooks merges config file webhooks with CLI webhook.
func collectWebhooks(cfg *config.Config, opts *ReportOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnData
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}

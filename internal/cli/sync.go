package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/ticketbridge/internal/azuredevops"
	"github.com/randalmurphal/ticketbridge/internal/config"
	"github.com/randalmurphal/ticketbridge/internal/engine"
	"github.com/randalmurphal/ticketbridge/internal/freshservice"
	"github.com/randalmurphal/ticketbridge/internal/mapping"
	"github.com/randalmurphal/ticketbridge/internal/report"
)

// executeRun performs one full sync run: load the mapping set, build the
// components, run the batch, then write and mail the run report. Run-level
// errors are recorded in the report before it goes out.
func executeRun(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reporter := report.NewManager(logger)
	reporter.Start()
	logger.Info("sync run starting", "run_id", reporter.RunID())

	runErr := doSync(ctx, cfg, reporter, logger)
	if runErr != nil {
		reporter.Error("RUN", runErr.Error(), nil)
	}
	reporter.Finish()

	summary := reporter.Summary()
	logger.Info("sync summary",
		"run_id", reporter.RunID(),
		"info", summary.InfoCount, "warnings", summary.WarningCount, "errors", summary.ErrorCount)

	path, err := report.WriteWorkbook(reporter, cfg.Report.Dir)
	if err != nil {
		logger.Error("failed to write report workbook", "error", err)
		return runErr
	}
	logger.Info("report workbook written", "path", path)

	if cfg.MailEnabled() {
		if err := mailReport(ctx, cfg, path, logger); err != nil {
			logger.Error("failed to mail report", "error", err)
		}
	}

	return runErr
}

// doSync is the run body, isolated so every failure funnels through the
// reporter in executeRun.
func doSync(ctx context.Context, cfg *config.Config, reporter *report.Manager, logger *slog.Logger) error {
	mappings, err := mapping.Load(cfg.Mapping.File)
	if err != nil {
		return fmt.Errorf("load mapping set: %w", err)
	}
	logger.Info("mapping set loaded", "file", cfg.Mapping.File)

	source, err := freshservice.NewClient(freshservice.Config{
		Domain:     cfg.Freshservice.Domain,
		APIKey:     cfg.Freshservice.APIKey,
		FetchQuery: mappings.FetchQuery(),
	}, logger)
	if err != nil {
		return fmt.Errorf("build helpdesk client: %w", err)
	}

	target, err := azuredevops.NewClient(azuredevops.Config{
		OrgURL:       cfg.AzureDevOps.OrgURL,
		Project:      cfg.AzureDevOps.Project,
		Username:     cfg.AzureDevOps.Username,
		Token:        cfg.AzureDevOps.Token,
		WorkItemType: cfg.AzureDevOps.WorkItemType,
	}, logger)
	if err != nil {
		return fmt.Errorf("build tracker client: %w", err)
	}

	eng := engine.New(source, target, mappings, reporter, engine.Options{
		RepoFieldKey:        cfg.Fields.Repo,
		RequesterFieldKey:   cfg.Fields.Requester,
		ResponderFieldKey:   cfg.Fields.Responder,
		CorrelationFieldKey: cfg.Fields.Correlation,
		ProductNameKey:      cfg.Fields.ProductName,
		ProductVersionKey:   cfg.Fields.ProductVersion,
	}, logger)

	runner := engine.NewRunner(eng, source, cfg.Sync.PageSize, cfg.Sync.Concurrency, logger)
	_, err = runner.Run(ctx)
	return err
}

func mailReport(ctx context.Context, cfg *config.Config, workbookPath string, logger *slog.Logger) error {
	mailer, err := report.NewMailer(report.MailConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		To:       cfg.SMTP.To,
		CC:       cfg.SMTP.CC,
		AlertTo:  cfg.SMTP.AlertTo,
	}, logger)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Helpdesk sync report (%s)", time.Now().UTC().Format("2006-01-02 15:04 UTC"))
	return mailer.SendReport(ctx, subject, "Attached is the latest sync report.", workbookPath)
}

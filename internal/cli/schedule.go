package cli

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/ticketbridge/internal/config"
	"github.com/randalmurphal/ticketbridge/internal/report"
	"github.com/randalmurphal/ticketbridge/internal/schedule"
)

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run sync passes on a cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := slog.Default()

			var alerter schedule.Alerter
			if cfg.MailEnabled() {
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
				alerter = mailer
			}

			job := func(ctx context.Context) error {
				return executeRun(ctx, cfg, logger)
			}

			sched := schedule.New(cfg.Schedule.Cron, job, alerter, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("scheduler starting", "cron", cfg.Schedule.Cron)
			return sched.Start(ctx)
		},
	}
}

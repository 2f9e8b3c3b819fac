package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/occam/cmd/app/commands"
	"github.com/allisson/occam/internal/app"
	"github.com/allisson/occam/internal/config"
)

func getComplianceCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "run-scheduled-audit",
			Usage: "Re-verify every document seen in the audit retention window",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				reverificationUseCase, err := container.ReverificationUseCase()
				if err != nil {
					return err
				}

				return commands.RunScheduledAudit(
					ctx,
					reverificationUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "generate-report",
			Usage: "Generate, seal and publish a compliance integrity report",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "start-date",
					Aliases: []string{"s"},
					Usage:   "Start date in YYYY-MM-DD or YYYY-MM-DD HH:MM:SS format (default: end minus report interval)",
				},
				&cli.StringFlag{
					Name:    "end-date",
					Aliases: []string{"e"},
					Usage:   "End date in YYYY-MM-DD or YYYY-MM-DD HH:MM:SS format (default: now)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				reportUseCase, err := container.ReportUseCase()
				if err != nil {
					return err
				}

				return commands.RunGenerateReport(
					ctx,
					reportUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("start-date"),
					cmd.String("end-date"),
					cfg.ReportInterval,
					cmd.String("format"),
				)
			},
		},
	}
}

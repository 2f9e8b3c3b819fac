package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/occam/cmd/app/commands"
	"github.com/allisson/occam/internal/app"
	"github.com/allisson/occam/internal/config"
)

func getAuditCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "verify-audit-chain",
			Usage: "Verify the hash chain of the audit trail",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "start-hash",
					Aliases: []string{"s"},
					Usage:   "Hash of the first record to verify (default: genesis)",
				},
				&cli.StringFlag{
					Name:    "end-hash",
					Aliases: []string{"e"},
					Usage:   "Hash of the last record to verify (default: tip)",
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

				auditUseCase, err := container.AuditUseCase()
				if err != nil {
					return err
				}

				return commands.RunVerifyAuditChain(
					ctx,
					auditUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("start-hash"),
					cmd.String("end-hash"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "clean-audit-trail",
			Usage: "Delete audit records older than specified days, keeping the chain tip",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:     "days",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Delete audit records older than this many days",
				},
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Value:   false,
					Usage:   "Show how many records would be deleted without deleting",
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

				auditUseCase, err := container.AuditUseCase()
				if err != nil {
					return err
				}

				return commands.RunCleanAuditTrail(
					ctx,
					auditUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("days")),
					cmd.Bool("dry-run"),
					cmd.String("format"),
				)
			},
		},
	}
}

package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/marketplace/cmd/app/commands"
	"github.com/allisson/marketplace/internal/app"
	"github.com/allisson/marketplace/internal/config"
)

func getRecurrenceCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "process-recurrences",
			Usage: "Run one scheduler pass over due recurrence definitions and exit",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				scheduler, err := container.Scheduler()
				if err != nil {
					return err
				}

				return commands.RunProcessRecurrences(ctx, scheduler, container.Logger())
			},
		},
	}
}
